package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"budget/internal/amqp"
	"budget/internal/cache"
	"budget/internal/core"
	"budget/internal/ports"
)

// SyncPublisher announces installment changes to the export worker.
type SyncPublisher interface {
	PublishInstallmentSync(ctx context.Context, id string, action amqp.SyncAction) error
}

// InstallmentProgress pairs a stored payment with its progress at a reference month.
type InstallmentProgress struct {
	Payment  core.InstallmentPayment
	Progress core.ProgressResult
	Month    core.YearMonth
	Active   bool
}

func progressOf(p core.InstallmentPayment, ym core.YearMonth) InstallmentProgress {
	return InstallmentProgress{
		Payment:  p,
		Progress: core.ProgressAt(p, ym),
		Month:    ym,
		Active:   p.IsActive(ym),
	}
}

// InstallmentService orchestrates installment storage, progress evaluation,
// cached month totals and sync notifications.
type InstallmentService struct {
	storage   ports.InstallmentStore
	publisher SyncPublisher
	totals    cache.Cache[decimal.Decimal]
	workers   int
	newID     func() string

	// totalsMu orders cache fills against invalidations. totalsGen changes
	// on every invalidation so a total computed from an older listing is
	// never stored.
	totalsMu  sync.Mutex
	totalsGen uint64
}

type InstallmentOption func(*InstallmentService)

// WithPublisher enables sync notifications. Without it changes are only stored.
func WithPublisher(p SyncPublisher) InstallmentOption {
	return func(s *InstallmentService) { s.publisher = p }
}

// WithTotalsCache caches MonthTotal results keyed by "YYYY-MM".
func WithTotalsCache(c cache.Cache[decimal.Decimal]) InstallmentOption {
	return func(s *InstallmentService) { s.totals = c }
}

// WithWorkers bounds the goroutines used by ProgressAll.
func WithWorkers(n int) InstallmentOption {
	return func(s *InstallmentService) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithIDGenerator replaces the uuid generator, for tests.
func WithIDGenerator(fn func() string) InstallmentOption {
	return func(s *InstallmentService) { s.newID = fn }
}

func NewInstallmentService(storage ports.InstallmentStore, opts ...InstallmentOption) *InstallmentService {
	s := &InstallmentService{
		storage: storage,
		workers: 4,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create validates p, assigns an ID, persists it and notifies the exporter.
// A failed notification is logged and does not fail the call.
func (s *InstallmentService) Create(ctx context.Context, p core.InstallmentPayment) (core.InstallmentPayment, error) {
	if err := p.Validate(); err != nil {
		return core.InstallmentPayment{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	if p.ID == "" {
		p.ID = s.newID()
	}

	if err := s.storage.CreateInstallment(ctx, p); err != nil {
		return core.InstallmentPayment{}, fmt.Errorf("save installment: %w", err)
	}

	s.invalidate(ctx, p)
	s.publish(ctx, p.ID, amqp.ActionUpsert)

	slog.DebugContext(ctx, "Installment stored",
		"id", p.ID,
		"total_amount", p.TotalAmount.Decimal.String(),
		"installment_count", p.InstallmentCount,
		"start_month", p.StartMonth.String())
	return p, nil
}

func (s *InstallmentService) Get(ctx context.Context, id string) (core.InstallmentPayment, error) {
	return s.storage.GetInstallment(ctx, id)
}

func (s *InstallmentService) List(ctx context.Context) ([]core.InstallmentPayment, error) {
	return s.storage.ListInstallments(ctx)
}

// Progress evaluates one installment against the calendar month of ref.
func (s *InstallmentService) Progress(ctx context.Context, id string, ref time.Time) (InstallmentProgress, error) {
	p, err := s.storage.GetInstallment(ctx, id)
	if err != nil {
		return InstallmentProgress{}, err
	}
	return progressOf(p, core.YearMonthOf(ref)), nil
}

// ProgressAll evaluates every stored installment against ref. Results keep
// the storage order.
func (s *InstallmentService) ProgressAll(ctx context.Context, ref time.Time) ([]InstallmentProgress, error) {
	payments, err := s.storage.ListInstallments(ctx)
	if err != nil {
		return nil, fmt.Errorf("list installments: %w", err)
	}

	ym := core.YearMonthOf(ref)
	results := make([]InstallmentProgress, len(payments))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, p := range payments {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = progressOf(p, ym)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// MonthTotal is the sum of the monthly shares due in ym.
//
// Writes through this service invalidate the cached totals they affect.
// Writes made by other processes against the same database (budgetctl add,
// a second server sharing Redis) are only picked up once the cached entry
// expires, so such totals can be stale for up to the cache TTL.
func (s *InstallmentService) MonthTotal(ctx context.Context, ym core.YearMonth) (decimal.Decimal, error) {
	if !ym.Valid() {
		return decimal.Zero, fmt.Errorf("%w: %w", ErrValidation, core.ErrInvalidMonth)
	}

	key := ym.String()
	if s.totals != nil {
		if total, ok := s.totals.Get(ctx, key); ok {
			return total, nil
		}
	}

	s.totalsMu.Lock()
	gen := s.totalsGen
	s.totalsMu.Unlock()

	payments, err := s.storage.ListInstallments(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("list installments: %w", err)
	}
	total := core.BatchTotal(payments, ym)

	if s.totals != nil {
		s.totalsMu.Lock()
		if gen == s.totalsGen {
			s.totals.Set(ctx, key, total)
		}
		s.totalsMu.Unlock()
	}
	return total, nil
}

// Delete removes the installment, its cached month totals and its exported row.
func (s *InstallmentService) Delete(ctx context.Context, id string) error {
	p, err := s.storage.GetInstallment(ctx, id)
	if err != nil {
		return err
	}
	if err := s.storage.DeleteInstallment(ctx, id); err != nil {
		return err
	}

	s.invalidate(ctx, p)
	s.publish(ctx, id, amqp.ActionDelete)

	slog.InfoContext(ctx, "Installment deleted", "id", id)
	return nil
}

// invalidate drops the cached totals of every month p contributes to.
func (s *InstallmentService) invalidate(ctx context.Context, p core.InstallmentPayment) {
	if s.totals == nil || !p.Complete() {
		return
	}
	keys := make([]string, 0, p.InstallmentCount)
	for ym := p.StartMonth; !ym.After(p.EndMonth()); ym = ym.AddMonths(1) {
		keys = append(keys, ym.String())
	}

	s.totalsMu.Lock()
	defer s.totalsMu.Unlock()
	s.totalsGen++
	s.totals.Delete(ctx, keys...)
}

func (s *InstallmentService) publish(ctx context.Context, id string, action amqp.SyncAction) {
	if s.publisher == nil {
		slog.DebugContext(ctx, "AMQP client not available, skipping sync message", "id", id)
		return
	}
	if err := s.publisher.PublishInstallmentSync(ctx, id, action); err != nil {
		level := slog.LevelError
		if errors.Is(err, amqp.ErrCircuitOpen) {
			level = slog.LevelWarn
		}
		slog.Log(ctx, level, "Failed to publish sync message", "id", id, "action", action, "error", err)
	}
}
