package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"budget/internal/amqp"
	"budget/internal/core"
	"budget/internal/ports"
)

// SyncWorker mirrors installment progress from the store to an exporter.
type SyncWorker struct {
	storage  ports.InstallmentStore
	exporter ports.ProgressExporter
	now      func() time.Time
}

func NewSyncWorker(storage ports.InstallmentStore, exporter ports.ProgressExporter) *SyncWorker {
	return &SyncWorker{
		storage:  storage,
		exporter: exporter,
		now:      time.Now,
	}
}

// WithClock replaces the worker clock used as the progress reference date.
func (w *SyncWorker) WithClock(now func() time.Time) *SyncWorker {
	w.now = now
	return w
}

// HandleSyncMessage processes a single installment sync message from AMQP.
// An upsert for an installment that no longer exists removes its row.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.InstallmentSyncMessage) error {
	slog.InfoContext(ctx, "Processing sync message",
		"id", msg.ID,
		"action", msg.Action)

	if msg.Action == amqp.ActionDelete {
		return w.remove(ctx, msg.ID)
	}

	p, err := w.storage.GetInstallment(ctx, msg.ID)
	if errors.Is(err, ports.ErrNotFound) {
		slog.WarnContext(ctx, "Installment vanished before export, removing row", "id", msg.ID)
		return w.remove(ctx, msg.ID)
	}
	if err != nil {
		return fmt.Errorf("get installment from storage: %w", err)
	}

	return w.export(ctx, p, core.YearMonthOf(w.now()))
}

// ExportAll re-exports every stored installment at the current month. One
// failing row does not stop the others; all failures are returned joined.
func (w *SyncWorker) ExportAll(ctx context.Context) (int, error) {
	payments, err := w.storage.ListInstallments(ctx)
	if err != nil {
		return 0, fmt.Errorf("list installments: %w", err)
	}

	ym := core.YearMonthOf(w.now())
	var (
		exported int
		errs     []error
	)
	for _, p := range payments {
		if err := ctx.Err(); err != nil {
			return exported, err
		}
		if err := w.export(ctx, p, ym); err != nil {
			errs = append(errs, err)
			continue
		}
		exported++
	}

	slog.InfoContext(ctx, "Installment export complete",
		"exported", exported,
		"failed", len(errs),
		"month", ym.String())
	return exported, errors.Join(errs...)
}

func (w *SyncWorker) export(ctx context.Context, p core.InstallmentPayment, ym core.YearMonth) error {
	progress := core.ProgressAt(p, ym)
	if err := w.exporter.Export(ctx, p, progress, ym); err != nil {
		slog.ErrorContext(ctx, "Failed to export installment", "id", p.ID, "error", err)
		return fmt.Errorf("export installment %s: %w", p.ID, err)
	}
	slog.InfoContext(ctx, "Successfully exported installment",
		"id", p.ID,
		"months_elapsed", progress.MonthsElapsed,
		"remaining", progress.RemainingAmount.StringFixed(2))
	return nil
}

func (w *SyncWorker) remove(ctx context.Context, id string) error {
	if err := w.exporter.Remove(ctx, id); err != nil {
		return fmt.Errorf("remove installment %s: %w", id, err)
	}
	slog.InfoContext(ctx, "Successfully removed installment row", "id", id)
	return nil
}
