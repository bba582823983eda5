package services

import (
	"context"
	"fmt"
	"log/slog"

	"budget/internal/core"
	"budget/internal/ports"
)

// RecurringService manages recurring payment templates.
type RecurringService struct {
	storage ports.RecurringStore
}

func NewRecurringService(storage ports.RecurringStore) *RecurringService {
	return &RecurringService{storage: storage}
}

func (s *RecurringService) Create(ctx context.Context, rp core.RecurringPayment) (core.RecurringPayment, error) {
	if err := rp.Validate(); err != nil {
		return core.RecurringPayment{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	id, err := s.storage.CreateRecurring(ctx, rp)
	if err != nil {
		return core.RecurringPayment{}, fmt.Errorf("save recurring payment: %w", err)
	}
	rp.ID = id

	slog.InfoContext(ctx, "Recurring payment created",
		"id", id,
		"every", rp.Every,
		"amount_cents", rp.Amount.Cents)
	return rp, nil
}

func (s *RecurringService) List(ctx context.Context) ([]core.RecurringPayment, error) {
	return s.storage.ListRecurring(ctx)
}

func (s *RecurringService) Delete(ctx context.Context, id int64) error {
	if err := s.storage.DeleteRecurring(ctx, id); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Recurring payment deleted", "id", id)
	return nil
}
