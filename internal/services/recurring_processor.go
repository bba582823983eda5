package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"budget/internal/core"
	"budget/internal/ports"
)

// RecurringProcessor turns due recurring templates into expenses.
type RecurringProcessor struct {
	recurring ports.RecurringStore
	expenses  *ExpenseService
}

func NewRecurringProcessor(recurring ports.RecurringStore, expenses *ExpenseService) *RecurringProcessor {
	return &RecurringProcessor{
		recurring: recurring,
		expenses:  expenses,
	}
}

// ProcessDue creates one expense per due template, dated on its latest
// scheduled payment day, and stamps the template with now. Failures on one
// template are logged and do not stop the others.
func (p *RecurringProcessor) ProcessDue(ctx context.Context, now time.Time) (int, error) {
	if p.recurring == nil || p.expenses == nil {
		return 0, fmt.Errorf("processor not properly initialized")
	}

	templates, err := p.recurring.ListRecurring(ctx)
	if err != nil {
		return 0, fmt.Errorf("list recurring payments: %w", err)
	}

	slog.InfoContext(ctx, "Processing recurring payments",
		"total", len(templates),
		"processing_date", now.Format("2006-01-02"))

	processed := 0
	for _, rp := range templates {
		if err := ctx.Err(); err != nil {
			return processed, err
		}

		date, due, err := IsDue(rp, now)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to check if payment is due", "id", rp.ID, "error", err)
			continue
		}
		if !due {
			continue
		}

		_, err = p.expenses.CreateExpense(ctx, core.Expense{
			Date:        date,
			Description: rp.Description,
			Amount:      rp.Amount,
			Category:    rp.Category,
		})
		if err != nil {
			slog.ErrorContext(ctx, "Failed to create expense from recurring template",
				"recurring_id", rp.ID,
				"description", rp.Description,
				"error", err)
			continue
		}

		if err := p.recurring.UpdateLastExecution(ctx, rp.ID, now); err != nil {
			// The expense exists; the next run will create a duplicate unless fixed.
			slog.ErrorContext(ctx, "Failed to update last execution date",
				"recurring_id", rp.ID,
				"error", err)
		}

		processed++
		slog.InfoContext(ctx, "Created expense from recurring template",
			"recurring_id", rp.ID,
			"date", date.Format("2006-01-02"),
			"amount_cents", rp.Amount.Cents,
			"frequency", rp.Every)
	}

	slog.InfoContext(ctx, "Recurring payment processing complete",
		"processed", processed,
		"total_checked", len(templates))

	return processed, nil
}
