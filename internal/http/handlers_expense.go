package http

import (
	"net/http"
	"strings"

	"budget/internal/core"
)

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	ym, err := monthParam(r, "month", s.now())
	if err != nil {
		writeError(w, r, err)
		return
	}

	list, err := s.svc.Expenses.ListExpenses(r.Context(), ym)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]expenseResponse, 0, len(list))
	for _, e := range list {
		out = append(out, newExpenseResponse(e))
	}
	writeJSON(w, http.StatusOK, out)
}

// handleCreateExpense records a one-off expense; a missing date means today.
func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	now := s.now()
	e := core.Expense{
		Date:        core.NewDate(now.Year(), int(now.Month()), now.Day()),
		Description: sanitizeInput(req.Description),
		Category:    sanitizeInput(req.Category),
	}
	if strings.TrimSpace(req.Date) != "" {
		d, err := core.ParseDate(req.Date)
		if err != nil {
			writeError(w, r, validationError("date", err))
			return
		}
		e.Date = d
	}
	amount, err := req.Amount.cents()
	if err != nil {
		writeError(w, r, err)
		return
	}
	e.Amount = amount

	created, err := s.svc.Expenses.CreateExpense(r.Context(), e)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newExpenseResponse(created))
}
