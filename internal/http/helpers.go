package http

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"budget/internal/core"
	"budget/internal/services"
)

// amountField accepts an amount as a JSON number or string ("12.50", "12,50").
type amountField string

func (a *amountField) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*a = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*a = amountField(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return errors.New("amount must be a number or a string")
	}
	*a = amountField(n.String())
	return nil
}

func (a amountField) cents() (core.Money, error) {
	cents, err := core.ParseDecimalToCents(string(a))
	if err != nil {
		return core.Money{}, validationError("amount", err)
	}
	return core.Money{Cents: cents}, nil
}

type installmentRequest struct {
	ID               string      `json:"id,omitempty"`
	Description      string      `json:"description"`
	Category         string      `json:"category"`
	TotalAmount      amountField `json:"total_amount"`
	InstallmentCount int         `json:"installment_count"`
	StartMonth       string      `json:"start_month"`
}

// toDomain converts the request; missing fields stay missing so validation
// reports them.
func (req installmentRequest) toDomain() (core.InstallmentPayment, error) {
	p := core.InstallmentPayment{
		ID:               sanitizeInput(req.ID),
		Description:      sanitizeInput(req.Description),
		Category:         sanitizeInput(req.Category),
		InstallmentCount: req.InstallmentCount,
	}
	if req.TotalAmount != "" {
		total, err := core.ParseAmount(string(req.TotalAmount))
		if err != nil {
			return p, validationError("total_amount", err)
		}
		p.TotalAmount = decimal.NewNullDecimal(total)
	}
	if strings.TrimSpace(req.StartMonth) != "" {
		ym, err := core.ParseYearMonth(req.StartMonth)
		if err != nil {
			return p, validationError("start_month", err)
		}
		p.StartMonth = ym
	}
	return p, nil
}

type installmentResponse struct {
	ID                 string  `json:"id"`
	Description        string  `json:"description"`
	Category           string  `json:"category,omitempty"`
	TotalAmount        *string `json:"total_amount"`
	InstallmentCount   int     `json:"installment_count"`
	StartMonth         string  `json:"start_month,omitempty"`
	EndMonth           string  `json:"end_month,omitempty"`
	Month              string  `json:"month"`
	Active             bool    `json:"active"`
	MonthlyInstallment string  `json:"monthly_installment"`
	MonthsElapsed      int     `json:"months_elapsed"`
	PercentComplete    float64 `json:"percent_complete"`
	RemainingAmount    string  `json:"remaining_amount"`
}

// newInstallmentResponse renders amounts rounded to cents; the calculation
// itself keeps full precision.
func newInstallmentResponse(ip services.InstallmentProgress) installmentResponse {
	p := ip.Payment
	resp := installmentResponse{
		ID:                 p.ID,
		Description:        p.Description,
		Category:           p.Category,
		InstallmentCount:   p.InstallmentCount,
		Month:              ip.Month.String(),
		Active:             ip.Active,
		MonthlyInstallment: ip.Progress.MonthlyInstallment.StringFixed(2),
		MonthsElapsed:      ip.Progress.MonthsElapsed,
		PercentComplete:    ip.Progress.PercentComplete,
		RemainingAmount:    ip.Progress.RemainingAmount.StringFixed(2),
	}
	if p.TotalAmount.Valid {
		total := p.TotalAmount.Decimal.StringFixed(2)
		resp.TotalAmount = &total
	}
	if p.StartMonth.Valid() {
		resp.StartMonth = p.StartMonth.String()
	}
	if p.Complete() {
		resp.EndMonth = p.EndMonth().String()
	}
	return resp
}

type recurringRequest struct {
	StartDate   string      `json:"start_date"`
	EndDate     string      `json:"end_date,omitempty"`
	Every       string      `json:"every"`
	Description string      `json:"description"`
	Amount      amountField `json:"amount"`
	Category    string      `json:"category"`
}

func (req recurringRequest) toDomain() (core.RecurringPayment, error) {
	rp := core.RecurringPayment{
		Every:       core.RepetitionTypes(strings.ToLower(strings.TrimSpace(req.Every))),
		Description: sanitizeInput(req.Description),
		Category:    sanitizeInput(req.Category),
	}
	start, err := core.ParseDate(req.StartDate)
	if err != nil {
		return rp, validationError("start_date", err)
	}
	rp.StartDate = start
	if strings.TrimSpace(req.EndDate) != "" {
		end, err := core.ParseDate(req.EndDate)
		if err != nil {
			return rp, validationError("end_date", err)
		}
		rp.EndDate = end
	}
	if rp.Amount, err = req.Amount.cents(); err != nil {
		return rp, err
	}
	return rp, nil
}

type recurringResponse struct {
	ID            int64  `json:"id"`
	StartDate     string `json:"start_date"`
	EndDate       string `json:"end_date,omitempty"`
	Every         string `json:"every"`
	Description   string `json:"description"`
	Amount        string `json:"amount"`
	Category      string `json:"category"`
	LastExecution string `json:"last_execution,omitempty"`
}

func newRecurringResponse(rp core.RecurringPayment) recurringResponse {
	resp := recurringResponse{
		ID:          rp.ID,
		StartDate:   rp.StartDate.Format("2006-01-02"),
		Every:       string(rp.Every),
		Description: rp.Description,
		Amount:      rp.Amount.String(),
		Category:    rp.Category,
	}
	if !rp.EndDate.IsZero() {
		resp.EndDate = rp.EndDate.Format("2006-01-02")
	}
	if !rp.LastExecution.IsZero() {
		resp.LastExecution = rp.LastExecution.UTC().Format(time.RFC3339)
	}
	return resp
}

type expenseRequest struct {
	Date        string      `json:"date"`
	Description string      `json:"description"`
	Amount      amountField `json:"amount"`
	Category    string      `json:"category"`
}

type expenseResponse struct {
	ID          int64  `json:"id"`
	Date        string `json:"date"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Category    string `json:"category"`
}

func newExpenseResponse(e core.Expense) expenseResponse {
	return expenseResponse{
		ID:          e.ID,
		Date:        e.Date.Format("2006-01-02"),
		Description: e.Description,
		Amount:      e.Amount.String(),
		Category:    e.Category,
	}
}

type categoryAmount struct {
	Name   string `json:"name"`
	Amount string `json:"amount"`
}

type overviewResponse struct {
	Month        string           `json:"month"`
	Expenses     string           `json:"expenses"`
	Recurring    string           `json:"recurring"`
	Installments string           `json:"installments"`
	Total        string           `json:"total"`
	ByCategory   []categoryAmount `json:"by_category"`
}

func newOverviewResponse(ov core.MonthOverview) overviewResponse {
	resp := overviewResponse{
		Month:        ov.Month.String(),
		Expenses:     ov.Expenses.String(),
		Recurring:    ov.Recurring.String(),
		Installments: ov.Installments.String(),
		Total:        ov.Total.String(),
		ByCategory:   make([]categoryAmount, 0, len(ov.ByCategory)),
	}
	for _, c := range ov.ByCategory {
		resp.ByCategory = append(resp.ByCategory, categoryAmount{Name: c.Name, Amount: c.Amount.String()})
	}
	return resp
}
