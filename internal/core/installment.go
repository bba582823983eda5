package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidInstallmentCount = errors.New("installment count must be at least 1")
	ErrInvalidStartMonth       = errors.New("invalid start month")
	ErrMissingTotal            = errors.New("total amount is required")
	ErrInvalidID               = errors.New("id must be 1-64 characters of letters, digits, '-', '_', '.' or '~'")
)

const maxIDLen = 64

// InstallmentPayment is a total amount repaid in equal monthly shares,
// the first one falling in StartMonth. Any of TotalAmount, InstallmentCount
// and StartMonth may be missing on records saved from partially filled forms.
type InstallmentPayment struct {
	ID               string
	Description      string
	Category         string
	TotalAmount      decimal.NullDecimal
	InstallmentCount int
	StartMonth       YearMonth
}

// ProgressResult is derived on every call and never persisted.
//
// RemainingAmount is exactly TotalAmount - MonthlyInstallment*MonthsElapsed.
// MonthlyInstallment is a rounded quotient, so when the total does not divide
// evenly a finished plan can leave a residue far below a cent (200/3 leaves
// -0.0000000000000001). Round to cents before comparing with zero.
type ProgressResult struct {
	MonthlyInstallment decimal.Decimal
	MonthsElapsed      int
	PercentComplete    float64
	RemainingAmount    decimal.Decimal
}

// NewInstallmentPayment fills in every field of a complete record.
func NewInstallmentPayment(description string, total decimal.Decimal, count int, start YearMonth) InstallmentPayment {
	return InstallmentPayment{
		Description:      description,
		TotalAmount:      decimal.NewNullDecimal(total),
		InstallmentCount: count,
		StartMonth:       start,
	}
}

// Complete reports whether the calculator has everything it needs.
func (p InstallmentPayment) Complete() bool {
	return p.TotalAmount.Valid &&
		!p.TotalAmount.Decimal.IsNegative() &&
		p.InstallmentCount >= 1 &&
		p.StartMonth.Valid()
}

// Validate is used on the write path only; the calculator itself accepts
// incomplete records.
func (p InstallmentPayment) Validate() error {
	if p.ID != "" && !ValidID(p.ID) {
		return ErrInvalidID
	}
	if strings.TrimSpace(p.Description) == "" {
		return ErrEmptyDescription
	}
	if len(p.Description) > maxDescriptionLen {
		return ErrDescriptionLong
	}
	if !p.TotalAmount.Valid {
		return ErrMissingTotal
	}
	if !p.TotalAmount.Decimal.IsPositive() {
		return ErrInvalidAmount
	}
	if p.InstallmentCount < 1 {
		return ErrInvalidInstallmentCount
	}
	if !p.StartMonth.Valid() {
		return ErrInvalidStartMonth
	}
	return nil
}

// MonthlyInstallment is the flat share paid each month, zero for incomplete records.
func (p InstallmentPayment) MonthlyInstallment() decimal.Decimal {
	if !p.Complete() {
		return decimal.Zero
	}
	return p.TotalAmount.Decimal.Div(decimal.NewFromInt(int64(p.InstallmentCount)))
}

// EndMonth is the month of the last installment. It is the zero YearMonth
// for incomplete records.
func (p InstallmentPayment) EndMonth() YearMonth {
	if !p.Complete() {
		return YearMonth{}
	}
	return p.StartMonth.AddMonths(p.InstallmentCount - 1)
}

// IsActive reports whether ym falls in [StartMonth, EndMonth].
func (p InstallmentPayment) IsActive(ym YearMonth) bool {
	if !p.Complete() || !ym.Valid() {
		return false
	}
	idx := ym.Index()
	return idx >= p.StartMonth.Index() && idx <= p.EndMonth().Index()
}

// CostFor returns the monthly share when ym is an active month and zero otherwise.
func (p InstallmentPayment) CostFor(ym YearMonth) decimal.Decimal {
	if !p.IsActive(ym) {
		return decimal.Zero
	}
	return p.MonthlyInstallment()
}

// ComputeProgress measures p against the calendar month of ref. The day of
// month and time of day of ref are ignored.
func ComputeProgress(p InstallmentPayment, ref time.Time) ProgressResult {
	return ProgressAt(p, YearMonthOf(ref))
}

// ProgressAt counts the start month itself as the first elapsed installment,
// so a payment starting in ym is one installment in during all of ym.
func ProgressAt(p InstallmentPayment, ym YearMonth) ProgressResult {
	if !p.Complete() || !ym.Valid() {
		return safeDefault(p)
	}

	total := p.TotalAmount.Decimal
	count := p.InstallmentCount
	monthly := total.Div(decimal.NewFromInt(int64(count)))

	elapsed := p.StartMonth.MonthsUntil(ym) + 1
	elapsed = max(0, min(elapsed, count))

	percent := float64(elapsed) / float64(count) * 100
	percent = max(0, min(percent, 100))

	return ProgressResult{
		MonthlyInstallment: monthly,
		MonthsElapsed:      elapsed,
		PercentComplete:    percent,
		RemainingAmount:    total.Sub(monthly.Mul(decimal.NewFromInt(int64(elapsed)))),
	}
}

func safeDefault(p InstallmentPayment) ProgressResult {
	remaining := decimal.Zero
	if p.TotalAmount.Valid && !p.TotalAmount.Decimal.IsNegative() {
		remaining = p.TotalAmount.Decimal
	}
	return ProgressResult{
		MonthlyInstallment: decimal.Zero,
		RemainingAmount:    remaining,
	}
}

// BatchTotal sums the monthly share of every payment active in ym.
func BatchTotal(payments []InstallmentPayment, ym YearMonth) decimal.Decimal {
	total := decimal.Zero
	for _, p := range payments {
		total = total.Add(p.CostFor(ym))
	}
	return total
}

// ValidID reports whether id can be used as a single URL path segment
// without escaping: unreserved characters only, and not "." or "..".
func ValidID(id string) bool {
	if id == "" || len(id) > maxIDLen || id == "." || id == ".." {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-', r == '_', r == '.', r == '~':
		default:
			return false
		}
	}
	return true
}
