package core

import (
	"sort"

	"github.com/shopspring/decimal"
)

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string
	Amount Money
}

// MonthOverview is a compact summary for a specific year+month.
type MonthOverview struct {
	Month        YearMonth
	Expenses     Money
	Recurring    Money
	Installments Money
	Total        Money
	ByCategory   []CategoryAmount
}

// BuildMonthOverview folds one-off expenses, recurring templates and
// installment shares for ym into a single overview. Installment shares are
// summed at full precision and rounded to cents once per category, so
// ov.Installments always matches MoneyFromDecimal(BatchTotal(installments, ym)).
func BuildMonthOverview(ym YearMonth, expenses []Expense, recurring []RecurringPayment, installments []InstallmentPayment) MonthOverview {
	ov := MonthOverview{Month: ym}
	byCat := map[string]Money{}
	shares := map[string]decimal.Decimal{}

	for _, e := range expenses {
		if e.Date.YearMonth() != ym {
			continue
		}
		ov.Expenses = ov.Expenses.Add(e.Amount)
		byCat[e.Category] = byCat[e.Category].Add(e.Amount)
	}
	for _, rp := range recurring {
		cost := rp.CostFor(ym)
		if cost.Cents == 0 {
			continue
		}
		ov.Recurring = ov.Recurring.Add(cost)
		byCat[rp.Category] = byCat[rp.Category].Add(cost)
	}
	for _, p := range installments {
		share := p.CostFor(ym)
		if share.Equal(decimal.Zero) {
			continue
		}
		cat := p.Category
		if cat == "" {
			cat = "Installments"
		}
		shares[cat] = shares[cat].Add(share)
	}
	ov.Installments = MoneyFromDecimal(BatchTotal(installments, ym))
	for cat, share := range shares {
		byCat[cat] = byCat[cat].Add(MoneyFromDecimal(share))
	}

	ov.Total = ov.Expenses.Add(ov.Recurring).Add(ov.Installments)
	for name, amt := range byCat {
		ov.ByCategory = append(ov.ByCategory, CategoryAmount{Name: name, Amount: amt})
	}
	sort.Slice(ov.ByCategory, func(i, j int) bool {
		if ov.ByCategory[i].Amount.Cents != ov.ByCategory[j].Amount.Cents {
			return ov.ByCategory[i].Amount.Cents > ov.ByCategory[j].Amount.Cents
		}
		return ov.ByCategory[i].Name < ov.ByCategory[j].Name
	})
	return ov
}
