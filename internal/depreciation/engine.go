// Package depreciation computes straight-line depreciation with a half-month charge in the acquisition month.
//
// All arithmetic stays in full decimal precision. Callers round to two places when presenting figures.
package depreciation

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var (
	half   = decimal.NewFromFloat(0.5)
	one    = decimal.NewFromInt(1)
	twelve = decimal.NewFromInt(12)
)

// Period is a reporting month.
type Period struct {
	Year  int
	Month time.Month
}

func NewPeriod(year, month int) (Period, error) {
	if month < 1 || month > 12 {
		return Period{}, fmt.Errorf("month must be between 1 and 12, got %d", month)
	}
	if year < 1900 || year > 9999 {
		return Period{}, fmt.Errorf("year out of range: %d", year)
	}
	return Period{Year: year, Month: time.Month(month)}, nil
}

// PeriodOf returns the month containing t.
func PeriodOf(t time.Time) Period {
	return Period{Year: t.Year(), Month: t.Month()}
}

// ParsePeriod accepts "YYYY-MM".
func ParsePeriod(s string) (Period, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Period{}, fmt.Errorf("invalid period %q, expected YYYY-MM", s)
	}
	return PeriodOf(t), nil
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

func (p Period) index() int {
	return p.Year*12 + int(p.Month) - 1
}

// Before reports whether p is strictly earlier than o.
func (p Period) Before(o Period) bool { return p.index() < o.index() }

// AddMonths shifts p by n months.
func (p Period) AddMonths(n int) Period {
	i := p.index() + n
	return Period{Year: i / 12, Month: time.Month(i%12 + 1)}
}

// MonthsSince is the inclusive month count from start through p. It is 1 when both are the same month.
func (p Period) MonthsSince(start Period) int {
	return p.index() - start.index() + 1
}

// Asset is the subset of an asset's attributes the engine reads.
type Asset struct {
	Cost            decimal.Decimal
	Residual        decimal.Decimal
	UsefulLifeYears int
	AcquiredAt      time.Time
}

type Result struct {
	Monthly          decimal.Decimal
	Accumulated      decimal.Decimal
	NBV              decimal.Decimal
	FullyDepreciated bool
	MonthsElapsed    int
}

// Calculate returns the figures for a as of period p. It never panics for any input.
func Calculate(a Asset, p Period) Result {
	idle := Result{
		Monthly:     decimal.Zero,
		Accumulated: decimal.Zero,
		NBV:         a.Cost,
	}
	if a.UsefulLifeYears <= 0 {
		return idle
	}

	start := PeriodOf(a.AcquiredAt)
	if p.Before(start) {
		return idle
	}

	depreciable := a.Cost.Sub(a.Residual)
	if depreciable.IsNegative() {
		depreciable = decimal.Zero
	}
	lifeMonths := decimal.NewFromInt(int64(a.UsefulLifeYears)).Mul(twelve)
	rate := depreciable.Div(lifeMonths)

	n := p.MonthsSince(start)
	effective := clamp(effectiveMonths(n), lifeMonths)
	accumulated := accumulatedFor(rate, effective, lifeMonths, depreciable)

	nbv := decimal.Max(a.Cost.Sub(accumulated), a.Residual)

	prior := clamp(effectiveBefore(n), lifeMonths)
	remaining := depreciable.Sub(accumulatedFor(rate, prior, lifeMonths, depreciable))

	monthly := decimal.Zero
	if rate.IsPositive() && remaining.IsPositive() && prior.LessThan(lifeMonths) {
		step := one
		if n == 1 {
			step = half
		}
		monthly = rate.Mul(decimal.Min(step, remaining.Div(rate)))
		monthly = decimal.Min(monthly, remaining)
	}

	return Result{
		Monthly:          monthly,
		Accumulated:      accumulated,
		NBV:              nbv,
		FullyDepreciated: accumulated.GreaterThanOrEqual(depreciable),
		MonthsElapsed:    n,
	}
}

// effectiveMonths applies the half-month convention: the acquisition month counts as half.
func effectiveMonths(n int) decimal.Decimal {
	if n == 1 {
		return half
	}
	return decimal.NewFromInt(int64(n)).Sub(half)
}

// effectiveBefore is the effective month count at the end of the previous month.
func effectiveBefore(n int) decimal.Decimal {
	if n == 1 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(n)).Sub(decimal.NewFromFloat(1.5))
}

func clamp(v, max decimal.Decimal) decimal.Decimal {
	if v.IsNegative() {
		return decimal.Zero
	}
	return decimal.Min(v, max)
}

// accumulatedFor pins the end of life to the depreciable amount so that division
// residue never leaves an asset a fraction short of (or past) fully depreciated.
func accumulatedFor(rate, effective, lifeMonths, depreciable decimal.Decimal) decimal.Decimal {
	if effective.Equal(lifeMonths) {
		return depreciable
	}
	return decimal.Min(rate.Mul(effective), depreciable)
}

// FullyDepreciatedFrom returns the first period in which an asset with the given
// useful life, acquired in start, reports as fully depreciated.
func FullyDepreciatedFrom(start Period, usefulLifeYears int) Period {
	return start.AddMonths(usefulLifeYears * 12)
}

// Round is the presentation rounding used by every report.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
