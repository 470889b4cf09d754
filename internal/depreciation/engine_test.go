package depreciation

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func period(t *testing.T, y, m int) Period {
	t.Helper()
	p, err := NewPeriod(y, m)
	require.NoError(t, err)
	return p
}

func laptop() Asset {
	return Asset{
		Cost:            dec("120000"),
		Residual:        dec("12000"),
		UsefulLifeYears: 5,
		AcquiredAt:      time.Date(2024, time.March, 15, 10, 0, 0, 0, time.UTC),
	}
}

func TestCalculate_Scenario(t *testing.T) {
	tests := []struct {
		name        string
		year, month int
		monthly     string
		accumulated string
		nbv         string
	}{
		{"acquisition month is a half month", 2024, 3, "900", "900", "119100"},
		{"second month is a full month", 2024, 4, "1800", "2700", "117300"},
		{"first year end", 2024, 12, "1800", "17100", "102900"},
		{"before acquisition", 2024, 2, "0", "0", "120000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Calculate(laptop(), period(t, tt.year, tt.month))
			assert.True(t, dec(tt.monthly).Equal(got.Monthly), "monthly %s", got.Monthly)
			assert.True(t, dec(tt.accumulated).Equal(got.Accumulated), "accumulated %s", got.Accumulated)
			assert.True(t, dec(tt.nbv).Equal(got.NBV), "nbv %s", got.NBV)
			assert.False(t, got.FullyDepreciated)
		})
	}
}

func TestCalculate_EndOfLife(t *testing.T) {
	a := laptop()
	start := PeriodOf(a.AcquiredAt)

	// 2029-02: 59.5 effective months
	last := Calculate(a, start.AddMonths(59))
	assert.False(t, last.FullyDepreciated)
	assert.True(t, dec("107100").Equal(last.Accumulated))
	assert.True(t, dec("1800").Equal(last.Monthly))

	// 2029-03: the closing half month
	final := Calculate(a, start.AddMonths(60))
	assert.True(t, final.FullyDepreciated)
	assert.True(t, dec("108000").Equal(final.Accumulated))
	assert.True(t, dec("900").Equal(final.Monthly))
	assert.True(t, dec("12000").Equal(final.NBV))
	assert.Equal(t, start.AddMonths(60), FullyDepreciatedFrom(start, 5))

	after := Calculate(a, start.AddMonths(61))
	assert.True(t, after.FullyDepreciated)
	assert.True(t, after.Monthly.IsZero())
	assert.True(t, dec("12000").Equal(after.NBV))
}

func TestCalculate_Bounds(t *testing.T) {
	assets := []Asset{
		laptop(),
		{Cost: dec("1000"), Residual: dec("0"), UsefulLifeYears: 3, AcquiredAt: time.Date(2023, 1, 31, 0, 0, 0, 0, time.UTC)},
		{Cost: dec("999.99"), Residual: dec("100.01"), UsefulLifeYears: 7, AcquiredAt: time.Date(2022, 11, 1, 0, 0, 0, 0, time.UTC)},
		{Cost: dec("50"), Residual: dec("49.99"), UsefulLifeYears: 1, AcquiredAt: time.Date(2020, 6, 30, 0, 0, 0, 0, time.UTC)},
	}

	for _, a := range assets {
		depreciable := a.Cost.Sub(a.Residual)
		start := PeriodOf(a.AcquiredAt)
		prevNBV := a.Cost
		sumMonthly := decimal.Zero

		for i := 0; i < a.UsefulLifeYears*12+6; i++ {
			r := Calculate(a, start.AddMonths(i))
			sumMonthly = sumMonthly.Add(r.Monthly)

			assert.True(t, r.Accumulated.LessThanOrEqual(depreciable), "accumulated above depreciable at +%d", i)
			assert.True(t, r.NBV.LessThanOrEqual(prevNBV), "nbv increased at +%d", i)
			assert.True(t, r.NBV.GreaterThanOrEqual(a.Residual), "nbv under residual at +%d", i)
			assert.Equal(t, i >= a.UsefulLifeYears*12, r.FullyDepreciated, "fully depreciated flag at +%d", i)
			prevNBV = r.NBV
		}

		assert.True(t, sumMonthly.Sub(depreciable).Abs().LessThan(dec("0.000001")), "charges sum to %s, want %s", sumMonthly, depreciable)
	}
}

func TestCalculate_DegenerateInputs(t *testing.T) {
	acquired := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)

	t.Run("zero useful life", func(t *testing.T) {
		r := Calculate(Asset{Cost: dec("500"), Residual: dec("50"), AcquiredAt: acquired}, period(t, 2024, 6))
		assert.True(t, r.Monthly.IsZero())
		assert.True(t, r.Accumulated.IsZero())
		assert.True(t, dec("500").Equal(r.NBV))
		assert.False(t, r.FullyDepreciated)
	})

	t.Run("cost equals residual", func(t *testing.T) {
		r := Calculate(Asset{Cost: dec("500"), Residual: dec("500"), UsefulLifeYears: 4, AcquiredAt: acquired}, period(t, 2024, 1))
		assert.True(t, r.Monthly.IsZero())
		assert.True(t, r.Accumulated.IsZero())
		assert.True(t, dec("500").Equal(r.NBV))
		assert.True(t, r.FullyDepreciated)
	})

	t.Run("zero cost", func(t *testing.T) {
		r := Calculate(Asset{UsefulLifeYears: 2, AcquiredAt: acquired}, period(t, 2025, 1))
		assert.True(t, r.Monthly.IsZero())
		assert.True(t, r.NBV.IsZero())
	})
}

func TestPeriod(t *testing.T) {
	p, err := ParsePeriod("2024-11")
	require.NoError(t, err)
	assert.Equal(t, "2024-11", p.String())
	assert.Equal(t, "2025-02", p.AddMonths(3).String())
	assert.Equal(t, "2023-12", p.AddMonths(-11).String())
	assert.Equal(t, 1, p.MonthsSince(p))
	assert.Equal(t, 4, p.AddMonths(3).MonthsSince(p))
	assert.True(t, p.Before(p.AddMonths(1)))

	_, err = ParsePeriod("2024-13")
	assert.Error(t, err)
	_, err = NewPeriod(2024, 0)
	assert.Error(t, err)
}

func TestRound(t *testing.T) {
	assert.Equal(t, "33.33", Round(dec("100").Div(dec("3"))).StringFixed(2))
}
