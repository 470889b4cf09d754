// Package report folds per-asset depreciation into the monthly schedule and the
// statement of financial position.
package report

import (
	"sort"
	"strings"

	"github.com/Lahiru-360/fixed-asset-registry-final/internal/depreciation"
	"github.com/Lahiru-360/fixed-asset-registry-final/internal/model"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StatusFilter narrows a schedule page by depreciation state.
type StatusFilter string

const (
	StatusAll              StatusFilter = "All"
	StatusActive           StatusFilter = "Active"
	StatusFullyDepreciated StatusFilter = "Fully Depreciated"
)

func ParseStatusFilter(v string) (StatusFilter, bool) {
	switch StatusFilter(v) {
	case "", StatusAll:
		return StatusAll, true
	case StatusActive, StatusFullyDepreciated:
		return StatusFilter(v), true
	}
	return "", false
}

const DefaultLimit = 10

type ScheduleRow struct {
	AssetID                 uuid.UUID       `json:"asset_id"`
	AssetNumber             string          `json:"asset_number"`
	AssetName               string          `json:"asset_name"`
	Category                string          `json:"category"`
	PurchaseCost            decimal.Decimal `json:"purchase_cost"`
	ResidualValue           decimal.Decimal `json:"residual_value"`
	MonthlyDepreciation     decimal.Decimal `json:"monthly_depreciation"`
	AccumulatedDepreciation decimal.Decimal `json:"accumulated_depreciation"`
	NBV                     decimal.Decimal `json:"nbv"`
	FullyDepreciated        bool            `json:"fully_depreciated"`
}

// Schedule is the full monthly schedule for one period. Figures are presentation-rounded;
// Total is rounded once from the unrounded sum of every row's charge.
type Schedule struct {
	Period string          `json:"period"`
	Total  decimal.Decimal `json:"total"`
	Assets []ScheduleRow   `json:"assets"`
}

type ScheduleQuery struct {
	Page   int
	Limit  int
	Search string
	Status StatusFilter
}

type SchedulePage struct {
	Period     string          `json:"period"`
	Total      decimal.Decimal `json:"total"`
	Assets     []ScheduleRow   `json:"assets"`
	TotalRows  int             `json:"totalRows"`
	Page       int             `json:"page"`
	Limit      int             `json:"limit"`
	TotalPages int             `json:"totalPages"`
}

// acquiredBy reports whether a was acquired in or before period p.
func acquiredBy(a model.Asset, p depreciation.Period) bool {
	return !p.Before(depreciation.PeriodOf(a.AcquisitionDate))
}

func engineInput(a model.Asset) depreciation.Asset {
	return depreciation.Asset{
		Cost:            a.PurchaseCost,
		Residual:        a.ResidualValue,
		UsefulLifeYears: a.UsefulLife,
		AcquiredAt:      a.AcquisitionDate,
	}
}

// Figures returns the depreciation of a single asset as of p.
func Figures(a model.Asset, p depreciation.Period) depreciation.Result {
	return depreciation.Calculate(engineInput(a), p)
}

// BuildSchedule computes every qualifying asset's figures for p, in the order given.
func BuildSchedule(assets []model.Asset, p depreciation.Period) Schedule {
	rows := make([]ScheduleRow, 0, len(assets))
	total := decimal.Zero

	for _, a := range assets {
		if !acquiredBy(a, p) {
			continue
		}
		dep := depreciation.Calculate(engineInput(a), p)
		total = total.Add(dep.Monthly)

		rows = append(rows, ScheduleRow{
			AssetID:                 a.ID,
			AssetNumber:             a.AssetNumber,
			AssetName:               a.Name,
			Category:                a.CategoryName(),
			PurchaseCost:            depreciation.Round(a.PurchaseCost),
			ResidualValue:           depreciation.Round(a.ResidualValue),
			MonthlyDepreciation:     depreciation.Round(dep.Monthly),
			AccumulatedDepreciation: depreciation.Round(dep.Accumulated),
			NBV:                     depreciation.Round(dep.NBV),
			FullyDepreciated:        dep.FullyDepreciated,
		})
	}

	return Schedule{
		Period: p.String(),
		Total:  depreciation.Round(total),
		Assets: rows,
	}
}

// Page filters and paginates the schedule. Total always describes the whole period.
func (s Schedule) Page(q ScheduleQuery) SchedulePage {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = DefaultLimit
	}
	if q.Status == "" {
		q.Status = StatusAll
	}
	search := strings.TrimSpace(q.Search)

	filtered := make([]ScheduleRow, 0, len(s.Assets))
	for _, row := range s.Assets {
		if search != "" && !MatchesWordPrefix(row.AssetName, search) && !MatchesWordPrefix(row.AssetNumber, search) {
			continue
		}
		switch q.Status {
		case StatusActive:
			if row.FullyDepreciated {
				continue
			}
		case StatusFullyDepreciated:
			if !row.FullyDepreciated {
				continue
			}
		}
		filtered = append(filtered, row)
	}

	totalRows := len(filtered)
	start := (q.Page - 1) * q.Limit
	if start > totalRows {
		start = totalRows
	}
	end := start + q.Limit
	if end > totalRows {
		end = totalRows
	}

	return SchedulePage{
		Period:     s.Period,
		Total:      s.Total,
		Assets:     filtered[start:end],
		TotalRows:  totalRows,
		Page:       q.Page,
		Limit:      q.Limit,
		TotalPages: (totalRows + q.Limit - 1) / q.Limit,
	}
}

// MatchesWordPrefix reports whether any whitespace separated word of value starts
// with query, ignoring case.
func MatchesWordPrefix(value, query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if value == "" || q == "" {
		return false
	}
	text := strings.ToLower(value)
	if strings.HasPrefix(text, q) {
		return true
	}
	for _, word := range strings.Fields(text) {
		if strings.HasPrefix(word, q) {
			return true
		}
	}
	return false
}

type CategoryLine struct {
	Category                string          `json:"category"`
	TotalCost               decimal.Decimal `json:"total_cost"`
	AccumulatedDepreciation decimal.Decimal `json:"accumulated_depreciation"`
	NBV                     decimal.Decimal `json:"nbv"`
}

type Totals struct {
	TotalCost               decimal.Decimal `json:"total_cost"`
	AccumulatedDepreciation decimal.Decimal `json:"accumulated_depreciation"`
	NBV                     decimal.Decimal `json:"nbv"`
}

// SOFP is the statement of financial position as of a period, one line per category.
type SOFP struct {
	AsOf       string         `json:"as_of"`
	Categories []CategoryLine `json:"categories"`
	Totals     Totals         `json:"totals"`
}

// BuildSOFP groups assets acquired by p under their category name. Lines are
// ordered by category name.
func BuildSOFP(assets []model.Asset, p depreciation.Period) SOFP {
	groups := make(map[string]*CategoryLine)
	grand := Totals{TotalCost: decimal.Zero, AccumulatedDepreciation: decimal.Zero, NBV: decimal.Zero}

	for _, a := range assets {
		if !acquiredBy(a, p) {
			continue
		}
		dep := depreciation.Calculate(engineInput(a), p)

		name := a.CategoryName()
		line, ok := groups[name]
		if !ok {
			line = &CategoryLine{Category: name, TotalCost: decimal.Zero, AccumulatedDepreciation: decimal.Zero, NBV: decimal.Zero}
			groups[name] = line
		}
		line.TotalCost = line.TotalCost.Add(a.PurchaseCost)
		line.AccumulatedDepreciation = line.AccumulatedDepreciation.Add(dep.Accumulated)
		line.NBV = line.NBV.Add(dep.NBV)

		grand.TotalCost = grand.TotalCost.Add(a.PurchaseCost)
		grand.AccumulatedDepreciation = grand.AccumulatedDepreciation.Add(dep.Accumulated)
		grand.NBV = grand.NBV.Add(dep.NBV)
	}

	lines := make([]CategoryLine, 0, len(groups))
	for _, line := range groups {
		lines = append(lines, CategoryLine{
			Category:                line.Category,
			TotalCost:               depreciation.Round(line.TotalCost),
			AccumulatedDepreciation: depreciation.Round(line.AccumulatedDepreciation),
			NBV:                     depreciation.Round(line.NBV),
		})
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].Category < lines[j].Category })

	return SOFP{
		AsOf:       p.String(),
		Categories: lines,
		Totals: Totals{
			TotalCost:               depreciation.Round(grand.TotalCost),
			AccumulatedDepreciation: depreciation.Round(grand.AccumulatedDepreciation),
			NBV:                     depreciation.Round(grand.NBV),
		},
	}
}
