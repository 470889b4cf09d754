package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/Lahiru-360/fixed-asset-registry-final/internal/depreciation"
	"github.com/Lahiru-360/fixed-asset-registry-final/internal/report"
	"github.com/Lahiru-360/fixed-asset-registry-final/internal/service"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintSchedule(t *testing.T) {
	rows := []report.ScheduleRow{{
		AssetNumber:             "AS-20240315-000001",
		AssetName:               "Laptop",
		Category:                "Computer Equipment & IT",
		PurchaseCost:            decimal.RequireFromString("120000"),
		MonthlyDepreciation:     decimal.RequireFromString("1800"),
		AccumulatedDepreciation: decimal.RequireFromString("2700"),
		NBV:                     decimal.RequireFromString("117300"),
	}}

	var out bytes.Buffer
	p := depreciation.Period{Year: 2024, Month: 4}
	require.NoError(t, printSchedule(&out, p, rows, decimal.RequireFromString("1800")))

	assert.Contains(t, out.String(), "AS-20240315-000001")
	assert.Contains(t, out.String(), "117300.00")
	assert.Contains(t, out.String(), "1 assets, depreciation for 2024-04: 1800.00")
}

func TestPrintSOFP(t *testing.T) {
	var out bytes.Buffer
	s := report.SOFP{
		AsOf: "2024-04",
		Categories: []report.CategoryLine{{
			Category:                "Vehicles",
			TotalCost:               decimal.RequireFromString("5000000"),
			AccumulatedDepreciation: decimal.RequireFromString("62500"),
			NBV:                     decimal.RequireFromString("4937500"),
		}},
		Totals: report.Totals{
			TotalCost:               decimal.RequireFromString("5000000"),
			AccumulatedDepreciation: decimal.RequireFromString("62500"),
			NBV:                     decimal.RequireFromString("4937500"),
		},
	}
	require.NoError(t, printSOFP(&out, s))
	assert.Contains(t, out.String(), "Vehicles")
	assert.Contains(t, out.String(), "4937500.00")
}

func TestWriteDownload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sofp.xlsx")
	require.NoError(t, writeDownload(service.Download{FileName: "sofp-2024-04.xlsx", Data: []byte("xlsx")}, nil)(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("xlsx"), data)

	assert.Error(t, writeDownload(service.Download{}, assert.AnError)(path))
}

func TestRootCommandTree(t *testing.T) {
	root := newRootCmd()
	for _, path := range [][]string{{"migrate", "up"}, {"migrate", "status"}, {"report", "schedule"}, {"report", "sofp"}} {
		cmd, _, err := root.Find(path)
		require.NoError(t, err)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}
}
