package document

import (
	"bytes"
	"testing"
	"time"

	"github.com/Lahiru-360/fixed-asset-registry-final/internal/config"
	"github.com/Lahiru-360/fixed-asset-registry-final/internal/model"
	"github.com/Lahiru-360/fixed-asset-registry-final/internal/report"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func newTestGenerator() *Generator {
	g := NewGenerator(config.CompanyOptions{Name: "Fixed Asset Registry System", Address: "Colombo, Sri Lanka", Currency: "LKR"})
	g.now = func() time.Time { return time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC) }
	return g
}

func samplePO() *model.PurchaseOrder {
	received := time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)
	return &model.PurchaseOrder{
		PONumber:    "PO-20240315-000001",
		VendorName:  "Acme Traders",
		VendorEmail: "sales@acme.test",
		AssetName:   "Laptop",
		UnitPrice:   decimal.NewFromInt(120000),
		Quantity:    3,
		ReceivedAt:  &received,
	}
}

func sampleSchedule() report.Schedule {
	return report.Schedule{
		Period: "2024-04",
		Total:  decimal.NewFromInt(1800),
		Assets: []report.ScheduleRow{{
			AssetNumber:             "AS-20240315-000001",
			AssetName:               "Laptop",
			Category:                "Computer Equipment & IT",
			PurchaseCost:            decimal.NewFromInt(120000),
			ResidualValue:           decimal.NewFromInt(12000),
			MonthlyDepreciation:     decimal.NewFromInt(1800),
			AccumulatedDepreciation: decimal.NewFromInt(2700),
			NBV:                     decimal.NewFromInt(117300),
		}},
	}
}

func sampleSOFP() report.SOFP {
	return report.SOFP{
		AsOf: "2024-04",
		Categories: []report.CategoryLine{{
			Category:                "Computer Equipment & IT",
			TotalCost:               decimal.NewFromInt(120000),
			AccumulatedDepreciation: decimal.NewFromInt(2700),
			NBV:                     decimal.NewFromInt(117300),
		}},
		Totals: report.Totals{
			TotalCost:               decimal.NewFromInt(120000),
			AccumulatedDepreciation: decimal.NewFromInt(2700),
			NBV:                     decimal.NewFromInt(117300),
		},
	}
}

func TestPDFDocuments(t *testing.T) {
	g := newTestGenerator()

	tests := []struct {
		name   string
		render func() ([]byte, error)
	}{
		{"purchase order", func() ([]byte, error) { return g.PurchaseOrder(samplePO()) }},
		{"goods received note", func() ([]byte, error) {
			return g.GoodsReceivedNote(samplePO(), &model.GoodsReceivedNote{GRNNumber: "GRN-20240320-000001"})
		}},
		{"monthly schedule", func() ([]byte, error) { return g.MonthlySchedule(sampleSchedule()) }},
		{"empty monthly schedule", func() ([]byte, error) { return g.MonthlySchedule(report.Schedule{Period: "2020-01"}) }},
		{"sofp", func() ([]byte, error) { return g.SOFP(sampleSOFP()) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := tt.render()
			require.NoError(t, err)
			assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")), "missing pdf header")
		})
	}
}

func TestMonthlyScheduleXLSX(t *testing.T) {
	out, err := newTestGenerator().MonthlyScheduleXLSX(sampleSchedule())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()

	name, err := f.GetCellValue(scheduleSheet, "B4")
	require.NoError(t, err)
	assert.Equal(t, "Laptop", name)

	label, err := f.GetCellValue(scheduleSheet, "A5")
	require.NoError(t, err)
	assert.Equal(t, "Total", label)
}

func TestSOFPXLSX(t *testing.T) {
	out, err := newTestGenerator().SOFPXLSX(sampleSOFP())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()

	category, err := f.GetCellValue(sofpSheet, "A4")
	require.NoError(t, err)
	assert.Equal(t, "Computer Equipment & IT", category)

	rows, err := f.GetRows(sofpSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 5)
}
