package document

import (
	"fmt"

	"github.com/Lahiru-360/fixed-asset-registry-final/internal/report"
	"github.com/xuri/excelize/v2"
)

const (
	scheduleSheet = "Depreciation"
	sofpSheet     = "SOFP"
)

func (g *Generator) MonthlyScheduleXLSX(s report.Schedule) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", scheduleSheet); err != nil {
		return nil, err
	}

	header := []interface{}{"Asset No", "Asset Name", "Category", "Cost", "Residual", "Monthly Depreciation", "Accumulated Depreciation", "NBV", "Fully Depreciated"}
	if err := f.SetSheetRow(scheduleSheet, "A1", &[]interface{}{"Monthly depreciation schedule " + s.Period}); err != nil {
		return nil, err
	}
	if err := f.SetSheetRow(scheduleSheet, "A3", &header); err != nil {
		return nil, err
	}

	row := 4
	for _, r := range s.Assets {
		values := []interface{}{
			r.AssetNumber,
			r.AssetName,
			r.Category,
			r.PurchaseCost.InexactFloat64(),
			r.ResidualValue.InexactFloat64(),
			r.MonthlyDepreciation.InexactFloat64(),
			r.AccumulatedDepreciation.InexactFloat64(),
			r.NBV.InexactFloat64(),
			r.FullyDepreciated,
		}
		if err := f.SetSheetRow(scheduleSheet, fmt.Sprintf("A%d", row), &values); err != nil {
			return nil, err
		}
		row++
	}
	totalRow := []interface{}{"Total", "", "", "", "", s.Total.InexactFloat64()}
	if err := f.SetSheetRow(scheduleSheet, fmt.Sprintf("A%d", row), &totalRow); err != nil {
		return nil, err
	}

	if err := g.styleSheet(f, scheduleSheet, "I3", "D4", fmt.Sprintf("H%d", row), row); err != nil {
		return nil, err
	}
	return writeXLSX(f)
}

func (g *Generator) SOFPXLSX(s report.SOFP) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sofpSheet); err != nil {
		return nil, err
	}

	if err := f.SetSheetRow(sofpSheet, "A1", &[]interface{}{"Statement of financial position as of " + s.AsOf}); err != nil {
		return nil, err
	}
	header := []interface{}{"Category", "Cost", "Accumulated Depreciation", "Net Book Value"}
	if err := f.SetSheetRow(sofpSheet, "A3", &header); err != nil {
		return nil, err
	}

	row := 4
	for _, line := range s.Categories {
		values := []interface{}{line.Category, line.TotalCost.InexactFloat64(), line.AccumulatedDepreciation.InexactFloat64(), line.NBV.InexactFloat64()}
		if err := f.SetSheetRow(sofpSheet, fmt.Sprintf("A%d", row), &values); err != nil {
			return nil, err
		}
		row++
	}
	totals := []interface{}{"Total", s.Totals.TotalCost.InexactFloat64(), s.Totals.AccumulatedDepreciation.InexactFloat64(), s.Totals.NBV.InexactFloat64()}
	if err := f.SetSheetRow(sofpSheet, fmt.Sprintf("A%d", row), &totals); err != nil {
		return nil, err
	}

	if err := g.styleSheet(f, sofpSheet, "D3", "B4", fmt.Sprintf("D%d", row), row); err != nil {
		return nil, err
	}
	return writeXLSX(f)
}

// styleSheet styles the header row (row 3) and the total row, and applies a money format to numFrom:numTo.
func (g *Generator) styleSheet(f *excelize.File, sheet, headerEnd, numFrom, numTo string, totalRow int) error {
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#4A5568"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A3", headerEnd, headerStyle); err != nil {
		return err
	}

	// 4 is "#,##0.00"
	moneyStyle, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, numFrom, numTo, moneyStyle); err != nil {
		return err
	}

	totalStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}, NumFmt: 4})
	if err != nil {
		return err
	}
	if err := f.SetRowStyle(sheet, totalRow, totalRow, totalStyle); err != nil {
		return err
	}

	titleStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}})
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", "A1", titleStyle); err != nil {
		return err
	}
	return f.SetColWidth(sheet, "A", "I", 22)
}

func writeXLSX(f *excelize.File) ([]byte, error) {
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("render xlsx: %w", err)
	}
	return buf.Bytes(), nil
}
