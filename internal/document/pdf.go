package document

import (
	"bytes"
	"fmt"

	"github.com/Lahiru-360/fixed-asset-registry-final/internal/model"
	"github.com/Lahiru-360/fixed-asset-registry-final/internal/report"
	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
)

const (
	pageMargin = 15.0
	rowHeight  = 8.0
)

type column struct {
	title string
	width float64
	align string
}

func (g *Generator) newPDF(orientation, title string) *gofpdf.Fpdf {
	pdf := gofpdf.New(orientation, "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, pageMargin)
	pdf.SetTitle(title, true)
	pdf.SetCreator(g.company.Name, true)
	pdf.AddPage()
	g.header(pdf, title)
	return pdf
}

func (g *Generator) header(pdf *gofpdf.Fpdf, title string) {
	width, _ := pdf.GetPageSize()
	usable := width - 2*pageMargin

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(usable, 10, title, "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(usable, 6, g.company.Name, "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(100, 100, 100)
	pdf.CellFormat(usable, 5, g.company.Address, "", 1, "C", false, 0, "")
	pdf.CellFormat(usable, 5, "Generated on: "+g.generatedOn(), "", 1, "C", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(6)
}

func (g *Generator) section(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(0, 8, title, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
}

func (g *Generator) field(pdf *gofpdf.Fpdf, label, value string) {
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(45, 7, label, "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 7, value, "", 1, "L", false, 0, "")
}

func tableHeader(pdf *gofpdf.Fpdf, cols []column) {
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(74, 85, 104)
	pdf.SetTextColor(255, 255, 255)
	for _, c := range cols {
		pdf.CellFormat(c.width, rowHeight, c.title, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Helvetica", "", 9)
}

func tableRow(pdf *gofpdf.Fpdf, cols []column, values []string, bold bool) {
	if bold {
		pdf.SetFont("Helvetica", "B", 9)
	}
	for i, c := range cols {
		pdf.CellFormat(c.width, rowHeight, values[i], "1", 0, c.align, false, 0, "")
	}
	pdf.Ln(-1)
	if bold {
		pdf.SetFont("Helvetica", "", 9)
	}
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func output(pdf *gofpdf.Fpdf) ([]byte, error) {
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (g *Generator) PurchaseOrder(po *model.PurchaseOrder) ([]byte, error) {
	pdf := g.newPDF("P", "PURCHASE ORDER")

	g.field(pdf, "PO Number:", po.PONumber)
	g.field(pdf, "PO Date:", g.generatedOn())
	pdf.Ln(4)

	g.section(pdf, "Vendor Information")
	g.field(pdf, "Vendor Name:", po.VendorName)
	g.field(pdf, "Vendor Email:", po.VendorEmail)
	pdf.Ln(4)

	g.section(pdf, "Delivery Information")
	g.field(pdf, "Delivery Address:", "To be confirmed")
	g.field(pdf, "Delivery Timeline:", "Within 14 working days of PO acceptance")
	pdf.Ln(4)

	g.section(pdf, "Order Details")
	cur := g.company.Currency
	cols := []column{
		{"Asset", 80, "L"},
		{"Qty", 20, "C"},
		{"Unit Price (" + cur + ")", 40, "R"},
		{"Total (" + cur + ")", 40, "R"},
	}
	tableHeader(pdf, cols)
	tableRow(pdf, cols, []string{po.AssetName, fmt.Sprint(po.Quantity), money(po.UnitPrice), money(po.Total())}, false)
	tableRow(pdf, cols, []string{"Grand Total", "", "", money(po.Total())}, true)

	pdf.Ln(10)
	pdf.SetFont("Helvetica", "I", 9)
	pdf.MultiCell(0, 5, "This purchase order is system generated. Please quote the PO number on all invoices and delivery notes.", "", "L", false)

	return output(pdf)
}

func (g *Generator) GoodsReceivedNote(po *model.PurchaseOrder, grn *model.GoodsReceivedNote) ([]byte, error) {
	pdf := g.newPDF("P", "GOODS RECEIVED NOTE")

	received := g.generatedOn()
	if po.ReceivedAt != nil {
		received = po.ReceivedAt.Format("January 2, 2006")
	}

	g.field(pdf, "GRN Number:", grn.GRNNumber)
	g.field(pdf, "PO Number:", po.PONumber)
	g.field(pdf, "Received On:", received)
	pdf.Ln(4)

	g.section(pdf, "Supplier")
	g.field(pdf, "Vendor Name:", po.VendorName)
	g.field(pdf, "Vendor Email:", po.VendorEmail)
	pdf.Ln(4)

	g.section(pdf, "Items Received")
	cols := []column{
		{"Asset", 100, "L"},
		{"Qty Ordered", 40, "C"},
		{"Qty Received", 40, "C"},
	}
	tableHeader(pdf, cols)
	qty := fmt.Sprint(po.Quantity)
	tableRow(pdf, cols, []string{po.AssetName, qty, qty}, false)

	pdf.Ln(16)
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(90, 6, "Received by: ____________________", "", 0, "L", false, 0, "")
	pdf.CellFormat(90, 6, "Date: ____________________", "", 1, "L", false, 0, "")

	return output(pdf)
}

func (g *Generator) MonthlySchedule(s report.Schedule) ([]byte, error) {
	pdf := g.newPDF("L", "MONTHLY DEPRECIATION SCHEDULE")
	g.field(pdf, "Period:", s.Period)
	g.field(pdf, "Assets:", fmt.Sprint(len(s.Assets)))
	pdf.Ln(3)

	cols := []column{
		{"Asset No", 42, "L"},
		{"Asset Name", 62, "L"},
		{"Cost", 30, "R"},
		{"Residual", 26, "R"},
		{"Monthly", 26, "R"},
		{"Accumulated", 30, "R"},
		{"NBV", 30, "R"},
		{"Status", 21, "C"},
	}
	tableHeader(pdf, cols)
	for _, row := range s.Assets {
		status := "Active"
		if row.FullyDepreciated {
			status = "Fully Dep."
		}
		tableRow(pdf, cols, []string{
			row.AssetNumber,
			row.AssetName,
			money(row.PurchaseCost),
			money(row.ResidualValue),
			money(row.MonthlyDepreciation),
			money(row.AccumulatedDepreciation),
			money(row.NBV),
			status,
		}, false)
	}
	tableRow(pdf, cols, []string{"Total", "", "", "", money(s.Total), "", "", ""}, true)

	return output(pdf)
}

func (g *Generator) SOFP(s report.SOFP) ([]byte, error) {
	pdf := g.newPDF("P", "STATEMENT OF FINANCIAL POSITION")
	g.field(pdf, "As of:", s.AsOf)
	g.field(pdf, "Currency:", g.company.Currency)
	pdf.Ln(3)

	g.section(pdf, "Property, Plant and Equipment")
	cols := []column{
		{"Category", 60, "L"},
		{"Cost", 40, "R"},
		{"Accumulated Dep.", 40, "R"},
		{"Net Book Value", 40, "R"},
	}
	tableHeader(pdf, cols)
	for _, line := range s.Categories {
		tableRow(pdf, cols, []string{line.Category, money(line.TotalCost), money(line.AccumulatedDepreciation), money(line.NBV)}, false)
	}
	tableRow(pdf, cols, []string{"Total", money(s.Totals.TotalCost), money(s.Totals.AccumulatedDepreciation), money(s.Totals.NBV)}, true)

	return output(pdf)
}
