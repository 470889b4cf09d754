// Package document renders purchase orders, goods received notes and depreciation
// reports as PDF (gofpdf) and XLSX (excelize).
package document

import (
	"time"

	"github.com/Lahiru-360/fixed-asset-registry-final/internal/config"
	"github.com/Lahiru-360/fixed-asset-registry-final/internal/model"
	"github.com/Lahiru-360/fixed-asset-registry-final/internal/report"
)

const (
	ContentTypePDF  = "application/pdf"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type Renderer interface {
	PurchaseOrder(po *model.PurchaseOrder) ([]byte, error)
	GoodsReceivedNote(po *model.PurchaseOrder, grn *model.GoodsReceivedNote) ([]byte, error)
	MonthlySchedule(s report.Schedule) ([]byte, error)
	SOFP(s report.SOFP) ([]byte, error)
}

type Exporter interface {
	MonthlyScheduleXLSX(s report.Schedule) ([]byte, error)
	SOFPXLSX(s report.SOFP) ([]byte, error)
}

// Generator implements both Renderer and Exporter.
type Generator struct {
	company config.CompanyOptions
	now     func() time.Time
}

func NewGenerator(company config.CompanyOptions) *Generator {
	return &Generator{company: company, now: time.Now}
}

func (g *Generator) generatedOn() string {
	return g.now().Format("January 2, 2006")
}
