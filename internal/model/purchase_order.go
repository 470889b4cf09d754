package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	POStatusCreated  = "Created"
	POStatusSent     = "Sent"
	POStatusReceived = "Received"
)

// PurchaseOrder is created once per request from its final quotation.
type PurchaseOrder struct {
	ID          uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	RequestID   uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex" json:"request_id"`
	QuotationID uuid.UUID       `gorm:"type:uuid;not null" json:"quotation_id"`
	PONumber    string          `gorm:"column:po_number;type:varchar(30);not null;uniqueIndex" json:"po_number"`
	VendorName  string          `gorm:"type:varchar(255);not null" json:"vendor_name"`
	VendorEmail string          `gorm:"type:varchar(255);not null" json:"vendor_email"`
	AssetName   string          `gorm:"type:varchar(255);not null" json:"asset_name"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"unit_price"`
	Quantity    int             `gorm:"not null" json:"quantity"`
	Status      string          `gorm:"type:varchar(20);not null;default:'Created'" json:"status"`
	Sent        bool            `gorm:"not null;default:false" json:"sent"`
	SentAt      *time.Time      `json:"sent_at"`
	Received    bool            `gorm:"not null;default:false" json:"received"`
	ReceivedAt  *time.Time      `json:"received_at"`
	PDFKey      string          `gorm:"column:pdf_key;type:varchar(500)" json:"pdf_key"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Total is the order value.
func (po PurchaseOrder) Total() decimal.Decimal {
	return po.UnitPrice.Mul(decimal.NewFromInt(int64(po.Quantity)))
}
