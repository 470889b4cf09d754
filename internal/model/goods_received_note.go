package model

import (
	"time"

	"github.com/google/uuid"
)

// GoodsReceivedNote confirms receipt of a purchase order. At most one exists per PO.
type GoodsReceivedNote struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	POID      uuid.UUID `gorm:"column:po_id;type:uuid;not null;uniqueIndex" json:"po_id"`
	GRNNumber string    `gorm:"column:grn_number;type:varchar(30);not null;uniqueIndex" json:"grn_number"`
	PDFKey    string    `gorm:"column:pdf_key;type:varchar(500)" json:"pdf_key"`
	CreatedAt time.Time `json:"created_at"`
}

func (GoodsReceivedNote) TableName() string { return "goods_received_notes" }
