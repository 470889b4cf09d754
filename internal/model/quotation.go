package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Quotation is a vendor's unit price offer for a request. At most one per request has IsFinal set.
type Quotation struct {
	ID          uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	RequestID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"request_id"`
	VendorName  string          `gorm:"type:varchar(255);not null" json:"vendor_name"`
	VendorEmail string          `gorm:"type:varchar(255);not null" json:"vendor_email"`
	AssetName   string          `gorm:"type:varchar(255);not null" json:"asset_name"`
	Price       decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"price"`
	FileKey     string          `gorm:"type:varchar(500)" json:"file_key"`
	IsFinal     bool            `gorm:"not null;default:false" json:"is_final"`
	CreatedAt   time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
