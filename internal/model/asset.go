package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Asset is one registered, depreciable unit. Depreciation is derived on read and never stored.
type Asset struct {
	ID               uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	AssetNumber      string          `gorm:"type:varchar(30);not null;uniqueIndex" json:"asset_number"`
	POID             uuid.UUID       `gorm:"column:po_id;type:uuid;not null;index" json:"po_id"`
	PurchaseOrder    *PurchaseOrder  `gorm:"foreignKey:POID" json:"-"`
	Name             string          `gorm:"column:asset_name;type:varchar(255);not null" json:"asset_name"`
	CategoryID       *uuid.UUID      `gorm:"type:uuid;index" json:"category_id"`
	Category         *AssetCategory  `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	PurchaseCost     decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"purchase_cost"`
	UsefulLife       int             `gorm:"not null" json:"useful_life"`
	DepreciationRate decimal.Decimal `gorm:"type:decimal(9,4);not null" json:"depreciation_rate"`
	ResidualValue    decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"residual_value"`
	Department       string          `gorm:"type:varchar(100)" json:"department"`
	AcquisitionDate  time.Time       `gorm:"not null;index" json:"acquisition_date"`
	CreatedAt        time.Time       `json:"created_at"`
}

// CategoryName returns the category's name or "Uncategorized".
func (a Asset) CategoryName() string {
	if a.Category == nil || a.Category.Name == "" {
		return UncategorizedName
	}
	return a.Category.Name
}

const UncategorizedName = "Uncategorized"
