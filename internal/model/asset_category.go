package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AssetCategory holds depreciation defaults. System categories are seeded and read-only.
type AssetCategory struct {
	ID               uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name             string          `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"`
	UsefulLife       int             `gorm:"not null;default:0" json:"useful_life"`
	DepreciationRate decimal.Decimal `gorm:"type:decimal(9,4);not null;default:0" json:"depreciation_rate"`
	ResidualValue    decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"residual_value"`
	IsSystem         bool            `gorm:"not null;default:false" json:"is_system"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}
