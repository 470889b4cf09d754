package model

import (
	"time"

	"github.com/Lahiru-360/fixed-asset-registry-final/internal/lifecycle"
	"github.com/google/uuid"
)

// AssetRequest is one employee's need for Quantity units of an asset. Only admin actions move its Status.
type AssetRequest struct {
	ID         uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	EmployeeID uuid.UUID        `gorm:"type:uuid;not null;index" json:"employee_id"`
	Employee   *User            `gorm:"foreignKey:EmployeeID" json:"employee,omitempty"`
	AssetName  string           `gorm:"type:varchar(255);not null" json:"asset_name"`
	Quantity   int              `gorm:"not null;default:1;check:quantity >= 1" json:"quantity"`
	Reason     string           `gorm:"type:text" json:"reason"`
	Status     lifecycle.Status `gorm:"type:varchar(30);not null;default:'Pending';index" json:"status"`
	ReviewedBy *uuid.UUID       `gorm:"type:uuid" json:"reviewed_by"`
	Reviewer   *User            `gorm:"foreignKey:ReviewedBy" json:"reviewer,omitempty"`
	ReviewedAt *time.Time       `json:"reviewed_at"`
	CreatedAt  time.Time        `gorm:"index" json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}
