package repository

import (
	"context"

	"github.com/Lahiru-360/fixed-asset-registry-final/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PurchaseOrderRepository interface {
	FindByRequestID(ctx context.Context, requestID uuid.UUID) (*model.PurchaseOrder, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.PurchaseOrder, error)
	// CreateIfAbsent inserts po unless the request already has one, and returns whichever row is stored.
	CreateIfAbsent(ctx context.Context, po *model.PurchaseOrder) (*model.PurchaseOrder, bool, error)
	Update(ctx context.Context, po *model.PurchaseOrder) error
}

type purchaseOrderRepository struct {
	db *gorm.DB
}

func NewPurchaseOrderRepository(db *gorm.DB) PurchaseOrderRepository {
	return &purchaseOrderRepository{db: db}
}

func (r *purchaseOrderRepository) FindByRequestID(ctx context.Context, requestID uuid.UUID) (*model.PurchaseOrder, error) {
	var po model.PurchaseOrder
	if err := GetDB(ctx, r.db).First(&po, "request_id = ?", requestID).Error; err != nil {
		return nil, err
	}
	return &po, nil
}

func (r *purchaseOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.PurchaseOrder, error) {
	var po model.PurchaseOrder
	if err := GetDB(ctx, r.db).First(&po, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &po, nil
}

func (r *purchaseOrderRepository) CreateIfAbsent(ctx context.Context, po *model.PurchaseOrder) (*model.PurchaseOrder, bool, error) {
	res := GetDB(ctx, r.db).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "request_id"}}, DoNothing: true}).
		Create(po)
	if res.Error != nil {
		return nil, false, res.Error
	}

	stored, err := r.FindByRequestID(ctx, po.RequestID)
	if err != nil {
		return nil, false, err
	}
	return stored, res.RowsAffected == 1, nil
}

func (r *purchaseOrderRepository) Update(ctx context.Context, po *model.PurchaseOrder) error {
	return GetDB(ctx, r.db).Save(po).Error
}
