package repository

import (
	"context"

	"github.com/Lahiru-360/fixed-asset-registry-final/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GRNRepository interface {
	FindByPOID(ctx context.Context, poID uuid.UUID) (*model.GoodsReceivedNote, error)
	// CreateIfAbsent relies on the unique po_id index; a concurrent duplicate becomes a no-op.
	CreateIfAbsent(ctx context.Context, grn *model.GoodsReceivedNote) (*model.GoodsReceivedNote, bool, error)
}

type grnRepository struct {
	db *gorm.DB
}

func NewGRNRepository(db *gorm.DB) GRNRepository {
	return &grnRepository{db: db}
}

func (r *grnRepository) FindByPOID(ctx context.Context, poID uuid.UUID) (*model.GoodsReceivedNote, error) {
	var grn model.GoodsReceivedNote
	if err := GetDB(ctx, r.db).First(&grn, "po_id = ?", poID).Error; err != nil {
		return nil, err
	}
	return &grn, nil
}

func (r *grnRepository) CreateIfAbsent(ctx context.Context, grn *model.GoodsReceivedNote) (*model.GoodsReceivedNote, bool, error) {
	res := GetDB(ctx, r.db).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "po_id"}}, DoNothing: true}).
		Create(grn)
	if res.Error != nil {
		return nil, false, res.Error
	}

	stored, err := r.FindByPOID(ctx, grn.POID)
	if err != nil {
		return nil, false, err
	}
	return stored, res.RowsAffected == 1, nil
}
