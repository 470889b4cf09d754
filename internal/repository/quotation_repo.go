package repository

import (
	"context"

	"github.com/Lahiru-360/fixed-asset-registry-final/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type QuotationRepository interface {
	Create(ctx context.Context, q *model.Quotation) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Quotation, error)
	FindFinal(ctx context.Context, requestID uuid.UUID) (*model.Quotation, error)
	ListByRequest(ctx context.Context, requestID uuid.UUID) ([]model.Quotation, error)
	Update(ctx context.Context, q *model.Quotation) error
	Delete(ctx context.Context, id uuid.UUID) error
	SelectFinal(ctx context.Context, requestID, quotationID uuid.UUID) error
}

type quotationRepository struct {
	db *gorm.DB
}

func NewQuotationRepository(db *gorm.DB) QuotationRepository {
	return &quotationRepository{db: db}
}

func (r *quotationRepository) Create(ctx context.Context, q *model.Quotation) error {
	return GetDB(ctx, r.db).Create(q).Error
}

func (r *quotationRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Quotation, error) {
	var q model.Quotation
	if err := GetDB(ctx, r.db).First(&q, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &q, nil
}

func (r *quotationRepository) FindFinal(ctx context.Context, requestID uuid.UUID) (*model.Quotation, error) {
	var q model.Quotation
	if err := GetDB(ctx, r.db).Where("request_id = ? AND is_final", requestID).First(&q).Error; err != nil {
		return nil, err
	}
	return &q, nil
}

func (r *quotationRepository) ListByRequest(ctx context.Context, requestID uuid.UUID) ([]model.Quotation, error) {
	var quotations []model.Quotation
	err := GetDB(ctx, r.db).Where("request_id = ?", requestID).Order("created_at DESC").Find(&quotations).Error
	return quotations, err
}

func (r *quotationRepository) Update(ctx context.Context, q *model.Quotation) error {
	return GetDB(ctx, r.db).Save(q).Error
}

func (r *quotationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Quotation{}).Error
}

// SelectFinal clears is_final on every quotation of the request, then sets it on quotationID.
// Callers run it inside a transaction so no reader sees zero or two finals.
func (r *quotationRepository) SelectFinal(ctx context.Context, requestID, quotationID uuid.UUID) error {
	db := GetDB(ctx, r.db)
	if err := db.Model(&model.Quotation{}).
		Where("request_id = ? AND is_final", requestID).
		Update("is_final", false).Error; err != nil {
		return err
	}

	res := db.Model(&model.Quotation{}).
		Where("id = ? AND request_id = ?", quotationID, requestID).
		Update("is_final", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
