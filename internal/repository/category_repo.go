package repository

import (
	"context"

	"github.com/Lahiru-360/fixed-asset-registry-final/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CategoryRepository interface {
	List(ctx context.Context) ([]model.AssetCategory, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.AssetCategory, error)
	FindByName(ctx context.Context, name string) (*model.AssetCategory, error)
	Create(ctx context.Context, c *model.AssetCategory) error
	Update(ctx context.Context, c *model.AssetCategory) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type categoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

// List returns system categories first, each group by name.
func (r *categoryRepository) List(ctx context.Context) ([]model.AssetCategory, error) {
	var categories []model.AssetCategory
	err := GetDB(ctx, r.db).Order("is_system DESC").Order("name ASC").Find(&categories).Error
	return categories, err
}

func (r *categoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.AssetCategory, error) {
	var c model.AssetCategory
	if err := GetDB(ctx, r.db).First(&c, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *categoryRepository) FindByName(ctx context.Context, name string) (*model.AssetCategory, error) {
	var c model.AssetCategory
	if err := GetDB(ctx, r.db).First(&c, "LOWER(name) = LOWER(?)", name).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *categoryRepository) Create(ctx context.Context, c *model.AssetCategory) error {
	return GetDB(ctx, r.db).Create(c).Error
}

func (r *categoryRepository) Update(ctx context.Context, c *model.AssetCategory) error {
	return GetDB(ctx, r.db).Save(c).Error
}

// Delete never removes a system category, even if the caller skipped the check.
func (r *categoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := GetDB(ctx, r.db).Where("id = ? AND NOT is_system", id).Delete(&model.AssetCategory{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
