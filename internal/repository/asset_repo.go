package repository

import (
	"context"
	"time"

	"github.com/Lahiru-360/fixed-asset-registry-final/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AssetFilter struct {
	Search   string
	Category string // category name, empty or "All" for every category
	Sort     string // newest (default) or oldest
	Page     int
	Limit    int
}

type AssetRepository interface {
	CreateBatch(ctx context.Context, assets []model.Asset) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Asset, error)
	ListByPO(ctx context.Context, poID uuid.UUID) ([]model.Asset, error)
	// ListAcquiredThrough returns every asset acquired before end, oldest number first.
	ListAcquiredThrough(ctx context.Context, end time.Time) ([]model.Asset, error)
	List(ctx context.Context, filter AssetFilter) ([]model.Asset, int64, error)
	CountByCategory(ctx context.Context, categoryID uuid.UUID) (int64, error)
}

type assetRepository struct {
	db *gorm.DB
}

func NewAssetRepository(db *gorm.DB) AssetRepository {
	return &assetRepository{db: db}
}

func (r *assetRepository) CreateBatch(ctx context.Context, assets []model.Asset) error {
	if len(assets) == 0 {
		return nil
	}
	return GetDB(ctx, r.db).Omit("Category", "PurchaseOrder").Create(&assets).Error
}

func (r *assetRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Asset, error) {
	var asset model.Asset
	if err := GetDB(ctx, r.db).Preload("Category").First(&asset, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &asset, nil
}

func (r *assetRepository) ListByPO(ctx context.Context, poID uuid.UUID) ([]model.Asset, error) {
	var assets []model.Asset
	err := GetDB(ctx, r.db).Preload("Category").Where("po_id = ?", poID).Order("asset_number").Find(&assets).Error
	return assets, err
}

func (r *assetRepository) ListAcquiredThrough(ctx context.Context, end time.Time) ([]model.Asset, error) {
	var assets []model.Asset
	err := GetDB(ctx, r.db).
		Preload("Category").
		Where("acquisition_date < ?", end).
		Order("asset_number").
		Find(&assets).Error
	return assets, err
}

func (r *assetRepository) List(ctx context.Context, filter AssetFilter) ([]model.Asset, int64, error) {
	var assets []model.Asset
	var total int64

	query := GetDB(ctx, r.db).Model(&model.Asset{}).
		Joins("LEFT JOIN asset_categories c ON c.id = assets.category_id")
	if filter.Search != "" {
		pattern := wordPrefixPattern(filter.Search)
		query = query.Where("assets.asset_name ~* ? OR assets.asset_number ~* ? OR c.name ~* ?", pattern, pattern, pattern)
	}
	if filter.Category != "" && filter.Category != "All" {
		query = query.Where("c.name = ?", filter.Category)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := query.Preload("Category").
		Order(orderByCreated(filter.Sort, "assets.acquisition_date")).
		Offset(offset).Limit(filter.Limit).
		Find(&assets).Error
	if err != nil {
		return nil, 0, err
	}
	return assets, total, nil
}

func (r *assetRepository) CountByCategory(ctx context.Context, categoryID uuid.UUID) (int64, error) {
	var n int64
	err := GetDB(ctx, r.db).Model(&model.Asset{}).Where("category_id = ?", categoryID).Count(&n).Error
	return n, err
}
