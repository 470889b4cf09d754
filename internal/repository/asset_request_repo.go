package repository

import (
	"context"
	"time"

	"github.com/Lahiru-360/fixed-asset-registry-final/internal/lifecycle"
	"github.com/Lahiru-360/fixed-asset-registry-final/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AssetRequestFilter struct {
	Search string
	Status lifecycle.Status // empty for all
	Sort   string           // newest (default) or oldest
	Page   int
	Limit  int
}

// RequestStats are counts over one employee's requests, or over all requests when no employee is given.
type RequestStats struct {
	Total             int64 `json:"total"`
	Pending           int64 `json:"pending"`
	ApprovedThisMonth int64 `json:"approved_this_month"`
	Completed         int64 `json:"completed"`
	Rejected          int64 `json:"rejected"`
}

type AssetRequestRepository interface {
	Create(ctx context.Context, req *model.AssetRequest) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.AssetRequest, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.AssetRequest, error)
	FindByIDWithEmployee(ctx context.Context, id uuid.UUID) (*model.AssetRequest, error)
	ListByEmployee(ctx context.Context, employeeID uuid.UUID) ([]model.AssetRequest, error)
	List(ctx context.Context, filter AssetRequestFilter) ([]model.AssetRequest, int64, error)
	Update(ctx context.Context, req *model.AssetRequest) error
	Stats(ctx context.Context, employeeID *uuid.UUID, monthStart time.Time) (RequestStats, error)
}

type assetRequestRepository struct {
	db *gorm.DB
}

func NewAssetRequestRepository(db *gorm.DB) AssetRequestRepository {
	return &assetRequestRepository{db: db}
}

func (r *assetRequestRepository) Create(ctx context.Context, req *model.AssetRequest) error {
	return GetDB(ctx, r.db).Create(req).Error
}

func (r *assetRequestRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.AssetRequest, error) {
	var req model.AssetRequest
	if err := GetDB(ctx, r.db).First(&req, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

// FindByIDForUpdate row-locks the request until the surrounding transaction ends. Every
// lifecycle action takes this lock first so concurrent actions on one request serialize.
func (r *assetRequestRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.AssetRequest, error) {
	var req model.AssetRequest
	if err := forUpdate(GetDB(ctx, r.db)).Where("id = ?", id).First(&req).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *assetRequestRepository) FindByIDWithEmployee(ctx context.Context, id uuid.UUID) (*model.AssetRequest, error) {
	var req model.AssetRequest
	if err := GetDB(ctx, r.db).Preload("Employee").Preload("Reviewer").First(&req, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *assetRequestRepository) ListByEmployee(ctx context.Context, employeeID uuid.UUID) ([]model.AssetRequest, error) {
	var requests []model.AssetRequest
	err := GetDB(ctx, r.db).
		Where("employee_id = ?", employeeID).
		Order("created_at DESC").
		Find(&requests).Error
	return requests, err
}

func (r *assetRequestRepository) List(ctx context.Context, filter AssetRequestFilter) ([]model.AssetRequest, int64, error) {
	var requests []model.AssetRequest
	var total int64

	query := GetDB(ctx, r.db).Model(&model.AssetRequest{}).
		Joins("JOIN users e ON e.id = asset_requests.employee_id")
	if filter.Search != "" {
		pattern := wordPrefixPattern(filter.Search)
		query = query.Where(
			"asset_requests.asset_name ~* ? OR (e.first_name || ' ' || e.last_name) ~* ? OR e.email ~* ? OR e.department ~* ?",
			pattern, pattern, pattern, pattern,
		)
	}
	if filter.Status != "" {
		query = query.Where("asset_requests.status = ?", filter.Status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := query.Preload("Employee").
		Order(orderByCreated(filter.Sort, "asset_requests.created_at")).
		Offset(offset).Limit(filter.Limit).
		Find(&requests).Error
	if err != nil {
		return nil, 0, err
	}
	return requests, total, nil
}

func (r *assetRequestRepository) Update(ctx context.Context, req *model.AssetRequest) error {
	return GetDB(ctx, r.db).Omit("Employee", "Reviewer").Save(req).Error
}

func (r *assetRequestRepository) Stats(ctx context.Context, employeeID *uuid.UUID, monthStart time.Time) (RequestStats, error) {
	var stats RequestStats

	base := GetDB(ctx, r.db).Model(&model.AssetRequest{})
	if employeeID != nil {
		base = base.Where("employee_id = ?", *employeeID)
	}

	err := base.Select(`
		COUNT(*) AS total,
		COUNT(*) FILTER (WHERE status = ?) AS pending,
		COUNT(*) FILTER (WHERE status IN ? AND created_at >= ?) AS approved_this_month,
		COUNT(*) FILTER (WHERE status = ?) AS completed,
		COUNT(*) FILTER (WHERE status = ?) AS rejected`,
		lifecycle.StatusPending,
		approvedOrLater(),
		monthStart,
		lifecycle.StatusCompleted,
		lifecycle.StatusRejected,
	).Scan(&stats).Error
	return stats, err
}

func approvedOrLater() []string {
	var out []string
	for _, s := range lifecycle.All {
		if s.Reached(lifecycle.StatusApproved) {
			out = append(out, string(s))
		}
	}
	return out
}
