package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Lahiru-360/fixed-asset-registry-final/internal/apperr"
	"github.com/Lahiru-360/fixed-asset-registry-final/internal/cache"
	"github.com/Lahiru-360/fixed-asset-registry-final/internal/model"
	"github.com/Lahiru-360/fixed-asset-registry-final/internal/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// --- DTOs ---

type CategoryRequest struct {
	Name          string          `json:"name" binding:"required"`
	UsefulLife    int             `json:"useful_life"`
	ResidualValue decimal.Decimal `json:"residual_value"`
}

type CategoryResponse struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	UsefulLife       int             `json:"useful_life"`
	DepreciationRate decimal.Decimal `json:"depreciation_rate"`
	ResidualValue    decimal.Decimal `json:"residual_value"`
	IsSystem         bool            `json:"is_system"`
}

// --- Interface ---

type CategoryService interface {
	List(ctx context.Context) ([]CategoryResponse, error)
	Create(ctx context.Context, actorID string, req CategoryRequest) (CategoryResponse, error)
	Update(ctx context.Context, actorID, id string, req CategoryRequest) (CategoryResponse, error)
	Delete(ctx context.Context, actorID, id string) error
}

type categoryService struct {
	categoryRepo repository.CategoryRepository
	assetRepo    repository.AssetRepository
	auditRepo    repository.AuditRepository
	txManager    repository.TransactionManager
	reports      cache.ReportCache
	logger       *zap.Logger
}

func NewCategoryService(
	categoryRepo repository.CategoryRepository,
	assetRepo repository.AssetRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	reports cache.ReportCache,
	logger *zap.Logger,
) CategoryService {
	if reports == nil {
		reports = cache.Noop{}
	}
	return &categoryService{
		categoryRepo: categoryRepo,
		assetRepo:    assetRepo,
		auditRepo:    auditRepo,
		txManager:    txManager,
		reports:      reports,
		logger:       logger,
	}
}

func toCategoryResponse(c model.AssetCategory) CategoryResponse {
	return CategoryResponse{
		ID:               c.ID.String(),
		Name:             c.Name,
		UsefulLife:       c.UsefulLife,
		DepreciationRate: c.DepreciationRate,
		ResidualValue:    c.ResidualValue,
		IsSystem:         c.IsSystem,
	}
}

func (req CategoryRequest) normalize(op string) (CategoryRequest, error) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return req, apperr.Validation(op, "category name is required")
	}
	if strings.EqualFold(req.Name, model.UncategorizedName) {
		return req, apperr.Validation(op, "%q is reserved", model.UncategorizedName)
	}
	if req.UsefulLife < 0 {
		return req, apperr.Validation(op, "useful life cannot be negative")
	}
	if req.ResidualValue.IsNegative() {
		return req, apperr.Validation(op, "residual value cannot be negative")
	}
	return req, nil
}

func rateFor(usefulLife int) decimal.Decimal {
	if usefulLife <= 0 {
		return decimal.Zero
	}
	return hundred.Div(decimal.NewFromInt(int64(usefulLife))).Round(4)
}

// ensureUniqueName rejects a name already used by a category other than self.
func (s *categoryService) ensureUniqueName(ctx context.Context, op, name string, self *model.AssetCategory) error {
	existing, err := s.categoryRepo.FindByName(ctx, name)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return lookupErr(op, "category", err)
	}
	if self != nil && existing.ID == self.ID {
		return nil
	}
	return apperr.Validation(op, "category %q already exists", name)
}

func (s *categoryService) List(ctx context.Context) ([]CategoryResponse, error) {
	categories, err := s.categoryRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	res := make([]CategoryResponse, 0, len(categories))
	for _, c := range categories {
		res = append(res, toCategoryResponse(c))
	}
	return res, nil
}

func (s *categoryService) Create(ctx context.Context, actorID string, req CategoryRequest) (CategoryResponse, error) {
	const op = "createCategory"

	actor, err := parseID(op, "user id", actorID)
	if err != nil {
		return CategoryResponse{}, err
	}
	req, err = req.normalize(op)
	if err != nil {
		return CategoryResponse{}, err
	}

	category := model.AssetCategory{
		Name:             req.Name,
		UsefulLife:       req.UsefulLife,
		DepreciationRate: rateFor(req.UsefulLife),
		ResidualValue:    req.ResidualValue,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.ensureUniqueName(txCtx, op, req.Name, nil); err != nil {
			return err
		}
		if err := s.categoryRepo.Create(txCtx, &category); err != nil {
			return fmt.Errorf("failed to create category: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, actor, model.ActionCreateCategory, category.ID.String(), category.Name, req)
	})
	if err != nil {
		return CategoryResponse{}, err
	}

	s.logger.Info("Category created", zap.String("name", category.Name))
	return toCategoryResponse(category), nil
}

func (s *categoryService) Update(ctx context.Context, actorID, id string, req CategoryRequest) (CategoryResponse, error) {
	const op = "updateCategory"

	categoryID, err := parseID(op, "category id", id)
	if err != nil {
		return CategoryResponse{}, err
	}
	actor, err := parseID(op, "user id", actorID)
	if err != nil {
		return CategoryResponse{}, err
	}
	req, err = req.normalize(op)
	if err != nil {
		return CategoryResponse{}, err
	}

	var category *model.AssetCategory
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		category, err = s.categoryRepo.FindByID(txCtx, categoryID)
		if err != nil {
			return lookupErr(op, "category", err)
		}
		if category.IsSystem {
			return apperr.PreconditionFailed(op, "system category %q cannot be modified", category.Name)
		}
		if err := s.ensureUniqueName(txCtx, op, req.Name, category); err != nil {
			return err
		}

		category.Name = req.Name
		category.UsefulLife = req.UsefulLife
		category.DepreciationRate = rateFor(req.UsefulLife)
		category.ResidualValue = req.ResidualValue

		if err := s.categoryRepo.Update(txCtx, category); err != nil {
			return fmt.Errorf("failed to update category: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, actor, model.ActionUpdateCategory, category.ID.String(), category.Name, req)
	})
	if err != nil {
		return CategoryResponse{}, err
	}

	// Report lines are grouped and labelled by category name.
	if err := s.reports.InvalidateAll(ctx); err != nil {
		s.logger.Warn("Failed to invalidate report cache", zap.Error(err))
	}
	return toCategoryResponse(*category), nil
}

func (s *categoryService) Delete(ctx context.Context, actorID, id string) error {
	const op = "deleteCategory"

	categoryID, err := parseID(op, "category id", id)
	if err != nil {
		return err
	}
	actor, err := parseID(op, "user id", actorID)
	if err != nil {
		return err
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		category, err := s.categoryRepo.FindByID(txCtx, categoryID)
		if err != nil {
			return lookupErr(op, "category", err)
		}
		if category.IsSystem {
			return apperr.PreconditionFailed(op, "system category %q cannot be deleted", category.Name)
		}

		inUse, err := s.assetRepo.CountByCategory(txCtx, categoryID)
		if err != nil {
			return fmt.Errorf("failed to count assets: %w", err)
		}
		if inUse > 0 {
			return apperr.PreconditionFailed(op, "category %q is used by %d assets", category.Name, inUse)
		}

		if err := s.categoryRepo.Delete(txCtx, categoryID); err != nil {
			return lookupErr(op, "category", err)
		}
		return writeAudit(txCtx, s.auditRepo, actor, model.ActionDeleteCategory, category.ID.String(), category.Name, nil)
	})
}
