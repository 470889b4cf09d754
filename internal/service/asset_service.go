package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Lahiru-360/fixed-asset-registry-final/internal/apperr"
	"github.com/Lahiru-360/fixed-asset-registry-final/internal/cache"
	"github.com/Lahiru-360/fixed-asset-registry-final/internal/depreciation"
	"github.com/Lahiru-360/fixed-asset-registry-final/internal/lifecycle"
	"github.com/Lahiru-360/fixed-asset-registry-final/internal/metrics"
	"github.com/Lahiru-360/fixed-asset-registry-final/internal/model"
	"github.com/Lahiru-360/fixed-asset-registry-final/internal/report"
	"github.com/Lahiru-360/fixed-asset-registry-final/internal/repository"
	"github.com/Lahiru-360/fixed-asset-registry-final/pkg/pagination"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var hundred = decimal.NewFromInt(100)

// --- DTOs ---

type RegisterAssetsDTO struct {
	CategoryID    string          `json:"category_id" binding:"required"`
	AssetName     string          `json:"asset_name"`
	UsefulLife    int             `json:"useful_life"`
	ResidualValue decimal.Decimal `json:"residual_value"`
	Department    string          `json:"department"`
}

type AssetListFilter struct {
	Search   string
	Category string
	Sort     string
	Page     int
	Limit    int
}

type AssetResponse struct {
	ID               string          `json:"id"`
	AssetNumber      string          `json:"asset_number"`
	AssetName        string          `json:"asset_name"`
	CategoryID       *string         `json:"category_id"`
	Category         string          `json:"category"`
	PurchaseCost     decimal.Decimal `json:"purchase_cost"`
	UsefulLife       int             `json:"useful_life"`
	DepreciationRate decimal.Decimal `json:"depreciation_rate"`
	ResidualValue    decimal.Decimal `json:"residual_value"`
	Department       string          `json:"department"`
	AcquisitionDate  string          `json:"acquisition_date"`
	FullyDepreciated bool            `json:"fullyDepreciated"`
}

type AssetPage struct {
	Assets     []AssetResponse `json:"assets"`
	Pagination pagination.Meta `json:"pagination"`
}

// --- Interface ---

type AssetService interface {
	Register(ctx context.Context, actorID, requestID string, req RegisterAssetsDTO) ([]AssetResponse, error)
	List(ctx context.Context, filter AssetListFilter) (AssetPage, error)
}

type assetService struct {
	requestRepo  repository.AssetRequestRepository
	poRepo       repository.PurchaseOrderRepository
	grnRepo      repository.GRNRepository
	assetRepo    repository.AssetRepository
	categoryRepo repository.CategoryRepository
	auditRepo    repository.AuditRepository
	sequences    repository.SequenceGenerator
	txManager    repository.TransactionManager
	reports      cache.ReportCache
	publisher    Publisher
	logger       *zap.Logger
}

type AssetDeps struct {
	RequestRepo  repository.AssetRequestRepository
	PORepo       repository.PurchaseOrderRepository
	GRNRepo      repository.GRNRepository
	AssetRepo    repository.AssetRepository
	CategoryRepo repository.CategoryRepository
	AuditRepo    repository.AuditRepository
	Sequences    repository.SequenceGenerator
	TxManager    repository.TransactionManager
	Reports      cache.ReportCache
	Publisher    Publisher
	Logger       *zap.Logger
}

func NewAssetService(d AssetDeps) AssetService {
	if d.Publisher == nil {
		d.Publisher = noopPublisher{}
	}
	if d.Reports == nil {
		d.Reports = cache.Noop{}
	}
	return &assetService{
		requestRepo:  d.RequestRepo,
		poRepo:       d.PORepo,
		grnRepo:      d.GRNRepo,
		assetRepo:    d.AssetRepo,
		categoryRepo: d.CategoryRepo,
		auditRepo:    d.AuditRepo,
		sequences:    d.Sequences,
		txManager:    d.TxManager,
		reports:      d.Reports,
		publisher:    d.Publisher,
		logger:       d.Logger,
	}
}

func toAssetResponse(a model.Asset, p depreciation.Period) AssetResponse {
	res := AssetResponse{
		ID:               a.ID.String(),
		AssetNumber:      a.AssetNumber,
		AssetName:        a.Name,
		Category:         a.CategoryName(),
		PurchaseCost:     a.PurchaseCost,
		UsefulLife:       a.UsefulLife,
		DepreciationRate: a.DepreciationRate,
		ResidualValue:    a.ResidualValue,
		Department:       a.Department,
		AcquisitionDate:  a.AcquisitionDate.Format(timeLayout),
		FullyDepreciated: report.Figures(a, p).FullyDepreciated,
	}
	if a.CategoryID != nil {
		id := a.CategoryID.String()
		res.CategoryID = &id
	}
	return res
}

// Register creates one asset per ordered unit and completes the request.
func (s *assetService) Register(ctx context.Context, actorID, requestID string, req RegisterAssetsDTO) ([]AssetResponse, error) {
	const op = "registerAssets"

	reqID, err := parseID(op, "request id", requestID)
	if err != nil {
		return nil, err
	}
	actor, err := parseID(op, "user id", actorID)
	if err != nil {
		return nil, err
	}
	categoryID, err := parseID(op, "category id", req.CategoryID)
	if err != nil {
		return nil, err
	}
	if req.UsefulLife <= 0 {
		return nil, apperr.Validation(op, "useful life must be at least one year")
	}
	if req.ResidualValue.IsNegative() {
		return nil, apperr.Validation(op, "residual value cannot be negative")
	}

	var assets []model.Asset
	var log transitionLog
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		request, err := s.requestRepo.FindByIDForUpdate(txCtx, reqID)
		if err != nil {
			return lookupErr(op, "request", err)
		}
		if request.Status == lifecycle.StatusCompleted {
			return apperr.AlreadyProcessed(op, "assets for this request are already registered")
		}

		po, err := s.poRepo.FindByRequestID(txCtx, reqID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.PreconditionFailed(op, "no purchase order has been created for this request")
		}
		if err != nil {
			return lookupErr(op, "purchase order", err)
		}
		if _, err := s.grnRepo.FindByPOID(txCtx, po.ID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.PreconditionFailed(op, "cannot register assets before goods are received")
			}
			return lookupErr(op, "goods received note", err)
		}

		category, err := s.categoryRepo.FindByID(txCtx, categoryID)
		if err != nil {
			return lookupErr(op, "category", err)
		}

		cost := po.UnitPrice
		if req.ResidualValue.GreaterThanOrEqual(cost) {
			return apperr.Validation(op, "residual value must be below the unit cost of %s", cost.StringFixed(2))
		}

		if err := log.advance(op, request, lifecycle.StatusCompleted); err != nil {
			return err
		}

		name := strings.TrimSpace(req.AssetName)
		if name == "" {
			name = po.AssetName
		}
		rate := hundred.Div(decimal.NewFromInt(int64(req.UsefulLife))).Round(4)
		acquired := now()

		assets = make([]model.Asset, 0, po.Quantity)
		for i := 0; i < po.Quantity; i++ {
			n, err := s.sequences.Next(txCtx, repository.SequenceAsset)
			if err != nil {
				return fmt.Errorf("failed to allocate asset number: %w", err)
			}
			assets = append(assets, model.Asset{
				AssetNumber:      FormatDocumentNumber(PrefixAsset, acquired, n),
				POID:             po.ID,
				Name:             name,
				CategoryID:       &category.ID,
				Category:         category,
				PurchaseCost:     cost,
				UsefulLife:       req.UsefulLife,
				DepreciationRate: rate,
				ResidualValue:    req.ResidualValue,
				Department:       strings.TrimSpace(req.Department),
				AcquisitionDate:  acquired,
			})
		}

		if err := s.assetRepo.CreateBatch(txCtx, assets); err != nil {
			return fmt.Errorf("failed to create assets: %w", err)
		}
		if err := s.requestRepo.Update(txCtx, request); err != nil {
			return fmt.Errorf("failed to update request: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, actor, model.ActionRegisterAssets, reqID.String(), name, map[string]interface{}{
			"po_number": po.PONumber,
			"quantity":  len(assets),
			"category":  category.Name,
		})
	})
	if err != nil {
		return nil, err
	}

	log.announce(s.publisher, s.logger)
	metrics.AddAssetsRegistered(len(assets))
	if err := s.reports.InvalidateAll(ctx); err != nil {
		s.logger.Warn("Failed to invalidate report cache", zap.Error(err))
	}

	s.logger.Info("Assets registered",
		zap.String("request_id", reqID.String()),
		zap.Int("count", len(assets)))

	period := depreciation.PeriodOf(now())
	res := make([]AssetResponse, 0, len(assets))
	for _, a := range assets {
		res = append(res, toAssetResponse(a, period))
	}
	return res, nil
}

func (s *assetService) List(ctx context.Context, filter AssetListFilter) (AssetPage, error) {
	p := pagination.New(filter.Page, filter.Limit)
	assets, total, err := s.assetRepo.List(ctx, repository.AssetFilter{
		Search:   strings.TrimSpace(filter.Search),
		Category: filter.Category,
		Sort:     filter.Sort,
		Page:     p.Page,
		Limit:    p.Limit,
	})
	if err != nil {
		return AssetPage{}, fmt.Errorf("failed to list assets: %w", err)
	}

	period := depreciation.PeriodOf(now())
	res := make([]AssetResponse, 0, len(assets))
	for _, a := range assets {
		res = append(res, toAssetResponse(a, period))
	}
	return AssetPage{Assets: res, Pagination: pagination.NewMeta(p, total)}, nil
}
