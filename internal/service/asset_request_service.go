package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Lahiru-360/fixed-asset-registry-final/internal/apperr"
	"github.com/Lahiru-360/fixed-asset-registry-final/internal/lifecycle"
	"github.com/Lahiru-360/fixed-asset-registry-final/internal/model"
	"github.com/Lahiru-360/fixed-asset-registry-final/internal/repository"
	"github.com/Lahiru-360/fixed-asset-registry-final/pkg/pagination"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// --- DTOs ---

type CreateAssetRequestDTO struct {
	AssetName string `json:"asset_name" binding:"required"`
	Quantity  int    `json:"quantity"`
	Reason    string `json:"reason"`
}

type AssetRequestListFilter struct {
	Search string
	Status string
	Sort   string
	Page   int
	Limit  int
}

type AssetRequestResponse struct {
	ID                 string           `json:"id"`
	EmployeeID         string           `json:"employee_id"`
	EmployeeName       string           `json:"employee_name,omitempty"`
	EmployeeEmail      string           `json:"employee_email,omitempty"`
	EmployeeDepartment string           `json:"department,omitempty"`
	AssetName          string           `json:"asset_name"`
	Quantity           int              `json:"quantity"`
	Reason             string           `json:"reason"`
	Status             lifecycle.Status `json:"status"`
	ReviewedBy         *string          `json:"reviewed_by"`
	ReviewedAt         *string          `json:"reviewed_at"`
	CreatedAt          string           `json:"created_at"`
}

type AssetRequestPage struct {
	Requests   []AssetRequestResponse `json:"requests"`
	Pagination pagination.Meta        `json:"pagination"`
}

// --- Interface ---

type AssetRequestService interface {
	Create(ctx context.Context, employeeID string, req CreateAssetRequestDTO) (AssetRequestResponse, error)
	ListMine(ctx context.Context, employeeID string) ([]AssetRequestResponse, error)
	List(ctx context.Context, filter AssetRequestListFilter) (AssetRequestPage, error)
	Get(ctx context.Context, id string) (AssetRequestResponse, error)
	Stats(ctx context.Context, employeeID string) (repository.RequestStats, error)
	Approve(ctx context.Context, id string, reviewerID string) (AssetRequestResponse, error)
	Reject(ctx context.Context, id string, reviewerID string) (AssetRequestResponse, error)
}

type assetRequestService struct {
	requestRepo repository.AssetRequestRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
	publisher   Publisher
	logger      *zap.Logger
}

func NewAssetRequestService(
	requestRepo repository.AssetRequestRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	publisher Publisher,
	logger *zap.Logger,
) AssetRequestService {
	if publisher == nil {
		publisher = noopPublisher{}
	}
	return &assetRequestService{
		requestRepo: requestRepo,
		auditRepo:   auditRepo,
		txManager:   txManager,
		publisher:   publisher,
		logger:      logger,
	}
}

func toAssetRequestResponse(r model.AssetRequest) AssetRequestResponse {
	res := AssetRequestResponse{
		ID:         r.ID.String(),
		EmployeeID: r.EmployeeID.String(),
		AssetName:  r.AssetName,
		Quantity:   r.Quantity,
		Reason:     r.Reason,
		Status:     r.Status,
		ReviewedAt: formatTime(r.ReviewedAt),
		CreatedAt:  r.CreatedAt.Format(timeLayout),
	}
	if r.ReviewedBy != nil {
		s := r.ReviewedBy.String()
		res.ReviewedBy = &s
	}
	if r.Employee != nil {
		res.EmployeeName = r.Employee.FullName()
		res.EmployeeEmail = r.Employee.Email
		res.EmployeeDepartment = r.Employee.Department
	}
	return res
}

func (s *assetRequestService) Create(ctx context.Context, employeeID string, req CreateAssetRequestDTO) (AssetRequestResponse, error) {
	const op = "createAssetRequest"

	empID, err := parseID(op, "employee id", employeeID)
	if err != nil {
		return AssetRequestResponse{}, err
	}

	name := strings.TrimSpace(req.AssetName)
	if name == "" {
		return AssetRequestResponse{}, apperr.Validation(op, "asset name is required")
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	if req.Quantity < 1 {
		return AssetRequestResponse{}, apperr.Validation(op, "quantity must be at least 1")
	}

	request := model.AssetRequest{
		EmployeeID: empID,
		AssetName:  name,
		Quantity:   req.Quantity,
		Reason:     strings.TrimSpace(req.Reason),
		Status:     lifecycle.StatusPending,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.requestRepo.Create(txCtx, &request); err != nil {
			return fmt.Errorf("failed to create asset request: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, empID, model.ActionCreateRequest, request.ID.String(), request.AssetName, map[string]interface{}{
			"quantity": request.Quantity,
			"reason":   request.Reason,
		})
	})
	if err != nil {
		return AssetRequestResponse{}, err
	}

	s.logger.Info("Asset request created",
		zap.String("request_id", request.ID.String()),
		zap.String("employee_id", empID.String()),
		zap.Int("quantity", request.Quantity))
	return toAssetRequestResponse(request), nil
}

func (s *assetRequestService) ListMine(ctx context.Context, employeeID string) ([]AssetRequestResponse, error) {
	empID, err := parseID("listMyRequests", "employee id", employeeID)
	if err != nil {
		return nil, err
	}

	requests, err := s.requestRepo.ListByEmployee(ctx, empID)
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}

	res := make([]AssetRequestResponse, 0, len(requests))
	for _, r := range requests {
		res = append(res, toAssetRequestResponse(r))
	}
	return res, nil
}

func (s *assetRequestService) List(ctx context.Context, filter AssetRequestListFilter) (AssetRequestPage, error) {
	const op = "listAssetRequests"

	var status lifecycle.Status
	if filter.Status != "" && filter.Status != "All" {
		parsed, err := lifecycle.Parse(filter.Status)
		if err != nil {
			return AssetRequestPage{}, apperr.Validation(op, "%v", err)
		}
		status = parsed
	}

	p := pagination.New(filter.Page, filter.Limit)
	requests, total, err := s.requestRepo.List(ctx, repository.AssetRequestFilter{
		Search: strings.TrimSpace(filter.Search),
		Status: status,
		Sort:   filter.Sort,
		Page:   p.Page,
		Limit:  p.Limit,
	})
	if err != nil {
		return AssetRequestPage{}, fmt.Errorf("failed to list requests: %w", err)
	}

	res := make([]AssetRequestResponse, 0, len(requests))
	for _, r := range requests {
		res = append(res, toAssetRequestResponse(r))
	}
	return AssetRequestPage{Requests: res, Pagination: pagination.NewMeta(p, total)}, nil
}

func (s *assetRequestService) Get(ctx context.Context, id string) (AssetRequestResponse, error) {
	const op = "getAssetRequest"

	reqID, err := parseID(op, "request id", id)
	if err != nil {
		return AssetRequestResponse{}, err
	}
	request, err := s.requestRepo.FindByIDWithEmployee(ctx, reqID)
	if err != nil {
		return AssetRequestResponse{}, lookupErr(op, "request", err)
	}
	return toAssetRequestResponse(*request), nil
}

// Stats counts one employee's requests, or every request when employeeID is empty.
func (s *assetRequestService) Stats(ctx context.Context, employeeID string) (repository.RequestStats, error) {
	var empID *uuid.UUID
	if employeeID != "" {
		id, err := parseID("requestStats", "employee id", employeeID)
		if err != nil {
			return repository.RequestStats{}, err
		}
		empID = &id
	}

	t := now()
	monthStart := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	stats, err := s.requestRepo.Stats(ctx, empID, monthStart)
	if err != nil {
		return repository.RequestStats{}, fmt.Errorf("failed to load request stats: %w", err)
	}
	return stats, nil
}

func (s *assetRequestService) Approve(ctx context.Context, id string, reviewerID string) (AssetRequestResponse, error) {
	return s.review(ctx, "approveRequest", id, reviewerID, lifecycle.StatusApproved, model.ActionApproveRequest)
}

func (s *assetRequestService) Reject(ctx context.Context, id string, reviewerID string) (AssetRequestResponse, error) {
	return s.review(ctx, "rejectRequest", id, reviewerID, lifecycle.StatusRejected, model.ActionRejectRequest)
}

func (s *assetRequestService) review(ctx context.Context, op, id, reviewerID string, to lifecycle.Status, action string) (AssetRequestResponse, error) {
	reqID, err := parseID(op, "request id", id)
	if err != nil {
		return AssetRequestResponse{}, err
	}
	revID, err := parseID(op, "reviewer id", reviewerID)
	if err != nil {
		return AssetRequestResponse{}, err
	}

	var request *model.AssetRequest
	var log transitionLog
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		request, err = s.requestRepo.FindByIDForUpdate(txCtx, reqID)
		if err != nil {
			return lookupErr(op, "request", err)
		}

		if err := log.advance(op, request, to); err != nil {
			return err
		}
		reviewedAt := now()
		request.ReviewedBy = &revID
		request.ReviewedAt = &reviewedAt

		if err := s.requestRepo.Update(txCtx, request); err != nil {
			return fmt.Errorf("failed to update request: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, revID, action, request.ID.String(), request.AssetName, map[string]interface{}{
			"status": to,
		})
	})
	if err != nil {
		return AssetRequestResponse{}, err
	}

	log.announce(s.publisher, s.logger)
	return toAssetRequestResponse(*request), nil
}
