package service

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Lahiru-360/fixed-asset-registry-final/internal/apperr"
	"github.com/Lahiru-360/fixed-asset-registry-final/internal/lifecycle"
	"github.com/Lahiru-360/fixed-asset-registry-final/internal/model"
	"github.com/Lahiru-360/fixed-asset-registry-final/internal/repository"
	"github.com/Lahiru-360/fixed-asset-registry-final/internal/storage"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// MaxQuotationFileSize caps uploaded quotation documents.
const MaxQuotationFileSize = 10 << 20

var allowedQuotationTypes = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/png":       true,
}

// --- DTOs ---

// UploadedFile is a file received from a multipart form.
type UploadedFile struct {
	Name        string
	ContentType string
	Data        []byte
}

type QuotationInput struct {
	VendorName  string          `json:"vendor_name"`
	VendorEmail string          `json:"vendor_email"`
	AssetName   string          `json:"asset_name"`
	Price       decimal.Decimal `json:"price"`
}

type QuotationResponse struct {
	ID          string          `json:"id"`
	RequestID   string          `json:"request_id"`
	VendorName  string          `json:"vendor_name"`
	VendorEmail string          `json:"vendor_email"`
	AssetName   string          `json:"asset_name"`
	Price       decimal.Decimal `json:"price"`
	FileURL     string          `json:"file_url,omitempty"`
	IsFinal     bool            `json:"is_final"`
	CreatedAt   string          `json:"created_at"`
}

// --- Interface ---

type QuotationService interface {
	List(ctx context.Context, requestID string) ([]QuotationResponse, error)
	Create(ctx context.Context, actorID, requestID string, in QuotationInput, file *UploadedFile) (QuotationResponse, error)
	Update(ctx context.Context, actorID, quotationID string, in QuotationInput, file *UploadedFile) (QuotationResponse, error)
	Delete(ctx context.Context, actorID, quotationID string) error
	SelectFinal(ctx context.Context, actorID, requestID, quotationID string) (QuotationResponse, error)
}

type quotationService struct {
	requestRepo   repository.AssetRequestRepository
	quotationRepo repository.QuotationRepository
	auditRepo     repository.AuditRepository
	txManager     repository.TransactionManager
	store         storage.ObjectStore
	publisher     Publisher
	logger        *zap.Logger
}

func NewQuotationService(
	requestRepo repository.AssetRequestRepository,
	quotationRepo repository.QuotationRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	store storage.ObjectStore,
	publisher Publisher,
	logger *zap.Logger,
) QuotationService {
	if publisher == nil {
		publisher = noopPublisher{}
	}
	return &quotationService{
		requestRepo:   requestRepo,
		quotationRepo: quotationRepo,
		auditRepo:     auditRepo,
		txManager:     txManager,
		store:         store,
		publisher:     publisher,
		logger:        logger,
	}
}

func (s *quotationService) toResponse(q model.Quotation) QuotationResponse {
	res := QuotationResponse{
		ID:          q.ID.String(),
		RequestID:   q.RequestID.String(),
		VendorName:  q.VendorName,
		VendorEmail: q.VendorEmail,
		AssetName:   q.AssetName,
		Price:       q.Price,
		IsFinal:     q.IsFinal,
		CreatedAt:   q.CreatedAt.Format(timeLayout),
	}
	if q.FileKey != "" {
		res.FileURL = s.store.URL(q.FileKey)
	}
	return res
}

func (in QuotationInput) validate(op string) error {
	if strings.TrimSpace(in.VendorName) == "" {
		return apperr.Validation(op, "vendor name is required")
	}
	if !strings.Contains(in.VendorEmail, "@") {
		return apperr.Validation(op, "a valid vendor email is required")
	}
	if strings.TrimSpace(in.AssetName) == "" {
		return apperr.Validation(op, "asset name is required")
	}
	if !in.Price.IsPositive() {
		return apperr.Validation(op, "price must be greater than zero")
	}
	return nil
}

func validateFile(op string, f *UploadedFile) error {
	if len(f.Data) == 0 {
		return apperr.Validation(op, "quotation file is empty")
	}
	if len(f.Data) > MaxQuotationFileSize {
		return apperr.Validation(op, "quotation file exceeds %d MB", MaxQuotationFileSize>>20)
	}
	if !allowedQuotationTypes[f.ContentType] {
		return apperr.Validation(op, "unsupported file type %q", f.ContentType)
	}
	return nil
}

// upload stores f under a fresh key and returns it.
func (s *quotationService) upload(ctx context.Context, op string, f *UploadedFile) (string, error) {
	key := storage.Key(storage.PrefixQuotations, uuid.NewString()+strings.ToLower(filepath.Ext(f.Name)))
	if err := s.store.Put(ctx, key, f.Data, f.ContentType); err != nil {
		return "", apperr.External(op, "failed to store quotation file", err)
	}
	return key, nil
}

// discard removes an object that is no longer referenced. Failures are only logged.
func (s *quotationService) discard(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.store.Delete(ctx, key); err != nil {
		s.logger.Warn("Failed to delete quotation file", zap.String("key", key), zap.Error(err))
	}
}

// lockedRequest loads the request for update and refuses when its quotations are frozen.
func (s *quotationService) lockedRequest(ctx context.Context, op string, id uuid.UUID) (*model.AssetRequest, error) {
	request, err := s.requestRepo.FindByIDForUpdate(ctx, id)
	if err != nil {
		return nil, lookupErr(op, "request", err)
	}
	if request.Status.QuotationsLocked() {
		return nil, apperr.InvalidTransition(op, "quotations are locked while the request is %s", request.Status)
	}
	return request, nil
}

func (s *quotationService) List(ctx context.Context, requestID string) ([]QuotationResponse, error) {
	const op = "listQuotations"

	reqID, err := parseID(op, "request id", requestID)
	if err != nil {
		return nil, err
	}
	if _, err := s.requestRepo.FindByID(ctx, reqID); err != nil {
		return nil, lookupErr(op, "request", err)
	}

	quotations, err := s.quotationRepo.ListByRequest(ctx, reqID)
	if err != nil {
		return nil, fmt.Errorf("failed to list quotations: %w", err)
	}

	res := make([]QuotationResponse, 0, len(quotations))
	for _, q := range quotations {
		res = append(res, s.toResponse(q))
	}
	return res, nil
}

func (s *quotationService) Create(ctx context.Context, actorID, requestID string, in QuotationInput, file *UploadedFile) (QuotationResponse, error) {
	const op = "createQuotation"

	reqID, err := parseID(op, "request id", requestID)
	if err != nil {
		return QuotationResponse{}, err
	}
	actor, err := parseID(op, "user id", actorID)
	if err != nil {
		return QuotationResponse{}, err
	}
	if err := in.validate(op); err != nil {
		return QuotationResponse{}, err
	}
	if file == nil {
		return QuotationResponse{}, apperr.Validation(op, "quotation file is required")
	}
	if err := validateFile(op, file); err != nil {
		return QuotationResponse{}, err
	}

	var quotation model.Quotation
	var uploaded string
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if _, err := s.lockedRequest(txCtx, op, reqID); err != nil {
			return err
		}

		uploaded, err = s.upload(txCtx, op, file)
		if err != nil {
			return err
		}

		quotation = model.Quotation{
			RequestID:   reqID,
			VendorName:  strings.TrimSpace(in.VendorName),
			VendorEmail: strings.TrimSpace(in.VendorEmail),
			AssetName:   strings.TrimSpace(in.AssetName),
			Price:       in.Price,
			FileKey:     uploaded,
		}
		if err := s.quotationRepo.Create(txCtx, &quotation); err != nil {
			return fmt.Errorf("failed to create quotation: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, actor, model.ActionCreateQuotation, quotation.ID.String(), quotation.VendorName, map[string]interface{}{
			"request_id": reqID.String(),
			"price":      quotation.Price.String(),
		})
	})
	if err != nil {
		s.discard(ctx, uploaded)
		return QuotationResponse{}, err
	}

	s.logger.Info("Quotation created",
		zap.String("quotation_id", quotation.ID.String()),
		zap.String("request_id", reqID.String()))
	return s.toResponse(quotation), nil
}

// Update replaces the quotation's fields. A new file replaces the stored one, which is then deleted.
func (s *quotationService) Update(ctx context.Context, actorID, quotationID string, in QuotationInput, file *UploadedFile) (QuotationResponse, error) {
	const op = "updateQuotation"

	qID, err := parseID(op, "quotation id", quotationID)
	if err != nil {
		return QuotationResponse{}, err
	}
	actor, err := parseID(op, "user id", actorID)
	if err != nil {
		return QuotationResponse{}, err
	}
	if err := in.validate(op); err != nil {
		return QuotationResponse{}, err
	}
	if file != nil {
		if err := validateFile(op, file); err != nil {
			return QuotationResponse{}, err
		}
	}

	var quotation *model.Quotation
	var uploaded, replaced string
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		quotation, err = s.quotationRepo.FindByID(txCtx, qID)
		if err != nil {
			return lookupErr(op, "quotation", err)
		}
		if _, err := s.lockedRequest(txCtx, op, quotation.RequestID); err != nil {
			return err
		}

		if file != nil {
			uploaded, err = s.upload(txCtx, op, file)
			if err != nil {
				return err
			}
			replaced = quotation.FileKey
			quotation.FileKey = uploaded
		}

		quotation.VendorName = strings.TrimSpace(in.VendorName)
		quotation.VendorEmail = strings.TrimSpace(in.VendorEmail)
		quotation.AssetName = strings.TrimSpace(in.AssetName)
		quotation.Price = in.Price

		if err := s.quotationRepo.Update(txCtx, quotation); err != nil {
			return fmt.Errorf("failed to update quotation: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, actor, model.ActionUpdateQuotation, quotation.ID.String(), quotation.VendorName, map[string]interface{}{
			"price":         quotation.Price.String(),
			"file_replaced": file != nil,
		})
	})
	if err != nil {
		s.discard(ctx, uploaded)
		return QuotationResponse{}, err
	}

	s.discard(ctx, replaced)
	return s.toResponse(*quotation), nil
}

func (s *quotationService) Delete(ctx context.Context, actorID, quotationID string) error {
	const op = "deleteQuotation"

	qID, err := parseID(op, "quotation id", quotationID)
	if err != nil {
		return err
	}
	actor, err := parseID(op, "user id", actorID)
	if err != nil {
		return err
	}

	var quotation *model.Quotation
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		quotation, err = s.quotationRepo.FindByID(txCtx, qID)
		if err != nil {
			return lookupErr(op, "quotation", err)
		}
		if _, err := s.lockedRequest(txCtx, op, quotation.RequestID); err != nil {
			return err
		}
		if err := s.quotationRepo.Delete(txCtx, qID); err != nil {
			return fmt.Errorf("failed to delete quotation: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, actor, model.ActionDeleteQuotation, qID.String(), quotation.VendorName, map[string]interface{}{
			"request_id": quotation.RequestID.String(),
		})
	})
	if err != nil {
		return err
	}

	s.discard(ctx, quotation.FileKey)
	return nil
}

// SelectFinal marks one quotation as final, clears the flag on its siblings and moves the
// request to Quotation Selected.
func (s *quotationService) SelectFinal(ctx context.Context, actorID, requestID, quotationID string) (QuotationResponse, error) {
	const op = "selectFinalQuotation"

	reqID, err := parseID(op, "request id", requestID)
	if err != nil {
		return QuotationResponse{}, err
	}
	qID, err := parseID(op, "quotation id", quotationID)
	if err != nil {
		return QuotationResponse{}, err
	}
	actor, err := parseID(op, "user id", actorID)
	if err != nil {
		return QuotationResponse{}, err
	}

	var quotation *model.Quotation
	var log transitionLog
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		request, err := s.lockedRequest(txCtx, op, reqID)
		if err != nil {
			return err
		}
		if err := log.advance(op, request, lifecycle.StatusQuotationSelected); err != nil {
			return err
		}

		if err := s.quotationRepo.SelectFinal(txCtx, reqID, qID); err != nil {
			return lookupErr(op, "quotation", err)
		}
		if err := s.requestRepo.Update(txCtx, request); err != nil {
			return fmt.Errorf("failed to update request: %w", err)
		}

		quotation, err = s.quotationRepo.FindByID(txCtx, qID)
		if err != nil {
			return lookupErr(op, "quotation", err)
		}
		return writeAudit(txCtx, s.auditRepo, actor, model.ActionSelectQuotation, reqID.String(), request.AssetName, map[string]interface{}{
			"quotation_id": qID.String(),
			"vendor":       quotation.VendorName,
		})
	})
	if err != nil {
		return QuotationResponse{}, err
	}

	log.announce(s.publisher, s.logger)
	return s.toResponse(*quotation), nil
}
