package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Lahiru-360/fixed-asset-registry-final/internal/apperr"
	"github.com/Lahiru-360/fixed-asset-registry-final/internal/document"
	"github.com/Lahiru-360/fixed-asset-registry-final/internal/lifecycle"
	"github.com/Lahiru-360/fixed-asset-registry-final/internal/mailer"
	"github.com/Lahiru-360/fixed-asset-registry-final/internal/metrics"
	"github.com/Lahiru-360/fixed-asset-registry-final/internal/model"
	"github.com/Lahiru-360/fixed-asset-registry-final/internal/repository"
	"github.com/Lahiru-360/fixed-asset-registry-final/internal/storage"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// --- DTOs ---

type GRNResponse struct {
	ID        string `json:"id"`
	GRNNumber string `json:"grn_number"`
	PDFURL    string `json:"pdf_url,omitempty"`
	CreatedAt string `json:"created_at"`
}

type PurchaseOrderResponse struct {
	ID          string          `json:"id"`
	RequestID   string          `json:"request_id"`
	QuotationID string          `json:"quotation_id"`
	PONumber    string          `json:"po_number"`
	VendorName  string          `json:"vendor_name"`
	VendorEmail string          `json:"vendor_email"`
	AssetName   string          `json:"asset_name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Status      string          `json:"status"`
	Sent        bool            `json:"sent"`
	SentAt      *string         `json:"sent_at"`
	Received    bool            `json:"received"`
	ReceivedAt  *string         `json:"received_at"`
	PDFURL      string          `json:"pdf_url,omitempty"`
	GRN         *GRNResponse    `json:"grn"`
	CreatedAt   string          `json:"created_at"`
}

// Download is a generated document ready to be streamed.
type Download struct {
	FileName    string
	ContentType string
	Data        []byte
}

// --- Interface ---

type PurchaseOrderService interface {
	Create(ctx context.Context, actorID, requestID string) (PurchaseOrderResponse, error)
	Send(ctx context.Context, actorID, requestID string) (PurchaseOrderResponse, error)
	ConfirmReceived(ctx context.Context, actorID, requestID string) (PurchaseOrderResponse, error)
	Get(ctx context.Context, requestID string) (PurchaseOrderResponse, error)
	DownloadPO(ctx context.Context, requestID string) (Download, error)
	DownloadGRN(ctx context.Context, requestID string) (Download, error)
}

type purchaseOrderService struct {
	requestRepo   repository.AssetRequestRepository
	quotationRepo repository.QuotationRepository
	poRepo        repository.PurchaseOrderRepository
	grnRepo       repository.GRNRepository
	auditRepo     repository.AuditRepository
	sequences     repository.SequenceGenerator
	txManager     repository.TransactionManager
	renderer      document.Renderer
	store         storage.ObjectStore
	mailer        mailer.Mailer
	publisher     Publisher
	logger        *zap.Logger
}

type PurchaseOrderDeps struct {
	RequestRepo   repository.AssetRequestRepository
	QuotationRepo repository.QuotationRepository
	PORepo        repository.PurchaseOrderRepository
	GRNRepo       repository.GRNRepository
	AuditRepo     repository.AuditRepository
	Sequences     repository.SequenceGenerator
	TxManager     repository.TransactionManager
	Renderer      document.Renderer
	Store         storage.ObjectStore
	Mailer        mailer.Mailer
	Publisher     Publisher
	Logger        *zap.Logger
}

func NewPurchaseOrderService(d PurchaseOrderDeps) PurchaseOrderService {
	if d.Publisher == nil {
		d.Publisher = noopPublisher{}
	}
	return &purchaseOrderService{
		requestRepo:   d.RequestRepo,
		quotationRepo: d.QuotationRepo,
		poRepo:        d.PORepo,
		grnRepo:       d.GRNRepo,
		auditRepo:     d.AuditRepo,
		sequences:     d.Sequences,
		txManager:     d.TxManager,
		renderer:      d.Renderer,
		store:         d.Store,
		mailer:        d.Mailer,
		publisher:     d.Publisher,
		logger:        d.Logger,
	}
}

func (s *purchaseOrderService) toResponse(po *model.PurchaseOrder, grn *model.GoodsReceivedNote) PurchaseOrderResponse {
	res := PurchaseOrderResponse{
		ID:          po.ID.String(),
		RequestID:   po.RequestID.String(),
		QuotationID: po.QuotationID.String(),
		PONumber:    po.PONumber,
		VendorName:  po.VendorName,
		VendorEmail: po.VendorEmail,
		AssetName:   po.AssetName,
		UnitPrice:   po.UnitPrice,
		Quantity:    po.Quantity,
		TotalAmount: po.Total(),
		Status:      po.Status,
		Sent:        po.Sent,
		SentAt:      formatTime(po.SentAt),
		Received:    po.Received,
		ReceivedAt:  formatTime(po.ReceivedAt),
		CreatedAt:   po.CreatedAt.Format(timeLayout),
	}
	if po.PDFKey != "" {
		res.PDFURL = s.store.URL(po.PDFKey)
	}
	if grn != nil {
		res.GRN = &GRNResponse{
			ID:        grn.ID.String(),
			GRNNumber: grn.GRNNumber,
			CreatedAt: grn.CreatedAt.Format(timeLayout),
		}
		if grn.PDFKey != "" {
			res.GRN.PDFURL = s.store.URL(grn.PDFKey)
		}
	}
	return res
}

// findGRN returns nil without error when the PO has not been received yet.
func (s *purchaseOrderService) findGRN(ctx context.Context, op string, poID uuid.UUID) (*model.GoodsReceivedNote, error) {
	grn, err := s.grnRepo.FindByPOID(ctx, poID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, lookupErr(op, "goods received note", err)
	}
	return grn, nil
}

// requirePO loads the request's PO and reports a missing one as a failed precondition.
func (s *purchaseOrderService) requirePO(ctx context.Context, op string, requestID uuid.UUID) (*model.PurchaseOrder, error) {
	po, err := s.poRepo.FindByRequestID(ctx, requestID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.PreconditionFailed(op, "no purchase order has been created for this request")
	}
	if err != nil {
		return nil, lookupErr(op, "purchase order", err)
	}
	return po, nil
}

func (s *purchaseOrderService) nextNumber(ctx context.Context, kind repository.SequenceKind, prefix string) (string, error) {
	n, err := s.sequences.Next(ctx, kind)
	if err != nil {
		return "", err
	}
	return FormatDocumentNumber(prefix, now(), n), nil
}

// Create returns the request's purchase order, creating it from the final quotation on first call.
func (s *purchaseOrderService) Create(ctx context.Context, actorID, requestID string) (PurchaseOrderResponse, error) {
	const op = "createPurchaseOrder"

	reqID, err := parseID(op, "request id", requestID)
	if err != nil {
		return PurchaseOrderResponse{}, err
	}
	actor, err := parseID(op, "user id", actorID)
	if err != nil {
		return PurchaseOrderResponse{}, err
	}

	var po *model.PurchaseOrder
	var grn *model.GoodsReceivedNote
	var created bool
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		request, err := s.requestRepo.FindByIDForUpdate(txCtx, reqID)
		if err != nil {
			return lookupErr(op, "request", err)
		}

		po, err = s.poRepo.FindByRequestID(txCtx, reqID)
		if err == nil {
			grn, err = s.findGRN(txCtx, op, po.ID)
			return err
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return lookupErr(op, "purchase order", err)
		}

		if !request.Status.Reached(lifecycle.StatusQuotationSelected) {
			return apperr.PreconditionFailed(op, "a final quotation must be selected first (request is %s)", request.Status)
		}
		final, err := s.quotationRepo.FindFinal(txCtx, reqID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.PreconditionFailed(op, "request has no final quotation")
		}
		if err != nil {
			return lookupErr(op, "final quotation", err)
		}

		number, err := s.nextNumber(txCtx, repository.SequencePurchaseOrder, PrefixPurchaseOrder)
		if err != nil {
			return fmt.Errorf("failed to allocate PO number: %w", err)
		}

		po, created, err = s.poRepo.CreateIfAbsent(txCtx, &model.PurchaseOrder{
			RequestID:   reqID,
			QuotationID: final.ID,
			PONumber:    number,
			VendorName:  final.VendorName,
			VendorEmail: final.VendorEmail,
			AssetName:   final.AssetName,
			UnitPrice:   final.Price,
			Quantity:    request.Quantity,
			Status:      model.POStatusCreated,
		})
		if err != nil {
			return fmt.Errorf("failed to create purchase order: %w", err)
		}
		if !created {
			return nil
		}
		return writeAudit(txCtx, s.auditRepo, actor, model.ActionCreatePurchaseOrder, po.ID.String(), po.PONumber, map[string]interface{}{
			"request_id": reqID.String(),
			"total":      po.Total().String(),
		})
	})
	if err != nil {
		return PurchaseOrderResponse{}, err
	}

	if created {
		s.logger.Info("Purchase order created",
			zap.String("po_number", po.PONumber),
			zap.String("request_id", reqID.String()))
	}
	return s.toResponse(po, grn), nil
}

// poPDF returns the stored PO document, rendering and storing it first when it is missing.
func (s *purchaseOrderService) poPDF(ctx context.Context, op string, po *model.PurchaseOrder) ([]byte, error) {
	if po.PDFKey != "" {
		data, err := s.store.Get(ctx, po.PDFKey)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return nil, apperr.External(op, "failed to read purchase order document", err)
		}
		s.logger.Warn("Purchase order document missing, regenerating", zap.String("key", po.PDFKey))
	}

	start := time.Now()
	data, err := s.renderer.PurchaseOrder(po)
	metrics.ObserveRender("purchase_order", start, err)
	if err != nil {
		return nil, apperr.External(op, "failed to render purchase order", err)
	}

	key := storage.Key(storage.PrefixPurchaseOrders, po.PONumber+".pdf")
	if err := s.store.Put(ctx, key, data, document.ContentTypePDF); err != nil {
		return nil, apperr.External(op, "failed to store purchase order document", err)
	}
	if po.PDFKey != key {
		po.PDFKey = key
		if err := s.poRepo.Update(ctx, po); err != nil {
			return nil, fmt.Errorf("failed to update purchase order: %w", err)
		}
	}
	return data, nil
}

// Send mails the PO document to the vendor and moves the request to Purchase Order Sent.
// The status only changes once the mail has been accepted; a failed dispatch rolls everything back.
// Sending an order that was already sent dispatches the mail again and changes nothing else.
func (s *purchaseOrderService) Send(ctx context.Context, actorID, requestID string) (PurchaseOrderResponse, error) {
	const op = "sendPurchaseOrder"

	reqID, err := parseID(op, "request id", requestID)
	if err != nil {
		return PurchaseOrderResponse{}, err
	}
	actor, err := parseID(op, "user id", actorID)
	if err != nil {
		return PurchaseOrderResponse{}, err
	}

	var po *model.PurchaseOrder
	var grn *model.GoodsReceivedNote
	var log transitionLog
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		request, err := s.requestRepo.FindByIDForUpdate(txCtx, reqID)
		if err != nil {
			return lookupErr(op, "request", err)
		}
		po, err = s.requirePO(txCtx, op, reqID)
		if err != nil {
			return err
		}
		if !po.Sent {
			if err := lifecycle.Transition(op, request.Status, lifecycle.StatusPurchaseOrderSent); err != nil {
				return err
			}
		}

		pdf, err := s.poPDF(txCtx, op, po)
		if err != nil {
			return err
		}

		err = s.mailer.SendPurchaseOrder(txCtx, po, pdf)
		metrics.ObserveMail(err)
		if err != nil {
			return apperr.External(op, "failed to email purchase order to vendor", err)
		}

		if po.Sent {
			grn, err = s.findGRN(txCtx, op, po.ID)
			return err
		}

		if err := log.advance(op, request, lifecycle.StatusPurchaseOrderSent); err != nil {
			return err
		}
		sentAt := now()
		po.Sent = true
		po.SentAt = &sentAt
		po.Status = model.POStatusSent

		if err := s.poRepo.Update(txCtx, po); err != nil {
			return fmt.Errorf("failed to update purchase order: %w", err)
		}
		if err := s.requestRepo.Update(txCtx, request); err != nil {
			return fmt.Errorf("failed to update request: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, actor, model.ActionSendPurchaseOrder, po.ID.String(), po.PONumber, map[string]interface{}{
			"vendor_email": po.VendorEmail,
		})
	})
	if err != nil {
		return PurchaseOrderResponse{}, err
	}

	log.announce(s.publisher, s.logger)
	s.logger.Info("Purchase order sent",
		zap.String("po_number", po.PONumber),
		zap.String("vendor_email", po.VendorEmail))
	return s.toResponse(po, grn), nil
}

// ConfirmReceived issues the goods received note on first call. Later calls return the existing note.
func (s *purchaseOrderService) ConfirmReceived(ctx context.Context, actorID, requestID string) (PurchaseOrderResponse, error) {
	const op = "confirmReceived"

	reqID, err := parseID(op, "request id", requestID)
	if err != nil {
		return PurchaseOrderResponse{}, err
	}
	actor, err := parseID(op, "user id", actorID)
	if err != nil {
		return PurchaseOrderResponse{}, err
	}

	var po *model.PurchaseOrder
	var grn *model.GoodsReceivedNote
	var log transitionLog
	var stored string
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		request, err := s.requestRepo.FindByIDForUpdate(txCtx, reqID)
		if err != nil {
			return lookupErr(op, "request", err)
		}
		po, err = s.requirePO(txCtx, op, reqID)
		if err != nil {
			return err
		}

		grn, err = s.findGRN(txCtx, op, po.ID)
		if err != nil || grn != nil {
			return err
		}

		if err := log.advance(op, request, lifecycle.StatusAssetReceived); err != nil {
			return err
		}

		number, err := s.nextNumber(txCtx, repository.SequenceGRN, PrefixGRN)
		if err != nil {
			return fmt.Errorf("failed to allocate GRN number: %w", err)
		}

		receivedAt := now()
		po.Received = true
		po.ReceivedAt = &receivedAt
		po.Status = model.POStatusReceived
		if err := s.poRepo.Update(txCtx, po); err != nil {
			return fmt.Errorf("failed to update purchase order: %w", err)
		}
		if err := s.requestRepo.Update(txCtx, request); err != nil {
			return fmt.Errorf("failed to update request: %w", err)
		}

		note := &model.GoodsReceivedNote{POID: po.ID, GRNNumber: number, CreatedAt: receivedAt}
		start := time.Now()
		pdf, err := s.renderer.GoodsReceivedNote(po, note)
		metrics.ObserveRender("goods_received_note", start, err)
		if err != nil {
			return apperr.External(op, "failed to render goods received note", err)
		}
		note.PDFKey = storage.Key(storage.PrefixGRNs, number+".pdf")
		if err := s.store.Put(txCtx, note.PDFKey, pdf, document.ContentTypePDF); err != nil {
			return apperr.External(op, "failed to store goods received note", err)
		}
		stored = note.PDFKey

		var created bool
		grn, created, err = s.grnRepo.CreateIfAbsent(txCtx, note)
		if err != nil {
			return fmt.Errorf("failed to create goods received note: %w", err)
		}
		if !created {
			if grn.PDFKey == stored {
				stored = ""
			}
			return apperr.AlreadyProcessed(op, "goods received note already exists")
		}
		return writeAudit(txCtx, s.auditRepo, actor, model.ActionConfirmReceived, po.ID.String(), grn.GRNNumber, map[string]interface{}{
			"po_number": po.PONumber,
		})
	})
	if err != nil {
		s.discard(ctx, stored)
		return PurchaseOrderResponse{}, err
	}

	log.announce(s.publisher, s.logger)
	return s.toResponse(po, grn), nil
}

// discard removes a document written by a transaction that rolled back. Failures are only logged.
func (s *purchaseOrderService) discard(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.store.Delete(ctx, key); err != nil {
		s.logger.Warn("Failed to delete orphaned document", zap.String("key", key), zap.Error(err))
	}
}

func (s *purchaseOrderService) Get(ctx context.Context, requestID string) (PurchaseOrderResponse, error) {
	const op = "getPurchaseOrder"

	reqID, err := parseID(op, "request id", requestID)
	if err != nil {
		return PurchaseOrderResponse{}, err
	}
	po, err := s.poRepo.FindByRequestID(ctx, reqID)
	if err != nil {
		return PurchaseOrderResponse{}, lookupErr(op, "purchase order", err)
	}
	grn, err := s.findGRN(ctx, op, po.ID)
	if err != nil {
		return PurchaseOrderResponse{}, err
	}
	return s.toResponse(po, grn), nil
}

func (s *purchaseOrderService) DownloadPO(ctx context.Context, requestID string) (Download, error) {
	const op = "downloadPurchaseOrder"

	reqID, err := parseID(op, "request id", requestID)
	if err != nil {
		return Download{}, err
	}

	var dl Download
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		po, err := s.poRepo.FindByRequestID(txCtx, reqID)
		if err != nil {
			return lookupErr(op, "purchase order", err)
		}
		data, err := s.poPDF(txCtx, op, po)
		if err != nil {
			return err
		}
		dl = Download{FileName: po.PONumber + ".pdf", ContentType: document.ContentTypePDF, Data: data}
		return nil
	})
	return dl, err
}

func (s *purchaseOrderService) DownloadGRN(ctx context.Context, requestID string) (Download, error) {
	const op = "downloadGRN"

	reqID, err := parseID(op, "request id", requestID)
	if err != nil {
		return Download{}, err
	}
	po, err := s.poRepo.FindByRequestID(ctx, reqID)
	if err != nil {
		return Download{}, lookupErr(op, "purchase order", err)
	}
	grn, err := s.grnRepo.FindByPOID(ctx, po.ID)
	if err != nil {
		return Download{}, lookupErr(op, "goods received note", err)
	}

	var data []byte
	if grn.PDFKey != "" {
		data, err = s.store.Get(ctx, grn.PDFKey)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return Download{}, apperr.External(op, "failed to read goods received note", err)
		}
	}
	if data == nil {
		start := time.Now()
		data, err = s.renderer.GoodsReceivedNote(po, grn)
		metrics.ObserveRender("goods_received_note", start, err)
		if err != nil {
			return Download{}, apperr.External(op, "failed to render goods received note", err)
		}
		if grn.PDFKey != "" {
			if err := s.store.Put(ctx, grn.PDFKey, data, document.ContentTypePDF); err != nil {
				s.logger.Warn("Failed to restore goods received note", zap.String("key", grn.PDFKey), zap.Error(err))
			}
		}
	}

	return Download{FileName: grn.GRNNumber + ".pdf", ContentType: document.ContentTypePDF, Data: data}, nil
}
