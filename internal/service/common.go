package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Lahiru-360/fixed-asset-registry-final/internal/apperr"
	"github.com/Lahiru-360/fixed-asset-registry-final/internal/lifecycle"
	"github.com/Lahiru-360/fixed-asset-registry-final/internal/metrics"
	"github.com/Lahiru-360/fixed-asset-registry-final/internal/model"
	"github.com/Lahiru-360/fixed-asset-registry-final/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// now is replaced in tests.
var now = time.Now

const timeLayout = "2006-01-02T15:04:05Z07:00"

// Document number prefixes.
const (
	PrefixPurchaseOrder = "PO"
	PrefixGRN           = "GRN"
	PrefixAsset         = "AS"
)

// FormatDocumentNumber renders PREFIX-YYYYMMDD-NNNNNN.
func FormatDocumentNumber(prefix string, t time.Time, n int64) string {
	return fmt.Sprintf("%s-%s-%06d", prefix, t.Format("20060102"), n)
}

// Publisher receives committed lifecycle events.
type Publisher interface {
	PublishStatusChange(event lifecycle.Event)
}

type noopPublisher struct{}

func (noopPublisher) PublishStatusChange(lifecycle.Event) {}

// transitionLog collects the transitions made inside one transaction so they can be
// announced once it commits.
type transitionLog struct {
	events []lifecycle.Event
}

// advance moves req to the given status after validating the edge.
func (l *transitionLog) advance(op string, req *model.AssetRequest, to lifecycle.Status) error {
	if err := lifecycle.Transition(op, req.Status, to); err != nil {
		return err
	}
	l.events = append(l.events, lifecycle.NewEvent(req.ID, req.EmployeeID, req.Status, to))
	req.Status = to
	return nil
}

func (l *transitionLog) announce(publisher Publisher, logger *zap.Logger) {
	for _, e := range l.events {
		metrics.ObserveTransition(e.From.String(), e.To.String())
		logger.Info("Asset request status changed",
			zap.String("request_id", e.RequestID.String()),
			zap.String("from", e.From.String()),
			zap.String("to", e.To.String()))
		publisher.PublishStatusChange(e)
	}
}

func parseID(op, field, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperr.Validation(op, "invalid %s", field)
	}
	return id, nil
}

// lookupErr maps a missing row to NotFound and wraps anything else.
func lookupErr(op, what string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(op, "%s not found", what)
	}
	return fmt.Errorf("%s: failed to load %s: %w", op, what, err)
}

func writeAudit(ctx context.Context, repo repository.AuditRepository, actorID uuid.UUID, action, entityID, entityName string, details interface{}) error {
	payload, _ := json.Marshal(details)

	var uid *uuid.UUID
	if actorID != uuid.Nil {
		uid = &actorID
	}

	entry := model.AuditLog{
		UserID:     uid,
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
		Details:    string(payload),
	}
	if err := repo.Log(ctx, &entry); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(timeLayout)
	return &s
}
