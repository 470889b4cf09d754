package service

import (
	"context"
	"fmt"

	"github.com/Lahiru-360/fixed-asset-registry-final/internal/repository"
	"github.com/Lahiru-360/fixed-asset-registry-final/pkg/pagination"
)

type AuditLogResponse struct {
	ID         string `json:"id"`
	UserID     string `json:"user_id"`
	UserName   string `json:"user_name"`
	Action     string `json:"action"`
	EntityID   string `json:"entity_id"`
	EntityName string `json:"entity_name"`
	Details    string `json:"details"`
	CreatedAt  string `json:"created_at"`
}

type AuditLogPage struct {
	Logs       []AuditLogResponse `json:"logs"`
	Pagination pagination.Meta    `json:"pagination"`
}

type AuditService interface {
	GetAuditLogs(ctx context.Context, entityID string, page, limit int) (AuditLogPage, error)
}

type auditService struct {
	repo repository.AuditRepository
}

// NewAuditService creates a new AuditService instance
func NewAuditService(repo repository.AuditRepository) AuditService {
	return &auditService{repo: repo}
}

// GetAuditLogs returns newest entries first, optionally for one entity.
func (s *auditService) GetAuditLogs(ctx context.Context, entityID string, page, limit int) (AuditLogPage, error) {
	p := pagination.New(page, limit)
	logs, total, err := s.repo.List(ctx, entityID, p.Page, p.Limit)
	if err != nil {
		return AuditLogPage{}, fmt.Errorf("failed to fetch audit logs: %w", err)
	}

	res := make([]AuditLogResponse, 0, len(logs))
	for _, l := range logs {
		userName := "System"
		userID := ""
		if l.User != nil {
			userName = l.User.FullName()
		}
		if l.UserID != nil {
			userID = l.UserID.String()
		}

		res = append(res, AuditLogResponse{
			ID:         l.ID.String(),
			UserID:     userID,
			UserName:   userName,
			Action:     l.Action,
			EntityID:   l.EntityID,
			EntityName: l.EntityName,
			Details:    l.Details,
			CreatedAt:  l.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}

	return AuditLogPage{Logs: res, Pagination: pagination.NewMeta(p, total)}, nil
}
