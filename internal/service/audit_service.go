package service

import (
	"context"
	"fmt"
	"time"

	"vetclinic/internal/model"
	"vetclinic/internal/repository"
)

type AuditLogResponse struct {
	ID         string `json:"id"`
	UserID     string `json:"user_id,omitempty"`
	Username   string `json:"username,omitempty"`
	Action     string `json:"action"`
	EntityID   string `json:"entity_id"`
	EntityName string `json:"entity_name,omitempty"`
	Details    string `json:"details,omitempty"`
	CreatedAt  string `json:"created_at"`
}

type AuditService interface {
	List(ctx context.Context, action string, page, limit int) ([]AuditLogResponse, int64, error)
}

type auditService struct {
	repo repository.AuditRepository
}

func NewAuditService(repo repository.AuditRepository) AuditService {
	return &auditService{repo: repo}
}

func (s *auditService) List(ctx context.Context, action string, page, limit int) ([]AuditLogResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 50
	}

	entries, total, err := s.repo.List(ctx, action, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch audit log: %w", err)
	}

	res := make([]AuditLogResponse, 0, len(entries))
	for _, e := range entries {
		res = append(res, toAuditLogResponse(e))
	}
	return res, total, nil
}

func toAuditLogResponse(e model.AuditLog) AuditLogResponse {
	resp := AuditLogResponse{
		ID:         e.ID.String(),
		Action:     e.Action,
		EntityID:   e.EntityID,
		EntityName: e.EntityName,
		Details:    e.Details,
		CreatedAt:  e.CreatedAt.Format(time.RFC3339),
	}
	if e.UserID != nil {
		resp.UserID = e.UserID.String()
	}
	if e.User != nil {
		resp.Username = e.User.Username
	}
	return resp
}
