package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"vetclinic/internal/model"
	"vetclinic/internal/repository"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const invitationTTL = 7 * 24 * time.Hour

// --- DTOs ---

type CreateInvitationRequest struct {
	Email string `json:"email" binding:"required,email"`
	Role  string `json:"role" binding:"required,oneof=veterinarian staff"`
}

type AcceptInvitationRequest struct {
	InvitationID string `json:"invitation_id" binding:"required"`
	Token        string `json:"token" binding:"required"`
	Username     string `json:"username" binding:"required"`
	Phone        string `json:"phone" binding:"required"`
	Password     string `json:"password" binding:"required,min=6"`
}

type InvitationResponse struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	Role        string `json:"role"`
	Status      string `json:"status"`
	InviterName string `json:"inviter_name,omitempty"`
	ExpiresAt   string `json:"expires_at"`
	CreatedAt   string `json:"created_at"`
	// Token is the raw invitation token, present only in the create response
	Token string `json:"token,omitempty"`
}

// --- Interface ---

type InvitationService interface {
	Create(ctx context.Context, actorID string, req CreateInvitationRequest) (*InvitationResponse, error)
	Accept(ctx context.Context, req AcceptInvitationRequest) (*UserResponse, error)
	Revoke(ctx context.Context, actorID string, id string) error
	List(ctx context.Context, status string, page, limit int) ([]InvitationResponse, int64, error)
}

type invitationService struct {
	invRepo   repository.InvitationRepository
	userRepo  repository.UserRepository
	auditRepo repository.AuditRepository
	txManager repository.TransactionManager
}

func NewInvitationService(
	invRepo repository.InvitationRepository,
	userRepo repository.UserRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) InvitationService {
	return &invitationService{
		invRepo:   invRepo,
		userRepo:  userRepo,
		auditRepo: auditRepo,
		txManager: txManager,
	}
}

func (s *invitationService) Create(ctx context.Context, actorID string, req CreateInvitationRequest) (*InvitationResponse, error) {
	if _, err := s.userRepo.GetByEmail(ctx, req.Email); err == nil {
		return nil, errors.New("a user with this email already exists")
	}

	if existing, err := s.invRepo.FindPendingByEmail(ctx, req.Email); err == nil {
		if time.Now().Before(existing.ExpiresAt) {
			return nil, errors.New("a pending invitation already exists for this email")
		}
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return nil, errors.New("failed to generate invitation token")
	}
	rawToken := hex.EncodeToString(buf)

	hash, err := bcrypt.GenerateFromPassword([]byte(rawToken), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.New("failed to hash invitation token")
	}

	var inviterID *uuid.UUID
	if parsed, parseErr := uuid.Parse(actorID); parseErr == nil {
		inviterID = &parsed
	}

	inv := model.StaffInvitation{
		Email:     req.Email,
		Role:      req.Role,
		TokenHash: string(hash),
		Status:    model.InvitationPending,
		InvitedBy: inviterID,
		ExpiresAt: time.Now().Add(invitationTTL),
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.invRepo.Create(txCtx, &inv); err != nil {
			return fmt.Errorf("failed to create invitation: %w", err)
		}
		return s.writeInvitationAudit(txCtx, actorID, model.ActionCreateInvitation, inv)
	})
	if err != nil {
		return nil, err
	}

	resp := toInvitationResponse(inv)
	resp.Token = rawToken
	return &resp, nil
}

func (s *invitationService) Accept(ctx context.Context, req AcceptInvitationRequest) (*UserResponse, error) {
	invID, err := uuid.Parse(req.InvitationID)
	if err != nil {
		return nil, fmt.Errorf("invalid invitation id: %w", err)
	}

	inv, err := s.invRepo.FindByID(ctx, invID)
	if err != nil {
		return nil, errors.New("invitation not found")
	}

	if inv.Status != model.InvitationPending {
		return nil, errors.New("invitation is no longer valid")
	}
	if time.Now().After(inv.ExpiresAt) {
		return nil, errors.New("invitation has expired")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(inv.TokenHash), []byte(req.Token)); err != nil {
		return nil, errors.New("invalid invitation token")
	}

	if _, err := s.userRepo.GetByUsername(ctx, req.Username); err == nil {
		return nil, errors.New("username already exists")
	}
	if _, err := s.userRepo.GetByEmail(ctx, inv.Email); err == nil {
		return nil, errors.New("a user with this email already exists")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.New("failed to hash password")
	}

	user := model.User{
		Username: req.Username,
		Email:    inv.Email,
		Phone:    req.Phone,
		Password: string(hashedPassword),
		Role:     inv.Role,
		Active:   true,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.userRepo.Create(txCtx, &user); err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}

		now := time.Now()
		inv.Status = model.InvitationAccepted
		inv.AcceptedAt = &now
		if err := s.invRepo.Update(txCtx, inv); err != nil {
			return fmt.Errorf("failed to update invitation: %w", err)
		}

		return s.writeInvitationAudit(txCtx, user.ID.String(), model.ActionAcceptInvitation, *inv)
	})
	if err != nil {
		return nil, err
	}

	return mapToResponse(&user), nil
}

func (s *invitationService) Revoke(ctx context.Context, actorID string, id string) error {
	invID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid invitation id: %w", err)
	}

	inv, err := s.invRepo.FindByID(ctx, invID)
	if err != nil {
		return errors.New("invitation not found")
	}

	if inv.Status != model.InvitationPending {
		return errors.New("only pending invitations can be revoked")
	}

	inv.Status = model.InvitationRevoked

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.invRepo.Update(txCtx, inv); err != nil {
			return fmt.Errorf("failed to revoke invitation: %w", err)
		}
		return s.writeInvitationAudit(txCtx, actorID, model.ActionRevokeInvitation, *inv)
	})
}

func (s *invitationService) List(ctx context.Context, status string, page, limit int) ([]InvitationResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	invs, total, err := s.invRepo.List(ctx, status, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch invitations: %w", err)
	}

	res := make([]InvitationResponse, 0, len(invs))
	for _, inv := range invs {
		res = append(res, toInvitationResponse(inv))
	}
	return res, total, nil
}

// --- Helpers ---

func (s *invitationService) writeInvitationAudit(ctx context.Context, actorID, action string, inv model.StaffInvitation) error {
	var uid *uuid.UUID
	if parsed, err := uuid.Parse(actorID); err == nil {
		uid = &parsed
	}

	raw, _ := json.Marshal(map[string]string{"email": inv.Email, "role": inv.Role})
	entry := &model.AuditLog{
		UserID:     uid,
		Action:     action,
		EntityID:   inv.ID.String(),
		EntityName: inv.Email,
		Details:    string(raw),
	}
	if err := s.auditRepo.Log(ctx, entry); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

func toInvitationResponse(inv model.StaffInvitation) InvitationResponse {
	status := inv.Status
	// EXPIRED is never stored; derive it for display
	if status == model.InvitationPending && time.Now().After(inv.ExpiresAt) {
		status = model.InvitationExpired
	}

	resp := InvitationResponse{
		ID:        inv.ID.String(),
		Email:     inv.Email,
		Role:      inv.Role,
		Status:    status,
		ExpiresAt: inv.ExpiresAt.Format(time.RFC3339),
		CreatedAt: inv.CreatedAt.Format(time.RFC3339),
	}
	if inv.Inviter != nil {
		resp.InviterName = inv.Inviter.Username
	}
	return resp
}
