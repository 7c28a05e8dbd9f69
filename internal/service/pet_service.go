package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"vetclinic/internal/model"
	"vetclinic/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateOwnerRequest struct {
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	Phone     string `json:"phone" binding:"required"`
	Address   string `json:"address"`
}

type UpdateOwnerRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email" binding:"omitempty,email"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
}

type CreatePetRequest struct {
	OwnerID     string `json:"owner_id" binding:"required"`
	Name        string `json:"name" binding:"required"`
	Species     string `json:"species" binding:"required"`
	Breed       string `json:"breed"`
	Sex         string `json:"sex" binding:"omitempty,oneof=MALE FEMALE UNKNOWN"`
	DateOfBirth string `json:"date_of_birth"` // YYYY-MM-DD
	WeightKg    string `json:"weight_kg"`
	Notes       string `json:"notes"`
}

type UpdatePetRequest struct {
	Name        string `json:"name"`
	Species     string `json:"species"`
	Breed       string `json:"breed"`
	Sex         string `json:"sex" binding:"omitempty,oneof=MALE FEMALE UNKNOWN"`
	DateOfBirth string `json:"date_of_birth"`
	WeightKg    string `json:"weight_kg"`
	Notes       string `json:"notes"`
}

type OwnerResponse struct {
	ID        string        `json:"id"`
	FirstName string        `json:"first_name"`
	LastName  string        `json:"last_name"`
	Email     string        `json:"email"`
	Phone     string        `json:"phone"`
	Address   string        `json:"address"`
	Pets      []PetResponse `json:"pets,omitempty"`
	CreatedAt string        `json:"created_at"`
}

type PetResponse struct {
	ID          string  `json:"id"`
	OwnerID     string  `json:"owner_id"`
	OwnerName   string  `json:"owner_name,omitempty"`
	Name        string  `json:"name"`
	Species     string  `json:"species"`
	Breed       string  `json:"breed"`
	Sex         string  `json:"sex"`
	DateOfBirth *string `json:"date_of_birth"`
	WeightKg    string  `json:"weight_kg"`
	Notes       string  `json:"notes"`
}

// --- Interface ---

type PetService interface {
	CreateOwner(ctx context.Context, actorID string, req CreateOwnerRequest) (*OwnerResponse, error)
	UpdateOwner(ctx context.Context, actorID string, id string, req UpdateOwnerRequest) (*OwnerResponse, error)
	DeleteOwner(ctx context.Context, actorID string, id string) error
	GetOwner(ctx context.Context, id string) (*OwnerResponse, error)
	ListOwners(ctx context.Context, page, limit int, search string) ([]OwnerResponse, int64, error)

	CreatePet(ctx context.Context, actorID string, req CreatePetRequest) (*PetResponse, error)
	UpdatePet(ctx context.Context, actorID string, id string, req UpdatePetRequest) (*PetResponse, error)
	DeletePet(ctx context.Context, actorID string, id string) error
	GetPet(ctx context.Context, id string) (*PetResponse, error)
	ListPets(ctx context.Context, page, limit int, search, ownerID string) ([]PetResponse, int64, error)
}

type petService struct {
	ownerRepo repository.OwnerRepository
	petRepo   repository.PetRepository
	auditRepo repository.AuditRepository
	txManager repository.TransactionManager
}

func NewPetService(
	ownerRepo repository.OwnerRepository,
	petRepo repository.PetRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) PetService {
	return &petService{
		ownerRepo: ownerRepo,
		petRepo:   petRepo,
		auditRepo: auditRepo,
		txManager: txManager,
	}
}

// --- Owners ---

func (s *petService) CreateOwner(ctx context.Context, actorID string, req CreateOwnerRequest) (*OwnerResponse, error) {
	if _, err := s.ownerRepo.FindByEmail(ctx, req.Email); err == nil {
		return nil, errors.New("an owner with this email already exists")
	}

	owner := model.Owner{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Address:   req.Address,
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.ownerRepo.Create(txCtx, &owner); err != nil {
			return fmt.Errorf("failed to create owner: %w", err)
		}
		return s.writeAudit(txCtx, actorID, model.ActionCreateOwner, owner.ID.String(), owner.FirstName+" "+owner.LastName, req)
	})
	if err != nil {
		return nil, err
	}

	resp := toOwnerResponse(owner)
	return &resp, nil
}

func (s *petService) UpdateOwner(ctx context.Context, actorID string, id string, req UpdateOwnerRequest) (*OwnerResponse, error) {
	ownerID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid owner id: %w", err)
	}

	owner, err := s.ownerRepo.FindByID(ctx, ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("owner not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if req.FirstName != "" {
		owner.FirstName = req.FirstName
	}
	if req.LastName != "" {
		owner.LastName = req.LastName
	}
	if req.Email != "" && req.Email != owner.Email {
		if _, err := s.ownerRepo.FindByEmail(ctx, req.Email); err == nil {
			return nil, errors.New("an owner with this email already exists")
		}
		owner.Email = req.Email
	}
	if req.Phone != "" {
		owner.Phone = req.Phone
	}
	if req.Address != "" {
		owner.Address = req.Address
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.ownerRepo.Update(txCtx, owner); err != nil {
			return fmt.Errorf("failed to update owner: %w", err)
		}
		return s.writeAudit(txCtx, actorID, model.ActionUpdateOwner, owner.ID.String(), owner.FirstName+" "+owner.LastName, req)
	})
	if err != nil {
		return nil, err
	}

	resp := toOwnerResponse(*owner)
	return &resp, nil
}

func (s *petService) DeleteOwner(ctx context.Context, actorID string, id string) error {
	ownerID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid owner id: %w", err)
	}

	owner, err := s.ownerRepo.FindByIDWithPets(ctx, ownerID)
	if err != nil {
		return errors.New("owner not found")
	}

	if len(owner.Pets) > 0 {
		return errors.New("cannot delete an owner with registered pets")
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.ownerRepo.Delete(txCtx, ownerID); err != nil {
			return fmt.Errorf("failed to delete owner: %w", err)
		}
		return s.writeAudit(txCtx, actorID, model.ActionDeleteOwner, owner.ID.String(), owner.FirstName+" "+owner.LastName, nil)
	})
}

func (s *petService) GetOwner(ctx context.Context, id string) (*OwnerResponse, error) {
	ownerID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid owner id: %w", err)
	}

	owner, err := s.ownerRepo.FindByIDWithPets(ctx, ownerID)
	if err != nil {
		return nil, errors.New("owner not found")
	}

	resp := toOwnerResponse(*owner)
	return &resp, nil
}

func (s *petService) ListOwners(ctx context.Context, page, limit int, search string) ([]OwnerResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	owners, total, err := s.ownerRepo.List(ctx, page, limit, search)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch owners: %w", err)
	}

	res := make([]OwnerResponse, 0, len(owners))
	for _, o := range owners {
		res = append(res, toOwnerResponse(o))
	}
	return res, total, nil
}

// --- Pets ---

func (s *petService) CreatePet(ctx context.Context, actorID string, req CreatePetRequest) (*PetResponse, error) {
	ownerID, err := uuid.Parse(req.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("invalid owner id: %w", err)
	}

	if _, err := s.ownerRepo.FindByID(ctx, ownerID); err != nil {
		return nil, errors.New("owner not found")
	}

	pet := model.Pet{
		OwnerID: ownerID,
		Name:    req.Name,
		Species: req.Species,
		Breed:   req.Breed,
		Sex:     model.PetSexUnknown,
		Notes:   req.Notes,
	}
	if req.Sex != "" {
		pet.Sex = req.Sex
	}

	if req.DateOfBirth != "" {
		dob, parseErr := time.Parse("2006-01-02", req.DateOfBirth)
		if parseErr != nil {
			return nil, fmt.Errorf("invalid date_of_birth: %w", parseErr)
		}
		pet.DateOfBirth = &dob
	}

	if req.WeightKg != "" {
		weight, parseErr := decimal.NewFromString(req.WeightKg)
		if parseErr != nil || weight.IsNegative() {
			return nil, errors.New("invalid weight_kg")
		}
		pet.WeightKg = weight
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.petRepo.Create(txCtx, &pet); err != nil {
			return fmt.Errorf("failed to create pet: %w", err)
		}
		return s.writeAudit(txCtx, actorID, model.ActionCreatePet, pet.ID.String(), pet.Name, req)
	})
	if err != nil {
		return nil, err
	}

	resp := toPetResponse(pet)
	return &resp, nil
}

func (s *petService) UpdatePet(ctx context.Context, actorID string, id string, req UpdatePetRequest) (*PetResponse, error) {
	petID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid pet id: %w", err)
	}

	pet, err := s.petRepo.FindByID(ctx, petID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("pet not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if req.Name != "" {
		pet.Name = req.Name
	}
	if req.Species != "" {
		pet.Species = req.Species
	}
	if req.Breed != "" {
		pet.Breed = req.Breed
	}
	if req.Sex != "" {
		pet.Sex = req.Sex
	}
	if req.Notes != "" {
		pet.Notes = req.Notes
	}
	if req.DateOfBirth != "" {
		dob, parseErr := time.Parse("2006-01-02", req.DateOfBirth)
		if parseErr != nil {
			return nil, fmt.Errorf("invalid date_of_birth: %w", parseErr)
		}
		pet.DateOfBirth = &dob
	}
	if req.WeightKg != "" {
		weight, parseErr := decimal.NewFromString(req.WeightKg)
		if parseErr != nil || weight.IsNegative() {
			return nil, errors.New("invalid weight_kg")
		}
		pet.WeightKg = weight
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.petRepo.Update(txCtx, pet); err != nil {
			return fmt.Errorf("failed to update pet: %w", err)
		}
		return s.writeAudit(txCtx, actorID, model.ActionUpdatePet, pet.ID.String(), pet.Name, req)
	})
	if err != nil {
		return nil, err
	}

	resp := toPetResponse(*pet)
	return &resp, nil
}

func (s *petService) DeletePet(ctx context.Context, actorID string, id string) error {
	petID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid pet id: %w", err)
	}

	pet, err := s.petRepo.FindByID(ctx, petID)
	if err != nil {
		return errors.New("pet not found")
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.petRepo.Delete(txCtx, petID); err != nil {
			return fmt.Errorf("failed to delete pet: %w", err)
		}
		return s.writeAudit(txCtx, actorID, model.ActionDeletePet, pet.ID.String(), pet.Name, nil)
	})
}

func (s *petService) GetPet(ctx context.Context, id string) (*PetResponse, error) {
	petID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid pet id: %w", err)
	}

	pet, err := s.petRepo.FindByIDWithOwner(ctx, petID)
	if err != nil {
		return nil, errors.New("pet not found")
	}

	resp := toPetResponse(*pet)
	return &resp, nil
}

func (s *petService) ListPets(ctx context.Context, page, limit int, search, ownerID string) ([]PetResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	var ownerFilter *uuid.UUID
	if ownerID != "" {
		parsed, err := uuid.Parse(ownerID)
		if err != nil {
			return nil, 0, fmt.Errorf("invalid owner id: %w", err)
		}
		ownerFilter = &parsed
	}

	pets, total, err := s.petRepo.List(ctx, page, limit, search, ownerFilter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch pets: %w", err)
	}

	res := make([]PetResponse, 0, len(pets))
	for _, p := range pets {
		res = append(res, toPetResponse(p))
	}
	return res, total, nil
}

// --- Helpers ---

func (s *petService) writeAudit(ctx context.Context, actorID, action, entityID, entityName string, payload interface{}) error {
	var uid *uuid.UUID
	if parsed, err := uuid.Parse(actorID); err == nil {
		uid = &parsed
	}

	details := ""
	if payload != nil {
		raw, _ := json.Marshal(payload)
		details = string(raw)
	}

	entry := &model.AuditLog{
		UserID:     uid,
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
		Details:    details,
	}
	if err := s.auditRepo.Log(ctx, entry); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

func toOwnerResponse(o model.Owner) OwnerResponse {
	resp := OwnerResponse{
		ID:        o.ID.String(),
		FirstName: o.FirstName,
		LastName:  o.LastName,
		Email:     o.Email,
		Phone:     o.Phone,
		Address:   o.Address,
		CreatedAt: o.CreatedAt.Format(time.RFC3339),
	}
	for _, p := range o.Pets {
		resp.Pets = append(resp.Pets, toPetResponse(p))
	}
	return resp
}

func toPetResponse(p model.Pet) PetResponse {
	resp := PetResponse{
		ID:       p.ID.String(),
		OwnerID:  p.OwnerID.String(),
		Name:     p.Name,
		Species:  p.Species,
		Breed:    p.Breed,
		Sex:      p.Sex,
		WeightKg: p.WeightKg.StringFixed(2),
		Notes:    p.Notes,
	}
	if p.DateOfBirth != nil {
		dob := p.DateOfBirth.Format("2006-01-02")
		resp.DateOfBirth = &dob
	}
	if p.Owner != nil {
		resp.OwnerName = p.Owner.FirstName + " " + p.Owner.LastName
	}
	return resp
}
