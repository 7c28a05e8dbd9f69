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
)

// --- DTOs ---

type CreateMedicalRecordRequest struct {
	PetID          string `json:"pet_id" binding:"required"`
	VeterinarianID string `json:"veterinarian_id" binding:"required"`
	AppointmentID  string `json:"appointment_id"` // Optional: walk-in visits have none
	VisitDate      string `json:"visit_date" binding:"required"`
	Diagnosis      string `json:"diagnosis" binding:"required"`
	Treatment      string `json:"treatment"`
	Prescription   string `json:"prescription"`
	FollowUpDate   string `json:"follow_up_date"`
}

type UpdateMedicalRecordRequest struct {
	Diagnosis    string `json:"diagnosis"`
	Treatment    string `json:"treatment"`
	Prescription string `json:"prescription"`
	FollowUpDate string `json:"follow_up_date"`
}

type MedicalRecordResponse struct {
	ID               string  `json:"id"`
	PetID            string  `json:"pet_id"`
	VeterinarianID   string  `json:"veterinarian_id"`
	VeterinarianName string  `json:"veterinarian_name,omitempty"`
	AppointmentID    *string `json:"appointment_id"`
	VisitDate        string  `json:"visit_date"`
	Diagnosis        string  `json:"diagnosis"`
	Treatment        string  `json:"treatment"`
	Prescription     string  `json:"prescription"`
	FollowUpDate     *string `json:"follow_up_date"`
}

// --- Interface ---

type MedicalRecordService interface {
	Create(ctx context.Context, actorID string, req CreateMedicalRecordRequest) (*MedicalRecordResponse, error)
	Update(ctx context.Context, actorID string, id string, req UpdateMedicalRecordRequest) (*MedicalRecordResponse, error)
	GetByID(ctx context.Context, id string) (*MedicalRecordResponse, error)
	ListByPet(ctx context.Context, petID string, page, limit int) ([]MedicalRecordResponse, int64, error)
}

type medicalRecordService struct {
	recordRepo repository.MedicalRecordRepository
	petRepo    repository.PetRepository
	userRepo   repository.UserRepository
	apptRepo   repository.AppointmentRepository
	auditRepo  repository.AuditRepository
	txManager  repository.TransactionManager
}

func NewMedicalRecordService(
	recordRepo repository.MedicalRecordRepository,
	petRepo repository.PetRepository,
	userRepo repository.UserRepository,
	apptRepo repository.AppointmentRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) MedicalRecordService {
	return &medicalRecordService{
		recordRepo: recordRepo,
		petRepo:    petRepo,
		userRepo:   userRepo,
		apptRepo:   apptRepo,
		auditRepo:  auditRepo,
		txManager:  txManager,
	}
}

func (s *medicalRecordService) Create(ctx context.Context, actorID string, req CreateMedicalRecordRequest) (*MedicalRecordResponse, error) {
	petID, err := uuid.Parse(req.PetID)
	if err != nil {
		return nil, fmt.Errorf("invalid pet id: %w", err)
	}
	vetID, err := uuid.Parse(req.VeterinarianID)
	if err != nil {
		return nil, fmt.Errorf("invalid veterinarian id: %w", err)
	}

	if _, err := s.petRepo.FindByID(ctx, petID); err != nil {
		return nil, errors.New("pet not found")
	}

	vet, err := s.userRepo.GetByID(ctx, vetID.String())
	if err != nil {
		return nil, errors.New("veterinarian not found")
	}
	if vet.Role != "veterinarian" {
		return nil, errors.New("medical records can only be authored by a veterinarian")
	}

	visitDate, err := time.Parse("2006-01-02", req.VisitDate)
	if err != nil {
		return nil, fmt.Errorf("invalid visit_date: %w", err)
	}

	record := model.MedicalRecord{
		PetID:          petID,
		VeterinarianID: vetID,
		VisitDate:      visitDate,
		Diagnosis:      req.Diagnosis,
		Treatment:      req.Treatment,
		Prescription:   req.Prescription,
	}

	if req.AppointmentID != "" {
		apptID, parseErr := uuid.Parse(req.AppointmentID)
		if parseErr != nil {
			return nil, fmt.Errorf("invalid appointment id: %w", parseErr)
		}
		appt, findErr := s.apptRepo.FindByID(ctx, apptID)
		if findErr != nil {
			return nil, errors.New("appointment not found")
		}
		if appt.PetID != petID {
			return nil, errors.New("appointment belongs to a different pet")
		}
		record.AppointmentID = &apptID
	}

	if req.FollowUpDate != "" {
		followUp, parseErr := time.Parse("2006-01-02", req.FollowUpDate)
		if parseErr != nil {
			return nil, fmt.Errorf("invalid follow_up_date: %w", parseErr)
		}
		if followUp.Before(visitDate) {
			return nil, errors.New("follow_up_date cannot be before visit_date")
		}
		record.FollowUpDate = &followUp
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.recordRepo.Create(txCtx, &record); err != nil {
			return fmt.Errorf("failed to create medical record: %w", err)
		}
		return s.writeRecordAudit(txCtx, actorID, record, req)
	})
	if err != nil {
		return nil, err
	}

	resp := toMedicalRecordResponse(record)
	return &resp, nil
}

func (s *medicalRecordService) Update(ctx context.Context, actorID string, id string, req UpdateMedicalRecordRequest) (*MedicalRecordResponse, error) {
	recordID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid record id: %w", err)
	}

	record, err := s.recordRepo.FindByID(ctx, recordID)
	if err != nil {
		return nil, errors.New("medical record not found")
	}

	if req.Diagnosis != "" {
		record.Diagnosis = req.Diagnosis
	}
	if req.Treatment != "" {
		record.Treatment = req.Treatment
	}
	if req.Prescription != "" {
		record.Prescription = req.Prescription
	}
	if req.FollowUpDate != "" {
		followUp, parseErr := time.Parse("2006-01-02", req.FollowUpDate)
		if parseErr != nil {
			return nil, fmt.Errorf("invalid follow_up_date: %w", parseErr)
		}
		record.FollowUpDate = &followUp
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.recordRepo.Update(txCtx, record); err != nil {
			return fmt.Errorf("failed to update medical record: %w", err)
		}
		return s.writeRecordAudit(txCtx, actorID, *record, req)
	})
	if err != nil {
		return nil, err
	}

	resp := toMedicalRecordResponse(*record)
	return &resp, nil
}

func (s *medicalRecordService) GetByID(ctx context.Context, id string) (*MedicalRecordResponse, error) {
	recordID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid record id: %w", err)
	}

	record, err := s.recordRepo.FindByID(ctx, recordID)
	if err != nil {
		return nil, errors.New("medical record not found")
	}

	resp := toMedicalRecordResponse(*record)
	return &resp, nil
}

func (s *medicalRecordService) ListByPet(ctx context.Context, petID string, page, limit int) ([]MedicalRecordResponse, int64, error) {
	id, err := uuid.Parse(petID)
	if err != nil {
		return nil, 0, fmt.Errorf("invalid pet id: %w", err)
	}
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	records, total, err := s.recordRepo.ListByPet(ctx, id, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch medical records: %w", err)
	}

	res := make([]MedicalRecordResponse, 0, len(records))
	for _, r := range records {
		res = append(res, toMedicalRecordResponse(r))
	}
	return res, total, nil
}

func (s *medicalRecordService) writeRecordAudit(ctx context.Context, actorID string, record model.MedicalRecord, payload interface{}) error {
	var uid *uuid.UUID
	if parsed, err := uuid.Parse(actorID); err == nil {
		uid = &parsed
	}

	raw, _ := json.Marshal(payload)
	entry := &model.AuditLog{
		UserID:     uid,
		Action:     model.ActionCreateMedicalRecord,
		EntityID:   record.ID.String(),
		EntityName: record.Diagnosis,
		Details:    string(raw),
	}
	if err := s.auditRepo.Log(ctx, entry); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

func toMedicalRecordResponse(r model.MedicalRecord) MedicalRecordResponse {
	resp := MedicalRecordResponse{
		ID:             r.ID.String(),
		PetID:          r.PetID.String(),
		VeterinarianID: r.VeterinarianID.String(),
		VisitDate:      r.VisitDate.Format("2006-01-02"),
		Diagnosis:      r.Diagnosis,
		Treatment:      r.Treatment,
		Prescription:   r.Prescription,
	}
	if r.Veterinarian != nil {
		resp.VeterinarianName = r.Veterinarian.Username
	}
	if r.AppointmentID != nil {
		apptID := r.AppointmentID.String()
		resp.AppointmentID = &apptID
	}
	if r.FollowUpDate != nil {
		followUp := r.FollowUpDate.Format("2006-01-02")
		resp.FollowUpDate = &followUp
	}
	return resp
}
