package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"vetclinic/internal/model"
	"vetclinic/internal/repository"
	ws "vetclinic/internal/websocket"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// rescheduleCutoff is the minimum lead time before the start of an
// appointment in which it can still be rescheduled or cancelled.
const rescheduleCutoff = 2 * time.Hour

// --- DTOs ---

type CreateAppointmentRequest struct {
	PetID           string `json:"pet_id" binding:"required"`
	VeterinarianID  string `json:"veterinarian_id" binding:"required"`
	StartsAt        string `json:"starts_at" binding:"required"` // RFC3339
	DurationMinutes int    `json:"duration_minutes" binding:"omitempty,min=5,max=480"`
	Reason          string `json:"reason" binding:"required"`
	Notes           string `json:"notes"`
}

type RescheduleAppointmentRequest struct {
	StartsAt        string `json:"starts_at" binding:"required"`
	DurationMinutes int    `json:"duration_minutes" binding:"omitempty,min=5,max=480"`
	VeterinarianID  string `json:"veterinarian_id"`
}

type CompleteAppointmentRequest struct {
	Notes string `json:"notes"`
}

type AppointmentResponse struct {
	ID               string  `json:"id"`
	PetID            string  `json:"pet_id"`
	PetName          string  `json:"pet_name,omitempty"`
	VeterinarianID   string  `json:"veterinarian_id"`
	VeterinarianName string  `json:"veterinarian_name,omitempty"`
	Status           string  `json:"status"`
	StartsAt         string  `json:"starts_at"`
	DurationMinutes  int     `json:"duration_minutes"`
	Reason           string  `json:"reason"`
	Notes            string  `json:"notes"`
	CancelledAt      *string `json:"cancelled_at,omitempty"`
}

type AppointmentListQuery struct {
	Status         string
	VeterinarianID string
	PetID          string
	From           string // YYYY-MM-DD
	To             string // YYYY-MM-DD
	Page           int
	Limit          int
}

// --- Interface ---

type AppointmentService interface {
	Create(ctx context.Context, actorID string, req CreateAppointmentRequest) (*AppointmentResponse, error)
	Reschedule(ctx context.Context, actorID string, id string, req RescheduleAppointmentRequest) (*AppointmentResponse, error)
	Cancel(ctx context.Context, actorID string, id string) (*AppointmentResponse, error)
	Complete(ctx context.Context, actorID string, id string, req CompleteAppointmentRequest) (*AppointmentResponse, error)
	MarkNoShow(ctx context.Context, actorID string, id string) (*AppointmentResponse, error)
	GetByID(ctx context.Context, id string) (*AppointmentResponse, error)
	List(ctx context.Context, query AppointmentListQuery) ([]AppointmentResponse, int64, error)
}

type appointmentService struct {
	apptRepo  repository.AppointmentRepository
	petRepo   repository.PetRepository
	userRepo  repository.UserRepository
	auditRepo repository.AuditRepository
	txManager repository.TransactionManager
	hub       *ws.Hub
}

func NewAppointmentService(
	apptRepo repository.AppointmentRepository,
	petRepo repository.PetRepository,
	userRepo repository.UserRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	hub *ws.Hub,
) AppointmentService {
	return &appointmentService{
		apptRepo:  apptRepo,
		petRepo:   petRepo,
		userRepo:  userRepo,
		auditRepo: auditRepo,
		txManager: txManager,
		hub:       hub,
	}
}

func (s *appointmentService) Create(ctx context.Context, actorID string, req CreateAppointmentRequest) (*AppointmentResponse, error) {
	petID, err := uuid.Parse(req.PetID)
	if err != nil {
		return nil, fmt.Errorf("invalid pet id: %w", err)
	}
	vetID, err := uuid.Parse(req.VeterinarianID)
	if err != nil {
		return nil, fmt.Errorf("invalid veterinarian id: %w", err)
	}

	startsAt, err := time.Parse(time.RFC3339, req.StartsAt)
	if err != nil {
		return nil, fmt.Errorf("invalid starts_at, expected RFC3339: %w", err)
	}
	if startsAt.Before(time.Now()) {
		return nil, errors.New("cannot schedule an appointment in the past")
	}

	duration := req.DurationMinutes
	if duration == 0 {
		duration = 30
	}

	if _, err := s.petRepo.FindByID(ctx, petID); err != nil {
		return nil, errors.New("pet not found")
	}
	if err := s.checkVeterinarian(ctx, vetID); err != nil {
		return nil, err
	}

	end := startsAt.Add(time.Duration(duration) * time.Minute)
	overlapping, err := s.apptRepo.CountOverlapping(ctx, vetID, startsAt, end, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to check schedule: %w", err)
	}
	if overlapping > 0 {
		return nil, errors.New("veterinarian already has an appointment in this time window")
	}

	appt := model.Appointment{
		PetID:           petID,
		VeterinarianID:  vetID,
		Status:          model.AppointmentScheduled,
		StartsAt:        startsAt,
		DurationMinutes: duration,
		Reason:          req.Reason,
		Notes:           req.Notes,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.apptRepo.Create(txCtx, &appt); err != nil {
			return fmt.Errorf("failed to create appointment: %w", err)
		}
		return s.writeApptAudit(txCtx, actorID, model.ActionCreateAppointment, appt, req)
	})
	if err != nil {
		return nil, err
	}

	s.broadcast("appointment_created", appt)
	return s.GetByID(ctx, appt.ID.String())
}

func (s *appointmentService) Reschedule(ctx context.Context, actorID string, id string, req RescheduleAppointmentRequest) (*AppointmentResponse, error) {
	apptID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid appointment id: %w", err)
	}

	appt, err := s.apptRepo.FindByID(ctx, apptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("appointment not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if appt.Status != model.AppointmentScheduled {
		return nil, errors.New("only scheduled appointments can be rescheduled")
	}
	if time.Until(appt.StartsAt) < rescheduleCutoff {
		return nil, fmt.Errorf("appointments cannot be rescheduled less than %s before their start time", rescheduleCutoff)
	}

	startsAt, err := time.Parse(time.RFC3339, req.StartsAt)
	if err != nil {
		return nil, fmt.Errorf("invalid starts_at, expected RFC3339: %w", err)
	}
	if startsAt.Before(time.Now()) {
		return nil, errors.New("cannot reschedule an appointment into the past")
	}

	if req.VeterinarianID != "" {
		vetID, parseErr := uuid.Parse(req.VeterinarianID)
		if parseErr != nil {
			return nil, fmt.Errorf("invalid veterinarian id: %w", parseErr)
		}
		if err := s.checkVeterinarian(ctx, vetID); err != nil {
			return nil, err
		}
		appt.VeterinarianID = vetID
	}

	appt.StartsAt = startsAt
	if req.DurationMinutes > 0 {
		appt.DurationMinutes = req.DurationMinutes
	}

	end := appt.StartsAt.Add(time.Duration(appt.DurationMinutes) * time.Minute)
	overlapping, err := s.apptRepo.CountOverlapping(ctx, appt.VeterinarianID, appt.StartsAt, end, &appt.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check schedule: %w", err)
	}
	if overlapping > 0 {
		return nil, errors.New("veterinarian already has an appointment in this time window")
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.apptRepo.Update(txCtx, appt); err != nil {
			return fmt.Errorf("failed to reschedule appointment: %w", err)
		}
		return s.writeApptAudit(txCtx, actorID, model.ActionRescheduleAppt, *appt, req)
	})
	if err != nil {
		return nil, err
	}

	s.broadcast("appointment_rescheduled", *appt)
	return s.GetByID(ctx, appt.ID.String())
}

func (s *appointmentService) Cancel(ctx context.Context, actorID string, id string) (*AppointmentResponse, error) {
	apptID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid appointment id: %w", err)
	}

	appt, err := s.apptRepo.FindByID(ctx, apptID)
	if err != nil {
		return nil, errors.New("appointment not found")
	}

	if appt.Status != model.AppointmentScheduled {
		return nil, errors.New("only scheduled appointments can be cancelled")
	}
	if time.Until(appt.StartsAt) < rescheduleCutoff {
		return nil, fmt.Errorf("appointments cannot be cancelled less than %s before their start time", rescheduleCutoff)
	}

	now := time.Now()
	appt.Status = model.AppointmentCancelled
	appt.CancelledAt = &now

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.apptRepo.Update(txCtx, appt); err != nil {
			return fmt.Errorf("failed to cancel appointment: %w", err)
		}
		return s.writeApptAudit(txCtx, actorID, model.ActionCancelAppointment, *appt, nil)
	})
	if err != nil {
		return nil, err
	}

	s.broadcast("appointment_cancelled", *appt)
	resp := toAppointmentResponse(*appt)
	return &resp, nil
}

func (s *appointmentService) Complete(ctx context.Context, actorID string, id string, req CompleteAppointmentRequest) (*AppointmentResponse, error) {
	return s.transition(ctx, actorID, id, model.AppointmentCompleted, model.ActionCompleteAppointment, req.Notes)
}

func (s *appointmentService) MarkNoShow(ctx context.Context, actorID string, id string) (*AppointmentResponse, error) {
	return s.transition(ctx, actorID, id, model.AppointmentNoShow, model.ActionNoShowAppointment, "")
}

func (s *appointmentService) transition(ctx context.Context, actorID, id, status, action, notes string) (*AppointmentResponse, error) {
	apptID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid appointment id: %w", err)
	}

	appt, err := s.apptRepo.FindByID(ctx, apptID)
	if err != nil {
		return nil, errors.New("appointment not found")
	}

	if appt.Status != model.AppointmentScheduled {
		return nil, fmt.Errorf("cannot mark a %s appointment as %s", appt.Status, status)
	}

	appt.Status = status
	if notes != "" {
		appt.Notes = notes
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.apptRepo.Update(txCtx, appt); err != nil {
			return fmt.Errorf("failed to update appointment: %w", err)
		}
		return s.writeApptAudit(txCtx, actorID, action, *appt, map[string]string{"status": status})
	})
	if err != nil {
		return nil, err
	}

	resp := toAppointmentResponse(*appt)
	return &resp, nil
}

func (s *appointmentService) GetByID(ctx context.Context, id string) (*AppointmentResponse, error) {
	apptID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid appointment id: %w", err)
	}

	appt, err := s.apptRepo.FindByIDWithRelations(ctx, apptID)
	if err != nil {
		return nil, errors.New("appointment not found")
	}

	resp := toAppointmentResponse(*appt)
	return &resp, nil
}

func (s *appointmentService) List(ctx context.Context, query AppointmentListQuery) ([]AppointmentResponse, int64, error) {
	filter := repository.AppointmentListFilter{
		Status: query.Status,
		Page:   query.Page,
		Limit:  query.Limit,
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}

	if query.VeterinarianID != "" {
		vetID, err := uuid.Parse(query.VeterinarianID)
		if err != nil {
			return nil, 0, fmt.Errorf("invalid veterinarian id: %w", err)
		}
		filter.VeterinarianID = &vetID
	}
	if query.PetID != "" {
		petID, err := uuid.Parse(query.PetID)
		if err != nil {
			return nil, 0, fmt.Errorf("invalid pet id: %w", err)
		}
		filter.PetID = &petID
	}
	if query.From != "" {
		from, err := time.Parse("2006-01-02", query.From)
		if err != nil {
			return nil, 0, fmt.Errorf("invalid from date: %w", err)
		}
		filter.From = &from
	}
	if query.To != "" {
		to, err := time.Parse("2006-01-02", query.To)
		if err != nil {
			return nil, 0, fmt.Errorf("invalid to date: %w", err)
		}
		// Include the whole day
		end := to.Add(24*time.Hour - time.Nanosecond)
		filter.To = &end
	}

	appts, total, err := s.apptRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch appointments: %w", err)
	}

	res := make([]AppointmentResponse, 0, len(appts))
	for _, a := range appts {
		res = append(res, toAppointmentResponse(a))
	}
	return res, total, nil
}

// --- Helpers ---

// checkVeterinarian verifies the assignee is an active veterinarian
func (s *appointmentService) checkVeterinarian(ctx context.Context, vetID uuid.UUID) error {
	vet, err := s.userRepo.GetByID(ctx, vetID.String())
	if err != nil {
		return errors.New("veterinarian not found")
	}
	if vet.Role != "veterinarian" {
		return errors.New("assignee is not a veterinarian")
	}
	if !vet.Active {
		return errors.New("veterinarian account is deactivated")
	}
	return nil
}

func (s *appointmentService) writeApptAudit(ctx context.Context, actorID, action string, appt model.Appointment, payload interface{}) error {
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
		EntityID:   appt.ID.String(),
		EntityName: appt.Reason,
		Details:    details,
	}
	if err := s.auditRepo.Log(ctx, entry); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

func (s *appointmentService) broadcast(event string, appt model.Appointment) {
	if s.hub == nil {
		return
	}
	msg, err := json.Marshal(map[string]interface{}{
		"event":          event,
		"appointment_id": appt.ID.String(),
		"status":         appt.Status,
		"starts_at":      appt.StartsAt.Format(time.RFC3339),
	})
	if err != nil {
		return
	}
	select {
	case s.hub.Broadcast <- msg:
	default:
		// No listeners; drop the event
	}
}

func toAppointmentResponse(a model.Appointment) AppointmentResponse {
	resp := AppointmentResponse{
		ID:              a.ID.String(),
		PetID:           a.PetID.String(),
		VeterinarianID:  a.VeterinarianID.String(),
		Status:          a.Status,
		StartsAt:        a.StartsAt.Format(time.RFC3339),
		DurationMinutes: a.DurationMinutes,
		Reason:          a.Reason,
		Notes:           a.Notes,
	}
	if a.Pet != nil {
		resp.PetName = a.Pet.Name
	}
	if a.Veterinarian != nil {
		resp.VeterinarianName = a.Veterinarian.Username
	}
	if a.CancelledAt != nil {
		cancelled := a.CancelledAt.Format(time.RFC3339)
		resp.CancelledAt = &cancelled
	}
	return resp
}
