package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"vetclinic/internal/model"
	"vetclinic/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type fakeApptRepo struct {
	appts map[uuid.UUID]*model.Appointment
}

func newFakeApptRepo() *fakeApptRepo {
	return &fakeApptRepo{appts: make(map[uuid.UUID]*model.Appointment)}
}

func (r *fakeApptRepo) Create(_ context.Context, appt *model.Appointment) error {
	if appt.ID == uuid.Nil {
		appt.ID = uuid.New()
	}
	stored := *appt
	r.appts[appt.ID] = &stored
	return nil
}

func (r *fakeApptRepo) Update(_ context.Context, appt *model.Appointment) error {
	stored := *appt
	r.appts[appt.ID] = &stored
	return nil
}

func (r *fakeApptRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Appointment, error) {
	appt, ok := r.appts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *appt
	return &cp, nil
}

func (r *fakeApptRepo) FindByIDWithRelations(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	return r.FindByID(ctx, id)
}

func (r *fakeApptRepo) List(_ context.Context, filter repository.AppointmentListFilter) ([]model.Appointment, int64, error) {
	var out []model.Appointment
	for _, appt := range r.appts {
		if filter.Status != "" && appt.Status != filter.Status {
			continue
		}
		out = append(out, *appt)
	}
	return out, int64(len(out)), nil
}

func (r *fakeApptRepo) CountOverlapping(_ context.Context, vetID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) (int64, error) {
	var count int64
	for _, appt := range r.appts {
		if appt.VeterinarianID != vetID || appt.Status != model.AppointmentScheduled {
			continue
		}
		if excludeID != nil && appt.ID == *excludeID {
			continue
		}
		apptEnd := appt.StartsAt.Add(time.Duration(appt.DurationMinutes) * time.Minute)
		if appt.StartsAt.Before(end) && apptEnd.After(start) {
			count++
		}
	}
	return count, nil
}

type stubPetRepo struct {
	pet model.Pet
}

func (r *stubPetRepo) Create(context.Context, *model.Pet) error { return nil }
func (r *stubPetRepo) Update(context.Context, *model.Pet) error { return nil }
func (r *stubPetRepo) Delete(context.Context, uuid.UUID) error  { return nil }
func (r *stubPetRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Pet, error) {
	if id != r.pet.ID {
		return nil, gorm.ErrRecordNotFound
	}
	cp := r.pet
	return &cp, nil
}
func (r *stubPetRepo) FindByIDWithOwner(ctx context.Context, id uuid.UUID) (*model.Pet, error) {
	return r.FindByID(ctx, id)
}
func (r *stubPetRepo) List(context.Context, int, int, string, *uuid.UUID) ([]model.Pet, int64, error) {
	return []model.Pet{r.pet}, 1, nil
}

func newApptFixture(t *testing.T) (AppointmentService, *fakeApptRepo, model.Pet, model.User) {
	t.Helper()

	pet := model.Pet{ID: uuid.New(), OwnerID: uuid.New(), Name: "Rex", Species: "dog"}
	vet := model.User{ID: uuid.New(), Username: "drsmith", Role: "veterinarian", Active: true}

	apptRepo := newFakeApptRepo()
	userRepo := newFakeUserRepo()
	if err := userRepo.Create(context.Background(), &vet); err != nil {
		t.Fatalf("seed vet: %v", err)
	}

	svc := NewAppointmentService(apptRepo, &stubPetRepo{pet: pet}, userRepo, &fakeAuditRepo{}, fakeTxManager{}, nil)
	return svc, apptRepo, pet, vet
}

func TestCreateAppointment(t *testing.T) {
	svc, _, pet, vet := newApptFixture(t)

	appt, err := svc.Create(context.Background(), uuid.NewString(), CreateAppointmentRequest{
		PetID:          pet.ID.String(),
		VeterinarianID: vet.ID.String(),
		StartsAt:       time.Now().Add(48 * time.Hour).Format(time.RFC3339),
		Reason:         "annual checkup",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if appt.Status != model.AppointmentScheduled {
		t.Errorf("status = %s, want SCHEDULED", appt.Status)
	}
	if appt.DurationMinutes != 30 {
		t.Errorf("duration = %d, want default 30", appt.DurationMinutes)
	}
}

func TestCreateAppointmentRejectsNonVeterinarian(t *testing.T) {
	svc, _, pet, _ := newApptFixture(t)

	staff := model.User{ID: uuid.New(), Username: "frontdesk", Role: "staff", Active: true}
	// The user repo only knows the seeded vet, so an unknown assignee fails
	_, err := svc.Create(context.Background(), uuid.NewString(), CreateAppointmentRequest{
		PetID:          pet.ID.String(),
		VeterinarianID: staff.ID.String(),
		StartsAt:       time.Now().Add(48 * time.Hour).Format(time.RFC3339),
		Reason:         "checkup",
	})
	if err == nil {
		t.Fatal("expected error for unknown veterinarian")
	}
}

func TestCreateAppointmentRejectsInactiveVet(t *testing.T) {
	pet := model.Pet{ID: uuid.New(), OwnerID: uuid.New(), Name: "Rex", Species: "dog"}
	inactive := model.User{ID: uuid.New(), Username: "drleft", Role: "veterinarian", Active: false}

	userRepo := newFakeUserRepo()
	if err := userRepo.Create(context.Background(), &inactive); err != nil {
		t.Fatalf("seed vet: %v", err)
	}
	svc := NewAppointmentService(newFakeApptRepo(), &stubPetRepo{pet: pet}, userRepo, &fakeAuditRepo{}, fakeTxManager{}, nil)

	_, err := svc.Create(context.Background(), uuid.NewString(), CreateAppointmentRequest{
		PetID:          pet.ID.String(),
		VeterinarianID: inactive.ID.String(),
		StartsAt:       time.Now().Add(48 * time.Hour).Format(time.RFC3339),
		Reason:         "checkup",
	})
	if err == nil || !strings.Contains(err.Error(), "deactivated") {
		t.Fatalf("err = %v, want deactivated error", err)
	}
}

func TestCreateAppointmentRejectsOverlap(t *testing.T) {
	svc, _, pet, vet := newApptFixture(t)
	start := time.Now().Add(48 * time.Hour)

	if _, err := svc.Create(context.Background(), uuid.NewString(), CreateAppointmentRequest{
		PetID:          pet.ID.String(),
		VeterinarianID: vet.ID.String(),
		StartsAt:       start.Format(time.RFC3339),
		Reason:         "first",
	}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Second booking starts inside the first one's window
	_, err := svc.Create(context.Background(), uuid.NewString(), CreateAppointmentRequest{
		PetID:          pet.ID.String(),
		VeterinarianID: vet.ID.String(),
		StartsAt:       start.Add(15 * time.Minute).Format(time.RFC3339),
		Reason:         "second",
	})
	if err == nil || !strings.Contains(err.Error(), "time window") {
		t.Fatalf("err = %v, want overlap error", err)
	}
}

func TestRescheduleInsideCutoffRejected(t *testing.T) {
	svc, apptRepo, pet, vet := newApptFixture(t)

	// Seed an appointment starting in 30 minutes, inside the cutoff
	appt := &model.Appointment{
		PetID:           pet.ID,
		VeterinarianID:  vet.ID,
		Status:          model.AppointmentScheduled,
		StartsAt:        time.Now().Add(30 * time.Minute),
		DurationMinutes: 30,
		Reason:          "checkup",
	}
	if err := apptRepo.Create(context.Background(), appt); err != nil {
		t.Fatalf("seed: %v", err)
	}

	_, err := svc.Reschedule(context.Background(), uuid.NewString(), appt.ID.String(), RescheduleAppointmentRequest{
		StartsAt: time.Now().Add(72 * time.Hour).Format(time.RFC3339),
	})
	if err == nil || !strings.Contains(err.Error(), "rescheduled less than") {
		t.Fatalf("err = %v, want cutoff error", err)
	}

	if _, err := svc.Cancel(context.Background(), uuid.NewString(), appt.ID.String()); err == nil {
		t.Fatal("expected cutoff error for cancel too")
	}
}

func TestCancelScheduledAppointment(t *testing.T) {
	svc, _, pet, vet := newApptFixture(t)

	appt, err := svc.Create(context.Background(), uuid.NewString(), CreateAppointmentRequest{
		PetID:          pet.ID.String(),
		VeterinarianID: vet.ID.String(),
		StartsAt:       time.Now().Add(48 * time.Hour).Format(time.RFC3339),
		Reason:         "checkup",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	cancelled, err := svc.Cancel(context.Background(), uuid.NewString(), appt.ID)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if cancelled.Status != model.AppointmentCancelled {
		t.Errorf("status = %s, want CANCELLED", cancelled.Status)
	}
	if cancelled.CancelledAt == nil {
		t.Error("cancelled_at not set")
	}

	// Terminal states cannot transition again
	if _, err := svc.Complete(context.Background(), uuid.NewString(), appt.ID, CompleteAppointmentRequest{}); err == nil {
		t.Fatal("expected error completing a cancelled appointment")
	}
}

func TestCreateAppointmentInPastRejected(t *testing.T) {
	svc, _, pet, vet := newApptFixture(t)

	_, err := svc.Create(context.Background(), uuid.NewString(), CreateAppointmentRequest{
		PetID:          pet.ID.String(),
		VeterinarianID: vet.ID.String(),
		StartsAt:       time.Now().Add(-time.Hour).Format(time.RFC3339),
		Reason:         "checkup",
	})
	if err == nil || !strings.Contains(err.Error(), "past") {
		t.Fatalf("err = %v, want past error", err)
	}
}
