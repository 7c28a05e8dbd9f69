package repository

import (
	"context"
	"time"

	"vetclinic/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AppointmentListFilter narrows appointment queries
type AppointmentListFilter struct {
	Status         string
	VeterinarianID *uuid.UUID
	PetID          *uuid.UUID
	From           *time.Time
	To             *time.Time
	Page           int
	Limit          int
}

type AppointmentRepository interface {
	Create(ctx context.Context, appt *model.Appointment) error
	Update(ctx context.Context, appt *model.Appointment) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
	FindByIDWithRelations(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
	List(ctx context.Context, filter AppointmentListFilter) ([]model.Appointment, int64, error)
	CountOverlapping(ctx context.Context, vetID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) (int64, error)
}

type appointmentRepository struct {
	db *gorm.DB
}

func NewAppointmentRepository(db *gorm.DB) AppointmentRepository {
	return &appointmentRepository{db: db}
}

func (r *appointmentRepository) Create(ctx context.Context, appt *model.Appointment) error {
	return GetDB(ctx, r.db).Create(appt).Error
}

func (r *appointmentRepository) Update(ctx context.Context, appt *model.Appointment) error {
	return GetDB(ctx, r.db).Save(appt).Error
}

func (r *appointmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	var appt model.Appointment
	if err := GetDB(ctx, r.db).First(&appt, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &appt, nil
}

func (r *appointmentRepository) FindByIDWithRelations(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	var appt model.Appointment
	if err := GetDB(ctx, r.db).Preload("Pet").Preload("Pet.Owner").Preload("Veterinarian").First(&appt, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &appt, nil
}

func (r *appointmentRepository) List(ctx context.Context, filter AppointmentListFilter) ([]model.Appointment, int64, error) {
	var appts []model.Appointment
	var total int64

	apply := func(db *gorm.DB) *gorm.DB {
		if filter.Status != "" {
			db = db.Where("status = ?", filter.Status)
		}
		if filter.VeterinarianID != nil {
			db = db.Where("veterinarian_id = ?", *filter.VeterinarianID)
		}
		if filter.PetID != nil {
			db = db.Where("pet_id = ?", *filter.PetID)
		}
		if filter.From != nil {
			db = db.Where("starts_at >= ?", *filter.From)
		}
		if filter.To != nil {
			db = db.Where("starts_at <= ?", *filter.To)
		}
		return db
	}

	if err := apply(GetDB(ctx, r.db).Model(&model.Appointment{})).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	if err := apply(GetDB(ctx, r.db).Preload("Pet").Preload("Veterinarian")).
		Order("starts_at asc").Offset(offset).Limit(filter.Limit).Find(&appts).Error; err != nil {
		return nil, 0, err
	}

	return appts, total, nil
}

// CountOverlapping counts SCHEDULED appointments for a veterinarian whose
// time window intersects [start, end).
func (r *appointmentRepository) CountOverlapping(ctx context.Context, vetID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) (int64, error) {
	var count int64
	db := GetDB(ctx, r.db).Model(&model.Appointment{}).
		Where("veterinarian_id = ? AND status = ?", vetID, model.AppointmentScheduled).
		Where("starts_at < ? AND (starts_at + (duration_minutes || ' minutes')::interval) > ?", end, start)
	if excludeID != nil {
		db = db.Where("id <> ?", *excludeID)
	}
	if err := db.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
