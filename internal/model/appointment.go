package model

import (
	"time"

	"github.com/google/uuid"
)

// AppointmentStatus constants
const (
	AppointmentScheduled = "SCHEDULED"
	AppointmentCompleted = "COMPLETED"
	AppointmentCancelled = "CANCELLED"
	AppointmentNoShow    = "NO_SHOW"
)

// Appointment is a scheduled visit of a pet with an assigned veterinarian
type Appointment struct {
	ID              uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	PetID           uuid.UUID  `gorm:"type:uuid;not null;index" json:"pet_id"`
	Pet             *Pet       `gorm:"foreignKey:PetID" json:"pet,omitempty"`
	VeterinarianID  uuid.UUID  `gorm:"type:uuid;not null;index" json:"veterinarian_id"`
	Veterinarian    *User      `gorm:"foreignKey:VeterinarianID" json:"veterinarian,omitempty"`
	Status          string     `gorm:"type:varchar(20);not null;default:'SCHEDULED';index" json:"status"`
	StartsAt        time.Time  `gorm:"not null;index" json:"starts_at"`
	DurationMinutes int        `gorm:"type:int;not null;default:30" json:"duration_minutes"`
	Reason          string     `gorm:"type:varchar(255);not null" json:"reason"`
	Notes           string     `gorm:"type:text" json:"notes"`
	CancelledAt     *time.Time `json:"cancelled_at"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}
