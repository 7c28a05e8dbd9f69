package model

import (
	"time"

	"github.com/google/uuid"
)

// MedicalRecord captures a single visit outcome for a pet. Records are
// append-only from the UI's point of view; corrections add a new record.
type MedicalRecord struct {
	ID             uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	PetID          uuid.UUID  `gorm:"type:uuid;not null;index" json:"pet_id"`
	Pet            *Pet       `gorm:"foreignKey:PetID" json:"pet,omitempty"`
	VeterinarianID uuid.UUID  `gorm:"type:uuid;not null;index" json:"veterinarian_id"`
	Veterinarian   *User      `gorm:"foreignKey:VeterinarianID" json:"veterinarian,omitempty"`
	AppointmentID  *uuid.UUID `gorm:"type:uuid;index" json:"appointment_id"` // Nullable for walk-in visits
	VisitDate      time.Time  `gorm:"type:date;not null;index" json:"visit_date"`
	Diagnosis      string     `gorm:"type:text;not null" json:"diagnosis"`
	Treatment      string     `gorm:"type:text" json:"treatment"`
	Prescription   string     `gorm:"type:text" json:"prescription"`
	FollowUpDate   *time.Time `gorm:"type:date" json:"follow_up_date"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}
