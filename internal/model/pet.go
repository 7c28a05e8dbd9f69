package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Owner is a pet-owner client of the clinic. Owners are plain records, not
// login accounts; portal access goes through a User with the owner's email.
type Owner struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	FirstName string         `gorm:"type:varchar(100);not null" json:"first_name"`
	LastName  string         `gorm:"type:varchar(100);not null" json:"last_name"`
	Email     string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Phone     string         `gorm:"type:varchar(20);not null" json:"phone"`
	Address   string         `gorm:"type:text" json:"address"`
	Pets      []Pet          `gorm:"foreignKey:OwnerID" json:"pets,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// PetSex enum constants
const (
	PetSexMale    = "MALE"
	PetSexFemale  = "FEMALE"
	PetSexUnknown = "UNKNOWN"
)

// Pet represents an animal patient belonging to an Owner
type Pet struct {
	ID          uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OwnerID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"owner_id"`
	Owner       *Owner          `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Name        string          `gorm:"type:varchar(100);not null" json:"name"`
	Species     string          `gorm:"type:varchar(50);not null;index" json:"species"` // dog, cat, bird...
	Breed       string          `gorm:"type:varchar(100)" json:"breed"`
	Sex         string          `gorm:"type:varchar(10);default:'UNKNOWN'" json:"sex"`
	DateOfBirth *time.Time      `gorm:"type:date" json:"date_of_birth"`
	WeightKg    decimal.Decimal `gorm:"type:decimal(6,2);default:0" json:"weight_kg"`
	Notes       string          `gorm:"type:text" json:"notes"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	DeletedAt   gorm.DeletedAt  `gorm:"index" json:"-"`
}
