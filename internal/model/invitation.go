package model

import (
	"time"

	"github.com/google/uuid"
)

// InvitationStatus constants. EXPIRED is derived from expires_at on read;
// only PENDING, ACCEPTED and REVOKED are stored.
const (
	InvitationPending  = "PENDING"
	InvitationAccepted = "ACCEPTED"
	InvitationRevoked  = "REVOKED"
	InvitationExpired  = "EXPIRED"
)

// StaffInvitation lets an admin invite a new staff member by email. Only a
// bcrypt hash of the invitation token is stored; the raw token is returned
// once at creation time.
type StaffInvitation struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Email      string     `gorm:"type:varchar(255);not null;index" json:"email"`
	Role       string     `gorm:"type:varchar(50);not null" json:"role"`
	TokenHash  string     `gorm:"type:varchar(255);not null" json:"-"`
	Status     string     `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	InvitedBy  *uuid.UUID `gorm:"type:uuid" json:"invited_by"`
	Inviter    *User      `gorm:"foreignKey:InvitedBy" json:"inviter,omitempty"`
	ExpiresAt  time.Time  `gorm:"not null" json:"expires_at"`
	AcceptedAt *time.Time `json:"accepted_at"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}
