package repository

import (
	"context"

	"vetclinic/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type InvitationRepository interface {
	Create(ctx context.Context, inv *model.StaffInvitation) error
	Update(ctx context.Context, inv *model.StaffInvitation) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.StaffInvitation, error)
	FindPendingByEmail(ctx context.Context, email string) (*model.StaffInvitation, error)
	List(ctx context.Context, status string, page, limit int) ([]model.StaffInvitation, int64, error)
}

type invitationRepository struct {
	db *gorm.DB
}

func NewInvitationRepository(db *gorm.DB) InvitationRepository {
	return &invitationRepository{db: db}
}

func (r *invitationRepository) Create(ctx context.Context, inv *model.StaffInvitation) error {
	return GetDB(ctx, r.db).Create(inv).Error
}

func (r *invitationRepository) Update(ctx context.Context, inv *model.StaffInvitation) error {
	return GetDB(ctx, r.db).Save(inv).Error
}

func (r *invitationRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.StaffInvitation, error) {
	var inv model.StaffInvitation
	if err := GetDB(ctx, r.db).First(&inv, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *invitationRepository) FindPendingByEmail(ctx context.Context, email string) (*model.StaffInvitation, error) {
	var inv model.StaffInvitation
	if err := GetDB(ctx, r.db).Where("email = ? AND status = ?", email, model.InvitationPending).
		Order("created_at desc").First(&inv).Error; err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *invitationRepository) List(ctx context.Context, status string, page, limit int) ([]model.StaffInvitation, int64, error) {
	var invs []model.StaffInvitation
	var total int64

	db := GetDB(ctx, r.db).Model(&model.StaffInvitation{})
	if status != "" {
		db = db.Where("status = ?", status)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	fetch := GetDB(ctx, r.db).Preload("Inviter")
	if status != "" {
		fetch = fetch.Where("status = ?", status)
	}
	if err := fetch.Order("created_at desc").Offset(offset).Limit(limit).Find(&invs).Error; err != nil {
		return nil, 0, err
	}

	return invs, total, nil
}
