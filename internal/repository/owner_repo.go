package repository

import (
	"context"

	"vetclinic/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OwnerRepository interface {
	Create(ctx context.Context, owner *model.Owner) error
	Update(ctx context.Context, owner *model.Owner) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Owner, error)
	FindByIDWithPets(ctx context.Context, id uuid.UUID) (*model.Owner, error)
	FindByEmail(ctx context.Context, email string) (*model.Owner, error)
	List(ctx context.Context, page, limit int, search string) ([]model.Owner, int64, error)
}

type ownerRepository struct {
	db *gorm.DB
}

func NewOwnerRepository(db *gorm.DB) OwnerRepository {
	return &ownerRepository{db: db}
}

func (r *ownerRepository) Create(ctx context.Context, owner *model.Owner) error {
	return GetDB(ctx, r.db).Create(owner).Error
}

func (r *ownerRepository) Update(ctx context.Context, owner *model.Owner) error {
	return GetDB(ctx, r.db).Save(owner).Error
}

func (r *ownerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Owner{}).Error
}

func (r *ownerRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Owner, error) {
	var owner model.Owner
	if err := GetDB(ctx, r.db).First(&owner, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &owner, nil
}

func (r *ownerRepository) FindByIDWithPets(ctx context.Context, id uuid.UUID) (*model.Owner, error) {
	var owner model.Owner
	if err := GetDB(ctx, r.db).Preload("Pets").First(&owner, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &owner, nil
}

func (r *ownerRepository) FindByEmail(ctx context.Context, email string) (*model.Owner, error) {
	var owner model.Owner
	if err := GetDB(ctx, r.db).Where("email = ?", email).First(&owner).Error; err != nil {
		return nil, err
	}
	return &owner, nil
}

func (r *ownerRepository) List(ctx context.Context, page, limit int, search string) ([]model.Owner, int64, error) {
	var owners []model.Owner
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Owner{})
	if search != "" {
		db = db.Where("first_name ILIKE ? OR last_name ILIKE ? OR email ILIKE ?", "%"+search+"%", "%"+search+"%", "%"+search+"%")
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("last_name asc, first_name asc").Offset(offset).Limit(limit).Find(&owners).Error; err != nil {
		return nil, 0, err
	}

	return owners, total, nil
}
