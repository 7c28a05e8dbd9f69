package repository

import (
	"context"

	"vetclinic/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PetRepository interface {
	Create(ctx context.Context, pet *model.Pet) error
	Update(ctx context.Context, pet *model.Pet) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Pet, error)
	FindByIDWithOwner(ctx context.Context, id uuid.UUID) (*model.Pet, error)
	List(ctx context.Context, page, limit int, search string, ownerID *uuid.UUID) ([]model.Pet, int64, error)
}

type petRepository struct {
	db *gorm.DB
}

func NewPetRepository(db *gorm.DB) PetRepository {
	return &petRepository{db: db}
}

func (r *petRepository) Create(ctx context.Context, pet *model.Pet) error {
	return GetDB(ctx, r.db).Create(pet).Error
}

func (r *petRepository) Update(ctx context.Context, pet *model.Pet) error {
	return GetDB(ctx, r.db).Save(pet).Error
}

func (r *petRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Pet{}).Error
}

func (r *petRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Pet, error) {
	var pet model.Pet
	if err := GetDB(ctx, r.db).First(&pet, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &pet, nil
}

func (r *petRepository) FindByIDWithOwner(ctx context.Context, id uuid.UUID) (*model.Pet, error) {
	var pet model.Pet
	if err := GetDB(ctx, r.db).Preload("Owner").First(&pet, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &pet, nil
}

func (r *petRepository) List(ctx context.Context, page, limit int, search string, ownerID *uuid.UUID) ([]model.Pet, int64, error) {
	var pets []model.Pet
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Pet{})
	if search != "" {
		db = db.Where("name ILIKE ? OR species ILIKE ? OR breed ILIKE ?", "%"+search+"%", "%"+search+"%", "%"+search+"%")
	}
	if ownerID != nil {
		db = db.Where("owner_id = ?", *ownerID)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Preload("Owner").Order("name asc").Offset(offset).Limit(limit).Find(&pets).Error; err != nil {
		return nil, 0, err
	}

	return pets, total, nil
}
