package repository

import (
	"context"

	"vetclinic/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MedicalRecordRepository interface {
	Create(ctx context.Context, record *model.MedicalRecord) error
	Update(ctx context.Context, record *model.MedicalRecord) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.MedicalRecord, error)
	ListByPet(ctx context.Context, petID uuid.UUID, page, limit int) ([]model.MedicalRecord, int64, error)
}

type medicalRecordRepository struct {
	db *gorm.DB
}

func NewMedicalRecordRepository(db *gorm.DB) MedicalRecordRepository {
	return &medicalRecordRepository{db: db}
}

func (r *medicalRecordRepository) Create(ctx context.Context, record *model.MedicalRecord) error {
	return GetDB(ctx, r.db).Create(record).Error
}

func (r *medicalRecordRepository) Update(ctx context.Context, record *model.MedicalRecord) error {
	return GetDB(ctx, r.db).Save(record).Error
}

func (r *medicalRecordRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.MedicalRecord, error) {
	var record model.MedicalRecord
	if err := GetDB(ctx, r.db).Preload("Veterinarian").First(&record, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *medicalRecordRepository) ListByPet(ctx context.Context, petID uuid.UUID, page, limit int) ([]model.MedicalRecord, int64, error) {
	var records []model.MedicalRecord
	var total int64

	db := GetDB(ctx, r.db).Model(&model.MedicalRecord{}).Where("pet_id = ?", petID)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := GetDB(ctx, r.db).Where("pet_id = ?", petID).Preload("Veterinarian").
		Order("visit_date desc").Offset(offset).Limit(limit).Find(&records).Error; err != nil {
		return nil, 0, err
	}

	return records, total, nil
}
