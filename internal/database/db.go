package database

import (
	"log"

	"vetclinic/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewConnection initializes a new connection pool using GORM
func NewConnection(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	// Auto-migrate core models
	err = db.AutoMigrate(
		&model.User{},
		&model.RefreshToken{},
		&model.Role{},
		&model.Permission{},
		&model.Owner{},
		&model.Pet{},
		&model.Appointment{},
		&model.MedicalRecord{},
		&model.Invoice{},
		&model.InvoiceItem{},
		&model.Payment{},
		&model.InventoryItem{},
		&model.StockTransaction{},
		&model.StaffInvitation{},
		&model.AuditLog{},
	)
	if err != nil {
		log.Println("WARNING: Failed to auto-migrate models:", err)
	}

	return db, nil
}
