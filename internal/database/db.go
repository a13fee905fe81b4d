package database

import (
	"errors"

	"assetledger/internal/model"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewConnection initializes a new connection pool using GORM
func NewConnection(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

// Migrate auto-migrates every core model. Tests call this directly against
// their in-memory database.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Role{},
		&model.Office{},
		&model.Inventory{},
		&model.User{},
		&model.RefreshToken{},
		&model.Category{},
		&model.Unit{},
		&model.Item{},
		&model.ItemInstance{},
		&model.Purchase{},
		&model.PurchaseItem{},
		&model.ItemTransaction{},
		&model.ItemRequest{},
		&model.AuditLog{},
	)
}

// SeedBaseData ensures the built-in roles exist. Idempotent.
func SeedBaseData(db *gorm.DB) error {
	for _, name := range []string{model.RoleAdmin, model.RoleUser} {
		var role model.Role
		err := db.Where("name = ?", name).First(&role).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if err := db.Create(&model.Role{Name: name}).Error; err != nil {
				return err
			}
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// SeedBootstrapAdmin creates a headquarters office and an admin account when
// the users table is empty. Without this a fresh deployment has no one able
// to log in.
func SeedBootstrapAdmin(db *gorm.DB, email, password string) error {
	var count int64
	if err := db.Model(&model.User{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	var adminRole model.Role
	if err := db.Where("name = ?", model.RoleAdmin).First(&adminRole).Error; err != nil {
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	return db.Transaction(func(tx *gorm.DB) error {
		office := model.Office{Name: "Headquarters", Code: "HQ"}
		if err := tx.Create(&office).Error; err != nil {
			return err
		}
		if err := tx.Create(&model.Inventory{OfficeID: office.ID}).Error; err != nil {
			return err
		}
		return tx.Create(&model.User{
			Username: "admin",
			Email:    email,
			FullName: "System Administrator",
			Password: string(hashed),
			RoleID:   adminRole.ID,
			OfficeID: office.ID,
		}).Error
	})
}
