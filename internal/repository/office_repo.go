package repository

import (
	"context"

	"assetledger/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OfficeRepository interface {
	Create(ctx context.Context, office *model.Office) error
	CreateInventory(ctx context.Context, inventory *model.Inventory) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Office, error)
	FindInventoryByOfficeID(ctx context.Context, officeID uuid.UUID) (*model.Inventory, error)
	List(ctx context.Context) ([]model.Office, error)
}

type officeRepository struct {
	db *gorm.DB
}

func NewOfficeRepository(db *gorm.DB) OfficeRepository {
	return &officeRepository{db: db}
}

func (r *officeRepository) Create(ctx context.Context, office *model.Office) error {
	return GetDB(ctx, r.db).Create(office).Error
}

func (r *officeRepository) CreateInventory(ctx context.Context, inventory *model.Inventory) error {
	return GetDB(ctx, r.db).Create(inventory).Error
}

func (r *officeRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Office, error) {
	var office model.Office
	if err := GetDB(ctx, r.db).Preload("Parent").Preload("Inventory").First(&office, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &office, nil
}

func (r *officeRepository) FindInventoryByOfficeID(ctx context.Context, officeID uuid.UUID) (*model.Inventory, error) {
	var inventory model.Inventory
	if err := GetDB(ctx, r.db).Where("office_id = ?", officeID).First(&inventory).Error; err != nil {
		return nil, err
	}
	return &inventory, nil
}

func (r *officeRepository) List(ctx context.Context) ([]model.Office, error) {
	var offices []model.Office
	if err := GetDB(ctx, r.db).Preload("Parent").Order("name asc").Find(&offices).Error; err != nil {
		return nil, err
	}
	return offices, nil
}
