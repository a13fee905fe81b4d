package repository

import (
	"context"

	"assetledger/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type InstanceRepository interface {
	Create(ctx context.Context, instance *model.ItemInstance) error
	Update(ctx context.Context, instance *model.ItemInstance) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.ItemInstance, error)
	FindByBarcode(ctx context.Context, barcode string) (*model.ItemInstance, error)
	FindByInventoryID(ctx context.Context, inventoryID uuid.UUID) ([]model.ItemInstance, error)
	FindByOwnerOfficeID(ctx context.Context, officeID uuid.UUID) ([]model.ItemInstance, error)
	// FindAvailableForDistribution selects up to limit AVAILABLE instances of
	// one item from one inventory, ordered by id for a deterministic
	// tie-break, locking the rows on engines that support it.
	FindAvailableForDistribution(ctx context.Context, inventoryID, itemID uuid.UUID, limit int) ([]model.ItemInstance, error)
	CountAvailable(ctx context.Context, inventoryID, itemID uuid.UUID) (int64, error)
}

type instanceRepository struct {
	db *gorm.DB
}

func NewInstanceRepository(db *gorm.DB) InstanceRepository {
	return &instanceRepository{db: db}
}

func (r *instanceRepository) Create(ctx context.Context, instance *model.ItemInstance) error {
	return GetDB(ctx, r.db).Create(instance).Error
}

func (r *instanceRepository) Update(ctx context.Context, instance *model.ItemInstance) error {
	// Instances are loaded with associations preloaded. A plain Save would let
	// gorm write the stale association FKs (e.g. OwnerOffice.ID over
	// owner_office_id after a custody change), so associations are omitted.
	return GetDB(ctx, r.db).Omit(clause.Associations).Save(instance).Error
}

func (r *instanceRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.ItemInstance, error) {
	var instance model.ItemInstance
	err := GetDB(ctx, r.db).
		Preload("Item").Preload("Item.Category").Preload("Item.Unit").
		Preload("OwnerOffice").
		First(&instance, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &instance, nil
}

func (r *instanceRepository) FindByBarcode(ctx context.Context, barcode string) (*model.ItemInstance, error) {
	var instance model.ItemInstance
	err := GetDB(ctx, r.db).
		Preload("Item").Preload("Item.Category").Preload("Item.Unit").
		Preload("OwnerOffice").
		Where("barcode = ?", barcode).
		First(&instance).Error
	if err != nil {
		return nil, err
	}
	return &instance, nil
}

func (r *instanceRepository) FindByInventoryID(ctx context.Context, inventoryID uuid.UUID) ([]model.ItemInstance, error) {
	var instances []model.ItemInstance
	err := GetDB(ctx, r.db).
		Preload("Item").Preload("OwnerOffice").
		Where("inventory_id = ?", inventoryID).
		Order("created_at asc").
		Find(&instances).Error
	return instances, err
}

func (r *instanceRepository) FindByOwnerOfficeID(ctx context.Context, officeID uuid.UUID) ([]model.ItemInstance, error) {
	var instances []model.ItemInstance
	err := GetDB(ctx, r.db).
		Preload("Item").
		Where("owner_office_id = ?", officeID).
		Order("created_at asc").
		Find(&instances).Error
	return instances, err
}

func (r *instanceRepository) FindAvailableForDistribution(ctx context.Context, inventoryID, itemID uuid.UUID, limit int) ([]model.ItemInstance, error) {
	db := GetDB(ctx, r.db)
	query := db.
		Where("inventory_id = ? AND item_id = ? AND status = ?", inventoryID, itemID, model.InstanceAvailable).
		Order("id asc").
		Limit(limit)
	// Row locks keep two concurrent reservations from selecting overlapping
	// candidates. SQLite is single-writer and rejects FOR UPDATE.
	if db.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var instances []model.ItemInstance
	if err := query.Find(&instances).Error; err != nil {
		return nil, err
	}
	return instances, nil
}

func (r *instanceRepository) CountAvailable(ctx context.Context, inventoryID, itemID uuid.UUID) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).
		Model(&model.ItemInstance{}).
		Where("inventory_id = ? AND item_id = ? AND status = ?", inventoryID, itemID, model.InstanceAvailable).
		Count(&count).Error
	return count, err
}
