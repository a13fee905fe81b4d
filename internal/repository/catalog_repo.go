package repository

import (
	"context"

	"assetledger/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CatalogRepository covers the item catalog: items plus their categories and
// units of measure.
type CatalogRepository interface {
	CreateCategory(ctx context.Context, category *model.Category) error
	CreateUnit(ctx context.Context, unit *model.Unit) error
	CreateItem(ctx context.Context, item *model.Item) error
	FindItemByID(ctx context.Context, id uuid.UUID) (*model.Item, error)
	FindItemByName(ctx context.Context, name string) (*model.Item, error)
	ListItems(ctx context.Context, page, limit int) ([]model.Item, int64, error)
}

type catalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) CatalogRepository {
	return &catalogRepository{db: db}
}

func (r *catalogRepository) CreateCategory(ctx context.Context, category *model.Category) error {
	return GetDB(ctx, r.db).Create(category).Error
}

func (r *catalogRepository) CreateUnit(ctx context.Context, unit *model.Unit) error {
	return GetDB(ctx, r.db).Create(unit).Error
}

func (r *catalogRepository) CreateItem(ctx context.Context, item *model.Item) error {
	return GetDB(ctx, r.db).Create(item).Error
}

func (r *catalogRepository) FindItemByID(ctx context.Context, id uuid.UUID) (*model.Item, error) {
	var item model.Item
	if err := GetDB(ctx, r.db).Preload("Category").Preload("Unit").First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *catalogRepository) FindItemByName(ctx context.Context, name string) (*model.Item, error) {
	var item model.Item
	if err := GetDB(ctx, r.db).Where("name = ?", name).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *catalogRepository) ListItems(ctx context.Context, page, limit int) ([]model.Item, int64, error) {
	var items []model.Item
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.Item{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Preload("Category").Preload("Unit").Order("name asc").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return nil, 0, err
	}

	return items, total, nil
}
