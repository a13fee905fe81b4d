package repository

import (
	"context"
	"time"

	"assetledger/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PurchaseRepository interface {
	Create(ctx context.Context, purchase *model.Purchase) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Purchase, error)
	FindByOfficeID(ctx context.Context, officeID uuid.UUID, page, limit int) ([]model.Purchase, int64, error)
	FindByPurchaseItemID(ctx context.Context, purchaseItemID uuid.UUID) (*model.Purchase, error)
	// FindByItemAndDate matches a purchase by (item, purchasedDate), the
	// legacy linkage for instances without a purchase_item reference. It does
	// not filter by office since the instance may have moved on.
	FindByItemAndDate(ctx context.Context, itemID uuid.UUID, purchasedDate time.Time) (*model.Purchase, error)
}

type purchaseRepository struct {
	db *gorm.DB
}

func NewPurchaseRepository(db *gorm.DB) PurchaseRepository {
	return &purchaseRepository{db: db}
}

func (r *purchaseRepository) Create(ctx context.Context, purchase *model.Purchase) error {
	return GetDB(ctx, r.db).Create(purchase).Error
}

func (r *purchaseRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Purchase, error) {
	var purchase model.Purchase
	err := GetDB(ctx, r.db).
		Preload("Office").
		Preload("PurchasedBy").
		Preload("Items").Preload("Items.Item").
		First(&purchase, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &purchase, nil
}

func (r *purchaseRepository) FindByOfficeID(ctx context.Context, officeID uuid.UUID, page, limit int) ([]model.Purchase, int64, error) {
	var purchases []model.Purchase
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.Purchase{}).Where("office_id = ?", officeID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	err := db.
		Preload("Office").
		Preload("PurchasedBy").
		Preload("Items").Preload("Items.Item").
		Where("office_id = ?", officeID).
		Order("purchased_date desc").
		Offset(offset).Limit(limit).
		Find(&purchases).Error
	if err != nil {
		return nil, 0, err
	}

	return purchases, total, nil
}

func (r *purchaseRepository) FindByPurchaseItemID(ctx context.Context, purchaseItemID uuid.UUID) (*model.Purchase, error) {
	var line model.PurchaseItem
	if err := GetDB(ctx, r.db).First(&line, "id = ?", purchaseItemID).Error; err != nil {
		return nil, err
	}
	return r.FindByID(ctx, line.PurchaseID)
}

func (r *purchaseRepository) FindByItemAndDate(ctx context.Context, itemID uuid.UUID, purchasedDate time.Time) (*model.Purchase, error) {
	var purchase model.Purchase
	err := GetDB(ctx, r.db).
		Preload("Office").
		Preload("PurchasedBy").
		Preload("Items").Preload("Items.Item").
		Joins("JOIN purchase_items ON purchase_items.purchase_id = purchases.id").
		Where("purchase_items.item_id = ? AND purchases.purchased_date = ?", itemID, purchasedDate).
		First(&purchase).Error
	if err != nil {
		return nil, err
	}
	return &purchase, nil
}
