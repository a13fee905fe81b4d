package repository

import (
	"context"
	"time"

	"assetledger/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TransactionRepository interface {
	Create(ctx context.Context, tx *model.ItemTransaction) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.ItemTransaction, error)
	FindByInstanceID(ctx context.Context, instanceID uuid.UUID) ([]model.ItemTransaction, error)
	FindByOfficeID(ctx context.Context, officeID uuid.UUID) ([]model.ItemTransaction, error)
	FindPendingByToOfficeID(ctx context.Context, officeID uuid.UUID) ([]model.ItemTransaction, error)
	// CloseIfPending flips a PENDING row to its terminal status. It returns
	// the number of rows affected; zero means the row was already closed (or
	// never existed) and the caller must fail the operation.
	CloseIfPending(ctx context.Context, id uuid.UUID, status string, confirmedBy uuid.UUID, confirmedAt time.Time, remarks string) (int64, error)
}

type transactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) Create(ctx context.Context, tx *model.ItemTransaction) error {
	return GetDB(ctx, r.db).Create(tx).Error
}

func (r *transactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.ItemTransaction, error) {
	var tx model.ItemTransaction
	err := GetDB(ctx, r.db).
		Preload("ItemInstance").Preload("ItemInstance.Item").
		Preload("FromOffice").Preload("ToOffice").
		Preload("User").Preload("ConfirmedBy").
		First(&tx, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

func (r *transactionRepository) FindByInstanceID(ctx context.Context, instanceID uuid.UUID) ([]model.ItemTransaction, error) {
	var txs []model.ItemTransaction
	err := GetDB(ctx, r.db).
		Preload("FromOffice").Preload("ToOffice").
		Preload("User").Preload("ConfirmedBy").
		Where("item_instance_id = ?", instanceID).
		Order("transaction_date asc, id asc").
		Find(&txs).Error
	return txs, err
}

func (r *transactionRepository) FindByOfficeID(ctx context.Context, officeID uuid.UUID) ([]model.ItemTransaction, error) {
	var txs []model.ItemTransaction
	err := GetDB(ctx, r.db).
		Preload("ItemInstance").Preload("ItemInstance.Item").
		Preload("FromOffice").Preload("ToOffice").
		Preload("User").Preload("ConfirmedBy").
		Where("from_office_id = ? OR to_office_id = ?", officeID, officeID).
		Order("transaction_date desc").
		Find(&txs).Error
	return txs, err
}

func (r *transactionRepository) FindPendingByToOfficeID(ctx context.Context, officeID uuid.UUID) ([]model.ItemTransaction, error) {
	var txs []model.ItemTransaction
	err := GetDB(ctx, r.db).
		Preload("ItemInstance").Preload("ItemInstance.Item").
		Preload("FromOffice").Preload("ToOffice").
		Preload("User").
		Where("to_office_id = ? AND status = ?", officeID, model.TxPending).
		Order("transaction_date asc").
		Find(&txs).Error
	return txs, err
}

func (r *transactionRepository) CloseIfPending(ctx context.Context, id uuid.UUID, status string, confirmedBy uuid.UUID, confirmedAt time.Time, remarks string) (int64, error) {
	updates := map[string]any{
		"status":          status,
		"confirmed_by_id": confirmedBy,
		"confirmed_date":  confirmedAt,
	}
	if remarks != "" {
		updates["remarks"] = remarks
	}

	result := GetDB(ctx, r.db).
		Model(&model.ItemTransaction{}).
		Where("id = ? AND status = ?", id, model.TxPending).
		Updates(updates)
	return result.RowsAffected, result.Error
}
