package repository

import (
	"context"

	"assetledger/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RequestRepository interface {
	Create(ctx context.Context, request *model.ItemRequest) error
	Save(ctx context.Context, request *model.ItemRequest) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.ItemRequest, error)
	FindByRequestingOfficeID(ctx context.Context, officeID uuid.UUID) ([]model.ItemRequest, error)
	FindByParentOfficeAndStatus(ctx context.Context, officeID uuid.UUID, status string) ([]model.ItemRequest, error)
}

type requestRepository struct {
	db *gorm.DB
}

func NewRequestRepository(db *gorm.DB) RequestRepository {
	return &requestRepository{db: db}
}

func (r *requestRepository) Create(ctx context.Context, request *model.ItemRequest) error {
	return GetDB(ctx, r.db).Create(request).Error
}

func (r *requestRepository) Save(ctx context.Context, request *model.ItemRequest) error {
	// Requests are loaded with associations preloaded; omit them so Save only
	// writes the request row itself.
	return GetDB(ctx, r.db).Omit(clause.Associations).Save(request).Error
}

func (r *requestRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.ItemRequest, error) {
	var request model.ItemRequest
	err := GetDB(ctx, r.db).
		Preload("Item").
		Preload("RequestingOffice").Preload("ParentOffice").
		Preload("RequestedBy").Preload("ApprovedBy").
		First(&request, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *requestRepository) FindByRequestingOfficeID(ctx context.Context, officeID uuid.UUID) ([]model.ItemRequest, error) {
	var requests []model.ItemRequest
	err := GetDB(ctx, r.db).
		Preload("Item").
		Preload("RequestingOffice").Preload("ParentOffice").
		Preload("RequestedBy").Preload("ApprovedBy").
		Where("requesting_office_id = ?", officeID).
		Order("requested_date desc").
		Find(&requests).Error
	return requests, err
}

func (r *requestRepository) FindByParentOfficeAndStatus(ctx context.Context, officeID uuid.UUID, status string) ([]model.ItemRequest, error) {
	var requests []model.ItemRequest
	err := GetDB(ctx, r.db).
		Preload("Item").
		Preload("RequestingOffice").Preload("ParentOffice").
		Preload("RequestedBy").
		Where("parent_office_id = ? AND status = ?", officeID, status).
		Order("requested_date asc").
		Find(&requests).Error
	return requests, err
}
