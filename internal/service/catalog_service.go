package service

import (
	"context"
	"errors"

	"assetledger/internal/apperror"
	"assetledger/internal/model"
	"assetledger/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DTOs

type CreateCategoryRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type CreateUnitRequest struct {
	Name string `json:"name" binding:"required"`
}

type CreateCatalogItemRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	CategoryID  string `json:"category_id" binding:"required"`
	UnitID      string `json:"unit_id" binding:"required"`
}

type ItemResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"`
	Unit        string `json:"unit,omitempty"`
}

type CatalogService interface {
	CreateCategory(ctx context.Context, userID string, req CreateCategoryRequest) (*model.Category, error)
	CreateUnit(ctx context.Context, userID string, req CreateUnitRequest) (*model.Unit, error)
	CreateItem(ctx context.Context, userID string, req CreateCatalogItemRequest) (*ItemResponse, error)
	GetItem(ctx context.Context, userID string, itemID string) (*ItemResponse, error)
	ListItems(ctx context.Context, userID string, page, limit int) ([]ItemResponse, int64, error)
}

type catalogService struct {
	identity IdentityService
	repo     repository.CatalogRepository
}

func NewCatalogService(identity IdentityService, repo repository.CatalogRepository) CatalogService {
	return &catalogService{identity: identity, repo: repo}
}

func (s *catalogService) requireAdmin(ctx context.Context, userID, action string) error {
	principal, err := s.identity.Resolve(ctx, userID)
	if err != nil {
		return err
	}
	if !principal.IsAdmin() {
		return apperror.Forbidden("only admins can %s", action)
	}
	return nil
}

func (s *catalogService) CreateCategory(ctx context.Context, userID string, req CreateCategoryRequest) (*model.Category, error) {
	if err := s.requireAdmin(ctx, userID, "create categories"); err != nil {
		return nil, err
	}
	category := &model.Category{Name: req.Name, Description: req.Description}
	if err := s.repo.CreateCategory(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

func (s *catalogService) CreateUnit(ctx context.Context, userID string, req CreateUnitRequest) (*model.Unit, error) {
	if err := s.requireAdmin(ctx, userID, "create units"); err != nil {
		return nil, err
	}
	unit := &model.Unit{Name: req.Name}
	if err := s.repo.CreateUnit(ctx, unit); err != nil {
		return nil, err
	}
	return unit, nil
}

func (s *catalogService) CreateItem(ctx context.Context, userID string, req CreateCatalogItemRequest) (*ItemResponse, error) {
	if err := s.requireAdmin(ctx, userID, "create items"); err != nil {
		return nil, err
	}

	categoryID, err := uuid.Parse(req.CategoryID)
	if err != nil {
		return nil, apperror.Invalid("invalid category id")
	}
	unitID, err := uuid.Parse(req.UnitID)
	if err != nil {
		return nil, apperror.Invalid("invalid unit id")
	}

	// Item names are unique in the catalog
	if _, err := s.repo.FindItemByName(ctx, req.Name); err == nil {
		return nil, apperror.Conflict("item %q already exists", req.Name)
	}

	item := &model.Item{
		Name:        req.Name,
		Description: req.Description,
		CategoryID:  categoryID,
		UnitID:      unitID,
	}
	if err := s.repo.CreateItem(ctx, item); err != nil {
		return nil, err
	}

	created, err := s.repo.FindItemByID(ctx, item.ID)
	if err != nil {
		return nil, err
	}
	resp := toItemResponse(created)
	return &resp, nil
}

func (s *catalogService) GetItem(ctx context.Context, userID string, itemID string) (*ItemResponse, error) {
	if _, err := s.identity.Resolve(ctx, userID); err != nil {
		return nil, err
	}
	id, err := uuid.Parse(itemID)
	if err != nil {
		return nil, apperror.Invalid("invalid item id")
	}
	item, err := s.repo.FindItemByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("item not found")
		}
		return nil, err
	}
	resp := toItemResponse(item)
	return &resp, nil
}

func (s *catalogService) ListItems(ctx context.Context, userID string, page, limit int) ([]ItemResponse, int64, error) {
	if _, err := s.identity.Resolve(ctx, userID); err != nil {
		return nil, 0, err
	}
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}
	items, total, err := s.repo.ListItems(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}
	res := make([]ItemResponse, 0, len(items))
	for i := range items {
		res = append(res, toItemResponse(&items[i]))
	}
	return res, total, nil
}

func toItemResponse(item *model.Item) ItemResponse {
	resp := ItemResponse{
		ID:          item.ID.String(),
		Name:        item.Name,
		Description: item.Description,
	}
	if item.Category != nil {
		resp.Category = item.Category.Name
	}
	if item.Unit != nil {
		resp.Unit = item.Unit.Name
	}
	return resp
}
