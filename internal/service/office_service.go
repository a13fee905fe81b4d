package service

import (
	"context"
	"errors"
	"strings"

	"assetledger/internal/apperror"
	"assetledger/internal/model"
	"assetledger/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DTOs

type CreateOfficeRequest struct {
	Name        string `json:"name" binding:"required"`
	Code        string `json:"code" binding:"required,max=20"`
	Description string `json:"description"`
	ParentID    string `json:"parent_id"`
}

type OfficeResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Code        string  `json:"code"`
	Description string  `json:"description,omitempty"`
	ParentID    *string `json:"parent_id,omitempty"`
	ParentName  string  `json:"parent_name,omitempty"`
}

type OfficeService interface {
	// Create registers an office and its inventory in one transaction. Every
	// office gets an inventory up front so intake and transfers never have to
	// create one lazily.
	Create(ctx context.Context, userID string, req CreateOfficeRequest) (*OfficeResponse, error)
	Get(ctx context.Context, userID string, officeID string) (*OfficeResponse, error)
	List(ctx context.Context, userID string) ([]OfficeResponse, error)
}

type officeService struct {
	identity  IdentityService
	repo      repository.OfficeRepository
	txManager repository.TransactionManager
}

func NewOfficeService(identity IdentityService, repo repository.OfficeRepository, txManager repository.TransactionManager) OfficeService {
	return &officeService{identity: identity, repo: repo, txManager: txManager}
}

func (s *officeService) Create(ctx context.Context, userID string, req CreateOfficeRequest) (*OfficeResponse, error) {
	principal, err := s.identity.Resolve(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !principal.IsAdmin() {
		return nil, apperror.Forbidden("only admins can create offices")
	}

	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if code == "" {
		return nil, apperror.Invalid("office code is required")
	}

	office := &model.Office{
		Name:        req.Name,
		Code:        code,
		Description: req.Description,
	}
	if req.ParentID != "" {
		parentID, err := uuid.Parse(req.ParentID)
		if err != nil {
			return nil, apperror.Invalid("invalid parent office id")
		}
		if _, err := s.repo.FindByID(ctx, parentID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperror.NotFound("parent office not found")
			}
			return nil, err
		}
		office.ParentID = &parentID
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Create(txCtx, office); err != nil {
			return err
		}
		return s.repo.CreateInventory(txCtx, &model.Inventory{OfficeID: office.ID})
	})
	if err != nil {
		return nil, err
	}

	created, err := s.repo.FindByID(ctx, office.ID)
	if err != nil {
		return nil, err
	}
	resp := toOfficeResponse(created)
	return &resp, nil
}

func (s *officeService) Get(ctx context.Context, userID string, officeID string) (*OfficeResponse, error) {
	if _, err := s.identity.Resolve(ctx, userID); err != nil {
		return nil, err
	}
	id, err := uuid.Parse(officeID)
	if err != nil {
		return nil, apperror.Invalid("invalid office id")
	}
	office, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("office not found")
		}
		return nil, err
	}
	resp := toOfficeResponse(office)
	return &resp, nil
}

func (s *officeService) List(ctx context.Context, userID string) ([]OfficeResponse, error) {
	if _, err := s.identity.Resolve(ctx, userID); err != nil {
		return nil, err
	}
	offices, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	res := make([]OfficeResponse, 0, len(offices))
	for i := range offices {
		res = append(res, toOfficeResponse(&offices[i]))
	}
	return res, nil
}

func toOfficeResponse(o *model.Office) OfficeResponse {
	resp := OfficeResponse{
		ID:          o.ID.String(),
		Name:        o.Name,
		Code:        o.Code,
		Description: o.Description,
	}
	if o.ParentID != nil {
		id := o.ParentID.String()
		resp.ParentID = &id
	}
	if o.Parent != nil {
		resp.ParentName = o.Parent.Name
	}
	return resp
}
