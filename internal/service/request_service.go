package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"assetledger/internal/apperror"
	"assetledger/internal/model"
	"assetledger/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DTOs

type CreateItemRequest struct {
	ItemID   string `json:"item_id" binding:"required"`
	Quantity int    `json:"quantity" binding:"required,gt=0"`
	Reason   string `json:"reason"`
}

type ApproveItemRequest struct {
	ApprovedQuantity int    `json:"approved_quantity" binding:"required,gt=0"`
	Remarks          string `json:"remarks"`
}

type FulfillItemRequest struct {
	Quantity int    `json:"quantity" binding:"required,gt=0"`
	Remarks  string `json:"remarks"`
}

type ItemRequestResponse struct {
	ID                 string  `json:"id"`
	ItemID             string  `json:"item_id"`
	ItemName           string  `json:"item_name,omitempty"`
	RequestingOfficeID string  `json:"requesting_office_id"`
	RequestingOffice   string  `json:"requesting_office,omitempty"`
	ParentOfficeID     string  `json:"parent_office_id"`
	ParentOffice       string  `json:"parent_office,omitempty"`
	RequestedBy        string  `json:"requested_by,omitempty"`
	ApprovedBy         string  `json:"approved_by,omitempty"`
	RequestedQuantity  int     `json:"requested_quantity"`
	ApprovedQuantity   *int    `json:"approved_quantity,omitempty"`
	FulfilledQuantity  int     `json:"fulfilled_quantity"`
	RemainingQuantity  int     `json:"remaining_quantity"`
	Status             string  `json:"status"`
	Reason             string  `json:"reason,omitempty"`
	Remarks            string  `json:"remarks,omitempty"`
	RequestedDate      string  `json:"requested_date"`
	ApprovedDate       *string `json:"approved_date,omitempty"`
	RejectedDate       *string `json:"rejected_date,omitempty"`
	FulfilledDate      *string `json:"fulfilled_date,omitempty"`
}

type RequestService interface {
	// Create files a request from the caller's office to its parent office.
	Create(ctx context.Context, userID string, req CreateItemRequest) (*ItemRequestResponse, error)
	Approve(ctx context.Context, userID string, requestID string, req ApproveItemRequest) (*ItemRequestResponse, error)
	Reject(ctx context.Context, userID string, requestID string, reason string) (*ItemRequestResponse, error)
	// Fulfill ships part or all of the approved quantity by opening pending
	// distributions from the parent office. The request leaves FULFILLED only
	// when the cumulative shipped quantity reaches the approved quantity.
	Fulfill(ctx context.Context, userID string, requestID string, req FulfillItemRequest) (*ItemRequestResponse, error)
	Get(ctx context.Context, userID string, requestID string) (*ItemRequestResponse, error)
	ForRequestingOffice(ctx context.Context, userID string, officeID string) ([]ItemRequestResponse, error)
	IncomingPending(ctx context.Context, userID string, officeID string) ([]ItemRequestResponse, error)
}

type requestService struct {
	identity     IdentityService
	requestRepo  repository.RequestRepository
	officeRepo   repository.OfficeRepository
	catalogRepo  repository.CatalogRepository
	auditRepo    repository.AuditRepository
	distribution DistributionService
	txManager    repository.TransactionManager
}

func NewRequestService(
	identity IdentityService,
	requestRepo repository.RequestRepository,
	officeRepo repository.OfficeRepository,
	catalogRepo repository.CatalogRepository,
	auditRepo repository.AuditRepository,
	distribution DistributionService,
	txManager repository.TransactionManager,
) RequestService {
	return &requestService{
		identity:     identity,
		requestRepo:  requestRepo,
		officeRepo:   officeRepo,
		catalogRepo:  catalogRepo,
		auditRepo:    auditRepo,
		distribution: distribution,
		txManager:    txManager,
	}
}

func (s *requestService) Create(ctx context.Context, userID string, req CreateItemRequest) (*ItemRequestResponse, error) {
	principal, err := s.identity.Resolve(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := requireAdminOf(principal, principal.OfficeID, "create item requests"); err != nil {
		return nil, err
	}

	itemID, err := uuid.Parse(req.ItemID)
	if err != nil {
		return nil, apperror.Invalid("invalid item id")
	}
	if req.Quantity <= 0 {
		return nil, apperror.Invalid("quantity must be greater than 0")
	}

	office, err := s.officeRepo.FindByID(ctx, principal.OfficeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("office not found")
		}
		return nil, err
	}
	// Top-level offices have nobody to request from
	if office.ParentID == nil {
		return nil, apperror.Invalid("office has no parent office to request from")
	}
	if *office.ParentID == office.ID {
		return nil, apperror.Invalid("office cannot request from itself")
	}

	if _, err := s.catalogRepo.FindItemByID(ctx, itemID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("item not found")
		}
		return nil, err
	}

	request := &model.ItemRequest{
		ItemID:             itemID,
		RequestingOfficeID: office.ID,
		ParentOfficeID:     *office.ParentID,
		RequestedByID:      principal.UserID,
		RequestedQuantity:  req.Quantity,
		Status:             model.RequestPending,
		Reason:             req.Reason,
		RequestedDate:      timeNow(),
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.requestRepo.Create(txCtx, request); err != nil {
			return err
		}
		details, _ := json.Marshal(map[string]any{"item_id": itemID.String(), "quantity": req.Quantity})
		userRef := principal.UserID
		return s.auditRepo.Log(txCtx, &model.AuditLog{
			UserID:     &userRef,
			Action:     model.ActionCreateRequest,
			EntityID:   request.ID.String(),
			EntityName: office.Code,
			Details:    string(details),
		})
	})
	if err != nil {
		return nil, err
	}

	return s.reload(ctx, request.ID)
}

func (s *requestService) Approve(ctx context.Context, userID string, requestID string, req ApproveItemRequest) (*ItemRequestResponse, error) {
	principal, request, err := s.loadForDecision(ctx, userID, requestID, "approve item requests")
	if err != nil {
		return nil, err
	}

	if request.Status != model.RequestPending {
		return nil, apperror.InvalidState("request is not pending")
	}
	if req.ApprovedQuantity <= 0 || req.ApprovedQuantity > request.RequestedQuantity {
		return nil, apperror.Invalid("approved quantity must be between 1 and %d", request.RequestedQuantity)
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		now := timeNow()
		approvedBy := principal.UserID
		qty := req.ApprovedQuantity
		request.Status = model.RequestApproved
		request.ApprovedByID = &approvedBy
		request.ApprovedQuantity = &qty
		request.ApprovedDate = &now
		if req.Remarks != "" {
			request.Remarks = req.Remarks
		}
		if err := s.requestRepo.Save(txCtx, request); err != nil {
			return err
		}
		userRef := principal.UserID
		return s.auditRepo.Log(txCtx, &model.AuditLog{
			UserID:     &userRef,
			Action:     model.ActionApproveRequest,
			EntityID:   request.ID.String(),
			EntityName: fmt.Sprintf("approved %d of %d", qty, request.RequestedQuantity),
		})
	})
	if err != nil {
		return nil, err
	}

	return s.reload(ctx, request.ID)
}

func (s *requestService) Reject(ctx context.Context, userID string, requestID string, reason string) (*ItemRequestResponse, error) {
	principal, request, err := s.loadForDecision(ctx, userID, requestID, "reject item requests")
	if err != nil {
		return nil, err
	}

	if request.Status != model.RequestPending {
		return nil, apperror.InvalidState("request is not pending")
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		now := timeNow()
		approvedBy := principal.UserID
		request.Status = model.RequestRejected
		request.ApprovedByID = &approvedBy
		request.RejectedDate = &now
		request.Remarks = reason
		if err := s.requestRepo.Save(txCtx, request); err != nil {
			return err
		}
		userRef := principal.UserID
		return s.auditRepo.Log(txCtx, &model.AuditLog{
			UserID:     &userRef,
			Action:     model.ActionRejectRequest,
			EntityID:   request.ID.String(),
			EntityName: reason,
		})
	})
	if err != nil {
		return nil, err
	}

	return s.reload(ctx, request.ID)
}

func (s *requestService) Fulfill(ctx context.Context, userID string, requestID string, req FulfillItemRequest) (*ItemRequestResponse, error) {
	principal, request, err := s.loadForDecision(ctx, userID, requestID, "fulfill item requests")
	if err != nil {
		return nil, err
	}

	if request.Status != model.RequestApproved && request.Status != model.RequestPartiallyFulfilled {
		return nil, apperror.InvalidState("request is not approved for fulfillment")
	}
	if request.ApprovedQuantity == nil {
		return nil, apperror.InvalidState("request has no approved quantity")
	}
	remaining := *request.ApprovedQuantity - request.FulfilledQuantity
	if req.Quantity <= 0 || req.Quantity > remaining {
		return nil, apperror.Invalid("fulfillment quantity must be between 1 and %d", remaining)
	}

	remarks := fmt.Sprintf("Fulfilling request #%s (%d of %d): %s",
		request.ID, req.Quantity, *request.ApprovedQuantity, req.Remarks)

	// One transaction end to end: either the reservation, the request update
	// and the audit row all land, or none of them do. A failure after the
	// shipment must not leave reserved instances behind an APPROVED request.
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		// The shipment itself goes through the distribution engine so the
		// instances get reserved and the receiving office still has to confirm.
		if _, err := s.distribution.Distribute(txCtx, userID, DistributeRequest{
			FromOfficeID: request.ParentOfficeID.String(),
			ToOfficeID:   request.RequestingOfficeID.String(),
			ItemID:       request.ItemID.String(),
			Quantity:     req.Quantity,
			Remarks:      remarks,
		}); err != nil {
			return err
		}

		request.FulfilledQuantity += req.Quantity
		if request.FulfilledQuantity >= *request.ApprovedQuantity {
			now := timeNow()
			request.Status = model.RequestFulfilled
			request.FulfilledDate = &now
		} else {
			request.Status = model.RequestPartiallyFulfilled
		}
		if err := s.requestRepo.Save(txCtx, request); err != nil {
			return err
		}
		details, _ := json.Marshal(map[string]any{
			"quantity":  req.Quantity,
			"fulfilled": request.FulfilledQuantity,
			"approved":  *request.ApprovedQuantity,
		})
		userRef := principal.UserID
		return s.auditRepo.Log(txCtx, &model.AuditLog{
			UserID:     &userRef,
			Action:     model.ActionFulfillRequest,
			EntityID:   request.ID.String(),
			EntityName: request.Status,
			Details:    string(details),
		})
	})
	if err != nil {
		return nil, err
	}

	return s.reload(ctx, request.ID)
}

func (s *requestService) Get(ctx context.Context, userID string, requestID string) (*ItemRequestResponse, error) {
	principal, err := s.identity.Resolve(ctx, userID)
	if err != nil {
		return nil, err
	}
	id, err := uuid.Parse(requestID)
	if err != nil {
		return nil, apperror.Invalid("invalid request id")
	}
	request, err := s.requestRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("request not found")
		}
		return nil, err
	}
	if !principal.IsAdmin() && principal.OfficeID != request.RequestingOfficeID && principal.OfficeID != request.ParentOfficeID {
		return nil, apperror.Forbidden("not allowed to view this request")
	}
	resp := toRequestResponse(request)
	return &resp, nil
}

func (s *requestService) ForRequestingOffice(ctx context.Context, userID string, officeID string) ([]ItemRequestResponse, error) {
	principal, oid, err := s.resolveOfficeArg(ctx, userID, officeID)
	if err != nil {
		return nil, err
	}
	if err := requireSameOfficeOrAdmin(principal, oid, "view office requests"); err != nil {
		return nil, err
	}
	rows, err := s.requestRepo.FindByRequestingOfficeID(ctx, oid)
	if err != nil {
		return nil, err
	}
	return toRequestResponses(rows), nil
}

func (s *requestService) IncomingPending(ctx context.Context, userID string, officeID string) ([]ItemRequestResponse, error) {
	principal, oid, err := s.resolveOfficeArg(ctx, userID, officeID)
	if err != nil {
		return nil, err
	}
	if err := requireAdminOf(principal, oid, "view incoming requests"); err != nil {
		return nil, err
	}
	rows, err := s.requestRepo.FindByParentOfficeAndStatus(ctx, oid, model.RequestPending)
	if err != nil {
		return nil, err
	}
	return toRequestResponses(rows), nil
}

// loadForDecision resolves the caller, loads the request, and checks the
// caller administers the parent office that the request is addressed to.
func (s *requestService) loadForDecision(ctx context.Context, userID, requestID, action string) (*Principal, *model.ItemRequest, error) {
	principal, err := s.identity.Resolve(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	id, err := uuid.Parse(requestID)
	if err != nil {
		return nil, nil, apperror.Invalid("invalid request id")
	}
	request, err := s.requestRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperror.NotFound("request not found")
		}
		return nil, nil, err
	}
	if err := requireAdminOf(principal, request.ParentOfficeID, action); err != nil {
		return nil, nil, err
	}
	return principal, request, nil
}

func (s *requestService) resolveOfficeArg(ctx context.Context, userID, officeID string) (*Principal, uuid.UUID, error) {
	principal, err := s.identity.Resolve(ctx, userID)
	if err != nil {
		return nil, uuid.Nil, err
	}
	if officeID == "" {
		return principal, principal.OfficeID, nil
	}
	oid, err := uuid.Parse(officeID)
	if err != nil {
		return nil, uuid.Nil, apperror.Invalid("invalid office id")
	}
	return principal, oid, nil
}

func (s *requestService) reload(ctx context.Context, id uuid.UUID) (*ItemRequestResponse, error) {
	request, err := s.requestRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toRequestResponse(request)
	return &resp, nil
}

func toRequestResponses(rows []model.ItemRequest) []ItemRequestResponse {
	res := make([]ItemRequestResponse, 0, len(rows))
	for i := range rows {
		res = append(res, toRequestResponse(&rows[i]))
	}
	return res
}

func toRequestResponse(r *model.ItemRequest) ItemRequestResponse {
	resp := ItemRequestResponse{
		ID:                 r.ID.String(),
		ItemID:             r.ItemID.String(),
		RequestingOfficeID: r.RequestingOfficeID.String(),
		ParentOfficeID:     r.ParentOfficeID.String(),
		RequestedQuantity:  r.RequestedQuantity,
		ApprovedQuantity:   r.ApprovedQuantity,
		FulfilledQuantity:  r.FulfilledQuantity,
		Status:             r.Status,
		Reason:             r.Reason,
		Remarks:            r.Remarks,
		RequestedDate:      r.RequestedDate.Format("2006-01-02T15:04:05Z07:00"),
	}
	if r.ApprovedQuantity != nil {
		resp.RemainingQuantity = *r.ApprovedQuantity - r.FulfilledQuantity
	}
	if r.Item != nil {
		resp.ItemName = r.Item.Name
	}
	if r.RequestingOffice != nil {
		resp.RequestingOffice = r.RequestingOffice.Name
	}
	if r.ParentOffice != nil {
		resp.ParentOffice = r.ParentOffice.Name
	}
	if r.RequestedBy != nil {
		resp.RequestedBy = r.RequestedBy.FullName
	}
	if r.ApprovedBy != nil {
		resp.ApprovedBy = r.ApprovedBy.FullName
	}
	if r.ApprovedDate != nil {
		d := r.ApprovedDate.Format("2006-01-02T15:04:05Z07:00")
		resp.ApprovedDate = &d
	}
	if r.RejectedDate != nil {
		d := r.RejectedDate.Format("2006-01-02T15:04:05Z07:00")
		resp.RejectedDate = &d
	}
	if r.FulfilledDate != nil {
		d := r.FulfilledDate.Format("2006-01-02T15:04:05Z07:00")
		resp.FulfilledDate = &d
	}
	return resp
}
