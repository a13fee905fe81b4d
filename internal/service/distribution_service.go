package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"assetledger/internal/apperror"
	"assetledger/internal/model"
	"assetledger/internal/repository"
	ws "assetledger/internal/websocket"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DTOs

type DistributeRequest struct {
	FromOfficeID string `json:"from_office_id" binding:"required"`
	ToOfficeID   string `json:"to_office_id" binding:"required"`
	ItemID       string `json:"item_id" binding:"required"`
	Quantity     int    `json:"quantity" binding:"required,gt=0"`
	Remarks      string `json:"remarks"`
}

type TransactionResponse struct {
	ID              string  `json:"id"`
	ItemInstanceID  string  `json:"item_instance_id"`
	Barcode         string  `json:"barcode,omitempty"`
	ItemName        string  `json:"item_name,omitempty"`
	FromOfficeID    *string `json:"from_office_id,omitempty"`
	FromOffice      string  `json:"from_office,omitempty"`
	FromOfficeCode  string  `json:"from_office_code,omitempty"`
	ToOfficeID      *string `json:"to_office_id,omitempty"`
	ToOffice        string  `json:"to_office,omitempty"`
	ToOfficeCode    string  `json:"to_office_code,omitempty"`
	InitiatedBy     string  `json:"initiated_by,omitempty"`
	TransactionType string  `json:"transaction_type"`
	Status          string  `json:"status"`
	Quantity        int     `json:"quantity"`
	Remarks         string  `json:"remarks,omitempty"`
	ConfirmedBy     string  `json:"confirmed_by,omitempty"`
	ConfirmedDate   *string `json:"confirmed_date,omitempty"`
	TransactionDate string  `json:"transaction_date"`
}

// TransferEvent is the payload broadcast to websocket clients on every
// transfer lifecycle change
type TransferEvent struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

type DistributionService interface {
	// Distribute reserves quantity AVAILABLE instances of an item in the
	// source office and opens one PENDING transaction per instance. All-or-
	// nothing: fewer available than requested reserves none.
	Distribute(ctx context.Context, userID string, req DistributeRequest) ([]TransactionResponse, error)
	Confirm(ctx context.Context, userID string, transactionID string) (*TransactionResponse, error)
	Reject(ctx context.Context, userID string, transactionID string, reason string) (*TransactionResponse, error)
	PendingForOffice(ctx context.Context, userID string, officeID string) ([]TransactionResponse, error)
	HistoryForOffice(ctx context.Context, userID string, officeID string) ([]TransactionResponse, error)
	HistoryForInstance(ctx context.Context, userID string, instanceID string) ([]TransactionResponse, error)
}

type distributionService struct {
	identity        IdentityService
	officeRepo      repository.OfficeRepository
	instanceRepo    repository.InstanceRepository
	transactionRepo repository.TransactionRepository
	auditRepo       repository.AuditRepository
	txManager       repository.TransactionManager
	hub             *ws.Hub
}

func NewDistributionService(
	identity IdentityService,
	officeRepo repository.OfficeRepository,
	instanceRepo repository.InstanceRepository,
	transactionRepo repository.TransactionRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	hub *ws.Hub,
) DistributionService {
	return &distributionService{
		identity:        identity,
		officeRepo:      officeRepo,
		instanceRepo:    instanceRepo,
		transactionRepo: transactionRepo,
		auditRepo:       auditRepo,
		txManager:       txManager,
		hub:             hub,
	}
}

func (s *distributionService) Distribute(ctx context.Context, userID string, req DistributeRequest) ([]TransactionResponse, error) {
	principal, err := s.identity.Resolve(ctx, userID)
	if err != nil {
		return nil, err
	}

	fromID, err := uuid.Parse(req.FromOfficeID)
	if err != nil {
		return nil, apperror.Invalid("invalid source office id")
	}
	toID, err := uuid.Parse(req.ToOfficeID)
	if err != nil {
		return nil, apperror.Invalid("invalid destination office id")
	}
	itemID, err := uuid.Parse(req.ItemID)
	if err != nil {
		return nil, apperror.Invalid("invalid item id")
	}
	if req.Quantity <= 0 {
		return nil, apperror.Invalid("quantity must be greater than 0")
	}

	if err := requireAdminOf(principal, fromID, "distribute items"); err != nil {
		return nil, err
	}

	created, err := s.reserve(ctx, fromID, toID, itemID, req.Quantity, principal.UserID, req.Remarks)
	if err != nil {
		return nil, err
	}

	res := make([]TransactionResponse, 0, len(created))
	for _, id := range created {
		tx, loadErr := s.transactionRepo.FindByID(ctx, id)
		if loadErr != nil {
			return nil, loadErr
		}
		res = append(res, toTransactionResponse(tx))
	}

	s.notify("transfer.pending", map[string]any{
		"from_office_id": fromID.String(),
		"to_office_id":   toID.String(),
		"item_id":        itemID.String(),
		"quantity":       len(res),
	})
	return res, nil
}

// reserve runs the candidate selection and status flip inside one database
// transaction; candidate rows are locked so two concurrent reservations can
// never pick overlapping instances. Used by Distribute and by request
// fulfillment.
func (s *distributionService) reserve(ctx context.Context, fromID, toID, itemID uuid.UUID, quantity int, initiator uuid.UUID, remarks string) ([]uuid.UUID, error) {
	var created []uuid.UUID

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		fromOffice, err := s.officeRepo.FindByID(txCtx, fromID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound("source office not found")
			}
			return err
		}
		toOffice, err := s.officeRepo.FindByID(txCtx, toID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound("destination office not found")
			}
			return err
		}

		// Hierarchy rule: distributions only flow to a direct child office
		if toOffice.ParentID == nil || *toOffice.ParentID != fromID {
			return apperror.Invalid("can only distribute to direct child offices")
		}

		fromInventory, err := s.officeRepo.FindInventoryByOfficeID(txCtx, fromID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.Conflict("source office does not have an inventory")
			}
			return err
		}
		if _, err := s.officeRepo.FindInventoryByOfficeID(txCtx, toID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.Conflict("destination office does not have an inventory")
			}
			return err
		}

		candidates, err := s.instanceRepo.FindAvailableForDistribution(txCtx, fromInventory.ID, itemID, quantity)
		if err != nil {
			return err
		}
		if len(candidates) < quantity {
			return apperror.Insufficient(quantity, len(candidates))
		}

		for i := range candidates {
			instance := &candidates[i]
			instance.Status = model.InstanceInUse
			if err := s.instanceRepo.Update(txCtx, instance); err != nil {
				return err
			}

			fromRef, toRef := fromOffice.ID, toOffice.ID
			row := &model.ItemTransaction{
				ItemInstanceID:  instance.ID,
				FromOfficeID:    &fromRef,
				ToOfficeID:      &toRef,
				UserID:          initiator,
				TransactionType: model.TxTypeDistribution,
				Status:          model.TxPending,
				Quantity:        1,
				Remarks:         remarks,
			}
			if err := s.transactionRepo.Create(txCtx, row); err != nil {
				return err
			}
			created = append(created, row.ID)
		}

		details, _ := json.Marshal(map[string]any{
			"item_id":  itemID.String(),
			"quantity": quantity,
			"to":       toOffice.Code,
		})
		userRef := initiator
		audit := &model.AuditLog{
			UserID:     &userRef,
			Action:     model.ActionCreateDistribution,
			EntityID:   itemID.String(),
			EntityName: fmt.Sprintf("%s -> %s", fromOffice.Code, toOffice.Code),
			Details:    string(details),
		}
		return s.auditRepo.Log(txCtx, audit)
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *distributionService) Confirm(ctx context.Context, userID string, transactionID string) (*TransactionResponse, error) {
	principal, err := s.identity.Resolve(ctx, userID)
	if err != nil {
		return nil, err
	}

	txID, err := uuid.Parse(transactionID)
	if err != nil {
		return nil, apperror.Invalid("invalid transaction id")
	}

	row, err := s.transactionRepo.FindByID(ctx, txID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("transaction not found")
		}
		return nil, err
	}

	if row.ToOfficeID == nil {
		return nil, apperror.InvalidState("transaction has no destination office")
	}
	if err := requireAdminOf(principal, *row.ToOfficeID, "confirm distributions"); err != nil {
		return nil, err
	}
	if row.Status != model.TxPending {
		return nil, apperror.InvalidState("transaction is not pending confirmation")
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		now := timeNow()
		// Conditional flip guards against concurrent double-confirmation
		affected, err := s.transactionRepo.CloseIfPending(txCtx, row.ID, model.TxConfirmed, principal.UserID, now, "")
		if err != nil {
			return err
		}
		if affected == 0 {
			return apperror.InvalidState("transaction is not pending confirmation")
		}

		toInventory, err := s.officeRepo.FindInventoryByOfficeID(txCtx, *row.ToOfficeID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.Conflict("destination office does not have an inventory")
			}
			return err
		}

		instance, err := s.instanceRepo.FindByID(txCtx, row.ItemInstanceID)
		if err != nil {
			return err
		}
		instance.InventoryID = toInventory.ID
		instance.OwnerOfficeID = *row.ToOfficeID
		instance.Status = model.InstanceAvailable
		if err := s.instanceRepo.Update(txCtx, instance); err != nil {
			return err
		}

		userRef := principal.UserID
		audit := &model.AuditLog{
			UserID:     &userRef,
			Action:     model.ActionConfirmDistribution,
			EntityID:   row.ID.String(),
			EntityName: instance.Barcode,
		}
		return s.auditRepo.Log(txCtx, audit)
	})
	if err != nil {
		return nil, err
	}

	updated, err := s.transactionRepo.FindByID(ctx, row.ID)
	if err != nil {
		return nil, err
	}

	s.notify("transfer.confirmed", map[string]any{"transaction_id": row.ID.String()})
	resp := toTransactionResponse(updated)
	return &resp, nil
}

func (s *distributionService) Reject(ctx context.Context, userID string, transactionID string, reason string) (*TransactionResponse, error) {
	principal, err := s.identity.Resolve(ctx, userID)
	if err != nil {
		return nil, err
	}

	txID, err := uuid.Parse(transactionID)
	if err != nil {
		return nil, apperror.Invalid("invalid transaction id")
	}

	row, err := s.transactionRepo.FindByID(ctx, txID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("transaction not found")
		}
		return nil, err
	}

	if row.ToOfficeID == nil {
		return nil, apperror.InvalidState("transaction has no destination office")
	}
	if err := requireAdminOf(principal, *row.ToOfficeID, "reject distributions"); err != nil {
		return nil, err
	}
	if row.Status != model.TxPending {
		return nil, apperror.InvalidState("transaction is not pending confirmation")
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		now := timeNow()
		remarks := fmt.Sprintf("%s | REJECTED: %s", row.Remarks, reason)
		affected, err := s.transactionRepo.CloseIfPending(txCtx, row.ID, model.TxRejected, principal.UserID, now, remarks)
		if err != nil {
			return err
		}
		if affected == 0 {
			return apperror.InvalidState("transaction is not pending confirmation")
		}

		// Custody never moved; the instance just goes back on the shelf
		instance, err := s.instanceRepo.FindByID(txCtx, row.ItemInstanceID)
		if err != nil {
			return err
		}
		instance.Status = model.InstanceAvailable
		if err := s.instanceRepo.Update(txCtx, instance); err != nil {
			return err
		}

		details, _ := json.Marshal(map[string]any{"reason": reason})
		userRef := principal.UserID
		audit := &model.AuditLog{
			UserID:     &userRef,
			Action:     model.ActionRejectDistribution,
			EntityID:   row.ID.String(),
			EntityName: instance.Barcode,
			Details:    string(details),
		}
		return s.auditRepo.Log(txCtx, audit)
	})
	if err != nil {
		return nil, err
	}

	updated, err := s.transactionRepo.FindByID(ctx, row.ID)
	if err != nil {
		return nil, err
	}

	s.notify("transfer.rejected", map[string]any{"transaction_id": row.ID.String(), "reason": reason})
	resp := toTransactionResponse(updated)
	return &resp, nil
}

func (s *distributionService) PendingForOffice(ctx context.Context, userID string, officeID string) ([]TransactionResponse, error) {
	principal, oid, err := s.resolveOfficeArg(ctx, userID, officeID)
	if err != nil {
		return nil, err
	}
	if err := requireSameOfficeOrAdmin(principal, oid, "view pending distributions"); err != nil {
		return nil, err
	}

	rows, err := s.transactionRepo.FindPendingByToOfficeID(ctx, oid)
	if err != nil {
		return nil, err
	}
	return toTransactionResponses(rows), nil
}

func (s *distributionService) HistoryForOffice(ctx context.Context, userID string, officeID string) ([]TransactionResponse, error) {
	principal, oid, err := s.resolveOfficeArg(ctx, userID, officeID)
	if err != nil {
		return nil, err
	}
	if err := requireSameOfficeOrAdmin(principal, oid, "view transaction history"); err != nil {
		return nil, err
	}

	rows, err := s.transactionRepo.FindByOfficeID(ctx, oid)
	if err != nil {
		return nil, err
	}
	return toTransactionResponses(rows), nil
}

func (s *distributionService) HistoryForInstance(ctx context.Context, userID string, instanceID string) ([]TransactionResponse, error) {
	if _, err := s.identity.Resolve(ctx, userID); err != nil {
		return nil, err
	}

	id, err := uuid.Parse(instanceID)
	if err != nil {
		return nil, apperror.Invalid("invalid instance id")
	}

	rows, err := s.transactionRepo.FindByInstanceID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toTransactionResponses(rows), nil
}

func (s *distributionService) resolveOfficeArg(ctx context.Context, userID, officeID string) (*Principal, uuid.UUID, error) {
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

// notify broadcasts without blocking; a slow or absent hub never stalls a
// transfer.
func (s *distributionService) notify(event string, data any) {
	if s.hub == nil {
		return
	}
	payload, err := json.Marshal(TransferEvent{Event: event, Data: data})
	if err != nil {
		return
	}
	select {
	case s.hub.Broadcast <- payload:
	default:
	}
}

func toTransactionResponses(rows []model.ItemTransaction) []TransactionResponse {
	res := make([]TransactionResponse, 0, len(rows))
	for i := range rows {
		res = append(res, toTransactionResponse(&rows[i]))
	}
	return res
}

func toTransactionResponse(t *model.ItemTransaction) TransactionResponse {
	resp := TransactionResponse{
		ID:              t.ID.String(),
		ItemInstanceID:  t.ItemInstanceID.String(),
		TransactionType: t.TransactionType,
		Status:          t.Status,
		Quantity:        t.Quantity,
		Remarks:         t.Remarks,
		TransactionDate: t.TransactionDate.Format("2006-01-02T15:04:05Z07:00"),
	}
	if t.ItemInstance != nil {
		resp.Barcode = t.ItemInstance.Barcode
		if t.ItemInstance.Item != nil {
			resp.ItemName = t.ItemInstance.Item.Name
		}
	}
	if t.FromOfficeID != nil {
		id := t.FromOfficeID.String()
		resp.FromOfficeID = &id
	}
	if t.FromOffice != nil {
		resp.FromOffice = t.FromOffice.Name
		resp.FromOfficeCode = t.FromOffice.Code
	}
	if t.ToOfficeID != nil {
		id := t.ToOfficeID.String()
		resp.ToOfficeID = &id
	}
	if t.ToOffice != nil {
		resp.ToOffice = t.ToOffice.Name
		resp.ToOfficeCode = t.ToOffice.Code
	}
	if t.User != nil {
		resp.InitiatedBy = t.User.FullName
	}
	if t.ConfirmedBy != nil {
		resp.ConfirmedBy = t.ConfirmedBy.FullName
	}
	if t.ConfirmedDate != nil {
		d := t.ConfirmedDate.Format("2006-01-02T15:04:05Z07:00")
		resp.ConfirmedDate = &d
	}
	return resp
}
