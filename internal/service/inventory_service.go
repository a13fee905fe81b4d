package service

import (
	"context"
	"encoding/json"
	"errors"

	"assetledger/internal/apperror"
	"assetledger/internal/model"
	"assetledger/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DTOs

type InstanceResponse struct {
	ID             string  `json:"id"`
	Barcode        string  `json:"barcode"`
	ItemID         string  `json:"item_id"`
	ItemName       string  `json:"item_name"`
	Status         string  `json:"status"`
	SerialNumber   string  `json:"serial_number,omitempty"`
	OwnerOfficeID  string  `json:"owner_office_id"`
	OwnerOffice    string  `json:"owner_office,omitempty"`
	PurchaseDate   *string `json:"purchase_date,omitempty"`
	PurchasePrice  *string `json:"purchase_price,omitempty"`
	WarrantyExpiry *string `json:"warranty_expiry,omitempty"`
	Remarks        string  `json:"remarks,omitempty"`
}

type ItemSummary struct {
	ItemID          string         `json:"item_id"`
	ItemName        string         `json:"item_name"`
	Quantity        int            `json:"quantity"`
	StatusBreakdown map[string]int `json:"status_breakdown"`
}

type InventorySummary struct {
	OfficeID               string         `json:"office_id"`
	TotalItems             int            `json:"total_items"`
	Items                  []ItemSummary  `json:"items"`
	OverallStatusBreakdown map[string]int `json:"overall_status_breakdown"`
}

type ChangeInstanceStatusRequest struct {
	Status  string `json:"status" binding:"required,oneof=UNDER_REPAIR DAMAGED LOST DISPOSED AVAILABLE"`
	Remarks string `json:"remarks"`
}

type InventoryService interface {
	ListByOffice(ctx context.Context, userID string, officeID string) ([]InstanceResponse, error)
	SummarizeByOffice(ctx context.Context, userID string, officeID string) (*InventorySummary, error)
	GetInstance(ctx context.Context, userID string, instanceID string) (*InstanceResponse, error)
	ChangeInstanceStatus(ctx context.Context, userID string, instanceID string, req ChangeInstanceStatusRequest) (*InstanceResponse, error)
}

type inventoryService struct {
	identity        IdentityService
	officeRepo      repository.OfficeRepository
	instanceRepo    repository.InstanceRepository
	transactionRepo repository.TransactionRepository
	auditRepo       repository.AuditRepository
	txManager       repository.TransactionManager
}

func NewInventoryService(
	identity IdentityService,
	officeRepo repository.OfficeRepository,
	instanceRepo repository.InstanceRepository,
	transactionRepo repository.TransactionRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) InventoryService {
	return &inventoryService{
		identity:        identity,
		officeRepo:      officeRepo,
		instanceRepo:    instanceRepo,
		transactionRepo: transactionRepo,
		auditRepo:       auditRepo,
		txManager:       txManager,
	}
}

func (s *inventoryService) ListByOffice(ctx context.Context, userID string, officeID string) ([]InstanceResponse, error) {
	principal, oid, err := s.resolveOffice(ctx, userID, officeID)
	if err != nil {
		return nil, err
	}
	if err := requireSameOfficeOrAdmin(principal, oid, "view inventory"); err != nil {
		return nil, err
	}

	instances, err := s.instancesForOffice(ctx, oid)
	if err != nil {
		return nil, err
	}

	res := make([]InstanceResponse, 0, len(instances))
	for i := range instances {
		res = append(res, toInstanceResponse(&instances[i]))
	}
	return res, nil
}

func (s *inventoryService) SummarizeByOffice(ctx context.Context, userID string, officeID string) (*InventorySummary, error) {
	principal, oid, err := s.resolveOffice(ctx, userID, officeID)
	if err != nil {
		return nil, err
	}
	if err := requireSameOfficeOrAdmin(principal, oid, "view inventory"); err != nil {
		return nil, err
	}

	instances, err := s.instancesForOffice(ctx, oid)
	if err != nil {
		return nil, err
	}

	summary := &InventorySummary{
		OfficeID:               oid.String(),
		TotalItems:             len(instances),
		Items:                  []ItemSummary{},
		OverallStatusBreakdown: map[string]int{},
	}

	byItem := map[uuid.UUID]*ItemSummary{}
	var order []uuid.UUID
	for i := range instances {
		inst := &instances[i]
		summary.OverallStatusBreakdown[inst.Status]++

		entry, ok := byItem[inst.ItemID]
		if !ok {
			entry = &ItemSummary{
				ItemID:          inst.ItemID.String(),
				StatusBreakdown: map[string]int{},
			}
			if inst.Item != nil {
				entry.ItemName = inst.Item.Name
			}
			byItem[inst.ItemID] = entry
			order = append(order, inst.ItemID)
		}
		entry.Quantity++
		entry.StatusBreakdown[inst.Status]++
	}

	for _, id := range order {
		summary.Items = append(summary.Items, *byItem[id])
	}
	return summary, nil
}

func (s *inventoryService) GetInstance(ctx context.Context, userID string, instanceID string) (*InstanceResponse, error) {
	principal, err := s.identity.Resolve(ctx, userID)
	if err != nil {
		return nil, err
	}

	id, err := uuid.Parse(instanceID)
	if err != nil {
		return nil, apperror.Invalid("invalid instance id")
	}

	instance, err := s.instanceRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("item instance not found")
		}
		return nil, err
	}

	if err := requireSameOfficeOrAdmin(principal, instance.OwnerOfficeID, "view items"); err != nil {
		return nil, err
	}

	resp := toInstanceResponse(instance)
	return &resp, nil
}

// ChangeInstanceStatus marks an instance UNDER_REPAIR, DAMAGED, LOST, DISPOSED
// or back to AVAILABLE, recording a confirmed ledger row. DISPOSED is
// terminal; instances reserved for a transfer (IN_USE) cannot be touched.
func (s *inventoryService) ChangeInstanceStatus(ctx context.Context, userID string, instanceID string, req ChangeInstanceStatusRequest) (*InstanceResponse, error) {
	principal, err := s.identity.Resolve(ctx, userID)
	if err != nil {
		return nil, err
	}

	id, err := uuid.Parse(instanceID)
	if err != nil {
		return nil, apperror.Invalid("invalid instance id")
	}

	instance, err := s.instanceRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("item instance not found")
		}
		return nil, err
	}

	if err := requireAdminOf(principal, instance.OwnerOfficeID, "change item status"); err != nil {
		return nil, err
	}

	if instance.Status == model.InstanceDisposed {
		return nil, apperror.InvalidState("instance is disposed")
	}
	if instance.Status == model.InstanceInUse {
		return nil, apperror.InvalidState("instance is reserved by a pending transfer")
	}
	if req.Status == instance.Status {
		return nil, apperror.Invalid("instance is already %s", req.Status)
	}

	txType, ok := statusTransactionType(req.Status)
	if !ok {
		return nil, apperror.Invalid("unsupported status: %s", req.Status)
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		previous := instance.Status
		instance.Status = req.Status
		if updErr := s.instanceRepo.Update(txCtx, instance); updErr != nil {
			return updErr
		}

		now := timeNow()
		officeRef := instance.OwnerOfficeID
		userRef := principal.UserID
		row := &model.ItemTransaction{
			ItemInstanceID:  instance.ID,
			FromOfficeID:    &officeRef,
			ToOfficeID:      &officeRef,
			UserID:          principal.UserID,
			TransactionType: txType,
			Status:          model.TxConfirmed,
			Quantity:        1,
			Remarks:         req.Remarks,
			ConfirmedByID:   &userRef,
			ConfirmedDate:   &now,
		}
		if txErr := s.transactionRepo.Create(txCtx, row); txErr != nil {
			return txErr
		}

		details, _ := json.Marshal(map[string]any{
			"barcode": instance.Barcode,
			"from":    previous,
			"to":      req.Status,
		})
		audit := &model.AuditLog{
			UserID:     &userRef,
			Action:     model.ActionChangeInstanceState,
			EntityID:   instance.ID.String(),
			EntityName: instance.Barcode,
			Details:    string(details),
		}
		return s.auditRepo.Log(txCtx, audit)
	})
	if err != nil {
		return nil, err
	}

	resp := toInstanceResponse(instance)
	return &resp, nil
}

func statusTransactionType(status string) (string, bool) {
	switch status {
	case model.InstanceDamaged:
		return model.TxTypeDamaged, true
	case model.InstanceLost:
		return model.TxTypeLost, true
	case model.InstanceDisposed:
		return model.TxTypeDisposed, true
	case model.InstanceUnderRepair, model.InstanceAvailable:
		return model.TxTypeReturn, true
	default:
		return "", false
	}
}

func (s *inventoryService) resolveOffice(ctx context.Context, userID, officeID string) (*Principal, uuid.UUID, error) {
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

func (s *inventoryService) instancesForOffice(ctx context.Context, officeID uuid.UUID) ([]model.ItemInstance, error) {
	inventory, err := s.officeRepo.FindInventoryByOfficeID(ctx, officeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("inventory not found for office")
		}
		return nil, err
	}
	return s.instanceRepo.FindByInventoryID(ctx, inventory.ID)
}

func toInstanceResponse(i *model.ItemInstance) InstanceResponse {
	resp := InstanceResponse{
		ID:            i.ID.String(),
		Barcode:       i.Barcode,
		ItemID:        i.ItemID.String(),
		Status:        i.Status,
		SerialNumber:  i.SerialNumber,
		OwnerOfficeID: i.OwnerOfficeID.String(),
		Remarks:       i.Remarks,
	}
	if i.Item != nil {
		resp.ItemName = i.Item.Name
	}
	if i.OwnerOffice != nil {
		resp.OwnerOffice = i.OwnerOffice.Name
	}
	if i.PurchaseDate != nil {
		d := i.PurchaseDate.Format("2006-01-02T15:04:05Z07:00")
		resp.PurchaseDate = &d
	}
	if i.PurchasePrice != nil {
		p := i.PurchasePrice.StringFixed(2)
		resp.PurchasePrice = &p
	}
	if i.WarrantyExpiry != nil {
		d := i.WarrantyExpiry.Format("2006-01-02T15:04:05Z07:00")
		resp.WarrantyExpiry = &d
	}
	return resp
}
