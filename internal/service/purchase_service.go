package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"assetledger/internal/apperror"
	"assetledger/internal/model"
	"assetledger/internal/repository"
	"assetledger/pkg/barcode"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DTOs

type PurchaseLineRequest struct {
	ItemID    string          `json:"item_id" binding:"required"`
	Quantity  int             `json:"quantity" binding:"required"`
	UnitPrice decimal.Decimal `json:"unit_price" binding:"required"`
}

type CreatePurchaseRequest struct {
	Supplier      string                `json:"supplier"`
	InvoiceNumber string                `json:"invoice_number"`
	Remarks       string                `json:"remarks"`
	ReceiptURL    string                `json:"receipt_url"`
	Items         []PurchaseLineRequest `json:"items" binding:"required,min=1,dive"`
}

type PurchaseLineResponse struct {
	ID        string          `json:"id"`
	ItemID    string          `json:"item_id"`
	ItemName  string          `json:"item_name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type PurchaseResponse struct {
	ID            string                 `json:"id"`
	OfficeID      string                 `json:"office_id"`
	OfficeName    string                 `json:"office_name"`
	PurchasedBy   string                 `json:"purchased_by"`
	Supplier      string                 `json:"supplier"`
	InvoiceNumber string                 `json:"invoice_number"`
	Remarks       string                 `json:"remarks"`
	ReceiptURL    string                 `json:"receipt_url"`
	PurchasedDate time.Time              `json:"purchased_date"`
	TotalAmount   decimal.Decimal        `json:"total_amount"`
	TotalItems    int                    `json:"total_items"`
	Items         []PurchaseLineResponse `json:"items"`
	Barcodes      []string               `json:"barcodes,omitempty"`
}

type PurchaseService interface {
	CreatePurchase(ctx context.Context, userID string, req CreatePurchaseRequest) (*PurchaseResponse, error)
	GetPurchase(ctx context.Context, userID string, id string) (*PurchaseResponse, error)
	ListPurchasesByOffice(ctx context.Context, userID string, officeID string, page, limit int) ([]PurchaseResponse, int64, error)
}

type purchaseService struct {
	identity     IdentityService
	purchaseRepo repository.PurchaseRepository
	catalogRepo  repository.CatalogRepository
	officeRepo   repository.OfficeRepository
	instanceRepo repository.InstanceRepository
	auditRepo    repository.AuditRepository
	txManager    repository.TransactionManager
	barcodes     *barcode.Generator
}

func NewPurchaseService(
	identity IdentityService,
	purchaseRepo repository.PurchaseRepository,
	catalogRepo repository.CatalogRepository,
	officeRepo repository.OfficeRepository,
	instanceRepo repository.InstanceRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	barcodes *barcode.Generator,
) PurchaseService {
	return &purchaseService{
		identity:     identity,
		purchaseRepo: purchaseRepo,
		catalogRepo:  catalogRepo,
		officeRepo:   officeRepo,
		instanceRepo: instanceRepo,
		auditRepo:    auditRepo,
		txManager:    txManager,
		barcodes:     barcodes,
	}
}

// CreatePurchase records a receipt for the caller's office and materializes
// one AVAILABLE instance per physical unit, each with a fresh barcode.
// All-or-nothing: any failure rolls the whole intake back.
func (s *purchaseService) CreatePurchase(ctx context.Context, userID string, req CreatePurchaseRequest) (*PurchaseResponse, error) {
	principal, err := s.identity.Resolve(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !principal.IsAdmin() {
		return nil, apperror.Forbidden("only admins can create purchases")
	}

	if len(req.Items) == 0 {
		return nil, apperror.Invalid("purchase must contain at least one line")
	}
	for _, line := range req.Items {
		if line.Quantity <= 0 {
			return nil, apperror.Invalid("line quantity must be greater than 0")
		}
		if line.UnitPrice.IsNegative() {
			return nil, apperror.Invalid("unit price cannot be negative")
		}
	}

	office, err := s.officeRepo.FindByID(ctx, principal.OfficeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("office not found")
		}
		return nil, err
	}

	var purchase model.Purchase
	var barcodes []string

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		inventory, invErr := s.officeRepo.FindInventoryByOfficeID(txCtx, office.ID)
		if invErr != nil {
			if errors.Is(invErr, gorm.ErrRecordNotFound) {
				return apperror.Conflict("office %s does not have an inventory", office.Code)
			}
			return invErr
		}

		purchase = model.Purchase{
			OfficeID:      office.ID,
			PurchasedByID: principal.UserID,
			Supplier:      req.Supplier,
			InvoiceNumber: req.InvoiceNumber,
			Remarks:       req.Remarks,
			ReceiptURL:    req.ReceiptURL,
			PurchasedDate: time.Now(),
		}

		items := make([]*model.Item, len(req.Items))
		for i, line := range req.Items {
			itemID, parseErr := uuid.Parse(line.ItemID)
			if parseErr != nil {
				return apperror.Invalid("invalid item id: %s", line.ItemID)
			}
			item, findErr := s.catalogRepo.FindItemByID(txCtx, itemID)
			if findErr != nil {
				if errors.Is(findErr, gorm.ErrRecordNotFound) {
					return apperror.NotFound("item not found: %s", line.ItemID)
				}
				return findErr
			}
			items[i] = item
			price := line.UnitPrice
			purchase.Items = append(purchase.Items, model.PurchaseItem{
				ItemID:    item.ID,
				Quantity:  line.Quantity,
				UnitPrice: price,
			})
		}

		if createErr := s.purchaseRepo.Create(txCtx, &purchase); createErr != nil {
			return createErr
		}

		for i := range purchase.Items {
			line := &purchase.Items[i]
			item := items[i]
			price := line.UnitPrice
			for unit := 0; unit < line.Quantity; unit++ {
				lineID := line.ID
				instance := model.ItemInstance{
					ItemID:         item.ID,
					Barcode:        s.barcodes.Next(item.Name, office.Code, unit),
					InventoryID:    inventory.ID,
					OwnerOfficeID:  office.ID,
					Status:         model.InstanceAvailable,
					PurchaseItemID: &lineID,
					PurchaseDate:   &purchase.PurchasedDate,
					PurchasePrice:  &price,
				}
				if instErr := s.instanceRepo.Create(txCtx, &instance); instErr != nil {
					return instErr
				}
				barcodes = append(barcodes, instance.Barcode)
			}
		}

		details, _ := json.Marshal(map[string]any{
			"supplier":       req.Supplier,
			"invoice_number": req.InvoiceNumber,
			"total_items":    purchase.TotalItems(),
			"total_amount":   purchase.TotalAmount(),
		})
		userRef := principal.UserID
		audit := &model.AuditLog{
			UserID:     &userRef,
			Action:     model.ActionCreatePurchase,
			EntityID:   purchase.ID.String(),
			EntityName: office.Code,
			Details:    string(details),
		}
		return s.auditRepo.Log(txCtx, audit)
	})
	if err != nil {
		return nil, err
	}

	created, err := s.purchaseRepo.FindByID(ctx, purchase.ID)
	if err != nil {
		return nil, err
	}

	resp := toPurchaseResponse(created)
	resp.Barcodes = barcodes
	return resp, nil
}

func (s *purchaseService) GetPurchase(ctx context.Context, userID string, id string) (*PurchaseResponse, error) {
	principal, err := s.identity.Resolve(ctx, userID)
	if err != nil {
		return nil, err
	}

	purchaseID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperror.Invalid("invalid purchase id")
	}

	purchase, err := s.purchaseRepo.FindByID(ctx, purchaseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("purchase not found")
		}
		return nil, err
	}

	if err := requireSameOfficeOrAdmin(principal, purchase.OfficeID, "view purchases"); err != nil {
		return nil, err
	}

	return toPurchaseResponse(purchase), nil
}

func (s *purchaseService) ListPurchasesByOffice(ctx context.Context, userID string, officeID string, page, limit int) ([]PurchaseResponse, int64, error) {
	principal, err := s.identity.Resolve(ctx, userID)
	if err != nil {
		return nil, 0, err
	}

	oid, err := uuid.Parse(officeID)
	if err != nil {
		return nil, 0, apperror.Invalid("invalid office id")
	}

	if err := requireSameOfficeOrAdmin(principal, oid, "view purchases"); err != nil {
		return nil, 0, err
	}

	purchases, total, err := s.purchaseRepo.FindByOfficeID(ctx, oid, page, limit)
	if err != nil {
		return nil, 0, err
	}

	res := make([]PurchaseResponse, 0, len(purchases))
	for i := range purchases {
		res = append(res, *toPurchaseResponse(&purchases[i]))
	}
	return res, total, nil
}

func toPurchaseResponse(p *model.Purchase) *PurchaseResponse {
	resp := &PurchaseResponse{
		ID:            p.ID.String(),
		OfficeID:      p.OfficeID.String(),
		Supplier:      p.Supplier,
		InvoiceNumber: p.InvoiceNumber,
		Remarks:       p.Remarks,
		ReceiptURL:    p.ReceiptURL,
		PurchasedDate: p.PurchasedDate,
		TotalAmount:   p.TotalAmount(),
		TotalItems:    p.TotalItems(),
	}
	if p.Office != nil {
		resp.OfficeName = p.Office.Name
	}
	if p.PurchasedBy != nil {
		resp.PurchasedBy = p.PurchasedBy.FullName
	}
	for _, line := range p.Items {
		lr := PurchaseLineResponse{
			ID:        line.ID.String(),
			ItemID:    line.ItemID.String(),
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
		}
		if line.Item != nil {
			lr.ItemName = line.Item.Name
		}
		resp.Items = append(resp.Items, lr)
	}
	return resp
}
