package service

import (
	"context"
	"errors"
	"fmt"

	"assetledger/internal/apperror"
	"assetledger/internal/model"
	"assetledger/internal/repository"

	"gorm.io/gorm"
)

// DTOs

type MovementSummary struct {
	TotalTransfers     int `json:"total_transfers"`
	ConfirmedTransfers int `json:"confirmed_transfers"`
	RejectedTransfers  int `json:"rejected_transfers"`
	PendingTransfers   int `json:"pending_transfers"`
}

type TrackedPurchase struct {
	PurchaseID    string `json:"purchase_id"`
	Supplier      string `json:"supplier,omitempty"`
	InvoiceNumber string `json:"invoice_number,omitempty"`
	OfficeName    string `json:"office_name,omitempty"`
	PurchasedBy   string `json:"purchased_by,omitempty"`
	PurchasedDate string `json:"purchased_date"`
}

type TrackingResponse struct {
	Barcode         string                `json:"barcode"`
	ItemName        string                `json:"item_name,omitempty"`
	Category        string                `json:"category,omitempty"`
	Unit            string                `json:"unit,omitempty"`
	SerialNumber    string                `json:"serial_number,omitempty"`
	Status          string                `json:"status"`
	CurrentOffice   string                `json:"current_office,omitempty"`
	Purchase        *TrackedPurchase      `json:"purchase,omitempty"`
	MovementHistory []TransactionResponse `json:"movement_history"`
	MovementSummary MovementSummary       `json:"movement_summary"`
	OfficeJourney   []string              `json:"office_journey"`
}

type TrackManyResult struct {
	Barcode string            `json:"barcode"`
	Result  *TrackingResponse `json:"result,omitempty"`
	Error   string            `json:"error,omitempty"`
}

// TrackingService answers "where is this thing and where has it been" for a
// scanned barcode. It is intentionally unauthenticated: the endpoint backs
// handheld scanners that have no user session.
type TrackingService interface {
	TrackByBarcode(ctx context.Context, barcode string) (*TrackingResponse, error)
	TrackMany(ctx context.Context, barcodes []string) []TrackManyResult
}

type trackingService struct {
	instanceRepo    repository.InstanceRepository
	transactionRepo repository.TransactionRepository
	purchaseRepo    repository.PurchaseRepository
}

func NewTrackingService(
	instanceRepo repository.InstanceRepository,
	transactionRepo repository.TransactionRepository,
	purchaseRepo repository.PurchaseRepository,
) TrackingService {
	return &trackingService{
		instanceRepo:    instanceRepo,
		transactionRepo: transactionRepo,
		purchaseRepo:    purchaseRepo,
	}
}

func (s *trackingService) TrackByBarcode(ctx context.Context, barcode string) (*TrackingResponse, error) {
	if barcode == "" {
		return nil, apperror.Invalid("barcode is required")
	}

	instance, err := s.instanceRepo.FindByBarcode(ctx, barcode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("no item found with barcode %s", barcode)
		}
		return nil, err
	}

	history, err := s.transactionRepo.FindByInstanceID(ctx, instance.ID)
	if err != nil {
		return nil, err
	}

	resp := &TrackingResponse{
		Barcode:         instance.Barcode,
		SerialNumber:    instance.SerialNumber,
		Status:          instance.Status,
		MovementHistory: toTransactionResponses(history),
		MovementSummary: summarizeMovements(history),
	}
	if instance.Item != nil {
		resp.ItemName = instance.Item.Name
		if instance.Item.Category != nil {
			resp.Category = instance.Item.Category.Name
		}
		if instance.Item.Unit != nil {
			resp.Unit = instance.Item.Unit.Name
		}
	}
	if instance.OwnerOffice != nil {
		resp.CurrentOffice = instance.OwnerOffice.Name
	}

	if purchase := s.findPurchase(ctx, instance); purchase != nil {
		tp := &TrackedPurchase{
			PurchaseID:    purchase.ID.String(),
			Supplier:      purchase.Supplier,
			InvoiceNumber: purchase.InvoiceNumber,
			PurchasedDate: purchase.PurchasedDate.Format("2006-01-02T15:04:05Z07:00"),
		}
		if purchase.Office != nil {
			tp.OfficeName = purchase.Office.Name
		}
		if purchase.PurchasedBy != nil {
			tp.PurchasedBy = purchase.PurchasedBy.FullName
		}
		resp.Purchase = tp
	}

	resp.OfficeJourney = buildOfficeJourney(instance, resp.Purchase, history)
	return resp, nil
}

func (s *trackingService) TrackMany(ctx context.Context, barcodes []string) []TrackManyResult {
	results := make([]TrackManyResult, 0, len(barcodes))
	for _, code := range barcodes {
		result, err := s.TrackByBarcode(ctx, code)
		if err != nil {
			results = append(results, TrackManyResult{Barcode: code, Error: err.Error()})
			continue
		}
		results = append(results, TrackManyResult{Barcode: code, Result: result})
	}
	return results
}

// findPurchase resolves the originating purchase, preferring the direct line
// reference and falling back to the older (item, date) match. The fallback
// must not key on the current owner office: custody may have moved away from
// the purchasing office since.
func (s *trackingService) findPurchase(ctx context.Context, instance *model.ItemInstance) *model.Purchase {
	if instance.PurchaseItemID != nil {
		if purchase, err := s.purchaseRepo.FindByPurchaseItemID(ctx, *instance.PurchaseItemID); err == nil {
			return purchase
		}
	}
	if instance.PurchaseDate != nil {
		if purchase, err := s.purchaseRepo.FindByItemAndDate(ctx, instance.ItemID, *instance.PurchaseDate); err == nil {
			return purchase
		}
	}
	return nil
}

func summarizeMovements(history []model.ItemTransaction) MovementSummary {
	var summary MovementSummary
	for i := range history {
		t := &history[i]
		if t.TransactionType != model.TxTypeDistribution && t.TransactionType != model.TxTypeTransfer {
			continue
		}
		summary.TotalTransfers++
		switch t.Status {
		case model.TxConfirmed:
			summary.ConfirmedTransfers++
		case model.TxRejected:
			summary.RejectedTransfers++
		case model.TxPending:
			summary.PendingTransfers++
		}
	}
	return summary
}

// buildOfficeJourney renders the instance's life as human-readable hops:
// where it was bought, each confirmed move, and where it sits now.
func buildOfficeJourney(instance *model.ItemInstance, purchase *TrackedPurchase, history []model.ItemTransaction) []string {
	journey := make([]string, 0, len(history)+2)

	if purchase != nil && purchase.OfficeName != "" {
		journey = append(journey, fmt.Sprintf("Purchased by: %s", purchase.OfficeName))
	}

	for i := range history {
		t := &history[i]
		if t.Status != model.TxConfirmed {
			continue
		}
		if t.TransactionType != model.TxTypeDistribution && t.TransactionType != model.TxTypeTransfer {
			continue
		}
		from, to := "?", "?"
		if t.FromOffice != nil {
			from = t.FromOffice.Code
		}
		if t.ToOffice != nil {
			to = t.ToOffice.Code
		}
		date := t.TransactionDate.Format("2006-01-02")
		if t.ConfirmedDate != nil {
			date = t.ConfirmedDate.Format("2006-01-02")
		}
		journey = append(journey, fmt.Sprintf("%s → %s (%s)", from, to, date))
	}

	if instance.OwnerOffice != nil {
		journey = append(journey, fmt.Sprintf("Current: %s", instance.OwnerOffice.Name))
	}
	return journey
}
