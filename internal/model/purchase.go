package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Purchase is a receipt header: one buying event for one office, with one or
// more lines. Instances are materialized from the lines at intake time.
type Purchase struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	OfficeID      uuid.UUID      `gorm:"type:uuid;not null;index" json:"office_id"`
	Office        *Office        `gorm:"foreignKey:OfficeID" json:"office,omitempty"`
	PurchasedByID uuid.UUID      `gorm:"type:uuid;not null" json:"purchased_by_id"`
	PurchasedBy   *User          `gorm:"foreignKey:PurchasedByID" json:"purchased_by,omitempty"`
	Supplier      string         `gorm:"type:varchar(255)" json:"supplier"`
	InvoiceNumber string         `gorm:"type:varchar(100)" json:"invoice_number"`
	Remarks       string         `gorm:"type:text" json:"remarks"`
	ReceiptURL    string         `gorm:"type:varchar(500)" json:"receipt_url"`
	PurchasedDate time.Time      `gorm:"not null" json:"purchased_date"`
	Items         []PurchaseItem `gorm:"foreignKey:PurchaseID" json:"items"`
	CreatedAt     time.Time      `gorm:"autoCreateTime" json:"created_at"`
}

func (p *Purchase) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.PurchasedDate.IsZero() {
		p.PurchasedDate = time.Now()
	}
	return nil
}

// TotalAmount is the sum of quantity * unit price over all lines
func (p *Purchase) TotalAmount() decimal.Decimal {
	total := decimal.Zero
	for _, line := range p.Items {
		total = total.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return total
}

// TotalItems is the number of physical units across all lines
func (p *Purchase) TotalItems() int {
	total := 0
	for _, line := range p.Items {
		total += line.Quantity
	}
	return total
}

// PurchaseItem is one ordered line of a Purchase
type PurchaseItem struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	PurchaseID uuid.UUID       `gorm:"type:uuid;not null;index" json:"purchase_id"`
	ItemID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"item_id"`
	Item       *Item           `gorm:"foreignKey:ItemID" json:"item,omitempty"`
	Quantity   int             `gorm:"not null" json:"quantity"`
	UnitPrice  decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
}

func (p *PurchaseItem) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
