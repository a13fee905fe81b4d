package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InstanceStatus constants are stored as strings for stable wire/log values
const (
	InstanceAvailable   = "AVAILABLE"
	InstanceInUse       = "IN_USE"
	InstanceUnderRepair = "UNDER_REPAIR"
	InstanceDamaged     = "DAMAGED"
	InstanceLost        = "LOST"
	InstanceDisposed    = "DISPOSED"
)

// ItemInstance is one physical, uniquely barcoded unit of an Item. Its
// inventory and owner office always agree except while a transfer reservation
// holds it IN_USE, during which the sender remains the custodian.
type ItemInstance struct {
	ID             uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	ItemID         uuid.UUID        `gorm:"type:uuid;not null;index:idx_instances_item_owner" json:"item_id"`
	Item           *Item            `gorm:"foreignKey:ItemID" json:"item,omitempty"`
	Barcode        string           `gorm:"type:varchar(100);uniqueIndex;not null" json:"barcode"`
	InventoryID    uuid.UUID        `gorm:"type:uuid;not null;index:idx_instances_inventory_status" json:"inventory_id"`
	Inventory      *Inventory       `gorm:"foreignKey:InventoryID" json:"-"`
	OwnerOfficeID  uuid.UUID        `gorm:"type:uuid;not null;index;index:idx_instances_item_owner" json:"owner_office_id"`
	OwnerOffice    *Office          `gorm:"foreignKey:OwnerOfficeID" json:"owner_office,omitempty"`
	Status         string           `gorm:"type:varchar(20);not null;index:idx_instances_inventory_status" json:"status"`
	SerialNumber   string           `gorm:"type:varchar(100)" json:"serial_number"`
	PurchaseItemID *uuid.UUID       `gorm:"type:uuid;index" json:"purchase_item_id"`
	PurchaseDate   *time.Time       `json:"purchase_date"`
	PurchasePrice  *decimal.Decimal `gorm:"type:decimal(12,2)" json:"purchase_price"`
	WarrantyExpiry *time.Time       `json:"warranty_expiry"`
	Remarks        string           `gorm:"type:text" json:"remarks"`
	CreatedAt      time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

func (i *ItemInstance) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	if i.Status == "" {
		i.Status = InstanceAvailable
	}
	return nil
}
