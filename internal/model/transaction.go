package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TransactionType constants
const (
	TxTypePurchase     = "PURCHASE"
	TxTypeDistribution = "DISTRIBUTION"
	TxTypeTransfer     = "TRANSFER"
	TxTypeReturn       = "RETURN"
	TxTypeDamaged      = "DAMAGED"
	TxTypeLost         = "LOST"
	TxTypeDisposed     = "DISPOSED"
)

// TransactionStatus constants
const (
	TxPending   = "PENDING"
	TxConfirmed = "CONFIRMED"
	TxRejected  = "REJECTED"
	TxCancelled = "CANCELLED"
)

// ItemTransaction is one movement-ledger row for exactly one instance; moving
// N units writes N rows. Rows are append-only: status moves once from PENDING
// and is then frozen.
type ItemTransaction struct {
	ID              uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	ItemInstanceID  uuid.UUID     `gorm:"type:uuid;not null;index" json:"item_instance_id"`
	ItemInstance    *ItemInstance `gorm:"foreignKey:ItemInstanceID" json:"item_instance,omitempty"`
	FromOfficeID    *uuid.UUID    `gorm:"type:uuid;index" json:"from_office_id"`
	FromOffice      *Office       `gorm:"foreignKey:FromOfficeID" json:"from_office,omitempty"`
	ToOfficeID      *uuid.UUID    `gorm:"type:uuid;index:idx_transactions_to_office_status" json:"to_office_id"`
	ToOffice        *Office       `gorm:"foreignKey:ToOfficeID" json:"to_office,omitempty"`
	UserID          uuid.UUID     `gorm:"type:uuid;not null" json:"user_id"`
	User            *User         `gorm:"foreignKey:UserID" json:"user,omitempty"`
	TransactionType string        `gorm:"type:varchar(20);not null" json:"transaction_type"`
	Status          string        `gorm:"type:varchar(20);not null;index:idx_transactions_to_office_status" json:"status"`
	Quantity        int           `gorm:"not null;default:1" json:"quantity"`
	Remarks         string        `gorm:"type:text" json:"remarks"`
	ConfirmedByID   *uuid.UUID    `gorm:"type:uuid" json:"confirmed_by_id"`
	ConfirmedBy     *User         `gorm:"foreignKey:ConfirmedByID" json:"confirmed_by,omitempty"`
	ConfirmedDate   *time.Time    `json:"confirmed_date"`
	TransactionDate time.Time     `gorm:"not null;index" json:"transaction_date"`
}

func (t *ItemTransaction) BeforeCreate(*gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.Quantity == 0 {
		t.Quantity = 1
	}
	if t.TransactionDate.IsZero() {
		t.TransactionDate = time.Now()
	}
	return nil
}
