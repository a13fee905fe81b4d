package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RequestStatus constants
const (
	RequestPending            = "PENDING"
	RequestApproved           = "APPROVED"
	RequestRejected           = "REJECTED"
	RequestPartiallyFulfilled = "PARTIALLY_FULFILLED"
	RequestFulfilled          = "FULFILLED"
	RequestCancelled          = "CANCELLED"
)

// ItemRequest is a formal ask from a child office to its parent for a quantity
// of an item. Each fulfillment step delegates to the distribution engine and
// only produces pending transfers; custody changes on confirmation.
type ItemRequest struct {
	ID                 uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ItemID             uuid.UUID  `gorm:"type:uuid;not null;index" json:"item_id"`
	Item               *Item      `gorm:"foreignKey:ItemID" json:"item,omitempty"`
	RequestingOfficeID uuid.UUID  `gorm:"type:uuid;not null;index" json:"requesting_office_id"`
	RequestingOffice   *Office    `gorm:"foreignKey:RequestingOfficeID" json:"requesting_office,omitempty"`
	ParentOfficeID     uuid.UUID  `gorm:"type:uuid;not null;index:idx_requests_parent_office_status" json:"parent_office_id"`
	ParentOffice       *Office    `gorm:"foreignKey:ParentOfficeID" json:"parent_office,omitempty"`
	RequestedByID      uuid.UUID  `gorm:"type:uuid;not null" json:"requested_by_id"`
	RequestedBy        *User      `gorm:"foreignKey:RequestedByID" json:"requested_by,omitempty"`
	ApprovedByID       *uuid.UUID `gorm:"type:uuid" json:"approved_by_id"`
	ApprovedBy         *User      `gorm:"foreignKey:ApprovedByID" json:"approved_by,omitempty"`
	RequestedQuantity  int        `gorm:"not null" json:"requested_quantity"`
	ApprovedQuantity   *int       `json:"approved_quantity"`
	FulfilledQuantity  int        `gorm:"not null;default:0" json:"fulfilled_quantity"`
	Status             string     `gorm:"type:varchar(25);not null;index:idx_requests_parent_office_status" json:"status"`
	Reason             string     `gorm:"type:text" json:"reason"`
	Remarks            string     `gorm:"type:text" json:"remarks"`
	RequestedDate      time.Time  `gorm:"not null" json:"requested_date"`
	ApprovedDate       *time.Time `json:"approved_date"`
	RejectedDate       *time.Time `json:"rejected_date"`
	FulfilledDate      *time.Time `json:"fulfilled_date"`
}

func (r *ItemRequest) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.Status == "" {
		r.Status = RequestPending
	}
	if r.RequestedDate.IsZero() {
		r.RequestedDate = time.Now()
	}
	return nil
}
