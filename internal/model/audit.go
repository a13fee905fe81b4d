package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ActionCreatePurchase      = "CREATE_PURCHASE"
	ActionCreateDistribution  = "CREATE_DISTRIBUTION"
	ActionConfirmDistribution = "CONFIRM_DISTRIBUTION"
	ActionRejectDistribution  = "REJECT_DISTRIBUTION"
	ActionCreateRequest       = "CREATE_ITEM_REQUEST"
	ActionApproveRequest      = "APPROVE_ITEM_REQUEST"
	ActionRejectRequest       = "REJECT_ITEM_REQUEST"
	ActionFulfillRequest      = "FULFILL_ITEM_REQUEST"
	ActionChangeInstanceState = "CHANGE_INSTANCE_STATE"
	ActionRegisterUser        = "REGISTER_USER"
)

// AuditLog tracks Who, What, and When for critical system changes
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	User       *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"`
	Details    string     `gorm:"type:text" json:"details"`
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}

func (a *AuditLog) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
