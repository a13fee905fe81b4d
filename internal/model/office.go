package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Office is a node in the organisational hierarchy. Root offices have no
// parent; distributions only flow from an office to its direct children.
type Office struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string     `gorm:"type:varchar(255);not null" json:"name"`
	Description string     `gorm:"type:text" json:"description"`
	Code        string     `gorm:"type:varchar(20);uniqueIndex;not null" json:"code"`
	ParentID    *uuid.UUID `gorm:"type:uuid;index" json:"parent_id"`
	Parent      *Office    `gorm:"foreignKey:ParentID" json:"parent,omitempty"`
	Inventory   *Inventory `gorm:"foreignKey:OfficeID" json:"inventory,omitempty"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (o *Office) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// Inventory is the single container holding every instance currently
// custodied by one office (1:1 with Office).
type Inventory struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OfficeID  uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"office_id"`
	Office    *Office   `gorm:"foreignKey:OfficeID" json:"-"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (i *Inventory) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
