package models

import (
	"time"

	"gorm.io/gorm"
)

type Category struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:100;not null" json:"name" validate:"required,max=100"`
	NameKey   string    `gorm:"size:100;uniqueIndex;not null" json:"-"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
	Products  []Product `gorm:"foreignKey:CategoryID;constraint:OnDelete:CASCADE" json:"-"`
}

// BeforeSave keeps the folded shadow column in step with Name so the
// unique index enforces case-insensitive uniqueness.
func (c *Category) BeforeSave(tx *gorm.DB) error {
	c.NameKey = Fold(c.Name)
	return nil
}
