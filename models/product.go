package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	Name        string          `gorm:"size:255;not null" json:"name"`
	Description string          `json:"description"`
	Brand       string          `gorm:"size:100" json:"brand"`
	Price       decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"price"`
	Stock       int             `gorm:"not null" json:"stock"`
	Image       string          `json:"image"`
	Rating      float64         `gorm:"not null;default:0" json:"rating"`
	CategoryID  uint            `gorm:"not null;index" json:"category"`
	Properties  []Property      `gorm:"many2many:product_properties;" json:"properties"`
	Reviews     []Review        `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}
