package models

import "time"

// Review is unique per (user, product); the composite index backs the
// application-level check.
type Review struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Rating     int       `gorm:"not null" json:"rating"`
	Commentary string    `json:"commentary"`
	UserID     uint      `gorm:"not null;uniqueIndex:idx_review_user_product" json:"user"`
	ProductID  uint      `gorm:"not null;uniqueIndex:idx_review_user_product;index" json:"product"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
