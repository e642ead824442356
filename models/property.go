package models

import (
	"time"

	"gorm.io/gorm"
)

type Property struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	Value     string    `gorm:"size:100;not null" json:"value"`
	NameKey   string    `gorm:"size:100;uniqueIndex:idx_property_pair;not null" json:"-"`
	ValueKey  string    `gorm:"size:100;uniqueIndex:idx_property_pair;not null" json:"-"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"-"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"-"`
}

func (p *Property) BeforeSave(tx *gorm.DB) error {
	p.NameKey = Fold(p.Name)
	p.ValueKey = Fold(p.Value)
	return nil
}
