package models

import "time"

type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Email        string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Password     string    `gorm:"not null" json:"-"`
	Name         string    `gorm:"size:100" json:"name"`
	Surname      string    `gorm:"size:100" json:"surname"`
	IsStaff      bool      `gorm:"default:false" json:"is_staff"`
	ProfilePhoto string    `json:"profile_photo"`
	AddressID    *uint     `json:"-"`
	Address      *Address  `gorm:"foreignKey:AddressID;constraint:OnDelete:SET NULL" json:"address"`
	Reviews      []Review  `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// Address is owned by exactly one User and is replaced as a whole.
type Address struct {
	ID         uint   `gorm:"primaryKey" json:"-"`
	Country    string `gorm:"size:100;not null" json:"country"`
	City       string `gorm:"size:100;not null" json:"city"`
	Street     string `gorm:"size:100;not null" json:"street"`
	House      int    `gorm:"not null" json:"house"`
	PostalCode string `gorm:"size:12;not null" json:"postal_code"`
}
