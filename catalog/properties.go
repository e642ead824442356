package catalog

import (
	"errors"
	"fmt"

	"shopcatalog/models"

	"gorm.io/gorm"
)

// SaveProperty creates p, or updates it when p.ID is set. The (name,
// value) pair must be unique ignoring case, and a renamed property must
// not collide with another property on any product it is attached to.
func SaveProperty(tx *gorm.DB, p *models.Property) error {
	var existing []models.Property
	if err := tx.Where("name_key = ? AND value_key = ?", models.Fold(p.Name), models.Fold(p.Value)).
		Find(&existing).Error; err != nil {
		return err
	}
	if err := CheckPropertyPair(existing, *p); err != nil {
		return err
	}

	if p.ID != 0 {
		if err := checkAttachedProducts(tx, p); err != nil {
			return err
		}
	}

	if err := tx.Save(p).Error; err != nil {
		return uniqueViolation(err, fmt.Sprintf("property %s=%s already exists", p.Name, p.Value))
	}
	return nil
}

func checkAttachedProducts(tx *gorm.DB, p *models.Property) error {
	var productIDs []uint
	if err := tx.Table("product_properties").Where("property_id = ?", p.ID).
		Pluck("product_id", &productIDs).Error; err != nil {
		return err
	}
	for _, productID := range productIDs {
		var others []models.Property
		if err := tx.Joins("JOIN product_properties pp ON pp.property_id = properties.id").
			Where("pp.product_id = ? AND properties.id <> ?", productID, p.ID).
			Find(&others).Error; err != nil {
			return err
		}
		if err := CheckAddition(others, []models.Property{*p}); err != nil {
			return err
		}
	}
	return nil
}

// GetOrCreateProperty returns the property matching (name, value) ignoring
// case, creating it when none exists.
func GetOrCreateProperty(tx *gorm.DB, name, value string) (models.Property, error) {
	var prop models.Property
	err := tx.Where("name_key = ? AND value_key = ?", models.Fold(name), models.Fold(value)).First(&prop).Error
	if err == nil {
		return prop, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return prop, err
	}

	prop = models.Property{Name: name, Value: value}
	if err := tx.Create(&prop).Error; err != nil {
		return prop, uniqueViolation(err, fmt.Sprintf("property %s=%s already exists", name, value))
	}
	return prop, nil
}

// DeleteProperty detaches the property from every product and removes it.
func DeleteProperty(tx *gorm.DB, id uint) (models.Property, error) {
	var prop models.Property
	if err := tx.First(&prop, id).Error; err != nil {
		return prop, err
	}
	if err := tx.Exec("DELETE FROM product_properties WHERE property_id = ?", id).Error; err != nil {
		return prop, err
	}
	if err := tx.Delete(&prop).Error; err != nil {
		return prop, err
	}
	return prop, nil
}
