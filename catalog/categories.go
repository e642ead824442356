package catalog

import (
	"fmt"

	"shopcatalog/models"

	"gorm.io/gorm"
)

// SaveCategory creates c, or updates it when c.ID is set, after checking
// that no other category carries the same name ignoring case.
func SaveCategory(tx *gorm.DB, c *models.Category) error {
	var existing []models.Category
	if err := tx.Where("name_key = ?", models.Fold(c.Name)).Find(&existing).Error; err != nil {
		return err
	}
	if err := CheckCategoryName(existing, *c); err != nil {
		return err
	}
	if err := tx.Save(c).Error; err != nil {
		return uniqueViolation(err, fmt.Sprintf("category with name %q already exists", c.Name))
	}
	return nil
}

// DeleteCategory removes the category and every product filed under it.
func DeleteCategory(tx *gorm.DB, id uint) (models.Category, error) {
	var category models.Category
	if err := tx.First(&category, id).Error; err != nil {
		return category, err
	}

	var productIDs []uint
	if err := tx.Model(&models.Product{}).Where("category_id = ?", id).Pluck("id", &productIDs).Error; err != nil {
		return category, err
	}
	for _, productID := range productIDs {
		if _, err := DeleteProduct(tx, productID); err != nil {
			return category, err
		}
	}

	if err := tx.Delete(&category).Error; err != nil {
		return category, err
	}
	return category, nil
}
