package catalog

import (
	"errors"

	"shopcatalog/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PropertyPair identifies a property by content rather than by id.
type PropertyPair struct {
	Name  string `json:"name" validate:"required,max=100"`
	Value string `json:"value" validate:"required,max=100"`
}

// ResolveProperties loads the properties named by ids and gets-or-creates
// the ones described by pairs, in that order.
func ResolveProperties(tx *gorm.DB, ids []uint, pairs []PropertyPair) ([]models.Property, error) {
	props := make([]models.Property, 0, len(ids)+len(pairs))
	for _, id := range ids {
		var prop models.Property
		if err := tx.First(&prop, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, invalidf("properties", "property %d not found", id)
			}
			return nil, err
		}
		props = append(props, prop)
	}
	for _, pair := range pairs {
		prop, err := GetOrCreateProperty(tx, pair.Name, pair.Value)
		if err != nil {
			return nil, err
		}
		props = append(props, prop)
	}
	return props, nil
}

func checkCategory(tx *gorm.DB, id uint) error {
	var count int64
	if err := tx.Model(&models.Category{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return invalidf("category", "category %d not found", id)
	}
	return nil
}

// CreateProduct validates and inserts p, then attaches props as one batch.
func CreateProduct(tx *gorm.DB, p *models.Product, props []models.Property) error {
	if err := ValidateProduct(*p); err != nil {
		return err
	}
	if err := checkCategory(tx, p.CategoryID); err != nil {
		return err
	}

	p.Rating = 0
	p.Properties = nil
	if err := tx.Omit(clause.Associations).Create(p).Error; err != nil {
		return err
	}
	return AddProperties(tx, p, props)
}

// UpdateProduct validates and saves p. When props is non-nil the
// product's property set is replaced by it.
func UpdateProduct(tx *gorm.DB, p *models.Product, props *[]models.Property) error {
	if err := ValidateProduct(*p); err != nil {
		return err
	}
	if err := checkCategory(tx, p.CategoryID); err != nil {
		return err
	}

	// rating belongs to RecomputeRating
	if err := tx.Omit(clause.Associations, "Rating").Save(p).Error; err != nil {
		return err
	}
	if props != nil {
		return ReplaceProperties(tx, p, *props)
	}
	return tx.Model(p).Association("Properties").Find(&p.Properties)
}

// AddProperties attaches incoming to the product. Properties already
// attached are skipped; the remaining batch goes through CheckAddition
// and is written only if the whole batch passes.
func AddProperties(tx *gorm.DB, p *models.Product, incoming []models.Property) error {
	var current []models.Property
	if err := tx.Model(p).Association("Properties").Find(&current); err != nil {
		return err
	}

	attached := make(map[uint]bool, len(current)+len(incoming))
	for _, prop := range current {
		attached[prop.ID] = true
	}
	batch := make([]models.Property, 0, len(incoming))
	for _, prop := range incoming {
		if attached[prop.ID] {
			continue
		}
		attached[prop.ID] = true
		batch = append(batch, prop)
	}

	if err := CheckAddition(current, batch); err != nil {
		return err
	}
	if len(batch) > 0 {
		if err := tx.Model(p).Association("Properties").Append(batch); err != nil {
			return err
		}
	}
	return tx.Model(p).Association("Properties").Find(&p.Properties)
}

// ReplaceProperties sets the product's property set to incoming. Kept
// properties count as current state and new ones as the batch.
func ReplaceProperties(tx *gorm.DB, p *models.Product, incoming []models.Property) error {
	var current []models.Property
	if err := tx.Model(p).Association("Properties").Find(&current); err != nil {
		return err
	}
	wasAttached := make(map[uint]bool, len(current))
	for _, prop := range current {
		wasAttached[prop.ID] = true
	}

	seen := make(map[uint]bool, len(incoming))
	var kept, added []models.Property
	for _, prop := range incoming {
		if seen[prop.ID] {
			continue
		}
		seen[prop.ID] = true
		if wasAttached[prop.ID] {
			kept = append(kept, prop)
		} else {
			added = append(added, prop)
		}
	}

	if err := CheckAddition(kept, added); err != nil {
		return err
	}

	assoc := tx.Model(p).Association("Properties")
	if len(kept)+len(added) == 0 {
		if err := assoc.Clear(); err != nil {
			return err
		}
	} else if err := assoc.Replace(append(kept, added...)); err != nil {
		return err
	}
	return tx.Model(p).Association("Properties").Find(&p.Properties)
}

// RemoveProperty detaches one property from the product.
func RemoveProperty(tx *gorm.DB, p *models.Product, propertyID uint) error {
	if err := tx.Model(p).Association("Properties").Delete(&models.Property{ID: propertyID}); err != nil {
		return err
	}
	return tx.Model(p).Association("Properties").Find(&p.Properties)
}

// DeleteProduct removes the product with its reviews, property links,
// wish-list and cart entries.
func DeleteProduct(tx *gorm.DB, id uint) (models.Product, error) {
	var product models.Product
	if err := tx.Preload("Properties").First(&product, id).Error; err != nil {
		return product, err
	}

	for _, model := range []any{&models.Review{}, &models.WishItem{}, &models.CartItem{}} {
		if err := tx.Where("product_id = ?", id).Delete(model).Error; err != nil {
			return product, err
		}
	}
	if err := tx.Exec("DELETE FROM product_properties WHERE product_id = ?", id).Error; err != nil {
		return product, err
	}
	if err := tx.Delete(&models.Product{}, id).Error; err != nil {
		return product, err
	}
	return product, nil
}
