package routes

import (
	"shopcatalog/catalog"
	"shopcatalog/db"
	"shopcatalog/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func getAllProperties(c *fiber.Ctx) error {
	skip, limit, err := pagination(c)
	if err != nil {
		return respondError(c, err, "Property")
	}

	var total int64
	if err := db.DB.Model(&models.Property{}).Count(&total).Error; err != nil {
		return respondError(c, err, "Property")
	}
	var properties []models.Property
	if err := paginate(db.DB.Order("name_key, value_key"), skip, limit).Find(&properties).Error; err != nil {
		return respondError(c, err, "Property")
	}

	return c.JSON(fiber.Map{
		"properties": properties,
		"total":      total,
		"skip":       skip,
		"limit":      limit,
	})
}

func getProperty(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err, "Property")
	}
	var property models.Property
	if err := db.DB.First(&property, id).Error; err != nil {
		return respondError(c, err, "Property")
	}
	return c.JSON(property)
}

func createProperty(c *fiber.Ctx) error {
	var req catalog.PropertyPair
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err, "Property")
	}

	property := models.Property{Name: req.Name, Value: req.Value}
	if err := withTx(func(tx *gorm.DB) error {
		return catalog.SaveProperty(tx, &property)
	}); err != nil {
		return respondError(c, err, "Property")
	}
	return c.Status(fiber.StatusCreated).JSON(property)
}

func updateProperty(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err, "Property")
	}
	var req catalog.PropertyPair
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err, "Property")
	}

	var property models.Property
	var productIDs []uint
	if err := withTx(func(tx *gorm.DB) error {
		if err := tx.First(&property, id).Error; err != nil {
			return err
		}
		property.Name = req.Name
		property.Value = req.Value
		if err := catalog.SaveProperty(tx, &property); err != nil {
			return err
		}
		return attachedProducts(tx, id, &productIDs)
	}); err != nil {
		return respondError(c, err, "Property")
	}

	invalidateProducts(c, productIDs...)
	return c.JSON(property)
}

func deleteProperty(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err, "Property")
	}

	var productIDs []uint
	if err := withTx(func(tx *gorm.DB) error {
		if err := attachedProducts(tx, id, &productIDs); err != nil {
			return err
		}
		_, err := catalog.DeleteProperty(tx, id)
		return err
	}); err != nil {
		return respondError(c, err, "Property")
	}

	invalidateProducts(c, productIDs...)
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Property deleted successfully",
	})
}

func attachedProducts(tx *gorm.DB, propertyID uint, ids *[]uint) error {
	return tx.Table("product_properties").Where("property_id = ?", propertyID).Pluck("product_id", ids).Error
}
