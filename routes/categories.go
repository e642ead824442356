package routes

import (
	"shopcatalog/cache"
	"shopcatalog/catalog"
	"shopcatalog/db"
	"shopcatalog/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type categoryRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

func getAllCategories(c *fiber.Ctx) error {
	skip, limit, err := pagination(c)
	if err != nil {
		return respondError(c, err, "Category")
	}

	var total int64
	if err := db.DB.Model(&models.Category{}).Count(&total).Error; err != nil {
		return respondError(c, err, "Category")
	}

	var categories []models.Category
	if err := paginate(db.DB.Order("id"), skip, limit).Find(&categories).Error; err != nil {
		return respondError(c, err, "Category")
	}

	return c.JSON(fiber.Map{
		"categories": categories,
		"total":      total,
		"skip":       skip,
		"limit":      limit,
	})
}

func getCategory(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err, "Category")
	}

	var category models.Category
	if err := db.DB.First(&category, id).Error; err != nil {
		return respondError(c, err, "Category")
	}
	return c.JSON(category)
}

func createCategory(c *fiber.Ctx) error {
	var req categoryRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err, "Category")
	}

	category := models.Category{Name: req.Name}
	if err := withTx(func(tx *gorm.DB) error {
		return catalog.SaveCategory(tx, &category)
	}); err != nil {
		return respondError(c, err, "Category")
	}
	return c.Status(fiber.StatusCreated).JSON(category)
}

func updateCategory(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err, "Category")
	}
	var req categoryRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err, "Category")
	}

	var category models.Category
	if err := withTx(func(tx *gorm.DB) error {
		if err := tx.First(&category, id).Error; err != nil {
			return err
		}
		category.Name = req.Name
		return catalog.SaveCategory(tx, &category)
	}); err != nil {
		return respondError(c, err, "Category")
	}
	return c.JSON(category)
}

// deleteCategory removes the category and, with it, every product filed
// under it.
func deleteCategory(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err, "Category")
	}

	var productIDs []uint
	if err := withTx(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Product{}).Where("category_id = ?", id).Pluck("id", &productIDs).Error; err != nil {
			return err
		}
		_, err := catalog.DeleteCategory(tx, id)
		return err
	}); err != nil {
		return respondError(c, err, "Category")
	}

	invalidateProducts(c, productIDs...)
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Category deleted successfully",
	})
}

func invalidateProducts(c *fiber.Ctx, ids ...uint) {
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, cache.ProductKey(id))
	}
	productCache.Delete(c.UserContext(), keys...)
}
