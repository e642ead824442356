package routes

import (
	"encoding/json"
	"strconv"
	"strings"

	"shopcatalog/cache"
	"shopcatalog/catalog"
	"shopcatalog/db"
	"shopcatalog/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// productRequest is shared by create, PUT and PATCH. Nil fields were not
// sent.
type productRequest struct {
	Name        *string                 `json:"name" validate:"omitempty,min=1,max=255"`
	Description *string                 `json:"description"`
	Brand       *string                 `json:"brand" validate:"omitempty,max=100"`
	Price       *decimal.Decimal        `json:"price"`
	Stock       *int                    `json:"stock"`
	Category    *uint                   `json:"category"`
	PropertyIDs *[]uint                 `json:"property_ids"`
	Properties  *[]catalog.PropertyPair `json:"properties"`
}

func (r productRequest) apply(p *models.Product, partial bool) error {
	if !partial {
		var missing []string
		if r.Name == nil {
			missing = append(missing, "name")
		}
		if r.Price == nil {
			missing = append(missing, "price")
		}
		if r.Stock == nil {
			missing = append(missing, "stock")
		}
		if r.Category == nil {
			missing = append(missing, "category")
		}
		if len(missing) > 0 {
			return requiredFields(missing)
		}
	}

	if r.Name != nil {
		p.Name = *r.Name
	}
	if r.Description != nil {
		p.Description = *r.Description
	}
	if r.Brand != nil {
		p.Brand = *r.Brand
	}
	if r.Price != nil {
		p.Price = *r.Price
	}
	if r.Stock != nil {
		p.Stock = *r.Stock
	}
	if r.Category != nil {
		p.CategoryID = *r.Category
	}
	if r.Properties != nil {
		for _, pair := range *r.Properties {
			if err := validate.Struct(pair); err != nil {
				return validationFailure(err)
			}
		}
	}
	return nil
}

// properties resolves the requested property set, or returns nil when the
// request leaves it alone.
func (r productRequest) properties(tx *gorm.DB) (*[]models.Property, error) {
	if r.PropertyIDs == nil && r.Properties == nil {
		return nil, nil
	}
	var ids []uint
	var pairs []catalog.PropertyPair
	if r.PropertyIDs != nil {
		ids = *r.PropertyIDs
	}
	if r.Properties != nil {
		pairs = *r.Properties
	}
	props, err := catalog.ResolveProperties(tx, ids, pairs)
	if err != nil {
		return nil, err
	}
	return &props, nil
}

func parseCategoryIn(raw string) ([]uint, error) {
	var ids []uint
	for _, part := range strings.Split(raw, ",") {
		id, err := strconv.ParseUint(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return nil, &catalog.ValidationError{Field: "category__in", Message: "Invalid category__in parameter"}
		}
		ids = append(ids, uint(id))
	}
	return ids, nil
}

// getAllProducts supports category__in=1,2 and ordering=price,-rating.
func getAllProducts(c *fiber.Ctx) error {
	skip, limit, err := pagination(c)
	if err != nil {
		return respondError(c, err, "Product")
	}
	order, err := ordering(c.Query("ordering"), "price", "rating")
	if err != nil {
		return respondError(c, err, "Product")
	}

	query := db.DB.Model(&models.Product{})
	if raw := c.Query("category__in"); raw != "" {
		ids, err := parseCategoryIn(raw)
		if err != nil {
			return respondError(c, err, "Product")
		}
		query = query.Where("category_id IN ?", ids)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return respondError(c, err, "Product")
	}

	list := query.Session(&gorm.Session{})
	if order != "" {
		list = list.Order(order)
	}
	var products []models.Product
	if err := paginate(list.Order("id"), skip, limit).Preload("Properties").Find(&products).Error; err != nil {
		return respondError(c, err, "Product")
	}

	return c.JSON(fiber.Map{
		"products": products,
		"total":    total,
		"skip":     skip,
		"limit":    limit,
	})
}

// getProduct serves the product detail, from the cache when possible.
func getProduct(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err, "Product")
	}

	key := cache.ProductKey(id)
	if data, ok := productCache.Get(c.UserContext(), key); ok {
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.Send(data)
	}

	gen := productCache.Generation(c.UserContext(), key)
	var product models.Product
	if err := db.DB.Preload("Properties").First(&product, id).Error; err != nil {
		return respondError(c, err, "Product")
	}
	data, err := json.Marshal(product)
	if err != nil {
		return respondError(c, err, "Product")
	}
	productCache.Set(c.UserContext(), key, gen, data)

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(data)
}

func createProduct(c *fiber.Ctx) error {
	var req productRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err, "Product")
	}

	var product models.Product
	if err := req.apply(&product, false); err != nil {
		return respondError(c, err, "Product")
	}

	if err := withTx(func(tx *gorm.DB) error {
		props, err := req.properties(tx)
		if err != nil {
			return err
		}
		var initial []models.Property
		if props != nil {
			initial = *props
		}
		return catalog.CreateProduct(tx, &product, initial)
	}); err != nil {
		return respondError(c, err, "Product")
	}
	return c.Status(fiber.StatusCreated).JSON(product)
}

func updateProduct(c *fiber.Ctx) error {
	return saveProduct(c, false)
}

func patchProduct(c *fiber.Ctx) error {
	return saveProduct(c, true)
}

func saveProduct(c *fiber.Ctx, partial bool) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err, "Product")
	}
	var req productRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err, "Product")
	}

	var product models.Product
	if err := withTx(func(tx *gorm.DB) error {
		if err := tx.First(&product, id).Error; err != nil {
			return err
		}
		if err := req.apply(&product, partial); err != nil {
			return err
		}
		props, err := req.properties(tx)
		if err != nil {
			return err
		}
		return catalog.UpdateProduct(tx, &product, props)
	}); err != nil {
		return respondError(c, err, "Product")
	}

	invalidateProducts(c, product.ID)
	return c.JSON(product)
}

func deleteProduct(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err, "Product")
	}

	if err := withTx(func(tx *gorm.DB) error {
		_, err := catalog.DeleteProduct(tx, id)
		return err
	}); err != nil {
		return respondError(c, err, "Product")
	}

	invalidateProducts(c, id)
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Product deleted successfully",
	})
}

type propertyBatchRequest struct {
	PropertyIDs []uint                 `json:"property_ids"`
	Properties  []catalog.PropertyPair `json:"properties" validate:"dive"`
}

// addProductProperties attaches a batch of properties. Either the whole
// batch is attached or none of it.
func addProductProperties(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err, "Product")
	}
	var req propertyBatchRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err, "Product")
	}
	if len(req.PropertyIDs)+len(req.Properties) == 0 {
		return respondError(c, requiredFields([]string{"property_ids", "properties"}), "Product")
	}

	var product models.Product
	if err := withTx(func(tx *gorm.DB) error {
		if err := tx.First(&product, id).Error; err != nil {
			return err
		}
		props, err := catalog.ResolveProperties(tx, req.PropertyIDs, req.Properties)
		if err != nil {
			return err
		}
		return catalog.AddProperties(tx, &product, props)
	}); err != nil {
		return respondError(c, err, "Product")
	}

	invalidateProducts(c, product.ID)
	return c.JSON(product)
}

func removeProductProperty(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err, "Product")
	}
	propertyID, err := paramID(c, "propertyId")
	if err != nil {
		return respondError(c, err, "Property")
	}

	var product models.Product
	if err := withTx(func(tx *gorm.DB) error {
		if err := tx.First(&product, id).Error; err != nil {
			return err
		}
		return catalog.RemoveProperty(tx, &product, propertyID)
	}); err != nil {
		return respondError(c, err, "Product")
	}

	invalidateProducts(c, product.ID)
	return c.JSON(product)
}

// uploadProductImage replaces the product image with the multipart file
// "image", or clears it for a JSON body {"image": null}.
func uploadProductImage(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err, "Product")
	}

	var product models.Product
	if err := db.DB.Preload("Properties").First(&product, id).Error; err != nil {
		return respondError(c, err, "Product")
	}

	cleared, err := imageCleared(c, "image")
	if err != nil {
		return respondError(c, err, "Product")
	}
	image := ""
	if !cleared {
		if image, err = saveUpload(c, "image", "products"); err != nil {
			return respondError(c, err, "Product")
		}
	}

	old := product.Image
	if err := db.DB.Model(&models.Product{}).Where("id = ?", product.ID).Update("image", image).Error; err != nil {
		removeUpload(image)
		return respondError(c, err, "Product")
	}
	removeUpload(old)
	product.Image = image

	invalidateProducts(c, product.ID)
	return c.JSON(product)
}
