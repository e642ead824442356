package routes

import (
	"shopcatalog/accounts"
	"shopcatalog/db"
	"shopcatalog/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type wishItemRequest struct {
	Product uint `json:"product" validate:"required"`
}

type cartItemRequest struct {
	Product  *uint `json:"product"`
	Quantity *int  `json:"quantity"`
}

func getAllWishItems(c *fiber.Ctx) error {
	var items []models.WishItem
	if err := db.DB.Where("user_id = ?", currentUser(c).ID).Order("id").Find(&items).Error; err != nil {
		return respondError(c, err, "Wish item")
	}
	return c.JSON(fiber.Map{
		"wish_items": items,
		"total":      len(items),
	})
}

func getWishItem(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err, "Wish item")
	}
	var item models.WishItem
	if err := db.DB.Where("id = ? AND user_id = ?", id, currentUser(c).ID).First(&item).Error; err != nil {
		return respondError(c, err, "Wish item")
	}
	return c.JSON(item)
}

func createWishItem(c *fiber.Ctx) error {
	var req wishItemRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err, "Wish item")
	}

	var item models.WishItem
	if err := withTx(func(tx *gorm.DB) error {
		var err error
		item, err = accounts.AddWishItem(tx, currentUser(c).ID, req.Product)
		return err
	}); err != nil {
		return respondError(c, err, "Wish item")
	}
	return c.Status(fiber.StatusCreated).JSON(item)
}

func deleteWishItem(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err, "Wish item")
	}
	result := db.DB.Where("id = ? AND user_id = ?", id, currentUser(c).ID).Delete(&models.WishItem{})
	if result.Error != nil {
		return respondError(c, result.Error, "Wish item")
	}
	if result.RowsAffected == 0 {
		return respondError(c, gorm.ErrRecordNotFound, "Wish item")
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Wish item deleted successfully",
	})
}

// getCart returns the user's cart with its items and the decimal total.
func getCart(c *fiber.Ctx) error {
	var cart models.Cart
	var items []models.CartItem
	if err := withTx(func(tx *gorm.DB) error {
		var err error
		if cart, err = accounts.CartFor(tx, currentUser(c).ID); err != nil {
			return err
		}
		return tx.Preload("Product").Where("cart_id = ?", cart.ID).Order("id").Find(&items).Error
	}); err != nil {
		return respondError(c, err, "Cart")
	}

	return c.JSON(fiber.Map{
		"id":         cart.ID,
		"user":       cart.UserID,
		"cart_items": items,
		"total":      accounts.CartTotal(items).StringFixed(2),
	})
}

func userCart(tx *gorm.DB, c *fiber.Ctx) (models.Cart, error) {
	return accounts.CartFor(tx, currentUser(c).ID)
}

func getAllCartItems(c *fiber.Ctx) error {
	var items []models.CartItem
	if err := withTx(func(tx *gorm.DB) error {
		cart, err := userCart(tx, c)
		if err != nil {
			return err
		}
		return tx.Where("cart_id = ?", cart.ID).Order("id").Find(&items).Error
	}); err != nil {
		return respondError(c, err, "Cart item")
	}
	return c.JSON(fiber.Map{
		"cart_items": items,
		"total":      len(items),
	})
}

// ownCartItem loads an item of the current user's cart.
func ownCartItem(tx *gorm.DB, c *fiber.Ctx, id uint, item *models.CartItem) error {
	cart, err := userCart(tx, c)
	if err != nil {
		return err
	}
	return tx.Where("id = ? AND cart_id = ?", id, cart.ID).First(item).Error
}

func getCartItem(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err, "Cart item")
	}
	var item models.CartItem
	if err := withTx(func(tx *gorm.DB) error {
		return ownCartItem(tx, c, id, &item)
	}); err != nil {
		return respondError(c, err, "Cart item")
	}
	return c.JSON(item)
}

// createCartItem adds to the cart. Adding a product the cart already
// holds raises that item's quantity.
func createCartItem(c *fiber.Ctx) error {
	var req cartItemRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err, "Cart item")
	}
	if req.Product == nil {
		return respondError(c, requiredFields([]string{"product"}), "Cart item")
	}
	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	var item models.CartItem
	if err := withTx(func(tx *gorm.DB) error {
		cart, err := userCart(tx, c)
		if err != nil {
			return err
		}
		item, err = accounts.AddCartItem(tx, cart.ID, *req.Product, quantity)
		return err
	}); err != nil {
		return respondError(c, err, "Cart item")
	}
	return c.Status(fiber.StatusCreated).JSON(item)
}

func updateCartItem(c *fiber.Ctx) error {
	return saveCartItem(c, false)
}

func patchCartItem(c *fiber.Ctx) error {
	return saveCartItem(c, true)
}

func saveCartItem(c *fiber.Ctx, partial bool) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err, "Cart item")
	}
	var req cartItemRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err, "Cart item")
	}
	if !partial {
		var missing []string
		if req.Product == nil {
			missing = append(missing, "product")
		}
		if req.Quantity == nil {
			missing = append(missing, "quantity")
		}
		if len(missing) > 0 {
			return respondError(c, requiredFields(missing), "Cart item")
		}
	}

	var item models.CartItem
	if err := withTx(func(tx *gorm.DB) error {
		if err := ownCartItem(tx, c, id, &item); err != nil {
			return err
		}
		if req.Product != nil {
			item.ProductID = *req.Product
		}
		if req.Quantity != nil {
			item.Quantity = *req.Quantity
		}
		return accounts.UpdateCartItem(tx, &item)
	}); err != nil {
		return respondError(c, err, "Cart item")
	}
	return c.JSON(item)
}

func deleteCartItem(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err, "Cart item")
	}
	if err := withTx(func(tx *gorm.DB) error {
		var item models.CartItem
		if err := ownCartItem(tx, c, id, &item); err != nil {
			return err
		}
		return tx.Delete(&item).Error
	}); err != nil {
		return respondError(c, err, "Cart item")
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Cart item deleted successfully",
	})
}
