package accounts

import (
	"errors"
	"fmt"

	"shopcatalog/catalog"
	"shopcatalog/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func checkProduct(tx *gorm.DB, id uint) error {
	var count int64
	if err := tx.Model(&models.Product{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return &catalog.ValidationError{Field: "product", Message: fmt.Sprintf("product %d not found", id)}
	}
	return nil
}

// AddWishItem puts the product on the user's wish list. A product can be
// wished for once per user.
func AddWishItem(tx *gorm.DB, userID, productID uint) (models.WishItem, error) {
	item := models.WishItem{UserID: userID, ProductID: productID}
	if err := checkProduct(tx, productID); err != nil {
		return item, err
	}

	var count int64
	if err := tx.Model(&models.WishItem{}).Where("user_id = ? AND product_id = ?", userID, productID).
		Count(&count).Error; err != nil {
		return item, err
	}
	if count > 0 {
		return item, &catalog.DuplicateError{Message: fmt.Sprintf("product %d is already on the wish list", productID)}
	}

	if err := tx.Create(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return item, &catalog.DuplicateError{Message: fmt.Sprintf("product %d is already on the wish list", productID)}
		}
		return item, err
	}
	return item, nil
}

// CartFor returns the user's cart, creating it for users that predate
// carts.
func CartFor(tx *gorm.DB, userID uint) (models.Cart, error) {
	cart := models.Cart{UserID: userID}
	err := tx.Where(models.Cart{UserID: userID}).FirstOrCreate(&cart).Error
	return cart, err
}

func validQuantity(quantity int) error {
	if quantity < 1 {
		return &catalog.ValidationError{Field: "quantity", Message: "quantity must be at least 1"}
	}
	return nil
}

// AddCartItem adds quantity of the product to the cart. When the cart
// already holds the product the existing item grows instead.
func AddCartItem(tx *gorm.DB, cartID, productID uint, quantity int) (models.CartItem, error) {
	item := models.CartItem{CartID: cartID, ProductID: productID, Quantity: quantity}
	if err := validQuantity(quantity); err != nil {
		return item, err
	}
	if err := checkProduct(tx, productID); err != nil {
		return item, err
	}

	var existing models.CartItem
	err := tx.Where("cart_id = ? AND product_id = ?", cartID, productID).First(&existing).Error
	switch {
	case err == nil:
		existing.Quantity += quantity
		if err := tx.Save(&existing).Error; err != nil {
			return existing, err
		}
		return existing, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := tx.Create(&item).Error; err != nil {
			return item, err
		}
		return item, nil
	default:
		return item, err
	}
}

// UpdateCartItem sets the item's product and quantity. Moving an item onto
// a product the cart already holds is rejected.
func UpdateCartItem(tx *gorm.DB, item *models.CartItem) error {
	if err := validQuantity(item.Quantity); err != nil {
		return err
	}
	if err := checkProduct(tx, item.ProductID); err != nil {
		return err
	}

	var count int64
	if err := tx.Model(&models.CartItem{}).
		Where("cart_id = ? AND product_id = ? AND id <> ?", item.CartID, item.ProductID, item.ID).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return &catalog.DuplicateError{Message: fmt.Sprintf("product %d is already in the cart", item.ProductID)}
	}
	return tx.Save(item).Error
}

// CartTotal sums price times quantity over items with their Product
// loaded.
func CartTotal(items []models.CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Product.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}
