// Package accounts manages users, their address, wish list and cart.
package accounts

import (
	"errors"
	"fmt"
	"strings"

	"shopcatalog/auth"
	"shopcatalog/catalog"
	"shopcatalog/models"

	"gorm.io/gorm"
)

// AddressInput is an address as sent by a client. A nil field was not
// provided.
type AddressInput struct {
	Country    *string `json:"country"`
	City       *string `json:"city"`
	Street     *string `json:"street"`
	House      *int    `json:"house"`
	PostalCode *string `json:"postal_code"`
}

// Empty reports whether no field was provided.
func (in AddressInput) Empty() bool {
	return in.Country == nil && in.City == nil && in.Street == nil && in.House == nil && in.PostalCode == nil
}

// Address converts the input into a full address. Every field is
// required.
func (in AddressInput) Address() (models.Address, error) {
	var missing []string
	if in.Country == nil {
		missing = append(missing, "country")
	}
	if in.City == nil {
		missing = append(missing, "city")
	}
	if in.Street == nil {
		missing = append(missing, "street")
	}
	if in.House == nil {
		missing = append(missing, "house")
	}
	if in.PostalCode == nil {
		missing = append(missing, "postal_code")
	}
	if len(missing) > 0 {
		return models.Address{}, &catalog.ValidationError{
			Field:   "address",
			Message: "These fields are required: " + strings.Join(missing, ", "),
		}
	}
	if len(*in.PostalCode) > 12 {
		return models.Address{}, &catalog.ValidationError{Field: "address", Message: "postal_code must be at most 12 characters"}
	}
	return models.Address{
		Country:    *in.Country,
		City:       *in.City,
		Street:     *in.Street,
		House:      *in.House,
		PostalCode: *in.PostalCode,
	}, nil
}

func duplicateEmail(err error, email string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return &catalog.DuplicateError{Message: fmt.Sprintf("user with email %q already exists", email)}
	}
	return err
}

// Register creates u with a hashed password, its address when one is
// given, and its cart.
func Register(tx *gorm.DB, u *models.User, password string, addr *AddressInput) error {
	var count int64
	if err := tx.Model(&models.User{}).Where("email = ?", u.Email).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return &catalog.DuplicateError{Message: fmt.Sprintf("user with email %q already exists", u.Email)}
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	u.Password = hash

	if addr != nil && !addr.Empty() {
		address, err := addr.Address()
		if err != nil {
			return err
		}
		if err := tx.Create(&address).Error; err != nil {
			return err
		}
		u.AddressID = &address.ID
		u.Address = &address
	}

	if err := tx.Omit("Address").Create(u).Error; err != nil {
		return duplicateEmail(err, u.Email)
	}
	return tx.Create(&models.Cart{UserID: u.ID}).Error
}

// CreateSuperuser registers a staff user.
func CreateSuperuser(tx *gorm.DB, email, password string) (models.User, error) {
	u := models.User{Email: email, IsStaff: true}
	err := Register(tx, &u, password, nil)
	return u, err
}

// Authenticate returns the user matching email and password.
func Authenticate(tx *gorm.DB, email, password string) (models.User, error) {
	var u models.User
	if err := tx.Where("email = ?", email).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return u, &catalog.ValidationError{Message: "Incorrect credentials!"}
		}
		return u, err
	}
	if !auth.CheckPassword(u.Password, password) {
		return u, &catalog.ValidationError{Message: "Incorrect credentials!"}
	}
	return u, nil
}

// SaveProfile persists the scalar fields of u, re-hashes password when
// set and applies the address replacement rule.
func SaveProfile(tx *gorm.DB, u *models.User, password *string, addr *AddressInput) error {
	var count int64
	if err := tx.Model(&models.User{}).Where("email = ? AND id <> ?", u.Email, u.ID).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return &catalog.DuplicateError{Message: fmt.Sprintf("user with email %q already exists", u.Email)}
	}

	if password != nil {
		hash, err := auth.HashPassword(*password)
		if err != nil {
			return err
		}
		u.Password = hash
	}

	old := u.AddressID
	if addr != nil {
		if addr.Empty() {
			u.AddressID = nil
			u.Address = nil
		} else {
			address, err := addr.Address()
			if err != nil {
				return err
			}
			if err := tx.Create(&address).Error; err != nil {
				return err
			}
			u.AddressID = &address.ID
			u.Address = &address
		}
	}

	if err := tx.Omit("Address").Save(u).Error; err != nil {
		return duplicateEmail(err, u.Email)
	}

	if addr != nil && old != nil {
		if err := tx.Delete(&models.Address{}, *old).Error; err != nil {
			return err
		}
	}
	return nil
}

// DeleteUser removes u together with its reviews, wish list, cart and
// address. The ratings of the products it reviewed are recomputed and
// returned by product id.
func DeleteUser(tx *gorm.DB, u *models.User) (map[uint]float64, error) {
	var productIDs []uint
	if err := tx.Model(&models.Review{}).Where("user_id = ?", u.ID).Pluck("product_id", &productIDs).Error; err != nil {
		return nil, err
	}
	if err := tx.Where("user_id = ?", u.ID).Delete(&models.Review{}).Error; err != nil {
		return nil, err
	}
	ratings := make(map[uint]float64, len(productIDs))
	for _, productID := range productIDs {
		rating, err := catalog.RecomputeRating(tx, productID)
		if err != nil {
			return nil, err
		}
		ratings[productID] = rating
	}

	if err := tx.Where("user_id = ?", u.ID).Delete(&models.WishItem{}).Error; err != nil {
		return nil, err
	}
	if err := tx.Where("cart_id IN (?)", tx.Model(&models.Cart{}).Select("id").Where("user_id = ?", u.ID)).
		Delete(&models.CartItem{}).Error; err != nil {
		return nil, err
	}
	if err := tx.Where("user_id = ?", u.ID).Delete(&models.Cart{}).Error; err != nil {
		return nil, err
	}
	if err := tx.Delete(&models.User{}, u.ID).Error; err != nil {
		return nil, err
	}
	if u.AddressID != nil {
		if err := tx.Delete(&models.Address{}, *u.AddressID).Error; err != nil {
			return nil, err
		}
	}
	return ratings, nil
}
