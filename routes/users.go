package routes

import (
	"shopcatalog/accounts"
	"shopcatalog/db"
	"shopcatalog/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type registerRequest struct {
	Email    string                 `json:"email" validate:"required,email,max=255"`
	Password string                 `json:"password" validate:"required,min=6"`
	Name     string                 `json:"name" validate:"max=100"`
	Surname  string                 `json:"surname" validate:"max=100"`
	Address  *accounts.AddressInput `json:"address"`
}

type tokenRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// profileRequest is shared by PUT and PATCH on /me. An address of {}
// removes the stored address; a missing or null address keeps it.
type profileRequest struct {
	Email    *string                `json:"email" validate:"omitempty,email,max=255"`
	Password *string                `json:"password" validate:"omitempty,min=6"`
	Name     *string                `json:"name" validate:"omitempty,max=100"`
	Surname  *string                `json:"surname" validate:"omitempty,max=100"`
	Address  *accounts.AddressInput `json:"address"`
}

func register(c *fiber.Ctx) error {
	var req registerRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err, "User")
	}

	user := models.User{Email: req.Email, Name: req.Name, Surname: req.Surname}
	if err := withTx(func(tx *gorm.DB) error {
		return accounts.Register(tx, &user, req.Password, req.Address)
	}); err != nil {
		return respondError(c, err, "User")
	}
	return c.Status(fiber.StatusCreated).JSON(user)
}

func obtainToken(c *fiber.Ctx) error {
	var req tokenRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err, "User")
	}

	user, err := accounts.Authenticate(db.DB, req.Email, req.Password)
	if err != nil {
		return respondError(c, err, "User")
	}
	token, err := tokens.Issue(user.ID)
	if err != nil {
		return respondError(c, err, "User")
	}
	return c.JSON(fiber.Map{"token": token})
}

func getMe(c *fiber.Ctx) error {
	return c.JSON(currentUser(c))
}

func updateMe(c *fiber.Ctx) error {
	return saveMe(c, false)
}

func patchMe(c *fiber.Ctx) error {
	return saveMe(c, true)
}

func saveMe(c *fiber.Ctx, partial bool) error {
	var req profileRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err, "User")
	}
	if !partial && req.Email == nil {
		return respondError(c, requiredFields([]string{"email"}), "User")
	}

	user := *currentUser(c)
	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Surname != nil {
		user.Surname = *req.Surname
	}

	if err := withTx(func(tx *gorm.DB) error {
		return accounts.SaveProfile(tx, &user, req.Password, req.Address)
	}); err != nil {
		return respondError(c, err, "User")
	}
	return c.JSON(user)
}

func deleteMe(c *fiber.Ctx) error {
	if err := removeUser(c, currentUser(c)); err != nil {
		return respondError(c, err, "User")
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "User deleted successfully",
	})
}

// uploadProfilePhoto replaces the photo with the multipart file
// "profile_photo", or clears it for a JSON body {"profile_photo": null}.
func uploadProfilePhoto(c *fiber.Ctx) error {
	user := *currentUser(c)

	cleared, err := imageCleared(c, "profile_photo")
	if err != nil {
		return respondError(c, err, "User")
	}
	photo := ""
	if !cleared {
		if photo, err = saveUpload(c, "profile_photo", "users"); err != nil {
			return respondError(c, err, "User")
		}
	}

	if err := db.DB.Model(&models.User{}).Where("id = ?", user.ID).Update("profile_photo", photo).Error; err != nil {
		removeUpload(photo)
		return respondError(c, err, "User")
	}
	removeUpload(user.ProfilePhoto)
	user.ProfilePhoto = photo
	return c.JSON(user)
}

func getAllUsers(c *fiber.Ctx) error {
	skip, limit, err := pagination(c)
	if err != nil {
		return respondError(c, err, "User")
	}

	var total int64
	if err := db.DB.Model(&models.User{}).Count(&total).Error; err != nil {
		return respondError(c, err, "User")
	}
	var users []models.User
	if err := paginate(db.DB.Preload("Address").Order("created_at, id"), skip, limit).Find(&users).Error; err != nil {
		return respondError(c, err, "User")
	}

	return c.JSON(fiber.Map{
		"users": users,
		"total": total,
		"skip":  skip,
		"limit": limit,
	})
}

func getUser(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err, "User")
	}
	var user models.User
	if err := db.DB.Preload("Address").First(&user, id).Error; err != nil {
		return respondError(c, err, "User")
	}
	return c.JSON(user)
}

func deleteUser(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err, "User")
	}
	var user models.User
	if err := db.DB.First(&user, id).Error; err != nil {
		return respondError(c, err, "User")
	}

	if err := removeUser(c, &user); err != nil {
		return respondError(c, err, "User")
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "User deleted successfully",
	})
}

// removeUser deletes the account and announces the ratings its reviews
// leave behind.
func removeUser(c *fiber.Ctx, user *models.User) error {
	var ratings map[uint]float64
	if err := withTx(func(tx *gorm.DB) error {
		var err error
		ratings, err = accounts.DeleteUser(tx, user)
		return err
	}); err != nil {
		return err
	}

	removeUpload(user.ProfilePhoto)
	for productID, rating := range ratings {
		ratingChanged(c, productID, rating)
	}
	return nil
}
