package routes

import (
	"strings"

	"shopcatalog/db"
	"shopcatalog/models"

	"github.com/gofiber/fiber/v2"
)

const userKey = "user"

// optionalAuth loads the user named by a bearer token. Requests without
// an Authorization header continue anonymously; a bad token is a 401.
func optionalAuth(c *fiber.Ctx) error {
	header := c.Get(fiber.HeaderAuthorization)
	if header == "" {
		return c.Next()
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid Authorization header",
		})
	}

	userID, err := tokens.Parse(parts[1])
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid or expired token",
		})
	}

	var user models.User
	if err := db.DB.Preload("Address").First(&user, userID).Error; err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid or expired token",
		})
	}
	c.Locals(userKey, &user)
	return c.Next()
}

func currentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(userKey).(*models.User)
	return user
}

func authRequired(c *fiber.Ctx) error {
	if currentUser(c) == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication credentials were not provided.",
		})
	}
	return c.Next()
}

func staffRequired(c *fiber.Ctx) error {
	user := currentUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication credentials were not provided.",
		})
	}
	if !user.IsStaff {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "You do not have permission to perform this action.",
		})
	}
	return c.Next()
}
