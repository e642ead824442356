package routes

import (
	"strconv"

	"shopcatalog/catalog"
	"shopcatalog/db"
	"shopcatalog/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type reviewRequest struct {
	Product    *uint   `json:"product"`
	Rating     *int    `json:"rating"`
	Commentary *string `json:"commentary"`
}

// getAllReviews filters by product and user and orders by rating or
// created_at.
func getAllReviews(c *fiber.Ctx) error {
	skip, limit, err := pagination(c)
	if err != nil {
		return respondError(c, err, "Review")
	}
	order, err := ordering(c.Query("ordering"), "rating", "created_at")
	if err != nil {
		return respondError(c, err, "Review")
	}

	query := db.DB.Model(&models.Review{})
	for _, filter := range []string{"product", "user"} {
		raw := c.Query(filter)
		if raw == "" {
			continue
		}
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return respondError(c, &catalog.ValidationError{Field: filter, Message: "Invalid " + filter + " parameter"}, "Review")
		}
		query = query.Where(filter+"_id = ?", id)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return respondError(c, err, "Review")
	}

	list := query.Session(&gorm.Session{})
	if order != "" {
		list = list.Order(order)
	}
	var reviews []models.Review
	if err := paginate(list.Order("id"), skip, limit).Find(&reviews).Error; err != nil {
		return respondError(c, err, "Review")
	}

	return c.JSON(fiber.Map{
		"reviews": reviews,
		"total":   total,
		"skip":    skip,
		"limit":   limit,
	})
}

func getReview(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err, "Review")
	}
	var review models.Review
	if err := db.DB.First(&review, id).Error; err != nil {
		return respondError(c, err, "Review")
	}
	return c.JSON(review)
}

func createReview(c *fiber.Ctx) error {
	var req reviewRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err, "Review")
	}
	var missing []string
	if req.Product == nil {
		missing = append(missing, "product")
	}
	if req.Rating == nil {
		missing = append(missing, "rating")
	}
	if len(missing) > 0 {
		return respondError(c, requiredFields(missing), "Review")
	}

	review := models.Review{
		UserID:    currentUser(c).ID,
		ProductID: *req.Product,
		Rating:    *req.Rating,
	}
	if req.Commentary != nil {
		review.Commentary = *req.Commentary
	}

	var rating float64
	if err := withTx(func(tx *gorm.DB) error {
		var err error
		rating, err = catalog.CreateReview(tx, &review)
		return err
	}); err != nil {
		return respondError(c, err, "Review")
	}

	ratingChanged(c, review.ProductID, rating)
	return c.Status(fiber.StatusCreated).JSON(review)
}

func updateReview(c *fiber.Ctx) error {
	return saveReview(c, false)
}

func patchReview(c *fiber.Ctx) error {
	return saveReview(c, true)
}

// saveReview changes rating and commentary. A product in the body is
// accepted and ignored; reviews never move between products.
func saveReview(c *fiber.Ctx, partial bool) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err, "Review")
	}
	var req reviewRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err, "Review")
	}
	if !partial && req.Rating == nil {
		return respondError(c, requiredFields([]string{"rating"}), "Review")
	}

	var review models.Review
	var rating float64
	if err := withTx(func(tx *gorm.DB) error {
		if err := ownReview(tx, c, id, &review); err != nil {
			return err
		}
		if req.Rating != nil {
			review.Rating = *req.Rating
		}
		if req.Commentary != nil {
			review.Commentary = *req.Commentary
		}
		var err error
		rating, err = catalog.UpdateReview(tx, &review)
		return err
	}); err != nil {
		return respondError(c, err, "Review")
	}

	ratingChanged(c, review.ProductID, rating)
	return c.JSON(review)
}

// deleteReview lets authors remove their review and staff remove any.
func deleteReview(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err, "Review")
	}

	var review models.Review
	var rating float64
	if err := withTx(func(tx *gorm.DB) error {
		if currentUser(c).IsStaff {
			if err := tx.First(&review, id).Error; err != nil {
				return err
			}
		} else if err := ownReview(tx, c, id, &review); err != nil {
			return err
		}
		var err error
		rating, err = catalog.DeleteReview(tx, &review)
		return err
	}); err != nil {
		return respondError(c, err, "Review")
	}

	ratingChanged(c, review.ProductID, rating)
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Review deleted successfully",
	})
}

// ownReview loads the review only if the current user wrote it; anybody
// else's review does not exist for them.
func ownReview(tx *gorm.DB, c *fiber.Ctx, id uint, review *models.Review) error {
	return tx.Where("id = ? AND user_id = ?", id, currentUser(c).ID).First(review).Error
}

func ratingChanged(c *fiber.Ctx, productID uint, rating float64) {
	invalidateProducts(c, productID)
	feed.PublishRating(productID, rating)
}
