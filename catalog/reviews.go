package catalog

import (
	"errors"
	"fmt"
	"time"

	"shopcatalog/models"

	"gorm.io/gorm"
)

// RecomputeRating sets the product's rating to the mean of its stored
// reviews (0 without reviews) and returns the new value. It must run in
// the transaction of the review write that triggered it.
func RecomputeRating(tx *gorm.DB, productID uint) (float64, error) {
	var ratings []int
	if err := tx.Model(&models.Review{}).Where("product_id = ?", productID).Pluck("rating", &ratings).Error; err != nil {
		return 0, err
	}
	rating := MeanRating(ratings)
	if err := tx.Model(&models.Product{}).Where("id = ?", productID).Update("rating", rating).Error; err != nil {
		return 0, err
	}
	return rating, nil
}

// CreateReview inserts r once the (user, product) pair is known to be
// free, then refreshes the product rating.
func CreateReview(tx *gorm.DB, r *models.Review) (float64, error) {
	if err := ValidateRating(r.Rating); err != nil {
		return 0, err
	}

	var product models.Product
	if err := tx.Select("id").First(&product, r.ProductID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, invalidf("product", "product %d not found", r.ProductID)
		}
		return 0, err
	}

	var existing []models.Review
	if err := tx.Where("user_id = ? AND product_id = ?", r.UserID, r.ProductID).Find(&existing).Error; err != nil {
		return 0, err
	}
	if err := CheckReviewCreate(existing, r.UserID, r.ProductID); err != nil {
		return 0, err
	}

	if err := tx.Create(r).Error; err != nil {
		return 0, uniqueViolation(err, fmt.Sprintf("user %d has already reviewed product %d", r.UserID, r.ProductID))
	}
	return RecomputeRating(tx, r.ProductID)
}

// UpdateReview writes the rating and commentary of r. The user and
// product references are never written, whatever r carries.
func UpdateReview(tx *gorm.DB, r *models.Review) (float64, error) {
	if err := ValidateRating(r.Rating); err != nil {
		return 0, err
	}

	var stored models.Review
	if err := tx.First(&stored, r.ID).Error; err != nil {
		return 0, err
	}

	now := time.Now()
	if err := tx.Model(&models.Review{}).Where("id = ?", r.ID).Updates(map[string]any{
		"rating":     r.Rating,
		"commentary": r.Commentary,
		"updated_at": now,
	}).Error; err != nil {
		return 0, err
	}

	r.UserID = stored.UserID
	r.ProductID = stored.ProductID
	r.CreatedAt = stored.CreatedAt
	r.UpdatedAt = now
	return RecomputeRating(tx, stored.ProductID)
}

// DeleteReview removes r and refreshes its product's rating.
func DeleteReview(tx *gorm.DB, r *models.Review) (float64, error) {
	if err := tx.Delete(&models.Review{}, r.ID).Error; err != nil {
		return 0, err
	}
	return RecomputeRating(tx, r.ProductID)
}
