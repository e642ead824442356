package catalog

import (
	"shopcatalog/models"
)

// SameFold reports whether a and b are equal under case folding only.
func SameFold(a, b string) bool {
	return models.Fold(a) == models.Fold(b)
}

// CheckCategoryName fails when candidate's name matches an existing
// category other than candidate itself.
func CheckCategoryName(existing []models.Category, candidate models.Category) error {
	for _, c := range existing {
		if c.ID == candidate.ID && candidate.ID != 0 {
			continue
		}
		if SameFold(c.Name, candidate.Name) {
			return duplicatef("category with name %q already exists", c.Name)
		}
	}
	return nil
}

// CheckPropertyPair fails when candidate's (name, value) pair matches an
// existing property other than candidate itself.
func CheckPropertyPair(existing []models.Property, candidate models.Property) error {
	for _, p := range existing {
		if p.ID == candidate.ID && candidate.ID != 0 {
			continue
		}
		if SameFold(p.Name, candidate.Name) && SameFold(p.Value, candidate.Value) {
			return duplicatef("property %s=%s already exists", p.Name, p.Value)
		}
	}
	return nil
}

// CheckAddition fails when any two properties of current and incoming share
// a folded name. incoming is checked in order so the error names the
// first offending property.
func CheckAddition(current, incoming []models.Property) error {
	seen := make(map[string]struct{}, len(current)+len(incoming))
	for _, p := range current {
		seen[models.Fold(p.Name)] = struct{}{}
	}
	for _, p := range incoming {
		key := models.Fold(p.Name)
		if _, ok := seen[key]; ok {
			return duplicatef("Product can have only one property with the same name (%s)!", p.Name)
		}
		seen[key] = struct{}{}
	}
	return nil
}

// CheckReviewCreate fails when existing already holds a review by userID
// for productID.
func CheckReviewCreate(existing []models.Review, userID, productID uint) error {
	for _, r := range existing {
		if r.UserID == userID && r.ProductID == productID {
			return duplicatef("user %d has already reviewed product %d", userID, productID)
		}
	}
	return nil
}

// MeanRating is the arithmetic mean of the review ratings, 0 when there
// are none.
func MeanRating(ratings []int) float64 {
	if len(ratings) == 0 {
		return 0
	}
	sum := 0
	for _, r := range ratings {
		sum += r
	}
	return float64(sum) / float64(len(ratings))
}

// ValidateProduct checks the field bounds of a product.
func ValidateProduct(p models.Product) error {
	if !p.Price.IsPositive() {
		return invalidf("price", "price must be greater than 0")
	}
	if p.Stock < 0 {
		return invalidf("stock", "stock must be greater than or equal to 0")
	}
	return nil
}

// ValidateRating checks a review rating lies in [1, 5].
func ValidateRating(rating int) error {
	if rating < 1 || rating > 5 {
		return invalidf("rating", "rating must be between 1 and 5")
	}
	return nil
}
