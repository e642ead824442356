// Package catalog holds the consistency rules of the product catalog:
// case-insensitive uniqueness of categories and properties, the
// one-name-per-product property rule, the one-review-per-user rule and
// the derived product rating.
package catalog

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// DuplicateError reports a uniqueness violation.
type DuplicateError struct {
	Message string
}

func (e *DuplicateError) Error() string { return e.Message }

// ValidationError reports a field-level failure.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func duplicatef(format string, args ...any) error {
	return &DuplicateError{Message: fmt.Sprintf(format, args...)}
}

func invalidf(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// IsDuplicate reports whether err is a DuplicateError.
func IsDuplicate(err error) bool {
	var dup *DuplicateError
	return errors.As(err, &dup)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var inv *ValidationError
	return errors.As(err, &inv)
}

// uniqueViolation converts a unique-index failure from the database into
// a DuplicateError carrying msg. Other errors pass through.
func uniqueViolation(err error, msg string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return &DuplicateError{Message: msg}
	}
	return err
}
