package routes

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	"shopcatalog/catalog"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// respondError writes err as {"error": ...}. Domain errors are client
// errors; a missing row is reported as "<what> not found".
func respondError(c *fiber.Ctx, err error, what string) error {
	var dup *catalog.DuplicateError
	var inv *catalog.ValidationError
	switch {
	case errors.As(err, &dup), errors.As(err, &inv):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	case errors.Is(err, gorm.ErrRecordNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": what + " not found",
		})
	default:
		slog.Error("request failed", "method", c.Method(), "path", c.Path(), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Internal server error",
		})
	}
}

// parseBody decodes the JSON body into dst and validates it.
func parseBody(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return &catalog.ValidationError{Message: "Failed to parse request body: " + err.Error()}
	}
	if err := validate.Struct(dst); err != nil {
		return validationFailure(err)
	}
	return nil
}

func validationFailure(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &catalog.ValidationError{Message: err.Error()}
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s: failed %s=%s", jsonName(fe), fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s: failed %s", jsonName(fe), fe.Tag()))
		}
	}
	return &catalog.ValidationError{Field: jsonName(fieldErrs[0]), Message: strings.Join(msgs, "; ")}
}

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func jsonName(fe validator.FieldError) string {
	return fe.Field()
}

func requiredFields(missing []string) error {
	return &catalog.ValidationError{
		Field:   missing[0],
		Message: "These fields are required: " + strings.Join(missing, ", "),
	}
}
