package handlers

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	errx "github.com/synapse-ia/salesagent/internal/core/error"
)

// writeError sends the public part of err with the status it carries.
func writeError(c *fiber.Ctx, err error) error {
	status := errx.StatusOf(err, fiber.StatusInternalServerError)
	return c.Status(status).JSON(fiber.Map{
		"error": errx.MessageOf(err, errx.SystemErrorMessage),
	})
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": message})
}

var validate = newValidator()

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateRequest checks the struct tags of req and returns a client-facing message.
func validateRequest(req any) (string, bool) {
	err := validate.Struct(req)
	if err == nil {
		return "", true
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "invalid request body", false
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		switch e.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", e.Field()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s must satisfy %s=%s", e.Field(), e.Tag(), e.Param()))
		}
	}
	return strings.Join(msgs, "; "), false
}
