package validator

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/metinatakli/seat-reservation-engine/internal/domain"
)

func NewValidator() *validator.Validate {
	validator := validator.New(validator.WithRequiredStructEnabled())

	// report fields by their JSON names
	validator.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	validator.RegisterValidation("seat_id", validateSeatID)
	validator.RegisterValidation("show_date", validateLayout(domain.ShowDateLayout))
	validator.RegisterValidation("show_time", validateLayout(domain.ShowTimeLayout))

	return validator
}

func validateSeatID(fl validator.FieldLevel) bool {
	_, _, err := domain.ParseSeatID(fl.Field().String())
	return err == nil
}

func validateLayout(layout string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		_, err := time.Parse(layout, fl.Field().String())
		return err == nil
	}
}

// ValidationMessage converts validator errors into readable messages
func ValidationMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must contain at least %s item(s)", err.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters long", err.Param())
	case "seat_id":
		return "must be a seat label such as C4"
	case "show_date":
		return fmt.Sprintf("must be a date formatted as %s", domain.ShowDateLayout)
	case "show_time":
		return fmt.Sprintf("must be a time formatted as %s", domain.ShowTimeLayout)
	default:
		return "is invalid"
	}
}
