package validators

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// Validator adapts go-playground/validator to echo.Validator
type Validator struct {
	validate *validator.Validate
}

// NewValidator returns a Validator with the custom "gps" tag registered
func NewValidator() *Validator {
	v := validator.New()
	_ = v.RegisterValidation("gps", validateGPS)
	return &Validator{validate: v}
}

// Validate validates a struct and converts failures into 400 responses
func (v *Validator) Validate(i interface{}) error {
	if err := v.validate.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}
