package validators

import (
	"github.com/anonto42/findit/backend/pkg/geo"
	"github.com/go-playground/validator/v10"
)

// validateGPS accepts "lat,lng" strings inside WGS84 bounds
func validateGPS(fl validator.FieldLevel) bool {
	_, err := geo.ParseCoordinate(fl.Field().String())
	return err == nil
}
