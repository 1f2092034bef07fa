package handlers

import (
	"math"
	"net/http"
	"strconv"

	"github.com/anonto42/findit/backend/internal/apperr"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// httpError converts a service error into an echo.HTTPError. Unknown errors
// are logged and hidden behind a generic 500.
func httpError(err error) error {
	status := apperr.StatusCode(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Msg("request failed")
		return echo.NewHTTPError(status, "Internal server error")
	}
	return echo.NewHTTPError(status, err.Error())
}

// bindAndValidate decodes the request body into req and runs the validator
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	return c.Validate(req)
}

func parseUintParam(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "Invalid "+name)
	}
	return uint(id), nil
}

// pagination reads page and limit query params with the usual bounds
func pagination(c echo.Context, defaultLimit, maxLimit int) (int, int) {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > maxLimit {
		limit = defaultLimit
	}
	return page, limit
}

func pageMeta(page, limit int, total int64) echo.Map {
	totalPages := int(math.Ceil(float64(total) / float64(limit)))
	return echo.Map{
		"currentPage":     page,
		"totalPages":      totalPages,
		"totalItems":      total,
		"itemsPerPage":    limit,
		"hasNextPage":     page < totalPages,
		"hasPreviousPage": page > 1,
	}
}

func ok(c echo.Context, status int, data interface{}) error {
	return c.JSON(status, echo.Map{"success": true, "data": data})
}
