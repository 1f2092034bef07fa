package config

import (
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"
)

// multipartOverhead is headroom above MaxUploadBytes for form boundaries
// and the other fields of an upload request
const multipartOverhead = 1 << 20

// BodyLimitBytes is the largest request body the server accepts
func (c *Config) BodyLimitBytes() int64 {
	return c.MaxUploadBytes + multipartOverhead
}

// SetupMiddleware installs the global middleware chain: request id, zerolog
// request logging, panic recovery, body size limit and CORS. An empty origin
// list allows all.
func SetupMiddleware(e *echo.Echo, cfg *Config) {
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			event := log.Info()
			if v.Error != nil {
				event = log.Warn().Err(v.Error)
			}
			event.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit(strconv.FormatInt(cfg.BodyLimitBytes(), 10)))
	if len(cfg.AllowedOrigins) == 0 {
		e.Use(middleware.CORS())
	} else {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{AllowOrigins: cfg.AllowedOrigins}))
	}
}
