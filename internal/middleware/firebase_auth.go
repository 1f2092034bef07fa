package middleware

import (
	"context"
	"net/http"
	"strings"

	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// Context keys set by FirebaseAuthMiddleware
const (
	ContextUID   = "firebaseUID"
	ContextToken = "firebaseToken"
)

// TokenVerifier verifies Firebase ID tokens; *auth.Client implements it
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// FirebaseAuthMiddleware creates an Echo middleware to verify Firebase ID tokens.
// Browsers cannot set headers on websocket upgrades, so a "token" query
// parameter is accepted as well.
func FirebaseAuthMiddleware(verifier TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			idToken, err := bearerToken(c)
			if err != nil {
				return err
			}

			token, err := verifier.VerifyIDToken(c.Request().Context(), idToken)
			if err != nil {
				log.Debug().Err(err).Msg("rejected firebase id token")
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired ID token")
			}

			c.Set(ContextUID, token.UID)
			c.Set(ContextToken, token)
			return next(c)
		}
	}
}

func bearerToken(c echo.Context) (string, error) {
	authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
	if authHeader == "" {
		if q := c.QueryParam("token"); q != "" {
			return q, nil
		}
		return "", echo.NewHTTPError(http.StatusUnauthorized, "Authorization header is missing")
	}

	tokenParts := strings.Split(authHeader, " ")
	if len(tokenParts) != 2 || strings.ToLower(tokenParts[0]) != "bearer" || tokenParts[1] == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "Authorization header must be in Bearer format")
	}
	return tokenParts[1], nil
}

// UserID returns the Firebase UID stored by FirebaseAuthMiddleware
func UserID(c echo.Context) (string, error) {
	uid, ok := c.Get(ContextUID).(string)
	if !ok || uid == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	return uid, nil
}

// Token returns the verified ID token stored by FirebaseAuthMiddleware
func Token(c echo.Context) *auth.Token {
	token, _ := c.Get(ContextToken).(*auth.Token)
	return token
}

// IsAdmin reports whether the verified token carries the "admin" custom claim
func IsAdmin(c echo.Context) bool {
	token := Token(c)
	if token == nil {
		return false
	}
	admin, _ := token.Claims["admin"].(bool)
	return admin
}
