package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"net/http" // HTTP status codes for responses
	"strings"  // string utilities for prefix checking and trimming

	"github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers

	"github.com/iliyamo/note-keeper/internal/utils"
)

// JWTAuth returns an Echo middleware that validates a Bearer access token and
// injects the acting user's identity into the request context. The provided
// secret must match the one used when issuing tokens. Handlers behind this
// middleware read the identity via `c.Get("user_id")` (uint64) and
// `c.Get("email")` (string).
//
// A missing or malformed Authorization header, a bad signature, a token
// signed with an unexpected algorithm and a passed expiry all yield the same
// 401 response; the client learns only that the token was not accepted.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			claims, err := utils.ParseAccessToken(secret, raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}

			// Normalize the identity once here so handlers never deal with
			// raw claim types.
			c.Set("user_id", claims.UserID)
			c.Set("email", claims.Email)
			return next(c)
		}
	}
}
