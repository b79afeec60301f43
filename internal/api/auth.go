package api

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"cart-service/internal/session"
)

const tokenContextKey = "user"

var errMissingSession = errors.New("missing session id")

// JWTMiddleware requires a HS256 bearer token whose subject identifies the cart session.
func JWTMiddleware(secret string) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		SigningKey: []byte(secret),
		ContextKey: tokenContextKey,
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return new(jwt.RegisteredClaims)
		},
	})
}

// session resolves the caller's session from the token subject, or from the Session-Id header.
func (h *CartHandler) session(c echo.Context) (*session.Session, error) {
	id := ""
	if token, ok := c.Get(tokenContextKey).(*jwt.Token); ok {
		if sub, err := token.Claims.GetSubject(); err == nil {
			id = sub
		}
	}
	if id == "" {
		id = c.Request().Header.Get(SessionHeader)
	}
	if id == "" {
		return nil, errMissingSession
	}
	return h.sessions.Get(c.Request().Context(), id), nil
}
