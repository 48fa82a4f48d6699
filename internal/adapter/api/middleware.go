package api

import (
	"net/http"
	"strings"

	"github.com/burenotti/wearable_backend/internal/app/auth"
	"github.com/burenotti/wearable_backend/internal/domain/access"
	"github.com/labstack/echo/v4"
)

const KeyCurrentUser = "current_user"

func LoginRequired(authorizer *auth.Authorizer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			parts := strings.Split(header, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				return JsonError(c, http.StatusUnauthorized, "Invalid Authorization header")
			}
			user, err := authorizer.ValidateAccessToken(parts[1])
			if err != nil {
				return JsonError(c, http.StatusUnauthorized, err.Error())
			}
			c.Set(KeyCurrentUser, user)
			return next(c)
		}
	}
}

func currentUser(c echo.Context) *auth.AccessTokenData {
	return c.Get(KeyCurrentUser).(*auth.AccessTokenData)
}

func caller(c echo.Context) access.Caller {
	return currentUser(c).Caller()
}
