package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/burenotti/wearable_backend/internal/app/unitofwork"
	"github.com/burenotti/wearable_backend/internal/domain"
	"github.com/labstack/echo/v4"
)

type JsonErrorModel struct {
	Message string `json:"message"`
}

func JsonError(c echo.Context, status int, content any) error {
	data := &JsonErrorModel{Message: fmt.Sprintf("%v", content)}
	return c.JSON(status, data)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// ServiceError writes err returned by an application service. Internal
// failures are logged and reported without details.
func (s *Server) ServiceError(c echo.Context, err error) error {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "path", c.Path(), "error", err)
		return JsonError(c, status, "internal server error")
	}
	return JsonError(c, status, rootMessage(err))
}

// rootMessage strips the unit of work prefix from service errors.
func rootMessage(err error) string {
	return strings.TrimPrefix(err.Error(), unitofwork.ErrRollback.Error()+": ")
}
