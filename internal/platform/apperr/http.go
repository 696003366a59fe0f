package apperr

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// HTTPError maps a taxonomy error onto an echo HTTPError. Handlers call this
// instead of hand-picking status codes per endpoint.
func HTTPError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrDanglingReference):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrDuplicate), errors.Is(err, ErrConcurrentModification):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrInvalidTransition):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, ErrValidation), errors.Is(err, ErrOutOfRange),
		errors.Is(err, ErrUnknownReferenceTarget):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrExternalService):
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
