// Package handler contains the HTTP handlers of the back-office API.
package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/ip-manager/internal/backoffice"
	"github.com/iliyamo/ip-manager/internal/ledger"
	"github.com/iliyamo/ip-manager/internal/repository"
	"github.com/iliyamo/ip-manager/internal/session"
)

// statusOf maps domain errors to HTTP status codes. Anything unknown is a
// server error.
func statusOf(err error) int {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, repository.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, backoffice.ErrInvalid):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrUserNotFound),
		errors.Is(err, session.ErrInvalidCredential),
		errors.Is(err, session.ErrNotAuthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ledger.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// fail writes err as a JSON error body. Server errors are logged and
// their details hidden from the client.
func fail(c echo.Context, log *zap.Logger, err error) error {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		log.Error("request failed",
			zap.String("method", c.Request().Method),
			zap.String("path", c.Path()),
			zap.Error(err))
		msg := "internal error"
		if status == http.StatusServiceUnavailable {
			msg = "store unavailable"
		}
		return c.JSON(status, echo.Map{"error": msg})
	}
	return c.JSON(status, echo.Map{"error": err.Error()})
}

func badBody(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
}
