// Package middleware contains the Echo middleware shared by the API routes.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/ip-manager/internal/session"
	"github.com/iliyamo/ip-manager/internal/utils"
)

// Context keys set by RequireSession.
const (
	KeyUserID  = "user_id"
	KeyRole    = "role"
	KeySession = "session"
)

// SessionRestorer loads the live session of a user. *session.Manager
// satisfies it.
type SessionRestorer interface {
	RestoreUser(ctx context.Context, userID string) (*session.Session, error)
}

// RequireSession validates a Bearer access token and checks that the
// session it was issued for is still the user's live session. A logout,
// a newer login or the end of the session's hour all invalidate the
// token. On success the user id, role and session are stored in the
// context.
func RequireSession(secret string, sessions SessionRestorer, log *zap.Logger) echo.MiddlewareFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			claims, err := utils.ParseAccessToken(secret, strings.TrimPrefix(auth, "Bearer "))
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}

			s, err := sessions.RestoreUser(c.Request().Context(), claims.Subject)
			if err != nil {
				log.Error("restore session", zap.String("user_id", claims.Subject), zap.Error(err))
				return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "session store unavailable"})
			}
			if s == nil || s.ID != claims.SessionID {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "session expired"})
			}

			c.Set(KeyUserID, s.User.ID)
			c.Set(KeyRole, s.User.Role)
			c.Set(KeySession, s)
			return next(c)
		}
	}
}
