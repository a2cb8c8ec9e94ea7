package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/ip-manager/internal/session"
)

// CurrentSession returns the session stored by RequireSession, or nil.
func CurrentSession(c echo.Context) *session.Session {
	s, _ := c.Get(KeySession).(*session.Session)
	return s
}

// CurrentUsername is the actor name written to the activity log. It is
// empty for unauthenticated requests.
func CurrentUsername(c echo.Context) string {
	if s := CurrentSession(c); s != nil {
		return s.User.Username
	}
	return ""
}

// userID returns the authenticated user's id, or "guest".
func userID(c echo.Context) string {
	if s, ok := c.Get(KeyUserID).(string); ok && s != "" {
		return s
	}
	return "guest"
}
