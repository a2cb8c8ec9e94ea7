package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/ip-manager/internal/backoffice"
	"github.com/iliyamo/ip-manager/internal/handler"
	"github.com/iliyamo/ip-manager/internal/middleware"
	"github.com/iliyamo/ip-manager/internal/model"
	"github.com/iliyamo/ip-manager/internal/session"
)

type stubBackoffice struct{ handler.Backoffice }

func (stubBackoffice) Snapshot() backoffice.Snapshot { return backoffice.Snapshot{} }

type stubSessions struct{ handler.Sessions }

func (stubSessions) RestoreUser(ctx context.Context, userID string) (*session.Session, error) {
	return nil, nil
}

// roleFromHeader stands in for the session middleware.
func roleFromHeader(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		role := c.Request().Header.Get("X-Role")
		if role == "" {
			return c.NoContent(http.StatusUnauthorized)
		}
		c.Set(middleware.KeyRole, role)
		return next(c)
	}
}

func newServer() *echo.Echo {
	e := echo.New()
	b := handler.NewBackofficeHandler(stubBackoffice{}, nil)
	g := Guards{Session: roleFromHeader}
	RegisterRoutes(e)
	RegisterAuth(e, handler.NewAuthHandler("s", stubSessions{}, nil), g)
	RegisterBackoffice(e, b, g)
	RegisterAdmin(e, b, g)
	return e
}

func TestRoutesAreGuarded(t *testing.T) {
	e := newServer()
	cases := []struct {
		path, role string
		want       int
	}{
		{"/healthz", "", http.StatusOK},
		{"/v1/inventory", "", http.StatusUnauthorized},
		{"/v1/inventory", model.RoleStaff, http.StatusOK},
		{"/v1/settings", model.RoleStaff, http.StatusOK},
		{"/v1/users", model.RoleStaff, http.StatusForbidden},
		{"/v1/users", model.RoleAdmin, http.StatusOK},
		{"/v1/export", model.RoleStaff, http.StatusForbidden},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, tc.path, nil)
		if tc.role != "" {
			req.Header.Set("X-Role", tc.role)
		}
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		if rec.Code != tc.want {
			t.Errorf("GET %s as %q: %d, want %d", tc.path, tc.role, rec.Code, tc.want)
		}
	}
}

func TestSettingsWriteNeedsAdmin(t *testing.T) {
	e := newServer()
	req := httptest.NewRequest(http.MethodPut, "/v1/settings", nil)
	req.Header.Set("X-Role", model.RoleStaff)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("staff PUT /v1/settings: %d", rec.Code)
	}
}

func TestAllRoutesRegistered(t *testing.T) {
	want := map[string]bool{
		"POST /v1/auth/login": false, "POST /v1/auth/pin": false, "POST /v1/auth/logout": false,
		"GET /v1/me": false, "PUT /v1/account": false,
		"POST /v1/transactions": false, "DELETE /v1/inventory/:id": false,
		"GET /v1/reports/summary": false, "GET /v1/activity": false, "GET /v1/search": false,
		"POST /v1/import": false, "PUT /v1/users/:id": false,
	}
	for _, r := range newServer().Routes() {
		k := r.Method + " " + r.Path
		if _, ok := want[k]; ok {
			want[k] = true
		}
	}
	for k, seen := range want {
		if !seen {
			t.Errorf("route %s missing", k)
		}
	}
}
