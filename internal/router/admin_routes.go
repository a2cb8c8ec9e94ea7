package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/ip-manager/internal/handler"
	"github.com/iliyamo/ip-manager/internal/middleware"
	"github.com/iliyamo/ip-manager/internal/model"
)

// RegisterAdmin registers Admin-only endpoints under /v1: user
// management and the full data export and import.
func RegisterAdmin(e *echo.Echo, b *handler.BackofficeHandler, g Guards) {
	mws := append(chain(g.Session), middleware.RequireRole(model.RoleAdmin))
	mws = append(mws, chain(g.Invalidate)...)
	admin := e.Group("/v1", mws...)

	// ---- Users ----
	admin.GET("/users", b.ListUsers)
	admin.POST("/users", b.CreateUser)
	admin.PUT("/users/:id", b.UpdateUser)
	admin.DELETE("/users/:id", b.DeleteUser)

	// ---- Export / import ----
	admin.GET("/export", b.Export)
	admin.POST("/import", b.Import)
}
