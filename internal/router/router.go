// Package router registers the HTTP routes of the API.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/ip-manager/internal/handler"
	"github.com/iliyamo/ip-manager/internal/middleware"
	"github.com/iliyamo/ip-manager/internal/model"
)

// Guards are the middleware chains shared by the route groups. Nil
// fields are skipped.
type Guards struct {
	// Session authenticates a request; required on every /v1 group
	// except /v1/auth.
	Session echo.MiddlewareFunc
	// LoginLimit throttles the login endpoints per client IP.
	LoginLimit echo.MiddlewareFunc
	// Cache serves repeated reads of the derived views.
	Cache echo.MiddlewareFunc
	// Invalidate drops cached views after a successful write.
	Invalidate echo.MiddlewareFunc
}

func chain(mws ...echo.MiddlewareFunc) []echo.MiddlewareFunc {
	out := make([]echo.MiddlewareFunc, 0, len(mws))
	for _, m := range mws {
		if m != nil {
			out = append(out, m)
		}
	}
	return out
}

// RegisterRoutes registers routes that do not require authentication.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers login and logout under /v1/auth and the account
// endpoints of the signed-in user under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, g Guards) {
	auth := e.Group("/v1/auth")
	auth.POST("/login", a.Login, chain(g.LoginLimit)...)
	auth.POST("/pin", a.Pin, chain(g.LoginLimit)...)
	// Logout verifies the token itself so an expired session can still
	// log out.
	auth.POST("/logout", a.Logout)

	me := e.Group("/v1", chain(g.Session)...)
	me.GET("/me", a.Me)
	me.PUT("/account", a.Account, chain(g.Invalidate)...)
}

// RegisterBackoffice registers the inventory, sales, supplier, settings
// and view endpoints. Every route needs a session; writing settings needs
// the Admin role.
func RegisterBackoffice(e *echo.Echo, b *handler.BackofficeHandler, g Guards) {
	v1 := e.Group("/v1", chain(g.Session, g.Invalidate)...)

	// ---- Inventory ----
	v1.GET("/inventory", b.ListInventory)
	v1.POST("/inventory", b.CreateItem)
	v1.PUT("/inventory/:id", b.UpdateItem)
	v1.DELETE("/inventory/:id", b.DeleteItem)

	// ---- Transactions ----
	v1.GET("/transactions", b.ListTransactions)
	v1.POST("/transactions", b.RecordSale)
	v1.PUT("/transactions/:id", b.UpdateTransaction)
	v1.DELETE("/transactions/:id", b.DeleteTransaction)

	// ---- Suppliers ----
	v1.GET("/suppliers", b.ListSuppliers)
	v1.POST("/suppliers", b.CreateSupplier)
	v1.PUT("/suppliers/:id", b.UpdateSupplier)
	v1.DELETE("/suppliers/:id", b.DeleteSupplier)

	// ---- Settings ----
	v1.GET("/settings", b.GetSettings)
	v1.PUT("/settings", b.UpdateSettings, middleware.RequireRole(model.RoleAdmin))

	// ---- Derived views ----
	views := chain(g.Cache)
	v1.GET("/notifications", b.Notifications, views...)
	v1.GET("/dashboard", b.Dashboard, views...)
	v1.GET("/reports/summary", b.Report, views...)
	v1.GET("/search", b.Search, views...)
	v1.GET("/activity", b.Activity)
}
