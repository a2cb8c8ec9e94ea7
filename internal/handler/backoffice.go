package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/ip-manager/internal/backoffice"
	"github.com/iliyamo/ip-manager/internal/ledger"
	"github.com/iliyamo/ip-manager/internal/middleware"
	"github.com/iliyamo/ip-manager/internal/model"
	"github.com/iliyamo/ip-manager/internal/notify"
	"github.com/iliyamo/ip-manager/internal/report"
)

// Backoffice is the part of *backoffice.Coordinator the API uses.
type Backoffice interface {
	Snapshot() backoffice.Snapshot

	CreateItem(ctx context.Context, actor string, in model.InventoryItem) (model.InventoryItem, error)
	UpdateItem(ctx context.Context, actor, id string, patch model.InventoryPatch) (model.InventoryItem, error)
	DeleteItem(ctx context.Context, actor, id string) error

	RecordSale(ctx context.Context, req ledger.SaleRequest) (ledger.Sale, error)
	UpdateTransaction(ctx context.Context, actor, id string, patch model.TransactionPatch) (model.Transaction, error)
	DeleteTransaction(ctx context.Context, actor, id string) error

	CreateUser(ctx context.Context, actor string, in backoffice.NewUser) (model.Profile, error)
	UpdateUser(ctx context.Context, actor, id string, in backoffice.UserUpdate) (model.Profile, error)
	DeleteUser(ctx context.Context, actor, id string) error

	CreateSupplier(ctx context.Context, actor string, in model.Supplier) (model.Supplier, error)
	UpdateSupplier(ctx context.Context, actor, id string, patch model.SupplierPatch) (model.Supplier, error)
	DeleteSupplier(ctx context.Context, actor, id string) error

	UpdateSettings(ctx context.Context, actor string, patch backoffice.SettingsPatch) (model.Settings, error)

	Notifications() notify.Summary
	Dashboard() report.Dashboard
	Report() report.Summary
	Search(q string) report.SearchResult
	Activity(ctx context.Context, limit int) ([]model.ActivityLogEntry, error)

	Export() backoffice.Export
	Import(ctx context.Context, actor string, doc backoffice.Export) error
}

// BackofficeHandler serves the inventory, sales, users, suppliers,
// settings and the derived views.
type BackofficeHandler struct {
	BO  Backoffice
	Log *zap.Logger
}

func NewBackofficeHandler(bo Backoffice, log *zap.Logger) *BackofficeHandler {
	if bo == nil {
		panic("nil coordinator passed to NewBackofficeHandler")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &BackofficeHandler{BO: bo, Log: log}
}

// ----- inventory -----

func (h *BackofficeHandler) ListInventory(c echo.Context) error {
	return c.JSON(http.StatusOK, h.BO.Snapshot().Inventory)
}

func (h *BackofficeHandler) CreateItem(c echo.Context) error {
	var in model.InventoryItem
	if err := c.Bind(&in); err != nil {
		return badBody(c)
	}
	it, err := h.BO.CreateItem(c.Request().Context(), middleware.CurrentUsername(c), in)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, it)
}

func (h *BackofficeHandler) UpdateItem(c echo.Context) error {
	var patch model.InventoryPatch
	if err := c.Bind(&patch); err != nil {
		return badBody(c)
	}
	it, err := h.BO.UpdateItem(c.Request().Context(), middleware.CurrentUsername(c), c.Param("id"), patch)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, it)
}

func (h *BackofficeHandler) DeleteItem(c echo.Context) error {
	if err := h.BO.DeleteItem(c.Request().Context(), middleware.CurrentUsername(c), c.Param("id")); err != nil {
		return fail(c, h.Log, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ----- transactions -----

func (h *BackofficeHandler) ListTransactions(c echo.Context) error {
	return c.JSON(http.StatusOK, h.BO.Snapshot().Transactions)
}

type saleResp struct {
	Transaction model.Transaction    `json:"transaction"`
	Item        *model.InventoryItem `json:"item,omitempty"`
	Warning     string               `json:"warning,omitempty"`
}

// RecordSale stores a sale. When the sale was stored but the stock could
// not be adjusted the response is still 201 and carries a warning.
func (h *BackofficeHandler) RecordSale(c echo.Context) error {
	var req ledger.SaleRequest
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	req.Actor = middleware.CurrentUsername(c)

	sale, err := h.BO.RecordSale(c.Request().Context(), req)
	resp := saleResp{Transaction: sale.Transaction, Item: sale.Item}
	switch {
	case errors.Is(err, ledger.ErrPartialWrite):
		resp.Warning = err.Error()
	case err != nil:
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, resp)
}

func (h *BackofficeHandler) UpdateTransaction(c echo.Context) error {
	var patch model.TransactionPatch
	if err := c.Bind(&patch); err != nil {
		return badBody(c)
	}
	tx, err := h.BO.UpdateTransaction(c.Request().Context(), middleware.CurrentUsername(c), c.Param("id"), patch)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, tx)
}

func (h *BackofficeHandler) DeleteTransaction(c echo.Context) error {
	if err := h.BO.DeleteTransaction(c.Request().Context(), middleware.CurrentUsername(c), c.Param("id")); err != nil {
		return fail(c, h.Log, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ----- users -----

func (h *BackofficeHandler) ListUsers(c echo.Context) error {
	return c.JSON(http.StatusOK, h.BO.Snapshot().Users)
}

func (h *BackofficeHandler) CreateUser(c echo.Context) error {
	var in backoffice.NewUser
	if err := c.Bind(&in); err != nil {
		return badBody(c)
	}
	p, err := h.BO.CreateUser(c.Request().Context(), middleware.CurrentUsername(c), in)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *BackofficeHandler) UpdateUser(c echo.Context) error {
	var in backoffice.UserUpdate
	if err := c.Bind(&in); err != nil {
		return badBody(c)
	}
	p, err := h.BO.UpdateUser(c.Request().Context(), middleware.CurrentUsername(c), c.Param("id"), in)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *BackofficeHandler) DeleteUser(c echo.Context) error {
	id := c.Param("id")
	if s := middleware.CurrentSession(c); s != nil && s.User.ID == id {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot delete the signed-in user"})
	}
	if err := h.BO.DeleteUser(c.Request().Context(), middleware.CurrentUsername(c), id); err != nil {
		return fail(c, h.Log, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ----- suppliers -----

func (h *BackofficeHandler) ListSuppliers(c echo.Context) error {
	return c.JSON(http.StatusOK, h.BO.Snapshot().Suppliers)
}

func (h *BackofficeHandler) CreateSupplier(c echo.Context) error {
	var in model.Supplier
	if err := c.Bind(&in); err != nil {
		return badBody(c)
	}
	s, err := h.BO.CreateSupplier(c.Request().Context(), middleware.CurrentUsername(c), in)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, s)
}

func (h *BackofficeHandler) UpdateSupplier(c echo.Context) error {
	var patch model.SupplierPatch
	if err := c.Bind(&patch); err != nil {
		return badBody(c)
	}
	s, err := h.BO.UpdateSupplier(c.Request().Context(), middleware.CurrentUsername(c), c.Param("id"), patch)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, s)
}

func (h *BackofficeHandler) DeleteSupplier(c echo.Context) error {
	if err := h.BO.DeleteSupplier(c.Request().Context(), middleware.CurrentUsername(c), c.Param("id")); err != nil {
		return fail(c, h.Log, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ----- settings -----

func (h *BackofficeHandler) GetSettings(c echo.Context) error {
	return c.JSON(http.StatusOK, h.BO.Snapshot().Settings)
}

func (h *BackofficeHandler) UpdateSettings(c echo.Context) error {
	var patch backoffice.SettingsPatch
	if err := c.Bind(&patch); err != nil {
		return badBody(c)
	}
	s, err := h.BO.UpdateSettings(c.Request().Context(), middleware.CurrentUsername(c), patch)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, s)
}

// ----- derived views -----

func (h *BackofficeHandler) Notifications(c echo.Context) error {
	return c.JSON(http.StatusOK, h.BO.Notifications())
}

func (h *BackofficeHandler) Dashboard(c echo.Context) error {
	return c.JSON(http.StatusOK, h.BO.Dashboard())
}

func (h *BackofficeHandler) Report(c echo.Context) error {
	return c.JSON(http.StatusOK, h.BO.Report())
}

func (h *BackofficeHandler) Search(c echo.Context) error {
	return c.JSON(http.StatusOK, h.BO.Search(c.QueryParam("q")))
}

// Activity lists recent activity; ?limit defaults to 100.
func (h *BackofficeHandler) Activity(c echo.Context) error {
	limit := 0
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "limit must be a non-negative integer"})
		}
		limit = n
	}
	logs, err := h.BO.Activity(c.Request().Context(), limit)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, logs)
}

// ----- export / import -----

func (h *BackofficeHandler) Export(c echo.Context) error {
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="ip-manager-export.json"`)
	return c.JSON(http.StatusOK, h.BO.Export())
}

func (h *BackofficeHandler) Import(c echo.Context) error {
	var doc backoffice.Export
	if err := c.Bind(&doc); err != nil {
		return badBody(c)
	}
	if err := h.BO.Import(c.Request().Context(), middleware.CurrentUsername(c), doc); err != nil {
		return fail(c, h.Log, err)
	}
	return c.NoContent(http.StatusNoContent)
}
