package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/read1store/backoffice/internal/service"
	"github.com/read1store/backoffice/internal/transport"
	"github.com/read1store/backoffice/pkg/logging"
)

type CategoryHTTP struct {
	Svc *service.CatalogService
}

func (h *CategoryHTTP) GetCategories(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "category.list")

	items, err := h.Svc.GetCategories(ctx)
	if err != nil {
		return mapError(l, "list_categories", err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *CategoryHTTP) CreateCategory(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "category.create")

	var req transport.CreateCategoryRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("create_category_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	cat, err := h.Svc.CreateCategory(ctx, req)
	if err != nil {
		return mapError(l, "create_category", err)
	}
	return c.JSON(http.StatusCreated, cat)
}

func (h *CategoryHTTP) PatchCategory(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "category.patch")

	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var req transport.PatchCategoryRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("patch_category_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	cat, err := h.Svc.PatchCategory(ctx, id, req)
	if err != nil {
		return mapError(l, "patch_category", err)
	}
	return c.JSON(http.StatusOK, cat)
}

func (h *CategoryHTTP) DeleteCategory(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "category.delete")

	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	if err := h.Svc.DeleteCategory(ctx, id); err != nil {
		return mapError(l, "delete_category", err)
	}
	return c.NoContent(http.StatusNoContent)
}
