package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/read1store/backoffice/internal/models"
	"github.com/read1store/backoffice/internal/repo"
	"github.com/read1store/backoffice/internal/service"
	"github.com/read1store/backoffice/internal/transport"
	"github.com/read1store/backoffice/internal/util"
	"github.com/read1store/backoffice/pkg/logging"
)

type OrderHTTP struct {
	Svc *service.OrderService
}

func (h *OrderHTTP) CreateOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.create")

	var req transport.CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("create_order_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	order, err := h.Svc.CreateOrder(ctx, req)
	if err != nil {
		return mapError(l, "create_order", err)
	}

	l.Info("create_order_success", "order_number", order.OrderNumber)
	return c.JSON(http.StatusCreated, order)
}

func (h *OrderHTTP) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.get")

	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	order, err := h.Svc.GetOrder(ctx, id)
	if err != nil {
		return mapError(l, "get_order", err)
	}
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHTTP) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.list")

	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	f := repo.OrderFilter{
		Status: models.OrderStatus(c.QueryParam("status")),
		Offset: offset,
		Limit:  limit,
	}
	if t, ok := parseTimeRFC3339(c.QueryParam("from")); ok {
		f.From = t
	}
	if t, ok := parseTimeRFC3339(c.QueryParam("to")); ok {
		f.To = t
	}

	total, orders, err := h.Svc.ListOrders(ctx, f)
	if err != nil {
		return mapError(l, "list_orders", err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data": orders,
		"meta": map[string]any{
			"page":  page,
			"size":  limit,
			"total": total,
		},
	})
}

func (h *OrderHTTP) AddItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.add_item")

	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var req transport.AddItemRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("add_item_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	item, err := h.Svc.AddItem(ctx, id, req.ProductID, req.Quantity)
	if err != nil {
		return mapError(l, "add_item", err)
	}
	return c.JSON(http.StatusCreated, item)
}

func (h *OrderHTTP) UpdateItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.update_item")

	itemID, err := paramID(c, "itemID")
	if err != nil {
		return err
	}

	var req transport.UpdateItemRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("update_item_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	item, err := h.Svc.UpdateItem(ctx, itemID, req.Quantity)
	if err != nil {
		return mapError(l, "update_item", err)
	}
	return c.JSON(http.StatusOK, item)
}

func (h *OrderHTTP) RemoveItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.remove_item")

	itemID, err := paramID(c, "itemID")
	if err != nil {
		return err
	}

	if err := h.Svc.RemoveItem(ctx, itemID); err != nil {
		return mapError(l, "remove_item", err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *OrderHTTP) Confirm(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.confirm")

	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	order, err := h.Svc.Confirm(ctx, id)
	if err != nil {
		return mapError(l, "confirm_order", err)
	}
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHTTP) Cancel(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.cancel")

	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	order, err := h.Svc.Cancel(ctx, id)
	if err != nil {
		return mapError(l, "cancel_order", err)
	}
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHTTP) SetStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.set_status")

	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var req transport.SetStatusRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("set_status_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	order, err := h.Svc.SetStatus(ctx, id, models.OrderStatus(req.Status))
	if err != nil {
		return mapError(l, "set_status", err)
	}
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHTTP) Stats(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.stats")

	stats, err := h.Svc.Stats(ctx)
	if err != nil {
		return mapError(l, "stats", err)
	}
	return c.JSON(http.StatusOK, stats)
}
