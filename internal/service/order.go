package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/read1store/backoffice/internal/models"
	"github.com/read1store/backoffice/internal/repo"
	"github.com/read1store/backoffice/internal/transport"
	"github.com/read1store/backoffice/pkg/logging"
)

type OrderService struct {
	Repo   *repo.GormRepo
	Events EventPublisher
	Now    func() time.Time
}

func (s *OrderService) timeNow() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// CreateOrder opens a pending order and assigns its order number from the
// per-day sequence. Items passed along are added in the same transaction.
func (s *OrderService) CreateOrder(ctx context.Context, req transport.CreateOrderRequest) (*models.Order, error) {
	if req.CustomerName == "" {
		return nil, fmt.Errorf("%w: customer_name required", ErrValidation)
	}
	for i := range req.Items {
		if req.Items[i].Quantity < 1 {
			return nil, fmt.Errorf("%w: quantity must be >= 1", ErrValidation)
		}
	}

	now := s.timeNow()
	order := &models.Order{
		CustomerName:     req.CustomerName,
		CustomerEmail:    req.CustomerEmail,
		CustomerPhone:    req.CustomerPhone,
		CustomerWhatsapp: req.CustomerWhatsapp,
		ShippingAddress:  req.ShippingAddress,
		Notes:            req.Notes,
		Status:           models.OrderStatusPending,
		TotalAmount:      decimal.Zero,
	}

	err := s.Repo.WithinTx(ctx, func(tx *repo.GormRepo) error {
		seq, err := tx.NextOrderSequence(ctx, now.Format("20060102"))
		if err != nil {
			return err
		}
		order.OrderNumber = fmt.Sprintf("ORD-%s-%04d", now.Format("20060102"), seq)

		if err := tx.CreateOrder(ctx, order); err != nil {
			return err
		}

		for _, it := range req.Items {
			item, err := s.addItemTx(ctx, tx, order, it.ProductID, it.Quantity)
			if err != nil {
				return err
			}
			order.Items = append(order.Items, *item)
		}
		if len(req.Items) > 0 {
			return s.recalcTotalTx(ctx, tx, order)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, order.OrderNumber, map[string]any{
		"type":         "order_created",
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
	})
	return order, nil
}

func (s *OrderService) GetOrder(ctx context.Context, id uint) (*models.Order, error) {
	order, err := s.Repo.GetOrder(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: order %d", ErrNotFound, id)
	}
	return order, err
}

func (s *OrderService) ListOrders(ctx context.Context, f repo.OrderFilter) (int64, []models.Order, error) {
	if f.Status != "" && !f.Status.Valid() {
		return 0, nil, fmt.Errorf("%w: unknown status %q", ErrValidation, f.Status)
	}
	return s.Repo.ListOrders(ctx, f)
}

// AddItem snapshots the product into a new order item and recomputes the
// order total, all in one transaction.
func (s *OrderService) AddItem(ctx context.Context, orderID, productID uint, quantity int) (*models.OrderItem, error) {
	if quantity < 1 {
		return nil, fmt.Errorf("%w: quantity must be >= 1", ErrValidation)
	}

	var item *models.OrderItem
	err := s.Repo.WithinTx(ctx, func(tx *repo.GormRepo) error {
		order, err := tx.GetOrder(ctx, orderID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: order %d", ErrNotFound, orderID)
		}
		if err != nil {
			return err
		}

		item, err = s.addItemTx(ctx, tx, order, productID, quantity)
		if err != nil {
			return err
		}
		return s.recalcTotalTx(ctx, tx, order)
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *OrderService) addItemTx(ctx context.Context, tx *repo.GormRepo, order *models.Order, productID uint, quantity int) (*models.OrderItem, error) {
	prod, err := tx.GetProduct(ctx, productID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: product %d", ErrNotFound, productID)
	}
	if err != nil {
		return nil, err
	}

	pid := prod.ID
	item := &models.OrderItem{
		OrderID:     order.ID,
		ProductID:   &pid,
		ProductName: prod.Name,
		ProductSKU:  prod.SKU,
		Quantity:    quantity,
		UnitPrice:   prod.Price,
		Subtotal:    prod.Price.Mul(decimal.NewFromInt(int64(quantity))),
		ProductSnapshot: &models.ProductSnapshot{
			ID:             prod.ID,
			Name:           prod.Name,
			SKU:            prod.SKU,
			Price:          prod.Price,
			Specifications: prod.Specifications,
			FeaturedImage:  prod.FeaturedImage,
		},
	}
	if err := tx.CreateOrderItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// UpdateItem changes an item's quantity. Subtotal is always recomputed from
// quantity and the captured unit price; it is never settable directly.
func (s *OrderService) UpdateItem(ctx context.Context, itemID uint, quantity int) (*models.OrderItem, error) {
	if quantity < 1 {
		return nil, fmt.Errorf("%w: quantity must be >= 1", ErrValidation)
	}

	var item *models.OrderItem
	err := s.Repo.WithinTx(ctx, func(tx *repo.GormRepo) error {
		var err error
		item, err = tx.GetOrderItem(ctx, itemID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: order item %d", ErrNotFound, itemID)
		}
		if err != nil {
			return err
		}

		item.Quantity = quantity
		item.Subtotal = item.UnitPrice.Mul(decimal.NewFromInt(int64(quantity)))
		if err := tx.SaveOrderItem(ctx, item); err != nil {
			return err
		}

		order, err := tx.GetOrder(ctx, item.OrderID)
		if err != nil {
			return err
		}
		return s.recalcTotalTx(ctx, tx, order)
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *OrderService) RemoveItem(ctx context.Context, itemID uint) error {
	return s.Repo.WithinTx(ctx, func(tx *repo.GormRepo) error {
		item, err := tx.GetOrderItem(ctx, itemID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: order item %d", ErrNotFound, itemID)
		}
		if err != nil {
			return err
		}

		if err := tx.DeleteOrderItem(ctx, itemID); err != nil {
			return err
		}

		order, err := tx.GetOrder(ctx, item.OrderID)
		if err != nil {
			return err
		}
		return s.recalcTotalTx(ctx, tx, order)
	})
}

// Confirm moves a pending order to confirmed and decrements stock for every
// item whose product still exists. A decrement that would drive stock
// negative is skipped and logged; the order is confirmed regardless. That
// mirrors the store's long-standing behaviour and is asserted by tests, so
// don't "fix" it here without changing the contract.
func (s *OrderService) Confirm(ctx context.Context, orderID uint) (*models.Order, error) {
	l := logging.FromContext(ctx).With("svc", "order.confirm", "order_id", orderID)

	var order *models.Order
	err := s.Repo.WithinTx(ctx, func(tx *repo.GormRepo) error {
		var err error
		order, err = tx.GetOrder(ctx, orderID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: order %d", ErrNotFound, orderID)
		}
		if err != nil {
			return err
		}

		if order.Status != models.OrderStatusPending {
			return fmt.Errorf("%w: cannot confirm %s order", ErrConflict, order.Status)
		}

		s.decrementStockTx(ctx, tx, l, order.Items)

		order.Status = models.OrderStatusConfirmed
		if order.ConfirmedAt == nil {
			now := s.timeNow()
			order.ConfirmedAt = &now
		}
		return tx.SaveOrder(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	l.Info("order_confirmed", "order_number", order.OrderNumber)
	s.publish(ctx, order.OrderNumber, map[string]any{
		"type":         "order_confirmed",
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
	})
	s.publishLowStock(ctx, order.Items)
	return order, nil
}

// Cancel moves any non-terminal order to cancelled. Stock is restored only
// when the order had already taken it (confirmed, processing or shipped);
// cancelling straight from pending restores nothing.
func (s *OrderService) Cancel(ctx context.Context, orderID uint) (*models.Order, error) {
	l := logging.FromContext(ctx).With("svc", "order.cancel", "order_id", orderID)

	var order *models.Order
	err := s.Repo.WithinTx(ctx, func(tx *repo.GormRepo) error {
		var err error
		order, err = tx.GetOrder(ctx, orderID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: order %d", ErrNotFound, orderID)
		}
		if err != nil {
			return err
		}

		if order.Status.Terminal() {
			return fmt.Errorf("%w: cannot cancel %s order", ErrConflict, order.Status)
		}

		if holdsStock(order.Status) {
			s.restoreStockTx(ctx, tx, l, order.Items)
		}

		order.Status = models.OrderStatusCancelled
		return tx.SaveOrder(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	l.Info("order_cancelled", "order_number", order.OrderNumber)
	s.publish(ctx, order.OrderNumber, map[string]any{
		"type":         "order_cancelled",
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
	})
	return order, nil
}

// SetStatus is the operator override: it applies any status, including jumps
// the convenience methods would reject (pending straight to completed). Stock
// side effects fire only for the two documented transitions, and the
// milestone timestamps are stamped on first entry and never overwritten.
func (s *OrderService) SetStatus(ctx context.Context, orderID uint, newStatus models.OrderStatus) (*models.Order, error) {
	if !newStatus.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, newStatus)
	}

	l := logging.FromContext(ctx).With("svc", "order.set_status", "order_id", orderID)

	var order *models.Order
	var oldStatus models.OrderStatus
	err := s.Repo.WithinTx(ctx, func(tx *repo.GormRepo) error {
		var err error
		order, err = tx.GetOrder(ctx, orderID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: order %d", ErrNotFound, orderID)
		}
		if err != nil {
			return err
		}

		oldStatus = order.Status
		switch {
		case oldStatus == models.OrderStatusPending && takesStock(newStatus):
			s.decrementStockTx(ctx, tx, l, order.Items)
		case holdsStock(oldStatus) && newStatus == models.OrderStatusCancelled:
			s.restoreStockTx(ctx, tx, l, order.Items)
		}

		order.Status = newStatus

		now := s.timeNow()
		switch {
		case newStatus == models.OrderStatusConfirmed && order.ConfirmedAt == nil:
			order.ConfirmedAt = &now
		case newStatus == models.OrderStatusShipped && order.ShippedAt == nil:
			order.ShippedAt = &now
		case newStatus == models.OrderStatusCompleted && order.CompletedAt == nil:
			order.CompletedAt = &now
		}

		return tx.SaveOrder(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	l.Info("order_status_updated", "order_number", order.OrderNumber, "from", oldStatus, "to", newStatus)
	s.publish(ctx, order.OrderNumber, map[string]any{
		"type":         "order_status_updated",
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
		"from":         oldStatus,
		"to":           newStatus,
	})
	if oldStatus == models.OrderStatusPending && takesStock(newStatus) {
		s.publishLowStock(ctx, order.Items)
	}
	return order, nil
}

type Stats struct {
	TotalRevenue       decimal.Decimal `json:"total_revenue"`
	TotalOrders        int64           `json:"total_orders"`
	PendingOrders      int64           `json:"pending_orders"`
	ConfirmedOrders    int64           `json:"confirmed_orders"`
	TotalProducts      int64           `json:"total_products"`
	LowStockProducts   int64           `json:"low_stock_products"`
	OutOfStockProducts int64           `json:"out_of_stock_products"`
}

func (s *OrderService) Stats(ctx context.Context) (*Stats, error) {
	st := &Stats{}
	var err error

	if st.TotalRevenue, err = s.Repo.SumRevenue(ctx); err != nil {
		return nil, err
	}
	if st.TotalOrders, err = s.Repo.CountOrders(ctx); err != nil {
		return nil, err
	}
	if st.PendingOrders, err = s.Repo.CountOrdersByStatus(ctx, models.OrderStatusPending); err != nil {
		return nil, err
	}
	if st.ConfirmedOrders, err = s.Repo.CountOrdersByStatus(ctx, models.OrderStatusConfirmed); err != nil {
		return nil, err
	}
	if st.TotalProducts, err = s.Repo.CountProducts(ctx); err != nil {
		return nil, err
	}
	if st.LowStockProducts, err = s.Repo.CountLowStock(ctx, DefaultLowStockThreshold); err != nil {
		return nil, err
	}
	if st.OutOfStockProducts, err = s.Repo.CountOutOfStock(ctx); err != nil {
		return nil, err
	}
	return st, nil
}

// takesStock reports whether entering this status from pending decrements
// stock.
func takesStock(s models.OrderStatus) bool {
	switch s {
	case models.OrderStatusConfirmed, models.OrderStatusProcessing,
		models.OrderStatusShipped, models.OrderStatusCompleted:
		return true
	}
	return false
}

// holdsStock reports whether an order in this status has stock to give back
// on cancellation. Completed orders keep their stock.
func holdsStock(s models.OrderStatus) bool {
	switch s {
	case models.OrderStatusConfirmed, models.OrderStatusProcessing, models.OrderStatusShipped:
		return true
	}
	return false
}

func (s *OrderService) decrementStockTx(ctx context.Context, tx *repo.GormRepo, l *slog.Logger, items []models.OrderItem) {
	for _, it := range items {
		if it.ProductID == nil {
			continue
		}
		ok, err := tx.DecrementStock(ctx, *it.ProductID, it.Quantity)
		if err != nil {
			l.Warn("stock_decrement_error", "product_id", *it.ProductID, "error", err)
			continue
		}
		if !ok {
			l.Warn("stock_insufficient", "product_id", *it.ProductID, "quantity", it.Quantity)
		}
	}
}

func (s *OrderService) restoreStockTx(ctx context.Context, tx *repo.GormRepo, l *slog.Logger, items []models.OrderItem) {
	for _, it := range items {
		if it.ProductID == nil {
			continue
		}
		if err := tx.IncrementStock(ctx, *it.ProductID, it.Quantity); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			l.Warn("stock_restore_error", "product_id", *it.ProductID, "error", err)
		}
	}
}

func (s *OrderService) recalcTotalTx(ctx context.Context, tx *repo.GormRepo, order *models.Order) error {
	total, err := tx.SumOrderItems(ctx, order.ID)
	if err != nil {
		return err
	}
	order.TotalAmount = total
	return tx.UpdateOrderTotal(ctx, order.ID, total)
}

// publishLowStock reports products a confirmation just drained to the reorder
// threshold or below.
func (s *OrderService) publishLowStock(ctx context.Context, items []models.OrderItem) {
	if s.Events == nil {
		return
	}
	for _, it := range items {
		if it.ProductID == nil {
			continue
		}
		prod, err := s.Repo.GetProduct(ctx, *it.ProductID)
		if err != nil {
			continue
		}
		if prod.StockQuantity <= DefaultLowStockThreshold {
			s.publish(ctx, prod.SKU, map[string]any{
				"type":           "product_low_stock",
				"product_id":     prod.ID,
				"sku":            prod.SKU,
				"stock_quantity": prod.StockQuantity,
			})
		}
	}
}

func (s *OrderService) publish(ctx context.Context, key string, event map[string]any) {
	if s.Events == nil {
		return
	}
	event["event_id"] = uuid.NewString()
	if err := s.Events.PublishEvent(ctx, key, event); err != nil {
		logging.FromContext(ctx).Warn("event_publish_error", "key", key, "error", err)
	}
}
