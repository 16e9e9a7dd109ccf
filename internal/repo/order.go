package repo

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/read1store/backoffice/internal/models"
)

type OrderFilter struct {
	Status models.OrderStatus
	From   *time.Time
	To     *time.Time
	Offset int
	Limit  int
}

func (r *GormRepo) CreateOrder(ctx context.Context, order *models.Order) error {
	return r.DB.WithContext(ctx).Create(order).Error
}

func (r *GormRepo) GetOrder(ctx context.Context, id uint) (*models.Order, error) {
	order := models.Order{}
	if err := r.DB.WithContext(ctx).Preload("Items").First(&order, id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *GormRepo) SaveOrder(ctx context.Context, order *models.Order) error {
	return r.DB.WithContext(ctx).Save(order).Error
}

func (r *GormRepo) ListOrders(ctx context.Context, f OrderFilter) (int64, []models.Order, error) {
	q := r.DB.WithContext(ctx).Model(&models.Order{})

	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.From != nil {
		q = q.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("created_at < ?", *f.To)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var orders []models.Order
	if err := q.Order("created_at DESC").Offset(f.Offset).Limit(f.Limit).Find(&orders).Error; err != nil {
		return 0, nil, err
	}
	return total, orders, nil
}

func (r *GormRepo) GetOrderItem(ctx context.Context, id uint) (*models.OrderItem, error) {
	item := models.OrderItem{}
	if err := r.DB.WithContext(ctx).First(&item, id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *GormRepo) ListOrderItems(ctx context.Context, orderID uint) ([]models.OrderItem, error) {
	var items []models.OrderItem
	if err := r.DB.WithContext(ctx).Where("order_id = ?", orderID).Order("id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepo) CreateOrderItem(ctx context.Context, item *models.OrderItem) error {
	return r.DB.WithContext(ctx).Create(item).Error
}

func (r *GormRepo) SaveOrderItem(ctx context.Context, item *models.OrderItem) error {
	return r.DB.WithContext(ctx).Save(item).Error
}

func (r *GormRepo) DeleteOrderItem(ctx context.Context, id uint) error {
	res := r.DB.WithContext(ctx).Delete(&models.OrderItem{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SumOrderItems returns the sum of item subtotals for an order.
func (r *GormRepo) SumOrderItems(ctx context.Context, orderID uint) (decimal.Decimal, error) {
	var total decimal.Decimal
	row := r.DB.WithContext(ctx).
		Model(&models.OrderItem{}).
		Where("order_id = ?", orderID).
		Select("COALESCE(SUM(subtotal), 0)").
		Row()
	if err := row.Scan(&total); err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

func (r *GormRepo) UpdateOrderTotal(ctx context.Context, orderID uint, total decimal.Decimal) error {
	res := r.DB.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Update("total_amount", total)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// NextOrderSequence upserts the per-day counter row and returns the new
// sequence value. Meant to be called inside the order creation transaction so
// a rolled back order does not burn a number visible outside the tx.
func (r *GormRepo) NextOrderSequence(ctx context.Context, day string) (int, error) {
	err := r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "day"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"seq": gorm.Expr("order_counters.seq + 1")}),
		}).
		Create(&models.OrderCounter{Day: day, Seq: 1}).Error
	if err != nil {
		return 0, err
	}

	counter := models.OrderCounter{}
	if err := r.DB.WithContext(ctx).First(&counter, "day = ?", day).Error; err != nil {
		return 0, err
	}
	return counter.Seq, nil
}

func (r *GormRepo) CountOrders(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.Order{}).Count(&n).Error
	return n, err
}

func (r *GormRepo) CountOrdersByStatus(ctx context.Context, status models.OrderStatus) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.Order{}).Where("status = ?", status).Count(&n).Error
	return n, err
}

// SumRevenue totals confirmed, processing, shipped and completed orders.
func (r *GormRepo) SumRevenue(ctx context.Context) (decimal.Decimal, error) {
	var total decimal.Decimal
	row := r.DB.WithContext(ctx).
		Model(&models.Order{}).
		Where("status IN ?", []models.OrderStatus{
			models.OrderStatusConfirmed,
			models.OrderStatusProcessing,
			models.OrderStatusShipped,
			models.OrderStatusCompleted,
		}).
		Select("COALESCE(SUM(total_amount), 0)").
		Row()
	if err := row.Scan(&total); err != nil {
		return decimal.Zero, err
	}
	return total, nil
}
