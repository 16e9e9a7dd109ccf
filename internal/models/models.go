package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusProcessing,
		OrderStatusShipped, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

// Terminal states admit no further transitions.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

type Category struct {
	ID          uint      `gorm:"primaryKey;autoIncrement"  json:"id"`
	Name        string    `gorm:"not null"                  json:"name"`
	Slug        string    `gorm:"uniqueIndex;not null"      json:"slug"`
	Description string    `json:"description"`
	IsActive    bool      `gorm:"default:true"              json:"is_active"`
	SortOrder   int       `gorm:"default:0"                 json:"sort_order"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Product struct {
	ID             uint              `gorm:"primaryKey;autoIncrement"                   json:"id"`
	CategoryID     uint              `gorm:"index;not null"                             json:"category_id"`
	Name           string            `gorm:"not null"                                   json:"name"`
	Slug           string            `gorm:"uniqueIndex;not null"                       json:"slug"`
	SKU            string            `gorm:"column:sku;uniqueIndex;not null"            json:"sku"`
	Description    string            `json:"description"`
	Specifications map[string]string `gorm:"serializer:json"                            json:"specifications"`
	Price          decimal.Decimal   `gorm:"type:decimal(12,2);not null"                json:"price"`
	StockQuantity  int               `gorm:"not null;default:0;check:stock_quantity>=0" json:"stock_quantity"`
	FeaturedImage  string            `json:"featured_image"`
	IsActive       bool              `gorm:"default:true"                               json:"is_active"`
	IsFeatured     bool              `gorm:"default:false"                              json:"is_featured"`
	SortOrder      int               `gorm:"default:0"                                  json:"sort_order"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

type Order struct {
	ID               uint            `gorm:"primaryKey;autoIncrement"              json:"id"`
	OrderNumber      string          `gorm:"uniqueIndex;not null"                  json:"order_number"`
	CustomerName     string          `gorm:"not null"                              json:"customer_name"`
	CustomerEmail    string          `json:"customer_email"`
	CustomerPhone    string          `json:"customer_phone"`
	CustomerWhatsapp string          `json:"customer_whatsapp"`
	ShippingAddress  string          `json:"shipping_address"`
	Status           OrderStatus     `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	TotalAmount      decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"total_amount"`
	Notes            string          `json:"notes"`
	AdminNotes       string          `json:"admin_notes"`
	ConfirmedAt      *time.Time      `json:"confirmed_at"`
	ShippedAt        *time.Time      `json:"shipped_at"`
	CompletedAt      *time.Time      `json:"completed_at"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`

	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
}

// ProductSnapshot is the denormalized copy of a product captured when an
// item is added to an order. Display data comes from here, never from the
// live product row, so order history survives product edits and deletes.
type ProductSnapshot struct {
	ID             uint              `json:"id"`
	Name           string            `json:"name"`
	SKU            string            `json:"sku"`
	Price          decimal.Decimal   `json:"price"`
	Specifications map[string]string `json:"specifications,omitempty"`
	FeaturedImage  string            `json:"featured_image,omitempty"`
}

type OrderItem struct {
	ID              uint             `gorm:"primaryKey;autoIncrement"        json:"id"`
	OrderID         uint             `gorm:"index;not null"                  json:"order_id"`
	ProductID       *uint            `gorm:"index"                           json:"product_id"`
	ProductName     string           `gorm:"not null"                        json:"product_name"`
	ProductSKU      string           `gorm:"column:product_sku;not null"     json:"product_sku"`
	Quantity        int              `gorm:"not null;check:quantity>0"       json:"quantity"`
	UnitPrice       decimal.Decimal  `gorm:"type:decimal(12,2);not null"     json:"unit_price"`
	Subtotal        decimal.Decimal  `gorm:"type:decimal(12,2);not null"     json:"subtotal"`
	ProductSnapshot *ProductSnapshot `gorm:"serializer:json"                 json:"product_snapshot,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// OrderCounter holds the per-day order number sequence. One row per calendar
// day, incremented atomically inside the order creation transaction.
type OrderCounter struct {
	Day string `gorm:"primaryKey;size:8" json:"day"`
	Seq int    `gorm:"not null"          json:"seq"`
}

type User struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string    `gorm:"uniqueIndex;not null"     json:"username"`
	PasswordHash string    `gorm:"not null"                 json:"-"`
	Role         string    `gorm:"not null"                 json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}
