package transport

import "github.com/shopspring/decimal"

type CreateOrderItem struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

type CreateOrderRequest struct {
	CustomerName     string            `json:"customer_name"`
	CustomerEmail    string            `json:"customer_email"`
	CustomerPhone    string            `json:"customer_phone"`
	CustomerWhatsapp string            `json:"customer_whatsapp"`
	ShippingAddress  string            `json:"shipping_address"`
	Notes            string            `json:"notes"`
	Items            []CreateOrderItem `json:"items"`
}

type AddItemRequest struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

type UpdateItemRequest struct {
	Quantity int `json:"quantity"`
}

type SetStatusRequest struct {
	Status string `json:"status"`
}

type CreateProductRequest struct {
	CategoryID     uint              `json:"category_id"`
	Name           string            `json:"name"`
	Slug           string            `json:"slug"`
	SKU            string            `json:"sku"`
	Description    string            `json:"description"`
	Specifications map[string]string `json:"specifications"`
	Price          decimal.Decimal   `json:"price"`
	StockQuantity  int               `json:"stock_quantity"`
	FeaturedImage  string            `json:"featured_image"`
	IsActive       *bool             `json:"is_active"`
	IsFeatured     bool              `json:"is_featured"`
	SortOrder      int               `json:"sort_order"`
}

type PatchProductRequest struct {
	CategoryID     *uint              `json:"category_id"`
	Name           *string            `json:"name"`
	Slug           *string            `json:"slug"`
	SKU            *string            `json:"sku"`
	Description    *string            `json:"description"`
	Specifications *map[string]string `json:"specifications"`
	Price          *decimal.Decimal   `json:"price"`
	StockQuantity  *int               `json:"stock_quantity"`
	FeaturedImage  *string            `json:"featured_image"`
	IsActive       *bool              `json:"is_active"`
	IsFeatured     *bool              `json:"is_featured"`
	SortOrder      *int               `json:"sort_order"`
}

type CreateCategoryRequest struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	IsActive    *bool  `json:"is_active"`
	SortOrder   int    `json:"sort_order"`
}

type PatchCategoryRequest struct {
	Name        *string `json:"name"`
	Slug        *string `json:"slug"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"is_active"`
	SortOrder   *int    `json:"sort_order"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresAt   int64  `json:"expires_at"`
}
