package orders

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order statuses
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"

	PaymentUnpaid = "unpaid"
)

// TaxRate is applied to the subtotal of every order.
var TaxRate = decimal.RequireFromString("0.10")

// MoneyPlaces is the scale of every stored money column.
const MoneyPlaces = 2

// IsCents reports whether v has no more than MoneyPlaces decimal places.
func IsCents(v decimal.Decimal) bool {
	return v.Equal(v.Round(MoneyPlaces))
}

// LineItem is a client supplied item that has not been persisted yet.
// UnitPrice is the price snapshot stored on the order item.
type LineItem struct {
	MenuItemID int64
	Quantity   int
	UnitPrice  decimal.Decimal
}

// Totals are the computed money fields of an order.
type Totals struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Discount decimal.Decimal
	Total    decimal.Decimal
}

// Order represents a row of the orders table plus its items.
type Order struct {
	OrderID       int64           `json:"order_id"`
	TableNumber   int             `json:"table_number"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Tax           decimal.Decimal `json:"tax"`
	Discount      decimal.Decimal `json:"discount"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	PaymentStatus string          `json:"payment_status"`
	OrderStatus   string          `json:"order_status"`
	CreatedAt     time.Time       `json:"created_at"`
	Items         []OrderItem     `json:"items"`
}

// OrderItem references a menu item but does not own it.
type OrderItem struct {
	OrderItemID int64           `json:"order_item_id"`
	OrderID     int64           `json:"order_id"`
	MenuItemID  int64           `json:"menu_item_id"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
}

// FlatRow is one row of the orders LEFT JOIN order_items query.
// Item columns are nil for orders without items.
type FlatRow struct {
	OrderID       int64
	TableNumber   int
	Subtotal      decimal.Decimal
	Tax           decimal.Decimal
	Discount      decimal.Decimal
	TotalAmount   decimal.Decimal
	PaymentStatus string
	OrderStatus   string
	CreatedAt     time.Time

	OrderItemID *int64
	MenuItemID  *int64
	Quantity    *int
	Price       decimal.NullDecimal
}

// DetailedRow is the denormalized row-per-item view joining orders, items, menu and payments.
type DetailedRow struct {
	OrderID           int64               `json:"order_id"`
	TableNumber       int                 `json:"table_number"`
	Subtotal          decimal.Decimal     `json:"subtotal"`
	Tax               decimal.Decimal     `json:"tax"`
	Discount          decimal.Decimal     `json:"discount"`
	TotalAmount       decimal.Decimal     `json:"total_amount"`
	OrderStatus       string              `json:"order_status"`
	OrderItemID       int64               `json:"order_item_id"`
	MenuItemID        int64               `json:"menu_item_id"`
	Quantity          int                 `json:"quantity"`
	MenuItemName      *string             `json:"menu_item_name"`
	MenuItemPrice     decimal.NullDecimal `json:"menu_item_price"`
	TotalPriceForItem decimal.NullDecimal `json:"total_price_for_item"`
	PaymentAmount     decimal.NullDecimal `json:"payment_amount"`
	PaymentMethod     *string             `json:"payment_method"`
	PaymentStatus     *string             `json:"payment_status"`
	Tips              decimal.NullDecimal `json:"tips"`
}

// PlaceRequest is the input of both placement operations.
type PlaceRequest struct {
	TableNumber   int
	Items         []LineItem
	PaymentStatus string
	OrderStatus   string
}

// Placement is the outcome of a placement. Merged is true when items were
// appended to an existing pending order.
type Placement struct {
	OrderID int64
	Merged  bool
	Totals  Totals
}
