package validation

import (
	"github.com/shopspring/decimal"
)

// OrderItem is one requested line item. Older clients send the menu item id as "id".
type OrderItem struct {
	MenuItemID int64            `json:"menu_item_id"`
	ID         int64            `json:"id"`
	Quantity   int              `json:"quantity" validate:"required,min=1,max=2147483647"`
	Price      *decimal.Decimal `json:"price" validate:"required"`
}

// ItemID returns the menu item id, whichever field carried it.
func (it OrderItem) ItemID() int64 {
	if it.MenuItemID != 0 {
		return it.MenuItemID
	}
	return it.ID
}

// PlaceOrderRequest is the payload for POST /api/orders and /api/orderssingle.
type PlaceOrderRequest struct {
	TableNumber   int         `json:"table_number" validate:"required,gt=0,max=2147483647"`
	OrderItems    []OrderItem `json:"order_items" validate:"required,min=1,dive"`
	PaymentStatus string      `json:"payment_status" validate:"omitempty,max=32"`
	OrderStatus   string      `json:"order_status" validate:"omitempty,max=32"`
}

// PaymentRequest is the payload for POST /payments.
type PaymentRequest struct {
	OrderID                int64            `json:"order_id" validate:"required,gt=0"`
	PaymentDate            *string          `json:"payment_date"`
	PaymentAmount          *decimal.Decimal `json:"payment_amount" validate:"required"`
	PaymentMethod          string           `json:"payment_method" validate:"omitempty,max=32"`
	PaymentStatus          string           `json:"payment_status" validate:"omitempty,max=32"`
	TransactionID          string           `json:"transaction_id" validate:"omitempty,max=100"`
	PaymentReferenceNumber string           `json:"payment_reference_number" validate:"omitempty,max=100"`
	ChangeGiven            decimal.Decimal  `json:"change_given"`
	DiscountApplied        decimal.Decimal  `json:"discount_applied"`
	Tips                   decimal.Decimal  `json:"tips"`
	Currency               string           `json:"currency" validate:"omitempty,len=3"`
	PaymentNotes           string           `json:"payment_notes"`
}

type CreateTableRequest struct {
	Number int    `json:"number" validate:"required,gt=0"`
	Status string `json:"status" validate:"omitempty,oneof=free occupied reserved"`
}

type UpdateTableStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=free occupied reserved"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterForm is the multipart form of POST /register. The avatar file is read separately.
type RegisterForm struct {
	FullName    string `form:"fullName" validate:"required"`
	Username    string `form:"username" validate:"required,max=80"`
	Email       string `form:"email" validate:"required,email"`
	Password    string `form:"password" validate:"required,min=6"`
	Role        string `form:"role" validate:"required,oneof=chef 'restaurant manager' customer"`
	Address     string `form:"address"`
	PhoneNumber string `form:"phoneNumber" validate:"omitempty,max=32"`
}

// MenuForm is the multipart form of POST /api/menu. The image file is read separately.
type MenuForm struct {
	Name            string   `form:"name" validate:"required,max=150"`
	Description     string   `form:"description"`
	Category        string   `form:"category" validate:"max=80"`
	Price           string   `form:"price" validate:"required,numeric"`
	Discount        string   `form:"discount" validate:"omitempty,numeric"`
	Availability    *bool    `form:"availability"`
	PreparationTime int      `form:"preparationTime" validate:"min=0"`
	Tags            []string `form:"tags"`
}
