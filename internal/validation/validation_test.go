package validation

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

func price(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestPlaceOrderRequest_Valid(t *testing.T) {
	v := New()

	req := PlaceOrderRequest{
		TableNumber: 4,
		OrderItems: []OrderItem{
			{MenuItemID: 1, Quantity: 2, Price: price("10")},
			{ID: 2, Quantity: 1, Price: price("5.50")},
		},
		PaymentStatus: "unpaid",
		OrderStatus:   "pending",
	}
	if err := v.Struct(req); err != nil {
		t.Fatalf("expected valid, got error: %v", err)
	}
	if req.OrderItems[1].ItemID() != 2 {
		t.Fatalf("expected id fallback, got %d", req.OrderItems[1].ItemID())
	}
}

func TestPlaceOrderRequest_Invalid(t *testing.T) {
	v := New()
	cases := []struct {
		name string
		req  PlaceOrderRequest
	}{
		{"no items", PlaceOrderRequest{TableNumber: 1, OrderItems: []OrderItem{}}},
		{"missing table", PlaceOrderRequest{OrderItems: []OrderItem{{MenuItemID: 1, Quantity: 1, Price: price("1")}}}},
		{"missing menu id", PlaceOrderRequest{TableNumber: 1, OrderItems: []OrderItem{{Quantity: 1, Price: price("1")}}}},
		{"zero quantity", PlaceOrderRequest{TableNumber: 1, OrderItems: []OrderItem{{MenuItemID: 1, Price: price("1")}}}},
		{"missing price", PlaceOrderRequest{TableNumber: 1, OrderItems: []OrderItem{{MenuItemID: 1, Quantity: 1}}}},
		{"negative price", PlaceOrderRequest{TableNumber: 1, OrderItems: []OrderItem{{MenuItemID: 1, Quantity: 1, Price: price("-2")}}}},
		{"fractional cents", PlaceOrderRequest{TableNumber: 1, OrderItems: []OrderItem{{MenuItemID: 1, Quantity: 3, Price: price("1.234")}}}},
		{"table out of range", PlaceOrderRequest{TableNumber: 1 << 31, OrderItems: []OrderItem{{MenuItemID: 1, Quantity: 1, Price: price("1")}}}},
		{"quantity out of range", PlaceOrderRequest{TableNumber: 1, OrderItems: []OrderItem{{MenuItemID: 1, Quantity: 1 << 31, Price: price("1")}}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := v.Struct(tc.req); err == nil {
				t.Fatal("expected validation error, got nil")
			}
		})
	}
}

func TestPaymentRequest(t *testing.T) {
	v := New()
	ok := PaymentRequest{OrderID: 1, PaymentAmount: price("27.50"), Currency: "USD"}
	if err := v.Struct(ok); err != nil {
		t.Fatalf("expected valid payment, got %v", err)
	}
	refund := PaymentRequest{OrderID: 1, PaymentAmount: price("-10"), Tips: decimal.Zero}
	if err := v.Struct(refund); err != nil {
		t.Fatalf("expected refund to be accepted, got %v", err)
	}
	if err := v.Struct(PaymentRequest{PaymentAmount: price("1")}); err == nil {
		t.Fatal("expected error for missing order id")
	}
}

func TestTableRequests(t *testing.T) {
	v := New()
	if err := v.Struct(CreateTableRequest{Number: 3}); err != nil {
		t.Fatalf("status should be optional: %v", err)
	}
	if err := v.Struct(CreateTableRequest{Number: 3, Status: "broken"}); err == nil {
		t.Fatal("expected error for unknown status")
	}
	if err := v.Struct(UpdateTableStatusRequest{Status: "reserved"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRegisterForm_Role(t *testing.T) {
	v := New()
	form := RegisterForm{FullName: "A", Username: "a", Email: "a@b.co", Password: "secret1", Role: "restaurant manager"}
	if err := v.Struct(form); err != nil {
		t.Fatalf("expected manager role to be valid: %v", err)
	}
	form.Role = "waiter"
	if err := v.Struct(form); err == nil {
		t.Fatal("expected error for unknown role")
	}
}

func TestBindAndValidate_WritesFieldErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(`{"table_number":1,"order_items":[]}`))
	c.Request.Header.Set("Content-Type", "application/json")

	var req PlaceOrderRequest
	if err := BindAndValidate(c, &req, New()); err == nil {
		t.Fatal("expected error")
	}
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "validation_failed") || !strings.Contains(w.Body.String(), "OrderItems") {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}

func TestBindAndValidate_BadJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/payments", strings.NewReader(`{"order_id":`))
	c.Request.Header.Set("Content-Type", "application/json")

	var req PaymentRequest
	if err := BindAndValidate(c, &req, New()); err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(w.Body.String(), "invalid_request_body") {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}
