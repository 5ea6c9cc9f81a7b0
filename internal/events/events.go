package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event types. They double as routing keys on the AMQP exchange.
const (
	TypeOrderPlaced     = "order.placed"
	TypePaymentRecorded = "payment.recorded"
)

// Event is the message emitted after a successful write.
type Event struct {
	ID          string          `json:"event_id"`
	Type        string          `json:"type"`
	OccurredAt  time.Time       `json:"occurred_at"`
	OrderID     int64           `json:"order_id"`
	TableNumber int             `json:"table_number,omitempty"`
	Merged      bool            `json:"merged,omitempty"`
	PaymentID   int64           `json:"payment_id,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
}

// Publisher delivers events to a broker.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// OrderPlaced builds the event for a committed placement.
func OrderPlaced(orderID int64, tableNumber int, merged bool, total decimal.Decimal) Event {
	return Event{
		ID:          uuid.NewString(),
		Type:        TypeOrderPlaced,
		OccurredAt:  time.Now().UTC(),
		OrderID:     orderID,
		TableNumber: tableNumber,
		Merged:      merged,
		Amount:      total,
	}
}

// PaymentRecorded builds the event for a stored payment.
func PaymentRecorded(orderID, paymentID int64, amount decimal.Decimal) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       TypePaymentRecorded,
		OccurredAt: time.Now().UTC(),
		OrderID:    orderID,
		PaymentID:  paymentID,
		Amount:     amount,
	}
}

// Encode renders the event body shared by every backend.
func Encode(ev Event) ([]byte, error) {
	return json.Marshal(ev)
}

// Decode parses a body produced by Encode.
func Decode(body []byte) (Event, error) {
	var ev Event
	err := json.Unmarshal(body, &ev)
	return ev, err
}

// Noop drops every event. Used when no broker is configured.
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }
