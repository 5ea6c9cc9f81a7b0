package payments

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/imrishuroy/go-restaurant-pos/internal/apperr"
	"github.com/imrishuroy/go-restaurant-pos/internal/database"
	"github.com/imrishuroy/go-restaurant-pos/internal/events"
)

const DefaultCurrency = "USD"

// Payment is one payment event against an order. An order may have many.
type Payment struct {
	PaymentID              int64           `json:"payment_id"`
	OrderID                int64           `json:"order_id"`
	PaymentDate            time.Time       `json:"payment_date"`
	PaymentAmount          decimal.Decimal `json:"payment_amount"`
	PaymentMethod          string          `json:"payment_method"`
	PaymentStatus          string          `json:"payment_status"`
	TransactionID          string          `json:"transaction_id"`
	PaymentReferenceNumber string          `json:"payment_reference_number"`
	ChangeGiven            decimal.Decimal `json:"change_given"`
	DiscountApplied        decimal.Decimal `json:"discount_applied"`
	Tips                   decimal.Decimal `json:"tips"`
	Currency               string          `json:"currency"`
	PaymentNotes           string          `json:"payment_notes"`
}

// Repository stores payments.
type Repository interface {
	Insert(ctx context.Context, p *Payment) error
}

// Metrics records payment figures.
type Metrics interface {
	RecordPayment(ctx context.Context, amount decimal.Decimal) error
}

// Recorder validates, stores and announces payments.
type Recorder struct {
	repo      Repository
	publisher events.Publisher
	metrics   Metrics
	logger    *slog.Logger
	nowFunc   func() time.Time
}

func NewRecorder(repo Repository, publisher events.Publisher, metrics Metrics, logger *slog.Logger) *Recorder {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &Recorder{
		repo:      repo,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger,
		nowFunc:   time.Now,
	}
}

// RecordPayment inserts p and returns its id. A missing order yields a not found error.
func (r *Recorder) RecordPayment(ctx context.Context, p *Payment) (int64, error) {
	if p.OrderID <= 0 {
		return 0, apperr.Validation("order_id is required")
	}
	r.applyDefaults(p)

	if err := r.repo.Insert(ctx, p); err != nil {
		return 0, err
	}
	r.logger.Info("payment recorded",
		"payment_id", p.PaymentID,
		"order_id", p.OrderID,
		"method", p.PaymentMethod,
		"amount", p.PaymentAmount.String(),
	)

	if err := r.publisher.Publish(ctx, events.PaymentRecorded(p.OrderID, p.PaymentID, p.PaymentAmount)); err != nil {
		r.logger.Error("failed to publish payment event", "payment_id", p.PaymentID, "error", err)
	}
	if r.metrics != nil {
		if err := r.metrics.RecordPayment(ctx, p.PaymentAmount); err != nil {
			r.logger.Warn("failed to record payment metrics", "payment_id", p.PaymentID, "error", err)
		}
	}
	return p.PaymentID, nil
}

func (r *Recorder) applyDefaults(p *Payment) {
	if p.PaymentDate.IsZero() {
		p.PaymentDate = r.nowFunc().UTC()
	}
	if strings.TrimSpace(p.Currency) == "" {
		p.Currency = DefaultCurrency
	}
	if strings.TrimSpace(p.TransactionID) == "" {
		p.TransactionID = uuid.NewString()
	}
	if p.PaymentMethod == "" {
		p.PaymentMethod = "cash"
	}
	if p.PaymentStatus == "" {
		p.PaymentStatus = "completed"
	}
}

// Store is the PostgreSQL Repository.
type Store struct {
	db database.Querier
}

func NewStore(db database.Querier) *Store {
	return &Store{db: db}
}

func (s *Store) Insert(ctx context.Context, p *Payment) error {
	err := s.db.QueryRow(ctx, `
		INSERT INTO payments (order_id, payment_date, payment_amount, payment_method, payment_status,
			transaction_id, payment_reference_number, change_given, discount_applied, tips, currency, payment_notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING payment_id`,
		p.OrderID, p.PaymentDate, p.PaymentAmount, p.PaymentMethod, p.PaymentStatus,
		p.TransactionID, p.PaymentReferenceNumber, p.ChangeGiven, p.DiscountApplied, p.Tips, p.Currency, p.PaymentNotes,
	).Scan(&p.PaymentID)
	if database.IsCode(err, database.CodeForeignKeyViolation) {
		return apperr.NotFound("order %d not found", p.OrderID)
	}
	if err != nil {
		return apperr.Persistence(err, "insert payment")
	}
	return nil
}
