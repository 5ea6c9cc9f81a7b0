package orders

import (
	"context"
	"errors"
	"log/slog"
	"math"

	"github.com/shopspring/decimal"

	"github.com/imrishuroy/go-restaurant-pos/internal/apperr"
	"github.com/imrishuroy/go-restaurant-pos/internal/events"
)

// Catalog resolves the live state of a menu item.
type Catalog interface {
	Lookup(ctx context.Context, menuItemID int64) (price decimal.Decimal, available bool, err error)
}

// Metrics records placement figures.
type Metrics interface {
	RecordOrderPlaced(ctx context.Context, merged bool, total decimal.Decimal) error
}

// Service implements order placement and retrieval.
type Service struct {
	repo      Repository
	catalog   Catalog
	publisher events.Publisher
	metrics   Metrics
	logger    *slog.Logger
}

// Option configures optional collaborators of a Service.
type Option func(*Service)

// WithCatalog makes placements reject unknown or unavailable menu items.
func WithCatalog(c Catalog) Option { return func(s *Service) { s.catalog = c } }

func WithPublisher(p events.Publisher) Option { return func(s *Service) { s.publisher = p } }

func WithMetrics(m Metrics) Option { return func(s *Service) { s.metrics = m } }

func NewService(repo Repository, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		repo:      repo,
		publisher: events.Noop{},
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PlaceOrder always creates a new order. The order row and all of its item
// rows are committed together or not at all.
func (s *Service) PlaceOrder(ctx context.Context, req PlaceRequest) (Placement, error) {
	return s.place(ctx, req, false)
}

// PlaceOrUpdateOrder appends the items to the table's pending order when one
// exists and recomputes its totals; otherwise it behaves like PlaceOrder.
func (s *Service) PlaceOrUpdateOrder(ctx context.Context, req PlaceRequest) (Placement, error) {
	return s.place(ctx, req, true)
}

func (s *Service) place(ctx context.Context, req PlaceRequest, merge bool) (Placement, error) {
	if err := validatePlacement(req); err != nil {
		return Placement{}, err
	}
	if req.PaymentStatus == "" {
		req.PaymentStatus = PaymentUnpaid
	}
	if req.OrderStatus == "" {
		req.OrderStatus = StatusPending
	}
	if err := s.checkCatalog(ctx, req.Items); err != nil {
		return Placement{}, err
	}

	var res Placement
	err := s.repo.InTx(ctx, func(tx Tx) error {
		if merge {
			if err := tx.LockTable(ctx, req.TableNumber); err != nil {
				return err
			}
			existing, err := tx.FindPending(ctx, req.TableNumber)
			if err != nil {
				return err
			}
			if existing != nil {
				return appendToOrder(ctx, tx, existing, req.Items, &res)
			}
		}

		totals := ComputeTotals(req.Items, decimal.Zero)
		o := &Order{
			TableNumber:   req.TableNumber,
			Subtotal:      totals.Subtotal,
			Tax:           totals.Tax,
			Discount:      totals.Discount,
			TotalAmount:   totals.Total,
			PaymentStatus: req.PaymentStatus,
			OrderStatus:   req.OrderStatus,
		}
		if err := tx.InsertOrder(ctx, o); err != nil {
			return err
		}
		if err := tx.InsertItems(ctx, o.OrderID, req.Items); err != nil {
			return err
		}
		res = Placement{OrderID: o.OrderID, Totals: totals}
		return nil
	})
	if err != nil {
		return Placement{}, persistence(err, "place order")
	}

	s.logger.Info("order placed",
		"order_id", res.OrderID,
		"table_number", req.TableNumber,
		"merged", res.Merged,
		"items", len(req.Items),
		"total", res.Totals.Total.String(),
	)
	s.afterPlacement(ctx, req.TableNumber, res)
	return res, nil
}

func appendToOrder(ctx context.Context, tx Tx, existing *Order, items []LineItem, res *Placement) error {
	if err := tx.InsertItems(ctx, existing.OrderID, items); err != nil {
		return err
	}
	lines, err := tx.ItemLines(ctx, existing.OrderID)
	if err != nil {
		return err
	}
	totals := ComputeTotals(lines, existing.Discount)
	if err := tx.UpdateTotals(ctx, existing.OrderID, totals); err != nil {
		return err
	}
	*res = Placement{OrderID: existing.OrderID, Merged: true, Totals: totals}
	return nil
}

// afterPlacement emits the event and metrics of a committed placement.
// Neither can fail the request.
func (s *Service) afterPlacement(ctx context.Context, tableNumber int, res Placement) {
	ev := events.OrderPlaced(res.OrderID, tableNumber, res.Merged, res.Totals.Total)
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.logger.Error("failed to publish order event", "order_id", res.OrderID, "error", err)
	}
	if s.metrics != nil {
		if err := s.metrics.RecordOrderPlaced(ctx, res.Merged, res.Totals.Total); err != nil {
			s.logger.Warn("failed to record order metrics", "order_id", res.OrderID, "error", err)
		}
	}
}

func validatePlacement(req PlaceRequest) error {
	if req.TableNumber <= 0 || req.TableNumber > math.MaxInt32 {
		return apperr.Validation("table_number must be a positive integer")
	}
	if len(req.Items) == 0 {
		return apperr.Validation("order must contain at least one item")
	}
	for i, it := range req.Items {
		switch {
		case it.MenuItemID <= 0:
			return apperr.Validation("order_items[%d]: menu_item_id must be positive", i)
		case it.Quantity <= 0 || it.Quantity > math.MaxInt32:
			return apperr.Validation("order_items[%d]: quantity must be a positive integer", i)
		case it.UnitPrice.IsNegative():
			return apperr.Validation("order_items[%d]: price must not be negative", i)
		case !IsCents(it.UnitPrice):
			return apperr.Validation("order_items[%d]: price must have at most %d decimal places", i, MoneyPlaces)
		}
	}
	return nil
}

func (s *Service) checkCatalog(ctx context.Context, items []LineItem) error {
	if s.catalog == nil {
		return nil
	}
	for _, it := range items {
		_, available, err := s.catalog.Lookup(ctx, it.MenuItemID)
		if errors.Is(err, apperr.ErrNotFound) {
			return apperr.Validation("menu item %d does not exist", it.MenuItemID)
		}
		if err != nil {
			return err
		}
		if !available {
			return apperr.Validation("menu item %d is not available", it.MenuItemID)
		}
	}
	return nil
}

// ListOrders returns every order with its items nested.
func (s *Service) ListOrders(ctx context.Context) ([]Order, error) {
	rows, err := s.repo.ListFlat(ctx)
	if err != nil {
		return nil, persistence(err, "list orders")
	}
	return GroupRows(rows), nil
}

// ListOrdersDetailed returns one row per order item joined with menu and payment data.
func (s *Service) ListOrdersDetailed(ctx context.Context) ([]DetailedRow, error) {
	rows, err := s.repo.ListDetailed(ctx)
	if err != nil {
		return nil, persistence(err, "list detailed orders")
	}
	return rows, nil
}

// GetOrder returns the detailed rows of one order.
func (s *Service) GetOrder(ctx context.Context, orderID int64) ([]DetailedRow, error) {
	rows, err := s.repo.GetDetailed(ctx, orderID)
	if err != nil {
		return nil, persistence(err, "get order %d", orderID)
	}
	if len(rows) == 0 {
		return nil, apperr.NotFound("order %d not found", orderID)
	}
	return rows, nil
}

func (s *Service) GetOrderItems(ctx context.Context, orderID int64) ([]OrderItem, error) {
	items, err := s.repo.Items(ctx, orderID)
	if err != nil {
		return nil, persistence(err, "list items of order %d", orderID)
	}
	return items, nil
}

func (s *Service) CountOrders(ctx context.Context) (int64, error) {
	n, err := s.repo.Count(ctx)
	if err != nil {
		return 0, persistence(err, "count orders")
	}
	return n, nil
}

// persistence passes classified errors through and wraps everything else.
func persistence(err error, format string, args ...any) error {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}
	return apperr.Persistence(err, format, args...)
}
