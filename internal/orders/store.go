package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/imrishuroy/go-restaurant-pos/internal/apperr"
	"github.com/imrishuroy/go-restaurant-pos/internal/database"
)

// tableLockSpace namespaces the advisory locks taken per table number.
const tableLockSpace int32 = 7001

// DB is the part of the connection pool the store uses. *database.DB satisfies it.
type DB interface {
	database.Querier
	WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error
}

// Store is the PostgreSQL implementation of Repository.
type Store struct {
	db      DB
	nowFunc func() time.Time
}

// NewStore creates a new orders Store.
func NewStore(db DB) *Store {
	return &Store{
		db:      db,
		nowFunc: time.Now,
	}
}

func (s *Store) InTx(ctx context.Context, fn func(tx Tx) error) error {
	return s.db.WithTx(ctx, func(tx pgx.Tx) error {
		return fn(&txStore{tx: tx, nowFunc: s.nowFunc})
	})
}

type txStore struct {
	tx      pgx.Tx
	nowFunc func() time.Time
}

func (t *txStore) LockTable(ctx context.Context, tableNumber int) error {
	if _, err := t.tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1, $2)", tableLockSpace, int32(tableNumber)); err != nil {
		return apperr.Persistence(err, "lock table %d", tableNumber)
	}
	return nil
}

func (t *txStore) FindPending(ctx context.Context, tableNumber int) (*Order, error) {
	var o Order
	err := t.tx.QueryRow(ctx, `
		SELECT order_id, table_number, subtotal, tax, discount, total_amount,
		       payment_status, order_status, created_at
		FROM orders
		WHERE table_number = $1 AND order_status = $2
		ORDER BY order_id
		LIMIT 1
		FOR UPDATE`, tableNumber, StatusPending).Scan(
		&o.OrderID, &o.TableNumber, &o.Subtotal, &o.Tax, &o.Discount, &o.TotalAmount,
		&o.PaymentStatus, &o.OrderStatus, &o.CreatedAt,
	)
	if database.IsNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Persistence(err, "find pending order for table %d", tableNumber)
	}
	return &o, nil
}

// InsertOrder writes the order row and fills in OrderID and CreatedAt.
func (t *txStore) InsertOrder(ctx context.Context, o *Order) error {
	if o.CreatedAt.IsZero() {
		o.CreatedAt = t.nowFunc().UTC()
	}
	err := t.tx.QueryRow(ctx, `
		INSERT INTO orders (table_number, subtotal, tax, discount, total_amount, payment_status, order_status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING order_id`,
		o.TableNumber, o.Subtotal, o.Tax, o.Discount, o.TotalAmount, o.PaymentStatus, o.OrderStatus, o.CreatedAt,
	).Scan(&o.OrderID)
	if err != nil {
		return apperr.Persistence(err, "insert order")
	}
	return nil
}

// InsertItems sends every item row in one batch on the transaction's connection.
func (t *txStore) InsertItems(ctx context.Context, orderID int64, items []LineItem) error {
	batch := &pgx.Batch{}
	for _, it := range items {
		batch.Queue(
			"INSERT INTO order_items (order_id, menu_item_id, quantity, price) VALUES ($1, $2, $3, $4)",
			orderID, it.MenuItemID, it.Quantity, it.UnitPrice,
		)
	}

	br := t.tx.SendBatch(ctx, batch)
	for i := range items {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return apperr.Persistence(err, "insert item %d of order %d", i, orderID)
		}
	}
	if err := br.Close(); err != nil {
		return apperr.Persistence(err, "insert items of order %d", orderID)
	}
	return nil
}

func (t *txStore) ItemLines(ctx context.Context, orderID int64) ([]LineItem, error) {
	rows, err := t.tx.Query(ctx,
		"SELECT menu_item_id, quantity, price FROM order_items WHERE order_id = $1 ORDER BY order_item_id", orderID)
	if err != nil {
		return nil, apperr.Persistence(err, "load items of order %d", orderID)
	}
	defer rows.Close()

	var lines []LineItem
	for rows.Next() {
		var l LineItem
		if err := rows.Scan(&l.MenuItemID, &l.Quantity, &l.UnitPrice); err != nil {
			return nil, apperr.Persistence(err, "scan item of order %d", orderID)
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Persistence(err, "load items of order %d", orderID)
	}
	return lines, nil
}

func (t *txStore) UpdateTotals(ctx context.Context, orderID int64, tot Totals) error {
	_, err := t.tx.Exec(ctx,
		"UPDATE orders SET subtotal = $2, tax = $3, discount = $4, total_amount = $5 WHERE order_id = $1",
		orderID, tot.Subtotal, tot.Tax, tot.Discount, tot.Total)
	if err != nil {
		return apperr.Persistence(err, "update totals of order %d", orderID)
	}
	return nil
}

const flatQuery = `
	SELECT o.order_id, o.table_number, o.subtotal, o.tax, o.discount, o.total_amount,
	       o.payment_status, o.order_status, o.created_at,
	       oi.order_item_id, oi.menu_item_id, oi.quantity, oi.price
	FROM orders o
	LEFT JOIN order_items oi ON oi.order_id = o.order_id
	ORDER BY o.order_id, oi.order_item_id`

// The lateral join keeps one row per item when an order has several payments.
const detailedQuery = `
	SELECT o.order_id, o.table_number, o.subtotal, o.tax, o.discount, o.total_amount, o.order_status,
	       oi.order_item_id, oi.menu_item_id, oi.quantity,
	       m.name, m.price, m.price * oi.quantity,
	       p.payment_amount, p.payment_method, p.payment_status, p.tips
	FROM orders o
	JOIN order_items oi ON oi.order_id = o.order_id
	LEFT JOIN menu m ON m.id = oi.menu_item_id
	LEFT JOIN LATERAL (
		SELECT payment_amount, payment_method, payment_status, tips
		FROM payments
		WHERE payments.order_id = o.order_id
		ORDER BY payment_date DESC, payment_id DESC
		LIMIT 1
	) p ON TRUE
	%s
	ORDER BY o.order_id, oi.order_item_id`

func (s *Store) ListFlat(ctx context.Context) ([]FlatRow, error) {
	rows, err := s.db.Query(ctx, flatQuery)
	if err != nil {
		return nil, apperr.Persistence(err, "list orders")
	}
	defer rows.Close()

	var out []FlatRow
	for rows.Next() {
		var r FlatRow
		if err := rows.Scan(
			&r.OrderID, &r.TableNumber, &r.Subtotal, &r.Tax, &r.Discount, &r.TotalAmount,
			&r.PaymentStatus, &r.OrderStatus, &r.CreatedAt,
			&r.OrderItemID, &r.MenuItemID, &r.Quantity, &r.Price,
		); err != nil {
			return nil, apperr.Persistence(err, "scan order row")
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Persistence(err, "list orders")
	}
	return out, nil
}

func (s *Store) ListDetailed(ctx context.Context) ([]DetailedRow, error) {
	return s.detailed(ctx, fmt.Sprintf(detailedQuery, ""))
}

func (s *Store) GetDetailed(ctx context.Context, orderID int64) ([]DetailedRow, error) {
	return s.detailed(ctx, fmt.Sprintf(detailedQuery, "WHERE o.order_id = $1"), orderID)
}

func (s *Store) detailed(ctx context.Context, query string, args ...any) ([]DetailedRow, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, apperr.Persistence(err, "query detailed orders")
	}
	defer rows.Close()

	out := make([]DetailedRow, 0)
	for rows.Next() {
		var r DetailedRow
		if err := rows.Scan(
			&r.OrderID, &r.TableNumber, &r.Subtotal, &r.Tax, &r.Discount, &r.TotalAmount, &r.OrderStatus,
			&r.OrderItemID, &r.MenuItemID, &r.Quantity,
			&r.MenuItemName, &r.MenuItemPrice, &r.TotalPriceForItem,
			&r.PaymentAmount, &r.PaymentMethod, &r.PaymentStatus, &r.Tips,
		); err != nil {
			return nil, apperr.Persistence(err, "scan detailed order row")
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Persistence(err, "query detailed orders")
	}
	return out, nil
}

func (s *Store) Items(ctx context.Context, orderID int64) ([]OrderItem, error) {
	rows, err := s.db.Query(ctx, `
		SELECT order_item_id, order_id, menu_item_id, quantity, price
		FROM order_items
		WHERE order_id = $1
		ORDER BY order_item_id`, orderID)
	if err != nil {
		return nil, apperr.Persistence(err, "list items of order %d", orderID)
	}
	defer rows.Close()

	items := make([]OrderItem, 0)
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.OrderItemID, &it.OrderID, &it.MenuItemID, &it.Quantity, &it.Price); err != nil {
			return nil, apperr.Persistence(err, "scan item of order %d", orderID)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Persistence(err, "list items of order %d", orderID)
	}
	return items, nil
}

func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRow(ctx, "SELECT COUNT(*) FROM orders").Scan(&n); err != nil {
		return 0, apperr.Persistence(err, "count orders")
	}
	return n, nil
}
