package orders

import "context"

// Tx is the set of writes available inside one placement transaction.
type Tx interface {
	// LockTable serializes placements for one table until the transaction ends.
	LockTable(ctx context.Context, tableNumber int) error
	// FindPending returns the lowest-id pending order of a table, or nil.
	FindPending(ctx context.Context, tableNumber int) (*Order, error)
	InsertOrder(ctx context.Context, o *Order) error
	InsertItems(ctx context.Context, orderID int64, items []LineItem) error
	ItemLines(ctx context.Context, orderID int64) ([]LineItem, error)
	UpdateTotals(ctx context.Context, orderID int64, t Totals) error
}

// Repository is the persistence boundary of the order workflow.
type Repository interface {
	// InTx commits only if fn returns nil.
	InTx(ctx context.Context, fn func(tx Tx) error) error
	ListFlat(ctx context.Context) ([]FlatRow, error)
	ListDetailed(ctx context.Context) ([]DetailedRow, error)
	GetDetailed(ctx context.Context, orderID int64) ([]DetailedRow, error)
	Items(ctx context.Context, orderID int64) ([]OrderItem, error)
	Count(ctx context.Context) (int64, error)
}
