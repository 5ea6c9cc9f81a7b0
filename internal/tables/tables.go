package tables

import (
	"context"
	"log/slog"

	"github.com/imrishuroy/go-restaurant-pos/internal/apperr"
	"github.com/imrishuroy/go-restaurant-pos/internal/database"
)

// Table statuses
const (
	StatusFree     = "free"
	StatusOccupied = "occupied"
	StatusReserved = "reserved"
)

// Table is referenced by orders through its number only.
type Table struct {
	ID     int64  `json:"id"`
	Number int    `json:"number"`
	Status string `json:"status"`
}

func ValidStatus(s string) bool {
	switch s {
	case StatusFree, StatusOccupied, StatusReserved:
		return true
	}
	return false
}

// Repository persists tables. UpdateStatus and SetStatusByNumber report
// whether a row was changed.
type Repository interface {
	List(ctx context.Context) ([]Table, error)
	Insert(ctx context.Context, t *Table) error
	UpdateStatus(ctx context.Context, id int64, status string) (bool, error)
	SetStatusByNumber(ctx context.Context, number int, status string) (bool, error)
}

// Service tracks table occupancy.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

func (s *Service) ListTables(ctx context.Context) ([]Table, error) {
	return s.repo.List(ctx)
}

// CreateTable adds a table. An empty status defaults to free.
func (s *Service) CreateTable(ctx context.Context, number int, status string) (*Table, error) {
	if number <= 0 {
		return nil, apperr.Validation("number must be a positive integer")
	}
	if status == "" {
		status = StatusFree
	}
	if !ValidStatus(status) {
		return nil, apperr.Validation("invalid table status %q", status)
	}
	t := &Table{Number: number, Status: status}
	if err := s.repo.Insert(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *Service) UpdateTableStatus(ctx context.Context, id int64, status string) error {
	if !ValidStatus(status) {
		return apperr.Validation("invalid table status %q", status)
	}
	ok, err := s.repo.UpdateStatus(ctx, id, status)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NotFound("table %d not found", id)
	}
	s.logger.Info("table status updated", "table_id", id, "status", status)
	return nil
}

// MarkOccupiedByNumber flags the table an order was placed for. Unknown numbers are ignored.
func (s *Service) MarkOccupiedByNumber(ctx context.Context, number int) error {
	ok, err := s.repo.SetStatusByNumber(ctx, number, StatusOccupied)
	if err != nil {
		return err
	}
	if !ok {
		s.logger.Warn("order placed for unknown table", "table_number", number)
	}
	return nil
}

// Store is the PostgreSQL Repository.
type Store struct {
	db database.Querier
}

func NewStore(db database.Querier) *Store {
	return &Store{db: db}
}

func (s *Store) List(ctx context.Context) ([]Table, error) {
	rows, err := s.db.Query(ctx, "SELECT id, number, status FROM tables ORDER BY number")
	if err != nil {
		return nil, apperr.Persistence(err, "fetch tables")
	}
	defer rows.Close()

	out := make([]Table, 0)
	for rows.Next() {
		var t Table
		if err := rows.Scan(&t.ID, &t.Number, &t.Status); err != nil {
			return nil, apperr.Persistence(err, "scan table")
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Persistence(err, "fetch tables")
	}
	return out, nil
}

func (s *Store) Insert(ctx context.Context, t *Table) error {
	err := s.db.QueryRow(ctx,
		"INSERT INTO tables (number, status) VALUES ($1, $2) RETURNING id", t.Number, t.Status,
	).Scan(&t.ID)
	if database.IsCode(err, database.CodeUniqueViolation) {
		return apperr.Validation("table %d already exists", t.Number)
	}
	if err != nil {
		return apperr.Persistence(err, "create table")
	}
	return nil
}

func (s *Store) UpdateStatus(ctx context.Context, id int64, status string) (bool, error) {
	tag, err := s.db.Exec(ctx, "UPDATE tables SET status = $2 WHERE id = $1", id, status)
	if err != nil {
		return false, apperr.Persistence(err, "update table %d", id)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) SetStatusByNumber(ctx context.Context, number int, status string) (bool, error) {
	tag, err := s.db.Exec(ctx, "UPDATE tables SET status = $2 WHERE number = $1", number, status)
	if err != nil {
		return false, apperr.Persistence(err, "update table number %d", number)
	}
	return tag.RowsAffected() > 0, nil
}
