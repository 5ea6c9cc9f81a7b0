package tables

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/imrishuroy/go-restaurant-pos/internal/apperr"
)

type memRepo struct {
	rows   []Table
	nextID int64
}

func (m *memRepo) List(ctx context.Context) ([]Table, error) { return m.rows, nil }

func (m *memRepo) Insert(ctx context.Context, t *Table) error {
	for _, r := range m.rows {
		if r.Number == t.Number {
			return apperr.Validation("table %d already exists", t.Number)
		}
	}
	m.nextID++
	t.ID = m.nextID
	m.rows = append(m.rows, *t)
	return nil
}

func (m *memRepo) UpdateStatus(ctx context.Context, id int64, status string) (bool, error) {
	for i := range m.rows {
		if m.rows[i].ID == id {
			m.rows[i].Status = status
			return true, nil
		}
	}
	return false, nil
}

func (m *memRepo) SetStatusByNumber(ctx context.Context, number int, status string) (bool, error) {
	for i := range m.rows {
		if m.rows[i].Number == number {
			m.rows[i].Status = status
			return true, nil
		}
	}
	return false, nil
}

func newService() (*Service, *memRepo) {
	repo := &memRepo{}
	return NewService(repo, slog.New(slog.NewTextHandler(io.Discard, nil))), repo
}

func TestCreateTable(t *testing.T) {
	svc, repo := newService()
	ctx := context.Background()

	tbl, err := svc.CreateTable(ctx, 4, "")
	if err != nil {
		t.Fatalf("CreateTable: %v", err)
	}
	if tbl.Status != StatusFree || tbl.ID == 0 {
		t.Fatalf("unexpected table: %+v", tbl)
	}
	if _, err := svc.CreateTable(ctx, 4, StatusReserved); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("duplicate number: expected validation error, got %v", err)
	}
	if _, err := svc.CreateTable(ctx, 5, "broken"); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("bad status: expected validation error, got %v", err)
	}
	if len(repo.rows) != 1 {
		t.Fatalf("expected 1 table, got %d", len(repo.rows))
	}
}

func TestUpdateTableStatus(t *testing.T) {
	svc, repo := newService()
	ctx := context.Background()
	tbl, _ := svc.CreateTable(ctx, 1, StatusFree)

	if err := svc.UpdateTableStatus(ctx, tbl.ID, StatusReserved); err != nil {
		t.Fatalf("UpdateTableStatus: %v", err)
	}
	if repo.rows[0].Status != StatusReserved {
		t.Fatalf("status not updated: %+v", repo.rows[0])
	}
	if err := svc.UpdateTableStatus(ctx, 999, StatusFree); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("unknown id: expected not found, got %v", err)
	}
	if err := svc.UpdateTableStatus(ctx, tbl.ID, "dirty"); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("bad status: expected validation error, got %v", err)
	}
}

func TestMarkOccupiedByNumber(t *testing.T) {
	svc, repo := newService()
	ctx := context.Background()
	_, _ = svc.CreateTable(ctx, 8, StatusFree)

	if err := svc.MarkOccupiedByNumber(ctx, 8); err != nil {
		t.Fatalf("MarkOccupiedByNumber: %v", err)
	}
	if repo.rows[0].Status != StatusOccupied {
		t.Fatalf("expected occupied, got %s", repo.rows[0].Status)
	}
	if err := svc.MarkOccupiedByNumber(ctx, 42); err != nil {
		t.Fatalf("unknown table should be ignored, got %v", err)
	}
}

type execQuerier struct {
	tag pgconn.CommandTag
}

func (q execQuerier) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return q.tag, nil
}

func (q execQuerier) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, errors.New("not supported")
}

func (q execQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }

func TestStoreUpdateStatus_RowsAffected(t *testing.T) {
	ok, err := NewStore(execQuerier{tag: pgconn.NewCommandTag("UPDATE 0")}).UpdateStatus(context.Background(), 1, StatusFree)
	if err != nil || ok {
		t.Fatalf("expected no rows changed, got %v %v", ok, err)
	}
	ok, err = NewStore(execQuerier{tag: pgconn.NewCommandTag("UPDATE 1")}).UpdateStatus(context.Background(), 1, StatusFree)
	if err != nil || !ok {
		t.Fatalf("expected one row changed, got %v %v", ok, err)
	}
}
