package menu

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/imrishuroy/go-restaurant-pos/internal/apperr"
	"github.com/imrishuroy/go-restaurant-pos/internal/database"
)

// Item is a menu entry. Orders copy its price at placement time.
type Item struct {
	ID              int64           `json:"id"`
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	Category        string          `json:"category"`
	Price           decimal.Decimal `json:"price"`
	Discount        decimal.Decimal `json:"discount"`
	Availability    bool            `json:"availability"`
	PreparationTime int             `json:"preparationTime"`
	ImageURL        *string         `json:"imageUrl"`
	Tags            []string        `json:"tags"`
	CreatedAt       time.Time       `json:"createdAt"`
}

// Validate checks the fields the database cannot express.
func (it *Item) Validate() error {
	if strings.TrimSpace(it.Name) == "" {
		return apperr.Validation("name is required")
	}
	if it.Price.IsNegative() {
		return apperr.Validation("price must not be negative")
	}
	if it.Discount.IsNegative() || it.Discount.GreaterThan(it.Price) {
		return apperr.Validation("discount must be between 0 and price")
	}
	if !it.Price.Equal(it.Price.Round(2)) || !it.Discount.Equal(it.Discount.Round(2)) {
		return apperr.Validation("price and discount must have at most 2 decimal places")
	}
	if it.PreparationTime < 0 {
		return apperr.Validation("preparationTime must not be negative")
	}
	return nil
}

// ParseTags accepts either a JSON array or repeated/comma separated form values.
func ParseTags(values []string) []string {
	tags := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if strings.HasPrefix(v, "[") {
			var arr []string
			if err := json.Unmarshal([]byte(v), &arr); err == nil {
				tags = append(tags, ParseTags(arr)...)
				continue
			}
		}
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				tags = append(tags, part)
			}
		}
	}
	return tags
}

// Store persists menu items.
type Store struct {
	db database.Querier
}

func NewStore(db database.Querier) *Store {
	return &Store{db: db}
}

const itemColumns = `id, name, description, category, price, discount, availability,
	preparation_time, image_url, tags, created_at`

func (s *Store) Create(ctx context.Context, it *Item) error {
	if err := it.Validate(); err != nil {
		return err
	}
	if it.Tags == nil {
		it.Tags = []string{}
	}
	err := s.db.QueryRow(ctx, `
		INSERT INTO menu (name, description, category, price, discount, availability, preparation_time, image_url, tags)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at`,
		it.Name, it.Description, it.Category, it.Price, it.Discount, it.Availability,
		it.PreparationTime, it.ImageURL, it.Tags,
	).Scan(&it.ID, &it.CreatedAt)
	if err != nil {
		return apperr.Persistence(err, "save menu item")
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(row scanner) (Item, error) {
	var it Item
	err := row.Scan(&it.ID, &it.Name, &it.Description, &it.Category, &it.Price, &it.Discount,
		&it.Availability, &it.PreparationTime, &it.ImageURL, &it.Tags, &it.CreatedAt)
	return it, err
}

func (s *Store) List(ctx context.Context) ([]Item, error) {
	rows, err := s.db.Query(ctx, "SELECT "+itemColumns+" FROM menu ORDER BY id")
	if err != nil {
		return nil, apperr.Persistence(err, "fetch menu items")
	}
	defer rows.Close()

	items := make([]Item, 0)
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, apperr.Persistence(err, "scan menu item")
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Persistence(err, "fetch menu items")
	}
	return items, nil
}

func (s *Store) Get(ctx context.Context, id int64) (*Item, error) {
	it, err := scanItem(s.db.QueryRow(ctx, "SELECT "+itemColumns+" FROM menu WHERE id = $1", id))
	if database.IsNoRows(err) {
		return nil, apperr.NotFound("menu item %d not found", id)
	}
	if err != nil {
		return nil, apperr.Persistence(err, "fetch menu item %d", id)
	}
	return &it, nil
}

func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRow(ctx, "SELECT COUNT(*) FROM menu").Scan(&n); err != nil {
		return 0, apperr.Persistence(err, "count menu items")
	}
	return n, nil
}

// Lookup returns the live price and availability used by the order catalog check.
func (s *Store) Lookup(ctx context.Context, id int64) (decimal.Decimal, bool, error) {
	var (
		price     decimal.Decimal
		available bool
	)
	err := s.db.QueryRow(ctx, "SELECT price, availability FROM menu WHERE id = $1", id).Scan(&price, &available)
	if database.IsNoRows(err) {
		return decimal.Zero, false, apperr.NotFound("menu item %d not found", id)
	}
	if err != nil {
		return decimal.Zero, false, apperr.Persistence(err, "look up menu item %d", id)
	}
	return price, available, nil
}
