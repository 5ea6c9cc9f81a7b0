package users

import (
	"context"
	"time"

	"github.com/imrishuroy/go-restaurant-pos/internal/apperr"
	"github.com/imrishuroy/go-restaurant-pos/internal/database"
)

// Roles
const (
	RoleChef     = "chef"
	RoleManager  = "restaurant manager"
	RoleCustomer = "customer"
)

func ValidRole(r string) bool {
	return r == RoleChef || r == RoleManager || r == RoleCustomer
}

// User is a registered account. PasswordHash never leaves the service.
type User struct {
	ID           int64     `json:"id"`
	FullName     string    `json:"fullName"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	AvatarURL    string    `json:"avatarUrl"`
	Address      string    `json:"address"`
	PhoneNumber  string    `json:"phoneNumber"`
	CreatedAt    time.Time `json:"createdAt"`
}

type Repository interface {
	Insert(ctx context.Context, u *User) error
	ByEmail(ctx context.Context, email string) (*User, error)
	ByID(ctx context.Context, id int64) (*User, error)
}

// Store is the PostgreSQL Repository.
type Store struct {
	db database.Querier
}

func NewStore(db database.Querier) *Store {
	return &Store{db: db}
}

func (s *Store) Insert(ctx context.Context, u *User) error {
	err := s.db.QueryRow(ctx, `
		INSERT INTO users (full_name, username, email, password_hash, role, avatar_url, address, phone_number)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`,
		u.FullName, u.Username, u.Email, u.PasswordHash, u.Role, u.AvatarURL, u.Address, u.PhoneNumber,
	).Scan(&u.ID, &u.CreatedAt)
	if database.IsCode(err, database.CodeUniqueViolation) {
		return apperr.Conflict("username or email already registered")
	}
	if err != nil {
		return apperr.Persistence(err, "register user")
	}
	return nil
}

const userColumns = `id, full_name, username, email, password_hash, role,
	COALESCE(avatar_url, ''), COALESCE(address, ''), COALESCE(phone_number, ''), created_at`

func (s *Store) one(ctx context.Context, where string, arg any) (*User, error) {
	var u User
	err := s.db.QueryRow(ctx, "SELECT "+userColumns+" FROM users WHERE "+where+" = $1", arg).Scan(
		&u.ID, &u.FullName, &u.Username, &u.Email, &u.PasswordHash, &u.Role,
		&u.AvatarURL, &u.Address, &u.PhoneNumber, &u.CreatedAt,
	)
	if database.IsNoRows(err) {
		return nil, apperr.NotFound("user not found")
	}
	if err != nil {
		return nil, apperr.Persistence(err, "fetch user")
	}
	return &u, nil
}

func (s *Store) ByEmail(ctx context.Context, email string) (*User, error) {
	return s.one(ctx, "email", email)
}

func (s *Store) ByID(ctx context.Context, id int64) (*User, error) {
	return s.one(ctx, "id", id)
}
