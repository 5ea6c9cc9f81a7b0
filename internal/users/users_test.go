package users

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/imrishuroy/go-restaurant-pos/internal/apperr"
)

type memRepo struct {
	byID map[int64]*User
}

func newMemRepo() *memRepo { return &memRepo{byID: map[int64]*User{}} }

func (m *memRepo) Insert(ctx context.Context, u *User) error {
	for _, existing := range m.byID {
		if existing.Email == u.Email || existing.Username == u.Username {
			return apperr.Conflict("username or email already registered")
		}
	}
	u.ID = int64(len(m.byID) + 1)
	cp := *u
	m.byID[u.ID] = &cp
	return nil
}

func (m *memRepo) ByEmail(ctx context.Context, email string) (*User, error) {
	for _, u := range m.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, apperr.NotFound("user not found")
}

func (m *memRepo) ByID(ctx context.Context, id int64) (*User, error) {
	if u, ok := m.byID[id]; ok {
		return u, nil
	}
	return nil, apperr.NotFound("user not found")
}

func newService() *Service {
	return NewService(newMemRepo(), NewTokens("test-secret", time.Hour), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func validInput() RegisterInput {
	return RegisterInput{
		FullName:  "Ada Cook",
		Username:  "ada",
		Email:     "Ada@Example.com",
		Password:  "s3cret",
		Role:      RoleChef,
		AvatarURL: "/uploads/a.png",
	}
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	u, err := svc.Register(ctx, validInput())
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if u.PasswordHash == "s3cret" || u.PasswordHash == "" {
		t.Fatalf("password must be hashed")
	}

	got, token, err := svc.Login(ctx, "ada@example.com", "s3cret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if got.ID != u.ID || token == "" {
		t.Fatalf("unexpected login result: %+v %q", got, token)
	}

	claims, err := svc.VerifyToken(token)
	if err != nil {
		t.Fatalf("VerifyToken: %v", err)
	}
	if claims.UserID != u.ID || claims.Username != "ada" || claims.Role != RoleChef {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	current, err := svc.CurrentUser(ctx, claims.UserID)
	if err != nil || current.Username != "ada" {
		t.Fatalf("CurrentUser: %+v %v", current, err)
	}
}

func TestRegister_Validation(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	in := validInput()
	in.AvatarURL = ""
	if _, err := svc.Register(ctx, in); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("missing avatar: expected validation error, got %v", err)
	}
	in = validInput()
	in.Role = "waiter"
	if _, err := svc.Register(ctx, in); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("bad role: expected validation error, got %v", err)
	}
	if _, err := svc.Register(ctx, validInput()); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := svc.Register(ctx, validInput()); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("duplicate: expected conflict, got %v", err)
	}
}

func TestLogin_Failures(t *testing.T) {
	svc := newService()
	ctx := context.Background()
	_, _ = svc.Register(ctx, validInput())

	cases := []struct {
		name     string
		email    string
		password string
		kind     error
	}{
		{"missing fields", "", "", apperr.ErrValidation},
		{"unknown user", "nobody@example.com", "x", apperr.ErrNotFound},
		{"wrong password", "ada@example.com", "nope", apperr.ErrValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := svc.Login(ctx, tc.email, tc.password)
			if !errors.Is(err, tc.kind) {
				t.Fatalf("expected %v, got %v", tc.kind, err)
			}
		})
	}
}

func TestTokens_Expired(t *testing.T) {
	tokens := NewTokens("k", time.Hour)
	tokens.nowFunc = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	raw, err := tokens.Issue(&User{ID: 1, Username: "u", Role: RoleCustomer})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	tokens.nowFunc = time.Now
	if _, err := tokens.Verify(raw); !errors.Is(err, apperr.ErrUnauthenticated) {
		t.Fatalf("expected unauthenticated for expired token, got %v", err)
	}
}

func TestTokens_WrongSecret(t *testing.T) {
	raw, _ := NewTokens("one", time.Hour).Issue(&User{ID: 1})
	if _, err := NewTokens("two", time.Hour).Verify(raw); !errors.Is(err, apperr.ErrUnauthenticated) {
		t.Fatalf("expected unauthenticated, got %v", err)
	}
	if _, err := NewTokens("two", time.Hour).Verify(""); !errors.Is(err, apperr.ErrUnauthenticated) {
		t.Fatalf("expected unauthenticated for empty token, got %v", err)
	}
}
