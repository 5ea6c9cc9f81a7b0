package users

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/imrishuroy/go-restaurant-pos/internal/apperr"
)

// BcryptCost is the work factor for new password hashes.
const BcryptCost = 10

// RegisterInput is what a new account needs. AvatarURL is the stored upload.
type RegisterInput struct {
	FullName    string
	Username    string
	Email       string
	Password    string
	Role        string
	AvatarURL   string
	Address     string
	PhoneNumber string
}

type Service struct {
	repo   Repository
	tokens *Tokens
	logger *slog.Logger
}

func NewService(repo Repository, tokens *Tokens, logger *slog.Logger) *Service {
	return &Service{repo: repo, tokens: tokens, logger: logger}
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, error) {
	if in.FullName == "" || in.Username == "" || in.Email == "" || in.Password == "" || in.Role == "" || in.AvatarURL == "" {
		return nil, apperr.Validation("all fields are required")
	}
	if !ValidRole(in.Role) {
		return nil, apperr.Validation("invalid role %q", in.Role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), BcryptCost)
	if err != nil {
		return nil, err
	}
	u := &User{
		FullName:     in.FullName,
		Username:     in.Username,
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		PasswordHash: string(hash),
		Role:         in.Role,
		AvatarURL:    in.AvatarURL,
		Address:      in.Address,
		PhoneNumber:  in.PhoneNumber,
	}
	if err := s.repo.Insert(ctx, u); err != nil {
		return nil, err
	}
	s.logger.Info("user registered", "user_id", u.ID, "role", u.Role)
	return u, nil
}

// Login checks the credentials and returns the user with a fresh token.
func (s *Service) Login(ctx context.Context, email, password string) (*User, string, error) {
	if email == "" || password == "" {
		return nil, "", apperr.Validation("email and password are required")
	}
	u, err := s.repo.ByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, "", apperr.Validation("invalid credentials")
		}
		return nil, "", err
	}
	token, err := s.tokens.Issue(u)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

func (s *Service) VerifyToken(raw string) (*Claims, error) {
	return s.tokens.Verify(raw)
}

func (s *Service) CurrentUser(ctx context.Context, id int64) (*User, error) {
	return s.repo.ByID(ctx, id)
}
