package users

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/imrishuroy/go-restaurant-pos/internal/apperr"
)

// Claims carried by access tokens.
type Claims struct {
	UserID   int64  `json:"userId"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Tokens issues and verifies HS256 access tokens.
type Tokens struct {
	secret  []byte
	ttl     time.Duration
	nowFunc func() time.Time
}

func NewTokens(secret string, ttl time.Duration) *Tokens {
	return &Tokens{secret: []byte(secret), ttl: ttl, nowFunc: time.Now}
}

func (t *Tokens) Issue(u *User) (string, error) {
	now := t.nowFunc()
	claims := Claims{
		UserID:   u.ID,
		Username: u.Username,
		Role:     u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(u.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

// Verify returns the claims of a valid token, or an unauthenticated error.
func (t *Tokens) Verify(raw string) (*Claims, error) {
	if raw == "" {
		return nil, apperr.Unauthenticated("token missing")
	}
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(tok *jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(t.nowFunc),
	)
	if errors.Is(err, jwt.ErrTokenExpired) {
		return nil, apperr.Unauthenticated("token expired")
	}
	if err != nil {
		return nil, apperr.Unauthenticated("invalid token")
	}
	return claims, nil
}
