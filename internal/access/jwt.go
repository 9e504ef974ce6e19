package access

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

type TokenMaker struct {
	secret []byte
	issuer string
}

func NewTokenMaker(secret string) *TokenMaker {
	return &TokenMaker{
		secret: []byte(secret),
		issuer: "capstore-auth",
	}
}

type Claims struct {
	UserID   string `json:"user_id"`
	Role     Role   `json:"role"`
	ActingAs Role   `json:"acting_as,omitempty"`
	jwt.RegisteredClaims
}

func (c Claims) Principal() Principal {
	return Principal{UserID: c.UserID, Role: c.Role, ActingAs: c.ActingAs}
}

func (t *TokenMaker) New(p Principal, ttl time.Duration) (string, error) {
	now := time.Now()

	claims := Claims{
		UserID:   p.UserID,
		Role:     p.Role,
		ActingAs: p.ActingAs,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.UserID,
			Issuer:    t.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

func (t *TokenMaker) Parse(tokenStr string) (Claims, error) {
	var c Claims

	_, err := jwt.ParseWithClaims(tokenStr, &c,
		func(*jwt.Token) (any, error) { return t.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(t.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil || c.UserID == "" {
		return Claims{}, ErrInvalidToken
	}

	// Roles arrive in whatever spelling the issuing service stores.
	if c.Role, err = ParseRole(string(c.Role)); err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if c.ActingAs != "" {
		if c.ActingAs, err = ParseRole(string(c.ActingAs)); err != nil {
			return Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
		}
	}
	return c, nil
}
