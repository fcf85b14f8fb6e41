// Package auth issues and checks the signed viewer tokens that identify a
// client to the API and the presence relay.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/inamate/canvas/internal/typeid"
)

var ErrInvalidToken = errors.New("invalid token")

const defaultTokenTTL = 24 * time.Hour

type Service struct {
	jwtSecret []byte
	ttl       time.Duration
	now       func() time.Time
}

func NewService(jwtSecret string) *Service {
	return &Service{
		jwtSecret: []byte(jwtSecret),
		ttl:       defaultTokenTTL,
		now:       time.Now,
	}
}

type AuthResult struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

type claims struct {
	Name string `json:"name"`
	jwt.RegisteredClaims
}

// Guest mints a new viewer identity and a token for it.
func (s *Service) Guest(displayName string) (*AuthResult, error) {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		displayName = "Guest"
	}

	user := User{ID: typeid.NewUserID(), DisplayName: displayName}
	token, err := s.IssueToken(user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: user}, nil
}

// IssueToken signs an HS256 token for user.
func (s *Service) IssueToken(user User) (string, error) {
	now := s.now()
	c := claims{
		Name: user.DisplayName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}

// ValidateToken returns the user a token was issued for.
func (s *Service) ValidateToken(tokenString string) (*User, error) {
	var c claims
	token, err := jwt.ParseWithClaims(tokenString, &c, func(t *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid || c.Subject == "" {
		return nil, ErrInvalidToken
	}

	return &User{ID: c.Subject, DisplayName: c.Name}, nil
}
