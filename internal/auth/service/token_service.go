package service

//go:generate mockgen -destination=../../mocks/mock_token_generator.go -package=mocks github.com/careledger/auth-service/internal/auth/service TokenGenerator

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/careledger/auth-service/internal/auth/domain"
	autherror "github.com/careledger/auth-service/internal/errors"
	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenLifetime is used when the configured lifetime expression
// cannot be parsed.
const DefaultTokenLifetime = 15 * time.Minute

type TokenGenerator interface {
	Generate(userID, email string, role domain.Role) (string, time.Time, error)
	Verify(tokenString string) (*JWTCustomClaims, error)
	Lifetime() time.Duration
}

type TokenService struct {
	secret   string
	lifetime time.Duration
}

type JWTCustomClaims struct {
	jwt.RegisteredClaims
	UserID string      `json:"user_id"`
	Email  string      `json:"email"`
	Role   domain.Role `json:"role,omitempty"`
}

// NewTokenService builds a token service from a signing secret and a
// lifetime expression such as "15m" or "1h".
func NewTokenService(secret, lifetimeExpr string) *TokenService {
	return &TokenService{
		secret:   secret,
		lifetime: ParseLifetime(lifetimeExpr),
	}
}

var lifetimeRe = regexp.MustCompile(`^([0-9]+)\s*([smhd])$`)

// ParseLifetime parses a "<n><unit>" duration expression where unit is one
// of s, m, h, d. Unrecognized input falls back to the 15-minute default.
func ParseLifetime(expr string) time.Duration {
	m := lifetimeRe.FindStringSubmatch(expr)
	if m == nil {
		return DefaultTokenLifetime
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return DefaultTokenLifetime
	}
	switch m[2] {
	case "s":
		return time.Duration(n) * time.Second
	case "m":
		return time.Duration(n) * time.Minute
	case "h":
		return time.Duration(n) * time.Hour
	case "d":
		return time.Duration(n) * 24 * time.Hour
	}
	return DefaultTokenLifetime
}

func (ts *TokenService) Generate(userID, email string, role domain.Role) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(ts.lifetime)

	claims := JWTCustomClaims{
		UserID: userID,
		Email:  email,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(ts.secret))
	if err != nil {
		return "", time.Time{}, err
	}

	return token, expiresAt, nil
}

func (ts *TokenService) Lifetime() time.Duration {
	return ts.lifetime
}

// Verify parses and validates a token string. Any failure — bad signature,
// unexpected algorithm, malformed payload, expiry in the past — yields
// ErrInvalidToken; a partially-trusted claims set is never returned.
func (ts *TokenService) Verify(tokenString string) (*JWTCustomClaims, error) {
	claims := &JWTCustomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(ts.secret), nil
	})

	if err != nil || !token.Valid {
		return nil, autherror.ErrInvalidToken
	}

	return claims, nil
}
