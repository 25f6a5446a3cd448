package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Strob0t/DealerForge/internal/domain"
	"github.com/Strob0t/DealerForge/internal/domain/user"
	"github.com/Strob0t/DealerForge/internal/secrets"
)

const tokenIssuer = "dealerforge"

var (
	// ErrInvalidSignature covers malformed tokens, bad signatures, wrong
	// algorithms and wrong issuers.
	ErrInvalidSignature = fmt.Errorf("invalid signature: %w", domain.ErrInvalidToken)
	// ErrTokenExpired is returned for well-signed tokens past their expiry.
	ErrTokenExpired = fmt.Errorf("token expired: %w", domain.ErrInvalidToken)
)

// Claims is the identity assertion carried by an access token. It never
// carries tenant status; that is checked live on every request.
type Claims struct {
	TenantID string    `json:"tid,omitempty"`
	Username string    `json:"username"`
	Role     user.Role `json:"role"`
	jwt.RegisteredClaims
}

// SecretSource provides the current and previous signing secret.
type SecretSource interface {
	Get(key string) string
	Previous(key string) string
}

// TokenService issues and verifies HS256 access tokens.
type TokenService struct {
	secrets SecretSource
	ttl     time.Duration
	now     func() time.Time
}

// NewTokenService creates a TokenService reading the signing secret from src.
func NewTokenService(src SecretSource, ttl time.Duration) *TokenService {
	return &TokenService{secrets: src, ttl: ttl, now: time.Now}
}

// Issue signs a token for u valid for the configured TTL.
func (s *TokenService) Issue(u *user.User) (string, time.Time, error) {
	now := s.now()
	exp := now.Add(s.ttl)
	claims := Claims{
		TenantID: u.TenantID,
		Username: u.Username,
		Role:     u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.secrets.Get(secrets.KeyJWTSecret)))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// Verify checks the signature and expiry of raw and returns its claims.
// Tokens signed with the secret that was replaced by the last reload are
// still accepted until they expire.
func (s *TokenService) Verify(raw string) (*Claims, error) {
	claims, err := s.parse(raw, s.secrets.Get(secrets.KeyJWTSecret))
	if errors.Is(err, jwt.ErrTokenSignatureInvalid) {
		if prev := s.secrets.Previous(secrets.KeyJWTSecret); prev != "" {
			claims, err = s.parse(raw, prev)
		}
	}
	switch {
	case err == nil:
		return claims, nil
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrTokenExpired
	default:
		return nil, ErrInvalidSignature
	}
}

func (s *TokenService) parse(raw, secret string) (*Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims,
		func(*jwt.Token) (any, error) { return []byte(secret), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, err
	}
	if claims.Subject == "" {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return &claims, nil
}
