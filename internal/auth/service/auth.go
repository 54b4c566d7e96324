package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/kodbank/backend/internal/models"
)

var (
	// ErrConfiguration is returned when the signing secret is missing
	ErrConfiguration = errors.New("token signing secret is not configured")
	// ErrInvalidToken is returned for any token that does not validate
	ErrInvalidToken = errors.New("invalid or expired token")
)

// TokenGenerator handles JWT session token generation and validation.
// Validation is a pure function of the token, the secret and the clock.
type TokenGenerator struct {
	secret            string
	accessTokenExpiry time.Duration
	now               func() time.Time
}

// NewTokenGenerator creates a new token generator
func NewTokenGenerator(secret string, accessExpiry time.Duration) *TokenGenerator {
	return &TokenGenerator{
		secret:            secret,
		accessTokenExpiry: accessExpiry,
		now:               time.Now,
	}
}

// Ready reports ErrConfiguration when tokens cannot be signed
func (tg *TokenGenerator) Ready() error {
	if tg.secret == "" {
		return ErrConfiguration
	}
	return nil
}

// Expiry returns the lifetime of issued tokens
func (tg *TokenGenerator) Expiry() time.Duration {
	return tg.accessTokenExpiry
}

// GenerateToken creates a session token for the username carrying its role.
// It returns the signed token together with its absolute expiry.
func (tg *TokenGenerator) GenerateToken(username string, role models.Role) (string, time.Time, error) {
	if err := tg.Ready(); err != nil {
		return "", time.Time{}, err
	}

	issuedAt := tg.now()
	expiresAt := issuedAt.Add(tg.accessTokenExpiry)
	claims := jwt.MapClaims{
		"sub":  username,
		"role": string(role),
		"exp":  expiresAt.Unix(),
		"iat":  issuedAt.Unix(),
		"jti":  uuid.New().String(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(tg.secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign access token: %w", err)
	}

	return tokenString, time.Unix(expiresAt.Unix(), 0), nil
}

// ValidateAccessToken validates a session token and returns its subject and role
func (tg *TokenGenerator) ValidateAccessToken(tokenString string) (string, models.Role, error) {
	if tokenString == "" {
		return "", "", fmt.Errorf("%w: empty token", ErrInvalidToken)
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		// Validate the signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(tg.secret), nil
	}, jwt.WithTimeFunc(tg.now), jwt.WithExpirationRequired())
	if err != nil {
		return "", "", fmt.Errorf("%w: failed to parse token: %w", ErrInvalidToken, err)
	}

	if !token.Valid {
		return "", "", fmt.Errorf("%w: token is invalid", ErrInvalidToken)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", "", fmt.Errorf("%w: invalid token claims", ErrInvalidToken)
	}

	subject, err := claims.GetSubject()
	if err != nil || subject == "" {
		return "", "", fmt.Errorf("%w: sub not found in token", ErrInvalidToken)
	}

	role, ok := claims["role"].(string)
	if !ok || !models.Role(role).IsValid() {
		return "", "", fmt.Errorf("%w: role not found in token", ErrInvalidToken)
	}

	return subject, models.Role(role), nil
}
