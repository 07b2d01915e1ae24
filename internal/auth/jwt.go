package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/smartnex-ai/backend/internal/models"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrSessionGone  = errors.New("session revoked or expired")
)

// Claims holds JWT claims. Subject is the user or tenant id; ID is the server-side session id.
type Claims struct {
	Role       models.Role `json:"role"`
	ProductKey string      `json:"product_key,omitempty"`
	jwt.RegisteredClaims
}

// Principal converts validated claims to the request caller.
func (c *Claims) Principal() (*models.Principal, error) {
	id, err := uuid.Parse(c.Subject)
	if err != nil {
		return nil, ErrInvalidToken
	}
	return &models.Principal{ID: id, Role: c.Role, ProductKey: c.ProductKey, SessionID: c.ID}, nil
}

// JWTService handles token generation and validation.
type JWTService struct {
	secret []byte
	expiry time.Duration
	now    func() time.Time
}

// NewJWTService creates a JWT service.
func NewJWTService(secret string, expireHours int) *JWTService {
	return &JWTService{
		secret: []byte(secret),
		expiry: time.Duration(expireHours) * time.Hour,
		now:    time.Now,
	}
}

// Expiry returns the token lifetime.
func (s *JWTService) Expiry() time.Duration { return s.expiry }

// Generate creates a signed token with a fresh session id.
func (s *JWTService) Generate(subject uuid.UUID, role models.Role, productKey string) (string, *Claims, error) {
	now := s.now()
	claims := &Claims{
		Role:       role,
		ProductKey: productKey,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.New().String(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", nil, err
	}
	return signed, claims, nil
}

// Validate parses and validates a JWT, returning claims or error.
func (s *JWTService) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.ID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
