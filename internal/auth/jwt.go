package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/campus-clubs/backend/internal/access"
	"github.com/campus-clubs/backend/internal/models"
)

var (
	ErrInvalidToken = errors.New("invalid token")
)

// Claims holds the session identity: {id, email, role, club_id} plus the principal kind.
type Claims struct {
	UserID int64       `json:"id"`
	Email  string      `json:"email"`
	Role   string      `json:"role"`
	ClubID int64       `json:"club_id,omitempty"`
	Kind   access.Kind `json:"kind"`
	jwt.RegisteredClaims
}

// Principal converts claims to the identity used by authorization rules.
func (c *Claims) Principal() access.Principal {
	return access.Principal{
		ID:     c.UserID,
		Email:  c.Email,
		Role:   models.Role(c.Role),
		ClubID: c.ClubID,
		Kind:   c.Kind,
	}
}

// JWTService handles token generation and validation.
// Tokens are stateless: role edits and password changes take effect at the next login.
type JWTService struct {
	secret      []byte
	expireHours int
	now         func() time.Time
}

// NewJWTService creates a JWT service.
func NewJWTService(secret string, expireHours int) *JWTService {
	return &JWTService{
		secret:      []byte(secret),
		expireHours: expireHours,
		now:         time.Now,
	}
}

// Generate creates a signed token for the principal.
func (s *JWTService) Generate(p access.Principal) (string, error) {
	now := s.now()
	claims := Claims{
		UserID: p.ID,
		Email:  p.Email,
		Role:   string(p.Role),
		ClubID: p.ClubID,
		Kind:   p.Kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(s.expireHours) * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.New().String(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
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
	if !ok || !token.Valid || claims.UserID <= 0 {
		return nil, ErrInvalidToken
	}
	if claims.Kind != access.KindMember && claims.Kind != access.KindAuthority {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ValidatePrincipal validates tokenString and returns the caller identity.
func (s *JWTService) ValidatePrincipal(tokenString string) (access.Principal, error) {
	claims, err := s.Validate(tokenString)
	if err != nil {
		return access.Principal{}, err
	}
	return claims.Principal(), nil
}
