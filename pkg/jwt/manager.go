package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken token is malformed, unsigned or tampered
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken token signature is valid but the token expired
	ErrExpiredToken = errors.New("token expired")
)

// Claims is the JWT payload for editor sessions
type Claims struct {
	jwt.RegisteredClaims
	UserID uint64 `json:"user_id"`
	Role   string `json:"role"`
	Level  int    `json:"level,omitempty"`
}

// Manager signs and verifies editor tokens with an HMAC secret
type Manager struct {
	secretKey []byte
	expiresIn time.Duration
}

// NewManager creates a JWT manager
func NewManager(secret string, expiresIn time.Duration) *Manager {
	return &Manager{
		secretKey: []byte(secret),
		expiresIn: expiresIn,
	}
}

// GenerateToken issues a signed token for a user
func (m *Manager) GenerateToken(userID uint64, role string, level int) (string, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.expiresIn)),
		},
		UserID: userID,
		Role:   role,
		Level:  level,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secretKey)
}

// VerifyToken validates a token string and returns its claims
func (m *Manager) VerifyToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		// Validate signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secretKey, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, ErrInvalidToken
}
