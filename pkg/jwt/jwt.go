package jwt

import (
	"errors"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

// Role identifies which side of the portal a user belongs to
type Role string

const (
	// RoleAdmin is a dashboard user managing clients and tasks
	RoleAdmin Role = "admin"
	// RoleClient is a portal user tied to exactly one client record
	RoleClient Role = "client"
)

// Claims represents the claims in a JWT token
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   Role   `json:"role"`
	// ClientID links portal users to their client record; empty for admins
	ClientID string `json:"client_id,omitempty"`
	jwt.RegisteredClaims
}

// HasRole reports whether the claims satisfy the required role.
// Admins satisfy every role check.
func (c *Claims) HasRole(role Role) bool {
	if c.Role == RoleAdmin {
		return true
	}
	return c.Role == role
}

// IsClient reports whether the token belongs to a portal (client) user
func (c *Claims) IsClient() bool {
	return c.Role == RoleClient
}

// CanAccessConversation reports whether the token may read or write the
// conversation partitioned by clientID
func (c *Claims) CanAccessConversation(clientID string) bool {
	if c.Role == RoleAdmin {
		return true
	}
	return c.ClientID != "" && c.ClientID == clientID
}

// generateToken builds and signs a token for the given identity
func generateToken(secretKey string, expiry time.Duration, userID, email string, role Role, clientID string) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID:   userID,
		Email:    email,
		Role:     role,
		ClientID: clientID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secretKey))
}

// validateToken parses and validates a signed token
func validateToken(secretKey, tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&Claims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, ErrInvalidToken
			}
			return []byte(secretKey), nil
		},
	)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// getSecretKey gets the JWT secret key from environment variables
func getSecretKey() string {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		// Fallback to a default secret for development (not recommended for production)
		secret = "devJwtSecretDoNotUseInProduction"
	}
	return secret
}
