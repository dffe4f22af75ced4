package auth

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AdminUser is the authenticated tenant admin placed on the request
// context. SchoolID scopes every settings operation.
type AdminUser struct {
	ID       int64  `json:"id"`
	SchoolID string `json:"school_id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
}

// TokenGenerator creates and validates signed tokens.
type TokenGenerator interface {
	GenerateAccessToken(userID, schoolID, email string) (string, error)
	GenerateRefreshToken(userID, schoolID, email string) (string, error)
	ValidateToken(tokenString string) (*Claims, error)
}

type AuthTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Claims represents JWT token claims
type Claims struct {
	UserID   string `json:"user_id"`
	SchoolID string `json:"school_id"`
	Email    string `json:"email"`
	jwt.RegisteredClaims
}

type JWTTokenGenerator struct {
	AccessTokenSecret  []byte
	RefreshTokenSecret []byte
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
}

type contextKey struct{}

var userContextKey = contextKey{}

// ContextWithUser returns a context carrying the authenticated admin.
func ContextWithUser(ctx context.Context, u *AdminUser) context.Context {
	return context.WithValue(ctx, userContextKey, u)
}

// UserFromContext extracts the admin placed by AuthMiddleware.
func UserFromContext(ctx context.Context) (*AdminUser, bool) {
	u, ok := ctx.Value(userContextKey).(*AdminUser)
	return u, ok
}
