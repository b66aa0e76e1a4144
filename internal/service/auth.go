package service

import (
	"context"

	"github.com/google/uuid"

	"self-sim-server/internal/models"
)

// AuthService defines the operations of the auth gateway.
type AuthService interface {
	// Register creates a new user. The very first registered user is granted
	// the admin role.
	Register(ctx context.Context, username, password string) (*models.User, error)
	// Login authenticates a user and returns a new token pair.
	Login(ctx context.Context, username, password string) (*models.TokenDetails, error)
	// Logout revokes the given token UUIDs. Succeeds even when the tokens
	// are already gone.
	Logout(ctx context.Context, accessUUID, refreshUUID string) error
	// Refresh rotates a token pair using a valid refresh token.
	Refresh(ctx context.Context, refreshToken string) (*models.TokenDetails, error)
	// VerifyAccessToken parses an access token, validates its signature and
	// expiry, and checks it has not been revoked.
	VerifyAccessToken(ctx context.Context, token string) (*models.Claims, error)
	// GetUser fetches a user by id.
	GetUser(ctx context.Context, userID uuid.UUID) (*models.User, error)
}
