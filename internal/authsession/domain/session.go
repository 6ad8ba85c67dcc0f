package domain

import "time"

// AuthSession represents a login session backing a refresh-token chain.
type AuthSession struct {
	ID               string
	UserID           string
	ExpiresAt        time.Time
	RevokedAt        *time.Time // nil when not revoked
	LastSeenAt       *time.Time
	RefreshJti       string // current refresh token jti for rotation
	RefreshTokenHash string // SHA-256 hash of current refresh token
	CreatedAt        time.Time
}
