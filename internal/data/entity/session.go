package entity

import (
	"time"

	"github.com/google/uuid"
)

// Session tracks one issued refresh token. TokenID is the token's jti claim;
// the signed token itself is never stored.
type Session struct {
	BaseSimple
	UserID    uuid.UUID  `db:"user_id"`
	TokenID   uuid.UUID  `db:"token_id"`
	UserAgent *string    `db:"user_agent"`
	IPAddress *string    `db:"ip_address"`
	ExpiresAt time.Time  `db:"expires_at"`
	RevokedAt *time.Time `db:"revoked_at"`
}

func (s *Session) Active(now time.Time) bool {
	return s.RevokedAt == nil && now.Before(s.ExpiresAt)
}
