package domain

import "time"

// RefreshToken is the persisted record behind an opaque refresh token.
// Only the SHA-256 digest of the token is stored.
type RefreshToken struct {
	ID         string
	UserID     string
	TokenHash  string
	ExpiresAt  time.Time
	Revoked    bool
	RevokedAt  *time.Time
	ReplacedBy *string
	CreatedAt  time.Time
}

// Active reports whether the token can still be resolved at now.
func (t *RefreshToken) Active(now time.Time) bool {
	return !t.Revoked && t.ExpiresAt.After(now)
}

// TokenPair is returned by login and refresh.
type TokenPair struct {
	AccessToken     string
	AccessExpiresAt time.Time
	RefreshToken    string
	TokenType       string
}

// TokenTypeBearer is the only token type issued.
const TokenTypeBearer = "bearer"
