package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/spec-kit/roadguard/internal/domain"
	"github.com/spec-kit/roadguard/internal/repository"
)

const (
	defaultRefreshTTL = 7 * 24 * time.Hour
	refreshTokenBytes = 32
)

// RefreshTokenStore issues opaque refresh tokens and tracks their state.
// Tokens leave the process only once; storage holds their SHA-256 digest.
type RefreshTokenStore struct {
	repo repository.RefreshTokenRepository
	ttl  time.Duration
	now  func() time.Time
}

// NewRefreshTokenStore builds a store over repo.
func NewRefreshTokenStore(repo repository.RefreshTokenRepository, ttl time.Duration) *RefreshTokenStore {
	if ttl <= 0 {
		ttl = defaultRefreshTTL
	}
	return &RefreshTokenStore{repo: repo, ttl: ttl, now: time.Now}
}

// Issue creates and persists a new token for userID.
func (s *RefreshTokenStore) Issue(ctx context.Context, userID string) (string, error) {
	token, err := newOpaqueToken()
	if err != nil {
		return "", err
	}
	record := &domain.RefreshToken{
		UserID:    userID,
		TokenHash: HashRefreshToken(token),
		ExpiresAt: s.now().Add(s.ttl),
	}
	if err := s.repo.Create(ctx, record); err != nil {
		return "", err
	}
	return token, nil
}

// Resolve returns the owning user id when token is known, unrevoked and unexpired.
func (s *RefreshTokenStore) Resolve(ctx context.Context, token string) (string, bool, error) {
	if token == "" {
		return "", false, nil
	}
	record, err := s.repo.GetActive(ctx, HashRefreshToken(token), s.now())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	return record.UserID, true, nil
}

// Revoke marks token revoked. It reports whether this call revoked it, so a
// repeated or rotated-away token yields false; it never fails on such tokens.
func (s *RefreshTokenStore) Revoke(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, nil
	}
	return s.repo.Revoke(ctx, HashRefreshToken(token), s.now())
}

// Rotate atomically revokes token and issues its successor for userID.
// It returns repository.ErrTokenInactive when token is no longer active.
func (s *RefreshTokenStore) Rotate(ctx context.Context, token, userID string) (string, error) {
	next, err := newOpaqueToken()
	if err != nil {
		return "", err
	}
	now := s.now()
	record := &domain.RefreshToken{
		UserID:    userID,
		TokenHash: HashRefreshToken(next),
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.repo.Rotate(ctx, HashRefreshToken(token), record, now); err != nil {
		return "", err
	}
	return next, nil
}

// HashRefreshToken returns the hex SHA-256 digest stored for token.
func HashRefreshToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func newOpaqueToken() (string, error) {
	buf := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
