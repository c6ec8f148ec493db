package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/roadguard/internal/domain"
	"github.com/spec-kit/roadguard/internal/repository"
)

// RefreshTokenRepository stores refresh token records keyed by digest.
type RefreshTokenRepository struct {
	mu     sync.Mutex
	byHash map[string]*domain.RefreshToken
}

// NewRefreshTokenRepository returns an empty store.
func NewRefreshTokenRepository() *RefreshTokenRepository {
	return &RefreshTokenRepository{byHash: make(map[string]*domain.RefreshToken)}
}

var _ repository.RefreshTokenRepository = (*RefreshTokenRepository)(nil)

func (r *RefreshTokenRepository) Create(_ context.Context, token *domain.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.insertLocked(token)
}

func (r *RefreshTokenRepository) GetActive(_ context.Context, tokenHash string, now time.Time) (*domain.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	token, ok := r.byHash[tokenHash]
	if !ok || !token.Active(now) {
		return nil, repository.ErrNotFound
	}
	out := *token
	return &out, nil
}

func (r *RefreshTokenRepository) Revoke(_ context.Context, tokenHash string, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	token, ok := r.byHash[tokenHash]
	if !ok || token.Revoked {
		return false, nil
	}
	revokedAt := now
	token.Revoked = true
	token.RevokedAt = &revokedAt
	return true, nil
}

func (r *RefreshTokenRepository) Rotate(_ context.Context, oldHash string, next *domain.RefreshToken, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	old, ok := r.byHash[oldHash]
	if !ok || old.UserID != next.UserID || !old.Active(now) {
		return repository.ErrTokenInactive
	}
	if err := r.insertLocked(next); err != nil {
		return err
	}
	revokedAt := now
	successor := next.ID
	old.Revoked = true
	old.RevokedAt = &revokedAt
	old.ReplacedBy = &successor
	return nil
}

// Lookup returns the stored record for a digest regardless of state.
func (r *RefreshTokenRepository) Lookup(tokenHash string) (domain.RefreshToken, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	token, ok := r.byHash[tokenHash]
	if !ok {
		return domain.RefreshToken{}, false
	}
	return *token, true
}

// Len reports how many records exist, revoked ones included.
func (r *RefreshTokenRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byHash)
}

func (r *RefreshTokenRepository) insertLocked(token *domain.RefreshToken) error {
	if _, exists := r.byHash[token.TokenHash]; exists {
		return repository.ErrAlreadyExists
	}
	token.ID = uuid.NewString()
	token.CreatedAt = time.Now().UTC()
	stored := *token
	r.byHash[stored.TokenHash] = &stored
	return nil
}
