package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/roadguard/internal/domain"
)

// RefreshTokenRepository persists refresh token records keyed by token digest.
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *domain.RefreshToken) error
	// GetActive returns the record only if it is neither revoked nor expired at now.
	GetActive(ctx context.Context, tokenHash string, now time.Time) (*domain.RefreshToken, error)
	// Revoke marks an unrevoked record revoked and reports whether this call did
	// so. Unknown and already revoked digests yield false without error.
	Revoke(ctx context.Context, tokenHash string, now time.Time) (bool, error)
	// Rotate revokes the active record for oldHash owned by next.UserID and stores next,
	// as one unit of work. It returns ErrTokenInactive when no active record matches.
	Rotate(ctx context.Context, oldHash string, next *domain.RefreshToken, now time.Time) error
}

type refreshTokenRepository struct {
	pool *pgxpool.Pool
}

// NewRefreshTokenRepository returns a Postgres-backed implementation.
func NewRefreshTokenRepository(pool *pgxpool.Pool) RefreshTokenRepository {
	return &refreshTokenRepository{pool: pool}
}

const insertRefreshToken = `
        INSERT INTO refresh_tokens (user_id, token_hash, expires_at)
        VALUES ($1, $2, $3)
        RETURNING id, created_at`

func (r *refreshTokenRepository) Create(ctx context.Context, token *domain.RefreshToken) error {
	err := r.pool.QueryRow(ctx, insertRefreshToken,
		token.UserID,
		token.TokenHash,
		token.ExpiresAt,
	).Scan(&token.ID, &token.CreatedAt)
	return translate(err)
}

func (r *refreshTokenRepository) GetActive(ctx context.Context, tokenHash string, now time.Time) (*domain.RefreshToken, error) {
	const query = `
        SELECT id, user_id, token_hash, expires_at, revoked, revoked_at, replaced_by, created_at
        FROM refresh_tokens
        WHERE token_hash=$1 AND revoked=FALSE AND expires_at > $2`

	var token domain.RefreshToken
	if err := r.pool.QueryRow(ctx, query, tokenHash, now).Scan(
		&token.ID,
		&token.UserID,
		&token.TokenHash,
		&token.ExpiresAt,
		&token.Revoked,
		&token.RevokedAt,
		&token.ReplacedBy,
		&token.CreatedAt,
	); err != nil {
		return nil, translate(err)
	}
	return &token, nil
}

func (r *refreshTokenRepository) Revoke(ctx context.Context, tokenHash string, now time.Time) (bool, error) {
	const query = `
        UPDATE refresh_tokens SET revoked=TRUE, revoked_at=$2
        WHERE token_hash=$1 AND revoked=FALSE`

	cmd, err := r.pool.Exec(ctx, query, tokenHash, now)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *refreshTokenRepository) Rotate(ctx context.Context, oldHash string, next *domain.RefreshToken, now time.Time) error {
	// The conditional update takes the row lock, so concurrent rotations of the
	// same token serialize and the loser matches no row.
	const revokeQuery = `
        UPDATE refresh_tokens SET revoked=TRUE, revoked_at=$2
        WHERE token_hash=$1 AND user_id=$3 AND revoked=FALSE AND expires_at > $2
        RETURNING id`
	const linkQuery = `UPDATE refresh_tokens SET replaced_by=$1 WHERE id=$2`

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var oldID string
		if err := tx.QueryRow(ctx, revokeQuery, oldHash, now, next.UserID).Scan(&oldID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrTokenInactive
			}
			return err
		}
		if err := tx.QueryRow(ctx, insertRefreshToken,
			next.UserID,
			next.TokenHash,
			next.ExpiresAt,
		).Scan(&next.ID, &next.CreatedAt); err != nil {
			return translate(err)
		}
		_, err := tx.Exec(ctx, linkQuery, next.ID, oldID)
		return err
	})
}
