package service

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/roadguard/internal/auth"
	"github.com/spec-kit/roadguard/internal/domain"
	"github.com/spec-kit/roadguard/internal/events"
	apperrors "github.com/spec-kit/roadguard/pkg/util"
)

func register(t *testing.T, f authFixture, email, password string) *domain.User {
	t.Helper()
	user, err := f.svc.Register(context.Background(), RegisterInput{Name: "Alice", Email: email, Password: password})
	require.NoError(t, err)
	return user
}

func TestRegister(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	user := register(t, f, "alice@example.com", "secret123")
	assert.Equal(t, domain.RoleCitizen, user.Role)
	assert.True(t, user.IsActive)
	assert.NotEqual(t, "secret123", user.PasswordHash)
	assert.Equal(t, []events.EventType{events.EventUserRegistered}, f.events.types())

	_, err := f.svc.Register(ctx, RegisterInput{Name: "A", Email: "alice@example.com", Password: "another1"})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, apperrors.StatusOf(err))
	assert.Equal(t, "email already registered", apperrors.ToDomainError(err).Message)

	_, err = f.svc.Register(ctx, RegisterInput{Name: "B", Email: "bob@example.com", Password: "1234"})
	assert.Equal(t, http.StatusBadRequest, apperrors.StatusOf(err))
	assert.Equal(t, "password must be at least 5 characters long", apperrors.ToDomainError(err).Message)

	_, err = f.svc.Register(ctx, RegisterInput{Name: "B", Email: "bob@example.com", Password: "12345", Role: "admin"})
	assert.Equal(t, http.StatusBadRequest, apperrors.StatusOf(err))

	_, err = f.svc.Register(ctx, RegisterInput{Name: "B", Email: "bob@example.com", Password: "12345", Role: "wizard"})
	assert.Equal(t, http.StatusBadRequest, apperrors.StatusOf(err))

	org := "City Roads"
	contractor, err := f.svc.Register(ctx, RegisterInput{Name: "B", Email: "bob@example.com", Password: "12345", Role: "Contractor", Organization: &org})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleContractor, contractor.Role)
	require.NotNil(t, contractor.Organization)
	assert.Equal(t, org, *contractor.Organization)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	register(t, f, "alice@example.com", "secret123")

	_, wrongPassword := f.svc.Login(ctx, "alice@example.com", "wrong-password")
	_, unknownEmail := f.svc.Login(ctx, "nobody@example.com", "secret123")

	require.Error(t, wrongPassword)
	require.Error(t, unknownEmail)
	assert.Equal(t, http.StatusUnauthorized, apperrors.StatusOf(wrongPassword))
	assert.Equal(t, apperrors.ToDomainError(wrongPassword).Message, apperrors.ToDomainError(unknownEmail).Message)
	assert.Equal(t, apperrors.ToDomainError(wrongPassword).Code, apperrors.ToDomainError(unknownEmail).Code)
}

func TestLoginRefreshLogoutLifecycle(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	user := register(t, f, "alice@example.com", "secret123")

	pair, err := f.svc.Login(ctx, "alice@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "bearer", pair.TokenType)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)

	subject, err := f.svc.TokenManager().Verify(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.Email, subject)

	next, err := f.svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, next.RefreshToken)

	_, err = f.svc.Refresh(ctx, pair.RefreshToken)
	assert.Equal(t, http.StatusUnauthorized, apperrors.StatusOf(err))

	result, err := f.svc.Logout(ctx, next.RefreshToken)
	require.NoError(t, err)
	assert.True(t, result.Revoked)
	assert.Equal(t, "successfully logged out", result.Message)

	again, err := f.svc.Logout(ctx, next.RefreshToken)
	require.NoError(t, err)
	assert.False(t, again.Revoked)
	assert.Equal(t, "token not found or already revoked", again.Message)

	_, err = f.svc.Refresh(ctx, next.RefreshToken)
	assert.Equal(t, http.StatusUnauthorized, apperrors.StatusOf(err))

	unknown, err := f.svc.Logout(ctx, "never-issued")
	require.NoError(t, err)
	assert.False(t, unknown.Revoked)
	assert.Equal(t, "token not found or already revoked", unknown.Message)
}

func TestLogoutWithRotatedTokenRevokesNothing(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	register(t, f, "erin@example.com", "secret123")

	pair, err := f.svc.Login(ctx, "erin@example.com", "secret123")
	require.NoError(t, err)
	next, err := f.svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)

	stale, err := f.svc.Logout(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.False(t, stale.Revoked)
	assert.Equal(t, "token not found or already revoked", stale.Message)

	// the successor is still live until it is logged out itself
	current, err := f.svc.Logout(ctx, next.RefreshToken)
	require.NoError(t, err)
	assert.True(t, current.Revoked)
	assert.Equal(t, "successfully logged out", current.Message)
}

func TestLoginRejectsInactiveUser(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	cfg := testAuthConfig()
	hash, err := auth.NewPasswordHasher(cfg.Argon2Time, cfg.Argon2MemoryKiB, cfg.Argon2Threads).Hash("secret123")
	require.NoError(t, err)
	require.NoError(t, f.users.Create(ctx, &domain.User{
		Name:         "Frank",
		Email:        "frank@example.com",
		Role:         domain.RoleCitizen,
		PasswordHash: hash,
		IsActive:     false,
	}))

	_, inactive := f.svc.Login(ctx, "frank@example.com", "secret123")
	_, unknown := f.svc.Login(ctx, "nobody@example.com", "secret123")

	require.Error(t, inactive)
	assert.Equal(t, http.StatusUnauthorized, apperrors.StatusOf(inactive))
	assert.Equal(t, apperrors.ToDomainError(unknown).Message, apperrors.ToDomainError(inactive).Message)
	assert.Equal(t, 0, f.tokens.Len())
}

func TestRefreshRejectsTokenOfDeletedUser(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	user := register(t, f, "alice@example.com", "secret123")

	pair, err := f.svc.Login(ctx, "alice@example.com", "secret123")
	require.NoError(t, err)

	f.users.Delete(user.ID)
	_, err = f.svc.Refresh(ctx, pair.RefreshToken)
	assert.Equal(t, http.StatusUnauthorized, apperrors.StatusOf(err))
	assert.Equal(t, "invalid or expired refresh token", apperrors.ToDomainError(err).Message)
}

func TestConcurrentRefreshSingleWinner(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	register(t, f, "alice@example.com", "secret123")
	pair, err := f.svc.Login(ctx, "alice@example.com", "secret123")
	require.NoError(t, err)

	const attempts = 8
	var (
		wg   sync.WaitGroup
		wins atomic.Int32
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.svc.Refresh(ctx, pair.RefreshToken); err == nil {
				wins.Add(1)
			} else {
				assert.Equal(t, http.StatusUnauthorized, apperrors.StatusOf(err))
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, wins.Load())
	// the first record plus exactly one successor
	assert.Equal(t, 2, f.tokens.Len())
}

func TestEnsureAdmin(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	admin, err := f.svc.EnsureAdmin(ctx, "Root", "root@example.com", "rootpass")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, admin.Role)

	again, err := f.svc.EnsureAdmin(ctx, "Root", "root@example.com", "rootpass")
	require.NoError(t, err)
	assert.Equal(t, admin.ID, again.ID)

	citizen := register(t, f, "promote@example.com", "secret123")
	promoted, err := f.svc.EnsureAdmin(ctx, "P", "promote@example.com", "ignored")
	require.NoError(t, err)
	assert.Equal(t, citizen.ID, promoted.ID)
	assert.Equal(t, domain.RoleAdmin, promoted.Role)

	_, err = f.svc.Login(ctx, "root@example.com", "rootpass")
	assert.NoError(t, err)
}
