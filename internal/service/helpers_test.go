package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/roadguard/internal/config"
	"github.com/spec-kit/roadguard/internal/events"
	"github.com/spec-kit/roadguard/internal/repository/memory"
)

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		JWTSecret:             "service-test-secret",
		AccessTokenTTLMinutes: 30,
		RefreshTokenTTLDays:   7,
		PasswordMinLength:     5,
		Argon2Time:            1,
		Argon2MemoryKiB:       64,
		Argon2Threads:         1,
	}
}

type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func newRecorder() (*recorder, events.Dispatcher) {
	r := &recorder{}
	d := events.NewInMemoryDispatcher()
	events.SubscribeAll(d, func(_ context.Context, e events.Event) error {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.events = append(r.events, e)
		return nil
	})
	return r, d
}

func (r *recorder) types() []events.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.EventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

type authFixture struct {
	svc    *AuthService
	users  *memory.UserRepository
	tokens *memory.RefreshTokenRepository
	events *recorder
}

func newAuthFixture(t *testing.T) authFixture {
	t.Helper()
	rec, dispatcher := newRecorder()
	users := memory.NewUserRepository()
	tokens := memory.NewRefreshTokenRepository()
	svc, err := NewAuthService(testAuthConfig(), AuthDependencies{
		UserRepo:         users,
		RefreshTokenRepo: tokens,
		Dispatcher:       dispatcher,
	})
	require.NoError(t, err)
	return authFixture{svc: svc, users: users, tokens: tokens, events: rec}
}
