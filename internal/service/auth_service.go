package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/roadguard/internal/auth"
	"github.com/spec-kit/roadguard/internal/config"
	"github.com/spec-kit/roadguard/internal/domain"
	"github.com/spec-kit/roadguard/internal/events"
	"github.com/spec-kit/roadguard/internal/repository"
	apperrors "github.com/spec-kit/roadguard/pkg/util"
)

const (
	msgBadCredentials = "incorrect email or password"
	msgBadRefresh     = "invalid or expired refresh token"
	msgEmailTaken     = "email already registered"

	msgLoggedOut    = "successfully logged out"
	msgTokenUnknown = "token not found or already revoked"
)

// AuthService coordinates registration, login, refresh and logout.
type AuthService struct {
	users             repository.UserRepository
	hasher            *auth.PasswordHasher
	tokenMgr          *auth.TokenManager
	refresh           *auth.RefreshTokenStore
	events            eventPublisher
	logger            *zap.Logger
	minPasswordLength int
	dummyCredential   string
}

// AuthDependencies encapsulates repo requirements for auth service.
type AuthDependencies struct {
	UserRepo         repository.UserRepository
	RefreshTokenRepo repository.RefreshTokenRepository
	Dispatcher       events.Dispatcher
	Logger           *zap.Logger
}

// RegisterInput describes a self-registration request.
type RegisterInput struct {
	Name         string
	Email        string
	Password     string
	Role         string
	Organization *string
}

// LogoutResult reports the outcome of a logout. It never signals failure for
// unknown or already revoked tokens.
type LogoutResult struct {
	Revoked bool
	Message string
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, deps AuthDependencies) (*AuthService, error) {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	hasher := auth.NewPasswordHasher(cfg.Argon2Time, cfg.Argon2MemoryKiB, cfg.Argon2Threads)

	// Verified against for unknown emails so both login failures cost one hash.
	dummy, err := hasher.Hash("roadguard-timing-equalizer")
	if err != nil {
		return nil, fmt.Errorf("prepare dummy credential: %w", err)
	}

	minLength := cfg.PasswordMinLength
	if minLength <= 0 {
		minLength = 5
	}

	return &AuthService{
		users:             deps.UserRepo,
		hasher:            hasher,
		tokenMgr:          auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL()),
		refresh:           auth.NewRefreshTokenStore(deps.RefreshTokenRepo, cfg.RefreshTokenTTL()),
		events:            newEventPublisher(deps.Dispatcher, logger),
		logger:            logger,
		minPasswordLength: minLength,
		dummyCredential:   dummy,
	}, nil
}

// Register creates a new account. Administrators cannot be self-registered.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	if len(input.Password) < s.minPasswordLength {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("password must be at least %d characters long", s.minPasswordLength), nil)
	}

	role := domain.RoleCitizen
	if strings.TrimSpace(input.Role) != "" {
		parsed, err := domain.ParseRole(input.Role)
		if err != nil {
			return nil, apperrors.NewValidationError("invalid role", map[string]any{"role": input.Role})
		}
		role = parsed
	}
	if role == domain.RoleAdmin {
		return nil, apperrors.NewValidationError("admin role cannot be self-assigned", nil)
	}

	if _, err := s.users.GetByEmail(ctx, input.Email); err == nil {
		return nil, apperrors.NewValidationError(msgEmailTaken, nil)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewInternalError(err)
	}

	user, err := s.createUser(ctx, input.Name, input.Email, input.Password, role, input.Organization)
	if err != nil {
		return nil, err
	}

	s.events.publish(ctx, events.New(events.EventUserRegistered, user.ID, events.ActorOf(user),
		events.UserRegisteredPayload{Email: user.Email, Role: user.Role}))
	return user, nil
}

// Login exchanges credentials for a token pair. Unknown emails and wrong
// passwords fail identically.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.TokenPair, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewInternalError(err)
		}
		s.hasher.Verify(password, s.dummyCredential)
		return nil, apperrors.NewUnauthorized(msgBadCredentials)
	}
	if !s.hasher.Verify(password, user.PasswordHash) || !user.IsActive {
		return nil, apperrors.NewUnauthorized(msgBadCredentials)
	}

	access, exp, err := s.tokenMgr.Issue(user.Email)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	refresh, err := s.refresh.Issue(ctx, user.ID)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &domain.TokenPair{
		AccessToken:     access,
		AccessExpiresAt: exp,
		RefreshToken:    refresh,
		TokenType:       domain.TokenTypeBearer,
	}, nil
}

// Refresh trades an active refresh token for a new pair and revokes the
// presented token. Of several concurrent refreshes with one token, at most one
// succeeds.
func (s *AuthService) Refresh(ctx context.Context, token string) (*domain.TokenPair, error) {
	userID, ok, err := s.refresh.Resolve(ctx, token)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if !ok {
		return nil, apperrors.NewUnauthorized(msgBadRefresh)
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewUnauthorized(msgBadRefresh)
		}
		return nil, apperrors.NewInternalError(err)
	}

	access, exp, err := s.tokenMgr.Issue(user.Email)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	next, err := s.refresh.Rotate(ctx, token, user.ID)
	if err != nil {
		if errors.Is(err, repository.ErrTokenInactive) {
			return nil, apperrors.NewUnauthorized(msgBadRefresh)
		}
		return nil, apperrors.NewInternalError(err)
	}
	return &domain.TokenPair{
		AccessToken:     access,
		AccessExpiresAt: exp,
		RefreshToken:    next,
		TokenType:       domain.TokenTypeBearer,
	}, nil
}

// Logout revokes a refresh token.
func (s *AuthService) Logout(ctx context.Context, token string) (LogoutResult, error) {
	found, err := s.refresh.Revoke(ctx, token)
	if err != nil {
		return LogoutResult{}, apperrors.NewInternalError(err)
	}
	if !found {
		return LogoutResult{Revoked: false, Message: msgTokenUnknown}, nil
	}
	return LogoutResult{Revoked: true, Message: msgLoggedOut}, nil
}

// EnsureAdmin makes sure an administrator account exists for email,
// promoting an existing account when necessary.
func (s *AuthService) EnsureAdmin(ctx context.Context, name, email, password string) (*domain.User, error) {
	existing, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.Role == domain.RoleAdmin {
			return existing, nil
		}
		s.logger.Info("promoting bootstrap account to admin", zap.String("user_id", existing.ID))
		return s.users.UpdateRole(ctx, existing.ID, domain.RoleAdmin)
	case !errors.Is(err, repository.ErrNotFound):
		return nil, err
	}

	user, err := s.createUser(ctx, name, email, password, domain.RoleAdmin, nil)
	if err != nil {
		return nil, err
	}
	s.logger.Info("bootstrap admin created", zap.String("user_id", user.ID))
	return user, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func (s *AuthService) createUser(ctx context.Context, name, email, password string, role domain.Role, organization *string) (*domain.User, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	user := &domain.User{
		Name:         strings.TrimSpace(name),
		Email:        email,
		Role:         role,
		PasswordHash: hash,
		IsActive:     true,
		Organization: organization,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return nil, apperrors.NewValidationError(msgEmailTaken, nil)
		}
		return nil, apperrors.NewInternalError(err)
	}
	return user, nil
}
