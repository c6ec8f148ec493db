package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/roadguard/internal/domain"
	"github.com/spec-kit/roadguard/internal/events"
	"github.com/spec-kit/roadguard/internal/repository"
	apperrors "github.com/spec-kit/roadguard/pkg/util"
)

// UserService holds administrative user operations.
type UserService struct {
	users  repository.UserRepository
	events eventPublisher
}

// NewUserService constructs the service.
func NewUserService(users repository.UserRepository, dispatcher events.Dispatcher, logger *zap.Logger) *UserService {
	return &UserService{users: users, events: newEventPublisher(dispatcher, logger)}
}

// UpdateRole assigns newRole to the user identified by userID.
func (s *UserService) UpdateRole(ctx context.Context, actor *domain.User, userID, newRole string) (*domain.User, error) {
	role, err := domain.ParseRole(newRole)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid role", map[string]any{"new_role": newRole})
	}
	if _, err := uuid.Parse(userID); err != nil {
		return nil, apperrors.NewNotFound("user", nil)
	}

	current, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, userLookupError(err)
	}
	updated, err := s.users.UpdateRole(ctx, userID, role)
	if err != nil {
		return nil, userLookupError(err)
	}

	if current.Role != updated.Role {
		s.events.publish(ctx, events.New(events.EventUserRoleChanged, updated.ID, events.ActorOf(actor),
			events.UserRoleChangedPayload{OldRole: current.Role, NewRole: updated.Role}))
	}
	return updated, nil
}

// List returns every account.
func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return users, nil
}

func userLookupError(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFound("user", nil)
	}
	return apperrors.NewInternalError(err)
}
