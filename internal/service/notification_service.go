package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/roadguard/internal/events"
)

// NotificationService records domain events in the service log.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger) *NotificationService {
	return &NotificationService{dispatcher: dispatcher, logger: logger}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventUserRegistered, n.handleUserRegistered)
	n.dispatcher.Subscribe(events.EventUserRoleChanged, n.handleUserRoleChanged)
	n.dispatcher.Subscribe(events.EventProblemCreated, n.handleProblemEvent)
	n.dispatcher.Subscribe(events.EventProblemStatusChanged, n.handleProblemEvent)
	n.dispatcher.Subscribe(events.EventProblemDeleted, n.handleProblemEvent)
}

func (n *NotificationService) handleUserRegistered(_ context.Context, event events.Event) error {
	fields := []zap.Field{zap.String("user_id", event.Subject)}
	if payload, ok := event.Payload.(events.UserRegisteredPayload); ok {
		fields = append(fields, zap.String("role", string(payload.Role)))
	}
	n.logger.Info("UserRegistered", fields...)
	return nil
}

func (n *NotificationService) handleUserRoleChanged(_ context.Context, event events.Event) error {
	n.logger.Info("UserRoleChanged",
		zap.String("user_id", event.Subject),
		zap.String("actor_id", event.Actor.UserID),
		zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) handleProblemEvent(_ context.Context, event events.Event) error {
	n.logger.Info("ProblemEvent",
		zap.String("event_type", string(event.Type)),
		zap.String("problem_id", event.Subject),
		zap.String("actor_id", event.Actor.UserID),
		zap.Any("payload", event.Payload))
	return nil
}
