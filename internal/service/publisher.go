package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/roadguard/internal/events"
)

// eventPublisher publishes domain events without letting delivery failures
// reach the caller.
type eventPublisher struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

func newEventPublisher(dispatcher events.Dispatcher, logger *zap.Logger) eventPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return eventPublisher{dispatcher: dispatcher, logger: logger}
}

func (p eventPublisher) publish(ctx context.Context, event events.Event) {
	if p.dispatcher == nil {
		return
	}
	if err := p.dispatcher.Publish(ctx, event); err != nil {
		p.logger.Warn("event delivery failed",
			zap.String("event_type", string(event.Type)),
			zap.String("subject", event.Subject),
			zap.Error(err))
	}
}
