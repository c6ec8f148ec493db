package worker

import (
	"go.uber.org/zap"

	"github.com/spec-kit/roadguard/internal/config"
	"github.com/spec-kit/roadguard/internal/events"
	"github.com/spec-kit/roadguard/internal/service"
)

// StartNotificationWorker registers notification handlers on the dispatcher
// and, when a broker is configured, forwards every event to it. The returned
// function releases the broker connection.
func StartNotificationWorker(dispatcher events.Dispatcher, notifications *service.NotificationService, cfg config.EventsConfig, logger *zap.Logger) func() {
	if notifications != nil {
		notifications.RegisterHandlers()
	}
	if cfg.AMQPURL == "" {
		return func() {}
	}

	publisher, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.Queue, logger)
	if err != nil {
		logger.Warn("event forwarding disabled", zap.Error(err))
		return func() {}
	}
	events.SubscribeAll(dispatcher, publisher.Handle)
	logger.Info("forwarding events to broker", zap.String("queue", cfg.Queue))
	return publisher.Close
}
