package worker

import (
	"context"

	"go.uber.org/zap"

	"github.com/northgate/helpdesk/internal/service"
)

// Drainer waits for in-flight event handlers.
type Drainer interface {
	Drain(ctx context.Context) error
}

// NotificationWorker owns the lifecycle of the notification handlers.
type NotificationWorker struct {
	notifications *service.NotificationService
	drainer       Drainer
	logger        *zap.Logger
}

// NewNotificationWorker builds a worker. drainer is usually the dispatcher the
// service subscribes to.
func NewNotificationWorker(notifications *service.NotificationService, drainer Drainer, logger *zap.Logger) *NotificationWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationWorker{notifications: notifications, drainer: drainer, logger: logger}
}

// Start registers notification handlers.
func (w *NotificationWorker) Start() {
	if w.notifications == nil {
		return
	}
	w.notifications.RegisterHandlers()
	w.logger.Info("notification worker started")
}

// Shutdown waits for pending notifications until ctx expires. Notifications
// still running after that are abandoned.
func (w *NotificationWorker) Shutdown(ctx context.Context) error {
	if w.drainer == nil {
		return nil
	}
	if err := w.drainer.Drain(ctx); err != nil {
		w.logger.Warn("notification worker stopped with pending deliveries", zap.Error(err))
		return err
	}
	w.logger.Info("notification worker drained")
	return nil
}
