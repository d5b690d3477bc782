package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/northgate/helpdesk/internal/config"
	"github.com/northgate/helpdesk/internal/domain"
	"github.com/northgate/helpdesk/internal/events"
	"github.com/northgate/helpdesk/internal/notify"
	"github.com/northgate/helpdesk/internal/service"
)

type countingMailer struct {
	sent  atomic.Int32
	delay time.Duration
}

func (m *countingMailer) Send(ctx context.Context, _ notify.Mail) error {
	select {
	case <-time.After(m.delay):
		m.sent.Add(1)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func TestNotificationWorker_StartAndShutdown(t *testing.T) {
	dispatcher := events.NewAsyncDispatcher(zap.NewNop(), time.Second)
	mailer := &countingMailer{delay: 10 * time.Millisecond}
	svc := service.NewNotificationService(config.NotificationConfig{OpsEmail: "ops@northgate.local"}, service.NotificationDependencies{
		Dispatcher: dispatcher,
		Mailer:     mailer,
	})

	w := NewNotificationWorker(svc, dispatcher, nil)
	w.Start()

	dispatcher.Publish(context.Background(), events.New(events.EventTicketCreated, 1, events.Actor{}, time.Now(),
		events.TicketCreatedPayload{Title: "VPN", Priority: domain.TicketPriorityLow}))

	require.NoError(t, w.Shutdown(context.Background()))
	assert.Equal(t, int32(1), mailer.sent.Load())
}

func TestNotificationWorker_ShutdownGivesUpAfterGrace(t *testing.T) {
	dispatcher := events.NewAsyncDispatcher(zap.NewNop(), time.Second)
	mailer := &countingMailer{delay: 200 * time.Millisecond}
	svc := service.NewNotificationService(config.NotificationConfig{OpsEmail: "ops@northgate.local"}, service.NotificationDependencies{
		Dispatcher: dispatcher,
		Mailer:     mailer,
	})
	w := NewNotificationWorker(svc, dispatcher, nil)
	w.Start()

	dispatcher.Publish(context.Background(), events.New(events.EventTicketCreated, 1, events.Actor{}, time.Now(),
		events.TicketCreatedPayload{Title: "VPN", Priority: domain.TicketPriorityLow}))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, w.Shutdown(ctx), context.DeadlineExceeded)

	require.NoError(t, dispatcher.Drain(context.Background()))
}

func TestNotificationWorker_NilCollaborators(t *testing.T) {
	w := NewNotificationWorker(nil, nil, nil)
	assert.NotPanics(t, w.Start)
	assert.NoError(t, w.Shutdown(context.Background()))
}
