package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/northgate/helpdesk/internal/config"
	"github.com/northgate/helpdesk/internal/domain"
	"github.com/northgate/helpdesk/internal/events"
	"github.com/northgate/helpdesk/internal/markdown"
	"github.com/northgate/helpdesk/internal/notify"
)

// Notification outcomes reported to metrics.
const (
	NotificationSent    = "sent"
	NotificationFailed  = "failed"
	NotificationSkipped = "skipped"
)

// LowRatingThreshold is the highest rating that alerts the operations address.
const LowRatingThreshold = 2

// NotificationRecorder counts delivery outcomes.
type NotificationRecorder interface {
	RecordNotification(outcome string)
}

// NotificationService turns domain events into e-mail.
type NotificationService struct {
	dispatcher events.Dispatcher
	mailer     notify.Mailer
	renderer   markdown.Renderer
	metrics    NotificationRecorder
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NotificationDependencies bundles collaborators for the notification service.
type NotificationDependencies struct {
	Dispatcher events.Dispatcher
	Mailer     notify.Mailer
	Renderer   markdown.Renderer
	Metrics    NotificationRecorder
	Logger     *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(cfg config.NotificationConfig, deps NotificationDependencies) *NotificationService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	mailer := deps.Mailer
	if mailer == nil {
		mailer = notify.NewLogMailer(logger)
	}
	return &NotificationService{
		dispatcher: deps.Dispatcher,
		mailer:     mailer,
		renderer:   deps.Renderer,
		metrics:    deps.Metrics,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handleTicketCreated)
	n.dispatcher.Subscribe(events.EventTicketStatusChanged, n.handleTicketStatusChanged)
	n.dispatcher.Subscribe(events.EventTicketMessageAdded, n.handleTicketMessageAdded)
	n.dispatcher.Subscribe(events.EventTicketRated, n.handleTicketRated)
}

// Notify sends one message. Failures are logged and dropped; nothing is
// retried.
func (n *NotificationService) Notify(ctx context.Context, recipient, subject, body string) {
	recipient = strings.TrimSpace(recipient)
	if recipient == "" {
		n.record(NotificationSkipped)
		n.logger.Debug("notification skipped, no recipient", zap.String("subject", subject))
		return
	}

	mail := notify.Mail{To: recipient, Subject: subject, Body: body}
	if n.renderer != nil {
		if html, err := n.renderer.Render(body); err == nil {
			mail.HTMLBody = html
		}
	}

	if err := n.mailer.Send(ctx, mail); err != nil {
		n.record(NotificationFailed)
		n.logger.Warn("notification failed",
			zap.String("to", recipient),
			zap.String("subject", subject),
			zap.Error(err))
		return
	}
	n.record(NotificationSent)
	n.logger.Info("notification sent", zap.String("to", recipient), zap.String("subject", subject))
}

func (n *NotificationService) handleTicketCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketCreatedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
	}
	subject := fmt.Sprintf("Nuevo ticket #%d: %s", event.TicketID, payload.Title)
	body := fmt.Sprintf("**%s** abrió el ticket #%d con prioridad %s.\n\nFecha límite: %s",
		payload.CreatorName, event.TicketID, strings.ToUpper(string(payload.Priority)),
		payload.Deadline.Format(domain.DeadlineLayout))
	n.Notify(ctx, n.cfg.OpsEmail, subject, body)
	return nil
}

func (n *NotificationService) handleTicketStatusChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketStatusChangedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
	}
	subject := fmt.Sprintf("Ticket #%d: %s", event.TicketID, payload.NewStatus.Label())
	body := fmt.Sprintf("%s\n\nTu ticket **%s** pasó de %s a %s.",
		domain.StatusAuditText(event.Actor.Name, payload.NewStatus),
		payload.Title, payload.OldStatus.Label(), payload.NewStatus.Label())
	n.Notify(ctx, payload.CreatorEmail, subject, body)
	return nil
}

// handleTicketMessageAdded forwards replies to the ticket creator. Their own
// messages are not echoed back.
func (n *NotificationService) handleTicketMessageAdded(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketMessageAddedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
	}
	if event.Actor.UserID == payload.CreatorID {
		return nil
	}
	subject := fmt.Sprintf("Nuevo mensaje en ticket #%d: %s", event.TicketID, payload.Title)
	var body string
	if payload.Kind == domain.MessageKindImage {
		body = fmt.Sprintf("**%s** adjuntó una imagen en tu ticket **%s**:\n\n%s",
			payload.AuthorName, payload.Title, payload.BodyPreview)
	} else {
		body = fmt.Sprintf("**%s** escribió en tu ticket **%s**:\n\n> %s",
			payload.AuthorName, payload.Title, payload.BodyPreview)
	}
	n.Notify(ctx, payload.CreatorEmail, subject, body)
	return nil
}

func (n *NotificationService) handleTicketRated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketRatedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
	}
	if payload.Rating > LowRatingThreshold {
		return nil
	}
	subject := fmt.Sprintf("Calificación baja en ticket #%d: %d/5", event.TicketID, payload.Rating)
	body := fmt.Sprintf("%s\n\nTicket **%s** de %s.",
		domain.RatingAuditText(event.Actor.Name, payload.Rating), payload.Title, payload.CreatorName)
	n.Notify(ctx, n.cfg.OpsEmail, subject, body)
	return nil
}

func (n *NotificationService) record(outcome string) {
	if n.metrics != nil {
		n.metrics.RecordNotification(outcome)
	}
}
