package service

import (
	"context"
	"strconv"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/northgate/helpdesk/internal/domain"
	"github.com/northgate/helpdesk/internal/events"
	"github.com/northgate/helpdesk/internal/repository"
	apperrors "github.com/northgate/helpdesk/pkg/util/errorutil"
)

// MaxMessageLength bounds chat message content, in characters.
const MaxMessageLength = 4000

const previewLength = 140

// RateLimiter admits or rejects one hit for key.
type RateLimiter interface {
	Allow(ctx context.Context, key string) bool
}

// MessageService manages the per-ticket chat log.
type MessageService struct {
	store      repository.Store
	limiter    RateLimiter
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewMessageService builds the service. A nil limiter admits everything.
func NewMessageService(store repository.Store, limiter RateLimiter, dispatcher events.Dispatcher, logger *zap.Logger) *MessageService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MessageService{store: store, limiter: limiter, dispatcher: dispatcher, logger: logger}
}

// Append posts a chat message by caller on a ticket they can see.
func (s *MessageService) Append(ctx context.Context, caller *domain.User, ticketID int64, content string, kind domain.MessageKind) (*domain.TicketMessage, error) {
	if caller == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	if kind == "" {
		kind = domain.MessageKindText
	}
	if kind != domain.MessageKindText && kind != domain.MessageKindImage {
		return nil, apperrors.NewValidationError("invalid message kind", map[string]any{"tipo": string(kind)})
	}
	if strings.TrimSpace(content) == "" {
		return nil, apperrors.NewValidationError("contenido is required", map[string]any{"contenido": "required"})
	}
	if utf8.RuneCountInString(content) > MaxMessageLength {
		return nil, apperrors.NewValidationError("contenido is too long", map[string]any{"contenido": "max=" + strconv.Itoa(MaxMessageLength)})
	}

	repos := s.store.Repos()
	ticket, err := repos.Tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, apperrors.FromStore(err, "ticket")
	}
	if !CanAccess(caller, ticket) {
		return nil, apperrors.NewForbidden("ticket belongs to another user")
	}

	if s.limiter != nil && !s.limiter.Allow(ctx, strconv.FormatInt(caller.ID, 10)) {
		return nil, apperrors.NewRateLimited("too many messages, try again later")
	}

	authorID := caller.ID
	msg := &domain.TicketMessage{
		TicketID:   ticketID,
		AuthorID:   &authorID,
		AuthorName: caller.Name,
		Content:    content,
		Kind:       kind,
	}
	if err := repos.Messages.Create(ctx, msg); err != nil {
		if apperrors.IsForeignKeyViolation(err) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.FromStore(err, "mensaje")
	}

	if s.dispatcher != nil {
		s.dispatcher.Publish(ctx, events.New(events.EventTicketMessageAdded, ticketID, events.ActorFor(caller), msg.CreatedAt,
			events.TicketMessageAddedPayload{
				Title:        ticket.Title,
				CreatorID:    ticket.CreatorID,
				CreatorEmail: s.creatorEmail(ctx, caller, ticket),
				MessageID:    msg.ID,
				Kind:         msg.Kind,
				AuthorName:   msg.AuthorName,
				BodyPreview:  stringPreview(msg.Content, previewLength),
			}))
	}
	return msg, nil
}

// creatorEmail resolves who to forward a reply to. The creator's own
// messages need no lookup, and a failed lookup only drops the e-mail.
func (s *MessageService) creatorEmail(ctx context.Context, caller *domain.User, ticket *domain.Ticket) string {
	if ticket.OwnedBy(caller.ID) {
		return caller.Email
	}
	creator, err := s.store.Repos().Users.GetByID(ctx, ticket.CreatorID)
	if err != nil {
		s.logger.Warn("ticket creator lookup failed",
			zap.Int64("ticket_id", ticket.ID),
			zap.Int64("creator_id", ticket.CreatorID),
			zap.Error(err))
		return ""
	}
	return creator.Email
}

// List returns a ticket's messages oldest first.
func (s *MessageService) List(ctx context.Context, caller *domain.User, ticketID int64) ([]domain.TicketMessage, error) {
	repos := s.store.Repos()
	ticket, err := repos.Tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, apperrors.FromStore(err, "ticket")
	}
	if !CanAccess(caller, ticket) {
		return nil, apperrors.NewForbidden("ticket belongs to another user")
	}

	msgs, err := repos.Messages.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.FromStore(err, "mensaje")
	}
	return msgs, nil
}
