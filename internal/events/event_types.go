package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/northgate/helpdesk/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketRated         EventType = "ticket_rated"
	EventTicketMessageAdded  EventType = "ticket_message_added"
)

// Actor identifies who triggered an event.
type Actor struct {
	UserID int64       `json:"user_id"`
	Name   string      `json:"name"`
	Role   domain.Role `json:"role"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	TicketID  int64     `json:"ticket_id"`
	Actor     Actor     `json:"actor"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// New stamps an event with a fresh identifier.
func New(eventType EventType, ticketID int64, actor Actor, at time.Time, payload any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		TicketID:  ticketID,
		Actor:     actor,
		Timestamp: at,
		Payload:   payload,
	}
}

// ActorFor describes user as an event actor.
func ActorFor(user *domain.User) Actor {
	if user == nil {
		return Actor{}
	}
	return Actor{UserID: user.ID, Name: user.Name, Role: user.Role}
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Title       string                `json:"title"`
	Priority    domain.TicketPriority `json:"priority"`
	Deadline    time.Time             `json:"deadline"`
	CreatorName string                `json:"creator_name"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	Title        string              `json:"title"`
	OldStatus    domain.TicketStatus `json:"old_status"`
	NewStatus    domain.TicketStatus `json:"new_status"`
	CreatorID    int64               `json:"creator_id"`
	CreatorEmail string              `json:"creator_email"`
}

// TicketRatedPayload payload.
type TicketRatedPayload struct {
	Title       string `json:"title"`
	Rating      int    `json:"rating"`
	CreatorName string `json:"creator_name"`
}

// TicketMessageAddedPayload carries the ticket creator so replies from
// someone else can be forwarded to them.
type TicketMessageAddedPayload struct {
	Title        string             `json:"title"`
	CreatorID    int64              `json:"creator_id"`
	CreatorEmail string             `json:"creator_email"`
	MessageID    int64              `json:"message_id"`
	Kind         domain.MessageKind `json:"kind"`
	AuthorName   string             `json:"author_name"`
	BodyPreview  string             `json:"body_preview"`
}
