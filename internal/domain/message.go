package domain

import (
	"fmt"
	"strings"
	"time"
)

// MessageKind differentiates chat entries.
type MessageKind string

const (
	MessageKindText   MessageKind = "texto"
	MessageKindImage  MessageKind = "imagen"
	MessageKindSystem MessageKind = "sistema"
)

// SystemAuthorName is shown for entries written by the lifecycle manager.
const SystemAuthorName = "Sistema"

// DeadlineLayout formats SLA deadlines inside audit messages.
const DeadlineLayout = "2006-01-02 15:04"

// Valid reports whether k is a known message kind.
func (k MessageKind) Valid() bool {
	switch k {
	case MessageKindText, MessageKindImage, MessageKindSystem:
		return true
	}
	return false
}

// TicketMessage is one entry of a ticket's chat log. AuthorID is nil for
// system entries.
type TicketMessage struct {
	ID         int64
	TicketID   int64
	AuthorID   *int64
	AuthorName string
	Content    string
	Kind       MessageKind
	CreatedAt  time.Time
}

// IsSystem reports whether the entry belongs to the audit trail.
func (m *TicketMessage) IsSystem() bool {
	return m.Kind == MessageKindSystem
}

// NewSystemMessage builds an audit entry for ticketID.
func NewSystemMessage(ticketID int64, content string) *TicketMessage {
	return &TicketMessage{
		TicketID:   ticketID,
		AuthorName: SystemAuthorName,
		Content:    content,
		Kind:       MessageKindSystem,
	}
}

// CreatedAuditText announces a new ticket and its deadline.
func CreatedAuditText(priority TicketPriority, deadline time.Time) string {
	return fmt.Sprintf("Ticket creado con prioridad %s. Fecha límite: %s",
		strings.ToUpper(string(priority)), deadline.Format(DeadlineLayout))
}

// StatusAuditText records a status transition made by actor.
func StatusAuditText(actor string, status TicketStatus) string {
	return fmt.Sprintf("%s cambió el estado a: %s", actor, status.Label())
}

// RatingAuditText records a satisfaction rating left by actor.
func RatingAuditText(actor string, rating int) string {
	return fmt.Sprintf("%s calificó la atención con %d/%d", actor, rating, MaxRating)
}
