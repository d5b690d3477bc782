package dto

import (
	"time"

	"github.com/northgate/helpdesk/internal/domain"
)

// CreateTicketRequest payload. The creator is always the caller.
type CreateTicketRequest struct {
	Titulo      string                `json:"titulo" validate:"required,max=200"`
	Descripcion string                `json:"descripcion" validate:"max=10000"`
	Prioridad   domain.TicketPriority `json:"prioridad" validate:"required,oneof=baja media alta"`
	ActivoID    *int64                `json:"activo_id" validate:"omitempty,gt=0"`
}

// UpdateTicketRequest payload. At least one field must be present; a zero
// calificacion counts as absent.
type UpdateTicketRequest struct {
	Estado       *domain.TicketStatus `json:"estado" validate:"omitempty,oneof=abierto en_proceso cerrado"`
	Calificacion *int                 `json:"calificacion" validate:"omitempty,min=0,max=5"`
}

// TicketResponse is the API view of a ticket.
type TicketResponse struct {
	ID           int64                 `json:"id"`
	Titulo       string                `json:"titulo"`
	Descripcion  string                `json:"descripcion"`
	Prioridad    domain.TicketPriority `json:"prioridad"`
	Estado       domain.TicketStatus   `json:"estado"`
	ActivoID     *int64                `json:"activo_id"`
	Activo       *string               `json:"activo"`
	UsuarioID    int64                 `json:"usuario_id"`
	Creador      string                `json:"creador"`
	FechaLimite  time.Time             `json:"fecha_limite"`
	Calificacion *int                  `json:"calificacion"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
}

// NewTicketResponse maps a ticket to its API view.
func NewTicketResponse(t *domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:           t.ID,
		Titulo:       t.Title,
		Descripcion:  t.Description,
		Prioridad:    t.Priority,
		Estado:       t.Status,
		ActivoID:     t.AssetID,
		Activo:       t.AssetName,
		UsuarioID:    t.CreatorID,
		Creador:      t.CreatorName,
		FechaLimite:  t.Deadline,
		Calificacion: t.Rating,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
}

// NewTicketResponses maps a slice of tickets.
func NewTicketResponses(tickets []domain.Ticket) []TicketResponse {
	out := make([]TicketResponse, 0, len(tickets))
	for i := range tickets {
		out = append(out, NewTicketResponse(&tickets[i]))
	}
	return out
}

// CreateMessageRequest payload for a chat message.
type CreateMessageRequest struct {
	Contenido string             `json:"contenido" validate:"required,max=4000"`
	Tipo      domain.MessageKind `json:"tipo" validate:"omitempty,oneof=texto imagen"`
}

// MessageResponse is the API view of a chat entry.
type MessageResponse struct {
	ID        int64              `json:"id"`
	TicketID  int64              `json:"ticket_id"`
	UsuarioID *int64             `json:"usuario_id"`
	Autor     string             `json:"autor"`
	Contenido string             `json:"contenido"`
	Tipo      domain.MessageKind `json:"tipo"`
	CreatedAt time.Time          `json:"created_at"`
}

// NewMessageResponse maps a message to its API view.
func NewMessageResponse(m *domain.TicketMessage) MessageResponse {
	return MessageResponse{
		ID:        m.ID,
		TicketID:  m.TicketID,
		UsuarioID: m.AuthorID,
		Autor:     m.AuthorName,
		Contenido: m.Content,
		Tipo:      m.Kind,
		CreatedAt: m.CreatedAt,
	}
}
