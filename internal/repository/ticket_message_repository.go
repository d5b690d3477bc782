package repository

import (
	"context"

	"github.com/northgate/helpdesk/internal/domain"
)

// TicketMessageRepository manages ticket chat entries. Entries are never
// updated or deleted individually.
type TicketMessageRepository interface {
	Create(ctx context.Context, msg *domain.TicketMessage) error
	ListByTicket(ctx context.Context, ticketID int64) ([]domain.TicketMessage, error)
}

type ticketMessageRepository struct {
	db DBTX
}

// NewTicketMessageRepository builds repository.
func NewTicketMessageRepository(db DBTX) TicketMessageRepository {
	return &ticketMessageRepository{db: db}
}

func (r *ticketMessageRepository) Create(ctx context.Context, msg *domain.TicketMessage) error {
	const query = `
        INSERT INTO mensajes (ticket_id, usuario_id, contenido, tipo)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	return r.db.QueryRow(ctx, query,
		msg.TicketID,
		msg.AuthorID,
		msg.Content,
		msg.Kind,
	).Scan(&msg.ID, &msg.CreatedAt)
}

func (r *ticketMessageRepository) ListByTicket(ctx context.Context, ticketID int64) ([]domain.TicketMessage, error) {
	const query = `
        SELECT m.id, m.ticket_id, m.usuario_id, COALESCE(u.nombre, $2), m.contenido, m.tipo, m.created_at
        FROM mensajes m
        LEFT JOIN usuarios u ON u.id = m.usuario_id
        WHERE m.ticket_id=$1
        ORDER BY m.created_at ASC, m.id ASC`
	rows, err := r.db.Query(ctx, query, ticketID, domain.SystemAuthorName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.TicketMessage{}
	for rows.Next() {
		var msg domain.TicketMessage
		if err := rows.Scan(
			&msg.ID,
			&msg.TicketID,
			&msg.AuthorID,
			&msg.AuthorName,
			&msg.Content,
			&msg.Kind,
			&msg.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, msg)
	}
	return result, rows.Err()
}
