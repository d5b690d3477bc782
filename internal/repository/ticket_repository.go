package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/northgate/helpdesk/internal/domain"
)

// TicketFilter narrows ticket listings. A nil CreatorID lists every ticket.
type TicketFilter struct {
	CreatorID *int64
	Statuses  []domain.TicketStatus
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id int64) (*domain.Ticket, error)
	// LockByID reads the ticket row with FOR UPDATE; only valid inside a
	// transaction.
	LockByID(ctx context.Context, id int64) (*domain.Ticket, error)
	UpdateStatus(ctx context.Context, id int64, status domain.TicketStatus) error
	UpdateRating(ctx context.Context, id int64, rating int) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	ListForExport(ctx context.Context) ([]domain.Ticket, error)
}

type ticketRepository struct {
	db DBTX
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(db DBTX) TicketRepository {
	return &ticketRepository{db: db}
}

const ticketColumns = `
        t.id, t.titulo, t.descripcion, t.prioridad, t.estado, t.activo_id, a.nombre,
        t.usuario_id, u.nombre, t.fecha_limite, t.calificacion, t.created_at, t.updated_at
        FROM tickets t
        LEFT JOIN activos a ON a.id = t.activo_id
        JOIN usuarios u ON u.id = t.usuario_id`

// Open and in-progress tickets sort ahead of closed ones, then the most
// urgent deadline, then the newest ticket.
const ticketListOrder = `ORDER BY (t.estado = 'cerrado') ASC, t.fecha_limite ASC, t.id DESC`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (titulo, descripcion, prioridad, estado, activo_id, usuario_id, fecha_limite, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$8)
        RETURNING id, updated_at`
	return r.db.QueryRow(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.Priority,
		ticket.Status,
		ticket.AssetID,
		ticket.CreatorID,
		ticket.Deadline,
		ticket.CreatedAt,
	).Scan(&ticket.ID, &ticket.UpdatedAt)
}

func (r *ticketRepository) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` WHERE t.id=$1`
	return scanTicket(r.db.QueryRow(ctx, query, id))
}

func (r *ticketRepository) LockByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` WHERE t.id=$1 FOR UPDATE OF t`
	return scanTicket(r.db.QueryRow(ctx, query, id))
}

func (r *ticketRepository) UpdateStatus(ctx context.Context, id int64, status domain.TicketStatus) error {
	const query = `UPDATE tickets SET estado=$1, updated_at=NOW() WHERE id=$2`
	return r.execOne(ctx, query, status, id)
}

func (r *ticketRepository) UpdateRating(ctx context.Context, id int64, rating int) error {
	const query = `UPDATE tickets SET calificacion=$1, updated_at=NOW() WHERE id=$2`
	return r.execOne(ctx, query, rating, id)
}

func (r *ticketRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM tickets WHERE id=$1`, id)
	return err
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.CreatorID != nil {
		args = append(args, *filter.CreatorID)
		clauses = append(clauses, fmt.Sprintf("t.usuario_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("t.estado IN (%s)", strings.Join(placeholders, ",")))
	}

	query := fmt.Sprintf(`SELECT %s WHERE %s %s`, ticketColumns, strings.Join(clauses, " AND "), ticketListOrder)
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) ListForExport(ctx context.Context) ([]domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` ORDER BY t.id ASC`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) execOne(ctx context.Context, query string, args ...any) error {
	cmd, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := row.Scan(ticketScanTargets(&ticket)...); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	result := []domain.Ticket{}
	for rows.Next() {
		var ticket domain.Ticket
		if err := rows.Scan(ticketScanTargets(&ticket)...); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}

func ticketScanTargets(ticket *domain.Ticket) []any {
	return []any{
		&ticket.ID,
		&ticket.Title,
		&ticket.Description,
		&ticket.Priority,
		&ticket.Status,
		&ticket.AssetID,
		&ticket.AssetName,
		&ticket.CreatorID,
		&ticket.CreatorName,
		&ticket.Deadline,
		&ticket.Rating,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	}
}
