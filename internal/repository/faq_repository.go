package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/northgate/helpdesk/internal/domain"
)

// FAQRepository persists knowledge-base entries.
type FAQRepository interface {
	Create(ctx context.Context, faq *domain.FAQ) error
	GetByID(ctx context.Context, id int64) (*domain.FAQ, error)
	List(ctx context.Context, category string) ([]domain.FAQ, error)
	Delete(ctx context.Context, id int64) error
}

type faqRepository struct {
	db DBTX
}

// NewFAQRepository builds repository.
func NewFAQRepository(db DBTX) FAQRepository {
	return &faqRepository{db: db}
}

const faqColumns = `
        f.id, f.titulo, f.contenido, f.categoria, f.autor_id, u.nombre, f.created_at, f.updated_at
        FROM faqs f
        JOIN usuarios u ON u.id = f.autor_id`

func (r *faqRepository) Create(ctx context.Context, faq *domain.FAQ) error {
	const query = `
        INSERT INTO faqs (titulo, contenido, categoria, autor_id)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at, updated_at`
	return r.db.QueryRow(ctx, query,
		faq.Title,
		faq.Content,
		faq.Category,
		faq.AuthorID,
	).Scan(&faq.ID, &faq.CreatedAt, &faq.UpdatedAt)
}

func (r *faqRepository) GetByID(ctx context.Context, id int64) (*domain.FAQ, error) {
	var faq domain.FAQ
	if err := r.db.QueryRow(ctx, `SELECT `+faqColumns+` WHERE f.id=$1`, id).Scan(faqScanTargets(&faq)...); err != nil {
		return nil, err
	}
	return &faq, nil
}

// List returns entries ordered by category then title. An empty category
// lists everything.
func (r *faqRepository) List(ctx context.Context, category string) ([]domain.FAQ, error) {
	query := `SELECT ` + faqColumns + ` WHERE ($1 = '' OR f.categoria = $1) ORDER BY f.categoria ASC, f.titulo ASC`
	rows, err := r.db.Query(ctx, query, category)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.FAQ{}
	for rows.Next() {
		var faq domain.FAQ
		if err := rows.Scan(faqScanTargets(&faq)...); err != nil {
			return nil, err
		}
		result = append(result, faq)
	}
	return result, rows.Err()
}

func (r *faqRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM faqs WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func faqScanTargets(faq *domain.FAQ) []any {
	return []any{
		&faq.ID,
		&faq.Title,
		&faq.Content,
		&faq.Category,
		&faq.AuthorID,
		&faq.AuthorName,
		&faq.CreatedAt,
		&faq.UpdatedAt,
	}
}
