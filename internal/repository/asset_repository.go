package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/northgate/helpdesk/internal/domain"
)

// AssetRepository persists inventory items.
type AssetRepository interface {
	Create(ctx context.Context, asset *domain.Asset) error
	GetByID(ctx context.Context, id int64) (*domain.Asset, error)
	List(ctx context.Context) ([]domain.Asset, error)
	// Delete removes the asset. It surfaces the store's foreign-key error
	// untouched when a ticket still references it.
	Delete(ctx context.Context, id int64) error
}

type assetRepository struct {
	db DBTX
}

// NewAssetRepository builds repository.
func NewAssetRepository(db DBTX) AssetRepository {
	return &assetRepository{db: db}
}

func (r *assetRepository) Create(ctx context.Context, asset *domain.Asset) error {
	const query = `
        INSERT INTO activos (nombre, tipo, serial)
        VALUES ($1,$2,$3)
        RETURNING id, created_at`
	return r.db.QueryRow(ctx, query,
		asset.Name,
		asset.Type,
		asset.Serial,
	).Scan(&asset.ID, &asset.CreatedAt)
}

func (r *assetRepository) GetByID(ctx context.Context, id int64) (*domain.Asset, error) {
	const query = `SELECT id, nombre, tipo, serial, created_at FROM activos WHERE id=$1`
	var asset domain.Asset
	if err := r.db.QueryRow(ctx, query, id).Scan(
		&asset.ID,
		&asset.Name,
		&asset.Type,
		&asset.Serial,
		&asset.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &asset, nil
}

func (r *assetRepository) List(ctx context.Context) ([]domain.Asset, error) {
	const query = `SELECT id, nombre, tipo, serial, created_at FROM activos ORDER BY nombre ASC, id ASC`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Asset{}
	for rows.Next() {
		var asset domain.Asset
		if err := rows.Scan(
			&asset.ID,
			&asset.Name,
			&asset.Type,
			&asset.Serial,
			&asset.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, asset)
	}
	return result, rows.Err()
}

func (r *assetRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM activos WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
