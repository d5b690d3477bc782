package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/northgate/helpdesk/internal/domain"
	apperrors "github.com/northgate/helpdesk/pkg/util/errorutil"
)

func TestAssetRepository_Delete(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(mock pgxmock.PgxPoolIface)
		checkFn func(t *testing.T, err error)
	}{
		{
			name: "unreferenced asset is removed",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM activos WHERE id=$1`)).
					WithArgs(int64(1)).
					WillReturnResult(pgxmock.NewResult("DELETE", 1))
			},
			checkFn: func(t *testing.T, err error) {
				assert.NoError(t, err)
			},
		},
		{
			name: "referenced asset surfaces the foreign key violation",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM activos WHERE id=$1`)).
					WithArgs(int64(1)).
					WillReturnError(&pgconn.PgError{Code: "23503", ConstraintName: "tickets_activo_id_fkey"})
			},
			checkFn: func(t *testing.T, err error) {
				assert.True(t, apperrors.IsForeignKeyViolation(err))
			},
		},
		{
			name: "missing asset is no rows",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM activos WHERE id=$1`)).
					WithArgs(int64(1)).
					WillReturnResult(pgxmock.NewResult("DELETE", 0))
			},
			checkFn: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, pgx.ErrNoRows)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := newMock(t)
			tt.setup(mock)

			err := NewAssetRepository(mock).Delete(context.Background(), 1)
			tt.checkFn(t, err)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestAssetRepository_CreateAndList(t *testing.T) {
	mock := newMock(t)
	repo := NewAssetRepository(mock)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO activos`)).
		WithArgs("Laptop Dell", "laptop", "SN-001").
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(int64(7), now))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM activos ORDER BY nombre ASC`)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "nombre", "tipo", "serial", "created_at"}).
			AddRow(int64(7), "Laptop Dell", "laptop", "SN-001", now))

	asset := &domain.Asset{Name: "Laptop Dell", Type: "laptop", Serial: "SN-001"}
	require.NoError(t, repo.Create(context.Background(), asset))
	assert.Equal(t, int64(7), asset.ID)

	assets, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, assets, 1)
	assert.Equal(t, "SN-001", assets[0].Serial)
	assert.NoError(t, mock.ExpectationsWereMet())
}
