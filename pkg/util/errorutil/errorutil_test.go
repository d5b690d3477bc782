package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromStore(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantCode   string
		wantStatus int
	}{
		{
			name:       "no rows is not found",
			err:        pgx.ErrNoRows,
			wantCode:   CodeNotFound,
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "wrapped no rows is not found",
			err:        fmt.Errorf("get ticket: %w", pgx.ErrNoRows),
			wantCode:   CodeNotFound,
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "foreign key violation is conflict",
			err:        &pgconn.PgError{Code: "23503", ConstraintName: "tickets_activo_id_fkey"},
			wantCode:   CodeConflict,
			wantStatus: http.StatusConflict,
		},
		{
			name:       "unique violation is conflict",
			err:        &pgconn.PgError{Code: "23505"},
			wantCode:   CodeConflict,
			wantStatus: http.StatusConflict,
		},
		{
			name:       "check violation is validation",
			err:        &pgconn.PgError{Code: "23514"},
			wantCode:   CodeValidation,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "data exception is validation",
			err:        &pgconn.PgError{Code: "22001"},
			wantCode:   CodeValidation,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "connection failure is persistence",
			err:        errors.New("dial tcp 127.0.0.1:5432: connect: connection refused"),
			wantCode:   CodePersistence,
			wantStatus: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mapped := FromStore(tt.err, "ticket")
			require.Error(t, mapped)

			domainErr := ToDomainError(mapped)
			assert.Equal(t, tt.wantCode, domainErr.Code)
			assert.Equal(t, tt.wantStatus, domainErr.HTTPStatus)
		})
	}
}

func TestFromStore_KeepsDomainErrors(t *testing.T) {
	original := NewForbidden("nope")
	assert.Same(t, original, FromStore(original, "ticket"))
	assert.NoError(t, FromStore(nil, "ticket"))
}

func TestToDomainError_UnknownIsInternal(t *testing.T) {
	cause := errors.New("boom")
	domainErr := ToDomainError(cause)

	assert.Equal(t, CodeInternal, domainErr.Code)
	assert.Equal(t, http.StatusInternalServerError, domainErr.HTTPStatus)
	assert.ErrorIs(t, domainErr, cause)
}

func TestConstraintHelpers(t *testing.T) {
	fk := fmt.Errorf("delete asset: %w", &pgconn.PgError{Code: "23503"})
	assert.True(t, IsForeignKeyViolation(fk))
	assert.False(t, IsUniqueViolation(fk))
	assert.True(t, IsUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.False(t, IsForeignKeyViolation(errors.New("other")))
	assert.Equal(t, "tickets_activo_id_fkey",
		ConstraintName(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23503", ConstraintName: "tickets_activo_id_fkey"})))
	assert.Empty(t, ConstraintName(errors.New("other")))
}
