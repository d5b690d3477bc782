package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/northgate/helpdesk/internal/domain"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func TestStore_InTx_CommitsOnSuccess(t *testing.T) {
	mock := newMock(t)
	store := NewStore(mock)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE tickets SET estado=$1`)).
		WithArgs(domain.TicketStatusClosed, int64(4)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO mensajes`)).
		WithArgs(int64(4), (*int64)(nil), "Ana cambió el estado a: CERRADO", domain.MessageKindSystem).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(int64(11), now))
	mock.ExpectCommit()

	err := store.InTx(context.Background(), func(repos Repositories) error {
		if err := repos.Tickets.UpdateStatus(context.Background(), 4, domain.TicketStatusClosed); err != nil {
			return err
		}
		return repos.Messages.Create(context.Background(), domain.NewSystemMessage(4, "Ana cambió el estado a: CERRADO"))
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_InTx_RollsBackOnError(t *testing.T) {
	mock := newMock(t)
	store := NewStore(mock)
	insertErr := errors.New("insert failed")

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE tickets SET calificacion=$1`)).
		WithArgs(5, int64(4)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO mensajes`)).
		WillReturnError(insertErr)
	mock.ExpectRollback()

	err := store.InTx(context.Background(), func(repos Repositories) error {
		if err := repos.Tickets.UpdateRating(context.Background(), 4, 5); err != nil {
			return err
		}
		return repos.Messages.Create(context.Background(), domain.NewSystemMessage(4, "rated"))
	})

	require.ErrorIs(t, err, insertErr)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_InTx_BeginFailure(t *testing.T) {
	mock := newMock(t)
	store := NewStore(mock)

	mock.ExpectBegin().WillReturnError(errors.New("pool exhausted"))

	called := false
	err := store.InTx(context.Background(), func(Repositories) error {
		called = true
		return nil
	})

	require.Error(t, err)
	assert.False(t, called)
	assert.NoError(t, mock.ExpectationsWereMet())
}
