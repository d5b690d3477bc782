package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the query surface shared by *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TxBeginner is a DBTX that can open transactions.
type TxBeginner interface {
	DBTX
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Repositories groups repositories bound to the same handle.
type Repositories struct {
	Users    UserRepository
	Assets   AssetRepository
	Tickets  TicketRepository
	Messages TicketMessageRepository
	FAQs     FAQRepository
}

// Store hands out repositories on the pool or inside a transaction.
type Store interface {
	Repos() Repositories
	// InTx runs fn on repositories bound to one transaction. The transaction
	// commits when fn returns nil and rolls back otherwise.
	InTx(ctx context.Context, fn func(Repositories) error) error
}

type pgStore struct {
	db    TxBeginner
	repos Repositories
}

// NewStore returns a Postgres-backed Store.
func NewStore(db TxBeginner) Store {
	return &pgStore{db: db, repos: newRepositories(db)}
}

func newRepositories(db DBTX) Repositories {
	return Repositories{
		Users:    NewUserRepository(db),
		Assets:   NewAssetRepository(db),
		Tickets:  NewTicketRepository(db),
		Messages: NewTicketMessageRepository(db),
		FAQs:     NewFAQRepository(db),
	}
}

func (s *pgStore) Repos() Repositories {
	return s.repos
}

func (s *pgStore) InTx(ctx context.Context, fn func(Repositories) error) (err error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				err = errors.Join(err, fmt.Errorf("rollback tx: %w", rbErr))
			}
		}
	}()

	if err = fn(newRepositories(tx)); err != nil {
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
