package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/northgate/helpdesk/internal/config"
)

// ErrSchemaBehind means the database is reachable but the helpdesk tables are
// older than the migrations this binary ships.
var ErrSchemaBehind = errors.New("helpdesk schema not migrated")

type schemaProber interface {
	Ping(ctx context.Context) error
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Postgres owns the helpdesk connection pool.
type Postgres struct {
	Pool *pgxpool.Pool

	db         schemaProber
	wantSchema int64
}

// NewPostgres establishes a connection pool. The helpdesk cannot serve
// without its store, so a missing DSN is an error.
func NewPostgres(ctx context.Context, cfg config.PostgresConfig, logger *zap.Logger) (*Postgres, error) {
	if cfg.DSN == "" {
		return nil, errors.New("POSTGRES_DSN not provided")
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse POSTGRES_DSN: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.ConnMaxIdleSec > 0 {
		poolCfg.MaxConnIdleTime = time.Duration(cfg.ConnMaxIdleSec) * time.Second
	}
	if cfg.ConnMaxLifeSec > 0 {
		poolCfg.MaxConnLifetime = time.Duration(cfg.ConnMaxLifeSec) * time.Second
	}

	wantSchema, err := LatestMigrationVersion()
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	logger.Info("connected to postgres",
		zap.String("database", poolCfg.ConnConfig.Database),
		zap.Int32("max_conns", poolCfg.MaxConns),
		zap.Int64("schema_version", wantSchema))
	return &Postgres{Pool: pool, db: pool, wantSchema: wantSchema}, nil
}

// Close releases pool resources.
func (p *Postgres) Close() {
	if p != nil && p.Pool != nil {
		p.Pool.Close()
	}
}

// Ping reports whether the helpdesk can serve: the database answers and every
// embedded migration has been applied.
func (p *Postgres) Ping(ctx context.Context) error {
	if p == nil || p.db == nil {
		return errors.New("postgres pool not configured")
	}
	if err := p.db.Ping(ctx); err != nil {
		return err
	}

	var applied int64
	const query = `SELECT COALESCE(MAX(version_id), 0) FROM goose_db_version WHERE is_applied`
	if err := p.db.QueryRow(ctx, query).Scan(&applied); err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaBehind, err)
	}
	if applied < p.wantSchema {
		return fmt.Errorf("%w: at version %d, want %d", ErrSchemaBehind, applied, p.wantSchema)
	}
	return nil
}

// Dependency describes the store for readiness probes.
func (p *Postgres) Dependency() Dependency {
	return Dependency{Name: "postgres", Required: true, Check: p.Ping}
}

// PoolHandle returns the underlying pgx pool.
func (p *Postgres) PoolHandle() *pgxpool.Pool {
	if p == nil {
		return nil
	}
	return p.Pool
}
