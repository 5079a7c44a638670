package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"quickjob/internal/config"
	"quickjob/internal/database"
)

const defaultPingTimeout = 5 * time.Second

// Pool is the pgx backed database.DB. It shares one pgxpool between the
// repositories and a database/sql handle used by the migration runner.
type Pool struct {
	pool  *pgxpool.Pool
	sqlDB *sql.DB
}

// Connect opens the pool and pings it before returning.
func Connect(ctx context.Context, cfg config.DatabaseConfig) (database.DB, error) {
	pcfg, err := PoolConfig(cfg)
	if err != nil {
		return nil, err
	}

	p, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}

	pingCtx := ctx
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, defaultPingTimeout)
		defer cancel()
	}
	if err := p.Ping(pingCtx); err != nil {
		p.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &Pool{pool: p, sqlDB: stdlib.OpenDBFromPool(p)}, nil
}

// PoolConfig turns the configured connection settings into a pgxpool config.
// Zero valued limits keep the pgx defaults.
func PoolConfig(cfg config.DatabaseConfig) (*pgxpool.Config, error) {
	pcfg, err := pgxpool.ParseConfig(connString(cfg))
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}

	if cfg.ConnectTimeout > 0 {
		pcfg.ConnConfig.ConnectTimeout = cfg.ConnectTimeout
	}
	if cfg.PoolMaxConns > 0 {
		pcfg.MaxConns = cfg.PoolMaxConns
	}
	if cfg.PoolMinConns > 0 {
		pcfg.MinConns = cfg.PoolMinConns
	}
	if cfg.PoolMaxConnLifetime > 0 {
		pcfg.MaxConnLifetime = cfg.PoolMaxConnLifetime
	}
	if cfg.PoolMaxConnIdleTime > 0 {
		pcfg.MaxConnIdleTime = cfg.PoolMaxConnIdleTime
	}
	if cfg.PoolHealthCheckPeriod > 0 {
		pcfg.HealthCheckPeriod = cfg.PoolHealthCheckPeriod
	}
	return pcfg, nil
}

// connString builds a keyword/value DSN. Values are quoted so passwords may
// contain spaces or quotes.
func connString(cfg config.DatabaseConfig) string {
	pairs := []struct{ key, value string }{
		{"host", strings.TrimSpace(cfg.DBHost)},
		{"port", strings.TrimSpace(cfg.DBPort)},
		{"user", strings.TrimSpace(cfg.DBUser)},
		{"password", cfg.DBPassword},
		{"dbname", strings.TrimSpace(cfg.DBName)},
		{"sslmode", strings.TrimSpace(cfg.DBSSLMode)},
	}
	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		if p.value == "" {
			continue
		}
		parts = append(parts, p.key+"="+quoteValue(p.value))
	}
	return strings.Join(parts, " ")
}

func quoteValue(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, stmt string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, stmt string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, stmt string, args ...any) pgx.Row
}

func exec(ctx context.Context, q querier, stmt string, args []any) (int64, error) {
	tag, err := q.Exec(ctx, stmt, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// pgx.Rows and pgx.Row already satisfy database.Rows and database.Row.
func query(ctx context.Context, q querier, stmt string, args []any) (database.Rows, error) {
	rows, err := q.Query(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (p *Pool) usable() bool { return p != nil && p.pool != nil }

func (p *Pool) Ping(ctx context.Context) error {
	if !p.usable() {
		return database.ErrNilDB
	}
	return p.pool.Ping(ctx)
}

func (p *Pool) Close() error {
	if p == nil {
		return nil
	}
	var err error
	if p.sqlDB != nil {
		err = p.sqlDB.Close()
	}
	if p.pool != nil {
		p.pool.Close()
	}
	return err
}

func (p *Pool) Exec(ctx context.Context, stmt string, args ...any) (int64, error) {
	if !p.usable() {
		return 0, database.ErrNilDB
	}
	return exec(ctx, p.pool, stmt, args)
}

func (p *Pool) Query(ctx context.Context, stmt string, args ...any) (database.Rows, error) {
	if !p.usable() {
		return nil, database.ErrNilDB
	}
	return query(ctx, p.pool, stmt, args)
}

func (p *Pool) QueryRow(ctx context.Context, stmt string, args ...any) database.Row {
	if !p.usable() {
		return errRow{}
	}
	return p.pool.QueryRow(ctx, stmt, args...)
}

func (p *Pool) Begin(ctx context.Context) (database.Tx, error) {
	if !p.usable() {
		return nil, database.ErrNilDB
	}
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return poolTx{Tx: tx}, nil
}

func (p *Pool) SQLDB() *sql.DB {
	if p == nil {
		return nil
	}
	return p.sqlDB
}

// poolTx adapts pgx.Tx; Commit and Rollback come from the embedded value.
type poolTx struct {
	pgx.Tx
}

func (t poolTx) Exec(ctx context.Context, stmt string, args ...any) (int64, error) {
	return exec(ctx, t.Tx, stmt, args)
}

func (t poolTx) Query(ctx context.Context, stmt string, args ...any) (database.Rows, error) {
	return query(ctx, t.Tx, stmt, args)
}

func (t poolTx) QueryRow(ctx context.Context, stmt string, args ...any) database.Row {
	return t.Tx.QueryRow(ctx, stmt, args...)
}

type errRow struct{}

func (errRow) Scan(...any) error { return database.ErrNilDB }
