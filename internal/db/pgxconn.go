package db

import (
	"context"
	"fmt"
	"io"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vvka-141/sphelper/internal/retry"
	"github.com/vvka-141/sphelper/pkg/sphelper"
)

// PgxSource hands out PgxConnections that share one pgx pool.
//
// Thread-Safety: Safe for concurrent use (pgxpool.Pool is thread-safe).
type PgxSource struct {
	pool     *pgxpool.Pool
	identity string
	closer   io.Closer
	executor *retry.Executor
}

// NewPgxSource connects through connector and wraps the resulting pool.
// Connectors that hold resources beyond the pool (Cloud SQL dialers) are
// closed together with it.
func NewPgxSource(ctx context.Context, connector sphelper.Connector, identity string, logger sphelper.Logger) (*PgxSource, error) {
	pool, err := connector.Connect(ctx)
	if err != nil {
		return nil, err
	}
	s := NewPgxSourceFromPool(pool, identity, logger)
	if closer, ok := connector.(io.Closer); ok {
		s.closer = closer
	}
	return s, nil
}

// NewPgxSourceFromPool wraps an existing pool.
func NewPgxSourceFromPool(pool *pgxpool.Pool, identity string, logger sphelper.Logger) *PgxSource {
	return &PgxSource{
		pool:     pool,
		identity: identity,
		executor: retry.ForConnection(sphelper.DriverPostgres, logger),
	}
}

func (s *PgxSource) Identity() string { return s.identity }
func (s *PgxSource) Driver() string   { return sphelper.DriverPostgres }

// CreateConnection returns a closed connection on the shared pool.
func (s *PgxSource) CreateConnection() (sphelper.Connection, error) {
	return &PgxConnection{source: s}, nil
}

// Pool exposes the underlying pool.
func (s *PgxSource) Pool() *pgxpool.Pool { return s.pool }

// Close closes the pool and any connector resources.
func (s *PgxSource) Close() error {
	s.pool.Close()
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}

// PgxConnection is one PostgreSQL session holding a pooled connection while open.
//
// Thread-Safety: NOT safe for concurrent use.
type PgxConnection struct {
	source *PgxSource
	conn   *pgxpool.Conn
}

// Open acquires a connection from the pool.
func (c *PgxConnection) Open(ctx context.Context) error {
	if c.conn != nil {
		return nil
	}
	err := c.source.executor.Execute(ctx, func(ctx context.Context) error {
		conn, err := c.source.pool.Acquire(ctx)
		if err != nil {
			return err
		}
		c.conn = conn
		return nil
	})
	if err != nil {
		return fmt.Errorf("acquire postgres connection: %w: %w", sphelper.ErrConnectionFailed, err)
	}
	return nil
}

// Close releases the connection back to the pool.
func (c *PgxConnection) Close() error {
	if c.conn == nil {
		return nil
	}
	c.conn.Release()
	c.conn = nil
	return nil
}

func (c *PgxConnection) IsOpen() bool   { return c.conn != nil }
func (c *PgxConnection) Driver() string { return sphelper.DriverPostgres }

func (c *PgxConnection) CreateCommand() *sphelper.Command {
	return &sphelper.Command{Connection: c, Type: sphelper.CommandTypeText}
}

func (c *PgxConnection) Query(ctx context.Context, sql string, args ...any) (sphelper.Rows, error) {
	if c.conn == nil {
		return nil, errNotOpen
	}
	rows, err := c.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return &pgxRows{rows: rows}, nil
}

func (c *PgxConnection) Exec(ctx context.Context, sql string, args ...any) (int64, error) {
	if c.conn == nil {
		return 0, errNotOpen
	}
	tag, err := c.conn.Exec(ctx, sql, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (c *PgxConnection) Identity() string { return c.source.identity }

func (c *PgxConnection) CreateConnection() (sphelper.Connection, error) {
	return c.source.CreateConnection()
}

// pgxRows adapts pgx.Rows to sphelper.Rows.
type pgxRows struct {
	rows pgx.Rows
}

func (r *pgxRows) Next() bool             { return r.rows.Next() }
func (r *pgxRows) Scan(dest ...any) error { return r.rows.Scan(dest...) }
func (r *pgxRows) Err() error             { return r.rows.Err() }

func (r *pgxRows) Columns() ([]string, error) {
	fields := r.rows.FieldDescriptions()
	names := make([]string, len(fields))
	for i, fd := range fields {
		names[i] = fd.Name
	}
	return names, nil
}

func (r *pgxRows) Close() error {
	r.rows.Close()
	return r.rows.Err()
}

var (
	_ Source                     = (*PgxSource)(nil)
	_ sphelper.Connection        = (*PgxConnection)(nil)
	_ sphelper.ConnectionFactory = (*PgxConnection)(nil)
)
