package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vvka-141/sphelper/internal/retry"
	"github.com/vvka-141/sphelper/pkg/sphelper"
)

// errNotOpen is returned by Query and Exec on a connection that is not open.
var errNotOpen = errors.New("connection is not open")

// SQLSource hands out SQLConnections that share one *sql.DB pool.
//
// Thread-Safety: Safe for concurrent use.
type SQLSource struct {
	db       *sql.DB
	driver   string
	identity string
	executor *retry.Executor
	logger   sphelper.Logger
}

// NewSQLSource wraps an opened *sql.DB. identity keys cached parameter sets.
func NewSQLSource(db *sql.DB, driver, identity string, logger sphelper.Logger) *SQLSource {
	return &SQLSource{
		db:       db,
		driver:   driver,
		identity: identity,
		executor: retry.ForConnection(driver, logger),
		logger:   logger,
	}
}

func (s *SQLSource) Identity() string { return s.identity }
func (s *SQLSource) Driver() string   { return s.driver }

// CreateConnection returns a closed connection on the shared pool.
func (s *SQLSource) CreateConnection() (sphelper.Connection, error) {
	return &SQLConnection{source: s}, nil
}

// DB exposes the underlying pool.
func (s *SQLSource) DB() *sql.DB { return s.db }

// Close closes the pool.
func (s *SQLSource) Close() error {
	return s.db.Close()
}

// SQLConnection is one database/sql session pinned to a *sql.Conn while open.
// It is also a ConnectionFactory: CreateConnection returns an independent
// sibling on the same pool, so a live session can be handed to the cache
// without the cache ever using it.
//
// Thread-Safety: NOT safe for concurrent use.
type SQLConnection struct {
	source *SQLSource
	conn   *sql.Conn
}

// Open pins a pooled connection, retrying transient failures.
func (c *SQLConnection) Open(ctx context.Context) error {
	if c.conn != nil {
		return nil
	}
	err := c.source.executor.Execute(ctx, func(ctx context.Context) error {
		conn, err := c.source.db.Conn(ctx)
		if err != nil {
			return err
		}
		if err := conn.PingContext(ctx); err != nil {
			_ = conn.Close()
			return err
		}
		c.conn = conn
		return nil
	})
	if err != nil {
		return fmt.Errorf("open %s connection: %w: %w", c.source.driver, sphelper.ErrConnectionFailed, err)
	}
	return nil
}

// Close returns the pinned connection to the pool.
func (c *SQLConnection) Close() error {
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

func (c *SQLConnection) IsOpen() bool   { return c.conn != nil }
func (c *SQLConnection) Driver() string { return c.source.driver }

func (c *SQLConnection) CreateCommand() *sphelper.Command {
	return &sphelper.Command{Connection: c, Type: sphelper.CommandTypeText}
}

func (c *SQLConnection) Query(ctx context.Context, query string, args ...any) (sphelper.Rows, error) {
	if c.conn == nil {
		return nil, errNotOpen
	}
	rows, err := c.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *SQLConnection) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	if c.conn == nil {
		return 0, errNotOpen
	}
	res, err := c.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (c *SQLConnection) Identity() string { return c.source.identity }

func (c *SQLConnection) CreateConnection() (sphelper.Connection, error) {
	return c.source.CreateConnection()
}

var (
	_ Source                     = (*SQLSource)(nil)
	_ sphelper.Connection        = (*SQLConnection)(nil)
	_ sphelper.ConnectionFactory = (*SQLConnection)(nil)
)
