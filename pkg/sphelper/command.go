package sphelper

import (
	"context"
	"time"
)

// CommandType tells the provider how to interpret Command.Text.
type CommandType int

const (
	CommandTypeText            CommandType = iota // Ad-hoc SQL text
	CommandTypeStoredProcedure                    // Text is a procedure name
)

// String returns a human-readable string representation of the CommandType.
func (c CommandType) String() string {
	switch c {
	case CommandTypeText:
		return "Text"
	case CommandTypeStoredProcedure:
		return "StoredProcedure"
	default:
		return "Unknown"
	}
}

// Command is a unit of work bound to a Connection.
type Command struct {
	Connection Connection
	Type       CommandType
	Text       string
	Parameters []*Parameter

	// Timeout bounds execution when positive; zero inherits the caller's context.
	Timeout time.Duration
}

// Rows is the cursor returned by Connection.Query.
// It mirrors the subset of *sql.Rows and pgx.Rows the library needs.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Columns() ([]string, error)
	Err() error
	Close() error
}

// Connection is a single database session.
//
// Thread-Safety: a Connection is NOT safe for concurrent use. Obtain one per
// goroutine from a ConnectionFactory.
type Connection interface {
	// Open establishes the session. Calling Open on an open connection is a no-op.
	Open(ctx context.Context) error

	// Close releases the session. Closing a closed connection is a no-op.
	Close() error

	// IsOpen reports whether Open succeeded and Close has not been called since.
	IsOpen() bool

	// Driver returns the provider name (sqlserver, postgres, hdb, ...).
	Driver() string

	// CreateCommand returns an empty command bound to this connection.
	CreateCommand() *Command

	// Query runs a statement that returns rows.
	Query(ctx context.Context, sql string, args ...any) (Rows, error)

	// Exec runs a statement that returns no rows and reports rows affected.
	Exec(ctx context.Context, sql string, args ...any) (int64, error)
}

// ConnectionFactory produces independent connections that share one identity.
//
// Identity must be stable for the lifetime of the process and must change
// whenever the target database or login changes, because it keys cached
// parameter sets.
type ConnectionFactory interface {
	Identity() string
	CreateConnection() (Connection, error)
}

// DiscoverFunc fills cmd.Parameters with the declared parameters of the
// stored procedure named by cmd.Text. cmd.Connection is open when called.
// Providers that model a return status must prepend it as the first parameter.
type DiscoverFunc func(ctx context.Context, cmd *Command) error
