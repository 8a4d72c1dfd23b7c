package sphelper

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Connector builds the pgx pool a PostgreSQL source hands connections out
// of. There is one implementation per authentication method.
type Connector interface {
	// Connect returns a ready pool. The caller owns it and must Close it.
	Connect(ctx context.Context) (*pgxpool.Pool, error)
}

// Logger receives the diagnostics of discovery, caching and execution.
// Verbose output is dropped unless the logger was built in verbose mode.
// Implementations are called from concurrent lookups.
type Logger interface {
	Verbose(format string, args ...any)
	Info(format string, args ...any)
	Error(format string, args ...any)
}
