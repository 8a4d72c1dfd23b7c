package retry

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL SQLSTATE values outside the wholly transient classes.
// See https://www.postgresql.org/docs/current/errcodes-appendix.html
const (
	pgCodeSerializationFailure = "40001"
	pgCodeDeadlockDetected     = "40P01"
	pgCodeLockNotAvailable     = "55P03"
)

// pgTransientClasses are SQLSTATE classes where every code is retryable:
// 08 connection exception, 53 insufficient resources, 57 operator intervention.
var pgTransientClasses = map[string]bool{
	"08": true,
	"53": true,
	"57": true,
}

// PostgreSQLErrorClassifier classifies pgx/pgconn errors.
type PostgreSQLErrorClassifier struct{}

// NewPostgreSQLErrorClassifier creates a new PostgreSQL error classifier.
func NewPostgreSQLErrorClassifier() *PostgreSQLErrorClassifier {
	return &PostgreSQLErrorClassifier{}
}

// IsTransient implements sphelper.ErrorClassifier.
func (c *PostgreSQLErrorClassifier) IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return isTransientSQLState(pgErr.Code)
	}

	return isNetworkError(err) || hasTransientMessage(err)
}

func isTransientSQLState(code string) bool {
	if len(code) == 5 && pgTransientClasses[code[:2]] {
		return true
	}
	switch code {
	case pgCodeSerializationFailure, pgCodeDeadlockDetected, pgCodeLockNotAvailable:
		return true
	}
	return false
}
