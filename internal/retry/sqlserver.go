package retry

import (
	"errors"

	mssql "github.com/denisenkom/go-mssqldb"
)

// sqlServerTransientNumbers lists SQL Server and Azure SQL error numbers that
// are safe to retry when opening a session.
var sqlServerTransientNumbers = map[int32]bool{
	233:   true, // no process on the other end of the pipe
	1205:  true, // deadlock victim
	4060:  true, // cannot open database requested by the login
	4221:  true, // login to read-secondary failed, replica not ready
	10053: true, // transport-level error, connection aborted
	10054: true, // transport-level error, connection reset
	10060: true, // network-related error, timeout
	10928: true, // resource limit reached
	10929: true, // resource limit, minimum guarantee
	40143: true, // service encountered an error processing the request
	40197: true, // service error processing request
	40501: true, // service is busy
	40613: true, // database not currently available
	49918: true, // not enough resources to process request
	49919: true, // too many create or update operations
	49920: true, // too many operations in progress
}

// SQLServerErrorClassifier classifies go-mssqldb errors.
type SQLServerErrorClassifier struct{}

// NewSQLServerErrorClassifier creates a new SQL Server error classifier.
func NewSQLServerErrorClassifier() *SQLServerErrorClassifier {
	return &SQLServerErrorClassifier{}
}

// IsTransient implements sphelper.ErrorClassifier.
func (c *SQLServerErrorClassifier) IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var msErr mssql.Error
	if errors.As(err, &msErr) {
		if sqlServerTransientNumbers[msErr.Number] {
			return true
		}
		for _, e := range msErr.All {
			if sqlServerTransientNumbers[e.Number] {
				return true
			}
		}
		return false
	}

	return isNetworkError(err) || hasTransientMessage(err)
}
