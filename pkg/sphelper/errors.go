package sphelper

import (
	"errors"
	"strings"
)

// Sentinel errors for common failure scenarios.
// These enable callers to distinguish error types using errors.Is().
//
// Example usage:
//
//	params, err := cache.GetSpParameterSet(ctx, source, discover, "dbo.GetOrders", false)
//	if errors.Is(err, sphelper.ErrProcedureNotFound) {
//	    // Handle a missing procedure
//	}
var (
	// ErrInvalidArgument indicates a required argument was empty or malformed.
	// It is always returned before any I/O takes place.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidConfig indicates the provided configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrConnectionFailed indicates database connection failed.
	ErrConnectionFailed = errors.New("connection failed")

	// ErrDiscoveryFailed indicates the parameter metadata round-trip failed.
	ErrDiscoveryFailed = errors.New("parameter discovery failed")

	// ErrProcedureNotFound indicates the database has no procedure with the requested name.
	ErrProcedureNotFound = errors.New("stored procedure not found")

	// ErrParameterCountMismatch indicates the number of supplied values does not
	// match the number of input parameters.
	ErrParameterCountMismatch = errors.New("parameter count does not match parameter value count")

	// ErrExecutionFailed indicates command execution failed.
	ErrExecutionFailed = errors.New("execution failed")

	// ErrUnsupportedDriver indicates the connection string names an unknown provider.
	ErrUnsupportedDriver = errors.New("unsupported driver")

	// ErrUnsupportedAuthMethod indicates the requested authentication method is not supported.
	ErrUnsupportedAuthMethod = errors.New("unsupported authentication method")
)

// cobraUsagePatterns are message fragments cobra uses for argument and flag errors.
var cobraUsagePatterns = []string{
	"unknown flag",
	"unknown shorthand flag",
	"unknown command",
	"accepts ",
	"requires at least",
	"required flag",
	"invalid argument",
}

// ExitCodeForError returns the appropriate exit code for an error.
// Returns ExitSuccess (0) for nil errors, semantic codes for known errors,
// and ExitGeneralError (1) for unclassified errors.
func ExitCodeForError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	switch {
	case errors.Is(err, ErrInvalidArgument):
		return ExitUsageError
	case errors.Is(err, ErrInvalidConfig),
		errors.Is(err, ErrUnsupportedDriver),
		errors.Is(err, ErrUnsupportedAuthMethod):
		return ExitConfigError
	case errors.Is(err, ErrConnectionFailed):
		return ExitConnectionError
	case errors.Is(err, ErrProcedureNotFound):
		return ExitProcedureNotFound
	case errors.Is(err, ErrDiscoveryFailed):
		return ExitDiscoveryFailed
	case errors.Is(err, ErrParameterCountMismatch):
		return ExitUsageError
	case errors.Is(err, ErrExecutionFailed):
		return ExitExecutionFailed
	}

	errStr := err.Error()
	for _, pattern := range cobraUsagePatterns {
		if strings.Contains(errStr, pattern) {
			return ExitUsageError
		}
	}
	if strings.Contains(errStr, "failed to connect") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no such host") {
		return ExitConnectionError
	}

	return ExitGeneralError
}
