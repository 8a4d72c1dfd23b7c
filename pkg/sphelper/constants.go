package sphelper

import "time"

// Exit codes for semantic error classification.
// These follow Unix/GNU conventions:
//   - 0: Success
//   - 1: General error
//   - 2: CLI usage error (misuse of command line)
//   - 3+: Application-specific errors
const (
	ExitSuccess           = 0  // Command completed successfully
	ExitGeneralError      = 1  // Unknown or unclassified error
	ExitUsageError        = 2  // CLI usage error (missing args, invalid flags)
	ExitPanic             = 3  // Internal panic (unexpected crash)
	ExitConfigError       = 10 // Invalid configuration or parameters
	ExitConnectionError   = 11 // Failed to connect to database
	ExitDiscoveryFailed   = 12 // Parameter discovery failed
	ExitExecutionFailed   = 13 // Procedure execution failed
	ExitProcedureNotFound = 14 // Procedure does not exist
)

const (
	// DefaultRetryInitialDelay is the default initial delay before the first retry attempt.
	DefaultRetryInitialDelay = 100 * time.Millisecond

	// DefaultRetryMaxDelay is the default maximum delay between retry attempts.
	DefaultRetryMaxDelay = 1 * time.Minute

	// DefaultRetryMaxAttempts is the default maximum number of retry attempts.
	DefaultRetryMaxAttempts = 3

	// DefaultCommandTimeout bounds a single CLI command when no --timeout is given.
	DefaultCommandTimeout = 30 * time.Second

	// ReturnValueKeyPrefix marks cache keys whose parameter sets include the
	// leading return-value parameter.
	ReturnValueKeyPrefix = "rv+"

	// ReturnValueParameterName is the name given to the discovered return-status
	// parameter by providers that do not report one themselves.
	ReturnValueParameterName = "@RETURN_VALUE"
)
