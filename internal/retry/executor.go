package retry

import (
	"context"
	"time"

	"github.com/vvka-141/sphelper/pkg/sphelper"
)

// RetryFunc is called before each retry with the zero-based retry number,
// the error that caused it and the delay about to be waited.
type RetryFunc func(attempt int, err error, delay time.Duration)

// Executor runs an operation until it succeeds, fails fatally or exhausts
// the strategy's attempts.
//
// Thread Safety: Execute is safe for concurrent use. WithOnRetry returns a
// copy and leaves the receiver unchanged.
type Executor struct {
	classifier sphelper.ErrorClassifier
	strategy   sphelper.BackoffStrategy
	onRetry    RetryFunc
}

// NewExecutor creates a new retry executor.
// Panics if classifier or strategy is nil.
func NewExecutor(classifier sphelper.ErrorClassifier, strategy sphelper.BackoffStrategy) *Executor {
	if classifier == nil {
		panic("classifier cannot be nil")
	}
	if strategy == nil {
		panic("strategy cannot be nil")
	}
	return &Executor{
		classifier: classifier,
		strategy:   strategy,
	}
}

// ForConnection returns the executor used to open sessions against driver.
// Retries are reported through logger at verbose level.
func ForConnection(driver string, logger sphelper.Logger) *Executor {
	e := NewExecutor(ForDriver(driver), DefaultBackoff())
	if logger == nil {
		return e
	}
	return e.WithOnRetry(func(attempt int, err error, delay time.Duration) {
		logger.Verbose("Connection attempt %d failed (%v), retrying in %v", attempt+1, err, delay.Round(time.Millisecond))
	})
}

// WithOnRetry returns a copy of e that calls fn before each retry.
func (e *Executor) WithOnRetry(fn RetryFunc) *Executor {
	clone := *e
	clone.onRetry = fn
	return &clone
}

// Execute runs operation and returns nil or the last error observed.
func (e *Executor) Execute(ctx context.Context, operation func(ctx context.Context) error) error {
	err := operation(ctx)
	maxAttempts := e.strategy.MaxAttempts()

	for attempt := 0; err != nil && e.classifier.IsTransient(err); attempt++ {
		if maxAttempts >= 0 && attempt >= maxAttempts {
			break
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		delay := e.strategy.NextDelay(attempt)
		if e.onRetry != nil {
			e.onRetry(attempt, err, delay)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		err = operation(ctx)
	}
	return err
}
