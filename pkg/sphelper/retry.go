package sphelper

import "time"

// ErrorClassifier tells a retrying opener which driver errors are worth
// another attempt (network drops, server starting up, throttling).
type ErrorClassifier interface {
	IsTransient(err error) bool
}

// BackoffStrategy spaces connection attempts. attempt counts retries from
// zero; MaxAttempts of 0 disables retrying and -1 retries until the context
// ends.
type BackoffStrategy interface {
	NextDelay(attempt int) time.Duration
	MaxAttempts() int
}
