package logging

import "github.com/vvka-141/sphelper/pkg/sphelper"

// NullLogger discards all log messages. It is the default logger of every
// component that accepts one.
type NullLogger struct{}

var _ sphelper.Logger = (*NullLogger)(nil)

// NewNullLogger creates a new NullLogger.
func NewNullLogger() *NullLogger {
	return &NullLogger{}
}

func (*NullLogger) Verbose(string, ...any) {}
func (*NullLogger) Info(string, ...any)    {}
func (*NullLogger) Error(string, ...any)   {}
