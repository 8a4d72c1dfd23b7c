package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/vvka-141/sphelper/pkg/sphelper"
)

// Log formats accepted by New.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// ZapLogger adapts a zap logger to sphelper.Logger. Verbose maps to the
// debug level.
type ZapLogger struct {
	sugar *zap.SugaredLogger
}

var _ sphelper.Logger = (*ZapLogger)(nil)

// NewZapLogger builds a JSON logger on stderr using zap's production
// config. verbose lowers the level to debug.
func NewZapLogger(verbose bool) (*ZapLogger, error) {
	config := zap.NewProductionConfig()
	config.DisableStacktrace = true
	config.EncoderConfig.TimeKey = "ts"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if verbose {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return NewZapLoggerFrom(logger), nil
}

// NewZapLoggerFrom wraps an existing zap logger.
func NewZapLoggerFrom(logger *zap.Logger) *ZapLogger {
	return &ZapLogger{sugar: logger.Sugar()}
}

func (l *ZapLogger) Verbose(format string, args ...any) {
	l.sugar.Debugf(format, args...)
}

func (l *ZapLogger) Info(format string, args ...any) {
	l.sugar.Infof(format, args...)
}

func (l *ZapLogger) Error(format string, args ...any) {
	l.sugar.Errorf(format, args...)
}

// Sync flushes buffered entries.
func (l *ZapLogger) Sync() error {
	return l.sugar.Sync()
}

// New returns the logger for format and a function that flushes it.
func New(format string, verbose bool) (sphelper.Logger, func(), error) {
	switch strings.ToLower(format) {
	case "", FormatText:
		return NewConsoleLogger(verbose), func() {}, nil
	case FormatJSON:
		l, err := NewZapLogger(verbose)
		if err != nil {
			return nil, nil, err
		}
		// Sync on stderr fails with EINVAL on some platforms.
		return l, func() { _ = l.Sync() }, nil
	default:
		return nil, nil, fmt.Errorf("log format %q (want %s or %s): %w", format, FormatText, FormatJSON, sphelper.ErrInvalidArgument)
	}
}
