// Package logging provides implementations of sphelper.Logger.
//
// Available implementations:
//   - ConsoleLogger: plain text lines on stderr (or any io.Writer)
//   - ZapLogger: structured output through go.uber.org/zap
//   - NullLogger: discards everything
//
// New picks one from the --log-format flag. All implementations are safe for
// concurrent use.
package logging
