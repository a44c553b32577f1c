// Package notify delivers fire-and-forget user-facing messages.
package notify

import "github.com/merchbay/storefront/pkg/logger"

// Sink receives user-facing messages. Delivery is best effort and carries no
// correctness weight; implementations must not block.
type Sink interface {
	Success(msg string)
	Info(msg string)
	Error(msg string)
}

// Noop discards all messages; safe default when no UI is attached.
var Noop Sink = noopSink{}

type noopSink struct{}

func (noopSink) Success(string) {}
func (noopSink) Info(string)    {}
func (noopSink) Error(string)   {}

// LogSink writes messages through the structured logger, for headless runs.
type LogSink struct {
	log *logger.Logger
}

var _ Sink = (*LogSink)(nil)

// NewLogSink creates a sink logging under the given logger.
func NewLogSink(log *logger.Logger) *LogSink {
	if log == nil {
		log = logger.NewDefault("notify")
	}
	return &LogSink{log: log}
}

func (s *LogSink) Success(msg string) { s.log.WithField("kind", "success").Info(msg) }
func (s *LogSink) Info(msg string)    { s.log.WithField("kind", "info").Info(msg) }
func (s *LogSink) Error(msg string)   { s.log.WithField("kind", "error").Warn(msg) }
