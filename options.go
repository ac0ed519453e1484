package cathapult

import (
	"log/slog"

	"cathapult/codec"
	"cathapult/ted"
)

type options struct {
	logger  *Logger
	metrics Collector
	codec   codec.Codec
	client  *ted.Client
}

// Option configures New.
type Option func(*options)

// WithLogger configures structured logging for operations.
// The default logger discards all output.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithMetrics configures a metrics collector for monitoring operations.
//
// Example with BasicCollector:
//
//	metrics := &cathapult.BasicCollector{}
//	cp := cathapult.New(cathapult.WithMetrics(metrics))
//	// ... use cp ...
//	stats := metrics.GetStats()
func WithMetrics(c Collector) Option {
	return func(o *options) {
		if c != nil {
			o.metrics = c
		}
	}
}

// WithCodec configures the codec used for store footers.
//
// If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithClient configures the TED API client used by Fetch, for custom base
// URLs, rate limits or HTTP transports.
func WithClient(c *ted.Client) Option {
	return func(o *options) {
		o.client = c
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		logger:  NoopLogger(),
		metrics: NoopCollector{},
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
