package upload

import (
	"log/slog"
	"time"
)

const (
	// DefaultSubChunkSize is the size of the slices a part is streamed in.
	DefaultSubChunkSize = 64 * 1024

	// DefaultProgressBuffer is the capacity of the per-part progress channel.
	DefaultProgressBuffer = 64

	// DefaultAbortTimeout bounds the best-effort abort call.
	DefaultAbortTimeout = 30 * time.Second

	// DefaultContentType is used when a Request has no content type.
	DefaultContentType = "application/jsonl"
)

type (
	// Option configures an Uploader.
	Option func(*options)

	options struct {
		subChunkSize   int
		progressBuffer int
		abortTimeout   time.Duration
		logger         *slog.Logger
	}
)

func defaultOptions() options {
	return options{
		subChunkSize:   DefaultSubChunkSize,
		progressBuffer: DefaultProgressBuffer,
		abortTimeout:   DefaultAbortTimeout,
		logger:         slog.Default(),
	}
}

// WithSubChunkSize sets the granularity of progress notifications.
func WithSubChunkSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.subChunkSize = n
		}
	}
}

// WithProgressBuffer sets the capacity of the per-part progress channel.
// Notifications are dropped while the channel is full.
func WithProgressBuffer(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.progressBuffer = n
		}
	}
}

// WithAbortTimeout bounds how long aborting a failed session may take.
func WithAbortTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.abortTimeout = d
		}
	}
}

// WithLogger sets the logger used for session lifecycle messages.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}
