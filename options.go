package voxgo

import (
	"log/slog"

	"github.com/hupe1980/voxgo/blobstore"
	"github.com/hupe1980/voxgo/resource"
)

type options struct {
	mode       Mode
	store      blobstore.Store
	logger     *Logger
	tracker    resource.Tracker
	controller *resource.Controller
}

// Option configures Open/Create/Using behavior.
type Option func(*options)

// WithMode sets the open mode. The default is ModeRead.
func WithMode(mode Mode) Option {
	return func(o *options) {
		o.mode = mode
	}
}

// WithBlobStore sets where voxel files live. The default is a local
// store rooted at the current working directory; pass a memory store
// for tests or an object-store backend for remote datasets.
func WithBlobStore(store blobstore.Store) Option {
	return func(o *options) {
		if store != nil {
			o.store = store
		}
	}
}

// WithLogger configures structured logging for operations.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithLogLevel creates a text logger with the specified level and sets
// it. Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithTracker installs a resource tracker. Every successful Open calls
// Track once and the matching Close calls Pop once, so tests can assert
// balanced open/close counts without global state.
func WithTracker(tracker resource.Tracker) Option {
	return func(o *options) {
		if tracker != nil {
			o.tracker = tracker
		}
	}
}

// WithController bounds row-buffer memory and storage read throughput.
func WithController(ctrl *resource.Controller) Option {
	return func(o *options) {
		o.controller = ctrl
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		mode:    ModeRead,
		store:   blobstore.NewLocalStore(""),
		logger:  NoopLogger(),
		tracker: resource.NopTracker{},
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
