// Package option provides functional options for prefetch.Open, following
// the same OpenOption/WithX pattern the teacher library uses for its own
// Open call.
package option

import (
	"github.com/bgrewell/prefetch-kit/pkg/logging"
)

// OpenOptions holds every configurable knob of a parse.
type OpenOptions struct {
	// Logger receives Trace/Debug lines at section boundaries. Defaults to
	// a discard logger.
	Logger *logging.Logger
	// StrictCounts promotes an InconsistentCounts condition (a volume's
	// declared vs. decoded directory-string count; filename counts are not
	// compared) from a recorded warning to
	// a fatal error. Off by default, matching spec.md §7's propagation
	// policy of recording it rather than failing the parse.
	StrictCounts bool
}

// Option mutates OpenOptions.
type Option func(*OpenOptions)

// DefaultOptions returns the options Open uses when none are supplied.
func DefaultOptions() *OpenOptions {
	return &OpenOptions{
		Logger:       logging.DefaultLogger(),
		StrictCounts: false,
	}
}

// WithLogger sets the logger used during the parse.
func WithLogger(logger *logging.Logger) Option {
	return func(o *OpenOptions) {
		o.Logger = logger
	}
}

// WithStrictCounts turns InconsistentCounts into a fatal error rather than
// a recorded warning.
func WithStrictCounts(strict bool) Option {
	return func(o *OpenOptions) {
		o.StrictCounts = strict
	}
}
