package history

// Option configures buffer bounds using the functional options pattern.
type Option func(*options)

type options struct {
	maxAge     int64
	maxEntries int
}

// WithMaxAge bounds entries by age in nanoseconds relative to the newest
// stored timestamp. Zero disables the age bound.
func WithMaxAge(ns int64) Option {
	return func(o *options) {
		o.maxAge = ns
	}
}

// WithMaxEntries bounds the number of retained entries. Zero disables the
// count bound.
func WithMaxEntries(n int) Option {
	return func(o *options) {
		o.maxEntries = n
	}
}

func applyOptions(opts ...Option) *options {
	o := &options{
		// Defaults keep history bounded even when the owner configures
		// nothing: five minutes or one thousand entries.
		maxAge:     300_000_000_000,
		maxEntries: 1000,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}
