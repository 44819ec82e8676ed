package cache

import (
	"time"

	"github.com/go-logr/logr"
	"k8s.io/utils/clock"
)

const (
	// DefaultTTL is the time-to-live applied by Set and GetOrCompute
	DefaultTTL = 30 * time.Second
	// DefaultMaxSize is the number of entries a store holds before evicting
	DefaultMaxSize = 1000
	// DefaultCleanupInterval is how often expired entries are swept
	DefaultCleanupInterval = 60 * time.Second
)

type Option func(*options)

// Holds store settings
type options struct {
	name            string
	defaultTTL      time.Duration
	maxSize         int
	cleanupInterval time.Duration
	singleflight    bool
	clock           clock.WithTicker
	log             logr.Logger
}

func applyOptions(opts []Option) options {
	o := options{
		defaultTTL:      DefaultTTL,
		maxSize:         DefaultMaxSize,
		cleanupInterval: DefaultCleanupInterval,
		clock:           clock.RealClock{},
		log:             logr.Discard(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithName sets the name used in log messages and metrics labels.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithDefaultTTL sets the time-to-live of entries stored without an explicit TTL.
// Non-positive values are ignored.
func WithDefaultTTL(ttl time.Duration) Option {
	return func(o *options) {
		if ttl > 0 {
			o.defaultTTL = ttl
		}
	}
}

// WithMaxSize bounds the number of entries. Zero or less means unbounded.
func WithMaxSize(size int) Option {
	return func(o *options) {
		o.maxSize = size
	}
}

// WithCleanupInterval sets the period of the expired entries sweep. Zero or less
// disables the sweep; expired entries are then only purged on access.
func WithCleanupInterval(interval time.Duration) Option {
	return func(o *options) {
		o.cleanupInterval = interval
	}
}

// WithSingleflight makes GetOrCompute share one in-flight computation between
// concurrent callers missing the same key.
func WithSingleflight() Option {
	return func(o *options) {
		o.singleflight = true
	}
}

func WithClock(c clock.WithTicker) Option {
	return func(o *options) {
		o.clock = c
	}
}

func WithLogr(log logr.Logger) Option {
	return func(o *options) {
		o.log = log
	}
}
