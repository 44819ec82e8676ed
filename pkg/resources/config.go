package resources

import (
	"time"

	"github.com/go-logr/logr"
	"k8s.io/utils/clock"

	"github.com/argoproj-labs/resourcelens/pkg/cache"
	"github.com/argoproj-labs/resourcelens/pkg/retry"
)

// Config holds the cache and retry settings of a Client.
type Config struct {
	// DefaultTTL is how long fetched resources are served from the cache.
	DefaultTTL time.Duration
	// MaxEntries bounds each of the item and list caches. Zero or less means unbounded.
	MaxEntries int
	// CleanupInterval is the period of the expired entries sweep. Zero or less disables it.
	CleanupInterval time.Duration
	// Singleflight makes concurrent reads of the same missing key share one fetch.
	Singleflight bool
	Retry        retry.Options
	// Clock drives TTLs and the sweep; the real clock when nil.
	Clock clock.WithTicker
}

func DefaultConfig() Config {
	return Config{
		DefaultTTL:      cache.DefaultTTL,
		MaxEntries:      cache.DefaultMaxSize,
		CleanupInterval: cache.DefaultCleanupInterval,
		Retry:           retry.DefaultOptions(),
	}
}

func (c Config) storeOptions(name string, log logr.Logger) []cache.Option {
	opts := []cache.Option{
		cache.WithName(name),
		cache.WithLogr(log),
		cache.WithDefaultTTL(c.DefaultTTL),
		cache.WithMaxSize(c.MaxEntries),
		cache.WithCleanupInterval(c.CleanupInterval),
	}
	if c.Singleflight {
		opts = append(opts, cache.WithSingleflight())
	}
	if c.Clock != nil {
		opts = append(opts, cache.WithClock(c.Clock))
	}
	return opts
}
