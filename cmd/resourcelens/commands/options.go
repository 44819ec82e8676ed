package commands

import (
	"fmt"
	"math"
	"time"

	"github.com/spf13/cobra"

	cmdutil "github.com/argoproj-labs/resourcelens/cmd/util"
	"github.com/argoproj-labs/resourcelens/common"
	"github.com/argoproj-labs/resourcelens/pkg/cache"
	"github.com/argoproj-labs/resourcelens/pkg/diff"
	"github.com/argoproj-labs/resourcelens/pkg/resources"
	"github.com/argoproj-labs/resourcelens/pkg/retry"
	"github.com/argoproj-labs/resourcelens/util/env"
	"github.com/argoproj-labs/resourcelens/util/errors"
)

// diffOptions holds the flags shared by the commands printing differences.
type diffOptions struct {
	output         string
	arrayAlignment string
	ignoredFields  []string
}

func (o *diffOptions) addFlags(command *cobra.Command) {
	command.Flags().StringVarP(&o.output, "output", "o", cmdutil.OutputTable, "Output format. One of: table|json|yaml")
	command.Flags().StringVar(&o.arrayAlignment, "array-alignment", "positional", "How array elements are paired. One of: positional|lcs")
	command.Flags().StringArrayVar(&o.ignoredFields, "ignore-field", nil, "Dotted path of a field to ignore, e.g. spec.replicas. Can be repeated")
}

func (o *diffOptions) engineOptions() ([]diff.Option, error) {
	switch o.output {
	case cmdutil.OutputTable, cmdutil.OutputJSON, cmdutil.OutputYAML:
	default:
		return nil, errors.NewConfigurationError(fmt.Errorf("unknown output format: %s", o.output))
	}
	var opts []diff.Option
	switch o.arrayAlignment {
	case "positional":
	case "lcs":
		opts = append(opts, diff.WithArrayAlignment(diff.AlignLCS))
	default:
		return nil, errors.NewConfigurationError(fmt.Errorf("unknown array alignment: %s", o.arrayAlignment))
	}
	paths, err := cmdutil.ParseFieldPaths(o.ignoredFields)
	if err != nil {
		return nil, errors.NewConfigurationError(err)
	}
	if len(paths) > 0 {
		opts = append(opts, diff.WithIgnoredFields(paths...))
	}
	return append(opts, diff.WithLogr(newLogger())), nil
}

// clientOptions holds the cache and retry flags.
type clientOptions struct {
	cacheTTL               time.Duration
	cacheMaxEntries        int
	cacheCleanupInterval   time.Duration
	singleflight           bool
	retryMax               int
	retryDelay             time.Duration
	retryBackoffMultiplier float64
	retryMaxDelay          time.Duration
}

func (o *clientOptions) addFlags(command *cobra.Command) {
	command.Flags().DurationVar(&o.cacheTTL, "cache-ttl", env.ParseDurationFromEnv(common.EnvCacheTTL, cache.DefaultTTL, 0, math.MaxInt64), "How long fetched resources are served from the cache")
	command.Flags().IntVar(&o.cacheMaxEntries, "cache-max-entries", env.ParseNumFromEnv(common.EnvCacheMaxEntries, cache.DefaultMaxSize, 0, math.MaxInt32), "Maximum number of entries per cache. 0 means unbounded")
	command.Flags().DurationVar(&o.cacheCleanupInterval, "cache-cleanup-interval", env.ParseDurationFromEnv(common.EnvCacheCleanupInterval, cache.DefaultCleanupInterval, 0, math.MaxInt64), "How often expired cache entries are swept. 0 disables the sweep")
	command.Flags().BoolVar(&o.singleflight, "cache-singleflight", false, "Share one fetch between concurrent reads of the same resource")
	command.Flags().IntVar(&o.retryMax, "retry-max", env.ParseNumFromEnv(common.EnvRetryMax, retry.DefaultMaxRetries, 0, math.MaxInt32), "Number of retries after a transient failure")
	command.Flags().DurationVar(&o.retryDelay, "retry-delay", env.ParseDurationFromEnv(common.EnvRetryDelay, retry.DefaultRetryDelay, 0, math.MaxInt64), "Delay before the first retry")
	command.Flags().Float64Var(&o.retryBackoffMultiplier, "retry-backoff-multiplier", env.ParseFloat64FromEnv(common.EnvRetryBackoffMultiplier, retry.DefaultBackoffMultiplier, 1, math.MaxFloat64), "Factor applied to the delay after every retry")
	command.Flags().DurationVar(&o.retryMaxDelay, "retry-max-delay", env.ParseDurationFromEnv(common.EnvRetryMaxDelay, retry.DefaultMaxDelay, 0, math.MaxInt64), "Maximum delay between retries")
}

func (o *clientOptions) config() (resources.Config, error) {
	switch {
	case o.cacheTTL <= 0:
		return resources.Config{}, errors.NewConfigurationError(fmt.Errorf("--cache-ttl must be positive, got %s", o.cacheTTL))
	case o.retryMax < 0:
		return resources.Config{}, errors.NewConfigurationError(fmt.Errorf("--retry-max must not be negative, got %d", o.retryMax))
	case o.retryBackoffMultiplier < 1:
		return resources.Config{}, errors.NewConfigurationError(fmt.Errorf("--retry-backoff-multiplier must be at least 1, got %v", o.retryBackoffMultiplier))
	}
	cfg := resources.DefaultConfig()
	cfg.DefaultTTL = o.cacheTTL
	cfg.MaxEntries = o.cacheMaxEntries
	cfg.CleanupInterval = o.cacheCleanupInterval
	cfg.Singleflight = o.singleflight
	cfg.Retry.MaxRetries = o.retryMax
	cfg.Retry.RetryDelay = o.retryDelay
	cfg.Retry.BackoffMultiplier = o.retryBackoffMultiplier
	cfg.Retry.MaxDelay = o.retryMaxDelay
	return cfg, nil
}
