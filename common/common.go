package common

// Environment variables read by the resourcelens CLI. Libraries never read them;
// the values are resolved once in cmd/ and passed down explicitly.
const (
	// EnvLogFormat log format that is defined by `--logformat` option
	EnvLogFormat = "RESOURCELENS_LOG_FORMAT"
	// EnvLogLevel log level that is defined by `--loglevel` option
	EnvLogLevel = "RESOURCELENS_LOG_LEVEL"
	// EnvLogFormatEnableFullTimestamp enables the FullTimestamp option in logs
	EnvLogFormatEnableFullTimestamp = "RESOURCELENS_LOG_FORMAT_ENABLE_FULL_TIMESTAMP"
	// EnvForceLogColors forces colored text output
	EnvForceLogColors = "RESOURCELENS_FORCE_LOG_COLORS"

	// EnvCacheTTL overrides the default time-to-live of cached reads
	EnvCacheTTL = "RESOURCELENS_CACHE_TTL"
	// EnvCacheMaxEntries overrides the maximum number of entries held by a single store
	EnvCacheMaxEntries = "RESOURCELENS_CACHE_MAX_ENTRIES"
	// EnvCacheCleanupInterval overrides how often expired entries are swept
	EnvCacheCleanupInterval = "RESOURCELENS_CACHE_CLEANUP_INTERVAL"
	// EnvDiscoveryCacheTTL overrides how long resolved kinds are memoised
	EnvDiscoveryCacheTTL = "RESOURCELENS_DISCOVERY_CACHE_TTL"

	// EnvRetryMax overrides the number of retries after the first attempt
	EnvRetryMax = "RESOURCELENS_RETRY_MAX"
	// EnvRetryDelay overrides the delay before the first retry
	EnvRetryDelay = "RESOURCELENS_RETRY_DELAY"
	// EnvRetryBackoffMultiplier overrides the factor applied to the delay after every retry
	EnvRetryBackoffMultiplier = "RESOURCELENS_RETRY_BACKOFF_MULTIPLIER"
	// EnvRetryMaxDelay overrides the cap applied to the delay
	EnvRetryMaxDelay = "RESOURCELENS_RETRY_MAX_DELAY"
)

// FieldManager is used for server-side apply mutations
const FieldManager = "resourcelens"
