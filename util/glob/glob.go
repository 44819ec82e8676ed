package glob

import (
	"strings"
	"sync"

	"github.com/gobwas/glob"
	"github.com/golang/groupcache/lru"
)

// DefaultPatternCacheSize bounds the number of compiled key patterns kept in memory.
// Invalidation patterns are derived from a small set of kinds and namespaces, so the
// working set is small; the bound only protects against unbounded growth.
const DefaultPatternCacheSize = 1024

var (
	patternCache     = lru.New(DefaultPatternCacheSize)
	patternCacheLock sync.Mutex
	compileGlob      = glob.Compile
)

// quoteWildcard turns a pattern where `*` is the only wildcard into a gobwas
// pattern: every other metacharacter is escaped so it matches literally.
func quoteWildcard(pattern string) string {
	parts := strings.Split(pattern, "*")
	for i, p := range parts {
		parts[i] = glob.QuoteMeta(p)
	}
	return strings.Join(parts, "*")
}

// CompileKeyPattern compiles a cache key pattern. `*` matches any run of characters
// (including the `:` separator) and the pattern must match the whole key.
// Compiled patterns are cached.
func CompileKeyPattern(pattern string) (glob.Glob, error) {
	patternCacheLock.Lock()
	defer patternCacheLock.Unlock()

	if cached, ok := patternCache.Get(pattern); ok {
		return cached.(glob.Glob), nil
	}
	compiled, err := compileGlob(quoteWildcard(pattern))
	if err != nil {
		return nil, err
	}
	patternCache.Add(pattern, compiled)
	return compiled, nil
}

// MatchKey reports whether key matches pattern. A pattern that fails to compile
// matches nothing.
func MatchKey(pattern, key string) bool {
	compiled, err := CompileKeyPattern(pattern)
	if err != nil {
		return false
	}
	return compiled.Match(key)
}
