/*
Package cache provides a bounded, TTL based key/value store used to avoid redundant
round-trips to the cluster API.

Entries expire after their TTL and are evicted in insertion order (FIFO, not LRU)
once the store is full. Keys are plain strings; callers that follow the
`kind:namespace:name` convention can drop whole groups with InvalidatePattern.
*/
package cache

import (
	"container/list"
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"k8s.io/utils/clock"

	"github.com/argoproj-labs/resourcelens/util/glob"
)

type entry[T any] struct {
	key       string
	value     T
	expiresAt time.Time
}

// Store is a TTL bounded key/value store. Values must be treated as read-only by
// callers; to change a value, Set it again.
//
// Eviction only makes room for new keys: overwriting a key that is already stored
// never evicts, even when the store is full, and the key keeps its place in the
// eviction order.
type Store[T any] struct {
	opts options

	lock sync.Mutex
	// entries indexes the elements of order, which holds *entry[T] from the oldest
	// insertion (front) to the newest (back).
	entries   map[string]*list.Element
	order     *list.List
	hits      int64
	misses    int64
	evictions int64

	flight *singleflight.Group

	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewStore creates a store and, unless the cleanup interval is disabled, starts the
// background sweep. Call Dispose to stop it.
func NewStore[T any](opts ...Option) *Store[T] {
	s := &Store[T]{
		opts:    applyOptions(opts),
		entries: make(map[string]*list.Element),
		order:   list.New(),
		stopCh:  make(chan struct{}),
	}
	if s.opts.singleflight {
		s.flight = &singleflight.Group{}
	}
	if s.opts.cleanupInterval > 0 {
		// the ticker is created here so that no tick can be missed before the goroutine runs
		go s.run(s.opts.clock.NewTicker(s.opts.cleanupInterval))
	}
	return s
}

func (s *Store[T]) run(ticker clock.Ticker) {
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C():
			if removed := s.Cleanup(); removed > 0 {
				s.opts.log.V(1).Info("Removed expired cache entries", "store", s.opts.name, "count", removed)
			}
		case <-s.stopCh:
			return
		}
	}
}

// Name returns the store name given with WithName.
func (s *Store[T]) Name() string {
	return s.opts.name
}

// lookup returns the live element for key, dropping it if it has expired.
// Caller must hold the lock.
func (s *Store[T]) lookup(key string, now time.Time) (*entry[T], bool) {
	el, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	e := el.Value.(*entry[T])
	if now.After(e.expiresAt) {
		s.removeElement(el)
		return nil, false
	}
	return e, true
}

func (s *Store[T]) removeElement(el *list.Element) {
	e := s.order.Remove(el).(*entry[T])
	delete(s.entries, e.key)
}

// Get returns the value stored under key. Expired entries are removed and reported
// as a miss.
func (s *Store[T]) Get(key string) (T, bool) {
	s.lock.Lock()
	defer s.lock.Unlock()

	e, ok := s.lookup(key, s.opts.clock.Now())
	if !ok {
		s.misses++
		var zero T
		return zero, false
	}
	s.hits++
	return e.value, true
}

// Has reports whether key holds an unexpired value without touching the hit and
// miss counters.
func (s *Store[T]) Has(key string) bool {
	s.lock.Lock()
	defer s.lock.Unlock()

	_, ok := s.lookup(key, s.opts.clock.Now())
	return ok
}

// Set stores value under key using the default TTL.
func (s *Store[T]) Set(key string, value T) {
	s.SetWithTTL(key, value, 0)
}

// SetWithTTL stores value under key for ttl, or the default TTL when ttl <= 0.
// Storing a new key into a full store first evicts the earliest inserted entry.
// Overwriting an existing key keeps its insertion position.
func (s *Store[T]) SetWithTTL(key string, value T, ttl time.Duration) {
	if ttl <= 0 {
		ttl = s.opts.defaultTTL
	}
	s.lock.Lock()
	defer s.lock.Unlock()

	expiresAt := s.opts.clock.Now().Add(ttl)
	if el, ok := s.entries[key]; ok {
		e := el.Value.(*entry[T])
		e.value = value
		e.expiresAt = expiresAt
		return
	}
	if s.opts.maxSize > 0 && s.order.Len() >= s.opts.maxSize {
		if oldest := s.order.Front(); oldest != nil {
			s.opts.log.V(2).Info("Evicting cache entry", "store", s.opts.name, "key", oldest.Value.(*entry[T]).key)
			s.removeElement(oldest)
			s.evictions++
		}
	}
	s.entries[key] = s.order.PushBack(&entry[T]{key: key, value: value, expiresAt: expiresAt})
}

// Delete removes key and reports whether it was present.
func (s *Store[T]) Delete(key string) bool {
	s.lock.Lock()
	defer s.lock.Unlock()

	el, ok := s.entries[key]
	if !ok {
		return false
	}
	s.removeElement(el)
	return true
}

// InvalidatePattern removes every key fully matching pattern, where `*` matches any
// run of characters, and returns the number of removed entries.
func (s *Store[T]) InvalidatePattern(pattern string) int {
	matcher, err := glob.CompileKeyPattern(pattern)
	if err != nil {
		s.opts.log.Error(err, "Invalid cache key pattern", "store", s.opts.name, "pattern", pattern)
		return 0
	}
	s.lock.Lock()
	defer s.lock.Unlock()

	removed := 0
	for el := s.order.Front(); el != nil; {
		next := el.Next()
		if matcher.Match(el.Value.(*entry[T]).key) {
			s.removeElement(el)
			removed++
		}
		el = next
	}
	return removed
}

// GetOrCompute returns the cached value for key or computes, stores and returns it
// using the default TTL. See GetOrComputeWithTTL.
func (s *Store[T]) GetOrCompute(key string, compute func() (T, error)) (T, error) {
	return s.GetOrComputeWithTTL(key, compute, 0)
}

// GetOrComputeWithTTL returns the cached value for key or computes, stores and
// returns it. Errors from compute are returned as is and nothing is stored.
//
// Unless the store was created WithSingleflight, concurrent callers missing the same
// key each run compute (at-least-once); the last one to finish wins the slot.
func (s *Store[T]) GetOrComputeWithTTL(key string, compute func() (T, error), ttl time.Duration) (T, error) {
	if v, ok := s.Get(key); ok {
		return v, nil
	}
	if s.flight == nil {
		return s.computeAndSet(key, compute, ttl)
	}
	res, err, _ := s.flight.Do(key, func() (any, error) {
		// a computation for key may have completed between the miss above and Do
		if v, ok := s.peek(key); ok {
			return v, nil
		}
		return s.computeAndSet(key, compute, ttl)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	v, _ := res.(T)
	return v, nil
}

// GetOrComputeContext is GetOrCompute for computations bound to a context.
//
// Without singleflight, compute runs with ctx. With singleflight, the computation is
// shared by every caller missing key and runs with ctx detached from cancellation:
// a caller whose ctx is done stops waiting and gets ctx.Err(), while the others keep
// waiting for the shared result, which is stored as usual.
func (s *Store[T]) GetOrComputeContext(ctx context.Context, key string, compute func(ctx context.Context) (T, error)) (T, error) {
	if v, ok := s.Get(key); ok {
		return v, nil
	}
	if s.flight == nil {
		return s.computeAndSet(key, func() (T, error) { return compute(ctx) }, 0)
	}
	shared := context.WithoutCancel(ctx)
	ch := s.flight.DoChan(key, func() (any, error) {
		if v, ok := s.peek(key); ok {
			return v, nil
		}
		return s.computeAndSet(key, func() (T, error) { return compute(shared) }, 0)
	})
	var zero T
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		v, _ := res.Val.(T)
		return v, nil
	}
}

func (s *Store[T]) computeAndSet(key string, compute func() (T, error), ttl time.Duration) (T, error) {
	v, err := compute()
	if err != nil {
		var zero T
		return zero, err
	}
	s.SetWithTTL(key, v, ttl)
	return v, nil
}

// peek is Get without the counters.
func (s *Store[T]) peek(key string) (T, bool) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if e, ok := s.lookup(key, s.opts.clock.Now()); ok {
		return e.value, true
	}
	var zero T
	return zero, false
}

// Cleanup removes all expired entries and returns how many were removed.
func (s *Store[T]) Cleanup() int {
	s.lock.Lock()
	defer s.lock.Unlock()

	now := s.opts.clock.Now()
	removed := 0
	for el := s.order.Front(); el != nil; {
		next := el.Next()
		if now.After(el.Value.(*entry[T]).expiresAt) {
			s.removeElement(el)
			removed++
		}
		el = next
	}
	return removed
}

// Keys returns the unexpired keys in insertion order.
func (s *Store[T]) Keys() []string {
	s.lock.Lock()
	defer s.lock.Unlock()

	now := s.opts.clock.Now()
	keys := make([]string, 0, s.order.Len())
	for el := s.order.Front(); el != nil; el = el.Next() {
		if e := el.Value.(*entry[T]); !now.After(e.expiresAt) {
			keys = append(keys, e.key)
		}
	}
	return keys
}

// Len returns the number of entries held, including expired entries that have not
// been purged yet.
func (s *Store[T]) Len() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.order.Len()
}

// Clear removes all entries. Counters are left untouched.
func (s *Store[T]) Clear() {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.entries = make(map[string]*list.Element)
	s.order.Init()
}

// Dispose stops the background sweep and clears the store. It is safe to call more
// than once.
func (s *Store[T]) Dispose() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
	s.Clear()
}
