package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	testingclock "k8s.io/utils/clock/testing"
)

func newTestStore[T any](t *testing.T, opts ...Option) (*Store[T], *testingclock.FakeClock) {
	t.Helper()
	fakeClock := testingclock.NewFakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	opts = append([]Option{WithClock(fakeClock), WithCleanupInterval(0)}, opts...)
	s := NewStore[T](opts...)
	t.Cleanup(s.Dispose)
	return s, fakeClock
}

func TestStore_GetMissHitExpire(t *testing.T) {
	s, fakeClock := newTestStore[string](t, WithDefaultTTL(time.Second))

	_, ok := s.Get("never-set")
	assert.False(t, ok)
	assert.Equal(t, Stats{Misses: 1}, s.Stats())

	s.Set("pods:ns:web", "v1")
	v, ok := s.Get("pods:ns:web")
	require.True(t, ok)
	assert.Equal(t, "v1", v)
	assert.Equal(t, Stats{Hits: 1, Misses: 1, Size: 1}, s.Stats())

	// still visible exactly at the expiry instant
	fakeClock.Step(time.Second)
	_, ok = s.Get("pods:ns:web")
	assert.True(t, ok)

	fakeClock.Step(time.Millisecond)
	_, ok = s.Get("pods:ns:web")
	assert.False(t, ok)
	assert.Equal(t, Stats{Hits: 2, Misses: 2, Size: 0}, s.Stats())
}

func TestStore_ListSnapshotExpires(t *testing.T) {
	s, fakeClock := newTestStore[[]string](t, WithDefaultTTL(1000*time.Millisecond))

	s.Set("pods:ns:all", []string{"p1", "p2"})
	v, ok := s.Get("pods:ns:all")
	require.True(t, ok)
	assert.Equal(t, []string{"p1", "p2"}, v)

	fakeClock.Step(1100 * time.Millisecond)
	_, ok = s.Get("pods:ns:all")
	assert.False(t, ok)
	assert.Equal(t, 0, s.Len())
}

func TestStore_SetWithTTL(t *testing.T) {
	s, fakeClock := newTestStore[int](t, WithDefaultTTL(time.Hour))

	s.SetWithTTL("short", 1, time.Second)
	s.SetWithTTL("default", 2, 0)

	fakeClock.Step(2 * time.Second)
	assert.False(t, s.Has("short"))
	assert.True(t, s.Has("default"))
}

func TestStore_HasDoesNotCount(t *testing.T) {
	s, fakeClock := newTestStore[int](t, WithDefaultTTL(time.Second))

	s.Set("a", 1)
	assert.True(t, s.Has("a"))
	assert.False(t, s.Has("b"))
	fakeClock.Step(2 * time.Second)
	assert.False(t, s.Has("a"))

	assert.Equal(t, Stats{}, s.Stats())
}

func TestStore_FIFOEviction(t *testing.T) {
	const maxSize = 3
	s, _ := newTestStore[int](t, WithMaxSize(maxSize))

	for i := 0; i < maxSize; i++ {
		s.Set(fmt.Sprintf("key-%d", i), i)
	}
	// reading the oldest entry must not protect it: eviction is by insertion order
	_, ok := s.Get("key-0")
	require.True(t, ok)

	s.Set("key-3", 3)

	assert.Equal(t, maxSize, s.Len())
	assert.False(t, s.Has("key-0"))
	assert.Equal(t, []string{"key-1", "key-2", "key-3"}, s.Keys())
	assert.Equal(t, int64(1), s.Stats().Evictions)
}

func TestStore_OverwriteKeepsPosition(t *testing.T) {
	s, _ := newTestStore[int](t, WithMaxSize(2))

	s.Set("a", 1)
	s.Set("b", 2)
	s.Set("a", 10)

	assert.Equal(t, []string{"a", "b"}, s.Keys())
	assert.Equal(t, int64(0), s.Stats().Evictions)
	v, _ := s.Get("a")
	assert.Equal(t, 10, v)

	s.Set("c", 3)
	assert.Equal(t, []string{"b", "c"}, s.Keys())
}

func TestStore_Unbounded(t *testing.T) {
	s, _ := newTestStore[int](t, WithMaxSize(0))
	for i := 0; i < 50; i++ {
		s.Set(fmt.Sprintf("key-%d", i), i)
	}
	assert.Equal(t, 50, s.Len())
}

func TestStore_Delete(t *testing.T) {
	s, _ := newTestStore[int](t)
	s.Set("a", 1)
	assert.True(t, s.Delete("a"))
	assert.False(t, s.Delete("a"))
	assert.False(t, s.Has("a"))
}

func TestStore_InvalidatePattern(t *testing.T) {
	s, _ := newTestStore[string](t)
	keys := []string{
		"pods:ns1:web",
		"pods:ns1:db",
		"pods:ns1:",
		"pods:ns10:web",
		"pods:all:",
		"services:ns1:web",
		"xpods:ns1:web",
	}
	for _, k := range keys {
		s.Set(k, k)
	}

	removed := s.InvalidatePattern("pods:ns1:*")

	assert.Equal(t, 3, removed)
	assert.Equal(t, []string{"pods:ns10:web", "pods:all:", "services:ns1:web", "xpods:ns1:web"}, s.Keys())
	assert.Equal(t, 0, s.InvalidatePattern("deployments:*"))
}

func TestStore_GetOrCompute(t *testing.T) {
	s, _ := newTestStore[string](t)
	calls := 0
	compute := func() (string, error) {
		calls++
		return "value", nil
	}

	v, err := s.GetOrCompute("k", compute)
	require.NoError(t, err)
	assert.Equal(t, "value", v)

	v, err = s.GetOrCompute("k", compute)
	require.NoError(t, err)
	assert.Equal(t, "value", v)
	assert.Equal(t, 1, calls)
	assert.Equal(t, Stats{Hits: 1, Misses: 1, Size: 1}, s.Stats())
}

func TestStore_GetOrComputeErrorNotCached(t *testing.T) {
	s, _ := newTestStore[string](t)
	boom := errors.New("boom")

	_, err := s.GetOrCompute("k", func() (string, error) {
		return "", boom
	})
	require.ErrorIs(t, err, boom)
	assert.False(t, s.Has("k"))

	v, err := s.GetOrCompute("k", func() (string, error) {
		return "recovered", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "recovered", v)
}

func TestStore_GetOrComputeWithTTL(t *testing.T) {
	s, fakeClock := newTestStore[int](t, WithDefaultTTL(time.Hour))

	_, err := s.GetOrComputeWithTTL("k", func() (int, error) { return 1, nil }, time.Second)
	require.NoError(t, err)
	fakeClock.Step(2 * time.Second)
	assert.False(t, s.Has("k"))
}

func TestStore_GetOrComputeConcurrentMissesComputeEach(t *testing.T) {
	s, _ := newTestStore[int](t)
	var calls atomic.Int32
	var started sync.WaitGroup
	started.Add(2)
	compute := func() (int, error) {
		calls.Add(1)
		started.Done()
		// both callers are inside compute before either stores a value
		started.Wait()
		return 42, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := s.GetOrCompute("k", compute)
			assert.NoError(t, err)
			assert.Equal(t, 42, v)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(2), calls.Load())
}

func TestStore_GetOrComputeSingleflight(t *testing.T) {
	s, _ := newTestStore[int](t, WithSingleflight())
	var calls atomic.Int32
	entered := make(chan struct{})
	release := make(chan struct{})
	compute := func() (int, error) {
		if calls.Add(1) == 1 {
			close(entered)
		}
		<-release
		return 42, nil
	}

	var wg sync.WaitGroup
	results := make([]int, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i > 0 {
				<-entered
			}
			v, err := s.GetOrCompute("k", compute)
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}
	<-entered
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, []int{42, 42, 42, 42, 42}, results)
}

func TestStore_SingleflightErrorNotCached(t *testing.T) {
	s, _ := newTestStore[int](t, WithSingleflight())
	boom := errors.New("boom")
	_, err := s.GetOrCompute("k", func() (int, error) { return 0, boom })
	require.ErrorIs(t, err, boom)
	assert.False(t, s.Has("k"))
}

type ctxKey struct{}

func TestStore_GetOrComputeContext(t *testing.T) {
	s, _ := newTestStore[string](t)
	ctx := context.WithValue(context.Background(), ctxKey{}, "tenant-a")

	v, err := s.GetOrComputeContext(ctx, "k", func(ctx context.Context) (string, error) {
		return ctx.Value(ctxKey{}).(string), nil
	})
	require.NoError(t, err)
	assert.Equal(t, "tenant-a", v)

	v, err = s.GetOrComputeContext(ctx, "k", func(context.Context) (string, error) {
		return "", errors.New("must not be called")
	})
	require.NoError(t, err)
	assert.Equal(t, "tenant-a", v)

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.GetOrComputeContext(cancelled, "other", func(ctx context.Context) (string, error) {
		return "", ctx.Err()
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, s.Has("other"))
}

func TestStore_GetOrComputeContextSingleflightCallerCancel(t *testing.T) {
	s, _ := newTestStore[int](t, WithSingleflight())
	var calls atomic.Int32
	entered := make(chan struct{})
	release := make(chan struct{})
	computeErr := make(chan error, 1)
	compute := func(ctx context.Context) (int, error) {
		calls.Add(1)
		close(entered)
		<-release
		computeErr <- ctx.Err()
		return 42, nil
	}

	leaderCtx, cancelLeader := context.WithCancel(context.Background())
	leader := make(chan error, 1)
	go func() {
		_, err := s.GetOrComputeContext(leaderCtx, "k", compute)
		leader <- err
	}()
	<-entered

	type result struct {
		v   int
		err error
	}
	follower := make(chan result, 1)
	go func() {
		v, err := s.GetOrComputeContext(context.Background(), "k", compute)
		follower <- result{v, err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancelLeader()
	require.ErrorIs(t, <-leader, context.Canceled)

	close(release)
	res := <-follower
	require.NoError(t, res.err)
	assert.Equal(t, 42, res.v)
	assert.NoError(t, <-computeErr, "the shared computation is not cancelled with its first caller")
	assert.Equal(t, int32(1), calls.Load())
	assert.True(t, s.Has("k"))
}

func TestStore_Cleanup(t *testing.T) {
	s, fakeClock := newTestStore[int](t, WithDefaultTTL(time.Minute))
	s.SetWithTTL("short-1", 1, time.Second)
	s.SetWithTTL("short-2", 2, time.Second)
	s.Set("long", 3)

	fakeClock.Step(2 * time.Second)
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, 2, s.Cleanup())
	assert.Equal(t, []string{"long"}, s.Keys())
	assert.Equal(t, 0, s.Cleanup())
}

func TestStore_BackgroundSweep(t *testing.T) {
	fakeClock := testingclock.NewFakeClock(time.Now())
	s := NewStore[int](WithClock(fakeClock), WithCleanupInterval(time.Minute), WithDefaultTTL(time.Second))
	defer s.Dispose()

	s.Set("a", 1)
	fakeClock.Step(time.Minute)

	assert.Eventually(t, func() bool {
		return s.Len() == 0
	}, 5*time.Second, 10*time.Millisecond)
}

func TestStore_KeysSkipsExpired(t *testing.T) {
	s, fakeClock := newTestStore[int](t, WithDefaultTTL(time.Minute))
	s.SetWithTTL("a", 1, time.Second)
	s.Set("b", 2)
	fakeClock.Step(2 * time.Second)
	assert.Equal(t, []string{"b"}, s.Keys())
}

func TestStore_StatsAndReset(t *testing.T) {
	s, _ := newTestStore[int](t)
	assert.Zero(t, s.Stats().HitRate())

	s.Set("a", 1)
	s.Get("a")
	s.Get("a")
	s.Get("a")
	s.Get("b")

	stats := s.Stats()
	assert.InDelta(t, 0.75, stats.HitRate(), 0.0001)

	s.ResetStats()
	assert.Equal(t, Stats{Size: 1}, s.Stats())
}

func TestStore_DisposeClearsAndIsIdempotent(t *testing.T) {
	s := NewStore[int](WithCleanupInterval(time.Millisecond), WithName("workloads"))
	s.Set("a", 1)
	s.Dispose()
	s.Dispose()

	assert.Equal(t, 0, s.Len())
	assert.Equal(t, "workloads", s.Name())
}

func TestStore_Clear(t *testing.T) {
	s, _ := newTestStore[int](t)
	s.Set("a", 1)
	s.Get("a")
	s.Clear()
	assert.Equal(t, Stats{Hits: 1}, s.Stats())
	assert.Empty(t, s.Keys())
}
