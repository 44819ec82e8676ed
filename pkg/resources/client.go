/*
Package resources binds a Gateway to the cache and retry layers: reads are retried
and cached under `kind:namespace:name` keys, writes are retried and invalidate every
cached entry of the mutated kind and namespace.
*/
package resources

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"

	"github.com/argoproj-labs/resourcelens/pkg/cache"
	"github.com/argoproj-labs/resourcelens/pkg/retry"
)

// Client serves reads of one resource domain from its own caches.
type Client[T any] struct {
	name    string
	gateway Gateway[T]
	items   *cache.Store[T]
	lists   *cache.Store[[]T]
	retry   retry.Options
	log     logr.Logger
}

func NewClient[T any](name string, gateway Gateway[T], config Config, log logr.Logger) *Client[T] {
	log = log.WithValues("client", name)
	return &Client[T]{
		name:    name,
		gateway: gateway,
		items:   cache.NewStore[T](config.storeOptions(name+"-items", log)...),
		lists:   cache.NewStore[[]T](config.storeOptions(name+"-lists", log)...),
		retry:   config.Retry,
		log:     log,
	}
}

func (c *Client[T]) Name() string {
	return c.name
}

func (c *Client[T]) retryOptions(operation string) retry.Options {
	return c.retry.WithOnRetry(retry.LogRetries(c.log, operation))
}

// Get returns the resource from the cache or fetches it.
func (c *Client[T]) Get(ctx context.Context, kind, name, namespace string) (T, error) {
	key := ObjectKey(kind, namespace, name)
	res, err := c.items.GetOrComputeContext(ctx, key, func(ctx context.Context) (T, error) {
		return retry.Do(ctx, func(ctx context.Context) (T, error) {
			return c.gateway.FetchOne(ctx, kind, name, namespace)
		}, c.retryOptions("get "+key))
	})
	if err != nil {
		return res, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return res, nil
}

// List returns the resources of kind in namespace, or in all namespaces when
// namespace is empty. The returned slice is shared with the cache and must not be
// modified.
func (c *Client[T]) List(ctx context.Context, kind, namespace string) ([]T, error) {
	key := ListKey(kind, namespace)
	res, err := c.lists.GetOrComputeContext(ctx, key, func(ctx context.Context) ([]T, error) {
		return retry.Do(ctx, func(ctx context.Context) ([]T, error) {
			return c.gateway.FetchList(ctx, kind, namespace)
		}, c.retryOptions("list "+key))
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", key, err)
	}
	return res, nil
}

// Mutate applies mutation and, once it succeeded, drops the cached entries of kind in
// namespace as well as the cluster-wide ones.
func (c *Client[T]) Mutate(ctx context.Context, kind, name, namespace string, mutation Mutation) error {
	key := ObjectKey(kind, namespace, name)
	err := retry.DoErr(ctx, func(ctx context.Context) error {
		return c.gateway.Mutate(ctx, kind, name, namespace, mutation)
	}, c.retryOptions(string(mutation.Type)+" "+key))
	if err != nil {
		return fmt.Errorf("failed to %s %s: %w", mutation.Type, key, err)
	}
	removed := c.Invalidate(kind, namespace)
	c.log.V(1).Info("Mutated resource", "key", key, "type", mutation.Type, "invalidated", removed)
	return nil
}

// Invalidate drops the cached entries of kind in namespace and the cluster-wide
// entries of kind. It returns the number of removed entries.
func (c *Client[T]) Invalidate(kind, namespace string) int {
	removed := 0
	patterns := []string{NamespacePattern(kind, namespace)}
	if namespace != "" {
		patterns = append(patterns, NamespacePattern(kind, ""))
	}
	for _, pattern := range patterns {
		removed += c.items.InvalidatePattern(pattern)
		removed += c.lists.InvalidatePattern(pattern)
	}
	return removed
}

// ClientStats holds the statistics of the item and list caches.
type ClientStats struct {
	Items cache.Stats
	Lists cache.Stats
}

func (c *Client[T]) Stats() ClientStats {
	return ClientStats{Items: c.items.Stats(), Lists: c.lists.Stats()}
}

// Dispose stops the cache sweeps and drops all cached entries.
func (c *Client[T]) Dispose() {
	c.items.Dispose()
	c.lists.Dispose()
}
