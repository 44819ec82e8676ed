package kube

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-logr/logr"
	gocache "github.com/patrickmn/go-cache"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/discovery"
)

const (
	// DefaultDiscoveryCacheTTL is how long discovered API resources are reused
	DefaultDiscoveryCacheTTL = 10 * time.Minute

	apiResourcesCacheKey = "apiresources"
)

// ResourceInfo describes how to reach a kind through the dynamic client.
type ResourceInfo struct {
	GroupVersionResource schema.GroupVersionResource
	Kind                 string
	SingularName         string
	ShortNames           []string
	Namespaced           bool
}

func (r ResourceInfo) names() []string {
	names := []string{r.Kind, r.GroupVersionResource.Resource, r.SingularName}
	return append(names, r.ShortNames...)
}

// Resolver maps a kind, given as Kind, plural or singular resource name or short name
// in any case, to its API resource.
type Resolver interface {
	Resolve(ctx context.Context, kind string) (ResourceInfo, error)
}

type resourceIndex map[string]ResourceInfo

// newResourceIndex indexes infos by their lower-cased names. On conflicts the first
// info wins.
func newResourceIndex(infos []ResourceInfo) resourceIndex {
	index := make(resourceIndex)
	for _, info := range infos {
		for _, name := range info.names() {
			name = strings.ToLower(name)
			if _, ok := index[name]; name != "" && !ok {
				index[name] = info
			}
		}
	}
	return index
}

func (i resourceIndex) lookup(kind string) (ResourceInfo, bool) {
	info, ok := i[strings.ToLower(kind)]
	return info, ok
}

func unknownKindError(kind string) error {
	return fmt.Errorf("server is unable to handle kind %q", kind)
}

// StaticResolver resolves kinds from a fixed list of resources.
type StaticResolver struct {
	index resourceIndex
}

func NewStaticResolver(infos ...ResourceInfo) *StaticResolver {
	return &StaticResolver{index: newResourceIndex(infos)}
}

func (r *StaticResolver) Resolve(_ context.Context, kind string) (ResourceInfo, error) {
	if info, ok := r.index.lookup(kind); ok {
		return info, nil
	}
	return ResourceInfo{}, unknownKindError(kind)
}

// DiscoveryResolver resolves kinds using the discovery API. Discovered resources are
// kept for a TTL; preferred group versions take precedence.
type DiscoveryResolver struct {
	disco discovery.DiscoveryInterface
	cache *gocache.Cache
	log   logr.Logger
}

func NewDiscoveryResolver(disco discovery.DiscoveryInterface, ttl time.Duration, log logr.Logger) *DiscoveryResolver {
	if ttl <= 0 {
		ttl = DefaultDiscoveryCacheTTL
	}
	return &DiscoveryResolver{
		disco: disco,
		cache: gocache.New(ttl, ttl),
		log:   log,
	}
}

func (r *DiscoveryResolver) Resolve(_ context.Context, kind string) (ResourceInfo, error) {
	index, err := r.resources()
	if err != nil {
		return ResourceInfo{}, err
	}
	if info, ok := index.lookup(kind); ok {
		return info, nil
	}
	return ResourceInfo{}, unknownKindError(kind)
}

// Invalidate forgets the discovered resources, e.g. after CRDs were installed.
func (r *DiscoveryResolver) Invalidate() {
	r.cache.Delete(apiResourcesCacheKey)
}

func (r *DiscoveryResolver) resources() (resourceIndex, error) {
	if cached, ok := r.cache.Get(apiResourcesCacheKey); ok {
		return cached.(resourceIndex), nil
	}
	r.log.V(1).Info("Discovering API resources")
	groups, lists, err := r.disco.ServerGroupsAndResources()
	if err != nil {
		if len(lists) == 0 {
			return nil, fmt.Errorf("failed to discover API resources: %w", err)
		}
		r.log.Info("Partial success when performing resource discovery", "error", err.Error())
	}
	index := newResourceIndex(toResourceInfos(groups, lists))
	r.cache.SetDefault(apiResourcesCacheKey, index)
	return index, nil
}

// toResourceInfos flattens discovered lists, preferred group versions first.
// Subresources are skipped.
func toResourceInfos(groups []*metav1.APIGroup, lists []*metav1.APIResourceList) []ResourceInfo {
	preferred := make(map[string]bool, len(groups))
	for _, g := range groups {
		if g != nil {
			preferred[g.PreferredVersion.GroupVersion] = true
		}
	}
	var first, rest []ResourceInfo
	for _, list := range lists {
		if list == nil {
			continue
		}
		gv, err := schema.ParseGroupVersion(list.GroupVersion)
		if err != nil {
			continue
		}
		for _, res := range list.APIResources {
			if strings.Contains(res.Name, "/") {
				continue
			}
			info := ResourceInfo{
				GroupVersionResource: gv.WithResource(res.Name),
				Kind:                 res.Kind,
				SingularName:         res.SingularName,
				ShortNames:           res.ShortNames,
				Namespaced:           res.Namespaced,
			}
			if preferred[list.GroupVersion] {
				first = append(first, info)
			} else {
				rest = append(rest, info)
			}
		}
	}
	return append(first, rest...)
}
