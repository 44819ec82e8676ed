package resources

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/go-logr/logr"
)

// Domain groups resource kinds served by the same Client.
type Domain string

const (
	DomainWorkloads Domain = "workloads"
	DomainNetwork   Domain = "network"
	DomainStorage   Domain = "storage"
	DomainRBAC      Domain = "rbac"
	DomainConfig    Domain = "config"
	DomainOther     Domain = "other"
)

var domainKinds = map[Domain][]string{
	DomainWorkloads: {"pod", "deployment", "replicaset", "statefulset", "daemonset", "job", "cronjob", "replicationcontroller", "horizontalpodautoscaler", "poddisruptionbudget"},
	DomainNetwork:   {"service", "ingress", "ingressclass", "networkpolicy", "endpoints", "endpointslice"},
	DomainStorage:   {"persistentvolume", "persistentvolumeclaim", "storageclass", "volumeattachment", "csidriver"},
	DomainRBAC:      {"serviceaccount", "role", "rolebinding", "clusterrole", "clusterrolebinding"},
	DomainConfig:    {"configmap", "secret", "namespace", "resourcequota", "limitrange", "customresourcedefinition"},
}

var kindDomains = func() map[string]Domain {
	m := make(map[string]Domain)
	for domain, kinds := range domainKinds {
		for _, kind := range kinds {
			m[kind] = domain
		}
	}
	return m
}()

// DomainForKind returns the domain of kind, which may be given as Kind, singular or
// plural resource name in any case. Unknown kinds belong to DomainOther.
func DomainForKind(kind string) Domain {
	if d, ok := kindDomains[CanonicalKind(kind)]; ok {
		return d
	}
	return DomainOther
}

// CanonicalKind folds the Kind, singular and plural spellings of a kind into one
// lower-cased singular name, so that `Deployment` and `deployments` share cache keys.
// Short names such as `deploy` are kept as given.
func CanonicalKind(kind string) string {
	k := strings.ToLower(kind)
	if _, ok := kindDomains[k]; ok {
		return k
	}
	for _, singular := range singularForms(k) {
		if _, ok := kindDomains[singular]; ok {
			return singular
		}
	}
	// kinds outside the table, mostly custom resources, are pluralised with a plain "s"
	if base, ok := strings.CutSuffix(k, "s"); ok && base != "" && !strings.HasSuffix(base, "s") {
		return base
	}
	return k
}

// singularForms lists the candidate singulars of a plural resource name, most
// specific suffix first.
func singularForms(k string) []string {
	var res []string
	if base, ok := strings.CutSuffix(k, "ies"); ok && base != "" {
		res = append(res, base+"y")
	}
	if base, ok := strings.CutSuffix(k, "es"); ok && base != "" {
		res = append(res, base)
	}
	if base, ok := strings.CutSuffix(k, "s"); ok && base != "" {
		res = append(res, base)
	}
	return res
}

// Manager routes requests to one Client per Domain, created on first use. All
// clients share the Manager's gateway, which can be swapped when the remote context
// changes.
type Manager[T any] struct {
	name   string
	config Config
	log    logr.Logger

	lock    sync.Mutex
	gateway Gateway[T]
	clients map[Domain]*Client[T]
}

func NewManager[T any](name string, gateway Gateway[T], config Config, log logr.Logger) *Manager[T] {
	return &Manager[T]{
		name:    name,
		config:  config,
		log:     log.WithValues("manager", name),
		gateway: gateway,
		clients: make(map[Domain]*Client[T]),
	}
}

// Name labels the remote context the manager reads from.
func (m *Manager[T]) Name() string {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.name
}

// Client returns the client of domain.
func (m *Manager[T]) Client(domain Domain) *Client[T] {
	m.lock.Lock()
	defer m.lock.Unlock()
	c, ok := m.clients[domain]
	if !ok {
		c = NewClient(string(domain), m.gateway, m.config, m.log)
		m.clients[domain] = c
	}
	return c
}

func (m *Manager[T]) clientForKind(kind string) *Client[T] {
	return m.Client(DomainForKind(kind))
}

func (m *Manager[T]) Get(ctx context.Context, kind, name, namespace string) (T, error) {
	return m.clientForKind(kind).Get(ctx, kind, name, namespace)
}

func (m *Manager[T]) List(ctx context.Context, kind, namespace string) ([]T, error) {
	return m.clientForKind(kind).List(ctx, kind, namespace)
}

func (m *Manager[T]) Mutate(ctx context.Context, kind, name, namespace string, mutation Mutation) error {
	return m.clientForKind(kind).Mutate(ctx, kind, name, namespace, mutation)
}

// Stats returns the cache statistics of every client created so far.
func (m *Manager[T]) Stats() map[Domain]ClientStats {
	m.lock.Lock()
	defer m.lock.Unlock()
	stats := make(map[Domain]ClientStats, len(m.clients))
	for domain, c := range m.clients {
		stats[domain] = c.Stats()
	}
	return stats
}

// Domains returns the domains with a client, sorted.
func (m *Manager[T]) Domains() []Domain {
	m.lock.Lock()
	defer m.lock.Unlock()
	domains := make([]Domain, 0, len(m.clients))
	for domain := range m.clients {
		domains = append(domains, domain)
	}
	sort.Slice(domains, func(i, j int) bool { return domains[i] < domains[j] })
	return domains
}

// SwitchGateway disposes every client, so that no entry read from the previous
// context is served again, and uses gateway from now on.
func (m *Manager[T]) SwitchGateway(name string, gateway Gateway[T]) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.disposeClients()
	m.log.Info("Switched context", "from", m.name, "to", name)
	m.name = name
	m.gateway = gateway
}

// Dispose releases every client. The manager can still be used afterwards; clients
// are created again on demand.
func (m *Manager[T]) Dispose() {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.disposeClients()
}

func (m *Manager[T]) disposeClients() {
	for domain, c := range m.clients {
		c.Dispose()
		delete(m.clients, domain)
	}
}
