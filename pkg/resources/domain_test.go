package resources

import (
	"context"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	testingclock "k8s.io/utils/clock/testing"
)

func TestDomainForKind(t *testing.T) {
	tests := map[string]Domain{
		"Pod":                      DomainWorkloads,
		"pods":                     DomainWorkloads,
		"Deployment":               DomainWorkloads,
		"cronjobs":                 DomainWorkloads,
		"Service":                  DomainNetwork,
		"services":                 DomainNetwork,
		"ingresses":                DomainNetwork,
		"NetworkPolicy":            DomainNetwork,
		"networkpolicies":          DomainNetwork,
		"Endpoints":                DomainNetwork,
		"PersistentVolumeClaim":    DomainStorage,
		"storageclasses":           DomainStorage,
		"ClusterRoleBinding":       DomainRBAC,
		"serviceaccounts":          DomainRBAC,
		"ConfigMap":                DomainConfig,
		"secrets":                  DomainConfig,
		"CustomResourceDefinition": DomainConfig,
		"Application":              DomainOther,
		"":                         DomainOther,
	}
	for kind, expected := range tests {
		assert.Equal(t, expected, DomainForKind(kind), kind)
	}
}

func newTestManager(t *testing.T, name string, gateway Gateway[*unstructured.Unstructured]) *Manager[*unstructured.Unstructured] {
	m := NewManager(name, gateway, testConfig(testingclock.NewFakeClock(time.Now())), logr.Discard())
	t.Cleanup(m.Dispose)
	return m
}

func TestManager_RoutesByDomain(t *testing.T) {
	gw := newFakeGateway(
		newObj("Pod", "default", "web", nil),
		newObj("Service", "default", "web", nil),
	)
	m := newTestManager(t, "kind-dev", gw)
	ctx := context.Background()

	_, err := m.Get(ctx, "Pod", "web", "default")
	require.NoError(t, err)
	_, err = m.Get(ctx, "Service", "web", "default")
	require.NoError(t, err)
	_, err = m.List(ctx, "Pod", "default")
	require.NoError(t, err)

	assert.Equal(t, []Domain{DomainNetwork, DomainWorkloads}, m.Domains())
	assert.Same(t, m.Client(DomainWorkloads), m.Client(DomainWorkloads))
	stats := m.Stats()
	assert.Equal(t, 1, stats[DomainWorkloads].Items.Size)
	assert.Equal(t, 1, stats[DomainWorkloads].Lists.Size)
	assert.Equal(t, 1, stats[DomainNetwork].Items.Size)

	require.NoError(t, m.Mutate(ctx, "Pod", "web", "default", Mutation{Type: MutationApply, Data: []byte(`{}`)}))
	stats = m.Stats()
	assert.Equal(t, 0, stats[DomainWorkloads].Items.Size)
	assert.Equal(t, 1, stats[DomainNetwork].Items.Size)
}

func TestManager_SwitchGateway(t *testing.T) {
	dev := newFakeGateway(newObj("Pod", "default", "web", map[string]any{"image": "nginx:1.25"}))
	prod := newFakeGateway(newObj("Pod", "default", "web", map[string]any{"image": "nginx:1.27"}))
	m := newTestManager(t, "dev", dev)
	ctx := context.Background()

	pod, err := m.Get(ctx, "Pod", "web", "default")
	require.NoError(t, err)
	assert.Equal(t, "nginx:1.25", pod.Object["spec"].(map[string]any)["image"])
	old := m.Client(DomainWorkloads)

	m.SwitchGateway("prod", prod)

	assert.Equal(t, "prod", m.Name())
	assert.Equal(t, 0, old.Stats().Items.Size)
	assert.Empty(t, m.Domains())
	pod, err = m.Get(ctx, "Pod", "web", "default")
	require.NoError(t, err)
	assert.Equal(t, "nginx:1.27", pod.Object["spec"].(map[string]any)["image"])
}
