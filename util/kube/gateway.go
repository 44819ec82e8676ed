// Package kube provides the Kubernetes implementation of the resource gateway.
package kube

import (
	"context"
	"fmt"
	"time"

	"github.com/go-logr/logr"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/client-go/discovery"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/rest"
	"k8s.io/utils/ptr"

	"github.com/argoproj-labs/resourcelens/common"
	"github.com/argoproj-labs/resourcelens/pkg/resources"
)

// Gateway reads and writes resources through the dynamic client.
type Gateway struct {
	dynamicIf dynamic.Interface
	resolver  Resolver
	log       logr.Logger
}

var _ resources.Gateway[*unstructured.Unstructured] = &Gateway{}

func NewGateway(dynamicIf dynamic.Interface, resolver Resolver, log logr.Logger) *Gateway {
	return &Gateway{dynamicIf: dynamicIf, resolver: resolver, log: log}
}

// NewGatewayForConfig creates a gateway resolving kinds through discovery.
func NewGatewayForConfig(config *rest.Config, discoveryTTL time.Duration, log logr.Logger) (*Gateway, error) {
	dynamicIf, err := dynamic.NewForConfig(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create dynamic client: %w", err)
	}
	disco, err := discovery.NewDiscoveryClientForConfig(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create discovery client: %w", err)
	}
	return NewGateway(dynamicIf, NewDiscoveryResolver(disco, discoveryTTL, log), log), nil
}

func (g *Gateway) resourceInterface(ctx context.Context, kind, namespace string) (dynamic.ResourceInterface, error) {
	info, err := g.resolver.Resolve(ctx, kind)
	if err != nil {
		return nil, err
	}
	resIf := g.dynamicIf.Resource(info.GroupVersionResource)
	if info.Namespaced {
		return resIf.Namespace(namespace), nil
	}
	return resIf, nil
}

// FetchList lists kind in namespace, or in all namespaces when namespace is empty.
func (g *Gateway) FetchList(ctx context.Context, kind, namespace string) ([]*unstructured.Unstructured, error) {
	resIf, err := g.resourceInterface(ctx, kind, namespace)
	if err != nil {
		return nil, err
	}
	list, err := resIf.List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, err
	}
	items := make([]*unstructured.Unstructured, len(list.Items))
	for i := range list.Items {
		items[i] = &list.Items[i]
	}
	g.log.V(1).Info("Listed resources", "kind", kind, "namespace", namespace, "count", len(items))
	return items, nil
}

func (g *Gateway) FetchOne(ctx context.Context, kind, name, namespace string) (*unstructured.Unstructured, error) {
	resIf, err := g.resourceInterface(ctx, kind, namespace)
	if err != nil {
		return nil, err
	}
	return resIf.Get(ctx, name, metav1.GetOptions{})
}

// Mutate deletes, patches or server-side applies a resource. Apply forces
// ownership of conflicting fields.
func (g *Gateway) Mutate(ctx context.Context, kind, name, namespace string, mutation resources.Mutation) error {
	resIf, err := g.resourceInterface(ctx, kind, namespace)
	if err != nil {
		return err
	}
	fieldManager := mutation.FieldManager
	if fieldManager == "" {
		fieldManager = common.FieldManager
	}
	switch mutation.Type {
	case resources.MutationDelete:
		return resIf.Delete(ctx, name, metav1.DeleteOptions{})
	case resources.MutationPatch:
		if mutation.PatchType == "" {
			return fmt.Errorf("patch of %s %s requires a patch type", kind, name)
		}
		_, err = resIf.Patch(ctx, name, mutation.PatchType, mutation.Data, metav1.PatchOptions{FieldManager: fieldManager})
		return err
	case resources.MutationApply:
		_, err = resIf.Patch(ctx, name, types.ApplyPatchType, mutation.Data, metav1.PatchOptions{
			FieldManager: fieldManager,
			Force:        ptr.To(true),
		})
		return err
	}
	return fmt.Errorf("unsupported mutation %q", mutation.Type)
}
