package resources

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"

	"github.com/argoproj-labs/resourcelens/pkg/diff"
)

// Ref identifies a single resource.
type Ref struct {
	Kind      string
	Name      string
	Namespace string
}

func (r Ref) String() string {
	if r.Namespace == "" {
		return r.Kind + "/" + r.Name
	}
	return r.Kind + "/" + r.Namespace + "/" + r.Name
}

// NamedComparison is the comparison of the resources named Name on both sides.
type NamedComparison struct {
	Name   string
	Result *diff.ComparisonResult
}

// Compare fetches lref through left and rref through right concurrently and diffs
// the cleaned snapshots. A resource missing on one side is compared as absent; an
// error is returned when both are missing.
func Compare[T any](ctx context.Context, left, right *Manager[T], lref, rref Ref, opts ...diff.Option) (*diff.ComparisonResult, error) {
	var leftObj, rightObj map[string]any
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		leftObj, err = fetchObject(ctx, left, lref)
		return err
	})
	g.Go(func() error {
		var err error
		rightObj, err = fetchObject(ctx, right, rref)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if leftObj == nil && rightObj == nil {
		return nil, fmt.Errorf("neither %s nor %s exist", lref, rref)
	}
	return diff.NewEngine(opts...).Compare(leftObj, rightObj, label(left, lref), label(right, rref)), nil
}

// CompareNamespaces lists kind in leftNamespace through left and in rightNamespace
// through right, pairs the resources by name and compares every pair. Resources
// present on a single side are reported as a whole removal or addition. Results are
// sorted by name.
//
// Two empty namespaces compare all namespaces; resources are then paired and named
// by `namespace/name`. An empty namespace on a single side is rejected.
func CompareNamespaces[T any](ctx context.Context, left, right *Manager[T], kind, leftNamespace, rightNamespace string, opts ...diff.Option) ([]NamedComparison, error) {
	if (leftNamespace == "") != (rightNamespace == "") {
		return nil, fmt.Errorf("cannot pair %s of all namespaces with %s of namespace %q", kind, kind, leftNamespace+rightNamespace)
	}
	var leftObjs, rightObjs map[string]map[string]any
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		leftObjs, err = listObjects(ctx, left, kind, leftNamespace)
		return err
	})
	g.Go(func() error {
		var err error
		rightObjs, err = listObjects(ctx, right, kind, rightNamespace)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(leftObjs)+len(rightObjs))
	for name := range leftObjs {
		names = append(names, name)
	}
	for name := range rightObjs {
		if _, ok := leftObjs[name]; !ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	engine := diff.NewEngine(opts...)
	res := make([]NamedComparison, 0, len(names))
	for _, name := range names {
		lref := Ref{Kind: kind, Name: name, Namespace: leftNamespace}
		rref := Ref{Kind: kind, Name: name, Namespace: rightNamespace}
		if ns, n, ok := strings.Cut(name, "/"); ok && leftNamespace == "" {
			lref.Namespace, lref.Name = ns, n
			rref.Namespace, rref.Name = ns, n
		}
		res = append(res, NamedComparison{
			Name:   name,
			Result: engine.Compare(leftObjs[name], rightObjs[name], label(left, lref), label(right, rref)),
		})
	}
	return res, nil
}

func label[T any](m *Manager[T], ref Ref) string {
	if name := m.Name(); name != "" {
		return name + ":" + ref.String()
	}
	return ref.String()
}

func fetchObject[T any](ctx context.Context, m *Manager[T], ref Ref) (map[string]any, error) {
	res, err := m.Get(ctx, ref.Kind, ref.Name, ref.Namespace)
	if apierrors.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return ToObject(res)
}

func listObjects[T any](ctx context.Context, m *Manager[T], kind, namespace string) (map[string]map[string]any, error) {
	items, err := m.List(ctx, kind, namespace)
	if err != nil {
		return nil, err
	}
	objs := make(map[string]map[string]any, len(items))
	for _, item := range items {
		obj, err := ToObject(item)
		if err != nil {
			return nil, err
		}
		name, _, err := unstructured.NestedString(obj, "metadata", "name")
		if err != nil || name == "" {
			return nil, fmt.Errorf("%s in %q has no name", kind, namespaceOrAll(namespace))
		}
		if namespace == "" {
			// same names live in several namespaces, and cluster scoped kinds have none
			if ns, _, _ := unstructured.NestedString(obj, "metadata", "namespace"); ns != "" {
				name = ns + "/" + name
			}
		}
		objs[name] = obj
	}
	return objs, nil
}

// ToObject turns a resource snapshot into the JSON-like map the diff engine walks.
// The returned map may share memory with v.
func ToObject(v any) (map[string]any, error) {
	switch obj := v.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		return obj, nil
	case *unstructured.Unstructured:
		if obj == nil {
			return nil, nil
		}
		return obj.Object, nil
	case runtime.Unstructured:
		return obj.UnstructuredContent(), nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %T: %w", v, err)
	}
	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, fmt.Errorf("failed to convert %T to an object: %w", v, err)
	}
	return obj, nil
}
