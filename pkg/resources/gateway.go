package resources

import (
	"context"

	"k8s.io/apimachinery/pkg/types"
)

// MutationType is the kind of write applied to a resource.
type MutationType string

const (
	MutationDelete MutationType = "delete"
	MutationPatch  MutationType = "patch"
	MutationApply  MutationType = "apply"
)

// Mutation describes a write. Data holds the patch or the applied manifest and is
// ignored for deletions.
type Mutation struct {
	Type MutationType
	// PatchType is required for MutationPatch; apply always uses server-side apply.
	PatchType    types.PatchType
	Data         []byte
	FieldManager string
}

// Gateway performs raw reads and writes against the cluster API. An empty namespace
// means all namespaces for lists and cluster scope for single resources.
type Gateway[T any] interface {
	FetchList(ctx context.Context, kind, namespace string) ([]T, error)
	FetchOne(ctx context.Context, kind, name, namespace string) (T, error)
	Mutate(ctx context.Context, kind, name, namespace string, mutation Mutation) error
}
