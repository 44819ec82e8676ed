package resources

import "strings"

// AllNamespaces is the namespace slot of keys for cluster-wide reads.
const AllNamespaces = "all"

func namespaceOrAll(namespace string) string {
	if namespace == "" {
		return AllNamespaces
	}
	return namespace
}

// ObjectKey returns the cache key of a single resource: `kind:namespace:name`, with
// "all" standing for an empty namespace and kind folded by CanonicalKind.
func ObjectKey(kind, namespace, name string) string {
	return strings.Join([]string{CanonicalKind(kind), namespaceOrAll(namespace), name}, ":")
}

// ListKey returns the cache key of the list of kind in namespace. Its name slot is
// empty so that NamespacePattern matches it as well.
func ListKey(kind, namespace string) string {
	return ObjectKey(kind, namespace, "")
}

// NamespacePattern matches every key of kind in namespace, lists included.
func NamespacePattern(kind, namespace string) string {
	return ObjectKey(kind, namespace, "*")
}
