package diff

import (
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

const (
	lastAppliedConfigAnnotation  = "kubectl.kubernetes.io/last-applied-configuration"
	deploymentRevisionAnnotation = "deployment.kubernetes.io/revision"
)

// volatileFields are assigned by the API server or controllers and change without any
// user intent.
var volatileFields = [][]string{
	{"metadata", "uid"},
	{"metadata", "resourceVersion"},
	{"metadata", "generation"},
	{"metadata", "creationTimestamp"},
	{"metadata", "deletionTimestamp"},
	{"metadata", "deletionGracePeriodSeconds"},
	{"metadata", "managedFields"},
	{"metadata", "selfLink"},
	{"metadata", "annotations", lastAppliedConfigAnnotation},
	{"metadata", "annotations", deploymentRevisionAnnotation},
	{"status"},
}

// CleanResource returns a copy of obj without volatile server-managed fields.
// obj itself is left untouched.
func CleanResource(obj map[string]any) map[string]any {
	return defaultEngine.CleanResource(obj)
}

// CleanResource returns a copy of obj without volatile server-managed fields and the
// fields configured with WithIgnoredFields. A nil obj yields nil.
func (e *Engine) CleanResource(obj map[string]any) map[string]any {
	if obj == nil {
		return nil
	}
	cleaned, _ := deepCopy(obj).(map[string]any)
	for _, path := range volatileFields {
		unstructured.RemoveNestedField(cleaned, path...)
	}
	for _, path := range e.opts.ignoredFields {
		if len(path) > 0 {
			unstructured.RemoveNestedField(cleaned, path...)
		}
	}
	if metadata, ok := cleaned["metadata"].(map[string]any); ok {
		if annotations, ok := metadata["annotations"].(map[string]any); ok && len(annotations) == 0 {
			delete(metadata, "annotations")
		}
	}
	return cleaned
}

// deepCopy clones a JSON-like value, turning typed maps and slices into
// map[string]any and []any on the way.
func deepCopy(v any) any {
	switch t := normalize(v).(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = deepCopy(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = deepCopy(val)
		}
		return out
	default:
		return t
	}
}
