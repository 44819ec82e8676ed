/*
The package computes structural differences between two JSON-like values, typically
two snapshots of the same Kubernetes resource taken from different revisions,
namespaces or clusters.

Values are compared recursively: objects by key, arrays by position (or along their
longest common subsequence when AlignLCS is selected) and everything else by value.
The comparison is total: any pair of values yields a list of differences, mismatched
types included.
*/
package diff

import (
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
)

// DifferenceType tells on which side a difference comes from
type DifferenceType string

const (
	// DifferenceAdded marks a value present on the right side only
	DifferenceAdded DifferenceType = "added"
	// DifferenceRemoved marks a value present on the left side only
	DifferenceRemoved DifferenceType = "removed"
	// DifferenceModified marks a value present on both sides with different content
	DifferenceModified DifferenceType = "modified"
)

// Difference is a single difference found at Path, e.g. `spec.replicas` or
// `spec.containers[0].image`. The root value has the empty path.
type Difference struct {
	Path       string         `json:"path"`
	LeftValue  any            `json:"leftValue,omitempty"`
	RightValue any            `json:"rightValue,omitempty"`
	Type       DifferenceType `json:"type"`
}

// Engine compares resources using the options it was created with. An Engine is
// stateless and safe for concurrent use.
type Engine struct {
	opts options
}

func NewEngine(opts ...Option) *Engine {
	return &Engine{opts: applyOptions(opts)}
}

var defaultEngine = NewEngine()

// FindDifferences compares left and right with positional array alignment.
func FindDifferences(left, right any) []Difference {
	return defaultEngine.FindDifferences(left, right)
}

// FindDifferences returns the differences between left and right in traversal order:
// array elements by index, object keys sorted lexicographically.
func (e *Engine) FindDifferences(left, right any) []Difference {
	return e.findDifferences(left, right, "", make([]Difference, 0))
}

func (e *Engine) findDifferences(left, right any, path string, out []Difference) []Difference {
	left, right = normalize(left), normalize(right)
	switch {
	case left == nil && right == nil:
		return out
	case left == nil:
		return append(out, Difference{Path: path, RightValue: right, Type: DifferenceAdded})
	case right == nil:
		return append(out, Difference{Path: path, LeftValue: left, Type: DifferenceRemoved})
	}

	switch l := left.(type) {
	case []any:
		if r, ok := right.([]any); ok {
			if e.opts.arrayAlignment == AlignLCS {
				return e.diffArraysLCS(l, r, path, out)
			}
			return e.diffArrays(l, r, path, out)
		}
	case map[string]any:
		if r, ok := right.(map[string]any); ok {
			return e.diffObjects(l, r, path, out)
		}
	default:
		if !isContainer(right) && primitiveEqual(l, right) {
			return out
		}
	}
	return append(out, Difference{Path: path, LeftValue: left, RightValue: right, Type: DifferenceModified})
}

func (e *Engine) diffArrays(left, right []any, path string, out []Difference) []Difference {
	for i := 0; i < max(len(left), len(right)); i++ {
		elemPath := indexPath(path, i)
		switch {
		case i >= len(left):
			out = append(out, Difference{Path: elemPath, RightValue: right[i], Type: DifferenceAdded})
		case i >= len(right):
			out = append(out, Difference{Path: elemPath, LeftValue: left[i], Type: DifferenceRemoved})
		default:
			out = e.findDifferences(left[i], right[i], elemPath, out)
		}
	}
	return out
}

func (e *Engine) diffObjects(left, right map[string]any, path string, out []Difference) []Difference {
	keys := make([]string, 0, len(left)+len(right))
	for k := range left {
		keys = append(keys, k)
	}
	for k := range right {
		if _, ok := left[k]; !ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	for _, k := range keys {
		keyPath := fieldPath(path, k)
		l, inLeft := left[k]
		r, inRight := right[k]
		switch {
		case !inLeft:
			out = append(out, Difference{Path: keyPath, RightValue: r, Type: DifferenceAdded})
		case !inRight:
			out = append(out, Difference{Path: keyPath, LeftValue: l, Type: DifferenceRemoved})
		default:
			out = e.findDifferences(l, r, keyPath, out)
		}
	}
	return out
}

func fieldPath(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

func indexPath(path string, i int) string {
	return path + "[" + strconv.Itoa(i) + "]"
}

func isContainer(v any) bool {
	switch v.(type) {
	case []any, map[string]any:
		return true
	}
	return false
}

// normalize maps typed maps and slices (e.g. map[string]string, []string) onto
// map[string]any and []any so that they are walked like decoded JSON. Nil maps,
// slices and pointers become nil.
func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		if t == nil {
			return nil
		}
		return v
	case []any:
		if t == nil {
			return nil
		}
		return v
	case nil, string, bool, float64, int64, int:
		return v
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		if rv.IsNil() {
			return nil
		}
		if rv.Type().Key().Kind() != reflect.String {
			return v
		}
		m := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			m[iter.Key().String()] = iter.Value().Interface()
		}
		return m
	case reflect.Slice:
		if rv.IsNil() {
			return nil
		}
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return v
		}
		fallthrough
	case reflect.Array:
		s := make([]any, rv.Len())
		for i := range s {
			s[i] = rv.Index(i).Interface()
		}
		return s
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil
		}
		return normalize(rv.Elem().Interface())
	}
	return v
}

// primitiveEqual compares scalars. Numbers are equal when they hold the same value,
// whatever their Go type, so that an int64 read from the API server equals the
// float64 decoded from a manifest.
func primitiveEqual(a, b any) bool {
	ai, aInt := asInt64(a)
	bi, bInt := asInt64(b)
	if aInt && bInt {
		return ai == bi
	}
	af, aNum := asFloat64(a)
	bf, bNum := asFloat64(b)
	if aNum && bNum {
		switch {
		case aInt:
			return floatEqualsInt(bf, ai)
		case bInt:
			return floatEqualsInt(af, bi)
		}
		return af == bf
	}
	if aNum != bNum {
		return false
	}
	return reflect.DeepEqual(a, b)
}

// floatEqualsInt compares without rounding i to a float64, which is lossy above 2^53.
func floatEqualsInt(f float64, i int64) bool {
	// -2^63 and 2^63 are exact float64 values; the latter is out of int64 range
	if f != math.Trunc(f) || f < -(1<<63) || f >= 1<<63 {
		return false
	}
	return int64(f) == i
}

func asInt64(v any) (int64, bool) {
	rv := reflect.ValueOf(v)
	if n, ok := v.(fmt.Stringer); ok && rv.Kind() == reflect.String {
		// json.Number holding an integer
		i, err := strconv.ParseInt(n.String(), 10, 64)
		return i, err == nil
	}
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := rv.Uint()
		if u > 1<<63-1 {
			return 0, false
		}
		return int64(u), true
	}
	return 0, false
}

func asFloat64(v any) (float64, bool) {
	if n, ok := v.(fmt.Stringer); ok {
		// json.Number and similar textual numbers
		if rv := reflect.ValueOf(v); rv.Kind() == reflect.String {
			f, err := strconv.ParseFloat(n.String(), 64)
			return f, err == nil
		}
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	}
	return 0, false
}
