package diff

import (
	"github.com/go-logr/logr"
)

// ArrayAlignment selects how elements of two arrays are paired before comparison.
type ArrayAlignment int

const (
	// AlignPositional compares element i of the left array with element i of the
	// right array. An insertion in the middle of an array shows up as a cascade of
	// modified elements followed by one added element.
	AlignPositional ArrayAlignment = iota
	// AlignLCS pairs arrays along their longest common subsequence of equal elements,
	// so an insertion shows up as a single added element.
	AlignLCS
)

type Option func(*options)

// Holds diffing settings
type options struct {
	arrayAlignment ArrayAlignment
	// additional field paths removed by CleanResource
	ignoredFields [][]string
	log           logr.Logger
}

func applyOptions(opts []Option) options {
	o := options{
		arrayAlignment: AlignPositional,
		log:            logr.Discard(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func WithArrayAlignment(alignment ArrayAlignment) Option {
	return func(o *options) {
		o.arrayAlignment = alignment
	}
}

// WithIgnoredFields removes the given field paths, in addition to the volatile
// fields, when cleaning resources. Each path is a list of map keys, e.g.
// []string{"spec", "replicas"}.
func WithIgnoredFields(paths ...[]string) Option {
	return func(o *options) {
		o.ignoredFields = append(o.ignoredFields, paths...)
	}
}

func WithLogr(log logr.Logger) Option {
	return func(o *options) {
		o.log = log
	}
}
