// Package filters implements the funnel's filter catalog: full_text,
// simplify_html, keep_element, remove_element, split, sanitize,
// keep_only/discard, highlight, merge, convert_to, note, and
// modify_post/modify_feed/js (the JS-hosted filters, backed by
// internal/infra/jsruntime). Each filter implements
// internal/usecase/pipeline.Filter and is constructed from a decoded
// config.FilterSpec's options by the catalog's New function.
package filters

import (
	"fmt"

	"catchup-feed/internal/usecase/pipeline"
)

// Builder constructs a Filter from a FilterSpec's raw options map.
type Builder func(opts map[string]interface{}) (pipeline.Filter, error)

// catalog maps filter names to their builders. Populated by init funcs in
// this package's other files so each filter's registration lives next to
// its implementation.
var catalog = map[string]Builder{}

func register(name string, b Builder) {
	catalog[name] = b
}

// ErrUnknownFilter is returned when a FilterSpec names a filter kind the
// catalog does not recognize.
var ErrUnknownFilter = fmt.Errorf("filters: unknown filter")

// Build constructs the named filter with the given options. It is the
// entry point config.FilterSpec values are resolved through when a
// pipeline is assembled for an endpoint.
func Build(name string, opts map[string]interface{}) (pipeline.Filter, error) {
	b, ok := catalog[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFilter, name)
	}
	return b(opts)
}

// Names returns the registered filter names, for the inspector's
// filter_schema=all listing.
func Names() []string {
	names := make([]string, 0, len(catalog))
	for name := range catalog {
		names = append(names, name)
	}
	return names
}

func stringOpt(opts map[string]interface{}, key, def string) string {
	if v, ok := opts[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

func boolOpt(opts map[string]interface{}, key string, def bool) bool {
	if v, ok := opts[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

func intOpt(opts map[string]interface{}, key string, def int) int {
	if v, ok := opts[key]; ok {
		switch n := v.(type) {
		case int:
			return n
		case int64:
			return int(n)
		case float64:
			return int(n)
		}
	}
	return def
}

func stringSliceOpt(opts map[string]interface{}, key string) []string {
	v, ok := opts[key]
	if !ok {
		return nil
	}
	switch vs := v.(type) {
	case []string:
		return vs
	case []interface{}:
		out := make([]string, 0, len(vs))
		for _, item := range vs {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		return []string{vs}
	}
	return nil
}
