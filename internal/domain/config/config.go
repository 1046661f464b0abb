// Package config defines the RSS Funnel configuration document: the
// shape loaded from YAML, validated at load time, and held as an
// immutable snapshot the core consumes. Swapping snapshots between
// requests (on reload) is the caller's concern, via atomic.Pointer.
package config

import (
	"fmt"
	"strings"
	"time"

	pkgconfig "catchup-feed/pkg/config"
)

// Document is the top-level configuration, one per loaded file.
type Document struct {
	Auth      *AuthConfig      `yaml:"auth,omitempty"`
	Cache     CacheConfig      `yaml:"cache"`
	Endpoints []EndpointConfig `yaml:"endpoints"`
	loadedAt  time.Time
}

// AuthConfig configures the optional session-cookie auth gate.
type AuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// CacheConfig bounds the shared HTTP cache. Zero values are filled with
// spec defaults by Normalize.
type CacheConfig struct {
	MaxEntries int           `yaml:"max_entries"`
	MaxBytes   int64         `yaml:"max_bytes"`
	TTL        time.Duration `yaml:"ttl"`
}

// EndpointConfig describes one funnel endpoint: a path, an optional fixed
// source, and its filter pipeline.
type EndpointConfig struct {
	Path    string       `yaml:"path"`
	Note    string       `yaml:"note,omitempty"`
	Source  *SourceSpec  `yaml:"source,omitempty"`
	Filters []FilterSpec `yaml:"filters"`
}

// SourceSpec is either a bare URL string or a scratch-feed descriptor.
// UnmarshalYAML below handles both shapes of the tagged union.
type SourceSpec struct {
	URL         string `yaml:"-"`
	Scratch     bool   `yaml:"-"`
	Format      string `yaml:"format,omitempty"`
	Title       string `yaml:"title,omitempty"`
	Link        string `yaml:"link,omitempty"`
	Description string `yaml:"description,omitempty"`
}

// UnmarshalYAML implements the SourceSpec tagged union: a plain scalar is
// a fixed URL, a mapping is a scratch-feed descriptor.
func (s *SourceSpec) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var asString string
	if err := unmarshal(&asString); err == nil {
		s.URL = asString
		return nil
	}

	type scratchAlias SourceSpec
	var alias scratchAlias
	if err := unmarshal(&alias); err != nil {
		return fmt.Errorf("config: source must be a URL string or a scratch-feed mapping: %w", err)
	}
	*s = SourceSpec(alias)
	s.Scratch = true
	return nil
}

// FilterSpec is a single-key mapping naming a filter kind and carrying
// its options as a raw map, resolved against the filter catalog later.
type FilterSpec struct {
	Name    string
	Options map[string]interface{}
}

// UnmarshalYAML decodes the single-key-mapping shape of a FilterSpec.
func (f *FilterSpec) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw map[string]interface{}
	if err := unmarshal(&raw); err != nil {
		return fmt.Errorf("config: filter entry must be a mapping: %w", err)
	}
	if len(raw) != 1 {
		return fmt.Errorf("config: filter entry must have exactly one key, got %d", len(raw))
	}
	for name, opts := range raw {
		f.Name = name
		switch v := opts.(type) {
		case map[string]interface{}:
			f.Options = v
		case nil:
			f.Options = map[string]interface{}{}
		default:
			f.Options = map[string]interface{}{"value": v}
		}
	}
	return nil
}

// Normalize fills unset cache fields with spec defaults and is called
// once after a document is parsed.
func (d *Document) Normalize() {
	if d.Cache.MaxEntries <= 0 {
		d.Cache.MaxEntries = 1024
	}
	if d.Cache.MaxBytes <= 0 {
		d.Cache.MaxBytes = 64 * 1024 * 1024
	}
	if d.Cache.TTL <= 0 {
		d.Cache.TTL = 12 * time.Hour
	}
}

// Validate checks structural invariants that must hold before a document
// can serve traffic: every endpoint path is present, starts with "/", and
// is unique; every filter names a kind.
func (d *Document) Validate() error {
	if err := pkgconfig.ValidatePositiveDuration(d.Cache.TTL); err != nil {
		return fmt.Errorf("config: cache.ttl: %w", err)
	}

	seen := make(map[string]bool, len(d.Endpoints))
	for i, ep := range d.Endpoints {
		if ep.Path == "" {
			return fmt.Errorf("config: endpoint %d missing path", i)
		}
		if !strings.HasPrefix(ep.Path, "/") {
			return fmt.Errorf("config: endpoint path %q must start with \"/\"", ep.Path)
		}
		if seen[ep.Path] {
			return fmt.Errorf("config: duplicate endpoint path %q", ep.Path)
		}
		seen[ep.Path] = true
		for _, fs := range ep.Filters {
			if fs.Name == "" {
				return fmt.Errorf("config: endpoint %q has a filter with no name", ep.Path)
			}
		}
	}
	return nil
}

// EndpointCount reports how many endpoints the document defines, for
// health/inspector reporting.
func (d *Document) EndpointCount() int {
	return len(d.Endpoints)
}

// Loaded reports whether this document represents a successfully loaded
// config, satisfying the health handler's ConfigStatus interface.
func (d *Document) Loaded() bool {
	return d != nil
}

// LoadedAt returns when the document was loaded.
func (d *Document) LoadedAt() time.Time {
	return d.loadedAt
}

// Endpoint returns the endpoint configured for path, if any.
func (d *Document) Endpoint(path string) (*EndpointConfig, bool) {
	for i := range d.Endpoints {
		if d.Endpoints[i].Path == path {
			return &d.Endpoints[i], true
		}
	}
	return nil, false
}
