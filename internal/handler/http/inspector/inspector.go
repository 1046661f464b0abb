// Package inspector implements the read-only /_inspector/* API consumed
// by the external config-editing UI: a redacted config snapshot, a
// hand-rolled JSON Schema per filter, and a preview endpoint that runs a
// pipeline without requiring the caller to know the wire format.
package inspector

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"catchup-feed/internal/domain/config"
	"catchup-feed/internal/domain/feed"
	"catchup-feed/internal/handler/http/respond"
	"catchup-feed/internal/usecase/filters"
)

// Runner is the collaborator used to execute a preview; implemented by
// internal/usecase/endpointsvc.Service.
type Runner interface {
	Run(ctx context.Context, ep *config.EndpointConfig, params url.Values) (*feed.Feed, error)
}

// redactedDocument is the config snapshot shape returned by
// /_inspector/config: auth credentials are never echoed back, only
// whether an auth gate is configured.
type redactedDocument struct {
	AuthConfigured bool               `json:"auth_configured"`
	Cache          config.CacheConfig `json:"cache"`
	Endpoints      []redactedEndpoint `json:"endpoints"`
	LoadedAt       string             `json:"loaded_at"`
}

type redactedEndpoint struct {
	Path    string   `json:"path"`
	Note    string   `json:"note,omitempty"`
	Filters []string `json:"filters"`
}

// ConfigHandler serves GET /_inspector/config.
type ConfigHandler struct {
	Doc *config.Document
}

func (h *ConfigHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	doc := h.Doc
	out := redactedDocument{
		AuthConfigured: doc.Auth != nil,
		Cache:          doc.Cache,
		LoadedAt:       doc.LoadedAt().UTC().Format(time.RFC3339),
	}
	for _, ep := range doc.Endpoints {
		re := redactedEndpoint{Path: ep.Path, Note: ep.Note, Filters: make([]string, 0, len(ep.Filters))}
		for _, fs := range ep.Filters {
			re.Filters = append(re.Filters, fs.Name)
		}
		out.Endpoints = append(out.Endpoints, re)
	}
	respond.JSON(w, http.StatusOK, out)
}

// FilterSchemaHandler serves GET /_inspector/filter_schema?filters=all|<name>.
type FilterSchemaHandler struct{}

func (h *FilterSchemaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("filters")
	if name == "" || name == "all" {
		out := make(map[string]interface{}, len(filters.Names()))
		for _, n := range filters.Names() {
			out[n] = schemaFor(n)
		}
		respond.JSON(w, http.StatusOK, out)
		return
	}

	schema, ok := filterSchemas[name]
	if !ok {
		respond.Error(w, http.StatusNotFound, errUnknownFilterSchema(name))
		return
	}
	respond.JSON(w, http.StatusOK, schema)
}

func schemaFor(name string) interface{} {
	if schema, ok := filterSchemas[name]; ok {
		return schema
	}
	return map[string]interface{}{"type": "object"}
}

type unknownFilterSchemaError struct{ name string }

func (e *unknownFilterSchemaError) Error() string {
	return "inspector: no schema registered for filter " + e.name
}

func errUnknownFilterSchema(name string) error {
	return &unknownFilterSchemaError{name: name}
}

// unifiedPost and unifiedPreview are the shape returned for
// /_inspector/preview's "unified" field: a lossy, display-oriented
// summary of a feed independent of its wire variant.
type unifiedPost struct {
	Title string `json:"title"`
	Link  string `json:"link"`
	GUID  string `json:"guid"`
}

type unifiedPreview struct {
	Title       string        `json:"title"`
	Link        string        `json:"link"`
	Description string        `json:"description"`
	Posts       []unifiedPost `json:"posts"`
}

type previewResponse struct {
	Raw         string         `json:"raw"`
	JSON        string         `json:"json"`
	Unified     unifiedPreview `json:"unified"`
	PostCount   int            `json:"post_count"`
	ContentType string         `json:"content_type"`
}

// PreviewHandler serves GET /_inspector/preview?endpoint=<path>&....
// Query parameters beyond endpoint are passed through to the pipeline
// exactly as the public endpoint handler would (source, limit_posts,
// limit_filters), so a preview exercises the same code path a real
// request would.
type PreviewHandler struct {
	Doc    *config.Document
	Runner Runner
}

func (h *PreviewHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("endpoint")
	ep, ok := h.Doc.Endpoint(path)
	if !ok {
		respond.Error(w, http.StatusNotFound, errUnknownEndpoint(path))
		return
	}

	params := r.URL.Query()
	params.Del("endpoint")

	f, err := h.Runner.Run(r.Context(), ep, params)
	if err != nil {
		respond.SafeError(w, http.StatusBadGateway, err)
		return
	}

	rawBody, rawContentType, err := feed.Serialize(f, f.Variant)
	if err != nil {
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}
	jsonBody, _, err := feed.Serialize(f, feed.VariantJSON)
	if err != nil {
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}

	unified := unifiedPreview{Title: f.Title, Link: f.Link, Description: f.Description}
	for _, p := range f.Posts {
		unified.Posts = append(unified.Posts, unifiedPost{Title: p.Title, Link: p.Link, GUID: p.GUID})
	}

	respond.JSON(w, http.StatusOK, previewResponse{
		Raw:         string(rawBody),
		JSON:        string(jsonBody),
		Unified:     unified,
		PostCount:   len(f.Posts),
		ContentType: rawContentType,
	})
}

type unknownEndpointError struct{ path string }

func (e *unknownEndpointError) Error() string {
	return "inspector: no endpoint configured for path " + e.path
}

func errUnknownEndpoint(path string) error {
	return &unknownEndpointError{path: path}
}
