// Package endpointsvc assembles a configured endpoint's source resolution
// and filter pipeline into a single Run call, and implements
// resolver.EndpointInvoker so a sibling-endpoint source can recursively
// invoke another endpoint's own Run.
package endpointsvc

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"catchup-feed/internal/domain/config"
	"catchup-feed/internal/domain/feed"
	"catchup-feed/internal/observability/metrics"
	"catchup-feed/internal/usecase/filters"
	"catchup-feed/internal/usecase/pipeline"
	"catchup-feed/internal/usecase/resolver"

	"log/slog"
)

// Service resolves and filters one configured endpoint's feed. One
// instance is built at startup per loaded config.Document and shared by
// every request the HTTP handler serves.
type Service struct {
	doc      *config.Document
	resolver *resolver.Resolver
}

// New builds a Service. fetcher is the collaborator used for external
// source fetches (internal/infra/feedfetch.Fetcher); baseHost is this
// service's own host:port, used to recognize self-referential ?source=
// URLs that actually name a sibling endpoint.
func New(fetcher resolver.Fetcher, doc *config.Document, baseHost string) *Service {
	svc := &Service{doc: doc}
	svc.resolver = resolver.New(fetcher, svc, doc, baseHost)
	filters.SetMergeFetcher(svc)
	return svc
}

// FetchSource implements the merge filter's mergeFetcher collaborator,
// resolving an additional source (sibling endpoint path or bare URL) the
// same way the main source resolver would.
func (s *Service) FetchSource(ctx context.Context, source string) (*feed.Feed, error) {
	return s.resolver.FetchSource(ctx, source)
}

// InvokeEndpoint implements resolver.EndpointInvoker: it runs another
// configured endpoint's own Run, used for sibling-endpoint source
// recursion (§4.3).
func (s *Service) InvokeEndpoint(ctx context.Context, path string, params url.Values) (*feed.Feed, error) {
	ep, ok := s.doc.Endpoint(path)
	if !ok {
		return nil, fmt.Errorf("endpointsvc: no endpoint configured for path %q", path)
	}
	return s.Run(ctx, ep, params)
}

// Run resolves ep's source and runs its configured filter pipeline,
// honoring the request's ?source, ?limit_posts, and ?limit_filters
// query parameters (§4.7).
func (s *Service) Run(ctx context.Context, ep *config.EndpointConfig, params url.Values) (*feed.Feed, error) {
	start := time.Now()

	sourceStart := time.Now()
	f, err := s.resolver.Resolve(ctx, ep, params.Get("source"))
	metrics.RecordSourceFetch(time.Since(sourceStart), err)
	if err != nil {
		metrics.RecordEndpointRequest(ep.Path, "source_error", time.Since(start))
		return nil, fmt.Errorf("endpointsvc: resolving source for %q: %w", ep.Path, err)
	}

	filts, err := buildFilters(ep.Filters)
	if err != nil {
		metrics.RecordEndpointRequest(ep.Path, "filter_error", time.Since(start))
		return nil, fmt.Errorf("endpointsvc: building filters for %q: %w", ep.Path, err)
	}

	opts := pipeline.DefaultOptions()
	opts.LimitPosts = queryInt(params, "limit_posts")
	opts.LimitFilters = queryInt(params, "limit_filters")

	out, err := pipeline.Run(ctx, filts, f, opts, logPostError)
	if err != nil {
		metrics.RecordEndpointRequest(ep.Path, "filter_error", time.Since(start))
		return nil, fmt.Errorf("endpointsvc: running pipeline for %q: %w", ep.Path, err)
	}

	metrics.RecordEndpointRequest(ep.Path, "ok", time.Since(start))
	return out, nil
}

func buildFilters(specs []config.FilterSpec) ([]pipeline.Filter, error) {
	built := make([]pipeline.Filter, 0, len(specs))
	for _, spec := range specs {
		filt, err := filters.Build(spec.Name, spec.Options)
		if err != nil {
			return nil, err
		}
		built = append(built, &metricsFilter{inner: filt})
	}
	return built, nil
}

func logPostError(filterName string, p *feed.Post, err error) {
	slog.Warn("filter: post-level error absorbed",
		slog.String("filter", filterName),
		slog.String("post_guid", p.GUID),
		slog.Any("error", err))
}

func queryInt(params url.Values, key string) int {
	v := params.Get(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// metricsFilter decorates a pipeline.Filter with duration/error
// recording, so every configured filter's execution shows up in the
// filter_duration_seconds/filter_errors_total metrics without each
// filter implementation needing to know about metrics itself.
type metricsFilter struct {
	inner pipeline.Filter
}

func (f *metricsFilter) Name() string       { return f.inner.Name() }
func (f *metricsFilter) Kind() pipeline.Kind { return f.inner.Kind() }

func (f *metricsFilter) RunFeed(ctx context.Context, feedIn *feed.Feed) (*feed.Feed, error) {
	start := time.Now()
	out, err := f.inner.RunFeed(ctx, feedIn)
	metrics.RecordFilterRun(f.inner.Name(), time.Since(start), err)
	return out, err
}

func (f *metricsFilter) RunPost(ctx context.Context, feedIn *feed.Feed, p *feed.Post) (*feed.Post, error) {
	start := time.Now()
	out, err := f.inner.RunPost(ctx, feedIn, p)
	metrics.RecordFilterRun(f.inner.Name(), time.Since(start), err)
	return out, err
}
