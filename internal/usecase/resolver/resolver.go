// Package resolver turns an EndpointConfig plus request parameters into a
// Feed: either a fixed or request-supplied source URL is fetched, a
// scratch source is synthesized, or the source names another configured
// endpoint and is resolved by a recursive in-process invocation. Cycle
// detection follows the teacher's context-key idiom (requestid.Middleware,
// fetch.scraperConfigKey): a typed key carries a per-request, per-branch
// copied set of visited endpoint paths.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"catchup-feed/internal/domain/config"
	"catchup-feed/internal/domain/feed"
)

// ErrCycle is returned when resolving a source would revisit an endpoint
// path already on the current resolution chain.
var ErrCycle = errors.New("resolver: cycle detected")

// ErrSourceRequired is returned when an endpoint has neither a fixed
// source nor a scratch source and the request supplied no ?source=.
var ErrSourceRequired = errors.New("resolver: source is required")

// Fetcher retrieves and parses a remote feed. Implemented by
// internal/infra/feedfetch.Fetcher.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*feed.Feed, error)
}

// EndpointInvoker runs another configured endpoint's full pipeline and
// returns its resulting feed, for sibling-endpoint source recursion.
type EndpointInvoker interface {
	InvokeEndpoint(ctx context.Context, path string, params url.Values) (*feed.Feed, error)
}

// Resolver resolves sources for endpoint requests.
type Resolver struct {
	fetcher  Fetcher
	invoker  EndpointInvoker
	baseHost string
	doc      *config.Document
}

// New builds a Resolver. baseHost is the service's own host:port (or
// empty if unknown), used to recognize self-referential source URLs.
func New(fetcher Fetcher, invoker EndpointInvoker, doc *config.Document, baseHost string) *Resolver {
	return &Resolver{fetcher: fetcher, invoker: invoker, doc: doc, baseHost: baseHost}
}

type visitedKey struct{}

// withVisited returns a context carrying path added to the copy-on-write
// visited set from ctx, so sibling branches of the resolution tree never
// see each other's visits.
func withVisited(ctx context.Context, path string) context.Context {
	prev := visitedFrom(ctx)
	next := make(map[string]struct{}, len(prev)+1)
	for k := range prev {
		next[k] = struct{}{}
	}
	next[path] = struct{}{}
	return context.WithValue(ctx, visitedKey{}, next)
}

func visitedFrom(ctx context.Context) map[string]struct{} {
	if v, ok := ctx.Value(visitedKey{}).(map[string]struct{}); ok {
		return v
	}
	return nil
}

// Resolve implements §4.3: fixed/query source, scratch source, or
// sibling-endpoint/external URL fetch.
func (r *Resolver) Resolve(ctx context.Context, ep *config.EndpointConfig, requestSourceURL string) (*feed.Feed, error) {
	if ep.Source != nil && ep.Source.Scratch {
		return scratchFeed(ep.Source), nil
	}

	sourceURL := ""
	if ep.Source != nil {
		sourceURL = ep.Source.URL
	} else {
		sourceURL = requestSourceURL
	}
	if sourceURL == "" {
		return nil, ErrSourceRequired
	}

	if siblingPath, ok := r.siblingEndpointPath(sourceURL); ok {
		return r.resolveSibling(ctx, siblingPath, sourceURL)
	}

	return r.fetcher.Fetch(ctx, sourceURL)
}

// FetchSource resolves source the way a merge filter's additional sources
// are named: either a sibling endpoint path/URL (run through the full
// recursive resolution, cycle detection included) or a bare external URL
// fetched directly.
func (r *Resolver) FetchSource(ctx context.Context, source string) (*feed.Feed, error) {
	if siblingPath, ok := r.siblingEndpointPath(source); ok {
		return r.resolveSibling(ctx, siblingPath, source)
	}
	return r.fetcher.Fetch(ctx, source)
}

func (r *Resolver) resolveSibling(ctx context.Context, path, sourceURL string) (*feed.Feed, error) {
	visited := visitedFrom(ctx)
	if _, seen := visited[path]; seen {
		return nil, fmt.Errorf("%w: endpoint %q revisited", ErrCycle, path)
	}
	ctx = withVisited(ctx, path)

	parsedURL, err := url.Parse(sourceURL)
	if err != nil {
		return nil, fmt.Errorf("resolver: parsing sibling source url: %w", err)
	}
	return r.invoker.InvokeEndpoint(ctx, path, parsedURL.Query())
}

// siblingEndpointPath reports whether sourceURL names another configured
// endpoint: either its path matches one directly, or the URL's own path
// component (when it looks like it targets this service) does.
func (r *Resolver) siblingEndpointPath(sourceURL string) (string, bool) {
	if strings.HasPrefix(sourceURL, "/") {
		if _, ok := r.doc.Endpoint(sourceURL); ok {
			return sourceURL, true
		}
		return "", false
	}

	parsed, err := url.Parse(sourceURL)
	if err != nil {
		return "", false
	}
	if r.baseHost == "" || parsed.Host != r.baseHost {
		return "", false
	}
	if _, ok := r.doc.Endpoint(parsed.Path); ok {
		return parsed.Path, true
	}
	return "", false
}

func scratchFeed(src *config.SourceSpec) *feed.Feed {
	variant := feed.VariantRSS
	if strings.EqualFold(src.Format, "atom") {
		variant = feed.VariantAtom
	}
	return &feed.Feed{
		Variant:     variant,
		Title:       src.Title,
		Link:        src.Link,
		Description: src.Description,
	}
}
