package resolver

import (
	"context"
	"net/url"
	"testing"

	"catchup-feed/internal/domain/config"
	"catchup-feed/internal/domain/feed"

	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	feed *feed.Feed
	err  error
}

func (f *fakeFetcher) Fetch(ctx context.Context, u string) (*feed.Feed, error) {
	return f.feed, f.err
}

type fakeInvoker struct {
	calls int
	fn    func(ctx context.Context, path string, params url.Values) (*feed.Feed, error)
}

func (f *fakeInvoker) InvokeEndpoint(ctx context.Context, path string, params url.Values) (*feed.Feed, error) {
	f.calls++
	return f.fn(ctx, path, params)
}

func TestResolve_ScratchSource(t *testing.T) {
	doc := &config.Document{}
	r := New(&fakeFetcher{}, &fakeInvoker{}, doc, "")
	ep := &config.EndpointConfig{Source: &config.SourceSpec{Scratch: true, Title: "T", Format: "atom"}}

	f, err := r.Resolve(context.Background(), ep, "")
	require.NoError(t, err)
	require.Equal(t, feed.VariantAtom, f.Variant)
	require.Equal(t, "T", f.Title)
	require.Empty(t, f.Posts)
}

func TestResolve_RequiresSourceWhenNoneConfigured(t *testing.T) {
	doc := &config.Document{}
	r := New(&fakeFetcher{}, &fakeInvoker{}, doc, "")
	ep := &config.EndpointConfig{}

	_, err := r.Resolve(context.Background(), ep, "")
	require.ErrorIs(t, err, ErrSourceRequired)
}

func TestResolve_FixedSourceFetchesExternalURL(t *testing.T) {
	want := &feed.Feed{Title: "external"}
	doc := &config.Document{}
	r := New(&fakeFetcher{feed: want}, &fakeInvoker{}, doc, "")
	ep := &config.EndpointConfig{Source: &config.SourceSpec{URL: "http://example.com/feed"}}

	got, err := r.Resolve(context.Background(), ep, "")
	require.NoError(t, err)
	require.Same(t, want, got)
}

func TestResolve_SiblingEndpointInvokesRecursively(t *testing.T) {
	doc := &config.Document{Endpoints: []config.EndpointConfig{{Path: "/sibling.xml"}}}
	invoker := &fakeInvoker{fn: func(ctx context.Context, path string, params url.Values) (*feed.Feed, error) {
		return &feed.Feed{Title: "sibling:" + path}, nil
	}}
	r := New(&fakeFetcher{}, invoker, doc, "")
	ep := &config.EndpointConfig{}

	got, err := r.Resolve(context.Background(), ep, "/sibling.xml")
	require.NoError(t, err)
	require.Equal(t, "sibling:/sibling.xml", got.Title)
	require.Equal(t, 1, invoker.calls)
}

func TestResolve_DetectsCycle(t *testing.T) {
	doc := &config.Document{Endpoints: []config.EndpointConfig{
		{Path: "/a.xml"},
		{Path: "/b.xml"},
	}}
	var r *Resolver
	invoker := &fakeInvoker{}
	invoker.fn = func(ctx context.Context, path string, params url.Values) (*feed.Feed, error) {
		if path == "/a.xml" {
			epB := &config.EndpointConfig{}
			return r.Resolve(ctx, epB, "/b.xml")
		}
		epA := &config.EndpointConfig{}
		return r.Resolve(ctx, epA, "/a.xml")
	}
	r = New(&fakeFetcher{}, invoker, doc, "")

	epStart := &config.EndpointConfig{}
	_, err := r.Resolve(context.Background(), epStart, "/a.xml")
	require.ErrorIs(t, err, ErrCycle)
}
