package endpointsvc

import (
	"context"
	"net/url"
	"testing"
	"time"

	"catchup-feed/internal/domain/config"
	"catchup-feed/internal/domain/feed"

	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	feed *feed.Feed
}

func (f *fakeFetcher) Fetch(ctx context.Context, u string) (*feed.Feed, error) {
	return f.feed, nil
}

func TestRun_ResolvesAndFiltersFeed(t *testing.T) {
	doc := &config.Document{
		Endpoints: []config.EndpointConfig{
			{
				Path:   "/foo.xml",
				Source: &config.SourceSpec{URL: "http://example.com/feed.xml"},
				Filters: []config.FilterSpec{
					{Name: "limit", Options: map[string]interface{}{"value": 1}},
				},
			},
		},
	}
	src := &feed.Feed{
		Posts: []*feed.Post{
			{Title: "a", Date: time.Unix(200, 0)},
			{Title: "b", Date: time.Unix(100, 0)},
		},
	}
	svc := New(&fakeFetcher{feed: src}, doc, "")

	ep, ok := doc.Endpoint("/foo.xml")
	require.True(t, ok)

	out, err := svc.Run(context.Background(), ep, url.Values{})
	require.NoError(t, err)
	require.Len(t, out.Posts, 1)
	require.Equal(t, "a", out.Posts[0].Title)
}

func TestRun_AppliesLimitPostsQueryParam(t *testing.T) {
	doc := &config.Document{
		Endpoints: []config.EndpointConfig{
			{Path: "/foo.xml", Source: &config.SourceSpec{URL: "http://example.com/feed.xml"}},
		},
	}
	src := &feed.Feed{Posts: []*feed.Post{{Title: "a"}, {Title: "b"}, {Title: "c"}}}
	svc := New(&fakeFetcher{feed: src}, doc, "")
	ep, _ := doc.Endpoint("/foo.xml")

	out, err := svc.Run(context.Background(), ep, url.Values{"limit_posts": {"2"}})
	require.NoError(t, err)
	require.Len(t, out.Posts, 2)
}

func TestRun_UnknownFilterErrors(t *testing.T) {
	doc := &config.Document{
		Endpoints: []config.EndpointConfig{
			{
				Path:    "/foo.xml",
				Source:  &config.SourceSpec{URL: "http://example.com/feed.xml"},
				Filters: []config.FilterSpec{{Name: "does_not_exist"}},
			},
		},
	}
	svc := New(&fakeFetcher{feed: &feed.Feed{}}, doc, "")
	ep, _ := doc.Endpoint("/foo.xml")

	_, err := svc.Run(context.Background(), ep, url.Values{})
	require.Error(t, err)
}
