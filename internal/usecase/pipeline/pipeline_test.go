package pipeline

import (
	"context"
	"fmt"
	"testing"

	"catchup-feed/internal/domain/feed"

	"github.com/stretchr/testify/require"
)

type upperTitleFilter struct{}

func (upperTitleFilter) Name() string { return "upper_title" }
func (upperTitleFilter) Kind() Kind   { return KindPostWise }
func (upperTitleFilter) RunFeed(ctx context.Context, f *feed.Feed) (*feed.Feed, error) {
	return f, nil
}
func (upperTitleFilter) RunPost(ctx context.Context, f *feed.Feed, p *feed.Post) (*feed.Post, error) {
	p.Title = p.Title + "!"
	return p, nil
}

type failOnTitleFilter struct{ target string }

func (f failOnTitleFilter) Name() string { return "fail_on_title" }
func (f failOnTitleFilter) Kind() Kind   { return KindPostWise }
func (f failOnTitleFilter) RunFeed(ctx context.Context, feedIn *feed.Feed) (*feed.Feed, error) {
	return feedIn, nil
}
func (f failOnTitleFilter) RunPost(ctx context.Context, feedIn *feed.Feed, p *feed.Post) (*feed.Post, error) {
	if p.Title == f.target {
		return nil, fmt.Errorf("boom")
	}
	return p, nil
}

type deleteOddFilter struct{}

func (deleteOddFilter) Name() string { return "delete_odd" }
func (deleteOddFilter) Kind() Kind   { return KindPostWise }
func (deleteOddFilter) RunFeed(ctx context.Context, f *feed.Feed) (*feed.Feed, error) { return f, nil }
func (deleteOddFilter) RunPost(ctx context.Context, f *feed.Feed, p *feed.Post) (*feed.Post, error) {
	if p.Title == "odd" {
		return Deleted(), nil
	}
	return p, nil
}

func makeFeed(titles ...string) *feed.Feed {
	f := &feed.Feed{}
	for _, title := range titles {
		f.Add(&feed.Post{Title: title})
	}
	return f
}

func TestRun_PostWisePreservesOrder(t *testing.T) {
	f := makeFeed("a", "b", "c", "d", "e")
	out, err := Run(context.Background(), []Filter{upperTitleFilter{}}, f, DefaultOptions(), nil)
	require.NoError(t, err)
	titles := make([]string, len(out.Posts))
	for i, p := range out.Posts {
		titles[i] = p.Title
	}
	require.Equal(t, []string{"a!", "b!", "c!", "d!", "e!"}, titles)
}

func TestRun_AbsorbsPostLevelErrors(t *testing.T) {
	f := makeFeed("keep", "boom-me")
	var loggedErrs int
	out, err := Run(context.Background(), []Filter{failOnTitleFilter{target: "boom-me"}}, f, DefaultOptions(), func(name string, p *feed.Post, err error) {
		loggedErrs++
	})
	require.NoError(t, err)
	require.Len(t, out.Posts, 2)
	require.Equal(t, 1, loggedErrs)
}

func TestRun_DropsDeletedPosts(t *testing.T) {
	f := makeFeed("odd", "keep", "odd")
	out, err := Run(context.Background(), []Filter{deleteOddFilter{}}, f, DefaultOptions(), nil)
	require.NoError(t, err)
	require.Len(t, out.Posts, 1)
	require.Equal(t, "keep", out.Posts[0].Title)
}

func TestRun_LimitPostsTruncatesBeforeFilters(t *testing.T) {
	f := makeFeed("a", "b", "c")
	opts := DefaultOptions()
	opts.LimitPosts = 2
	out, err := Run(context.Background(), []Filter{upperTitleFilter{}}, f, opts, nil)
	require.NoError(t, err)
	require.Len(t, out.Posts, 2)
}

func TestRun_LimitFiltersCapsFilterCount(t *testing.T) {
	f := makeFeed("a")
	opts := DefaultOptions()
	opts.LimitFilters = 1
	out, err := Run(context.Background(), []Filter{upperTitleFilter{}, upperTitleFilter{}}, f, opts, nil)
	require.NoError(t, err)
	require.Equal(t, "a!", out.Posts[0].Title)
}

func TestRun_AbortsOnCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f := makeFeed("a")
	_, err := Run(ctx, []Filter{upperTitleFilter{}}, f, DefaultOptions(), nil)
	require.Error(t, err)
}
