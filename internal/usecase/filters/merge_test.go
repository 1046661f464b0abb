package filters

import (
	"context"
	"errors"
	"testing"
	"time"

	"catchup-feed/internal/domain/feed"

	"github.com/stretchr/testify/require"
)

type fakeMergeFetcher struct {
	feeds map[string]*feed.Feed
	errs  map[string]error
}

func (f *fakeMergeFetcher) FetchSource(ctx context.Context, source string) (*feed.Feed, error) {
	if err, ok := f.errs[source]; ok {
		return nil, err
	}
	return f.feeds[source], nil
}

func TestMerge_DedupesByGUIDAcrossSources(t *testing.T) {
	t.Cleanup(func() { SetMergeFetcher(nil) })

	now := time.Now()
	fetcher := &fakeMergeFetcher{
		feeds: map[string]*feed.Feed{
			"https://a.example/feed": {Posts: []*feed.Post{
				{GUID: "dup", Title: "from a (dup)", Date: now.Add(-time.Hour)},
				{GUID: "only-a", Title: "only in a", Date: now.Add(-2 * time.Hour)},
			}},
			"https://b.example/feed": {Posts: []*feed.Post{
				{GUID: "dup", Title: "from b (dup)", Date: now.Add(-30 * time.Minute)},
				{GUID: "only-b", Title: "only in b", Date: now},
			}},
		},
	}
	SetMergeFetcher(fetcher)

	filt, err := Build("merge", map[string]interface{}{
		"sources": []interface{}{"https://a.example/feed", "https://b.example/feed"},
	})
	require.NoError(t, err)

	feedIn := &feed.Feed{Posts: []*feed.Post{
		{GUID: "dup", Title: "original dup", Date: now.Add(-3 * time.Hour)},
	}}
	out, err := filt.RunFeed(context.Background(), feedIn)
	require.NoError(t, err)

	require.Len(t, out.Posts, 3)
	guids := make(map[string]string, len(out.Posts))
	for _, p := range out.Posts {
		guids[p.GUID] = p.Title
	}
	require.Equal(t, "original dup", guids["dup"], "first occurrence of a guid wins, including the feed's own posts")
	require.Contains(t, guids, "only-a")
	require.Contains(t, guids, "only-b")
}

func TestMerge_SortsResultByDateDescending(t *testing.T) {
	t.Cleanup(func() { SetMergeFetcher(nil) })

	now := time.Now()
	fetcher := &fakeMergeFetcher{
		feeds: map[string]*feed.Feed{
			"https://a.example/feed": {Posts: []*feed.Post{
				{GUID: "newest", Date: now},
			}},
		},
	}
	SetMergeFetcher(fetcher)

	filt, err := Build("merge", map[string]interface{}{"sources": []interface{}{"https://a.example/feed"}})
	require.NoError(t, err)

	feedIn := &feed.Feed{Posts: []*feed.Post{
		{GUID: "oldest", Date: now.Add(-time.Hour)},
	}}
	out, err := filt.RunFeed(context.Background(), feedIn)
	require.NoError(t, err)

	require.Len(t, out.Posts, 2)
	require.Equal(t, "newest", out.Posts[0].GUID)
	require.Equal(t, "oldest", out.Posts[1].GUID)
}

func TestMerge_FailingSourceIsSkippedNotFatal(t *testing.T) {
	t.Cleanup(func() { SetMergeFetcher(nil) })

	fetcher := &fakeMergeFetcher{
		errs: map[string]error{"https://broken.example/feed": errors.New("fetch failed")},
	}
	SetMergeFetcher(fetcher)

	filt, err := Build("merge", map[string]interface{}{"sources": []interface{}{"https://broken.example/feed"}})
	require.NoError(t, err)

	original := &feed.Post{GUID: "keep-me"}
	feedIn := &feed.Feed{Posts: []*feed.Post{original}}
	out, err := filt.RunFeed(context.Background(), feedIn)
	require.NoError(t, err)
	require.Len(t, out.Posts, 1)
	require.Same(t, original, out.Posts[0])
}

func TestMerge_NoFetcherIsNoOp(t *testing.T) {
	t.Cleanup(func() { SetMergeFetcher(nil) })
	SetMergeFetcher(nil)

	filt, err := Build("merge", map[string]interface{}{"sources": []interface{}{"https://a.example/feed"}})
	require.NoError(t, err)

	original := &feed.Post{GUID: "unchanged"}
	feedIn := &feed.Feed{Posts: []*feed.Post{original}}
	out, err := filt.RunFeed(context.Background(), feedIn)
	require.NoError(t, err)
	require.Same(t, feedIn, out)
	require.Same(t, original, out.Posts[0])
}
