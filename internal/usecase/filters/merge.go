package filters

import (
	"context"
	"log/slog"

	"catchup-feed/internal/domain/feed"
	"catchup-feed/internal/usecase/pipeline"

	"golang.org/x/sync/errgroup"
)

func init() {
	register("merge", buildMerge)
}

// mergeFetcher retrieves an additional source feed, by URL or sibling
// endpoint path, for the merge filter. Bound at pipeline-assembly time to
// the same resolver used for the endpoint's own source.
type mergeFetcher interface {
	FetchSource(ctx context.Context, source string) (*feed.Feed, error)
}

type mergeFilter struct {
	sources []string
	fetcher mergeFetcher
}

// MergeDeps carries the collaborator a merge filter needs but cannot
// construct for itself; set via SetMergeFetcher before filters with a
// merge step are built.
var defaultMergeFetcher mergeFetcher

// SetMergeFetcher installs the fetcher merge filters use to resolve
// additional sources. Called once during pipeline assembly.
func SetMergeFetcher(f mergeFetcher) {
	defaultMergeFetcher = f
}

func buildMerge(opts map[string]interface{}) (pipeline.Filter, error) {
	sources := stringSliceOpt(opts, "sources")
	return &mergeFilter{sources: sources, fetcher: defaultMergeFetcher}, nil
}

func (f *mergeFilter) Name() string       { return "merge" }
func (f *mergeFilter) Kind() pipeline.Kind { return pipeline.KindFeedWise }
func (f *mergeFilter) RunPost(ctx context.Context, feedIn *feed.Feed, p *feed.Post) (*feed.Post, error) {
	return p, nil
}

// RunFeed fetches every additional source in parallel, appends their
// posts, dedupes by guid, and re-sorts by date descending. A failing
// source is logged and skipped — like full_text, merge never retries.
func (f *mergeFilter) RunFeed(ctx context.Context, feedIn *feed.Feed) (*feed.Feed, error) {
	if f.fetcher == nil || len(f.sources) == 0 {
		return feedIn, nil
	}

	results := make([]*feed.Feed, len(f.sources))
	eg, egCtx := errgroup.WithContext(ctx)
	for i, src := range f.sources {
		i, src := i, src
		eg.Go(func() error {
			fetched, err := f.fetcher.FetchSource(egCtx, src)
			if err != nil {
				slog.Warn("merge: fetching additional source failed, skipping", slog.String("source", src), slog.Any("error", err))
				return nil
			}
			results[i] = fetched
			return nil
		})
	}
	_ = eg.Wait()

	seen := make(map[string]bool, len(feedIn.Posts))
	for _, p := range feedIn.Posts {
		seen[p.GUID] = true
	}

	merged := feedIn.Posts
	for _, r := range results {
		if r == nil {
			continue
		}
		for _, p := range r.Posts {
			if seen[p.GUID] {
				continue
			}
			seen[p.GUID] = true
			merged = append(merged, p)
		}
	}
	feedIn.Posts = merged
	feedIn.SortByDate(true)
	return feedIn, nil
}
