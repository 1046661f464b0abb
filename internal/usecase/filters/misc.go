package filters

import (
	"context"

	"catchup-feed/internal/domain/feed"
	"catchup-feed/internal/usecase/pipeline"
)

func init() {
	register("limit", buildLimit)
	register("sort", buildSort)
	register("uniq", buildUniq)
}

// limitFilter truncates posts to the first N, independent of the
// request-level limit_posts query parameter, so an endpoint can always
// cap itself regardless of what a caller asks for.
type limitFilter struct {
	n int
}

func buildLimit(opts map[string]interface{}) (pipeline.Filter, error) {
	return &limitFilter{n: intOpt(opts, "value", 0)}, nil
}

func (f *limitFilter) Name() string       { return "limit" }
func (f *limitFilter) Kind() pipeline.Kind { return pipeline.KindFeedWise }
func (f *limitFilter) RunPost(ctx context.Context, feedIn *feed.Feed, p *feed.Post) (*feed.Post, error) {
	return p, nil
}

func (f *limitFilter) RunFeed(ctx context.Context, feedIn *feed.Feed) (*feed.Feed, error) {
	if f.n > 0 && f.n < len(feedIn.Posts) {
		feedIn.Posts = feedIn.Posts[:f.n]
	}
	return feedIn, nil
}

// sortFilter reorders posts by date, an explicit reorder satisfying the
// "filters may reorder explicitly" invariant. merge calls this filter's
// logic directly via feed.SortByDate rather than going through the
// catalog, since it always wants a descending sort on its merged result.
type sortFilter struct {
	descending bool
}

func buildSort(opts map[string]interface{}) (pipeline.Filter, error) {
	order := stringOpt(opts, "order", "desc")
	return &sortFilter{descending: order != "asc"}, nil
}

func (f *sortFilter) Name() string       { return "sort" }
func (f *sortFilter) Kind() pipeline.Kind { return pipeline.KindFeedWise }
func (f *sortFilter) RunPost(ctx context.Context, feedIn *feed.Feed, p *feed.Post) (*feed.Post, error) {
	return p, nil
}

func (f *sortFilter) RunFeed(ctx context.Context, feedIn *feed.Feed) (*feed.Feed, error) {
	feedIn.SortByDate(f.descending)
	return feedIn, nil
}

// uniqFilter dedupes posts by guid, first occurrence wins. merge's own
// dedupe is inlined (it dedupes incoming posts against the existing
// feed as it fetches each source); this is the same logic exposed as an
// ordinary catalog filter for use anywhere in a pipeline.
type uniqFilter struct{}

func buildUniq(opts map[string]interface{}) (pipeline.Filter, error) {
	return &uniqFilter{}, nil
}

func (f *uniqFilter) Name() string       { return "uniq" }
func (f *uniqFilter) Kind() pipeline.Kind { return pipeline.KindFeedWise }
func (f *uniqFilter) RunPost(ctx context.Context, feedIn *feed.Feed, p *feed.Post) (*feed.Post, error) {
	return p, nil
}

func (f *uniqFilter) RunFeed(ctx context.Context, feedIn *feed.Feed) (*feed.Feed, error) {
	seen := make(map[string]bool, len(feedIn.Posts))
	kept := make([]*feed.Post, 0, len(feedIn.Posts))
	for _, p := range feedIn.Posts {
		if seen[p.GUID] {
			continue
		}
		seen[p.GUID] = true
		kept = append(kept, p)
	}
	feedIn.Posts = kept
	return feedIn, nil
}
