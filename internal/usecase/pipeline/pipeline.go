// Package pipeline runs an ordered list of filters over a feed. The
// bounded-parallelism fan-out for post-wise filters follows the teacher's
// processFeedItems: a buffered-channel semaphore paired with
// errgroup.WithContext, except results are written into a pre-sized slice
// indexed by original position so post order survives concurrent,
// unordered completion.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"catchup-feed/internal/domain/feed"

	"golang.org/x/sync/errgroup"
)

// Kind declares whether a filter runs once over the whole feed or is
// fanned out across posts.
type Kind int

const (
	KindFeedWise Kind = iota
	KindPostWise
)

// deleted is returned by a post-wise Filter to signal the post should be
// dropped from the feed (e.g. modify_post returning null).
var deleted = &feed.Post{}

// Deleted is the sentinel a post-wise filter returns to remove a post
// from the feed.
func Deleted() *feed.Post { return deleted }

// PostError wraps a per-post failure from a post-wise filter. Per spec
// §7, it is absorbed: the post is left unchanged and the error logged,
// it never aborts the pipeline.
type PostError struct {
	Post *feed.Post
	Err  error
}

func (e *PostError) Error() string { return fmt.Sprintf("post filter error: %v", e.Err) }
func (e *PostError) Unwrap() error { return e.Err }

// FeedError aborts the pipeline; it is a feed-level (not per-post)
// failure.
type FeedError struct {
	Filter string
	Err    error
}

func (e *FeedError) Error() string { return fmt.Sprintf("filter %q failed: %v", e.Filter, e.Err) }
func (e *FeedError) Unwrap() error { return e.Err }

// Filter is the unit of feed transformation. Name identifies it for error
// messages and metrics.
type Filter interface {
	Name() string
	Kind() Kind
	RunFeed(ctx context.Context, f *feed.Feed) (*feed.Feed, error)
	RunPost(ctx context.Context, f *feed.Feed, p *feed.Post) (*feed.Post, error)
}

// Options controls executor-level limits, sourced from request query
// parameters.
type Options struct {
	LimitPosts   int // 0 = unlimited
	LimitFilters int // 0 = unlimited
	Parallelism  int // default 20
}

// DefaultOptions returns spec defaults.
func DefaultOptions() Options {
	return Options{Parallelism: 20}
}

// PostErrorLogger receives absorbed per-post errors; nil is a valid
// no-op logger.
type PostErrorLogger func(filterName string, p *feed.Post, err error)

// Run executes filters over f in order, honoring opts.LimitPosts (applied
// once, before any filter) and opts.LimitFilters (caps how many filters
// run). Cancellation is checked between filters only: a filter in flight
// always completes before the abort is observed, so no partial result is
// ever returned — instead ctx.Err() propagates as the returned error.
func Run(ctx context.Context, filters []Filter, f *feed.Feed, opts Options, onPostError PostErrorLogger) (*feed.Feed, error) {
	if opts.Parallelism <= 0 {
		opts.Parallelism = DefaultOptions().Parallelism
	}
	if opts.LimitPosts > 0 && opts.LimitPosts < len(f.Posts) {
		f.Posts = f.Posts[:opts.LimitPosts]
	}

	limit := len(filters)
	if opts.LimitFilters > 0 && opts.LimitFilters < limit {
		limit = opts.LimitFilters
	}

	for i := 0; i < limit; i++ {
		filt := filters[i]
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		var err error
		switch filt.Kind() {
		case KindFeedWise:
			f, err = filt.RunFeed(ctx, f)
			if err != nil {
				return nil, &FeedError{Filter: filt.Name(), Err: err}
			}
		case KindPostWise:
			f, err = runPostWise(ctx, filt, f, opts.Parallelism, onPostError)
			if err != nil {
				return nil, &FeedError{Filter: filt.Name(), Err: err}
			}
		}
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	return f, nil
}

func runPostWise(ctx context.Context, filt Filter, f *feed.Feed, parallelism int, onPostError PostErrorLogger) (*feed.Feed, error) {
	results := make([]*feed.Post, len(f.Posts))
	sem := make(chan struct{}, parallelism)
	eg, egCtx := errgroup.WithContext(ctx)

	for i, p := range f.Posts {
		i, p := i, p
		eg.Go(func() error {
			sem <- struct{}{}
			defer func() { <-sem }()

			out, err := filt.RunPost(egCtx, f, p)
			if err != nil {
				var feedLevel *FeedError
				if errors.As(err, &feedLevel) {
					return err
				}
				if onPostError != nil {
					onPostError(filt.Name(), p, err)
				}
				results[i] = p
				return nil
			}
			results[i] = out
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	kept := make([]*feed.Post, 0, len(results))
	for _, p := range results {
		if p == nil || p == deleted {
			continue
		}
		kept = append(kept, p)
	}
	f.Posts = kept
	return f, nil
}
