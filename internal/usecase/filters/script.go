package filters

import (
	"context"
	"log/slog"

	"catchup-feed/internal/domain/feed"
	"catchup-feed/internal/infra/jsruntime"
	"catchup-feed/internal/usecase/pipeline"
)

func init() {
	register("modify_post", buildModifyPost)
	register("modify_feed", buildModifyFeed)
	register("js", buildLegacyJS)
}

// scriptHost is shared by every script-backed filter instance; set once
// during pipeline assembly via SetScriptHost.
var scriptHost *jsruntime.Host

// SetScriptHost installs the JS host script-backed filters use to run
// user code. Called once during pipeline assembly, the same pattern
// merge's SetMergeFetcher uses for its fetcher collaborator.
func SetScriptHost(h *jsruntime.Host) {
	scriptHost = h
}

// toPostPayload builds the plain-object shape marshaled into the script
// for a post, per spec §4.5. A Go map is used rather than a struct so
// goja's reflection-based Set writes land on an ordinary map value
// instead of requiring an addressable struct field.
func toPostPayload(p *feed.Post) map[string]interface{} {
	author := ""
	if p.Author != nil {
		author = p.Author.Name
	}
	return map[string]interface{}{
		"title":  p.Title,
		"link":   p.Link,
		"guid":   p.GUID,
		"body":   p.Body,
		"author": author,
	}
}

func applyPostPayload(p *feed.Post, payload map[string]interface{}) {
	if v, ok := payload["title"].(string); ok {
		p.Title = v
	}
	if v, ok := payload["link"].(string); ok {
		p.Link = v
	}
	if v, ok := payload["body"].(string); ok {
		p.Body = v
	}
	if v, ok := payload["author"].(string); ok && v != "" {
		p.Author = &feed.Author{Name: v}
	}
}

type modifyPostFilter struct {
	src   string
	entry string
}

func buildModifyPost(opts map[string]interface{}) (pipeline.Filter, error) {
	return &modifyPostFilter{src: stringOpt(opts, "script", ""), entry: "modify_post"}, nil
}

func (f *modifyPostFilter) Name() string       { return "modify_post" }
func (f *modifyPostFilter) Kind() pipeline.Kind { return pipeline.KindPostWise }
func (f *modifyPostFilter) RunFeed(ctx context.Context, feedIn *feed.Feed) (*feed.Feed, error) {
	return feedIn, nil
}

// RunPost runs the user's modify_post(post) function. A missing return
// or explicit null deletes the post; a thrown error fails that post only
// (absorbed by the executor, logged here for visibility).
func (f *modifyPostFilter) RunPost(ctx context.Context, feedIn *feed.Feed, p *feed.Post) (*feed.Post, error) {
	if scriptHost == nil {
		return p, nil
	}
	result, err := scriptHost.Run(ctx, f.src, f.entry, toPostPayload(p))
	if err != nil {
		slog.Warn("modify_post: script error, leaving post unchanged", slog.Any("error", err))
		return p, nil
	}
	if result == nil {
		return pipeline.Deleted(), nil
	}
	payload, ok := result.(map[string]interface{})
	if !ok {
		return p, nil
	}
	applyPostPayload(p, payload)
	return p, nil
}

type modifyFeedFilter struct {
	src   string
	entry string
}

func buildModifyFeed(opts map[string]interface{}) (pipeline.Filter, error) {
	return &modifyFeedFilter{src: stringOpt(opts, "script", ""), entry: "modify_feed"}, nil
}

func (f *modifyFeedFilter) Name() string       { return "modify_feed" }
func (f *modifyFeedFilter) Kind() pipeline.Kind { return pipeline.KindFeedWise }
func (f *modifyFeedFilter) RunPost(ctx context.Context, feedIn *feed.Feed, p *feed.Post) (*feed.Post, error) {
	return p, nil
}

func (f *modifyFeedFilter) RunFeed(ctx context.Context, feedIn *feed.Feed) (*feed.Feed, error) {
	if scriptHost == nil {
		return feedIn, nil
	}
	payload := map[string]interface{}{"title": feedIn.Title, "link": feedIn.Link}
	result, err := scriptHost.Run(ctx, f.src, f.entry, payload)
	if err != nil {
		return nil, err
	}
	if fields, ok := result.(map[string]interface{}); ok {
		if v, ok := fields["title"].(string); ok {
			feedIn.Title = v
		}
		if v, ok := fields["link"].(string); ok {
			feedIn.Link = v
		}
	}
	return feedIn, nil
}

// legacyJSFilter is the spec's "legacy form of modify_post": the script
// must define update_post(feed, post) instead of modify_post(post).
type legacyJSFilter struct {
	src string
}

func buildLegacyJS(opts map[string]interface{}) (pipeline.Filter, error) {
	return &legacyJSFilter{src: stringOpt(opts, "script", "")}, nil
}

func (f *legacyJSFilter) Name() string       { return "js" }
func (f *legacyJSFilter) Kind() pipeline.Kind { return pipeline.KindFeedWise }
func (f *legacyJSFilter) RunPost(ctx context.Context, feedIn *feed.Feed, p *feed.Post) (*feed.Post, error) {
	return p, nil
}

func (f *legacyJSFilter) RunFeed(ctx context.Context, feedIn *feed.Feed) (*feed.Feed, error) {
	if scriptHost == nil {
		return feedIn, nil
	}
	kept := make([]*feed.Post, 0, len(feedIn.Posts))
	feedPayload := map[string]interface{}{"title": feedIn.Title, "link": feedIn.Link}
	for _, p := range feedIn.Posts {
		result, err := scriptHost.Run(ctx, f.src, "update_post", feedPayload, toPostPayload(p))
		if err != nil {
			slog.Warn("js: script error, leaving post unchanged", slog.Any("error", err))
			kept = append(kept, p)
			continue
		}
		if result == nil {
			continue
		}
		if payload, ok := result.(map[string]interface{}); ok {
			applyPostPayload(p, payload)
		}
		kept = append(kept, p)
	}
	feedIn.Posts = kept
	return feedIn, nil
}
