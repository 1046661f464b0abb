package filters

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"time"

	"catchup-feed/internal/domain/feed"
	"catchup-feed/internal/infra/httpclient"
	"catchup-feed/internal/resilience/circuitbreaker"
	"catchup-feed/internal/usecase/pipeline"

	readability "github.com/go-shiori/go-readability"
)

func init() {
	register("full_text", buildFullText)
	register("simplify_html", buildSimplifyHTML)
}

// fullTextRateLimiter throttles outbound article fetches across every
// configured full_text filter, independent of the pipeline's post-wise
// concurrency cap (which bounds how many fetches run at once, not how
// many start per second).
var fullTextRateLimiter = httpclient.NewRateLimiter(10, 20)

// fullTextFilter fetches each post's link and replaces or appends to its
// body. It never retries a failed fetch — the teacher's retry package is
// reserved for source resolution, not this filter, per the error
// taxonomy's "full_text and merge fetches do not retry" rule.
//
// sem bounds this filter's own outstanding upstream fetches to
// parallelism, independent of the executor's process-wide
// pipeline.Options.Parallelism (shared across every filter in the
// chain, not per-filter): a configured full_text with parallelism=k
// never has more than k fetches in flight regardless of what the
// executor's own dispatch concurrency is set to.
type fullTextFilter struct {
	client        *httpclient.Client
	timeout       time.Duration
	parallelism   int
	sem           chan struct{}
	simplify      bool
	appendMode    bool
	keepElement   []string
	removeElement []string
}

func buildFullText(opts map[string]interface{}) (pipeline.Filter, error) {
	parallelism := intOpt(opts, "parallelism", 20)
	if parallelism <= 0 {
		parallelism = 20
	}
	return &fullTextFilter{
		client:        httpclient.New(httpclient.DefaultConfig(), circuitbreaker.WebScraperConfig()),
		timeout:       time.Duration(intOpt(opts, "timeout", 10)) * time.Second,
		parallelism:   parallelism,
		sem:           make(chan struct{}, parallelism),
		simplify:      boolOpt(opts, "simplify", false),
		appendMode:    boolOpt(opts, "append_mode", false),
		keepElement:   stringSliceOpt(opts, "keep_element"),
		removeElement: stringSliceOpt(opts, "remove_element"),
	}
}

func (f *fullTextFilter) Name() string      { return "full_text" }
func (f *fullTextFilter) Kind() pipeline.Kind { return pipeline.KindPostWise }

func (f *fullTextFilter) RunFeed(ctx context.Context, feedIn *feed.Feed) (*feed.Feed, error) {
	return feedIn, nil
}

// RunPost fetches p.Link and extracts its content. Per spec §4.4, a
// per-post fetch failure leaves the post unchanged, logs, and continues
// — it must never abort the pipeline, so every error path here returns
// (p, nil) rather than propagating the error.
func (f *fullTextFilter) RunPost(ctx context.Context, feedIn *feed.Feed, p *feed.Post) (*feed.Post, error) {
	if p.Link == "" {
		return p, nil
	}

	fetchCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	select {
	case f.sem <- struct{}{}:
		defer func() { <-f.sem }()
	case <-fetchCtx.Done():
		slog.Warn("full_text: parallelism wait aborted, leaving post unchanged", slog.String("link", p.Link), slog.Any("error", fetchCtx.Err()))
		return p, nil
	}

	if err := fullTextRateLimiter.Allow(fetchCtx); err != nil {
		slog.Warn("full_text: rate limit wait aborted, leaving post unchanged", slog.String("link", p.Link), slog.Any("error", err))
		return p, nil
	}

	resp, err := f.client.Get(fetchCtx, p.Link, nil)
	if err != nil {
		slog.Warn("full_text: fetch failed, leaving post unchanged", slog.String("link", p.Link), slog.Any("error", err))
		return p, nil
	}
	if resp.StatusCode != 200 {
		slog.Warn("full_text: non-200 response, leaving post unchanged", slog.String("link", p.Link), slog.Int("status", resp.StatusCode))
		return p, nil
	}

	body, err := extractContent(resp.Body, p.Link, f.simplify, f.keepElement, f.removeElement)
	if err != nil {
		slog.Warn("full_text: extraction failed, leaving post unchanged", slog.String("link", p.Link), slog.Any("error", err))
		return p, nil
	}

	if f.appendMode {
		p.Body = p.Body + body
	} else {
		p.Body = body
	}
	return p, nil
}

type simplifyHTMLFilter struct{}

func buildSimplifyHTML(opts map[string]interface{}) (pipeline.Filter, error) {
	return &simplifyHTMLFilter{}, nil
}

func (simplifyHTMLFilter) Name() string       { return "simplify_html" }
func (simplifyHTMLFilter) Kind() pipeline.Kind { return pipeline.KindPostWise }
func (simplifyHTMLFilter) RunFeed(ctx context.Context, f *feed.Feed) (*feed.Feed, error) {
	return f, nil
}

func (simplifyHTMLFilter) RunPost(ctx context.Context, feedIn *feed.Feed, p *feed.Post) (*feed.Post, error) {
	baseURL, _ := url.Parse(p.Link)
	out, err := readability.FromReader(bytes.NewReader([]byte(p.Body)), baseURL)
	if err != nil {
		return p, nil
	}
	if out.Content != "" {
		p.Body = out.Content
	}
	return p, nil
}

// extractContent pulls the article body out of rawHTML, optionally running
// it through readability (mirroring the teacher's doFetch), then applying
// keep/remove element selection.
func extractContent(rawHTML []byte, linkURL string, simplify bool, keep, remove []string) (string, error) {
	body := string(rawHTML)

	if simplify {
		baseURL, _ := url.Parse(linkURL)
		article, err := readability.FromReader(io.NopCloser(bytes.NewReader(rawHTML)), baseURL)
		if err != nil {
			return "", fmt.Errorf("readability: %w", err)
		}
		if article.Content != "" {
			body = article.Content
		} else if article.TextContent != "" {
			body = article.TextContent
		} else {
			return "", fmt.Errorf("readability: no readable content found")
		}
	}

	if len(keep) > 0 {
		kept, err := selectKeep(body, keep)
		if err != nil {
			return "", err
		}
		body = kept
	}
	if len(remove) > 0 {
		stripped, err := selectRemove(body, remove)
		if err != nil {
			return "", err
		}
		body = stripped
	}
	return body, nil
}
