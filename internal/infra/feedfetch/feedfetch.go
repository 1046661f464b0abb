// Package feedfetch fetches a remote feed over HTTP and parses it with
// gofeed, the same library the teacher's scraper package used for RSS/Atom
// ingestion. gofeed tolerates the malformed and quirky markup real-world
// feeds produce far better than a hand-rolled decoder, so it is preferred
// on the external-ingestion path; internal/domain/feed's own codec is kept
// for serializing and re-parsing output this program itself produced.
package feedfetch

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"catchup-feed/internal/domain/feed"
	"catchup-feed/internal/infra/httpclient"
	"catchup-feed/internal/resilience/retry"

	"github.com/mmcdole/gofeed"
)

// Fetcher retrieves and normalizes a remote feed.
type Fetcher struct {
	client *httpclient.Client
	parser *gofeed.Parser
}

// New builds a Fetcher backed by the given shared HTTP client.
func New(client *httpclient.Client) *Fetcher {
	return &Fetcher{client: client, parser: gofeed.NewParser()}
}

// Fetch retrieves url, parses it with gofeed, and converts the result into
// the program's own Feed model. If url's content is not a recognizable
// feed, it falls through to feed.Parse, which covers the bare-HTML
// wrapping case gofeed does not handle. The request is wrapped in the
// retry package's backoff, the one caller the httpclient package's Do
// doc comment reserves retry semantics for.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*feed.Feed, error) {
	var resp *httpclient.Response
	err := retry.WithBackoff(ctx, retry.FeedFetchConfig(), func() error {
		var fetchErr error
		resp, fetchErr = f.client.Get(ctx, url, map[string]string{"Accept": "application/rss+xml, application/atom+xml, application/json, text/html"})
		if fetchErr != nil {
			return fetchErr
		}
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusRequestTimeout {
			return &retry.HTTPError{StatusCode: resp.StatusCode, Message: url}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("feedfetch: fetching %s: %w", url, err)
	}
	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("feedfetch: %s returned status %d", url, resp.StatusCode)
	}

	gf, err := f.parser.ParseString(string(resp.Body))
	if err != nil {
		return feed.Parse(resp.Body, resp.ContentType, url)
	}
	return convert(gf, resp.ContentType), nil
}

func convert(gf *gofeed.Feed, contentType string) *feed.Feed {
	variant := feed.VariantRSS
	switch strings.ToLower(gf.FeedType) {
	case "atom":
		variant = feed.VariantAtom
	case "json":
		variant = feed.VariantJSON
	}

	out := &feed.Feed{
		Variant:     variant,
		Title:       gf.Title,
		Description: gf.Description,
		Language:    gf.Language,
		FeedURL:     gf.FeedLink,
	}
	if gf.Link != "" {
		out.Link = gf.Link
	}
	if gf.Author != nil {
		out.Author = &feed.Author{Name: gf.Author.Name, Email: gf.Author.Email}
	}
	if gf.Image != nil {
		out.Image = &feed.Image{URL: gf.Image.URL, Title: gf.Image.Title}
	}
	if gf.UpdatedParsed != nil {
		out.Updated = *gf.UpdatedParsed
	}

	for _, item := range gf.Items {
		p := &feed.Post{
			Title: item.Title,
			Link:  item.Link,
			GUID:  item.GUID,
		}
		if item.PublishedParsed != nil {
			p.Date = *item.PublishedParsed
		} else if item.UpdatedParsed != nil {
			p.Date = *item.UpdatedParsed
		}
		if item.Author != nil {
			p.Author = &feed.Author{Name: item.Author.Name, Email: item.Author.Email}
		}
		if item.Content != "" {
			p.Body = item.Content
		} else {
			p.Body = item.Description
		}
		if len(item.Enclosures) > 0 {
			e := item.Enclosures[0]
			p.Enclosure = &feed.Enclosure{URL: e.URL, Type: e.Type}
		}
		if p.GUID == "" {
			feed.EnsureGUID(p)
		}
		out.Add(p)
	}
	return out
}
