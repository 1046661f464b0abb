package filters

import (
	"context"
	"net/url"
	"strings"

	"catchup-feed/internal/domain/feed"
	"catchup-feed/internal/usecase/pipeline"

	"github.com/PuerkitoBio/goquery"
)

func init() {
	register("split", buildSplit)
}

type splitFilter struct {
	title   string
	link    string
	content string
	author  string
}

func buildSplit(opts map[string]interface{}) (pipeline.Filter, error) {
	return &splitFilter{
		title:   stringOpt(opts, "title", ""),
		link:    stringOpt(opts, "link", ""),
		content: stringOpt(opts, "content", ""),
		author:  stringOpt(opts, "author", ""),
	}, nil
}

func (f *splitFilter) Name() string       { return "split" }
func (f *splitFilter) Kind() pipeline.Kind { return pipeline.KindFeedWise }

func (f *splitFilter) RunPost(ctx context.Context, feedIn *feed.Feed, p *feed.Post) (*feed.Post, error) {
	return p, nil
}

// RunFeed replaces each post with N posts formed by zipping matches of
// the title/link/content (and optional author) selectors. Per the open
// question resolved in spec §9, a selector-count mismatch leaves that
// post unchanged rather than erroring.
func (f *splitFilter) RunFeed(ctx context.Context, feedIn *feed.Feed) (*feed.Feed, error) {
	next := make([]*feed.Post, 0, len(feedIn.Posts))
	for _, p := range feedIn.Posts {
		split, ok := f.splitPost(p)
		if !ok {
			next = append(next, p)
			continue
		}
		next = append(next, split...)
	}
	feedIn.Posts = next
	return feedIn, nil
}

func (f *splitFilter) splitPost(p *feed.Post) ([]*feed.Post, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(wrapFragment(p.Body)))
	if err != nil {
		return nil, false
	}

	titles := textMatches(doc, f.title)
	links := attrMatches(doc, f.link, "href")
	contents := htmlMatches(doc, f.content)
	var authors []string
	if f.author != "" {
		authors = textMatches(doc, f.author)
	}

	n := len(titles)
	if n == 0 || len(links) != n || len(contents) != n {
		return nil, false
	}
	if f.author != "" && len(authors) != n {
		return nil, false
	}

	base, _ := url.Parse(p.Link)
	out := make([]*feed.Post, n)
	for i := 0; i < n; i++ {
		resolved := links[i]
		if base != nil {
			if u, err := base.Parse(links[i]); err == nil {
				resolved = u.String()
			}
		}
		np := &feed.Post{
			Title: titles[i],
			Link:  resolved,
			Body:  contents[i],
			Date:  p.Date,
		}
		if f.author != "" && i < len(authors) {
			np.Author = &feed.Author{Name: authors[i]}
		} else {
			np.Author = p.Author
		}
		feed.EnsureGUID(np)
		out[i] = np
	}
	return out, true
}

func textMatches(doc *goquery.Document, selector string) []string {
	if selector == "" {
		return nil
	}
	var out []string
	doc.Find(selector).Each(func(i int, s *goquery.Selection) {
		out = append(out, strings.TrimSpace(s.Text()))
	})
	return out
}

func htmlMatches(doc *goquery.Document, selector string) []string {
	if selector == "" {
		return nil
	}
	var out []string
	doc.Find(selector).Each(func(i int, s *goquery.Selection) {
		if html, err := goquery.OuterHtml(s); err == nil {
			out = append(out, html)
		}
	})
	return out
}

func attrMatches(doc *goquery.Document, selector, attr string) []string {
	if selector == "" {
		return nil
	}
	var out []string
	doc.Find(selector).Each(func(i int, s *goquery.Selection) {
		v, _ := s.Attr(attr)
		out = append(out, v)
	})
	return out
}
