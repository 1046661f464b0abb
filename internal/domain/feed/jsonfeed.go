package feed

import (
	"encoding/json"
	"fmt"
	"time"
)

// JSON Feed v1.1 wire types (https://www.jsonfeed.org/version/1.1/). Parsing
// converts losslessly to the internal model, tagging every resulting Post
// with JSONFeed so re-serialization to json recovers the original shape
// rather than deriving one from whatever variant the feed happens to carry.
type jsonFeedDoc struct {
	Version     string           `json:"version"`
	Title       string           `json:"title"`
	HomePageURL string           `json:"home_page_url,omitempty"`
	FeedURL     string           `json:"feed_url,omitempty"`
	Description string           `json:"description,omitempty"`
	Author      *jsonFeedAuthor  `json:"author,omitempty"`
	Items       []jsonFeedItem   `json:"items"`
}

type jsonFeedAuthor struct {
	Name  string `json:"name,omitempty"`
	URL   string `json:"url,omitempty"`
}

type jsonFeedItem struct {
	ID            string          `json:"id"`
	URL           string          `json:"url,omitempty"`
	Title         string          `json:"title,omitempty"`
	ContentHTML   string          `json:"content_html,omitempty"`
	ContentText   string          `json:"content_text,omitempty"`
	DatePublished string          `json:"date_published,omitempty"`
	Author        *jsonFeedAuthor `json:"author,omitempty"`
}

func encodeJSONFeed(f *Feed) ([]byte, error) {
	doc := jsonFeedDoc{
		Version:     "https://jsonfeed.org/version/1.1",
		Title:       f.Title,
		HomePageURL: f.Link,
		FeedURL:     f.FeedURL,
		Description: f.Description,
	}
	if f.Author != nil {
		doc.Author = &jsonFeedAuthor{Name: f.Author.Name}
	}
	for _, p := range f.Posts {
		item := jsonFeedItem{
			ID:          p.GUID,
			URL:         p.Link,
			Title:       p.Title,
			ContentHTML: p.Body,
		}
		if !p.Date.IsZero() {
			item.DatePublished = p.Date.Format(time.RFC3339)
		}
		if p.Author != nil {
			item.Author = &jsonFeedAuthor{Name: p.Author.Name}
		}
		doc.Items = append(doc.Items, item)
	}
	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("feed: encode json feed: %w", err)
	}
	return out, nil
}

func decodeJSONFeed(data []byte) (*Feed, error) {
	var doc jsonFeedDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("feed: decode json feed: %w", err)
	}
	f := &Feed{
		Variant:     VariantJSON,
		Title:       doc.Title,
		Link:        doc.HomePageURL,
		FeedURL:     doc.FeedURL,
		Description: doc.Description,
	}
	if doc.Author != nil {
		f.Author = &Author{Name: doc.Author.Name}
	}
	for _, item := range doc.Items {
		p := &Post{
			Title:    item.Title,
			Link:     item.URL,
			GUID:     item.ID,
			Body:     item.ContentHTML,
			JSONFeed: true,
		}
		if p.Body == "" {
			p.Body = item.ContentText
		}
		if item.DatePublished != "" {
			if t, err := time.Parse(time.RFC3339, item.DatePublished); err == nil {
				p.Date = t
			}
		}
		if item.Author != nil {
			p.Author = &Author{Name: item.Author.Name}
		}
		EnsureGUID(p)
		f.Posts = append(f.Posts, p)
	}
	return f, nil
}
