// Package feed implements the normalized feed/post data model shared by the
// source resolver, filter catalog, and endpoint service: a variant-tagged
// representation of an RSS 2.0 or Atom document (or a feed synthesized from
// a JSON Feed document or a bare HTML page) that round-trips back to bytes.
package feed

import (
	"sort"
	"time"
)

// Variant names which wire format a Feed currently represents. convert_to is
// the only filter allowed to change it; every other filter must preserve it.
type Variant string

const (
	VariantRSS  Variant = "rss"
	VariantAtom Variant = "atom"
	VariantJSON Variant = "json"
)

// Link is a related link; only Href is retained since it is the only part
// every serialization target (RSS, Atom, JSON Feed) needs.
type Link struct {
	Href string
}

// Author is a post or feed author.
type Author struct {
	Name  string
	Email string
}

// Category is a generic top-level category/tag.
type Category struct {
	Text string
}

// Image is channel-level feed art.
type Image struct {
	URL   string
	Title string
	Link  string
}

// Enclosure is a media attachment on a post.
type Enclosure struct {
	URL    string
	Length int64
	Type   string
}

// Extension holds an arbitrary, unrecognized child element that must survive
// a parse/serialize round-trip unchanged even though the feed model does not
// interpret it.
type Extension struct {
	XMLName  string
	Attrs    map[string]string
	Content  string // raw inner XML/text, preserved verbatim
	Children []Extension
}

// Post is the tagged-union post/item/entry record. Every post exposes the
// common capability set from spec §3 regardless of which variant produced
// it; Extensions carries anything the model doesn't interpret so that
// round-tripping an untouched post is lossless.
type Post struct {
	Title       string
	Link        string
	GUID        string
	GUIDIsLink  bool // RSS guid isPermaLink flag; meaningless for Atom/JSON
	Date        time.Time
	Author      *Author
	Body        string // primary HTML content
	Enclosure   *Enclosure
	Source      *Link
	Extensions  []Extension
	JSONFeed    bool // true if this post originated from a JSON Feed document
	DurationSec int
}

// Feed is the normalized in-memory representation: channel/feed metadata
// plus an ordered list of Posts. The content type determines default
// serialization and which metadata fields a round-trip can preserve.
type Feed struct {
	Variant     Variant
	Title       string
	Link        string
	Description string // subtitle in Atom
	Author      *Author
	Updated     time.Time
	ID          string
	Copyright   string
	Image       *Image
	Language    string
	FeedURL     string
	Categories  []Category
	Extensions  []Extension

	Posts []*Post
}

// Add appends a post, preserving the insertion-order invariant from spec §3.
func (f *Feed) Add(p *Post) {
	f.Posts = append(f.Posts, p)
}

// SortByDate reorders Posts by Date; used by merge and the sort filter as an
// explicit reorder (never an incidental one per the ordering invariant).
func (f *Feed) SortByDate(descending bool) {
	sort.SliceStable(f.Posts, func(i, j int) bool {
		if descending {
			return f.Posts[i].Date.After(f.Posts[j].Date)
		}
		return f.Posts[i].Date.Before(f.Posts[j].Date)
	})
}

// anyTimeFormat returns the first non-zero time formatted, or "" if none set.
func anyTimeFormat(format string, times ...time.Time) string {
	for _, t := range times {
		if !t.IsZero() {
			return t.Format(format)
		}
	}
	return ""
}
