package feed

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"time"
)

// RSS 2.0 wire structs, modeled on the jo-hoe/gofeedx encoder: a thin
// encoding/xml struct tree with content:encoded carried via a ,cdata field
// for HTML bodies. Unlike gofeedx these also decode (Unmarshal uses the same
// tags; ,cdata is ignored on the decode path and the field is populated as
// plain character data).
type rssFeedXML struct {
	XMLName          xml.Name      `xml:"rss"`
	Version          string        `xml:"version,attr"`
	ContentNamespace string        `xml:"xmlns:content,attr,omitempty"`
	Channel          *rssChannelXML `xml:"channel"`
}

type rssContentXML struct {
	XMLName xml.Name `xml:"content:encoded"`
	Content string   `xml:",cdata"`
}

type rssImageXML struct {
	XMLName xml.Name `xml:"image"`
	URL     string   `xml:"url"`
	Title   string   `xml:"title"`
	Link    string   `xml:"link"`
}

type rssEnclosureXML struct {
	XMLName xml.Name `xml:"enclosure"`
	URL     string   `xml:"url,attr"`
	Length  string   `xml:"length,attr"`
	Type    string   `xml:"type,attr"`
}

type rssGUIDXML struct {
	XMLName     xml.Name `xml:"guid"`
	ID          string   `xml:",chardata"`
	IsPermaLink string   `xml:"isPermaLink,attr,omitempty"`
}

type rssItemXML struct {
	XMLName     xml.Name        `xml:"item"`
	Title       string          `xml:"title"`
	Link        string          `xml:"link"`
	Description string          `xml:"description"`
	Content     *rssContentXML  `xml:"content:encoded,omitempty"`
	Author      string          `xml:"author,omitempty"`
	Comments    string          `xml:"comments,omitempty"`
	Enclosure   *rssEnclosureXML `xml:"enclosure"`
	GUID        *rssGUIDXML     `xml:"guid"`
	PubDate     string          `xml:"pubDate,omitempty"`
	Source      string          `xml:"source,omitempty"`
	Extra       []rawExtension  `xml:",any"`
}

type rssChannelXML struct {
	XMLName        xml.Name        `xml:"channel"`
	Title          string          `xml:"title"`
	Link           string          `xml:"link"`
	Description    string          `xml:"description"`
	Language       string          `xml:"language,omitempty"`
	Copyright      string          `xml:"copyright,omitempty"`
	ManagingEditor string          `xml:"managingEditor,omitempty"`
	PubDate        string          `xml:"pubDate,omitempty"`
	LastBuildDate  string          `xml:"lastBuildDate,omitempty"`
	Category       string          `xml:"category,omitempty"`
	Image          *rssImageXML    `xml:"image,omitempty"`
	Items          []*rssItemXML   `xml:"item"`
	Extra          []rawExtension  `xml:",any"`
}

func encodeRSS(f *Feed) ([]byte, error) {
	channel := &rssChannelXML{
		Title:         f.Title,
		Link:          f.Link,
		Description:   f.Description,
		Language:      f.Language,
		Copyright:     f.Copyright,
		PubDate:       anyTimeFormat(time.RFC1123Z, f.Updated),
		LastBuildDate: anyTimeFormat(time.RFC1123Z, f.Updated),
	}
	if f.Author != nil {
		channel.ManagingEditor = formatAuthor(f.Author)
	}
	if f.Image != nil {
		channel.Image = &rssImageXML{URL: f.Image.URL, Title: f.Image.Title, Link: f.Image.Link}
	}
	if len(f.Categories) > 0 {
		channel.Category = f.Categories[0].Text
	}
	channel.Extra = extensionsToRaw(f.Extensions)

	contentNS := ""
	for _, p := range f.Posts {
		item := newRSSItem(p)
		channel.Items = append(channel.Items, item)
		if item.Content != nil && item.Content.Content != "" {
			contentNS = "http://purl.org/rss/1.0/modules/content/"
		}
	}

	root := &rssFeedXML{Version: "2.0", ContentNamespace: contentNS, Channel: channel}
	out, err := xml.MarshalIndent(root, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("feed: encode rss: %w", err)
	}
	return append([]byte(xml.Header), out...), nil
}

func newRSSItem(p *Post) *rssItemXML {
	item := &rssItemXML{
		Title:       p.Title,
		Link:        p.Link,
		Description: p.Body,
		PubDate:     anyTimeFormat(time.RFC1123Z, p.Date),
	}
	if p.GUID != "" {
		isPermaLink := ""
		if p.GUIDIsLink {
			isPermaLink = "true"
		} else {
			isPermaLink = "false"
		}
		item.GUID = &rssGUIDXML{ID: p.GUID, IsPermaLink: isPermaLink}
	}
	if p.Source != nil {
		item.Source = p.Source.Href
	}
	if p.Enclosure != nil {
		item.Enclosure = &rssEnclosureXML{
			URL:    p.Enclosure.URL,
			Type:   p.Enclosure.Type,
			Length: strconv.FormatInt(p.Enclosure.Length, 10),
		}
	}
	if p.Author != nil {
		item.Author = formatAuthor(p.Author)
	}
	item.Extra = extensionsToRaw(p.Extensions)
	return item
}

func decodeRSS(data []byte) (*Feed, error) {
	var root rssFeedXML
	if err := xml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("feed: decode rss: %w", err)
	}
	if root.Channel == nil {
		return nil, fmt.Errorf("feed: decode rss: missing channel")
	}
	ch := root.Channel
	f := &Feed{
		Variant:     VariantRSS,
		Title:       ch.Title,
		Link:        ch.Link,
		Description: ch.Description,
		Language:    ch.Language,
		Copyright:   ch.Copyright,
		Extensions:  rawToExtensions(ch.Extra),
	}
	if ch.Category != "" {
		f.Categories = []Category{{Text: ch.Category}}
	}
	if ch.Image != nil {
		f.Image = &Image{URL: ch.Image.URL, Title: ch.Image.Title, Link: ch.Image.Link}
	}
	if t, err := parseRSSDate(ch.LastBuildDate); err == nil {
		f.Updated = t
	}
	for _, it := range ch.Items {
		f.Posts = append(f.Posts, rssItemToPost(it))
	}
	return f, nil
}

func rssItemToPost(it *rssItemXML) *Post {
	p := &Post{
		Title: it.Title,
		Link:  it.Link,
		Body:  it.Description,
	}
	if it.Content != nil && it.Content.Content != "" {
		p.Body = it.Content.Content
	}
	if it.GUID != nil {
		p.GUID = it.GUID.ID
		p.GUIDIsLink = it.GUID.IsPermaLink == "true"
	}
	if it.Source != "" {
		p.Source = &Link{Href: it.Source}
	}
	if it.Enclosure != nil {
		length, _ := strconv.ParseInt(it.Enclosure.Length, 10, 64)
		p.Enclosure = &Enclosure{URL: it.Enclosure.URL, Type: it.Enclosure.Type, Length: length}
	}
	if it.Author != "" {
		p.Author = parseAuthor(it.Author)
	}
	if t, err := parseRSSDate(it.PubDate); err == nil {
		p.Date = t
	}
	p.Extensions = rawToExtensions(it.Extra)
	EnsureGUID(p)
	return p
}

var rssDateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	time.RFC822,
	time.RFC3339,
}

func parseRSSDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("feed: empty date")
	}
	var lastErr error
	for _, layout := range rssDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		} else {
			lastErr = err
		}
	}
	return time.Time{}, lastErr
}
