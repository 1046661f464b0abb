package feed

import (
	"encoding/xml"
	"fmt"
	"time"
)

// Atom wire structs, same shape-per-format approach as the RSS encoder.
type atomFeedXML struct {
	XMLName  xml.Name        `xml:"http://www.w3.org/2005/Atom feed"`
	Title    string          `xml:"title"`
	ID       string          `xml:"id"`
	Updated  string          `xml:"updated"`
	Link     []atomLinkXML   `xml:"link"`
	Subtitle string          `xml:"subtitle,omitempty"`
	Author   *atomAuthorXML  `xml:"author,omitempty"`
	Rights   string          `xml:"rights,omitempty"`
	Category []atomCatXML    `xml:"category,omitempty"`
	Entries  []*atomEntryXML `xml:"entry"`
	Extra    []rawExtension  `xml:",any"`
}

type atomLinkXML struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr,omitempty"`
}

type atomAuthorXML struct {
	Name  string `xml:"name"`
	Email string `xml:"email,omitempty"`
}

type atomCatXML struct {
	Term string `xml:"term,attr"`
}

type atomContentXML struct {
	Type    string `xml:"type,attr,omitempty"`
	Content string `xml:",cdata"`
}

type atomEntryXML struct {
	XMLName   xml.Name        `xml:"entry"`
	Title     string          `xml:"title"`
	ID        string          `xml:"id"`
	Link      []atomLinkXML   `xml:"link"`
	Updated   string          `xml:"updated"`
	Published string          `xml:"published,omitempty"`
	Summary   string          `xml:"summary,omitempty"`
	Content   *atomContentXML `xml:"content,omitempty"`
	Author    *atomAuthorXML  `xml:"author,omitempty"`
	Source    string          `xml:"source,omitempty"`
	Extra     []rawExtension  `xml:",any"`
}

func encodeAtom(f *Feed) ([]byte, error) {
	root := &atomFeedXML{
		Title:    f.Title,
		ID:       firstNonEmpty(f.ID, f.Link),
		Updated:  anyTimeFormat(time.RFC3339, f.Updated),
		Subtitle: f.Description,
		Rights:   f.Copyright,
		Extra:    extensionsToRaw(f.Extensions),
	}
	if f.Link != "" {
		root.Link = append(root.Link, atomLinkXML{Href: f.Link, Rel: "alternate"})
	}
	if f.Author != nil {
		root.Author = &atomAuthorXML{Name: f.Author.Name, Email: f.Author.Email}
	}
	for _, c := range f.Categories {
		root.Category = append(root.Category, atomCatXML{Term: c.Text})
	}
	for _, p := range f.Posts {
		root.Entries = append(root.Entries, newAtomEntry(p))
	}
	out, err := xml.MarshalIndent(root, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("feed: encode atom: %w", err)
	}
	return append([]byte(xml.Header), out...), nil
}

func newAtomEntry(p *Post) *atomEntryXML {
	e := &atomEntryXML{
		Title:   p.Title,
		ID:      firstNonEmpty(p.GUID, p.Link),
		Updated: anyTimeFormat(time.RFC3339, p.Date),
	}
	if p.Link != "" {
		e.Link = append(e.Link, atomLinkXML{Href: p.Link, Rel: "alternate"})
	}
	if p.Body != "" {
		e.Content = &atomContentXML{Type: "html", Content: p.Body}
	}
	if p.Author != nil {
		e.Author = &atomAuthorXML{Name: p.Author.Name, Email: p.Author.Email}
	}
	if p.Source != nil {
		e.Source = p.Source.Href
	}
	e.Extra = extensionsToRaw(p.Extensions)
	return e
}

func decodeAtom(data []byte) (*Feed, error) {
	var root atomFeedXML
	if err := xml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("feed: decode atom: %w", err)
	}
	f := &Feed{
		Variant:     VariantAtom,
		Title:       root.Title,
		ID:          root.ID,
		Description: root.Subtitle,
		Copyright:   root.Rights,
		Extensions:  rawToExtensions(root.Extra),
	}
	for _, l := range root.Link {
		if l.Rel == "" || l.Rel == "alternate" {
			f.Link = l.Href
			break
		}
	}
	if root.Author != nil {
		f.Author = &Author{Name: root.Author.Name, Email: root.Author.Email}
	}
	for _, c := range root.Category {
		f.Categories = append(f.Categories, Category{Text: c.Term})
	}
	if t, err := time.Parse(time.RFC3339, root.Updated); err == nil {
		f.Updated = t
	}
	for _, e := range root.Entries {
		f.Posts = append(f.Posts, atomEntryToPost(e))
	}
	return f, nil
}

func atomEntryToPost(e *atomEntryXML) *Post {
	p := &Post{
		Title: e.Title,
		GUID:  e.ID,
	}
	for _, l := range e.Link {
		if l.Rel == "" || l.Rel == "alternate" {
			p.Link = l.Href
			break
		}
	}
	if e.Content != nil {
		p.Body = e.Content.Content
	} else {
		p.Body = e.Summary
	}
	if e.Author != nil {
		p.Author = &Author{Name: e.Author.Name, Email: e.Author.Email}
	}
	if e.Source != "" {
		p.Source = &Link{Href: e.Source}
	}
	dateStr := e.Published
	if dateStr == "" {
		dateStr = e.Updated
	}
	if t, err := time.Parse(time.RFC3339, dateStr); err == nil {
		p.Date = t
	}
	p.Extensions = rawToExtensions(e.Extra)
	EnsureGUID(p)
	return p
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
