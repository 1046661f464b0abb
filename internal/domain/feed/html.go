package feed

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// wrapHTML implements the §4.1 HTML-wrapping fallback: a bare HTML page
// becomes a single-post feed whose title is <title>, link is the request
// URL, and body is the stripped <body> inner HTML.
func wrapHTML(body []byte, requestURL string) *Feed {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	title := ""
	inner := string(body)
	if err == nil {
		title = strings.TrimSpace(doc.Find("title").First().Text())
		if bodySel := doc.Find("body").First(); bodySel.Length() > 0 {
			if html, err := bodySel.Html(); err == nil {
				inner = html
			}
		}
	}

	f := &Feed{
		Variant: VariantRSS,
		Title:   title,
		Link:    requestURL,
	}
	p := &Post{
		Title: title,
		Link:  requestURL,
		Body:  inner,
	}
	EnsureGUID(p)
	f.Add(p)
	return f
}
