package filters

import (
	"context"
	"regexp"
	"strings"

	"catchup-feed/internal/domain/feed"
	"catchup-feed/internal/usecase/pipeline"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

func init() {
	register("highlight", buildHighlight)
}

type highlightFilter struct {
	terms         []string
	caseSensitive bool
}

func buildHighlight(opts map[string]interface{}) (pipeline.Filter, error) {
	terms := stringSliceOpt(opts, "terms")
	if len(terms) == 0 {
		terms = stringSliceOpt(opts, "value")
	}
	return &highlightFilter{
		terms:         terms,
		caseSensitive: boolOpt(opts, "case_sensitive", false),
	}, nil
}

func (f *highlightFilter) Name() string       { return "highlight" }
func (f *highlightFilter) Kind() pipeline.Kind { return pipeline.KindPostWise }
func (f *highlightFilter) RunFeed(ctx context.Context, feedIn *feed.Feed) (*feed.Feed, error) {
	return feedIn, nil
}

func (f *highlightFilter) RunPost(ctx context.Context, feedIn *feed.Feed, p *feed.Post) (*feed.Post, error) {
	if len(f.terms) == 0 {
		return p, nil
	}
	out, err := highlightHTML(p.Body, f.terms, f.caseSensitive)
	if err != nil {
		return p, nil
	}
	p.Body = out
	return p, nil
}

// highlightHTML walks the body's text nodes only, wrapping matched
// substrings in <mark>, so element structure and attributes are never
// disturbed.
func highlightHTML(body string, terms []string, caseSensitive bool) (string, error) {
	pattern := buildHighlightPattern(terms, caseSensitive)
	if pattern == nil {
		return body, nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(wrapFragment(body)))
	if err != nil {
		return "", err
	}

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode && strings.TrimSpace(n.Data) != "" {
			if pattern.MatchString(n.Data) {
				replaceTextNodeWithHighlight(n, pattern)
			}
			return
		}
		if n.Data == "mark" {
			return
		}
		for c := n.FirstChild; c != nil; {
			next := c.NextSibling
			walk(c)
			c = next
		}
	}
	doc.Find("body").Each(func(i int, s *goquery.Selection) {
		walk(s.Get(0))
	})

	return doc.Find("body").Html()
}

func buildHighlightPattern(terms []string, caseSensitive bool) *regexp.Regexp {
	escaped := make([]string, 0, len(terms))
	for _, t := range terms {
		if t != "" {
			escaped = append(escaped, regexp.QuoteMeta(t))
		}
	}
	if len(escaped) == 0 {
		return nil
	}
	pattern := "(" + strings.Join(escaped, "|") + ")"
	if !caseSensitive {
		pattern = "(?i)" + pattern
	}
	return regexp.MustCompile(pattern)
}

// replaceTextNodeWithHighlight splits a text node's data into plain and
// <mark>-wrapped runs, inserting sibling nodes in place of n.
func replaceTextNodeWithHighlight(n *html.Node, pattern *regexp.Regexp) {
	parent := n.Parent
	if parent == nil {
		return
	}
	matches := pattern.FindAllStringIndex(n.Data, -1)
	if len(matches) == 0 {
		return
	}

	var nodes []*html.Node
	last := 0
	for _, m := range matches {
		if m[0] > last {
			nodes = append(nodes, &html.Node{Type: html.TextNode, Data: n.Data[last:m[0]]})
		}
		mark := &html.Node{Type: html.ElementNode, Data: "mark"}
		mark.AppendChild(&html.Node{Type: html.TextNode, Data: n.Data[m[0]:m[1]]})
		nodes = append(nodes, mark)
		last = m[1]
	}
	if last < len(n.Data) {
		nodes = append(nodes, &html.Node{Type: html.TextNode, Data: n.Data[last:]})
	}

	for _, node := range nodes {
		parent.InsertBefore(node, n)
	}
	parent.RemoveChild(n)
}
