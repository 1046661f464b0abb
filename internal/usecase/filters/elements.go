package filters

import (
	"context"
	"strings"

	"catchup-feed/internal/domain/feed"
	"catchup-feed/internal/usecase/pipeline"

	"github.com/PuerkitoBio/goquery"
)

func init() {
	register("keep_element", buildKeepElement)
	register("remove_element", buildRemoveElement)
}

type keepElementFilter struct {
	selectors []string
}

func buildKeepElement(opts map[string]interface{}) (pipeline.Filter, error) {
	sel := stringSliceOpt(opts, "selector")
	if len(sel) == 0 {
		sel = stringSliceOpt(opts, "value")
	}
	return &keepElementFilter{selectors: sel}, nil
}

func (f *keepElementFilter) Name() string       { return "keep_element" }
func (f *keepElementFilter) Kind() pipeline.Kind { return pipeline.KindPostWise }
func (f *keepElementFilter) RunFeed(ctx context.Context, feedIn *feed.Feed) (*feed.Feed, error) {
	return feedIn, nil
}

func (f *keepElementFilter) RunPost(ctx context.Context, feedIn *feed.Feed, p *feed.Post) (*feed.Post, error) {
	out, err := selectKeep(p.Body, f.selectors)
	if err != nil {
		return p, nil
	}
	p.Body = out
	return p, nil
}

type removeElementFilter struct {
	selectors []string
}

func buildRemoveElement(opts map[string]interface{}) (pipeline.Filter, error) {
	sel := stringSliceOpt(opts, "selector")
	if len(sel) == 0 {
		sel = stringSliceOpt(opts, "value")
	}
	return &removeElementFilter{selectors: sel}, nil
}

func (f *removeElementFilter) Name() string       { return "remove_element" }
func (f *removeElementFilter) Kind() pipeline.Kind { return pipeline.KindPostWise }
func (f *removeElementFilter) RunFeed(ctx context.Context, feedIn *feed.Feed) (*feed.Feed, error) {
	return feedIn, nil
}

func (f *removeElementFilter) RunPost(ctx context.Context, feedIn *feed.Feed, p *feed.Post) (*feed.Post, error) {
	out, err := selectRemove(p.Body, f.selectors)
	if err != nil {
		return p, nil
	}
	p.Body = out
	return p, nil
}

// selectKeep keeps only the elements matching any selector, concatenated
// in document order, per spec §4.4's keep_element contract.
func selectKeep(body string, selectors []string) (string, error) {
	if len(selectors) == 0 {
		return body, nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(wrapFragment(body)))
	if err != nil {
		return "", err
	}

	combined := strings.Join(selectors, ", ")
	var kept []string
	doc.Find(combined).Each(func(i int, s *goquery.Selection) {
		if html, err := goquery.OuterHtml(s); err == nil {
			kept = append(kept, html)
		}
	})
	return strings.Join(kept, ""), nil
}

// selectRemove removes every element matching any selector and returns
// the remaining body HTML.
func selectRemove(body string, selectors []string) (string, error) {
	if len(selectors) == 0 {
		return body, nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(wrapFragment(body)))
	if err != nil {
		return "", err
	}
	for _, sel := range selectors {
		doc.Find(sel).Remove()
	}
	return innerBodyHTML(doc)
}

// wrapFragment wraps a body fragment so goquery parses it as a complete
// document while keeping the fragment's own structure intact.
func wrapFragment(body string) string {
	return "<html><body>" + body + "</body></html>"
}

// innerBodyHTML returns the <body> inner HTML of doc, undoing the
// wrapFragment wrapping so callers never see <html>/<body> tags added by
// the parser, per the JS runtime's set_inner_html round-trip contract.
func innerBodyHTML(doc *goquery.Document) (string, error) {
	return doc.Find("body").Html()
}
