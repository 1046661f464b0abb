package filters

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"catchup-feed/internal/domain/feed"
	"catchup-feed/internal/usecase/pipeline"
)

func init() {
	register("keep_only", func(opts map[string]interface{}) (pipeline.Filter, error) {
		return buildFieldMatchFilter(opts, true)
	})
	register("discard", func(opts map[string]interface{}) (pipeline.Filter, error) {
		return buildFieldMatchFilter(opts, false)
	})
}

type matcher struct {
	field         string
	pattern       string
	isRegex       bool
	caseSensitive bool
	compiled      *regexp.Regexp
}

type fieldMatchFilter struct {
	name     string
	keep     bool
	matchers []matcher
}

func buildFieldMatchFilter(opts map[string]interface{}, keep bool) (pipeline.Filter, error) {
	name := "discard"
	if keep {
		name = "keep_only"
	}
	rawCriteria, _ := opts["criteria"].([]interface{})
	matchers := make([]matcher, 0, len(rawCriteria))
	for _, raw := range rawCriteria {
		m, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		mm := matcher{
			field:         stringOpt(m, "field", ""),
			pattern:       stringOpt(m, "pattern", ""),
			isRegex:       boolOpt(m, "regex", false),
			caseSensitive: boolOpt(m, "case_sensitive", true),
		}
		if mm.field == "" {
			return nil, fmt.Errorf("%s: criterion missing field", name)
		}
		if mm.isRegex {
			pattern := mm.pattern
			if !mm.caseSensitive {
				pattern = "(?i)" + pattern
			}
			re, err := regexp.Compile(pattern)
			if err != nil {
				return nil, fmt.Errorf("%s: compiling pattern %q: %w", name, mm.pattern, err)
			}
			mm.compiled = re
		}
		matchers = append(matchers, mm)
	}
	return &fieldMatchFilter{name: name, keep: keep, matchers: matchers}, nil
}

func (f *fieldMatchFilter) Name() string       { return f.name }
func (f *fieldMatchFilter) Kind() pipeline.Kind { return pipeline.KindFeedWise }
func (f *fieldMatchFilter) RunPost(ctx context.Context, feedIn *feed.Feed, p *feed.Post) (*feed.Post, error) {
	return p, nil
}

func (f *fieldMatchFilter) RunFeed(ctx context.Context, feedIn *feed.Feed) (*feed.Feed, error) {
	next := make([]*feed.Post, 0, len(feedIn.Posts))
	for _, p := range feedIn.Posts {
		anyMatch := f.anyMatcherMatches(p)
		if f.keep == anyMatch {
			next = append(next, p)
		}
	}
	feedIn.Posts = next
	return feedIn, nil
}

func (f *fieldMatchFilter) anyMatcherMatches(p *feed.Post) bool {
	for _, m := range f.matchers {
		if matcherMatches(m, p) {
			return true
		}
	}
	return false
}

func matcherMatches(m matcher, p *feed.Post) bool {
	value := fieldValue(m.field, p)
	if m.isRegex {
		return m.compiled.MatchString(value)
	}
	if m.caseSensitive {
		return strings.Contains(value, m.pattern)
	}
	return strings.Contains(strings.ToLower(value), strings.ToLower(m.pattern))
}

func fieldValue(field string, p *feed.Post) string {
	switch field {
	case "title":
		return p.Title
	case "body":
		return p.Body
	case "link":
		return p.Link
	case "author":
		if p.Author != nil {
			return p.Author.Name
		}
		return ""
	default:
		return ""
	}
}
