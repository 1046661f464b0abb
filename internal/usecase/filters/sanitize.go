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
	register("sanitize", buildSanitize)
}

type sanitizeOp struct {
	kind          string // remove | remove_regex | replace | replace_regex
	from          string
	to            string
	caseSensitive bool
	compiled      *regexp.Regexp
}

type sanitizeFilter struct {
	ops []sanitizeOp
}

func buildSanitize(opts map[string]interface{}) (pipeline.Filter, error) {
	rawOps, _ := opts["ops"].([]interface{})
	ops := make([]sanitizeOp, 0, len(rawOps))
	for _, raw := range rawOps {
		m, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		op, err := parseSanitizeOp(m)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	return &sanitizeFilter{ops: ops}, nil
}

func parseSanitizeOp(m map[string]interface{}) (sanitizeOp, error) {
	op := sanitizeOp{caseSensitive: boolOpt(m, "case_sensitive", true)}
	switch {
	case m["remove"] != nil:
		op.kind = "remove"
		op.from, _ = m["remove"].(string)
	case m["remove_regex"] != nil:
		op.kind = "remove_regex"
		op.from, _ = m["remove_regex"].(string)
	case m["replace"] != nil:
		op.kind = "replace"
		rep, _ := m["replace"].(map[string]interface{})
		op.from, _ = rep["from"].(string)
		op.to, _ = rep["to"].(string)
	case m["replace_regex"] != nil:
		op.kind = "replace_regex"
		rep, _ := m["replace_regex"].(map[string]interface{})
		op.from, _ = rep["from"].(string)
		op.to, _ = rep["to"].(string)
	default:
		return op, fmt.Errorf("sanitize: op has no recognized kind")
	}

	if op.kind == "remove_regex" || op.kind == "replace_regex" {
		pattern := op.from
		if !op.caseSensitive {
			pattern = "(?i)" + pattern
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return op, fmt.Errorf("sanitize: compiling regex %q: %w", op.from, err)
		}
		op.compiled = re
	}
	return op, nil
}

func (f *sanitizeFilter) Name() string       { return "sanitize" }
func (f *sanitizeFilter) Kind() pipeline.Kind { return pipeline.KindPostWise }
func (f *sanitizeFilter) RunFeed(ctx context.Context, feedIn *feed.Feed) (*feed.Feed, error) {
	return feedIn, nil
}

func (f *sanitizeFilter) RunPost(ctx context.Context, feedIn *feed.Feed, p *feed.Post) (*feed.Post, error) {
	body := p.Body
	for _, op := range f.ops {
		body = applySanitizeOp(body, op)
	}
	p.Body = body
	return p, nil
}

func applySanitizeOp(body string, op sanitizeOp) string {
	switch op.kind {
	case "remove":
		if op.caseSensitive {
			return strings.ReplaceAll(body, op.from, "")
		}
		return replaceAllFold(body, op.from, "")
	case "remove_regex":
		return op.compiled.ReplaceAllString(body, "")
	case "replace":
		if op.caseSensitive {
			return strings.ReplaceAll(body, op.from, op.to)
		}
		return replaceAllFold(body, op.from, op.to)
	case "replace_regex":
		return op.compiled.ReplaceAllString(body, op.to)
	default:
		return body
	}
}

// replaceAllFold implements case-insensitive literal replacement; Go's
// strings package has no built-in for this, only regexp does, so a
// literal op with case_sensitive=false is compiled as a quoted regex.
func replaceAllFold(body, from, to string) string {
	if from == "" {
		return body
	}
	re := regexp.MustCompile("(?i)" + regexp.QuoteMeta(from))
	return re.ReplaceAllString(body, to)
}
