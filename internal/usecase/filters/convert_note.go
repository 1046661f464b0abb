package filters

import (
	"context"
	"fmt"

	"catchup-feed/internal/domain/feed"
	"catchup-feed/internal/usecase/pipeline"
)

func init() {
	register("convert_to", buildConvertTo)
	register("note", buildNote)
}

type convertToFilter struct {
	variant feed.Variant
}

func buildConvertTo(opts map[string]interface{}) (pipeline.Filter, error) {
	format := stringOpt(opts, "format", stringOpt(opts, "value", ""))
	var variant feed.Variant
	switch format {
	case "rss":
		variant = feed.VariantRSS
	case "atom":
		variant = feed.VariantAtom
	case "json":
		variant = feed.VariantJSON
	default:
		return nil, fmt.Errorf("convert_to: unknown format %q", format)
	}
	return &convertToFilter{variant: variant}, nil
}

func (f *convertToFilter) Name() string       { return "convert_to" }
func (f *convertToFilter) Kind() pipeline.Kind { return pipeline.KindFeedWise }
func (f *convertToFilter) RunPost(ctx context.Context, feedIn *feed.Feed, p *feed.Post) (*feed.Post, error) {
	return p, nil
}

func (f *convertToFilter) RunFeed(ctx context.Context, feedIn *feed.Feed) (*feed.Feed, error) {
	feedIn.Variant = f.variant
	return feedIn, nil
}

// noteFilter is a documentation-only pass-through: it exists so an
// endpoint's pipeline can carry operator-facing notes without affecting
// the feed.
type noteFilter struct{}

func buildNote(opts map[string]interface{}) (pipeline.Filter, error) {
	return &noteFilter{}, nil
}

func (noteFilter) Name() string       { return "note" }
func (noteFilter) Kind() pipeline.Kind { return pipeline.KindFeedWise }
func (noteFilter) RunPost(ctx context.Context, feedIn *feed.Feed, p *feed.Post) (*feed.Post, error) {
	return p, nil
}
func (noteFilter) RunFeed(ctx context.Context, feedIn *feed.Feed) (*feed.Feed, error) {
	return feedIn, nil
}
