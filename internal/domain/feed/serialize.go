package feed

import "fmt"

// ContentType returns the HTTP content type for a Variant.
func (v Variant) ContentType() string {
	switch v {
	case VariantAtom:
		return "application/atom+xml"
	case VariantJSON:
		return "application/feed+json"
	default:
		return "application/rss+xml"
	}
}

// Serialize renders the feed in the given variant, returning the body and
// its content type. Per spec §4.1, serializing a feed must round-trip any
// feed the parser produced except where convert_to explicitly changed the
// variant — so this dispatches purely on the requested variant, not on
// f.Variant (the caller passes f.Variant when no override is wanted).
func Serialize(f *Feed, variant Variant) ([]byte, string, error) {
	switch variant {
	case VariantAtom:
		out, err := encodeAtom(f)
		return out, variant.ContentType(), err
	case VariantJSON:
		out, err := encodeJSONFeed(f)
		return out, variant.ContentType(), err
	case VariantRSS:
		out, err := encodeRSS(f)
		return out, variant.ContentType(), err
	default:
		return nil, "", fmt.Errorf("feed: unknown variant %q", variant)
	}
}
