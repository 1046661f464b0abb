package feed

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

const sampleRSS = `<rss><channel><title>T</title><item><link>http://x/a</link><title>A</title><description>&lt;p&gt;hi&lt;/p&gt;</description></item></channel></rss>`

func TestParse_RSSRoot(t *testing.T) {
	f, err := Parse([]byte(sampleRSS), "application/rss+xml", "")
	require.NoError(t, err)
	require.Equal(t, VariantRSS, f.Variant)
	require.Len(t, f.Posts, 1)
	require.Equal(t, "A", f.Posts[0].Title)
	require.Equal(t, "<p>hi</p>", f.Posts[0].Body)
}

func TestParse_SniffsRootWhenContentTypeGeneric(t *testing.T) {
	f, err := Parse([]byte(sampleRSS), "text/xml", "")
	require.NoError(t, err)
	require.Equal(t, VariantRSS, f.Variant)
}

// TestRoundTrip_RSS checks that serializing a parsed feed and parsing the
// result again yields an equivalent feed.
func TestRoundTrip_RSS(t *testing.T) {
	f, err := Parse([]byte(sampleRSS), "application/rss+xml", "")
	require.NoError(t, err)

	out, ct, err := Serialize(f, VariantRSS)
	require.NoError(t, err)
	require.Equal(t, "application/rss+xml", ct)

	f2, err := Parse(out, "application/rss+xml", "")
	require.NoError(t, err)

	require.Len(t, f2.Posts, len(f.Posts))
	if diff := cmp.Diff(f.Posts[0].Title, f2.Posts[0].Title); diff != "" {
		t.Errorf("title mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, f.Posts[0].Body, f2.Posts[0].Body)
	require.Equal(t, f.Posts[0].Link, f2.Posts[0].Link)
}

func TestRoundTrip_Atom(t *testing.T) {
	f := &Feed{Variant: VariantAtom, Title: "Feed", Link: "http://x/"}
	p := &Post{Title: "Entry", Link: "http://x/1", Body: "<p>body</p>"}
	EnsureGUID(p)
	f.Add(p)

	out, _, err := Serialize(f, VariantAtom)
	require.NoError(t, err)

	f2, err := Parse(out, "application/atom+xml", "")
	require.NoError(t, err)
	require.Len(t, f2.Posts, 1)
	require.Equal(t, "Entry", f2.Posts[0].Title)
	require.Equal(t, "<p>body</p>", f2.Posts[0].Body)
}

func TestEnsureGUID_Deterministic(t *testing.T) {
	p1 := &Post{Link: "http://x/a", Title: "A"}
	p2 := &Post{Link: "http://x/a", Title: "A"}
	EnsureGUID(p1)
	EnsureGUID(p2)
	require.Equal(t, p1.GUID, p2.GUID)
}

func TestWrapHTML(t *testing.T) {
	html := `<html><head><title>Hi</title></head><body><p>content</p></body></html>`
	f := wrapHTML([]byte(html), "http://x/page")
	require.Len(t, f.Posts, 1)
	require.Equal(t, "Hi", f.Title)
	require.Equal(t, "http://x/page", f.Posts[0].Link)
	require.Contains(t, f.Posts[0].Body, "<p>content</p>")
}

func TestJSONFeed_RoundTrip(t *testing.T) {
	f := &Feed{Variant: VariantJSON, Title: "JF"}
	p := &Post{Title: "Item", Link: "http://x/1", Body: "<p>hi</p>"}
	EnsureGUID(p)
	f.Add(p)

	out, ct, err := Serialize(f, VariantJSON)
	require.NoError(t, err)
	require.Equal(t, "application/feed+json", ct)

	f2, err := Parse(out, "application/json", "")
	require.NoError(t, err)
	require.True(t, f2.Posts[0].JSONFeed)
	require.Equal(t, "Item", f2.Posts[0].Title)
}
