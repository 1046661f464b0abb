package feed

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html/charset"
)

// ParseError reports a failure to recognize or decode a fetched source body.
// Typed so callers can distinguish it from a fetch (network) failure via
// errors.As, matching the SourceError split in spec §7.
type ParseError struct {
	ContentType string
	Err         error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("feed: parse %q: %v", e.ContentType, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Parse normalizes a fetched body into a Feed, following the content-type
// and root-element detection rules from spec §4.1. requestURL anchors the
// HTML wrapping fallback's link field when the body is a bare HTML page.
func Parse(body []byte, contentType string, requestURL string) (*Feed, error) {
	body, err := transcodeToUTF8(body, contentType)
	if err != nil {
		return nil, &ParseError{ContentType: contentType, Err: err}
	}

	ct := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	switch {
	case ct == "application/json" || ct == "application/feed+json":
		f, err := decodeJSONFeed(body)
		if err != nil {
			return nil, &ParseError{ContentType: contentType, Err: err}
		}
		return f, nil
	case ct == "application/atom+xml":
		f, err := decodeAtom(body)
		if err != nil {
			return nil, &ParseError{ContentType: contentType, Err: err}
		}
		return f, nil
	case ct == "text/html":
		return wrapHTML(body, requestURL), nil
	}

	root, rootErr := sniffXMLRoot(body)
	switch {
	case rootErr == nil && root == "feed":
		f, err := decodeAtom(body)
		if err != nil {
			return nil, &ParseError{ContentType: contentType, Err: err}
		}
		return f, nil
	case rootErr == nil && root == "rss":
		f, err := decodeRSS(body)
		if err != nil {
			return nil, &ParseError{ContentType: contentType, Err: err}
		}
		return f, nil
	case rootErr == nil && root == "html":
		return wrapHTML(body, requestURL), nil
	}

	// Content-type named an xml-ish type but the root sniff failed (or
	// named nothing recognizable); try JSON as a last resort since some
	// servers mislabel JSON Feed responses, then give up.
	if f, err := decodeJSONFeed(body); err == nil && len(f.Posts) > 0 {
		return f, nil
	}
	return nil, &ParseError{ContentType: contentType, Err: fmt.Errorf("unrecognized feed body")}
}

// sniffXMLRoot returns the local name of the document's root element.
func sniffXMLRoot(body []byte) (string, error) {
	dec := xml.NewDecoder(bytes.NewReader(body))
	dec.CharsetReader = charset.NewReaderLabel
	for {
		tok, err := dec.Token()
		if err != nil {
			if err == io.EOF {
				return "", fmt.Errorf("feed: no root element")
			}
			return "", err
		}
		if se, ok := tok.(xml.StartElement); ok {
			return se.Name.Local, nil
		}
	}
}

// transcodeToUTF8 converts non-UTF-8 input to UTF-8 using the declared
// charset (HTTP Content-Type or <?xml encoding=...?>), falling back to
// UTF-8-with-replacement for unrecognized encodings per spec §4.1.
func transcodeToUTF8(body []byte, contentType string) ([]byte, error) {
	r, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		// Unrecognized encoding: fall back to the original bytes treated
		// as UTF-8 with replacement, rather than failing the parse.
		return body, nil
	}
	out, err := io.ReadAll(r)
	if err != nil {
		return body, nil
	}
	return out, nil
}
