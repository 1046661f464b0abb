package feed

import (
	"encoding/xml"
	"fmt"
	"strings"
)

// rawExtension is the wire-level catch-all used by the RSS/Atom struct trees
// (`xml:",any"`) to preserve unrecognized child elements verbatim across a
// parse/serialize round-trip.
type rawExtension struct {
	XMLName xml.Name
	Attrs   []xml.Attr `xml:",any,attr"`
	Content string     `xml:",innerxml"`
}

func extensionsToRaw(exts []Extension) []rawExtension {
	if len(exts) == 0 {
		return nil
	}
	out := make([]rawExtension, 0, len(exts))
	for _, e := range exts {
		raw := rawExtension{
			XMLName: xml.Name{Local: e.XMLName},
			Content: e.Content,
		}
		for k, v := range e.Attrs {
			raw.Attrs = append(raw.Attrs, xml.Attr{Name: xml.Name{Local: k}, Value: v})
		}
		out = append(out, raw)
	}
	return out
}

func rawToExtensions(raws []rawExtension) []Extension {
	if len(raws) == 0 {
		return nil
	}
	out := make([]Extension, 0, len(raws))
	for _, r := range raws {
		ext := Extension{
			XMLName: r.XMLName.Local,
			Content: r.Content,
		}
		if len(r.Attrs) > 0 {
			ext.Attrs = make(map[string]string, len(r.Attrs))
			for _, a := range r.Attrs {
				ext.Attrs[a.Name.Local] = a.Value
			}
		}
		out = append(out, ext)
	}
	return out
}

func formatAuthor(a *Author) string {
	if a == nil {
		return ""
	}
	if a.Name != "" && a.Email != "" {
		return fmt.Sprintf("%s (%s)", a.Email, a.Name)
	}
	if a.Email != "" {
		return a.Email
	}
	return a.Name
}

// parseAuthor recovers an Author from RSS's "email (Name)" convention,
// falling back to treating the whole string as a name when it isn't an
// email-shaped prefix.
func parseAuthor(s string) *Author {
	if s == "" {
		return nil
	}
	var email, name string
	if i := strings.IndexByte(s, '('); i >= 0 && strings.HasSuffix(s, ")") {
		email = strings.TrimSpace(s[:i])
		name = strings.TrimSpace(s[i+1 : len(s)-1])
	} else {
		email = strings.TrimSpace(s)
	}
	return &Author{Name: name, Email: email}
}
