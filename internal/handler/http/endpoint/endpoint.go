// Package endpoint implements the GET <endpoint-path> handler: resolve
// source, run the configured filter pipeline, negotiate an output
// content-type, and serialize per spec §4.7.
package endpoint

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"catchup-feed/internal/domain/config"
	"catchup-feed/internal/domain/feed"
	"catchup-feed/internal/handler/http/respond"
	"catchup-feed/internal/usecase/pipeline"
	"catchup-feed/internal/usecase/resolver"
)

// Runner is the collaborator that resolves and filters one endpoint's
// feed; implemented by internal/usecase/endpointsvc.Service.
type Runner interface {
	Run(ctx context.Context, ep *config.EndpointConfig, params url.Values) (*feed.Feed, error)
}

// Handler serves every configured endpoint path from a single
// http.Handler registered at "/", looking the path up in Doc on every
// request so a config reload (an atomically swapped pointer) is picked
// up without re-registering routes.
type Handler struct {
	Doc    *config.Document
	Runner Runner
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ep, ok := h.Doc.Endpoint(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}

	f, err := h.Runner.Run(r.Context(), ep, r.URL.Query())
	if err != nil {
		if errors.Is(err, resolver.ErrSourceRequired) {
			respond.Error(w, http.StatusBadRequest, err)
			return
		}
		if errors.Is(err, resolver.ErrCycle) {
			respond.Error(w, http.StatusLoopDetected, err)
			return
		}
		var feedErr *pipeline.FeedError
		if errors.As(err, &feedErr) {
			slog.Error("endpoint: filter failed", slog.String("path", ep.Path), slog.Any("error", err))
			respond.SafeError(w, http.StatusInternalServerError, err)
			return
		}
		slog.Error("endpoint: source resolution failed", slog.String("path", ep.Path), slog.Any("error", err))
		respond.SafeError(w, http.StatusBadGateway, err)
		return
	}

	variant := negotiateVariant(f.Variant, r)
	body, contentType, err := feed.Serialize(f, variant)
	if err != nil {
		slog.Error("endpoint: serialization failed", slog.String("path", ep.Path), slog.Any("error", err))
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}

	if prettyPrintRequested(r) {
		body = prettyPrint(body, variant)
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// negotiateVariant implements §4.7 step 5: query ?format= overrides,
// else the feed's own current variant, else Accept-header negotiation,
// else RSS.
func negotiateVariant(current feed.Variant, r *http.Request) feed.Variant {
	if v, ok := variantFromName(r.URL.Query().Get("format")); ok {
		return v
	}
	if current != "" {
		return current
	}
	if v, ok := variantFromAccept(r.Header.Get("Accept")); ok {
		return v
	}
	return feed.VariantRSS
}

func variantFromName(name string) (feed.Variant, bool) {
	switch strings.ToLower(name) {
	case "rss":
		return feed.VariantRSS, true
	case "atom":
		return feed.VariantAtom, true
	case "json":
		return feed.VariantJSON, true
	}
	return "", false
}

func variantFromAccept(accept string) (feed.Variant, bool) {
	if accept == "" {
		return "", false
	}
	for _, part := range strings.Split(accept, ",") {
		media := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		switch media {
		case "application/atom+xml":
			return feed.VariantAtom, true
		case "application/feed+json", "application/json":
			return feed.VariantJSON, true
		case "application/rss+xml", "application/xml", "text/xml":
			return feed.VariantRSS, true
		}
	}
	return "", false
}

func prettyPrintRequested(r *http.Request) bool {
	v := r.URL.Query().Get("pp")
	return v != "" && v != "0" && v != "false"
}

// xmlNode is a generic XML tree node used only to re-indent an already
// serialized document: encoding/xml has no interface{}-style generic
// decode the way encoding/json does, so pretty-printing arbitrary XML
// needs its own recursive node type with custom (Un)MarshalXML.
type xmlNode struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Content  string     `xml:",chardata"`
	Children []xmlNode  `xml:",any"`
}

func (n *xmlNode) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	n.XMLName = start.Name
	n.Attrs = start.Attr
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			var child xmlNode
			if err := child.UnmarshalXML(d, t); err != nil {
				return err
			}
			n.Children = append(n.Children, child)
		case xml.CharData:
			n.Content += string(t)
		case xml.EndElement:
			return nil
		}
	}
}

func (n xmlNode) MarshalXML(e *xml.Encoder, _ xml.StartElement) error {
	start := xml.StartElement{Name: n.XMLName, Attr: n.Attrs}
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	if trimmed := strings.TrimSpace(n.Content); trimmed != "" {
		if err := e.EncodeToken(xml.CharData(n.Content)); err != nil {
			return err
		}
	}
	for _, child := range n.Children {
		if err := e.Encode(child); err != nil {
			return err
		}
	}
	return e.EncodeToken(xml.EndElement{Name: n.XMLName})
}

// prettyPrint reformats the serialized body for readability. XML
// variants get indentation via a generic re-decode/re-encode pass
// through xmlNode; JSON gets json.Indent. Any failure returns the
// original bytes unchanged rather than erroring the whole response
// over a cosmetic feature.
func prettyPrint(body []byte, variant feed.Variant) []byte {
	if variant == feed.VariantJSON {
		var buf bytes.Buffer
		if err := json.Indent(&buf, body, "", "  "); err != nil {
			return body
		}
		return buf.Bytes()
	}

	var root xmlNode
	if err := xml.Unmarshal(body, &root); err != nil {
		return body
	}
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(root); err != nil {
		return body
	}
	return buf.Bytes()
}
