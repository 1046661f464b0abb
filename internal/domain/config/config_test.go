package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const sampleYAML = `
auth:
  username: admin
  password: secret
cache:
  max_entries: 10
endpoints:
  - path: "/foo.xml"
    note: "example"
    source: "http://example.com/feed"
    filters:
      - simplify_html: {}
      - keep_element:
          selector: ".article"
  - path: "/bar.xml"
    source:
      format: rss
      title: "Scratch"
    filters: []
`

func TestDocument_UnmarshalAndValidate(t *testing.T) {
	var doc Document
	require.NoError(t, yaml.Unmarshal([]byte(sampleYAML), &doc))
	doc.Normalize()
	require.NoError(t, doc.Validate())

	require.Equal(t, "admin", doc.Auth.Username)
	require.Equal(t, 10, doc.Cache.MaxEntries)
	require.Equal(t, int64(64*1024*1024), doc.Cache.MaxBytes)

	require.Len(t, doc.Endpoints, 2)
	ep0 := doc.Endpoints[0]
	require.Equal(t, "/foo.xml", ep0.Path)
	require.False(t, ep0.Source.Scratch)
	require.Equal(t, "http://example.com/feed", ep0.Source.URL)
	require.Len(t, ep0.Filters, 2)
	require.Equal(t, "simplify_html", ep0.Filters[0].Name)
	require.Equal(t, "keep_element", ep0.Filters[1].Name)
	require.Equal(t, ".article", ep0.Filters[1].Options["selector"])

	ep1 := doc.Endpoints[1]
	require.True(t, ep1.Source.Scratch)
	require.Equal(t, "rss", ep1.Source.Format)
}

func TestDocument_ValidateRejectsBadPath(t *testing.T) {
	doc := Document{Endpoints: []EndpointConfig{{Path: "foo.xml"}}}
	require.Error(t, doc.Validate())
}

func TestDocument_ValidateRejectsDuplicatePath(t *testing.T) {
	doc := Document{Endpoints: []EndpointConfig{{Path: "/a"}, {Path: "/a"}}}
	require.Error(t, doc.Validate())
}

func TestLoad_ReadsAndValidatesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "funnel.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o644))

	doc, err := Load(path)
	require.NoError(t, err)
	require.True(t, doc.Loaded())
	require.Equal(t, 2, doc.EndpointCount())

	ep, ok := doc.Endpoint("/bar.xml")
	require.True(t, ok)
	require.True(t, ep.Source.Scratch)
}

func TestLoad_ErrorsOnMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path.yaml")
	require.Error(t, err)
}
