package feedfetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"catchup-feed/internal/infra/httpclient"

	"github.com/stretchr/testify/require"
)

const sampleRSS = `<?xml version="1.0"?>
<rss version="2.0"><channel><title>Example</title><link>http://example.com</link>
<item><title>Hello</title><link>http://example.com/1</link><guid>http://example.com/1</guid>
<description>&lt;p&gt;world&lt;/p&gt;</description></item>
</channel></rss>`

func TestFetch_ParsesRemoteRSS(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(sampleRSS))
	}))
	defer srv.Close()

	fetcher := New(httpclient.New(httpclient.DefaultConfig()))
	f, err := fetcher.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, "Example", f.Title)
	require.Len(t, f.Posts, 1)
	require.Equal(t, "Hello", f.Posts[0].Title)
}

func TestFetch_ErrorsOnNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	fetcher := New(httpclient.New(httpclient.DefaultConfig()))
	_, err := fetcher.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
}
