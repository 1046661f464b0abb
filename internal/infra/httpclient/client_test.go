package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClient_GetReturnsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte("<rss></rss>"))
	}))
	defer srv.Close()

	c := New(DefaultConfig())
	resp, err := c.Get(context.Background(), srv.URL, nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "application/rss+xml", resp.ContentType)
	require.Equal(t, "<rss></rss>", string(resp.Body))
}

func TestClient_RejectsOversizedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(make([]byte, 100))
	}))
	defer srv.Close()

	cfg := DefaultConfig()
	cfg.MaxBodySize = 10
	c := New(cfg)
	_, err := c.Get(context.Background(), srv.URL, nil)
	require.Error(t, err)
}

func TestClient_PassesCustomHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "custom-value", r.Header.Get("X-Custom"))
		require.NotEmpty(t, r.Header.Get("User-Agent"))
	}))
	defer srv.Close()

	c := New(DefaultConfig())
	_, err := c.Get(context.Background(), srv.URL, map[string]string{"X-Custom": "custom-value"})
	require.NoError(t, err)
}

func TestValidateURL_RejectsNonHTTPScheme(t *testing.T) {
	err := ValidateURL("file:///etc/passwd", false)
	require.ErrorIs(t, err, ErrInvalidURL)
}

func TestValidateURL_RejectsPrivateIPWhenDenied(t *testing.T) {
	err := ValidateURL("http://127.0.0.1/", true)
	require.ErrorIs(t, err, ErrPrivateIP)
}

func TestValidateURL_AllowsPrivateIPWhenNotDenied(t *testing.T) {
	err := ValidateURL("http://127.0.0.1/", false)
	require.NoError(t, err)
}
