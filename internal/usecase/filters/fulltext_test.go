package filters

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"catchup-feed/internal/domain/feed"
	"catchup-feed/internal/infra/httpclient"

	"github.com/stretchr/testify/require"
)

func TestBuildFullText_ReadsOptionsFromSpecKeys(t *testing.T) {
	filt, err := Build("full_text", map[string]interface{}{
		"timeout":     float64(5),
		"parallelism": float64(3),
		"simplify":    true,
		"append_mode": true,
	})
	require.NoError(t, err)

	ft, ok := filt.(*fullTextFilter)
	require.True(t, ok)
	require.Equal(t, 5*time.Second, ft.timeout)
	require.Equal(t, 3, ft.parallelism)
	require.True(t, ft.simplify)
	require.True(t, ft.appendMode)
}

func TestBuildFullText_DefaultsParallelismTo20(t *testing.T) {
	filt, err := Build("full_text", nil)
	require.NoError(t, err)

	ft, ok := filt.(*fullTextFilter)
	require.True(t, ok)
	require.Equal(t, 20, ft.parallelism)
	require.Equal(t, 10*time.Second, ft.timeout)
}

// TestFullText_PerFilterParallelismCap covers P6: a full_text filter
// configured with parallelism=k never has more than k concurrent
// outstanding upstream fetches, regardless of how many posts are
// dispatched against it at once.
func TestFullText_PerFilterParallelismCap(t *testing.T) {
	var (
		mu      sync.Mutex
		current int
		max     int
	)
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		current++
		if current > max {
			max = current
		}
		mu.Unlock()

		<-release

		mu.Lock()
		current--
		mu.Unlock()
		_, _ = w.Write([]byte("<html><body><p>article</p></body></html>"))
	}))
	defer srv.Close()

	const parallelism = 2
	const posts = 5
	f := &fullTextFilter{
		client: httpclient.New(httpclient.Config{
			Timeout:        5 * time.Second,
			MaxRedirects:   5,
			MaxBodySize:    1 << 20,
			DenyPrivateIPs: false,
			UserAgent:      "test",
		}),
		timeout:     5 * time.Second,
		parallelism: parallelism,
		sem:         make(chan struct{}, parallelism),
	}

	feedIn := &feed.Feed{}
	var wg sync.WaitGroup
	for i := 0; i < posts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p := &feed.Post{Link: srv.URL}
			_, err := f.RunPost(context.Background(), feedIn, p)
			require.NoError(t, err)
		}()
	}

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return current == parallelism
	}, time.Second, time.Millisecond)

	close(release)
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, parallelism, max, "at most parallelism fetches should be in flight at once")
}

func TestFullText_FetchFailureLeavesPostUnchanged(t *testing.T) {
	f := &fullTextFilter{
		client: httpclient.New(httpclient.Config{
			Timeout:        time.Second,
			MaxRedirects:   5,
			MaxBodySize:    1 << 20,
			DenyPrivateIPs: false,
			UserAgent:      "test",
		}),
		timeout:     time.Second,
		parallelism: 1,
		sem:         make(chan struct{}, 1),
	}

	original := &feed.Post{Link: "http://127.0.0.1:1/does-not-listen", Body: "original"}
	out, err := f.RunPost(context.Background(), &feed.Feed{}, original)
	require.NoError(t, err)
	require.Same(t, original, out)
	require.Equal(t, "original", out.Body)
}

func TestSimplifyHTML_NoOpOnMinimalFragment(t *testing.T) {
	filt, err := Build("simplify_html", nil)
	require.NoError(t, err)

	p := &feed.Post{Body: "<p>hi</p>"}
	out, err := filt.RunPost(context.Background(), &feed.Feed{}, p)
	require.NoError(t, err)
	require.Equal(t, "<p>hi</p>", out.Body)
}
