package jsruntime

import (
	"context"
	"testing"
	"time"

	"catchup-feed/internal/infra/httpclient"

	"github.com/stretchr/testify/require"
)

func TestRun_CallsEntryAndReturnsValue(t *testing.T) {
	h := New(httpclient.New(httpclient.DefaultConfig()))
	src := `function double(x) { return x * 2; }`
	result, err := h.Run(context.Background(), src, "double", 21)
	require.NoError(t, err)
	require.EqualValues(t, 42, result)
}

func TestRun_ConsoleLogDoesNotError(t *testing.T) {
	h := New(httpclient.New(httpclient.DefaultConfig()))
	src := `function run() { console.log("hi"); return 1; }`
	result, err := h.Run(context.Background(), src, "run")
	require.NoError(t, err)
	require.EqualValues(t, 1, result)
}

func TestRun_Blake2sIsDeterministic(t *testing.T) {
	h := New(httpclient.New(httpclient.DefaultConfig()))
	src := `function run() { return blake2s("hello"); }`
	r1, err := h.Run(context.Background(), src, "run")
	require.NoError(t, err)
	r2, err := h.Run(context.Background(), src, "run")
	require.NoError(t, err)
	require.Equal(t, r1, r2)
}

func TestRun_DOMSetInnerHTMLDoesNotWrapInHTMLTag(t *testing.T) {
	h := New(httpclient.New(httpclient.DefaultConfig()))
	src := `
	function run() {
		var root = new DOM("<p>original</p>");
		root.set_inner_html("<b>new</b>");
		return root.outer_html();
	}`
	result, err := h.Run(context.Background(), src, "run")
	require.NoError(t, err)
	html, ok := result.(string)
	require.True(t, ok)
	require.NotContains(t, html, "<html>")
	require.Contains(t, html, "<b>new</b>")
}

func TestRun_ReturnsScriptErrorOnUndefinedEntry(t *testing.T) {
	h := New(httpclient.New(httpclient.DefaultConfig()))
	_, err := h.Run(context.Background(), `var x = 1;`, "missing_fn")
	require.Error(t, err)
	var scriptErr *ScriptError
	require.ErrorAs(t, err, &scriptErr)
}

func TestRun_InterruptsOnCancellation(t *testing.T) {
	h := New(httpclient.New(httpclient.DefaultConfig()))
	ctx, cancel := context.WithCancel(context.Background())
	src := `function run() { while (true) {} }`

	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := h.Run(ctx, src, "run")
	require.Error(t, err)
	var scriptErr *ScriptError
	require.ErrorAs(t, err, &scriptErr)
	require.Equal(t, "interrupted", scriptErr.Phase)
}
