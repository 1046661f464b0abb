package filters

import (
	"context"
	"testing"

	"catchup-feed/internal/domain/feed"
	"catchup-feed/internal/infra/httpclient"
	"catchup-feed/internal/infra/jsruntime"
	"catchup-feed/internal/usecase/pipeline"

	"github.com/stretchr/testify/require"
)

func TestMain_InstallsScriptHost(t *testing.T) {
	SetScriptHost(jsruntime.New(httpclient.New(httpclient.DefaultConfig())))
}

func TestModifyPost_MutatesTitle(t *testing.T) {
	SetScriptHost(jsruntime.New(httpclient.New(httpclient.DefaultConfig())))
	filt, err := Build("modify_post", map[string]interface{}{
		"script": `function modify_post(post) { post.title = post.title.toUpperCase(); return post; }`,
	})
	require.NoError(t, err)

	p := &feed.Post{Title: "hello"}
	out, err := filt.RunPost(context.Background(), &feed.Feed{}, p)
	require.NoError(t, err)
	require.Equal(t, "HELLO", out.Title)
}

func TestModifyPost_NullReturnDeletesPost(t *testing.T) {
	SetScriptHost(jsruntime.New(httpclient.New(httpclient.DefaultConfig())))
	filt, err := Build("modify_post", map[string]interface{}{
		"script": `function modify_post(post) { return null; }`,
	})
	require.NoError(t, err)

	p := &feed.Post{Title: "hello"}
	out, err := filt.RunPost(context.Background(), &feed.Feed{}, p)
	require.NoError(t, err)
	require.Same(t, pipeline.Deleted(), out)
}

func TestLegacyJS_UpdatePostMutatesBody(t *testing.T) {
	SetScriptHost(jsruntime.New(httpclient.New(httpclient.DefaultConfig())))
	filt, err := Build("js", map[string]interface{}{
		"script": `function update_post(feed, post) { post.body = "<p>replaced</p>"; return post; }`,
	})
	require.NoError(t, err)

	f := &feed.Feed{Posts: []*feed.Post{{Title: "a", Body: "<p>orig</p>"}}}
	out, err := filt.RunFeed(context.Background(), f)
	require.NoError(t, err)
	require.Len(t, out.Posts, 1)
	require.Equal(t, "<p>replaced</p>", out.Posts[0].Body)
}
