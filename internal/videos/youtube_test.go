package videos

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetVideo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/videos", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "test-key", q.Get("key"))
		assert.Equal(t, "dQw4w9WgXcQ", q.Get("id"))
		assert.Equal(t, "snippet,contentDetails", q.Get("part"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"items": [{
				"id": "dQw4w9WgXcQ",
				"snippet": {
					"title": "Never Gonna Give You Up",
					"channelTitle": "Rick Astley",
					"thumbnails": {
						"high": {"url": "https://i.ytimg.com/vi/dQw4w9WgXcQ/hqdefault.jpg"},
						"default": {"url": "https://i.ytimg.com/vi/dQw4w9WgXcQ/default.jpg"}
					}
				},
				"contentDetails": {"duration": "PT3M33S"}
			}]
		}`))
	}))
	defer srv.Close()

	client := NewYouTubeClient("test-key", srv.URL)
	meta, err := client.GetVideo(context.Background(), "dQw4w9WgXcQ")
	require.NoError(t, err)

	assert.Equal(t, "dQw4w9WgXcQ", meta.ID)
	assert.Equal(t, "Never Gonna Give You Up", meta.Title)
	assert.Equal(t, "Rick Astley", meta.ChannelTitle)
	assert.Equal(t, "https://i.ytimg.com/vi/dQw4w9WgXcQ/hqdefault.jpg", meta.ThumbnailURL)
	assert.Equal(t, "PT3M33S", meta.Duration)
}

func TestGetVideoFallsBackToDefaultThumbnail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items":[{"id":"abc","snippet":{"title":"x","channelTitle":"y","thumbnails":{"default":{"url":"https://i.ytimg.com/vi/abc/default.jpg"}}},"contentDetails":{"duration":"PT1M"}}]}`))
	}))
	defer srv.Close()

	client := NewYouTubeClient("k", srv.URL)
	meta, err := client.GetVideo(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, "https://i.ytimg.com/vi/abc/default.jpg", meta.ThumbnailURL)
}

func TestGetVideoNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items":[]}`))
	}))
	defer srv.Close()

	client := NewYouTubeClient("k", srv.URL)
	_, err := client.GetVideo(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrVideoNotFound)
}

func TestGetVideoUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	client := NewYouTubeClient("k", srv.URL)
	_, err := client.GetVideo(context.Background(), "abc")
	assert.Error(t, err)
}
