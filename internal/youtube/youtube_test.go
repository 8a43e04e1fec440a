package youtube

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func TestSearch(t *testing.T) {
	var query url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		query = r.URL.Query()
		writeJSON(w, map[string]any{
			"items": []map[string]any{
				{"id": map[string]string{"videoId": "abc"}, "snippet": map[string]any{"title": "Go concurrency", "channelTitle": "Gophers"}},
			},
			"nextPageToken": "next-1",
			"pageInfo":      map[string]int{"totalResults": 42, "resultsPerPage": 12},
		})
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "key-1", BaseURL: server.URL}, testLogger())
	page, err := client.Search(context.Background(), "golang", 0, "tok")
	require.NoError(t, err)

	require.Len(t, page.Items, 1)
	assert.Equal(t, "abc", page.Items[0].Id.VideoId)
	assert.Equal(t, "Go concurrency", page.Items[0].Snippet.Title)
	assert.Equal(t, "next-1", page.NextPageToken)
	assert.Equal(t, 42, page.TotalResults)

	assert.Equal(t, "golang", query.Get("q"))
	assert.Equal(t, "12", query.Get("maxResults"))
	assert.Equal(t, "tok", query.Get("pageToken"))
	assert.Equal(t, "key-1", query.Get("key"))
	assert.Equal(t, "true", query.Get("videoEmbeddable"))
}

func TestPopularNormalizesIds(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/videos", r.URL.Path)
		assert.Equal(t, "mostPopular", r.URL.Query().Get("chart"))
		assert.Equal(t, "GB", r.URL.Query().Get("regionCode"))
		writeJSON(w, map[string]any{
			"items": []map[string]any{
				{"id": "xyz", "snippet": map[string]any{"title": "Trending"}, "statistics": map[string]string{"viewCount": "100"}},
			},
			"pageInfo": map[string]int{"totalResults": 1},
		})
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "key-1", BaseURL: server.URL}, testLogger())
	page, err := client.Popular(context.Background(), 5, "GB")
	require.NoError(t, err)

	require.Len(t, page.Items, 1)
	assert.Equal(t, "xyz", page.Items[0].Id.VideoId)
	require.NotNil(t, page.Items[0].Statistics)
	assert.Equal(t, "100", page.Items[0].Statistics.ViewCount)
	assert.Empty(t, page.NextPageToken)
}

func TestVideoDetails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("id") == "missing" {
			writeJSON(w, map[string]any{"items": []any{}})
			return
		}
		writeJSON(w, map[string]any{
			"items": []map[string]any{
				{"id": "abc", "snippet": map[string]any{"title": "Talk"}, "contentDetails": map[string]string{"duration": "PT4M13S"}},
			},
		})
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "key-1", BaseURL: server.URL}, testLogger())

	details, err := client.VideoDetails(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", details.Id)
	require.NotNil(t, details.ContentDetails)
	assert.Equal(t, "PT4M13S", details.ContentDetails.Duration)

	_, err = client.VideoDetails(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrVideoNotFound)
}

func TestMissingAPIKey(t *testing.T) {
	client := NewClient(Config{}, testLogger())

	_, err := client.Search(context.Background(), "golang", 12, "")
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.Equal(t, "YouTube API key not configured", err.Error())
}

func TestAPIErrorAndBreaker(t *testing.T) {
	var calls atomic.Int32
	var status atomic.Int32
	status.Store(http.StatusForbidden)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(int(status.Load()))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "key-1", BaseURL: server.URL}, testLogger())

	_, err := client.Search(context.Background(), "golang", 12, "")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "YouTube API error: 403", err.Error())

	// Client errors never open the breaker.
	for i := 0; i < 10; i++ {
		_, err = client.Search(context.Background(), "golang", 12, "")
		require.ErrorAs(t, err, &apiErr)
	}
	assert.Equal(t, int32(11), calls.Load())

	status.Store(http.StatusInternalServerError)
	failing := NewClient(Config{APIKey: "key-1", BaseURL: server.URL}, testLogger())
	for i := 0; i < 5; i++ {
		_, err = failing.Search(context.Background(), "golang", 12, "")
		require.ErrorAs(t, err, &apiErr)
	}

	before := calls.Load()
	_, err = failing.Search(context.Background(), "golang", 12, "")
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, before, calls.Load())
}
