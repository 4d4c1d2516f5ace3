package services

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExtractVimeoID(t *testing.T) {
	assert.Equal(t, "123456789", ExtractVimeoID("https://vimeo.com/123456789"))
	assert.Equal(t, "987", ExtractVimeoID("https://player.vimeo.com/987"))
	assert.Equal(t, "", ExtractVimeoID("https://youtube.com/watch?v=abc"))
	assert.Equal(t, "", ExtractVimeoID(""))
}

func TestFetchMetadata(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"title": "My Talk", "thumbnail_url": "https://i.vimeocdn.com/x.jpg", "duration": 360}`))
	}))
	defer server.Close()

	client := &VimeoClient{
		httpClient: server.Client(),
		baseURL:    server.URL,
	}

	meta := client.FetchMetadata("123")
	assert.Equal(t, "My Talk", meta.Title)
	assert.Equal(t, "https://i.vimeocdn.com/x.jpg", meta.Thumbnail)
	assert.Equal(t, 360, meta.Duration)
}

func TestFetchMetadataFailuresReturnEmpty(t *testing.T) {
	notFound := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer notFound.Close()

	client := &VimeoClient{httpClient: notFound.Client(), baseURL: notFound.URL}
	assert.Equal(t, VimeoMetadata{}, client.FetchMetadata("123"))

	garbage := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer garbage.Close()

	client = &VimeoClient{httpClient: garbage.Client(), baseURL: garbage.URL}
	assert.Equal(t, VimeoMetadata{}, client.FetchMetadata("123"))

	// unreachable host
	client = &VimeoClient{
		httpClient: &http.Client{Timeout: 100 * time.Millisecond},
		baseURL:    "http://127.0.0.1:1",
	}
	assert.Equal(t, VimeoMetadata{}, client.FetchMetadata("123"))
}
