package search

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, status int, body string, query *url.Values) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if query != nil {
			*query = r.URL.Query()
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestLens(t *testing.T) {
	var query url.Values
	server := newTestServer(t, http.StatusOK, `{
		"search_metadata": {"status": "Success"},
		"shopping_results": [{"title": "Chair", "link": "https://shop.example/chair"}],
		"visual_matches": [
			{"title": "Sofa", "link": "https://shop.example/sofa"},
			{"title": "Lamp", "link": "https://shop.example/lamp"}
		]
	}`, &query)

	resp, err := NewSerpAPI(server.URL, "serp-key", 5*time.Second).Lens(context.Background(), "https://litter.catbox.moe/x.png")

	require.NoError(t, err)
	require.Len(t, resp.ShoppingResults, 1)
	require.Len(t, resp.VisualMatches, 2)
	assert.Equal(t, "Chair", resp.ShoppingResults[0].Get("title").String())
	assert.Equal(t, "google_lens", query.Get("engine"))
	assert.Equal(t, "https://litter.catbox.moe/x.png", query.Get("url"))
	assert.Equal(t, "serp-key", query.Get("api_key"))
}

func TestLensMissingLists(t *testing.T) {
	server := newTestServer(t, http.StatusOK, `{"search_metadata": {}}`, nil)

	resp, err := NewSerpAPI(server.URL, "k", 5*time.Second).Lens(context.Background(), "https://x")

	require.NoError(t, err)
	assert.Empty(t, resp.ShoppingResults)
	assert.Empty(t, resp.VisualMatches)
}

func TestLensAPIError(t *testing.T) {
	server := newTestServer(t, http.StatusUnauthorized, `{"error": "Invalid API key."}`, nil)

	_, err := NewSerpAPI(server.URL, "bad", 5*time.Second).Lens(context.Background(), "https://x")

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "SerpApi error: Invalid API key.", err.Error())
}

func TestLensBadResponses(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"not json", http.StatusOK, "<html>oops</html>"},
		{"status without error field", http.StatusBadGateway, `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newTestServer(t, tt.status, tt.body, nil)
			_, err := NewSerpAPI(server.URL, "k", 5*time.Second).Lens(context.Background(), "https://x")
			assert.Error(t, err)
		})
	}
}
