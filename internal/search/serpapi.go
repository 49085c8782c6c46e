package search

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
)

const engineGoogleLens = "google_lens"

// Response holds the raw hit lists of a Google Lens search. Hits keep their
// provider shape; normalization happens downstream.
type Response struct {
	ShoppingResults []gjson.Result
	VisualMatches   []gjson.Result
}

// APIError is an error reported by SerpApi in the response body.
type APIError struct {
	Message string
}

func (e *APIError) Error() string {
	return "SerpApi error: " + e.Message
}

// SerpAPI queries the Google Lens engine of SerpApi.
type SerpAPI struct {
	client   *resty.Client
	endpoint string
	apiKey   string
}

func NewSerpAPI(endpoint, apiKey string, timeout time.Duration) *SerpAPI {
	return &SerpAPI{
		client:   resty.New().SetTimeout(timeout),
		endpoint: endpoint,
		apiKey:   apiKey,
	}
}

// Lens runs a visual search for the image at imageURL.
func (s *SerpAPI) Lens(ctx context.Context, imageURL string) (*Response, error) {
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"engine":  engineGoogleLens,
			"url":     imageURL,
			"api_key": s.apiKey,
		}).
		Get(s.endpoint)
	if err != nil {
		return nil, fmt.Errorf("serpapi request: %w", err)
	}

	body := resp.Body()
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("serpapi returned invalid JSON (status %d)", resp.StatusCode())
	}
	if msg := gjson.GetBytes(body, "error"); msg.Exists() {
		return nil, &APIError{Message: msg.String()}
	}
	if resp.IsError() {
		return nil, fmt.Errorf("serpapi returned status %d", resp.StatusCode())
	}

	return &Response{
		ShoppingResults: gjson.GetBytes(body, "shopping_results").Array(),
		VisualMatches:   gjson.GetBytes(body, "visual_matches").Array(),
	}, nil
}
