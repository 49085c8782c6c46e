package shopping

import (
	"context"
	"errors"

	"github.com/Conceptual-Machines/hybridation-api/internal/apperr"
	"github.com/Conceptual-Machines/hybridation-api/internal/logger"
	"github.com/Conceptual-Machines/hybridation-api/internal/search"
)

type Uploader interface {
	Upload(ctx context.Context, png []byte) (string, error)
}

type Searcher interface {
	Lens(ctx context.Context, imageURL string) (*search.Response, error)
}

// Service runs the visual shopping flow: host the image, search it, rank
// the hits.
type Service struct {
	uploader Uploader
	searcher Searcher
	opts     Options
}

// NewService builds the flow. A nil searcher means the search key is not
// configured.
func NewService(uploader Uploader, searcher Searcher, opts Options) *Service {
	return &Service{uploader: uploader, searcher: searcher, opts: opts}
}

func (s *Service) Ready() error {
	if s == nil || s.searcher == nil {
		return apperr.New(apperr.KindMisconfigured, "shopping.ready", "SERPAPI_API_KEY not configured")
	}
	return nil
}

func (s *Service) Search(ctx context.Context, png []byte, fields logger.Fields) ([]Product, error) {
	if err := s.Ready(); err != nil {
		return nil, err
	}

	logger.Info("uploading image for visual search", fields)
	imageURL, err := s.uploader.Upload(ctx, png)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUpstream, "shopping.upload", "Failed to upload image for search", err)
	}
	logger.Debug("image hosted", fields.With(logger.Fields{"image_url": imageURL}))

	resp, err := s.searcher.Lens(ctx, imageURL)
	if err != nil {
		var apiErr *search.APIError
		if errors.As(err, &apiErr) {
			return nil, apperr.Wrap(apperr.KindUpstream, "shopping.search", "", err)
		}
		return nil, apperr.Wrap(apperr.KindUpstream, "shopping.search", "Visual search failed", err)
	}

	products := Rank(resp.ShoppingResults, resp.VisualMatches, s.opts)
	logger.Info("visual search ranked", fields.With(logger.Fields{
		"shopping_results": len(resp.ShoppingResults),
		"visual_matches":   len(resp.VisualMatches),
		"products":         len(products),
	}))
	return products, nil
}
