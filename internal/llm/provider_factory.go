package llm

import (
	"context"
	"fmt"

	"github.com/Conceptual-Machines/hybridation-api/internal/config"
)

// ProviderFactory creates the primary and optional secondary providers from configuration
type ProviderFactory struct {
	cfg *config.Config
}

// NewProviderFactory creates a new provider factory
func NewProviderFactory(cfg *config.Config) *ProviderFactory {
	return &ProviderFactory{cfg: cfg}
}

// Primary returns the Gemini provider. A missing key yields (nil, nil): the
// service still starts and reports the misconfiguration per request.
func (f *ProviderFactory) Primary(ctx context.Context) (ImageProvider, error) {
	if f.cfg.GoogleAPIKey == "" {
		return nil, nil
	}
	provider, err := NewGeminiProvider(ctx, f.cfg.GoogleAPIKey, GeminiOptions{
		TextModel:  f.cfg.GeminiTextModel,
		ImageModel: f.cfg.GeminiImageModel,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini provider: %w", err)
	}
	return provider, nil
}

// Secondary returns the OpenAI fallback provider, or nil when no key is configured.
func (f *ProviderFactory) Secondary() ImageProvider {
	if f.cfg.OpenAIAPIKey == "" {
		return nil
	}
	return NewOpenAIProvider(f.cfg.OpenAIAPIKey, OpenAIOptions{
		TextModel:    f.cfg.OpenAITextModel,
		ImageModel:   f.cfg.OpenAIImageModel,
		ImageQuality: f.cfg.OpenAIImageQuality,
		HTTPTimeout:  f.cfg.UpstreamTimeout,
	})
}
