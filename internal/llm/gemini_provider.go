package llm

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"google.golang.org/genai"
)

const (
	providerNameGemini = "gemini"
	geminiUserRole     = "user"
)

// Output modalities requested from the image model
var geminiImageModalities = []string{"IMAGE", "TEXT"}

// GeminiOptions configures the Gemini provider.
type GeminiOptions struct {
	TextModel  string
	ImageModel string
	BaseURL    string // optional API endpoint override
}

// GeminiProvider implements ImageProvider using Google's Gemini API
type GeminiProvider struct {
	client     *genai.Client
	textModel  string
	imageModel string
}

// NewGeminiProvider creates a new Gemini provider
func NewGeminiProvider(ctx context.Context, apiKey string, opts GeminiOptions) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: opts.BaseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiProvider{
		client:     client,
		textModel:  opts.TextModel,
		imageModel: opts.ImageModel,
	}, nil
}

// Name returns the provider name
func (p *GeminiProvider) Name() string {
	return providerNameGemini
}

// EnhancePrompt asks the text model for a design brief
func (p *GeminiProvider) EnhancePrompt(ctx context.Context, request EnhanceRequest) (string, error) {
	params := GeminiParameters(StageEnhance, p.textModel, p.imageModel)
	log.Printf("✏️  GEMINI ENHANCE REQUEST STARTED (Model: %s)", params.Model)

	transaction := sentry.StartTransaction(ctx, "gemini.enhance")
	defer transaction.Finish()
	transaction.SetTag("model", params.Model)
	transaction.SetTag("provider", providerNameGemini)

	contents := []*genai.Content{{
		Role:  geminiUserRole,
		Parts: []*genai.Part{{Text: request.Instruction + "\n\nStyle: " + request.Style}},
	}}

	result, err := p.call(transaction, params.Model, contents, nil)
	if err != nil {
		return "", err
	}

	text := extractText(result)
	if text == "" {
		transaction.SetTag("success", "false")
		return "", fmt.Errorf("gemini returned an empty prompt")
	}

	transaction.SetTag("success", "true")
	return text, nil
}

// GenerateImage renders the room from the floor plan and prompt
func (p *GeminiProvider) GenerateImage(ctx context.Context, request ImageRequest) (*Image, error) {
	params := GeminiParameters(StageGenerate, p.textModel, p.imageModel)
	log.Printf("🖼️  GEMINI IMAGE REQUEST STARTED (Model: %s)", params.Model)

	transaction := sentry.StartTransaction(ctx, "gemini.image")
	defer transaction.Finish()
	transaction.SetTag("model", params.Model)
	transaction.SetTag("provider", providerNameGemini)

	parts := make([]*genai.Part, 0, 2)
	if len(request.SourceImage) > 0 {
		mimeType := request.SourceMIMEType
		if mimeType == "" {
			mimeType = sniffImageMIMEType(request.SourceImage)
		}
		parts = append(parts, &genai.Part{InlineData: &genai.Blob{MIMEType: mimeType, Data: request.SourceImage}})
	}
	parts = append(parts, &genai.Part{Text: request.Prompt})

	config := &genai.GenerateContentConfig{
		ResponseModalities: geminiImageModalities,
		Temperature:        genai.Ptr(float32(params.Temperature)),
	}

	result, err := p.call(transaction, params.Model, []*genai.Content{{Role: geminiUserRole, Parts: parts}}, config)
	if err != nil {
		return nil, err
	}

	image, err := extractImage(result)
	if err != nil {
		transaction.SetTag("success", "false")
		return nil, err
	}

	transaction.SetTag("success", "true")
	log.Printf("✅ GEMINI IMAGE RECEIVED (%d bytes, %s)", len(image.Data), image.MIMEType)
	return image, nil
}

// call runs GenerateContent inside an api_call span
func (p *GeminiProvider) call(
	transaction *sentry.Span, model string, contents []*genai.Content, config *genai.GenerateContentConfig,
) (*genai.GenerateContentResponse, error) {
	span := transaction.StartChild("gemini.api_call")
	start := time.Now()
	result, err := p.client.Models.GenerateContent(transaction.Context(), model, contents, config)
	duration := time.Since(start)
	span.Finish()

	if err != nil {
		log.Printf("❌ GEMINI REQUEST FAILED after %v: %v", duration, err)
		transaction.SetTag("success", "false")
		return nil, fmt.Errorf("gemini request failed: %w", err)
	}

	log.Printf("⏱️  GEMINI API CALL COMPLETED in %v", duration)
	return result, nil
}

// extractText joins the non-thought text parts of the first candidate
func extractText(result *genai.GenerateContentResponse) string {
	if result == nil || len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return ""
	}

	var b strings.Builder
	for _, part := range result.Candidates[0].Content.Parts {
		if part == nil || part.Thought || part.Text == "" {
			continue
		}
		b.WriteString(part.Text)
	}
	return strings.TrimSpace(b.String())
}

// extractImage returns the first inline image part of the first candidate
func extractImage(result *genai.GenerateContentResponse) (*Image, error) {
	if result == nil || len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return nil, fmt.Errorf("gemini: no candidates in response: %w", ErrNoImage)
	}

	for _, part := range result.Candidates[0].Content.Parts {
		if part == nil || part.InlineData == nil || len(part.InlineData.Data) == 0 {
			continue
		}
		mimeType := part.InlineData.MIMEType
		if mimeType == "" {
			mimeType = sniffImageMIMEType(part.InlineData.Data)
		}
		return &Image{Data: part.InlineData.Data, MIMEType: mimeType}, nil
	}
	return nil, fmt.Errorf("gemini: %w", ErrNoImage)
}
