package llm

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/go-resty/resty/v2"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const (
	providerNameOpenAI = "openai"
	defaultImageSize   = "1024x1024"
	downloadTimeout    = 30 * time.Second
)

// OpenAIOptions configures the OpenAI provider.
type OpenAIOptions struct {
	TextModel    string
	ImageModel   string
	ImageQuality string
	BaseURL      string        // optional API endpoint override
	HTTPTimeout  time.Duration // timeout for downloading URL-returned images
}

// OpenAIProvider implements ImageProvider using OpenAI chat completions and image generation
type OpenAIProvider struct {
	client     *openai.Client
	downloader *resty.Client
	textModel  string
	imageModel string
	quality    string
}

// NewOpenAIProvider creates a new OpenAI provider.
// SDK level retries are disabled; a secondary call gets exactly one attempt.
func NewOpenAIProvider(apiKey string, opts OpenAIOptions) *OpenAIProvider {
	clientOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(opts.BaseURL))
	}
	client := openai.NewClient(clientOpts...)

	timeout := opts.HTTPTimeout
	if timeout <= 0 {
		timeout = downloadTimeout
	}

	return &OpenAIProvider{
		client:     &client,
		downloader: resty.New().SetTimeout(timeout),
		textModel:  opts.TextModel,
		imageModel: opts.ImageModel,
		quality:    opts.ImageQuality,
	}
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return providerNameOpenAI
}

// EnhancePrompt asks the chat model for a design brief
func (p *OpenAIProvider) EnhancePrompt(ctx context.Context, request EnhanceRequest) (string, error) {
	params := OpenAIParameters(StageEnhance, p.textModel, p.imageModel, p.quality)
	log.Printf("✏️  OPENAI ENHANCE REQUEST STARTED (Model: %s)", params.Model)

	transaction := sentry.StartTransaction(ctx, "openai.enhance")
	defer transaction.Finish()
	transaction.SetTag("model", params.Model)
	transaction.SetTag("provider", providerNameOpenAI)

	span := transaction.StartChild("openai.api_call")
	start := time.Now()
	resp, err := p.client.Chat.Completions.New(transaction.Context(), openai.ChatCompletionNewParams{
		Model: openai.ChatModel(params.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(request.Instruction),
			openai.UserMessage("Style: " + request.Style),
		},
		MaxTokens:   openai.Int(params.MaxTokens),
		Temperature: openai.Float(params.Temperature),
	})
	span.Finish()

	if err != nil {
		log.Printf("❌ OPENAI REQUEST FAILED after %v: %v", time.Since(start), err)
		transaction.SetTag("success", "false")
		return "", fmt.Errorf("openai request failed: %w", err)
	}
	log.Printf("⏱️  OPENAI API CALL COMPLETED in %v", time.Since(start))

	if len(resp.Choices) == 0 {
		transaction.SetTag("success", "false")
		return "", fmt.Errorf("openai returned no choices")
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		transaction.SetTag("success", "false")
		return "", fmt.Errorf("openai returned an empty prompt")
	}

	transaction.SetTag("success", "true")
	return text, nil
}

// GenerateImage renders the room from the text prompt alone
func (p *OpenAIProvider) GenerateImage(ctx context.Context, request ImageRequest) (*Image, error) {
	params := OpenAIParameters(StageGenerate, p.textModel, p.imageModel, p.quality)
	size := request.Size
	if size == "" {
		size = defaultImageSize
	}
	log.Printf("🖼️  OPENAI IMAGE REQUEST STARTED (Model: %s, Size: %s)", params.Model, size)

	transaction := sentry.StartTransaction(ctx, "openai.image")
	defer transaction.Finish()
	transaction.SetTag("model", params.Model)
	transaction.SetTag("provider", providerNameOpenAI)

	span := transaction.StartChild("openai.api_call")
	start := time.Now()
	resp, err := p.client.Images.Generate(transaction.Context(), openai.ImageGenerateParams{
		Prompt:  request.Prompt,
		Model:   openai.ImageModel(params.Model),
		N:       openai.Int(1),
		Size:    openai.ImageGenerateParamsSize(size),
		Quality: openai.ImageGenerateParamsQuality(params.Quality),
	})
	span.Finish()

	if err != nil {
		log.Printf("❌ OPENAI REQUEST FAILED after %v: %v", time.Since(start), err)
		transaction.SetTag("success", "false")
		return nil, fmt.Errorf("openai request failed: %w", err)
	}
	log.Printf("⏱️  OPENAI API CALL COMPLETED in %v", time.Since(start))

	if len(resp.Data) == 0 {
		transaction.SetTag("success", "false")
		return nil, fmt.Errorf("openai: %w", ErrNoImage)
	}

	data, err := p.decodeImage(transaction.Context(), resp.Data[0].B64JSON, resp.Data[0].URL)
	if err != nil {
		transaction.SetTag("success", "false")
		return nil, err
	}

	transaction.SetTag("success", "true")
	return &Image{Data: data, MIMEType: sniffImageMIMEType(data)}, nil
}

// decodeImage prefers inline base64 and falls back to downloading the URL
func (p *OpenAIProvider) decodeImage(ctx context.Context, b64, url string) ([]byte, error) {
	if b64 != "" {
		data, err := base64.StdEncoding.DecodeString(b64)
		if err != nil {
			return nil, fmt.Errorf("openai returned invalid base64 image: %w", err)
		}
		return data, nil
	}
	if url == "" {
		return nil, fmt.Errorf("openai: %w", ErrNoImage)
	}

	resp, err := p.downloader.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, fmt.Errorf("download openai image: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("download openai image: status %d", resp.StatusCode())
	}
	if len(resp.Body()) == 0 {
		return nil, fmt.Errorf("openai: empty image download: %w", ErrNoImage)
	}
	return resp.Body(), nil
}
