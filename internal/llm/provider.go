package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// ErrNoImage is returned when a provider answers without image data.
var ErrNoImage = errors.New("response contained no image data")

// ImageProvider is one AI backend able to run both generation stages.
type ImageProvider interface {
	// Name returns the provider name (e.g., "gemini", "openai")
	Name() string

	// EnhancePrompt turns a short style description into a detailed design brief.
	EnhancePrompt(ctx context.Context, request EnhanceRequest) (string, error)

	// GenerateImage renders a room image. Providers that cannot condition on
	// an input image use the prompt alone.
	GenerateImage(ctx context.Context, request ImageRequest) (*Image, error)
}

// EnhanceRequest contains the instruction and the user's raw style.
type EnhanceRequest struct {
	Instruction string
	Style       string
}

// ImageRequest contains the rendered prompt and the source floor plan.
type ImageRequest struct {
	Prompt         string
	SourceImage    []byte
	SourceMIMEType string
	// Size is a provider hint such as "1536x1024"; empty lets the provider decide.
	Size string
}

// Image is a generated image payload.
type Image struct {
	Data     []byte
	MIMEType string
}

const defaultImageMIMEType = "image/png"

// sniffImageMIMEType detects the MIME type of image bytes.
func sniffImageMIMEType(data []byte) string {
	mime := http.DetectContentType(data)
	if !strings.HasPrefix(mime, "image/") {
		return defaultImageMIMEType
	}
	return mime
}
