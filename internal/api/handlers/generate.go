package handlers

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Conceptual-Machines/hybridation-api/internal/apperr"
	"github.com/Conceptual-Machines/hybridation-api/internal/generation"
	"github.com/Conceptual-Machines/hybridation-api/internal/imaging"
	"github.com/Conceptual-Machines/hybridation-api/internal/logger"
	"github.com/Conceptual-Machines/hybridation-api/internal/observability"
)

type Generator interface {
	Run(ctx context.Context, req generation.Request, variant generation.Variant) (*generation.Result, error)
}

type GenerationRecorder interface {
	RecordGeneration(ctx context.Context, variant, provider string, duration time.Duration, success bool)
}

// GenerateHandler serves one generation variant. Panoramic and standard
// rooms share it and differ only by Variant.
type GenerateHandler struct {
	generator      Generator
	variant        generation.Variant
	maxUploadBytes int64
	recorder       GenerationRecorder
	tracer         *observability.LangfuseClient
}

type GenerateOptions struct {
	MaxUploadBytes int64
	Recorder       GenerationRecorder
	Tracer         *observability.LangfuseClient
}

func NewGenerateHandler(generator Generator, variant generation.Variant, opts GenerateOptions) *GenerateHandler {
	return &GenerateHandler{
		generator:      generator,
		variant:        variant,
		maxUploadBytes: opts.MaxUploadBytes,
		recorder:       opts.Recorder,
		tracer:         opts.Tracer,
	}
}

type GenerateResponse struct {
	Success       bool   `json:"success"`
	Image         string `json:"image"`
	EnhancedStyle string `json:"enhanced_style"`
	Provider      string `json:"provider"`
	Format        string `json:"format,omitempty"`
}

func (h *GenerateHandler) Generate(c *gin.Context) {
	fields := logger.WithContext(c).With(logger.Fields{"variant": h.variant.Name})

	source, style, err := h.readInput(c)
	if err != nil {
		respondError(c, err, fields)
		return
	}

	trace := h.tracer.StartTrace(c.Request.Context(), "generate."+h.variant.Name, map[string]interface{}{
		"request_id": c.GetString(requestIDKey),
		"variant":    h.variant.Name,
		"style":      style,
	})
	defer trace.Finish()
	ctx := observability.ContextWithTrace(c.Request.Context(), trace)

	logger.Info("generation started", fields.With(logger.Fields{"style": style, "image_bytes": len(source)}))
	start := time.Now()
	result, err := h.generator.Run(ctx, generation.Request{
		RequestID:      c.GetString(requestIDKey),
		Style:          style,
		SourceImage:    source,
		SourceMIMEType: imaging.MIMETypePNG,
	}, h.variant)
	duration := time.Since(start)

	if err != nil {
		h.record(ctx, "", duration, false)
		respondError(c, err, fields)
		return
	}
	h.record(ctx, result.ProviderName, duration, true)

	logger.Info("generation completed", fields.With(logger.Fields{
		"provider":    result.ProviderName,
		"role":        string(result.Provider),
		"attempts":    len(result.Attempts),
		"duration_ms": duration.Milliseconds(),
	}))

	c.JSON(http.StatusOK, GenerateResponse{
		Success:       true,
		Image:         imaging.DataURL(result.MIMEType, result.Image),
		EnhancedStyle: result.EnhancedStyle,
		Provider:      result.ProviderName,
		Format:        result.Format,
	})
}

// readInput validates the multipart form and returns the floor plan as PNG.
func (h *GenerateHandler) readInput(c *gin.Context) ([]byte, string, error) {
	const op = "handlers.generate"

	style := c.PostForm(fieldStyle)
	if style == "" {
		return nil, "", badInput(op, "style is required")
	}

	header, err := c.FormFile(fieldFile)
	if err != nil {
		return nil, "", apperr.Wrap(apperr.KindBadInput, op, "file is required", err)
	}
	if !imaging.IsImageContentType(header.Header.Get("Content-Type")) {
		return nil, "", badInput(op, "File must be an image")
	}
	if h.maxUploadBytes > 0 && header.Size > h.maxUploadBytes {
		return nil, "", badInput(op, "File is too large")
	}

	file, err := header.Open()
	if err != nil {
		return nil, "", apperr.Wrap(apperr.KindBadInput, op, "unreadable upload", err)
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, "", apperr.Wrap(apperr.KindBadInput, op, "unreadable upload", err)
	}

	normalized, err := imaging.NormalizePNG(raw)
	if err != nil {
		return nil, "", err
	}
	return normalized, style, nil
}

func (h *GenerateHandler) record(ctx context.Context, provider string, duration time.Duration, success bool) {
	if h.recorder != nil {
		h.recorder.RecordGeneration(ctx, h.variant.Name, provider, duration, success)
	}
}
