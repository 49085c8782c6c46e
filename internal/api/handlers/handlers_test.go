package handlers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Conceptual-Machines/hybridation-api/internal/apperr"
	"github.com/Conceptual-Machines/hybridation-api/internal/config"
	"github.com/Conceptual-Machines/hybridation-api/internal/generation"
	"github.com/Conceptual-Machines/hybridation-api/internal/logger"
	"github.com/Conceptual-Machines/hybridation-api/internal/shopping"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 200, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func multipartBody(t *testing.T, style string, file []byte, contentType string) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if style != "" {
		require.NoError(t, w.WriteField(fieldStyle, style))
	}
	if file != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="file"; filename="plan.png"`)
		h.Set("Content-Type", contentType)
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(file)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &body, w.FormDataContentType()
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

type stubGenerator struct {
	result  *generation.Result
	err     error
	request generation.Request
	variant generation.Variant
}

func (s *stubGenerator) Run(_ context.Context, req generation.Request, variant generation.Variant) (*generation.Result, error) {
	s.request = req
	s.variant = variant
	return s.result, s.err
}

type stubGenerationRecorder struct {
	providers []string
	success   []bool
}

func (s *stubGenerationRecorder) RecordGeneration(_ context.Context, _ string, provider string, _ time.Duration, success bool) {
	s.providers = append(s.providers, provider)
	s.success = append(s.success, success)
}

func generateRouter(h *GenerateHandler) *gin.Engine {
	router := gin.New()
	router.Use(func(c *gin.Context) { c.Set(requestIDKey, "req-1") })
	router.POST("/generate", h.Generate)
	return router
}

func TestGenerateSuccess(t *testing.T) {
	gen := &stubGenerator{result: &generation.Result{
		Image:         []byte("img"),
		MIMEType:      "image/jpeg",
		EnhancedStyle: "warm scandinavian",
		Provider:      generation.RolePrimary,
		ProviderName:  "gemini",
		Format:        generation.FormatEquirectangular,
	}}
	recorder := &stubGenerationRecorder{}
	h := NewGenerateHandler(gen, generation.Variant{Name: generation.VariantPanoramic, Format: generation.FormatEquirectangular}, GenerateOptions{
		MaxUploadBytes: 1 << 20,
		Recorder:       recorder,
	})

	body, contentType := multipartBody(t, "scandinavian", testPNG(t), "image/png")
	req := httptest.NewRequest(http.MethodPost, "/generate", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	generateRouter(h).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	out := decodeJSON(t, w)
	assert.Equal(t, true, out["success"])
	assert.Equal(t, "data:image/jpeg;base64,"+base64.StdEncoding.EncodeToString([]byte("img")), out["image"])
	assert.Equal(t, "warm scandinavian", out["enhanced_style"])
	assert.Equal(t, "gemini", out["provider"])
	assert.Equal(t, "equirectangular_360", out["format"])

	assert.Equal(t, "scandinavian", gen.request.Style)
	assert.Equal(t, "req-1", gen.request.RequestID)
	assert.Equal(t, "image/png", gen.request.SourceMIMEType)
	assert.Equal(t, generation.VariantPanoramic, gen.variant.Name)
	assert.Equal(t, []string{"gemini"}, recorder.providers)
	assert.Equal(t, []bool{true}, recorder.success)
}

func TestGenerateStandardOmitsFormat(t *testing.T) {
	gen := &stubGenerator{result: &generation.Result{Image: []byte("img"), ProviderName: "openai"}}
	h := NewGenerateHandler(gen, generation.Variant{Name: generation.VariantStandard}, GenerateOptions{})

	body, contentType := multipartBody(t, "loft", testPNG(t), "image/png")
	req := httptest.NewRequest(http.MethodPost, "/generate", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	generateRouter(h).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	out := decodeJSON(t, w)
	assert.NotContains(t, out, "format")
	assert.True(t, strings.HasPrefix(out["image"].(string), "data:image/png;base64,"))
}

func TestGenerateBadInput(t *testing.T) {
	png := testPNG(t)
	tests := []struct {
		name        string
		style       string
		file        []byte
		contentType string
		maxBytes    int64
		want        string
	}{
		{"missing style", "", png, "image/png", 0, "style is required"},
		{"missing file", "modern", nil, "", 0, "file is required"},
		{"not an image type", "modern", png, "text/plain", 0, "File must be an image"},
		{"too large", "modern", png, "image/png", 8, "File is too large"},
		{"undecodable", "modern", []byte("not an image"), "image/png", 0, "Invalid image file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &stubGenerator{}
			h := NewGenerateHandler(gen, generation.Variant{Name: generation.VariantStandard}, GenerateOptions{MaxUploadBytes: tt.maxBytes})

			body, contentType := multipartBody(t, tt.style, tt.file, tt.contentType)
			req := httptest.NewRequest(http.MethodPost, "/generate", body)
			req.Header.Set("Content-Type", contentType)
			w := httptest.NewRecorder()
			generateRouter(h).ServeHTTP(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			out := decodeJSON(t, w)
			assert.Equal(t, false, out["success"])
			assert.Contains(t, out["error"], tt.want)
			assert.Equal(t, "req-1", out["request_id"])
			assert.Empty(t, gen.request.Style, "generator must not run")
		})
	}
}

func TestGenerateErrorStatus(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		detail string
	}{
		{
			name:   "all providers overloaded",
			err:    apperr.New(apperr.KindProviderTransient, "generation.run", generation.MsgAllProvidersOverloaded),
			status: http.StatusServiceUnavailable,
			detail: generation.MsgAllProvidersOverloaded,
		},
		{
			name:   "misconfigured",
			err:    apperr.New(apperr.KindMisconfigured, "generation.run", generation.MsgPrimaryNotConfigured),
			status: http.StatusInternalServerError,
			detail: "GOOGLE_API_KEY not configured",
		},
		{
			name:   "permanent",
			err:    apperr.Wrap(apperr.KindProviderPermanent, "generation.run", "Generation failed", errors.New("safety block")),
			status: http.StatusInternalServerError,
			detail: "Generation failed: safety block",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := &stubGenerationRecorder{}
			h := NewGenerateHandler(&stubGenerator{err: tt.err}, generation.Variant{Name: generation.VariantPanoramic}, GenerateOptions{Recorder: recorder})

			body, contentType := multipartBody(t, "modern", testPNG(t), "image/png")
			req := httptest.NewRequest(http.MethodPost, "/generate", body)
			req.Header.Set("Content-Type", contentType)
			w := httptest.NewRecorder()
			generateRouter(h).ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.detail, decodeJSON(t, w)["error"])
			assert.Equal(t, []bool{false}, recorder.success)
		})
	}
}

type stubShopper struct {
	ready    error
	products []shopping.Product
	err      error
	got      []byte
}

func (s *stubShopper) Ready() error { return s.ready }

func (s *stubShopper) Search(_ context.Context, png []byte, _ logger.Fields) ([]shopping.Product, error) {
	s.got = png
	return s.products, s.err
}

type countRecorder struct{ counts []int }

func (c *countRecorder) RecordShopResults(count int) { c.counts = append(c.counts, count) }

func postShop(t *testing.T, h *ShopHandler, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	router := gin.New()
	router.POST("/shop", h.Shop)
	req := httptest.NewRequest(http.MethodPost, "/shop", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestShopSuccess(t *testing.T) {
	shopper := &stubShopper{products: []shopping.Product{
		{Title: "Chair", Price: shopping.NumberPrice(80), Link: "https://shop.example/chair", Source: "Shop"},
		{Title: "Lamp", Price: shopping.TextPrice(shopping.NotAvailable), Link: "https://shop.example/lamp"},
	}}
	recorder := &countRecorder{}
	blob := "data:image/png;base64," + base64.StdEncoding.EncodeToString(testPNG(t))

	w := postShop(t, NewShopHandler(shopper, recorder), url.Values{fieldImageBlob: {blob}})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{
		"success": true,
		"total": 2,
		"products": [
			{"title": "Chair", "price": 80, "thumbnail": "", "link": "https://shop.example/chair", "source": "Shop"},
			{"title": "Lamp", "price": "N/A", "thumbnail": "", "link": "https://shop.example/lamp", "source": ""}
		]
	}`, w.Body.String())
	assert.NotEmpty(t, shopper.got)
	assert.Equal(t, []int{2}, recorder.counts)
}

func TestShopErrors(t *testing.T) {
	validBlob := base64.StdEncoding.EncodeToString(testPNG(t))
	tests := []struct {
		name    string
		shopper *stubShopper
		form    url.Values
		status  int
		detail  string
	}{
		{
			name:    "key checked first",
			shopper: &stubShopper{ready: apperr.New(apperr.KindMisconfigured, "shopping.ready", "SERPAPI_API_KEY not configured")},
			form:    url.Values{},
			status:  http.StatusInternalServerError,
			detail:  "SERPAPI_API_KEY not configured",
		},
		{
			name:    "missing blob",
			shopper: &stubShopper{},
			form:    url.Values{},
			status:  http.StatusBadRequest,
			detail:  "image_blob is required",
		},
		{
			name:    "malformed blob",
			shopper: &stubShopper{},
			form:    url.Values{fieldImageBlob: {"%%%not-base64"}},
			status:  http.StatusBadRequest,
		},
		{
			name:    "upstream failure",
			shopper: &stubShopper{err: apperr.Wrap(apperr.KindUpstream, "shopping.upload", "Failed to upload image for search", errors.New("status 500"))},
			form:    url.Values{fieldImageBlob: {validBlob}},
			status:  http.StatusInternalServerError,
			detail:  "Failed to upload image for search: status 500",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postShop(t, NewShopHandler(tt.shopper, nil), tt.form)

			assert.Equal(t, tt.status, w.Code)
			out := decodeJSON(t, w)
			assert.Equal(t, false, out["success"])
			if tt.detail != "" {
				assert.Equal(t, tt.detail, out["error"])
			}
		})
	}
}

func TestHealth(t *testing.T) {
	h := NewHealthHandler(config.Flags{GoogleAPIConfigured: true, OpenAIAPIConfigured: true, FallbackEnabled: true})
	router := gin.New()
	router.GET("/", h.Root)
	router.GET("/health", h.HealthCheck)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.JSONEq(t, `{"status": "ok", "service": "Hybridation API", "version": "2.0.0"}`, w.Body.String())

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.JSONEq(t, `{
		"status": "healthy",
		"service": "Hybridation API",
		"version": "2.0.0",
		"features": {"360_panorama": true, "visual_shopping": true},
		"config": {
			"google_api_configured": true,
			"openai_api_configured": true,
			"serpapi_configured": false,
			"fallback_enabled": true
		}
	}`, w.Body.String())
}

func TestMetrics(t *testing.T) {
	h := NewMetricsHandler("test", config.Flags{FallbackEnabled: true})
	router := gin.New()
	router.GET("/api/metrics", h.GetMetrics)
	router.GET("/metrics", h.Prometheus())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	out := decodeJSON(t, w)
	assert.Equal(t, "test", out["version"])
	assert.Equal(t, true, out["api"].(map[string]interface{})["fallback_enabled"])

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestFormatUptime(t *testing.T) {
	assert.Equal(t, "1.50s", formatUptime(1500*time.Millisecond))
	assert.Equal(t, "2m3.00s", formatUptime(2*time.Minute+3*time.Second))
	assert.Equal(t, "1h0m0.00s", formatUptime(time.Hour))
}
