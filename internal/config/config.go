package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/Conceptual-Machines/hybridation-api/internal/retry"
	"github.com/ilyakaznacheev/cleanenv"
)

const (
	EnvironmentProduction = "production"
	allOrigins            = "*"
)

// Dev frontend origins always allowed once a FRONTEND_URL is configured.
var localFrontendOrigins = []string{
	"http://localhost:3000",
	"http://127.0.0.1:3000",
}

// Config holds the application configuration.
// It is read once at startup; nothing reads the environment afterwards.
type Config struct {
	// Environment
	Environment string `env:"ENVIRONMENT" env-default:"development"`
	Port        string `env:"PORT" env-default:"8000"`

	// Provider API keys
	GoogleAPIKey  string `env:"GOOGLE_API_KEY"`  // Gemini, primary provider
	OpenAIAPIKey  string `env:"OPENAI_API_KEY"`  // optional secondary provider
	SerpAPIAPIKey string `env:"SERPAPI_API_KEY"` // Google Lens visual search

	// Models
	GeminiTextModel    string `env:"GEMINI_TEXT_MODEL" env-default:"gemini-2.5-flash-lite"`
	GeminiImageModel   string `env:"GEMINI_IMAGE_MODEL" env-default:"gemini-3-pro-image-preview"`
	OpenAITextModel    string `env:"OPENAI_TEXT_MODEL" env-default:"gpt-4o-mini"`
	OpenAIImageModel   string `env:"OPENAI_IMAGE_MODEL" env-default:"gpt-image-1"`
	OpenAIImageQuality string `env:"OPENAI_IMAGE_QUALITY" env-default:"high"`

	// Retry policy for primary provider calls
	RetryMaxAttempts  int           `env:"RETRY_MAX_ATTEMPTS" env-default:"2"`
	RetryInitialDelay time.Duration `env:"RETRY_INITIAL_DELAY" env-default:"2s"`

	// Visual search upstreams
	ImageHostURL    string        `env:"IMAGE_HOST_URL" env-default:"https://litterbox.catbox.moe/resources/internals/api.php"`
	ImageHostExpiry string        `env:"IMAGE_HOST_EXPIRY" env-default:"1h"`
	SerpAPIURL      string        `env:"SERPAPI_URL" env-default:"https://serpapi.com/search.json"`
	UpstreamTimeout time.Duration `env:"UPSTREAM_TIMEOUT" env-default:"30s"`

	// HTTP
	FrontendURL        string   `env:"FRONTEND_URL"`
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" env-separator:","`
	MaxUploadBytes     int64    `env:"MAX_UPLOAD_BYTES" env-default:"10485760"`

	// Observability
	SentryDSN         string `env:"SENTRY_DSN"`
	LangfuseEnabled   bool   `env:"LANGFUSE_ENABLED" env-default:"false"`
	LangfusePublicKey string `env:"LANGFUSE_PUBLIC_KEY"`
	LangfuseSecretKey string `env:"LANGFUSE_SECRET_KEY"`
	LangfuseHost      string `env:"LANGFUSE_HOST" env-default:"https://cloud.langfuse.com"`
}

// Load reads the configuration from the process environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := cleanenv.ReadEnv(cfg); err != nil {
		desc, _ := cleanenv.GetDescription(cfg, nil)
		return nil, fmt.Errorf("config: %w; %s", err, desc)
	}
	return cfg, nil
}

// IsProduction reports whether the service runs in production.
func (c *Config) IsProduction() bool {
	return c.Environment == EnvironmentProduction
}

// AllowedOrigins returns the CORS origin list. A single "*" means any origin.
func (c *Config) AllowedOrigins() []string {
	if c.FrontendURL == "" && len(c.CORSAllowedOrigins) == 0 {
		return []string{allOrigins}
	}

	seen := make(map[string]bool)
	var origins []string
	add := func(origin string) {
		origin = strings.TrimSpace(origin)
		if origin == "" || seen[origin] {
			return
		}
		seen[origin] = true
		origins = append(origins, origin)
	}

	if c.FrontendURL != "" {
		for _, origin := range localFrontendOrigins {
			add(origin)
		}
		add(c.FrontendURL)
		add(strings.TrimRight(c.FrontendURL, "/"))
	}
	for _, origin := range c.CORSAllowedOrigins {
		add(origin)
	}
	return origins
}

// AllowsAllOrigins reports whether CORS is left open.
func (c *Config) AllowsAllOrigins() bool {
	origins := c.AllowedOrigins()
	return len(origins) == 1 && origins[0] == allOrigins
}

// RetryPolicy returns the policy applied to primary provider calls.
func (c *Config) RetryPolicy() retry.Policy {
	return retry.Policy{
		MaxAttempts:  c.RetryMaxAttempts,
		InitialDelay: c.RetryInitialDelay,
	}
}

// Flags reports which integrations have credentials, without exposing them.
type Flags struct {
	GoogleAPIConfigured bool `json:"google_api_configured"`
	OpenAIAPIConfigured bool `json:"openai_api_configured"`
	SerpAPIConfigured   bool `json:"serpapi_configured"`
	FallbackEnabled     bool `json:"fallback_enabled"`
}

func (c *Config) Flags() Flags {
	return Flags{
		GoogleAPIConfigured: c.GoogleAPIKey != "",
		OpenAIAPIConfigured: c.OpenAIAPIKey != "",
		SerpAPIConfigured:   c.SerpAPIAPIKey != "",
		FallbackEnabled:     c.OpenAIAPIKey != "",
	}
}
