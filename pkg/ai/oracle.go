package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// DefaultModel is the model used when none is configured.
const DefaultModel = "gemini-2.5-flash"

// ErrUnconfigured is returned when no API key is available.
var ErrUnconfigured = errors.New("ai oracle is not configured")

// Request is one prompt sent to the oracle. A non-nil Schema asks for a JSON
// response matching it.
type Request struct {
	Feature string
	Prompt  string
	Schema  *genai.Schema
}

// Oracle generates text for a prompt.
type Oracle interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Config holds oracle configuration
type Config struct {
	APIKey string
	Model  string

	// RequestsPerSecond limits outgoing calls; zero disables limiting.
	RequestsPerSecond float64
	Burst             int
	Timeout           time.Duration
}

// GenAIOracle calls Gemini through google.golang.org/genai.
type GenAIOracle struct {
	client  *genai.Client
	model   string
	limiter *rate.Limiter
	timeout time.Duration
}

// NewGenAIOracle creates an oracle. It returns ErrUnconfigured when the API
// key is empty.
func NewGenAIOracle(ctx context.Context, cfg Config) (*GenAIOracle, error) {
	if cfg.APIKey == "" {
		return nil, ErrUnconfigured
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	return &GenAIOracle{
		client:  client,
		model:   model,
		limiter: limiter,
		timeout: cfg.Timeout,
	}, nil
}

// Model returns the model id requests are sent to.
func (o *GenAIOracle) Model() string {
	return o.model
}

// Generate sends one prompt and returns the response text.
func (o *GenAIOracle) Generate(ctx context.Context, req Request) (string, error) {
	if err := o.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}

	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	var config *genai.GenerateContentConfig
	if req.Schema != nil {
		config = &genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   req.Schema,
		}
	}

	resp, err := o.client.Models.GenerateContent(ctx, o.model, genai.Text(req.Prompt), config)
	if err != nil {
		return "", fmt.Errorf("GenAI generate failed: %w", err)
	}
	return resp.Text(), nil
}
