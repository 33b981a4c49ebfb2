package embedding

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/nexxt/connect/internal/metrics"
	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
)

// OpenAIConfig configures the hosted embedding client
type OpenAIConfig struct {
	APIKey           string
	BaseURL          string
	Model            string
	Dimensions       int
	RatePerSecond    float64
	Burst            int
	FailureThreshold uint32
	OpenTimeout      time.Duration
	MaxRetries       int
}

// OpenAIEmbedder calls the OpenAI embeddings endpoint behind a rate limiter
// and a circuit breaker
type OpenAIEmbedder struct {
	client  openai.Client
	model   string
	dims    int
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[[]float32]
}

// NewOpenAIEmbedder creates an embedder from cfg, filling in defaults
func NewOpenAIEmbedder(cfg OpenAIConfig) (*OpenAIEmbedder, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY not set in config or environment")
	}
	if cfg.Model == "" {
		cfg.Model = openai.EmbeddingModelTextEmbedding3Small
	}
	if cfg.Dimensions <= 0 {
		cfg.Dimensions = DefaultDimensions
	}
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = 5
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey), option.WithMaxRetries(cfg.MaxRetries)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	threshold := cfg.FailureThreshold
	breaker := gobreaker.NewCircuitBreaker[[]float32](gobreaker.Settings{
		Name:        "openai-embeddings",
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Printf("[EMBEDDING]: circuit %s changed from %s to %s", name, from, to)
		},
	})

	return &OpenAIEmbedder{
		client:  openai.NewClient(opts...),
		model:   cfg.Model,
		dims:    cfg.Dimensions,
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.Burst),
		breaker: breaker,
	}, nil
}

func (e *OpenAIEmbedder) Dimensions() int { return e.dims }

func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	text, err := Prepare(text)
	if err != nil {
		return nil, err
	}
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("embedding rate limit: %w", err)
	}

	vec, err := e.breaker.Execute(func() ([]float32, error) {
		return e.request(ctx, text)
	})
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.EmbeddingRequests.WithLabelValues("rejected").Inc()
		return nil, fmt.Errorf("embedding service unavailable: %w", err)
	case err != nil:
		metrics.EmbeddingRequests.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.EmbeddingRequests.WithLabelValues("ok").Inc()
	return vec, nil
}

func (e *OpenAIEmbedder) request(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input:      openai.EmbeddingNewParamsInputUnion{OfString: openai.String(text)},
		Model:      openai.EmbeddingModel(e.model),
		Dimensions: openai.Int(int64(e.dims)),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("embedding response contained no data")
	}

	raw := resp.Data[0].Embedding
	if len(raw) != e.dims {
		return nil, fmt.Errorf("embedding has %d dimensions, expected %d", len(raw), e.dims)
	}
	vec := make([]float32, len(raw))
	for i, x := range raw {
		vec[i] = float32(x)
	}
	return unit(vec), nil
}
