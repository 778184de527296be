// Package generation contains the clients that send validated proposal
// requests to a generation backend: a JSON HTTP service, an AMQP worker
// queue, OpenAI chat completions or Gemini.
package generation

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gaborage/go-proposals/config"
	"github.com/gaborage/go-proposals/http"
	"github.com/gaborage/go-proposals/logger"
	"github.com/gaborage/go-proposals/messaging"
	"github.com/gaborage/go-proposals/submission"
)

// ContentTypeJSON is the content type of every result produced by this package's LLM providers.
const ContentTypeJSON = "application/json"

// Backend is a submission.Generator with lifecycle hooks.
type Backend interface {
	submission.Generator
	Name() string
	// Health reports whether the backend can take requests.
	Health(ctx context.Context) error
	Close() error
}

// Document is the result body of the LLM providers.
type Document struct {
	Format  string `json:"format"`
	Content string `json:"content"`
}

func documentResult(jobID, content string) (*submission.Result, error) {
	body, err := json.Marshal(Document{Format: "markdown", Content: content})
	if err != nil {
		return nil, err
	}
	return &submission.Result{JobID: jobID, ContentType: ContentTypeJSON, Body: body}, nil
}

// New builds the backend selected by cfg.Provider.
func New(ctx context.Context, cfg *config.GenerationConfig, log logger.Logger) (Backend, error) {
	if log == nil {
		log = logger.Nop()
	}
	log = log.WithFields(map[string]any{"component": "generation", "provider": cfg.Provider})

	switch cfg.Provider {
	case config.ProviderHTTP:
		builder := http.NewBuilder(log).
			WithTimeout(cfg.Timeout).
			WithRequestInterceptor(http.TraceHeaders()).
			WithTracing()
		if cfg.APIKey != "" {
			builder = builder.WithBearerToken(cfg.APIKey)
		}
		return NewHTTPGenerator(builder.Build(), cfg.Endpoint, log), nil
	case config.ProviderAMQP:
		return NewAMQPGenerator(messaging.NewRPCClient(cfg.AMQP.URL, log), cfg.AMQP.Queue, log), nil
	case config.ProviderOpenAI:
		return NewOpenAIGenerator(cfg, log), nil
	case config.ProviderGemini:
		return NewGeminiGenerator(ctx, cfg, log)
	default:
		return nil, fmt.Errorf("unknown generation provider %q", cfg.Provider)
	}
}
