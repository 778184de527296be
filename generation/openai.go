package generation

import (
	"context"
	"errors"
	"fmt"
	nethttp "net/http"

	"github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/gaborage/go-proposals/config"
	"github.com/gaborage/go-proposals/logger"
	"github.com/gaborage/go-proposals/submission"
)

const llmTemperature = 0.3

// OpenAIGenerator renders the request into a prompt and asks an OpenAI chat
// model to write the proposal.
type OpenAIGenerator struct {
	client    *openai.Client
	model     string
	maxTokens int
	log       logger.Logger
}

var _ Backend = (*OpenAIGenerator)(nil)

// NewOpenAIGenerator builds a client for cfg. A non-empty cfg.Endpoint replaces
// the API base URL.
func NewOpenAIGenerator(cfg *config.GenerationConfig, log logger.Logger) *OpenAIGenerator {
	if log == nil {
		log = logger.Nop()
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.Endpoint != "" {
		clientCfg.BaseURL = cfg.Endpoint
	}
	clientCfg.HTTPClient = &nethttp.Client{Transport: otelhttp.NewTransport(nethttp.DefaultTransport)}

	return &OpenAIGenerator{
		client:    openai.NewClientWithConfig(clientCfg),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		log:       log,
	}
}

func (g *OpenAIGenerator) Name() string { return "openai" }

func (g *OpenAIGenerator) Generate(ctx context.Context, job submission.Job) (*submission.Result, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       g.model,
		MaxTokens:   g.maxTokens,
		Temperature: llmTemperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: SystemPrompt()},
			{Role: openai.ChatMessageRoleUser, Content: UserPrompt(job.Request)},
		},
	})
	if err != nil {
		return nil, mapOpenAIError(err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return nil, transportError("chat completion", errors.New("no content generated"))
	}

	g.log.Debug().
		Str("job_id", job.ID).
		Int("prompt_tokens", resp.Usage.PromptTokens).
		Int("completion_tokens", resp.Usage.CompletionTokens).
		Msg("OpenAI completion received")
	return documentResult(job.ID, resp.Choices[0].Message.Content)
}

// Health reports configuration only. Calling the API would spend quota on
// every readiness probe.
func (g *OpenAIGenerator) Health(context.Context) error {
	if g.model == "" {
		return errors.New("openai: model not configured")
	}
	return nil
}

func (g *OpenAIGenerator) Close() error { return nil }

func mapOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.Type
		if apiErr.Code != nil {
			code = fmt.Sprint(apiErr.Code)
		}
		return &submission.ServiceError{Status: apiErr.HTTPStatusCode, Code: code, Message: apiErr.Message}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode >= nethttp.StatusBadRequest {
		return &submission.ServiceError{Status: reqErr.HTTPStatusCode, Message: reqErr.Error()}
	}
	return transportError("chat completion", err)
}
