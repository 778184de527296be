package generation

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/gaborage/go-proposals/config"
	"github.com/gaborage/go-proposals/logger"
	"github.com/gaborage/go-proposals/submission"
)

// GeminiGenerator asks a Gemini model to write the proposal.
type GeminiGenerator struct {
	client    *genai.Client
	model     string
	maxTokens int
	log       logger.Logger
}

var _ Backend = (*GeminiGenerator)(nil)

// NewGeminiGenerator creates the Gemini client. A non-empty cfg.Endpoint
// replaces the API endpoint.
func NewGeminiGenerator(ctx context.Context, cfg *config.GenerationConfig, log logger.Logger) (*GeminiGenerator, error) {
	if log == nil {
		log = logger.Nop()
	}
	opts := []option.ClientOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiGenerator{client: client, model: cfg.Model, maxTokens: cfg.MaxTokens, log: log}, nil
}

func (g *GeminiGenerator) Name() string { return "gemini" }

func (g *GeminiGenerator) Generate(ctx context.Context, job submission.Job) (*submission.Result, error) {
	m := g.client.GenerativeModel(g.model)
	m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(SystemPrompt())}}
	m.SetTemperature(llmTemperature)
	if g.maxTokens > 0 {
		m.SetMaxOutputTokens(int32(min(g.maxTokens, 1<<30)))
	}

	resp, err := m.GenerateContent(ctx, genai.Text(UserPrompt(job.Request)))
	if err != nil {
		return nil, mapGeminiError(err)
	}
	content := responseText(resp)
	if content == "" {
		return nil, transportError("generate content", errors.New("no content generated"))
	}
	return documentResult(job.ID, content)
}

// Health reports configuration only, like the OpenAI backend.
func (g *GeminiGenerator) Health(context.Context) error {
	if g.model == "" {
		return errors.New("gemini: model not configured")
	}
	return nil
}

func (g *GeminiGenerator) Close() error { return g.client.Close() }

// responseText concatenates the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	return b.String()
}

var grpcHTTPStatus = map[codes.Code]int{
	codes.InvalidArgument:    http.StatusBadRequest,
	codes.FailedPrecondition: http.StatusBadRequest,
	codes.OutOfRange:         http.StatusBadRequest,
	codes.Unauthenticated:    http.StatusUnauthorized,
	codes.PermissionDenied:   http.StatusForbidden,
	codes.NotFound:           http.StatusNotFound,
	codes.ResourceExhausted:  http.StatusTooManyRequests,
	codes.Internal:           http.StatusInternalServerError,
	codes.Unimplemented:      http.StatusNotImplemented,
}

func mapGeminiError(err error) error {
	var blocked *genai.BlockedError
	if errors.As(err, &blocked) {
		return &submission.ServiceError{Status: http.StatusUnprocessableEntity, Code: "content_blocked", Message: blocked.Error()}
	}
	if st, ok := status.FromError(err); ok {
		if httpStatus, known := grpcHTTPStatus[st.Code()]; known {
			return &submission.ServiceError{Status: httpStatus, Code: st.Code().String(), Message: st.Message()}
		}
		if st.Code() == codes.DeadlineExceeded {
			return &submission.TransportError{Op: "generate content", Timeout: true, Err: err}
		}
	}
	return transportError("generate content", err)
}
