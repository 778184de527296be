package generation

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/gaborage/go-proposals/submission"
)

func TestResponseTextJoinsTextParts(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []genai.Part{
				genai.Text("# Proposal\n"),
				genai.Blob{MIMEType: "image/png", Data: []byte{1}},
				genai.Text("Body"),
			}},
		}},
	}
	assert.Equal(t, "# Proposal\nBody", responseText(resp))

	assert.Empty(t, responseText(nil))
	assert.Empty(t, responseText(&genai.GenerateContentResponse{}))
	assert.Empty(t, responseText(&genai.GenerateContentResponse{Candidates: []*genai.Candidate{{}}}))
}

func TestMapGeminiError(t *testing.T) {
	t.Run("invalid argument", func(t *testing.T) {
		err := mapGeminiError(status.Error(codes.InvalidArgument, "bad prompt"))
		var se *submission.ServiceError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, http.StatusBadRequest, se.Status)
		assert.Equal(t, "InvalidArgument", se.Code)
		assert.Equal(t, "bad prompt", se.Message)
	})

	t.Run("quota", func(t *testing.T) {
		err := mapGeminiError(status.Error(codes.ResourceExhausted, "quota"))
		var se *submission.ServiceError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, http.StatusTooManyRequests, se.Status)
		assert.True(t, submission.IsRetryable(err))
	})

	t.Run("deadline", func(t *testing.T) {
		err := mapGeminiError(status.Error(codes.DeadlineExceeded, "slow"))
		var te *submission.TransportError
		require.ErrorAs(t, err, &te)
		assert.True(t, te.Timeout)
	})

	t.Run("unavailable", func(t *testing.T) {
		err := mapGeminiError(status.Error(codes.Unavailable, "down"))
		var te *submission.TransportError
		require.ErrorAs(t, err, &te)
		assert.False(t, te.Timeout)
	})

	t.Run("blocked", func(t *testing.T) {
		err := mapGeminiError(&genai.BlockedError{})
		var se *submission.ServiceError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, "content_blocked", se.Code)
	})

	t.Run("context deadline", func(t *testing.T) {
		err := mapGeminiError(context.DeadlineExceeded)
		var te *submission.TransportError
		require.ErrorAs(t, err, &te)
		assert.True(t, te.Timeout)
	})

	t.Run("plain", func(t *testing.T) {
		var te *submission.TransportError
		assert.ErrorAs(t, mapGeminiError(errors.New("dial tcp")), &te)
	})
}
