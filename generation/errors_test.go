package generation

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestServiceErrorFromPayload(t *testing.T) {
	err := serviceError(http.StatusUnprocessableEntity, []byte(`{"error":{"code":"bad_stack","message":"unknown framework"}}`))
	assert.Equal(t, http.StatusUnprocessableEntity, err.Status)
	assert.Equal(t, "bad_stack", err.Code)
	assert.Equal(t, "unknown framework", err.Message)
}

func TestServiceErrorFromPlainBody(t *testing.T) {
	err := serviceError(http.StatusBadGateway, []byte(" upstream down \n"))
	assert.Empty(t, err.Code)
	assert.Equal(t, "upstream down", err.Message)

	assert.Equal(t, "empty response", serviceError(http.StatusInternalServerError, nil).Message)
}

func TestTransportErrorDetectsDeadline(t *testing.T) {
	assert.True(t, transportError("post", fmt.Errorf("wrapped: %w", context.DeadlineExceeded)).Timeout)
	assert.False(t, transportError("post", errors.New("refused")).Timeout)
}
