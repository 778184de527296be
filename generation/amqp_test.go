package generation

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaborage/go-proposals/messaging"
	"github.com/gaborage/go-proposals/submission"
)

type fakeRequester struct {
	reply  *messaging.Reply
	err    error
	ready  bool
	closed bool

	gotOpts messaging.RequestOptions
	gotBody []byte
}

func (f *fakeRequester) Request(_ context.Context, opts messaging.RequestOptions, body []byte) (*messaging.Reply, error) {
	f.gotOpts = opts
	f.gotBody = body
	return f.reply, f.err
}

func (f *fakeRequester) IsReady() bool { return f.ready }

func (f *fakeRequester) Close() error {
	f.closed = true
	return nil
}

func TestAMQPGeneratorReturnsReply(t *testing.T) {
	req := &fakeRequester{reply: &messaging.Reply{ContentType: "application/json", Body: []byte(`{"content":"# Proposal"}`)}}
	gen := NewAMQPGenerator(req, "proposals.generate", nil)

	job := testJob()
	res, err := gen.Generate(context.Background(), job)
	require.NoError(t, err)

	assert.Equal(t, "proposals.generate", req.gotOpts.RoutingKey)
	assert.Equal(t, ContentTypeJSON, req.gotOpts.ContentType)
	assert.Equal(t, int32(1), req.gotOpts.Headers[headerJobAttempt])
	assert.Equal(t, job.Payload, req.gotBody)
	assert.Equal(t, job.ID, res.JobID)
	assert.JSONEq(t, `{"content":"# Proposal"}`, string(res.Body))
}

func TestAMQPGeneratorErrorReplies(t *testing.T) {
	tests := []struct {
		name       string
		reply      *messaging.Reply
		wantStatus int
		wantCode   string
	}{
		{
			name:       "error payload without status",
			reply:      &messaging.Reply{Body: []byte(`{"error":{"code":"bad_request","message":"missing stack"}}`)},
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "bad_request",
		},
		{
			name: "error payload with status",
			reply: &messaging.Reply{
				Headers: map[string]any{HeaderReplyStatus: int32(503)},
				Body:    []byte(`{"error":{"code":"overloaded","message":"try later"}}`),
			},
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   "overloaded",
		},
		{
			name: "status header only",
			reply: &messaging.Reply{
				Headers: map[string]any{HeaderReplyStatus: "400"},
				Body:    []byte("bad input"),
			},
			wantStatus: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := NewAMQPGenerator(&fakeRequester{reply: tt.reply}, "q", nil)
			_, err := gen.Generate(context.Background(), testJob())

			var se *submission.ServiceError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tt.wantStatus, se.Status)
			assert.Equal(t, tt.wantCode, se.Code)
		})
	}
}

func TestAMQPGeneratorTransportErrors(t *testing.T) {
	t.Run("deadline", func(t *testing.T) {
		gen := NewAMQPGenerator(&fakeRequester{err: context.DeadlineExceeded}, "q", nil)
		_, err := gen.Generate(context.Background(), testJob())
		var te *submission.TransportError
		require.ErrorAs(t, err, &te)
		assert.True(t, te.Timeout)
	})

	t.Run("connection lost", func(t *testing.T) {
		gen := NewAMQPGenerator(&fakeRequester{err: messaging.ErrConnectionLost}, "q", nil)
		_, err := gen.Generate(context.Background(), testJob())
		var te *submission.TransportError
		require.ErrorAs(t, err, &te)
		assert.False(t, te.Timeout)
		assert.True(t, errors.Is(err, messaging.ErrConnectionLost))
	})

	t.Run("empty reply", func(t *testing.T) {
		gen := NewAMQPGenerator(&fakeRequester{reply: &messaging.Reply{}}, "q", nil)
		_, err := gen.Generate(context.Background(), testJob())
		var te *submission.TransportError
		assert.ErrorAs(t, err, &te)
	})
}

func TestAMQPGeneratorHealthAndClose(t *testing.T) {
	req := &fakeRequester{}
	gen := NewAMQPGenerator(req, "q", nil)

	err := gen.Health(context.Background())
	assert.ErrorIs(t, err, messaging.ErrNotReady)

	req.ready = true
	assert.NoError(t, gen.Health(context.Background()))

	require.NoError(t, gen.Close())
	assert.True(t, req.closed)
	assert.Equal(t, "amqp", gen.Name())
}
