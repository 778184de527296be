package submission

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaborage/go-proposals/form"
	"github.com/gaborage/go-proposals/proposal"
)

func TestSessionSubmitsFormSnapshot(t *testing.T) {
	gen := &recordingGenerator{}
	f := form.FromRequest(validRequest())
	s := NewSession(f, NewPipeline(gen))
	defer s.Close()

	_, err := f.Append(form.Frontend, "Svelte")
	require.NoError(t, err)

	_, err = s.Submit(context.Background())
	require.NoError(t, err)

	calls := gen.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, []string{"React", "Svelte"}, calls[0].Request.TechnicalStack.Frontend)
	assert.Equal(t, PhaseSucceeded, s.State().Phase())
}

func TestSessionEditCancelsInFlightSubmission(t *testing.T) {
	started := make(chan struct{})
	gen := &recordingGenerator{answer: waitForContext(started)}
	f := form.FromRequest(validRequest())
	s := NewSession(f, NewPipeline(gen))
	defer s.Close()

	errCh := make(chan error, 1)
	go func() {
		_, err := s.Submit(context.Background())
		errCh <- err
	}()
	waitStarted(t, started)

	require.NoError(t, f.SetText(form.Timeline, "9 months"))

	assert.ErrorIs(t, waitErr(t, errCh), ErrCanceled)
	assert.Equal(t, PhaseEditing, s.State().Phase())
}

func TestSessionRejectedThenFixed(t *testing.T) {
	gen := &recordingGenerator{}
	f := form.New()
	s := NewSession(f, NewPipeline(gen))
	defer s.Close()

	_, err := s.Submit(context.Background())
	var rejected *RejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Empty(t, gen.calls())

	require.NoError(t, f.SetText(form.ProjectName, "Atlas"))
	assert.Equal(t, PhaseEditing, s.State().Phase())

	_, err = s.Pipeline().Submit(context.Background(), validRequest())
	require.NoError(t, err)
	assert.Len(t, gen.calls(), 1)
}

func TestSessionCloseStopsForwardingEdits(t *testing.T) {
	f := form.New()
	s := NewSession(f, NewPipeline(&recordingGenerator{}))

	_, err := s.Submit(context.Background())
	require.Error(t, err)
	require.Equal(t, PhaseRejected, s.State().Phase())

	s.Close()
	require.NoError(t, f.SetText(form.ClientName, "Acme"))
	assert.Equal(t, PhaseRejected, s.State().Phase())
}

func TestEmptyAuthenticationListIsRejected(t *testing.T) {
	req := validRequest()
	req.SecurityRequirements.Authentication = []string{}

	_, err := NewPipeline(&recordingGenerator{}).Submit(context.Background(), req)
	var rejected *RejectedError
	require.ErrorAs(t, err, &rejected)
	require.Len(t, rejected.Errors, 1)
	assert.Equal(t, "security_requirements.authentication", rejected.Errors[0].Field)
	assert.Equal(t, proposal.CodeEmptyList, rejected.Errors[0].Code)
}
