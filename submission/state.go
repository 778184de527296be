// Package submission drives a proposal request from the form to the generation
// service. A Pipeline moves through explicit states:
//
//	Editing -> Validating -> Rejected
//	                      -> Submitting -> Succeeded | Failed
//
// Validation happens before any network traffic. Submitting is the only state
// that waits on I/O, and it can be abandoned with Cancel or NotifyEdit, after
// which a late response is discarded.
package submission

import (
	"time"

	"github.com/gaborage/go-proposals/proposal"
)

// Phase names a pipeline state.
type Phase string

const (
	PhaseEditing    Phase = "editing"
	PhaseValidating Phase = "validating"
	PhaseRejected   Phase = "rejected"
	PhaseSubmitting Phase = "submitting"
	PhaseSucceeded  Phase = "succeeded"
	PhaseFailed     Phase = "failed"
)

// State is one of Editing, Validating, Rejected, Submitting, Succeeded or Failed.
type State interface {
	Phase() Phase
	isState()
}

// Editing is the initial state and the state after an edit or a cancel.
type Editing struct{}

// Validating is held while the request is checked.
type Validating struct{}

// Rejected means validation failed and nothing was sent.
type Rejected struct {
	Errors   []proposal.FieldError
	Warnings []proposal.FieldWarning
}

// Submitting means an attempt is in flight.
type Submitting struct {
	JobID     string
	Attempt   int
	StartedAt time.Time
}

// Succeeded is terminal. The request has been consumed.
type Succeeded struct {
	JobID   string
	Attempt int
	Result  *Result
}

// Failed keeps the validated request so it can be retried as is.
type Failed struct {
	JobID   string
	Attempt int
	Err     error
	Request proposal.ProposalRequest
}

func (Editing) Phase() Phase    { return PhaseEditing }
func (Validating) Phase() Phase { return PhaseValidating }
func (Rejected) Phase() Phase   { return PhaseRejected }
func (Submitting) Phase() Phase { return PhaseSubmitting }
func (Succeeded) Phase() Phase  { return PhaseSucceeded }
func (Failed) Phase() Phase     { return PhaseFailed }

func (Editing) isState()    {}
func (Validating) isState() {}
func (Rejected) isState()   {}
func (Submitting) isState() {}
func (Succeeded) isState()  {}
func (Failed) isState()     {}
