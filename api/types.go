package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/gaborage/go-proposals/form"
	"github.com/gaborage/go-proposals/proposal"
	"github.com/gaborage/go-proposals/server"
	"github.com/gaborage/go-proposals/submission"
)

// proposalBody is a request whose body is a whole ProposalRequest. It decodes
// itself so that shape errors come back as field errors.
type proposalBody struct {
	Request proposal.ProposalRequest `validate:"-"`
	Empty   bool                     `json:"-"`
}

func (b *proposalBody) BindRequest(c echo.Context) error {
	data, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		b.Empty = true
		return nil
	}

	req, err := proposal.Unmarshal(data)
	if err != nil {
		var verrs proposal.ValidationErrors
		if errors.As(err, &verrs) {
			return rejected(verrs, nil)
		}
		return err
	}
	b.Request = req
	return nil
}

type draftRequest struct {
	ID string `param:"id" validate:"required"`
}

type fieldRequest struct {
	ID    string          `param:"id" validate:"required"`
	Path  string          `param:"path" validate:"required"`
	Value json.RawMessage `json:"value" validate:"required"`
}

type appendEntryRequest struct {
	ID    string  `param:"id" validate:"required"`
	Path  string  `param:"path" validate:"required"`
	Value *string `json:"value" validate:"required"`
}

type updateEntryRequest struct {
	ID      string  `param:"id" validate:"required"`
	Path    string  `param:"path" validate:"required"`
	EntryID string  `param:"entryId" validate:"required"`
	Value   *string `json:"value" validate:"required"`
}

type entryRequest struct {
	ID      string `param:"id" validate:"required"`
	Path    string `param:"path" validate:"required"`
	EntryID string `param:"entryId" validate:"required"`
}

// ValidationResponse is the body of a successful validation.
type ValidationResponse struct {
	Valid    bool                     `json:"valid"`
	Request  proposal.ProposalRequest `json:"request"`
	Warnings []proposal.FieldWarning  `json:"warnings,omitempty"`
}

// SchemaResponse describes every request field.
type SchemaResponse struct {
	Fields     []proposal.FieldSpec `json:"fields"`
	ListFields []form.FieldPath     `json:"list_fields"`
}

// StateView renders a pipeline state.
type StateView struct {
	Phase     submission.Phase        `json:"phase"`
	JobID     string                  `json:"job_id,omitempty"`
	Attempt   int                     `json:"attempt,omitempty"`
	StartedAt *time.Time              `json:"started_at,omitempty"`
	Errors    []proposal.FieldError   `json:"errors,omitempty"`
	Warnings  []proposal.FieldWarning `json:"warnings,omitempty"`
	Error     string                  `json:"error,omitempty"`
	Retryable bool                    `json:"retryable,omitempty"`
}

func newStateView(st submission.State) StateView {
	v := StateView{Phase: st.Phase()}
	switch s := st.(type) {
	case submission.Rejected:
		v.Errors, v.Warnings = s.Errors, s.Warnings
	case submission.Submitting:
		started := s.StartedAt.UTC()
		v.JobID, v.Attempt, v.StartedAt = s.JobID, s.Attempt, &started
	case submission.Succeeded:
		v.JobID, v.Attempt = s.JobID, s.Attempt
	case submission.Failed:
		v.JobID, v.Attempt = s.JobID, s.Attempt
		if s.Err != nil {
			v.Error = s.Err.Error()
			v.Retryable = submission.IsRetryable(s.Err)
		}
	}
	return v
}

// DraftView is a snapshot of a draft. Request holds the list values in
// order; Lists pairs each value with its entry ID.
type DraftView struct {
	ID        string                          `json:"id"`
	Revision  uint64                          `json:"revision"`
	State     StateView                       `json:"state"`
	Request   proposal.ProposalRequest        `json:"request"`
	Lists     map[form.FieldPath][]form.Entry `json:"lists"`
	CreatedAt time.Time                       `json:"created_at"`
	UpdatedAt time.Time                       `json:"updated_at"`
}

func newDraftView(d *Draft) DraftView {
	f := d.Session().Form()
	req, rev := f.Snapshot()
	return DraftView{
		ID:        d.ID,
		Revision:  uint64(rev),
		State:     newStateView(d.Session().State()),
		Request:   req,
		Lists:     f.Lists(),
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt().UTC(),
	}
}

// EntryView is one list entry.
type EntryView struct {
	ID       form.EntryID `json:"id"`
	Value    string       `json:"value"`
	Revision uint64       `json:"revision"`
}

// ResultView renders a generated document. JSON bodies are embedded as is;
// anything else is base64 encoded in Body.
type ResultView struct {
	JobID       string          `json:"job_id"`
	ContentType string          `json:"content_type"`
	Document    json.RawMessage `json:"document,omitempty"`
	Body        []byte          `json:"body,omitempty"`
}

func newResultView(res *submission.Result) ResultView {
	v := ResultView{JobID: res.JobID, ContentType: res.ContentType}
	if json.Valid(res.Body) {
		v.Document = json.RawMessage(res.Body)
	} else {
		v.Body = res.Body
	}
	return v
}

// SubmissionResponse is returned by the submit and retry endpoints.
type SubmissionResponse struct {
	DraftID string     `json:"draft_id,omitempty"`
	JobID   string     `json:"job_id"`
	Attempt int        `json:"attempt"`
	Result  ResultView `json:"result"`
}

// CancelResponse is returned by the cancel endpoint.
type CancelResponse struct {
	Canceled bool      `json:"canceled"`
	State    StateView `json:"state"`
}

var _ server.Binder = (*proposalBody)(nil)
