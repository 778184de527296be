package submission

import (
	"context"

	"github.com/gaborage/go-proposals/form"
)

// Session ties a form to a pipeline: every form mutation is reported to the
// pipeline as an edit, and Submit sends a snapshot of the form.
type Session struct {
	form        *form.Form
	pipeline    *Pipeline
	unsubscribe func()
}

// NewSession subscribes p to edits of f. Call Close to detach.
func NewSession(f *form.Form, p *Pipeline) *Session {
	s := &Session{form: f, pipeline: p}
	s.unsubscribe = f.OnChange(func(form.Change) { p.NotifyEdit() })
	return s
}

func (s *Session) Form() *form.Form { return s.form }

func (s *Session) Pipeline() *Pipeline { return s.pipeline }

func (s *Session) State() State { return s.pipeline.State() }

// Submit validates and sends the current contents of the form.
func (s *Session) Submit(ctx context.Context) (*Result, error) {
	req, _ := s.form.Snapshot()
	return s.pipeline.Submit(ctx, req)
}

func (s *Session) Retry(ctx context.Context) (*Result, error) { return s.pipeline.Retry(ctx) }

func (s *Session) Cancel() bool { return s.pipeline.Cancel() }

// Close stops forwarding form edits to the pipeline.
func (s *Session) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
}
