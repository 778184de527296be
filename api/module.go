// Package api exposes proposal validation, drafts and submissions over HTTP.
// Drafts are held in memory; a draft is removed once its submission succeeds.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gaborage/go-proposals/config"
	"github.com/gaborage/go-proposals/form"
	"github.com/gaborage/go-proposals/logger"
	"github.com/gaborage/go-proposals/proposal"
	"github.com/gaborage/go-proposals/server"
	"github.com/gaborage/go-proposals/submission"
	"github.com/gaborage/go-proposals/trace"
)

// Module serves the /v1 proposal routes.
type Module struct {
	cfg          *config.Config
	log          logger.Logger
	gen          submission.Generator
	drafts       *DraftStore
	pipelineOpts []submission.Option
}

// New returns a module sending submissions to gen. opts are applied to every
// pipeline after the defaults derived from cfg.
func New(cfg *config.Config, gen submission.Generator, log logger.Logger, opts ...submission.Option) *Module {
	if log == nil {
		log = logger.Nop()
	}
	log = log.WithFields(map[string]any{"component": "api"})

	base := []submission.Option{
		submission.WithTimeout(cfg.Generation.Timeout),
		submission.WithLogger(log),
	}
	return &Module{
		cfg:          cfg,
		log:          log,
		gen:          gen,
		drafts:       NewDraftStore(cfg.Server.Drafts.Max, log),
		pipelineOpts: append(base, opts...),
	}
}

// Drafts returns the draft store.
func (m *Module) Drafts() *DraftStore { return m.drafts }

// Close drops every draft and abandons their submissions.
func (m *Module) Close() { m.drafts.Close() }

// RegisterRoutes adds the /v1 routes to r.
func (m *Module) RegisterRoutes(r server.RouteRegistrar) {
	v1 := r.Group("/v1")

	server.GET(v1, m.cfg, "/proposals/schema", m.schema)
	server.POST(v1, m.cfg, "/proposals/validate", m.validate)
	server.POST(v1, m.cfg, "/proposals", m.submitOnce)

	server.POST(v1, m.cfg, "/drafts", m.createDraft)
	server.GET(v1, m.cfg, "/drafts/:id", m.getDraft)
	server.DELETE(v1, m.cfg, "/drafts/:id", m.deleteDraft)
	server.PUT(v1, m.cfg, "/drafts/:id/fields/:path", m.setField)
	server.POST(v1, m.cfg, "/drafts/:id/lists/:path/entries", m.appendEntry)
	server.PUT(v1, m.cfg, "/drafts/:id/lists/:path/entries/:entryId", m.updateEntry)
	server.DELETE(v1, m.cfg, "/drafts/:id/lists/:path/entries/:entryId", m.removeEntry)
	server.POST(v1, m.cfg, "/drafts/:id/submit", m.submitDraft)
	server.POST(v1, m.cfg, "/drafts/:id/retry", m.retryDraft)
	server.POST(v1, m.cfg, "/drafts/:id/cancel", m.cancelDraft)
}

func (m *Module) newPipeline() *submission.Pipeline {
	return submission.NewPipeline(m.gen, m.pipelineOpts...)
}

func (m *Module) schema(_ struct{}, _ server.HandlerContext) (SchemaResponse, server.IAPIError) {
	return SchemaResponse{
		Fields:     proposal.Describe(),
		ListFields: form.ListPaths(),
	}, nil
}

func (m *Module) validate(body proposalBody, _ server.HandlerContext) (ValidationResponse, server.IAPIError) {
	result := proposal.Validate(body.Request)
	if !result.Valid() {
		return ValidationResponse{}, rejected(result.Errors, result.Warnings)
	}
	return ValidationResponse{Valid: true, Request: *result.Request, Warnings: result.Warnings}, nil
}

// submitOnce validates and generates without keeping a draft.
func (m *Module) submitOnce(body proposalBody, hc server.HandlerContext) (server.Result[SubmissionResponse], server.IAPIError) {
	p := m.newPipeline()
	res, err := p.Submit(hc.Context(), body.Request)
	if err != nil {
		return server.Result[SubmissionResponse]{}, submissionError(err, p.State())
	}
	return m.submitted("", p.State(), res), nil
}

func (m *Module) createDraft(body proposalBody, hc server.HandlerContext) (server.Result[DraftView], server.IAPIError) {
	f := form.New()
	if !body.Empty {
		f = form.FromRequest(body.Request)
	}

	d, err := m.drafts.Create(f, m.newPipeline())
	if errors.Is(err, ErrDraftLimit) {
		return server.Result[DraftView]{}, server.NewBaseAPIError(CodeDraftLimit,
			"Too many open drafts, try again later", http.StatusServiceUnavailable)
	}
	if err != nil {
		return server.Result[DraftView]{}, server.NewInternalServerError("")
	}
	return server.Created(newDraftView(d)).WithHeader("Location", strings.TrimSuffix(hc.Echo.Request().URL.Path, "/")+"/"+d.ID), nil
}

func (m *Module) getDraft(req draftRequest, _ server.HandlerContext) (DraftView, server.IAPIError) {
	d, ok := m.drafts.Get(req.ID)
	if !ok {
		return DraftView{}, draftNotFound(req.ID)
	}
	return newDraftView(d), nil
}

func (m *Module) deleteDraft(req draftRequest, _ server.HandlerContext) (server.NoContentResult, server.IAPIError) {
	if !m.drafts.Delete(req.ID) {
		return server.NoContentResult{}, draftNotFound(req.ID)
	}
	return server.NoContent(), nil
}

func (m *Module) setField(req fieldRequest, _ server.HandlerContext) (DraftView, server.IAPIError) {
	d, ok := m.drafts.Get(req.ID)
	if !ok {
		return DraftView{}, draftNotFound(req.ID)
	}
	if err := applyField(d.Session().Form(), req.Path, req.Value); err != nil {
		return DraftView{}, err
	}
	return newDraftView(d), nil
}

// applyField decodes a JSON value according to the kind of the field at path.
func applyField(f *form.Form, rawPath string, value json.RawMessage) server.IAPIError {
	path, err := form.ParsePath(rawPath)
	if err != nil {
		return formError(err, rawPath)
	}

	invalid := func(expected string) server.IAPIError {
		return server.NewBaseAPIError(CodeInvalidValue, rawPath+" must be "+expected, http.StatusBadRequest).
			WithDetails("field", rawPath)
	}

	switch form.KindOf(path) {
	case form.KindText:
		var s string
		if json.Unmarshal(value, &s) != nil {
			return invalid("a string")
		}
		err = f.SetText(path, s)
	case form.KindFlag:
		var b bool
		if json.Unmarshal(value, &b) != nil {
			return invalid("a boolean")
		}
		err = f.SetFlag(path, b)
	case form.KindBudget:
		text, ok := budgetText(value)
		if !ok {
			return invalid("a number, a numeric string or null")
		}
		err = f.SetBudget(text)
	case form.KindList:
		return server.NewBaseAPIError(CodeInvalidValue, rawPath+" is a list, use its entries endpoints", http.StatusBadRequest).
			WithDetails("field", rawPath)
	}
	if err != nil {
		return formError(err, rawPath)
	}
	return nil
}

// budgetText turns a JSON number, string or null into budget input text.
func budgetText(value json.RawMessage) (string, bool) {
	var v any
	if err := json.Unmarshal(value, &v); err != nil {
		return "", false
	}
	switch t := v.(type) {
	case nil:
		return "", true
	case string:
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	default:
		return "", false
	}
}

func (m *Module) appendEntry(req appendEntryRequest, _ server.HandlerContext) (server.Result[EntryView], server.IAPIError) {
	d, ok := m.drafts.Get(req.ID)
	if !ok {
		return server.Result[EntryView]{}, draftNotFound(req.ID)
	}
	f := d.Session().Form()
	id, err := f.Append(form.FieldPath(req.Path), *req.Value)
	if err != nil {
		return server.Result[EntryView]{}, formError(err, req.Path)
	}
	return server.Created(EntryView{ID: id, Value: *req.Value, Revision: uint64(f.Revision())}), nil
}

func (m *Module) updateEntry(req updateEntryRequest, _ server.HandlerContext) (EntryView, server.IAPIError) {
	d, ok := m.drafts.Get(req.ID)
	if !ok {
		return EntryView{}, draftNotFound(req.ID)
	}
	f := d.Session().Form()
	if err := f.Update(form.FieldPath(req.Path), form.EntryID(req.EntryID), *req.Value); err != nil {
		return EntryView{}, formError(err, req.Path)
	}
	return EntryView{ID: form.EntryID(req.EntryID), Value: *req.Value, Revision: uint64(f.Revision())}, nil
}

func (m *Module) removeEntry(req entryRequest, _ server.HandlerContext) (server.NoContentResult, server.IAPIError) {
	d, ok := m.drafts.Get(req.ID)
	if !ok {
		return server.NoContentResult{}, draftNotFound(req.ID)
	}
	if err := d.Session().Form().Remove(form.FieldPath(req.Path), form.EntryID(req.EntryID)); err != nil {
		return server.NoContentResult{}, formError(err, req.Path)
	}
	return server.NoContent(), nil
}

func (m *Module) submitDraft(req draftRequest, hc server.HandlerContext) (server.Result[SubmissionResponse], server.IAPIError) {
	d, ok := m.drafts.Get(req.ID)
	if !ok {
		return server.Result[SubmissionResponse]{}, draftNotFound(req.ID)
	}
	res, err := d.Session().Submit(hc.Context())
	return m.finish(d, res, err)
}

func (m *Module) retryDraft(req draftRequest, hc server.HandlerContext) (server.Result[SubmissionResponse], server.IAPIError) {
	d, ok := m.drafts.Get(req.ID)
	if !ok {
		return server.Result[SubmissionResponse]{}, draftNotFound(req.ID)
	}
	res, err := d.Session().Retry(hc.Context())
	return m.finish(d, res, err)
}

func (m *Module) cancelDraft(req draftRequest, _ server.HandlerContext) (CancelResponse, server.IAPIError) {
	d, ok := m.drafts.Get(req.ID)
	if !ok {
		return CancelResponse{}, draftNotFound(req.ID)
	}
	if !d.Session().Cancel() {
		return CancelResponse{}, server.NewConflictError(CodeNothingToCancel, "No submission is in progress").
			WithDetails("state", newStateView(d.Session().State()))
	}
	return CancelResponse{Canceled: true, State: newStateView(d.Session().State())}, nil
}

// finish renders a draft submission outcome. A succeeded draft is removed
// from the store.
func (m *Module) finish(d *Draft, res *submission.Result, err error) (server.Result[SubmissionResponse], server.IAPIError) {
	state := d.Session().State()
	if err != nil {
		return server.Result[SubmissionResponse]{}, submissionError(err, state)
	}
	m.drafts.Delete(d.ID)
	m.log.Info().Str("draft_id", d.ID).Str("job_id", res.JobID).Msg("Draft submitted")
	return m.submitted(d.ID, state, res), nil
}

func (m *Module) submitted(draftID string, state submission.State, res *submission.Result) server.Result[SubmissionResponse] {
	resp := SubmissionResponse{DraftID: draftID, JobID: res.JobID, Result: newResultView(res)}
	if s, ok := state.(submission.Succeeded); ok {
		resp.Attempt = s.Attempt
	}
	return server.NewResult(http.StatusOK, resp).WithHeader(trace.HeaderJobID, res.JobID)
}
