package api

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/gaborage/go-proposals/form"
	"github.com/gaborage/go-proposals/logger"
	"github.com/gaborage/go-proposals/observability"
	"github.com/gaborage/go-proposals/submission"
)

// ErrDraftLimit is returned by Create when the store is full.
var ErrDraftLimit = errors.New("api: draft limit reached")

const meterName = "go-proposals/api"

// Draft is one proposal request being edited through the API.
type Draft struct {
	ID        string
	CreatedAt time.Time

	session  *submission.Session
	unwatch  func()
	mu       sync.Mutex
	modified time.Time
}

// Session returns the form and pipeline of the draft.
func (d *Draft) Session() *submission.Session { return d.session }

// UpdatedAt is the time of the last edit.
func (d *Draft) UpdatedAt() time.Time {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.modified
}

func (d *Draft) touch(t time.Time) {
	d.mu.Lock()
	d.modified = t
	d.mu.Unlock()
}

// DraftStore keeps drafts in memory. Drafts are lost on restart.
type DraftStore struct {
	mu     sync.RWMutex
	drafts map[string]*Draft
	max    int
	log    logger.Logger
	open   metric.Int64UpDownCounter
	now    func() time.Time
}

// NewDraftStore returns a store holding at most maxDrafts drafts. Zero means
// unbounded.
func NewDraftStore(maxDrafts int, log logger.Logger) *DraftStore {
	if log == nil {
		log = logger.Nop()
	}
	s := &DraftStore{
		drafts: make(map[string]*Draft),
		max:    maxDrafts,
		log:    log,
		now:    time.Now,
	}

	open, err := observability.CreateUpDownCounter(otel.GetMeterProvider().Meter(meterName),
		"proposal.drafts.open", "Drafts currently held in memory")
	if err != nil {
		log.Warn().Err(err).Msg("Failed to create drafts gauge")
	}
	s.open = open
	return s
}

// Create stores a new draft editing f through p.
func (s *DraftStore) Create(f *form.Form, p *submission.Pipeline) (*Draft, error) {
	now := s.now()
	d := &Draft{
		ID:        uuid.NewString(),
		CreatedAt: now,
		session:   submission.NewSession(f, p),
		modified:  now,
	}
	d.unwatch = f.OnChange(func(form.Change) { d.touch(s.now()) })

	s.mu.Lock()
	if s.max > 0 && len(s.drafts) >= s.max {
		s.mu.Unlock()
		d.release()
		return nil, ErrDraftLimit
	}
	s.drafts[d.ID] = d
	s.mu.Unlock()

	s.adjust(1)
	s.log.Debug().Str("draft_id", d.ID).Msg("Draft created")
	return d, nil
}

// Get returns the draft with id.
func (s *DraftStore) Get(id string) (*Draft, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.drafts[id]
	return d, ok
}

// Delete removes a draft and abandons its in-flight submission, if any.
func (s *DraftStore) Delete(id string) bool {
	s.mu.Lock()
	d, ok := s.drafts[id]
	delete(s.drafts, id)
	s.mu.Unlock()

	if !ok {
		return false
	}
	d.release()
	s.adjust(-1)
	s.log.Debug().Str("draft_id", id).Msg("Draft removed")
	return true
}

// Len returns the number of stored drafts.
func (s *DraftStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.drafts)
}

// Close removes every draft.
func (s *DraftStore) Close() {
	s.mu.Lock()
	drafts := s.drafts
	s.drafts = make(map[string]*Draft)
	s.mu.Unlock()

	for _, d := range drafts {
		d.release()
	}
	s.adjust(-int64(len(drafts)))
}

func (s *DraftStore) adjust(delta int64) {
	if s.open != nil && delta != 0 {
		s.open.Add(context.Background(), delta)
	}
}

func (d *Draft) release() {
	d.unwatch()
	d.session.Close()
	d.session.Cancel()
}
