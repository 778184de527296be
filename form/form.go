// Package form holds a proposal request under construction. List fields keep
// stable entry identifiers across appends and removals, and every mutation is
// serialized and versioned.
package form

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/gaborage/go-proposals/proposal"
)

var (
	// ErrUnknownField is returned for paths that are not part of the schema or
	// that do not match the setter used.
	ErrUnknownField = errors.New("unknown field")
	// ErrEntryNotFound is returned when an entry ID is not present in the list.
	ErrEntryNotFound = errors.New("entry not found")
)

// EntryID identifies one list entry for its whole lifetime. IDs are never reused.
type EntryID string

// Entry is one value of a list field.
type Entry struct {
	ID    EntryID `json:"id"`
	Value string  `json:"value"`
}

// Revision increases by one with every mutation.
type Revision uint64

// ChangeKind names the mutation that produced a Change.
type ChangeKind string

const (
	ChangeAppend ChangeKind = "append"
	ChangeRemove ChangeKind = "remove"
	ChangeUpdate ChangeKind = "update"
	ChangeSet    ChangeKind = "set"
)

// Change describes one applied mutation.
type Change struct {
	Kind     ChangeKind
	Path     FieldPath
	EntryID  EntryID
	Revision Revision
}

// Listener is notified after each mutation, outside the form lock. Changes
// are delivered one at a time in revision order, even when mutations race.
// A mutation may return before its listeners ran if another goroutine is
// already delivering.
type Listener func(Change)

// Form owns one ProposalRequest being edited. It is safe for concurrent use.
type Form struct {
	mu        sync.Mutex
	scalars   proposal.ProposalRequest
	lists     map[FieldPath][]Entry
	rev       Revision
	listeners map[int]Listener
	nextLnr   int
	pending   []Change
	// dispatching is set while a goroutine drains pending.
	dispatching bool
	newID       func() EntryID
}

// New returns an empty form with the schema defaults applied.
func New() *Form {
	f := &Form{
		lists:     make(map[FieldPath][]Entry, len(listFields)),
		listeners: make(map[int]Listener),
		newID:     func() EntryID { return EntryID(uuid.NewString()) },
	}
	f.scalars.IncludeDiagrams = proposal.BoolPtr(true)
	f.scalars.Format = proposal.FormatPDF
	return f
}

// FromRequest seeds a form with the fields of req. Every list value receives a
// fresh entry ID.
func FromRequest(req proposal.ProposalRequest) *Form {
	f := New()
	scalars := req.Clone()

	for _, path := range listOrder {
		values := listFields[path](&scalars)
		for _, v := range *values {
			f.lists[path] = append(f.lists[path], Entry{ID: f.newID(), Value: v})
		}
		*values = nil
	}

	if scalars.IncludeDiagrams == nil {
		scalars.IncludeDiagrams = proposal.BoolPtr(true)
	}
	if scalars.Format == "" {
		scalars.Format = proposal.FormatPDF
	}
	f.scalars = scalars
	return f
}

// Append adds value at the end of the list at path and returns its ID.
func (f *Form) Append(path FieldPath, value string) (EntryID, error) {
	if _, ok := listFields[path]; !ok {
		return "", fmt.Errorf("%w: %q is not a list", ErrUnknownField, path)
	}

	f.mu.Lock()
	id := f.newID()
	f.lists[path] = append(f.lists[path], Entry{ID: id, Value: value})
	f.commitLocked(ChangeAppend, path, id)
	f.mu.Unlock()

	f.dispatch()
	return id, nil
}

// Remove deletes exactly the entry id. Siblings keep their order and IDs.
func (f *Form) Remove(path FieldPath, id EntryID) error {
	if _, ok := listFields[path]; !ok {
		return fmt.Errorf("%w: %q is not a list", ErrUnknownField, path)
	}

	f.mu.Lock()
	entries := f.lists[path]
	idx := indexOf(entries, id)
	if idx < 0 {
		f.mu.Unlock()
		return fmt.Errorf("%w: %s in %s", ErrEntryNotFound, id, path)
	}
	f.lists[path] = slices.Delete(slices.Clone(entries), idx, idx+1)
	f.commitLocked(ChangeRemove, path, id)
	f.mu.Unlock()

	f.dispatch()
	return nil
}

// Update replaces the value of entry id in place.
func (f *Form) Update(path FieldPath, id EntryID, value string) error {
	if _, ok := listFields[path]; !ok {
		return fmt.Errorf("%w: %q is not a list", ErrUnknownField, path)
	}

	f.mu.Lock()
	entries := f.lists[path]
	idx := indexOf(entries, id)
	if idx < 0 {
		f.mu.Unlock()
		return fmt.Errorf("%w: %s in %s", ErrEntryNotFound, id, path)
	}
	updated := slices.Clone(entries)
	updated[idx].Value = value
	f.lists[path] = updated
	f.commitLocked(ChangeUpdate, path, id)
	f.mu.Unlock()

	f.dispatch()
	return nil
}

// Entries returns a copy of the list at path in order.
func (f *Form) Entries(path FieldPath) ([]Entry, error) {
	if _, ok := listFields[path]; !ok {
		return nil, fmt.Errorf("%w: %q is not a list", ErrUnknownField, path)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.lists[path]), nil
}

// Lists returns a copy of every non-empty list keyed by path.
func (f *Form) Lists() map[FieldPath][]Entry {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make(map[FieldPath][]Entry, len(f.lists))
	for path, entries := range f.lists {
		if len(entries) > 0 {
			out[path] = slices.Clone(entries)
		}
	}
	return out
}

// SetText sets a string or enumerated field. Values are stored as given;
// trimming and enum checks happen at validation.
func (f *Form) SetText(path FieldPath, value string) error {
	set, ok := textFields[path]
	if !ok {
		return fmt.Errorf("%w: %q is not a text field", ErrUnknownField, path)
	}

	f.mu.Lock()
	set(&f.scalars, value)
	f.commitLocked(ChangeSet, path, "")
	f.mu.Unlock()

	f.dispatch()
	return nil
}

// SetFlag sets a boolean field.
func (f *Form) SetFlag(path FieldPath, value bool) error {
	set, ok := flagFields[path]
	if !ok {
		return fmt.Errorf("%w: %q is not a flag", ErrUnknownField, path)
	}

	f.mu.Lock()
	set(&f.scalars, value)
	f.commitLocked(ChangeSet, path, "")
	f.mu.Unlock()

	f.dispatch()
	return nil
}

// SetBudget parses text and stores the budget. Blank text clears it.
// Unparseable or negative input returns a proposal.FieldError and leaves the
// stored budget unchanged.
func (f *Form) SetBudget(text string) error {
	budget, ferr := proposal.ParseBudget(text)
	if ferr != nil {
		return *ferr
	}

	f.mu.Lock()
	f.scalars.Budget = budget
	f.commitLocked(ChangeSet, Budget, "")
	f.mu.Unlock()

	f.dispatch()
	return nil
}

// Snapshot returns a deep copy of the current request and its revision.
func (f *Form) Snapshot() (proposal.ProposalRequest, Revision) {
	f.mu.Lock()
	defer f.mu.Unlock()

	req := f.scalars.Clone()
	for _, path := range listOrder {
		entries := f.lists[path]
		if len(entries) == 0 {
			continue
		}
		values := make([]string, len(entries))
		for i, e := range entries {
			values[i] = e.Value
		}
		*listFields[path](&req) = values
	}
	return req, f.rev
}

// Revision returns the current revision.
func (f *Form) Revision() Revision {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rev
}

// OnChange registers l and returns a function that unregisters it.
func (f *Form) OnChange(l Listener) (unsubscribe func()) {
	f.mu.Lock()
	id := f.nextLnr
	f.nextLnr++
	f.listeners[id] = l
	f.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.listeners, id)
			f.mu.Unlock()
		})
	}
}

func (f *Form) commitLocked(kind ChangeKind, path FieldPath, id EntryID) {
	f.rev++
	f.pending = append(f.pending, Change{Kind: kind, Path: path, EntryID: id, Revision: f.rev})
}

// dispatch delivers pending changes to listeners in registration order.
// Only one goroutine drains at a time; the others leave their changes to it.
func (f *Form) dispatch() {
	f.mu.Lock()
	if f.dispatching {
		f.mu.Unlock()
		return
	}
	f.dispatching = true
	for len(f.pending) > 0 {
		change := f.pending[0]
		f.pending = f.pending[1:]
		listeners := f.listenersLocked()
		f.mu.Unlock()

		for _, l := range listeners {
			l(change)
		}

		f.mu.Lock()
	}
	f.pending = nil
	f.dispatching = false
	f.mu.Unlock()
}

func (f *Form) listenersLocked() []Listener {
	ids := make([]int, 0, len(f.listeners))
	for id := range f.listeners {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	listeners := make([]Listener, 0, len(ids))
	for _, id := range ids {
		listeners = append(listeners, f.listeners[id])
	}
	return listeners
}

func indexOf(entries []Entry, id EntryID) int {
	return slices.IndexFunc(entries, func(e Entry) bool { return e.ID == id })
}
