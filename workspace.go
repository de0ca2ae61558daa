package redline

import (
	"context"
	"sync"
)

// StateStore keeps the UnitState of units that are not active.
type StateStore interface {
	Get(ctx context.Context, unit string) (*UnitState, bool, error)
	Set(ctx context.Context, unit string, state *UnitState) error
	Delete(ctx context.Context, unit string) error
}

// SuggestionSource produces new content or suggestions for a unit.
type SuggestionSource interface {
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)
}

// GenerateRequest describes the unit a source is asked to improve.
type GenerateRequest struct {
	Unit     string
	Text     string
	Sections []Section
}

// GenerateResponse carries either replacement content or anchored suggestions.
type GenerateResponse struct {
	Content     string
	Suggestions []Suggestion
}

// GenerateResult reports what Generate applied.
type GenerateResult struct {
	// Edit is set when the source returned replacement content that changed the document.
	Edit *PendingEdit
	// Batch is set when the source returned suggestions.
	Batch BatchResult
}

// Workspace switches between editable units, keeping each unit's review state apart.
//
// Workspace methods are safe for concurrent use. The *Session returned by Open
// and Active is not: callers that use it directly must not do so concurrently
// with each other or with Workspace methods.
type Workspace struct {
	mu     sync.Mutex
	cfg    settings
	store  StateStore
	active *Session
}

// NewWorkspace creates a workspace. Without WithStore, states are kept in process memory.
func NewWorkspace(opts ...Option) *Workspace {
	cfg := defaultSettings()
	for _, opt := range opts {
		opt(&cfg)
	}
	store := cfg.store
	if store == nil {
		store = newMapStore()
	}
	return &Workspace{cfg: cfg, store: store}
}

// Open makes unit the active unit and returns its session.
//
// The previously active unit is saved to the store first. A unit seen before is
// restored verbatim, pending edits included; otherwise a clean session is
// created from initial.
func (w *Workspace) Open(ctx context.Context, unit string, initial Document) (*Session, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.active != nil && w.active.unit == unit {
		return w.active, nil
	}
	if err := w.saveLocked(ctx); err != nil {
		return nil, err
	}

	state, ok, err := w.store.Get(ctx, unit)
	if err != nil {
		return nil, &StoreError{Message: "get unit state", Unit: unit, Cause: err}
	}
	if ok {
		w.active = restoreSession(*state, w.cfg)
		w.cfg.logger.Debug("unit restored", "unit", unit, "state", w.active.State())
	} else {
		w.active = newSession(unit, initial.Normalize(), nil, w.cfg)
		w.cfg.logger.Debug("unit created", "unit", unit)
	}
	return w.active, nil
}

// Active returns the active session, or nil when no unit is open.
func (w *Workspace) Active() *Session {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.active
}

// Save writes the active unit's state to the store.
func (w *Workspace) Save(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.saveLocked(ctx)
}

func (w *Workspace) saveLocked(ctx context.Context) error {
	if w.active == nil {
		return nil
	}
	state := w.active.Snapshot()
	if err := w.store.Set(ctx, state.Unit, &state); err != nil {
		return &StoreError{Message: "save unit state", Unit: state.Unit, Cause: err}
	}
	return nil
}

// Forget drops a unit's saved state. Forgetting the active unit also closes it.
func (w *Workspace) Forget(ctx context.Context, unit string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.active != nil && w.active.unit == unit {
		w.active = nil
	}
	if err := w.store.Delete(ctx, unit); err != nil {
		return &StoreError{Message: "delete unit state", Unit: unit, Cause: err}
	}
	return nil
}

// Generate asks src for changes to the active unit and applies them for review.
func (w *Workspace) Generate(ctx context.Context, src SuggestionSource) (*GenerateResult, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	s := w.active
	if s == nil {
		return nil, ErrNoDocument
	}

	resp, err := src.Generate(ctx, GenerateRequest{
		Unit:     s.unit,
		Text:     s.doc.TextWithout(MarkInsert),
		Sections: s.Sections(),
	})
	if err != nil {
		return nil, &SourceError{Message: "generate " + s.unit, Cause: err}
	}
	if resp == nil {
		return &GenerateResult{}, nil
	}

	res := &GenerateResult{}
	if resp.Content != "" {
		edit, err := s.ApplyExternalContent(ctx, resp.Content)
		if err != nil {
			return nil, err
		}
		res.Edit = edit
	}
	if len(resp.Suggestions) > 0 {
		res.Batch = s.ApplySuggestions(ctx, resp.Suggestions)
	}
	w.cfg.logger.Debug("generated changes applied",
		"unit", s.unit, "content", resp.Content != "", "suggestions", len(resp.Suggestions),
		"failed", len(res.Batch.Failed))
	return res, nil
}

// Validate checks the active unit's sections against the configured limits.
func (w *Workspace) Validate() (ValidationResult, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.active == nil {
		return ValidationResult{}, ErrNoDocument
	}
	return w.active.Validate(w.cfg.limits), nil
}

// mapStore is the process-memory fallback store.
type mapStore struct {
	mu     sync.RWMutex
	states map[string]UnitState
}

func newMapStore() *mapStore {
	return &mapStore{states: make(map[string]UnitState)}
}

func (m *mapStore) Get(_ context.Context, unit string) (*UnitState, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st, ok := m.states[unit]
	if !ok {
		return nil, false, nil
	}
	st = st.Clone()
	return &st, true, nil
}

func (m *mapStore) Set(_ context.Context, unit string, state *UnitState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[unit] = state.Clone()
	return nil
}

func (m *mapStore) Delete(_ context.Context, unit string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, unit)
	return nil
}

var _ StateStore = (*mapStore)(nil)
