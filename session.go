package redline

import (
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/looplab/fsm"
)

// Session lifecycle states.
const (
	StateClean    = "clean"
	StateApplying = "applying"
	StatePending  = "pending"
)

const (
	eventApply   = "apply"
	eventSettle  = "settle"
	eventAbandon = "abandon"
	eventAccept  = "accept"
	eventDiscard = "discard"
)

// Session owns the document of one editable unit and its review state.
//
// A session is either clean (freely editable), pending (suggestions await
// review, read-only) or applying (a programmatic update is in progress).
// A Session is not safe for concurrent use.
type Session struct {
	unit    string
	doc     Document
	pending *PendingEditState
	cfg     settings
	machine *fsm.FSM
}

// BatchResult reports the outcome of applying several suggestions.
type BatchResult struct {
	Applied []PendingEdit
	Failed  []Suggestion
	// Err aggregates one *SuggestionError per failed suggestion.
	Err error
}

// NewSession creates a clean session for unit holding doc.
func NewSession(unit string, doc Document, opts ...Option) *Session {
	cfg := defaultSettings()
	for _, opt := range opts {
		opt(&cfg)
	}
	return newSession(unit, doc.Normalize(), nil, cfg)
}

// RestoreSession recreates a session from a saved state, pending edits included.
func RestoreSession(state UnitState, opts ...Option) *Session {
	cfg := defaultSettings()
	for _, opt := range opts {
		opt(&cfg)
	}
	return restoreSession(state, cfg)
}

func restoreSession(state UnitState, cfg settings) *Session {
	if state.Style != "" {
		cfg.style = state.Style
	}
	var pending *PendingEditState
	if state.Pending != nil && len(state.Pending.Edits) > 0 {
		pending = state.Pending.clone()
	}
	return newSession(state.Unit, state.Document.Clone(), pending, cfg)
}

func newSession(unit string, doc Document, pending *PendingEditState, cfg settings) *Session {
	s := &Session{unit: unit, doc: doc, pending: pending, cfg: cfg}
	initial := StateClean
	if pending != nil {
		initial = StatePending
	}
	s.machine = fsm.NewFSM(
		initial,
		fsm.Events{
			{Name: eventApply, Src: []string{StateClean, StatePending}, Dst: StateApplying},
			{Name: eventSettle, Src: []string{StateApplying}, Dst: StatePending},
			{Name: eventAbandon, Src: []string{StateApplying}, Dst: StateClean},
			{Name: eventAccept, Src: []string{StatePending}, Dst: StateClean},
			{Name: eventDiscard, Src: []string{StatePending}, Dst: StateClean},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				s.cfg.logger.Debug("session state changed",
					"unit", s.unit, "event", e.Event, "from", e.Src, "to", e.Dst)
			},
		},
	)
	return s
}

// Unit returns the unit identifier.
func (s *Session) Unit() string { return s.unit }

// State returns the lifecycle state: clean, applying or pending.
func (s *Session) State() string { return s.machine.Current() }

// Document returns a copy of the current document, markings included.
func (s *Session) Document() Document { return s.doc.Clone() }

// PlainText returns the displayed text, deleted spans included.
func (s *Session) PlainText() string { return s.doc.PlainText() }

// Style returns the active presentation style.
func (s *Session) Style() StyleMode { return s.cfg.style }

// HasPendingEdits reports whether unreviewed edits exist.
func (s *Session) HasPendingEdits() bool {
	return s.pending != nil && len(s.pending.Edits) > 0
}

// Editable reports whether the user may edit the document directly.
func (s *Session) Editable() bool {
	return s.machine.Is(StateClean)
}

// Pending returns a copy of the review state, or nil when clean.
func (s *Session) Pending() *PendingEditState {
	if s.pending == nil {
		return nil
	}
	return s.pending.clone()
}

// Snapshot captures everything needed to restore the session later.
func (s *Session) Snapshot() UnitState {
	return UnitState{
		Unit:     s.unit,
		Document: s.doc.Clone(),
		Pending:  s.Pending(),
		Style:    s.cfg.style,
	}
}

// Sections extracts the sections of the current document.
func (s *Session) Sections() []Section {
	return ExtractSections(s.doc)
}

// Validate checks the current sections against limits.
func (s *Session) Validate(limits Limits) ValidationResult {
	return Validate(s.Sections(), limits)
}

// ApplyExternalContent diffs the document against text and marks the changes for review.
//
// While edits are pending, the new text supersedes them and is diffed against
// the snapshot taken before the first edit. Leading whitespace of text is
// dropped and a trailing newline of the document is kept. Returns a nil edit
// when text brings no change.
func (s *Session) ApplyExternalContent(ctx context.Context, text string) (*PendingEdit, error) {
	if err := s.begin(ctx); err != nil {
		return nil, err
	}

	base := s.doc
	if s.pending != nil {
		base = s.pending.Snapshot
	}
	baseText := base.PlainText()

	text = strings.TrimLeft(text, " \t\r\n")
	if strings.HasSuffix(baseText, "\n") && !strings.HasSuffix(text, "\n") {
		text += "\n"
	}

	if s.pending != nil && text == s.doc.TextWithout(MarkDelete) {
		return nil, s.end(ctx)
	}
	if text == baseText {
		if s.pending != nil {
			s.cfg.logger.Info("external content matches the original, dropping pending edits",
				"unit", s.unit, "edits", len(s.pending.Edits))
			s.doc = s.pending.Snapshot.Clone()
			s.pending = nil
		}
		return nil, s.end(ctx)
	}

	if s.pending != nil {
		s.cfg.logger.Info("external content supersedes pending edits",
			"unit", s.unit, "edits", len(s.pending.Edits))
	}

	ops := Diff(baseText, text)
	edit := PendingEdit{
		ID:     s.cfg.newID(),
		Kind:   EditExternal,
		From:   0,
		To:     len(baseText),
		Ops:    ops,
		Author: s.cfg.author,
	}
	marked := Reconcile(base, ops, s.reconcileOptions(edit))

	s.pending = &PendingEditState{
		HasPendingEdits: true,
		Snapshot:        base.Clone(),
		LastDiff:        ops,
		Edits:           []PendingEdit{edit},
		Style:           s.cfg.style,
	}
	s.doc = marked

	stats := Stats(ops)
	s.cfg.logger.Debug("applied external content",
		"unit", s.unit, "inserted", stats.Inserted, "deleted", stats.Deleted, "runs", len(marked))

	s.notify(ctx, ChangeExternal, &edit)
	return &edit, s.end(ctx)
}

// ApplySuggestion resolves sg against the displayed text and marks the replacement for review.
//
// Failures come back as *SuggestionError wrapping ErrInvalidSuggestion,
// ErrNotFound, ErrEmptyAnchor, ErrOverlap, ErrProtected or ErrDuplicate; the
// document is left untouched. Returns a nil edit when the replacement equals
// the resolved text.
func (s *Session) ApplySuggestion(ctx context.Context, sg Suggestion) (*PendingEdit, error) {
	if err := sg.Validate(); err != nil {
		return nil, &SuggestionError{Suggestion: sg, Cause: err}
	}
	if err := s.begin(ctx); err != nil {
		return nil, err
	}

	edit, err := s.applySuggestion(sg)
	if err != nil {
		s.cfg.logger.Warn("suggestion skipped",
			"unit", s.unit, "text", truncate(sg.TextToReplace, 40), "error", err)
		if endErr := s.end(ctx); endErr != nil {
			return nil, endErr
		}
		return nil, &SuggestionError{Suggestion: sg, Cause: err}
	}
	if edit == nil {
		return nil, s.end(ctx)
	}

	s.notify(ctx, ChangeSuggestion, edit)
	return edit, s.end(ctx)
}

func (s *Session) applySuggestion(sg Suggestion) (*PendingEdit, error) {
	key := SuggestionKey(sg)
	if s.pending != nil {
		for _, e := range s.pending.Edits {
			if e.Key == key {
				return nil, ErrDuplicate
			}
		}
	}

	res, err := Resolve(s.doc.PlainText(), sg, ResolveOptions{
		MaxMatches: s.cfg.maxMatches,
		Logger:     s.cfg.logger.With("unit", s.unit),
	})
	if err != nil {
		return nil, err
	}
	if _, marked := s.doc.RangeHas(res.From, res.To, AttrSuggestion); marked {
		return nil, ErrOverlap
	}
	if name, ok := s.doc.RangeHas(res.From, res.To, s.cfg.protected...); ok {
		return nil, fmt.Errorf("%w: %s", ErrProtected, name)
	}

	ops := Diff(res.Text, sg.TextReplacement)
	if !HasChanges(ops) {
		return nil, nil
	}

	author := sg.Author
	if author == "" {
		author = s.cfg.author
	}
	cp := sg
	edit := PendingEdit{
		ID:         s.cfg.newID(),
		Kind:       EditSuggestion,
		From:       res.From,
		To:         res.To,
		Ops:        ops,
		Author:     author,
		Reason:     sg.Reason,
		Suggestion: &cp,
		Key:        key,
	}
	marked := Reconcile(s.doc.Slice(res.From, res.To), ops, s.reconcileOptions(edit))

	if s.pending == nil {
		s.pending = &PendingEditState{Snapshot: s.doc.Clone(), Style: s.cfg.style}
	}
	s.pending.Edits = append(s.pending.Edits, edit)
	s.pending.LastDiff = ops
	s.pending.HasPendingEdits = true
	s.doc = s.doc.Splice(res.From, res.To, marked)

	s.cfg.logger.Debug("applied suggestion",
		"unit", s.unit, "id", edit.ID, "from", res.From, "to", res.To, "ambiguous", res.Ambiguous)
	return &edit, nil
}

// ApplySuggestions applies every suggestion in order. Failures do not stop the batch.
func (s *Session) ApplySuggestions(ctx context.Context, suggestions []Suggestion) BatchResult {
	var res BatchResult
	var errs *multierror.Error
	for _, sg := range suggestions {
		edit, err := s.ApplySuggestion(ctx, sg)
		if err != nil {
			res.Failed = append(res.Failed, sg)
			errs = multierror.Append(errs, err)
			continue
		}
		if edit != nil {
			res.Applied = append(res.Applied, *edit)
		}
	}
	res.Err = errs.ErrorOrNil()
	return res
}

// CanApply reports whether sg resolves to exactly one location without applying it.
func (s *Session) CanApply(sg Suggestion) bool {
	if sg.Validate() != nil {
		return false
	}
	res, err := Resolve(s.doc.PlainText(), sg, ResolveOptions{MaxMatches: s.cfg.maxMatches, Logger: s.cfg.logger})
	return err == nil && res.Matches == 1
}

// Accept commits the pending edits: deleted spans disappear and the markings
// of inserted spans are stripped. Accepting a clean session is a no-op.
func (s *Session) Accept(ctx context.Context) error {
	if s.machine.Is(StateApplying) {
		return ErrBusy
	}
	if !s.machine.Is(StatePending) {
		return nil
	}

	out := make(Document, 0, len(s.doc))
	for _, r := range s.doc {
		if r.Marker() == MarkDelete {
			continue
		}
		out = append(out, Run{Text: r.Text, Attributes: stripMarkers(r.Attributes)})
	}
	edits := len(s.pending.Edits)
	s.doc = out.Normalize()
	s.pending = nil

	if err := s.machine.Event(ctx, eventAccept); err != nil {
		return fmt.Errorf("accept: %w", err)
	}
	s.cfg.logger.Debug("accepted pending edits", "unit", s.unit, "edits", edits)
	s.notify(ctx, ChangeAccept, nil)
	return nil
}

// Discard restores the document to the snapshot taken before the first pending edit.
// Discarding a clean session is a no-op.
func (s *Session) Discard(ctx context.Context) error {
	if s.machine.Is(StateApplying) {
		return ErrBusy
	}
	if !s.machine.Is(StatePending) {
		return nil
	}

	edits := len(s.pending.Edits)
	s.doc = s.pending.Snapshot.Clone()
	s.pending = nil

	if err := s.machine.Event(ctx, eventDiscard); err != nil {
		return fmt.Errorf("discard: %w", err)
	}
	s.cfg.logger.Debug("discarded pending edits", "unit", s.unit, "edits", edits)
	s.notify(ctx, ChangeDiscard, nil)
	return nil
}

// Restyle switches the presentation style and re-renders pending edits with it.
func (s *Session) Restyle(ctx context.Context, mode StyleMode) error {
	if _, err := ParseStyle(string(mode)); err != nil {
		return err
	}
	if s.machine.Is(StateApplying) {
		return ErrBusy
	}
	if mode == s.cfg.style {
		return nil
	}
	s.cfg.style = mode
	if !s.HasPendingEdits() {
		return nil
	}

	if err := s.begin(ctx); err != nil {
		return err
	}
	doc := s.pending.Snapshot.Clone()
	for _, e := range s.pending.Edits {
		doc = s.replay(doc, e)
	}
	s.doc = doc
	s.pending.Style = mode

	s.notify(ctx, ChangeRestyle, nil)
	return s.end(ctx)
}

func (s *Session) replay(doc Document, e PendingEdit) Document {
	opts := s.reconcileOptions(e)
	if e.Kind == EditExternal {
		return Reconcile(doc, e.Ops, opts)
	}
	return doc.Splice(e.From, e.To, Reconcile(doc.Slice(e.From, e.To), e.Ops, opts))
}

// ReplaceRange replaces [from, to) with text as a direct user edit.
// The new text takes the inline formatting of the character before it.
func (s *Session) ReplaceRange(ctx context.Context, from, to int, text string) error {
	if err := s.checkEditable(from, to); err != nil {
		return err
	}

	attrs := s.inheritedAttributes(from)
	var repl Document
	if text != "" {
		repl = Document{{Text: text, Attributes: attrs}}
	}
	s.doc = s.doc.Splice(from, to, repl)
	s.notify(ctx, ChangeUser, nil)
	return nil
}

// ToggleMark sets an inline attribute on [from, to), or clears it when the whole range has it.
func (s *Session) ToggleMark(ctx context.Context, name string, from, to int) error {
	if err := s.checkEditable(from, to); err != nil {
		return err
	}
	if from == to {
		return nil
	}

	parts := s.doc.Slice(from, to)
	all := true
	for _, p := range parts {
		if !p.Attributes.Has(name) {
			all = false
			break
		}
	}
	for i, p := range parts {
		if all {
			parts[i].Attributes = p.Attributes.Without(name)
		} else {
			parts[i].Attributes = p.Attributes.With(Attributes{name: TrueValue})
		}
	}
	s.doc = s.doc.Splice(from, to, parts)
	s.notify(ctx, ChangeUser, nil)
	return nil
}

func (s *Session) checkEditable(from, to int) error {
	switch {
	case s.machine.Is(StateApplying):
		return ErrBusy
	case !s.machine.Is(StateClean):
		return ErrReadOnly
	case from < 0 || to < from || to > s.doc.Len():
		return ErrOutOfRange
	}
	return nil
}

// inheritedAttributes returns the inline attributes at offset, skipping block terminators.
func (s *Session) inheritedAttributes(offset int) Attributes {
	text := s.doc.PlainText()
	for _, at := range []int{offset - 1, offset} {
		if at < 0 || at >= len(text) || text[at] == '\n' {
			continue
		}
		part := s.doc.Slice(at, at+1)
		if len(part) == 1 {
			return part[0].Attributes.Without(AttrHeader, AttrList)
		}
	}
	return nil
}

func (s *Session) reconcileOptions(e PendingEdit) ReconcileOptions {
	return ReconcileOptions{
		Presentation: PresentationFor(s.cfg.style),
		Author:       e.Author,
		Reason:       e.Reason,
		SuggestionID: e.ID,
		Logger:       s.cfg.logger.With("unit", s.unit),
	}
}

// begin enters the applying state. A session that is already applying returns ErrBusy.
func (s *Session) begin(ctx context.Context) error {
	if s.machine.Is(StateApplying) {
		return ErrBusy
	}
	if err := s.machine.Event(ctx, eventApply); err != nil {
		return fmt.Errorf("begin update: %w", err)
	}
	return nil
}

// end leaves the applying state for pending or clean depending on what is left to review.
func (s *Session) end(ctx context.Context) error {
	event := eventAbandon
	if s.HasPendingEdits() {
		event = eventSettle
	}
	if err := s.machine.Event(ctx, event); err != nil {
		return fmt.Errorf("end update: %w", err)
	}
	return nil
}

func (s *Session) notify(ctx context.Context, kind ChangeKind, edit *PendingEdit) {
	if s.cfg.hook == nil {
		return
	}
	s.cfg.hook(ctx, ChangeEvent{Unit: s.unit, Kind: kind, Edit: edit, Document: s.doc.Clone()})
}

func (p *PendingEditState) clone() *PendingEditState {
	out := &PendingEditState{
		HasPendingEdits: p.HasPendingEdits,
		Snapshot:        p.Snapshot.Clone(),
		LastDiff:        append([]DiffOp(nil), p.LastDiff...),
		Style:           p.Style,
	}
	for _, e := range p.Edits {
		e.Ops = append([]DiffOp(nil), e.Ops...)
		if e.Suggestion != nil {
			cp := *e.Suggestion
			e.Suggestion = &cp
		}
		out.Edits = append(out.Edits, e)
	}
	return out
}

// Clone deep-copies the state.
func (u UnitState) Clone() UnitState {
	out := u
	out.Document = u.Document.Clone()
	if u.Pending != nil {
		out.Pending = u.Pending.clone()
	}
	return out
}
