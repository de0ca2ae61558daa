package redline

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// ChangeKind tells which operation changed a session's document.
type ChangeKind string

const (
	ChangeExternal   ChangeKind = "external"
	ChangeSuggestion ChangeKind = "suggestion"
	ChangeRestyle    ChangeKind = "restyle"
	ChangeAccept     ChangeKind = "accept"
	ChangeDiscard    ChangeKind = "discard"
	ChangeUser       ChangeKind = "user"
)

// ChangeEvent is delivered to a ChangeHook after the document was replaced.
type ChangeEvent struct {
	Unit     string
	Kind     ChangeKind
	Edit     *PendingEdit
	Document Document
}

// ChangeHook observes document changes, typically to re-render an editor view.
// Hooks for external, suggestion and restyle changes run while the session is
// still applying; mutating the session from them fails with ErrBusy.
type ChangeHook func(ctx context.Context, ev ChangeEvent)

type settings struct {
	logger     *slog.Logger
	style      StyleMode
	author     string
	maxMatches int
	protected  []string
	limits     Limits
	hook       ChangeHook
	newID      func() string
	store      StateStore
}

func defaultSettings() settings {
	return settings{
		logger:     slog.Default(),
		style:      DefaultStyle,
		author:     DefaultAuthor,
		maxMatches: DefaultMaxMatches,
		protected:  []string{AttrBold},
		limits:     DefaultLimits(),
		newID:      uuid.NewString,
	}
}

// Option configures a Session or a Workspace.
type Option func(*settings)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithStyle sets the presentation style of pending edits.
func WithStyle(mode StyleMode) Option {
	return func(s *settings) {
		s.style = mode
	}
}

// WithAuthor sets the author recorded when a suggestion names none.
func WithAuthor(author string) Option {
	return func(s *settings) {
		s.author = author
	}
}

// WithMaxMatches caps how many anchor matches are counted.
func WithMaxMatches(n int) Option {
	return func(s *settings) {
		s.maxMatches = n
	}
}

// WithProtectedAttributes sets the attributes suggestions may not touch.
// Pass no names to allow edits anywhere.
func WithProtectedAttributes(names ...string) Option {
	return func(s *settings) {
		s.protected = names
	}
}

// WithLimits sets the section length thresholds used by Workspace.Validate.
func WithLimits(l Limits) Option {
	return func(s *settings) {
		s.limits = l
	}
}

// WithChangeHook registers a hook called after every document change.
func WithChangeHook(hook ChangeHook) Option {
	return func(s *settings) {
		s.hook = hook
	}
}

// WithIDGenerator replaces the pending edit ID generator.
func WithIDGenerator(fn func() string) Option {
	return func(s *settings) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// WithStore sets the per-unit state store of a Workspace.
func WithStore(store StateStore) Option {
	return func(s *settings) {
		s.store = store
	}
}

// WithConfig applies the style, author, anchor and limit settings of cfg.
func WithConfig(cfg *Config) Option {
	return func(s *settings) {
		if cfg == nil {
			return
		}
		if cfg.Style != "" {
			s.style = cfg.Style
		}
		if cfg.Author != "" {
			s.author = cfg.Author
		}
		if cfg.MaxMatches > 0 {
			s.maxMatches = cfg.MaxMatches
		}
		if cfg.ProtectedAttributes != nil {
			s.protected = cfg.ProtectedAttributes
		}
		s.limits = cfg.Limits
	}
}
