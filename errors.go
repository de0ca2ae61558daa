package redline

import (
	"errors"
	"fmt"
)

// Sentinel errors. Typed errors below wrap one of these so callers can use errors.Is.
var (
	// ErrNotFound indicates an anchored suggestion did not match the document.
	ErrNotFound = errors.New("anchor not found")
	// ErrEmptyAnchor indicates a suggestion with no search text against a non-empty document.
	ErrEmptyAnchor = errors.New("empty anchor on non-empty document")
	// ErrInvalidSuggestion indicates a suggestion rejected before resolution.
	ErrInvalidSuggestion = errors.New("invalid suggestion")
	// ErrOverlap indicates a target range that overlaps pending markings.
	ErrOverlap = errors.New("range overlaps pending suggestion")
	// ErrProtected indicates a target range containing a protected attribute (e.g. bold titles).
	ErrProtected = errors.New("range contains protected formatting")
	// ErrDuplicate indicates the suggestion is already pending.
	ErrDuplicate = errors.New("suggestion already pending")
	// ErrReadOnly indicates a user edit attempted while suggestions are pending review.
	ErrReadOnly = errors.New("document is read-only while suggestions are pending")
	// ErrBusy indicates a re-entrant mutation while an update is being applied.
	ErrBusy = errors.New("session is applying an update")
	// ErrNoDocument indicates there is no document to operate on.
	ErrNoDocument = errors.New("no document loaded")
	// ErrOutOfRange indicates an offset outside the document.
	ErrOutOfRange = errors.New("offset out of range")
)

// SuggestionError describes why a suggestion could not be applied.
type SuggestionError struct {
	Suggestion Suggestion
	Cause      error
}

func (e *SuggestionError) Error() string {
	return fmt.Sprintf("suggestion %q: %v", truncate(e.Suggestion.TextToReplace, 40), e.Cause)
}

func (e *SuggestionError) Unwrap() error {
	return e.Cause
}

// ProcessorError indicates a document format conversion failure.
type ProcessorError struct {
	Message     string
	Cause       error
	ContentType string
}

func (e *ProcessorError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("processor error (%s): %s: %v", e.ContentType, e.Message, e.Cause)
	}
	return fmt.Sprintf("processor error (%s): %s", e.ContentType, e.Message)
}

func (e *ProcessorError) Unwrap() error {
	return e.Cause
}

// StoreError indicates a state store operation failure.
type StoreError struct {
	Message string
	Unit    string
	Cause   error
}

func (e *StoreError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("store error (%s): %s: %v", e.Unit, e.Message, e.Cause)
	}
	return fmt.Sprintf("store error (%s): %s", e.Unit, e.Message)
}

func (e *StoreError) Unwrap() error {
	return e.Cause
}

// SourceError indicates a suggestion source failure.
type SourceError struct {
	Message string
	Cause   error
}

func (e *SourceError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("source error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("source error: %s", e.Message)
}

func (e *SourceError) Unwrap() error {
	return e.Cause
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
