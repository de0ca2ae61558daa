package redline

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFormToSuggestion(t *testing.T) {
	sections := []Section{
		{Title: "Name", Text: "Alice"},
		{Title: "Age", Text: "30"},
	}

	got := FormToSuggestion(sections, "Name", "Alice", "Bob", "user1")
	want := Suggestion{
		TextToReplace:   "Alice",
		TextReplacement: "Bob",
		Reason:          "User wanted it this way",
		TextBefore:      "Name",
		TextAfter:       "Age",
		Author:          "user1",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("FormToSuggestion mismatch (-want +got):\n%s", diff)
	}

	last := FormToSuggestion(sections, "Age", "30", "31", "user1")
	if last.TextAfter != "" {
		t.Errorf("Expected empty textAfter for last section, got %q", last.TextAfter)
	}
}

func TestDecodeSuggestions(t *testing.T) {
	input := `[
		{"textToReplace": "quick", "textReplacement": "slow", "reason": "tone", "textBefore": "The ", "textAfter": " fox", "author": "AI"},
		{"textToReplace": "", "textReplacement": "Hello", "username": "legacy"}
	]`

	got, err := DecodeSuggestions(strings.NewReader(input))
	if err != nil {
		t.Fatalf("DecodeSuggestions failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 suggestions, got %d", len(got))
	}
	if got[0].TextBefore != "The " || got[0].Reason != "tone" {
		t.Errorf("unexpected first suggestion: %+v", got[0])
	}
	if got[1].Author != "legacy" {
		t.Errorf("Expected username fallback for author, got %q", got[1].Author)
	}
}

func TestDecodeSuggestions_Single(t *testing.T) {
	got, err := DecodeSuggestions(strings.NewReader(`{"textToReplace": "a", "textReplacement": "b"}`))
	if err != nil {
		t.Fatalf("DecodeSuggestions failed: %v", err)
	}
	if len(got) != 1 || got[0].TextReplacement != "b" {
		t.Errorf("unexpected result: %+v", got)
	}
}

func TestDecodeSuggestions_Invalid(t *testing.T) {
	_, err := DecodeSuggestions(strings.NewReader(`[{"textReplacement": "b"}]`))
	if !errors.Is(err, ErrInvalidSuggestion) {
		t.Errorf("Expected ErrInvalidSuggestion, got %v", err)
	}

	if _, err := DecodeSuggestions(strings.NewReader(`not json`)); err == nil {
		t.Error("Expected error for malformed JSON")
	}
}

func TestSuggestion_Validate(t *testing.T) {
	if err := (Suggestion{}).Validate(); !errors.Is(err, ErrInvalidSuggestion) {
		t.Errorf("Expected ErrInvalidSuggestion for empty suggestion, got %v", err)
	}
	if err := (Suggestion{TextReplacement: "insert into empty"}).Validate(); err != nil {
		t.Errorf("Expected pure insertion to validate, got %v", err)
	}
}
