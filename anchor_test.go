package redline

import (
	"errors"
	"strings"
	"testing"
)

func TestResolve_Literal(t *testing.T) {
	text := "The quick brown fox"

	res, err := Resolve(text, Suggestion{TextToReplace: "quick", TextBefore: "The ", TextAfter: ""}, ResolveOptions{})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.From != 4 || res.To != 9 || res.Text != "quick" {
		t.Errorf("unexpected resolution: %+v", res)
	}
	if res.Ambiguous || res.Matches != 1 {
		t.Errorf("Expected a single unambiguous match, got %+v", res)
	}
}

func TestResolve_Between(t *testing.T) {
	text := "Title\nThe quick brown fox\nNext\n"

	res, err := Resolve(text, Suggestion{
		TextToReplace:   "ignored",
		TextBefore:      "The ",
		TextAfter:       " fox",
		TextReplacement: "slow",
	}, ResolveOptions{})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.Text != "quick brown" {
		t.Errorf("Expected text between anchors, got %q", res.Text)
	}
	if text[res.From:res.To] != "quick brown" {
		t.Errorf("range does not match text: %d-%d", res.From, res.To)
	}
}

func TestResolve_BetweenAcrossBlocks(t *testing.T) {
	text := "Name\nAlice Smith\nAge\n30\n"

	res, err := Resolve(text, Suggestion{TextBefore: "Name", TextAfter: "Age"}, ResolveOptions{})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.Text != "Alice Smith" {
		t.Errorf("Expected block separators trimmed from range, got %q", res.Text)
	}
}

func TestResolve_Ambiguous(t *testing.T) {
	text := "a X b, a X b"

	res, err := Resolve(text, Suggestion{TextBefore: "a ", TextToReplace: "X", TextAfter: " b"}, ResolveOptions{})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if !res.Ambiguous || res.Matches != 2 {
		t.Errorf("Expected ambiguity with 2 matches, got %+v", res)
	}
	if res.From != 2 || res.To != 3 {
		t.Errorf("Expected first match at 2-3, got %d-%d", res.From, res.To)
	}

	between, err := Resolve(text, Suggestion{TextBefore: "a ", TextAfter: " b"}, ResolveOptions{})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if !between.Ambiguous || between.From != 2 {
		t.Errorf("Expected first between match, got %+v", between)
	}
}

func TestResolve_NotFound(t *testing.T) {
	_, err := Resolve("Hello world", Suggestion{TextToReplace: "missing"}, ResolveOptions{})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestResolve_EmptySearch(t *testing.T) {
	res, err := Resolve(" \u200b\n", Suggestion{TextReplacement: "Hello"}, ResolveOptions{})
	if err != nil {
		t.Fatalf("Expected empty document to accept empty anchor, got %v", err)
	}
	if res.From != 0 || res.To != 0 {
		t.Errorf("Expected 0-0, got %d-%d", res.From, res.To)
	}

	_, err = Resolve("content", Suggestion{TextReplacement: "Hello"}, ResolveOptions{})
	if !errors.Is(err, ErrEmptyAnchor) {
		t.Errorf("Expected ErrEmptyAnchor, got %v", err)
	}
}

func TestResolve_MaxMatches(t *testing.T) {
	text := strings.Repeat("ab ", 50)

	res, err := Resolve(text, Suggestion{TextToReplace: "ab"}, ResolveOptions{MaxMatches: 10})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.Matches != 10 {
		t.Errorf("Expected match count capped at 10, got %d", res.Matches)
	}
}

func TestResolve_SpecialCharacters(t *testing.T) {
	text := "Price (USD): $5.00 [net]"

	res, err := Resolve(text, Suggestion{TextBefore: "(USD): ", TextAfter: " [net]"}, ResolveOptions{})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.Text != "$5.00" {
		t.Errorf("Expected regex metacharacters to be quoted, got %q", res.Text)
	}
}

func TestResolve_LiteralAcrossBlocks(t *testing.T) {
	text := "Name\nBob\nAge\n30\n"

	res, err := Resolve(text, Suggestion{TextBefore: "Age", TextToReplace: "30"}, ResolveOptions{})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.From != 13 || res.To != 15 || res.Text != "30" {
		t.Errorf("Expected 13-15 \"30\", got %d-%d %q", res.From, res.To, res.Text)
	}

	res, err = Resolve(text, Suggestion{TextToReplace: "Bob", TextAfter: "Age"}, ResolveOptions{})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.Text != "Bob" || res.From != 5 {
		t.Errorf("Expected \"Bob\" at 5, got %d %q", res.From, res.Text)
	}

	if _, err := Resolve(text, Suggestion{TextBefore: "Age", TextToReplace: "31"}, ResolveOptions{}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestResolve_BetweenTrimsSpaces(t *testing.T) {
	res, err := Resolve("Name Alice Smith Age 30", Suggestion{TextBefore: "Name", TextAfter: "Age"}, ResolveOptions{})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.From != 5 || res.To != 16 || res.Text != "Alice Smith" {
		t.Errorf("Expected 5-16 \"Alice Smith\", got %d-%d %q", res.From, res.To, res.Text)
	}
}
