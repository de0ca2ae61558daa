package redline

import (
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// OpKind is the kind of a diff operation.
type OpKind int

const (
	OpEqual OpKind = iota
	OpInsert
	OpDelete
)

func (k OpKind) String() string {
	switch k {
	case OpEqual:
		return "equal"
	case OpInsert:
		return "insert"
	case OpDelete:
		return "delete"
	}
	return fmt.Sprintf("OpKind(%d)", int(k))
}

// MarshalText encodes the kind as "equal", "insert" or "delete".
func (k OpKind) MarshalText() ([]byte, error) {
	switch k {
	case OpEqual, OpInsert, OpDelete:
		return []byte(k.String()), nil
	}
	return nil, fmt.Errorf("invalid op kind %d", int(k))
}

// UnmarshalText decodes "equal", "insert" or "delete".
func (k *OpKind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "equal":
		*k = OpEqual
	case "insert":
		*k = OpInsert
	case "delete":
		*k = OpDelete
	default:
		return fmt.Errorf("invalid op kind %q", string(b))
	}
	return nil
}

// DiffOp is one diff operation with its text payload.
type DiffOp struct {
	Kind OpKind `json:"kind"`
	Text string `json:"text"`
}

// DiffStats counts bytes per operation kind.
type DiffStats struct {
	Equal    int `json:"equal"`
	Inserted int `json:"inserted"`
	Deleted  int `json:"deleted"`
}

var dmp = diffmatchpatch.New()

func init() {
	dmp.DiffTimeout = time.Second
}

// Diff computes a word-aligned diff between before and after.
// Edits never split a word; small equalities between edits are folded into them.
func Diff(before, after string) []DiffOp {
	if before == after {
		return []DiffOp{{Kind: OpEqual, Text: before}}
	}
	if before == "" {
		return []DiffOp{{Kind: OpInsert, Text: after}}
	}
	if after == "" {
		return []DiffOp{{Kind: OpDelete, Text: before}}
	}

	var t tokenTable
	a := t.encode(before)
	b := t.encode(after)

	diffs := dmp.DiffMainRunes(a, b, false)
	diffs = dmp.DiffCleanupSemantic(diffs)

	ops := make([]DiffOp, 0, len(diffs))
	for _, d := range diffs {
		ops = appendOp(ops, fromDMP(d.Type), t.decode(d.Text))
	}
	return ops
}

// DiffChars computes a character-level diff with semantic cleanup.
func DiffChars(before, after string) []DiffOp {
	if before == after {
		return []DiffOp{{Kind: OpEqual, Text: before}}
	}
	diffs := dmp.DiffMain(before, after, false)
	diffs = dmp.DiffCleanupSemantic(diffs)

	ops := make([]DiffOp, 0, len(diffs))
	for _, d := range diffs {
		ops = appendOp(ops, fromDMP(d.Type), d.Text)
	}
	return ops
}

// Before reconstructs the original text from equal and delete ops.
func Before(ops []DiffOp) string {
	var b strings.Builder
	for _, op := range ops {
		if op.Kind != OpInsert {
			b.WriteString(op.Text)
		}
	}
	return b.String()
}

// After reconstructs the new text from equal and insert ops.
func After(ops []DiffOp) string {
	var b strings.Builder
	for _, op := range ops {
		if op.Kind != OpDelete {
			b.WriteString(op.Text)
		}
	}
	return b.String()
}

// HasChanges reports whether any op is an insert or delete with text.
func HasChanges(ops []DiffOp) bool {
	for _, op := range ops {
		if op.Kind != OpEqual && op.Text != "" {
			return true
		}
	}
	return false
}

// Stats returns byte counts per op kind.
func Stats(ops []DiffOp) DiffStats {
	var s DiffStats
	for _, op := range ops {
		switch op.Kind {
		case OpEqual:
			s.Equal += len(op.Text)
		case OpInsert:
			s.Inserted += len(op.Text)
		case OpDelete:
			s.Deleted += len(op.Text)
		}
	}
	return s
}

func fromDMP(t diffmatchpatch.Operation) OpKind {
	switch t {
	case diffmatchpatch.DiffInsert:
		return OpInsert
	case diffmatchpatch.DiffDelete:
		return OpDelete
	default:
		return OpEqual
	}
}

// appendOp merges with the previous op when kinds match and drops empty edits.
func appendOp(ops []DiffOp, kind OpKind, text string) []DiffOp {
	if text == "" {
		return ops
	}
	if n := len(ops); n > 0 && ops[n-1].Kind == kind {
		ops[n-1].Text += text
		return ops
	}
	return append(ops, DiffOp{Kind: kind, Text: text})
}

// tokenTable maps word-level tokens to single runes so diff-match-patch can diff
// token sequences the way it diffs lines.
type tokenTable struct {
	tokens []string
	index  map[string]rune
}

func (t *tokenTable) encode(s string) []rune {
	if t.index == nil {
		t.index = make(map[string]rune)
	}
	toks := tokenize(s)
	out := make([]rune, len(toks))
	for i, tok := range toks {
		r, ok := t.index[tok]
		if !ok {
			r = tokenRune(len(t.tokens))
			t.index[tok] = r
			t.tokens = append(t.tokens, tok)
		}
		out[i] = r
	}
	return out
}

func (t *tokenTable) decode(s string) string {
	var b strings.Builder
	for _, r := range s {
		b.WriteString(t.tokens[runeIndex(r)])
	}
	return b.String()
}

// tokenRune skips the surrogate block so every code survives a string round trip.
func tokenRune(i int) rune {
	r := rune(i + 1)
	if r >= 0xD800 {
		r += 0x800
	}
	return r
}

func runeIndex(r rune) int {
	if r >= 0xE000 {
		r -= 0x800
	}
	return int(r) - 1
}

type tokenClass int

const (
	classWord tokenClass = iota
	classSpace
	classOther
)

func classify(r rune) tokenClass {
	switch {
	case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_':
		return classWord
	case r == '\n' || r == '\r':
		return classOther
	case unicode.IsSpace(r):
		return classSpace
	default:
		return classOther
	}
}

// tokenize splits text into words, runs of horizontal whitespace, and single
// other characters (punctuation, newlines).
func tokenize(s string) []string {
	var toks []string
	start := 0
	for start < len(s) {
		r, size := utf8.DecodeRuneInString(s[start:])
		class := classify(r)
		end := start + size
		if class != classOther {
			for end < len(s) {
				next, n := utf8.DecodeRuneInString(s[end:])
				if classify(next) != class {
					break
				}
				end += n
			}
		}
		toks = append(toks, s[start:end])
		start = end
	}
	return toks
}
