package redline

import (
	"sort"
	"strings"
)

// Position is a structural location: a run index and a byte offset inside that run.
type Position struct {
	Run    int `json:"run"`
	Offset int `json:"offset"`
}

// Clone returns a copy of the attribute set. A nil set stays nil.
func (a Attributes) Clone() Attributes {
	if a == nil {
		return nil
	}
	out := make(Attributes, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// Has reports whether the attribute is set to a non-empty value.
func (a Attributes) Has(name string) bool {
	return a[name] != ""
}

// Equal compares two attribute sets; nil and empty are equal.
func (a Attributes) Equal(b Attributes) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if w, ok := b[k]; !ok || w != v {
			return false
		}
	}
	return true
}

// With returns a copy of a with every key of b set on top.
func (a Attributes) With(b Attributes) Attributes {
	out := make(Attributes, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		out[k] = v
	}
	return out
}

// Without returns a copy of a with the named keys removed. Returns nil when nothing is left.
func (a Attributes) Without(names ...string) Attributes {
	out := a.Clone()
	for _, n := range names {
		delete(out, n)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Keys returns the attribute names in sorted order.
func (a Attributes) Keys() []string {
	keys := make([]string, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Marker returns the suggestion marker of the run ("insert", "delete" or "").
func (r Run) Marker() string {
	return r.Attributes[AttrSuggestion]
}

// PlainText concatenates the text of all runs.
func (d Document) PlainText() string {
	var b strings.Builder
	for _, r := range d {
		b.WriteString(r.Text)
	}
	return b.String()
}

// Len returns the plain text length in bytes.
func (d Document) Len() int {
	n := 0
	for _, r := range d {
		n += len(r.Text)
	}
	return n
}

// Clone deep-copies the document.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	out := make(Document, len(d))
	for i, r := range d {
		out[i] = Run{Text: r.Text, Attributes: r.Attributes.Clone()}
	}
	return out
}

// Equal reports whether both documents have the same runs and attributes.
func (d Document) Equal(other Document) bool {
	if len(d) != len(other) {
		return false
	}
	for i := range d {
		if d[i].Text != other[i].Text || !d[i].Attributes.Equal(other[i].Attributes) {
			return false
		}
	}
	return true
}

// Normalize drops empty runs and merges neighbours with equal attributes.
func (d Document) Normalize() Document {
	out := make(Document, 0, len(d))
	for _, r := range d {
		if r.Text == "" {
			continue
		}
		attrs := r.Attributes
		if len(attrs) == 0 {
			attrs = nil
		}
		if n := len(out); n > 0 && out[n-1].Attributes.Equal(attrs) {
			out[n-1].Text += r.Text
			continue
		}
		out = append(out, Run{Text: r.Text, Attributes: attrs.Clone()})
	}
	return out
}

// Slice returns the runs covering [from, to), splitting runs at the bounds.
func (d Document) Slice(from, to int) Document {
	if from < 0 {
		from = 0
	}
	var out Document
	pos := 0
	for _, r := range d {
		start, end := pos, pos+len(r.Text)
		pos = end
		if end <= from || start >= to {
			continue
		}
		lo := max(from, start) - start
		hi := min(to, end) - start
		out = append(out, Run{Text: r.Text[lo:hi], Attributes: r.Attributes.Clone()})
	}
	return out
}

// Splice replaces [from, to) with the given runs and returns the normalized result.
func (d Document) Splice(from, to int, replacement Document) Document {
	out := d.Slice(0, from)
	out = append(out, replacement.Clone()...)
	out = append(out, d.Slice(to, d.Len())...)
	return out.Normalize()
}

// Position maps a plain-text offset to a run index and in-run offset.
// An offset on a run boundary resolves to the end of the earlier run.
func (d Document) Position(offset int) (Position, error) {
	if offset < 0 || offset > d.Len() {
		return Position{}, ErrOutOfRange
	}
	pos := 0
	for i, r := range d {
		end := pos + len(r.Text)
		if offset >= pos && offset <= end {
			return Position{Run: i, Offset: offset - pos}, nil
		}
		pos = end
	}
	return Position{}, nil
}

// Offset maps a structural position back to a plain-text offset.
func (d Document) Offset(p Position) (int, error) {
	if p.Run < 0 || p.Run > len(d) || (p.Run == len(d) && p.Offset != 0) {
		return 0, ErrOutOfRange
	}
	n := 0
	for i := 0; i < p.Run; i++ {
		n += len(d[i].Text)
	}
	if p.Run < len(d) && (p.Offset < 0 || p.Offset > len(d[p.Run].Text)) {
		return 0, ErrOutOfRange
	}
	return n + p.Offset, nil
}

// HasMarkings reports whether any run carries a suggestion marker.
func (d Document) HasMarkings() bool {
	for _, r := range d {
		if r.Marker() != "" {
			return true
		}
	}
	return false
}

// RangeHas returns the first of names set on any run overlapping [from, to).
// Zero-width ranges never match.
func (d Document) RangeHas(from, to int, names ...string) (string, bool) {
	for _, r := range d.Slice(from, to) {
		for _, n := range names {
			if r.Attributes.Has(n) {
				return n, true
			}
		}
	}
	return "", false
}

// TextWithout returns the plain text of runs whose marker differs from marker.
func (d Document) TextWithout(marker string) string {
	var b strings.Builder
	for _, r := range d {
		if r.Marker() == marker {
			continue
		}
		b.WriteString(r.Text)
	}
	return b.String()
}
