package redline

import (
	"log/slog"
)

// ReconcileOptions controls how diff spans are marked.
type ReconcileOptions struct {
	// Presentation is layered onto inserted and deleted spans.
	// A zero value uses PresentationFor(DefaultStyle).
	Presentation Presentation

	// Author, Reason and SuggestionID are recorded on every marked span when set.
	Author       string
	Reason       string
	SuggestionID string

	Logger *slog.Logger
}

// Reconcile maps diff ops onto the runs of original and returns the marked document.
//
// Equal spans keep the attributes of the runs they come from. Deleted spans keep
// them too, with the deletion presentation and marker on top. Inserted spans get
// the insertion presentation and marker only. When the ops consume more text than
// original holds, the remainder degrades to plain runs and a warning is logged.
func Reconcile(original Document, ops []DiffOp, opts ReconcileOptions) Document {
	pres := opts.Presentation
	if pres.Insert == nil && pres.Delete == nil {
		pres = PresentationFor(DefaultStyle)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	insAttrs := pres.Insert.With(opts.marker(MarkInsert, pres.Insert))
	delOverlay := pres.Delete.With(Attributes{AttrStrike: TrueValue})
	delOverlay = delOverlay.With(opts.marker(MarkDelete, delOverlay))

	c := &runCursor{runs: original}
	out := make(Document, 0, len(original)+len(ops))
	overflow := 0

	for _, op := range ops {
		switch op.Kind {
		case OpInsert:
			if op.Text != "" {
				out = append(out, Run{Text: op.Text, Attributes: insAttrs.Clone()})
			}
		case OpEqual, OpDelete:
			parts, rest := c.take(len(op.Text))
			for _, p := range parts {
				if op.Kind == OpDelete {
					p.Attributes = p.Attributes.With(delOverlay)
				}
				out = append(out, p)
			}
			if rest == 0 {
				continue
			}
			overflow += rest
			tail := op.Text[len(op.Text)-rest:]
			if op.Kind == OpDelete {
				out = append(out, Run{Text: tail, Attributes: delOverlay.Clone()})
			} else {
				out = append(out, Run{Text: tail})
			}
		}
	}

	if overflow > 0 {
		logger.Warn("diff exceeds original text, remainder emitted unformatted",
			"overflow", overflow, "original_len", original.Len())
	}
	return out.Normalize()
}

func (o ReconcileOptions) marker(kind string, pres Attributes) Attributes {
	m := Attributes{
		AttrSuggestion:             kind,
		AttrSuggestionPresentation: presentationKeys(pres),
	}
	if o.SuggestionID != "" {
		m[AttrSuggestionID] = o.SuggestionID
	}
	if o.Author != "" {
		m[AttrSuggestionAuthor] = o.Author
	}
	if o.Reason != "" {
		m[AttrSuggestionReason] = o.Reason
	}
	return m
}

// runCursor consumes text from a run sequence by byte count, splitting runs at the boundary.
type runCursor struct {
	runs   Document
	idx    int
	offset int
}

// take returns the sub-runs covering the next n bytes and how many bytes could not be covered.
func (c *runCursor) take(n int) (Document, int) {
	var parts Document
	for n > 0 && c.idx < len(c.runs) {
		r := c.runs[c.idx]
		avail := len(r.Text) - c.offset
		if avail <= 0 {
			c.idx++
			c.offset = 0
			continue
		}
		k := min(n, avail)
		parts = append(parts, Run{
			Text:       r.Text[c.offset : c.offset+k],
			Attributes: r.Attributes.Clone(),
		})
		c.offset += k
		n -= k
		if c.offset == len(r.Text) {
			c.idx++
			c.offset = 0
		}
	}
	return parts, n
}
