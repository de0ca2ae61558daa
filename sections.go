package redline

import (
	"strings"
)

// ExtractSections groups body text under the nearest preceding bold run.
//
// Contiguous bold runs form one title. Runs marked as pending insertions are
// skipped so the result reflects the document as it was before the suggestion.
// Text before the first title is dropped.
func ExtractSections(doc Document) []Section {
	sections := []Section{}
	var title, body strings.Builder
	started, inTitle := false, false

	flush := func() {
		if !started {
			return
		}
		sections = append(sections, Section{
			Title: collapseBlocks(title.String()),
			Text:  collapseBlocks(body.String()),
		})
	}

	for _, r := range doc {
		if r.Marker() == MarkInsert {
			continue
		}
		if r.Attributes.Has(AttrBold) && strings.TrimSpace(r.Text) != "" {
			if !inTitle {
				flush()
				title.Reset()
				body.Reset()
				started, inTitle = true, true
			}
			title.WriteString(r.Text)
			continue
		}
		inTitle = false
		if started {
			body.WriteString(r.Text)
		}
	}
	flush()
	return sections
}

// collapseBlocks turns each run of block separators into one space and trims the result.
func collapseBlocks(s string) string {
	var b strings.Builder
	sep := false
	for _, r := range s {
		if r == '\n' || r == '\r' {
			sep = true
			continue
		}
		if sep {
			b.WriteByte(' ')
			sep = false
		}
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}
