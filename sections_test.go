package redline

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func bold(s string) Run { return Run{Text: s, Attributes: Attributes{AttrBold: TrueValue}} }
func plain(s string) Run { return Run{Text: s} }

func TestExtractSections(t *testing.T) {
	tests := []struct {
		name string
		doc  Document
		want []Section
	}{
		{
			name: "single title",
			doc:  Document{bold("Title"), plain("text")},
			want: []Section{{Title: "Title", Text: "text"}},
		},
		{
			name: "no bold run",
			doc:  Document{plain("just some text\n")},
			want: []Section{},
		},
		{
			name: "leading text dropped",
			doc:  Document{plain("Intro\n"), bold("Name"), plain("\nAlice\n"), bold("Age"), plain("\n30\n")},
			want: []Section{{Title: "Name", Text: "Alice"}, {Title: "Age", Text: "30"}},
		},
		{
			name: "contiguous bold runs form one title",
			doc: Document{
				bold("Full "),
				{Text: "Name", Attributes: Attributes{AttrBold: TrueValue, AttrItalic: TrueValue}},
				plain(" Alice"),
			},
			want: []Section{{Title: "Full Name", Text: "Alice"}},
		},
		{
			name: "block separators become single spaces",
			doc:  Document{bold("Bio"), plain("\nLine one\n\nLine two\n")},
			want: []Section{{Title: "Bio", Text: "Line one Line two"}},
		},
		{
			name: "title with empty body",
			doc:  Document{bold("Empty"), plain("\n"), bold("Next"), plain(" x")},
			want: []Section{{Title: "Empty", Text: ""}, {Title: "Next", Text: "x"}},
		},
		{
			name: "insertions excluded, deletions kept",
			doc: Document{
				bold("Name"),
				plain(" "),
				{Text: "Bob", Attributes: Attributes{AttrSuggestion: MarkInsert}},
				{Text: "Alice", Attributes: Attributes{AttrSuggestion: MarkDelete, AttrStrike: TrueValue}},
			},
			want: []Section{{Title: "Name", Text: "Alice"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractSections(tt.doc)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ExtractSections mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
