package processor

import (
	"errors"
	"strings"
	"testing"

	"github.com/ZaguanLabs/redline"
	"github.com/google/go-cmp/cmp"
)

func bold(s string) redline.Run {
	return redline.Run{Text: s, Attributes: redline.Attributes{redline.AttrBold: redline.TrueValue}}
}

func plain(s string) redline.Run {
	return redline.Run{Text: s}
}

func TestHTMLProcessor_Decode_Basic(t *testing.T) {
	p := NewHTMLProcessor()

	doc, err := p.Decode(`<h1>Title</h1><p><strong>Name</strong> Alice</p>`)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	want := Document{
		plain("Title"),
		{Text: "\n", Attributes: redline.Attributes{redline.AttrHeader: "1"}},
		bold("Name"),
		plain(" Alice\n"),
	}
	if diff := cmp.Diff(want, doc); diff != "" {
		t.Errorf("document mismatch (-want +got):\n%s", diff)
	}
}

func TestHTMLProcessor_Decode_Sanitizes(t *testing.T) {
	p := NewHTMLProcessor()

	doc, err := p.Decode(`<p onclick="steal()">Hi<script>alert(1)</script></p>`)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if doc.PlainText() != "Hi\n" {
		t.Errorf("Expected script content removed, got %q", doc.PlainText())
	}
}

func TestHTMLProcessor_Decode_Whitespace(t *testing.T) {
	p := NewHTMLProcessor()

	doc, err := p.Decode("<div>\n  <p>\n  Hello   <b>world</b>  \n</p>\n</div>")
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	want := Document{plain("Hello "), bold("world"), plain("\n")}
	if diff := cmp.Diff(want, doc); diff != "" {
		t.Errorf("document mismatch (-want +got):\n%s", diff)
	}
}

func TestHTMLProcessor_Decode_Lists(t *testing.T) {
	p := NewHTMLProcessor()

	doc, err := p.Decode(`<ul><li>one</li><li>two</li></ul><ol><li>three</li></ol>`)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	bullet := redline.Attributes{redline.AttrList: listBullet}
	want := Document{
		plain("one"), {Text: "\n", Attributes: bullet},
		plain("two"), {Text: "\n", Attributes: bullet},
		plain("three"), {Text: "\n", Attributes: redline.Attributes{redline.AttrList: listOrdered}},
	}
	if diff := cmp.Diff(want, doc); diff != "" {
		t.Errorf("document mismatch (-want +got):\n%s", diff)
	}
}

func TestHTMLProcessor_Decode_Markers(t *testing.T) {
	p := NewHTMLProcessor()

	content := `<p>old <span data-suggestion="insert" data-suggestion-id="s1">` +
		`<span style="background-color: #fff59d">new</span></span></p>`
	doc, err := p.Decode(content)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	want := Document{
		plain("old "),
		{Text: "new", Attributes: redline.Attributes{
			redline.AttrSuggestion:   redline.MarkInsert,
			redline.AttrSuggestionID: "s1",
			redline.AttrBackground:   "#fff59d",
		}},
		plain("\n"),
	}
	if diff := cmp.Diff(want, doc); diff != "" {
		t.Errorf("document mismatch (-want +got):\n%s", diff)
	}
}

func TestHTMLProcessor_Encode(t *testing.T) {
	p := NewHTMLProcessor()

	doc := Document{
		plain("Title"),
		{Text: "\n", Attributes: redline.Attributes{redline.AttrHeader: "2"}},
		bold("Name"), plain(" Alice & Bob\n"),
		plain("item"), {Text: "\n", Attributes: redline.Attributes{redline.AttrList: listBullet}},
	}
	got, err := p.Encode(doc)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	want := `<h2>Title</h2><p><strong>Name</strong> Alice &amp; Bob</p><ul><li>item</li></ul>`
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestHTMLProcessor_EncodeMarker(t *testing.T) {
	p := NewHTMLProcessor()

	doc := Document{{Text: "gone", Attributes: redline.Attributes{
		redline.AttrSuggestion:       redline.MarkDelete,
		redline.AttrSuggestionReason: `say "hi"`,
		redline.AttrStrike:           redline.TrueValue,
	}}}
	got, err := p.Encode(doc)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	want := `<p><span data-suggestion="delete" data-suggestion-reason="say &#34;hi&#34;"><s>gone</s></span></p>`
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestHTMLProcessor_RoundTrip(t *testing.T) {
	p := NewHTMLProcessor()

	pres := redline.PresentationFor(redline.StyleYellow)
	marker := func(kind string, a redline.Attributes) redline.Attributes {
		return a.With(redline.Attributes{
			redline.AttrSuggestion:             kind,
			redline.AttrSuggestionID:           "edit-1",
			redline.AttrSuggestionAuthor:       "AI",
			redline.AttrSuggestionReason:       "tone",
			redline.AttrSuggestionPresentation: "background,strike",
		})
	}
	doc := Document{
		plain("Report"),
		{Text: "\n", Attributes: redline.Attributes{redline.AttrHeader: "1"}},
		plain("The "),
		{Text: "quick", Attributes: marker(redline.MarkDelete, pres.Delete)},
		{Text: "slow", Attributes: marker(redline.MarkInsert, pres.Insert)},
		plain(" fox, "),
		{Text: "see docs", Attributes: redline.Attributes{redline.AttrLink: "https://example.com/docs"}},
		plain(" and "),
		{Text: "red", Attributes: redline.Attributes{redline.AttrColor: "#ff0000", redline.AttrItalic: redline.TrueValue}},
		plain(" a < b\n"),
		plain("first"),
		{Text: "\n", Attributes: redline.Attributes{redline.AttrList: listOrdered}},
	}

	encoded, err := p.Encode(doc)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	decoded, err := p.Decode(encoded)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if diff := cmp.Diff(doc.Normalize(), decoded); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s\nhtml: %s", diff, encoded)
	}
}

func TestHTMLProcessor_ContentType(t *testing.T) {
	if ct := NewHTMLProcessor().ContentType(); ct != "html" {
		t.Errorf("Expected 'html', got %q", ct)
	}
}

func TestNew(t *testing.T) {
	for _, ct := range []string{"html", "delta", "prosemirror", "markdown", "json"} {
		p, err := New(ct)
		if err != nil {
			t.Errorf("New(%q) failed: %v", ct, err)
			continue
		}
		if p.ContentType() != ct {
			t.Errorf("Expected content type %q, got %q", ct, p.ContentType())
		}
	}

	_, err := New("docx")
	var pe *redline.ProcessorError
	if !errors.As(err, &pe) {
		t.Fatalf("Expected ProcessorError, got %v", err)
	}
	if !strings.Contains(pe.Error(), "docx") {
		t.Errorf("Expected content type in error, got %q", pe.Error())
	}
}

func TestHTMLProcessor_PreservesSpaces(t *testing.T) {
	p := NewHTMLProcessor()

	deleted := redline.Attributes{redline.AttrSuggestion: redline.MarkDelete, redline.AttrStrike: redline.TrueValue}
	doc := Document{
		plain("a"),
		{Text: "  ", Attributes: deleted},
		plain("b\n"),
		plain(" lead  and trail \n"),
	}

	encoded, err := p.Encode(doc)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	want := `<p>a<span data-suggestion="delete"><s> &nbsp;</s></span>b</p><p>&nbsp;lead &nbsp;and trail&nbsp;</p>`
	if encoded != want {
		t.Errorf("Expected %q, got %q", want, encoded)
	}

	decoded, err := p.Decode(encoded)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if diff := cmp.Diff(doc.Normalize(), decoded); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
	if got := decoded.TextWithout(redline.MarkInsert); got != doc.PlainText() {
		t.Errorf("Expected text %q, got %q", doc.PlainText(), got)
	}
}

func TestHTMLProcessor_LineBreaks(t *testing.T) {
	p := NewHTMLProcessor()
	lineBreak := redline.Run{Text: "\n", Attributes: redline.Attributes{redline.AttrBreak: redline.TrueValue}}

	doc, err := p.Decode(`<p>line one<br>line two</p><p><br></p>`)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	want := Document{plain("line one"), lineBreak, plain("line two\n\n")}
	if diff := cmp.Diff(want, doc); diff != "" {
		t.Errorf("document mismatch (-want +got):\n%s", diff)
	}

	encoded, err := p.Encode(Document{plain("line one"), lineBreak, plain("line two\n")})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if encoded != `<p>line one<br>line two</p>` {
		t.Errorf("Expected <br> inside one paragraph, got %q", encoded)
	}
}
