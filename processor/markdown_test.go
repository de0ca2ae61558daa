package processor

import (
	"errors"
	"strings"
	"testing"

	"github.com/ZaguanLabs/redline"
)

func TestMarkdownProcessor_Encode(t *testing.T) {
	p := NewMarkdownProcessor()

	doc := Document{
		plain("Report"),
		{Text: "\n", Attributes: redline.Attributes{redline.AttrHeader: "1"}},
		bold("Name"),
		plain(" Alice "),
		{Text: "Smith", Attributes: redline.Attributes{redline.AttrStrike: redline.TrueValue}},
		plain("\n"),
		plain("first"),
		{Text: "\n", Attributes: redline.Attributes{redline.AttrList: listBullet}},
	}
	md, err := p.Encode(doc)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	for _, want := range []string{"# Report", "**Name** Alice", "~~Smith~~", "- first"} {
		if !strings.Contains(md, want) {
			t.Errorf("Expected markdown to contain %q, got:\n%s", want, md)
		}
	}
	if !strings.HasSuffix(md, "\n") {
		t.Error("Expected a trailing newline")
	}
}

func TestMarkdownProcessor_DecodeUnsupported(t *testing.T) {
	_, err := NewMarkdownProcessor().Decode("# Title")
	var pe *redline.ProcessorError
	if !errors.As(err, &pe) {
		t.Fatalf("Expected ProcessorError, got %v", err)
	}
	if pe.ContentType != "markdown" {
		t.Errorf("Expected content type 'markdown', got %q", pe.ContentType)
	}
}
