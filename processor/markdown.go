package processor

import (
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/strikethrough"
	"github.com/ZaguanLabs/redline"
)

// MarkdownProcessor exports documents as Markdown. It is encode-only.
//
// Formatting Markdown cannot express, such as colors and suggestion markers,
// is lost. Export accepted documents for a faithful result.
type MarkdownProcessor struct {
	html *HTMLProcessor
	conv *converter.Converter
}

// NewMarkdownProcessor creates a Markdown exporter.
func NewMarkdownProcessor() *MarkdownProcessor {
	return &MarkdownProcessor{
		html: NewHTMLProcessor(),
		conv: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				strikethrough.NewStrikethroughPlugin(),
			),
		),
	}
}

// Decode always fails: Markdown is an export format.
func (p *MarkdownProcessor) Decode(string) (Document, error) {
	return nil, &redline.ProcessorError{
		Message:     "markdown import is not supported",
		ContentType: "markdown",
	}
}

// Encode renders the document as HTML and converts that to Markdown.
func (p *MarkdownProcessor) Encode(doc Document) (string, error) {
	page, err := p.html.Encode(doc)
	if err != nil {
		return "", err
	}
	md, err := p.conv.ConvertString(page)
	if err != nil {
		return "", &redline.ProcessorError{
			Message:     "failed to convert to markdown",
			Cause:       err,
			ContentType: "markdown",
		}
	}
	return strings.TrimSpace(md) + "\n", nil
}

// ContentType returns "markdown".
func (p *MarkdownProcessor) ContentType() string {
	return "markdown"
}

// Verify MarkdownProcessor implements Processor
var _ Processor = (*MarkdownProcessor)(nil)
