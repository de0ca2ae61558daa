// Package processor converts editor formats to and from redline documents.
package processor

import "github.com/ZaguanLabs/redline"

// Processor is an alias to the main package interface.
type Processor = redline.Processor

// Document is an alias to the main package type.
type Document = redline.Document

// New returns the processor for a content type: html, delta, prosemirror,
// markdown or json.
func New(contentType string) (Processor, error) {
	switch contentType {
	case "html":
		return NewHTMLProcessor(), nil
	case "delta", "quill":
		return NewDeltaProcessor(), nil
	case "prosemirror", "tiptap":
		return NewProseMirrorProcessor(), nil
	case "markdown", "md":
		return NewMarkdownProcessor(), nil
	case "json", "runs":
		return NewRunsProcessor(), nil
	}
	return nil, &redline.ProcessorError{Message: "unknown content type", ContentType: contentType}
}
