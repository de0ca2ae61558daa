package redline

// Processor converts between an editor's serialized content and a Document.
type Processor interface {
	// Decode parses serialized content into a normalized Document.
	Decode(content string) (Document, error)

	// Encode serializes a Document, suggestion markers included.
	Encode(doc Document) (string, error)

	// ContentType names the format, e.g. "html" or "delta".
	ContentType() string
}
