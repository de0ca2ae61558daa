package processor

import (
	"encoding/json"
	"strings"

	"github.com/ZaguanLabs/redline"
)

// segment is a text run with JSON-typed attributes.
type segment struct {
	Text       string         `json:"text"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// page is a titled segment list as stored in document page files.
type page struct {
	Title    string    `json:"title,omitempty"`
	Segments []segment `json:"segments"`
}

// RunsProcessor converts segment JSON to and from documents. It reads a bare
// segment array or a page object with a "segments" field, and writes arrays.
type RunsProcessor struct{}

// NewRunsProcessor creates a segment JSON processor.
func NewRunsProcessor() *RunsProcessor {
	return &RunsProcessor{}
}

// Decode parses segments. Boolean and numeric attribute values are stored as strings.
func (p *RunsProcessor) Decode(content string) (Document, error) {
	trimmed := strings.TrimSpace(content)
	var segs []segment
	var err error
	if strings.HasPrefix(trimmed, "{") {
		var pg page
		err = json.Unmarshal([]byte(trimmed), &pg)
		segs = pg.Segments
	} else {
		err = json.Unmarshal([]byte(trimmed), &segs)
	}
	if err != nil {
		return nil, &redline.ProcessorError{
			Message:     "failed to parse segments",
			Cause:       err,
			ContentType: "json",
		}
	}

	doc := make(Document, 0, len(segs))
	for _, s := range segs {
		doc = append(doc, redline.Run{Text: s.Text, Attributes: decodeAttributes(s.Attributes)})
	}
	return doc.Normalize(), nil
}

// Encode writes the document as an indented segment array.
func (p *RunsProcessor) Encode(doc Document) (string, error) {
	segs := make([]segment, 0, len(doc))
	for _, r := range doc.Normalize() {
		segs = append(segs, segment{Text: r.Text, Attributes: encodeAttributes(r.Attributes)})
	}
	out, err := json.MarshalIndent(segs, "", "  ")
	if err != nil {
		return "", &redline.ProcessorError{
			Message:     "failed to serialize segments",
			Cause:       err,
			ContentType: "json",
		}
	}
	return string(out), nil
}

// ContentType returns "json".
func (p *RunsProcessor) ContentType() string {
	return "json"
}

// Verify RunsProcessor implements Processor
var _ Processor = (*RunsProcessor)(nil)
