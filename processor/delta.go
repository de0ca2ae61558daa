package processor

import (
	"encoding/json"
	"strings"

	"github.com/ZaguanLabs/redline"
)

// delta is a Quill document delta.
type delta struct {
	Ops []deltaOp `json:"ops"`
}

type deltaOp struct {
	Insert     any            `json:"insert,omitempty"`
	Retain     any            `json:"retain,omitempty"`
	Delete     *int           `json:"delete,omitempty"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// DeltaProcessor converts Quill Delta JSON to and from documents.
// Block formats live on the newline that ends the line, as in Quill.
type DeltaProcessor struct{}

// NewDeltaProcessor creates a Quill Delta processor.
func NewDeltaProcessor() *DeltaProcessor {
	return &DeltaProcessor{}
}

// Decode parses a document delta. Both {"ops": [...]} and a bare op array are accepted.
func (p *DeltaProcessor) Decode(content string) (Document, error) {
	var d delta
	trimmed := strings.TrimSpace(content)
	var err error
	if strings.HasPrefix(trimmed, "[") {
		err = json.Unmarshal([]byte(trimmed), &d.Ops)
	} else {
		err = json.Unmarshal([]byte(trimmed), &d)
	}
	if err != nil {
		return nil, &redline.ProcessorError{
			Message:     "failed to parse delta",
			Cause:       err,
			ContentType: "delta",
		}
	}

	doc := make(Document, 0, len(d.Ops))
	for _, op := range d.Ops {
		if op.Retain != nil || op.Delete != nil {
			return nil, &redline.ProcessorError{
				Message:     "change deltas are not documents",
				ContentType: "delta",
			}
		}
		text, ok := op.Insert.(string)
		if !ok {
			return nil, &redline.ProcessorError{
				Message:     "embeds are not supported",
				ContentType: "delta",
			}
		}
		doc = append(doc, redline.Run{Text: text, Attributes: decodeAttributes(op.Attributes)})
	}
	return doc.Normalize(), nil
}

// Encode renders a document as a delta, adding the final newline Quill requires.
func (p *DeltaProcessor) Encode(doc Document) (string, error) {
	d := delta{Ops: make([]deltaOp, 0, len(doc)+1)}
	for _, r := range doc.Normalize() {
		d.Ops = append(d.Ops, deltaOp{Insert: r.Text, Attributes: encodeAttributes(r.Attributes)})
	}
	if !strings.HasSuffix(doc.PlainText(), "\n") {
		d.Ops = append(d.Ops, deltaOp{Insert: "\n"})
	}
	out, err := json.Marshal(d)
	if err != nil {
		return "", &redline.ProcessorError{
			Message:     "failed to serialize delta",
			Cause:       err,
			ContentType: "delta",
		}
	}
	return string(out), nil
}

// ContentType returns "delta".
func (p *DeltaProcessor) ContentType() string {
	return "delta"
}

// Verify DeltaProcessor implements Processor
var _ Processor = (*DeltaProcessor)(nil)
