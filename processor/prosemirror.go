package processor

import (
	"encoding/json"
	"strings"
	"unicode/utf16"

	"github.com/ZaguanLabs/redline"
)

// pmNode is a ProseMirror/Tiptap JSON node.
type pmNode struct {
	Type    string         `json:"type"`
	Attrs   map[string]any `json:"attrs,omitempty"`
	Content []pmNode       `json:"content,omitempty"`
	Text    string         `json:"text,omitempty"`
	Marks   []pmMark       `json:"marks,omitempty"`
}

type pmMark struct {
	Type  string         `json:"type"`
	Attrs map[string]any `json:"attrs,omitempty"`
}

// Marks that map one-to-one onto boolean attributes.
var pmBooleanMarks = map[string]string{
	"bold":      redline.AttrBold,
	"italic":    redline.AttrItalic,
	"underline": redline.AttrUnderline,
	"strike":    redline.AttrStrike,
	"code":      redline.AttrCode,
}

// pmSuggestionMark carries suggestion marker attributes.
const pmSuggestionMark = "suggestion"

// ProseMirrorProcessor converts ProseMirror/Tiptap JSON to and from documents.
type ProseMirrorProcessor struct{}

// NewProseMirrorProcessor creates a ProseMirror processor.
func NewProseMirrorProcessor() *ProseMirrorProcessor {
	return &ProseMirrorProcessor{}
}

// Decode parses a ProseMirror document node.
func (p *ProseMirrorProcessor) Decode(content string) (Document, error) {
	var root pmNode
	if err := json.Unmarshal([]byte(content), &root); err != nil {
		return nil, &redline.ProcessorError{
			Message:     "failed to parse document",
			Cause:       err,
			ContentType: "prosemirror",
		}
	}
	if root.Type != "doc" {
		return nil, &redline.ProcessorError{
			Message:     "root node is " + root.Type + ", want doc",
			ContentType: "prosemirror",
		}
	}

	var doc Document
	var walk func(n pmNode, block redline.Attributes)
	walk = func(n pmNode, block redline.Attributes) {
		switch n.Type {
		case "paragraph", "heading":
			if n.Type == "heading" {
				level := "1"
				if s, ok := stringValue(n.Attrs["level"]); ok {
					level = s
				}
				block = block.With(redline.Attributes{redline.AttrHeader: level})
			}
			for _, c := range n.Content {
				switch c.Type {
				case "text":
					doc = append(doc, redline.Run{Text: c.Text, Attributes: marksToAttributes(c.Marks)})
				case "hardBreak":
					attrs := marksToAttributes(c.Marks).With(redline.Attributes{redline.AttrBreak: redline.TrueValue})
					doc = append(doc, redline.Run{Text: "\n", Attributes: attrs})
				}
			}
			doc = append(doc, redline.Run{Text: "\n", Attributes: block.Clone()})
		case "bulletList":
			for _, c := range n.Content {
				walk(c, redline.Attributes{redline.AttrList: listBullet})
			}
		case "orderedList":
			for _, c := range n.Content {
				walk(c, redline.Attributes{redline.AttrList: listOrdered})
			}
		default:
			for _, c := range n.Content {
				walk(c, block)
			}
		}
	}
	walk(root, nil)
	return doc.Normalize(), nil
}

// Encode renders a document as a ProseMirror doc node.
func (p *ProseMirrorProcessor) Encode(doc Document) (string, error) {
	root := pmNode{Type: "doc", Content: []pmNode{}}
	var list *pmNode
	for _, blk := range splitBlocks(doc) {
		para := pmNode{Type: "paragraph"}
		if h := blk.header(); h > 0 && blk.list() == "" {
			para = pmNode{Type: "heading", Attrs: map[string]any{"level": h}}
		}
		for _, r := range blk.runs {
			if r.Attributes.Has(redline.AttrBreak) {
				for range strings.Count(r.Text, "\n") {
					para.Content = append(para.Content, pmNode{Type: "hardBreak", Marks: attributesToMarks(r.Attributes)})
				}
				continue
			}
			para.Content = append(para.Content, pmNode{Type: "text", Text: r.Text, Marks: attributesToMarks(r.Attributes)})
		}

		kind := blk.list()
		if kind == "" {
			list = nil
			root.Content = append(root.Content, para)
			continue
		}
		listType := "bulletList"
		if kind == listOrdered {
			listType = "orderedList"
		}
		if list == nil || list.Type != listType {
			root.Content = append(root.Content, pmNode{Type: listType})
			list = &root.Content[len(root.Content)-1]
		}
		list.Content = append(list.Content, pmNode{Type: "listItem", Content: []pmNode{para}})
	}
	if len(root.Content) == 0 {
		root.Content = append(root.Content, pmNode{Type: "paragraph"})
	}

	out, err := json.Marshal(root)
	if err != nil {
		return "", &redline.ProcessorError{
			Message:     "failed to serialize document",
			Cause:       err,
			ContentType: "prosemirror",
		}
	}
	return string(out), nil
}

// ContentType returns "prosemirror".
func (p *ProseMirrorProcessor) ContentType() string {
	return "prosemirror"
}

func marksToAttributes(marks []pmMark) redline.Attributes {
	attrs := redline.Attributes{}
	for _, m := range marks {
		if name, ok := pmBooleanMarks[m.Type]; ok {
			attrs[name] = redline.TrueValue
			continue
		}
		switch m.Type {
		case "link":
			if href, ok := stringValue(m.Attrs["href"]); ok {
				attrs[redline.AttrLink] = href
			}
		case "highlight":
			if c, ok := stringValue(m.Attrs["color"]); ok {
				attrs[redline.AttrBackground] = c
			} else {
				attrs[redline.AttrBackground] = defaultMarkBackground
			}
		case "textStyle":
			if c, ok := stringValue(m.Attrs["color"]); ok {
				attrs[redline.AttrColor] = c
			}
		case pmSuggestionMark:
			for k, v := range decodeAttributes(m.Attrs) {
				attrs[redline.AttrSuggestion+"-"+k] = v
			}
			if kind := attrs[redline.AttrSuggestion+"-kind"]; kind != "" {
				attrs[redline.AttrSuggestion] = kind
				delete(attrs, redline.AttrSuggestion+"-kind")
			}
		}
	}
	if len(attrs) == 0 {
		return nil
	}
	return attrs
}

func attributesToMarks(a redline.Attributes) []pmMark {
	var marks []pmMark
	if a[redline.AttrSuggestion] != "" {
		attrs := map[string]any{"kind": a[redline.AttrSuggestion]}
		for _, k := range markerAttrs[1:] {
			if v := a[k]; v != "" {
				attrs[k[len(redline.AttrSuggestion)+1:]] = v
			}
		}
		marks = append(marks, pmMark{Type: pmSuggestionMark, Attrs: attrs})
	}
	for _, t := range []string{"bold", "italic", "underline", "strike", "code"} {
		if a.Has(pmBooleanMarks[t]) {
			marks = append(marks, pmMark{Type: t})
		}
	}
	if href := a[redline.AttrLink]; href != "" {
		marks = append(marks, pmMark{Type: "link", Attrs: map[string]any{"href": href}})
	}
	if bg := a[redline.AttrBackground]; bg != "" {
		marks = append(marks, pmMark{Type: "highlight", Attrs: map[string]any{"color": bg}})
	}
	if c := a[redline.AttrColor]; c != "" {
		marks = append(marks, pmMark{Type: "textStyle", Attrs: map[string]any{"color": c}})
	}
	return marks
}

// ProseMirrorRange converts a byte range of the document's plain text into
// ProseMirror positions for the doc node Encode produces. Positions count
// UTF-16 code units plus one token per node boundary.
func ProseMirrorRange(doc Document, from, to int) (int, int, error) {
	if from < 0 || to < from || to > doc.Len() {
		return 0, 0, redline.ErrOutOfRange
	}
	pmFrom, pmTo := -1, -1
	pos := 0
	list := ""
	for _, blk := range splitBlocks(doc) {
		kind := blk.list()
		if kind != list && list != "" {
			pos++ // close list
		}
		if kind != "" {
			if kind != list {
				pos++ // open list
			}
			pos++ // open listItem
		}
		list = kind
		pos++ // open paragraph

		text := blk.text()
		end := blk.start + len(text)
		if pmFrom < 0 && from >= blk.start && from <= end {
			pmFrom = pos + utf16Len(text[:from-blk.start])
		}
		if pmTo < 0 && to >= blk.start && to <= end {
			pmTo = pos + utf16Len(text[:to-blk.start])
		}
		pos += utf16Len(text) + 1 // text, close paragraph
		if kind != "" {
			pos++ // close listItem
		}
	}
	if list != "" {
		pos++
	}
	// Offsets past the final newline map to the end of the doc content.
	if pmFrom < 0 {
		pmFrom = pos
	}
	if pmTo < 0 {
		pmTo = pos
	}
	return pmFrom, pmTo, nil
}

func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}

// Verify ProseMirrorProcessor implements Processor
var _ Processor = (*ProseMirrorProcessor)(nil)
