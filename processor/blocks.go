package processor

import (
	"strconv"
	"strings"

	"github.com/ZaguanLabs/redline"
)

// block is one paragraph-level unit of a document: its inline runs and the
// attributes of the newline that ends it.
type block struct {
	runs   []redline.Run
	attrs  redline.Attributes
	start  int
	closed bool
}

// splitBlocks cuts a document at every newline that is not a line break.
// A trailing block without a newline is returned unclosed.
func splitBlocks(doc Document) []block {
	var blocks []block
	cur := block{}
	offset := 0
	for _, r := range doc {
		text := r.Text
		if r.Attributes.Has(redline.AttrBreak) {
			cur.runs = append(cur.runs, r)
			offset += len(text)
			continue
		}
		for text != "" {
			i := strings.IndexByte(text, '\n')
			if i < 0 {
				cur.runs = append(cur.runs, redline.Run{Text: text, Attributes: r.Attributes})
				offset += len(text)
				break
			}
			if i > 0 {
				cur.runs = append(cur.runs, redline.Run{Text: text[:i], Attributes: r.Attributes})
			}
			offset += i + 1
			cur.attrs = r.Attributes
			cur.closed = true
			blocks = append(blocks, cur)
			cur = block{start: offset}
			text = text[i+1:]
		}
	}
	if len(cur.runs) > 0 {
		blocks = append(blocks, cur)
	}
	return blocks
}

func (b block) text() string {
	var sb strings.Builder
	for _, r := range b.runs {
		sb.WriteString(r.Text)
	}
	return sb.String()
}

// header returns the heading level, or 0 for body text.
func (b block) header() int {
	n, err := strconv.Atoi(b.attrs[redline.AttrHeader])
	if err != nil || n < 1 || n > 6 {
		return 0
	}
	return n
}

// list returns "bullet", "ordered" or "".
func (b block) list() string {
	switch l := b.attrs[redline.AttrList]; l {
	case listBullet, listOrdered:
		return l
	case "":
		return ""
	}
	return listBullet
}

const (
	listBullet  = "bullet"
	listOrdered = "ordered"
)

// markerAttrs are the suggestion marker keys, in serialization order.
var markerAttrs = []string{
	redline.AttrSuggestion,
	redline.AttrSuggestionID,
	redline.AttrSuggestionAuthor,
	redline.AttrSuggestionReason,
	redline.AttrSuggestionPresentation,
}

// booleanAttrs are stored as "true" but typed as booleans in JSON formats.
var booleanAttrs = map[string]bool{
	redline.AttrBold:      true,
	redline.AttrItalic:    true,
	redline.AttrUnderline: true,
	redline.AttrStrike:    true,
	redline.AttrCode:      true,
	redline.AttrBreak:     true,
}

// typedValue converts an attribute to the JSON type editors expect.
func typedValue(key, val string) any {
	if booleanAttrs[key] && val == redline.TrueValue {
		return true
	}
	if key == redline.AttrHeader {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return val
}

// stringValue converts a decoded JSON attribute value.
// False, null and nested values report ok == false.
func stringValue(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, t != ""
	case bool:
		if t {
			return redline.TrueValue, true
		}
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	}
	return "", false
}

// decodeAttributes converts JSON attributes, dropping unset values.
func decodeAttributes(raw map[string]any) redline.Attributes {
	if len(raw) == 0 {
		return nil
	}
	attrs := make(redline.Attributes, len(raw))
	for k, v := range raw {
		if s, ok := stringValue(v); ok {
			attrs[k] = s
		}
	}
	if len(attrs) == 0 {
		return nil
	}
	return attrs
}

// encodeAttributes is the inverse of decodeAttributes.
func encodeAttributes(attrs redline.Attributes) map[string]any {
	if len(attrs) == 0 {
		return nil
	}
	out := make(map[string]any, len(attrs))
	for k, v := range attrs {
		out[k] = typedValue(k, v)
	}
	return out
}
