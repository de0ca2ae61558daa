package processor

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ZaguanLabs/redline"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
)

// defaultMarkBackground is used for <mark> elements without an explicit color.
const defaultMarkBackground = "yellow"

// inlineTag pairs a boolean attribute with the element that renders it.
type inlineTag struct {
	attr string
	tag  string
}

// inlineTags lists formatting elements in nesting order, outermost first.
var inlineTags = []inlineTag{
	{redline.AttrBold, "strong"},
	{redline.AttrItalic, "em"},
	{redline.AttrUnderline, "u"},
	{redline.AttrStrike, "s"},
	{redline.AttrCode, "code"},
}

// tagAttrs maps formatting elements to the attribute they set.
var tagAttrs = map[string]string{
	"b":      redline.AttrBold,
	"strong": redline.AttrBold,
	"i":      redline.AttrItalic,
	"em":     redline.AttrItalic,
	"u":      redline.AttrUnderline,
	"s":      redline.AttrStrike,
	"strike": redline.AttrStrike,
	"del":    redline.AttrStrike,
	"code":   redline.AttrCode,
}

// HTMLProcessor converts editor HTML to and from documents.
//
// Input is sanitized before parsing. Suggestion markers travel as
// data-suggestion* attributes on a wrapping <span>.
type HTMLProcessor struct {
	policy *bluemonday.Policy
}

// NewHTMLProcessor creates an HTML processor with the default sanitizing policy.
func NewHTMLProcessor() *HTMLProcessor {
	return NewHTMLProcessorWithPolicy(DefaultPolicy())
}

// NewHTMLProcessorWithPolicy creates an HTML processor with a custom sanitizing policy.
func NewHTMLProcessorWithPolicy(policy *bluemonday.Policy) *HTMLProcessor {
	return &HTMLProcessor{policy: policy}
}

// DefaultPolicy returns the user-generated-content policy extended with the
// markup the processor writes.
func DefaultPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowElements("span", "mark", "u", "s", "strike", "del")
	p.AllowStyles("color", "background-color").OnElements("span", "mark")
	attrs := make([]string, len(markerAttrs))
	for i, k := range markerAttrs {
		attrs[i] = "data-" + k
	}
	p.AllowAttrs(attrs...).OnElements("span")
	return p
}

// Decode sanitizes and parses HTML into a document.
func (p *HTMLProcessor) Decode(content string) (Document, error) {
	clean := p.policy.Sanitize(content)
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(clean))
	if err != nil {
		return nil, &redline.ProcessorError{
			Message:     "failed to parse HTML",
			Cause:       err,
			ContentType: "html",
		}
	}

	d := &htmlDecoder{}
	doc.Find("body").Each(func(_ int, s *goquery.Selection) {
		for _, n := range s.Nodes {
			d.children(n, nil, nil, "")
		}
	})
	if d.pending {
		d.newline(nil)
	}
	// Non-breaking spaces carry the spaces that HTML would otherwise collapse.
	for i := range d.doc {
		d.doc[i].Text = strings.ReplaceAll(d.doc[i].Text, nbsp, " ")
	}
	return d.doc.Normalize(), nil
}

// htmlDecoder accumulates runs while walking the DOM.
type htmlDecoder struct {
	doc     Document
	pending bool // inline content since the last newline
	start   int  // index of the first run of the current block
	blocks  int
}

func (d *htmlDecoder) children(n *html.Node, attrs, blockAttrs redline.Attributes, list string) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		d.walk(c, attrs, blockAttrs, list)
	}
}

func (d *htmlDecoder) walk(n *html.Node, attrs, blockAttrs redline.Attributes, list string) {
	switch n.Type {
	case html.TextNode:
		d.text(n.Data, attrs)
		return
	case html.ElementNode:
	default:
		return
	}

	tag := strings.ToLower(n.Data)
	switch tag {
	case "script", "style", "head", "template":
		return
	case "br":
		d.doc = append(d.doc, redline.Run{Text: "\n", Attributes: attrs.With(redline.Attributes{redline.AttrBreak: redline.TrueValue})})
		d.pending = true
		return
	case "ul", "ol":
		d.flush(blockAttrs)
		kind := listBullet
		if tag == "ol" {
			kind = listOrdered
		}
		d.children(n, attrs, blockAttrs, kind)
		return
	case "p", "div", "li", "blockquote", "pre", "h1", "h2", "h3", "h4", "h5", "h6":
		d.flush(blockAttrs)
		own := blockAttrs
		switch {
		case tag == "li":
			if list == "" {
				list = listBullet
			}
			own = redline.Attributes{redline.AttrList: list}
		case len(tag) == 2 && tag[0] == 'h':
			own = redline.Attributes{redline.AttrHeader: tag[1:]}
		}
		before := d.blocks
		d.children(n, attrs, own, list)
		if d.pending || d.blocks == before {
			d.newline(own)
		}
		return
	}

	d.children(n, attrs.With(elementAttrs(n, tag)), blockAttrs, list)
}

// elementAttrs returns the formatting an inline element adds.
func elementAttrs(n *html.Node, tag string) redline.Attributes {
	out := redline.Attributes{}
	if name, ok := tagAttrs[tag]; ok {
		out[name] = redline.TrueValue
	}
	switch tag {
	case "a":
		if href := attrValue(n, "href"); href != "" {
			out[redline.AttrLink] = href
		}
	case "mark":
		out[redline.AttrBackground] = defaultMarkBackground
	}
	if tag == "span" || tag == "mark" {
		for k, v := range parseStyle(attrValue(n, "style")) {
			switch k {
			case "color":
				out[redline.AttrColor] = v
			case "background-color", "background":
				out[redline.AttrBackground] = v
			}
		}
		for _, k := range markerAttrs {
			if v := attrValue(n, "data-"+k); v != "" {
				out[k] = v
			}
		}
	}
	return out
}

// text appends a text node with HTML whitespace collapsing applied.
func (d *htmlDecoder) text(raw string, attrs redline.Attributes) {
	s := collapseSpace(raw)
	if !d.pending {
		s = strings.TrimLeft(s, " ")
	}
	if s == "" {
		return
	}
	d.doc = append(d.doc, redline.Run{Text: s, Attributes: attrs.Clone()})
	d.pending = true
}

// flush closes inline content that preceded a nested block.
func (d *htmlDecoder) flush(blockAttrs redline.Attributes) {
	if d.pending {
		d.newline(blockAttrs)
	}
}

func (d *htmlDecoder) newline(blockAttrs redline.Attributes) {
	if d.pending {
		last := &d.doc[len(d.doc)-1]
		last.Text = strings.TrimRight(last.Text, " ")
		// A lone <br> only keeps an empty block open.
		if len(d.doc)-d.start == 1 && last.Attributes.Has(redline.AttrBreak) {
			d.doc = d.doc[:d.start]
		}
	}
	d.doc = append(d.doc, redline.Run{Text: "\n", Attributes: blockAttrs.Clone()})
	d.start = len(d.doc)
	d.pending = false
	d.blocks++
}

// Encode renders a document as HTML.
func (p *HTMLProcessor) Encode(doc Document) (string, error) {
	var b strings.Builder
	list := ""
	for _, blk := range splitBlocks(doc) {
		kind := blk.list()
		if kind != list {
			if list != "" {
				b.WriteString("</" + listTag(list) + ">")
			}
			if kind != "" {
				b.WriteString("<" + listTag(kind) + ">")
			}
			list = kind
		}

		tag := "p"
		if kind != "" {
			tag = "li"
		} else if h := blk.header(); h > 0 {
			tag = "h" + strconv.Itoa(h)
		}
		b.WriteString("<" + tag + ">")
		sp := &spaceWriter{total: len(blk.text())}
		for _, r := range blk.runs {
			writeInline(&b, r, sp)
		}
		b.WriteString("</" + tag + ">")
	}
	if list != "" {
		b.WriteString("</" + listTag(list) + ">")
	}
	return b.String(), nil
}

// ContentType returns "html".
func (p *HTMLProcessor) ContentType() string {
	return "html"
}

func writeInline(b *strings.Builder, r redline.Run, sp *spaceWriter) {
	a := r.Attributes
	var closing []string
	open := func(start, end string) {
		b.WriteString(start)
		closing = append(closing, end)
	}

	if a[redline.AttrSuggestion] != "" {
		var sb strings.Builder
		sb.WriteString("<span")
		for _, k := range markerAttrs {
			if v := a[k]; v != "" {
				fmt.Fprintf(&sb, ` data-%s="%s"`, k, html.EscapeString(v))
			}
		}
		sb.WriteString(">")
		open(sb.String(), "</span>")
	}
	if href := a[redline.AttrLink]; href != "" {
		open(`<a href="`+html.EscapeString(href)+`">`, "</a>")
	}
	var styles []string
	if c := a[redline.AttrColor]; c != "" {
		styles = append(styles, "color: "+c)
	}
	if bg := a[redline.AttrBackground]; bg != "" {
		styles = append(styles, "background-color: "+bg)
	}
	if len(styles) > 0 {
		open(`<span style="`+html.EscapeString(strings.Join(styles, "; "))+`">`, "</span>")
	}
	for _, t := range inlineTags {
		if a.Has(t.attr) {
			open("<"+t.tag+">", "</"+t.tag+">")
		}
	}

	if a.Has(redline.AttrBreak) {
		b.WriteString(strings.Repeat("<br>", strings.Count(r.Text, "\n")))
		sp.skip(r.Text)
	} else {
		sp.write(b, r.Text)
	}
	for i := len(closing) - 1; i >= 0; i-- {
		b.WriteString(closing[i])
	}
}

func listTag(kind string) string {
	if kind == listOrdered {
		return "ol"
	}
	return "ul"
}

func attrValue(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

// parseStyle splits an inline style declaration into lowercase properties.
func parseStyle(style string) map[string]string {
	out := map[string]string{}
	for _, decl := range strings.Split(style, ";") {
		k, v, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		k = strings.ToLower(strings.TrimSpace(k))
		v = strings.TrimSpace(v)
		if k != "" && v != "" {
			out[k] = v
		}
	}
	return out
}

const nbsp = "\u00a0"

// spaceWriter escapes the text of one block. A space at either edge of the
// block or after another space is written as &nbsp; so decoding keeps it.
type spaceWriter struct {
	pos   int
	total int
	prev  bool
}

func (w *spaceWriter) write(b *strings.Builder, s string) {
	chunk := 0
	for i, r := range s {
		at := w.pos + i
		if r != ' ' || !(w.prev || at == 0 || at == w.total-1) {
			w.prev = r == ' '
			continue
		}
		b.WriteString(html.EscapeString(s[chunk:i]))
		b.WriteString("&nbsp;")
		chunk = i + 1
		w.prev = true
	}
	b.WriteString(html.EscapeString(s[chunk:]))
	w.pos += len(s)
}

func (w *spaceWriter) skip(s string) {
	w.pos += len(s)
	w.prev = false
}

// collapseSpace folds every run of HTML whitespace into one space.
func collapseSpace(s string) string {
	var b strings.Builder
	space := false
	for _, r := range s {
		switch r {
		case ' ', '\t', '\n', '\r', '\f':
			if !space {
				b.WriteByte(' ')
			}
			space = true
		default:
			b.WriteRune(r)
			space = false
		}
	}
	return b.String()
}

// Verify HTMLProcessor implements Processor
var _ Processor = (*HTMLProcessor)(nil)
