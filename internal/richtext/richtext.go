// Package richtext converts structured rich-text blocks to plain text and
// HTML.
package richtext

import (
	"bytes"
	"sort"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"spacetraveling/internal/domain"
)

// Renderer implements the asText / asHtml contract over domain.RichText.
type Renderer struct {
	// Separator joins block texts in AsText.
	Separator string
}

// NewRenderer creates a renderer joining block texts with a space.
func NewRenderer() *Renderer {
	return &Renderer{Separator: " "}
}

// AsText returns the text of every block joined by the separator.
func (r *Renderer) AsText(body domain.RichText) string {
	texts := make([]string, 0, len(body))
	for _, block := range body {
		texts = append(texts, block.Text)
	}
	return strings.Join(texts, r.Separator)
}

// AsHTML serialises the blocks to HTML. Text is always escaped; consecutive
// list items are grouped into a single list element.
func (r *Renderer) AsHTML(body domain.RichText) string {
	var buf bytes.Buffer
	var list *html.Node

	for _, block := range body {
		listTag, isItem := listTags[block.Type]
		if !isItem {
			if list != nil {
				_ = html.Render(&buf, list)
				list = nil
			}
			if node := blockNode(block); node != nil {
				_ = html.Render(&buf, node)
			}
			continue
		}

		if list != nil && list.DataAtom != listTag {
			_ = html.Render(&buf, list)
			list = nil
		}
		if list == nil {
			list = element(listTag)
		}
		item := element(atom.Li)
		appendSpans(item, []rune(block.Text), block.Spans)
		list.AppendChild(item)
	}

	if list != nil {
		_ = html.Render(&buf, list)
	}

	return buf.String()
}

var listTags = map[string]atom.Atom{
	"list-item":   atom.Ul,
	"o-list-item": atom.Ol,
}

var blockTags = map[string]atom.Atom{
	"":             atom.P,
	"paragraph":    atom.P,
	"heading1":     atom.H1,
	"heading2":     atom.H2,
	"heading3":     atom.H3,
	"heading4":     atom.H4,
	"heading5":     atom.H5,
	"heading6":     atom.H6,
	"preformatted": atom.Pre,
}

func blockNode(block domain.TextBlock) *html.Node {
	if block.Type == "image" {
		if block.URL == "" {
			return nil
		}
		img := element(atom.Img)
		img.Attr = []html.Attribute{{Key: "src", Val: block.URL}, {Key: "alt", Val: block.Alt}}
		p := element(atom.P)
		p.Attr = []html.Attribute{{Key: "class", Val: "block-img"}}
		p.AppendChild(img)
		return p
	}

	tag, ok := blockTags[block.Type]
	if !ok {
		// embeds and unknown block types have no HTML rendition
		return nil
	}

	node := element(tag)
	appendSpans(node, []rune(block.Text), block.Spans)
	return node
}

func appendSpans(parent *html.Node, text []rune, spans []domain.Span) {
	sorted := make([]domain.Span, 0, len(spans))
	for _, s := range spans {
		s.Start = clamp(s.Start, 0, len(text))
		s.End = clamp(s.End, 0, len(text))
		if s.Start < s.End {
			sorted = append(sorted, s)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start < sorted[j].Start
		}
		return sorted[i].End > sorted[j].End
	})

	appendRange(parent, text, 0, len(text), sorted)
}

// appendRange renders text[start:end] into parent. spans must be sorted by
// start ascending, end descending; a span overlapping the end of an
// enclosing span is cut at that end.
func appendRange(parent *html.Node, text []rune, start, end int, spans []domain.Span) {
	pos := start
	for len(spans) > 0 {
		s := spans[0]
		spans = spans[1:]

		s.Start = max(s.Start, pos)
		s.End = min(s.End, end)
		if s.Start >= s.End {
			continue
		}

		appendText(parent, text[pos:s.Start])

		var inner, rest []domain.Span
		for _, o := range spans {
			if o.Start < s.End {
				inner = append(inner, o)
			} else {
				rest = append(rest, o)
			}
		}

		node := spanNode(s)
		parent.AppendChild(node)
		appendRange(node, text, s.Start, s.End, inner)

		pos = s.End
		spans = rest
	}

	appendText(parent, text[pos:end])
}

func spanNode(s domain.Span) *html.Node {
	switch s.Type {
	case "strong":
		return element(atom.Strong)
	case "em":
		return element(atom.Em)
	case "hyperlink":
		a := element(atom.A)
		if s.Data != nil {
			a.Attr = append(a.Attr, html.Attribute{Key: "href", Val: s.Data.URL})
			if s.Data.Target != "" {
				a.Attr = append(a.Attr,
					html.Attribute{Key: "target", Val: s.Data.Target},
					html.Attribute{Key: "rel", Val: "noopener noreferrer"},
				)
			}
		}
		return a
	default:
		span := element(atom.Span)
		if s.Type == "label" && s.Data != nil && s.Data.Label != "" {
			span.Attr = []html.Attribute{{Key: "class", Val: s.Data.Label}}
		}
		return span
	}
}

func appendText(parent *html.Node, text []rune) {
	if len(text) == 0 {
		return
	}

	lines := strings.Split(string(text), "\n")
	for i, line := range lines {
		if i > 0 {
			parent.AppendChild(element(atom.Br))
		}
		if line != "" {
			parent.AppendChild(&html.Node{Type: html.TextNode, Data: line})
		}
	}
}

func element(a atom.Atom) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
