package richtext

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spacetraveling/internal/domain"
)

func parse(t *testing.T, fragment string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<body>" + fragment + "</body>"))
	require.NoError(t, err)
	return doc
}

func TestAsText(t *testing.T) {
	r := NewRenderer()

	assert.Equal(t, "", r.AsText(nil))
	assert.Equal(t, "one two", r.AsText(domain.RichText{{Text: "one two"}}))
	assert.Equal(t, "first second", r.AsText(domain.RichText{
		{Type: "paragraph", Text: "first"},
		{Type: "heading2", Text: "second"},
	}))
}

func TestAsHTML_Paragraphs(t *testing.T) {
	r := NewRenderer()

	out := r.AsHTML(domain.RichText{
		{Type: "paragraph", Text: "Hello"},
		{Text: "untyped"},
		{Type: "heading2", Text: "Title"},
	})

	assert.Equal(t, "<p>Hello</p><p>untyped</p><h2>Title</h2>", out)
}

func TestAsHTML_EscapesText(t *testing.T) {
	r := NewRenderer()

	out := r.AsHTML(domain.RichText{{Type: "paragraph", Text: `<script>alert("x")</script>`}})

	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "&lt;script&gt;")
}

func TestAsHTML_Spans(t *testing.T) {
	r := NewRenderer()

	out := r.AsHTML(domain.RichText{{
		Type: "paragraph",
		Text: "bold and link here",
		Spans: []domain.Span{
			{Start: 0, End: 4, Type: "strong"},
			{Start: 9, End: 13, Type: "hyperlink", Data: &domain.SpanData{URL: "https://example.com", Target: "_blank"}},
		},
	}})

	assert.Equal(t,
		`<p><strong>bold</strong> and <a href="https://example.com" target="_blank" rel="noopener noreferrer">link</a> here</p>`,
		out,
	)
}

func TestAsHTML_NestedAndOverlappingSpans(t *testing.T) {
	r := NewRenderer()

	out := r.AsHTML(domain.RichText{{
		Type: "paragraph",
		Text: "abcdef",
		Spans: []domain.Span{
			{Start: 1, End: 3, Type: "em"},
			{Start: 0, End: 4, Type: "strong"},
			{Start: 3, End: 6, Type: "em"},
		},
	}})

	doc := parse(t, out)
	assert.Equal(t, "abcdef", doc.Find("p").Text(), "no text is lost or duplicated")
	assert.Equal(t, "abcd", doc.Find("p > strong").Text())
	assert.Equal(t, 2, doc.Find("strong > em").Length(), "the overlapping span is cut at the enclosing end")
	assert.Equal(t, "bc", doc.Find("strong > em").First().Text())
	assert.Equal(t, "d", doc.Find("strong > em").Last().Text())
}

func TestAsHTML_SpansUseRuneOffsets(t *testing.T) {
	r := NewRenderer()

	out := r.AsHTML(domain.RichText{{
		Type:  "paragraph",
		Text:  "não é",
		Spans: []domain.Span{{Start: 0, End: 3, Type: "em"}},
	}})

	assert.Equal(t, "<p><em>não</em> é</p>", out)
}

func TestAsHTML_OutOfRangeSpans(t *testing.T) {
	r := NewRenderer()

	out := r.AsHTML(domain.RichText{{
		Type:  "paragraph",
		Text:  "short",
		Spans: []domain.Span{{Start: 2, End: 99, Type: "strong"}, {Start: 4, End: 1, Type: "em"}},
	}})

	assert.Equal(t, "<p>sh<strong>ort</strong></p>", out)
}

func TestAsHTML_Lists(t *testing.T) {
	r := NewRenderer()

	out := r.AsHTML(domain.RichText{
		{Type: "list-item", Text: "a"},
		{Type: "list-item", Text: "b"},
		{Type: "o-list-item", Text: "one"},
		{Type: "paragraph", Text: "after"},
		{Type: "list-item", Text: "c"},
	})

	assert.Equal(t, "<ul><li>a</li><li>b</li></ul><ol><li>one</li></ol><p>after</p><ul><li>c</li></ul>", out)
}

func TestAsHTML_LineBreaksAndImages(t *testing.T) {
	r := NewRenderer()

	out := r.AsHTML(domain.RichText{
		{Type: "paragraph", Text: "line one\nline two"},
		{Type: "image", URL: "https://images.example.com/a.png", Alt: "a"},
		{Type: "image"},
		{Type: "embed", Text: "ignored"},
	})

	doc := parse(t, out)
	assert.Equal(t, 1, doc.Find("p br").Length())
	src, ok := doc.Find("p.block-img img").Attr("src")
	require.True(t, ok)
	assert.Equal(t, "https://images.example.com/a.png", src)
	assert.Equal(t, 1, doc.Find("img").Length())
	assert.NotContains(t, out, "ignored")
}

func TestAsHTML_Label(t *testing.T) {
	r := NewRenderer()

	out := r.AsHTML(domain.RichText{{
		Type:  "paragraph",
		Text:  "code",
		Spans: []domain.Span{{Start: 0, End: 4, Type: "label", Data: &domain.SpanData{Label: "codespan"}}},
	}})

	assert.Equal(t, `<p><span class="codespan">code</span></p>`, out)
}
