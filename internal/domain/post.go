package domain

import (
	"errors"
	"time"
)

// ErrNotFound is returned when no document matches a requested identifier.
var ErrNotFound = errors.New("document not found")

// PostSummary is the listing representation of a post.
type PostSummary struct {
	UID                  string      `json:"uid,omitempty"`
	FirstPublicationDate *time.Time  `json:"first_publication_date"`
	Data                 SummaryData `json:"data"`
}

type SummaryData struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	Author   string `json:"author"`
}

// PostDetail is the full post document rendered by the reader page.
type PostDetail struct {
	UID                  string     `json:"uid,omitempty"`
	FirstPublicationDate *time.Time `json:"first_publication_date"`
	Data                 DetailData `json:"data"`
}

type DetailData struct {
	Title   string         `json:"title"`
	Banner  Banner         `json:"banner"`
	Author  string         `json:"author"`
	Content []ContentBlock `json:"content"`
}

type Banner struct {
	URL string `json:"url"`
}

// ContentBlock is one section of a post: a heading and its rich-text body.
type ContentBlock struct {
	Heading string   `json:"heading"`
	Body    RichText `json:"body"`
}

// RichText is an ordered sequence of text blocks.
type RichText []TextBlock

type TextBlock struct {
	Type  string `json:"type,omitempty"` // paragraph, heading1..6, list-item, ...
	Text  string `json:"text"`
	Spans []Span `json:"spans,omitempty"`
	URL   string `json:"url,omitempty"` // image blocks
	Alt   string `json:"alt,omitempty"`
}

// Span marks up the rune range [Start, End) of a block's text.
type Span struct {
	Start int       `json:"start"`
	End   int       `json:"end"`
	Type  string    `json:"type"` // strong, em, hyperlink, label
	Data  *SpanData `json:"data,omitempty"`
}

type SpanData struct {
	URL   string `json:"url,omitempty"`
	Label string `json:"label,omitempty"`
	// Target is "_blank" for links that open in a new window.
	Target string `json:"target,omitempty"`
}
