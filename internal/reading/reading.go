// Package reading estimates how long a post takes to read.
package reading

import (
	"strings"

	"spacetraveling/internal/domain"
)

// WordsPerMinute is the fixed reading speed.
const WordsPerMinute = 200

// TextRenderer converts a rich-text body to plain text.
type TextRenderer interface {
	AsText(body domain.RichText) string
}

// Result is the reading estimate of a post.
type Result struct {
	// Text is the flattened plain text of every block, in document order.
	Text    string
	Words   int
	Minutes int
}

// Estimate flattens the content blocks and derives the reading time in whole
// minutes, rounded up. Content without words reads in 0 minutes.
func Estimate(blocks []domain.ContentBlock, r TextRenderer) Result {
	text := ""
	for _, block := range blocks {
		text = strings.TrimSpace(text + " " + strings.TrimSpace(block.Heading) + " " + strings.TrimSpace(r.AsText(block.Body)))
	}

	words := len(strings.Fields(text))

	return Result{
		Text:    text,
		Words:   words,
		Minutes: (words + WordsPerMinute - 1) / WordsPerMinute,
	}
}
