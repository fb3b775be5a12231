package pages

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gorilla/feeds"

	"spacetraveling/internal/domain"
)

const (
	feedTitle       = "spacetraveling"
	feedDescription = "Posts do spacetraveling"
)

// WriteFeed writes an RSS 2.0 feed of posts. Links are absolute, rooted at
// baseURL. Posts without an identifier have no page and are skipped.
func WriteFeed(w io.Writer, baseURL string, posts []domain.PostSummary, now time.Time) error {
	base := strings.TrimRight(baseURL, "/")

	feed := &feeds.Feed{
		Title:       feedTitle,
		Link:        &feeds.Link{Href: base + "/"},
		Description: feedDescription,
		Created:     now.UTC(),
	}

	for _, p := range posts {
		if p.UID == "" {
			continue
		}

		link := base + PostPath(p.UID)
		item := &feeds.Item{
			Title:       p.Data.Title,
			Link:        &feeds.Link{Href: link},
			Id:          link,
			Description: p.Data.Subtitle,
		}
		if p.Data.Author != "" {
			item.Author = &feeds.Author{Name: p.Data.Author}
		}
		if p.FirstPublicationDate != nil {
			item.Created = p.FirstPublicationDate.UTC()
			if item.Created.After(feed.Updated) {
				feed.Updated = item.Created
			}
		}
		feed.Items = append(feed.Items, item)
	}

	if err := feed.WriteRss(w); err != nil {
		return fmt.Errorf("write feed: %w", err)
	}
	return nil
}
