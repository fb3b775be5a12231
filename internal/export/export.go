// Package export writes the blog as a static site.
package export

//go:generate mockgen -source=export.go -destination=mocks/mocks.go -package=mocks

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"spacetraveling/internal/domain"
	"spacetraveling/internal/listing"
	"spacetraveling/internal/pages"
	"spacetraveling/internal/service"
)

const (
	contentTypeHTML = "text/html; charset=utf-8"
	contentTypeRSS  = "application/rss+xml; charset=utf-8"
	contentTypeSVG  = "image/svg+xml"

	homeTitle    = "Home"
	archiveTitle = "Todos os posts"
)

type Blog interface {
	FirstPage(ctx context.Context) (*domain.Page, error)
	FetchPage(ctx context.Context, cursor string) (*domain.Page, error)
	Post(ctx context.Context, uid string) (*service.PostView, error)
	StaticPaths(ctx context.Context) ([]string, error)
	Recent(ctx context.Context) ([]domain.PostSummary, error)
}

// Sink stores exported files. Names are slash separated and relative to the
// site root.
type Sink interface {
	Write(ctx context.Context, name, contentType string, body []byte) error
}

type Exporter struct {
	blog    Blog
	sink    Sink
	pages   *pages.Pages
	logger  *slog.Logger
	baseURL string
	now     func() time.Time
}

// New creates an exporter. baseURL roots the feed links.
func New(blog Blog, sink Sink, p *pages.Pages, logger *slog.Logger, baseURL string) *Exporter {
	return &Exporter{
		blog:    blog,
		sink:    sink,
		pages:   p,
		logger:  logger.With("component", "export"),
		baseURL: baseURL,
		now:     time.Now,
	}
}

// Export writes the listing pages, the archive, every post, the not-found
// page, the feed and the logo. The listing is walked page by page until the
// cursor runs out; page N shows every post loaded so far.
func (e *Exporter) Export(ctx context.Context) (*domain.ExportStats, error) {
	startTime := time.Now()
	stats := &domain.ExportStats{}

	e.logger.Info("starting export")

	first, err := e.blog.FirstPage(ctx)
	if err != nil {
		return stats, fmt.Errorf("load first page: %w", err)
	}

	acc := listing.New(e.blog, *first)
	if err := e.writeListingPage(ctx, stats, 1, acc); err != nil {
		return stats, err
	}
	for n := 2; acc.HasMore(); n++ {
		if _, err := acc.LoadMore(ctx); err != nil {
			return stats, fmt.Errorf("load page %d: %w", n, err)
		}
		if err := e.writeListingPage(ctx, stats, n, acc); err != nil {
			return stats, err
		}
	}

	archive := pages.NewListing(archiveTitle, acc.Items())
	if err := e.render(ctx, stats, "archive/index.html", pages.ListingTemplate, archive); err != nil {
		return stats, err
	}

	if err := e.writePosts(ctx, stats); err != nil {
		return stats, err
	}

	if err := e.render(ctx, stats, "404.html", pages.NotFoundTemplate, pages.NotFound()); err != nil {
		return stats, err
	}

	if err := e.writeFeed(ctx, stats); err != nil {
		return stats, err
	}

	logo, err := pages.Logo()
	if err != nil {
		return stats, fmt.Errorf("read logo: %w", err)
	}
	if err := e.write(ctx, stats, "images/logo.svg", contentTypeSVG, logo); err != nil {
		return stats, err
	}

	stats.Duration = time.Since(startTime)

	e.logger.Info("export completed",
		"pages", stats.Pages,
		"posts", stats.Posts,
		"not_found", stats.NotFound,
		"files", stats.Files,
		"bytes", stats.Bytes,
		"duration", stats.Duration,
	)

	return stats, nil
}

func (e *Exporter) writeListingPage(ctx context.Context, stats *domain.ExportStats, n int, acc *listing.Accumulator) error {
	data := pages.NewListing(homeTitle, acc.Items())
	if acc.HasMore() {
		data.MoreHref = fmt.Sprintf("/page/%d/", n+1)
	}

	if err := e.render(ctx, stats, listingFile(n), pages.ListingTemplate, data); err != nil {
		return err
	}
	stats.Pages++
	return nil
}

func (e *Exporter) writePosts(ctx context.Context, stats *domain.ExportStats) error {
	uids, err := e.blog.StaticPaths(ctx)
	if err != nil {
		return fmt.Errorf("list posts: %w", err)
	}

	for _, uid := range uids {
		if uid == "" || uid == "." || uid == ".." {
			e.logger.Warn("skipping post with unusable identifier", "uid", uid)
			continue
		}

		view, err := e.blog.Post(ctx, uid)
		if errors.Is(err, domain.ErrNotFound) {
			stats.NotFound++
			continue
		}
		if err != nil {
			return fmt.Errorf("load post %s: %w", uid, err)
		}

		name := "post/" + url.PathEscape(uid) + "/index.html"
		if err := e.render(ctx, stats, name, pages.PostTemplate, pages.NewPost(view)); err != nil {
			return err
		}
		stats.Posts++
	}

	return nil
}

func (e *Exporter) writeFeed(ctx context.Context, stats *domain.ExportStats) error {
	posts, err := e.blog.Recent(ctx)
	if err != nil {
		return fmt.Errorf("load recent posts: %w", err)
	}

	var buf bytes.Buffer
	if err := pages.WriteFeed(&buf, e.baseURL, posts, e.now()); err != nil {
		return err
	}
	return e.write(ctx, stats, "feed.xml", contentTypeRSS, buf.Bytes())
}

func (e *Exporter) render(ctx context.Context, stats *domain.ExportStats, name, tmpl string, data any) error {
	var buf bytes.Buffer
	if err := e.pages.Render(&buf, tmpl, data); err != nil {
		return err
	}
	return e.write(ctx, stats, name, contentTypeHTML, buf.Bytes())
}

func (e *Exporter) write(ctx context.Context, stats *domain.ExportStats, name, contentType string, body []byte) error {
	if err := e.sink.Write(ctx, name, contentType, body); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	stats.Files++
	stats.Bytes += int64(len(body))
	e.logger.Debug("wrote file", "name", name, "bytes", len(body))
	return nil
}

func listingFile(n int) string {
	if n == 1 {
		return "index.html"
	}
	return fmt.Sprintf("page/%d/index.html", n)
}
