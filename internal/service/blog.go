package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"spacetraveling/internal/cache"
	"spacetraveling/internal/domain"
	"spacetraveling/internal/metrics"
	"spacetraveling/internal/reading"
)

const (
	ListingKey = "listing"
	FeedKey    = "feed"
)

func PostKey(uid string) string {
	return "post:" + uid
}

type Config struct {
	DocumentType string
	PageSize     int
	FeedSize     int
	ListingTTL   time.Duration
	PostTTL      time.Duration
}

// PostView is a post prepared for the reader page.
type PostView struct {
	Post    domain.PostDetail `json:"post"`
	Reading reading.Result    `json:"reading"`
	Blocks  []RenderedBlock   `json:"blocks"`
}

type RenderedBlock struct {
	Heading string `json:"heading"`
	HTML    string `json:"html"`
}

type BlogService struct {
	source   ContentSource
	renderer Renderer
	cache    *cache.Cache
	state    PrerenderStateStore
	logger   *slog.Logger
	metrics  *metrics.Metrics
	config   Config
}

// NewBlogService wires the blog. state may be nil, in which case prerender
// runs are not recorded.
func NewBlogService(
	source ContentSource,
	renderer Renderer,
	c *cache.Cache,
	state PrerenderStateStore,
	logger *slog.Logger,
	m *metrics.Metrics,
	cfg Config,
) *BlogService {
	return &BlogService{
		source:   source,
		renderer: renderer,
		cache:    c,
		state:    state,
		logger:   logger.With("component", "blog"),
		metrics:  m,
		config:   cfg,
	}
}

// FirstPage returns the first listing page.
func (s *BlogService) FirstPage(ctx context.Context) (*domain.Page, error) {
	body, err := s.cache.Get(ctx, ListingKey, s.config.ListingTTL, s.generateFirstPage)
	if err != nil {
		return nil, fmt.Errorf("get first page: %w", err)
	}

	var page domain.Page
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("decode cached page: %w", err)
	}
	return &page, nil
}

// FetchPage fetches the page at cursor. Pages beyond the first are not
// cached since cursors are bound to a content release.
func (s *BlogService) FetchPage(ctx context.Context, cursor string) (*domain.Page, error) {
	page, err := s.source.QueryPage(ctx, s.config.PageSize, cursor)
	if err != nil {
		return nil, fmt.Errorf("fetch page: %w", err)
	}
	return page, nil
}

// Post returns the reader view of uid. Missing documents yield
// domain.ErrNotFound and are never cached.
func (s *BlogService) Post(ctx context.Context, uid string) (*PostView, error) {
	body, err := s.cache.Get(ctx, PostKey(uid), s.config.PostTTL, s.generatePost(uid))
	if err != nil {
		return nil, fmt.Errorf("get post %s: %w", uid, err)
	}

	var view PostView
	if err := json.Unmarshal(body, &view); err != nil {
		return nil, fmt.Errorf("decode cached post: %w", err)
	}
	return &view, nil
}

// Recent returns the most recent posts for the feed.
func (s *BlogService) Recent(ctx context.Context) ([]domain.PostSummary, error) {
	body, err := s.cache.Get(ctx, FeedKey, s.config.ListingTTL, s.generateRecent)
	if err != nil {
		return nil, fmt.Errorf("get recent posts: %w", err)
	}

	var page domain.Page
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("decode cached page: %w", err)
	}
	return page.Results, nil
}

// StaticPaths lists the identifiers to prerender.
func (s *BlogService) StaticPaths(ctx context.Context) ([]string, error) {
	uids, err := s.source.QueryAllIdentifiers(ctx)
	if err != nil {
		return nil, fmt.Errorf("query identifiers: %w", err)
	}

	seen := make(map[string]bool, len(uids))
	paths := make([]string, 0, len(uids))
	for _, uid := range uids {
		if seen[uid] {
			continue
		}
		seen[uid] = true
		paths = append(paths, uid)
	}
	return paths, nil
}

// Prerender refreshes the listing and every static path regardless of age.
// Posts that fail are counted and skipped.
func (s *BlogService) Prerender(ctx context.Context) (stats *domain.PrerenderStats, err error) {
	defer func() { s.metrics.PrerenderRun(err) }()

	startTime := time.Now()
	s.logger.Info("starting prerender")

	if err := s.cache.Refresh(ctx, ListingKey, s.generateFirstPage); err != nil {
		return nil, fmt.Errorf("render listing: %w", err)
	}

	paths, err := s.StaticPaths(ctx)
	if err != nil {
		return nil, err
	}

	stats = &domain.PrerenderStats{Paths: len(paths)}

	for _, uid := range paths {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		err := s.cache.Refresh(ctx, PostKey(uid), s.generatePost(uid))
		switch {
		case errors.Is(err, domain.ErrNotFound):
			stats.NotFound++
		case err != nil:
			stats.Errors++
			s.logger.Warn("failed to render post", "uid", uid, "error", err)
		default:
			stats.Rendered++
		}
	}

	if err := s.updateState(ctx, stats); err != nil {
		return stats, fmt.Errorf("update prerender state: %w", err)
	}

	stats.Duration = time.Since(startTime)

	s.logger.Info("prerender completed",
		"paths", stats.Paths,
		"rendered", stats.Rendered,
		"not_found", stats.NotFound,
		"errors", stats.Errors,
		"duration", stats.Duration,
	)

	return stats, nil
}

func (s *BlogService) generateFirstPage(ctx context.Context) ([]byte, error) {
	page, err := s.source.QueryPage(ctx, s.config.PageSize, "")
	if err != nil {
		return nil, fmt.Errorf("query first page: %w", err)
	}
	return json.Marshal(page)
}

func (s *BlogService) generateRecent(ctx context.Context) ([]byte, error) {
	page, err := s.source.QueryPage(ctx, s.config.FeedSize, "")
	if err != nil {
		return nil, fmt.Errorf("query recent posts: %w", err)
	}
	page.NextPage = ""
	return json.Marshal(page)
}

func (s *BlogService) generatePost(uid string) cache.GenerateFunc {
	return func(ctx context.Context) ([]byte, error) {
		post, err := s.source.GetByUID(ctx, s.config.DocumentType, uid)
		if err != nil {
			return nil, err
		}
		return json.Marshal(s.buildView(post))
	}
}

func (s *BlogService) buildView(post *domain.PostDetail) PostView {
	view := PostView{
		Post:    *post,
		Reading: reading.Estimate(post.Data.Content, s.renderer),
		Blocks:  make([]RenderedBlock, 0, len(post.Data.Content)),
	}

	for _, block := range post.Data.Content {
		view.Blocks = append(view.Blocks, RenderedBlock{
			Heading: block.Heading,
			HTML:    s.renderer.AsHTML(block.Body),
		})
	}

	return view
}

func (s *BlogService) updateState(ctx context.Context, stats *domain.PrerenderStats) error {
	if s.state == nil {
		return nil
	}

	state, err := s.state.Get(ctx, s.config.DocumentType)
	if err != nil {
		return err
	}

	state.Name = s.config.DocumentType
	state.LastRunAt = time.Now()
	state.LastPaths = int64(stats.Paths)
	state.TotalRendered += int64(stats.Rendered)

	return s.state.Update(ctx, state)
}
