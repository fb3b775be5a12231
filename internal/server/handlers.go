package server

import (
	"bytes"
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"

	"spacetraveling/internal/domain"
	"spacetraveling/internal/invalidation"
	"spacetraveling/internal/listing"
	"spacetraveling/internal/pages"
	"spacetraveling/internal/views"
)

const (
	homeTitle          = "Home"
	revalidateHeader   = "X-Revalidate-Secret"
	createViewAction   = "/views"
	contentTypeRSS     = "application/rss+xml; charset=utf-8"
	contentTypeSVG     = "image/svg+xml"
	noStore            = "no-store"
	staticCacheControl = "public, max-age=86400"
)

var errViewStore = errors.New("view store")

// loadResult is the outcome of a load-more call.
type loadResult struct {
	ViewID   string               `json:"view_id"`
	Results  []domain.PostSummary `json:"results"`
	NextPage *string              `json:"next_page"`
}

func newLoadResult(id string, batch []domain.PostSummary, next string) *loadResult {
	res := &loadResult{ViewID: id, Results: batch}
	if res.Results == nil {
		res.Results = []domain.PostSummary{}
	}
	if next != "" {
		res.NextPage = &next
	}
	return res
}

func (s *Server) handleHome(c *gin.Context) {
	ctx := c.Request.Context()

	if id := c.Query("view"); id != "" {
		c.Header("Cache-Control", noStore)

		state, err := s.views.Load(ctx, id)
		if err == nil {
			data := pages.NewListing(homeTitle, state.Items)
			if state.NextPage != "" {
				data.MoreAction = moreAction(id)
			}
			c.HTML(http.StatusOK, pages.ListingTemplate, data)
			return
		}
		if !errors.Is(err, views.ErrViewNotFound) {
			s.logger.Warn("failed to load view", "view_id", id, "error", err)
		}
	}

	page, err := s.blog.FirstPage(ctx)
	if err != nil {
		s.logger.Error("failed to load first page", "error", err)
		s.renderError(c, http.StatusBadGateway, "Não foi possível carregar os posts.")
		return
	}

	data := pages.NewListing(homeTitle, page.Results)
	if page.NextPage != "" {
		data.MoreAction = createViewAction
	}

	if c.Writer.Header().Get("Cache-Control") == "" {
		c.Header("Cache-Control", cacheControl(s.opts.ListingTTL))
	}
	c.HTML(http.StatusOK, pages.ListingTemplate, data)
}

// handleCreateView starts a view from the first page and loads the second.
func (s *Server) handleCreateView(c *gin.Context) {
	res, err := s.createView(c.Request.Context())
	s.respondLoad(c, res, err)
}

// handleLoadMore appends the next page to a view. Concurrent submits for
// one view share a load that no single request can cancel.
func (s *Server) handleLoadMore(c *gin.Context) {
	id := c.Param("id")
	ctx := c.Request.Context()

	ch := s.loads.DoChan(id, func() (any, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.LoadTimeout)
		defer cancel()
		return s.loadMore(loadCtx, id)
	})

	select {
	case <-ctx.Done():
		s.respondLoad(c, nil, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			s.respondLoad(c, nil, res.Err)
			return
		}
		s.respondLoad(c, res.Val.(*loadResult), nil)
	}
}

func (s *Server) createView(ctx context.Context) (*loadResult, error) {
	page, err := s.blog.FirstPage(ctx)
	if err != nil {
		return nil, err
	}

	acc := listing.New(s.blog, *page)
	batch, err := acc.LoadMore(ctx)
	if err != nil {
		return nil, err
	}

	id, err := s.views.Create(ctx, acc.Snapshot())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errViewStore, err)
	}

	return newLoadResult(id, batch, acc.NextPage()), nil
}

func (s *Server) loadMore(ctx context.Context, id string) (*loadResult, error) {
	state, err := s.views.Load(ctx, id)
	if errors.Is(err, views.ErrViewNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errViewStore, err)
	}

	acc := listing.Restore(s.blog, state)
	batch, err := acc.LoadMore(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.views.Save(ctx, id, acc.Snapshot()); err != nil {
		if errors.Is(err, views.ErrViewNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", errViewStore, err)
	}

	return newLoadResult(id, batch, acc.NextPage()), nil
}

func (s *Server) respondLoad(c *gin.Context, res *loadResult, err error) {
	s.metrics.LoadMore(err)

	if err != nil {
		status, message := loadErrorStatus(err)
		if status >= http.StatusInternalServerError {
			s.logger.Error("load more failed", "error", err, "request_id", c.GetString(requestIDKey))
		}

		if wantsJSON(c) {
			c.JSON(status, gin.H{"error": message})
			return
		}
		s.renderError(c, status, message)
		return
	}

	if wantsJSON(c) {
		c.JSON(http.StatusOK, res)
		return
	}
	c.Redirect(http.StatusSeeOther, "/?view="+url.QueryEscape(res.ViewID))
}

func loadErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, views.ErrViewNotFound):
		return http.StatusNotFound, "Esta listagem expirou."
	case errors.Is(err, listing.ErrNoMorePages):
		return http.StatusConflict, "Não há mais posts para carregar."
	case errors.Is(err, errViewStore):
		return http.StatusInternalServerError, "Não foi possível salvar a listagem."
	default:
		return http.StatusBadGateway, "Não foi possível carregar mais posts."
	}
}

// handlePost renders the reader page. Every fetch failure renders the
// not-found page; only missing documents answer 404.
func (s *Server) handlePost(c *gin.Context) {
	uid := c.Param("slug")

	view, err := s.blog.Post(c.Request.Context(), uid)
	if err != nil {
		status := http.StatusNotFound
		if !errors.Is(err, domain.ErrNotFound) {
			status = http.StatusBadGateway
			s.logger.Error("failed to load post", "uid", uid, "error", err)
		}
		c.Header("Cache-Control", noStore)
		c.HTML(status, pages.NotFoundTemplate, pages.NotFound())
		return
	}

	c.Header("Cache-Control", cacheControl(s.opts.PostTTL))
	c.HTML(http.StatusOK, pages.PostTemplate, pages.NewPost(view))
}

func (s *Server) handleFeed(c *gin.Context) {
	posts, err := s.blog.Recent(c.Request.Context())
	if err != nil {
		s.logger.Error("failed to load feed", "error", err)
		c.Header("Cache-Control", noStore)
		c.String(http.StatusBadGateway, "feed unavailable")
		return
	}

	var buf bytes.Buffer
	if err := pages.WriteFeed(&buf, s.opts.BaseURL, posts, s.now()); err != nil {
		s.logger.Error("failed to write feed", "error", err)
		c.String(http.StatusInternalServerError, "feed unavailable")
		return
	}

	c.Header("Cache-Control", cacheControl(s.opts.ListingTTL))
	c.Data(http.StatusOK, contentTypeRSS, buf.Bytes())
}

func (s *Server) handleLogo(c *gin.Context) {
	logo, err := pages.Logo()
	if err != nil {
		c.Status(http.StatusNotFound)
		return
	}
	c.Header("Cache-Control", staticCacheControl)
	c.Data(http.StatusOK, contentTypeSVG, logo)
}

// handleRevalidate invalidates every cached page. The secret is accepted as
// the secret query parameter or the X-Revalidate-Secret header.
func (s *Server) handleRevalidate(c *gin.Context) {
	if s.opts.RevalidateSecret == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "revalidation disabled"})
		return
	}

	secret := c.Query("secret")
	if secret == "" {
		secret = c.GetHeader(revalidateHeader)
	}
	if subtle.ConstantTimeCompare([]byte(secret), []byte(s.opts.RevalidateSecret)) != 1 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid secret"})
		return
	}

	msg := invalidation.Message{All: true, Timestamp: s.now().UTC()}
	if err := s.invalidator.Publish(c.Request.Context(), msg); err != nil {
		s.logger.Error("failed to publish invalidation", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "invalidation failed"})
		return
	}

	s.logger.Info("revalidation requested", "request_id", c.GetString(requestIDKey))
	c.JSON(http.StatusOK, gin.H{"revalidated": true, "now": msg.Timestamp})
}

func (s *Server) renderError(c *gin.Context, status int, message string) {
	c.Header("Cache-Control", noStore)
	c.HTML(status, pages.ErrorTemplate, pages.Error("Erro", message))
}

func wantsJSON(c *gin.Context) bool {
	return c.NegotiateFormat(gin.MIMEHTML, gin.MIMEJSON) == gin.MIMEJSON
}

func moreAction(id string) string {
	return "/views/" + url.PathEscape(id) + "/more"
}

func cacheControl(ttl time.Duration) string {
	return fmt.Sprintf("public, s-maxage=%d, stale-while-revalidate", int(ttl.Seconds()))
}
