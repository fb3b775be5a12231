package prismic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"spacetraveling/internal/domain"
	"spacetraveling/internal/metrics"
)

const (
	SourceID = "prismic"

	dateLayout = "2006-01-02T15:04:05-0700"

	// maxPageSize is the largest page the API serves.
	maxPageSize = 100
)

// Config holds content API client configuration.
type Config struct {
	Endpoint       string
	AccessToken    string
	DocumentType   string
	Timeout        time.Duration
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// Client queries a Prismic-style REST API (v2).
type Client struct {
	httpClient     *http.Client
	endpoint       string
	accessToken    string
	documentType   string
	maxAttempts    int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	logger         *slog.Logger
	metrics        *metrics.Metrics
}

// StatusError is returned for non-200 responses.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status: %d", e.Code)
}

// New creates a new content API client.
func New(cfg Config, logger *slog.Logger, m *metrics.Metrics) *Client {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		endpoint:       strings.TrimRight(cfg.Endpoint, "/"),
		accessToken:    cfg.AccessToken,
		documentType:   cfg.DocumentType,
		maxAttempts:    cfg.MaxAttempts,
		initialBackoff: cfg.InitialBackoff,
		maxBackoff:     cfg.MaxBackoff,
		logger:         logger.With("source", SourceID),
		metrics:        m,
	}
}

// QueryPage returns a page of post summaries. An empty cursor queries the
// first page; otherwise the cursor is the opaque next-page URL returned by a
// previous page and is fetched as-is, exactly once.
func (c *Client) QueryPage(ctx context.Context, pageSize int, cursor string) (page *domain.Page, err error) {
	start := time.Now()
	defer func() { c.metrics.ObserveContentRequest("query_page", err, time.Since(start)) }()

	var resp *SearchResponse
	if cursor == "" {
		resp, err = c.search(ctx, typePredicate(c.documentType), pageSize)
	} else {
		resp, err = c.getSearch(ctx, cursor, 1)
	}
	if err != nil {
		return nil, err
	}

	page = &domain.Page{
		Results: make([]domain.PostSummary, 0, len(resp.Results)),
	}
	if resp.NextPage != nil {
		page.NextPage = *resp.NextPage
	}

	for _, doc := range resp.Results {
		summary, err := c.toSummary(doc)
		if err != nil {
			return nil, fmt.Errorf("decode document %s: %w", doc.ID, err)
		}
		page.Results = append(page.Results, summary)
	}

	c.logger.Debug("fetched page",
		"page", resp.Page,
		"results", len(page.Results),
		"has_next", page.NextPage != "",
	)

	return page, nil
}

// QueryAllIdentifiers returns the UIDs of every document of the configured
// type, following next-page links until the listing is exhausted.
func (c *Client) QueryAllIdentifiers(ctx context.Context) (uids []string, err error) {
	start := time.Now()
	defer func() { c.metrics.ObserveContentRequest("query_all_identifiers", err, time.Since(start)) }()

	resp, err := c.search(ctx, typePredicate(c.documentType), maxPageSize)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	for {
		for _, doc := range resp.Results {
			if doc.UID != nil && *doc.UID != "" {
				uids = append(uids, *doc.UID)
			}
		}

		if resp.NextPage == nil || *resp.NextPage == "" || seen[*resp.NextPage] {
			break
		}
		next := *resp.NextPage
		seen[next] = true

		resp, err = c.getSearch(ctx, next, c.maxAttempts)
		if err != nil {
			return uids, fmt.Errorf("fetch next page: %w", err)
		}
	}

	c.logger.Debug("listed identifiers", "count", len(uids))

	return uids, nil
}

// GetByUID fetches a single document of the given kind. It returns
// domain.ErrNotFound when no document matches.
func (c *Client) GetByUID(ctx context.Context, kind, uid string) (post *domain.PostDetail, err error) {
	start := time.Now()
	defer func() { c.metrics.ObserveContentRequest("get_by_uid", err, time.Since(start)) }()

	q := fmt.Sprintf(`[[at(my.%s.uid,"%s")]]`, kind, escapeQuery(uid))
	resp, err := c.search(ctx, q, 1)
	if err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) && statusErr.Code == http.StatusNotFound {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	if len(resp.Results) == 0 {
		return nil, domain.ErrNotFound
	}

	detail, err := c.toDetail(resp.Results[0])
	if err != nil {
		return nil, fmt.Errorf("decode document %s: %w", uid, err)
	}

	return detail, nil
}

func (c *Client) search(ctx context.Context, q string, pageSize int) (*SearchResponse, error) {
	ref, err := c.masterRef(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve master ref: %w", err)
	}

	params := url.Values{}
	params.Set("ref", ref)
	params.Set("q", q)
	params.Set("pageSize", strconv.Itoa(pageSize))
	params.Set("orderings", "[document.first_publication_date desc]")

	return c.getSearch(ctx, c.endpoint+"/documents/search?"+params.Encode(), c.maxAttempts)
}

func (c *Client) getSearch(ctx context.Context, rawURL string, attempts int) (*SearchResponse, error) {
	var resp SearchResponse
	if err := c.getJSON(ctx, rawURL, attempts, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) masterRef(ctx context.Context) (string, error) {
	var api APIResponse
	if err := c.getJSON(ctx, c.endpoint, c.maxAttempts, &api); err != nil {
		return "", err
	}

	for _, ref := range api.Refs {
		if ref.IsMasterRef {
			return ref.Ref, nil
		}
	}

	return "", errors.New("no master ref")
}

func (c *Client) getJSON(ctx context.Context, rawURL string, attempts int, out any) error {
	var err error

	for attempt := 1; attempt <= attempts; attempt++ {
		err = c.doRequest(ctx, rawURL, out)
		if err == nil {
			return nil
		}

		var statusErr *StatusError
		if errors.As(err, &statusErr) && statusErr.Code < http.StatusInternalServerError {
			return err
		}

		if attempt == attempts {
			break
		}

		backoff := c.calculateBackoff(attempt)
		c.logger.Warn("request failed, retrying",
			"attempt", attempt,
			"backoff", backoff,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}

	if attempts > 1 {
		return fmt.Errorf("after %d attempts: %w", attempts, err)
	}
	return err
}

func (c *Client) doRequest(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "spacetraveling/1.0")
	if c.accessToken != "" {
		req.Header.Set("Authorization", "Token "+c.accessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &StatusError{Code: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

func (c *Client) calculateBackoff(attempt int) time.Duration {
	backoff := c.initialBackoff
	for i := 1; i < attempt; i++ {
		backoff *= 2
	}
	if backoff > c.maxBackoff {
		backoff = c.maxBackoff
	}
	return backoff
}

func (c *Client) toSummary(doc Document) (domain.PostSummary, error) {
	var data summaryData
	if len(doc.Data) > 0 {
		if err := json.Unmarshal(doc.Data, &data); err != nil {
			return domain.PostSummary{}, err
		}
	}

	return domain.PostSummary{
		UID:                  stringValue(doc.UID),
		FirstPublicationDate: c.parseDate(doc.ID, doc.FirstPublicationDate),
		Data: domain.SummaryData{
			Title:    data.Title,
			Subtitle: data.Subtitle,
			Author:   data.Author,
		},
	}, nil
}

func (c *Client) toDetail(doc Document) (*domain.PostDetail, error) {
	var data detailData
	if len(doc.Data) > 0 {
		if err := json.Unmarshal(doc.Data, &data); err != nil {
			return nil, err
		}
	}

	content := make([]domain.ContentBlock, 0, len(data.Content))
	for _, group := range data.Content {
		body := make(domain.RichText, 0, len(group.Body))
		for _, b := range group.Body {
			block := domain.TextBlock{
				Type: b.Type,
				Text: b.Text,
				URL:  b.URL,
				Alt:  b.Alt,
			}
			for _, s := range b.Spans {
				span := domain.Span{Start: s.Start, End: s.End, Type: s.Type}
				if s.Data != nil {
					span.Data = &domain.SpanData{URL: s.Data.URL, Label: s.Data.Label, Target: s.Data.Target}
				}
				block.Spans = append(block.Spans, span)
			}
			body = append(body, block)
		}
		content = append(content, domain.ContentBlock{Heading: group.Heading, Body: body})
	}

	return &domain.PostDetail{
		UID:                  stringValue(doc.UID),
		FirstPublicationDate: c.parseDate(doc.ID, doc.FirstPublicationDate),
		Data: domain.DetailData{
			Title:   data.Title,
			Banner:  domain.Banner{URL: data.Banner.URL},
			Author:  data.Author,
			Content: content,
		},
	}, nil
}

func (c *Client) parseDate(docID string, raw *string) *time.Time {
	if raw == nil || *raw == "" {
		return nil
	}

	for _, layout := range []string{dateLayout, time.RFC3339} {
		if t, err := time.Parse(layout, *raw); err == nil {
			return &t
		}
	}

	c.logger.Warn("failed to parse date",
		"document_id", docID,
		"date", *raw,
	)
	return nil
}

func typePredicate(documentType string) string {
	return fmt.Sprintf(`[[at(document.type,"%s")]]`, escapeQuery(documentType))
}

func escapeQuery(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
}

func stringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
