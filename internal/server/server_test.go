package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gin-gonic/gin"
	"github.com/mmcdole/gofeed"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"spacetraveling/internal/domain"
	"spacetraveling/internal/invalidation"
	"spacetraveling/internal/listing"
	"spacetraveling/internal/metrics"
	"spacetraveling/internal/pages"
	"spacetraveling/internal/reading"
	"spacetraveling/internal/service"
	"spacetraveling/internal/server/mocks"
	"spacetraveling/internal/views"
	viewmocks "spacetraveling/internal/views/mocks"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type ServerTestSuite struct {
	suite.Suite
	ctrl *gomock.Controller

	blog        *mocks.MockBlog
	invalidator *mocks.MockInvalidator
	views       *views.MemoryStore
	registry    *prometheus.Registry

	server *Server
	router *gin.Engine
}

func (s *ServerTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.blog = mocks.NewMockBlog(s.ctrl)
	s.invalidator = mocks.NewMockInvalidator(s.ctrl)
	s.views = views.NewMemoryStore(time.Minute)
	s.registry = prometheus.NewRegistry()

	p, err := pages.New()
	s.Require().NoError(err)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	s.server = New(s.blog, s.views, s.invalidator, p, logger, metrics.New(s.registry), Options{
		BaseURL:          "https://blog.example.com",
		ListingTTL:       24 * time.Hour,
		PostTTL:          time.Hour,
		RevalidateSecret: "s3cret",
		Metrics:          promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}),
	})
	s.server.now = func() time.Time { return time.Date(2021, 3, 20, 12, 0, 0, 0, time.UTC) }
	s.router = s.server.Router()
}

func (s *ServerTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestServerTestSuite(t *testing.T) {
	suite.Run(t, new(ServerTestSuite))
}

func summaries(uids ...string) []domain.PostSummary {
	published := time.Date(2021, 3, 15, 19, 25, 28, 0, time.UTC)
	out := make([]domain.PostSummary, 0, len(uids))
	for _, uid := range uids {
		out = append(out, domain.PostSummary{
			UID:                  uid,
			FirstPublicationDate: &published,
			Data:                 domain.SummaryData{Title: "Title " + uid, Subtitle: "Subtitle " + uid, Author: "Author"},
		})
	}
	return out
}

func (s *ServerTestSuite) do(method, path string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header[http.CanonicalHeaderKey(k)] = v
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func acceptJSON() http.Header {
	return http.Header{"Accept": {"application/json"}}
}

func acceptHTML() http.Header {
	return http.Header{"Accept": {"text/html"}}
}

func (s *ServerTestSuite) document(w *httptest.ResponseRecorder) *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(w.Body)
	s.Require().NoError(err)
	return doc
}

func (s *ServerTestSuite) decode(w *httptest.ResponseRecorder) map[string]any {
	var body map[string]any
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func titles(doc *goquery.Document) []string {
	var out []string
	doc.Find("a.post strong").Each(func(_ int, sel *goquery.Selection) {
		out = append(out, sel.Text())
	})
	return out
}

func (s *ServerTestSuite) TestHome_RendersFirstPage() {
	s.blog.EXPECT().FirstPage(gomock.Any()).Return(&domain.Page{Results: summaries("p1"), NextPage: "c2"}, nil)

	w := s.do(http.MethodGet, "/", nil)

	s.Equal(http.StatusOK, w.Code)
	s.Equal("public, s-maxage=86400, stale-while-revalidate", w.Header().Get("Cache-Control"))

	doc := s.document(w)
	s.Equal([]string{"Title p1"}, titles(doc))
	s.Equal("15 mar 2021", doc.Find("a.post time").Text())
	action, _ := doc.Find("form.load-more").Attr("action")
	s.Equal("/views", action)
}

func (s *ServerTestSuite) TestHome_NoCursorHidesLoadMore() {
	s.blog.EXPECT().FirstPage(gomock.Any()).Return(&domain.Page{Results: summaries("p1")}, nil)

	w := s.do(http.MethodGet, "/", nil)

	s.Equal(http.StatusOK, w.Code)
	s.Equal(0, s.document(w).Find(".load-more").Length())
}

func (s *ServerTestSuite) TestHome_FirstPageError() {
	s.blog.EXPECT().FirstPage(gomock.Any()).Return(nil, errors.New("unexpected status: 500"))

	w := s.do(http.MethodGet, "/", nil)

	s.Equal(http.StatusBadGateway, w.Code)
	s.Equal("no-store", w.Header().Get("Cache-Control"))
}

func (s *ServerTestSuite) TestHome_UnknownViewFallsBackToFirstPage() {
	s.blog.EXPECT().FirstPage(gomock.Any()).Return(&domain.Page{Results: summaries("p1")}, nil)

	w := s.do(http.MethodGet, "/?view=expired", nil)

	s.Equal(http.StatusOK, w.Code)
	s.Equal("no-store", w.Header().Get("Cache-Control"))
	s.Equal([]string{"Title p1"}, titles(s.document(w)))
}

func (s *ServerTestSuite) TestCreateView_JSONThenRender() {
	s.blog.EXPECT().FirstPage(gomock.Any()).Return(&domain.Page{Results: summaries("p1"), NextPage: "c2"}, nil)
	s.blog.EXPECT().FetchPage(gomock.Any(), "c2").Return(&domain.Page{Results: summaries("p2"), NextPage: "c3"}, nil)

	w := s.do(http.MethodPost, "/views", acceptJSON())
	s.Require().Equal(http.StatusOK, w.Code)

	var res loadResult
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &res))
	s.NotEmpty(res.ViewID)
	s.Len(res.Results, 1)
	s.Equal("p2", res.Results[0].UID)
	s.Require().NotNil(res.NextPage)
	s.Equal("c3", *res.NextPage)

	w = s.do(http.MethodGet, "/?view="+res.ViewID, nil)
	s.Equal(http.StatusOK, w.Code)
	s.Equal("no-store", w.Header().Get("Cache-Control"))

	doc := s.document(w)
	s.Equal([]string{"Title p1", "Title p2"}, titles(doc))
	action, _ := doc.Find("form.load-more").Attr("action")
	s.Equal("/views/"+res.ViewID+"/more", action)
}

func (s *ServerTestSuite) TestCreateView_HTMLRedirects() {
	s.blog.EXPECT().FirstPage(gomock.Any()).Return(&domain.Page{Results: summaries("p1"), NextPage: "c2"}, nil)
	s.blog.EXPECT().FetchPage(gomock.Any(), "c2").Return(&domain.Page{Results: summaries("p2")}, nil)

	w := s.do(http.MethodPost, "/views", acceptHTML())

	s.Equal(http.StatusSeeOther, w.Code)
	s.True(strings.HasPrefix(w.Header().Get("Location"), "/?view="))
}

func (s *ServerTestSuite) TestCreateView_WithoutCursor() {
	s.blog.EXPECT().FirstPage(gomock.Any()).Return(&domain.Page{Results: summaries("p1")}, nil)

	w := s.do(http.MethodPost, "/views", acceptJSON())

	s.Equal(http.StatusConflict, w.Code)
	s.Contains(s.decode(w), "error")
}

func (s *ServerTestSuite) TestLoadMore_UntilExhausted() {
	ctx := context.Background()
	id, err := s.views.Create(ctx, listing.State{Items: summaries("p1"), NextPage: "c2"})
	s.Require().NoError(err)

	s.blog.EXPECT().FetchPage(gomock.Any(), "c2").Return(&domain.Page{Results: summaries("p2", "p3")}, nil)

	w := s.do(http.MethodPost, "/views/"+id+"/more", acceptJSON())
	s.Require().Equal(http.StatusOK, w.Code)

	body := s.decode(w)
	s.Nil(body["next_page"])
	s.Len(body["results"], 2)

	state, err := s.views.Load(ctx, id)
	s.Require().NoError(err)
	s.Len(state.Items, 3)
	s.Empty(state.NextPage)

	w = s.do(http.MethodPost, "/views/"+id+"/more", acceptJSON())
	s.Equal(http.StatusConflict, w.Code)

	w = s.do(http.MethodGet, "/?view="+id, nil)
	s.Equal(0, s.document(w).Find(".load-more").Length())
}

func (s *ServerTestSuite) TestLoadMore_UnknownView() {
	w := s.do(http.MethodPost, "/views/missing/more", acceptJSON())
	s.Equal(http.StatusNotFound, w.Code)

	w = s.do(http.MethodPost, "/views/missing/more", acceptHTML())
	s.Equal(http.StatusNotFound, w.Code)
	s.Equal(1, s.document(w).Find("main.error").Length())
}

func (s *ServerTestSuite) TestLoadMore_FetchFailureKeepsView() {
	ctx := context.Background()
	id, err := s.views.Create(ctx, listing.State{Items: summaries("p1"), NextPage: "c2"})
	s.Require().NoError(err)

	s.blog.EXPECT().FetchPage(gomock.Any(), "c2").Return(nil, errors.New("decode response: unexpected EOF"))

	w := s.do(http.MethodPost, "/views/"+id+"/more", acceptJSON())
	s.Equal(http.StatusBadGateway, w.Code)

	state, err := s.views.Load(ctx, id)
	s.Require().NoError(err)
	s.Len(state.Items, 1)
	s.Equal("c2", state.NextPage)

	count := testCounter(s.registry, "spacetraveling_load_more_total", "error")
	s.Equal(1.0, count)
}

func (s *ServerTestSuite) TestLoadMore_ConcurrentSubmitsFetchOnce() {
	ctx := context.Background()
	id, err := s.views.Create(ctx, listing.State{Items: summaries("p1"), NextPage: "c2"})
	s.Require().NoError(err)

	release := make(chan struct{})
	s.blog.EXPECT().FetchPage(gomock.Any(), "c2").DoAndReturn(func(context.Context, string) (*domain.Page, error) {
		<-release
		return &domain.Page{Results: summaries("p2"), NextPage: "c3"}, nil
	}).Times(1)

	const submits = 5
	codes := make(chan int, submits)
	var wg sync.WaitGroup
	for range submits {
		wg.Add(1)
		go func() {
			defer wg.Done()
			codes <- s.do(http.MethodPost, "/views/"+id+"/more", acceptJSON()).Code
		}()
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()
	close(codes)

	for code := range codes {
		s.Equal(http.StatusOK, code)
	}

	state, err := s.views.Load(ctx, id)
	s.Require().NoError(err)
	s.Len(state.Items, 2)
	s.Equal("c3", state.NextPage)
}

func (s *ServerTestSuite) TestLoadMore_DisconnectedSubmitDoesNotFailOthers() {
	ctx := context.Background()
	id, err := s.views.Create(ctx, listing.State{Items: summaries("p1"), NextPage: "c2"})
	s.Require().NoError(err)

	release := make(chan struct{})
	fetchErr := make(chan error, 1)
	s.blog.EXPECT().FetchPage(gomock.Any(), "c2").DoAndReturn(func(ctx context.Context, _ string) (*domain.Page, error) {
		<-release
		fetchErr <- ctx.Err()
		return &domain.Page{Results: summaries("p2")}, nil
	}).Times(1)

	firstCtx, cancel := context.WithCancel(context.Background())
	first := make(chan int, 1)
	go func() {
		req := httptest.NewRequest(http.MethodPost, "/views/"+id+"/more", nil).WithContext(firstCtx)
		req.Header.Set("Accept", "application/json")
		w := httptest.NewRecorder()
		s.router.ServeHTTP(w, req)
		first <- w.Code
	}()

	time.Sleep(20 * time.Millisecond)

	second := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		second <- s.do(http.MethodPost, "/views/"+id+"/more", acceptJSON())
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()
	<-first

	close(release)
	w := <-second
	s.Require().Equal(http.StatusOK, w.Code)
	s.Len(s.decode(w)["results"], 1)
	s.NoError(<-fetchErr)

	state, err := s.views.Load(ctx, id)
	s.Require().NoError(err)
	s.Len(state.Items, 2)
	s.Empty(state.NextPage)
}

func (s *ServerTestSuite) TestLoadMore_ViewStoreFailure() {
	store := viewmocks.NewMockStore(s.ctrl)
	store.EXPECT().Load(gomock.Any(), "v1").Return(listing.State{}, errors.New("dial tcp: connection refused"))

	p, err := pages.New()
	s.Require().NoError(err)
	srv := New(s.blog, store, s.invalidator, p, slog.New(slog.NewTextHandler(io.Discard, nil)), nil, Options{})

	req := httptest.NewRequest(http.MethodPost, "/views/v1/more", nil)
	req.Header.Set("Accept", "application/json")
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	s.Equal(http.StatusInternalServerError, w.Code)
}

func (s *ServerTestSuite) TestPost_Renders() {
	view := &service.PostView{
		Post: domain.PostDetail{
			UID:  "como-utilizar-hooks",
			Data: domain.DetailData{Title: "Como utilizar Hooks", Author: "Joseph Oliveira"},
		},
		Reading: reading.Result{Words: 201, Minutes: 2},
		Blocks:  []service.RenderedBlock{{Heading: "Proin et varius", HTML: "<p>Lorem ipsum</p>"}},
	}
	s.blog.EXPECT().Post(gomock.Any(), "como-utilizar-hooks").Return(view, nil)

	w := s.do(http.MethodGet, "/post/como-utilizar-hooks", nil)

	s.Equal(http.StatusOK, w.Code)
	s.Equal("public, s-maxage=3600, stale-while-revalidate", w.Header().Get("Cache-Control"))

	doc := s.document(w)
	s.Equal("Como utilizar Hooks", doc.Find("h1").Text())
	s.Equal("2 min", doc.Find(".reading-time").Text())
	s.Equal("Lorem ipsum", doc.Find(".post-body p").Text())
	s.Equal(0, doc.Find("time").Length())
}

func (s *ServerTestSuite) TestPost_NotFound() {
	s.blog.EXPECT().Post(gomock.Any(), "missing").Return(nil, domain.ErrNotFound)

	w := s.do(http.MethodGet, "/post/missing", nil)

	s.Equal(http.StatusNotFound, w.Code)
	s.Equal("no-store", w.Header().Get("Cache-Control"))
	s.Equal("Post não encontrado", s.document(w).Find("h1").Text())
}

func (s *ServerTestSuite) TestPost_FetchFailureRendersNotFoundPage() {
	s.blog.EXPECT().Post(gomock.Any(), "p1").Return(nil, errors.New("unexpected status: 503"))

	w := s.do(http.MethodGet, "/post/p1", nil)

	s.Equal(http.StatusBadGateway, w.Code)
	s.Equal("no-store", w.Header().Get("Cache-Control"))
	s.Equal("Post não encontrado", s.document(w).Find("h1").Text())
}

func (s *ServerTestSuite) TestFeed() {
	s.blog.EXPECT().Recent(gomock.Any()).Return(summaries("p1", "p2"), nil)

	w := s.do(http.MethodGet, "/feed.xml", nil)

	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Header().Get("Content-Type"), "application/rss+xml")

	feed, err := gofeed.NewParser().ParseString(w.Body.String())
	s.Require().NoError(err)
	s.Require().Len(feed.Items, 2)
	s.Equal("https://blog.example.com/post/p1", feed.Items[0].Link)
}

func (s *ServerTestSuite) TestFeed_Error() {
	s.blog.EXPECT().Recent(gomock.Any()).Return(nil, errors.New("unexpected status: 500"))

	w := s.do(http.MethodGet, "/feed.xml", nil)

	s.Equal(http.StatusBadGateway, w.Code)
}

func (s *ServerTestSuite) TestRevalidate() {
	s.invalidator.EXPECT().Publish(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, msg invalidation.Message) error {
			s.True(msg.All)
			s.False(msg.Timestamp.IsZero())
			return nil
		},
	).Times(2)

	w := s.do(http.MethodPost, "/api/revalidate?secret=s3cret", nil)
	s.Equal(http.StatusOK, w.Code)
	s.Equal(true, s.decode(w)["revalidated"])

	w = s.do(http.MethodPost, "/api/revalidate", http.Header{"X-Revalidate-Secret": {"s3cret"}})
	s.Equal(http.StatusOK, w.Code)
}

func (s *ServerTestSuite) TestRevalidate_WrongSecret() {
	for _, path := range []string{"/api/revalidate", "/api/revalidate?secret=wrong", "/api/revalidate?secret=s3cret-longer"} {
		w := s.do(http.MethodPost, path, nil)
		s.Equal(http.StatusUnauthorized, w.Code, path)
	}
}

func (s *ServerTestSuite) TestRevalidate_PublishError() {
	s.invalidator.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(errors.New("channel closed"))

	w := s.do(http.MethodPost, "/api/revalidate?secret=s3cret", nil)

	s.Equal(http.StatusInternalServerError, w.Code)
}

func (s *ServerTestSuite) TestRevalidate_Disabled() {
	s.server.opts.RevalidateSecret = ""
	router := s.server.Router()

	req := httptest.NewRequest(http.MethodPost, "/api/revalidate?secret=", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	s.Equal(http.StatusNotFound, w.Code)
}

func (s *ServerTestSuite) TestHealthAndRequestID() {
	w := s.do(http.MethodGet, "/healthz", http.Header{RequestIDHeader: {"req-123"}})

	s.Equal(http.StatusOK, w.Code)
	s.Equal("req-123", w.Header().Get(RequestIDHeader))
	s.Equal("ok", s.decode(w)["status"])

	w = s.do(http.MethodGet, "/healthz", nil)
	s.Len(w.Header().Get(RequestIDHeader), 36)
}

func (s *ServerTestSuite) TestMetricsEndpoint() {
	s.server.metrics.LoadMore(nil)

	w := s.do(http.MethodGet, "/metrics", nil)

	s.Equal(http.StatusOK, w.Code)
	body, _ := io.ReadAll(w.Body)
	s.Contains(string(body), "spacetraveling_")
}

func (s *ServerTestSuite) TestUnknownRouteAndLogo() {
	w := s.do(http.MethodGet, "/nope", nil)
	s.Equal(http.StatusNotFound, w.Code)
	s.Equal("Post não encontrado", s.document(w).Find("h1").Text())

	w = s.do(http.MethodGet, pages.LogoPath, nil)
	s.Equal(http.StatusOK, w.Code)
	s.Equal("image/svg+xml", w.Header().Get("Content-Type"))
}

func testCounter(reg *prometheus.Registry, name, outcome string) float64 {
	families, err := reg.Gather()
	if err != nil {
		return -1
	}
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		for _, m := range f.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "outcome" && l.GetValue() == outcome {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}
