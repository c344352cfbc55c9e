package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alvmarrod/degrees/internal/query"
	"github.com/alvmarrod/degrees/internal/storage"
	"github.com/gin-gonic/gin"
)

type stubQueries struct {
	result query.Result
	err    error
	source string
	target string
}

func (s *stubQueries) HandleQuery(_ context.Context, source, target string) (query.Result, error) {
	s.source, s.target = source, target
	return s.result, s.err
}

type stubStats struct{}

func (stubStats) GetSnapshot() storage.Metrics {
	return storage.Metrics{QueriesServed: 7}
}

type stubRecent struct {
	limit int
}

func (s *stubRecent) Recent(_ context.Context, limit int) ([]storage.SearchRecord, error) {
	s.limit = limit
	return []storage.SearchRecord{{SourceID: 1, TargetID: 2, Paths: storage.PathSet{{1, 2}}}}, nil
}

func newTestRouter(queries QueryHandler, recent RecentSearches) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return NewRouter(RouterConfig{
		Queries:        queries,
		Stats:          stubStats{},
		Recent:         recent,
		AllowedOrigins: []string{"*"},
	})
}

func postPaths(t *testing.T, router http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/paths", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestPathsSuccess(t *testing.T) {
	queries := &stubQueries{result: query.Result{
		Paths: storage.PathSet{{100, 200}},
		Pages: query.PagesMap{
			100: {Title: "Cat", URL: "https://en.wikipedia.org/wiki/Cat"},
			200: {Title: "Dog", URL: "https://en.wikipedia.org/wiki/Dog", Description: "Domestic animal"},
		},
	}}
	router := newTestRouter(queries, nil)

	rec := postPaths(t, router, `{"source": "Cat", "target": "Dog"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d (%s)", rec.Code, rec.Body.String())
	}
	if queries.source != "Cat" || queries.target != "Dog" {
		t.Fatalf("titles not forwarded: %q %q", queries.source, queries.target)
	}

	var body struct {
		Paths [][]int                   `json:"paths"`
		Pages map[string]query.PageInfo `json:"pages"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(body.Paths) != 1 || len(body.Pages) != 2 {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
	if body.Pages["200"].Description != "Domestic animal" {
		t.Fatalf("description lost: %+v", body.Pages["200"])
	}
	if rec.Header().Get(headerRequestID) == "" {
		t.Fatalf("expected request id header")
	}
}

func TestPathsEmptyResult(t *testing.T) {
	router := newTestRouter(&stubQueries{result: query.Result{Paths: storage.PathSet{}, Pages: query.PagesMap{}}}, nil)

	rec := postPaths(t, router, `{"source": "A", "target": "B"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != `{"paths":[],"pages":{}}` {
		t.Fatalf("unexpected body: %s", got)
	}
}

func TestPathsErrors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
		wantError  string
	}{
		{
			name:       "unknown source",
			body:       `{"source": "Nope", "target": "Dog"}`,
			err:        &query.UnknownPageError{Title: "Nope", Side: query.SideSource},
			wantStatus: http.StatusBadRequest,
			wantError:  `Start page "Nope" does not exist. Please try another search.`,
		},
		{
			name:       "unknown target",
			body:       `{"source": "Cat", "target": "Nope"}`,
			err:        fmt.Errorf("wrapped: %w", &query.UnknownPageError{Title: "Nope", Side: query.SideTarget}),
			wantStatus: http.StatusBadRequest,
			wantError:  `End page "Nope" does not exist. Please try another search.`,
		},
		{
			name:       "upstream failure",
			body:       `{"source": "Cat", "target": "Dog"}`,
			err:        fmt.Errorf("%w: %w", query.ErrUpstreamUnavailable, errors.New("db locked")),
			wantStatus: http.StatusInternalServerError,
			wantError:  "internal server error",
		},
		{
			name:       "missing target",
			body:       `{"source": "Cat"}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "request body must include source and target page titles",
		},
		{
			name:       "malformed body",
			body:       `{"source":`,
			wantStatus: http.StatusBadRequest,
			wantError:  "request body must include source and target page titles",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(&stubQueries{err: tt.err}, nil)
			rec := postPaths(t, router, tt.body)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var body map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid JSON: %v", err)
			}
			if body["error"] != tt.wantError {
				t.Fatalf("error = %q, want %q", body["error"], tt.wantError)
			}
		})
	}
}

func TestHealthAndStats(t *testing.T) {
	router := newTestRouter(&stubQueries{}, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Fatalf("unexpected health response: %d %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))
	var snapshot storage.Metrics
	if err := json.Unmarshal(rec.Body.Bytes(), &snapshot); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if snapshot.QueriesServed != 7 {
		t.Fatalf("unexpected snapshot: %+v", snapshot)
	}
}

func TestRecentSearches(t *testing.T) {
	recent := &stubRecent{}
	router := newTestRouter(&stubQueries{}, recent)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/searches?limit=5", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	if recent.limit != 5 {
		t.Fatalf("limit not forwarded: %d", recent.limit)
	}

	for _, limit := range []string{"0", "-1", "501", "many"} {
		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/searches?limit="+limit, nil))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for limit %s, got %d", limit, rec.Code)
		}
	}

	withoutLog := newTestRouter(&stubQueries{}, nil)
	rec = httptest.NewRecorder()
	withoutLog.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/searches", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 without a search log, got %d", rec.Code)
	}
}

func TestRequestIDIsPropagated(t *testing.T) {
	router := newTestRouter(&stubQueries{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(headerRequestID, "abc-123")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if got := rec.Header().Get(headerRequestID); got != "abc-123" {
		t.Fatalf("request id = %q", got)
	}
}

func TestCORS(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := NewRouter(RouterConfig{
		Queries:        &stubQueries{},
		Stats:          stubStats{},
		AllowedOrigins: []string{"https://degrees.example.org"},
	})

	req := httptest.NewRequest(http.MethodOptions, "/paths", nil)
	req.Header.Set("Origin", "https://degrees.example.org")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://degrees.example.org" {
		t.Fatalf("unexpected allow-origin header: %q", got)
	}
}
