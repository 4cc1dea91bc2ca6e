package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kltng/lcsh-validation-api/internal/application/admission"
	"github.com/kltng/lcsh-validation-api/internal/application/recommend"
	"github.com/kltng/lcsh-validation-api/internal/application/similarity"
	"github.com/kltng/lcsh-validation-api/internal/config"
	"github.com/kltng/lcsh-validation-api/internal/domain/entity"
	"github.com/kltng/lcsh-validation-api/internal/interfaces/http/dto"
	"github.com/kltng/lcsh-validation-api/internal/interfaces/http/handler"
)

const testKey = "test-key-0123456789"

func init() {
	gin.SetMode(gin.TestMode)
}

type stubRetriever struct {
	results map[string][]entity.Candidate
	errs    map[string]error
	block   map[string]bool
}

func (s *stubRetriever) Retrieve(ctx context.Context, phrase string) ([]entity.Candidate, error) {
	if s.block[phrase] {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err := s.errs[phrase]; err != nil {
		return nil, err
	}
	return s.results[phrase], nil
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.App.Name = "lcsh-api-test"
	cfg.App.Env = "test"
	cfg.Observability.Metrics.Path = "/metrics"
	cfg.Security.APIKeys.Header = "X-API-Key"
	cfg.Security.RateLimit.Enabled = true
	return cfg
}

func newTestRouter(t *testing.T, r recommend.Retriever, limit int, timeout time.Duration) *gin.Engine {
	t.Helper()
	cfg := testConfig()
	engine := recommend.NewEngine(r, nil,
		similarity.NewVectorizer(similarity.DefaultTokenizerOptions()),
		recommend.Options{RequestTimeout: timeout})

	return NewWithDeps(cfg, RouterHandlers{
		Health:    handler.NewHealthHandler("test", map[string]handler.HealthChecker{"redis": nil}),
		Recommend: handler.NewRecommendHandler(engine, 1<<20),
	}, Guard{
		Keys:    admission.NewKeySet([]string{testKey}, false),
		Limiter: admission.NewSlidingWindow(limit, time.Minute),
	}).Engine()
}

func doRecommend(t *testing.T, h http.Handler, key string, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/recommend", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set("X-API-Key", key)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return v
}

func republicRetriever() *stubRetriever {
	return &stubRetriever{
		results: map[string][]entity.Candidate{
			"China--History--Republic, 1912-1949": {
				{Label: "China--History--1912-1928", ID: "sh85024101", URL: "https://id.loc.gov/authorities/subjects/sh85024101.html"},
				{Label: "China--History--Republic, 1912-1949", ID: "sh85024107", URL: "https://id.loc.gov/authorities/subjects/sh85024107.html"},
			},
			"Digital humanities": {
				{Label: "Digital humanities", ID: "sh2011003398", URL: "https://id.loc.gov/authorities/subjects/sh2011003398.html"},
			},
		},
		errs: map[string]error{
			"Broken":     recommend.ErrUpstreamUnavailable,
			"Broken too": recommend.ErrUpstreamMalformed,
		},
	}
}

func TestRecommendRejectsMissingAndInvalidKey(t *testing.T) {
	h := newTestRouter(t, republicRetriever(), 10, time.Second)

	for _, key := range []string{"", "wrong-key"} {
		rec := doRecommend(t, h, key, `{"terms":["Digital humanities"]}`)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("key %q: status %d want 401", key, rec.Code)
		}
		body := decode[dto.ErrorResponse](t, rec)
		if body.Code != http.StatusUnauthorized || body.Error == nil || body.Error.ErrorCode == "" {
			t.Fatalf("unexpected error envelope %+v", body)
		}
	}
}

func TestRecommendSuccessPreservesOrder(t *testing.T) {
	h := newTestRouter(t, republicRetriever(), 10, time.Second)

	rec := doRecommend(t, h, testKey, `{"terms":["China--History--Republic, 1912-1949","Broken","Digital humanities"]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d body %s", rec.Code, rec.Body.String())
	}
	body := decode[dto.RecommendResponse](t, rec)

	if len(body.Results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(body.Results))
	}
	wantTerms := []string{"China--History--Republic, 1912-1949", "Broken", "Digital humanities"}
	for i, term := range wantTerms {
		if body.Results[i].Term != term {
			t.Fatalf("result %d term %q want %q", i, body.Results[i].Term, term)
		}
	}
	if body.Results[1].Status != dto.PhraseStatusFailed || body.Results[1].Error == nil || body.Results[1].Error.Code != "5006" {
		t.Fatalf("expected failure marker at position 1, got %+v", body.Results[1])
	}

	first := body.Results[0].Recommendations[0]
	if first.ID != "sh85024107" || first.SimilarityScore != 1 {
		t.Fatalf("expected exact heading first with score 1, got %+v", first)
	}
	if len(body.Recommendations) != 3 {
		t.Fatalf("flat list should hold 2+1 entries, got %d", len(body.Recommendations))
	}
	if body.Recommendations[2].Term != "Digital humanities" {
		t.Fatalf("flat list not in input order: %+v", body.Recommendations)
	}
}

func TestRecommendAllFailedIsBadGateway(t *testing.T) {
	h := newTestRouter(t, republicRetriever(), 10, time.Second)

	rec := doRecommend(t, h, testKey, `{"terms":["Broken","Broken too"]}`)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status %d want 502", rec.Code)
	}
	body := decode[dto.RecommendResponse](t, rec)
	if body.Results[1].Error == nil || body.Results[1].Error.Code != "5007" {
		t.Fatalf("expected malformed code at position 1, got %+v", body.Results[1])
	}
}

func TestRecommendAllTimedOutIsGatewayTimeout(t *testing.T) {
	r := &stubRetriever{block: map[string]bool{"slow": true, "slower": true}}
	h := newTestRouter(t, r, 10, 30*time.Millisecond)

	rec := doRecommend(t, h, testKey, `{"terms":["slow","slower"]}`)
	if rec.Code != http.StatusGatewayTimeout {
		t.Fatalf("status %d want 504 body %s", rec.Code, rec.Body.String())
	}
}

func TestRecommendInvalidInput(t *testing.T) {
	h := newTestRouter(t, republicRetriever(), 10, time.Second)

	for _, body := range []string{`{"terms":[]}`, `{"terms":["ok",""]}`, `not json`} {
		rec := doRecommend(t, h, testKey, body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("body %q: status %d want 400", body, rec.Code)
		}
	}
}

func TestRecommendRateLimited(t *testing.T) {
	h := newTestRouter(t, republicRetriever(), 2, time.Second)
	body := `{"terms":["Digital humanities"]}`

	for i := 0; i < 2; i++ {
		if rec := doRecommend(t, h, testKey, body); rec.Code != http.StatusOK {
			t.Fatalf("request %d: status %d", i+1, rec.Code)
		}
	}
	rec := doRecommend(t, h, testKey, body)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status %d want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" || rec.Header().Get("X-RateLimit-Remaining") != "0" {
		t.Fatalf("missing rate limit headers: %v", rec.Header())
	}
}

func TestUnauthorizedRequestsDoNotConsumeQuota(t *testing.T) {
	h := newTestRouter(t, republicRetriever(), 1, time.Second)
	body := `{"terms":["Digital humanities"]}`

	for i := 0; i < 3; i++ {
		doRecommend(t, h, "wrong-key", body)
	}
	if rec := doRecommend(t, h, testKey, body); rec.Code != http.StatusOK {
		t.Fatalf("status %d want 200", rec.Code)
	}
}

func TestVersionedRouteAndHealth(t *testing.T) {
	h := newTestRouter(t, republicRetriever(), 10, time.Second)

	req := httptest.NewRequest(http.MethodPost, "/v1/recommend", bytes.NewBufferString(`{"terms":["Digital humanities"]}`))
	req.Header.Set("X-API-Key", testKey)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("/v1/recommend status %d", rec.Code)
	}

	for _, path := range []string{"/health", "/live", "/ready"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("%s status %d", path, rec.Code)
		}
	}
}
