package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/wisplink/wisp/internal/api"
	"github.com/wisplink/wisp/internal/ratelimit"
	"github.com/wisplink/wisp/internal/shortener"
	"github.com/wisplink/wisp/internal/store"
	"github.com/wisplink/wisp/internal/testutil"
)

const testBaseURL = "https://wisp.link"

// testEnv wires the JSON endpoints to a real service over an in-memory
// SQLite store.
type testEnv struct {
	Router http.Handler
	Store  *store.LinkStore
}

func newTestEnv(t *testing.T, limiterMax int) *testEnv {
	t.Helper()
	db := testutil.NewTestDB(t)
	ls := store.NewLinkStore(db)
	svc := shortener.NewService(ls, &shortener.Classifier{SiteHostname: "wisp.link"}, shortener.Options{})
	limiter := ratelimit.NewLimiter(time.Minute, limiterMax)

	r := chi.NewRouter()
	api.RegisterRoutes(r, svc, limiter, testBaseURL)
	return &testEnv{Router: r, Store: ls}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.Router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return v
}

type errResp struct {
	Error    string `json:"error"`
	Code     string `json:"code"`
	Category string `json:"category"`
}

func TestCreateLink(t *testing.T) {
	env := newTestEnv(t, 100)

	w := env.do(t, http.MethodPost, "/links", api.CreateLinkRequest{LongURL: "example.com/page"})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", w.Code, w.Body.String())
	}
	if cc := w.Header().Get("Cache-Control"); !strings.Contains(cc, "no-store") {
		t.Errorf("Cache-Control = %q, want no-store", cc)
	}

	resp := decode[api.CreateLinkResponse](t, w)
	if len(resp.ShortSlug) != shortener.DefaultSlugLength {
		t.Errorf("slug %q length = %d, want %d", resp.ShortSlug, len(resp.ShortSlug), shortener.DefaultSlugLength)
	}
	if resp.ShortURL != testBaseURL+"/"+resp.ShortSlug {
		t.Errorf("ShortURL = %q, want %q", resp.ShortURL, testBaseURL+"/"+resp.ShortSlug)
	}
	if len(resp.ManagementToken) != 32 {
		t.Errorf("token length = %d, want 32", len(resp.ManagementToken))
	}
	if until := time.Until(resp.ExpiresAt); until < 6*24*time.Hour || until > 8*24*time.Hour {
		t.Errorf("ExpiresAt = %v, want roughly 7 days out", resp.ExpiresAt)
	}

	// The record exists with the normalized target.
	link, err := env.Store.GetBySlug(context.Background(), resp.ShortSlug)
	if err != nil {
		t.Fatalf("GetBySlug: %v", err)
	}
	if link.TargetURL != "https://example.com/page" {
		t.Errorf("stored target = %q, want normalized URL", link.TargetURL)
	}
}

func TestCreateLink_Failures(t *testing.T) {
	env := newTestEnv(t, 100)

	tests := []struct {
		name         string
		req          api.CreateLinkRequest
		wantStatus   int
		wantCode     string
		wantCategory string
	}{
		{
			name:       "missing url",
			req:        api.CreateLinkRequest{},
			wantStatus: http.StatusBadRequest,
			wantCode:   "BAD_REQUEST",
		},
		{
			name:       "unparseable url",
			req:        api.CreateLinkRequest{LongURL: "ftp://example.com/f"},
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_URL",
		},
		{
			name:         "blocked domain",
			req:          api.CreateLinkRequest{LongURL: "http://malware-site.org/x"},
			wantStatus:   http.StatusBadRequest,
			wantCode:     "POLICY_BLOCKED",
			wantCategory: "blocked_domain",
		},
		{
			name:         "self reference",
			req:          api.CreateLinkRequest{LongURL: "https://wisp.link/abc"},
			wantStatus:   http.StatusBadRequest,
			wantCode:     "POLICY_BLOCKED",
			wantCategory: "self_reference",
		},
		{
			name:       "uppercase alias",
			req:        api.CreateLinkRequest{LongURL: "https://example.com", CustomAlias: "My-Alias"},
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_ALIAS",
		},
		{
			name:       "reserved alias",
			req:        api.CreateLinkRequest{LongURL: "https://example.com", CustomAlias: "metrics"},
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_ALIAS",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/links", tt.req)
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", w.Code, tt.wantStatus, w.Body.String())
			}
			resp := decode[errResp](t, w)
			if resp.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", resp.Code, tt.wantCode)
			}
			if resp.Category != tt.wantCategory {
				t.Errorf("category = %q, want %q", resp.Category, tt.wantCategory)
			}
			if resp.Error == "" {
				t.Error("error message is empty")
			}
		})
	}

	// No failure above wrote anything.
	n, err := env.Store.CountLinks(context.Background())
	if err != nil {
		t.Fatalf("CountLinks: %v", err)
	}
	if n != 0 {
		t.Errorf("stored links = %d after failed creates, want 0", n)
	}
}

func TestCreateLink_AliasConflict(t *testing.T) {
	env := newTestEnv(t, 100)

	w := env.do(t, http.MethodPost, "/links", api.CreateLinkRequest{
		LongURL: "https://example.com", CustomAlias: "my-alias",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("first create status = %d: %s", w.Code, w.Body.String())
	}

	w = env.do(t, http.MethodPost, "/links", api.CreateLinkRequest{
		LongURL: "https://other.example.com", CustomAlias: "my-alias",
	})
	if w.Code != http.StatusConflict {
		t.Fatalf("second create status = %d, want 409: %s", w.Code, w.Body.String())
	}
	if resp := decode[errResp](t, w); resp.Code != "ALIAS_TAKEN" {
		t.Errorf("code = %q, want ALIAS_TAKEN", resp.Code)
	}
}

func TestCreateLink_RateLimited(t *testing.T) {
	env := newTestEnv(t, 2)

	for i := 0; i < 2; i++ {
		w := env.do(t, http.MethodPost, "/links", api.CreateLinkRequest{LongURL: "https://example.com"})
		if w.Code != http.StatusCreated {
			t.Fatalf("request %d status = %d: %s", i+1, w.Code, w.Body.String())
		}
	}

	w := env.do(t, http.MethodPost, "/links", api.CreateLinkRequest{LongURL: "https://example.com"})
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429: %s", w.Code, w.Body.String())
	}
	if resp := decode[errResp](t, w); resp.Code != "RATE_LIMITED" {
		t.Errorf("code = %q, want RATE_LIMITED", resp.Code)
	}
}

func TestCheckAlias(t *testing.T) {
	env := newTestEnv(t, 100)

	w := env.do(t, http.MethodPost, "/aliases/check", api.CheckAliasRequest{Alias: "fresh-alias"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	if resp := decode[api.CheckAliasResponse](t, w); !resp.Available {
		t.Error("fresh alias reported unavailable")
	}

	if w := env.do(t, http.MethodPost, "/links", api.CreateLinkRequest{
		LongURL: "https://example.com", CustomAlias: "fresh-alias",
	}); w.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", w.Code, w.Body.String())
	}

	w = env.do(t, http.MethodPost, "/aliases/check", api.CheckAliasRequest{Alias: "fresh-alias"})
	if resp := decode[api.CheckAliasResponse](t, w); resp.Available {
		t.Error("claimed alias reported available")
	}

	w = env.do(t, http.MethodPost, "/aliases/check", api.CheckAliasRequest{Alias: "Bad Alias"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("malformed alias status = %d, want 400", w.Code)
	}
}

func TestDeleteLink(t *testing.T) {
	env := newTestEnv(t, 100)

	created := decode[api.CreateLinkResponse](t, env.do(t, http.MethodPost, "/links",
		api.CreateLinkRequest{LongURL: "https://example.com"}))

	// Wrong token and nonexistent slug produce the same 404.
	w := env.do(t, http.MethodDelete, "/links/"+created.ShortSlug,
		api.DeleteLinkRequest{ManagementToken: "00000000000000000000000000000000"})
	if w.Code != http.StatusNotFound {
		t.Fatalf("wrong-token status = %d, want 404: %s", w.Code, w.Body.String())
	}
	wrongToken := decode[errResp](t, w)

	w = env.do(t, http.MethodDelete, "/links/zzzzzzzz",
		api.DeleteLinkRequest{ManagementToken: created.ManagementToken})
	if w.Code != http.StatusNotFound {
		t.Fatalf("absent-slug status = %d, want 404: %s", w.Code, w.Body.String())
	}
	absentSlug := decode[errResp](t, w)

	if wrongToken.Error != absentSlug.Error || wrongToken.Code != absentSlug.Code {
		t.Errorf("wrong-token response %+v differs from absent-slug response %+v", wrongToken, absentSlug)
	}

	// Token via header.
	req := httptest.NewRequest(http.MethodDelete, "/links/"+created.ShortSlug, nil)
	req.Header.Set("X-Management-Token", created.ManagementToken)
	w2 := httptest.NewRecorder()
	env.Router.ServeHTTP(w2, req)
	if w2.Code != http.StatusOK {
		t.Fatalf("delete status = %d: %s", w2.Code, w2.Body.String())
	}

	if _, err := env.Store.GetBySlug(context.Background(), created.ShortSlug); err == nil {
		t.Error("link still present after delete")
	}
}

// timeoutStore fails every repository call the way a saturated database does.
type timeoutStore struct{}

func (timeoutStore) Create(ctx context.Context, slug, targetURL, deleteToken string, expiresAt time.Time) (*store.Link, error) {
	return nil, context.DeadlineExceeded
}

func (timeoutStore) GetBySlug(ctx context.Context, slug string) (*store.Link, error) {
	return nil, context.DeadlineExceeded
}

func (timeoutStore) DeleteBySlugAndToken(ctx context.Context, slug, deleteToken string) (int64, error) {
	return 0, context.DeadlineExceeded
}

func (timeoutStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	return 0, context.DeadlineExceeded
}

func (timeoutStore) CountLinks(ctx context.Context) (int64, error) {
	return 0, context.DeadlineExceeded
}

func TestStoreTimeoutsReturn503(t *testing.T) {
	svc := shortener.NewService(timeoutStore{}, &shortener.Classifier{SiteHostname: "wisp.link"}, shortener.Options{})
	r := chi.NewRouter()
	api.RegisterRoutes(r, svc, ratelimit.NewLimiter(time.Minute, 100), testBaseURL)
	env := &testEnv{Router: r}

	tests := []struct {
		name   string
		method string
		path   string
		body   any
	}{
		{
			name:   "create",
			method: http.MethodPost,
			path:   "/links",
			body:   api.CreateLinkRequest{LongURL: "https://example.com"},
		},
		{
			name:   "delete",
			method: http.MethodDelete,
			path:   "/links/abc123",
			body:   api.DeleteLinkRequest{ManagementToken: "00000000000000000000000000000000"},
		},
		{
			name:   "alias check",
			method: http.MethodPost,
			path:   "/aliases/check",
			body:   api.CheckAliasRequest{Alias: "some-alias"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, tt.method, tt.path, tt.body)
			if w.Code != http.StatusServiceUnavailable {
				t.Fatalf("status = %d, want 503: %s", w.Code, w.Body.String())
			}
			if resp := decode[errResp](t, w); resp.Code != "STORE_TIMEOUT" {
				t.Errorf("code = %q, want STORE_TIMEOUT", resp.Code)
			}
		})
	}
}

func TestDeleteLink_MissingToken(t *testing.T) {
	env := newTestEnv(t, 100)
	w := env.do(t, http.MethodDelete, "/links/abc123", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400: %s", w.Code, w.Body.String())
	}
}
