package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/starford/idmkit/internal/outlineservice"
	"github.com/starford/idmkit/internal/testutil"
)

const linksFile = `Go
  :uri http://golang.org
  :tags lang
Rust
  :tags lang systems
`

// testEnv sets up a temp collection, SQLite DB, service, and router for
// testing. An empty authToken means disabled mode.
func testEnv(t *testing.T, authToken string) (*outlineservice.Service, http.Handler) {
	t.Helper()
	return testEnvWithSSE(t, authToken != "", authToken, nil)
}

func testEnvWithSSE(t *testing.T, authEnabled bool, authToken string, sseHandler http.Handler) (*outlineservice.Service, http.Handler) {
	t.Helper()

	dir := testutil.TestCollection(t, map[string]string{
		"links.idm":       linksFile,
		"notes/daily.idm": "Monday\n  standup\n",
	})
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := outlineservice.NewService(dir, nil, testutil.TestDB(t), logger)
	if _, err := svc.Reindex(context.Background()); err != nil {
		t.Fatalf("Reindex: %v", err)
	}
	return svc, NewRouter(svc, authEnabled, authToken, sseHandler)
}

func get(t *testing.T, router http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestOutlineText(t *testing.T) {
	_, router := testEnv(t, "")

	w := get(t, router, "/outline?path=notes/daily")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if got := w.Body.String(); got != "daily\n  Monday\n    standup\n" {
		t.Errorf("body = %q", got)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("content type = %q", ct)
	}
	if w.Header().Get("ETag") == "" {
		t.Error("missing ETag")
	}
}

func TestOutlineJSON(t *testing.T) {
	_, router := testEnv(t, "")

	w := get(t, router, "/outline?path=links/Go&format=json")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var detail OutlineDetail
	if err := json.Unmarshal(w.Body.Bytes(), &detail); err != nil {
		t.Fatal(err)
	}
	if detail.Path != "links/Go" || !strings.HasPrefix(detail.Text, "Go\n  :uri http://golang.org\n") {
		t.Errorf("detail = %+v", detail)
	}
	if detail.Checksum == "" || detail.Sections != 1 {
		t.Errorf("detail = %+v", detail)
	}
}

func TestOutline_NotFound(t *testing.T) {
	_, router := testEnv(t, "")

	w := get(t, router, "/outline?path=notes/nope")
	if w.Code != http.StatusNotFound {
		t.Errorf("missing outline = %d, want 404", w.Code)
	}
}

func TestOutline_BrokenCollection(t *testing.T) {
	svc, router := testEnv(t, "")
	bad := filepath.Join(svc.Root(), "bad.idm")
	if err := os.WriteFile(bad, []byte("a\n\tb\n  c\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	w := get(t, router, "/outline")
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("broken collection = %d, want 422", w.Code)
	}
}

func TestSearchEndpoint(t *testing.T) {
	_, router := testEnv(t, "")

	w := get(t, router, "/search?q=standup")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp SearchResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Results) != 1 || resp.Results[0].File != "notes/daily.idm" {
		t.Errorf("results = %+v", resp.Results)
	}
}

func TestSearchMissingQuery(t *testing.T) {
	_, router := testEnv(t, "")

	w := get(t, router, "/search")
	if w.Code != http.StatusBadRequest {
		t.Errorf("search no query = %d, want 400", w.Code)
	}
}

func TestTagsEndpoint(t *testing.T) {
	_, router := testEnv(t, "")

	w := get(t, router, "/tags")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp TagsResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Tags) != 2 || resp.Tags[0].Tag != "lang" || resp.Tags[0].Count != 2 {
		t.Errorf("tags = %+v", resp.Tags)
	}
}

func TestFilesEndpoint(t *testing.T) {
	_, router := testEnv(t, "")

	w := get(t, router, "/files")
	var resp FilesResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Files) != 2 || resp.Files[1].Path != "notes/daily.idm" {
		t.Errorf("files = %+v", resp.Files)
	}
}

func TestFindURIEndpoint(t *testing.T) {
	_, router := testEnv(t, "")

	w := get(t, router, "/uri?u=https://golang.org")
	var resp SectionsResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Sections) != 1 || resp.Sections[0].Headline != "Go" {
		t.Errorf("sections = %+v", resp.Sections)
	}

	if w := get(t, router, "/uri"); w.Code != http.StatusBadRequest {
		t.Errorf("uri without u = %d, want 400", w.Code)
	}
}

func TestReindexEndpoint(t *testing.T) {
	svc, router := testEnv(t, "")
	if err := os.WriteFile(filepath.Join(svc.Root(), "new.idm"), []byte("fresh\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodPost, "/reindex", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp ReindexResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Created) != 1 || resp.Created[0] != "new.idm" || len(resp.Deleted) != 0 {
		t.Errorf("reindex = %+v", resp)
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	_, router := testEnv(t, "secret123")

	req := httptest.NewRequest(http.MethodGet, "/tags", nil)
	req.Header.Set("Authorization", "Bearer secret123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("authed tags = %d, want 200", w.Code)
	}
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	_, router := testEnv(t, "secret123")

	w := get(t, router, "/tags")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("unauthed = %d, want 401", w.Code)
	}
	if w.Header().Get("WWW-Authenticate") == "" {
		t.Error("missing WWW-Authenticate header")
	}
}

func TestAuthMiddleware_WrongToken(t *testing.T) {
	_, router := testEnv(t, "secret123")

	req := httptest.NewRequest(http.MethodGet, "/tags", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_Disabled(t *testing.T) {
	_, router := testEnv(t, "")

	w := get(t, router, "/tags")
	if w.Code != http.StatusOK {
		t.Errorf("no auth = %d, want 200", w.Code)
	}
}

// SSE endpoint auth tests.

// blockingSSE writes headers and blocks until the request context is done.
var blockingSSE = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.WriteHeader(http.StatusOK)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	<-r.Context().Done()
})

func TestSSEEvents_AuthProtected(t *testing.T) {
	_, router := testEnvWithSSE(t, true, "secret", blockingSSE)

	// No token → 401.
	w := get(t, router, "/events")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("SSE no auth = %d, want 401", w.Code)
	}
}

func TestSSEEvents_AuthDisabled(t *testing.T) {
	_, router := testEnvWithSSE(t, false, "", blockingSSE)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code == http.StatusUnauthorized {
		t.Error("SSE should not require auth when disabled")
	}
}

func TestSSEEvents_ValidToken(t *testing.T) {
	_, router := testEnvWithSSE(t, true, "tok", blockingSSE)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer tok")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code == http.StatusUnauthorized {
		t.Error("SSE with valid token should not 401")
	}
}

func TestSSEEvents_NotMountedWithoutHandler(t *testing.T) {
	_, router := testEnv(t, "")

	w := get(t, router, "/events")
	if w.Code != http.StatusNotFound {
		t.Errorf("events without handler = %d, want 404", w.Code)
	}
}
