package web

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/notactuallytreyanastasio/browser-mcp/dbopen"
	"github.com/notactuallytreyanastasio/browser-mcp/linkstore"
)

func testServer(t *testing.T) (*Server, *linkstore.Store) {
	t.Helper()
	db := dbopen.OpenMemory(t, dbopen.WithSchema(linkstore.Schema))
	store := linkstore.NewStore(db)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewServer("127.0.0.1:0", store, t.TempDir(), logger), store
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	srv, _ := testServer(t)
	rec := get(t, srv.Routes(), "/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

// WHAT: /api/links honors filter query params.
func TestLinks(t *testing.T) {
	srv, store := testServer(t)
	ctx := context.Background()

	id, err := store.UpsertLink(ctx, &linkstore.Link{URL: "https://a.example/1", Title: "Tagged story"})
	if err != nil {
		t.Fatalf("UpsertLink: %v", err)
	}
	if _, err := store.UpsertLink(ctx, &linkstore.Link{URL: "https://a.example/2", Title: "Plain story"}); err != nil {
		t.Fatalf("UpsertLink: %v", err)
	}
	if err := store.Tag(ctx, id, "go"); err != nil {
		t.Fatalf("Tag: %v", err)
	}

	rec := get(t, srv.Routes(), "/api/links?tag=go")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var links []*linkstore.Link
	if err := json.Unmarshal(rec.Body.Bytes(), &links); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got, want := len(links), 1; got != want {
		t.Fatalf("links = %d, want %d", got, want)
	}
	if got, want := links[0].Title, "Tagged story"; got != want {
		t.Errorf("title = %q, want %q", got, want)
	}
}

// WHAT: /api/query maps recognized phrases and rejects unknown ones with
// a 400 naming the supported shapes.
func TestQuery(t *testing.T) {
	srv, store := testServer(t)
	ctx := context.Background()

	if _, err := store.UpsertLink(ctx, &linkstore.Link{URL: "https://a.example/1", Title: "Story"}); err != nil {
		t.Fatalf("UpsertLink: %v", err)
	}

	rec := get(t, srv.Routes(), "/api/query?q=unread+links")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var links []*linkstore.Link
	if err := json.Unmarshal(rec.Body.Bytes(), &links); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got, want := len(links), 1; got != want {
		t.Errorf("links = %d, want %d", got, want)
	}

	rec = get(t, srv.Routes(), "/api/query?q=gibberish+nonsense")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestReportsStatic(t *testing.T) {
	srv, _ := testServer(t)
	path := filepath.Join(srv.reportsDir, "bag-of-links.html")
	if err := os.WriteFile(path, []byte("<html>report</html>"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	rec := get(t, srv.Routes(), "/reports/bag-of-links.html")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Body.String(); got != "<html>report</html>" {
		t.Errorf("body = %q", got)
	}
}

func TestStats(t *testing.T) {
	srv, store := testServer(t)
	if _, err := store.UpsertLink(context.Background(), &linkstore.Link{URL: "https://a.example/1"}); err != nil {
		t.Fatalf("UpsertLink: %v", err)
	}

	rec := get(t, srv.Routes(), "/api/stats")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var stats linkstore.Stats
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got, want := stats.Links, 1; got != want {
		t.Errorf("links = %d, want %d", got, want)
	}
}
