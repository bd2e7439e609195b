package layoutkit

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "data", "pages.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNewStore(t *testing.T) {
	s := setupTestStore(t)
	if s.db == nil {
		t.Fatal("db should not be nil")
	}
}

func TestSaveAndGetPage(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	page := FlatPage{
		URL:       "/about/",
		Title:     "About",
		Content:   "# About\n\nThis is test content.",
		Template:  "page.html",
		Published: true,
	}
	if err := s.SavePage(ctx, page); err != nil {
		t.Fatalf("SavePage failed: %v", err)
	}

	got, err := s.GetPage(ctx, "/about/")
	if err != nil {
		t.Fatalf("GetPage failed: %v", err)
	}
	if got.Title != page.Title {
		t.Errorf("Title = %q, want %q", got.Title, page.Title)
	}
	if got.Content != page.Content {
		t.Errorf("Content = %q, want %q", got.Content, page.Content)
	}
	if got.Template != page.Template {
		t.Errorf("Template = %q, want %q", got.Template, page.Template)
	}
	if !got.Published {
		t.Error("Published should be true")
	}
	if got.Updated.IsZero() {
		t.Error("Updated should be set")
	}
}

func TestGetPageNotFound(t *testing.T) {
	s := setupTestStore(t)
	_, err := s.GetPage(context.Background(), "/missing/")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUnpublishedPage(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	if err := s.SavePage(ctx, FlatPage{URL: "/draft/", Title: "Draft", Template: "page.html"}); err != nil {
		t.Fatalf("SavePage failed: %v", err)
	}

	if _, err := s.GetPage(ctx, "/draft/"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetPage should not return a draft, got %v", err)
	}
	if _, err := s.GetPageAny(ctx, "/draft/"); err != nil {
		t.Errorf("GetPageAny should return a draft: %v", err)
	}

	published, err := s.ListPages(ctx)
	if err != nil {
		t.Fatalf("ListPages failed: %v", err)
	}
	if len(published) != 0 {
		t.Errorf("ListPages returned %d pages, want 0", len(published))
	}
	all, err := s.ListAllPages(ctx)
	if err != nil {
		t.Fatalf("ListAllPages failed: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("ListAllPages returned %d pages, want 1", len(all))
	}
}

func TestSavePageReplaces(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	for _, title := range []string{"First", "Second"} {
		if err := s.SavePage(ctx, FlatPage{URL: "/about/", Title: title, Template: "page.html", Published: true}); err != nil {
			t.Fatalf("SavePage failed: %v", err)
		}
	}
	pages, err := s.ListPages(ctx)
	if err != nil {
		t.Fatalf("ListPages failed: %v", err)
	}
	if len(pages) != 1 || pages[0].Title != "Second" {
		t.Fatalf("expected one page titled Second, got %+v", pages)
	}
}

func TestListPagesOrderedByURL(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	for _, url := range []string{"/zeta/", "/alpha/", "/mid/"} {
		if err := s.SavePage(ctx, FlatPage{URL: url, Title: url, Template: "page.html", Published: true}); err != nil {
			t.Fatalf("SavePage failed: %v", err)
		}
	}
	pages, err := s.ListPages(ctx)
	if err != nil {
		t.Fatalf("ListPages failed: %v", err)
	}
	want := []string{"/alpha/", "/mid/", "/zeta/"}
	for i, p := range pages {
		if p.URL != want[i] {
			t.Errorf("pages[%d].URL = %q, want %q", i, p.URL, want[i])
		}
	}
}

func TestDeletePage(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	if err := s.SavePage(ctx, FlatPage{URL: "/gone/", Title: "Gone", Template: "page.html", Published: true}); err != nil {
		t.Fatalf("SavePage failed: %v", err)
	}
	if err := s.DeletePage(ctx, "/gone/"); err != nil {
		t.Fatalf("DeletePage failed: %v", err)
	}
	if _, err := s.GetPageAny(ctx, "/gone/"); !errors.Is(err, ErrNotFound) {
		t.Errorf("page should be deleted, got %v", err)
	}
	if err := s.DeletePage(ctx, "/gone/"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete should return ErrNotFound, got %v", err)
	}
}

func TestStoreRecordsQueries(t *testing.T) {
	s := setupTestStore(t)
	ctx, log := WithQueryLog(context.Background())

	if err := s.SavePage(ctx, FlatPage{URL: "/a/", Title: "A", Template: "page.html", Published: true}); err != nil {
		t.Fatalf("SavePage failed: %v", err)
	}
	if _, err := s.ListPages(ctx); err != nil {
		t.Fatalf("ListPages failed: %v", err)
	}
	if _, err := s.GetPage(context.Background(), "/a/"); err != nil {
		t.Fatalf("GetPage failed: %v", err)
	}

	queries := log.Queries()
	if len(queries) != 2 {
		t.Fatalf("recorded %d queries, want 2: %+v", len(queries), queries)
	}
	if !strings.HasPrefix(queries[0].SQL, "INSERT OR REPLACE INTO pages") {
		t.Errorf("first query = %q", queries[0].SQL)
	}
	if !strings.HasPrefix(queries[1].SQL, "SELECT url, title") {
		t.Errorf("second query = %q", queries[1].SQL)
	}
	for _, q := range queries {
		if q.Time < 0 {
			t.Errorf("negative time for %q", q.SQL)
		}
	}
}
