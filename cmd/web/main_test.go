package main

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDashboardHandler_Fallback(t *testing.T) {
	handler := dashboardHandler(filepath.Join(t.TempDir(), "missing"))

	rr := httptest.NewRecorder()
	handler(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("expected HTML content type, got %q", ct)
	}
	if !strings.Contains(rr.Body.String(), "Sales Dashboard") {
		t.Error("fallback page should render the built-in dashboard")
	}
}

func TestDashboardHandler_StaticIndex(t *testing.T) {
	dir := t.TempDir()
	index := "<html><body>frontend build</body></html>"
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte(index), 0o644); err != nil {
		t.Fatal(err)
	}

	handler := dashboardHandler(dir)

	rr := httptest.NewRecorder()
	handler(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "frontend build") {
		t.Error("index.html should win over the built-in page when present")
	}
}
