package handlers

import (
	"bytes"
	"context"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"sales-dashboard/internal/services"
)

const testMaxUploadBytes = 1 << 20

const activeCSV = `Sale_ID,Date,Units_Sold,Price_Per_Unit,Revenue,Region,Sales_Channel
1,2025-01-01,2,10.00,20.00,North,Online
2,2025-01-01,1,20.00,20.00,South,Retail
`

const uploadedCSV = `Sale_ID,Date,Units_Sold,Price_Per_Unit,Revenue,Region,Sales_Channel
10,2025-03-01,5,8.00,40.00,West,Online
11,2025-03-02,2,8.00,16.00,West,Retail
12,2025-03-03,1,9.00,9.00,East,Online
`

func newUploadStore(t *testing.T) *services.Store {
	t.Helper()

	path := filepath.Join(t.TempDir(), "sales.csv")
	if err := os.WriteFile(path, []byte(activeCSV), 0o644); err != nil {
		t.Fatal(err)
	}

	store := services.NewStore(path, slog.New(slog.DiscardHandler))
	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("initial load failed: %v", err)
	}
	return store
}

func multipartUpload(t *testing.T, filename, content string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fw.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func dirEntriesWithPrefix(t *testing.T, dir, prefix string) []string {
	t.Helper()

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}

	var names []string
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), prefix) {
			names = append(names, entry.Name())
		}
	}
	return names
}

func TestHandleUpload(t *testing.T) {
	store := newUploadStore(t)
	h := NewUploadHandlers(store, slog.New(slog.DiscardHandler), testMaxUploadBytes)

	rr := httptest.NewRecorder()
	h.HandleUpload(rr, multipartUpload(t, "new_sales.csv", uploadedCSV))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var body struct {
		Message    string `json:"message"`
		Records    int    `json:"records"`
		BackupFile string `json:"backup_file"`
	}
	decodeJSON(t, rr, &body)

	if body.Message != "File uploaded successfully" {
		t.Errorf("unexpected message %q", body.Message)
	}
	if body.Records != 3 {
		t.Errorf("expected 3 records, got %d", body.Records)
	}
	if !strings.HasPrefix(body.BackupFile, "backup_") || !strings.HasSuffix(body.BackupFile, ".csv") {
		t.Errorf("unexpected backup name %q", body.BackupFile)
	}

	ds := store.Snapshot()
	if len(ds) != 3 || ds[0].SaleID != 10 {
		t.Errorf("dataset not swapped to the uploaded file: %+v", ds)
	}

	backup, err := os.ReadFile(filepath.Join(store.Dir(), body.BackupFile))
	if err != nil {
		t.Fatalf("backup file missing: %v", err)
	}
	if string(backup) != activeCSV {
		t.Error("backup must hold the previous dataset")
	}

	if staged := dirEntriesWithPrefix(t, store.Dir(), "upload_"); len(staged) != 0 {
		t.Errorf("staged files left behind: %v", staged)
	}
}

func TestHandleUpload_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		content  string
		wantText string
	}{
		{
			name:     "wrong extension",
			filename: "sales.txt",
			content:  uploadedCSV,
			wantText: "invalid file type",
		},
		{
			name:     "missing required column",
			filename: "sales.csv",
			content: `Sale_ID,Date,Units_Sold,Price_Per_Unit,Revenue,Sales_Channel
1,2025-01-01,2,10.00,20.00,Online
`,
			wantText: "must contain columns",
		},
		{
			name:     "uncoercible row",
			filename: "sales.csv",
			content: `Sale_ID,Date,Units_Sold,Price_Per_Unit,Revenue,Region,Sales_Channel
1,2025-13-45,2,10.00,20.00,North,Online
`,
			wantText: "cannot be coerced",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newUploadStore(t)
			h := NewUploadHandlers(store, slog.New(slog.DiscardHandler), testMaxUploadBytes)

			rr := httptest.NewRecorder()
			h.HandleUpload(rr, multipartUpload(t, tt.filename, tt.content))

			if rr.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", rr.Code, rr.Body.String())
			}
			if msg := errorMessage(t, rr); !strings.Contains(msg, tt.wantText) {
				t.Errorf("expected error containing %q, got %q", tt.wantText, msg)
			}

			if len(store.Snapshot()) != 2 {
				t.Error("rejected upload must not change the active dataset")
			}
			if backups := dirEntriesWithPrefix(t, store.Dir(), "backup_"); len(backups) != 0 {
				t.Errorf("rejected upload must not create a backup, found %v", backups)
			}
			if staged := dirEntriesWithPrefix(t, store.Dir(), "upload_"); len(staged) != 0 {
				t.Errorf("staged files left behind: %v", staged)
			}
		})
	}
}

func TestHandleUpload_NoFileField(t *testing.T) {
	store := newUploadStore(t)
	h := NewUploadHandlers(store, slog.New(slog.DiscardHandler), testMaxUploadBytes)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("note", "no file here"); err != nil {
		t.Fatal(err)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	rr := httptest.NewRecorder()
	h.HandleUpload(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rr.Code, rr.Body.String())
	}
	if msg := errorMessage(t, rr); !strings.Contains(msg, "no file provided") {
		t.Errorf("unexpected error message %q", msg)
	}
}

func TestHandleUpload_NotMultipart(t *testing.T) {
	store := newUploadStore(t)
	h := NewUploadHandlers(store, slog.New(slog.DiscardHandler), testMaxUploadBytes)

	req := httptest.NewRequest(http.MethodPost, "/api/upload", strings.NewReader(uploadedCSV))
	req.Header.Set("Content-Type", "text/csv")

	rr := httptest.NewRecorder()
	h.HandleUpload(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestHandleUpload_TooLarge(t *testing.T) {
	store := newUploadStore(t)
	h := NewUploadHandlers(store, slog.New(slog.DiscardHandler), 128)

	rr := httptest.NewRecorder()
	h.HandleUpload(rr, multipartUpload(t, "sales.csv", uploadedCSV))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for an oversized upload, got %d", rr.Code)
	}
	if len(store.Snapshot()) != 2 {
		t.Error("oversized upload must not change the active dataset")
	}
}
