package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"sales-dashboard/internal/errors"
	"sales-dashboard/internal/models"
	"sales-dashboard/internal/observability"
)

const backupTimeFormat = "20060102_150405"

// Store owns the active dataset. Readers take a whole-slice snapshot under
// the read lock; Replace is the only writer and swaps the slice atomically,
// so a request never observes a partial dataset.
type Store struct {
	mu       sync.RWMutex
	dataset  models.Dataset
	loadedAt time.Time

	// replaceMu serializes the validate-backup-swap sequence.
	replaceMu sync.Mutex

	csvPath string
	logger  *slog.Logger
}

func NewStore(csvPath string, logger *slog.Logger) *Store {
	return &Store{
		csvPath: csvPath,
		logger:  logger,
	}
}

// Path returns the active dataset file.
func (s *Store) Path() string {
	return s.csvPath
}

// Dir is where the active file, its backups and staged uploads live.
func (s *Store) Dir() string {
	return filepath.Dir(s.csvPath)
}

// Load reads the configured CSV file into memory. On failure the store keeps
// whatever dataset it had (empty at startup); callers decide whether that is
// fatal.
func (s *Store) Load(ctx context.Context) error {
	start := time.Now()

	ds, err := s.readFile(ctx, s.csvPath)
	if err != nil {
		observability.DatasetLoadsTotal.WithLabelValues("error").Inc()
		return err
	}

	s.swap(ds)
	observability.DatasetLoadsTotal.WithLabelValues("success").Inc()

	s.logger.Info("dataset loaded",
		"file", s.csvPath,
		"records", len(ds),
		"duration", time.Since(start),
	)
	return nil
}

// SetData installs a dataset directly. Test seam, mirrors a successful load.
func (s *Store) SetData(ds models.Dataset) {
	s.swap(ds)
}

// Snapshot returns the active dataset. The returned slice is never mutated
// after the swap, so it is safe to read without further locking.
func (s *Store) Snapshot() models.Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dataset
}

// Replace validates the staged upload at stagedPath, archives the active file
// under a timestamped backup name and swaps both the file and the in-memory
// dataset. The staged file is consumed: moved into place on success, removed
// on any failure. On failure the active dataset and file are untouched and no
// backup is written.
func (s *Store) Replace(ctx context.Context, stagedPath string) (int, string, error) {
	s.replaceMu.Lock()
	defer s.replaceMu.Unlock()

	ds, err := s.readFile(ctx, stagedPath)
	if err != nil {
		os.Remove(stagedPath)
		observability.UploadsTotal.WithLabelValues("rejected").Inc()
		return 0, "", err
	}

	var backupName string
	if _, err := os.Stat(s.csvPath); err == nil {
		backupName = fmt.Sprintf("backup_%s.csv", time.Now().Format(backupTimeFormat))
		if err := copyFile(s.csvPath, filepath.Join(s.Dir(), backupName)); err != nil {
			os.Remove(stagedPath)
			observability.UploadsTotal.WithLabelValues("error").Inc()
			return 0, "", errors.InternalWrap(err, "failed to back up active dataset")
		}
	}

	if err := os.Rename(stagedPath, s.csvPath); err != nil {
		os.Remove(stagedPath)
		observability.UploadsTotal.WithLabelValues("error").Inc()
		return 0, "", errors.InternalWrap(err, "failed to install uploaded dataset")
	}

	s.swap(ds)
	observability.UploadsTotal.WithLabelValues("success").Inc()

	s.logger.Info("dataset replaced",
		"records", len(ds),
		"backup_file", backupName,
	)
	return len(ds), backupName, nil
}

// Stats reports store internals for the admin endpoint.
func (s *Store) Stats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	regions := make(map[string]struct{})
	channels := make(map[string]struct{})
	for _, r := range s.dataset {
		regions[r.Region] = struct{}{}
		channels[r.SalesChannel] = struct{}{}
	}

	return map[string]any{
		"record_count": len(s.dataset),
		"loaded_at":    s.loadedAt,
		"csv_file":     s.csvPath,
		"regions":      len(regions),
		"channels":     len(channels),
	}
}

func (s *Store) readFile(ctx context.Context, path string) (models.Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.LoadWrap(err, "failed to open dataset file")
	}
	defer file.Close()

	return readDataset(ctx, file)
}

func (s *Store) swap(ds models.Dataset) {
	s.mu.Lock()
	s.dataset = ds
	s.loadedAt = time.Now()
	s.mu.Unlock()

	observability.DatasetRecords.Set(float64(len(ds)))
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	return out.Close()
}
