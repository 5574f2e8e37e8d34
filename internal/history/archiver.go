package history

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/gzip"

	"umbrella/internal/types"
)

// DefaultRetention is how long sent notifications stay queryable in the
// database before being rolled into archive files.
const DefaultRetention = 30 * 24 * time.Hour

// Archiver rolls entries past the retention window out of the database into
// gzip-compressed JSON files, one file per run.
type Archiver struct {
	recorder  *Recorder
	dir       string
	retention time.Duration
	clock     types.Clock
	logger    *slog.Logger
}

// ArchiverConfig holds the configuration for creating an Archiver.
type ArchiverConfig struct {
	Recorder  *Recorder
	Dir       string
	Retention time.Duration
	Clock     types.Clock
	Logger    *slog.Logger
}

// NewArchiver creates an Archiver with the given configuration.
func NewArchiver(cfg ArchiverConfig) *Archiver {
	retention := cfg.Retention
	if retention <= 0 {
		retention = DefaultRetention
	}
	clock := cfg.Clock
	if clock == nil {
		clock = types.RealClock{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Archiver{
		recorder:  cfg.Recorder,
		dir:       cfg.Dir,
		retention: retention,
		clock:     clock,
		logger:    logger,
	}
}

// Run archives and prunes entries older than the retention window. It
// returns the number of entries archived. The archive file is written and
// synced before the rows are deleted, so a crash between the two steps
// duplicates entries rather than losing them.
func (a *Archiver) Run(ctx context.Context) (int, error) {
	cutoff := a.clock.Now().Add(-a.retention)

	entries, err := a.recorder.olderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if len(entries) == 0 {
		return 0, nil
	}

	if err := os.MkdirAll(a.dir, 0o755); err != nil {
		return 0, fmt.Errorf("creating archive directory: %w", err)
	}

	name := fmt.Sprintf("notifications-%s.json.gz", a.clock.Now().UTC().Format("20060102T150405"))
	path := filepath.Join(a.dir, name)
	if err := writeArchive(path, entries); err != nil {
		return 0, err
	}

	deleted, err := a.recorder.deleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	a.logger.InfoContext(ctx, "notification history archived",
		"archived", len(entries),
		"deleted", deleted,
		"path", path,
	)
	return len(entries), nil
}

func writeArchive(path string, entries []Entry) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating archive file: %w", err)
	}
	defer f.Close()

	gz := gzip.NewWriter(f)
	if err := json.NewEncoder(gz).Encode(entries); err != nil {
		gz.Close()
		return fmt.Errorf("encoding archive: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("flushing archive: %w", err)
	}
	return f.Sync()
}

// ReadArchive loads an archive file back into entries. Used by tests and
// operator tooling.
func ReadArchive(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening archive file: %w", err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("opening archive stream: %w", err)
	}
	defer gz.Close()

	var entries []Entry
	if err := json.NewDecoder(gz).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decoding archive: %w", err)
	}
	return entries, nil
}
