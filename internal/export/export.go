package export

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Lumos-Labs-HQ/seedsmith/internal/schema"
	"github.com/Lumos-Labs-HQ/seedsmith/internal/seeder"
)

// MetadataFile sits next to the generated files of each schema.
const MetadataFile = "_metadata.json"

type Metadata struct {
	SchemaName    string         `json:"schema_name"`
	SchemaVersion string         `json:"schema_version"`
	SchemaHash    string         `json:"schema_hash"`
	GeneratedAt   time.Time      `json:"generated_at"`
	SeedUsed      int64          `json:"seed_used"`
	TotalRecords  int            `json:"total_records"`
	EntityCounts  map[string]int `json:"entity_counts"`
	Formats       []string       `json:"formats"`
	Files         []string       `json:"files"`
	DurationMS    int64          `json:"duration_ms"`
}

// Result describes one schema's export.
type Result struct {
	Schema  string
	Dir     string
	Files   []string
	Skipped bool
}

type Manager struct {
	outputDir string
	force     bool
	log       *slog.Logger
}

// NewManager writes under outputDir. With force set, existing output is
// rewritten even when it is up to date.
func NewManager(outputDir string, force bool, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Manager{outputDir: outputDir, force: force, log: logger}
}

// Dir is where a schema's files go: the schema's output path, resolved
// against the manager's output directory unless it is absolute.
func (m *Manager) Dir(s *schema.SystemSchema) string {
	path := s.Output.Path
	if path == "" || path == schema.DefaultOutputPath {
		return filepath.Join(m.outputDir, s.Name)
	}
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(m.outputDir, path)
}

func (m *Manager) ExportAll(ctx context.Context, systems []*seeder.GeneratedSystem) ([]*Result, error) {
	results := make([]*Result, 0, len(systems))
	for _, sys := range systems {
		res, err := m.Export(ctx, sys)
		if err != nil {
			return results, fmt.Errorf("export %s: %w", sys.Schema.Name, err)
		}
		results = append(results, res)
	}
	return results, nil
}

// Export writes every format in sys.Metadata.Formats concurrently, then the
// metadata file. Output whose recorded hash, seed and formats match and whose
// files all exist is left alone.
func (m *Manager) Export(ctx context.Context, sys *seeder.GeneratedSystem) (*Result, error) {
	dir := m.Dir(sys.Schema)
	hash, err := SchemaHash(sys.Schema)
	if err != nil {
		return nil, err
	}

	writers := make([]Writer, 0, len(sys.Metadata.Formats))
	for _, f := range sys.Metadata.Formats {
		if slices.ContainsFunc(writers, func(w Writer) bool { return w.Format() == f }) {
			continue
		}
		w, err := NewWriter(f)
		if err != nil {
			return nil, err
		}
		writers = append(writers, w)
	}

	if !m.force {
		if prev, ok := m.upToDate(dir, hash, sys); ok {
			m.log.Info("output up to date, skipping", "schema", sys.Schema.Name, "dir", dir)
			return &Result{Schema: sys.Schema.Name, Dir: dir, Files: prev.Files, Skipped: true}, nil
		}
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	var (
		mu    sync.Mutex
		files []string
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, w := range writers {
		g.Go(func() error {
			written, err := w.Write(gctx, dir, sys)
			if err != nil {
				return fmt.Errorf("%s: %w", w.Format(), err)
			}
			mu.Lock()
			files = append(files, written...)
			mu.Unlock()
			m.log.Debug("wrote format", "schema", sys.Schema.Name, "format", w.Format(), "files", len(written))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	slices.Sort(files)

	meta := Metadata{
		SchemaName:    sys.Schema.Name,
		SchemaVersion: sys.Schema.Version,
		SchemaHash:    hash,
		GeneratedAt:   sys.Metadata.GeneratedAt,
		SeedUsed:      sys.Metadata.SeedUsed,
		TotalRecords:  sys.Metadata.TotalRecords,
		EntityCounts:  sys.Metadata.EntityCounts,
		Formats:       sys.Metadata.Formats,
		Files:         files,
		DurationMS:    sys.Metadata.Duration.Milliseconds(),
	}
	if err := writeMetadata(filepath.Join(dir, MetadataFile), meta); err != nil {
		return nil, err
	}

	m.log.Info("exported schema", "schema", sys.Schema.Name, "dir", dir, "files", len(files))
	return &Result{Schema: sys.Schema.Name, Dir: dir, Files: files}, nil
}

func (m *Manager) upToDate(dir, hash string, sys *seeder.GeneratedSystem) (*Metadata, bool) {
	prev, err := ReadMetadata(dir)
	if err != nil {
		return nil, false
	}
	if prev.SchemaHash != hash || prev.SeedUsed != sys.Metadata.SeedUsed ||
		!slices.Equal(prev.Formats, sys.Metadata.Formats) {
		return nil, false
	}
	for _, f := range prev.Files {
		if _, err := os.Stat(filepath.Join(dir, f)); err != nil {
			return nil, false
		}
	}
	return prev, true
}

// ReadMetadata loads the metadata file from dir.
func ReadMetadata(dir string) (*Metadata, error) {
	data, err := os.ReadFile(filepath.Join(dir, MetadataFile))
	if err != nil {
		return nil, err
	}
	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("invalid metadata file: %w", err)
	}
	if meta.SchemaHash == "" {
		return nil, errors.New("metadata file has no schema hash")
	}
	return &meta, nil
}

func writeMetadata(path string, meta Metadata) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write metadata: %w", err)
	}
	return nil
}

// SchemaHash is the sha256 of the schema's canonical JSON form. Map keys are
// sorted by encoding/json, so equal schemas hash equally.
func SchemaHash(s *schema.SystemSchema) (string, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("failed to hash schema %s: %w", s.Name, err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
