package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"newspipe/internal/domain"
	"newspipe/internal/ports"
)

// FS is the filesystem-backed stage artifact store. Every stage maps to one
// numbered directory under the data dir; an artifact is one file keyed by ID.
// Writes go through a temp file and rename so an interrupted run never leaves
// a half-written artifact behind.
type FS struct {
	root string
}

var _ ports.ArtifactStore = (*FS)(nil)

// New creates a store rooted at dataDir. Stage directories are created
// lazily on first write.
func New(dataDir string) *FS {
	return &FS{root: dataDir}
}

// Root returns the data directory the store lives under.
func (s *FS) Root() string {
	return s.root
}

// Dir returns the directory backing a stage.
func (s *FS) Dir(stage domain.Stage) string {
	return filepath.Join(s.root, string(stage))
}

// List returns the artifact IDs currently present for a stage, sorted.
// A stage whose directory does not exist yet lists as empty.
func (s *FS) List(stage domain.Stage) ([]string, error) {
	entries, err := os.ReadDir(s.Dir(stage))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list stage %s: %w", stage, err)
	}

	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ids = append(ids, e.Name())
	}
	sort.Strings(ids)
	return ids, nil
}

// Read returns one artifact's content.
func (s *FS) Read(stage domain.Stage, id string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.Dir(stage), id))
	if err != nil {
		return nil, fmt.Errorf("read artifact %s/%s: %w", stage, id, err)
	}
	return data, nil
}

// Write stores one artifact atomically (temp file, then rename).
func (s *FS) Write(stage domain.Stage, id string, data []byte) error {
	dir := s.Dir(stage)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create stage dir %s: %w", stage, err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp artifact for %s/%s: %w", stage, id, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write artifact %s/%s: %w", stage, id, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close artifact %s/%s: %w", stage, id, err)
	}

	if err := os.Rename(tmpName, filepath.Join(dir, id)); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("commit artifact %s/%s: %w", stage, id, err)
	}
	return nil
}

// Exists reports whether an artifact has already been produced.
func (s *FS) Exists(stage domain.Stage, id string) bool {
	info, err := os.Stat(filepath.Join(s.Dir(stage), id))
	return err == nil && !info.IsDir()
}

// Remove deletes one artifact. Missing artifacts are not an error.
func (s *FS) Remove(stage domain.Stage, id string) error {
	err := os.Remove(filepath.Join(s.Dir(stage), id))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove artifact %s/%s: %w", stage, id, err)
	}
	return nil
}

// Clean deletes one stage's directory and everything in it.
func (s *FS) Clean(stage domain.Stage) error {
	if err := os.RemoveAll(s.Dir(stage)); err != nil {
		return fmt.Errorf("clean stage %s: %w", stage, err)
	}
	return nil
}

// CleanAll deletes the whole data directory. Destructive and irreversible.
func (s *FS) CleanAll() error {
	if err := os.RemoveAll(s.root); err != nil {
		return fmt.Errorf("clean data dir %s: %w", s.root, err)
	}
	return nil
}
