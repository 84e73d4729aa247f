package ledger

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"newspipe/internal/ports"
)

// entry is one appended ledger line.
type entry struct {
	Timestamp string `json:"timestamp"`
	ID        string `json:"id"`
}

// Ledger is the processed-ID set backed by an append-only JSON-lines file.
// The whole file is loaded into memory on Open; every mark appends one line
// and syncs. Duplicate lines are harmless since membership is by set.
type Ledger struct {
	path string
	file *os.File
	seen map[string]struct{}
}

var _ ports.Ledger = (*Ledger)(nil)

// Open loads the ledger file (creating it if absent) and keeps it open for
// appending. Lines that fail to parse are ignored.
func Open(path string) (*Ledger, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create ledger dir: %w", err)
		}
	}

	seen := make(map[string]struct{})
	if raw, err := os.Open(path); err == nil {
		scanner := bufio.NewScanner(raw)
		for scanner.Scan() {
			var e entry
			if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
				continue
			}
			if e.ID != "" {
				seen[e.ID] = struct{}{}
			}
		}
		if scanErr := scanner.Err(); scanErr != nil {
			_ = raw.Close()
			return nil, fmt.Errorf("read ledger %s: %w", path, scanErr)
		}
		if err := raw.Close(); err != nil {
			return nil, fmt.Errorf("close ledger %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("open ledger %s: %w", path, err)
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open ledger for append: %w", err)
	}

	return &Ledger{path: path, file: file, seen: seen}, nil
}

// IsProcessed reports set membership for an article ID.
func (l *Ledger) IsProcessed(id string) bool {
	_, ok := l.seen[id]
	return ok
}

// MarkProcessed appends the ID with a timestamp and flushes to disk.
func (l *Ledger) MarkProcessed(id string) error {
	if l.file == nil {
		return fmt.Errorf("ledger %s is closed", l.path)
	}

	line, err := json.Marshal(entry{
		Timestamp: time.Now().Format(time.RFC3339),
		ID:        id,
	})
	if err != nil {
		return fmt.Errorf("marshal ledger entry: %w", err)
	}

	if _, err := l.file.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("append ledger entry %s: %w", id, err)
	}
	if err := l.file.Sync(); err != nil {
		return fmt.Errorf("sync ledger: %w", err)
	}

	l.seen[id] = struct{}{}
	return nil
}

// Len returns the number of distinct processed IDs.
func (l *Ledger) Len() int {
	return len(l.seen)
}

// Close releases the append handle. Marks after Close fail.
func (l *Ledger) Close() error {
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	if err != nil {
		return fmt.Errorf("close ledger %s: %w", l.path, err)
	}
	return nil
}
