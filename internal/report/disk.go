package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// DiskStore writes each RunRecord as a JSON file in a lazily-created directory.
type DiskStore struct {
	mu      sync.Mutex
	dir     string
	created bool
}

// NewDiskStore creates a DiskStore rooted at dir. An empty dir uses a
// fresh temporary directory, created on the first Save.
func NewDiskStore(dir string) *DiskStore {
	return &DiskStore{dir: dir}
}

// Save writes a RunRecord as a JSON file to disk.
func (s *DiskStore) Save(record *RunRecord) error {
	dir, err := s.ensureDir()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling run %s: %w", record.ID, err)
	}
	path := filepath.Join(dir, record.ID+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing run %s: %w", record.ID, err)
	}
	return nil
}

// Load reads a RunRecord from disk.
func (s *DiskStore) Load(runID string) (*RunRecord, error) {
	if runID == "" || strings.ContainsAny(runID, `/\`) {
		return nil, fmt.Errorf("invalid run id %q", runID)
	}
	dir, ok := s.existingDir()
	if !ok {
		return nil, fmt.Errorf("run %s not found", runID)
	}
	return readRecord(filepath.Join(dir, runID+".json"))
}

// List reads every record in the directory and returns the newest first.
func (s *DiskStore) List(limit int) ([]*RunRecord, error) {
	dir, ok := s.existingDir()
	if !ok {
		return nil, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}

	var records []*RunRecord
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		r, err := readRecord(filepath.Join(dir, e.Name()))
		if err != nil {
			// Skip files that are not run records.
			continue
		}
		records = append(records, r)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].StartedAt.After(records[j].StartedAt)
	})
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

func readRecord(path string) (*RunRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("run %s not found", strings.TrimSuffix(filepath.Base(path), ".json"))
		}
		return nil, fmt.Errorf("reading run: %w", err)
	}
	var record RunRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("unmarshalling %s: %w", filepath.Base(path), err)
	}
	return &record, nil
}

// existingDir returns the run directory without creating it. Reads never
// create the directory.
func (s *DiskStore) existingDir() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dir == "" {
		return "", false
	}
	info, err := os.Stat(s.dir)
	if err != nil || !info.IsDir() {
		return "", false
	}
	return s.dir, true
}

func (s *DiskStore) ensureDir() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.created {
		return s.dir, nil
	}
	if s.dir == "" {
		dir, err := os.MkdirTemp("", "launcher-runs-*")
		if err != nil {
			return "", fmt.Errorf("creating run directory: %w", err)
		}
		s.dir = dir
	} else if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating run directory: %w", err)
	}
	s.created = true
	return s.dir, nil
}
