package store

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/inodb/itree/internal/itree"
)

// Snapshot manages a gob-serialized copy of a parsed interval file:
//
//	{dir}/{name}.gob       (intervals in file order)
//	{dir}/{name}.gob.meta  (source file fingerprint)
type Snapshot struct {
	dir  string
	name string
}

// NewSnapshot creates a snapshot handle in dir.
func NewSnapshot(dir, name string) *Snapshot {
	return &Snapshot{dir: dir, name: name}
}

func (s *Snapshot) gobPath() string {
	return filepath.Join(s.dir, s.name+".gob")
}

func (s *Snapshot) metaPath() string {
	return filepath.Join(s.dir, s.name+".gob.meta")
}

// Valid checks whether the snapshot matches the current source file.
func (s *Snapshot) Valid(src FileFingerprint) bool {
	meta, err := s.readMeta()
	if err != nil {
		return false
	}

	checks := []struct{ key, val string }{
		{"source_size", strconv.FormatInt(src.Size, 10)},
		{"source_modtime", src.ModTime.UTC().Format(time.RFC3339Nano)},
		{"source_xxhash", strconv.FormatUint(src.Digest, 16)},
	}

	for _, c := range checks {
		if meta[c.key] != c.val {
			return false
		}
	}

	if _, err := os.Stat(s.gobPath()); err != nil {
		return false
	}
	return true
}

// Load reads the snapshotted intervals in file order.
func (s *Snapshot) Load() ([]itree.Item[string], error) {
	f, err := os.Open(s.gobPath())
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()

	var items []itree.Item[string]
	if err := gob.NewDecoder(f).Decode(&items); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return items, nil
}

// Write serializes items to disk and records the source fingerprint.
func (s *Snapshot) Write(items []itree.Item[string], src FileFingerprint) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("create snapshot directory: %w", err)
	}

	f, err := os.Create(s.gobPath())
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}

	if err := gob.NewEncoder(f).Encode(items); err != nil {
		f.Close()
		os.Remove(s.gobPath())
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close snapshot: %w", err)
	}

	return s.writeMeta(src)
}

// Clear removes the snapshot files.
func (s *Snapshot) Clear() {
	os.Remove(s.gobPath())
	os.Remove(s.metaPath())
}

func (s *Snapshot) writeMeta(src FileFingerprint) error {
	lines := []string{
		"source_path=" + src.Path,
		"source_size=" + strconv.FormatInt(src.Size, 10),
		"source_modtime=" + src.ModTime.UTC().Format(time.RFC3339Nano),
		"source_xxhash=" + strconv.FormatUint(src.Digest, 16),
		"created_at=" + time.Now().UTC().Format(time.RFC3339),
		"",
	}
	return os.WriteFile(s.metaPath(), []byte(strings.Join(lines, "\n")), 0644)
}

func (s *Snapshot) readMeta() (map[string]string, error) {
	data, err := os.ReadFile(s.metaPath())
	if err != nil {
		return nil, err
	}

	meta := make(map[string]string)
	for _, line := range strings.Split(string(data), "\n") {
		if k, v, ok := strings.Cut(line, "="); ok {
			meta[k] = v
		}
	}
	return meta, nil
}
