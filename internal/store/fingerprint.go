package store

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/cespare/xxhash/v2"
)

// FileFingerprint holds stat-based identity for a file plus a content digest.
type FileFingerprint struct {
	Path    string
	Size    int64
	ModTime time.Time
	Digest  uint64
}

// StatFile creates a FileFingerprint from an on-disk file.
func StatFile(path string) (FileFingerprint, error) {
	f, err := os.Open(path)
	if err != nil {
		return FileFingerprint{}, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return FileFingerprint{}, err
	}

	h := xxhash.New()
	if _, err := io.Copy(h, f); err != nil {
		return FileFingerprint{}, fmt.Errorf("hash %s: %w", path, err)
	}

	return FileFingerprint{
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime(),
		Digest:  h.Sum64(),
	}, nil
}
