// Package storage persists binary attachments (reports, prescriptions,
// chat attachments, profile photos) under the path convention
// {category}/{ownerID}/{sanitizedFileName}. Binaries are written first;
// only afterwards is their URL registered on the owning record, so a
// partial failure leaves an orphaned blob, never a dangling reference.
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// BlobStore writes and removes binary attachments.
type BlobStore interface {
	// Save durably stores the blob and returns its retrieval URL and
	// storage path. The storage path is the handle for later removal.
	Save(category, ownerID, fileName string, r io.Reader) (url string, storagePath string, err error)
	// Remove deletes a single blob by its storage path.
	Remove(storagePath string) error
}

// DiskStore is a BlobStore backed by the local filesystem, served
// statically under baseURL.
type DiskStore struct {
	root    string
	baseURL string
}

// NewDiskStore creates the root directory if needed.
func NewDiskStore(root, baseURL string) (*DiskStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create upload root: %w", err)
	}
	return &DiskStore{root: root, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (s *DiskStore) Save(category, ownerID, fileName string, r io.Reader) (string, string, error) {
	name := SanitizeFileName(fileName)
	if name == "" {
		return "", "", fmt.Errorf("empty file name")
	}
	rel := filepath.Join(sanitizeSegment(category), sanitizeSegment(ownerID), name)
	abs := filepath.Join(s.root, rel)

	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return "", "", fmt.Errorf("create blob directory: %w", err)
	}

	f, err := os.Create(abs)
	if err != nil {
		return "", "", fmt.Errorf("create blob: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(abs)
		return "", "", fmt.Errorf("write blob: %w", err)
	}

	url := s.baseURL + "/" + filepath.ToSlash(rel)
	return url, rel, nil
}

func (s *DiskStore) Remove(storagePath string) error {
	clean := filepath.Clean(storagePath)
	if strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return fmt.Errorf("invalid storage path %q", storagePath)
	}
	return os.Remove(filepath.Join(s.root, clean))
}

// SanitizeFileName strips directory components and characters that are
// unsafe in a path segment.
func SanitizeFileName(name string) string {
	name = filepath.Base(name)
	if name == "." || name == string(filepath.Separator) {
		return ""
	}
	return sanitizeSegment(name)
}

func sanitizeSegment(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return strings.Trim(b.String(), ".")
}
