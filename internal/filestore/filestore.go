package filestore

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
)

// Store keeps uploaded statement files on local disk, one directory per user.
type Store struct {
	basePath string
}

// SavedFile describes a file written by Save. Name is relative to the store root.
type SavedFile struct {
	Name string
	Size int64
}

// New creates a new file store with the given base path
func New(basePath string) (*Store, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("create filestore directory: %w", err)
	}
	return &Store{basePath: basePath}, nil
}

// Save copies r into a new uniquely named file under the user's directory,
// keeping the original extension.
func (s *Store) Save(userID int64, filename string, r io.Reader) (SavedFile, error) {
	userDir := strconv.FormatInt(userID, 10)
	if err := os.MkdirAll(filepath.Join(s.basePath, userDir), 0755); err != nil {
		return SavedFile{}, fmt.Errorf("create user directory: %w", err)
	}

	name := filepath.Join(userDir, uuid.NewString()+filepath.Ext(filename))
	fullPath := filepath.Join(s.basePath, name)

	f, err := os.Create(fullPath)
	if err != nil {
		return SavedFile{}, fmt.Errorf("create file: %w", err)
	}
	defer f.Close()

	n, err := io.Copy(f, r)
	if err != nil {
		os.Remove(fullPath) // Clean up on error
		return SavedFile{}, fmt.Errorf("write file: %w", err)
	}

	return SavedFile{Name: name, Size: n}, nil
}

// Delete removes a stored file. Missing files are not an error.
func (s *Store) Delete(name string) error {
	if name == "" {
		return nil
	}
	if err := os.Remove(s.FullPath(name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete file: %w", err)
	}
	return nil
}

// FullPath returns the full filesystem path for a stored name
func (s *Store) FullPath(name string) string {
	// Clean against a rooted path so ".." cannot climb out of the store
	return filepath.Join(s.basePath, filepath.Clean("/"+name))
}
