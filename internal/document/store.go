package document

import (
	"os"
	"path/filepath"
)

// FileStore keeps the latest document of each cédula on disk.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (s *FileStore) Save(doc *Document) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(s.dir, doc.Filename)
	if err := os.WriteFile(path, doc.Content, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// Path returns where the document of cedula lives, or os.ErrNotExist.
func (s *FileStore) Path(cedula string) (string, error) {
	path := filepath.Join(s.dir, FileName(cedula))
	if _, err := os.Stat(path); err != nil {
		return "", err
	}
	return path, nil
}
