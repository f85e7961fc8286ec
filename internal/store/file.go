package store

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/Cocadite/api-pe-na-porta/internal/models"
)

// FileStore keeps the document as indented JSON in a single file.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Path() string { return s.path }

// Load reads the document, creating the file and its directory on first use.
func (s *FileStore) Load() (*models.Document, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		doc := models.NewDocument()
		if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
			return nil, errors.Wrapf(err, "create directory for %s", s.path)
		}
		if err := s.Save(doc); err != nil {
			return nil, err
		}
		return doc, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", s.path)
	}

	var doc models.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrapf(ErrCorrupt, "%s: %v", s.path, err)
	}
	return &doc, nil
}

// Save replaces the file atomically: the document is written to a temp file
// in the same directory and renamed over the target.
func (s *FileStore) Save(doc *models.Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal document")
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return errors.Wrapf(err, "create temp file in %s", dir)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "write %s", tmpName)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "sync %s", tmpName)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "close %s", tmpName)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return errors.Wrapf(err, "chmod %s", tmpName)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return errors.Wrapf(err, "replace %s", s.path)
	}
	return nil
}
