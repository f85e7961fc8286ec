package store

import (
	"sync"

	"github.com/Cocadite/api-pe-na-porta/internal/models"
)

// MemoryStore keeps the document in process. Load and Save copy, so callers
// never share state with the store.
type MemoryStore struct {
	mu  sync.Mutex
	doc *models.Document
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{doc: models.NewDocument()}
}

func (s *MemoryStore) Load() (*models.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Clone(), nil
}

func (s *MemoryStore) Save(doc *models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = doc.Clone()
	return nil
}
