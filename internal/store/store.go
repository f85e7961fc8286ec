// Package store persists the form document. Every backend stores the whole
// document as one unit: Load returns a fresh copy, Save replaces it entirely.
package store

import (
	"github.com/pkg/errors"

	"github.com/Cocadite/api-pe-na-porta/internal/models"
)

// ErrCorrupt is returned when persisted data exists but cannot be parsed.
// The persisted copy is left untouched.
var ErrCorrupt = errors.New("store: document is corrupt")

type Store interface {
	Load() (*models.Document, error)
	Save(doc *models.Document) error
}
