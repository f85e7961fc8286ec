package store

import (
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/Cocadite/api-pe-na-porta/internal/db"
	"github.com/Cocadite/api-pe-na-porta/internal/models"
)

const (
	DefaultCollection = "_formqueue_state"
	documentKey       = "document"
)

// OxiDBStore keeps the document as a single record in an OxiDB collection.
type OxiDBStore struct {
	pool       *db.Pool
	collection string
}

func NewOxiDBStore(pool *db.Pool, collection string) *OxiDBStore {
	if collection == "" {
		collection = DefaultCollection
	}
	return &OxiDBStore{pool: pool, collection: collection}
}

// EnsureIndexes makes the document key unique so concurrent first loads
// cannot create two state records.
func (s *OxiDBStore) EnsureIndexes() error {
	c, err := s.pool.Get()
	if err != nil {
		return err
	}
	return c.CreateUniqueIndex(s.collection, "key")
}

type record struct {
	Key         string          `json:"key"`
	Submissions json.RawMessage `json:"submissions"`
	Logs        json.RawMessage `json:"logs"`
}

func (s *OxiDBStore) Load() (*models.Document, error) {
	c, err := s.pool.Get()
	if err != nil {
		return nil, errors.Wrap(err, "load document")
	}
	var rec record
	found, err := c.FindOne(s.collection, map[string]any{"key": documentKey}, &rec)
	if err != nil {
		if found {
			return nil, errors.Wrapf(ErrCorrupt, "%s: %v", s.collection, err)
		}
		return nil, errors.Wrap(err, "load document")
	}

	if !found {
		doc := models.NewDocument()
		if _, err := c.Insert(s.collection, map[string]any{
			"key":         documentKey,
			"submissions": doc.Submissions,
			"logs":        doc.Logs,
		}); err != nil {
			return nil, errors.Wrap(err, "initialize document")
		}
		return doc, nil
	}

	raw, err := json.Marshal(map[string]json.RawMessage{
		"submissions": nonNull(rec.Submissions),
		"logs":        nonNull(rec.Logs),
	})
	if err != nil {
		return nil, errors.Wrap(err, "reassemble document")
	}
	var doc models.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, errors.Wrapf(ErrCorrupt, "%s: %v", s.collection, err)
	}
	return &doc, nil
}

func (s *OxiDBStore) Save(doc *models.Document) error {
	subs, err := json.Marshal(doc.Submissions)
	if err != nil {
		return errors.Wrap(err, "marshal submissions")
	}
	logs, err := json.Marshal(doc.Logs)
	if err != nil {
		return errors.Wrap(err, "marshal logs")
	}
	c, err := s.pool.Get()
	if err != nil {
		return errors.Wrap(err, "save document")
	}
	modified, err := c.UpdateOne(s.collection,
		map[string]any{"key": documentKey},
		map[string]any{"$set": map[string]any{
			"submissions": json.RawMessage(subs),
			"logs":        json.RawMessage(logs),
		}},
	)
	if err != nil {
		return errors.Wrap(err, "save document")
	}
	if modified > 0 {
		return nil
	}

	// Nothing modified: either the record is identical or it is gone.
	var rec record
	found, err := c.FindOne(s.collection, map[string]any{"key": documentKey}, &rec)
	if err != nil && !found {
		return errors.Wrap(err, "save document")
	}
	if found {
		return nil
	}
	if _, err := c.Insert(s.collection, map[string]any{
		"key":         documentKey,
		"submissions": json.RawMessage(subs),
		"logs":        json.RawMessage(logs),
	}); err != nil {
		return errors.Wrap(err, "recreate document")
	}
	return nil
}

func nonNull(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return json.RawMessage("null")
	}
	return raw
}
