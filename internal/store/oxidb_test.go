package store

import (
	"errors"
	"testing"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cocadite/api-pe-na-porta/internal/db"
	"github.com/Cocadite/api-pe-na-porta/internal/models"
	"github.com/Cocadite/api-pe-na-porta/internal/oxidb/oxidbtest"
)

func newOxiDBStore(t *testing.T) (*OxiDBStore, *oxidbtest.Server) {
	t.Helper()
	srv := oxidbtest.NewServer(t)
	log, _ := logtest.NewNullLogger()
	pool, err := db.NewPool(srv.Addr(), 2, log)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return NewOxiDBStore(pool, ""), srv
}

func TestOxiDBStoreInitializesOnFirstLoad(t *testing.T) {
	s, srv := newOxiDBStore(t)
	require.NoError(t, s.EnsureIndexes())

	doc, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, doc.Submissions)

	docs := srv.Docs(DefaultCollection)
	require.Len(t, docs, 1)
	assert.Equal(t, "document", docs[0]["key"])

	_, err = s.Load()
	require.NoError(t, err)
	assert.Len(t, srv.Docs(DefaultCollection), 1)
}

func TestOxiDBStoreSaveThenLoad(t *testing.T) {
	s, _ := newOxiDBStore(t)

	doc, err := s.Load()
	require.NoError(t, err)
	doc.Submissions = append(doc.Submissions, models.Submission{ID: "s1", Status: models.StatusApproved, CreatedAt: 1, UpdatedAt: 3})
	doc.Logs = append(doc.Logs, models.LogEntry{Type: models.EventApprove, ID: "s1", Time: 3})
	require.NoError(t, s.Save(doc))

	got, err := s.Load()
	require.NoError(t, err)
	require.Len(t, got.Submissions, 1)
	assert.Equal(t, models.StatusApproved, got.Submissions[0].Status)
	assert.Equal(t, doc.Logs, got.Logs)
}

func TestOxiDBStoreServerError(t *testing.T) {
	s, srv := newOxiDBStore(t)

	srv.FailNext("disk full")
	_, err := s.Load()
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrCorrupt))
}

func TestOxiDBStoreCorruptRecord(t *testing.T) {
	s, _ := newOxiDBStore(t)

	c, err := s.pool.Get()
	require.NoError(t, err)
	_, err = c.Insert(DefaultCollection, map[string]any{
		"key":         "document",
		"submissions": "not-a-list",
	})
	require.NoError(t, err)

	_, err = s.Load()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCorrupt))
}

func TestOxiDBStoreSaveRecreatesMissingRecord(t *testing.T) {
	s, srv := newOxiDBStore(t)

	doc, err := s.Load()
	require.NoError(t, err)
	srv.Drop(DefaultCollection)

	doc.Submissions = append(doc.Submissions, models.Submission{ID: "s1", Status: models.StatusPending, CreatedAt: 1, UpdatedAt: 1})
	require.NoError(t, s.Save(doc))
	require.Len(t, srv.Docs(DefaultCollection), 1)

	got, err := s.Load()
	require.NoError(t, err)
	require.Len(t, got.Submissions, 1)
	assert.Equal(t, "s1", got.Submissions[0].ID)
}
