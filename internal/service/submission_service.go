package service

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/Cocadite/api-pe-na-porta/internal/metrics"
	"github.com/Cocadite/api-pe-na-porta/internal/models"
	"github.com/Cocadite/api-pe-na-porta/internal/store"
)

var ErrNotFound = errors.New("submission not found")

// SubmissionService runs the submission lifecycle:
//
//	pending --approve--> approved --markDone--> approved(done)
//	pending --reject---> rejected
//
// Every operation loads the document, mutates it and saves it in full. The
// mutex serializes those cycles within this process; it does not protect
// against other processes writing the same store.
type SubmissionService struct {
	store store.Store
	log   logrus.FieldLogger
	now   func() time.Time
	newID func() string

	mu sync.Mutex
}

type Option func(*SubmissionService)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *SubmissionService) { s.now = now }
}

// WithIDGenerator overrides the UUIDv7 id source.
func WithIDGenerator(gen func() string) Option {
	return func(s *SubmissionService) { s.newID = gen }
}

func NewSubmissionService(st store.Store, log logrus.FieldLogger, opts ...Option) *SubmissionService {
	s := &SubmissionService{
		store: st,
		log:   log,
		now:   time.Now,
		newID: newUUIDv7,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func newUUIDv7() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Submit stores a new pending submission built from the caller's fields.
// Fields named like core attributes (id, status, done, createdAt, updatedAt)
// are dropped.
func (s *SubmissionService) Submit(fields map[string]json.RawMessage) (*models.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.store.Load()
	if err != nil {
		return nil, err
	}

	now := s.now().UnixMilli()
	sub := models.Submission{
		ID:        s.newID(),
		Status:    models.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	var dropped []string
	for k, v := range fields {
		if models.IsReserved(k) {
			dropped = append(dropped, k)
			continue
		}
		if sub.Extra == nil {
			sub.Extra = make(map[string]json.RawMessage, len(fields))
		}
		sub.Extra[k] = v
	}

	doc.Submissions = append(doc.Submissions, sub)
	doc.Logs = append(doc.Logs, models.LogEntry{Type: models.EventSubmit, ID: sub.ID, Time: now})
	if err := s.store.Save(doc); err != nil {
		return nil, err
	}

	entry := s.log.WithField("id", sub.ID)
	if len(dropped) > 0 {
		entry = entry.WithField("dropped", dropped)
	}
	entry.Info("submission received")
	metrics.LifecycleEvents.WithLabelValues(string(models.EventSubmit)).Inc()
	return &sub, nil
}

// List returns every submission in arrival order.
func (s *SubmissionService) List() ([]models.Submission, error) {
	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	return doc.Submissions, nil
}

// ListApprovedPending returns approved submissions not yet marked done.
func (s *SubmissionService) ListApprovedPending() ([]models.Submission, error) {
	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	out := make([]models.Submission, 0, len(doc.Submissions))
	for _, sub := range doc.Submissions {
		if sub.ApprovedPending() {
			out = append(out, sub)
		}
	}
	return out, nil
}

// Logs returns the event log in append order.
func (s *SubmissionService) Logs() ([]models.LogEntry, error) {
	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	return doc.Logs, nil
}

// Approve sets status approved. Re-approving a rejected or done submission
// is allowed.
func (s *SubmissionService) Approve(id string) error {
	return s.transition(id, models.EventApprove, func(sub *models.Submission) {
		sub.Status = models.StatusApproved
	})
}

func (s *SubmissionService) Reject(id string) error {
	return s.transition(id, models.EventReject, func(sub *models.Submission) {
		sub.Status = models.StatusRejected
	})
}

// MarkDone flags a submission as handled. It does not check the status and
// logs a new done event on every call.
func (s *SubmissionService) MarkDone(id string) error {
	return s.transition(id, models.EventDone, func(sub *models.Submission) {
		sub.Done = true
	})
}

func (s *SubmissionService) transition(id string, event models.EventType, apply func(*models.Submission)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.store.Load()
	if err != nil {
		return err
	}
	sub := doc.Find(id)
	if sub == nil {
		return errors.Wrapf(ErrNotFound, "%s %q", event, id)
	}

	ts := s.now().UnixMilli()
	if ts <= sub.UpdatedAt {
		ts = sub.UpdatedAt + 1
	}
	apply(sub)
	sub.UpdatedAt = ts
	doc.Logs = append(doc.Logs, models.LogEntry{Type: event, ID: id, Time: ts})

	if err := s.store.Save(doc); err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{"id": id, "event": event}).Info("submission updated")
	metrics.LifecycleEvents.WithLabelValues(string(event)).Inc()
	return nil
}

type Stats struct {
	Total           int `json:"total"`
	Pending         int `json:"pending"`
	Approved        int `json:"approved"`
	Rejected        int `json:"rejected"`
	Done            int `json:"done"`
	ApprovedPending int `json:"approvedPending"`
	Logs            int `json:"logs"`
}

func (s *SubmissionService) Stats() (Stats, error) {
	doc, err := s.load()
	if err != nil {
		return Stats{}, err
	}
	st := Stats{Total: len(doc.Submissions), Logs: len(doc.Logs)}
	for _, sub := range doc.Submissions {
		switch sub.Status {
		case models.StatusPending:
			st.Pending++
		case models.StatusApproved:
			st.Approved++
		case models.StatusRejected:
			st.Rejected++
		}
		if sub.Done {
			st.Done++
		}
		if sub.ApprovedPending() {
			st.ApprovedPending++
		}
	}
	return st, nil
}

func (s *SubmissionService) load() (*models.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Load()
}
