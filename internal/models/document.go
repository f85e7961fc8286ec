package models

import "encoding/json"

// Document is the single persisted aggregate holding every submission and
// the append-only event log.
type Document struct {
	Submissions []Submission `json:"submissions"`
	Logs        []LogEntry   `json:"logs"`
}

// NewDocument returns an empty document with non-nil slices so it always
// serializes as {"submissions":[],"logs":[]}.
func NewDocument() *Document {
	return &Document{Submissions: []Submission{}, Logs: []LogEntry{}}
}

// UnmarshalJSON accepts documents written by older drafts that only carried
// "submissions".
func (d *Document) UnmarshalJSON(data []byte) error {
	type plain Document
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	if p.Submissions == nil {
		p.Submissions = []Submission{}
	}
	if p.Logs == nil {
		p.Logs = []LogEntry{}
	}
	*d = Document(p)
	return nil
}

// Find returns a pointer into Submissions for in-place mutation, or nil.
func (d *Document) Find(id string) *Submission {
	for i := range d.Submissions {
		if d.Submissions[i].ID == id {
			return &d.Submissions[i]
		}
	}
	return nil
}

// Clone deep-copies the document, including raw extra fields.
func (d *Document) Clone() *Document {
	out := &Document{
		Submissions: make([]Submission, len(d.Submissions)),
		Logs:        make([]LogEntry, len(d.Logs)),
	}
	for i, s := range d.Submissions {
		out.Submissions[i] = s.Clone()
	}
	copy(out.Logs, d.Logs)
	return out
}
