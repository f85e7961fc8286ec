package models

import (
	"encoding/json"
	"fmt"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Keys owned by the core record. Extra fields can never carry them.
var reservedKeys = map[string]bool{
	"id":        true,
	"status":    true,
	"done":      true,
	"createdAt": true,
	"updatedAt": true,
}

// IsReserved reports whether key belongs to the core submission record.
func IsReserved(key string) bool {
	return reservedKeys[key]
}

// Submission is a typed core record plus whatever the submitter sent.
// Extra members are kept as raw JSON and flattened back on output.
type Submission struct {
	ID        string
	Status    Status
	Done      bool
	CreatedAt int64
	UpdatedAt int64
	Extra     map[string]json.RawMessage
}

// ApprovedPending reports whether the bot still has work for this submission.
func (s *Submission) ApprovedPending() bool {
	return s.Status == StatusApproved && !s.Done
}

func (s Submission) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(s.Extra)+5)
	for k, v := range s.Extra {
		if reservedKeys[k] {
			continue
		}
		out[k] = v
	}
	out["id"] = s.ID
	out["status"] = s.Status
	out["done"] = s.Done
	out["createdAt"] = s.CreatedAt
	out["updatedAt"] = s.UpdatedAt
	return json.Marshal(out)
}

func (s *Submission) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var out Submission
	fields := []struct {
		key string
		dst any
	}{
		{"id", &out.ID},
		{"status", &out.Status},
		{"done", &out.Done},
		{"createdAt", &out.CreatedAt},
		{"updatedAt", &out.UpdatedAt},
	}
	for _, f := range fields {
		v, ok := raw[f.key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(v, f.dst); err != nil {
			return fmt.Errorf("submission field %q: %w", f.key, err)
		}
		delete(raw, f.key)
	}
	if out.Status == "" {
		out.Status = StatusPending
	}
	if out.UpdatedAt < out.CreatedAt {
		out.UpdatedAt = out.CreatedAt
	}
	if len(raw) > 0 {
		out.Extra = raw
	}
	*s = out
	return nil
}

// Clone copies the submission so the extras map is not shared.
func (s Submission) Clone() Submission {
	if s.Extra != nil {
		extra := make(map[string]json.RawMessage, len(s.Extra))
		for k, v := range s.Extra {
			extra[k] = append(json.RawMessage(nil), v...)
		}
		s.Extra = extra
	}
	return s
}
