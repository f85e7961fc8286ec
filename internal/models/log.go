package models

type EventType string

const (
	EventSubmit  EventType = "submit"
	EventApprove EventType = "approve"
	EventReject  EventType = "reject"
	EventDone    EventType = "done"
)

type LogEntry struct {
	Type EventType `json:"type"`
	ID   string    `json:"id"`
	Time int64     `json:"time"`
}
