package oxidb

import "fmt"

// Error is returned when the server answers with ok=false.
type Error struct {
	Msg string
}

func (e *Error) Error() string {
	return fmt.Sprintf("oxidb: %s", e.Msg)
}

// ConflictError is returned when the server reports a write conflict.
type ConflictError struct {
	Msg string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("oxidb: conflict: %s", e.Msg)
}
