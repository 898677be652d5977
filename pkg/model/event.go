package model

import "time"

// EventRecord is one captured input event. It is never modified after it is
// appended to a recorder buffer.
type EventRecord struct {
	Timestamp time.Time `json:"timestamp"`
	Payload   string    `json:"description"`
}
