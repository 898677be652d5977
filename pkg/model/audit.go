package model

import "time"

// HashValue is a SHA-256 hash stored as hex string.
type HashValue string

// AuditEventType identifies the type of auditable dashboard action.
type AuditEventType string

const (
	EventTypeCaptureStart AuditEventType = "capture_start"
	EventTypeCaptureStop  AuditEventType = "capture_stop"
	EventTypeFileWrite    AuditEventType = "file_write"
	EventTypePathRejected AuditEventType = "path_rejected"
	EventTypeProcessKill  AuditEventType = "process_kill"
)

// AuditRecord is a single line in the audit log (JSONL format).
type AuditRecord struct {
	Timestamp  time.Time      `json:"timestamp"`
	EventType  AuditEventType `json:"event_type"`
	Path       string         `json:"path,omitempty"`
	Details    map[string]any `json:"details,omitempty"`
	PrevHash   HashValue      `json:"prev_hash"`
	RecordHash HashValue      `json:"record_hash"`
}
