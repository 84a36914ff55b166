package models

import "time"

// SessionInfo is one entry of the session inventory: a distinct session key
// present in the row-store with its row count and persisted-time bounds.
type SessionInfo struct {
	SessionID   string    `json:"session_id"`
	RecordCount int64     `json:"record_count"`
	FirstUpload time.Time `json:"first_upload"`
	LastUpload  time.Time `json:"last_upload"`
}
