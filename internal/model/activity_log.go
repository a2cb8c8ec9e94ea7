package model

import "time"

// SystemActor is recorded as the user name when no one is logged in.
const SystemActor = "System"

// ActivityLogEntry is a write-once audit record in `activity_logs`.
type ActivityLogEntry struct {
	ID        string    `db:"id" json:"id"`
	Action    string    `db:"action" json:"action"`
	Details   string    `db:"details" json:"details"`
	UserName  string    `db:"user_name" json:"user_name"`
	Timestamp time.Time `db:"timestamp" json:"timestamp"`
}
