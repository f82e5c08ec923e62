package watchdog

import (
	"context"
	"time"

	"gradewatch/lib/snapshotstore"
)

// ChangeEvent describes one observed difference between the stored and
// the freshly fetched evaluation of a student.
type ChangeEvent struct {
	StudentID string
	Field     string
	// Previous is only meaningful when HasPrevious is true; a first
	// observation of a field has no previous value.
	Previous    string
	HasPrevious bool
	New         string
	DetectedAt  time.Time
}

// WatchTarget is a student being monitored, with an optional Discord user
// to ping in notifications.
type WatchTarget struct {
	StudentID     string
	DiscordUserID string
}

// SnapshotStore persists the last-seen snapshot per student.
// Implemented by snapshotstore.Store.
type SnapshotStore interface {
	Load(ctx context.Context, studentID string) (snapshotstore.Snapshot, bool, error)
	Save(ctx context.Context, snapshot snapshotstore.Snapshot) error
}

// PortalClient provides the current results table. Reads must be
// idempotent and bounded; the loop owns the single authenticated session
// so calls are never concurrent.
type PortalClient interface {
	FetchResults(ctx context.Context) (map[string]snapshotstore.Snapshot, error)
}

// Notifier delivers one change event. Errors are reported to the loop and
// logged there; a failed delivery is not retried within the cycle.
type Notifier interface {
	Notify(ctx context.Context, event ChangeEvent, target WatchTarget) error
}
