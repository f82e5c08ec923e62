package watchdog

import (
	"sort"
	"time"

	"gradewatch/lib/snapshotstore"
)

// Diff compares a freshly fetched snapshot against the previously stored
// one and returns the change events, ordered by field name.
//
// With no previous snapshot every populated (non-empty) field of curr
// produces one first-observation event. With a previous snapshot a field
// produces an event when its value differs or when it newly appeared.
// Fields that disappear from curr are deliberately ignored, the portal
// dropping a column is not treated as a grade change.
func Diff(prev *snapshotstore.Snapshot, curr snapshotstore.Snapshot, now time.Time) []ChangeEvent {
	fields := make([]string, 0, len(curr.Fields))
	for field, value := range curr.Fields {
		if value == "" {
			continue
		}
		fields = append(fields, field)
	}
	sort.Strings(fields)

	var events []ChangeEvent
	for _, field := range fields {
		value := curr.Fields[field]

		if prev == nil {
			events = append(events, ChangeEvent{
				StudentID:  curr.StudentID,
				Field:      field,
				New:        value,
				DetectedAt: now,
			})
			continue
		}

		previous, hadField := prev.Fields[field]
		if hadField && previous == value {
			continue
		}
		events = append(events, ChangeEvent{
			StudentID:   curr.StudentID,
			Field:       field,
			Previous:    previous,
			HasPrevious: hadField,
			New:         value,
			DetectedAt:  now,
		})
	}

	return events
}
