package watchdog

import (
	"testing"
	"time"

	"gradewatch/lib/snapshotstore"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

var diffNow = time.Date(2026, 1, 12, 15, 0, 0, 0, time.UTC)

func snap(id string, fields map[string]string) snapshotstore.Snapshot {
	return snapshotstore.Snapshot{
		StudentID:  id,
		Fields:     fields,
		CapturedAt: diffNow,
	}
}

func TestDiffIdenticalSnapshots(t *testing.T) {
	s := snap("A21B0000P", map[string]string{
		"sp_points": "55",
		"result":    "80/100",
	})
	require.Empty(t, Diff(&s, s, diffNow))
}

func TestDiffFirstObservation(t *testing.T) {
	curr := snap("A21B0000P", map[string]string{
		"sp_points": "55",
		"result":    "80/100",
		"tutor":     "",
	})
	events := Diff(nil, curr, diffNow)

	// one event per populated field, empty fields skipped, sorted by name
	want := []ChangeEvent{
		{StudentID: "A21B0000P", Field: "result", New: "80/100", DetectedAt: diffNow},
		{StudentID: "A21B0000P", Field: "sp_points", New: "55", DetectedAt: diffNow},
	}
	if diff := cmp.Diff(want, events); diff != "" {
		t.Fatalf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestDiffValueChange(t *testing.T) {
	prev := snap("A21B0000P", map[string]string{"project1": "not submitted"})
	curr := snap("A21B0000P", map[string]string{"project1": "80/100"})

	events := Diff(&prev, curr, diffNow)
	want := []ChangeEvent{{
		StudentID:   "A21B0000P",
		Field:       "project1",
		Previous:    "not submitted",
		HasPrevious: true,
		New:         "80/100",
		DetectedAt:  diffNow,
	}}
	if diff := cmp.Diff(want, events); diff != "" {
		t.Fatalf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestDiffNewFieldAppears(t *testing.T) {
	prev := snap("A21B0000P", map[string]string{"result": "Nezadáno"})
	curr := snap("A21B0000P", map[string]string{
		"result":    "Nezadáno",
		"sp_points": "55",
	})

	events := Diff(&prev, curr, diffNow)
	require.Len(t, events, 1)
	require.Equal(t, "sp_points", events[0].Field)
	require.False(t, events[0].HasPrevious)
	require.Equal(t, "55", events[0].New)
}

func TestDiffDisappearedFieldIgnored(t *testing.T) {
	prev := snap("A21B0000P", map[string]string{
		"result":    "80/100",
		"sp_points": "55",
	})
	curr := snap("A21B0000P", map[string]string{"result": "80/100"})

	require.Empty(t, Diff(&prev, curr, diffNow))
}

func TestDiffIdempotent(t *testing.T) {
	curr := snap("A21B0000P", map[string]string{"result": "80/100"})
	first := Diff(nil, curr, diffNow)
	require.NotEmpty(t, first)
	require.Empty(t, Diff(&curr, curr, diffNow))
	require.Empty(t, Diff(&curr, curr, diffNow))
}

func TestDiffRenderingMismatchIsChange(t *testing.T) {
	// values are compared as the portal renders them, "80" vs "80.0"
	// counts as a change
	prev := snap("A21B0000P", map[string]string{"total_points": "80"})
	curr := snap("A21B0000P", map[string]string{"total_points": "80.0"})

	events := Diff(&prev, curr, diffNow)
	require.Len(t, events, 1)
	require.Equal(t, "80", events[0].Previous)
	require.Equal(t, "80.0", events[0].New)
}
