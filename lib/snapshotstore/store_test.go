package snapshotstore

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"gradewatch/lib/snapshotstore/db"
	"gradewatch/lib/timezone"

	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func TestStore(t *testing.T) {
	sqlite, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	_, err = sqlite.Exec(db.Schema)
	if err != nil {
		t.Fatal(err)
	}
	store := NewStore(sqlite)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	{
		_, ok, err := store.Load(ctx, "A21B0000P")
		if err != nil {
			t.Fatal(err)
		}
		require.False(t, ok)
	}
	{
		err := store.Save(ctx, Snapshot{
			StudentID: "A21B0000P",
			Fields: map[string]string{
				"sp_points":    "0",
				"total_points": "0",
				"result":       "Nezadáno",
			},
			CapturedAt: timezone.Now(),
		})
		if err != nil {
			t.Fatal(err)
		}

		loaded, ok, err := store.Load(ctx, "A21B0000P")
		if err != nil {
			t.Fatal(err)
		}
		require.True(t, ok)
		require.Equal(t, "Nezadáno", loaded.Fields["result"])
		require.Len(t, loaded.Fields, 3)
	}
	{
		// a second save must replace the snapshot, not accumulate rows
		err := store.Save(ctx, Snapshot{
			StudentID: "A21B0000P",
			Fields: map[string]string{
				"sp_points":    "55",
				"total_points": "80",
				"result":       "80/100",
			},
			CapturedAt: timezone.Now().Add(time.Hour),
		})
		if err != nil {
			t.Fatal(err)
		}

		loaded, ok, err := store.Load(ctx, "A21B0000P")
		if err != nil {
			t.Fatal(err)
		}
		require.True(t, ok)
		require.Equal(t, "80/100", loaded.Fields["result"])

		all, err := store.LoadAll(ctx)
		if err != nil {
			t.Fatal(err)
		}
		require.Len(t, all, 1)
	}
	{
		err := store.Save(ctx, Snapshot{
			StudentID:  "A21B0001P",
			Fields:     map[string]string{"result": "Nezadáno"},
			CapturedAt: timezone.Now(),
		})
		if err != nil {
			t.Fatal(err)
		}

		all, err := store.LoadAll(ctx)
		if err != nil {
			t.Fatal(err)
		}
		require.Len(t, all, 2)
	}
}
