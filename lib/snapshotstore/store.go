package snapshotstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"gradewatch/lib/snapshotstore/db"
)

// Snapshot is the evaluation state of one student at one point in time.
// Fields maps a criterion name (e.g. "sp_points", "result") to its value
// as rendered by the portal.
type Snapshot struct {
	StudentID  string
	Fields     map[string]string
	CapturedAt time.Time
}

// Store persists the last-seen Snapshot per student. At most one row is
// retained per student id.
type Store struct {
	db  *sql.DB
	qry *db.Queries
}

func NewStore(database *sql.DB) Store {
	return Store{
		db:  database,
		qry: db.New(database),
	}
}

// Load returns the stored snapshot for the student, or ok=false if none
// has been recorded yet.
func (s Store) Load(ctx context.Context, studentID string) (Snapshot, bool, error) {
	row, err := s.qry.GetSnapshot(ctx, studentID)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, false, nil
	}
	if err != nil {
		return Snapshot{}, false, err
	}
	snapshot, err := fromRow(row)
	if err != nil {
		return Snapshot{}, false, err
	}
	return snapshot, true, nil
}

// LoadAll returns every stored snapshot keyed by student id.
func (s Store) LoadAll(ctx context.Context) (map[string]Snapshot, error) {
	rows, err := s.qry.GetAllSnapshots(ctx)
	if err != nil {
		return nil, err
	}

	out := make(map[string]Snapshot, len(rows))
	for _, row := range rows {
		snapshot, err := fromRow(row)
		if err != nil {
			return nil, err
		}
		out[row.StudentID] = snapshot
	}
	return out, nil
}

// Save upserts the current snapshot for its student id.
func (s Store) Save(ctx context.Context, snapshot Snapshot) error {
	fields, err := json.Marshal(snapshot.Fields)
	if err != nil {
		return err
	}
	return s.qry.UpsertSnapshot(ctx, db.UpsertSnapshotParams{
		StudentID:  snapshot.StudentID,
		Fields:     string(fields),
		CapturedAt: snapshot.CapturedAt.Unix(),
	})
}

func fromRow(row db.Snapshot) (Snapshot, error) {
	var fields map[string]string
	err := json.Unmarshal([]byte(row.Fields), &fields)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{
		StudentID:  row.StudentID,
		Fields:     fields,
		CapturedAt: time.Unix(row.CapturedAt, 0),
	}, nil
}
