package db

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// Snapshot is the last observed evaluation state for one student.
// `fields` is a JSON object mapping criterion name to its value.
type Snapshot struct {
	StudentID  string
	Fields     string
	CapturedAt int64
}

const getSnapshot = `
SELECT student_id, fields, captured_at FROM snapshot
WHERE student_id = ?
`

func (q *Queries) GetSnapshot(ctx context.Context, studentID string) (Snapshot, error) {
	row := q.db.QueryRowContext(ctx, getSnapshot, studentID)
	var s Snapshot
	err := row.Scan(&s.StudentID, &s.Fields, &s.CapturedAt)
	return s, err
}

const getAllSnapshots = `
SELECT student_id, fields, captured_at FROM snapshot
ORDER BY student_id
`

func (q *Queries) GetAllSnapshots(ctx context.Context) ([]Snapshot, error) {
	rows, err := q.db.QueryContext(ctx, getAllSnapshots)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		var s Snapshot
		err := rows.Scan(&s.StudentID, &s.Fields, &s.CapturedAt)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

const upsertSnapshot = `
INSERT INTO snapshot (student_id, fields, captured_at)
VALUES (?, ?, ?)
ON CONFLICT (student_id) DO UPDATE SET
    fields = excluded.fields,
    captured_at = excluded.captured_at
`

type UpsertSnapshotParams struct {
	StudentID  string
	Fields     string
	CapturedAt int64
}

func (q *Queries) UpsertSnapshot(ctx context.Context, params UpsertSnapshotParams) error {
	_, err := q.db.ExecContext(ctx, upsertSnapshot, params.StudentID, params.Fields, params.CapturedAt)
	return err
}
