package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/alama/core"
	"github.com/trezcool/alama/core/progress"
)

const progressColumns = `id, class_id, student_id, assignment_id, value, updated_at`

type progressRow struct {
	ID           string    `db:"id"`
	ClassID      string    `db:"class_id"`
	StudentID    string    `db:"student_id"`
	AssignmentID string    `db:"assignment_id"`
	Value        string    `db:"value"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (row progressRow) record() progress.Record {
	return progress.Record(row)
}

type progressRepository struct {
	db *sqlx.DB
}

var _ progress.Repository = (*progressRepository)(nil) // interface compliance check

func NewProgressRepository(db *sqlx.DB) *progressRepository {
	return &progressRepository{db: db}
}

func (repo progressRepository) UpsertRecord(ctx context.Context, rec progress.Record, exec ...core.DBExecutor) (progress.Record, error) {
	rec.ID = uuid.New().String()
	query := `
		INSERT INTO progress_record (id, class_id, student_id, assignment_id, value, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (student_id, assignment_id)
		DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
		RETURNING ` + progressColumns
	var row progressRow
	if err := sqlx.GetContext(ctx, getExec(repo.db, exec), &row, query,
		rec.ID, rec.ClassID, rec.StudentID, rec.AssignmentID, rec.Value, rec.UpdatedAt.UTC()); err != nil {
		return progress.Record{}, errors.Wrap(err, "upserting progress record")
	}
	return row.record(), nil
}

func (repo progressRepository) QueryRecordsByClass(ctx context.Context, classID string, exec ...core.DBExecutor) ([]progress.Record, error) {
	query := `SELECT ` + progressColumns + ` FROM progress_record WHERE class_id = $1 ORDER BY student_id, assignment_id`
	var rows []progressRow
	if err := sqlx.SelectContext(ctx, getExec(repo.db, exec), &rows, query, classID); err != nil {
		return nil, errors.Wrap(err, "querying progress records")
	}
	recs := make([]progress.Record, 0, len(rows))
	for _, row := range rows {
		recs = append(recs, row.record())
	}
	return recs, nil
}

func (repo progressRepository) QueryRecordsByStudent(ctx context.Context, classID, studentID string, exec ...core.DBExecutor) ([]progress.Record, error) {
	query := `SELECT ` + progressColumns + ` FROM progress_record WHERE class_id = $1 AND student_id = $2 ORDER BY assignment_id`
	var rows []progressRow
	if err := sqlx.SelectContext(ctx, getExec(repo.db, exec), &rows, query, classID, studentID); err != nil {
		return nil, errors.Wrap(err, "querying progress records")
	}
	recs := make([]progress.Record, 0, len(rows))
	for _, row := range rows {
		recs = append(recs, row.record())
	}
	return recs, nil
}

func (repo progressRepository) GetRecord(ctx context.Context, studentID, assignmentID string, exec ...core.DBExecutor) (progress.Record, error) {
	var row progressRow
	query := `SELECT ` + progressColumns + ` FROM progress_record WHERE student_id = $1 AND assignment_id = $2`
	if err := sqlx.GetContext(ctx, getExec(repo.db, exec), &row, query, studentID, assignmentID); err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return progress.Record{}, progress.ErrNotFound
		}
		return progress.Record{}, errors.Wrap(err, "finding progress record")
	}
	return row.record(), nil
}
