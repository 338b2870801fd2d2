package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/alama/core"
	"github.com/trezcool/alama/core/attendance"
)

const attendanceColumns = `id, class_id, student_id, date, status, engagement, note, created_at`

type attendanceRow struct {
	ID         string    `db:"id"`
	ClassID    string    `db:"class_id"`
	StudentID  string    `db:"student_id"`
	Date       time.Time `db:"date"`
	Status     string    `db:"status"`
	Engagement int       `db:"engagement"`
	Note       string    `db:"note"`
	CreatedAt  time.Time `db:"created_at"`
}

func (row attendanceRow) record() attendance.Record {
	return attendance.Record(row)
}

type attendanceRepository struct {
	db *sqlx.DB
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *sqlx.DB) *attendanceRepository {
	return &attendanceRepository{db: db}
}

func (repo attendanceRepository) CreateRecord(ctx context.Context, rec attendance.Record, exec ...core.DBExecutor) (attendance.Record, error) {
	rec.ID = uuid.New().String()
	// one record per (class, student, day); re-recording overwrites
	query := `
		INSERT INTO attendance_record (id, class_id, student_id, date, status, engagement, note, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (class_id, student_id, date)
		DO UPDATE SET status = EXCLUDED.status, engagement = EXCLUDED.engagement, note = EXCLUDED.note
		RETURNING ` + attendanceColumns
	var row attendanceRow
	if err := sqlx.GetContext(ctx, getExec(repo.db, exec), &row, query,
		rec.ID, rec.ClassID, rec.StudentID, rec.Date, rec.Status, rec.Engagement, rec.Note, rec.CreatedAt.UTC()); err != nil {
		return attendance.Record{}, errors.Wrap(err, "inserting attendance record")
	}
	return row.record(), nil
}

func (repo attendanceRepository) QueryRecordsByClass(ctx context.Context, classID string, exec ...core.DBExecutor) ([]attendance.Record, error) {
	query := `SELECT ` + attendanceColumns + ` FROM attendance_record WHERE class_id = $1 ORDER BY date, student_id`
	var rows []attendanceRow
	if err := sqlx.SelectContext(ctx, getExec(repo.db, exec), &rows, query, classID); err != nil {
		return nil, errors.Wrap(err, "querying attendance records")
	}
	recs := make([]attendance.Record, 0, len(rows))
	for _, row := range rows {
		recs = append(recs, row.record())
	}
	return recs, nil
}

func (repo attendanceRepository) DeleteRecord(ctx context.Context, id string, exec ...core.DBExecutor) error {
	if _, err := uuid.Parse(id); err != nil {
		return attendance.ErrNotFound
	}
	if _, err := getExec(repo.db, exec).ExecContext(ctx, `DELETE FROM attendance_record WHERE id = $1`, id); err != nil {
		return errors.Wrap(err, "deleting attendance record")
	}
	return nil
}
