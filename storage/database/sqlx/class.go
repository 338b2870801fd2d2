package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/alama/core"
	"github.com/trezcool/alama/core/class"
)

const (
	classColumns      = `id, name, code, term, instructor_id, created_at, updated_at`
	enrollmentColumns = `id, class_id, student_id, contract_id, created_at`
)

type (
	classRow struct {
		ID           string    `db:"id"`
		Name         string    `db:"name"`
		Code         string    `db:"code"`
		Term         string    `db:"term"`
		InstructorID string    `db:"instructor_id"`
		CreatedAt    time.Time `db:"created_at"`
		UpdatedAt    time.Time `db:"updated_at"`
	}

	enrollmentRow struct {
		ID         string      `db:"id"`
		ClassID    string      `db:"class_id"`
		StudentID  string      `db:"student_id"`
		ContractID null.String `db:"contract_id"`
		CreatedAt  time.Time   `db:"created_at"`
	}
)

func (row classRow) class() class.Class {
	return class.Class(row)
}

func (row enrollmentRow) enrollment() class.Enrollment {
	return class.Enrollment{
		ID:         row.ID,
		ClassID:    row.ClassID,
		StudentID:  row.StudentID,
		ContractID: row.ContractID.String,
		CreatedAt:  row.CreatedAt,
	}
}

type classRepository struct {
	db *sqlx.DB
}

var _ class.Repository = (*classRepository)(nil) // interface compliance check

func NewClassRepository(db *sqlx.DB) *classRepository {
	return &classRepository{db: db}
}

func (repo classRepository) trapNoRowsErr(err, notFound error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return notFound
	}
	return errors.Wrap(err, msg)
}

func (repo classRepository) CreateClass(ctx context.Context, cls class.Class, exec ...core.DBExecutor) (class.Class, error) {
	cls.ID = uuid.New().String()
	query := `
		INSERT INTO class (id, name, code, term, instructor_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := getExec(repo.db, exec).ExecContext(
		ctx, query,
		cls.ID, cls.Name, cls.Code, cls.Term, cls.InstructorID, cls.CreatedAt.UTC(), cls.UpdatedAt.UTC(),
	)
	if err != nil {
		return class.Class{}, errors.Wrap(err, "inserting class")
	}
	return cls, nil
}

func (repo classRepository) QueryClasses(ctx context.Context, filter *class.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]class.Class, error) {
	query := `SELECT ` + classColumns + ` FROM class`
	var conds []string
	var args []interface{}

	if filter != nil {
		if filter.Search != "" {
			args = append(args, "%"+filter.Search+"%")
			n := len(args)
			conds = append(conds, fmt.Sprintf("(name ILIKE $%d OR code ILIKE $%d)", n, n))
		}
		if filter.Term != "" {
			args = append(args, filter.Term)
			conds = append(conds, fmt.Sprintf("term = $%d", len(args)))
		}
		if filter.InstructorID != "" {
			args = append(args, filter.InstructorID)
			conds = append(conds, fmt.Sprintf("instructor_id = $%d", len(args)))
		}
		if filter.StudentID != "" {
			args = append(args, filter.StudentID)
			conds = append(conds, fmt.Sprintf(
				"id IN (SELECT class_id FROM enrollment WHERE student_id = $%d)", len(args)))
		}
	}

	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += orderBy(ordering)

	var rows []classRow
	if err := sqlx.SelectContext(ctx, getExec(repo.db, exec), &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying classes")
	}
	classes := make([]class.Class, 0, len(rows))
	for _, row := range rows {
		classes = append(classes, row.class())
	}
	return classes, nil
}

func (repo classRepository) GetClassByID(ctx context.Context, id string, exec ...core.DBExecutor) (class.Class, error) {
	if _, err := uuid.Parse(id); err != nil {
		return class.Class{}, class.ErrNotFound
	}
	var row classRow
	query := `SELECT ` + classColumns + ` FROM class WHERE id = $1`
	if err := sqlx.GetContext(ctx, getExec(repo.db, exec), &row, query, id); err != nil {
		return class.Class{}, repo.trapNoRowsErr(err, class.ErrNotFound, "finding class")
	}
	return row.class(), nil
}

func (repo classRepository) UpdateClass(ctx context.Context, cls class.Class, exec ...core.DBExecutor) (class.Class, error) {
	query := `
		UPDATE class SET name = $2, code = $3, term = $4, instructor_id = $5, updated_at = $6
		WHERE id = $1`
	res, err := getExec(repo.db, exec).ExecContext(
		ctx, query, cls.ID, cls.Name, cls.Code, cls.Term, cls.InstructorID, cls.UpdatedAt.UTC())
	if err != nil {
		return class.Class{}, errors.Wrap(err, "updating class")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return class.Class{}, class.ErrNotFound
	}
	return repo.GetClassByID(ctx, cls.ID, exec...)
}

func (repo classRepository) DeleteClassesByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error) {
	res, err := getExec(repo.db, exec).ExecContext(ctx, `DELETE FROM class WHERE id = ANY($1)`, pq.StringArray(ids))
	if err != nil {
		return 0, errors.Wrap(err, "deleting classes")
	}
	cnt, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "deleting classes")
	}
	return int(cnt), nil
}

func (repo classRepository) CreateEnrollment(ctx context.Context, enr class.Enrollment, exec ...core.DBExecutor) (class.Enrollment, error) {
	enr.ID = uuid.New().String()
	query := `
		INSERT INTO enrollment (id, class_id, student_id, contract_id, created_at)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := getExec(repo.db, exec).ExecContext(
		ctx, query,
		enr.ID, enr.ClassID, enr.StudentID,
		null.NewString(enr.ContractID, enr.ContractID != ""), enr.CreatedAt.UTC(),
	)
	if err != nil {
		return class.Enrollment{}, errors.Wrap(err, "inserting enrollment")
	}
	return enr, nil
}

func (repo classRepository) QueryEnrollments(ctx context.Context, classID string, exec ...core.DBExecutor) ([]class.Enrollment, error) {
	query := `SELECT ` + enrollmentColumns + ` FROM enrollment WHERE class_id = $1 ORDER BY created_at, id`
	var rows []enrollmentRow
	if err := sqlx.SelectContext(ctx, getExec(repo.db, exec), &rows, query, classID); err != nil {
		return nil, errors.Wrap(err, "querying enrollments")
	}
	enrs := make([]class.Enrollment, 0, len(rows))
	for _, row := range rows {
		enrs = append(enrs, row.enrollment())
	}
	return enrs, nil
}

func (repo classRepository) GetEnrollmentByID(ctx context.Context, id string, exec ...core.DBExecutor) (class.Enrollment, error) {
	if _, err := uuid.Parse(id); err != nil {
		return class.Enrollment{}, class.ErrEnrollmentNotFound
	}
	var row enrollmentRow
	query := `SELECT ` + enrollmentColumns + ` FROM enrollment WHERE id = $1`
	if err := sqlx.GetContext(ctx, getExec(repo.db, exec), &row, query, id); err != nil {
		return class.Enrollment{}, repo.trapNoRowsErr(err, class.ErrEnrollmentNotFound, "finding enrollment")
	}
	return row.enrollment(), nil
}

func (repo classRepository) SetEnrollmentContract(ctx context.Context, id, contractID string, exec ...core.DBExecutor) (class.Enrollment, error) {
	query := `UPDATE enrollment SET contract_id = $2 WHERE id = $1`
	res, err := getExec(repo.db, exec).ExecContext(
		ctx, query, id, null.NewString(contractID, contractID != ""))
	if err != nil {
		return class.Enrollment{}, errors.Wrap(err, "setting enrollment contract")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return class.Enrollment{}, class.ErrEnrollmentNotFound
	}
	return repo.GetEnrollmentByID(ctx, id, exec...)
}

func (repo classRepository) DeleteEnrollment(ctx context.Context, id string, exec ...core.DBExecutor) error {
	if _, err := getExec(repo.db, exec).ExecContext(ctx, `DELETE FROM enrollment WHERE id = $1`, id); err != nil {
		return errors.Wrap(err, "deleting enrollment")
	}
	return nil
}
