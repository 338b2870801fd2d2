package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/alama/core"
	"github.com/trezcool/alama/core/assignment"
)

const assignmentColumns = `id, class_id, name, tier, due_date, position, created_at, updated_at`

type assignmentRow struct {
	ID        string    `db:"id"`
	ClassID   string    `db:"class_id"`
	Name      string    `db:"name"`
	Tier      string    `db:"tier"`
	DueDate   null.Time `db:"due_date"`
	Position  int       `db:"position"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (row assignmentRow) assignment() assignment.Assignment {
	return assignment.Assignment(row)
}

type assignmentRepository struct {
	db *sqlx.DB
}

var _ assignment.Repository = (*assignmentRepository)(nil) // interface compliance check

func NewAssignmentRepository(db *sqlx.DB) *assignmentRepository {
	return &assignmentRepository{db: db}
}

func (repo assignmentRepository) CreateAssignment(ctx context.Context, a assignment.Assignment, exec ...core.DBExecutor) (assignment.Assignment, error) {
	a.ID = uuid.New().String()
	exe := getExec(repo.db, exec)

	if err := sqlx.GetContext(ctx, exe, &a.Position,
		`SELECT COALESCE(MAX(position), 0) + 1 FROM assignment WHERE class_id = $1`, a.ClassID); err != nil {
		return assignment.Assignment{}, errors.Wrap(err, "assigning assignment position")
	}

	query := `
		INSERT INTO assignment (id, class_id, name, tier, due_date, position, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := exe.ExecContext(
		ctx, query,
		a.ID, a.ClassID, a.Name, a.Tier, a.DueDate, a.Position, a.CreatedAt.UTC(), a.UpdatedAt.UTC())
	if err != nil {
		return assignment.Assignment{}, errors.Wrap(err, "inserting assignment")
	}
	return a, nil
}

func (repo assignmentRepository) QueryAssignmentsByClass(ctx context.Context, classID string, exec ...core.DBExecutor) ([]assignment.Assignment, error) {
	// stable ordering; column matching depends on it
	query := `SELECT ` + assignmentColumns + ` FROM assignment WHERE class_id = $1 ORDER BY position, created_at, id`
	var rows []assignmentRow
	if err := sqlx.SelectContext(ctx, getExec(repo.db, exec), &rows, query, classID); err != nil {
		return nil, errors.Wrap(err, "querying assignments")
	}
	assignments := make([]assignment.Assignment, 0, len(rows))
	for _, row := range rows {
		assignments = append(assignments, row.assignment())
	}
	return assignments, nil
}

func (repo assignmentRepository) GetAssignmentByID(ctx context.Context, id string, exec ...core.DBExecutor) (assignment.Assignment, error) {
	if _, err := uuid.Parse(id); err != nil {
		return assignment.Assignment{}, assignment.ErrNotFound
	}
	var row assignmentRow
	query := `SELECT ` + assignmentColumns + ` FROM assignment WHERE id = $1`
	if err := sqlx.GetContext(ctx, getExec(repo.db, exec), &row, query, id); err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return assignment.Assignment{}, assignment.ErrNotFound
		}
		return assignment.Assignment{}, errors.Wrap(err, "finding assignment")
	}
	return row.assignment(), nil
}

func (repo assignmentRepository) UpdateAssignment(ctx context.Context, a assignment.Assignment, exec ...core.DBExecutor) (assignment.Assignment, error) {
	query := `UPDATE assignment SET name = $2, tier = $3, due_date = $4, updated_at = $5 WHERE id = $1`
	res, err := getExec(repo.db, exec).ExecContext(ctx, query, a.ID, a.Name, a.Tier, a.DueDate, a.UpdatedAt.UTC())
	if err != nil {
		return assignment.Assignment{}, errors.Wrap(err, "updating assignment")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return assignment.Assignment{}, assignment.ErrNotFound
	}
	return repo.GetAssignmentByID(ctx, a.ID, exec...)
}

func (repo assignmentRepository) DeleteAssignmentsByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error) {
	res, err := getExec(repo.db, exec).ExecContext(ctx, `DELETE FROM assignment WHERE id = ANY($1)`, pq.StringArray(ids))
	if err != nil {
		return 0, errors.Wrap(err, "deleting assignments")
	}
	cnt, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "deleting assignments")
	}
	return int(cnt), nil
}
