package sqlxrepos

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/alama/core"
	"github.com/trezcool/alama/core/audit"
)

const auditColumns = `id, actor_id, action, object_type, object_id, detail, created_at`

type auditRow struct {
	ID         string    `db:"id"`
	ActorID    string    `db:"actor_id"`
	Action     string    `db:"action"`
	ObjectType string    `db:"object_type"`
	ObjectID   string    `db:"object_id"`
	Detail     string    `db:"detail"`
	CreatedAt  time.Time `db:"created_at"`
}

func (row auditRow) entry() audit.Entry {
	return audit.Entry(row)
}

type auditRepository struct {
	db *sqlx.DB
}

var _ audit.Repository = (*auditRepository)(nil) // interface compliance check

func NewAuditRepository(db *sqlx.DB) *auditRepository {
	return &auditRepository{db: db}
}

func (repo auditRepository) CreateEntry(ctx context.Context, e audit.Entry, exec ...core.DBExecutor) (audit.Entry, error) {
	e.ID = uuid.New().String()
	query := `
		INSERT INTO audit_entry (id, actor_id, action, object_type, object_id, detail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := getExec(repo.db, exec).ExecContext(
		ctx, query, e.ID, e.ActorID, e.Action, e.ObjectType, e.ObjectID, e.Detail, e.CreatedAt.UTC())
	if err != nil {
		return audit.Entry{}, errors.Wrap(err, "inserting audit entry")
	}
	return e, nil
}

func (repo auditRepository) QueryEntries(ctx context.Context, filter *audit.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]audit.Entry, error) {
	query := `SELECT ` + auditColumns + ` FROM audit_entry`
	var conds []string
	var args []interface{}

	if filter != nil {
		if filter.ActorID != "" {
			args = append(args, filter.ActorID)
			conds = append(conds, fmt.Sprintf("actor_id = $%d", len(args)))
		}
		if filter.Action != "" {
			args = append(args, filter.Action)
			conds = append(conds, fmt.Sprintf("action = $%d", len(args)))
		}
		if filter.ObjectType != "" {
			args = append(args, filter.ObjectType)
			conds = append(conds, fmt.Sprintf("object_type = $%d", len(args)))
		}
		if filter.ObjectID != "" {
			args = append(args, filter.ObjectID)
			conds = append(conds, fmt.Sprintf("object_id = $%d", len(args)))
		}
	}

	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += orderBy(ordering)

	var rows []auditRow
	if err := sqlx.SelectContext(ctx, getExec(repo.db, exec), &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying audit entries")
	}
	entries := make([]audit.Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, row.entry())
	}
	return entries, nil
}
