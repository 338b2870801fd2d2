package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/alama/core"
	"github.com/trezcool/alama/core/contract"
)

const contractColumns = `id, class_id, grade, description, position, created_at, updated_at`

type contractRow struct {
	ID          string    `db:"id"`
	ClassID     string    `db:"class_id"`
	Grade       string    `db:"grade"`
	Description string    `db:"description"`
	Position    int       `db:"position"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (row contractRow) contract() contract.Contract {
	return contract.Contract(row)
}

type contractRepository struct {
	db *sqlx.DB
}

var _ contract.Repository = (*contractRepository)(nil) // interface compliance check

func NewContractRepository(db *sqlx.DB) *contractRepository {
	return &contractRepository{db: db}
}

func (repo contractRepository) CreateContract(ctx context.Context, ct contract.Contract, exec ...core.DBExecutor) (contract.Contract, error) {
	ct.ID = uuid.New().String()
	exe := getExec(repo.db, exec)

	if err := sqlx.GetContext(ctx, exe, &ct.Position,
		`SELECT COALESCE(MAX(position), 0) + 1 FROM contract WHERE class_id = $1`, ct.ClassID); err != nil {
		return contract.Contract{}, errors.Wrap(err, "assigning contract position")
	}

	query := `
		INSERT INTO contract (id, class_id, grade, description, position, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := exe.ExecContext(
		ctx, query,
		ct.ID, ct.ClassID, ct.Grade, ct.Description, ct.Position, ct.CreatedAt.UTC(), ct.UpdatedAt.UTC())
	if err != nil {
		return contract.Contract{}, errors.Wrap(err, "inserting contract")
	}
	return ct, nil
}

func (repo contractRepository) QueryContractsByClass(ctx context.Context, classID string, exec ...core.DBExecutor) ([]contract.Contract, error) {
	query := `SELECT ` + contractColumns + ` FROM contract WHERE class_id = $1 ORDER BY position, created_at, id`
	var rows []contractRow
	if err := sqlx.SelectContext(ctx, getExec(repo.db, exec), &rows, query, classID); err != nil {
		return nil, errors.Wrap(err, "querying contracts")
	}
	contracts := make([]contract.Contract, 0, len(rows))
	for _, row := range rows {
		contracts = append(contracts, row.contract())
	}
	return contracts, nil
}

func (repo contractRepository) GetContractByID(ctx context.Context, id string, exec ...core.DBExecutor) (contract.Contract, error) {
	if _, err := uuid.Parse(id); err != nil {
		return contract.Contract{}, contract.ErrNotFound
	}
	var row contractRow
	query := `SELECT ` + contractColumns + ` FROM contract WHERE id = $1`
	if err := sqlx.GetContext(ctx, getExec(repo.db, exec), &row, query, id); err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return contract.Contract{}, contract.ErrNotFound
		}
		return contract.Contract{}, errors.Wrap(err, "finding contract")
	}
	return row.contract(), nil
}

func (repo contractRepository) UpdateContract(ctx context.Context, ct contract.Contract, exec ...core.DBExecutor) (contract.Contract, error) {
	query := `UPDATE contract SET grade = $2, description = $3, updated_at = $4 WHERE id = $1`
	res, err := getExec(repo.db, exec).ExecContext(ctx, query, ct.ID, ct.Grade, ct.Description, ct.UpdatedAt.UTC())
	if err != nil {
		return contract.Contract{}, errors.Wrap(err, "updating contract")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return contract.Contract{}, contract.ErrNotFound
	}
	return repo.GetContractByID(ctx, ct.ID, exec...)
}

func (repo contractRepository) DeleteContractsByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error) {
	res, err := getExec(repo.db, exec).ExecContext(ctx, `DELETE FROM contract WHERE id = ANY($1)`, pq.StringArray(ids))
	if err != nil {
		return 0, errors.Wrap(err, "deleting contracts")
	}
	cnt, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "deleting contracts")
	}
	return int(cnt), nil
}
