package dummydb

import (
	"context"

	"github.com/google/uuid"

	"github.com/trezcool/alama/core"
	"github.com/trezcool/alama/core/audit"
)

type auditRepository struct {
	db *auditTable
}

var _ audit.Repository = (*auditRepository)(nil) // interface compliance check

func NewAuditRepository(db *DB) audit.Repository {
	return &auditRepository{db: db.audit}
}

func (repo *auditRepository) CreateEntry(_ context.Context, e audit.Entry, _ ...core.DBExecutor) (audit.Entry, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	e.ID = uuid.New().String()
	repo.db.entries = append(repo.db.entries, e)
	return e, nil
}

func (repo *auditRepository) QueryEntries(_ context.Context, filter *audit.QueryFilter, _ []core.DBOrdering, _ ...core.DBExecutor) ([]audit.Entry, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	// entries are appended in creation order
	entries := make([]audit.Entry, 0, len(repo.db.entries))
	for _, e := range repo.db.entries {
		if filter != nil {
			if filter.ActorID != "" && e.ActorID != filter.ActorID {
				continue
			}
			if filter.Action != "" && e.Action != filter.Action {
				continue
			}
			if filter.ObjectType != "" && e.ObjectType != filter.ObjectType {
				continue
			}
			if filter.ObjectID != "" && e.ObjectID != filter.ObjectID {
				continue
			}
		}
		entries = append(entries, e)
	}
	return entries, nil
}
