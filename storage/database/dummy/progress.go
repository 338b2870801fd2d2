package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/alama/core"
	"github.com/trezcool/alama/core/progress"
)

type progressRepository struct {
	db *progressTable
}

var _ progress.Repository = (*progressRepository)(nil) // interface compliance check

func NewProgressRepository(db *DB) progress.Repository {
	return &progressRepository{db: db.progress}
}

// cellKey identifies the (student, assignment) cell an upsert targets.
func cellKey(studentID, assignmentID string) string {
	return studentID + "/" + assignmentID
}

func (repo *progressRepository) UpsertRecord(_ context.Context, rec progress.Record, _ ...core.DBExecutor) (progress.Record, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	key := cellKey(rec.StudentID, rec.AssignmentID)
	if orig, ok := repo.db.table[key]; ok {
		orig.Value = rec.Value
		orig.UpdatedAt = rec.UpdatedAt
		return *orig, nil
	}
	rec.ID = uuid.New().String()
	repo.db.table[key] = &rec
	return rec, nil
}

func (repo *progressRepository) QueryRecordsByClass(_ context.Context, classID string, _ ...core.DBExecutor) ([]progress.Record, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	recs := make([]progress.Record, 0)
	for _, rec := range repo.db.table {
		if rec.ClassID == classID {
			recs = append(recs, *rec)
		}
	}
	sortRecords(recs)
	return recs, nil
}

func (repo *progressRepository) QueryRecordsByStudent(_ context.Context, classID, studentID string, _ ...core.DBExecutor) ([]progress.Record, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	recs := make([]progress.Record, 0)
	for _, rec := range repo.db.table {
		if rec.ClassID == classID && rec.StudentID == studentID {
			recs = append(recs, *rec)
		}
	}
	sortRecords(recs)
	return recs, nil
}

func sortRecords(recs []progress.Record) {
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].StudentID != recs[j].StudentID {
			return recs[i].StudentID < recs[j].StudentID
		}
		return recs[i].AssignmentID < recs[j].AssignmentID
	})
}

func (repo *progressRepository) GetRecord(_ context.Context, studentID, assignmentID string, _ ...core.DBExecutor) (progress.Record, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if rec, ok := repo.db.table[cellKey(studentID, assignmentID)]; ok {
		return *rec, nil
	}
	return progress.Record{}, progress.ErrNotFound
}
