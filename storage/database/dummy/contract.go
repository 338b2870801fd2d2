package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/alama/core"
	"github.com/trezcool/alama/core/contract"
)

type contractRepository struct {
	db *contractTable
}

var _ contract.Repository = (*contractRepository)(nil) // interface compliance check

func NewContractRepository(db *DB) contract.Repository {
	return &contractRepository{db: db.contract}
}

func (repo *contractRepository) CreateContract(_ context.Context, ct contract.Contract, _ ...core.DBExecutor) (contract.Contract, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	ct.ID = uuid.New().String()
	for _, other := range repo.db.table {
		if other.ClassID == ct.ClassID && other.Position >= ct.Position {
			ct.Position = other.Position + 1
		}
	}
	if ct.Position == 0 {
		ct.Position = 1
	}
	repo.db.table[ct.ID] = &ct
	return ct, nil
}

func (repo *contractRepository) QueryContractsByClass(_ context.Context, classID string, _ ...core.DBExecutor) ([]contract.Contract, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	contracts := make([]contract.Contract, 0)
	for _, ct := range repo.db.table {
		if ct.ClassID == classID {
			contracts = append(contracts, *ct)
		}
	}
	sortByPosition(contracts)
	return contracts, nil
}

func sortByPosition(contracts []contract.Contract) {
	sort.Slice(contracts, func(i, j int) bool {
		a, b := contracts[i], contracts[j]
		if a.Position != b.Position {
			return a.Position < b.Position
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}

func (repo *contractRepository) GetContractByID(_ context.Context, id string, _ ...core.DBExecutor) (contract.Contract, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if ct, ok := repo.db.table[id]; ok {
		return *ct, nil
	}
	return contract.Contract{}, contract.ErrNotFound
}

func (repo *contractRepository) UpdateContract(_ context.Context, ct contract.Contract, _ ...core.DBExecutor) (contract.Contract, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.table[ct.ID]
	if !ok {
		return contract.Contract{}, contract.ErrNotFound
	}
	orig.Grade = ct.Grade
	orig.Description = ct.Description
	orig.UpdatedAt = ct.UpdatedAt
	return *orig, nil
}

func (repo *contractRepository) DeleteContractsByID(_ context.Context, ids []string, _ ...core.DBExecutor) (int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	var cnt int
	for _, id := range ids {
		if _, ok := repo.db.table[id]; ok {
			delete(repo.db.table, id)
			cnt++
		}
	}
	return cnt, nil
}
