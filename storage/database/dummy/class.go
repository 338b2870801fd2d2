package dummydb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/trezcool/alama/core"
	"github.com/trezcool/alama/core/class"
)

type classRepository struct {
	db *classTable
}

var _ class.Repository = (*classRepository)(nil) // interface compliance check

func NewClassRepository(db *DB) class.Repository {
	return &classRepository{db: db.class}
}

func (repo *classRepository) CreateClass(_ context.Context, cls class.Class, _ ...core.DBExecutor) (class.Class, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	cls.ID = uuid.New().String()
	repo.db.classes[cls.ID] = &cls
	return cls, nil
}

func (repo *classRepository) QueryClasses(_ context.Context, filter *class.QueryFilter, _ []core.DBOrdering, _ ...core.DBExecutor) ([]class.Class, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	classes := make([]class.Class, 0, len(repo.db.classes))
	for _, cls := range repo.db.classes {
		if filter != nil && !repo.matches(*cls, filter) {
			continue
		}
		classes = append(classes, *cls)
	}
	sort.Slice(classes, func(i, j int) bool { return classes[i].CreatedAt.Before(classes[j].CreatedAt) })
	return classes, nil
}

func (repo *classRepository) matches(cls class.Class, filter *class.QueryFilter) bool {
	if filter.Search != "" {
		search := strings.ToLower(filter.Search)
		if !strings.Contains(strings.ToLower(cls.Name), search) &&
			!strings.Contains(strings.ToLower(cls.Code), search) {
			return false
		}
	}
	if filter.Term != "" && cls.Term != filter.Term {
		return false
	}
	if filter.InstructorID != "" && cls.InstructorID != filter.InstructorID {
		return false
	}
	if filter.StudentID != "" {
		var enrolled bool
		for _, enr := range repo.db.enrollments {
			if enr.ClassID == cls.ID && enr.StudentID == filter.StudentID {
				enrolled = true
				break
			}
		}
		if !enrolled {
			return false
		}
	}
	return true
}

func (repo *classRepository) GetClassByID(_ context.Context, id string, _ ...core.DBExecutor) (class.Class, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if cls, ok := repo.db.classes[id]; ok {
		return *cls, nil
	}
	return class.Class{}, class.ErrNotFound
}

func (repo *classRepository) UpdateClass(_ context.Context, cls class.Class, _ ...core.DBExecutor) (class.Class, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.classes[cls.ID]
	if !ok {
		return class.Class{}, class.ErrNotFound
	}
	orig.Name = cls.Name
	orig.Code = cls.Code
	orig.Term = cls.Term
	orig.InstructorID = cls.InstructorID
	orig.UpdatedAt = cls.UpdatedAt
	return *orig, nil
}

func (repo *classRepository) DeleteClassesByID(_ context.Context, ids []string, _ ...core.DBExecutor) (int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	var cnt int
	for _, id := range ids {
		if _, ok := repo.db.classes[id]; ok {
			delete(repo.db.classes, id)
			cnt++
		}
	}
	return cnt, nil
}

func (repo *classRepository) CreateEnrollment(_ context.Context, enr class.Enrollment, _ ...core.DBExecutor) (class.Enrollment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	enr.ID = uuid.New().String()
	repo.db.enrollments[enr.ID] = &enr
	return enr, nil
}

func (repo *classRepository) QueryEnrollments(_ context.Context, classID string, _ ...core.DBExecutor) ([]class.Enrollment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	enrs := make([]class.Enrollment, 0)
	for _, enr := range repo.db.enrollments {
		if enr.ClassID == classID {
			enrs = append(enrs, *enr)
		}
	}
	sort.Slice(enrs, func(i, j int) bool {
		if enrs[i].CreatedAt.Equal(enrs[j].CreatedAt) {
			return enrs[i].ID < enrs[j].ID
		}
		return enrs[i].CreatedAt.Before(enrs[j].CreatedAt)
	})
	return enrs, nil
}

func (repo *classRepository) GetEnrollmentByID(_ context.Context, id string, _ ...core.DBExecutor) (class.Enrollment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if enr, ok := repo.db.enrollments[id]; ok {
		return *enr, nil
	}
	return class.Enrollment{}, class.ErrEnrollmentNotFound
}

func (repo *classRepository) SetEnrollmentContract(_ context.Context, id, contractID string, _ ...core.DBExecutor) (class.Enrollment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	enr, ok := repo.db.enrollments[id]
	if !ok {
		return class.Enrollment{}, class.ErrEnrollmentNotFound
	}
	enr.ContractID = contractID
	return *enr, nil
}

func (repo *classRepository) DeleteEnrollment(_ context.Context, id string, _ ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	delete(repo.db.enrollments, id)
	return nil
}
