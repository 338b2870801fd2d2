package assignment

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/alama/core"
)

var ErrNotFound = errors.New("assignment not found")

type (
	Repository interface {
		// CreateAssignment assigns the next Position within the class.
		CreateAssignment(ctx context.Context, a Assignment, exec ...core.DBExecutor) (Assignment, error)
		// QueryAssignmentsByClass returns assignments ordered by (position, created_at, id);
		// the grade-import matcher relies on this ordering being stable.
		QueryAssignmentsByClass(ctx context.Context, classID string, exec ...core.DBExecutor) ([]Assignment, error)
		GetAssignmentByID(ctx context.Context, id string, exec ...core.DBExecutor) (Assignment, error)
		UpdateAssignment(ctx context.Context, a Assignment, exec ...core.DBExecutor) (Assignment, error)
		DeleteAssignmentsByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, classID string, na NewAssignment) (Assignment, error) {
	now := time.Now().UTC()
	a := Assignment{
		ClassID:   classID,
		Name:      na.Name,
		Tier:      na.Tier,
		DueDate:   na.DueDate,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return svc.repo.CreateAssignment(ctx, a)
}

func (svc *Service) QueryByClass(ctx context.Context, classID string) ([]Assignment, error) {
	return svc.repo.QueryAssignmentsByClass(ctx, classID)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Assignment, error) {
	return svc.repo.GetAssignmentByID(ctx, id)
}

func (svc *Service) Update(ctx context.Context, id string, ua UpdateAssignment) (Assignment, error) {
	orig, err := svc.repo.GetAssignmentByID(ctx, id)
	if err != nil {
		return Assignment{}, err
	}
	orig.Name = ua.Name
	orig.Tier = ua.Tier
	orig.DueDate = ua.DueDate
	orig.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateAssignment(ctx, orig)
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	_, err := svc.repo.DeleteAssignmentsByID(ctx, ids)
	return err
}
