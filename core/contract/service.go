package contract

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/alama/core"
)

var (
	ErrNotFound       = errors.New("contract not found")
	ErrDuplicateGrade = errors.New("a contract with this grade already exists in this class")
)

type (
	Repository interface {
		// CreateContract assigns the next Position within the class.
		CreateContract(ctx context.Context, ct Contract, exec ...core.DBExecutor) (Contract, error)
		// QueryContractsByClass returns contracts ordered by (position, created_at, id).
		QueryContractsByClass(ctx context.Context, classID string, exec ...core.DBExecutor) ([]Contract, error)
		GetContractByID(ctx context.Context, id string, exec ...core.DBExecutor) (Contract, error)
		UpdateContract(ctx context.Context, ct Contract, exec ...core.DBExecutor) (Contract, error)
		DeleteContractsByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, classID string, nc NewContract) (Contract, error) {
	if err := svc.checkGradeUniqueness(ctx, classID, nc.Grade, ""); err != nil {
		return Contract{}, err
	}

	now := time.Now().UTC()
	ct := Contract{
		ClassID:     classID,
		Grade:       nc.Grade,
		Description: nc.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return svc.repo.CreateContract(ctx, ct)
}

func (svc *Service) QueryByClass(ctx context.Context, classID string) ([]Contract, error) {
	return svc.repo.QueryContractsByClass(ctx, classID)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Contract, error) {
	return svc.repo.GetContractByID(ctx, id)
}

func (svc *Service) Update(ctx context.Context, id string, uc UpdateContract) (Contract, error) {
	orig, err := svc.repo.GetContractByID(ctx, id)
	if err != nil {
		return Contract{}, err
	}
	if err := svc.checkGradeUniqueness(ctx, orig.ClassID, uc.Grade, orig.ID); err != nil {
		return Contract{}, err
	}
	orig.Grade = uc.Grade
	orig.Description = uc.Description
	orig.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateContract(ctx, orig)
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	_, err := svc.repo.DeleteContractsByID(ctx, ids)
	return err
}

// checkGradeUniqueness enforces one contract per grade tier within a class.
func (svc *Service) checkGradeUniqueness(ctx context.Context, classID, grade, excludedID string) error {
	contracts, err := svc.repo.QueryContractsByClass(ctx, classID)
	if err != nil {
		return errors.Wrap(err, "querying contracts")
	}
	for _, ct := range contracts {
		if ct.Grade == grade && ct.ID != excludedID {
			return core.NewValidationError(
				ErrDuplicateGrade, core.FieldError{Field: "grade", Error: ErrDuplicateGrade.Error()})
		}
	}
	return nil
}
