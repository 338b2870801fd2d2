package class

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/alama/core"
)

var (
	// errors
	ErrNotFound           = errors.New("class not found")
	ErrEnrollmentNotFound = errors.New("enrollment not found")
	ErrAlreadyEnrolled    = errors.New("student is already enrolled in this class")
)

type (
	Repository interface {
		CreateClass(ctx context.Context, cls Class, exec ...core.DBExecutor) (Class, error)
		QueryClasses(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Class, error)
		GetClassByID(ctx context.Context, id string, exec ...core.DBExecutor) (Class, error)
		UpdateClass(ctx context.Context, cls Class, exec ...core.DBExecutor) (Class, error)
		DeleteClassesByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error)

		CreateEnrollment(ctx context.Context, enr Enrollment, exec ...core.DBExecutor) (Enrollment, error)
		QueryEnrollments(ctx context.Context, classID string, exec ...core.DBExecutor) ([]Enrollment, error)
		GetEnrollmentByID(ctx context.Context, id string, exec ...core.DBExecutor) (Enrollment, error)
		SetEnrollmentContract(ctx context.Context, id, contractID string, exec ...core.DBExecutor) (Enrollment, error)
		DeleteEnrollment(ctx context.Context, id string, exec ...core.DBExecutor) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, nc NewClass) (Class, error) {
	now := time.Now().UTC()
	cls := Class{
		Name:         nc.Name,
		Code:         nc.Code,
		Term:         nc.Term,
		InstructorID: nc.InstructorID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	return svc.repo.CreateClass(ctx, cls)
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Class, error) {
	if ordering == nil {
		ordering = []core.DBOrdering{{Field: "created_at"}}
	}
	return svc.repo.QueryClasses(ctx, filter, ordering)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Class, error) {
	return svc.repo.GetClassByID(ctx, id)
}

func (svc *Service) Update(ctx context.Context, id string, uc UpdateClass) (Class, error) {
	cls := Class{
		ID:           id,
		Name:         uc.Name,
		Code:         uc.Code,
		Term:         uc.Term,
		InstructorID: uc.InstructorID,
		UpdatedAt:    time.Now().UTC(),
	}
	return svc.repo.UpdateClass(ctx, cls)
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	_, err := svc.repo.DeleteClassesByID(ctx, ids)
	return err
}

func (svc *Service) Enroll(ctx context.Context, classID string, ne NewEnrollment) (Enrollment, error) {
	enrs, err := svc.repo.QueryEnrollments(ctx, classID)
	if err != nil {
		return Enrollment{}, errors.Wrap(err, "querying enrollments")
	}
	for _, enr := range enrs {
		if enr.StudentID == ne.StudentID {
			return Enrollment{}, core.NewValidationError(
				ErrAlreadyEnrolled, core.FieldError{Field: "student_id", Error: ErrAlreadyEnrolled.Error()})
		}
	}

	enr := Enrollment{
		ClassID:    classID,
		StudentID:  ne.StudentID,
		ContractID: ne.ContractID,
		CreatedAt:  time.Now().UTC(),
	}
	return svc.repo.CreateEnrollment(ctx, enr)
}

func (svc *Service) Enrollments(ctx context.Context, classID string) ([]Enrollment, error) {
	return svc.repo.QueryEnrollments(ctx, classID)
}

func (svc *Service) GetEnrollment(ctx context.Context, id string) (Enrollment, error) {
	return svc.repo.GetEnrollmentByID(ctx, id)
}

// SelectContract sets (or changes) the grade contract on an enrollment.
func (svc *Service) SelectContract(ctx context.Context, enrollmentID, contractID string) (Enrollment, error) {
	return svc.repo.SetEnrollmentContract(ctx, enrollmentID, contractID)
}

func (svc *Service) Unenroll(ctx context.Context, id string) error {
	return svc.repo.DeleteEnrollment(ctx, id)
}
