package class

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/alama/core"
)

// Class is a course section taught by an instructor for one term.
type Class struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Code         string    `json:"code"`
	Term         string    `json:"term"`
	InstructorID string    `json:"instructor_id"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
}

// Enrollment ties a student to a Class; ContractID holds the grade contract
// the student selected (empty until they pick one).
type Enrollment struct {
	ID         string    `json:"id"`
	ClassID    string    `json:"class_id"`
	StudentID  string    `json:"student_id"`
	ContractID string    `json:"contract_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"` // UTC
}

type NewClass struct {
	Name         string `json:"name" validate:"required"`
	Code         string `json:"code" validate:"required,alphanum_"`
	Term         string `json:"term" validate:"required"`
	InstructorID string `json:"instructor_id" validate:"required,uuid4"`
}

func (nc *NewClass) Validate(validate *validator.Validate) error {
	nc.Name = core.CleanString(nc.Name)
	nc.Code = core.CleanString(nc.Code, true /* lower */)
	nc.Term = core.CleanString(nc.Term)
	return validate.Struct(nc)
}

type UpdateClass struct {
	Name         string `json:"name"`
	Code         string `json:"code" validate:"omitempty,alphanum_"`
	Term         string `json:"term"`
	InstructorID string `json:"instructor_id" validate:"omitempty,uuid4"`
}

func (uc *UpdateClass) Validate(orig Class, validate *validator.Validate) error {
	if name := core.CleanString(uc.Name); name != "" {
		uc.Name = name
	} else {
		uc.Name = orig.Name
	}
	if code := core.CleanString(uc.Code, true /* lower */); code != "" {
		uc.Code = code
	} else {
		uc.Code = orig.Code
	}
	if term := core.CleanString(uc.Term); term != "" {
		uc.Term = term
	} else {
		uc.Term = orig.Term
	}
	if uc.InstructorID == "" {
		uc.InstructorID = orig.InstructorID
	}
	return validate.Struct(uc)
}

type NewEnrollment struct {
	StudentID  string `json:"student_id" validate:"required,uuid4"`
	ContractID string `json:"contract_id" validate:"omitempty,uuid4"`
}

func (ne *NewEnrollment) Validate(validate *validator.Validate) error {
	return validate.Struct(ne)
}

type QueryFilter struct {
	Search       string `query:"search"`
	Term         string `query:"term"`
	InstructorID string `query:"instructor_id"`
	StudentID    string `query:"student_id"` // classes the student is enrolled in
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Term == "" && qf.InstructorID == "" && qf.StudentID == ""
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Term = core.CleanString(qf.Term)
}
