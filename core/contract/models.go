package contract

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/alama/core"
)

// Contract is one tier of a class's criterion-referenced grading scheme;
// a student commits to a Contract ("I am working for an A") and the
// assignments tagged with that tier define what they must complete.
type Contract struct {
	ID          string    `json:"id"`
	ClassID     string    `json:"class_id"`
	Grade       string    `json:"grade"` // tier letter, e.g. "A"
	Description string    `json:"description"`
	Position    int       `json:"position"`
	CreatedAt   time.Time `json:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at"` // UTC
}

type NewContract struct {
	Grade       string `json:"grade" validate:"required,max=2"`
	Description string `json:"description"`
}

func (nc *NewContract) Validate(validate *validator.Validate) error {
	nc.Grade = strings.ToUpper(core.CleanString(nc.Grade))
	nc.Description = core.CleanString(nc.Description)
	return validate.Struct(nc)
}

type UpdateContract struct {
	Grade       string `json:"grade" validate:"omitempty,max=2"`
	Description string `json:"description"`
}

func (uc *UpdateContract) Validate(orig Contract, validate *validator.Validate) error {
	if grade := strings.ToUpper(core.CleanString(uc.Grade)); grade != "" {
		uc.Grade = grade
	} else {
		uc.Grade = orig.Grade
	}
	if desc := core.CleanString(uc.Description); desc != "" {
		uc.Description = desc
	} else {
		uc.Description = orig.Description
	}
	return validate.Struct(uc)
}
