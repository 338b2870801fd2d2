package assignment

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/alama/core"
)

// Assignment is one gradeable item in a class. Position is the creation
// sequence within the class; it fixes the order assignments are fed to the
// grade-import matcher so tie-breaking stays deterministic.
type Assignment struct {
	ID        string    `json:"id"`
	ClassID   string    `json:"class_id"`
	Name      string    `json:"name"`
	Tier      string    `json:"tier,omitempty"` // contract grade it counts toward; empty = all tiers
	DueDate   null.Time `json:"due_date,omitempty"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

type NewAssignment struct {
	Name    string    `json:"name" validate:"required"`
	Tier    string    `json:"tier" validate:"omitempty,max=2"`
	DueDate null.Time `json:"due_date"`
}

func (na *NewAssignment) Validate(validate *validator.Validate) error {
	na.Name = core.CleanString(na.Name)
	na.Tier = core.CleanString(na.Tier)
	return validate.Struct(na)
}

type UpdateAssignment struct {
	Name    string    `json:"name"`
	Tier    string    `json:"tier" validate:"omitempty,max=2"`
	DueDate null.Time `json:"due_date"`
}

func (ua *UpdateAssignment) Validate(orig Assignment, validate *validator.Validate) error {
	if name := core.CleanString(ua.Name); name != "" {
		ua.Name = name
	} else {
		ua.Name = orig.Name
	}
	if tier := core.CleanString(ua.Tier); tier != "" {
		ua.Tier = tier
	} else {
		ua.Tier = orig.Tier
	}
	if !ua.DueDate.Valid {
		ua.DueDate = orig.DueDate
	}
	return validate.Struct(ua)
}
