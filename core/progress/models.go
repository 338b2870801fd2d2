package progress

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/alama/core"
)

// Record is a student's recorded status for one assignment.
// Value is free-form ("Completed", "Excellent", a score as text, ...);
// comparisons during grade import are done on the trimmed value.
type Record struct {
	ID           string    `json:"id"`
	ClassID      string    `json:"class_id"`
	StudentID    string    `json:"student_id"`
	AssignmentID string    `json:"assignment_id"`
	Value        string    `json:"value"`
	UpdatedAt    time.Time `json:"updated_at"` // UTC
}

// SetRecord upserts one progress cell.
type SetRecord struct {
	ClassID      string `json:"class_id" validate:"required,uuid4"`
	StudentID    string `json:"student_id" validate:"required,uuid4"`
	AssignmentID string `json:"assignment_id" validate:"required,uuid4"`
	Value        string `json:"value" validate:"required"`
}

func (sr *SetRecord) Validate(validate *validator.Validate) error {
	sr.Value = core.CleanString(sr.Value)
	return validate.Struct(sr)
}

// Event is pushed to WebSocket subscribers whenever a progress cell changes.
type Event struct {
	ClassID      string    `json:"class_id"`
	StudentID    string    `json:"student_id"`
	AssignmentID string    `json:"assignment_id"`
	Value        string    `json:"value"`
	ActorID      string    `json:"actor_id,omitempty"`
	At           time.Time `json:"at"` // UTC
}
