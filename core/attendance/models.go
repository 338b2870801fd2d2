package attendance

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/alama/core"
)

// Statuses
const (
	StatusPresent = "present"
	StatusAbsent  = "absent"
	StatusLate    = "late"
	StatusExcused = "excused"
)

// Record is one roll-call entry for a student in a class session.
// Engagement is the instructor's 0-5 participation score for the session.
type Record struct {
	ID         string    `json:"id"`
	ClassID    string    `json:"class_id"`
	StudentID  string    `json:"student_id"`
	Date       time.Time `json:"date"`
	Status     string    `json:"status"`
	Engagement int       `json:"engagement"`
	Note       string    `json:"note,omitempty"`
	CreatedAt  time.Time `json:"created_at"` // UTC
}

type NewRecord struct {
	StudentID  string    `json:"student_id" validate:"required,uuid4"`
	Date       time.Time `json:"date" validate:"required"`
	Status     string    `json:"status" validate:"required,oneof=present absent late excused"`
	Engagement int       `json:"engagement" validate:"min=0,max=5"`
	Note       string    `json:"note"`
}

func (nr *NewRecord) Validate(validate *validator.Validate) error {
	nr.Status = core.CleanString(nr.Status, true /* lower */)
	nr.Note = core.CleanString(nr.Note)
	return validate.Struct(nr)
}

// Summary aggregates one student's attendance and engagement in a class.
type Summary struct {
	StudentID      string  `json:"student_id"`
	Present        int     `json:"present"`
	Absent         int     `json:"absent"`
	Late           int     `json:"late"`
	Excused        int     `json:"excused"`
	MeanEngagement float64 `json:"mean_engagement"`
}
