package gradeimport

import "context"

type (
	// Writer persists one approved GradeChange; implementations write the
	// progress record and its audit entry.
	Writer interface {
		Apply(ctx context.Context, chg GradeChange) error
	}

	// ItemError isolates one failed change; the rest of the batch is
	// unaffected.
	ItemError struct {
		Item   GradeChange `json:"item"`
		Reason string      `json:"reason"`
	}

	Result struct {
		ProcessedStudents int         `json:"processed_students"`
		ProcessedGrades   int         `json:"processed_grades"`
		Errors            []ItemError `json:"errors"`
	}
)

// Commit applies a caller-approved subset of changes as a batch. Failure
// isolation is per change, not all-or-nothing: items already applied stay
// applied and each failure is reported in the result.
func Commit(ctx context.Context, changes []GradeChange, w Writer) Result {
	res := Result{Errors: []ItemError{}}
	students := make(map[string]bool)
	for _, chg := range changes {
		if err := w.Apply(ctx, chg); err != nil {
			res.Errors = append(res.Errors, ItemError{Item: chg, Reason: err.Error()})
			continue
		}
		res.ProcessedGrades++
		students[chg.StudentID] = true
	}
	res.ProcessedStudents = len(students)
	return res
}
