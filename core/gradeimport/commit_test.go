package gradeimport

import (
	"context"
	"errors"
	"testing"
)

var errStale = errors.New("progress record was modified concurrently")

// A single failing item must not abort the batch: items applied before and
// after the failure stay applied, and the failure is reported.
func TestCommitIsolatesFailures(t *testing.T) {
	changes := []GradeChange{
		{StudentID: "s1", AssignmentID: "a1", NewValue: "Completed"},
		{StudentID: "s1", AssignmentID: "a2", NewValue: "Late"},
		{StudentID: "s2", AssignmentID: "a1", NewValue: "Completed"},
		{StudentID: "s2", AssignmentID: "a2", NewValue: "Missing"},
		{StudentID: "s3", AssignmentID: "a1", NewValue: "Completed"},
	}
	store := &storeWriter{stored: map[Cell]string{}, failAt: 3}

	res := Commit(context.Background(), changes, store)

	if res.ProcessedGrades != 4 {
		t.Errorf("processed grades = %d; want 4", res.ProcessedGrades)
	}
	if res.ProcessedStudents != 3 {
		t.Errorf("processed students = %d; want 3", res.ProcessedStudents)
	}
	if len(res.Errors) != 1 {
		t.Fatalf("errors = %+v; want 1", res.Errors)
	}
	if e := res.Errors[0]; e.Item != changes[2] || e.Reason != errStale.Error() {
		t.Errorf("error = %+v", e)
	}

	// the failed cell was not written, the others were
	if _, ok := store.stored[Cell{StudentID: "s2", AssignmentID: "a1"}]; ok {
		t.Error("failed change was persisted")
	}
	if got := store.stored[Cell{StudentID: "s3", AssignmentID: "a1"}]; got != "Completed" {
		t.Errorf("change after failure not persisted: %q", got)
	}
}

func TestCommitEmpty(t *testing.T) {
	res := Commit(context.Background(), nil, &storeWriter{stored: map[Cell]string{}})
	if res.ProcessedGrades != 0 || res.ProcessedStudents != 0 || len(res.Errors) != 0 {
		t.Errorf("result = %+v", res)
	}
}
