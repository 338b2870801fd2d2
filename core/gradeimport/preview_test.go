package gradeimport

import (
	"context"
	"testing"
)

var previewRoster = []Student{
	{ID: "s1", Name: "Ada Lovelace", LoginID: "alovelace", SISID: "1001"},
	{ID: "s2", Name: "Grace Hopper", LoginID: "ghopper", SISID: "1002"},
}

func previewFixture(t *testing.T, raw string) (*Sheet, Classification, []ColumnMapping) {
	t.Helper()
	sheet, err := ParseSheet(raw)
	if err != nil {
		t.Fatalf("ParseSheet(): %v", err)
	}
	cls := Classify(sheet.Header, DefaultClassifierConfig())
	mappings := MatchColumns(cls.Candidates, []Target{
		{ID: "a1", Name: "HW1"},
		{ID: "a2", Name: "HW2"},
	}, 70)
	return sheet, cls, mappings
}

func TestBuildPreview(t *testing.T) {
	sheet, cls, mappings := previewFixture(t,
		"Student,SIS Login ID,HW1,HW2\n"+
			"Ada Lovelace,alovelace,Completed,\n"+
			"Grace Hopper,ghopper,Completed,Late\n")

	stored := map[Cell]string{
		{StudentID: "s1", AssignmentID: "a1"}: "Completed", // unchanged
		{StudentID: "s2", AssignmentID: "a2"}: "Missing",
	}

	preview := BuildPreview(sheet, cls, mappings, previewRoster, stored)

	want := []GradeChange{
		{StudentID: "s2", AssignmentID: "a1", OldValue: "", NewValue: "Completed"},
		{StudentID: "s2", AssignmentID: "a2", OldValue: "Missing", NewValue: "Late"},
	}
	if len(preview.Changes) != len(want) {
		t.Fatalf("got %d changes; want %d: %+v", len(preview.Changes), len(want), preview.Changes)
	}
	for i, chg := range preview.Changes {
		if chg != want[i] {
			t.Errorf("change %d = %+v; want %+v", i, chg, want[i])
		}
	}
	if len(preview.UnmatchedRows) != 0 || len(preview.UnmatchedColumns) != 0 {
		t.Errorf("unexpected diagnostics: %+v %+v", preview.UnmatchedRows, preview.UnmatchedColumns)
	}
}

// An empty imported cell must never blank an existing grade.
func TestBuildPreviewEmptyCellSkipped(t *testing.T) {
	sheet, cls, mappings := previewFixture(t,
		"SIS Login ID,HW1\nalovelace,\n")

	stored := map[Cell]string{
		{StudentID: "s1", AssignmentID: "a1"}: "Completed",
	}
	preview := BuildPreview(sheet, cls, mappings, previewRoster, stored)
	if len(preview.Changes) != 0 {
		t.Errorf("empty cell produced changes: %+v", preview.Changes)
	}
}

func TestBuildPreviewDiagnostics(t *testing.T) {
	sheet, cls, mappings := previewFixture(t,
		"Student,SIS Login ID,HW1,Extra Credit Essay\n"+
			"Ada Lovelace,alovelace,Completed,Done\n"+
			"Alan Turing,aturing,Completed,Done\n")

	preview := BuildPreview(sheet, cls, mappings, previewRoster, map[Cell]string{})

	if len(preview.UnmatchedColumns) != 1 || preview.UnmatchedColumns[0].Value != "Extra Credit Essay" {
		t.Errorf("unmatched columns = %+v", preview.UnmatchedColumns)
	}
	if len(preview.UnmatchedRows) != 1 || preview.UnmatchedRows[0].Value != "aturing" {
		t.Errorf("unmatched rows = %+v", preview.UnmatchedRows)
	}
	// the resolvable row still produces its change
	if len(preview.Changes) != 1 || preview.Changes[0].StudentID != "s1" {
		t.Errorf("changes = %+v", preview.Changes)
	}
}

// A name shared by two students must not resolve to either of them.
func TestBuildPreviewAmbiguousIdentity(t *testing.T) {
	roster := []Student{
		{ID: "s1", Name: "Jo Smith", LoginID: "jsmith1"},
		{ID: "s2", Name: "Jo Smith", LoginID: "jsmith2"},
	}
	sheet, cls, mappings := previewFixture(t,
		"Student,HW1\nJo Smith,Completed\n")

	preview := BuildPreview(sheet, cls, mappings, roster, map[Cell]string{})
	if len(preview.Changes) != 0 {
		t.Errorf("ambiguous name resolved: %+v", preview.Changes)
	}
	if len(preview.UnmatchedRows) != 1 {
		t.Errorf("unmatched rows = %+v", preview.UnmatchedRows)
	}
}

// Committing a preview then rebuilding it must yield no change for the
// committed cells.
func TestBuildPreviewAfterCommit(t *testing.T) {
	raw := "SIS Login ID,HW1,HW2\n" +
		"alovelace,Completed,Late\n" +
		"ghopper,Missing,Completed\n"
	sheet, cls, mappings := previewFixture(t, raw)

	stored := map[Cell]string{}
	preview := BuildPreview(sheet, cls, mappings, previewRoster, stored)
	if len(preview.Changes) != 4 {
		t.Fatalf("got %d changes; want 4", len(preview.Changes))
	}

	store := &storeWriter{stored: stored}
	res := Commit(context.Background(), preview.Changes, store)
	if res.ProcessedGrades != 4 || res.ProcessedStudents != 2 {
		t.Fatalf("commit result = %+v", res)
	}

	again := BuildPreview(sheet, cls, mappings, previewRoster, stored)
	if len(again.Changes) != 0 {
		t.Errorf("re-preview after commit produced changes: %+v", again.Changes)
	}
}

type storeWriter struct {
	stored map[Cell]string
	failAt int // 1-based index of the call that fails; 0 = never
	calls  int
}

func (w *storeWriter) Apply(_ context.Context, chg GradeChange) error {
	w.calls++
	if w.failAt != 0 && w.calls == w.failAt {
		return errStale
	}
	w.stored[Cell{StudentID: chg.StudentID, AssignmentID: chg.AssignmentID}] = chg.NewValue
	return nil
}
