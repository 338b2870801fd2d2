package gradeimport

import "strings"

// Diagnostic kinds
const (
	DiagnosticRow    = "row"
	DiagnosticColumn = "column"
)

type (
	// Student is one roster entry rows are resolved against.
	Student struct {
		ID      string `json:"id"`
		Name    string `json:"name"`
		LoginID string `json:"login_id"`
		SISID   string `json:"sis_id"`
	}

	// GradeChange is one proposed mutation; immutable once computed and
	// consumed exactly once by the commit step. Only emitted when
	// OldValue != NewValue.
	GradeChange struct {
		StudentID    string `json:"student_id"`
		AssignmentID string `json:"assignment_id"`
		OldValue     string `json:"old_value"`
		NewValue     string `json:"new_value"`
	}

	// Diagnostic reports an unresolved reference: a row whose student or a
	// column whose assignment cannot be matched. Reported, never silently
	// dropped, and never aborts the rest of the preview.
	Diagnostic struct {
		Kind   string `json:"kind"`
		Value  string `json:"value"`
		Reason string `json:"reason"`
	}

	// Cell addresses one stored progress value.
	Cell struct {
		StudentID    string
		AssignmentID string
	}

	// Preview is the reviewable change-set of one import run; read-only,
	// discarded after the user commits or cancels.
	Preview struct {
		Changes          []GradeChange `json:"changes"`
		UnmatchedRows    []Diagnostic  `json:"unmatched_rows"`
		UnmatchedColumns []Diagnostic  `json:"unmatched_columns"`
	}
)

// BuildPreview cross-references each sheet row (resolved to a roster
// student via the identity columns) against stored progress for each mapped
// assignment. No-op changes are suppressed; empty imported cells are
// skipped so an import never blanks an existing grade.
func BuildPreview(sheet *Sheet, cls Classification, mappings []ColumnMapping, roster []Student, stored map[Cell]string) Preview {
	preview := Preview{
		Changes:          []GradeChange{},
		UnmatchedRows:    []Diagnostic{},
		UnmatchedColumns: []Diagnostic{},
	}

	var mapped []ColumnMapping
	for _, m := range mappings {
		if m.AssignmentID == "" {
			preview.UnmatchedColumns = append(preview.UnmatchedColumns, Diagnostic{
				Kind:   DiagnosticColumn,
				Value:  m.Column,
				Reason: "no matching assignment",
			})
			continue
		}
		mapped = append(mapped, m)
	}

	index := indexRoster(roster)
	for _, row := range sheet.Rows {
		studentID, ok := resolveStudent(row, cls.Identity, index)
		if !ok {
			preview.UnmatchedRows = append(preview.UnmatchedRows, Diagnostic{
				Kind:   DiagnosticRow,
				Value:  identityValue(row, cls.Identity),
				Reason: "student not found in roster",
			})
			continue
		}

		for _, m := range mapped {
			newVal := strings.TrimSpace(row[m.Column])
			if newVal == "" {
				continue
			}
			oldVal := stored[Cell{StudentID: studentID, AssignmentID: m.AssignmentID}]
			if newVal == strings.TrimSpace(oldVal) {
				continue // no-op suppression
			}
			preview.Changes = append(preview.Changes, GradeChange{
				StudentID:    studentID,
				AssignmentID: m.AssignmentID,
				OldValue:     oldVal,
				NewValue:     newVal,
			})
		}
	}
	return preview
}

// indexRoster builds a case-insensitive lookup over login ID, SIS ID and
// full name. Keys claimed by more than one student are dropped; an
// ambiguous identity must not silently pick a student.
func indexRoster(roster []Student) map[string]string {
	index := make(map[string]string, len(roster)*3)
	ambiguous := make(map[string]bool)
	add := func(key, id string) {
		if key = normalize(key); key == "" || ambiguous[key] {
			return
		}
		if existing, ok := index[key]; ok && existing != id {
			delete(index, key)
			ambiguous[key] = true
			return
		}
		index[key] = id
	}
	for _, s := range roster {
		add(s.LoginID, s.ID)
		add(s.SISID, s.ID)
		add(s.Name, s.ID)
	}
	return index
}

func resolveStudent(row Row, identityCols []string, index map[string]string) (string, bool) {
	for _, col := range identityCols {
		if id, ok := index[normalize(row[col])]; ok {
			return id, true
		}
	}
	return "", false
}

// identityValue returns the row's first non-empty identity value, for
// diagnostics.
func identityValue(row Row, identityCols []string) string {
	for _, col := range identityCols {
		if v := strings.TrimSpace(row[col]); v != "" {
			return v
		}
	}
	return "(blank)"
}
