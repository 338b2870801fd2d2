package gradeimport

type (
	// Target is an existing assignment the matcher may map a column to.
	// Callers must supply targets in a stable order (assignment creation
	// sequence); ties on score are broken by first-encountered target.
	Target struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}

	// ColumnMapping pairs an imported column with its best-scoring
	// assignment. Confident mappings (score >= threshold) are auto-selected;
	// the rest are surfaced for manual confirmation. A column maps to at
	// most one assignment.
	ColumnMapping struct {
		Column         string `json:"column"`
		AssignmentID   string `json:"assignment_id,omitempty"`
		AssignmentName string `json:"assignment_name,omitempty"`
		Score          int    `json:"score"`
		Confident      bool   `json:"confident"`
	}
)

// MatchColumns aligns candidate columns to existing assignments by
// normalized-string similarity. The threshold only decides the Confident
// flag; the score is always reported so callers can override.
func MatchColumns(columns []string, targets []Target, threshold int) []ColumnMapping {
	mappings := make([]ColumnMapping, 0, len(columns))
	for _, col := range columns {
		m := ColumnMapping{Column: col}
		for _, tgt := range targets {
			if score := Similarity(col, tgt.Name); score > m.Score {
				m.Score = score
				m.AssignmentID = tgt.ID
				m.AssignmentName = tgt.Name
			}
		}
		m.Confident = m.AssignmentID != "" && m.Score >= threshold
		mappings = append(mappings, m)
	}
	return mappings
}
