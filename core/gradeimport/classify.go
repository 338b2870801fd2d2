package gradeimport

import "strings"

type (
	// ClassifierConfig drives column classification; passed in explicitly
	// so the classifier stays pure and testable.
	ClassifierConfig struct {
		// IdentityColumns are matched by exact, case-insensitive name,
		// in order of resolution preference.
		IdentityColumns []string
		// SummaryMarkers are matched by case-insensitive substring.
		SummaryMarkers []string
	}

	Classification struct {
		Identity   []string // identity columns present in the header, config order
		Summary    []string // summary columns, header order
		Candidates []string // candidate assignment columns, header order
	}
)

// DefaultClassifierConfig matches the Canvas grade-export convention.
func DefaultClassifierConfig() ClassifierConfig {
	return ClassifierConfig{
		IdentityColumns: []string{
			"SIS Login ID",
			"Login ID",
			"SIS User ID",
			"ID",
			"Student",
			"Name",
			"Section",
			"Integration ID",
			"Root Account",
		},
		SummaryMarkers: []string{
			"Current Score",
			"Final Score",
			"Current Grade",
			"Final Grade",
			"Current Points",
			"Final Points",
			"Unposted",
		},
	}
}

// Classify splits the header into identity, summary and candidate
// assignment columns. Identity beats summary if a name somehow matches both.
func Classify(header []string, cfg ClassifierConfig) Classification {
	var cls Classification

	identity := make(map[string]bool, len(header))
	for _, name := range cfg.IdentityColumns {
		for _, col := range header {
			if strings.EqualFold(col, name) && !identity[col] {
				identity[col] = true
				cls.Identity = append(cls.Identity, col)
			}
		}
	}

	for _, col := range header {
		if identity[col] {
			continue
		}
		if isSummary(col, cfg.SummaryMarkers) {
			cls.Summary = append(cls.Summary, col)
		} else {
			cls.Candidates = append(cls.Candidates, col)
		}
	}
	return cls
}

func isSummary(col string, markers []string) bool {
	lcol := strings.ToLower(col)
	for _, marker := range markers {
		if strings.Contains(lcol, strings.ToLower(marker)) {
			return true
		}
	}
	return false
}
