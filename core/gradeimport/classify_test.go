package gradeimport

import (
	"reflect"
	"testing"
)

func TestClassify(t *testing.T) {
	cfg := DefaultClassifierConfig()

	tests := []struct {
		name           string
		header         []string
		wantIdentity   []string
		wantSummary    []string
		wantCandidates []string
	}{
		{
			name:           "canvas export",
			header:         []string{"Name", "ID", "SIS Login ID", "HW1", "HW2", "Current Score"},
			wantIdentity:   []string{"SIS Login ID", "ID", "Name"},
			wantSummary:    []string{"Current Score"},
			wantCandidates: []string{"HW1", "HW2"},
		},
		{
			name:           "identity matched case-insensitively",
			header:         []string{"student", "sis login id", "Quiz 1"},
			wantIdentity:   []string{"sis login id", "student"},
			wantCandidates: []string{"Quiz 1"},
		},
		{
			name:           "summary matched by substring",
			header:         []string{"Student", "Unposted Current Score", "Final Grade (read only)"},
			wantIdentity:   []string{"Student"},
			wantSummary:    []string{"Unposted Current Score", "Final Grade (read only)"},
		},
		{
			name:           "no identity columns",
			header:         []string{"HW1", "HW2"},
			wantCandidates: []string{"HW1", "HW2"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cls := Classify(tt.header, cfg)
			if !reflect.DeepEqual(cls.Identity, tt.wantIdentity) {
				t.Errorf("identity = %v; want %v", cls.Identity, tt.wantIdentity)
			}
			if !reflect.DeepEqual(cls.Summary, tt.wantSummary) {
				t.Errorf("summary = %v; want %v", cls.Summary, tt.wantSummary)
			}
			if !reflect.DeepEqual(cls.Candidates, tt.wantCandidates) {
				t.Errorf("candidates = %v; want %v", cls.Candidates, tt.wantCandidates)
			}
		})
	}
}
