package gradeimport

import (
	"reflect"
	"strings"
	"testing"
)

func TestParseSheet(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		wantHeader []string
		wantRows   []Row
		wantErr    error
	}{
		{name: "empty", raw: "", wantErr: ErrMalformedInput},
		{name: "header only", raw: "Student,HW1\n", wantErr: ErrMalformedInput},
		{name: "blank lines only", raw: "\n\n  \n", wantErr: ErrMalformedInput},
		{
			name:       "simple",
			raw:        "Student,HW1\nAda Lovelace,Completed\n",
			wantHeader: []string{"Student", "HW1"},
			wantRows:   []Row{{"Student": "Ada Lovelace", "HW1": "Completed"}},
		},
		{
			name:       "crlf",
			raw:        "Student,HW1\r\nAda Lovelace,Completed\r\n",
			wantHeader: []string{"Student", "HW1"},
			wantRows:   []Row{{"Student": "Ada Lovelace", "HW1": "Completed"}},
		},
		{
			name:       "quoted field with embedded delimiter",
			raw:        "Student,HW1\n\"Lovelace, Ada\",Completed\n",
			wantHeader: []string{"Student", "HW1"},
			wantRows:   []Row{{"Student": "Lovelace, Ada", "HW1": "Completed"}},
		},
		{
			name:       "escaped quote inside quoted field",
			raw:        "Student,HW1\n\"Ada \"\"The Countess\"\" Lovelace\",Completed\n",
			wantHeader: []string{"Student", "HW1"},
			wantRows:   []Row{{"Student": `Ada "The Countess" Lovelace`, "HW1": "Completed"}},
		},
		{
			name:       "field whitespace trimmed",
			raw:        "Student , HW1\n  Ada Lovelace ,  Completed \n",
			wantHeader: []string{"Student", "HW1"},
			wantRows:   []Row{{"Student": "Ada Lovelace", "HW1": "Completed"}},
		},
		{
			name:       "missing trailing fields become empty",
			raw:        "Student,HW1,HW2\nAda Lovelace,Completed\n",
			wantHeader: []string{"Student", "HW1", "HW2"},
			wantRows:   []Row{{"Student": "Ada Lovelace", "HW1": "Completed", "HW2": ""}},
		},
		{
			name:       "interior blank lines skipped",
			raw:        "Student,HW1\n\nAda Lovelace,Completed\n\n",
			wantHeader: []string{"Student", "HW1"},
			wantRows:   []Row{{"Student": "Ada Lovelace", "HW1": "Completed"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sheet, err := ParseSheet(tt.raw)
			if err != tt.wantErr {
				t.Fatalf("ParseSheet() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				return
			}
			if !reflect.DeepEqual(sheet.Header, tt.wantHeader) {
				t.Errorf("header = %v; want %v", sheet.Header, tt.wantHeader)
			}
			if !reflect.DeepEqual(sheet.Rows, tt.wantRows) {
				t.Errorf("rows = %v; want %v", sheet.Rows, tt.wantRows)
			}
		})
	}
}

// Quoted values containing delimiters and quotes must round-trip exactly.
func TestParseSheetRoundTrip(t *testing.T) {
	values := []string{
		"plain",
		"with, comma",
		`with "quotes"`,
		`mixed, "both", things`,
	}
	raw := "Col\n"
	for _, v := range values {
		raw += `"` + strings.ReplaceAll(v, `"`, `""`) + `"` + "\n"
	}

	sheet, err := ParseSheet(raw)
	if err != nil {
		t.Fatalf("ParseSheet(): %v", err)
	}
	for i, v := range values {
		if got := sheet.Rows[i]["Col"]; got != v {
			t.Errorf("row %d = %q; want %q", i, got, v)
		}
	}
}
