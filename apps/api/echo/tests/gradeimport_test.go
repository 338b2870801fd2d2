package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	. "github.com/trezcool/alama/apps/api/echo"
	"github.com/trezcool/alama/core/audit"
	"github.com/trezcool/alama/core/gradeimport"
	"github.com/trezcool/alama/core/user"
	testutil "github.com/trezcool/alama/tests"
)

var testSheet = "Student,ID,SIS User ID,SIS Login ID,Section,Current Score,Homework 1,Quiz 1\n" +
	"Hero,1,SIS001,hero,A,95,Completed,\n" +
	"Zero,2,SIS002,zero,A,80,Completed,Good\n" +
	"Ghost,3,SIS999,ghost,A,10,Completed,\n"

type previewResponse struct {
	Mappings []gradeimport.ColumnMapping `json:"mappings"`
	gradeimport.Preview
}

func Test_gradeImportApi_preview(t *testing.T) {
	app := setup(t)

	instructor := testutil.CreateUser(t, usrRepo, "Instructor", "instr", "instr@test.cd", "", []string{user.RoleInstructor}, true)
	rival := testutil.CreateUser(t, usrRepo, "Rival", "rival", "rival@test.cd", "", []string{user.RoleInstructor}, true)
	hero := testutil.CreateStudent(t, usrRepo, "Hero", "hero", "SIS001")
	zero := testutil.CreateStudent(t, usrRepo, "Zero", "zero", "SIS002")

	cls := testutil.CreateClass(t, classRepo, "Intro to Go", "go101", "Fall 2021", instructor.ID)
	testutil.Enroll(t, classRepo, cls.ID, hero.ID)
	testutil.Enroll(t, classRepo, cls.ID, zero.ID)
	hw := testutil.CreateAssignment(t, assignmentRepo, cls.ID, "Homework 1")
	quiz := testutil.CreateAssignment(t, assignmentRepo, cls.ID, "Quiz 1")

	// hero's homework grade is already stored; the import must not re-propose it
	testutil.SetProgress(t, progressRepo, cls.ID, hero.ID, hw.ID, "Completed")

	path := "/v1/classes/" + cls.ID + "/grade-import/preview"
	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Student forbidden", token: getToken(t, hero), wantCode: http.StatusForbidden,
			body:     marchallObj(t, GradeImportPreviewRequest{Sheet: testSheet}),
			wantData: marchallObj(t, errForbidden),
		},
		{
			name: "Non-owner instructor forbidden", token: getToken(t, rival), wantCode: http.StatusForbidden,
			body:     marchallObj(t, GradeImportPreviewRequest{Sheet: testSheet}),
			wantData: marchallObj(t, errForbidden),
		},
		{
			name: "required fields", token: getToken(t, instructor), wantCode: http.StatusBadRequest,
			body:     marchallObj(t, GradeImportPreviewRequest{}),
			wantData: marchallObj(t, map[string]string{"sheet": "this field is required"}),
		},
		{
			name: "malformed sheet", token: getToken(t, instructor), wantCode: http.StatusBadRequest,
			body:     marchallObj(t, GradeImportPreviewRequest{Sheet: "Student,Homework 1\n"}),
			wantData: marchallObj(t, map[string]string{"sheet": gradeimport.ErrMalformedInput.Error()}),
		},
		{
			name: "Owner previews", token: getToken(t, instructor), wantCode: http.StatusOK,
			body: marchallObj(t, GradeImportPreviewRequest{Sheet: testSheet}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = path

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)

			if tt.wantCode != http.StatusOK {
				checkCodeAndData(t, tt, rec)
				return
			}
			if rec.Code != tt.wantCode {
				t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
			}
			var resp previewResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("json.Unmarshal() failed! err %v", err)
			}

			// both assignment columns map confidently to their assignments
			if len(resp.Mappings) != 2 {
				t.Fatalf("len(mappings) = %d; want 2; %+v", len(resp.Mappings), resp.Mappings)
			}
			wantMappings := map[string]string{"Homework 1": hw.ID, "Quiz 1": quiz.ID}
			for _, m := range resp.Mappings {
				if m.AssignmentID != wantMappings[m.Column] {
					t.Errorf("column %q mapped to %q; want %q", m.Column, m.AssignmentID, wantMappings[m.Column])
				}
				if !m.Confident {
					t.Errorf("column %q not confident (score %d)", m.Column, m.Score)
				}
			}

			// hero's stored homework grade is unchanged and hero's blank quiz
			// cell is skipped, leaving: zero's homework, zero's quiz
			wantChanges := map[gradeimport.GradeChange]bool{
				{StudentID: zero.ID, AssignmentID: hw.ID, NewValue: "Completed"}: true,
				{StudentID: zero.ID, AssignmentID: quiz.ID, NewValue: "Good"}:   true,
			}
			if len(resp.Changes) != len(wantChanges) {
				t.Fatalf("len(changes) = %d; want %d; %+v", len(resp.Changes), len(wantChanges), resp.Changes)
			}
			for _, chg := range resp.Changes {
				if !wantChanges[chg] {
					t.Errorf("unexpected change %+v", chg)
				}
			}

			// the unknown third row is reported, not dropped
			if len(resp.UnmatchedRows) != 1 {
				t.Fatalf("len(unmatched_rows) = %d; want 1; %+v", len(resp.UnmatchedRows), resp.UnmatchedRows)
			}
			if diag := resp.UnmatchedRows[0]; diag.Value != "ghost" || diag.Kind != gradeimport.DiagnosticRow {
				t.Errorf("diagnostic = %+v; want row ghost", diag)
			}
		})
	}
}

func Test_gradeImportApi_commit(t *testing.T) {
	app := setup(t)

	instructor := testutil.CreateUser(t, usrRepo, "Instructor", "instr", "instr@test.cd", "", []string{user.RoleInstructor}, true)
	hero := testutil.CreateStudent(t, usrRepo, "Hero", "hero", "SIS001")
	zero := testutil.CreateStudent(t, usrRepo, "Zero", "zero", "SIS002")

	cls := testutil.CreateClass(t, classRepo, "Intro to Go", "go101", "Fall 2021", instructor.ID)
	testutil.Enroll(t, classRepo, cls.ID, hero.ID)
	testutil.Enroll(t, classRepo, cls.ID, zero.ID)
	hw := testutil.CreateAssignment(t, assignmentRepo, cls.ID, "Homework 1")

	otherCls := testutil.CreateClass(t, classRepo, "Advanced Go", "go201", "Fall 2021", instructor.ID)
	otherAsg := testutil.CreateAssignment(t, assignmentRepo, otherCls.ID, "Homework 1")

	path := "/v1/classes/" + cls.ID + "/grade-import/commit"
	token := getToken(t, instructor)

	t.Run("changes are required", func(t *testing.T) {
		body := marchallObj(t, GradeImportCommitRequest{})
		req, rec := newAuthRequest(http.MethodPost, path, token, body)
		app.ServeHTTP(rec, req)
		tt := httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"changes": "this field is required"}),
		}
		checkCodeAndData(t, tt, rec)
	})

	t.Run("commit applies changes and isolates failures", func(t *testing.T) {
		body := marchallObj(t, GradeImportCommitRequest{Changes: []gradeimport.GradeChange{
			{StudentID: hero.ID, AssignmentID: hw.ID, NewValue: "Completed"},
			{StudentID: zero.ID, AssignmentID: hw.ID, NewValue: "Good"},
			{StudentID: hero.ID, AssignmentID: otherAsg.ID, NewValue: "Excellent"}, // not this class's assignment
		}})
		req, rec := newAuthRequest(http.MethodPost, path, token, body)
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; want 200; body %s", rec.Code, rec.Body.String())
		}
		var res gradeimport.Result
		if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
			t.Fatalf("json.Unmarshal() failed! err %v", err)
		}
		if res.ProcessedGrades != 2 {
			t.Errorf("processed_grades = %d; want 2", res.ProcessedGrades)
		}
		if res.ProcessedStudents != 2 {
			t.Errorf("processed_students = %d; want 2", res.ProcessedStudents)
		}
		if len(res.Errors) != 1 {
			t.Fatalf("len(errors) = %d; want 1; %+v", len(res.Errors), res.Errors)
		}
		if res.Errors[0].Item.AssignmentID != otherAsg.ID {
			t.Errorf("failed item = %+v; want assignment %s", res.Errors[0].Item, otherAsg.ID)
		}

		// applied changes landed as progress records
		ctx := context.Background()
		recs, err := progressRepo.QueryRecordsByClass(ctx, cls.ID)
		if err != nil {
			t.Fatalf("QueryRecordsByClass() failed: %v", err)
		}
		if len(recs) != 2 {
			t.Fatalf("len(recs) = %d; want 2", len(recs))
		}
		values := make(map[string]string, len(recs))
		for _, rec := range recs {
			values[rec.StudentID] = rec.Value
		}
		if values[hero.ID] != "Completed" || values[zero.ID] != "Good" {
			t.Errorf("values = %v", values)
		}

		// the import run is audited with its outcome
		entries, err := auditRepo.QueryEntries(ctx, &audit.QueryFilter{Action: audit.ActionGradeImport}, nil)
		if err != nil {
			t.Fatalf("QueryEntries() failed: %v", err)
		}
		if len(entries) != 1 {
			t.Fatalf("len(entries) = %d; want 1", len(entries))
		}
		entry := entries[0]
		if entry.ActorID != instructor.ID || entry.ObjectID != cls.ID {
			t.Errorf("entry = %+v; want actor %s object %s", entry, instructor.ID, cls.ID)
		}
		if entry.Detail != "imported 2 grades for 2 students" {
			t.Errorf("detail = %q", entry.Detail)
		}
	})
}
