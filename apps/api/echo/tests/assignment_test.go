package tests

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/trezcool/alama/core/assignment"
	"github.com/trezcool/alama/core/user"
	testutil "github.com/trezcool/alama/tests"
)

func Test_assignmentApi_create(t *testing.T) {
	app := setup(t)

	instructor := testutil.CreateUser(t, usrRepo, "Instructor", "instr", "instr@test.cd", "", []string{user.RoleInstructor}, true)
	rival := testutil.CreateUser(t, usrRepo, "Rival", "rival", "rival@test.cd", "", []string{user.RoleInstructor}, true)
	hero := testutil.CreateStudent(t, usrRepo, "Hero", "hero", "SIS001")

	cls := testutil.CreateClass(t, classRepo, "Intro to Go", "go101", "Fall 2021", instructor.ID)
	testutil.Enroll(t, classRepo, cls.ID, hero.ID)

	path := "/v1/classes/" + cls.ID + "/assignments"
	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Student forbidden", token: getToken(t, hero), wantCode: http.StatusForbidden,
			body:     marchallObj(t, assignment.NewAssignment{Name: "Homework 1"}),
			wantData: marchallObj(t, errForbidden),
		},
		{
			name: "Non-owner instructor forbidden", token: getToken(t, rival), wantCode: http.StatusForbidden,
			body:     marchallObj(t, assignment.NewAssignment{Name: "Homework 1"}),
			wantData: marchallObj(t, errForbidden),
		},
		{
			name: "required fields", token: getToken(t, instructor), wantCode: http.StatusBadRequest,
			body:     marchallObj(t, assignment.NewAssignment{}),
			wantData: marchallObj(t, map[string]string{"name": "this field is required"}),
		},
		{
			name: "Owner creates first", token: getToken(t, instructor), wantCode: http.StatusCreated,
			body:  marchallObj(t, assignment.NewAssignment{Name: "Homework 1", Tier: "b"}),
			extra: 1,
		},
		{
			name: "Position follows creation order", token: getToken(t, instructor), wantCode: http.StatusCreated,
			body:  marchallObj(t, assignment.NewAssignment{Name: "Quiz 1"}),
			extra: 2,
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = path

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)

			if tt.wantCode == http.StatusCreated {
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
				}
				var asg assignment.Assignment
				if err := json.Unmarshal(rec.Body.Bytes(), &asg); err != nil {
					t.Fatalf("json.Unmarshal() failed! err %v", err)
				}
				if asg.Position != tt.extra.(int) {
					t.Errorf("position = %d; want %d", asg.Position, tt.extra.(int))
				}
				if asg.ClassID != cls.ID {
					t.Errorf("class_id = %s; want %s", asg.ClassID, cls.ID)
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_assignmentApi_queryRetrieve(t *testing.T) {
	app := setup(t)

	instructor := testutil.CreateUser(t, usrRepo, "Instructor", "instr", "instr@test.cd", "", []string{user.RoleInstructor}, true)
	hero := testutil.CreateStudent(t, usrRepo, "Hero", "hero", "SIS001")

	cls := testutil.CreateClass(t, classRepo, "Intro to Go", "go101", "Fall 2021", instructor.ID)
	otherCls := testutil.CreateClass(t, classRepo, "Advanced Go", "go201", "Fall 2021", instructor.ID)
	testutil.Enroll(t, classRepo, cls.ID, hero.ID)
	hw := testutil.CreateAssignment(t, assignmentRepo, cls.ID, "Homework 1")
	quiz := testutil.CreateAssignment(t, assignmentRepo, cls.ID, "Quiz 1")
	otherAsg := testutil.CreateAssignment(t, assignmentRepo, otherCls.ID, "Homework 1")

	path := "/v1/classes/" + cls.ID + "/assignments"
	tests := []httpTest{
		{name: "Auth required", path: path, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Students can list", path: path, token: getToken(t, hero),
			wantCode: http.StatusOK, wantData: marchallList(t, hw, quiz),
		},
		{
			name: "Retrieve one", path: path + "/" + hw.ID, token: getToken(t, hero),
			wantCode: http.StatusOK, wantData: marchallObj(t, hw),
		},
		{
			// an assignment from another class is not reachable through this one
			name: "Cross-class retrieve is not found", path: path + "/" + otherAsg.ID, token: getToken(t, hero),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodGet

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_assignmentApi_update(t *testing.T) {
	app := setup(t)

	instructor := testutil.CreateUser(t, usrRepo, "Instructor", "instr", "instr@test.cd", "", []string{user.RoleInstructor}, true)
	hero := testutil.CreateStudent(t, usrRepo, "Hero", "hero", "SIS001")

	cls := testutil.CreateClass(t, classRepo, "Intro to Go", "go101", "Fall 2021", instructor.ID)
	testutil.Enroll(t, classRepo, cls.ID, hero.ID)
	hw := testutil.CreateAssignment(t, assignmentRepo, cls.ID, "Homework 1")

	path := "/v1/classes/" + cls.ID + "/assignments/" + hw.ID
	tests := []httpTest{
		{
			name: "Student forbidden", token: getToken(t, hero), wantCode: http.StatusForbidden,
			body:     marchallObj(t, assignment.UpdateAssignment{Name: "Homework 1 (revised)"}),
			wantData: marchallObj(t, errForbidden),
		},
		{
			name: "Partial update keeps remaining fields", token: getToken(t, instructor), wantCode: http.StatusOK,
			body:  marchallObj(t, assignment.UpdateAssignment{Tier: "a"}),
			extra: "Homework 1",
		},
		{
			name: "Rename", token: getToken(t, instructor), wantCode: http.StatusOK,
			body:  marchallObj(t, assignment.UpdateAssignment{Name: "Homework 1 (revised)"}),
			extra: "Homework 1 (revised)",
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPut
		tt.path = path

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)

			if tt.wantCode == http.StatusOK {
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
				}
				var asg assignment.Assignment
				if err := json.Unmarshal(rec.Body.Bytes(), &asg); err != nil {
					t.Fatalf("json.Unmarshal() failed! err %v", err)
				}
				if asg.Name != tt.extra.(string) {
					t.Errorf("name = %s; want %s", asg.Name, tt.extra.(string))
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_assignmentApi_destroy(t *testing.T) {
	app := setup(t)

	instructor := testutil.CreateUser(t, usrRepo, "Instructor", "instr", "instr@test.cd", "", []string{user.RoleInstructor}, true)
	hero := testutil.CreateStudent(t, usrRepo, "Hero", "hero", "SIS001")

	cls := testutil.CreateClass(t, classRepo, "Intro to Go", "go101", "Fall 2021", instructor.ID)
	testutil.Enroll(t, classRepo, cls.ID, hero.ID)
	hw := testutil.CreateAssignment(t, assignmentRepo, cls.ID, "Homework 1")

	path := "/v1/classes/" + cls.ID + "/assignments/" + hw.ID

	t.Run("Student forbidden", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, path, getToken(t, hero))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)}, rec)
	})

	t.Run("Owner deletes", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, path, getToken(t, instructor))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("code = %v; want 204; body %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("Gone afterwards", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, path, getToken(t, instructor))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"})}, rec)
	})
}
