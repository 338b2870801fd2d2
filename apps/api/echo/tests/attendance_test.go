package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/trezcool/alama/core/attendance"
	"github.com/trezcool/alama/core/audit"
	"github.com/trezcool/alama/core/user"
	testutil "github.com/trezcool/alama/tests"
)

func Test_attendanceApi_record(t *testing.T) {
	app := setup(t)

	instructor := testutil.CreateUser(t, usrRepo, "Instructor", "instr", "instr@test.cd", "", []string{user.RoleInstructor}, true)
	rival := testutil.CreateUser(t, usrRepo, "Rival", "rival", "rival@test.cd", "", []string{user.RoleInstructor}, true)
	hero := testutil.CreateStudent(t, usrRepo, "Hero", "hero", "SIS001")

	cls := testutil.CreateClass(t, classRepo, "Intro to Go", "go101", "Fall 2021", instructor.ID)
	testutil.Enroll(t, classRepo, cls.ID, hero.ID)

	today := time.Date(2021, 9, 6, 0, 0, 0, 0, time.UTC)
	path := "/v1/classes/" + cls.ID + "/attendance"
	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Student forbidden", token: getToken(t, hero), wantCode: http.StatusForbidden,
			body:     marchallObj(t, attendance.NewRecord{StudentID: hero.ID, Date: today, Status: attendance.StatusPresent}),
			wantData: marchallObj(t, errForbidden),
		},
		{
			name: "Non-owner instructor forbidden", token: getToken(t, rival), wantCode: http.StatusForbidden,
			body:     marchallObj(t, attendance.NewRecord{StudentID: hero.ID, Date: today, Status: attendance.StatusPresent}),
			wantData: marchallObj(t, errForbidden),
		},
		{
			name: "invalid status", token: getToken(t, instructor), wantCode: http.StatusBadRequest,
			body:     marchallObj(t, attendance.NewRecord{StudentID: hero.ID, Date: today, Status: "awol"}),
			wantData: marchallObj(t, map[string]string{"status": "status must be one of [present absent late excused]"}),
		},
		{
			name: "engagement out of range", token: getToken(t, instructor), wantCode: http.StatusBadRequest,
			body:     marchallObj(t, attendance.NewRecord{StudentID: hero.ID, Date: today, Status: attendance.StatusPresent, Engagement: 9}),
			wantData: marchallObj(t, map[string]string{"engagement": "engagement must be 5 or less"}),
		},
		{
			name: "Owner records attendance", token: getToken(t, instructor), wantCode: http.StatusCreated,
			body:  marchallObj(t, attendance.NewRecord{StudentID: hero.ID, Date: today, Status: attendance.StatusLate, Engagement: 3, Note: "15min late"}),
			extra: attendance.StatusLate,
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
				var arec attendance.Record
				if err := json.Unmarshal(rec.Body.Bytes(), &arec); err != nil {
					t.Fatalf("json.Unmarshal() failed! err %v", err)
				}
				if arec.Status != tt.extra.(string) {
					t.Errorf("status = %s; want %s", arec.Status, tt.extra.(string))
				}
				if arec.ClassID != cls.ID {
					t.Errorf("class_id = %s; want %s", arec.ClassID, cls.ID)
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}

	// an audit trail entry was logged for the successful record
	entries, err := auditRepo.QueryEntries(context.Background(), &audit.QueryFilter{ObjectType: "attendance_record"}, nil)
	if err != nil {
		t.Fatalf("QueryEntries() failed: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("len(entries) = %d; want 1", len(entries))
	}
}

func Test_attendanceApi_query(t *testing.T) {
	app := setup(t)

	instructor := testutil.CreateUser(t, usrRepo, "Instructor", "instr", "instr@test.cd", "", []string{user.RoleInstructor}, true)
	hero := testutil.CreateStudent(t, usrRepo, "Hero", "hero", "SIS001")
	zero := testutil.CreateStudent(t, usrRepo, "Zero", "zero", "SIS002")

	cls := testutil.CreateClass(t, classRepo, "Intro to Go", "go101", "Fall 2021", instructor.ID)
	testutil.Enroll(t, classRepo, cls.ID, hero.ID)
	testutil.Enroll(t, classRepo, cls.ID, zero.ID)

	day1 := time.Date(2021, 9, 6, 0, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 7)
	heroRec1 := testutil.RecordAttendance(t, attendanceRepo, cls.ID, hero.ID, day1, attendance.StatusPresent, 4)
	heroRec2 := testutil.RecordAttendance(t, attendanceRepo, cls.ID, hero.ID, day2, attendance.StatusAbsent, 0)
	zeroRec := testutil.RecordAttendance(t, attendanceRepo, cls.ID, zero.ID, day1, attendance.StatusLate, 2)

	path := "/v1/classes/" + cls.ID + "/attendance"
	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Instructor gets all records", token: getToken(t, instructor),
			wantCode: http.StatusOK, wantData: marchallList(t, heroRec1, heroRec2, zeroRec),
		},
		{
			name: "Student only gets own records", token: getToken(t, hero),
			wantCode: http.StatusOK, wantData: marchallList(t, heroRec1, heroRec2),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodGet
		tt.path = path

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_attendanceApi_summary(t *testing.T) {
	app := setup(t)

	instructor := testutil.CreateUser(t, usrRepo, "Instructor", "instr", "instr@test.cd", "", []string{user.RoleInstructor}, true)
	hero := testutil.CreateStudent(t, usrRepo, "Hero", "hero", "SIS001")
	zero := testutil.CreateStudent(t, usrRepo, "Zero", "zero", "SIS002")

	cls := testutil.CreateClass(t, classRepo, "Intro to Go", "go101", "Fall 2021", instructor.ID)
	testutil.Enroll(t, classRepo, cls.ID, hero.ID)
	testutil.Enroll(t, classRepo, cls.ID, zero.ID)

	day1 := time.Date(2021, 9, 6, 0, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 7)
	day3 := day1.AddDate(0, 0, 14)
	testutil.RecordAttendance(t, attendanceRepo, cls.ID, hero.ID, day1, attendance.StatusPresent, 4)
	testutil.RecordAttendance(t, attendanceRepo, cls.ID, hero.ID, day2, attendance.StatusPresent, 5)
	testutil.RecordAttendance(t, attendanceRepo, cls.ID, hero.ID, day3, attendance.StatusExcused, 0)
	testutil.RecordAttendance(t, attendanceRepo, cls.ID, zero.ID, day1, attendance.StatusAbsent, 0)
	testutil.RecordAttendance(t, attendanceRepo, cls.ID, zero.ID, day2, attendance.StatusLate, 2)

	heroSum := attendance.Summary{StudentID: hero.ID, Present: 2, Excused: 1, MeanEngagement: 3}
	zeroSum := attendance.Summary{StudentID: zero.ID, Absent: 1, Late: 1, MeanEngagement: 1}

	path := "/v1/classes/" + cls.ID + "/attendance/summary"
	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Instructor gets all rows", token: getToken(t, instructor),
			wantCode: http.StatusOK, wantData: marchallList(t, heroSum, zeroSum),
		},
		{
			name: "Student only gets own row", token: getToken(t, zero),
			wantCode: http.StatusOK, wantData: marchallList(t, zeroSum),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodGet
		tt.path = path

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_attendanceApi_destroy(t *testing.T) {
	app := setup(t)

	instructor := testutil.CreateUser(t, usrRepo, "Instructor", "instr", "instr@test.cd", "", []string{user.RoleInstructor}, true)
	hero := testutil.CreateStudent(t, usrRepo, "Hero", "hero", "SIS001")

	cls := testutil.CreateClass(t, classRepo, "Intro to Go", "go101", "Fall 2021", instructor.ID)
	testutil.Enroll(t, classRepo, cls.ID, hero.ID)

	day := time.Date(2021, 9, 6, 0, 0, 0, 0, time.UTC)
	rec1 := testutil.RecordAttendance(t, attendanceRepo, cls.ID, hero.ID, day, attendance.StatusPresent, 4)

	path := "/v1/classes/" + cls.ID + "/attendance/"
	tests := []httpTest{
		{name: "Auth required", path: path + rec1.ID, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Student forbidden", path: path + rec1.ID, token: getToken(t, hero),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "Unknown record", path: path + "eb2f5cd0-5f4b-4d77-9cf3-36fa024d9b77", token: getToken(t, instructor),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
		{
			name: "Owner deletes", path: path + rec1.ID, token: getToken(t, instructor),
			wantCode: http.StatusNoContent, wantData: nil,
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodDelete

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token)
			app.ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
			}
			if tt.wantData != nil {
				checkCodeAndData(t, tt, rec)
			}
		})
	}

	recs, err := attendanceRepo.QueryRecordsByClass(context.Background(), cls.ID)
	if err != nil {
		t.Fatalf("QueryRecordsByClass() failed: %v", err)
	}
	if len(recs) != 0 {
		t.Errorf("len(recs) = %d; want 0", len(recs))
	}
}
