package tests

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/trezcool/alama/core/audit"
	"github.com/trezcool/alama/core/user"
	testutil "github.com/trezcool/alama/tests"
)

func createAuditEntry(t *testing.T, actorID, action, objType, objID string) audit.Entry {
	t.Helper()

	entry, err := auditRepo.CreateEntry(context.Background(), audit.Entry{
		ActorID:    actorID,
		Action:     action,
		ObjectType: objType,
		ObjectID:   objID,
		CreatedAt:  time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("createAuditEntry() failed: %v", err)
	}
	return entry
}

func Test_auditApi_query(t *testing.T) {
	app := setup(t)

	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin", "admin@test.cd", "", []string{user.RoleAdmin}, true)
	instructor := testutil.CreateUser(t, usrRepo, "Instructor", "instr", "instr@test.cd", "", []string{user.RoleInstructor}, true)

	created := createAuditEntry(t, instructor.ID, audit.ActionCreate, "class", "c1")
	updated := createAuditEntry(t, instructor.ID, audit.ActionUpdate, "class", "c1")
	imported := createAuditEntry(t, admin.ID, audit.ActionGradeImport, "class", "c2")

	tests := []httpTest{
		{name: "Auth required", path: "/v1/audit", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Admin required", path: "/v1/audit", token: getToken(t, instructor),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "Get all", path: "/v1/audit", token: getToken(t, admin),
			wantCode: http.StatusOK, wantData: marchallList(t, created, updated, imported),
		},
		{
			name: "Filter by action", path: "/v1/audit?action=" + audit.ActionGradeImport, token: getToken(t, admin),
			wantCode: http.StatusOK, wantData: marchallList(t, imported),
		},
		{
			name: "Filter by actor", path: "/v1/audit?actor_id=" + instructor.ID, token: getToken(t, admin),
			wantCode: http.StatusOK, wantData: marchallList(t, created, updated),
		},
		{
			name: "Filter by object", path: "/v1/audit?object_type=class&object_id=c1", token: getToken(t, admin),
			wantCode: http.StatusOK, wantData: marchallList(t, created, updated),
		},
		{
			name: "No match", path: "/v1/audit?action=delete", token: getToken(t, admin),
			wantCode: http.StatusOK, wantData: marchallList(t),
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
