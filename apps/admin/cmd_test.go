package main

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"io/ioutil"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/trezcool/alama/core/audit"
	"github.com/trezcool/alama/core/user"
	dummydb "github.com/trezcool/alama/storage/database/dummy"
	testutil "github.com/trezcool/alama/tests"
)

func setup(t *testing.T) *commandLine {
	t.Helper()

	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open() failed: %v", err)
	}
	return &commandLine{
		usrRepo:        dummydb.NewUserRepository(db),
		classRepo:      dummydb.NewClassRepository(db),
		assignmentRepo: dummydb.NewAssignmentRepository(db),
		progressRepo:   dummydb.NewProgressRepository(db),
		auditRepo:      dummydb.NewAuditRepository(db),
	}
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	extra      interface{}
}

func Test_commandLine_migrate(t *testing.T) {
	cli := setup(t)

	gooseRunFunc = func(command string, db *sql.DB, fsys fs.FS, dir string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to":
			if len(args) == 0 {
				return fmt.Errorf("up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION")
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		case "down-to":
			if len(args) == 0 {
				return fmt.Errorf("down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION")
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION"},
		{name: "down-to: non-int arg", args: []string{"migrate", "down-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-by-one", args: []string{"migrate", "up-by-one"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "redo", args: []string{"migrate", "redo"}},
		{name: "reset", args: []string{"migrate", "reset"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
		{name: "create", args: []string{"migrate", "create", "assignment", "sql"}},
		{name: "fix", args: []string{"migrate", "fix"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			if err := cli.run(args); err != nil {
				if tt.wantErr != nil {
					if err != tt.wantErr {
						t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
					}
				} else if tt.wantErrStr != "" {
					if err.Error() != tt.wantErrStr {
						t.Errorf("cli.run() error.Error() = %s, wantErrStr %s", err.Error(), tt.wantErrStr)
					}
				} else {
					t.Errorf("cli.run() unexpected error = %v", err)
				}
			}
		})
	}
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli := setup(t)

	usr := testutil.CreateUser(t, cli.usrRepo, "User", "awe", "awe@test.cd", "mdr", nil, true)

	type extra struct {
		pwd string
	}
	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "username but no password", args: []string{"resetpassword", "-username", "lol"}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "-username", "lol"}, extra: extra{pwd: "lol"}, wantErr: user.ErrNotFound},
		{name: "reset with username", args: []string{"resetpassword", "-username", usr.Username}, extra: extra{pwd: "lol"}},
		{name: "reset with email", args: []string{"resetpassword", "-username", usr.Email}, extra: extra{pwd: "lmao"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		readPasswordFunc = func(fd int) ([]byte, error) {
			if extra, ok := tt.extra.(extra); ok {
				return []byte(extra.pwd), nil
			}
			return nil, nil
		}

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			if err == nil {
				refreshedUsr, err := cli.usrRepo.GetUser(context.Background(), user.GetFilter{ID: usr.ID})
				if err != nil {
					t.Fatalf("GetUser() failed, %v", err)
				}
				if bytes.Equal(refreshedUsr.PasswordHash, usr.PasswordHash) {
					t.Error("failed to update new password")
				}
			} else if err != tt.wantErr {
				t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func Test_commandLine_addUser(t *testing.T) {
	cli := setup(t)

	readPasswordFunc = func(fd int) ([]byte, error) { return []byte("s3cr3t"), nil }

	if err := cli.run([]string{"admin", "adduser", "-username", "Root", "-email", "Root@test.cd", "-name", "Root User", "-admin"}); err != nil {
		t.Fatalf("cli.run() failed: %v", err)
	}

	usr, err := cli.usrRepo.GetUser(context.Background(), user.GetFilter{Username: "root"})
	if err != nil {
		t.Fatalf("GetUser() failed: %v", err)
	}
	if usr.Email != "root@test.cd" {
		t.Errorf("email = %s, want root@test.cd", usr.Email)
	}
	if usr.Name != "Root User" {
		t.Errorf("name = %s, want Root User", usr.Name)
	}
	if !usr.IsAdmin() {
		t.Error("expected an admin user")
	}
	if !usr.Active() {
		t.Error("expected an active user")
	}
	if err := usr.CheckPassword("s3cr3t"); err != nil {
		t.Errorf("CheckPassword() failed: %v", err)
	}

	// running again updates instead of duplicating
	readPasswordFunc = func(fd int) ([]byte, error) { return []byte("n3w-s3cr3t"), nil }
	if err := cli.run([]string{"admin", "adduser", "-username", "root", "-email", "root@test.cd"}); err != nil {
		t.Fatalf("cli.run() failed: %v", err)
	}
	refreshed, err := cli.usrRepo.GetUser(context.Background(), user.GetFilter{Username: "root"})
	if err != nil {
		t.Fatalf("GetUser() failed: %v", err)
	}
	if refreshed.ID != usr.ID {
		t.Errorf("expected the same user, got %s and %s", refreshed.ID, usr.ID)
	}
	if err := refreshed.CheckPassword("n3w-s3cr3t"); err != nil {
		t.Errorf("CheckPassword() failed: %v", err)
	}
}

func Test_commandLine_importGrades(t *testing.T) {
	cli := setup(t)
	var out bytes.Buffer
	cli.out = &out

	instr := testutil.CreateUser(t, cli.usrRepo, "Instructor", "instr", "instr@test.cd", "", user.InstructorRoles, true)
	cls := testutil.CreateClass(t, cli.classRepo, "Intro to Go", "go101", "Fall 2021", instr.ID)
	ada := testutil.CreateStudent(t, cli.usrRepo, "Ada Lovelace", "alovelace", "1001")
	grace := testutil.CreateStudent(t, cli.usrRepo, "Grace Hopper", "ghopper", "1002")
	testutil.Enroll(t, cli.classRepo, cls.ID, ada.ID)
	testutil.Enroll(t, cli.classRepo, cls.ID, grace.ID)
	hw1 := testutil.CreateAssignment(t, cli.assignmentRepo, cls.ID, "Homework 1")
	testutil.SetProgress(t, cli.progressRepo, cls.ID, ada.ID, hw1.ID, "Missing")

	sheet := strings.Join([]string{
		"Name,SIS Login ID,Homework 1",
		"Ada Lovelace,alovelace,Completed",
		"Grace Hopper,ghopper,Completed",
	}, "\n")
	path := filepath.Join(t.TempDir(), "grades.csv")
	if err := ioutil.WriteFile(path, []byte(sheet), 0644); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}

	// preview only: nothing is written
	if err := cli.run([]string{"admin", "importgrades", "-class", cls.ID, "-file", path}); err != nil {
		t.Fatalf("cli.run() failed: %v", err)
	}
	if got := out.String(); !strings.Contains(got, "2 changes") {
		t.Errorf("expected 2 changes in preview output, got:\n%s", got)
	}
	rec, err := cli.progressRepo.GetRecord(context.Background(), ada.ID, hw1.ID)
	if err != nil {
		t.Fatalf("GetRecord() failed: %v", err)
	}
	if rec.Value != "Missing" {
		t.Errorf("preview must not write; value = %s", rec.Value)
	}

	// commit applies the changes and audits the run
	out.Reset()
	if err := cli.run([]string{"admin", "importgrades", "-class", cls.ID, "-file", path, "-commit"}); err != nil {
		t.Fatalf("cli.run() failed: %v", err)
	}
	if got := out.String(); !strings.Contains(got, "imported 2 grades for 2 students") {
		t.Errorf("unexpected commit output:\n%s", got)
	}
	for _, studentID := range []string{ada.ID, grace.ID} {
		rec, err := cli.progressRepo.GetRecord(context.Background(), studentID, hw1.ID)
		if err != nil {
			t.Fatalf("GetRecord() failed: %v", err)
		}
		if rec.Value != "Completed" {
			t.Errorf("value = %s, want Completed", rec.Value)
		}
	}
	entries, err := cli.auditRepo.QueryEntries(context.Background(), &audit.QueryFilter{Action: audit.ActionGradeImport}, nil)
	if err != nil {
		t.Fatalf("QueryEntries() failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 audit entry, got %d", len(entries))
	}
	if entries[0].ObjectID != cls.ID {
		t.Errorf("audit object ID = %s, want %s", entries[0].ObjectID, cls.ID)
	}

	// unknown class
	if err := cli.run([]string{"admin", "importgrades", "-class", "nope", "-file", path}); err == nil {
		t.Error("expected an error for an unknown class")
	}
}
