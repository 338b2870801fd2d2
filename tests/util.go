package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/trezcool/alama/core/assignment"
	"github.com/trezcool/alama/core/attendance"
	"github.com/trezcool/alama/core/class"
	"github.com/trezcool/alama/core/contract"
	"github.com/trezcool/alama/core/progress"
	"github.com/trezcool/alama/core/user"
)

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, uname, email, pwd string,
	roles []string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Name:      name,
		Username:  uname,
		Email:     email,
		Roles:     roles,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	usr.SetActive(isActive)
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateStudent(t *testing.T, repo user.Repository, name, uname, sisID string) user.User {
	t.Helper()

	usr := CreateUser(t, repo, name, uname, uname+"@test.cd", "", user.StudentRoles, true)
	if sisID != "" {
		usr.SISID = sisID
		refreshed, err := repo.UpdateUser(context.Background(), usr)
		if err != nil {
			t.Fatalf("CreateStudent() failed: %v", err)
		}
		usr = refreshed
	}
	return usr
}

func CreateClass(t *testing.T, repo class.Repository, name, code, term, instructorID string) class.Class {
	t.Helper()

	now := time.Now().UTC()
	cls, err := repo.CreateClass(context.Background(), class.Class{
		Name:         name,
		Code:         code,
		Term:         term,
		InstructorID: instructorID,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("CreateClass() failed: %v", err)
	}
	return cls
}

func Enroll(t *testing.T, repo class.Repository, classID, studentID string) class.Enrollment {
	t.Helper()

	enr, err := repo.CreateEnrollment(context.Background(), class.Enrollment{
		ClassID:   classID,
		StudentID: studentID,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("Enroll() failed: %v", err)
	}
	return enr
}

func CreateContract(t *testing.T, repo contract.Repository, classID, grade, desc string) contract.Contract {
	t.Helper()

	now := time.Now().UTC()
	ct, err := repo.CreateContract(context.Background(), contract.Contract{
		ClassID:     classID,
		Grade:       grade,
		Description: desc,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		t.Fatalf("CreateContract() failed: %v", err)
	}
	return ct
}

func CreateAssignment(t *testing.T, repo assignment.Repository, classID, name string) assignment.Assignment {
	t.Helper()

	now := time.Now().UTC()
	asg, err := repo.CreateAssignment(context.Background(), assignment.Assignment{
		ClassID:   classID,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateAssignment() failed: %v", err)
	}
	return asg
}

func SetProgress(t *testing.T, repo progress.Repository, classID, studentID, assignmentID, value string) progress.Record {
	t.Helper()

	rec, err := repo.UpsertRecord(context.Background(), progress.Record{
		ClassID:      classID,
		StudentID:    studentID,
		AssignmentID: assignmentID,
		Value:        value,
		UpdatedAt:    time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("SetProgress() failed: %v", err)
	}
	return rec
}

func RecordAttendance(t *testing.T, repo attendance.Repository, classID, studentID string, date time.Time, status string, engagement int) attendance.Record {
	t.Helper()

	rec, err := repo.CreateRecord(context.Background(), attendance.Record{
		ClassID:    classID,
		StudentID:  studentID,
		Date:       date,
		Status:     status,
		Engagement: engagement,
		CreatedAt:  time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("RecordAttendance() failed: %v", err)
	}
	return rec
}
