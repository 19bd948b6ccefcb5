package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/trezcool/matokeo/core/academic"
	"github.com/trezcool/matokeo/core/user"
)

func CreateUser(
	t *testing.T,
	repo user.Repository,
	uname, pwd string,
	role user.Role,
	createdAt ...time.Time,
) user.User {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Username:  uname,
		Role:      role,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
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

// CreateStudent enrolls a student along with the paired credential
// (username and password both set to the roll number).
func CreateStudent(
	t *testing.T,
	repo academic.Repository,
	name, email, rollNo, class string,
) academic.Student {
	t.Helper()

	now := time.Now().UTC()
	st := academic.Student{
		Name:         name,
		Email:        email,
		RollNo:       rollNo,
		StudentClass: class,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	cred := user.User{
		Username:  rollNo,
		Role:      user.RoleStudent,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := cred.SetPassword(rollNo); err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	st, err := repo.CreateStudent(context.Background(), st, cred)
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	return st
}

func CreateSubject(t *testing.T, repo academic.Repository, name string) academic.Subject {
	t.Helper()

	sub, err := repo.CreateSubject(context.Background(), academic.Subject{Name: name})
	if err != nil {
		t.Fatalf("CreateSubject() failed: %v", err)
	}
	return sub
}

func RecordMarks(t *testing.T, repo academic.Repository, studentID, subjectID string, marks int) academic.Result {
	t.Helper()

	res, err := repo.UpsertResult(context.Background(), academic.Result{
		StudentID: studentID,
		SubjectID: subjectID,
		Marks:     marks,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("RecordMarks() failed: %v", err)
	}
	return res
}
