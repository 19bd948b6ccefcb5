package academic_test

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/trezcool/matokeo/core"
	"github.com/trezcool/matokeo/core/academic"
	"github.com/trezcool/matokeo/core/user"
	emailsvc "github.com/trezcool/matokeo/services/email"
	inmemdb "github.com/trezcool/matokeo/storage/database/inmem"
	testutil "github.com/trezcool/matokeo/tests"
)

func setup(t *testing.T) (*academic.Service, academic.Repository, user.Repository) {
	t.Helper()

	if core.Conf == nil {
		core.NewConfig()
	}
	emailsvc.ClearSentMessages()

	db := inmemdb.NewDB()
	acadRepo := inmemdb.NewAcademicRepository(db)
	usrRepo := inmemdb.NewUserRepository(db)
	svc := academic.NewService(acadRepo, emailsvc.NewConsoleServiceMock())
	return svc, acadRepo, usrRepo
}

func fieldErrsByName(t *testing.T, err error) map[string]string {
	t.Helper()
	vErr, ok := err.(*core.ValidationError)
	if !ok {
		t.Fatalf("error = %v (%T), want *core.ValidationError", err, err)
	}
	flds := make(map[string]string, len(vErr.Fields))
	for _, fe := range vErr.Fields {
		flds[fe.Field] = fe.Error
	}
	return flds
}

func TestService_CreateStudent(t *testing.T) {
	svc, _, usrRepo := setup(t)
	ctx := context.Background()

	ns := academic.NewStudent{Name: "Jane Roe", Email: "jane@test.cd", RollNo: "s1001", StudentClass: "10A"}
	st, err := svc.CreateStudent(ctx, ns)
	if err != nil {
		t.Fatalf("CreateStudent(): %v", err)
	}
	if st.ID == "" {
		t.Error("student has no ID")
	}

	// the paired credential logs in with the roll number
	cred, err := usrRepo.GetUserByUsername(ctx, "s1001")
	if err != nil {
		t.Fatalf("GetUserByUsername(): %v", err)
	}
	if !cred.IsStudent() {
		t.Errorf("credential role = %v, want %v", cred.Role, user.RoleStudent)
	}
	if err := cred.CheckPassword("s1001"); err != nil {
		t.Error("credential password is not the roll number")
	}

	// a welcome email went out
	var mailed bool
	for _, msg := range emailsvc.SentMessages {
		if len(msg.To) > 0 && msg.To[0].Address == "jane@test.cd" && strings.Contains(msg.BodyStr, "s1001") {
			mailed = true
		}
	}
	if !mailed {
		t.Error("expected a welcome email")
	}

	t.Run("duplicate roll no", func(t *testing.T) {
		_, err := svc.CreateStudent(ctx, academic.NewStudent{Name: "John", Email: "john@test.cd", RollNo: "s1001", StudentClass: "10A"})
		flds := fieldErrsByName(t, err)
		if _, ok := flds["roll_no"]; !ok {
			t.Errorf("fields = %v, want a roll_no error", flds)
		}
	})

	t.Run("duplicate email", func(t *testing.T) {
		_, err := svc.CreateStudent(ctx, academic.NewStudent{Name: "John", Email: "jane@test.cd", RollNo: "s1002", StudentClass: "10A"})
		flds := fieldErrsByName(t, err)
		if _, ok := flds["email"]; !ok {
			t.Errorf("fields = %v, want an email error", flds)
		}
	})

	// no stray credential was left behind by the failed enrollments
	if _, err := usrRepo.GetUserByUsername(ctx, "s1002"); err != user.ErrNotFound {
		t.Errorf("GetUserByUsername() error = %v, want %v", err, user.ErrNotFound)
	}
}

func TestService_CreateStudent_concurrentSameRollNo(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()

	const n = 8
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.CreateStudent(ctx, academic.NewStudent{
				Name:         "Jane Roe",
				Email:        "jane" + string(rune('a'+i)) + "@test.cd",
				RollNo:       "s1001",
				StudentClass: "10A",
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var okCount, dupCount int
	for err := range errs {
		switch {
		case err == nil:
			okCount++
		default:
			if _, ok := err.(*core.ValidationError); !ok {
				t.Errorf("unexpected error type: %v (%T)", err, err)
			}
			dupCount++
		}
	}
	if okCount != 1 || dupCount != n-1 {
		t.Errorf("okCount = %d, dupCount = %d; want 1 and %d", okCount, dupCount, n-1)
	}
}

func TestService_UpdateStudent(t *testing.T) {
	svc, acadRepo, usrRepo := setup(t)
	ctx := context.Background()

	st := testutil.CreateStudent(t, acadRepo, "Jane Roe", "jane@test.cd", "s1001", "10A")
	other := testutil.CreateStudent(t, acadRepo, "John Doe", "john@test.cd", "s1002", "10A")

	t.Run("unknown student", func(t *testing.T) {
		_, err := svc.UpdateStudent(ctx, "lol", academic.UpdateStudent{Name: "X"})
		if err != academic.ErrStudentNotFound {
			t.Errorf("UpdateStudent() error = %v, want %v", err, academic.ErrStudentNotFound)
		}
	})

	t.Run("duplicate roll no leaves everything untouched", func(t *testing.T) {
		us := academic.UpdateStudent{Name: st.Name, Email: st.Email, RollNo: other.RollNo, StudentClass: st.StudentClass}
		_, err := svc.UpdateStudent(ctx, st.ID, us)
		flds := fieldErrsByName(t, err)
		if _, ok := flds["roll_no"]; !ok {
			t.Errorf("fields = %v, want a roll_no error", flds)
		}
		refreshed, err := acadRepo.GetStudentByID(ctx, st.ID)
		if err != nil {
			t.Fatalf("GetStudentByID(): %v", err)
		}
		if refreshed.RollNo != st.RollNo {
			t.Errorf("roll_no = %q, want %q", refreshed.RollNo, st.RollNo)
		}
	})

	t.Run("roll no taken by a non-student credential", func(t *testing.T) {
		testutil.CreateUser(t, usrRepo, "admin", "admin123", user.RoleAdmin)

		us := academic.UpdateStudent{Name: st.Name, Email: st.Email, RollNo: "admin", StudentClass: st.StudentClass}
		_, err := svc.UpdateStudent(ctx, st.ID, us)
		flds := fieldErrsByName(t, err)
		if _, ok := flds["roll_no"]; !ok {
			t.Errorf("fields = %v, want a roll_no error", flds)
		}

		// the admin credential and the student's own are both intact
		if _, err := usrRepo.GetUserByUsername(ctx, "admin"); err != nil {
			t.Errorf("GetUserByUsername() error = %v", err)
		}
		cred, err := usrRepo.GetUserByUsername(ctx, "s1001")
		if err != nil {
			t.Fatalf("GetUserByUsername(): %v", err)
		}
		if !cred.IsStudent() {
			t.Errorf("credential role = %v, want %v", cred.Role, user.RoleStudent)
		}
	})

	t.Run("roll no change renames the credential", func(t *testing.T) {
		us := academic.UpdateStudent{Name: st.Name, Email: st.Email, RollNo: "s2001", StudentClass: st.StudentClass}
		updated, err := svc.UpdateStudent(ctx, st.ID, us)
		if err != nil {
			t.Fatalf("UpdateStudent(): %v", err)
		}
		if updated.RollNo != "s2001" {
			t.Errorf("roll_no = %q, want %q", updated.RollNo, "s2001")
		}

		if _, err := usrRepo.GetUserByUsername(ctx, "s1001"); err != user.ErrNotFound {
			t.Errorf("old credential lookup error = %v, want %v", err, user.ErrNotFound)
		}
		cred, err := usrRepo.GetUserByUsername(ctx, "s2001")
		if err != nil {
			t.Fatalf("GetUserByUsername(): %v", err)
		}
		// the password stays what it was
		if err := cred.CheckPassword("s1001"); err != nil {
			t.Error("renaming the credential changed the password")
		}
	})
}

func TestService_DeleteStudent(t *testing.T) {
	svc, acadRepo, usrRepo := setup(t)
	ctx := context.Background()

	st := testutil.CreateStudent(t, acadRepo, "Jane Roe", "jane@test.cd", "s1001", "10A")
	math := testutil.CreateSubject(t, acadRepo, "Mathematics")
	testutil.RecordMarks(t, acadRepo, st.ID, math.ID, 72)

	if err := svc.DeleteStudent(ctx, "lol"); err != academic.ErrStudentNotFound {
		t.Errorf("DeleteStudent() error = %v, want %v", err, academic.ErrStudentNotFound)
	}

	if err := svc.DeleteStudent(ctx, st.ID); err != nil {
		t.Fatalf("DeleteStudent(): %v", err)
	}

	if _, err := acadRepo.GetStudentByID(ctx, st.ID); err != academic.ErrStudentNotFound {
		t.Errorf("GetStudentByID() error = %v, want %v", err, academic.ErrStudentNotFound)
	}
	if _, err := usrRepo.GetUserByUsername(ctx, "s1001"); err != user.ErrNotFound {
		t.Errorf("credential lookup error = %v, want %v", err, user.ErrNotFound)
	}
	counts, err := acadRepo.Counts(ctx)
	if err != nil {
		t.Fatalf("Counts(): %v", err)
	}
	if counts.Results != 0 {
		t.Errorf("results count = %d, want 0", counts.Results)
	}
	if counts.Subjects != 1 {
		t.Errorf("subjects count = %d, want 1", counts.Subjects)
	}
}

func TestService_RecordMarks(t *testing.T) {
	svc, acadRepo, _ := setup(t)
	ctx := context.Background()
	intPtr := func(x int) *int { return &x }

	st := testutil.CreateStudent(t, acadRepo, "Jane Roe", "jane@test.cd", "s1001", "10A")
	math := testutil.CreateSubject(t, acadRepo, "Mathematics")
	physics := testutil.CreateSubject(t, acadRepo, "Physics")

	t.Run("unknown student", func(t *testing.T) {
		_, err := svc.RecordMarks(ctx, academic.RecordMarks{StudentID: "lol", SubjectID: math.ID, Marks: intPtr(50)})
		if err != academic.ErrStudentNotFound {
			t.Errorf("RecordMarks() error = %v, want %v", err, academic.ErrStudentNotFound)
		}
	})

	t.Run("unknown subject", func(t *testing.T) {
		_, err := svc.RecordMarks(ctx, academic.RecordMarks{StudentID: st.ID, SubjectID: "lol", Marks: intPtr(50)})
		if err != academic.ErrSubjectNotFound {
			t.Errorf("RecordMarks() error = %v, want %v", err, academic.ErrSubjectNotFound)
		}
	})

	t.Run("re-recording overwrites", func(t *testing.T) {
		first, err := svc.RecordMarks(ctx, academic.RecordMarks{StudentID: st.ID, SubjectID: math.ID, Marks: intPtr(72)})
		if err != nil {
			t.Fatalf("RecordMarks(): %v", err)
		}
		if _, err := svc.RecordMarks(ctx, academic.RecordMarks{StudentID: st.ID, SubjectID: physics.ID, Marks: intPtr(64)}); err != nil {
			t.Fatalf("RecordMarks(): %v", err)
		}
		second, err := svc.RecordMarks(ctx, academic.RecordMarks{StudentID: st.ID, SubjectID: math.ID, Marks: intPtr(85)})
		if err != nil {
			t.Fatalf("RecordMarks(): %v", err)
		}
		if second.ID != first.ID {
			t.Errorf("overwrite produced a new row: %q != %q", second.ID, first.ID)
		}
		if second.Marks != 85 {
			t.Errorf("marks = %d, want 85", second.Marks)
		}

		results, err := svc.ResultsForStudent(ctx, st.RollNo)
		if err != nil {
			t.Fatalf("ResultsForStudent(): %v", err)
		}
		if len(results) != 2 {
			t.Fatalf("len(results) = %d, want 2", len(results))
		}
		// insertion order survives the overwrite
		if results[0].SubjectName != "Mathematics" || results[1].SubjectName != "Physics" {
			t.Errorf("order = [%s, %s], want [Mathematics, Physics]", results[0].SubjectName, results[1].SubjectName)
		}
		if results[0].Marks != 85 {
			t.Errorf("marks = %d, want 85", results[0].Marks)
		}
	})
}

func TestService_ResultsForStudent_unknownRollNo(t *testing.T) {
	svc, _, _ := setup(t)

	results, err := svc.ResultsForStudent(context.Background(), "ghost")
	if err != nil {
		t.Fatalf("ResultsForStudent(): %v", err)
	}
	if results == nil || len(results) != 0 {
		t.Errorf("results = %v, want an empty slice", results)
	}
}
