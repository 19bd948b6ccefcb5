package academic

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/trezcool/matokeo/core"
	"github.com/trezcool/matokeo/core/user"
)

var (
	// errors
	ErrStudentNotFound = errors.New("student not found")
	ErrSubjectNotFound = errors.New("subject not found")
	ErrRollNoExists    = errors.New("a student with this roll number already exists")
	ErrEmailExists     = errors.New("a student with this email already exists")
	ErrSubjectExists   = errors.New("a subject with this name already exists")
)

type (
	// Repository persists students, subjects and results. Every mutating
	// method runs in a single transaction: on failure nothing is written.
	Repository interface {
		// CreateStudent atomically inserts the student and its paired credential.
		CreateStudent(ctx context.Context, st Student, cred user.User) (Student, error)
		GetStudentByID(ctx context.Context, id string) (Student, error)
		GetStudentByRollNo(ctx context.Context, rollNo string) (Student, error)
		QueryStudents(ctx context.Context) ([]Student, error)
		// UpdateStudent updates the row and, when the roll number changed,
		// renames the paired credential in the same transaction.
		UpdateStudent(ctx context.Context, st Student, oldRollNo string) (Student, error)
		// DeleteStudent deletes the student's results, its paired credential
		// and the student row in one transaction.
		DeleteStudent(ctx context.Context, id string) error

		CreateSubject(ctx context.Context, sub Subject) (Subject, error)
		QuerySubjects(ctx context.Context) ([]Subject, error)
		// DeleteSubject deletes the subject's results and the subject row in
		// one transaction.
		DeleteSubject(ctx context.Context, id string) error

		// UpsertResult inserts the result or overwrites the marks of the
		// existing (student, subject) row.
		UpsertResult(ctx context.Context, res Result) (Result, error)
		// QueryResultsByStudentID returns results joined with subject names,
		// oldest first.
		QueryResultsByStudentID(ctx context.Context, studentID string) ([]Result, error)

		Counts(ctx context.Context) (Counts, error)
	}

	Service struct {
		repo    Repository
		mailSvc core.EmailService
	}
)

func NewService(repo Repository, mailSvc core.EmailService) *Service {
	return &Service{repo: repo, mailSvc: mailSvc}
}

// trapDuplicateErr maps repo uniqueness errors to field-level validation errors.
func trapDuplicateErr(err error) error {
	var field string
	switch err {
	case ErrRollNoExists, user.ErrUsernameExists:
		field = "roll_no"
	case ErrEmailExists:
		field = "email"
	case ErrSubjectExists:
		field = "name"
	default:
		return err
	}
	return core.NewValidationError(err, core.FieldError{Field: field, Error: err.Error()})
}

// CreateStudent enrolls a student and atomically creates the paired
// student-role credential. The roll number is both the username and the
// initial password; the student is emailed their login instructions.
func (svc *Service) CreateStudent(ctx context.Context, ns NewStudent) (Student, error) {
	now := time.Now().UTC()
	st := Student{
		Name:         ns.Name,
		Email:        ns.Email,
		RollNo:       ns.RollNo,
		StudentClass: ns.StudentClass,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	cred := user.User{
		Username:  ns.RollNo,
		Role:      user.RoleStudent,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := cred.SetPassword(ns.RollNo); err != nil {
		return Student{}, err
	}

	st, err := svc.repo.CreateStudent(ctx, st, cred)
	if err != nil {
		return Student{}, trapDuplicateErr(err)
	}
	svc.sendWelcomeMail(st)
	return st, nil
}

func (svc *Service) GetStudentByID(ctx context.Context, id string) (Student, error) {
	return svc.repo.GetStudentByID(ctx, id)
}

func (svc *Service) GetStudentByRollNo(ctx context.Context, rollNo string) (Student, error) {
	return svc.repo.GetStudentByRollNo(ctx, core.CleanString(rollNo, true /* lower */))
}

func (svc *Service) QueryStudents(ctx context.Context) ([]Student, error) {
	return svc.repo.QueryStudents(ctx)
}

// UpdateStudent applies us to the student; a roll number change renames the
// paired credential so the join invariant holds. On a duplicate target
// nothing is mutated.
func (svc *Service) UpdateStudent(ctx context.Context, id string, us UpdateStudent) (Student, error) {
	orig, err := svc.repo.GetStudentByID(ctx, id)
	if err != nil {
		return Student{}, err
	}
	st := Student{
		ID:           orig.ID,
		Name:         us.Name,
		Email:        us.Email,
		RollNo:       us.RollNo,
		StudentClass: us.StudentClass,
		CreatedAt:    orig.CreatedAt,
		UpdatedAt:    time.Now().UTC(),
	}
	st, err = svc.repo.UpdateStudent(ctx, st, orig.RollNo)
	if err != nil {
		return Student{}, trapDuplicateErr(err)
	}
	return st, nil
}

func (svc *Service) DeleteStudent(ctx context.Context, id string) error {
	return svc.repo.DeleteStudent(ctx, id)
}

func (svc *Service) CreateSubject(ctx context.Context, ns NewSubject) (Subject, error) {
	sub, err := svc.repo.CreateSubject(ctx, Subject{Name: ns.Name})
	if err != nil {
		return Subject{}, trapDuplicateErr(err)
	}
	return sub, nil
}

func (svc *Service) QuerySubjects(ctx context.Context) ([]Subject, error) {
	return svc.repo.QuerySubjects(ctx)
}

func (svc *Service) DeleteSubject(ctx context.Context, id string) error {
	return svc.repo.DeleteSubject(ctx, id)
}

// RecordMarks upserts the (student, subject) result. Marks are range-checked
// by RecordMarks.Validate before they get here.
func (svc *Service) RecordMarks(ctx context.Context, rm RecordMarks) (Result, error) {
	res := Result{
		StudentID: rm.StudentID,
		SubjectID: rm.SubjectID,
		Marks:     *rm.Marks,
		CreatedAt: time.Now().UTC(),
	}
	return svc.repo.UpsertResult(ctx, res)
}

// ResultsForStudent returns the student's results in insertion order; an
// unknown roll number yields an empty slice, not an error.
func (svc *Service) ResultsForStudent(ctx context.Context, rollNo string) ([]Result, error) {
	st, err := svc.GetStudentByRollNo(ctx, rollNo)
	if err != nil {
		if err == ErrStudentNotFound {
			return []Result{}, nil
		}
		return nil, err
	}
	results, err := svc.repo.QueryResultsByStudentID(ctx, st.ID)
	if err != nil {
		return nil, err
	}
	if results == nil {
		results = []Result{}
	}
	return results, nil
}

func (svc *Service) Counts(ctx context.Context) (Counts, error) {
	return svc.repo.Counts(ctx)
}

func (svc *Service) sendWelcomeMail(st Student) {
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Name: st.Name, Address: st.Email}},
		Subject: "Your student account",
		BodyStr: fmt.Sprintf(
			"Hi %s,\n\nYour student account has been created.\n"+
				"Username: %s\nPassword: your roll number\n\n"+
				"Please change your password after your first login.",
			st.Name, st.RollNo,
		),
	})
}
