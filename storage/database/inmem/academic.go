package inmemdb

import (
	"context"

	"github.com/google/uuid"

	"github.com/trezcool/matokeo/core/academic"
	"github.com/trezcool/matokeo/core/user"
)

type academicRepository struct {
	db *DB
}

var _ academic.Repository = (*academicRepository)(nil) // interface compliance check

func NewAcademicRepository(db *DB) *academicRepository {
	return &academicRepository{db: db}
}

func (repo *academicRepository) CreateStudent(_ context.Context, st academic.Student, cred user.User) (academic.Student, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, s := range repo.db.students {
		if s.RollNo == st.RollNo {
			return academic.Student{}, academic.ErrRollNoExists
		}
		if s.Email == st.Email {
			return academic.Student{}, academic.ErrEmailExists
		}
	}
	if _, err := repo.db.createUser(cred); err != nil {
		return academic.Student{}, err
	}
	st.ID = uuid.New().String()
	repo.db.students = append(repo.db.students, &st)
	return st, nil
}

func (repo *academicRepository) GetStudentByID(_ context.Context, id string) (academic.Student, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, s := range repo.db.students {
		if s.ID == id {
			return *s, nil
		}
	}
	return academic.Student{}, academic.ErrStudentNotFound
}

func (repo *academicRepository) GetStudentByRollNo(_ context.Context, rollNo string) (academic.Student, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, s := range repo.db.students {
		if s.RollNo == rollNo {
			return *s, nil
		}
	}
	return academic.Student{}, academic.ErrStudentNotFound
}

func (repo *academicRepository) QueryStudents(_ context.Context) ([]academic.Student, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	students := make([]academic.Student, 0, len(repo.db.students))
	for _, s := range repo.db.students {
		students = append(students, *s)
	}
	return students, nil
}

func (repo *academicRepository) UpdateStudent(_ context.Context, st academic.Student, oldRollNo string) (academic.Student, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	var target *academic.Student
	for _, s := range repo.db.students {
		if s.ID == st.ID {
			target = s
			continue
		}
		if s.RollNo == st.RollNo {
			return academic.Student{}, academic.ErrRollNoExists
		}
		if s.Email == st.Email {
			return academic.Student{}, academic.ErrEmailExists
		}
	}
	if target == nil {
		return academic.Student{}, academic.ErrStudentNotFound
	}
	if st.RollNo != oldRollNo {
		for _, u := range repo.db.users {
			if u.Username == st.RollNo {
				return academic.Student{}, user.ErrUsernameExists
			}
		}
	}

	target.Name = st.Name
	target.Email = st.Email
	target.RollNo = st.RollNo
	target.StudentClass = st.StudentClass
	target.UpdatedAt = st.UpdatedAt

	if st.RollNo != oldRollNo {
		for _, u := range repo.db.users {
			if u.Username == oldRollNo {
				u.Username = st.RollNo
				u.UpdatedAt = st.UpdatedAt
			}
		}
	}
	return *target, nil
}

func (repo *academicRepository) DeleteStudent(_ context.Context, id string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	idx := -1
	var rollNo string
	for i, s := range repo.db.students {
		if s.ID == id {
			idx, rollNo = i, s.RollNo
			break
		}
	}
	if idx < 0 {
		return academic.ErrStudentNotFound
	}

	kept := repo.db.results[:0]
	for _, r := range repo.db.results {
		if r.StudentID != id {
			kept = append(kept, r)
		}
	}
	repo.db.results = kept

	for i, u := range repo.db.users {
		if u.Username == rollNo {
			repo.db.users = append(repo.db.users[:i], repo.db.users[i+1:]...)
			break
		}
	}
	repo.db.students = append(repo.db.students[:idx], repo.db.students[idx+1:]...)
	return nil
}

func (repo *academicRepository) CreateSubject(_ context.Context, sub academic.Subject) (academic.Subject, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, s := range repo.db.subjects {
		if s.Name == sub.Name {
			return academic.Subject{}, academic.ErrSubjectExists
		}
	}
	sub.ID = uuid.New().String()
	repo.db.subjects = append(repo.db.subjects, &sub)
	return sub, nil
}

func (repo *academicRepository) QuerySubjects(_ context.Context) ([]academic.Subject, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	subjects := make([]academic.Subject, 0, len(repo.db.subjects))
	for _, s := range repo.db.subjects {
		subjects = append(subjects, *s)
	}
	return subjects, nil
}

func (repo *academicRepository) DeleteSubject(_ context.Context, id string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	idx := -1
	for i, s := range repo.db.subjects {
		if s.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return academic.ErrSubjectNotFound
	}

	kept := repo.db.results[:0]
	for _, r := range repo.db.results {
		if r.SubjectID != id {
			kept = append(kept, r)
		}
	}
	repo.db.results = kept
	repo.db.subjects = append(repo.db.subjects[:idx], repo.db.subjects[idx+1:]...)
	return nil
}

func (repo *academicRepository) UpsertResult(_ context.Context, res academic.Result) (academic.Result, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if !repo.db.studentExists(res.StudentID) {
		return academic.Result{}, academic.ErrStudentNotFound
	}
	if _, ok := repo.db.subjectName(res.SubjectID); !ok {
		return academic.Result{}, academic.ErrSubjectNotFound
	}

	for _, r := range repo.db.results {
		if r.StudentID == res.StudentID && r.SubjectID == res.SubjectID {
			r.Marks = res.Marks
			return repo.db.joined(*r), nil
		}
	}
	res.ID = uuid.New().String()
	repo.db.results = append(repo.db.results, &res)
	return repo.db.joined(res), nil
}

func (repo *academicRepository) QueryResultsByStudentID(_ context.Context, studentID string) ([]academic.Result, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	results := make([]academic.Result, 0)
	for _, r := range repo.db.results {
		if r.StudentID == studentID {
			results = append(results, repo.db.joined(*r))
		}
	}
	return results, nil
}

func (repo *academicRepository) Counts(_ context.Context) (academic.Counts, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	return academic.Counts{
		Students: len(repo.db.students),
		Subjects: len(repo.db.subjects),
		Results:  len(repo.db.results),
	}, nil
}

// helpers; callers must hold the lock.

func (db *DB) studentExists(id string) bool {
	for _, s := range db.students {
		if s.ID == id {
			return true
		}
	}
	return false
}

func (db *DB) subjectName(id string) (string, bool) {
	for _, s := range db.subjects {
		if s.ID == id {
			return s.Name, true
		}
	}
	return "", false
}

func (db *DB) joined(res academic.Result) academic.Result {
	res.SubjectName, _ = db.subjectName(res.SubjectID)
	return res
}
