package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/matokeo/core/academic"
	"github.com/trezcool/matokeo/core/user"
)

const resultColumns = `
	r.id, r.student_id, r.subject_id, r.marks, r.created_at,
	COALESCE(s.name, '') AS subject_name`

type academicRepository struct {
	db *sqlx.DB
}

var _ academic.Repository = (*academicRepository)(nil) // interface compliance check

func NewAcademicRepository(db *sqlx.DB) *academicRepository {
	return &academicRepository{db: db}
}

// inTx runs fn in a transaction, rolling back on any error.
func (repo academicRepository) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	if err = fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err = tx.Commit(); err != nil {
		return errors.Wrap(err, "committing transaction")
	}
	return nil
}

func (repo academicRepository) CreateStudent(ctx context.Context, st academic.Student, cred user.User) (academic.Student, error) {
	st.ID = uuid.New().String()
	cred.ID = uuid.New().String()

	err := repo.inTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.NamedExecContext(ctx, `
			INSERT INTO students (id, name, email, roll_no, student_class, created_at, updated_at)
			VALUES (:id, :name, :email, :roll_no, :student_class, :created_at, :updated_at)`,
			st,
		); err != nil {
			return trapConstraintErr(err)
		}
		if _, err := tx.NamedExecContext(ctx, `
			INSERT INTO users (id, username, password_hash, role, created_at, updated_at)
			VALUES (:id, :username, :password_hash, :role, :created_at, :updated_at)`,
			cred,
		); err != nil {
			return trapConstraintErr(err)
		}
		return nil
	})
	if err != nil {
		return academic.Student{}, err
	}
	return st, nil
}

func (repo academicRepository) GetStudentByID(ctx context.Context, id string) (academic.Student, error) {
	var st academic.Student
	if err := repo.db.GetContext(ctx, &st, `SELECT * FROM students WHERE id = $1`, id); err != nil {
		return academic.Student{}, repo.trapNoRowsErr(err, "finding student by id")
	}
	return st, nil
}

func (repo academicRepository) GetStudentByRollNo(ctx context.Context, rollNo string) (academic.Student, error) {
	var st academic.Student
	if err := repo.db.GetContext(ctx, &st, `SELECT * FROM students WHERE roll_no = $1`, rollNo); err != nil {
		return academic.Student{}, repo.trapNoRowsErr(err, "finding student by roll number")
	}
	return st, nil
}

func (repo academicRepository) QueryStudents(ctx context.Context) ([]academic.Student, error) {
	students := make([]academic.Student, 0)
	err := repo.db.SelectContext(ctx, &students, `SELECT * FROM students ORDER BY created_at, id`)
	if err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	return students, nil
}

func (repo academicRepository) UpdateStudent(ctx context.Context, st academic.Student, oldRollNo string) (academic.Student, error) {
	err := repo.inTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.NamedExecContext(ctx, `
			UPDATE students
			SET name = :name, email = :email, roll_no = :roll_no,
			    student_class = :student_class, updated_at = :updated_at
			WHERE id = :id`,
			st,
		)
		if err != nil {
			return trapConstraintErr(err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return errors.Wrap(err, "updating student")
		}
		if n == 0 {
			return academic.ErrStudentNotFound
		}

		// keep the paired credential's username in sync with the roll number
		if st.RollNo != oldRollNo {
			if _, err = tx.ExecContext(ctx, `
				UPDATE users SET username = $1, updated_at = $2 WHERE username = $3`,
				st.RollNo, st.UpdatedAt, oldRollNo,
			); err != nil {
				return trapConstraintErr(err)
			}
		}
		return nil
	})
	if err != nil {
		return academic.Student{}, err
	}
	return st, nil
}

func (repo academicRepository) DeleteStudent(ctx context.Context, id string) error {
	return repo.inTx(ctx, func(tx *sqlx.Tx) error {
		var rollNo string
		err := tx.GetContext(ctx, &rollNo, `SELECT roll_no FROM students WHERE id = $1 FOR UPDATE`, id)
		if err != nil {
			return repo.trapNoRowsErr(err, "finding student by id")
		}
		if _, err = tx.ExecContext(ctx, `DELETE FROM results WHERE student_id = $1`, id); err != nil {
			return errors.Wrap(err, "deleting student results")
		}
		if _, err = tx.ExecContext(ctx, `DELETE FROM users WHERE username = $1`, rollNo); err != nil {
			return errors.Wrap(err, "deleting student credential")
		}
		if _, err = tx.ExecContext(ctx, `DELETE FROM students WHERE id = $1`, id); err != nil {
			return errors.Wrap(err, "deleting student")
		}
		return nil
	})
}

func (repo academicRepository) CreateSubject(ctx context.Context, sub academic.Subject) (academic.Subject, error) {
	sub.ID = uuid.New().String()
	if _, err := repo.db.NamedExecContext(ctx,
		`INSERT INTO subjects (id, name) VALUES (:id, :name)`, sub,
	); err != nil {
		if err = trapConstraintErr(err); err == academic.ErrSubjectExists {
			return academic.Subject{}, err
		}
		return academic.Subject{}, errors.Wrap(err, "inserting subject")
	}
	return sub, nil
}

func (repo academicRepository) QuerySubjects(ctx context.Context) ([]academic.Subject, error) {
	subjects := make([]academic.Subject, 0)
	err := repo.db.SelectContext(ctx, &subjects, `SELECT * FROM subjects ORDER BY name`)
	if err != nil {
		return nil, errors.Wrap(err, "querying subjects")
	}
	return subjects, nil
}

func (repo academicRepository) DeleteSubject(ctx context.Context, id string) error {
	return repo.inTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM results WHERE subject_id = $1`, id); err != nil {
			return errors.Wrap(err, "deleting subject results")
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM subjects WHERE id = $1`, id)
		if err != nil {
			return errors.Wrap(err, "deleting subject")
		}
		n, err := res.RowsAffected()
		if err != nil {
			return errors.Wrap(err, "deleting subject")
		}
		if n == 0 {
			return academic.ErrSubjectNotFound
		}
		return nil
	})
}

func (repo academicRepository) UpsertResult(ctx context.Context, res academic.Result) (academic.Result, error) {
	res.ID = uuid.New().String()

	// single statement: insert-or-overwrite without a read-modify-write race
	var id string
	err := repo.db.QueryRowContext(ctx, `
		INSERT INTO results (id, student_id, subject_id, marks, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT ON CONSTRAINT results_student_subject_key
		DO UPDATE SET marks = EXCLUDED.marks
		RETURNING id`,
		res.ID, res.StudentID, res.SubjectID, res.Marks, res.CreatedAt,
	).Scan(&id)
	if err != nil {
		if err = trapConstraintErr(err); err == academic.ErrStudentNotFound || err == academic.ErrSubjectNotFound {
			return academic.Result{}, err
		}
		return academic.Result{}, errors.Wrap(err, "upserting result")
	}

	var out academic.Result
	err = repo.db.GetContext(ctx, &out, `
		SELECT `+resultColumns+`
		FROM results r LEFT JOIN subjects s ON s.id = r.subject_id
		WHERE r.id = $1`,
		id,
	)
	if err != nil {
		return academic.Result{}, errors.Wrap(err, "reading back result")
	}
	return out, nil
}

func (repo academicRepository) QueryResultsByStudentID(ctx context.Context, studentID string) ([]academic.Result, error) {
	results := make([]academic.Result, 0)
	err := repo.db.SelectContext(ctx, &results, `
		SELECT `+resultColumns+`
		FROM results r LEFT JOIN subjects s ON s.id = r.subject_id
		WHERE r.student_id = $1
		ORDER BY r.created_at, r.id`,
		studentID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "querying results")
	}
	return results, nil
}

func (repo academicRepository) Counts(ctx context.Context) (academic.Counts, error) {
	var counts academic.Counts
	err := repo.db.GetContext(ctx, &counts, `
		SELECT
			(SELECT count(*) FROM students) AS students,
			(SELECT count(*) FROM subjects) AS subjects,
			(SELECT count(*) FROM results)  AS results`,
	)
	if err != nil {
		return academic.Counts{}, errors.Wrap(err, "counting records")
	}
	return counts, nil
}

// trapNoRowsErr maps psql "no rows" err to academic.ErrStudentNotFound
func (repo academicRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return academic.ErrStudentNotFound
	}
	return errors.Wrap(err, msg)
}
