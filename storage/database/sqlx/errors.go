package sqlxrepos

import (
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/matokeo/core/academic"
	"github.com/trezcool/matokeo/core/user"
)

// postgres error codes of interest
const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// trapConstraintErr maps psql constraint violations to domain errors by
// constraint name; anything else passes through untouched.
func trapConstraintErr(err error) error {
	pqErr, ok := errors.Cause(err).(*pq.Error)
	if !ok {
		return err
	}
	switch pqErr.Code {
	case uniqueViolation:
		switch pqErr.Constraint {
		case "users_username_key":
			return user.ErrUsernameExists
		case "students_roll_no_key":
			return academic.ErrRollNoExists
		case "students_email_key":
			return academic.ErrEmailExists
		case "subjects_name_key":
			return academic.ErrSubjectExists
		}
	case foreignKeyViolation:
		switch pqErr.Constraint {
		case "results_student_id_fkey":
			return academic.ErrStudentNotFound
		case "results_subject_id_fkey":
			return academic.ErrSubjectNotFound
		}
	}
	return err
}
