package academic

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/matokeo/core"
)

// Student is an enrolled learner. RollNo doubles as the username of the
// paired student credential.
type Student struct {
	ID           string    `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	RollNo       string    `json:"roll_no" db:"roll_no"`
	StudentClass string    `json:"student_class" db:"student_class"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"` // UTC
}

type Subject struct {
	ID   string `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// Result holds one student's marks for one subject. SubjectName is joined in
// on reads; it is empty when the referenced subject no longer resolves.
type Result struct {
	ID          string    `json:"id" db:"id"`
	StudentID   string    `json:"student_id" db:"student_id"`
	SubjectID   string    `json:"subject_id" db:"subject_id"`
	SubjectName string    `json:"subject_name" db:"subject_name"`
	Marks       int       `json:"marks" db:"marks"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"` // UTC
}

// Counts are the dashboard totals.
type Counts struct {
	Students int `json:"students" db:"students"`
	Subjects int `json:"subjects" db:"subjects"`
	Results  int `json:"results" db:"results"`
}

// NewStudent contains information needed to enroll a new Student.
type NewStudent struct {
	Name         string `json:"name" validate:"required"`
	Email        string `json:"email" validate:"required,email"`
	RollNo       string `json:"roll_no" validate:"required,alphanum_"`
	StudentClass string `json:"student_class" validate:"required"`
}

func (ns *NewStudent) Validate(validate *validator.Validate) error {
	ns.Name = core.CleanString(ns.Name)
	ns.Email = core.CleanString(ns.Email, true /* lower */)
	ns.RollNo = core.CleanString(ns.RollNo, true /* lower */)
	ns.StudentClass = core.CleanString(ns.StudentClass)
	return validate.Struct(ns)
}

// UpdateStudent defines what information may be provided to modify an existing
// Student. Empty fields keep the original values.
type UpdateStudent struct {
	Name         string `json:"name"`
	Email        string `json:"email" validate:"omitempty,email"`
	RollNo       string `json:"roll_no" validate:"omitempty,alphanum_"`
	StudentClass string `json:"student_class"`
}

func (us *UpdateStudent) Validate(orig Student, validate *validator.Validate) error {
	if name := core.CleanString(us.Name); name != "" {
		us.Name = name
	} else {
		us.Name = orig.Name
	}
	if email := core.CleanString(us.Email, true /* lower */); email != "" {
		us.Email = email
	} else {
		us.Email = orig.Email
	}
	if roll := core.CleanString(us.RollNo, true /* lower */); roll != "" {
		us.RollNo = roll
	} else {
		us.RollNo = orig.RollNo
	}
	if class := core.CleanString(us.StudentClass); class != "" {
		us.StudentClass = class
	} else {
		us.StudentClass = orig.StudentClass
	}
	return validate.Struct(us)
}

type NewSubject struct {
	Name string `json:"name" validate:"required"`
}

func (ns *NewSubject) Validate(validate *validator.Validate) error {
	ns.Name = core.CleanString(ns.Name)
	return validate.Struct(ns)
}

// RecordMarks records (or overwrites) a student's marks for a subject.
type RecordMarks struct {
	StudentID string `json:"student_id" validate:"required"`
	SubjectID string `json:"subject_id" validate:"required"`
	Marks     *int   `json:"marks" validate:"required,min=0,max=100"`
}

func (rm *RecordMarks) Validate(validate *validator.Validate) error {
	rm.StudentID = core.CleanString(rm.StudentID)
	rm.SubjectID = core.CleanString(rm.SubjectID)
	return validate.Struct(rm)
}
