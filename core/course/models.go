package course

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/darasahq/darasa/core"
)

// Attendance statuses
const (
	StatusPresent = "PRESENT"
	StatusAbsent  = "ABSENT"
	StatusLate    = "LATE"
)

type (
	Course struct {
		ID          int       `json:"id"`
		TenantID    int       `json:"tenant_id"`
		Name        string    `json:"name"`
		Code        string    `json:"code"`
		Description string    `json:"description"`
		CreatedAt   time.Time `json:"created_at"` // UTC
	}

	// Enrollment ties a Student to a Course; a plain record with FK
	// references, no further invariants.
	Enrollment struct {
		ID         int       `json:"id"`
		TenantID   int       `json:"tenant_id"`
		CourseID   int       `json:"course_id"`
		StudentID  int       `json:"student_id"`
		EnrolledAt time.Time `json:"enrolled_at"` // UTC
	}

	Attendance struct {
		ID        int       `json:"id"`
		TenantID  int       `json:"tenant_id"`
		CourseID  int       `json:"course_id"`
		StudentID int       `json:"student_id"`
		Date      time.Time `json:"date"`
		Status    string    `json:"status"`
	}
)

type NewCourse struct {
	Name        string `json:"name" validate:"required"`
	Code        string `json:"code" validate:"omitempty,alphanum_"`
	Description string `json:"description"`
}

func (nc *NewCourse) Validate(validate *validator.Validate) error {
	nc.Name = core.CleanString(nc.Name)
	nc.Code = core.CleanString(nc.Code, true /* lower */)
	nc.Description = core.CleanString(nc.Description)
	return validate.Struct(nc)
}

type NewEnrollment struct {
	StudentID int `json:"student_id" validate:"required"`
}

func (ne NewEnrollment) Validate(validate *validator.Validate) error { return validate.Struct(ne) }

type NewAttendance struct {
	StudentID int       `json:"student_id" validate:"required"`
	Date      time.Time `json:"date" validate:"required"`
	Status    string    `json:"status" validate:"required,oneof=PRESENT ABSENT LATE"`
}

func (na NewAttendance) Validate(validate *validator.Validate) error { return validate.Struct(na) }
