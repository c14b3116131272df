package student

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/darasahq/darasa/core"
)

// Student is a tenant-scoped enrollment record. It is distinct from a User:
// a student record may exist without a login account.
type Student struct {
	ID           int       `json:"id"`
	StudentNo    string    `json:"student_no"` // human-readable, generated at creation
	FullName     string    `json:"full_name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	TenantID     int       `json:"tenant_id"`
	RegisteredAt time.Time `json:"registered_at"` // UTC
}

// NewStudent contains information needed to register a new Student.
type NewStudent struct {
	FullName string `json:"full_name" validate:"required"`
	Email    string `json:"email" validate:"omitempty,email"`
	Phone    string `json:"phone"`
}

func (ns *NewStudent) Validate(validate *validator.Validate) error {
	ns.FullName = core.CleanString(ns.FullName)
	ns.Email = core.CleanString(ns.Email, true /* lower */)
	ns.Phone = core.CleanString(ns.Phone)
	return validate.Struct(ns)
}

// UpdateStudent defines what information may be provided to modify an existing Student.
type UpdateStudent struct {
	FullName string `json:"full_name"`
	Email    string `json:"email" validate:"omitempty,email"`
	Phone    string `json:"phone"`
}

func (us *UpdateStudent) Validate(validate *validator.Validate, orig Student) error {
	name := core.CleanString(us.FullName)
	if name != "" {
		us.FullName = name
	} else {
		us.FullName = orig.FullName
	}

	email := core.CleanString(us.Email, true /* lower */)
	if email != "" {
		us.Email = email
	} else {
		us.Email = orig.Email
	}

	phone := core.CleanString(us.Phone)
	if phone != "" {
		us.Phone = phone
	} else {
		us.Phone = orig.Phone
	}

	return validate.Struct(us)
}

// DashboardStats feeds the tenant admin dashboard.
type DashboardStats struct {
	TotalStudents  int       `json:"total_students"`
	RecentStudents []Student `json:"recent_students"`
}
