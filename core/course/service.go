package course

import (
	"context"
	"errors"
	"time"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/student"
)

var (
	// errors
	ErrNotFound           = errors.New("course not found")
	ErrEnrollmentNotFound = errors.New("enrollment not found")
	ErrCodeExists         = errors.New("a course with this code already exists")
	ErrAlreadyEnrolled    = errors.New("student is already enrolled in this course")
	ErrAttendanceExists   = errors.New("attendance for this student and date is already recorded")
)

type (
	Repository interface {
		CreateCourse(ctx context.Context, c Course) (Course, error)
		// GetCourseByID only returns courses of the given tenant.
		GetCourseByID(ctx context.Context, tenantID, id int) (Course, error)
		QueryCoursesByTenant(ctx context.Context, tenantID int, ordering ...core.DBOrdering) ([]Course, error)
		UpdateCourse(ctx context.Context, c Course) (Course, error)
		DeleteCoursesByID(ctx context.Context, tenantID int, ids ...int) error

		CreateEnrollment(ctx context.Context, e Enrollment) (Enrollment, error)
		QueryEnrollmentsByCourse(ctx context.Context, tenantID, courseID int) ([]Enrollment, error)
		QueryEnrollmentsByStudent(ctx context.Context, tenantID, studentID int) ([]Enrollment, error)
		DeleteEnrollment(ctx context.Context, tenantID, courseID, studentID int) error

		CreateAttendance(ctx context.Context, a Attendance) (Attendance, error)
		QueryAttendanceByCourse(ctx context.Context, tenantID, courseID int, date time.Time) ([]Attendance, error)
	}

	// StudentGetter is the slice of student.Service needed here to check that
	// referenced students exist within the tenant.
	StudentGetter interface {
		GetByID(ctx context.Context, tenantID, id int) (student.Student, error)
	}

	Service interface {
		Create(ctx context.Context, nc NewCourse, tenantID int) (Course, error)
		GetByID(ctx context.Context, tenantID, id int) (Course, error)
		QueryByTenant(ctx context.Context, tenantID int, ordering ...core.DBOrdering) ([]Course, error)
		Update(ctx context.Context, tenantID, id int, nc NewCourse) (Course, error)
		Delete(ctx context.Context, tenantID int, ids ...int) error

		Enroll(ctx context.Context, tenantID, courseID int, ne NewEnrollment) (Enrollment, error)
		Unenroll(ctx context.Context, tenantID, courseID, studentID int) error
		QueryEnrollments(ctx context.Context, tenantID, courseID int) ([]Enrollment, error)

		RecordAttendance(ctx context.Context, tenantID, courseID int, na NewAttendance) (Attendance, error)
		QueryAttendance(ctx context.Context, tenantID, courseID int, date time.Time) ([]Attendance, error)
	}

	service struct {
		repo     Repository
		students StudentGetter
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, students StudentGetter) Service {
	return &service{repo: repo, students: students}
}

func (svc *service) Create(ctx context.Context, nc NewCourse, tenantID int) (Course, error) {
	c := Course{
		TenantID:    tenantID,
		Name:        nc.Name,
		Code:        nc.Code,
		Description: nc.Description,
		CreatedAt:   time.Now().UTC(),
	}
	c, err := svc.repo.CreateCourse(ctx, c)
	if err != nil {
		if err == ErrCodeExists {
			return Course{}, core.NewConflictError(err)
		}
		return Course{}, err
	}
	return c, nil
}

func (svc *service) GetByID(ctx context.Context, tenantID, id int) (Course, error) {
	return svc.repo.GetCourseByID(ctx, tenantID, id)
}

func (svc *service) QueryByTenant(ctx context.Context, tenantID int, ordering ...core.DBOrdering) ([]Course, error) {
	return svc.repo.QueryCoursesByTenant(ctx, tenantID, ordering...)
}

func (svc *service) Update(ctx context.Context, tenantID, id int, nc NewCourse) (Course, error) {
	c, err := svc.repo.GetCourseByID(ctx, tenantID, id)
	if err != nil {
		return Course{}, err
	}
	c.Name = nc.Name
	c.Code = nc.Code
	c.Description = nc.Description
	c, err = svc.repo.UpdateCourse(ctx, c)
	if err != nil {
		if err == ErrCodeExists {
			return Course{}, core.NewConflictError(err)
		}
		return Course{}, err
	}
	return c, nil
}

func (svc *service) Delete(ctx context.Context, tenantID int, ids ...int) error {
	return svc.repo.DeleteCoursesByID(ctx, tenantID, ids...)
}

// Enroll registers a student on a course. Both records must belong to the
// tenant; cross-tenant references are indistinguishable from missing ones.
func (svc *service) Enroll(ctx context.Context, tenantID, courseID int, ne NewEnrollment) (Enrollment, error) {
	if _, err := svc.repo.GetCourseByID(ctx, tenantID, courseID); err != nil {
		return Enrollment{}, err
	}
	if _, err := svc.students.GetByID(ctx, tenantID, ne.StudentID); err != nil {
		return Enrollment{}, err
	}
	e := Enrollment{
		TenantID:   tenantID,
		CourseID:   courseID,
		StudentID:  ne.StudentID,
		EnrolledAt: time.Now().UTC(),
	}
	e, err := svc.repo.CreateEnrollment(ctx, e)
	if err != nil {
		if err == ErrAlreadyEnrolled {
			return Enrollment{}, core.NewConflictError(err)
		}
		return Enrollment{}, err
	}
	return e, nil
}

func (svc *service) Unenroll(ctx context.Context, tenantID, courseID, studentID int) error {
	return svc.repo.DeleteEnrollment(ctx, tenantID, courseID, studentID)
}

func (svc *service) QueryEnrollments(ctx context.Context, tenantID, courseID int) ([]Enrollment, error) {
	if _, err := svc.repo.GetCourseByID(ctx, tenantID, courseID); err != nil {
		return nil, err
	}
	return svc.repo.QueryEnrollmentsByCourse(ctx, tenantID, courseID)
}

// RecordAttendance stores one attendance mark per (course, student, date).
// The date is truncated to midnight UTC so two marks on the same calendar day
// collide regardless of the submitted time of day.
func (svc *service) RecordAttendance(ctx context.Context, tenantID, courseID int, na NewAttendance) (Attendance, error) {
	if _, err := svc.repo.GetCourseByID(ctx, tenantID, courseID); err != nil {
		return Attendance{}, err
	}
	if _, err := svc.students.GetByID(ctx, tenantID, na.StudentID); err != nil {
		return Attendance{}, err
	}
	a := Attendance{
		TenantID:  tenantID,
		CourseID:  courseID,
		StudentID: na.StudentID,
		Date:      truncateToDay(na.Date),
		Status:    na.Status,
	}
	a, err := svc.repo.CreateAttendance(ctx, a)
	if err != nil {
		if err == ErrAttendanceExists {
			return Attendance{}, core.NewConflictError(err)
		}
		return Attendance{}, err
	}
	return a, nil
}

func (svc *service) QueryAttendance(ctx context.Context, tenantID, courseID int, date time.Time) ([]Attendance, error) {
	if _, err := svc.repo.GetCourseByID(ctx, tenantID, courseID); err != nil {
		return nil, err
	}
	return svc.repo.QueryAttendanceByCourse(ctx, tenantID, courseID, truncateToDay(date))
}

func truncateToDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
