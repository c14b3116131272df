package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/course"
)

type courseRepository struct {
	course     *courseTable
	enrollment *enrollmentTable
	attendance *attendanceTable
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *DB) course.Repository {
	return &courseRepository{
		course:     db.course,
		enrollment: db.enrollment,
		attendance: db.attendance,
	}
}

func (repo *courseRepository) CreateCourse(ctx context.Context, c course.Course) (course.Course, error) {
	repo.course.Lock()
	defer repo.course.Unlock()

	if c.Code != "" {
		for _, existing := range repo.course.table {
			if existing.TenantID == c.TenantID && existing.Code == c.Code {
				return course.Course{}, course.ErrCodeExists
			}
		}
	}

	repo.course.pkCount++
	c.ID = repo.course.pkCount
	repo.course.table[c.ID] = &c
	return c, nil
}

func (repo *courseRepository) GetCourseByID(ctx context.Context, tenantID, id int) (course.Course, error) {
	repo.course.RLock()
	defer repo.course.RUnlock()

	if c, ok := repo.course.table[id]; ok && c.TenantID == tenantID {
		return *c, nil
	}
	return course.Course{}, course.ErrNotFound
}

func (repo *courseRepository) QueryCoursesByTenant(ctx context.Context, tenantID int, ordering ...core.DBOrdering) ([]course.Course, error) {
	repo.course.RLock()
	defer repo.course.RUnlock()

	courses := make([]course.Course, 0)
	for _, c := range repo.course.table {
		if c.TenantID == tenantID {
			courses = append(courses, *c)
		}
	}

	ord := core.DBOrdering{Field: "name", Ascending: true}
	if len(ordering) > 0 {
		ord = ordering[0]
	}
	sort.SliceStable(courses, func(i, j int) bool {
		var less bool
		switch ord.Field {
		case "created_at":
			less = courses[i].CreatedAt.Before(courses[j].CreatedAt)
		case "code":
			less = courses[i].Code < courses[j].Code
		default:
			less = courses[i].Name < courses[j].Name
		}
		if ord.Ascending {
			return less
		}
		return !less
	})
	return courses, nil
}

func (repo *courseRepository) UpdateCourse(ctx context.Context, c course.Course) (course.Course, error) {
	repo.course.Lock()
	defer repo.course.Unlock()

	orig, ok := repo.course.table[c.ID]
	if !ok || orig.TenantID != c.TenantID {
		return course.Course{}, course.ErrNotFound
	}
	if c.Code != "" && c.Code != orig.Code {
		for _, existing := range repo.course.table {
			if existing.ID != c.ID && existing.TenantID == c.TenantID && existing.Code == c.Code {
				return course.Course{}, course.ErrCodeExists
			}
		}
	}
	orig.Name = c.Name
	orig.Code = c.Code
	orig.Description = c.Description
	return *orig, nil
}

func (repo *courseRepository) DeleteCoursesByID(ctx context.Context, tenantID int, ids ...int) error {
	repo.course.Lock()
	defer repo.course.Unlock()
	for _, id := range ids {
		if c, ok := repo.course.table[id]; ok && c.TenantID == tenantID {
			delete(repo.course.table, id)
		}
	}
	return nil
}

func (repo *courseRepository) CreateEnrollment(ctx context.Context, e course.Enrollment) (course.Enrollment, error) {
	repo.enrollment.Lock()
	defer repo.enrollment.Unlock()

	for _, existing := range repo.enrollment.table {
		if existing.CourseID == e.CourseID && existing.StudentID == e.StudentID {
			return course.Enrollment{}, course.ErrAlreadyEnrolled
		}
	}

	repo.enrollment.pkCount++
	e.ID = repo.enrollment.pkCount
	repo.enrollment.table[e.ID] = &e
	return e, nil
}

func (repo *courseRepository) QueryEnrollmentsByCourse(ctx context.Context, tenantID, courseID int) ([]course.Enrollment, error) {
	repo.enrollment.RLock()
	defer repo.enrollment.RUnlock()

	enrollments := make([]course.Enrollment, 0)
	for _, e := range repo.enrollment.table {
		if e.TenantID == tenantID && e.CourseID == courseID {
			enrollments = append(enrollments, *e)
		}
	}
	sort.Slice(enrollments, func(i, j int) bool { return enrollments[i].EnrolledAt.Before(enrollments[j].EnrolledAt) })
	return enrollments, nil
}

func (repo *courseRepository) QueryEnrollmentsByStudent(ctx context.Context, tenantID, studentID int) ([]course.Enrollment, error) {
	repo.enrollment.RLock()
	defer repo.enrollment.RUnlock()

	enrollments := make([]course.Enrollment, 0)
	for _, e := range repo.enrollment.table {
		if e.TenantID == tenantID && e.StudentID == studentID {
			enrollments = append(enrollments, *e)
		}
	}
	sort.Slice(enrollments, func(i, j int) bool { return enrollments[i].EnrolledAt.Before(enrollments[j].EnrolledAt) })
	return enrollments, nil
}

func (repo *courseRepository) DeleteEnrollment(ctx context.Context, tenantID, courseID, studentID int) error {
	repo.enrollment.Lock()
	defer repo.enrollment.Unlock()

	for id, e := range repo.enrollment.table {
		if e.TenantID == tenantID && e.CourseID == courseID && e.StudentID == studentID {
			delete(repo.enrollment.table, id)
			return nil
		}
	}
	return course.ErrEnrollmentNotFound
}

func (repo *courseRepository) CreateAttendance(ctx context.Context, a course.Attendance) (course.Attendance, error) {
	repo.attendance.Lock()
	defer repo.attendance.Unlock()

	for _, existing := range repo.attendance.table {
		if existing.CourseID == a.CourseID && existing.StudentID == a.StudentID && existing.Date.Equal(a.Date) {
			return course.Attendance{}, course.ErrAttendanceExists
		}
	}

	repo.attendance.pkCount++
	a.ID = repo.attendance.pkCount
	repo.attendance.table[a.ID] = &a
	return a, nil
}

func (repo *courseRepository) QueryAttendanceByCourse(ctx context.Context, tenantID, courseID int, date time.Time) ([]course.Attendance, error) {
	repo.attendance.RLock()
	defer repo.attendance.RUnlock()

	marks := make([]course.Attendance, 0)
	for _, a := range repo.attendance.table {
		if a.TenantID == tenantID && a.CourseID == courseID && a.Date.Equal(date) {
			marks = append(marks, *a)
		}
	}
	sort.Slice(marks, func(i, j int) bool { return marks[i].StudentID < marks[j].StudentID })
	return marks, nil
}
