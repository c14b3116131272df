package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/course"
)

type courseRepository struct {
	db *sqlx.DB
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *sqlx.DB) *courseRepository {
	return &courseRepository{db: db}
}

type courseRow struct {
	ID          int       `db:"id"`
	TenantID    int       `db:"tenant_id"`
	Name        string    `db:"name"`
	Code        string    `db:"code"`
	Description string    `db:"description"`
	CreatedAt   time.Time `db:"created_at"`
}

func (r courseRow) course() course.Course {
	return course.Course{
		ID:          r.ID,
		TenantID:    r.TenantID,
		Name:        r.Name,
		Code:        r.Code,
		Description: r.Description,
		CreatedAt:   r.CreatedAt,
	}
}

type enrollmentRow struct {
	ID         int       `db:"id"`
	TenantID   int       `db:"tenant_id"`
	CourseID   int       `db:"course_id"`
	StudentID  int       `db:"student_id"`
	EnrolledAt time.Time `db:"enrolled_at"`
}

func (r enrollmentRow) enrollment() course.Enrollment {
	return course.Enrollment{
		ID:         r.ID,
		TenantID:   r.TenantID,
		CourseID:   r.CourseID,
		StudentID:  r.StudentID,
		EnrolledAt: r.EnrolledAt,
	}
}

type attendanceRow struct {
	ID        int       `db:"id"`
	TenantID  int       `db:"tenant_id"`
	CourseID  int       `db:"course_id"`
	StudentID int       `db:"student_id"`
	Date      time.Time `db:"date"`
	Status    string    `db:"status"`
}

func (r attendanceRow) attendance() course.Attendance {
	return course.Attendance{
		ID:        r.ID,
		TenantID:  r.TenantID,
		CourseID:  r.CourseID,
		StudentID: r.StudentID,
		Date:      r.Date,
		Status:    r.Status,
	}
}

const (
	courseColumns     = `id, tenant_id, name, code, description, created_at`
	enrollmentColumns = `id, tenant_id, course_id, student_id, enrolled_at`
	attendanceColumns = `id, tenant_id, course_id, student_id, date, status`
)

// trapNoRowsErr maps psql "no rows" err to course.ErrNotFound
func (repo courseRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return course.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo courseRepository) trapUniquenessErr(err error, msg string) error {
	switch uniqueConstraint(err) {
	case "course_code_key":
		return course.ErrCodeExists
	case "enrollment_course_student_key":
		return course.ErrAlreadyEnrolled
	case "attendance_course_student_date_key":
		return course.ErrAttendanceExists
	}
	return errors.Wrap(err, msg)
}

func (repo courseRepository) CreateCourse(ctx context.Context, c course.Course) (course.Course, error) {
	err := repo.db.GetContext(ctx, &c.ID,
		`INSERT INTO course (tenant_id, name, code, description, created_at)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		c.TenantID, c.Name, c.Code, c.Description, c.CreatedAt.UTC())
	if err != nil {
		return course.Course{}, repo.trapUniquenessErr(err, "inserting course")
	}
	return c, nil
}

func (repo courseRepository) GetCourseByID(ctx context.Context, tenantID, id int) (course.Course, error) {
	var r courseRow
	err := repo.db.GetContext(ctx, &r,
		`SELECT `+courseColumns+` FROM course WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		return course.Course{}, repo.trapNoRowsErr(err, "finding course by ID")
	}
	return r.course(), nil
}

func (repo courseRepository) QueryCoursesByTenant(ctx context.Context, tenantID int, ordering ...core.DBOrdering) ([]course.Course, error) {
	q := `SELECT ` + courseColumns + ` FROM course WHERE tenant_id = $1 ORDER BY ` + orderBy(ordering, "name ASC")
	var rows []courseRow
	if err := repo.db.SelectContext(ctx, &rows, q, tenantID); err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}
	courses := make([]course.Course, 0, len(rows))
	for _, r := range rows {
		courses = append(courses, r.course())
	}
	return courses, nil
}

func (repo courseRepository) UpdateCourse(ctx context.Context, c course.Course) (course.Course, error) {
	res, err := repo.db.ExecContext(ctx,
		`UPDATE course SET name = $1, code = $2, description = $3 WHERE tenant_id = $4 AND id = $5`,
		c.Name, c.Code, c.Description, c.TenantID, c.ID)
	if err != nil {
		return course.Course{}, repo.trapUniquenessErr(err, "updating course")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return course.Course{}, course.ErrNotFound
	}
	return c, nil
}

func (repo courseRepository) DeleteCoursesByID(ctx context.Context, tenantID int, ids ...int) error {
	arr := make([]int64, 0, len(ids))
	for _, id := range ids {
		arr = append(arr, int64(id))
	}
	_, err := repo.db.ExecContext(ctx,
		`DELETE FROM course WHERE tenant_id = $1 AND id = ANY($2)`, tenantID, pq.Int64Array(arr))
	return errors.Wrap(err, "deleting courses")
}

func (repo courseRepository) CreateEnrollment(ctx context.Context, e course.Enrollment) (course.Enrollment, error) {
	err := repo.db.GetContext(ctx, &e.ID,
		`INSERT INTO enrollment (tenant_id, course_id, student_id, enrolled_at)
		 VALUES ($1, $2, $3, $4) RETURNING id`,
		e.TenantID, e.CourseID, e.StudentID, e.EnrolledAt.UTC())
	if err != nil {
		return course.Enrollment{}, repo.trapUniquenessErr(err, "inserting enrollment")
	}
	return e, nil
}

func (repo courseRepository) QueryEnrollmentsByCourse(ctx context.Context, tenantID, courseID int) ([]course.Enrollment, error) {
	var rows []enrollmentRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT `+enrollmentColumns+` FROM enrollment WHERE tenant_id = $1 AND course_id = $2 ORDER BY enrolled_at ASC`,
		tenantID, courseID)
	if err != nil {
		return nil, errors.Wrap(err, "querying enrollments")
	}
	enrollments := make([]course.Enrollment, 0, len(rows))
	for _, r := range rows {
		enrollments = append(enrollments, r.enrollment())
	}
	return enrollments, nil
}

func (repo courseRepository) QueryEnrollmentsByStudent(ctx context.Context, tenantID, studentID int) ([]course.Enrollment, error) {
	var rows []enrollmentRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT `+enrollmentColumns+` FROM enrollment WHERE tenant_id = $1 AND student_id = $2 ORDER BY enrolled_at ASC`,
		tenantID, studentID)
	if err != nil {
		return nil, errors.Wrap(err, "querying enrollments")
	}
	enrollments := make([]course.Enrollment, 0, len(rows))
	for _, r := range rows {
		enrollments = append(enrollments, r.enrollment())
	}
	return enrollments, nil
}

func (repo courseRepository) DeleteEnrollment(ctx context.Context, tenantID, courseID, studentID int) error {
	res, err := repo.db.ExecContext(ctx,
		`DELETE FROM enrollment WHERE tenant_id = $1 AND course_id = $2 AND student_id = $3`,
		tenantID, courseID, studentID)
	if err != nil {
		return errors.Wrap(err, "deleting enrollment")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return course.ErrEnrollmentNotFound
	}
	return nil
}

func (repo courseRepository) CreateAttendance(ctx context.Context, a course.Attendance) (course.Attendance, error) {
	err := repo.db.GetContext(ctx, &a.ID,
		`INSERT INTO attendance (tenant_id, course_id, student_id, date, status)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		a.TenantID, a.CourseID, a.StudentID, a.Date, a.Status)
	if err != nil {
		return course.Attendance{}, repo.trapUniquenessErr(err, "inserting attendance")
	}
	return a, nil
}

func (repo courseRepository) QueryAttendanceByCourse(ctx context.Context, tenantID, courseID int, date time.Time) ([]course.Attendance, error) {
	var rows []attendanceRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT `+attendanceColumns+` FROM attendance WHERE tenant_id = $1 AND course_id = $2 AND date = $3 ORDER BY student_id ASC`,
		tenantID, courseID, date)
	if err != nil {
		return nil, errors.Wrap(err, "querying attendance")
	}
	marks := make([]course.Attendance, 0, len(rows))
	for _, r := range rows {
		marks = append(marks, r.attendance())
	}
	return marks, nil
}
