package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/student"
)

type studentRepository struct {
	db *sqlx.DB
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *sqlx.DB) *studentRepository {
	return &studentRepository{db: db}
}

const studentColumns = `id, student_no, full_name, email, phone, tenant_id, registered_at`

// trapNoRowsErr maps psql "no rows" err to student.ErrNotFound
func (repo studentRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return student.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo studentRepository) trapUniquenessErr(err error, msg string) error {
	if uniqueConstraint(err) == "student_student_no_key" {
		return student.ErrStudentNoExists
	}
	return errors.Wrap(err, msg)
}

func (repo studentRepository) CreateStudent(ctx context.Context, s student.Student) (student.Student, error) {
	err := repo.db.GetContext(ctx, &s.ID,
		`INSERT INTO student (student_no, full_name, email, phone, tenant_id, registered_at)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		s.StudentNo, s.FullName, s.Email, s.Phone, s.TenantID, s.RegisteredAt.UTC())
	if err != nil {
		return student.Student{}, repo.trapUniquenessErr(err, "inserting student")
	}
	return s, nil
}

func (repo studentRepository) GetStudentByID(ctx context.Context, tenantID, id int) (student.Student, error) {
	var s student.Student
	err := repo.db.QueryRowxContext(ctx,
		`SELECT `+studentColumns+` FROM student WHERE tenant_id = $1 AND id = $2`, tenantID, id).
		Scan(&s.ID, &s.StudentNo, &s.FullName, &s.Email, &s.Phone, &s.TenantID, &s.RegisteredAt)
	if err != nil {
		return student.Student{}, repo.trapNoRowsErr(err, "finding student by ID")
	}
	return s, nil
}

func (repo studentRepository) QueryStudentsByTenant(ctx context.Context, tenantID int, ordering ...core.DBOrdering) ([]student.Student, error) {
	q := `SELECT ` + studentColumns + ` FROM student WHERE tenant_id = $1 ORDER BY ` + orderBy(ordering, "full_name ASC")
	rows, err := repo.db.QueryxContext(ctx, q, tenantID)
	if err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	defer func() { _ = rows.Close() }()

	students := make([]student.Student, 0)
	for rows.Next() {
		var s student.Student
		if err = rows.Scan(&s.ID, &s.StudentNo, &s.FullName, &s.Email, &s.Phone, &s.TenantID, &s.RegisteredAt); err != nil {
			return nil, errors.Wrap(err, "scanning student")
		}
		students = append(students, s)
	}
	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	return students, nil
}

func (repo studentRepository) CountStudentsByTenant(ctx context.Context, tenantID int) (int, error) {
	var count int
	err := repo.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM student WHERE tenant_id = $1`, tenantID)
	if err != nil {
		return 0, errors.Wrap(err, "counting students")
	}
	return count, nil
}

func (repo studentRepository) UpdateStudent(ctx context.Context, s student.Student) (student.Student, error) {
	res, err := repo.db.ExecContext(ctx,
		`UPDATE student SET full_name = $1, email = $2, phone = $3 WHERE tenant_id = $4 AND id = $5`,
		s.FullName, s.Email, s.Phone, s.TenantID, s.ID)
	if err != nil {
		return student.Student{}, errors.Wrap(err, "updating student")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return student.Student{}, student.ErrNotFound
	}
	return s, nil
}

func (repo studentRepository) DeleteStudentsByID(ctx context.Context, tenantID int, ids ...int) error {
	arr := make([]int64, 0, len(ids))
	for _, id := range ids {
		arr = append(arr, int64(id))
	}
	_, err := repo.db.ExecContext(ctx,
		`DELETE FROM student WHERE tenant_id = $1 AND id = ANY($2)`, tenantID, pq.Int64Array(arr))
	return errors.Wrap(err, "deleting students")
}
