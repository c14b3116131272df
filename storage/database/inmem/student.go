package inmemdb

import (
	"context"
	"sort"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/student"
)

type studentRepository struct {
	db *studentTable
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *DB) student.Repository {
	return &studentRepository{db: db.student}
}

func (repo *studentRepository) queryByTenant(tenantID int) []student.Student {
	students := make([]student.Student, 0)
	for _, s := range repo.db.table {
		if s.TenantID == tenantID {
			students = append(students, *s)
		}
	}
	return students
}

func (repo *studentRepository) CreateStudent(ctx context.Context, s student.Student) (student.Student, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, existing := range repo.db.table {
		if existing.TenantID == s.TenantID && existing.StudentNo == s.StudentNo {
			return student.Student{}, student.ErrStudentNoExists
		}
	}

	repo.db.pkCount++
	s.ID = repo.db.pkCount
	repo.db.table[s.ID] = &s
	return s, nil
}

func (repo *studentRepository) GetStudentByID(ctx context.Context, tenantID, id int) (student.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if s, ok := repo.db.table[id]; ok && s.TenantID == tenantID {
		return *s, nil
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *studentRepository) QueryStudentsByTenant(ctx context.Context, tenantID int, ordering ...core.DBOrdering) ([]student.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	students := repo.queryByTenant(tenantID)
	sortStudents(students, ordering)
	return students, nil
}

func sortStudents(students []student.Student, ordering []core.DBOrdering) {
	ord := core.DBOrdering{Field: "full_name", Ascending: true}
	if len(ordering) > 0 {
		ord = ordering[0]
	}
	sort.SliceStable(students, func(i, j int) bool {
		var less bool
		switch ord.Field {
		case "registered_at":
			less = students[i].RegisteredAt.Before(students[j].RegisteredAt)
		case "student_no":
			less = students[i].StudentNo < students[j].StudentNo
		default:
			less = students[i].FullName < students[j].FullName
		}
		if ord.Ascending {
			return less
		}
		return !less
	})
}

func (repo *studentRepository) CountStudentsByTenant(ctx context.Context, tenantID int) (int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return len(repo.queryByTenant(tenantID)), nil
}

func (repo *studentRepository) UpdateStudent(ctx context.Context, s student.Student) (student.Student, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.table[s.ID]
	if !ok || orig.TenantID != s.TenantID {
		return student.Student{}, student.ErrNotFound
	}
	orig.FullName = s.FullName
	orig.Email = s.Email
	orig.Phone = s.Phone
	return *orig, nil
}

func (repo *studentRepository) DeleteStudentsByID(ctx context.Context, tenantID int, ids ...int) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	for _, id := range ids {
		if s, ok := repo.db.table[id]; ok && s.TenantID == tenantID {
			delete(repo.db.table, id)
		}
	}
	return nil
}
