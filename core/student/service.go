package student

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/darasahq/darasa/core"
)

var (
	// errors
	ErrNotFound        = errors.New("student not found")
	ErrStudentNoExists = errors.New("a student with this number already exists")
)

type (
	Repository interface {
		CreateStudent(ctx context.Context, s Student) (Student, error)
		// GetStudentByID only returns students of the given tenant.
		GetStudentByID(ctx context.Context, tenantID, id int) (Student, error)
		QueryStudentsByTenant(ctx context.Context, tenantID int, ordering ...core.DBOrdering) ([]Student, error)
		CountStudentsByTenant(ctx context.Context, tenantID int) (int, error)
		UpdateStudent(ctx context.Context, s Student) (Student, error)
		DeleteStudentsByID(ctx context.Context, tenantID int, ids ...int) error
	}

	Service interface {
		Create(ctx context.Context, ns NewStudent, tenantID int) (Student, error)
		GetByID(ctx context.Context, tenantID, id int) (Student, error)
		QueryByTenant(ctx context.Context, tenantID int, ordering ...core.DBOrdering) ([]Student, error)
		DashboardStats(ctx context.Context, tenantID int) (DashboardStats, error)
		Update(ctx context.Context, tenantID, id int, us UpdateStudent) (Student, error)
		Delete(ctx context.Context, tenantID int, ids ...int) error
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) Create(ctx context.Context, ns NewStudent, tenantID int) (Student, error) {
	no, err := generateStudentNo()
	if err != nil {
		return Student{}, err
	}
	s := Student{
		StudentNo:    no,
		FullName:     ns.FullName,
		Email:        ns.Email,
		Phone:        ns.Phone,
		TenantID:     tenantID,
		RegisteredAt: time.Now().UTC(),
	}
	s, err = svc.repo.CreateStudent(ctx, s)
	if err != nil {
		if err == ErrStudentNoExists {
			return Student{}, core.NewConflictError(err)
		}
		return Student{}, err
	}
	return s, nil
}

func (svc *service) GetByID(ctx context.Context, tenantID, id int) (Student, error) {
	return svc.repo.GetStudentByID(ctx, tenantID, id)
}

func (svc *service) QueryByTenant(ctx context.Context, tenantID int, ordering ...core.DBOrdering) ([]Student, error) {
	return svc.repo.QueryStudentsByTenant(ctx, tenantID, ordering...)
}

// DashboardStats returns the student count and the five most recent
// registrations for a tenant.
func (svc *service) DashboardStats(ctx context.Context, tenantID int) (DashboardStats, error) {
	total, err := svc.repo.CountStudentsByTenant(ctx, tenantID)
	if err != nil {
		return DashboardStats{}, err
	}
	recent, err := svc.repo.QueryStudentsByTenant(ctx, tenantID, core.DBOrdering{Field: "registered_at"})
	if err != nil {
		return DashboardStats{}, err
	}
	if len(recent) > 5 {
		recent = recent[:5]
	}
	return DashboardStats{TotalStudents: total, RecentStudents: recent}, nil
}

func (svc *service) Update(ctx context.Context, tenantID, id int, us UpdateStudent) (Student, error) {
	s, err := svc.repo.GetStudentByID(ctx, tenantID, id)
	if err != nil {
		return Student{}, err
	}
	s.FullName = us.FullName
	s.Email = us.Email
	s.Phone = us.Phone
	return svc.repo.UpdateStudent(ctx, s)
}

func (svc *service) Delete(ctx context.Context, tenantID int, ids ...int) error {
	return svc.repo.DeleteStudentsByID(ctx, tenantID, ids...)
}

// generateStudentNo makes a short human-readable identifier, eg. "STU-4F2A9C".
func generateStudentNo() (string, error) {
	buf := make([]byte, 3)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return "STU-" + strings.ToUpper(hex.EncodeToString(buf)), nil
}
