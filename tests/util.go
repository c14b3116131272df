package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/darasahq/darasa/core/course"
	"github.com/darasahq/darasa/core/student"
	"github.com/darasahq/darasa/core/tenant"
	"github.com/darasahq/darasa/core/user"
)

func CreateTenant(t *testing.T, repo tenant.Repository, name, subdomain string) tenant.Tenant {
	tnt, err := repo.CreateTenant(context.Background(), tenant.Tenant{
		Name:      name,
		Subdomain: subdomain,
		Slug:      tenant.Slugify(name),
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateTenant() failed: %v", err)
	}
	return tnt
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, email, pwd, role string,
	tenantID null.Int,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		FullName:  name,
		Email:     email,
		Role:      role,
		TenantID:  tenantID,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateStudent(t *testing.T, repo student.Repository, tenantID int, no, name string) student.Student {
	s, err := repo.CreateStudent(context.Background(), student.Student{
		StudentNo:    no,
		FullName:     name,
		TenantID:     tenantID,
		RegisteredAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	return s
}

func CreateCourse(t *testing.T, repo course.Repository, tenantID int, name, code string) course.Course {
	c, err := repo.CreateCourse(context.Background(), course.Course{
		TenantID:  tenantID,
		Name:      name,
		Code:      code,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateCourse() failed: %v", err)
	}
	return c
}

// NopLogger discards everything; for wiring test servers.
type NopLogger struct{}

func (NopLogger) Enable(bool)                        {}
func (NopLogger) Debug(string, ...interface{})       {}
func (NopLogger) Info(string, ...interface{})        {}
func (NopLogger) Warn(string, ...interface{})        {}
func (NopLogger) Error(string, ...interface{})       {}
func (NopLogger) Fatal(msg string, _ ...interface{}) { panic(msg) }
