// Package inmemdb provides map-backed repositories for tests and local
// development without a postgres instance.
package inmemdb

import (
	"sync"

	"github.com/darasahq/darasa/core/course"
	"github.com/darasahq/darasa/core/student"
	"github.com/darasahq/darasa/core/tenant"
	"github.com/darasahq/darasa/core/user"
)

type (
	DB struct {
		tenant     *tenantTable
		user       *userTable
		student    *studentTable
		course     *courseTable
		enrollment *enrollmentTable
		attendance *attendanceTable
	}

	tenantTable struct {
		sync.RWMutex
		table   map[int]*tenant.Tenant
		pkCount int
	}

	userTable struct {
		sync.RWMutex
		table   map[int]*user.User
		pkCount int
	}

	studentTable struct {
		sync.RWMutex
		table   map[int]*student.Student
		pkCount int
	}

	courseTable struct {
		sync.RWMutex
		table   map[int]*course.Course
		pkCount int
	}

	enrollmentTable struct {
		sync.RWMutex
		table   map[int]*course.Enrollment
		pkCount int
	}

	attendanceTable struct {
		sync.RWMutex
		table   map[int]*course.Attendance
		pkCount int
	}
)

func Open() (*DB, error) {
	db := &DB{
		tenant:     &tenantTable{table: make(map[int]*tenant.Tenant)},
		user:       &userTable{table: make(map[int]*user.User)},
		student:    &studentTable{table: make(map[int]*student.Student)},
		course:     &courseTable{table: make(map[int]*course.Course)},
		enrollment: &enrollmentTable{table: make(map[int]*course.Enrollment)},
		attendance: &attendanceTable{table: make(map[int]*course.Attendance)},
	}
	return db, nil
}
