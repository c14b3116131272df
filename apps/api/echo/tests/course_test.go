package tests

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/darasahq/darasa/core/course"
	"github.com/darasahq/darasa/core/user"
	testutil "github.com/darasahq/darasa/tests"
)

func Test_courseApi_crud(t *testing.T) {
	app := setup(t)

	alpha := testutil.CreateTenant(t, tenantRepo, "Alpha School", "alpha")
	beta := testutil.CreateTenant(t, tenantRepo, "Beta School", "beta")
	alphaAdmin := testutil.CreateUser(t, usrRepo, "Alpha Admin", "admin@alpha.test", "", user.RoleClientAdmin, null.IntFrom(alpha.ID), true)
	alphaTeacher := testutil.CreateUser(t, usrRepo, "Alpha Teacher", "teacher@alpha.test", "", user.RoleEmployee, null.IntFrom(alpha.ID), true)

	adminToken := getToken(t, alphaAdmin)

	var maths course.Course
	t.Run("create", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/api/courses", tenantHost("alpha"), adminToken,
			marchallObj(t, course.NewCourse{Name: "Mathematics", Code: "math101"}))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &maths); err != nil {
			t.Fatalf("json.Unmarshal() failed! err %v", err)
		}
		if maths.TenantID != alpha.ID {
			t.Errorf("failed! tenant_id = %d; want %d", maths.TenantID, alpha.ID)
		}
	})

	t.Run("duplicate code conflicts", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/api/courses", tenantHost("alpha"), adminToken,
			marchallObj(t, course.NewCourse{Name: "Mathematics II", Code: "math101"}))
		app.ServeHTTP(rec, req)
		tt := httpTest{
			wantCode: http.StatusConflict,
			wantData: marchallObj(t, httpErr{Error: "a course with this code already exists"}),
		}
		checkCodeAndData(t, tt, rec)
	})

	t.Run("same code allowed in another tenant", func(t *testing.T) {
		betaAdmin := testutil.CreateUser(t, usrRepo, "Beta Admin", "admin@beta.test", "", user.RoleClientAdmin, null.IntFrom(beta.ID), true)
		req, rec := newAuthRequest(http.MethodPost, "/api/courses", tenantHost("beta"), getToken(t, betaAdmin),
			marchallObj(t, course.NewCourse{Name: "Mathematics", Code: "math101"}))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Errorf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("members can read", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/courses", tenantHost("alpha"), getToken(t, alphaTeacher))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallList(t, maths)}, rec)
	})

	t.Run("members cannot write", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, "/api/courses/"+itoa(maths.ID), tenantHost("alpha"), getToken(t, alphaTeacher),
			marchallObj(t, course.NewCourse{Name: "Maths"}))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)}, rec)
	})

	t.Run("update", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, "/api/courses/"+itoa(maths.ID), tenantHost("alpha"), adminToken,
			marchallObj(t, course.NewCourse{Name: "Applied Mathematics", Code: "math101"}))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
		var respData course.Course
		if err := json.Unmarshal(rec.Body.Bytes(), &respData); err != nil {
			t.Fatalf("json.Unmarshal() failed! err %v", err)
		}
		if respData.Name != "Applied Mathematics" {
			t.Errorf("failed! name = %q", respData.Name)
		}
	})

	t.Run("delete", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/api/courses/"+itoa(maths.ID), tenantHost("alpha"), adminToken)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("failed! code = %v", rec.Code)
		}

		req, rec = newAuthRequest(http.MethodGet, "/api/courses/"+itoa(maths.ID), tenantHost("alpha"), adminToken)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusNotFound {
			t.Errorf("failed! code = %v; wantCode %v", rec.Code, http.StatusNotFound)
		}
	})
}

func Test_courseApi_enrollments(t *testing.T) {
	app := setup(t)

	alpha := testutil.CreateTenant(t, tenantRepo, "Alpha School", "alpha")
	beta := testutil.CreateTenant(t, tenantRepo, "Beta School", "beta")
	alphaAdmin := testutil.CreateUser(t, usrRepo, "Alpha Admin", "admin@alpha.test", "", user.RoleClientAdmin, null.IntFrom(alpha.ID), true)

	maths := testutil.CreateCourse(t, courseRepo, alpha.ID, "Mathematics", "math101")
	betaCourse := testutil.CreateCourse(t, courseRepo, beta.ID, "Biology", "bio101")
	s1 := testutil.CreateStudent(t, studentRepo, alpha.ID, "STU-A1", "Amani Juma")
	s3 := testutil.CreateStudent(t, studentRepo, beta.ID, "STU-B1", "Chiku Penda")

	adminToken := getToken(t, alphaAdmin)
	enrollPath := "/api/courses/" + itoa(maths.ID) + "/enrollments"
	body := func(studentID int) []byte {
		return marchallObj(t, course.NewEnrollment{StudentID: studentID})
	}

	t.Run("enroll", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, enrollPath, tenantHost("alpha"), adminToken, body(s1.ID))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("double enrollment conflicts", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, enrollPath, tenantHost("alpha"), adminToken, body(s1.ID))
		app.ServeHTTP(rec, req)
		tt := httpTest{
			wantCode: http.StatusConflict,
			wantData: marchallObj(t, httpErr{Error: "student is already enrolled in this course"}),
		}
		checkCodeAndData(t, tt, rec)
	})

	t.Run("cross-tenant student reads as absent", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, enrollPath, tenantHost("alpha"), adminToken, body(s3.ID))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound)}, rec)
	})

	t.Run("cross-tenant course reads as absent", func(t *testing.T) {
		path := "/api/courses/" + itoa(betaCourse.ID) + "/enrollments"
		req, rec := newAuthRequest(http.MethodPost, path, tenantHost("alpha"), adminToken, body(s1.ID))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound)}, rec)
	})

	t.Run("list enrollments", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, enrollPath, tenantHost("alpha"), adminToken)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v", rec.Code)
		}
		var enrollments []course.Enrollment
		if err := json.Unmarshal(rec.Body.Bytes(), &enrollments); err != nil {
			t.Fatalf("json.Unmarshal() failed! err %v", err)
		}
		if len(enrollments) != 1 || enrollments[0].StudentID != s1.ID {
			t.Errorf("failed! enrollments = %+v", enrollments)
		}
	})

	t.Run("unenroll", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, enrollPath+"/"+itoa(s1.ID), tenantHost("alpha"), adminToken)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("failed! code = %v", rec.Code)
		}

		// a second attempt reads as absent
		req, rec = newAuthRequest(http.MethodDelete, enrollPath+"/"+itoa(s1.ID), tenantHost("alpha"), adminToken)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusNotFound {
			t.Errorf("failed! code = %v; wantCode %v", rec.Code, http.StatusNotFound)
		}
	})
}

func Test_courseApi_attendance(t *testing.T) {
	app := setup(t)

	alpha := testutil.CreateTenant(t, tenantRepo, "Alpha School", "alpha")
	alphaAdmin := testutil.CreateUser(t, usrRepo, "Alpha Admin", "admin@alpha.test", "", user.RoleClientAdmin, null.IntFrom(alpha.ID), true)
	alphaTeacher := testutil.CreateUser(t, usrRepo, "Alpha Teacher", "teacher@alpha.test", "", user.RoleEmployee, null.IntFrom(alpha.ID), true)

	maths := testutil.CreateCourse(t, courseRepo, alpha.ID, "Mathematics", "math101")
	s1 := testutil.CreateStudent(t, studentRepo, alpha.ID, "STU-A1", "Amani Juma")

	adminToken := getToken(t, alphaAdmin)
	attendancePath := "/api/courses/" + itoa(maths.ID) + "/attendance"
	day := time.Date(2021, 3, 2, 10, 30, 0, 0, time.UTC)

	t.Run("record", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, attendancePath, tenantHost("alpha"), adminToken,
			marchallObj(t, course.NewAttendance{StudentID: s1.ID, Date: day, Status: course.StatusPresent}))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
		var respData course.Attendance
		if err := json.Unmarshal(rec.Body.Bytes(), &respData); err != nil {
			t.Fatalf("json.Unmarshal() failed! err %v", err)
		}
		if !respData.Date.Equal(time.Date(2021, 3, 2, 0, 0, 0, 0, time.UTC)) {
			t.Errorf("failed! date = %v; want truncated to midnight UTC", respData.Date)
		}
	})

	t.Run("same day conflicts regardless of time", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, attendancePath, tenantHost("alpha"), adminToken,
			marchallObj(t, course.NewAttendance{StudentID: s1.ID, Date: day.Add(5 * time.Hour), Status: course.StatusLate}))
		app.ServeHTTP(rec, req)
		tt := httpTest{
			wantCode: http.StatusConflict,
			wantData: marchallObj(t, httpErr{Error: "attendance for this student and date is already recorded"}),
		}
		checkCodeAndData(t, tt, rec)
	})

	t.Run("invalid status", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, attendancePath, tenantHost("alpha"), adminToken,
			marchallObj(t, course.NewAttendance{StudentID: s1.ID, Date: day, Status: "SLEEPING"}))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("failed! code = %v; wantCode %v", rec.Code, http.StatusBadRequest)
		}
	})

	t.Run("query by date", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, attendancePath+"?date=2021-03-02", tenantHost("alpha"), getToken(t, alphaTeacher))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v", rec.Code)
		}
		var marks []course.Attendance
		if err := json.Unmarshal(rec.Body.Bytes(), &marks); err != nil {
			t.Fatalf("json.Unmarshal() failed! err %v", err)
		}
		if len(marks) != 1 || marks[0].Status != course.StatusPresent {
			t.Errorf("failed! marks = %+v", marks)
		}
	})

	t.Run("query another date is empty", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, attendancePath+"?date=2021-03-03", tenantHost("alpha"), getToken(t, alphaTeacher))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: []byte("[]")}, rec)
	})

	t.Run("malformed date", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, attendancePath+"?date=lol", tenantHost("alpha"), getToken(t, alphaTeacher))
		app.ServeHTTP(rec, req)
		tt := httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "date must be formatted as YYYY-MM-DD"}),
		}
		checkCodeAndData(t, tt, rec)
	})
}
