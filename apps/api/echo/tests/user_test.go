package tests

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/volatiletech/null/v8"

	"github.com/darasahq/darasa/core/user"
	testutil "github.com/darasahq/darasa/tests"
)

func Test_userApi_query(t *testing.T) {
	app := setup(t)

	alpha := testutil.CreateTenant(t, tenantRepo, "Alpha School", "alpha")
	beta := testutil.CreateTenant(t, tenantRepo, "Beta School", "beta")

	super := testutil.CreateUser(t, usrRepo, "Root", "root@darasa.test", "", user.RoleSuperAdmin, null.Int{}, true)
	alphaAdmin := testutil.CreateUser(t, usrRepo, "Alpha Admin", "admin@alpha.test", "", user.RoleClientAdmin, null.IntFrom(alpha.ID), true)
	alphaTeacher := testutil.CreateUser(t, usrRepo, "Alpha Teacher", "teacher@alpha.test", "", user.RoleEmployee, null.IntFrom(alpha.ID), true)
	betaAdmin := testutil.CreateUser(t, usrRepo, "Beta Admin", "admin@beta.test", "", user.RoleClientAdmin, null.IntFrom(beta.ID), true)
	betaStudent := testutil.CreateUser(t, usrRepo, "Beta Student", "student@beta.test", "", user.RoleStudent, null.IntFrom(beta.ID), true)

	tests := []httpTest{
		{
			name: "Auth required", host: tenantHost("alpha"),
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "Admin required", host: tenantHost("alpha"), token: getToken(t, alphaTeacher),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "Tenant admin only sees own tenant", host: tenantHost("alpha"), token: getToken(t, alphaAdmin),
			wantCode: http.StatusOK, wantData: marchallList(t, alphaAdmin, alphaTeacher),
		},
		{
			name: "Tenant admin denied on another tenant host", host: tenantHost("beta"), token: getToken(t, alphaAdmin),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "Super admin on root host sees all", host: rootHost, token: getToken(t, super),
			wantCode: http.StatusOK, wantData: marchallList(t, super, alphaAdmin, alphaTeacher, betaAdmin, betaStudent),
		},
		{
			name: "Super admin on tenant host sees that tenant", host: tenantHost("beta"), token: getToken(t, super),
			wantCode: http.StatusOK, wantData: marchallList(t, betaAdmin, betaStudent),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodGet
		tt.path = "/api/users"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.host, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_create(t *testing.T) {
	app := setup(t)

	alpha := testutil.CreateTenant(t, tenantRepo, "Alpha School", "alpha")
	beta := testutil.CreateTenant(t, tenantRepo, "Beta School", "beta")

	super := testutil.CreateUser(t, usrRepo, "Root", "root@darasa.test", "", user.RoleSuperAdmin, null.Int{}, true)
	alphaAdmin := testutil.CreateUser(t, usrRepo, "Alpha Admin", "admin@alpha.test", "", user.RoleClientAdmin, null.IntFrom(alpha.ID), true)
	betaAdmin := testutil.CreateUser(t, usrRepo, "Beta Admin", "admin@beta.test", "", user.RoleClientAdmin, null.IntFrom(beta.ID), true)

	body := func(name, email, role string) []byte {
		return marchallObj(t, user.NewUser{FullName: name, Email: email, Role: role})
	}

	type extraTest struct {
		wantTenantID null.Int
	}
	tests := []httpTest{
		{
			name: "tenant admin creates employee", host: tenantHost("alpha"), token: getToken(t, alphaAdmin),
			body:     body("New Teacher", "new.teacher@alpha.test", user.RoleEmployee),
			wantCode: http.StatusCreated, extra: extraTest{wantTenantID: null.IntFrom(alpha.ID)},
		},
		{
			name: "tenant admin cannot mint super admins", host: tenantHost("alpha"), token: getToken(t, alphaAdmin),
			body:     body("Sneaky", "sneaky@alpha.test", user.RoleSuperAdmin),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"role": "a super admin cannot belong to a tenant"}),
		},
		{
			name: "duplicate email within tenant", host: tenantHost("alpha"), token: getToken(t, alphaAdmin),
			body:     body("Clone", alphaAdmin.Email, user.RoleEmployee),
			wantCode: http.StatusBadRequest,
		},
		{
			name: "same email allowed in another tenant", host: tenantHost("beta"), token: getToken(t, betaAdmin),
			body:     body("Same Name", alphaAdmin.Email, user.RoleEmployee),
			wantCode: http.StatusCreated, extra: extraTest{wantTenantID: null.IntFrom(beta.ID)},
		},
		{
			name: "root context creates super admins", host: rootHost, token: getToken(t, super),
			body:     body("Second Root", "root2@darasa.test", user.RoleSuperAdmin),
			wantCode: http.StatusCreated, extra: extraTest{wantTenantID: null.Int{}},
		},
		{
			name: "tenant roles need a tenant", host: rootHost, token: getToken(t, super),
			body:     body("Lost Teacher", "lost@darasa.test", user.RoleEmployee),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"role": "this role requires a tenant"}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/api/users"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.host, tt.token, tt.body)
			app.ServeHTTP(rec, req)

			if extra, ok := tt.extra.(extraTest); ok {
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
				}
				var respData user.User
				if err := json.Unmarshal(rec.Body.Bytes(), &respData); err != nil {
					t.Fatalf("json.Unmarshal() failed! err %v", err)
				}
				if respData.TenantID != extra.wantTenantID {
					t.Errorf("failed! tenant_id = %v; want %v", respData.TenantID, extra.wantTenantID)
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_detail(t *testing.T) {
	app := setup(t)

	alpha := testutil.CreateTenant(t, tenantRepo, "Alpha School", "alpha")
	beta := testutil.CreateTenant(t, tenantRepo, "Beta School", "beta")

	super := testutil.CreateUser(t, usrRepo, "Root", "root@darasa.test", "", user.RoleSuperAdmin, null.Int{}, true)
	alphaAdmin := testutil.CreateUser(t, usrRepo, "Alpha Admin", "admin@alpha.test", "", user.RoleClientAdmin, null.IntFrom(alpha.ID), true)
	alphaTeacher := testutil.CreateUser(t, usrRepo, "Alpha Teacher", "teacher@alpha.test", "", user.RoleEmployee, null.IntFrom(alpha.ID), true)
	betaStudent := testutil.CreateUser(t, usrRepo, "Beta Student", "student@beta.test", "", user.RoleStudent, null.IntFrom(beta.ID), true)

	path := func(id int) string { return "/api/users/" + itoa(id) }

	tests := []httpTest{
		{
			name: "own tenant record", method: http.MethodGet, path: path(alphaTeacher.ID),
			host: tenantHost("alpha"), token: getToken(t, alphaAdmin),
			wantCode: http.StatusOK, wantData: marchallObj(t, alphaTeacher),
		},
		{
			name: "cross-tenant record reads as absent", method: http.MethodGet, path: path(betaStudent.ID),
			host: tenantHost("alpha"), token: getToken(t, alphaAdmin),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound),
		},
		{
			name: "missing record", method: http.MethodGet, path: path(999),
			host: tenantHost("alpha"), token: getToken(t, alphaAdmin),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound),
		},
		{
			name: "malformed id reads as absent", method: http.MethodGet, path: "/api/users/lol",
			host: tenantHost("alpha"), token: getToken(t, alphaAdmin),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound),
		},
		{
			name: "super admin reaches any record from root", method: http.MethodGet, path: path(betaStudent.ID),
			host: rootHost, token: getToken(t, super),
			wantCode: http.StatusOK, wantData: marchallObj(t, betaStudent),
		},
		{
			name: "self-deletion forbidden", method: http.MethodDelete, path: path(alphaAdmin.ID),
			host: tenantHost("alpha"), token: getToken(t, alphaAdmin),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "cross-tenant deletion reads as absent", method: http.MethodDelete, path: path(betaStudent.ID),
			host: tenantHost("alpha"), token: getToken(t, alphaAdmin),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound),
		},
		{
			name: "delete own tenant record", method: http.MethodDelete, path: path(alphaTeacher.ID),
			host: tenantHost("alpha"), token: getToken(t, alphaAdmin),
			wantCode: http.StatusNoContent,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.host, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_update(t *testing.T) {
	app := setup(t)

	alpha := testutil.CreateTenant(t, tenantRepo, "Alpha School", "alpha")
	alphaAdmin := testutil.CreateUser(t, usrRepo, "Alpha Admin", "admin@alpha.test", "", user.RoleClientAdmin, null.IntFrom(alpha.ID), true)
	alphaTeacher := testutil.CreateUser(t, usrRepo, "Alpha Teacher", "teacher@alpha.test", "", user.RoleEmployee, null.IntFrom(alpha.ID), true)

	adminToken := getToken(t, alphaAdmin)
	path := "/api/users/" + itoa(alphaTeacher.ID)

	t.Run("promote to client admin", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, path, tenantHost("alpha"), adminToken,
			marchallObj(t, user.UpdateUser{Role: user.RoleClientAdmin}))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
		var respData user.User
		if err := json.Unmarshal(rec.Body.Bytes(), &respData); err != nil {
			t.Fatalf("json.Unmarshal() failed! err %v", err)
		}
		if respData.Role != user.RoleClientAdmin {
			t.Errorf("failed! role = %q; want %q", respData.Role, user.RoleClientAdmin)
		}
		if respData.Email != alphaTeacher.Email {
			t.Errorf("failed! email = %q; want %q (unchanged)", respData.Email, alphaTeacher.Email)
		}
	})

	t.Run("cannot promote to super admin", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, path, tenantHost("alpha"), adminToken,
			marchallObj(t, user.UpdateUser{Role: user.RoleSuperAdmin}))
		app.ServeHTTP(rec, req)
		tt := httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"role": "a super admin cannot belong to a tenant"}),
		}
		checkCodeAndData(t, tt, rec)
	})

	t.Run("cannot reuse a tenant email", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, path, tenantHost("alpha"), adminToken,
			marchallObj(t, user.UpdateUser{Email: alphaAdmin.Email}))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("failed! code = %v; wantCode %v", rec.Code, http.StatusBadRequest)
		}
	})
}

func Test_userApi_queryRoles(t *testing.T) {
	app := setup(t)

	alpha := testutil.CreateTenant(t, tenantRepo, "Alpha School", "alpha")
	super := testutil.CreateUser(t, usrRepo, "Root", "root@darasa.test", "", user.RoleSuperAdmin, null.Int{}, true)
	alphaAdmin := testutil.CreateUser(t, usrRepo, "Alpha Admin", "admin@alpha.test", "", user.RoleClientAdmin, null.IntFrom(alpha.ID), true)

	tests := []httpTest{
		{
			name: "tenant roles exclude super admin", host: tenantHost("alpha"), token: getToken(t, alphaAdmin),
			wantCode: http.StatusOK,
			wantData: marchallList(t,
				user.Role{Name: "Student", Value: user.RoleStudent},
				user.Role{Name: "Employee", Value: user.RoleEmployee},
				user.Role{Name: "Client Admin", Value: user.RoleClientAdmin},
			),
		},
		{
			name: "root context exposes all roles", host: rootHost, token: getToken(t, super),
			wantCode: http.StatusOK,
			wantData: marchallList(t,
				user.Role{Name: "Student", Value: user.RoleStudent},
				user.Role{Name: "Employee", Value: user.RoleEmployee},
				user.Role{Name: "Client Admin", Value: user.RoleClientAdmin},
				user.Role{Name: "Super Admin", Value: user.RoleSuperAdmin},
			),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodGet
		tt.path = "/api/users/roles"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.host, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_me(t *testing.T) {
	app := setup(t)

	alpha := testutil.CreateTenant(t, tenantRepo, "Alpha School", "alpha")
	alphaTeacher := testutil.CreateUser(t, usrRepo, "Alpha Teacher", "teacher@alpha.test", "", user.RoleEmployee, null.IntFrom(alpha.ID), true)

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "own profile", token: getToken(t, alphaTeacher),
			wantCode: http.StatusOK, wantData: marchallObj(t, alphaTeacher),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodGet
		tt.path = "/api/users/me"
		tt.host = tenantHost("alpha")

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.host, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}
