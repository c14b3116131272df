package tests

import (
	"encoding/json"
	"net/http"
	"net/mail"
	"regexp"
	"strconv"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/volatiletech/null/v8"

	echoapi "github.com/darasahq/darasa/apps/api/echo"
	"github.com/darasahq/darasa/core/user"
	emailsvc "github.com/darasahq/darasa/services/email"
	testutil "github.com/darasahq/darasa/tests"
)

const testPwd = "LolC@t123"

func Test_userApi_login(t *testing.T) {
	app := setup(t)

	alpha := testutil.CreateTenant(t, tenantRepo, "Alpha School", "alpha")
	beta := testutil.CreateTenant(t, tenantRepo, "Beta School", "beta")

	super := testutil.CreateUser(t, usrRepo, "Root", "root@darasa.test", testPwd, user.RoleSuperAdmin, null.Int{}, true)
	alphaAdmin := testutil.CreateUser(t, usrRepo, "Alpha Admin", "admin@alpha.test", testPwd, user.RoleClientAdmin, null.IntFrom(alpha.ID), true)
	alphaTeacher := testutil.CreateUser(t, usrRepo, "Alpha Teacher", "teacher@alpha.test", testPwd, user.RoleEmployee, null.IntFrom(alpha.ID), true)
	betaStudent := testutil.CreateUser(t, usrRepo, "Beta Student", "student@beta.test", testPwd, user.RoleStudent, null.IntFrom(beta.ID), true)
	naughty := testutil.CreateUser(t, usrRepo, "N Dog", "ndog@alpha.test", testPwd, user.RoleStudent, null.IntFrom(alpha.ID), false) // 😂

	body := func(email, pwd string) []byte {
		return marchallObj(t, echoapi.LoginRequest{Email: email, Password: pwd})
	}
	failData := marchallObj(t, errAuthFailed)
	reqMsg := "this field is required"

	type extraTest struct {
		landingPath string
	}
	tests := []httpTest{
		{
			name: "required fields", host: tenantHost("alpha"), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, echoapi.LoginRequest{Email: reqMsg, Password: reqMsg}),
		},
		{
			name: "tenant admin lands on dashboard", host: tenantHost("alpha"), body: body(alphaAdmin.Email, testPwd),
			wantCode: http.StatusOK, extra: extraTest{landingPath: "/dashboard"},
		},
		{
			name: "employee lands on dashboard", host: tenantHost("alpha"), body: body(alphaTeacher.Email, testPwd),
			wantCode: http.StatusOK, extra: extraTest{landingPath: "/dashboard"},
		},
		{
			name: "student lands on dashboard", host: tenantHost("beta"), body: body(betaStudent.Email, testPwd),
			wantCode: http.StatusOK, extra: extraTest{landingPath: "/dashboard"},
		},
		{
			name: "super admin on root host", host: rootHost, body: body(super.Email, testPwd),
			wantCode: http.StatusOK, extra: extraTest{landingPath: "/admin"},
		},
		{
			name: "wrong password", host: tenantHost("alpha"), body: body(alphaAdmin.Email, "nope"),
			wantCode: http.StatusBadRequest, wantData: failData,
		},
		{
			name: "unknown email", host: tenantHost("alpha"), body: body("ghost@alpha.test", testPwd),
			wantCode: http.StatusBadRequest, wantData: failData,
		},
		{
			name: "cross-tenant credentials rejected", host: tenantHost("beta"), body: body(alphaAdmin.Email, testPwd),
			wantCode: http.StatusBadRequest, wantData: failData,
		},
		{
			name: "tenant user rejected on root host", host: rootHost, body: body(alphaAdmin.Email, testPwd),
			wantCode: http.StatusBadRequest, wantData: failData,
		},
		{
			name: "super admin rejected on tenant host", host: tenantHost("alpha"), body: body(super.Email, testPwd),
			wantCode: http.StatusBadRequest, wantData: failData,
		},
		{
			name: "deactivated account indistinguishable from bad creds", host: tenantHost("alpha"), body: body(naughty.Email, testPwd),
			wantCode: http.StatusBadRequest, wantData: failData,
		},
		{
			name: "unknown subdomain falls back to root context", host: tenantHost("ghost"), body: body(super.Email, testPwd),
			wantCode: http.StatusOK, extra: extraTest{landingPath: "/admin"},
		},
		{
			name: "unknown subdomain does not expose tenant accounts", host: tenantHost("ghost"), body: body(alphaAdmin.Email, testPwd),
			wantCode: http.StatusBadRequest, wantData: failData,
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/api/users/login"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path, tt.host, tt.body)
			app.ServeHTTP(rec, req)

			if extra, ok := tt.extra.(extraTest); ok {
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
				}
				var respData echoapi.LoginResponse
				if err := json.Unmarshal(rec.Body.Bytes(), &respData); err != nil {
					t.Fatalf("json.Unmarshal() failed! err %v", err)
				}
				if respData.Token == "" {
					t.Error("failed! empty token")
				}
				if respData.LandingPath != extra.landingPath {
					t.Errorf("failed! landing path = %q; want %q", respData.LandingPath, extra.landingPath)
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_refreshToken(t *testing.T) {
	app := setup(t)

	alpha := testutil.CreateTenant(t, tenantRepo, "Alpha School", "alpha")
	student := testutil.CreateUser(t, usrRepo, "Hero", "hero@alpha.test", testPwd, user.RoleStudent, null.IntFrom(alpha.ID), true)
	naughty := testutil.CreateUser(t, usrRepo, "N Dog", "ndog@alpha.test", testPwd, user.RoleStudent, null.IntFrom(alpha.ID), false)

	now := time.Now()
	unrefreshableClaims := &echoapi.Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    conf.AppName,
			Subject:   strconv.Itoa(student.ID),
			ExpiresAt: now.Add(conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		OrigIssuedAt: now.Add(-2 * conf.Server.JWTRefreshExpirationDelta).Unix(), // older than threshold
		Email:        student.Email,
		FullName:     student.FullName,
		Role:         student.Role,
		TenantID:     student.TenantID,
	}
	unrefreshableToken, err := echoapi.GenerateToken(unrefreshableClaims)
	if err != nil {
		t.Fatalf("GenerateToken() failed: %v", err)
	}

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Inactive user not allowed", token: getToken(t, naughty),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
		{
			name: "Refresh period expired", token: unrefreshableToken,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "refresh has expired"}),
		},
		{name: "Token refreshed", token: getToken(t, student), wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/api/users/token-refresh"
		tt.host = tenantHost("alpha")

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.host, tt.token, tt.body)
			app.ServeHTTP(rec, req)

			// cannot guess new token.. just check that it's not empty
			if tt.wantCode == http.StatusOK {
				if rec.Code != tt.wantCode {
					t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
				}
				var respData echoapi.TokenResponse
				if err := json.Unmarshal(rec.Body.Bytes(), &respData); err != nil {
					t.Errorf("json.Unmarshal() failed! err %v", err)
				}
				if respData.Token == "" {
					t.Error("failed! empty token")
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_resetPassword(t *testing.T) {
	app := setup(t)

	alpha := testutil.CreateTenant(t, tenantRepo, "Alpha School", "alpha")
	beta := testutil.CreateTenant(t, tenantRepo, "Beta School", "beta")
	student := testutil.CreateUser(t, usrRepo, "Hero", "hero@alpha.test", testPwd, user.RoleStudent, null.IntFrom(alpha.ID), true)
	_ = beta

	successData := marchallObj(t, echoapi.SuccessResponse{
		Success: "If the email address supplied is associated with an active account on this system, " +
			"an email will arrive in your inbox shortly with instructions to reset your password.",
	})

	type extraTest struct {
		emailSent bool
		to        mail.Address
	}
	tests := []httpTest{
		{
			name: "required fields", host: tenantHost("alpha"), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, echoapi.PasswordResetRequest{Email: "this field is required"}),
		},
		{
			name: "invalid email", host: tenantHost("alpha"), wantCode: http.StatusBadRequest,
			body:     marchallObj(t, echoapi.PasswordResetRequest{Email: "lol"}),
			wantData: marchallObj(t, echoapi.PasswordResetRequest{Email: "email must be a valid email address"}),
		},
		{
			name: "unknown email", host: tenantHost("alpha"), wantCode: http.StatusOK,
			body:     marchallObj(t, echoapi.PasswordResetRequest{Email: "lol@test.com"}),
			wantData: successData, extra: extraTest{emailSent: false},
		},
		{
			name: "known email on own tenant host", host: tenantHost("alpha"), wantCode: http.StatusOK,
			body:     marchallObj(t, echoapi.PasswordResetRequest{Email: student.Email}),
			wantData: successData, extra: extraTest{emailSent: true, to: mail.Address{Name: student.FullName, Address: student.Email}},
		},
		{
			name: "known email on another tenant host", host: tenantHost("beta"), wantCode: http.StatusOK,
			body:     marchallObj(t, echoapi.PasswordResetRequest{Email: student.Email}),
			wantData: successData, extra: extraTest{emailSent: false},
		},
		{
			name: "known email on root host", host: rootHost, wantCode: http.StatusOK,
			body:     marchallObj(t, echoapi.PasswordResetRequest{Email: student.Email}),
			wantData: successData, extra: extraTest{emailSent: false},
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/api/users/password-reset"

		t.Run(tt.name, func(t *testing.T) {
			emailsvc.ClearSentMessages()

			req, rec := newRequest(tt.method, tt.path, tt.host, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if extra, ok := tt.extra.(extraTest); ok {
				sent := emailsvc.GetSentMessages()
				if extra.emailSent {
					if len(sent) != 1 {
						t.Fatalf("failed! len(SentMessages) = %d; want 1", len(sent))
					}
					if sent[0].To[0] != extra.to {
						t.Errorf("failed! To = %v; want %v", sent[0].To[0], extra.to)
					}
				} else if len(sent) > 0 {
					t.Errorf("failed! len(SentMessages) = %d; want 0", len(sent))
				}
			}
		})
	}
}

func Test_userApi_confirmPasswordReset(t *testing.T) {
	app := setup(t)

	alpha := testutil.CreateTenant(t, tenantRepo, "Alpha School", "alpha")
	student := testutil.CreateUser(t, usrRepo, "Hero", "hero@alpha.test", testPwd, user.RoleStudent, null.IntFrom(alpha.ID), true)

	// request a reset to capture a valid uid/token pair from the outbox
	emailsvc.ClearSentMessages()
	req, rec := newRequest(
		http.MethodPost, "/api/users/password-reset", tenantHost("alpha"),
		marchallObj(t, echoapi.PasswordResetRequest{Email: student.Email}),
	)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("password-reset failed! code = %v", rec.Code)
	}
	sent := emailsvc.GetSentMessages()
	if len(sent) != 1 {
		t.Fatalf("failed! len(SentMessages) = %d; want 1", len(sent))
	}
	linkRegex := regexp.MustCompile(`/password-reset/([^/\s]+)/([^/\s]+)`)
	match := linkRegex.FindStringSubmatch(sent[0].TextContent)
	if match == nil {
		t.Fatalf("failed! no reset link in email:\n%s", sent[0].TextContent)
	}
	validUID, validToken := match[1], match[2]

	newPwd := "N3wC@t456"
	tests := []httpTest{
		{
			name: "invalid uid", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, user.ResetUserPassword{Token: validToken, UID: "bG9s", Password: newPwd, PasswordConfirm: newPwd}),
			wantData: marchallObj(t, httpErr{Error: "invalid token"}),
		},
		{
			name: "invalid token", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, user.ResetUserPassword{Token: "HE4TS-sigsig-sig", UID: validUID, Password: newPwd, PasswordConfirm: newPwd}),
			wantData: marchallObj(t, httpErr{Error: "invalid token"}),
		},
		{
			name: "weak password", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, user.ResetUserPassword{Token: validToken, UID: validUID, Password: "lol", PasswordConfirm: "lol"}),
			wantData: marchallObj(t, user.ResetUserPassword{Password: "password must contain at least 8 characters"}),
		},
		{
			name: "PasswordConfirm must = Password", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, user.ResetUserPassword{Token: validToken, UID: validUID, Password: newPwd, PasswordConfirm: "lol"}),
			wantData: marchallObj(t, user.ResetUserPassword{PasswordConfirm: "password_confirm must be equal to Password"}),
		},
		{
			name: "valid token", wantCode: http.StatusOK,
			body:     marchallObj(t, user.ResetUserPassword{Token: validToken, UID: validUID, Password: newPwd, PasswordConfirm: newPwd}),
			wantData: marchallObj(t, echoapi.SuccessResponse{Success: "Password has been reset with the new password."}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/api/users/password-reset-confirm"
		tt.host = tenantHost("alpha")

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path, tt.host, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	// the new password must now work, the old one must not
	t.Run("login with new password", func(t *testing.T) {
		req, rec := newRequest(
			http.MethodPost, "/api/users/login", tenantHost("alpha"),
			marchallObj(t, echoapi.LoginRequest{Email: student.Email, Password: newPwd}),
		)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("failed! code = %v; wantCode %v", rec.Code, http.StatusOK)
		}

		req, rec = newRequest(
			http.MethodPost, "/api/users/login", tenantHost("alpha"),
			marchallObj(t, echoapi.LoginRequest{Email: student.Email, Password: testPwd}),
		)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("failed! code = %v; wantCode %v", rec.Code, http.StatusBadRequest)
		}
	})
}
