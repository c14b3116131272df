package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strconv"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	. "github.com/darasahq/darasa/apps/api/echo"
	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/course"
	"github.com/darasahq/darasa/core/student"
	"github.com/darasahq/darasa/core/tenant"
	"github.com/darasahq/darasa/core/user"
	emailsvc "github.com/darasahq/darasa/services/email"
	inmemdb "github.com/darasahq/darasa/storage/database/inmem"
	testutil "github.com/darasahq/darasa/tests"
)

const (
	baseDomain = "darasa.test"
	rootHost   = baseDomain
)

var (
	conf *core.Config

	tenantRepo  tenant.Repository
	usrRepo     user.Repository
	studentRepo student.Repository
	courseRepo  course.Repository

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
	errForbidden    = httpErr{Error: "permission denied"}
	errNotFound     = httpErr{Error: "not found"}
	errNotAuthed    = httpErr{Error: "user not authenticated"}
	errAuthFailed   = httpErr{Error: "authentication failed"}
)

// setup stands up a full API server on a fresh in-memory database.
func setup(t *testing.T) Server {
	conf = &core.Config{
		AppName:         "Darasa",
		Env:             "TEST",
		TestMode:        true,
		Build:           "test",
		SecretKey:       "n0ts0s3cr3t",
		FrontendBaseURL: "http://localhost:3000",
		BaseDomain:      baseDomain,

		PasswordResetTimeoutDelta: 3 * 24 * time.Hour,

		Server: core.ServerConfig{
			JWTExpirationDelta:        7 * 24 * time.Hour,
			JWTRefreshExpirationDelta: 4 * time.Hour,
		},
	}

	// set up DB & repos
	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("inmemdb.Open() failed: %v", err)
	}
	tenantRepo = inmemdb.NewTenantRepository(db)
	usrRepo = inmemdb.NewUserRepository(db)
	studentRepo = inmemdb.NewStudentRepository(db)
	courseRepo = inmemdb.NewCourseRepository(db)

	// set up services
	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	tenantSvc := tenant.NewService(tenantRepo)
	usrSvc := user.NewService(usrRepo, mailSvc, conf)
	studentSvc := student.NewService(studentRepo)
	courseSvc := course.NewService(courseRepo, studentSvc)

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	tenant.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	user.InitTokenGen(conf)

	emailsvc.ClearSentMessages()

	// set up server
	return NewServer(
		ServerDeps{
			Conf:       conf,
			Logger:     testutil.NopLogger{},
			TenantSvc:  tenantSvc,
			UserSvc:    usrSvc,
			StudentSvc: studentSvc,
			CourseSvc:  courseSvc,
			Validate:   validate,
			Translator: translator,

			DisableReqLogs: true,
		},
	)
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

func tenantHost(subdomain string) string {
	return subdomain + "." + baseDomain
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	host     string // request Host header; zero value bypasses tenant routing
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

func newAuthRequest(method, path, host, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if host != "" {
		req.Host = host
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path, host string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, host, "", data...)
}

func itoa(id int) string { return strconv.Itoa(id) }

func getToken(t *testing.T, usr user.User) string {
	claims := GetUserClaims(usr)
	token, err := GenerateToken(claims)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

// nolint
func marchallList(t *testing.T, objs ...interface{}) []byte {
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	l1, ok1 := j1.([]interface{})
	l2, ok2 := j2.([]interface{})
	if ok1 && ok2 {
		return assert.ElementsMatch(t, l1, l2), nil
	}
	return false, nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
