package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	. "github.com/upscaleng/upscale/apps/api/echo"
	"github.com/upscaleng/upscale/core"
	"github.com/upscaleng/upscale/core/course"
	"github.com/upscaleng/upscale/core/payment"
	"github.com/upscaleng/upscale/core/quiz"
	"github.com/upscaleng/upscale/core/user"
	emailsvc "github.com/upscaleng/upscale/services/email"
	paymentsvc "github.com/upscaleng/upscale/services/payment"
	"github.com/upscaleng/upscale/storage/database"
	inmemdb "github.com/upscaleng/upscale/storage/database/inmem"
)

var (
	conf *core.Config

	usrRepo  user.Repository
	crsRepo  course.Repository
	pmtRepo  payment.Repository
	quizRepo quiz.Repository
	gateway  *paymentsvc.ConsoleGatewayMock

	usrSvc user.ServiceInterface
	crsSvc course.ServiceInterface
	pmtSvc payment.ServiceInterface

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
)

func setup(t *testing.T) Server {
	conf = core.NewConfig()
	conf.TestMode = true
	conf.Debug = false // keep structured error payloads

	// set up DB & repos
	db := inmemdb.NewDB()
	usrRepo = inmemdb.NewUserRepository(db)
	crsRepo = inmemdb.NewCourseRepository(db)
	pmtRepo = inmemdb.NewPaymentRepository(db)
	quizRepo = inmemdb.NewQuizRepository(db)

	// load embedded assets & seed the catalog
	bank, err := quiz.LoadBank()
	if err != nil {
		t.Fatalf("quiz.LoadBank() failed: %v", err)
	}
	catalog, err := course.LoadCatalog()
	if err != nil {
		t.Fatalf("course.LoadCatalog() failed: %v", err)
	}
	if err = database.Seed(context.Background(), crsRepo, catalog); err != nil {
		t.Fatalf("database.Seed() failed: %v", err)
	}

	// set up services
	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	emailsvc.ClearSentMessages()
	gateway = paymentsvc.NewConsoleGatewayMock(conf)

	usrSvc = user.NewServiceMock(usrRepo, mailSvc, conf)
	crsSvc = course.NewService(crsRepo, catalog)
	pmtSvc = payment.NewService(pmtRepo, usrSvc, gateway, mailSvc, conf)
	quizSvc := quiz.NewService(quizRepo, crsSvc, bank)

	logger := testLogger{t}
	validate := validator.New()
	translator := newTranslator(t)
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	core.ParseEmailTemplates(conf, logger)

	// set up server
	return NewServer(
		ServerDeps{
			Conf:           conf,
			Logger:         logger,
			DisableReqLogs: true,
			UserSvc:        usrSvc,
			CourseSvc:      crsSvc,
			PaymentSvc:     pmtSvc,
			QuizSvc:        quizSvc,
			Validate:       validate,
			Translator:     translator,
		},
	)
}

func newTranslator(t *testing.T) ut.Translator {
	_en := en.New()
	translator, found := ut.New(_en, _en).GetTranslator("en")
	if !found {
		t.Fatal("newTranslator() failed: en translator not found")
	}
	return translator
}

type testLogger struct{ t *testing.T }

func (l testLogger) Debug(msg string, args ...interface{}) {}
func (l testLogger) Info(msg string, args ...interface{})  {}
func (l testLogger) Warn(msg string, args ...interface{})  { l.t.Logf("WARN: %s", msg) }
func (l testLogger) Error(msg string, args ...interface{}) { l.t.Logf("ERROR: %s", msg) }
func (l testLogger) Fatal(msg string, args ...interface{}) { l.t.Fatalf("FATAL: %s", msg) }

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, usr user.User) string {
	claims := GetUserClaims(usr)
	token, err := GenerateToken(claims)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func createUser(t *testing.T, name, uname, email, pwd string, roles []string, isActive bool) user.User {
	t.Helper()

	usr, err := usrSvc.Create(context.Background(), user.NewUser{
		Name:     name,
		Username: uname,
		Email:    email,
		Password: pwd,
		Roles:    roles,
	})
	if err != nil {
		t.Fatalf("createUser() failed: %v", err)
	}
	if !isActive {
		usr.SetActive(false)
		if usr, err = usrRepo.UpdateUser(context.Background(), usr); err != nil {
			t.Fatalf("createUser() failed: %v", err)
		}
	}
	return usr
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
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
