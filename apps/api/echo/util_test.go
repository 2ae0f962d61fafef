package echoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/aulamovil/backend/core"
	"github.com/aulamovil/backend/core/moodle"
	linkrepos "github.com/aulamovil/backend/storage/links"
	testutil "github.com/aulamovil/backend/tests"
)

var errMissingTokenData = []byte(`{"ok":false,"error":"missing session token"}`)

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

// verifierMock stands in for the Google token verifier.
type verifierMock struct {
	user core.GoogleUser
	err  error
}

var _ core.IdentityVerifier = (*verifierMock)(nil)

func (m *verifierMock) Verify(context.Context, string) (core.GoogleUser, error) {
	return m.user, m.err
}

type testApp struct {
	server   Server
	fm       *testutil.FakeMoodle
	verifier *verifierMock
	links    core.LinkRepository
}

func setup(t *testing.T) *testApp {
	t.Helper()

	fm := testutil.NewFakeMoodle(t)
	conf := fm.NewConfig()
	log := testutil.NewLogger()

	verifier := &verifierMock{user: core.GoogleUser{
		Email:   "ana@gmail.com",
		Name:    "Ana Pérez",
		Picture: "http://g/pic.png",
	}}
	links := linkrepos.NewInMemRepository()

	deps := &Deps{
		Conf:   conf,
		Logger: log,
		Moodle: moodle.NewService(conf, log, moodle.NewClient(conf, log)),
		Google: verifier,
		Links:  links,
	}
	return &testApp{
		server:   NewServer(conf.Address, nil, deps),
		fm:       fm,
		verifier: verifier,
		links:    links,
	}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

// newMultipartRequest builds a multipart body with an optional text field
// and named file parts.
func newMultipartRequest(t *testing.T, path, token, text string, files map[string]string) (*http.Request, *httptest.ResponseRecorder) {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if text != "" {
		if err := w.WriteField("text", text); err != nil {
			t.Fatalf("newMultipartRequest() failed: %v", err)
		}
	}
	for name, content := range files {
		part, err := w.CreateFormFile("files", name)
		if err != nil {
			t.Fatalf("newMultipartRequest() failed: %v", err)
		}
		if _, err := io.WriteString(part, content); err != nil {
			t.Fatalf("newMultipartRequest() failed: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("newMultipartRequest() failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
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
	return assert.ObjectsAreEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()

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
