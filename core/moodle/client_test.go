package moodle

import (
	"context"
	"net/url"
	"testing"

	"github.com/pkg/errors"

	testutil "github.com/aulamovil/backend/tests"
)

func newTestClient(t *testing.T) (*Client, *testutil.FakeMoodle) {
	fm := testutil.NewFakeMoodle(t)
	return NewClient(fm.NewConfig(), testutil.NewLogger()), fm
}

func TestClient_Call_missingCredential(t *testing.T) {
	client, fm := newTestClient(t)

	_, err := client.Call(context.Background(), "", fnSiteInfo, nil)
	if errors.Cause(err) != ErrMissingCredential {
		t.Errorf("err = %v; want ErrMissingCredential", err)
	}
	if n := len(fm.Calls()); n != 0 {
		t.Errorf("outbound calls = %d; want 0", n)
	}
}

func TestClient_Call_success(t *testing.T) {
	client, fm := newTestClient(t)
	fm.Respond(fnCourseContents, `[{"id":3,"name":"Unidad 1"}]`)

	payload, err := client.Call(context.Background(), "tok", fnCourseContents, url.Values{"courseid": {"3"}})
	if err != nil {
		t.Fatalf("Call(): %v", err)
	}
	if string(payload) != `[{"id":3,"name":"Unidad 1"}]` {
		t.Errorf("payload = %s", payload)
	}

	calls := fm.CallsTo(fnCourseContents)
	if len(calls) != 1 {
		t.Fatalf("calls = %d; want 1", len(calls))
	}
	form := calls[0].Form
	if form.Get("wstoken") != "tok" {
		t.Errorf("wstoken = %q", form.Get("wstoken"))
	}
	if form.Get("moodlewsrestformat") != "json" {
		t.Errorf("moodlewsrestformat = %q", form.Get("moodlewsrestformat"))
	}
	if form.Get("courseid") != "3" {
		t.Errorf("courseid = %q", form.Get("courseid"))
	}
}

func TestClient_Call_fault(t *testing.T) {
	client, fm := newTestClient(t)
	fm.Respond(fnSiteInfo, `{"exception":"moodle_exception","errorcode":"invalidtoken","message":"Invalid token"}`)

	_, err := client.Call(context.Background(), "bad", fnSiteInfo, nil)
	fault, ok := errors.Cause(err).(*FaultError)
	if !ok {
		t.Fatalf("err = %v; want *FaultError", err)
	}
	if fault.Code != "invalidtoken" || fault.Message != "Invalid token" {
		t.Errorf("fault = %+v", fault)
	}
}

func TestClient_Call_transportError(t *testing.T) {
	client, fm := newTestClient(t)
	fm.Respond(fnSiteInfo, `<html>not json</html>`)

	_, err := client.Call(context.Background(), "tok", fnSiteInfo, nil)
	if _, ok := errors.Cause(err).(*TransportError); !ok {
		t.Errorf("err = %v; want *TransportError", err)
	}
}

func TestClient_Call_objectPayloadIsNotAFault(t *testing.T) {
	client, fm := newTestClient(t)
	fm.Respond(fnSiteInfo, `{"sitename":"Aula","userid":7,"message":"hello"}`)

	payload, err := client.Call(context.Background(), "tok", fnSiteInfo, nil)
	if err != nil {
		t.Fatalf("Call(): %v", err)
	}
	if len(payload) == 0 {
		t.Error("empty payload")
	}
}

func TestClient_Login(t *testing.T) {
	client, fm := newTestClient(t)

	token, err := client.Login(context.Background(), "ana", "pw")
	if err != nil {
		t.Fatalf("Login(): %v", err)
	}
	if token != "tok-123" {
		t.Errorf("token = %q", token)
	}

	calls := fm.CallsTo("login/token.php")
	if len(calls) != 1 {
		t.Fatalf("token calls = %d; want 1", len(calls))
	}
	q := calls[0].Form
	if q.Get("username") != "ana" || q.Get("password") != "pw" || q.Get("service") != "app_movil" {
		t.Errorf("query = %v", q)
	}
}

func TestClient_Login_fault(t *testing.T) {
	client, fm := newTestClient(t)
	fm.RespondToken(`{"error":"Invalid login, please try again","errorcode":"invalidlogin"}`)

	_, err := client.Login(context.Background(), "ana", "nope")
	fault, ok := errors.Cause(err).(*FaultError)
	if !ok {
		t.Fatalf("err = %v; want *FaultError", err)
	}
	if fault.Message != "Invalid login, please try again" {
		t.Errorf("message = %q", fault.Message)
	}
}
