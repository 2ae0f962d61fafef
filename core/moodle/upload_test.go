package moodle

import (
	"context"
	"strings"
	"testing"

	"github.com/pkg/errors"
)

func TestClient_Upload(t *testing.T) {
	client, fm := newTestClient(t)

	itemID, err := client.Upload(context.Background(), "tok", "essay.pdf", strings.NewReader("%PDF"), 0)
	if err != nil {
		t.Fatalf("Upload(): %v", err)
	}
	if itemID != 741 {
		t.Errorf("itemID = %d; want 741", itemID)
	}

	uploads := fm.Uploads()
	if len(uploads) != 1 {
		t.Fatalf("uploads = %d; want 1", len(uploads))
	}
	up := uploads[0]
	if up.Token != "tok" {
		t.Errorf("token = %q", up.Token)
	}
	if up.ItemID != "" {
		t.Errorf("itemid = %q; want absent", up.ItemID)
	}
	if up.Filename != "essay.pdf" || string(up.Content) != "%PDF" {
		t.Errorf("file = %q %q", up.Filename, up.Content)
	}
}

func TestClient_Upload_intoExistingArea(t *testing.T) {
	client, fm := newTestClient(t)

	itemID, err := client.Upload(context.Background(), "tok", "notes.txt", strings.NewReader("hi"), 55)
	if err != nil {
		t.Fatalf("Upload(): %v", err)
	}
	if itemID != 55 {
		t.Errorf("itemID = %d; want 55", itemID)
	}
	if got := fm.Uploads()[0].ItemID; got != "55" {
		t.Errorf("itemid field = %q; want 55", got)
	}
}

func TestClient_Upload_missingCredential(t *testing.T) {
	client, fm := newTestClient(t)

	_, err := client.Upload(context.Background(), "", "a.txt", strings.NewReader("x"), 0)
	if errors.Cause(err) != ErrMissingCredential {
		t.Errorf("err = %v; want ErrMissingCredential", err)
	}
	if n := len(fm.Uploads()); n != 0 {
		t.Errorf("uploads = %d; want 0", n)
	}
}

func TestClient_Upload_errors(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		check func(t *testing.T, cause error)
	}{
		{"error object", `{"error":"File is too large","errorcode":"maxbytes"}`, wantFault},
		{"exception object", `{"exception":"webservice_access_exception","errorcode":"accessexception","message":"Access denied"}`, wantFault},
		{"empty array", `[]`, wantEmptyUpload},
		{"bare object", `{"somekey":1}`, wantEmptyUpload},
		{"non-JSON body", `<html>proxy error</html>`, wantTransport},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, fm := newTestClient(t)
			fm.RespondUpload(tt.body)

			_, err := client.Upload(context.Background(), "tok", "a.txt", strings.NewReader("x"), 0)
			tt.check(t, errors.Cause(err))
		})
	}
}

func wantFault(t *testing.T, cause error) {
	t.Helper()
	if _, ok := cause.(*FaultError); !ok {
		t.Errorf("cause = %v; want *FaultError", cause)
	}
}

func wantTransport(t *testing.T, cause error) {
	t.Helper()
	if _, ok := cause.(*TransportError); !ok {
		t.Errorf("cause = %v; want *TransportError", cause)
	}
}

func wantEmptyUpload(t *testing.T, cause error) {
	t.Helper()
	if cause != ErrEmptyUpload {
		t.Errorf("cause = %v; want ErrEmptyUpload", cause)
	}
}

func TestClient_Upload_faultMessage(t *testing.T) {
	client, fm := newTestClient(t)
	fm.RespondUpload(`{"error":"File is too large","errorcode":"maxbytes"}`)

	_, err := client.Upload(context.Background(), "tok", "big.zip", strings.NewReader("x"), 0)
	fault, ok := errors.Cause(err).(*FaultError)
	if !ok {
		t.Fatalf("err = %v; want *FaultError", err)
	}
	if fault.Message != "File is too large" || fault.Code != "maxbytes" {
		t.Errorf("fault = %+v", fault)
	}
}
