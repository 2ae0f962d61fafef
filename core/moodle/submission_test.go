package moodle

import (
	"context"
	"strings"
	"testing"

	"github.com/pkg/errors"

	testutil "github.com/aulamovil/backend/tests"
)

func newTestService(t *testing.T) (ServiceInterface, *testutil.FakeMoodle) {
	fm := testutil.NewFakeMoodle(t)
	conf := fm.NewConfig()
	log := testutil.NewLogger()
	return NewService(conf, log, NewClient(conf, log)), fm
}

func file(name, content string) SubmissionFile {
	return SubmissionFile{Name: name, Data: strings.NewReader(content)}
}

func TestService_SaveSubmission_textOnly(t *testing.T) {
	svc, fm := newTestService(t)
	fm.Respond(fnSaveSubmission, `[]`)

	_, err := svc.SaveSubmission(context.Background(), "tok", "12", Submission{Text: "hola mundo"})
	if err != nil {
		t.Fatalf("SaveSubmission(): %v", err)
	}

	if n := len(fm.Uploads()); n != 0 {
		t.Errorf("uploads = %d; want 0", n)
	}
	commits := fm.CallsTo(fnSaveSubmission)
	if len(commits) != 1 {
		t.Fatalf("commits = %d; want 1", len(commits))
	}
	form := commits[0].Form
	if form.Get("assignmentid") != "12" {
		t.Errorf("assignmentid = %q", form.Get("assignmentid"))
	}
	if form.Get("plugindata[onlinetext_editor][text]") != "hola mundo" {
		t.Errorf("text = %q", form.Get("plugindata[onlinetext_editor][text]"))
	}
	if form.Get("plugindata[onlinetext_editor][format]") != "1" {
		t.Errorf("format = %q", form.Get("plugindata[onlinetext_editor][format]"))
	}
	if form.Get("plugindata[onlinetext_editor][itemid]") != "0" {
		t.Errorf("itemid = %q", form.Get("plugindata[onlinetext_editor][itemid]"))
	}
	if form.Has("plugindata[files_filemanager]") {
		t.Errorf("files_filemanager = %q; want absent", form.Get("plugindata[files_filemanager]"))
	}
}

func TestService_SaveSubmission_singleFile(t *testing.T) {
	svc, fm := newTestService(t)
	fm.Respond(fnSaveSubmission, `[]`)

	_, err := svc.SaveSubmission(context.Background(), "tok", "12", Submission{
		Files: []SubmissionFile{file("essay.pdf", "%PDF")},
	})
	if err != nil {
		t.Fatalf("SaveSubmission(): %v", err)
	}

	uploads := fm.Uploads()
	if len(uploads) != 1 {
		t.Fatalf("uploads = %d; want 1", len(uploads))
	}
	if uploads[0].ItemID != "" {
		t.Errorf("first upload itemid = %q; want absent", uploads[0].ItemID)
	}

	commits := fm.CallsTo(fnSaveSubmission)
	if len(commits) != 1 {
		t.Fatalf("commits = %d; want 1", len(commits))
	}
	form := commits[0].Form
	if form.Get("plugindata[files_filemanager]") != "741" {
		t.Errorf("files_filemanager = %q; want 741", form.Get("plugindata[files_filemanager]"))
	}
	if form.Has("plugindata[onlinetext_editor][text]") {
		t.Errorf("text = %q; want absent", form.Get("plugindata[onlinetext_editor][text]"))
	}
}

func TestService_SaveSubmission_textAndFiles(t *testing.T) {
	svc, fm := newTestService(t)
	fm.Respond(fnSaveSubmission, `[]`)

	_, err := svc.SaveSubmission(context.Background(), "tok", "12", Submission{
		Text:  "ver adjuntos",
		Files: []SubmissionFile{file("a.txt", "aa"), file("b.txt", "bb")},
	})
	if err != nil {
		t.Fatalf("SaveSubmission(): %v", err)
	}

	uploads := fm.Uploads()
	if len(uploads) != 2 {
		t.Fatalf("uploads = %d; want 2", len(uploads))
	}
	if uploads[0].ItemID != "" {
		t.Errorf("first upload itemid = %q; want absent", uploads[0].ItemID)
	}
	if uploads[1].ItemID != "741" {
		t.Errorf("second upload itemid = %q; want 741", uploads[1].ItemID)
	}

	commits := fm.CallsTo(fnSaveSubmission)
	if len(commits) != 1 {
		t.Fatalf("commits = %d; want 1", len(commits))
	}
	form := commits[0].Form
	if form.Get("plugindata[onlinetext_editor][text]") != "ver adjuntos" {
		t.Errorf("text = %q", form.Get("plugindata[onlinetext_editor][text]"))
	}
	if form.Get("plugindata[files_filemanager]") != "741" {
		t.Errorf("files_filemanager = %q; want 741", form.Get("plugindata[files_filemanager]"))
	}
}

func TestService_SaveSubmission_clearsWhenEmpty(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"no text", ""},
		{"whitespace-only text", "  \n\t "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, fm := newTestService(t)
			fm.Respond(fnSaveSubmission, `[]`)

			_, err := svc.SaveSubmission(context.Background(), "tok", "12", Submission{Text: tt.text})
			if err != nil {
				t.Fatalf("SaveSubmission(): %v", err)
			}

			if n := len(fm.Uploads()); n != 0 {
				t.Errorf("uploads = %d; want 0", n)
			}
			commits := fm.CallsTo(fnSaveSubmission)
			if len(commits) != 1 {
				t.Fatalf("commits = %d; want 1", len(commits))
			}
			form := commits[0].Form
			if form.Get("plugindata[onlinetext_editor][text]") != "" {
				t.Errorf("text = %q; want empty", form.Get("plugindata[onlinetext_editor][text]"))
			}
			if form.Get("plugindata[onlinetext_editor][format]") != "1" {
				t.Errorf("format = %q", form.Get("plugindata[onlinetext_editor][format]"))
			}
			if form.Get("plugindata[onlinetext_editor][itemid]") != "0" {
				t.Errorf("itemid = %q", form.Get("plugindata[onlinetext_editor][itemid]"))
			}
			if form.Get("plugindata[files_filemanager]") != "0" {
				t.Errorf("files_filemanager = %q; want 0", form.Get("plugindata[files_filemanager]"))
			}
		})
	}
}

func TestService_SaveSubmission_uploadFailureAbortsCommit(t *testing.T) {
	svc, fm := newTestService(t)
	fm.RespondUpload(`{"error":"File is too large","errorcode":"maxbytes"}`)

	_, err := svc.SaveSubmission(context.Background(), "tok", "12", Submission{
		Text:  "texto",
		Files: []SubmissionFile{file("big.zip", "xxxx")},
	})
	if err == nil {
		t.Fatal("SaveSubmission() = nil; want error")
	}
	if _, ok := errors.Cause(err).(*FaultError); !ok {
		t.Errorf("cause = %v; want *FaultError", errors.Cause(err))
	}
	if n := len(fm.CallsTo(fnSaveSubmission)); n != 0 {
		t.Errorf("commits = %d; want 0", n)
	}
}

func TestService_SaveSubmission_missingCredential(t *testing.T) {
	svc, fm := newTestService(t)

	_, err := svc.SaveSubmission(context.Background(), "", "12", Submission{
		Files: []SubmissionFile{file("a.txt", "aa")},
	})
	if errors.Cause(err) != ErrMissingCredential {
		t.Errorf("err = %v; want ErrMissingCredential", err)
	}
	if n := len(fm.Calls()) + len(fm.Uploads()); n != 0 {
		t.Errorf("outbound requests = %d; want 0", n)
	}
}
