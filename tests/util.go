package testutil

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/aulamovil/backend/core"
	logsvc "github.com/aulamovil/backend/services/logger"
)

// WSCall is one recorded web-service RPC.
type WSCall struct {
	Function string
	Form     url.Values
}

// UploadCall is one recorded draft-area upload.
type UploadCall struct {
	Token    string
	ItemID   string // "" when the upload did not reference an existing area
	Filename string
	Content  []byte
}

// FakeMoodle is an in-process stand-in for a Moodle site. It records
// every RPC and upload it receives and replies with scripted bodies.
type FakeMoodle struct {
	Server *httptest.Server

	mu      sync.Mutex
	calls   []WSCall
	uploads []UploadCall

	responses       map[string]string // wsfunction -> body
	uploadBodies    []string          // consumed in order; last one repeats
	tokenBody       string
	nextItemID      int64
	fileBody        []byte
	fileContentType string
	fileStatus      int
}

// NewLogger returns a quiet Logger for tests.
func NewLogger() core.Logger {
	return logsvc.NewConsoleLogger(log.New(io.Discard, "", 0))
}

func NewFakeMoodle(t *testing.T) *FakeMoodle {
	t.Helper()

	fm := &FakeMoodle{
		responses:  make(map[string]string),
		tokenBody:  `{"token":"tok-123"}`,
		nextItemID: 741,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/webservice/rest/server.php", fm.handleRPC)
	mux.HandleFunc("/webservice/upload.php", fm.handleUpload)
	mux.HandleFunc("/login/token.php", fm.handleToken)
	mux.HandleFunc("/pluginfile.php/", fm.handleFile)

	fm.Server = httptest.NewServer(mux)
	t.Cleanup(fm.Server.Close)
	return fm
}

// NewConfig returns a test Config pointed at the fake site.
func (fm *FakeMoodle) NewConfig() *core.Config {
	return &core.Config{
		Env:             "TEST",
		TestMode:        true,
		AppName:         "AulaMovil",
		MoodleBase:      fm.Server.URL,
		MoodleService:   "app_movil",
		BodyLimit:       "50M",
		RequestTimeout:  5 * time.Second,
		ShutdownTimeout: time.Second,
	}
}

// Respond scripts the body returned for one web-service function.
func (fm *FakeMoodle) Respond(function, body string) {
	fm.mu.Lock()
	defer fm.mu.Unlock()
	fm.responses[function] = body
}

// RespondToken scripts the token-exchange body.
func (fm *FakeMoodle) RespondToken(body string) {
	fm.mu.Lock()
	defer fm.mu.Unlock()
	fm.tokenBody = body
}

// RespondUpload scripts upload bodies, consumed in call order; the last
// one repeats. Without scripting, uploads succeed echoing one item id.
func (fm *FakeMoodle) RespondUpload(bodies ...string) {
	fm.mu.Lock()
	defer fm.mu.Unlock()
	fm.uploadBodies = bodies
}

// ServeFile scripts the body and content type served for file downloads.
func (fm *FakeMoodle) ServeFile(contentType string, body []byte) {
	fm.mu.Lock()
	defer fm.mu.Unlock()
	fm.fileContentType = contentType
	fm.fileBody = body
}

// FailFile makes file downloads reply with an error status and an HTML
// error page, the way the LMS reports missing or forbidden files.
func (fm *FakeMoodle) FailFile(status int) {
	fm.mu.Lock()
	defer fm.mu.Unlock()
	fm.fileStatus = status
}

func (fm *FakeMoodle) Calls() []WSCall {
	fm.mu.Lock()
	defer fm.mu.Unlock()
	return append([]WSCall(nil), fm.calls...)
}

// CallsTo returns the recorded RPCs for one function.
func (fm *FakeMoodle) CallsTo(function string) []WSCall {
	var out []WSCall
	for _, c := range fm.Calls() {
		if c.Function == function {
			out = append(out, c)
		}
	}
	return out
}

func (fm *FakeMoodle) Uploads() []UploadCall {
	fm.mu.Lock()
	defer fm.mu.Unlock()
	return append([]UploadCall(nil), fm.uploads...)
}

func (fm *FakeMoodle) handleRPC(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	function := r.PostForm.Get("wsfunction")

	fm.mu.Lock()
	fm.calls = append(fm.calls, WSCall{Function: function, Form: r.PostForm})
	body, ok := fm.responses[function]
	fm.mu.Unlock()

	if !ok {
		body = "null"
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = io.WriteString(w, body)
}

func (fm *FakeMoodle) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	call := UploadCall{
		Token:  r.FormValue("token"),
		ItemID: r.FormValue("itemid"),
	}
	if f, fh, err := r.FormFile("file"); err == nil {
		call.Filename = fh.Filename
		call.Content, _ = io.ReadAll(f)
		_ = f.Close()
	}

	fm.mu.Lock()
	n := len(fm.uploads)
	fm.uploads = append(fm.uploads, call)

	var body string
	if len(fm.uploadBodies) > 0 {
		idx := n
		if idx >= len(fm.uploadBodies) {
			idx = len(fm.uploadBodies) - 1
		}
		body = fm.uploadBodies[idx]
	} else {
		itemID := call.ItemID
		if itemID == "" {
			itemID = fmt.Sprintf("%d", fm.nextItemID)
		}
		body = fmt.Sprintf(`[{"itemid":%s,"filename":%q}]`, itemID, call.Filename)
	}
	fm.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_, _ = io.WriteString(w, body)
}

func (fm *FakeMoodle) handleToken(w http.ResponseWriter, r *http.Request) {
	fm.mu.Lock()
	fm.calls = append(fm.calls, WSCall{Function: "login/token.php", Form: r.URL.Query()})
	body := fm.tokenBody
	fm.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_, _ = io.WriteString(w, body)
}

func (fm *FakeMoodle) handleFile(w http.ResponseWriter, r *http.Request) {
	fm.mu.Lock()
	fm.calls = append(fm.calls, WSCall{Function: "pluginfile.php", Form: r.URL.Query()})
	contentType, body, status := fm.fileContentType, fm.fileBody, fm.fileStatus
	fm.mu.Unlock()

	if status != 0 {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, "<html>error page</html>")
		return
	}
	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	_, _ = w.Write(body)
}
