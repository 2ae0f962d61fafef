package moodle

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"

	"github.com/aulamovil/backend/core"
)

const (
	restPath   = "/webservice/rest/server.php"
	uploadPath = "/webservice/upload.php"
	tokenPath  = "/login/token.php"
)

// Client performs authenticated web-service calls against one Moodle site.
// It holds no per-user state; the session token is supplied per call.
type Client struct {
	conf *core.Config
	log  core.Logger
	http *http.Client
}

func NewClient(conf *core.Config, log core.Logger) *Client {
	return &Client{
		conf: conf,
		log:  log,
		http: &http.Client{Timeout: conf.RequestTimeout},
	}
}

// Call invokes one web-service function with the user's token. The reply
// is decoded into either a raw success payload or a FaultError at this
// boundary; callers never re-inspect payloads for error markers.
func (c *Client) Call(ctx context.Context, token, function string, params url.Values) (json.RawMessage, error) {
	if token == "" {
		return nil, ErrMissingCredential
	}

	form := url.Values{}
	form.Set("wstoken", token)
	form.Set("wsfunction", function)
	form.Set("moodlewsrestformat", "json")
	for key, vals := range params {
		for _, val := range vals {
			form.Add(key, val)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.conf.MoodleBase+restPath, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &TransportError{err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	body, err := c.do(req)
	if err != nil {
		return nil, err
	}
	return decodePayload(body)
}

// Login exchanges a username/password for a session token.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	u, err := url.Parse(c.conf.MoodleBase + tokenPath)
	if err != nil {
		return "", &TransportError{err}
	}
	q := url.Values{
		"username": {username},
		"password": {password},
		"service":  {c.conf.MoodleService},
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", &TransportError{err}
	}
	body, err := c.do(req)
	if err != nil {
		return "", err
	}

	var grant struct {
		Token     string `json:"token"`
		Error     string `json:"error"`
		ErrorCode string `json:"errorcode"`
	}
	if err := json.Unmarshal(body, &grant); err != nil {
		return "", &TransportError{errors.Wrap(err, "decoding token grant")}
	}
	if grant.Error != "" {
		return "", &FaultError{Code: grant.ErrorCode, Message: grant.Error}
	}
	if grant.Token == "" {
		return "", &TransportError{errors.New("token grant carried no token")}
	}
	return grant.Token, nil
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	res, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{err}
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, &TransportError{err}
	}
	return body, nil
}

// decodePayload splits Moodle's duck-typed reply into a success payload
// or a fault. Faults are always JSON objects carrying an "exception"
// and/or "errorcode" field; anything else is the success payload.
func decodePayload(body []byte) (json.RawMessage, error) {
	var payload json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &TransportError{errors.Wrap(err, "decoding response")}
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var fault struct {
			Exception string `json:"exception"`
			ErrorCode string `json:"errorcode"`
			Message   string `json:"message"`
		}
		if err := json.Unmarshal(trimmed, &fault); err == nil && (fault.Exception != "" || fault.ErrorCode != "") {
			return nil, &FaultError{Code: fault.ErrorCode, Message: fault.Message}
		}
	}
	return payload, nil
}
