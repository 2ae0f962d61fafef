package moodle

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/pkg/errors"
)

// Upload stages one file into the user's draft area and returns the
// area id. Passing itemID > 0 appends to that existing area instead of
// letting the LMS create a new one; all files of one submission attempt
// must end up in the same area.
func (c *Client) Upload(ctx context.Context, token, name string, data io.Reader, itemID int64) (int64, error) {
	if token == "" {
		return 0, ErrMissingCredential
	}

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	if err := form.WriteField("token", token); err != nil {
		return 0, errors.Wrap(err, "writing token field")
	}
	if itemID > 0 {
		if err := form.WriteField("itemid", strconv.FormatInt(itemID, 10)); err != nil {
			return 0, errors.Wrap(err, "writing itemid field")
		}
	}
	part, err := form.CreateFormFile("file", name)
	if err != nil {
		return 0, errors.Wrap(err, "creating file part")
	}
	if _, err := io.Copy(part, data); err != nil {
		return 0, errors.Wrapf(err, "reading %q", name)
	}
	if err := form.Close(); err != nil {
		return 0, errors.Wrap(err, "closing form")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.conf.MoodleBase+uploadPath, &buf)
	if err != nil {
		return 0, &TransportError{err}
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	body, err := c.do(req)
	if err != nil {
		return 0, err
	}
	return decodeUploadResult(body)
}

// decodeUploadResult expects a non-empty array of file descriptors; the
// first descriptor's itemid is the authoritative draft-area id. The
// endpoint reports failures either as an {"error": …} object or as a
// regular {"exception": …} fault; an empty or non-array reply with no
// marker means the LMS rejected the upload silently.
func decodeUploadResult(body []byte) (int64, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return 0, ErrEmptyUpload
	}

	if trimmed[0] == '{' {
		var fault struct {
			Error     string `json:"error"`
			Exception string `json:"exception"`
			ErrorCode string `json:"errorcode"`
			Message   string `json:"message"`
		}
		if err := json.Unmarshal(trimmed, &fault); err != nil {
			return 0, &TransportError{errors.Wrap(err, "decoding upload response")}
		}
		if fault.Error != "" {
			return 0, &FaultError{Code: fault.ErrorCode, Message: fault.Error}
		}
		if fault.Exception != "" || fault.ErrorCode != "" {
			return 0, &FaultError{Code: fault.ErrorCode, Message: fault.Message}
		}
		return 0, ErrEmptyUpload
	}

	var files []UploadedFile
	if err := json.Unmarshal(trimmed, &files); err != nil {
		return 0, &TransportError{errors.Wrap(err, "decoding upload response")}
	}
	if len(files) == 0 {
		return 0, ErrEmptyUpload
	}
	return files[0].ItemID, nil
}
