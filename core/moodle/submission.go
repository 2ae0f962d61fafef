package moodle

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"

	"github.com/pkg/errors"

	"github.com/aulamovil/backend/core"
)

// SaveSubmission saves or clears an assignment submission in a single
// commit call.
//
// An attempt with neither text (whitespace-only counts as none) nor
// files clears the submission: the commit explicitly sets an empty
// online-text editor and draft area 0. Otherwise the files are staged
// first and the commit references whatever content is present.
//
// Files are uploaded strictly in order, never concurrently: the draft
// area id is assigned by the LMS on the first upload and must be
// threaded into every later one so all files of the attempt share one
// area. A failed upload aborts the attempt before the commit; files
// already staged are left behind in the draft area (the LMS expires
// them on its own).
func (svc *service) SaveSubmission(ctx context.Context, token, assignID string, sub Submission) (json.RawMessage, error) {
	hasText := core.CleanString(sub.Text) != ""
	hasFiles := len(sub.Files) > 0

	params := url.Values{"assignmentid": {assignID}}

	if !hasText && !hasFiles {
		setTextParams(params, "")
		params.Set("plugindata[files_filemanager]", "0")
		return svc.client.Call(ctx, token, fnSaveSubmission, params)
	}

	var draftID int64
	for _, f := range sub.Files {
		itemID, err := svc.client.Upload(ctx, token, f.Name, f.Data, draftID)
		if err != nil {
			return nil, errors.Wrapf(err, "staging %q", f.Name)
		}
		if draftID == 0 {
			draftID = itemID
		}
	}

	if hasText {
		setTextParams(params, sub.Text)
	}
	if hasFiles {
		params.Set("plugindata[files_filemanager]", strconv.FormatInt(draftID, 10))
	}
	return svc.client.Call(ctx, token, fnSaveSubmission, params)
}
