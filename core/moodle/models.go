package moodle

import "io"

// SiteInfo is the subset of core_webservice_get_site_info this system uses.
type SiteInfo struct {
	SiteName       string `json:"sitename"`
	Username       string `json:"username"`
	Fullname       string `json:"fullname"`
	UserID         int64  `json:"userid"`
	UserEmail      string `json:"useremail"`
	UserPictureURL string `json:"userpictureurl"`
}

// Profile is the basic user profile returned to the mobile client.
type Profile struct {
	ID       int64  `json:"id"`
	Fullname string `json:"fullname"`
	Email    string `json:"email"`
	Avatar   string `json:"avatar"`
}

// Account is a successful login: a session token plus the user's profile.
type Account struct {
	Token string
	User  Profile
}

// Participant is an enrolled user, normalized for the client: role and
// group names are flattened to comma-joined strings.
type Participant struct {
	ID       int64  `json:"id"`
	Fullname string `json:"fullname"`
	Email    string `json:"email"`
	Roles    string `json:"roles"`
	Groups   string `json:"groups"`
}

// UploadedFile is one descriptor returned by the upload endpoint. The
// first descriptor's ItemID identifies the draft area the file went into.
type UploadedFile struct {
	ItemID   int64  `json:"itemid"`
	Filename string `json:"filename"`
	URL      string `json:"url"`
}

// SubmissionFile is one binary payload of a submission attempt.
type SubmissionFile struct {
	Name string
	Data io.Reader
}

// Submission is one attempt to save or clear an assignment's content:
// a text value (possibly empty) plus zero or more files. An attempt
// with neither is a well-formed deletion request, not an error.
type Submission struct {
	Text  string
	Files []SubmissionFile
}

// ForumReply is a reply to an existing forum post.
type ForumReply struct {
	PostID  int64
	Subject string
	Message string
}

// FileDownload is a streamed file proxied from the LMS.
// The caller owns Body and must close it.
type FileDownload struct {
	ContentType string
	Body        io.ReadCloser
}
