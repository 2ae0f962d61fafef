package moodle

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/aulamovil/backend/core"
)

// web-service functions this system calls
const (
	fnSiteInfo          = "core_webservice_get_site_info"
	fnCoursesByTime     = "core_course_get_enrolled_courses_by_timeline_classification"
	fnCourseContents    = "core_course_get_contents"
	fnGradeItems        = "gradereport_user_get_grade_items"
	fnEnrolledUsers     = "core_enrol_get_enrolled_users"
	fnSubmissionStatus  = "mod_assign_get_submission_status"
	fnSaveSubmission    = "mod_assign_save_submission"
	fnSubmitForGrading  = "mod_assign_submit_for_grading"
	fnForumsByCourses   = "mod_forum_get_forums_by_courses"
	fnForumDiscussions  = "mod_forum_get_forum_discussions"
	fnDiscussionPosts   = "mod_forum_get_discussion_posts"
	fnAddDiscussionPost = "mod_forum_add_discussion_post"
	fnUsersByField      = "core_user_get_users_by_field"
)

type ServiceInterface interface {
	Login(ctx context.Context, username, password string) (Account, error)
	SiteInfo(ctx context.Context, token string) (SiteInfo, error)
	Courses(ctx context.Context, token string) (json.RawMessage, error)
	CourseContents(ctx context.Context, token, courseID string) (json.RawMessage, error)
	CourseGrades(ctx context.Context, token, courseID string) (json.RawMessage, error)
	CourseParticipants(ctx context.Context, token, courseID string) ([]Participant, error)
	AssignmentStatus(ctx context.Context, token, assignID string) (json.RawMessage, error)
	SaveText(ctx context.Context, token, assignID, text string) (json.RawMessage, error)
	SubmitForGrading(ctx context.Context, token, assignID string) (json.RawMessage, error)
	SaveSubmission(ctx context.Context, token, assignID string, sub Submission) (json.RawMessage, error)
	CourseForums(ctx context.Context, token, courseID string) ([]map[string]interface{}, error)
	ForumDiscussions(ctx context.Context, token, forumID string) (json.RawMessage, error)
	DiscussionPosts(ctx context.Context, token, discussionID string) (json.RawMessage, error)
	ReplyToPost(ctx context.Context, token string, reply ForumReply) (json.RawMessage, error)
	EmailRegistered(ctx context.Context, email string) bool
	FetchFile(ctx context.Context, token, rawURL string) (*FileDownload, error)
}

// service translates the client-facing operations into web-service calls.
// It holds no cross-request state; every operation is scoped to the
// token it is handed.
type service struct {
	conf   *core.Config
	log    core.Logger
	client *Client
}

var _ ServiceInterface = (*service)(nil)

func NewService(conf *core.Config, log core.Logger, client *Client) ServiceInterface {
	return &service{
		conf:   conf,
		log:    log,
		client: client,
	}
}

func (svc *service) Login(ctx context.Context, username, password string) (Account, error) {
	token, err := svc.client.Login(ctx, username, password)
	if err != nil {
		return Account{}, err
	}
	info, err := svc.SiteInfo(ctx, token)
	if err != nil {
		return Account{}, errors.Wrap(err, "fetching site info")
	}

	email := info.UserEmail
	if email == "" {
		email = username
	}
	return Account{
		Token: token,
		User: Profile{
			ID:       info.UserID,
			Fullname: info.Fullname,
			Email:    email,
			Avatar:   info.UserPictureURL,
		},
	}, nil
}

func (svc *service) SiteInfo(ctx context.Context, token string) (SiteInfo, error) {
	payload, err := svc.client.Call(ctx, token, fnSiteInfo, nil)
	if err != nil {
		return SiteInfo{}, err
	}
	var info SiteInfo
	if err := json.Unmarshal(payload, &info); err != nil {
		return SiteInfo{}, &TransportError{errors.Wrap(err, "decoding site info")}
	}
	return info, nil
}

func (svc *service) Courses(ctx context.Context, token string) (json.RawMessage, error) {
	params := url.Values{"classification": {"inprogress"}}
	payload, err := svc.client.Call(ctx, token, fnCoursesByTime, params)
	if err != nil {
		return nil, err
	}
	var data struct {
		Courses json.RawMessage `json:"courses"`
	}
	if err := json.Unmarshal(payload, &data); err != nil {
		return nil, &TransportError{errors.Wrap(err, "decoding courses")}
	}
	if len(data.Courses) == 0 {
		return json.RawMessage("[]"), nil
	}
	return data.Courses, nil
}

func (svc *service) CourseContents(ctx context.Context, token, courseID string) (json.RawMessage, error) {
	return svc.client.Call(ctx, token, fnCourseContents, url.Values{"courseid": {courseID}})
}

func (svc *service) CourseGrades(ctx context.Context, token, courseID string) (json.RawMessage, error) {
	return svc.client.Call(ctx, token, fnGradeItems, url.Values{"courseid": {courseID}})
}

func (svc *service) CourseParticipants(ctx context.Context, token, courseID string) ([]Participant, error) {
	payload, err := svc.client.Call(ctx, token, fnEnrolledUsers, url.Values{"courseid": {courseID}})
	if err != nil {
		return nil, err
	}

	var enrolled []struct {
		ID       int64  `json:"id"`
		Fullname string `json:"fullname"`
		Email    string `json:"email"`
		Roles    []struct {
			ShortName string `json:"shortname"`
		} `json:"roles"`
		Groups []struct {
			Name string `json:"name"`
		} `json:"groups"`
	}
	if err := json.Unmarshal(payload, &enrolled); err != nil {
		return nil, &TransportError{errors.Wrap(err, "decoding enrolled users")}
	}

	participants := make([]Participant, 0, len(enrolled))
	for _, usr := range enrolled {
		roles := make([]string, 0, len(usr.Roles))
		for _, r := range usr.Roles {
			roles = append(roles, r.ShortName)
		}
		groups := make([]string, 0, len(usr.Groups))
		for _, g := range usr.Groups {
			groups = append(groups, g.Name)
		}
		participants = append(participants, Participant{
			ID:       usr.ID,
			Fullname: usr.Fullname,
			Email:    usr.Email,
			Roles:    strings.Join(roles, ", "),
			Groups:   strings.Join(groups, ", "),
		})
	}
	return participants, nil
}

// AssignmentStatus resolves the caller's user id first so the LMS reports
// the caller's own submission rather than guessing from the token context.
func (svc *service) AssignmentStatus(ctx context.Context, token, assignID string) (json.RawMessage, error) {
	info, err := svc.SiteInfo(ctx, token)
	if err != nil {
		return nil, errors.Wrap(err, "resolving user id")
	}
	params := url.Values{
		"assignid": {assignID},
		"userid":   {strconv.FormatInt(info.UserID, 10)},
	}
	return svc.client.Call(ctx, token, fnSubmissionStatus, params)
}

func (svc *service) SaveText(ctx context.Context, token, assignID, text string) (json.RawMessage, error) {
	params := url.Values{"assignmentid": {assignID}}
	setTextParams(params, text)
	return svc.client.Call(ctx, token, fnSaveSubmission, params)
}

func (svc *service) SubmitForGrading(ctx context.Context, token, assignID string) (json.RawMessage, error) {
	params := url.Values{
		"assignmentid":              {assignID},
		"acceptsubmissionstatement": {"1"},
	}
	return svc.client.Call(ctx, token, fnSubmitForGrading, params)
}

// CourseForums fetches a course's forums and annotates each with the name
// of the course section it lives in.
func (svc *service) CourseForums(ctx context.Context, token, courseID string) ([]map[string]interface{}, error) {
	payload, err := svc.client.Call(ctx, token, fnForumsByCourses, url.Values{"courseids[0]": {courseID}})
	if err != nil {
		return nil, err
	}
	var forums []map[string]interface{}
	if err := json.Unmarshal(payload, &forums); err != nil {
		return nil, &TransportError{errors.Wrap(err, "decoding forums")}
	}

	contents, err := svc.client.Call(ctx, token, fnCourseContents, url.Values{"courseid": {courseID}})
	if err != nil {
		return nil, err
	}
	var sections []struct {
		Section int64 `json:"section"`
		Modules []struct {
			ModName  string `json:"modname"`
			Instance int64  `json:"instance"`
		} `json:"modules"`
	}
	if err := json.Unmarshal(contents, &sections); err != nil {
		return nil, &TransportError{errors.Wrap(err, "decoding course contents")}
	}

	// forum ids from the forums call match module instance ids in contents
	sectionNames := make(map[int64]string)
	for _, section := range sections {
		name := "General"
		if section.Section != 0 {
			name = "Unidad " + strconv.FormatInt(section.Section, 10)
		}
		for _, mod := range section.Modules {
			if mod.ModName == "forum" {
				sectionNames[mod.Instance] = name
			}
		}
	}

	for _, forum := range forums {
		name := "Sin sección"
		if id, ok := forum["id"].(float64); ok {
			if n, ok := sectionNames[int64(id)]; ok {
				name = n
			}
		}
		forum["sectionName"] = name
	}
	return forums, nil
}

func (svc *service) ForumDiscussions(ctx context.Context, token, forumID string) (json.RawMessage, error) {
	return svc.client.Call(ctx, token, fnForumDiscussions, url.Values{"forumid": {forumID}})
}

func (svc *service) DiscussionPosts(ctx context.Context, token, discussionID string) (json.RawMessage, error) {
	return svc.client.Call(ctx, token, fnDiscussionPosts, url.Values{"discussionid": {discussionID}})
}

func (svc *service) ReplyToPost(ctx context.Context, token string, reply ForumReply) (json.RawMessage, error) {
	params := url.Values{
		"postid":            {strconv.FormatInt(reply.PostID, 10)},
		"subject":           {reply.Subject},
		"message":           {reply.Message},
		"options[0][name]":  {"discussionsubscribe"},
		"options[0][value]": {"true"},
	}
	return svc.client.Call(ctx, token, fnAddDiscussionPost, params)
}

// EmailRegistered checks whether an email belongs to a known account,
// using the configured admin token. Lookups are best-effort: without an
// admin token, or when the lookup itself fails, the email is assumed
// registered so the login flow is never blocked on this check.
func (svc *service) EmailRegistered(ctx context.Context, email string) bool {
	if svc.conf.AdminToken == "" {
		svc.log.Info("admin token not configured, skipping email check")
		return true
	}
	params := url.Values{
		"field":     {"email"},
		"values[0]": {email},
	}
	payload, err := svc.client.Call(ctx, svc.conf.AdminToken, fnUsersByField, params)
	if err != nil {
		svc.log.Warn("email lookup failed", err)
		return true
	}
	var users []json.RawMessage
	if err := json.Unmarshal(payload, &users); err != nil {
		svc.log.Warn("email lookup returned unexpected payload", err)
		return true
	}
	return len(users) > 0
}

// FetchFile streams a file from the LMS, injecting the caller's token as
// a query parameter on the upstream URL.
func (svc *service) FetchFile(ctx context.Context, token, rawURL string) (*FileDownload, error) {
	if token == "" {
		return nil, ErrMissingCredential
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, core.NewValidationError(errors.Wrap(err, "invalid file url"))
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, &TransportError{err}
	}
	res, err := svc.client.http.Do(req)
	if err != nil {
		return nil, &TransportError{err}
	}
	// the LMS serves its error pages with the right status; never relay
	// one as a successful download
	if res.StatusCode >= 400 {
		res.Body.Close()
		return nil, &TransportError{errors.Errorf("file fetch returned %s", res.Status)}
	}
	return &FileDownload{
		ContentType: res.Header.Get("Content-Type"),
		Body:        res.Body,
	}, nil
}

func setTextParams(params url.Values, text string) {
	params.Set("plugindata[onlinetext_editor][text]", text)
	params.Set("plugindata[onlinetext_editor][format]", "1")
	params.Set("plugindata[onlinetext_editor][itemid]", "0")
}
