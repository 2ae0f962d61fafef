package echoapi

import (
	"github.com/go-playground/validator/v10"
)

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (r *LoginRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(r)
}

type GoogleAuthRequest struct {
	IDToken string `json:"idToken" validate:"required"`
}

func (r *GoogleAuthRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(r)
}

type LinkGoogleMoodleRequest struct {
	IDToken  string `json:"idToken" validate:"required"`
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (r *LinkGoogleMoodleRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(r)
}

type SaveTextRequest struct {
	Text string `json:"text"`
}

type SaveSubmissionRequest struct {
	Text string `json:"text" form:"text"`
}

type ForumReplyRequest struct {
	PostID  int64  `json:"postid" validate:"required"`
	Subject string `json:"subject" validate:"required"`
	Message string `json:"message" validate:"required"`
}

func (r *ForumReplyRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(r)
}
