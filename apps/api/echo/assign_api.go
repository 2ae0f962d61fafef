package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/aulamovil/backend/core/moodle"
)

type assignApi struct {
	svc moodle.ServiceInterface
}

func registerAssignAPI(e *echo.Echo, auth echo.MiddlewareFunc, svc moodle.ServiceInterface) {
	api := assignApi{svc: svc}

	g := e.Group("/assign/:assignId", auth)
	g.GET("/status", api.status)
	g.POST("/save-text", api.saveText)
	g.POST("/submit", api.submit)
	g.POST("/save-file", api.saveFile)
	g.POST("/save-submission", api.saveSubmission)
}

func (api *assignApi) status(ctx echo.Context) error {
	status, err := api.svc.AssignmentStatus(ctx.Request().Context(), credential(ctx), ctx.Param("assignId"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"ok": true, "status": status})
}

func (api *assignApi) saveText(ctx echo.Context) error {
	var data SaveTextRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SaveTextRequest")
	}
	result, err := api.svc.SaveText(ctx.Request().Context(), credential(ctx), ctx.Param("assignId"), data.Text)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"ok": true, "result": result})
}

func (api *assignApi) submit(ctx echo.Context) error {
	result, err := api.svc.SubmitForGrading(ctx.Request().Context(), credential(ctx), ctx.Param("assignId"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"ok": true, "result": result})
}

// saveFile is the legacy single-file path; it drives the same composer
// as save-submission with exactly one file and no text.
func (api *assignApi) saveFile(ctx echo.Context) error {
	fh, err := ctx.FormFile("file")
	if err != nil {
		return errNoFileReceived
	}
	f, err := fh.Open()
	if err != nil {
		return errors.Wrapf(err, "opening %q", fh.Filename)
	}
	defer f.Close()

	sub := moodle.Submission{
		Files: []moodle.SubmissionFile{{Name: fh.Filename, Data: f}},
	}
	result, err := api.svc.SaveSubmission(ctx.Request().Context(), credential(ctx), ctx.Param("assignId"), sub)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"ok": true, "result": result})
}

// saveSubmission is the combined path: a multipart body carrying an
// optional "text" field and zero or more "files" parts, or a plain JSON
// body with just the text. Neither text nor files clears the submission.
func (api *assignApi) saveSubmission(ctx echo.Context) error {
	var sub moodle.Submission

	form, err := ctx.MultipartForm()
	if err == nil {
		if vals := form.Value["text"]; len(vals) > 0 {
			sub.Text = vals[0]
		}
		for _, fh := range form.File["files"] {
			f, err := fh.Open()
			if err != nil {
				return errors.Wrapf(err, "opening %q", fh.Filename)
			}
			defer f.Close()
			sub.Files = append(sub.Files, moodle.SubmissionFile{Name: fh.Filename, Data: f})
		}
	} else {
		var data SaveSubmissionRequest
		if err := ctx.Bind(&data); err != nil {
			return errors.Wrap(err, "binding to SaveSubmissionRequest")
		}
		sub.Text = data.Text
	}

	result, err := api.svc.SaveSubmission(ctx.Request().Context(), credential(ctx), ctx.Param("assignId"), sub)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"ok": true, "result": result})
}
