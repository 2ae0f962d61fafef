package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/aulamovil/backend/core/moodle"
)

type forumApi struct {
	svc      moodle.ServiceInterface
	validate *validator.Validate
}

func registerForumAPI(e *echo.Echo, auth echo.MiddlewareFunc, svc moodle.ServiceInterface, validate *validator.Validate) {
	api := forumApi{svc: svc, validate: validate}

	// the :id under /forum is a course id for /forums and a forum id
	// for /discussions; echo requires one param name per segment
	g := e.Group("/forum", auth)
	g.GET("/:id/forums", api.courseForums)
	g.GET("/:id/discussions", api.discussions)
	g.POST("/reply", api.reply)

	e.GET("/discussion/:discussionId/posts", api.posts, auth)
}

func (api *forumApi) courseForums(ctx echo.Context) error {
	forums, err := api.svc.CourseForums(ctx.Request().Context(), credential(ctx), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"ok": true, "forums": forums})
}

func (api *forumApi) discussions(ctx echo.Context) error {
	discussions, err := api.svc.ForumDiscussions(ctx.Request().Context(), credential(ctx), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"ok": true, "discussions": discussions})
}

func (api *forumApi) posts(ctx echo.Context) error {
	posts, err := api.svc.DiscussionPosts(ctx.Request().Context(), credential(ctx), ctx.Param("discussionId"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"ok": true, "posts": posts})
}

func (api *forumApi) reply(ctx echo.Context) error {
	var data ForumReplyRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ForumReplyRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	reply := moodle.ForumReply{
		PostID:  data.PostID,
		Subject: data.Subject,
		Message: data.Message,
	}
	result, err := api.svc.ReplyToPost(ctx.Request().Context(), credential(ctx), reply)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"ok": true, "result": result})
}
