package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/aulamovil/backend/core/moodle"
)

type courseApi struct {
	svc moodle.ServiceInterface
}

func registerCourseAPI(e *echo.Echo, auth echo.MiddlewareFunc, svc moodle.ServiceInterface) {
	api := courseApi{svc: svc}

	e.GET("/courses", api.list, auth)

	g := e.Group("/course/:courseId", auth)
	g.GET("/contents", api.contents)
	g.GET("/grades", api.grades)
	g.GET("/participants", api.participants)
}

func (api *courseApi) list(ctx echo.Context) error {
	courses, err := api.svc.Courses(ctx.Request().Context(), credential(ctx))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"ok": true, "courses": courses})
}

func (api *courseApi) contents(ctx echo.Context) error {
	contents, err := api.svc.CourseContents(ctx.Request().Context(), credential(ctx), ctx.Param("courseId"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"ok": true, "contents": contents})
}

func (api *courseApi) grades(ctx echo.Context) error {
	grades, err := api.svc.CourseGrades(ctx.Request().Context(), credential(ctx), ctx.Param("courseId"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"ok": true, "grades": grades})
}

func (api *courseApi) participants(ctx echo.Context) error {
	participants, err := api.svc.CourseParticipants(ctx.Request().Context(), credential(ctx), ctx.Param("courseId"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"ok": true, "participants": participants})
}
