package echoapi

import (
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"github.com/aulamovil/backend/core/moodle"
)

type fileApi struct {
	svc moodle.ServiceInterface
}

func registerFileAPI(e *echo.Echo, auth echo.MiddlewareFunc, svc moodle.ServiceInterface) {
	api := fileApi{svc: svc}
	e.GET("/file", api.download, auth)
}

// download streams an LMS file to the client, keeping the session token
// out of the client-visible URL.
func (api *fileApi) download(ctx echo.Context) error {
	raw := ctx.QueryParam("u")
	if raw == "" {
		return errMissingFileURL
	}
	// clients send the upstream URL double-encoded
	if dec, err := url.QueryUnescape(raw); err == nil {
		raw = dec
	}

	dl, err := api.svc.FetchFile(ctx.Request().Context(), credential(ctx), raw)
	if err != nil {
		return err
	}
	defer dl.Body.Close()

	contentType := dl.ContentType
	if contentType == "" {
		contentType = echo.MIMEOctetStream
	}
	return ctx.Stream(http.StatusOK, contentType, dl.Body)
}
