package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/aulamovil/backend/core"
	"github.com/aulamovil/backend/core/moodle"
)

var (
	errMissingToken   = echo.NewHTTPError(http.StatusUnauthorized, "missing session token")
	errMissingFileURL = echo.NewHTTPError(http.StatusBadRequest, "missing file url")
	errNoFileReceived = echo.NewHTTPError(http.StatusBadRequest, "no file received")
)

// newAppHTTPErrorHandler returns the custom echo.HTTPErrorHandler that maps our
// errors to responses. It is the only place errors become HTTP: components
// below the handlers raise typed errors and never touch status codes.
// signalShutdown is called whenever a core shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		cause := errors.Cause(err)
		switch cause {
		case moodle.ErrMissingCredential:
			code = http.StatusUnauthorized
			message = cause.Error()
		case moodle.ErrEmptyUpload:
			code = http.StatusInternalServerError
			message = cause.Error()
			logger.Warn("upload returned no descriptor", err)
		default:
			code, message = mapErrorCause(cause, err, logger, signalShutdown)
		}

		if !ctx.Response().Committed {
			var werr error
			if ctx.Request().Method == http.MethodHead {
				werr = ctx.NoContent(code)
			} else {
				werr = ctx.JSON(code, echo.Map{"ok": false, "error": message})
			}
			if werr != nil {
				ctx.Echo().Logger.Error(werr)
			}
		}
	}
}

func mapErrorCause(cause, err error, logger core.Logger, signalShutdown func()) (int, interface{}) {
	switch origErr := cause.(type) {
	case *echo.HTTPError:
		if origErr.Internal != nil {
			if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
				origErr = herr
			}
		}
		return origErr.Code, origErr.Message
	case validator.ValidationErrors:
		fldErrs := make(map[string]string, len(origErr))
		for _, vErr := range origErr {
			fldErrs[vErr.Field()] = vErr.Tag()
		}
		return http.StatusBadRequest, fldErrs
	case *core.ValidationError:
		if origErr.Fields != nil {
			fldErrs := make(map[string]string, len(origErr.Fields))
			for _, fErr := range origErr.Fields {
				fldErrs[fErr.Field] = fErr.Error
			}
			return http.StatusBadRequest, fldErrs
		}
		return http.StatusBadRequest, origErr.Error()
	case *moodle.FaultError:
		// the remote-supplied message is surfaced to the client as-is
		return http.StatusInternalServerError, origErr.Error()
	case *moodle.TransportError:
		logger.Error("upstream request failed", err)
		return http.StatusInternalServerError, "upstream request failed"
	default:
		msg := http.StatusText(http.StatusInternalServerError)
		logger.Error(msg, errors.Wrap(err, msg))
		if core.IsShutdown(err) {
			signalShutdown()
		}
		return http.StatusInternalServerError, msg
	}
}
