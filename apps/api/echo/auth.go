package echoapi

import (
	"strings"

	"github.com/labstack/echo/v4"
)

// credentialFromHeader extracts the session token from an Authorization
// header value. Both the "Bearer <token>" form and a bare token are
// accepted; an empty result means no credential was supplied.
func credentialFromHeader(header string) string {
	header = strings.TrimSpace(header)
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return header
}

func credential(ctx echo.Context) string {
	return credentialFromHeader(ctx.Request().Header.Get(echo.HeaderAuthorization))
}

// credentialMiddleware rejects requests without a session token before
// any handler runs, so no outbound call is ever attempted for them.
func credentialMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if credential(ctx) == "" {
				return errMissingToken
			}
			return next(ctx)
		}
	}
}
