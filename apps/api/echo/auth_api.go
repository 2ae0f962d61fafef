package echoapi

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/aulamovil/backend/core"
	"github.com/aulamovil/backend/core/moodle"
)

type authApi struct {
	log      core.Logger
	moodle   moodle.ServiceInterface
	google   core.IdentityVerifier
	links    core.LinkRepository
	validate *validator.Validate
}

func registerAuthAPI(e *echo.Echo, deps *Deps, validate *validator.Validate) {
	api := authApi{
		log:      deps.Logger,
		moodle:   deps.Moodle,
		google:   deps.Google,
		links:    deps.Links,
		validate: validate,
	}

	g := e.Group("/auth")
	g.POST("/login", api.login)
	g.POST("/google", api.googleSignIn)
	g.POST("/link-google-moodle", api.linkGoogleMoodle)
}

func (api *authApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	acct, err := api.moodle.Login(ctx.Request().Context(), data.Username, data.Password)
	if err != nil {
		if fault, ok := errors.Cause(err).(*moodle.FaultError); ok {
			return echo.NewHTTPError(http.StatusUnauthorized, fault.Error())
		}
		return errors.Wrap(err, "logging in")
	}

	return ctx.JSON(http.StatusOK, echo.Map{
		"ok":    true,
		"token": acct.Token,
		"user":  acct.User,
	})
}

// googleSignIn verifies a Google ID token and reports what the client should
// do next: the caller still has to supply Moodle credentials, unless a
// stored link already names the account to use.
func (api *authApi) googleSignIn(ctx echo.Context) error {
	var data GoogleAuthRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to GoogleAuthRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	rctx := ctx.Request().Context()
	googleUser, err := api.google.Verify(rctx, data.IDToken)
	if err != nil {
		api.log.Warn("google token verification failed", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "could not verify google token")
	}

	resp := echo.Map{
		"ok":              true,
		"requiresLinking": true,
		"googleUser":      googleUser,
		"emailRegistered": api.moodle.EmailRegistered(rctx, googleUser.Email),
		"message":         "google sign-in ok; moodle credentials required to link the account",
	}
	if link, err := api.links.GetLink(googleUser.Email); err == nil {
		resp["linkedUsername"] = link.Username
	} else if errors.Cause(err) != core.ErrLinkNotFound {
		api.log.Warn("link lookup failed", err)
	}
	return ctx.JSON(http.StatusOK, resp)
}

func (api *authApi) linkGoogleMoodle(ctx echo.Context) error {
	var data LinkGoogleMoodleRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LinkGoogleMoodleRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	rctx := ctx.Request().Context()
	googleUser, err := api.google.Verify(rctx, data.IDToken)
	if err != nil {
		api.log.Warn("google token verification failed", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "could not verify google token")
	}

	acct, err := api.moodle.Login(rctx, data.Username, data.Password)
	if err != nil {
		if _, ok := errors.Cause(err).(*moodle.FaultError); ok {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid moodle credentials")
		}
		return errors.Wrap(err, "logging in")
	}

	// best-effort: a failed store write never blocks the login
	link := core.Link{
		GoogleEmail: googleUser.Email,
		Username:    data.Username,
		LinkedAt:    time.Now(),
	}
	if err := api.links.SaveLink(link); err != nil {
		api.log.Warn("saving link failed", err)
	}

	avatar := acct.User.Avatar
	if avatar == "" {
		avatar = googleUser.Picture
	}
	return ctx.JSON(http.StatusOK, echo.Map{
		"ok":    true,
		"token": acct.Token,
		"user": echo.Map{
			"id":             acct.User.ID,
			"fullname":       acct.User.Fullname,
			"email":          acct.User.Email,
			"avatar":         avatar,
			"googleEmail":    googleUser.Email,
			"linkedToGoogle": true,
		},
	})
}
