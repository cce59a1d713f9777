package controllers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront-service/apperrors"
	"storefront-service/clients"
	"storefront-service/middleware"
	"storefront-service/models"
	"storefront-service/session"
	"storefront-service/views"
)

type AuthAPI interface {
	Login(ctx context.Context, req models.LoginRequest) (*models.SessionPair, error)
	Signup(ctx context.Context, req models.SignupRequest) (*models.SessionPair, error)
}

type AuthController struct {
	*Base
	api AuthAPI
}

func NewAuthController(base *Base, api AuthAPI) *AuthController {
	return &AuthController{Base: base, api: api}
}

var errIncompletePair = errors.New("auth response missing token or user")

func (ac *AuthController) LoginForm(c *gin.Context) {
	next := middleware.SafeNext(c.Query("next"))
	if ac.Sessions.Current(c).Authenticated() {
		c.Redirect(http.StatusSeeOther, next)
		return
	}
	ac.render(c, http.StatusOK, "login.page.tmpl", &views.TemplateData{Title: "Log in", Auth: &views.AuthForm{Next: next}})
}

func (ac *AuthController) Login(c *gin.Context) {
	next := middleware.SafeNext(c.PostForm("next"))
	form := &views.AuthForm{Next: next, Email: c.PostForm("email")}

	var req models.LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		ac.Sessions.Flash(c, session.FlashError, "Enter a valid email and your password.")
		ac.render(c, http.StatusUnprocessableEntity, "login.page.tmpl", &views.TemplateData{Title: "Log in", Auth: form})
		return
	}

	pair, err := ac.api.Login(c.Request.Context(), req)
	if err == nil && !pair.Authenticated() {
		err = errIncompletePair
	}
	if err != nil {
		status := ac.authFailure(c, err, "Invalid email or password.")
		ac.render(c, status, "login.page.tmpl", &views.TemplateData{Title: "Log in", Auth: form})
		return
	}
	ac.signIn(c, *pair, "Welcome back, "+pair.User.DisplayName()+"!", next)
}

func (ac *AuthController) SignupForm(c *gin.Context) {
	next := middleware.SafeNext(c.Query("next"))
	if ac.Sessions.Current(c).Authenticated() {
		c.Redirect(http.StatusSeeOther, next)
		return
	}
	ac.render(c, http.StatusOK, "signup.page.tmpl", &views.TemplateData{Title: "Sign up", Auth: &views.AuthForm{Next: next}})
}

func (ac *AuthController) Signup(c *gin.Context) {
	next := middleware.SafeNext(c.PostForm("next"))
	form := &views.AuthForm{Next: next, Name: c.PostForm("name"), Email: c.PostForm("email")}

	var req models.SignupRequest
	if err := c.ShouldBind(&req); err != nil {
		ac.Sessions.Flash(c, session.FlashError, "Enter your name, a valid email and a password of at least 6 characters.")
		ac.render(c, http.StatusUnprocessableEntity, "signup.page.tmpl", &views.TemplateData{Title: "Sign up", Auth: form})
		return
	}

	pair, err := ac.api.Signup(c.Request.Context(), req)
	if err == nil && !pair.Authenticated() {
		err = errIncompletePair
	}
	if err != nil {
		status := ac.authFailure(c, err, "Could not create your account.")
		ac.render(c, status, "signup.page.tmpl", &views.TemplateData{Title: "Sign up", Auth: form})
		return
	}
	ac.signIn(c, *pair, "Welcome, "+pair.User.DisplayName()+"!", next)
}

// Logout is session-local: the pair is dropped and the browser moves to a
// fresh anonymous session.
func (ac *AuthController) Logout(c *gin.Context) {
	if err := ac.Sessions.Logout(c); err != nil {
		ac.log(c).Error("Failed to end session", zap.Error(err))
	}
	ac.Sessions.Flash(c, session.FlashInfo, "You have been logged out.")
	c.Redirect(http.StatusSeeOther, "/")
}

func (ac *AuthController) signIn(c *gin.Context, pair models.SessionPair, greeting, next string) {
	if err := ac.Sessions.Login(c, pair); err != nil {
		ac.log(c).Error("Failed to store session", zap.Error(err))
		ac.renderError(c, http.StatusInternalServerError, apperrors.ErrInternalServer.Message)
		return
	}
	ac.Sessions.Flash(c, session.FlashSuccess, greeting)
	c.Redirect(http.StatusSeeOther, next)
}

// authFailure flashes why the credentials were not accepted and returns
// the status to render the form with. The API's own 4xx message is shown
// when it sent one.
func (ac *AuthController) authFailure(c *gin.Context, err error, rejected string) int {
	var apiErr *clients.APIError
	switch {
	case errors.As(err, &apiErr) && apiErr.StatusCode < http.StatusInternalServerError:
		msg := apiErr.Message()
		if msg == "" || clients.IsUnauthorized(err) {
			msg = rejected
		}
		ac.Sessions.Flash(c, session.FlashError, msg)
		return apiErr.StatusCode
	case errors.Is(err, errIncompletePair):
		ac.log(c).Error("Auth response incomplete")
		ac.Sessions.Flash(c, session.FlashError, apperrors.ErrBadGateway.Message+".")
		return http.StatusBadGateway
	default:
		return ac.notify(c, err, "Could not sign you in").Code
	}
}
