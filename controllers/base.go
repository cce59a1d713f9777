package controllers

import (
	"context"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront-service/apperrors"
	"storefront-service/clients"
	"storefront-service/logger"
	"storefront-service/middleware"
	"storefront-service/models"
	"storefront-service/session"
	"storefront-service/views"
)

// CategoryLister feeds the category menu of the nav shell.
type CategoryLister interface {
	Categories(ctx context.Context) []models.Category
}

// Base carries what every page handler needs: the session, the nav
// categories and the renderer.
type Base struct {
	Sessions   *session.Manager
	Categories CategoryLister
	Views      *views.Renderer
	Logger     *zap.Logger
}

// apiContext carries the session token to the API client.
func (b *Base) apiContext(c *gin.Context) context.Context {
	return clients.WithToken(c.Request.Context(), b.Sessions.Token(c))
}

func (b *Base) log(c *gin.Context) *zap.Logger {
	if b.Logger == nil {
		return zap.NewNop()
	}
	return logger.FromContext(c, b.Logger)
}

func (b *Base) nav(c *gin.Context) views.Nav {
	current := b.Sessions.Current(c)
	nav := views.Nav{
		Categories:    b.Categories.Categories(c.Request.Context()),
		Authenticated: current.Authenticated(),
		Flashes:       b.Sessions.PopFlashes(c),
		Search:        c.Query("search"),
		Path:          c.Request.URL.RequestURI(),
	}
	if current.Authenticated() {
		nav.UserName = current.User.DisplayName()
	}
	return nav
}

// render fills the nav shell and writes page. A template failure falls
// back to the plain error panel.
func (b *Base) render(c *gin.Context, status int, page string, data *views.TemplateData) {
	if data == nil {
		data = &views.TemplateData{}
	}
	data.Nav = b.nav(c)

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(status)
	if err := b.Views.Render(c.Writer, page, data); err != nil {
		b.log(c).Error("Failed to render page", zap.String("page", page), zap.Error(err))
		b.renderError(c, http.StatusInternalServerError, apperrors.ErrInternalServer.Message)
	}
}

// renderError writes the error page. It is also the fallback for a failed
// render, so it never calls back into render.
func (b *Base) renderError(c *gin.Context, status int, message string) {
	data := &views.TemplateData{
		Title: http.StatusText(status),
		Error: &views.ErrorPanel{Status: status, Message: message},
		Nav:   views.Nav{Categories: b.Categories.Categories(c.Request.Context())},
	}
	if !c.Writer.Written() {
		c.Status(status)
	}
	if err := b.Views.Render(c.Writer, "error.page.tmpl", data); err != nil {
		b.log(c).Error("Failed to render error page", zap.Error(err))
		c.String(status, message)
	}
}

// NotFound answers unknown routes.
func (b *Base) NotFound(c *gin.Context) {
	if middleware.WantsJSON(c) {
		c.JSON(http.StatusNotFound, gin.H{"error": apperrors.ErrNotFound.Message})
		return
	}
	b.renderError(c, http.StatusNotFound, "We couldn't find that page.")
}

// Recovered renders the error page for a handler panic.
func (b *Base) Recovered(c *gin.Context, recovered any) {
	b.log(c).Error("Recovered from panic", zap.Any("panic", recovered), zap.String("path", c.Request.URL.Path))
	if middleware.WantsJSON(c) {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": apperrors.ErrInternalServer.Message})
		return
	}
	b.renderError(c, http.StatusInternalServerError, apperrors.ErrInternalServer.Message)
	c.Abort()
}

// notify logs a failed API call and queues a flash describing it. A
// rejected token ends the session pair.
func (b *Base) notify(c *gin.Context, err error, what string) *apperrors.Error {
	appErr := apperrors.FromAPI(err)
	b.log(c).Warn(what, zap.Int("status", appErr.Code), zap.Error(err))
	if clients.IsUnauthorized(err) {
		b.Sessions.Expire(c)
		return appErr
	}
	b.Sessions.Flash(c, session.FlashError, what+". "+appErr.Message+".")
	return appErr
}

// denied handles a rejected token on a gated page by sending the browser
// to log in again. It reports whether it did.
func (b *Base) denied(c *gin.Context, err error) bool {
	if !clients.IsUnauthorized(err) {
		return false
	}
	b.Sessions.Expire(c)
	b.toLogin(c)
	return true
}

func (b *Base) toLogin(c *gin.Context) {
	next := c.Request.URL.RequestURI()
	if c.Request.Method != http.MethodGet {
		next = back(c, "/")
	}
	c.Redirect(http.StatusSeeOther, "/login?next="+url.QueryEscape(middleware.SafeNext(next)))
}

// back is the same-site page the request came from, or fallback.
func back(c *gin.Context, fallback string) string {
	ref, err := url.Parse(c.GetHeader("Referer"))
	if err != nil || ref.Path == "" {
		return fallback
	}
	if ref.Host != "" && ref.Host != c.Request.Host {
		return fallback
	}
	return middleware.SafeNext(ref.RequestURI())
}

// Health answers liveness probes.
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
