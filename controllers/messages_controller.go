package controllers

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront-service/messaging"
	"storefront-service/models"
	"storefront-service/session"
	"storefront-service/views"
)

type MessagingService interface {
	Panel(ctx context.Context, me, with string) (*messaging.Panel, error)
	Send(ctx context.Context, me string, req models.SendMessageRequest) (*messaging.Panel, error)
	Delete(ctx context.Context, me, id, with string) (*messaging.Panel, error)
}

type MessagesController struct {
	*Base
	messages MessagingService
}

func NewMessagesController(base *Base, svc MessagingService) *MessagesController {
	return &MessagesController{Base: base, messages: svc}
}

func (mc *MessagesController) me(c *gin.Context) string {
	return mc.Sessions.Current(c).User.ID
}

func (mc *MessagesController) Show(c *gin.Context) {
	panel, err := mc.messages.Panel(mc.apiContext(c), mc.me(c), c.Query("with"))
	if err != nil {
		if mc.denied(c, err) {
			return
		}
		mc.notify(c, err, "Could not load your messages")
	}
	mc.renderPanel(c, http.StatusOK, panel)
}

// Send renders the refetched panel directly; the list shown is the one
// the API returned after the send.
func (mc *MessagesController) Send(c *gin.Context) {
	req := models.SendMessageRequest{To: c.PostForm("to"), Message: c.PostForm("message")}
	panel, err := mc.messages.Send(mc.apiContext(c), mc.me(c), req)
	if errors.Is(err, messaging.ErrRefetch) {
		mc.stale(c, err, panel, "Message sent, but the conversation could not be refreshed")
		return
	}
	if err != nil {
		mc.failed(c, err, req.To, "Could not send your message")
		return
	}
	mc.Sessions.Flash(c, session.FlashSuccess, "Message sent")
	mc.renderPanel(c, http.StatusOK, panel)
}

func (mc *MessagesController) Delete(c *gin.Context) {
	with := c.PostForm("with")
	panel, err := mc.messages.Delete(mc.apiContext(c), mc.me(c), c.Param("id"), with)
	if errors.Is(err, messaging.ErrRefetch) {
		mc.stale(c, err, panel, "Message deleted, but the conversation could not be refreshed")
		return
	}
	if err != nil {
		mc.failed(c, err, with, "Could not delete the message")
		return
	}
	mc.Sessions.Flash(c, session.FlashSuccess, "Message deleted")
	mc.renderPanel(c, http.StatusOK, panel)
}

// stale renders the panel left after a write whose follow-up list fetch
// failed. The write is not reported as failed.
func (mc *MessagesController) stale(c *gin.Context, err error, panel *messaging.Panel, what string) {
	if mc.denied(c, err) {
		return
	}
	mc.log(c).Warn(what, zap.Error(err))
	mc.Sessions.Flash(c, session.FlashError, what+".")
	mc.renderPanel(c, http.StatusOK, panel)
}

// failed flashes and sends the browser back to the conversation it was on.
func (mc *MessagesController) failed(c *gin.Context, err error, with, what string) {
	switch {
	case errors.Is(err, messaging.ErrInvalidMessage):
		mc.Sessions.Flash(c, session.FlashError, "Choose a recipient and write a message before sending.")
	case mc.denied(c, err):
		return
	default:
		mc.notify(c, err, what)
	}
	target := "/messages"
	if with != "" {
		target += "?with=" + url.QueryEscape(with)
	}
	c.Redirect(http.StatusSeeOther, target)
}

func (mc *MessagesController) renderPanel(c *gin.Context, status int, panel *messaging.Panel) {
	mc.render(c, status, "messages.page.tmpl", &views.TemplateData{Title: "Messages", Messages: panel})
}
