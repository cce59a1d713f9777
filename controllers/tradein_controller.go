package controllers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"storefront-service/models"
	"storefront-service/session"
	"storefront-service/tradein"
	"storefront-service/views"
)

type TradeInService interface {
	Table() *tradein.Table
	StepFor(req models.TradeInRequest) tradein.Step
	Replacements(ctx context.Context, category string) []models.Product
	Submit(ctx context.Context, userID string, req models.TradeInRequest) error
}

type TradeInController struct {
	*Base
	tradein TradeInService
}

func NewTradeInController(base *Base, svc TradeInService) *TradeInController {
	return &TradeInController{Base: base, tradein: svc}
}

const specPrefix = "spec_"

// requestFrom reads the wizard state out of query or form values.
func requestFrom(c *gin.Context) models.TradeInRequest {
	req := models.TradeInRequest{
		Category:           strings.TrimSpace(c.Request.FormValue("category")),
		ProductType:        strings.TrimSpace(c.Request.FormValue("productType")),
		ReplacementProduct: strings.TrimSpace(c.Request.FormValue("replacementProduct")),
		Specs:              map[string]string{},
	}
	for key, values := range c.Request.Form {
		if strings.HasPrefix(key, specPrefix) && len(values) > 0 {
			req.Specs[strings.TrimPrefix(key, specPrefix)] = strings.TrimSpace(values[0])
		}
	}
	return req
}

func (tc *TradeInController) Show(c *gin.Context) {
	tc.renderWizard(c, http.StatusOK, requestFrom(c), nil)
}

// Submit validates locally before anything is sent. A failure re-renders
// the wizard with what was entered and the missing fields marked.
func (tc *TradeInController) Submit(c *gin.Context) {
	req := requestFrom(c)
	userID := tc.Sessions.Current(c).User.ID

	err := tc.tradein.Submit(tc.apiContext(c), userID, req)
	if err == nil {
		tc.Sessions.Flash(c, session.FlashSuccess, "Your trade-in request has been submitted. We'll be in touch with an offer.")
		c.Redirect(http.StatusSeeOther, "/")
		return
	}

	var missing *tradein.MissingFieldsError
	switch {
	case errors.As(err, &missing):
		tc.Sessions.Flash(c, session.FlashError, missing.Error())
		tc.renderWizard(c, http.StatusUnprocessableEntity, req, missing.Labels)
	case errors.Is(err, tradein.ErrUnknownCategory), errors.Is(err, tradein.ErrUnknownProductType), errors.Is(err, tradein.ErrNoReplacement):
		tc.Sessions.Flash(c, session.FlashError, capitalize(err.Error())+".")
		tc.renderWizard(c, http.StatusUnprocessableEntity, req, nil)
	default:
		if tc.denied(c, err) {
			return
		}
		appErr := tc.notify(c, err, "Could not submit your trade-in")
		tc.renderWizard(c, appErr.Code, req, nil)
	}
}

func (tc *TradeInController) renderWizard(c *gin.Context, status int, req models.TradeInRequest, missing []string) {
	form := &views.TradeInForm{
		Table:   tc.tradein.Table(),
		Step:    tc.tradein.StepFor(req),
		Request: req,
		Missing: make(map[string]bool, len(missing)),
	}
	for _, label := range missing {
		form.Missing[label] = true
	}
	if cat, ok := form.Table.Category(req.Category); ok {
		form.Category = cat
		if pt, ok := cat.ProductType(req.ProductType); ok {
			form.ProductType = pt
		}
	}
	if form.Step == tradein.StepDetails {
		form.Replacements = tc.tradein.Replacements(tc.apiContext(c), req.Category)
	}
	tc.render(c, status, "tradein.page.tmpl", &views.TemplateData{Title: "Trade in", TradeIn: form})
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
