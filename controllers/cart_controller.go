package controllers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"storefront-service/apperrors"
	"storefront-service/cart"
	"storefront-service/middleware"
	"storefront-service/models"
	"storefront-service/session"
	"storefront-service/views"
)

type CartService interface {
	Get(ctx context.Context) (*models.Cart, error)
	Add(ctx context.Context, owner, productID string, quantity int) (*models.Cart, error)
	Increment(ctx context.Context, owner, productID string, current int) (*models.Cart, error)
	Decrement(ctx context.Context, owner, productID string, current int) (*models.Cart, error)
	Remove(ctx context.Context, owner, productID string) (*models.Cart, error)
	Clear(ctx context.Context) (*models.Cart, error)
	Guard() *cart.LineGuard
}

type CartController struct {
	*Base
	cart CartService
}

func NewCartController(base *Base, svc CartService) *CartController {
	return &CartController{Base: base, cart: svc}
}

// Show renders the cart. Lines with a mutation still in flight for this
// session are drawn disabled.
func (cc *CartController) Show(c *gin.Context) {
	current, err := cc.cart.Get(cc.apiContext(c))
	if err != nil {
		if cc.denied(c, err) {
			return
		}
		cc.notify(c, err, "Could not load your cart")
		current = &models.Cart{Items: []models.CartItem{}}
	}
	cc.render(c, http.StatusOK, "cart.page.tmpl", &views.TemplateData{
		Title:     "Cart",
		Cart:      current,
		BusyLines: cc.cart.Guard().BusyLines(cc.Sessions.ID(c)),
	})
}

func (cc *CartController) Add(c *gin.Context) {
	productID := c.PostForm("product_id")
	quantity := 1
	if q, err := strconv.Atoi(c.DefaultPostForm("quantity", "1")); err == nil {
		quantity = q
	}
	updated, err := cc.cart.Add(cc.apiContext(c), cc.Sessions.ID(c), productID, quantity)
	cc.respond(c, updated, err, "Added to cart", back(c, "/cart"))
}

func (cc *CartController) Increment(c *gin.Context) {
	pid, current := c.Param("product_id"), postedQuantity(c)
	updated, err := cc.cart.Increment(cc.apiContext(c), cc.Sessions.ID(c), pid, current)
	cc.respond(c, updated, err, "", "/cart")
}

func (cc *CartController) Decrement(c *gin.Context) {
	pid, current := c.Param("product_id"), postedQuantity(c)
	updated, err := cc.cart.Decrement(cc.apiContext(c), cc.Sessions.ID(c), pid, current)
	cc.respond(c, updated, err, "", "/cart")
}

func (cc *CartController) Remove(c *gin.Context) {
	updated, err := cc.cart.Remove(cc.apiContext(c), cc.Sessions.ID(c), c.Param("product_id"))
	cc.respond(c, updated, err, "Item removed", "/cart")
}

func (cc *CartController) Clear(c *gin.Context) {
	updated, err := cc.cart.Clear(cc.apiContext(c))
	cc.respond(c, updated, err, "Cart cleared", "/cart")
}

func postedQuantity(c *gin.Context) int {
	q, err := strconv.Atoi(c.PostForm("quantity"))
	if err != nil {
		return 0
	}
	return q
}

// respond finishes a cart mutation. JSON callers get the cart the API
// returned, or the failure status; page callers get a flash and a redirect,
// so the prior cart is what they see on failure.
func (cc *CartController) respond(c *gin.Context, updated *models.Cart, err error, success, redirect string) {
	if middleware.WantsJSON(c) {
		cc.respondJSON(c, updated, err)
		return
	}
	if err != nil {
		if cc.denied(c, err) {
			return
		}
		cc.flashCartError(c, err)
	} else if success != "" {
		cc.Sessions.Flash(c, session.FlashSuccess, success)
	}
	c.Redirect(http.StatusSeeOther, redirect)
}

func (cc *CartController) respondJSON(c *gin.Context, updated *models.Cart, err error) {
	if err == nil {
		if updated == nil {
			updated = &models.Cart{Items: []models.CartItem{}}
		}
		c.JSON(http.StatusOK, cartJSON(updated))
		return
	}
	// The page reloads after a failed JSON mutation, so the failure is
	// queued as a flash for that reload as well as returned here.
	appErr := cartError(err)
	if appErr.Code == http.StatusUnauthorized {
		cc.Sessions.Expire(c)
	} else {
		cc.flashCartError(c, err)
	}
	c.JSON(appErr.Code, gin.H{"error": appErr.Message})
}

func (cc *CartController) flashCartError(c *gin.Context, err error) {
	appErr := cartError(err)
	if appErr.Code >= http.StatusInternalServerError {
		cc.notify(c, err, "Could not update your cart")
		return
	}
	cc.Sessions.Flash(c, session.FlashError, appErr.Message)
}

// cartError maps local cart rejections ahead of API failures.
func cartError(err error) *apperrors.Error {
	switch {
	case errors.Is(err, cart.ErrLineBusy):
		return apperrors.Wrap(apperrors.ErrConflict, err)
	case errors.Is(err, cart.ErrMinQuantity):
		return apperrors.New(http.StatusUnprocessableEntity, "Quantity cannot go below 1. Use Remove instead.", err)
	case errors.Is(err, cart.ErrInvalidQuantity):
		return apperrors.New(http.StatusUnprocessableEntity, "Quantity must be at least 1.", err)
	default:
		return apperrors.FromAPI(err)
	}
}

func cartJSON(c *models.Cart) gin.H {
	lines := make([]gin.H, 0, len(c.Items))
	for _, item := range c.Items {
		line := gin.H{
			"productId": item.ProductID,
			"name":      item.Name(),
			"quantity":  item.Quantity,
			"price":     nil,
			"lineTotal": nil,
		}
		if item.Priced() {
			line["price"] = item.Price
			line["lineTotal"] = item.LineTotal()
		}
		lines = append(lines, line)
	}
	out := gin.H{
		"items":              lines,
		"total":              c.Total,
		"discount":           c.Discount,
		"totalAfterDiscount": nil,
		"count":              c.Count(),
	}
	if !c.GrandTotalMissing {
		out["totalAfterDiscount"] = c.GrandTotal()
	}
	return out
}
