package controllers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront-service/search"
)

type Suggester interface {
	Suggest(ctx context.Context, key, q string) (*search.Result, error)
}

type SearchController struct {
	*Base
	suggester Suggester
}

func NewSearchController(base *Base, s Suggester) *SearchController {
	return &SearchController{Base: base, suggester: s}
}

// Suggest answers the nav search dropdown. Calls are debounced per session;
// a call overtaken by a newer one from the same session gets 204.
func (sc *SearchController) Suggest(c *gin.Context) {
	result, err := sc.suggester.Suggest(sc.apiContext(c), sc.Sessions.ID(c), c.Query("q"))
	if err != nil {
		if errors.Is(err, search.ErrSuperseded) || errors.Is(err, context.Canceled) {
			c.Status(http.StatusNoContent)
			return
		}
		sc.log(c).Warn("Suggestion failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Suggestions are unavailable right now"})
		return
	}
	c.JSON(http.StatusOK, result)
}
