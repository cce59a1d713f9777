package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"storefront-service/session"
)

// WantsJSON reports whether the caller asked for a JSON answer rather than
// a page.
func WantsJSON(c *gin.Context) bool {
	return strings.Contains(c.GetHeader("Accept"), "application/json")
}

// RequireSession lets authenticated sessions through. Page requests are
// sent to the login page with a next parameter; JSON requests get 401.
func RequireSession(sessions *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if sessions.Current(c).Authenticated() {
			c.Next()
			return
		}
		if WantsJSON(c) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Please sign in to continue"})
			return
		}

		next := c.Request.URL.Path
		if c.Request.Method != http.MethodGet {
			next = c.GetHeader("Referer")
			if u, err := url.Parse(next); err == nil {
				next = u.RequestURI()
			}
		} else if c.Request.URL.RawQuery != "" {
			next += "?" + c.Request.URL.RawQuery
		}
		c.Redirect(http.StatusSeeOther, "/login?next="+url.QueryEscape(SafeNext(next)))
		c.Abort()
	}
}

// SafeNext keeps a redirect target on this site; anything else becomes "/".
func SafeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	return next
}
