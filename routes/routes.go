package routes

import (
	"github.com/gin-gonic/gin"

	"storefront-service/controllers"
	"storefront-service/middleware"
	"storefront-service/session"
	"storefront-service/views"
)

type Controllers struct {
	Base     *controllers.Base
	Catalog  *controllers.CatalogController
	Search   *controllers.SearchController
	Auth     *controllers.AuthController
	Cart     *controllers.CartController
	Messages *controllers.MessagesController
	TradeIn  *controllers.TradeInController
}

type Options struct {
	Sessions       *session.Manager
	SuggestLimiter *middleware.RateLimiter
	AuthLimiter    *middleware.RateLimiter
	AllowedOrigins []string
}

func RegisterRoutes(r *gin.Engine, ctrl Controllers, opts Options) {
	r.GET("/health", controllers.Health)
	r.StaticFS("/static", views.Static())

	site := r.Group("/")
	site.Use(opts.Sessions.Middleware())

	// Public pages
	site.GET("/", ctrl.Catalog.Home)
	site.GET("/search", ctrl.Catalog.Search)
	site.GET("/products", ctrl.Catalog.Products)
	site.GET("/category/:id", ctrl.Catalog.Category)
	site.GET("/product/:id", ctrl.Catalog.ProductDetail)
	site.POST("/filters", ctrl.Catalog.ApplyFilters)
	site.GET("/filters/clear", ctrl.Catalog.ClearFilters)

	// Auth
	site.GET("/login", ctrl.Auth.LoginForm)
	site.POST("/login", opts.AuthLimiter.Handler(), ctrl.Auth.Login)
	site.GET("/signup", ctrl.Auth.SignupForm)
	site.POST("/signup", opts.AuthLimiter.Handler(), ctrl.Auth.Signup)
	site.POST("/logout", ctrl.Auth.Logout)

	// JSON endpoints called by the pages
	api := site.Group("/api")
	api.Use(middleware.CORS(opts.AllowedOrigins))
	{
		api.GET("/suggest", opts.SuggestLimiter.Handler(), ctrl.Search.Suggest)
	}

	// Gated pages
	gated := site.Group("/")
	gated.Use(middleware.RequireSession(opts.Sessions))
	{
		gated.GET("/cart", ctrl.Cart.Show)
		gated.POST("/cart/add", ctrl.Cart.Add)
		gated.POST("/cart/items/:product_id/increment", ctrl.Cart.Increment)
		gated.POST("/cart/items/:product_id/decrement", ctrl.Cart.Decrement)
		gated.POST("/cart/items/:product_id/remove", ctrl.Cart.Remove)
		gated.POST("/cart/clear", ctrl.Cart.Clear)

		gated.GET("/messages", ctrl.Messages.Show)
		gated.POST("/messages", ctrl.Messages.Send)
		gated.POST("/messages/:id/delete", ctrl.Messages.Delete)

		gated.GET("/trade-in", ctrl.TradeIn.Show)
		gated.POST("/trade-in", ctrl.TradeIn.Submit)
	}

	r.NoRoute(ctrl.Base.NotFound)
}
