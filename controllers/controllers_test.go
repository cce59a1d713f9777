package controllers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"storefront-service/catalog"
	"storefront-service/clients"
	"storefront-service/filters"
	"storefront-service/middleware"
	"storefront-service/models"
	"storefront-service/search"
	"storefront-service/session"
	"storefront-service/views"
)

var errNotStubbed = errors.New("not stubbed")

type staticCategories struct{}

func (staticCategories) Categories(ctx context.Context) []models.Category {
	return catalog.StaticCategories()
}

type fakeCatalog struct {
	staticCategories
	category func(ctx context.Context, id string) *models.Category
	list     func(ctx context.Context, f filters.ListingFilters) (*models.ProductPage, error)
	product  func(ctx context.Context, id string) (*catalog.ProductDetail, error)
	home     func(ctx context.Context) *catalog.HomePanels
}

func (f *fakeCatalog) Category(ctx context.Context, id string) *models.Category {
	if f.category == nil {
		return nil
	}
	return f.category(ctx, id)
}

func (f *fakeCatalog) List(ctx context.Context, fl filters.ListingFilters) (*models.ProductPage, error) {
	if f.list == nil {
		return nil, errNotStubbed
	}
	return f.list(ctx, fl)
}

func (f *fakeCatalog) Product(ctx context.Context, id string) (*catalog.ProductDetail, error) {
	if f.product == nil {
		return nil, errNotStubbed
	}
	return f.product(ctx, id)
}

func (f *fakeCatalog) Home(ctx context.Context) *catalog.HomePanels {
	if f.home == nil {
		return &catalog.HomePanels{}
	}
	return f.home(ctx)
}

// fakeAPI stands in for the API client behind the real domain services.
type fakeAPI struct {
	getCart        func(ctx context.Context) (*models.Cart, error)
	addToCart      func(ctx context.Context, productID string, quantity int) (*models.Cart, error)
	updateCartItem func(ctx context.Context, productID string, quantity int) (*models.Cart, error)
	removeCartItem func(ctx context.Context, productID string) (*models.Cart, error)
	clearCart      func(ctx context.Context) (*models.Cart, error)
	login          func(ctx context.Context, req models.LoginRequest) (*models.SessionPair, error)
	signup         func(ctx context.Context, req models.SignupRequest) (*models.SessionPair, error)
	listMessages   func(ctx context.Context) ([]models.Message, error)
	sendMessage    func(ctx context.Context, req models.SendMessageRequest) error
	deleteMessage  func(ctx context.Context, id string) error
	listProducts   func(ctx context.Context, params url.Values) (*models.ProductPage, error)
	createTradeIn  func(ctx context.Context, req models.TradeInRequest) error
}

func (f *fakeAPI) GetCart(ctx context.Context) (*models.Cart, error) {
	if f.getCart == nil {
		return nil, errNotStubbed
	}
	return f.getCart(ctx)
}

func (f *fakeAPI) AddToCart(ctx context.Context, productID string, quantity int) (*models.Cart, error) {
	if f.addToCart == nil {
		return nil, errNotStubbed
	}
	return f.addToCart(ctx, productID, quantity)
}

func (f *fakeAPI) UpdateCartItem(ctx context.Context, productID string, quantity int) (*models.Cart, error) {
	if f.updateCartItem == nil {
		return nil, errNotStubbed
	}
	return f.updateCartItem(ctx, productID, quantity)
}

func (f *fakeAPI) RemoveCartItem(ctx context.Context, productID string) (*models.Cart, error) {
	if f.removeCartItem == nil {
		return nil, errNotStubbed
	}
	return f.removeCartItem(ctx, productID)
}

func (f *fakeAPI) ClearCart(ctx context.Context) (*models.Cart, error) {
	if f.clearCart == nil {
		return nil, errNotStubbed
	}
	return f.clearCart(ctx)
}

func (f *fakeAPI) Login(ctx context.Context, req models.LoginRequest) (*models.SessionPair, error) {
	if f.login == nil {
		return nil, errNotStubbed
	}
	return f.login(ctx, req)
}

func (f *fakeAPI) Signup(ctx context.Context, req models.SignupRequest) (*models.SessionPair, error) {
	if f.signup == nil {
		return nil, errNotStubbed
	}
	return f.signup(ctx, req)
}

func (f *fakeAPI) ListMessages(ctx context.Context) ([]models.Message, error) {
	if f.listMessages == nil {
		return nil, errNotStubbed
	}
	return f.listMessages(ctx)
}

func (f *fakeAPI) SendMessage(ctx context.Context, req models.SendMessageRequest) error {
	if f.sendMessage == nil {
		return errNotStubbed
	}
	return f.sendMessage(ctx, req)
}

func (f *fakeAPI) DeleteMessage(ctx context.Context, id string) error {
	if f.deleteMessage == nil {
		return errNotStubbed
	}
	return f.deleteMessage(ctx, id)
}

func (f *fakeAPI) ListProducts(ctx context.Context, params url.Values) (*models.ProductPage, error) {
	if f.listProducts == nil {
		return nil, errNotStubbed
	}
	return f.listProducts(ctx, params)
}

func (f *fakeAPI) CreateTradeIn(ctx context.Context, req models.TradeInRequest) error {
	if f.createTradeIn == nil {
		return errNotStubbed
	}
	return f.createTradeIn(ctx, req)
}

type fakeSuggester struct {
	suggest func(ctx context.Context, key, q string) (*search.Result, error)
}

func (f *fakeSuggester) Suggest(ctx context.Context, key, q string) (*search.Result, error) {
	return f.suggest(ctx, key, q)
}

const cookieName = "storefront_session"

// harness is a gin engine with a real session manager, the real renderer
// and a browser-like cookie jar of one cookie.
type harness struct {
	t        *testing.T
	router   *gin.Engine
	gated    *gin.RouterGroup
	base     *Base
	sessions *session.Manager
	cookie   *http.Cookie
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	renderer, err := views.New()
	require.NoError(t, err)

	sessions := session.NewManager(session.NewMemoryStore(time.Hour), session.Options{})
	t.Cleanup(sessions.Close)

	base := &Base{Sessions: sessions, Categories: staticCategories{}, Views: renderer}
	r := gin.New()
	r.Use(sessions.Middleware())
	r.GET("/test/login", func(c *gin.Context) {
		require.NoError(t, sessions.Login(c, models.SessionPair{Token: "tok", User: &models.User{ID: "u1", Name: "Ada"}}))
		c.Status(http.StatusNoContent)
	})

	return &harness{
		t:        t,
		router:   r,
		gated:    r.Group("/", middleware.RequireSession(sessions)),
		base:     base,
		sessions: sessions,
	}
}

func (h *harness) do(method, target string, form url.Values, accept string) *httptest.ResponseRecorder {
	h.t.Helper()
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	if h.cookie != nil {
		req.AddCookie(h.cookie)
	}

	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	for _, c := range rec.Result().Cookies() {
		if c.Name == cookieName {
			h.cookie = c
		}
	}
	return rec
}

func (h *harness) login() {
	h.t.Helper()
	rec := h.do(http.MethodGet, "/test/login", nil, "")
	require.Equal(h.t, http.StatusNoContent, rec.Code)
}

func apiStatus(code int) error {
	return &clients.APIError{Method: http.MethodGet, Path: "/x", StatusCode: code, Body: `{"error":"upstream"}`}
}

func products(ids ...string) []models.Product {
	out := make([]models.Product, 0, len(ids))
	for _, id := range ids {
		out = append(out, models.Product{ID: id, Name: "Product " + id, Price: 100, Quantity: 5})
	}
	return out
}
