package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"storefront-service/models"
)

type tokenKey struct{}

// WithToken attaches the session token to ctx; calls made with the returned
// context carry it as a bearer token.
func WithToken(ctx context.Context, token string) context.Context {
	if token == "" {
		return ctx
	}
	return context.WithValue(ctx, tokenKey{}, token)
}

func tokenFrom(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey{}).(string)
	return token
}

// APIClient talks to the storefront backend. It performs exactly one
// request per call.
type APIClient struct {
	baseURL string
	client  *http.Client
}

func NewAPIClient(baseURL string, timeout time.Duration) *APIClient {
	return &APIClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// NewAPIClientWithHTTP is used by tests to inject a client.
func NewAPIClientWithHTTP(baseURL string, client *http.Client) *APIClient {
	return &APIClient{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

func (a *APIClient) Do(ctx context.Context, method, path string, query url.Values, body interface{}) (*http.Response, error) {
	u := a.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := tokenFrom(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", ErrTransport, method, path, err)
	}
	return resp, nil
}

// call performs the request and decodes a 2xx body into out (if non-nil).
func (a *APIClient) call(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	resp, err := a.Do(ctx, method, path, query, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{Method: method, Path: path, StatusCode: resp.StatusCode, Body: string(b)}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// unwrap returns the value under the first present key when raw is an
// object envelope, or raw itself otherwise.
func unwrap(raw json.RawMessage, keys ...string) json.RawMessage {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return trimmed
	}
	var env map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return trimmed
	}
	for _, k := range keys {
		if v, ok := env[k]; ok {
			return v
		}
	}
	return trimmed
}

type pageMeta struct {
	Page       int   `json:"page"`
	PerPage    int   `json:"perPage"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

// ListProducts fetches one page of products. A bare array response is a
// single page holding everything.
func (a *APIClient) ListProducts(ctx context.Context, params url.Values) (*models.ProductPage, error) {
	var raw json.RawMessage
	if err := a.call(ctx, http.MethodGet, "/products", params, nil, &raw); err != nil {
		return nil, err
	}

	page := &models.ProductPage{}
	list := unwrap(raw, "products", "data")
	if err := json.Unmarshal(list, &page.Products); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}

	var env struct {
		Meta *pageMeta `json:"meta"`
	}
	if len(raw) > 0 && bytes.TrimSpace(raw)[0] == '{' {
		_ = json.Unmarshal(raw, &env)
	}
	if env.Meta != nil {
		page.Page = env.Meta.Page
		page.PerPage = env.Meta.PerPage
		if page.PerPage == 0 {
			page.PerPage = env.Meta.Limit
		}
		page.Total = env.Meta.Total
		page.TotalPages = env.Meta.TotalPages
	}
	if page.Page < 1 {
		page.Page = 1
	}
	if page.TotalPages < 1 {
		page.TotalPages = 1
	}
	if page.Total == 0 {
		page.Total = int64(len(page.Products))
	}
	if page.PerPage == 0 {
		page.PerPage = len(page.Products)
	}
	return page, nil
}

func (a *APIClient) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	var raw json.RawMessage
	if err := a.call(ctx, http.MethodGet, "/products/"+url.PathEscape(id), nil, nil, &raw); err != nil {
		return nil, err
	}
	var p models.Product
	if err := json.Unmarshal(unwrap(raw, "product", "data"), &p); err != nil {
		return nil, fmt.Errorf("decode product: %w", err)
	}
	return &p, nil
}

func (a *APIClient) ListProductsByCategory(ctx context.Context, categoryID string) ([]models.Product, error) {
	var raw json.RawMessage
	if err := a.call(ctx, http.MethodGet, "/products/category/"+url.PathEscape(categoryID), nil, nil, &raw); err != nil {
		return nil, err
	}
	var products []models.Product
	if err := json.Unmarshal(unwrap(raw, "products", "data"), &products); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	return products, nil
}

func (a *APIClient) ListCategories(ctx context.Context) ([]models.Category, error) {
	var raw json.RawMessage
	if err := a.call(ctx, http.MethodGet, "/categories", nil, nil, &raw); err != nil {
		return nil, err
	}
	var categories []models.Category
	if err := json.Unmarshal(unwrap(raw, "categories", "data"), &categories); err != nil {
		return nil, fmt.Errorf("decode categories: %w", err)
	}
	return categories, nil
}

func (a *APIClient) GetCategory(ctx context.Context, id string) (*models.Category, error) {
	var raw json.RawMessage
	if err := a.call(ctx, http.MethodGet, "/categories/"+url.PathEscape(id), nil, nil, &raw); err != nil {
		return nil, err
	}
	var c models.Category
	if err := json.Unmarshal(unwrap(raw, "category", "data"), &c); err != nil {
		return nil, fmt.Errorf("decode category: %w", err)
	}
	return &c, nil
}

type cartLine struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

func (a *APIClient) cart(ctx context.Context, method, path string, body interface{}) (*models.Cart, error) {
	cart := &models.Cart{}
	if err := a.call(ctx, method, path, nil, body, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

func (a *APIClient) GetCart(ctx context.Context) (*models.Cart, error) {
	return a.cart(ctx, http.MethodGet, "/cart", nil)
}

func (a *APIClient) AddToCart(ctx context.Context, productID string, quantity int) (*models.Cart, error) {
	return a.cart(ctx, http.MethodPost, "/cart/add", cartLine{ProductID: productID, Quantity: quantity})
}

func (a *APIClient) UpdateCartItem(ctx context.Context, productID string, quantity int) (*models.Cart, error) {
	return a.cart(ctx, http.MethodPut, "/cart/update", cartLine{ProductID: productID, Quantity: quantity})
}

func (a *APIClient) RemoveCartItem(ctx context.Context, productID string) (*models.Cart, error) {
	return a.cart(ctx, http.MethodDelete, "/cart/remove/"+url.PathEscape(productID), nil)
}

func (a *APIClient) ClearCart(ctx context.Context) (*models.Cart, error) {
	return a.cart(ctx, http.MethodDelete, "/cart/clear", nil)
}

func (a *APIClient) Login(ctx context.Context, req models.LoginRequest) (*models.SessionPair, error) {
	pair := &models.SessionPair{}
	if err := a.call(ctx, http.MethodPost, "/auth/login", nil, req, pair); err != nil {
		return nil, err
	}
	return pair, nil
}

func (a *APIClient) Signup(ctx context.Context, req models.SignupRequest) (*models.SessionPair, error) {
	pair := &models.SessionPair{}
	if err := a.call(ctx, http.MethodPost, "/auth/signup", nil, req, pair); err != nil {
		return nil, err
	}
	return pair, nil
}

func (a *APIClient) ListMessages(ctx context.Context) ([]models.Message, error) {
	var raw json.RawMessage
	if err := a.call(ctx, http.MethodGet, "/messages", nil, nil, &raw); err != nil {
		return nil, err
	}
	var msgs []models.Message
	if err := json.Unmarshal(unwrap(raw, "messages", "data"), &msgs); err != nil {
		return nil, fmt.Errorf("decode messages: %w", err)
	}
	return msgs, nil
}

func (a *APIClient) SendMessage(ctx context.Context, req models.SendMessageRequest) error {
	return a.call(ctx, http.MethodPost, "/messages", nil, req, nil)
}

func (a *APIClient) DeleteMessage(ctx context.Context, id string) error {
	return a.call(ctx, http.MethodDelete, "/messages/"+url.PathEscape(id), nil, nil, nil)
}

func (a *APIClient) CreateTradeIn(ctx context.Context, req models.TradeInRequest) error {
	return a.call(ctx, http.MethodPost, "/tradein", nil, req, nil)
}

// Message extracts the human readable reason from an API error body, which
// the backend sends as {"error": "..."} or {"message": "..."}.
func (e *APIError) Message() string {
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal([]byte(e.Body), &body); err == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Error != "" {
			return body.Error
		}
	}
	return http.StatusText(e.StatusCode)
}
