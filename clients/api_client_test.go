package clients

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-service/models"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *APIClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewAPIClient(srv.URL+"/api", 2*time.Second)
}

func TestListProductsWithMeta(t *testing.T) {
	var gotQuery url.Values
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/products", r.URL.Path)
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"products":[{"_id":"p1","name":"A","price":10}],"meta":{"page":2,"perPage":1,"total":5,"totalPages":5}}`)
	})

	page, err := client.ListProducts(context.Background(), url.Values{"search": {"pix"}, "page": {"2"}})
	require.NoError(t, err)

	assert.Equal(t, "pix", gotQuery.Get("search"))
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 5, page.TotalPages)
	assert.Equal(t, int64(5), page.Total)
	require.Len(t, page.Products, 1)
	assert.Equal(t, "p1", page.Products[0].ID)
}

func TestListProductsBareArrayIsSinglePage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[{"id":"a"},{"id":"b"},{"id":"c"}]`)
	})

	page, err := client.ListProducts(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 1, page.TotalPages)
	assert.Equal(t, int64(3), page.Total)
	assert.Len(t, page.Products, 3)
}

func TestBearerTokenFromContext(t *testing.T) {
	var auth string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_, _ = io.WriteString(w, `{"items":[],"total":0,"totalAfterDiscount":0}`)
	})

	_, err := client.GetCart(WithToken(context.Background(), "tok"))
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok", auth)

	_, err = client.GetCart(context.Background())
	require.NoError(t, err)
	assert.Empty(t, auth)
}

func TestUpdateCartItemSendsFullLine(t *testing.T) {
	var body map[string]interface{}
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/cart/update", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, _ = io.WriteString(w, `{"cart":{"items":[{"product":"p1","quantity":3,"price":2}],"total":6,"totalAfterDiscount":6}}`)
	})

	cart, err := client.UpdateCartItem(context.Background(), "p1", 3)
	require.NoError(t, err)

	assert.Equal(t, "p1", body["productId"])
	assert.Equal(t, float64(3), body["quantity"])
	assert.Equal(t, 6.0, cart.GrandTotal())
}

func TestErrorClassification(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/products/missing":
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"error":"product not found"}`)
		case "/api/cart":
			w.WriteHeader(http.StatusUnauthorized)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	})
	ctx := context.Background()

	_, err := client.GetProduct(ctx, "missing")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "product not found", apiErr.Message())

	_, err = client.GetCart(ctx)
	assert.True(t, IsUnauthorized(err))

	_, err = client.ListCategories(ctx)
	assert.True(t, IsServerError(err))
	assert.False(t, IsNotFound(err))
}

func TestTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	client := NewAPIClient(srv.URL, time.Second)
	srv.Close()

	_, err := client.ListCategories(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransport)
	assert.False(t, IsServerError(err))
}

func TestLoginDecodesSessionPair(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req models.LoginRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "a@b.co", req.Email)
		_, _ = io.WriteString(w, `{"token":"jwt","user":{"_id":"u1","name":"Ana","email":"a@b.co"}}`)
	})

	pair, err := client.Login(context.Background(), models.LoginRequest{Email: "a@b.co", Password: "secret"})
	require.NoError(t, err)
	assert.True(t, pair.Authenticated())
	assert.Equal(t, "u1", pair.User.ID)
}
