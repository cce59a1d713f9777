package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-service/search"
)

func searchHarness(t *testing.T, s *fakeSuggester) *harness {
	h := newHarness(t)
	h.router.GET("/api/suggest", NewSearchController(h.base, s).Suggest)
	return h
}

func TestSuggestReturnsItems(t *testing.T) {
	var gotKey, gotQ string
	h := searchHarness(t, &fakeSuggester{suggest: func(ctx context.Context, key, q string) (*search.Result, error) {
		gotKey, gotQ = key, q
		return &search.Result{Query: q, Seq: 3, Items: []search.Item{{Kind: "product", ID: "p1", Label: "iPhone", URL: "/product/p1"}}}, nil
	}})

	rec := h.do(http.MethodGet, "/api/suggest?q=iph", nil, "application/json")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "iph", gotQ)
	assert.Equal(t, h.cookie.Value, gotKey)
	var res search.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Len(t, res.Items, 1)
	assert.Equal(t, "/product/p1", res.Items[0].URL)
}

func TestSuggestSupersededIsNoContent(t *testing.T) {
	h := searchHarness(t, &fakeSuggester{suggest: func(ctx context.Context, key, q string) (*search.Result, error) {
		return nil, search.ErrSuperseded
	}})

	rec := h.do(http.MethodGet, "/api/suggest?q=iph", nil, "application/json")

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestSuggestFailureIsUnavailable(t *testing.T) {
	h := searchHarness(t, &fakeSuggester{suggest: func(ctx context.Context, key, q string) (*search.Result, error) {
		return nil, errors.New("boom")
	}})

	rec := h.do(http.MethodGet, "/api/suggest?q=iph", nil, "application/json")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
