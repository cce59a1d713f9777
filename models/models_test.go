package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductDecodesLooseShape(t *testing.T) {
	raw := `{
		"_id": "p1",
		"name": "Pixel 9",
		"company": {"_id": "c1", "name": "Google"},
		"category": {"_id": "cat-phones", "name": "Mobiles"},
		"price": 799,
		"discount": 10,
		"priceAfterDiscount": 719.1,
		"quantity": 3,
		"isExclusive": true,
		"processor": "Tensor G4",
		"ram": 12,
		"createdAt": "2024-01-01T00:00:00Z"
	}`

	var p Product
	require.NoError(t, json.Unmarshal([]byte(raw), &p))

	assert.Equal(t, "p1", p.ID)
	assert.Equal(t, "Google", p.Company)
	assert.Equal(t, "cat-phones", p.Category)
	assert.Equal(t, "Mobiles", p.CategoryName)
	assert.True(t, p.Exclusive)
	assert.True(t, p.HasDiscount())
	assert.InDelta(t, 719.1, p.EffectivePrice(), 0.001)
	assert.Equal(t, map[string]string{"processor": "Tensor G4", "ram": "12"}, p.Specs)
}

func TestEffectivePriceIgnoresLargerDiscountedPrice(t *testing.T) {
	after := 120.0
	p := Product{Price: 100, PriceAfterDiscount: &after}

	assert.False(t, p.HasDiscount())
	assert.Equal(t, 100.0, p.EffectivePrice())
}

func TestCartItemAcceptsIDOrEmbeddedProduct(t *testing.T) {
	raw := `{"items": [
		{"product": "p1", "quantity": 2, "price": 10},
		{"product": {"_id": "p2", "name": "Case", "price": 5}, "quantity": 1}
	], "total": 25, "discount": 5}`

	var c Cart
	require.NoError(t, json.Unmarshal([]byte(raw), &c))

	require.Len(t, c.Items, 2)
	assert.Equal(t, "p1", c.Items[0].ProductID)
	assert.Nil(t, c.Items[0].Product)
	assert.Equal(t, 20.0, c.Items[0].LineTotal())

	assert.Equal(t, "p2", c.Items[1].ProductID)
	require.NotNil(t, c.Items[1].Product)
	assert.Equal(t, "Case", c.Items[1].Name())
	assert.Equal(t, 3, c.Count())
}

func TestCartNeverPricesLocally(t *testing.T) {
	raw := `{"items": [
		{"product": {"_id": "p2", "name": "Case", "price": 5, "priceAfterDiscount": 4}, "quantity": 3}
	], "total": 25, "discount": 5}`

	var c Cart
	require.NoError(t, json.Unmarshal([]byte(raw), &c))

	require.Len(t, c.Items, 1)
	assert.False(t, c.Items[0].Priced())
	assert.Zero(t, c.Items[0].Price)
	assert.Zero(t, c.Items[0].LineTotal())

	assert.True(t, c.GrandTotalMissing)
	assert.Zero(t, c.GrandTotal())
}

func TestCartGrandTotal(t *testing.T) {
	var withDiscount, undiscounted Cart
	require.NoError(t, json.Unmarshal([]byte(`{"items": [], "total": 100, "discount": 10, "totalAfterDiscount": 90}`), &withDiscount))
	require.NoError(t, json.Unmarshal([]byte(`{"items": [], "totalPrice": 40}`), &undiscounted))

	assert.False(t, withDiscount.GrandTotalMissing)
	assert.Equal(t, 90.0, withDiscount.GrandTotal())
	assert.False(t, undiscounted.GrandTotalMissing)
	assert.Equal(t, 40.0, undiscounted.GrandTotal())
}

func TestCartUnwrapsEnvelope(t *testing.T) {
	var c Cart
	require.NoError(t, json.Unmarshal([]byte(`{"cart": {"items": [], "total": 0, "totalAfterDiscount": 0}}`), &c))
	assert.True(t, c.Empty())
}

func TestSessionPairAuthenticated(t *testing.T) {
	assert.False(t, SessionPair{}.Authenticated())
	assert.False(t, SessionPair{Token: "t"}.Authenticated())
	assert.False(t, SessionPair{User: &User{ID: "u"}}.Authenticated())
	assert.True(t, SessionPair{Token: "t", User: &User{ID: "u"}}.Authenticated())
}

func TestMessageTimestampVariants(t *testing.T) {
	var a, b Message
	require.NoError(t, json.Unmarshal([]byte(`{"_id":"m1","from":{"_id":"u1","name":"Ana"},"to":"u2","message":"hi","createdAt":"2024-05-01T10:00:00Z"}`), &a))
	require.NoError(t, json.Unmarshal([]byte(`{"id":"m2","from":"u2","to":"u1","message":"yo","timestamp":1714557600000}`), &b))

	assert.Equal(t, "u1", a.From)
	assert.Equal(t, "Ana", a.FromName)
	assert.Equal(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), a.Timestamp)
	assert.Equal(t, time.UnixMilli(1714557600000).UTC(), b.Timestamp)
}
