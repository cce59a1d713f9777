package views

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-service/catalog"
	"storefront-service/filters"
	"storefront-service/models"
	"storefront-service/session"
	"storefront-service/tradein"
)

func TestMoney(t *testing.T) {
	assert.Equal(t, "$0.00", Money(0))
	assert.Equal(t, "$999.50", Money(999.5))
	assert.Equal(t, "$1,234.00", Money(1234))
	assert.Equal(t, "$1,234,567.89", Money(1234567.891))
	assert.Equal(t, "-$12.00", Money(-12))
}

func TestSeqAndStars(t *testing.T) {
	assert.Equal(t, []int{1, 2, 3}, Seq(3))
	assert.Nil(t, Seq(0))
	assert.Equal(t, "★★★★☆", Stars(4.2))
	assert.Equal(t, "★★★★★", Stars(9))
}

func TestEveryPageParses(t *testing.T) {
	r, err := New()
	require.NoError(t, err)
	for _, page := range []string{"home.page.tmpl", "listing.page.tmpl", "product.page.tmpl", "cart.page.tmpl",
		"messages.page.tmpl", "tradein.page.tmpl", "login.page.tmpl", "signup.page.tmpl", "error.page.tmpl"} {
		assert.True(t, r.Has(page), page)
	}
}

func TestRenderUnknownPage(t *testing.T) {
	r, err := New()
	require.NoError(t, err)
	assert.Error(t, r.Render(new(bytes.Buffer), "missing.page.tmpl", &TemplateData{}))
}

func TestRenderNavShell(t *testing.T) {
	r, err := New()
	require.NoError(t, err)

	var buf bytes.Buffer
	err = r.Render(&buf, "home.page.tmpl", &TemplateData{
		Title: "Home",
		Nav: Nav{
			Categories:    []models.Category{{ID: "mobiles", Name: "Mobiles"}},
			Authenticated: true,
			UserName:      "Ada",
			Flashes:       []session.Flash{{Kind: session.FlashSuccess, Message: "Welcome back"}},
		},
		Home: &catalog.HomePanels{
			Categories: []models.Category{{ID: "mobiles", Name: "Mobiles"}},
			Latest:     []models.Product{{ID: "p1", Name: "Phone", Price: 100, Quantity: 2}},
		},
	})
	require.NoError(t, err)

	html := buf.String()
	assert.Contains(t, html, `href="/category/mobiles"`)
	assert.Contains(t, html, "Ada")
	assert.Contains(t, html, "Welcome back")
	assert.Contains(t, html, "New arrivals")
	assert.NotContains(t, html, "Deals")
}

func TestRenderCartDisablesBusyAndMinimumLines(t *testing.T) {
	r, err := New()
	require.NoError(t, err)

	var buf bytes.Buffer
	err = r.Render(&buf, "cart.page.tmpl", &TemplateData{
		Cart: &models.Cart{
			Items: []models.CartItem{
				{ProductID: "a", Quantity: 1, Price: 10},
				{ProductID: "b", Quantity: 2, Price: 100},
			},
			Total:              210,
			TotalAfterDiscount: 190,
			Discount:           20,
		},
		BusyLines: map[string]bool{"b": true},
	})
	require.NoError(t, err)

	html := buf.String()
	assert.Contains(t, html, `<tr data-line="b" class="busy">`)
	assert.Contains(t, html, "$200.00")
	assert.Contains(t, html, "$190.00")
	assert.Equal(t, 4, bytes.Count(buf.Bytes(), []byte(" disabled>")))
}

func TestRenderCartWithoutServerPrices(t *testing.T) {
	r, err := New()
	require.NoError(t, err)

	var buf bytes.Buffer
	err = r.Render(&buf, "cart.page.tmpl", &TemplateData{
		Cart: &models.Cart{
			Items:             []models.CartItem{{ProductID: "a", Quantity: 2, PriceMissing: true}},
			Total:             50,
			Discount:          5,
			GrandTotalMissing: true,
		},
	})
	require.NoError(t, err)

	html := buf.String()
	assert.Contains(t, html, `<td data-line-total>Unavailable</td>`)
	assert.Contains(t, html, `<dd data-grand-total>Unavailable</dd>`)
	assert.NotContains(t, html, "$45.00")
}

func TestRenderListingCategoryGrid(t *testing.T) {
	r, err := New()
	require.NoError(t, err)

	var buf bytes.Buffer
	err = r.Render(&buf, "listing.page.tmpl", &TemplateData{
		Listing: &Listing{
			Heading:      "Search",
			Path:         "/search",
			Filters:      filters.Defaults(),
			SortOptions:  filters.SortOptions,
			CategoryGrid: catalog.StaticCategories(),
			ClearURL:     "/filters/clear?path=%2Fsearch",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 6, bytes.Count(buf.Bytes(), []byte(`class="tile"`)))
}

func TestRenderTradeInDetails(t *testing.T) {
	table, err := tradein.LoadTable()
	require.NoError(t, err)
	cat, _ := table.Category("mobiles")
	pt, _ := cat.ProductType("smartphone")

	r, err := New()
	require.NoError(t, err)

	var buf bytes.Buffer
	err = r.Render(&buf, "tradein.page.tmpl", &TemplateData{
		TradeIn: &TradeInForm{
			Table:        table,
			Step:         tradein.StepDetails,
			Request:      models.TradeInRequest{Category: "mobiles", ProductType: "smartphone", Specs: map[string]string{"brand": "Acme"}},
			Category:     cat,
			ProductType:  pt,
			Replacements: []models.Product{{ID: "p9", Name: "New phone", Price: 500}},
			Missing:      map[string]bool{"Model": true},
		},
	})
	require.NoError(t, err)

	html := buf.String()
	assert.Contains(t, html, `name="spec_brand" value="Acme"`)
	assert.Contains(t, html, `<label class="missing">Model`)
	assert.Contains(t, html, `value="p9"`)
}
