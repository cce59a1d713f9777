package controllers

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"storefront-service/catalog"
	"storefront-service/clients"
	"storefront-service/filters"
	"storefront-service/models"
	"storefront-service/views"
)

type CatalogService interface {
	Categories(ctx context.Context) []models.Category
	Category(ctx context.Context, id string) *models.Category
	List(ctx context.Context, f filters.ListingFilters) (*models.ProductPage, error)
	Product(ctx context.Context, id string) (*catalog.ProductDetail, error)
	Home(ctx context.Context) *catalog.HomePanels
}

type CatalogController struct {
	*Base
	catalog CatalogService
}

func NewCatalogController(base *Base, svc CatalogService) *CatalogController {
	return &CatalogController{Base: base, catalog: svc}
}

func (cc *CatalogController) Home(c *gin.Context) {
	panels := cc.catalog.Home(cc.apiContext(c))
	cc.render(c, http.StatusOK, "home.page.tmpl", &views.TemplateData{Title: "Home", Home: panels})
}

// Search with no narrowing filter shows the static category grid and does
// not call the API.
func (cc *CatalogController) Search(c *gin.Context) {
	f := filters.FromQuery(c.Request.URL.Query())
	if !f.Active() {
		listing := cc.newListing("Search", "/search", f)
		listing.CategoryGrid = catalog.StaticCategories()
		cc.render(c, http.StatusOK, "listing.page.tmpl", &views.TemplateData{Title: "Search", Listing: listing})
		return
	}
	heading := "Search"
	if f.Search != "" {
		heading = `Results for "` + f.Search + `"`
	}
	cc.list(c, heading, "/search", f)
}

func (cc *CatalogController) Products(c *gin.Context) {
	cc.list(c, "All products", "/products", filters.FromQuery(c.Request.URL.Query()))
}

// Category lists one category. The category lives in the path, so it is
// left out of the query string.
func (cc *CatalogController) Category(c *gin.Context) {
	id := c.Param("id")
	f := filters.FromQuery(c.Request.URL.Query())
	f.Category = id

	heading := id
	if cat := cc.catalog.Category(cc.apiContext(c), id); cat != nil {
		heading = cat.Name
	}
	cc.list(c, heading, "/category/"+id, f, "category")
}

func (cc *CatalogController) list(c *gin.Context, heading, path string, f filters.ListingFilters, fixed ...string) {
	listing := cc.newListing(heading, path, f, fixed...)
	page, err := cc.catalog.List(cc.apiContext(c), f)
	if err != nil {
		cc.notify(c, err, "Could not load products")
		page = &models.ProductPage{Products: []models.Product{}, Page: f.Page, PerPage: f.Limit}
	}
	paginate(listing, page)
	cc.render(c, http.StatusOK, "listing.page.tmpl", &views.TemplateData{Title: heading, Listing: listing})
}

func (cc *CatalogController) newListing(heading, path string, f filters.ListingFilters, fixed ...string) *views.Listing {
	return &views.Listing{
		Heading:     heading,
		Path:        path,
		Filters:     f,
		FixedFields: fixed,
		SortOptions: filters.SortOptions,
		ClearURL:    "/filters/clear?path=" + url.QueryEscape(path),
	}
}

const pageWindow = 2

// paginate builds the page links from the server's page meta.
func paginate(l *views.Listing, page *models.ProductPage) {
	l.Page = page
	current := page.Page
	if current < 1 {
		current = 1
	}
	total := page.TotalPages
	if total <= 1 {
		return
	}

	from, to := current-pageWindow, current+pageWindow
	if from < 1 {
		from = 1
	}
	if to > total {
		to = total
	}
	for n := from; n <= to; n++ {
		l.Pages = append(l.Pages, views.PageLink{N: n, URL: l.Filters.PageURL(l.Path, n, l.FixedFields...), Current: n == current})
	}
	if current > 1 {
		l.PrevURL = l.Filters.PageURL(l.Path, current-1, l.FixedFields...)
	}
	if current < total {
		l.NextURL = l.Filters.PageURL(l.Path, current+1, l.FixedFields...)
	}
}

// listingPath accepts only the listing pages as filter targets.
func listingPath(p string) (string, bool) {
	switch {
	case p == "/search", p == "/products":
		return p, true
	case strings.HasPrefix(p, "/category/") && len(p) > len("/category/") && !strings.ContainsAny(p[len("/category/"):], "/?#\\"):
		return p, true
	}
	return "", false
}

// ApplyFilters normalizes a posted filter form and redirects to the
// canonical listing URL.
func (cc *CatalogController) ApplyFilters(c *gin.Context) {
	if err := c.Request.ParseForm(); err != nil {
		c.Redirect(http.StatusSeeOther, "/products")
		return
	}
	path, ok := listingPath(c.PostForm("path"))
	if !ok {
		path = "/products"
	}
	f := filters.FromQuery(c.Request.PostForm)
	var fixed []string
	if strings.HasPrefix(path, "/category/") {
		fixed = []string{"category"}
	}
	c.Redirect(http.StatusSeeOther, f.URL(path, fixed...))
}

// ClearFilters drops every filter and returns to the bare listing.
func (cc *CatalogController) ClearFilters(c *gin.Context) {
	path, ok := listingPath(c.Query("path"))
	if !ok {
		path = "/products"
	}
	c.Redirect(http.StatusSeeOther, filters.Defaults().URL(path))
}

// ProductDetail renders one product. A product the API does not know gets
// the inline not-found panel.
func (cc *CatalogController) ProductDetail(c *gin.Context) {
	detail, err := cc.catalog.Product(cc.apiContext(c), c.Param("id"))
	if err != nil {
		if clients.IsNotFound(err) {
			cc.render(c, http.StatusNotFound, "product.page.tmpl", &views.TemplateData{
				Title: "Product not found",
				Error: &views.ErrorPanel{Status: http.StatusNotFound, Message: "This product does not exist or is no longer available."},
			})
			return
		}
		appErr := cc.notify(c, err, "Could not load this product")
		cc.render(c, appErr.Code, "product.page.tmpl", &views.TemplateData{Title: "Product"})
		return
	}
	cc.render(c, http.StatusOK, "product.page.tmpl", &views.TemplateData{Title: detail.Product.Name, Detail: detail})
}
