package views

import (
	"storefront-service/catalog"
	"storefront-service/filters"
	"storefront-service/messaging"
	"storefront-service/models"
	"storefront-service/session"
	"storefront-service/tradein"
)

// Nav is the shell every page renders around its content.
type Nav struct {
	Categories    []models.Category
	Authenticated bool
	UserName      string
	Flashes       []session.Flash
	Search        string
	Path          string
}

// TemplateData is handed to every page; each page reads the fields it needs.
type TemplateData struct {
	Title string
	Nav   Nav

	Home    *catalog.HomePanels
	Listing *Listing
	Detail  *catalog.ProductDetail

	Cart      *models.Cart
	BusyLines map[string]bool

	Messages *messaging.Panel
	TradeIn  *TradeInForm
	Auth     *AuthForm
	Error    *ErrorPanel
}

// Listing is a filtered, server-paginated product collection.
type Listing struct {
	Heading     string
	Path        string
	Filters     filters.ListingFilters
	FixedFields []string
	SortOptions []filters.SortOption
	Page        *models.ProductPage
	// CategoryGrid replaces the results when the search page has no filters.
	CategoryGrid []models.Category
	Pages        []PageLink
	PrevURL      string
	NextURL      string
	ClearURL     string
}

type PageLink struct {
	N       int
	URL     string
	Current bool
}

type TradeInForm struct {
	Table        *tradein.Table
	Step         tradein.Step
	Request      models.TradeInRequest
	Category     *tradein.Category
	ProductType  *tradein.ProductType
	Replacements []models.Product
	Missing      map[string]bool
}

type AuthForm struct {
	Next  string
	Name  string
	Email string
}

type ErrorPanel struct {
	Status  int
	Message string
}
