package search

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"storefront-service/models"
)

type ProductSearcher interface {
	ListProducts(ctx context.Context, params url.Values) (*models.ProductPage, error)
}

type CategorySource interface {
	Categories(ctx context.Context) []models.Category
}

// Item is one dropdown row.
type Item struct {
	Kind  string  `json:"kind"`
	ID    string  `json:"id"`
	Label string  `json:"label"`
	URL   string  `json:"url"`
	Image string  `json:"image,omitempty"`
	Price float64 `json:"price,omitempty"`
}

type Result struct {
	Query string `json:"query"`
	Seq   uint64 `json:"seq"`
	Items []Item `json:"items"`
}

type Suggester struct {
	debouncer  *Debouncer
	products   ProductSearcher
	categories CategorySource
	limit      int
	logger     *zap.Logger
}

func NewSuggester(d *Debouncer, products ProductSearcher, categories CategorySource, limit int, logger *zap.Logger) *Suggester {
	if limit <= 0 {
		limit = 6
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Suggester{debouncer: d, products: products, categories: categories, limit: limit, logger: logger}
}

// Suggest returns the combined dropdown for q. key identifies the typist
// (the session); a newer call for the same key makes this one return
// ErrSuperseded without its response being used.
func (s *Suggester) Suggest(ctx context.Context, key, q string) (*Result, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return &Result{Items: []Item{}}, nil
	}

	ticket, err := s.debouncer.Wait(ctx, key)
	if err != nil {
		return nil, err
	}
	defer ticket.Done()
	callCtx := ticket.Context()

	items := MatchCategories(s.categories.Categories(callCtx), q)

	params := url.Values{}
	params.Set("search", q)
	params.Set("limit", strconv.Itoa(s.limit))
	page, err := s.products.ListProducts(callCtx, params)
	if !ticket.Current() {
		return nil, ErrSuperseded
	}
	if err != nil {
		s.logger.Warn("Suggestion product search failed", zap.String("query", q), zap.Error(err))
	} else {
		for _, p := range page.Products {
			items = append(items, Item{
				Kind:  "product",
				ID:    p.ID,
				Label: p.Name,
				URL:   "/product/" + url.PathEscape(p.ID),
				Image: p.PrimaryImage(),
				Price: p.EffectivePrice(),
			})
		}
	}

	return &Result{Query: q, Seq: ticket.Seq(), Items: items}, nil
}

// MatchCategories is the local, case-insensitive category name filter.
func MatchCategories(categories []models.Category, q string) []Item {
	needle := strings.ToLower(strings.TrimSpace(q))
	items := []Item{}
	if needle == "" {
		return items
	}
	for _, c := range categories {
		if strings.Contains(strings.ToLower(c.Name), needle) {
			items = append(items, Item{
				Kind:  "category",
				ID:    c.ID,
				Label: c.Name,
				URL:   "/category/" + url.PathEscape(c.ID),
			})
		}
	}
	return items
}
