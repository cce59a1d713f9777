package catalog

import (
	"context"
	"net/url"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"storefront-service/filters"
	"storefront-service/models"
)

const (
	relatedLimit = 4
	panelLimit   = 8
)

type API interface {
	ListProducts(ctx context.Context, params url.Values) (*models.ProductPage, error)
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	ListProductsByCategory(ctx context.Context, categoryID string) ([]models.Product, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	GetCategory(ctx context.Context, id string) (*models.Category, error)
}

type Catalog struct {
	api    API
	logger *zap.Logger
}

func New(api API, logger *zap.Logger) *Catalog {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Catalog{api: api, logger: logger}
}

// Categories never fails: on any API error the static list is returned.
func (c *Catalog) Categories(ctx context.Context) []models.Category {
	categories, err := c.api.ListCategories(ctx)
	if err != nil {
		c.logger.Warn("Category list unavailable, using static fallback", zap.Error(err))
		return StaticCategories()
	}
	if len(categories) == 0 {
		return StaticCategories()
	}
	return categories
}

// Category resolves a category for a listing header. It looks in the API
// first and then in the static list; nil means nothing is known about id.
func (c *Catalog) Category(ctx context.Context, id string) *models.Category {
	cat, err := c.api.GetCategory(ctx, id)
	if err == nil && cat != nil && cat.Name != "" {
		return cat
	}
	if err != nil {
		c.logger.Debug("Category lookup failed", zap.String("category_id", id), zap.Error(err))
	}
	for _, s := range staticCategories {
		if s.ID == id {
			found := s
			return &found
		}
	}
	return nil
}

// List fetches one server-paginated page for f.
func (c *Catalog) List(ctx context.Context, f filters.ListingFilters) (*models.ProductPage, error) {
	return c.api.ListProducts(ctx, f.APIParams())
}

type ProductDetail struct {
	Product models.Product
	Related []models.Product
}

// Product returns the product and up to four others from its category. A
// failed related fetch leaves Related empty.
func (c *Catalog) Product(ctx context.Context, id string) (*ProductDetail, error) {
	p, err := c.api.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	detail := &ProductDetail{Product: *p, Related: []models.Product{}}
	if p.Category == "" {
		return detail, nil
	}

	siblings, err := c.api.ListProductsByCategory(ctx, p.Category)
	if err != nil {
		c.logger.Warn("Related products unavailable", zap.String("product_id", id), zap.Error(err))
		return detail, nil
	}
	detail.Related = Related(*p, siblings, relatedLimit)
	return detail, nil
}

// Related picks up to limit products other than p itself.
func Related(p models.Product, siblings []models.Product, limit int) []models.Product {
	out := make([]models.Product, 0, limit)
	for _, s := range siblings {
		if s.ID == p.ID {
			continue
		}
		out = append(out, s)
		if len(out) == limit {
			break
		}
	}
	return out
}

// HomePanels are the read-only home page panels. Each is empty when its
// source failed.
type HomePanels struct {
	Categories []models.Category
	Latest     []models.Product
	Deals      []models.Product
	Exclusive  []models.Product
	TopRated   []models.Product
}

// Home fetches every panel concurrently. No panel failure fails the page.
func (c *Catalog) Home(ctx context.Context) *HomePanels {
	panels := &HomePanels{
		Latest:    []models.Product{},
		Deals:     []models.Product{},
		Exclusive: []models.Product{},
		TopRated:  []models.Product{},
	}

	var g errgroup.Group

	g.Go(func() error {
		panels.Categories = c.Categories(ctx)
		return nil
	})

	g.Go(func() error {
		panels.Latest = c.panel(ctx, "latest", url.Values{"sort": {"newest"}, "limit": {"8"}}, nil)
		return nil
	})

	g.Go(func() error {
		panels.TopRated = c.panel(ctx, "top_rated", url.Values{"sort": {"rating"}, "limit": {"8"}}, nil)
		return nil
	})

	g.Go(func() error {
		params := url.Values{"limit": {"48"}}
		panels.Deals = c.panel(ctx, "deals", params, func(p models.Product) bool { return p.HasDiscount() })
		return nil
	})

	g.Go(func() error {
		params := url.Values{"limit": {"48"}}
		panels.Exclusive = c.panel(ctx, "exclusive", params, func(p models.Product) bool { return p.Exclusive })
		return nil
	})

	_ = g.Wait()
	return panels
}

func (c *Catalog) panel(ctx context.Context, name string, params url.Values, keep func(models.Product) bool) []models.Product {
	page, err := c.api.ListProducts(ctx, params)
	if err != nil {
		c.logger.Warn("Home panel unavailable", zap.String("panel", name), zap.Error(err))
		return []models.Product{}
	}
	out := make([]models.Product, 0, panelLimit)
	for _, p := range page.Products {
		if keep != nil && !keep(p) {
			continue
		}
		out = append(out, p)
		if len(out) == panelLimit {
			break
		}
	}
	return out
}
