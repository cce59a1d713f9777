package filters

import (
	"math"
	"net/url"
	"strconv"
	"strings"
)

const (
	DefaultLimit = 12
	MaxLimit     = 100
)

// SortOptions lists the accepted sort keys with their display labels, in
// the order the listing dropdown shows them.
var SortOptions = []SortOption{
	{Key: "newest", Label: "Newest"},
	{Key: "price_asc", Label: "Price: low to high"},
	{Key: "price_desc", Label: "Price: high to low"},
	{Key: "rating", Label: "Top rated"},
	{Key: "popular", Label: "Most popular"},
}

type SortOption struct {
	Key   string
	Label string
}

func validSort(key string) bool {
	for _, o := range SortOptions {
		if o.Key == key {
			return true
		}
	}
	return false
}

// ListingFilters is the filter state of a product listing. The URL query is
// its only persistent form: FromQuery(f.Query()) yields f again.
type ListingFilters struct {
	Category string
	Brand    string
	MinPrice *float64
	MaxPrice *float64
	Sort     string
	Search   string
	Page     int
	Limit    int
}

// Defaults is the state of a listing with no query parameters.
func Defaults() ListingFilters {
	return ListingFilters{Page: 1, Limit: DefaultLimit}
}

// FromQuery seeds filter state from query (or form) values. Malformed
// values are dropped rather than rejected.
func FromQuery(q url.Values) ListingFilters {
	f := Defaults()
	f.Category = strings.TrimSpace(q.Get("category"))
	f.Brand = strings.TrimSpace(q.Get("brand"))
	f.Search = strings.TrimSpace(q.Get("search"))
	if f.Search == "" {
		f.Search = strings.TrimSpace(q.Get("q"))
	}
	if s := strings.TrimSpace(q.Get("sort")); validSort(s) {
		f.Sort = s
	}
	f.MinPrice = parsePrice(q.Get("minPrice"))
	f.MaxPrice = parsePrice(q.Get("maxPrice"))

	if p, err := strconv.Atoi(q.Get("page")); err == nil && p > 1 {
		f.Page = p
	}
	if l, err := strconv.Atoi(q.Get("limit")); err == nil {
		f.Limit = clampLimit(l)
	}
	return f
}

func parsePrice(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func clampLimit(l int) int {
	if l < 1 {
		return 1
	}
	if l > MaxLimit {
		return MaxLimit
	}
	return l
}

func formatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Query encodes the non-default fields only.
func (f ListingFilters) Query() url.Values {
	q := url.Values{}
	if f.Category != "" {
		q.Set("category", f.Category)
	}
	if f.Brand != "" {
		q.Set("brand", f.Brand)
	}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	if f.Sort != "" {
		q.Set("sort", f.Sort)
	}
	if f.MinPrice != nil {
		q.Set("minPrice", formatPrice(*f.MinPrice))
	}
	if f.MaxPrice != nil {
		q.Set("maxPrice", formatPrice(*f.MaxPrice))
	}
	if f.Page > 1 {
		q.Set("page", strconv.Itoa(f.Page))
	}
	if f.Limit != DefaultLimit && f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	return q
}

// APIParams are the listing request parameters. Page and limit are always sent.
func (f ListingFilters) APIParams() url.Values {
	q := f.Query()
	page := f.Page
	if page < 1 {
		page = 1
	}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(clampLimit(f.Limit)))
	return q
}

// URL renders the canonical listing URL under path, leaving out any keys in
// omit (a category page already carries its category in the path).
func (f ListingFilters) URL(path string, omit ...string) string {
	q := f.Query()
	for _, k := range omit {
		q.Del(k)
	}
	if len(q) == 0 {
		return path
	}
	return path + "?" + q.Encode()
}

// With returns a copy with one field set from its query-string name. Changing
// anything but the page sends the listing back to page 1.
func (f ListingFilters) With(field, value string) ListingFilters {
	q := f.Query()
	if value == "" {
		q.Del(field)
	} else {
		q.Set(field, value)
	}
	if field != "page" {
		q.Del("page")
	}
	return FromQuery(q)
}

// PageURL is the URL for page n of the same listing.
func (f ListingFilters) PageURL(path string, n int, omit ...string) string {
	return f.With("page", strconv.Itoa(n)).URL(path, omit...)
}

// Clear drops every filter.
func (f ListingFilters) Clear() ListingFilters {
	return Defaults()
}

// Active reports whether any narrowing filter is set. Sort, page and limit
// do not narrow the result set.
func (f ListingFilters) Active() bool {
	return f.Category != "" || f.Brand != "" || f.Search != "" || f.MinPrice != nil || f.MaxPrice != nil
}

// Empty reports whether the state carries nothing beyond the defaults.
func (f ListingFilters) Empty() bool {
	return len(f.Query()) == 0
}

func (f ListingFilters) MinPriceValue() string {
	if f.MinPrice == nil {
		return ""
	}
	return formatPrice(*f.MinPrice)
}

func (f ListingFilters) MaxPriceValue() string {
	if f.MaxPrice == nil {
		return ""
	}
	return formatPrice(*f.MaxPrice)
}
