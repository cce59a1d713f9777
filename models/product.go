package models

import (
	"encoding/json"
	"strconv"
)

// Product is the product shape returned by the catalog API.
type Product struct {
	ID                 string            `json:"id"`
	Name               string            `json:"name"`
	Brand              string            `json:"brand,omitempty"`
	Company            string            `json:"company,omitempty"`
	Description        string            `json:"description,omitempty"`
	Price              float64           `json:"price"`
	Discount           *float64          `json:"discount,omitempty"`
	PriceAfterDiscount *float64          `json:"priceAfterDiscount,omitempty"`
	Quantity           int               `json:"quantity"`
	Category           string            `json:"category,omitempty"`
	CategoryName       string            `json:"categoryName,omitempty"`
	Exclusive          bool              `json:"exclusive,omitempty"`
	Rating             float64           `json:"rating,omitempty"`
	Views              int               `json:"views,omitempty"`
	Image              string            `json:"image,omitempty"`
	Images             []string          `json:"images,omitempty"`
	Specs              map[string]string `json:"specs,omitempty"`
}

// knownProductKeys are the top-level keys that map onto Product fields.
// Anything else with a scalar value is treated as a specification field.
var knownProductKeys = map[string]bool{
	"_id": true, "id": true, "name": true, "title": true, "brand": true, "company": true,
	"description": true, "price": true, "discount": true, "priceAfterDiscount": true,
	"quantity": true, "stock": true, "category": true, "categoryName": true,
	"exclusive": true, "isExclusive": true, "rating": true, "views": true, "image": true,
	"images": true, "specs": true, "createdAt": true, "updatedAt": true, "__v": true,
}

func (p *Product) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	*p = Product{}
	p.ID = firstString(fields, "_id", "id")
	p.Name = firstString(fields, "name", "title")
	p.Brand = firstString(fields, "brand")
	p.Description = firstString(fields, "description")
	p.Image = firstString(fields, "image")
	_, p.Company = decodeRef(fields["company"])
	p.Category, p.CategoryName = decodeRef(fields["category"])
	if name := firstString(fields, "categoryName"); name != "" {
		p.CategoryName = name
	}

	if v, ok := number(fields["price"]); ok {
		p.Price = v
	}
	if v, ok := number(fields["discount"]); ok && v > 0 {
		p.Discount = &v
	}
	if v, ok := number(fields["priceAfterDiscount"]); ok && v > 0 {
		p.PriceAfterDiscount = &v
	}
	if v, ok := number(fields["quantity"]); ok {
		p.Quantity = int(v)
	} else if v, ok := number(fields["stock"]); ok {
		p.Quantity = int(v)
	}
	if v, ok := number(fields["rating"]); ok {
		p.Rating = v
	}
	if v, ok := number(fields["views"]); ok {
		p.Views = int(v)
	}
	p.Exclusive = boolean(fields["exclusive"]) || boolean(fields["isExclusive"])

	if raw, ok := fields["images"]; ok {
		_ = json.Unmarshal(raw, &p.Images)
	}

	specs := map[string]string{}
	if raw, ok := fields["specs"]; ok {
		var nested map[string]json.RawMessage
		if err := json.Unmarshal(raw, &nested); err == nil {
			for k, v := range nested {
				if s, ok := scalar(v); ok {
					specs[k] = s
				}
			}
		}
	}
	for k, v := range fields {
		if knownProductKeys[k] {
			continue
		}
		if s, ok := scalar(v); ok && s != "" {
			specs[k] = s
		}
	}
	if len(specs) > 0 {
		p.Specs = specs
	}
	return nil
}

// HasDiscount reports whether the product carries a usable discounted price.
func (p Product) HasDiscount() bool {
	return p.PriceAfterDiscount != nil && *p.PriceAfterDiscount < p.Price
}

// EffectivePrice is the price a buyer pays. The API is trusted to keep
// priceAfterDiscount <= price; a larger value is ignored rather than corrected.
func (p Product) EffectivePrice() float64 {
	if p.HasDiscount() {
		return *p.PriceAfterDiscount
	}
	return p.Price
}

func (p Product) InStock() bool {
	return p.Quantity > 0
}

func (p Product) PrimaryImage() string {
	if p.Image != "" {
		return p.Image
	}
	if len(p.Images) > 0 {
		return p.Images[0]
	}
	return ""
}

// ProductPage is one server-paginated page of a product listing.
type ProductPage struct {
	Products   []Product `json:"products"`
	Page       int       `json:"page"`
	PerPage    int       `json:"perPage"`
	Total      int64     `json:"total"`
	TotalPages int       `json:"totalPages"`
}

// Category is a catalog category.
type Category struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
	Icon string `json:"icon,omitempty" yaml:"icon"`
}

func (c *Category) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	c.ID = firstString(fields, "_id", "id")
	c.Name = firstString(fields, "name", "title")
	c.Icon = firstString(fields, "icon")
	return nil
}

func firstString(fields map[string]json.RawMessage, keys ...string) string {
	for _, k := range keys {
		raw, ok := fields[k]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil && s != "" {
			return s
		}
	}
	return ""
}

// decodeRef reads a reference that is either a bare id string or an
// embedded object carrying an id and a name.
func decodeRef(raw json.RawMessage) (id, name string) {
	if len(raw) == 0 {
		return "", ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, ""
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return "", ""
	}
	return firstString(obj, "_id", "id"), firstString(obj, "name", "title")
}

func number(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			return v, true
		}
	}
	return 0, false
}

func boolean(raw json.RawMessage) bool {
	var b bool
	return len(raw) > 0 && json.Unmarshal(raw, &b) == nil && b
}

func scalar(raw json.RawMessage) (string, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, true
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return strconv.FormatFloat(f, 'f', -1, 64), true
	}
	return "", false
}
