package models

import "encoding/json"

// CartItem is one line of the server-computed cart. Product is populated when
// the API embeds the product document instead of sending a bare id.
type CartItem struct {
	ProductID string   `json:"productId"`
	Product   *Product `json:"product,omitempty"`
	Quantity  int      `json:"quantity"`
	Price     float64  `json:"price"`

	// PriceMissing is set when the API sent no line price. The line is then
	// shown unpriced; the embedded product's list price is not a substitute.
	PriceMissing bool `json:"-"`
}

func (i *CartItem) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	*i = CartItem{}
	if raw, ok := fields["product"]; ok {
		var id string
		if err := json.Unmarshal(raw, &id); err == nil {
			i.ProductID = id
		} else {
			var p Product
			if err := json.Unmarshal(raw, &p); err == nil {
				i.Product = &p
				i.ProductID = p.ID
			}
		}
	}
	if id := firstString(fields, "productId", "product_id"); id != "" {
		i.ProductID = id
	}
	if v, ok := number(fields["quantity"]); ok {
		i.Quantity = int(v)
	}
	if v, ok := number(fields["price"]); ok {
		i.Price = v
	} else {
		i.PriceMissing = true
	}
	return nil
}

func (i CartItem) Priced() bool {
	return !i.PriceMissing
}

// LineTotal is the only arithmetic done on cart data outside the API.
func (i CartItem) LineTotal() float64 {
	if i.PriceMissing {
		return 0
	}
	return i.Price * float64(i.Quantity)
}

func (i CartItem) Name() string {
	if i.Product != nil && i.Product.Name != "" {
		return i.Product.Name
	}
	return i.ProductID
}

// Cart is replaced wholesale by every cart response; it is never patched.
type Cart struct {
	Items              []CartItem `json:"items"`
	Total              float64    `json:"total"`
	Discount           float64    `json:"discount"`
	TotalAfterDiscount float64    `json:"totalAfterDiscount"`

	// GrandTotalMissing is set when the response carried no amount owed.
	GrandTotalMissing bool `json:"-"`
}

func (c *Cart) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	// Some cart endpoints wrap the document as {"cart": {...}}.
	if inner, ok := fields["cart"]; ok && len(inner) > 0 && inner[0] == '{' {
		return c.UnmarshalJSON(inner)
	}

	*c = Cart{}
	if raw, ok := fields["items"]; ok {
		if err := json.Unmarshal(raw, &c.Items); err != nil {
			return err
		}
	}
	total, hasTotal := number(fields["total"])
	if !hasTotal {
		total, hasTotal = number(fields["totalPrice"])
	}
	c.Total = total
	if v, ok := number(fields["discount"]); ok {
		c.Discount = v
	}

	// Without totalAfterDiscount the undiscounted total is only the amount
	// owed when no discount applies. Nothing is subtracted here.
	switch v, ok := number(fields["totalAfterDiscount"]); {
	case ok:
		c.TotalAfterDiscount = v
	case hasTotal && c.Discount == 0:
		c.TotalAfterDiscount = c.Total
	default:
		c.GrandTotalMissing = true
	}
	return nil
}

// GrandTotal is the server's discounted total, shown as-is.
func (c *Cart) GrandTotal() float64 {
	return c.TotalAfterDiscount
}

func (c *Cart) Empty() bool {
	return c == nil || len(c.Items) == 0
}

// Count is the number of units across all lines.
func (c *Cart) Count() int {
	if c == nil {
		return 0
	}
	n := 0
	for _, item := range c.Items {
		n += item.Quantity
	}
	return n
}

// Item returns the line for productID, if present.
func (c *Cart) Item(productID string) (CartItem, bool) {
	if c == nil {
		return CartItem{}, false
	}
	for _, item := range c.Items {
		if item.ProductID == productID {
			return item, true
		}
	}
	return CartItem{}, false
}
