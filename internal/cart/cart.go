// Package cart holds a client's shopping cart: one line per book with a
// positive quantity, priced against the live catalog.
package cart

import (
	"slices"

	"github.com/shopspring/decimal"
)

var (
	FreeShippingThreshold = decimal.NewFromInt(25)
	FlatShipping          = decimal.RequireFromString("1.19")
	TaxRate               = decimal.RequireFromString("0.18")
)

// PriceLookup reports the current price of a book. Missing books are priced
// at nothing.
type PriceLookup interface {
	Price(bookID string) (decimal.Decimal, bool)
}

type Line struct {
	BookID   string `json:"book_id"`
	Quantity int    `json:"quantity"`
}

// Cart keeps lines in insertion order. The zero value is an empty cart.
type Cart struct {
	Items []Line `json:"items"`
}

type Summary struct {
	Subtotal     decimal.Decimal `json:"subtotal"`
	Shipping     decimal.Decimal `json:"shipping"`
	Tax          decimal.Decimal `json:"tax"`
	Total        decimal.Decimal `json:"total"`
	FreeShipping bool            `json:"free_shipping"`
}

// AddItem adds one copy of the book, creating the line if needed.
func (c *Cart) AddItem(bookID string) {
	if i := c.index(bookID); i >= 0 {
		c.Items[i].Quantity++
		return
	}
	c.Items = append(c.Items, Line{BookID: bookID, Quantity: 1})
}

func (c *Cart) RemoveItem(bookID string) {
	if i := c.index(bookID); i >= 0 {
		c.Items = slices.Delete(c.Items, i, i+1)
	}
}

// SetQuantity replaces a line's quantity. A quantity below 1 removes the line
// and unknown books are ignored.
func (c *Cart) SetQuantity(bookID string, qty int) {
	i := c.index(bookID)
	if i < 0 {
		return
	}
	if qty < 1 {
		c.Items = slices.Delete(c.Items, i, i+1)
		return
	}
	c.Items[i].Quantity = qty
}

func (c *Cart) Clear() {
	c.Items = nil
}

func (c *Cart) LineCount() int {
	return len(c.Items)
}

// ItemCount is the number of copies across all lines.
func (c *Cart) ItemCount() int {
	n := 0
	for _, l := range c.Items {
		n += l.Quantity
	}
	return n
}

func (c *Cart) Quantity(bookID string) int {
	if i := c.index(bookID); i >= 0 {
		return c.Items[i].Quantity
	}
	return 0
}

func (c *Cart) Lines() []Line {
	return slices.Clone(c.Items)
}

// Total sums price × quantity at the prices currently reported by prices.
func (c *Cart) Total(prices PriceLookup) decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.Items {
		p, ok := prices.Price(l.BookID)
		if !ok {
			continue
		}
		total = total.Add(p.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return total
}

// Summary prices the cart for checkout display. Shipping is free above the
// threshold and tax applies to the subtotal only.
func (c *Cart) Summary(prices PriceLookup) Summary {
	subtotal := c.Total(prices)
	s := Summary{
		Subtotal: subtotal.Round(2),
		Shipping: decimal.Zero,
		Tax:      subtotal.Mul(TaxRate).Round(2),
	}
	if len(c.Items) > 0 {
		if subtotal.GreaterThan(FreeShippingThreshold) {
			s.FreeShipping = true
		} else {
			s.Shipping = FlatShipping
		}
	}
	s.Total = s.Subtotal.Add(s.Shipping).Add(s.Tax)
	return s
}

func (c *Cart) index(bookID string) int {
	return slices.IndexFunc(c.Items, func(l Line) bool { return l.BookID == bookID })
}
