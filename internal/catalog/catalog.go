// Package catalog serves the read-only book catalog: lookup, related titles,
// bestseller and new-arrival shelves, search and filtered listings.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("book not found")

const (
	RelatedLimit       = 4
	HomeBestsellers    = 8
	HomeNewArrivals    = 4
	suggestBooks       = 5
	suggestAuthors     = 3
	suggestCategories  = 2
	suggestMinQueryLen = 3
)

type Book struct {
	ID            string           `json:"id" yaml:"id"`
	Title         string           `json:"title" yaml:"title"`
	Author        string           `json:"author" yaml:"author"`
	Price         decimal.Decimal  `json:"price" yaml:"price"`
	OriginalPrice *decimal.Decimal `json:"original_price,omitempty" yaml:"original_price"`
	Rating        float64          `json:"rating" yaml:"rating"`
	ReviewsCount  int              `json:"reviews_count" yaml:"reviews_count"`
	Category      string           `json:"category" yaml:"category"`
	Language      string           `json:"language" yaml:"language"`
	InStock       bool             `json:"in_stock" yaml:"in_stock"`
	StockCount    int              `json:"stock_count" yaml:"stock_count"`
	CoverImage    string           `json:"cover_image" yaml:"cover_image"`
	Description   string           `json:"description" yaml:"description"`
	Publisher     string           `json:"publisher" yaml:"publisher"`
	ISBN          string           `json:"isbn" yaml:"isbn"`
	Pages         int              `json:"pages" yaml:"pages"`
	PublishDate   string           `json:"publish_date,omitempty" yaml:"publish_date"`
	Bestseller    bool             `json:"bestseller" yaml:"bestseller"`
	NewArrival    bool             `json:"new_arrival" yaml:"new_arrival"`
}

// Home is the landing page view.
type Home struct {
	Bestsellers []Book   `json:"bestsellers"`
	NewArrivals []Book   `json:"new_arrivals"`
	Categories  []string `json:"categories"`
}

type SuggestionType string

const (
	SuggestBook     SuggestionType = "book"
	SuggestAuthor   SuggestionType = "author"
	SuggestCategory SuggestionType = "category"
)

type Suggestion struct {
	Type   SuggestionType `json:"type"`
	Text   string         `json:"text"`
	Author string         `json:"author,omitempty"`
	ID     string         `json:"id,omitempty"`
}

// Catalog is an immutable snapshot of the book list. All queries preserve the
// order in which books were loaded.
type Catalog struct {
	books []Book
	byID  map[string]int
}

func New(books []Book) *Catalog {
	c := &Catalog{
		books: make([]Book, len(books)),
		byID:  make(map[string]int, len(books)),
	}
	copy(c.books, books)
	for i, b := range c.books {
		c.byID[b.ID] = i
	}
	return c
}

// Load snapshots every book from repo.
func Load(ctx context.Context, repo Repository) (*Catalog, error) {
	books, err := repo.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	return New(books), nil
}

func (c *Catalog) Len() int {
	return len(c.books)
}

func (c *Catalog) FindByID(id string) (Book, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Book{}, false
	}
	return c.books[i], true
}

// Get is FindByID with ErrNotFound for callers that propagate errors.
func (c *Catalog) Get(id string) (Book, error) {
	b, ok := c.FindByID(id)
	if !ok {
		return Book{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return b, nil
}

// Price reports the current price of a book. It satisfies the cart's price lookup.
func (c *Catalog) Price(id string) (decimal.Decimal, bool) {
	b, ok := c.FindByID(id)
	if !ok {
		return decimal.Zero, false
	}
	return b.Price, true
}

func (c *Catalog) Related(id, category string) []Book {
	out := make([]Book, 0, RelatedLimit)
	for _, b := range c.books {
		if len(out) == RelatedLimit {
			break
		}
		if b.Category == category && b.ID != id {
			out = append(out, b)
		}
	}
	return out
}

func (c *Catalog) Bestsellers() []Book {
	return c.where(func(b Book) bool { return b.Bestseller })
}

func (c *Catalog) NewArrivals() []Book {
	return c.where(func(b Book) bool { return b.NewArrival })
}

// Search matches query case-insensitively against title and author. A blank
// query matches nothing.
func (c *Catalog) Search(query string) []Book {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return []Book{}
	}
	return c.where(func(b Book) bool {
		return strings.Contains(strings.ToLower(b.Title), q) ||
			strings.Contains(strings.ToLower(b.Author), q)
	})
}

func (c *Catalog) Categories() []string {
	return c.distinct(func(b Book) string { return b.Category })
}

func (c *Catalog) Authors() []string {
	return c.distinct(func(b Book) string { return b.Author })
}

// List returns the catalog filtered and sorted by f. Title order is the default.
func (c *Catalog) List(f Filter) []Book {
	if f.Sort == "" {
		f.Sort = SortTitle
	}
	return f.Apply(c.books)
}

func (c *Catalog) Home() Home {
	return Home{
		Bestsellers: head(c.Bestsellers(), HomeBestsellers),
		NewArrivals: head(c.NewArrivals(), HomeNewArrivals),
		Categories:  c.Categories(),
	}
}

// Suggest builds type-ahead suggestions. Queries shorter than three characters
// yield none.
func (c *Catalog) Suggest(query string) []Suggestion {
	q := strings.TrimSpace(query)
	if len([]rune(q)) < suggestMinQueryLen {
		return []Suggestion{}
	}
	lq := strings.ToLower(q)

	var out []Suggestion
	for _, b := range head(c.Search(q), suggestBooks) {
		out = append(out, Suggestion{Type: SuggestBook, Text: b.Title, Author: b.Author, ID: b.ID})
	}
	out = appendMatching(out, c.Authors(), lq, suggestAuthors, SuggestAuthor)
	out = appendMatching(out, c.Categories(), lq, suggestCategories, SuggestCategory)
	if out == nil {
		return []Suggestion{}
	}
	return out
}

func appendMatching(out []Suggestion, values []string, lq string, limit int, kind SuggestionType) []Suggestion {
	n := 0
	for _, v := range values {
		if n == limit {
			break
		}
		if strings.Contains(strings.ToLower(v), lq) {
			out = append(out, Suggestion{Type: kind, Text: v})
			n++
		}
	}
	return out
}

func (c *Catalog) where(keep func(Book) bool) []Book {
	out := []Book{}
	for _, b := range c.books {
		if keep(b) {
			out = append(out, b)
		}
	}
	return out
}

func (c *Catalog) distinct(field func(Book) string) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, b := range c.books {
		v := field(b)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

func head(books []Book, n int) []Book {
	if len(books) > n {
		return books[:n]
	}
	return books
}
