package catalog

import (
	"fmt"
	"net/url"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Sort string

const (
	SortTitle      Sort = "title"
	SortPriceLow   Sort = "price-low"
	SortPriceHigh  Sort = "price-high"
	SortRating     Sort = "rating"
	SortPopularity Sort = "popularity"
	SortNewest     Sort = "newest"
)

// undatedPublish is the publish date assumed for books without one when sorting
// by newest.
var undatedPublish = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// Filter narrows a book list. Zero values disable the corresponding constraint
// and an empty Sort keeps the input order.
type Filter struct {
	Categories []string
	Languages  []string
	PriceMin   *decimal.Decimal
	PriceMax   *decimal.Decimal
	MinRating  float64
	Sort       Sort
}

func ParseSort(s string) (Sort, error) {
	switch v := Sort(s); v {
	case "", SortTitle, SortPriceLow, SortPriceHigh, SortRating, SortPopularity, SortNewest:
		return v, nil
	default:
		return "", fmt.Errorf("unknown sort %q", s)
	}
}

// ParseFilter reads a Filter from query parameters. Categories and languages
// may be repeated or comma separated.
func ParseFilter(q url.Values) (Filter, error) {
	f := Filter{
		Categories: listParam(q, "category"),
		Languages:  listParam(q, "language"),
	}

	var err error
	if f.Sort, err = ParseSort(q.Get("sort")); err != nil {
		return Filter{}, err
	}
	if f.PriceMin, err = decimalParam(q, "price_min"); err != nil {
		return Filter{}, err
	}
	if f.PriceMax, err = decimalParam(q, "price_max"); err != nil {
		return Filter{}, err
	}
	if v := q.Get("min_rating"); v != "" {
		f.MinRating, err = strconv.ParseFloat(v, 64)
		if err != nil || f.MinRating < 0 || f.MinRating > 5 {
			return Filter{}, fmt.Errorf("min_rating must be a number between 0 and 5")
		}
	}
	return f, nil
}

// Apply returns the matching books in a new slice.
func (f Filter) Apply(books []Book) []Book {
	out := []Book{}
	for _, b := range books {
		if f.matches(b) {
			out = append(out, b)
		}
	}
	if f.Sort != "" {
		sortBooks(out, f.Sort)
	}
	return out
}

func (f Filter) matches(b Book) bool {
	if len(f.Categories) > 0 && !slices.Contains(f.Categories, b.Category) {
		return false
	}
	if len(f.Languages) > 0 && !slices.Contains(f.Languages, b.Language) {
		return false
	}
	if f.PriceMin != nil && b.Price.LessThan(*f.PriceMin) {
		return false
	}
	if f.PriceMax != nil && b.Price.GreaterThan(*f.PriceMax) {
		return false
	}
	if f.MinRating > 0 && b.Rating < f.MinRating {
		return false
	}
	return true
}

func sortBooks(books []Book, by Sort) {
	var less func(a, b Book) bool
	switch by {
	case SortPriceLow:
		less = func(a, b Book) bool { return a.Price.LessThan(b.Price) }
	case SortPriceHigh:
		less = func(a, b Book) bool { return a.Price.GreaterThan(b.Price) }
	case SortRating:
		less = func(a, b Book) bool { return a.Rating > b.Rating }
	case SortPopularity:
		less = func(a, b Book) bool { return a.ReviewsCount > b.ReviewsCount }
	case SortNewest:
		less = func(a, b Book) bool { return publishedAt(a).After(publishedAt(b)) }
	default:
		less = func(a, b Book) bool {
			la, lb := strings.ToLower(a.Title), strings.ToLower(b.Title)
			if la != lb {
				return la < lb
			}
			return a.Title < b.Title
		}
	}
	sort.SliceStable(books, func(i, j int) bool { return less(books[i], books[j]) })
}

func publishedAt(b Book) time.Time {
	if b.PublishDate == "" {
		return undatedPublish
	}
	t, err := time.Parse(time.DateOnly, b.PublishDate)
	if err != nil {
		return undatedPublish
	}
	return t
}

func listParam(q url.Values, key string) []string {
	var out []string
	for _, raw := range q[key] {
		for _, v := range strings.Split(raw, ",") {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}

func decimalParam(q url.Values, key string) (*decimal.Decimal, error) {
	v := q.Get(key)
	if v == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil || d.IsNegative() {
		return nil, fmt.Errorf("%s must be a non-negative number", key)
	}
	return &d, nil
}
