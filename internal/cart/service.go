package cart

import (
	"context"
	"errors"
	"fmt"

	"hamarabooks/internal/catalog"
	"hamarabooks/internal/statestore"

	"github.com/shopspring/decimal"
)

type Service struct {
	store   statestore.Store[Cart]
	catalog *catalog.Catalog
	locks   *statestore.KeyedMutex
}

func NewService(store statestore.Store[Cart], c *catalog.Catalog) *Service {
	return &Service{
		store:   store,
		catalog: c,
		locks:   statestore.NewKeyedMutex(),
	}
}

type LineView struct {
	Book      catalog.Book    `json:"book"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"line_total"`
}

type View struct {
	Lines     []LineView `json:"lines"`
	LineCount int        `json:"line_count"`
	ItemCount int        `json:"item_count"`
	Summary   Summary    `json:"summary"`
}

// Load returns the client's cart, empty when none has been stored.
func (s *Service) Load(ctx context.Context, clientID string) (Cart, error) {
	c, err := s.store.Get(ctx, clientID)
	if errors.Is(err, statestore.ErrNotFound) {
		return Cart{}, nil
	}
	if err != nil {
		return Cart{}, fmt.Errorf("load cart: %w", err)
	}
	return c, nil
}

// View reads under the client's lock so it never interleaves with a mutation.
func (s *Service) View(ctx context.Context, clientID string) (View, error) {
	unlock := s.locks.Lock(clientID)
	defer unlock()

	c, err := s.Load(ctx, clientID)
	if err != nil {
		return View{}, err
	}
	return s.view(c), nil
}

// Add puts one copy of bookID in the cart. Unknown books yield catalog.ErrNotFound.
func (s *Service) Add(ctx context.Context, clientID, bookID string) (View, error) {
	if _, err := s.catalog.Get(bookID); err != nil {
		return View{}, err
	}
	return s.mutate(ctx, clientID, func(c *Cart) { c.AddItem(bookID) })
}

// AddBook is Add without the resulting view.
func (s *Service) AddBook(ctx context.Context, clientID, bookID string) error {
	_, err := s.Add(ctx, clientID, bookID)
	return err
}

func (s *Service) Remove(ctx context.Context, clientID, bookID string) (View, error) {
	return s.mutate(ctx, clientID, func(c *Cart) { c.RemoveItem(bookID) })
}

func (s *Service) SetQuantity(ctx context.Context, clientID, bookID string, qty int) (View, error) {
	return s.mutate(ctx, clientID, func(c *Cart) { c.SetQuantity(bookID, qty) })
}

func (s *Service) Clear(ctx context.Context, clientID string) (View, error) {
	unlock := s.locks.Lock(clientID)
	defer unlock()

	if err := s.store.Delete(ctx, clientID); err != nil {
		return View{}, fmt.Errorf("clear cart: %w", err)
	}
	return s.view(Cart{}), nil
}

func (s *Service) mutate(ctx context.Context, clientID string, fn func(*Cart)) (View, error) {
	unlock := s.locks.Lock(clientID)
	defer unlock()

	c, err := s.Load(ctx, clientID)
	if err != nil {
		return View{}, err
	}
	fn(&c)
	if err := s.store.Set(ctx, clientID, c); err != nil {
		return View{}, fmt.Errorf("save cart: %w", err)
	}
	return s.view(c), nil
}

func (s *Service) view(c Cart) View {
	v := View{
		Lines:     []LineView{},
		LineCount: c.LineCount(),
		ItemCount: c.ItemCount(),
		Summary:   c.Summary(s.catalog),
	}
	for _, l := range c.Items {
		b, ok := s.catalog.FindByID(l.BookID)
		if !ok {
			continue
		}
		v.Lines = append(v.Lines, LineView{
			Book:      b,
			Quantity:  l.Quantity,
			LineTotal: b.Price.Mul(decimal.NewFromInt(int64(l.Quantity))),
		})
	}
	return v
}
