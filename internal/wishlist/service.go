package wishlist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hamarabooks/internal/catalog"
	"hamarabooks/internal/statestore"
)

// CartAdder receives books moved out of the wishlist.
type CartAdder interface {
	AddBook(ctx context.Context, clientID, bookID string) error
}

type Service struct {
	store   statestore.Store[Wishlist]
	catalog *catalog.Catalog
	locks   *statestore.KeyedMutex
	now     func() time.Time
}

func NewService(store statestore.Store[Wishlist], c *catalog.Catalog) *Service {
	return &Service{
		store:   store,
		catalog: c,
		locks:   statestore.NewKeyedMutex(),
		now:     time.Now,
	}
}

type ItemView struct {
	Book    catalog.Book `json:"book"`
	AddedAt time.Time    `json:"added_at"`
}

type View struct {
	Items []ItemView `json:"items"`
	Count int        `json:"count"`
}

func (s *Service) Load(ctx context.Context, clientID string) (Wishlist, error) {
	w, err := s.store.Get(ctx, clientID)
	if errors.Is(err, statestore.ErrNotFound) {
		return Wishlist{}, nil
	}
	if err != nil {
		return Wishlist{}, fmt.Errorf("load wishlist: %w", err)
	}
	return w, nil
}

func (s *Service) View(ctx context.Context, clientID string) (View, error) {
	unlock := s.locks.Lock(clientID)
	defer unlock()

	w, err := s.Load(ctx, clientID)
	if err != nil {
		return View{}, err
	}
	return s.view(w), nil
}

func (s *Service) Contains(ctx context.Context, clientID, bookID string) (bool, error) {
	unlock := s.locks.Lock(clientID)
	defer unlock()

	w, err := s.Load(ctx, clientID)
	if err != nil {
		return false, err
	}
	return w.Contains(bookID), nil
}

// Add saves bookID. Unknown books yield catalog.ErrNotFound and duplicates
// ErrAlreadyInWishlist.
func (s *Service) Add(ctx context.Context, clientID, bookID string) (View, error) {
	if _, err := s.catalog.Get(bookID); err != nil {
		return View{}, err
	}
	return s.mutate(ctx, clientID, func(w *Wishlist) error { return w.Add(bookID, s.now()) })
}

func (s *Service) Remove(ctx context.Context, clientID, bookID string) (View, error) {
	return s.mutate(ctx, clientID, func(w *Wishlist) error {
		w.Remove(bookID)
		return nil
	})
}

func (s *Service) Clear(ctx context.Context, clientID string) (View, error) {
	unlock := s.locks.Lock(clientID)
	defer unlock()

	if err := s.store.Delete(ctx, clientID); err != nil {
		return View{}, fmt.Errorf("clear wishlist: %w", err)
	}
	return s.view(Wishlist{}), nil
}

// MoveToCart adds a saved book to the cart, then drops it from the wishlist.
func (s *Service) MoveToCart(ctx context.Context, clientID, bookID string, cart CartAdder) (View, error) {
	return s.mutate(ctx, clientID, func(w *Wishlist) error {
		if !w.Contains(bookID) {
			return ErrNotInWishlist
		}
		if err := cart.AddBook(ctx, clientID, bookID); err != nil {
			return err
		}
		w.Remove(bookID)
		return nil
	})
}

func (s *Service) mutate(ctx context.Context, clientID string, fn func(*Wishlist) error) (View, error) {
	unlock := s.locks.Lock(clientID)
	defer unlock()

	w, err := s.Load(ctx, clientID)
	if err != nil {
		return View{}, err
	}
	if err := fn(&w); err != nil {
		return View{}, err
	}
	if err := s.store.Set(ctx, clientID, w); err != nil {
		return View{}, fmt.Errorf("save wishlist: %w", err)
	}
	return s.view(w), nil
}

func (s *Service) view(w Wishlist) View {
	v := View{Items: []ItemView{}, Count: w.Count()}
	for _, e := range w.Entries {
		b, ok := s.catalog.FindByID(e.BookID)
		if !ok {
			continue
		}
		v.Items = append(v.Items, ItemView{Book: b, AddedAt: e.AddedAt})
	}
	return v
}
