package profile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hamarabooks/internal/cart"
	"hamarabooks/internal/identity"
	"hamarabooks/internal/statestore"
	"hamarabooks/internal/wishlist"
)

type SessionSource interface {
	Current(ctx context.Context, clientID string) (*identity.Session, error)
}

type CartSource interface {
	View(ctx context.Context, clientID string) (cart.View, error)
}

type WishlistSource interface {
	View(ctx context.Context, clientID string) (wishlist.View, error)
}

type Service struct {
	sessions  SessionSource
	carts     CartSource
	wishlists WishlistSource
	details   statestore.Store[Details]
	locks     *statestore.KeyedMutex
	orders    []Order
	now       func() time.Time
}

func NewService(sessions SessionSource, carts CartSource, wishlists WishlistSource, details statestore.Store[Details], orders []Order) *Service {
	return &Service{
		sessions:  sessions,
		carts:     carts,
		wishlists: wishlists,
		details:   details,
		locks:     statestore.NewKeyedMutex(),
		orders:    orders,
		now:       time.Now,
	}
}

// Get returns identity.ErrNotSignedIn when the client has no session.
func (s *Service) Get(ctx context.Context, clientID string) (*Profile, error) {
	sess, err := s.session(ctx, clientID)
	if err != nil {
		return nil, err
	}

	c, err := s.carts.View(ctx, clientID)
	if err != nil {
		return nil, err
	}
	w, err := s.wishlists.View(ctx, clientID)
	if err != nil {
		return nil, err
	}
	d, err := s.loadDetails(ctx, clientID)
	if err != nil {
		return nil, err
	}

	return &Profile{
		User: User{
			UID:         sess.UID,
			Email:       sess.Email,
			DisplayName: displayName(sess.DisplayName, sess.Email),
			ProviderID:  sess.ProviderID,
		},
		Details: d,
		Stats: Stats{
			CartLines:     c.LineCount,
			CartItems:     c.ItemCount,
			CartTotal:     c.Summary.Total,
			WishlistCount: w.Count,
			OrderCount:    len(s.orders),
		},
		Orders: s.Orders(),
	}, nil
}

// UpdateDetails replaces the editable account fields of a signed-in client.
// The theme is a separate preference and survives the update. Invalid input
// is reported as *FieldError.
func (s *Service) UpdateDetails(ctx context.Context, clientID string, in Details) (*Profile, error) {
	if _, err := s.session(ctx, clientID); err != nil {
		return nil, err
	}
	in = in.normalize()
	if err := in.validate(s.now()); err != nil {
		return nil, err
	}

	err := s.withDetails(ctx, clientID, func(d *Details) {
		theme := d.Theme
		*d = in
		d.Theme = theme
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, clientID)
}

// Orders returns the order history shown on the account page.
func (s *Service) Orders() []Order {
	out := make([]Order, len(s.orders))
	copy(out, s.orders)
	return out
}

// SignedInOrders is Orders for a signed-in client only.
func (s *Service) SignedInOrders(ctx context.Context, clientID string) ([]Order, error) {
	if _, err := s.session(ctx, clientID); err != nil {
		return nil, err
	}
	return s.Orders(), nil
}

// Theme is available to every client, signed in or not.
func (s *Service) Theme(ctx context.Context, clientID string) (Theme, error) {
	d, err := s.loadDetails(ctx, clientID)
	if err != nil {
		return "", err
	}
	return d.Theme, nil
}

func (s *Service) SetTheme(ctx context.Context, clientID string, t Theme) (Theme, error) {
	if t != ThemeLight && t != ThemeDark {
		return "", &FieldError{Field: "theme", Message: "theme must be light or dark"}
	}
	err := s.withDetails(ctx, clientID, func(d *Details) { d.Theme = t })
	return t, err
}

func (s *Service) ToggleTheme(ctx context.Context, clientID string) (Theme, error) {
	var next Theme
	err := s.withDetails(ctx, clientID, func(d *Details) {
		d.Theme = d.Theme.Toggle()
		next = d.Theme
	})
	return next, err
}

func (s *Service) session(ctx context.Context, clientID string) (*identity.Session, error) {
	sess, err := s.sessions.Current(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("current session: %w", err)
	}
	if sess == nil {
		return nil, identity.ErrNotSignedIn
	}
	return sess, nil
}

func (s *Service) loadDetails(ctx context.Context, clientID string) (Details, error) {
	unlock := s.locks.Lock(clientID)
	defer unlock()
	return s.getDetails(ctx, clientID)
}

func (s *Service) getDetails(ctx context.Context, clientID string) (Details, error) {
	d, err := s.details.Get(ctx, clientID)
	if errors.Is(err, statestore.ErrNotFound) {
		d, err = Details{}, nil
	}
	if err != nil {
		return Details{}, fmt.Errorf("load profile details: %w", err)
	}
	if d.FavoriteGenres == nil {
		d.FavoriteGenres = []string{}
	}
	d.Theme = d.Theme.orDefault()
	return d, nil
}

func (s *Service) withDetails(ctx context.Context, clientID string, fn func(*Details)) error {
	unlock := s.locks.Lock(clientID)
	defer unlock()

	d, err := s.getDetails(ctx, clientID)
	if err != nil {
		return err
	}
	fn(&d)
	if err := s.details.Set(ctx, clientID, d); err != nil {
		return fmt.Errorf("save profile details: %w", err)
	}
	return nil
}
