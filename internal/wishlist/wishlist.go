// Package wishlist keeps the set of books a client has saved for later.
package wishlist

import (
	"errors"
	"slices"
	"time"
)

var (
	ErrAlreadyInWishlist = errors.New("book already in wishlist")
	ErrNotInWishlist     = errors.New("book not in wishlist")
)

// User-facing notices for wishlist changes.
const (
	NoticeAdded     = "Book added to wishlist!"
	NoticeDuplicate = "Book is already in your wishlist"
	NoticeRemoved   = "Book removed from wishlist"
	NoticeCleared   = "Wishlist cleared"
	NoticeMoved     = "Moved to cart!"
)

type Entry struct {
	BookID  string    `json:"book_id"`
	AddedAt time.Time `json:"added_at"`
}

// Wishlist holds entries in the order they were added, at most one per book.
type Wishlist struct {
	Entries []Entry `json:"entries"`
}

// Add appends the book. A book that is already present is rejected with
// ErrAlreadyInWishlist and the wishlist is left untouched.
func (w *Wishlist) Add(bookID string, at time.Time) error {
	if w.Contains(bookID) {
		return ErrAlreadyInWishlist
	}
	w.Entries = append(w.Entries, Entry{BookID: bookID, AddedAt: at})
	return nil
}

func (w *Wishlist) Remove(bookID string) {
	w.Entries = slices.DeleteFunc(w.Entries, func(e Entry) bool { return e.BookID == bookID })
}

func (w *Wishlist) Clear() {
	w.Entries = nil
}

func (w *Wishlist) Contains(bookID string) bool {
	return slices.ContainsFunc(w.Entries, func(e Entry) bool { return e.BookID == bookID })
}

func (w *Wishlist) Count() int {
	return len(w.Entries)
}

func (w *Wishlist) Items() []Entry {
	return slices.Clone(w.Entries)
}
