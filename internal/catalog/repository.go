package catalog

import (
	"context"
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:generate mockgen -source=repository.go -destination=mock_repository.go -package=catalog

// Repository is the source the catalog is snapshotted from at start-up.
type Repository interface {
	All(ctx context.Context) ([]Book, error)
}

//go:embed data/books.yaml
var seedYAML []byte

// SeedBooks decodes the bundled book list.
func SeedBooks() ([]Book, error) {
	return DecodeBooks(seedYAML)
}

// DecodeBooks reads a YAML document with a top-level books list and checks
// that every book has a unique ID and a non-negative price.
func DecodeBooks(data []byte) ([]Book, error) {
	var doc struct {
		Books []Book `yaml:"books"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode books: %w", err)
	}

	seen := make(map[string]bool, len(doc.Books))
	for i, b := range doc.Books {
		switch {
		case b.ID == "":
			return nil, fmt.Errorf("book %d: missing id", i)
		case seen[b.ID]:
			return nil, fmt.Errorf("book %s: duplicate id", b.ID)
		case b.Price.IsNegative():
			return nil, fmt.Errorf("book %s: negative price", b.ID)
		}
		seen[b.ID] = true
	}
	return doc.Books, nil
}

type MemoryRepository struct {
	books []Book
}

func NewMemoryRepository(books []Book) *MemoryRepository {
	return &MemoryRepository{books: books}
}

// NewSeedRepository serves the bundled book list.
func NewSeedRepository() (*MemoryRepository, error) {
	books, err := SeedBooks()
	if err != nil {
		return nil, err
	}
	return NewMemoryRepository(books), nil
}

func (r *MemoryRepository) All(_ context.Context) ([]Book, error) {
	out := make([]Book, len(r.books))
	copy(out, r.books)
	return out, nil
}
