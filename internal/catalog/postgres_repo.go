package catalog

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const bookColumns = `id, title, author, price::text, original_price::text, rating, reviews_count,
	category, language, in_stock, stock_count, cover_image, description, publisher,
	isbn, pages, publish_date, bestseller, new_arrival`

// All returns books in insertion order.
func (r *PostgresRepository) All(ctx context.Context) ([]Book, error) {
	rows, err := r.db.Query(ctx, "SELECT "+bookColumns+" FROM books ORDER BY position ASC")
	if err != nil {
		return nil, fmt.Errorf("query books: %w", err)
	}
	defer rows.Close()

	out := []Book{}
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func scanBook(row pgx.Row) (Book, error) {
	var (
		b             Book
		price         string
		originalPrice *string
	)
	if err := row.Scan(
		&b.ID, &b.Title, &b.Author, &price, &originalPrice, &b.Rating, &b.ReviewsCount,
		&b.Category, &b.Language, &b.InStock, &b.StockCount, &b.CoverImage, &b.Description, &b.Publisher,
		&b.ISBN, &b.Pages, &b.PublishDate, &b.Bestseller, &b.NewArrival,
	); err != nil {
		return Book{}, fmt.Errorf("scan book: %w", err)
	}

	var err error
	if b.Price, err = decimal.NewFromString(price); err != nil {
		return Book{}, fmt.Errorf("book %s price: %w", b.ID, err)
	}
	if originalPrice != nil {
		op, err := decimal.NewFromString(*originalPrice)
		if err != nil {
			return Book{}, fmt.Errorf("book %s original price: %w", b.ID, err)
		}
		b.OriginalPrice = &op
	}
	return b, nil
}

// Upsert writes books in one transaction, keeping the position of books that
// already exist.
func (r *PostgresRepository) Upsert(ctx context.Context, books []Book) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	const upsertSQL = `
		INSERT INTO books (id, title, author, price, original_price, rating, reviews_count,
			category, language, in_stock, stock_count, cover_image, description, publisher,
			isbn, pages, publish_date, bestseller, new_arrival, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, now())
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			author = EXCLUDED.author,
			price = EXCLUDED.price,
			original_price = EXCLUDED.original_price,
			rating = EXCLUDED.rating,
			reviews_count = EXCLUDED.reviews_count,
			category = EXCLUDED.category,
			language = EXCLUDED.language,
			in_stock = EXCLUDED.in_stock,
			stock_count = EXCLUDED.stock_count,
			cover_image = EXCLUDED.cover_image,
			description = EXCLUDED.description,
			publisher = EXCLUDED.publisher,
			isbn = EXCLUDED.isbn,
			pages = EXCLUDED.pages,
			publish_date = EXCLUDED.publish_date,
			bestseller = EXCLUDED.bestseller,
			new_arrival = EXCLUDED.new_arrival,
			updated_at = now()`

	batch := &pgx.Batch{}
	for _, b := range books {
		var originalPrice *string
		if b.OriginalPrice != nil {
			s := b.OriginalPrice.String()
			originalPrice = &s
		}
		batch.Queue(upsertSQL,
			b.ID, b.Title, b.Author, b.Price.String(), originalPrice, b.Rating, b.ReviewsCount,
			b.Category, b.Language, b.InStock, b.StockCount, b.CoverImage, b.Description, b.Publisher,
			b.ISBN, b.Pages, b.PublishDate, b.Bestseller, b.NewArrival,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("upsert books: %w", err)
	}

	return tx.Commit(ctx)
}
