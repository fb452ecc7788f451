package book

import (
	"context"

	"bookcatalog/internal/platform/openlibrary"
)

// Repository defines the contract for book data storage.
type Repository interface {
	List(ctx context.Context, q Query) ([]Book, error)
	Popular(ctx context.Context, limit int) ([]Book, error)
}

// OpenLibrary is the subset of the Open Library client the service uses.
type OpenLibrary interface {
	Subject(ctx context.Context, subject string, limit int) (*openlibrary.WorkList, error)
	Trending(ctx context.Context, window string) (*openlibrary.WorkList, error)
	EditionByISBN(ctx context.Context, isbn string) (*openlibrary.Edition, error)
	Work(ctx context.Context, key string) (*openlibrary.Work, error)
	Cover(ctx context.Context, isbn, size string) (*openlibrary.Cover, error)
}

// Recommender supplies externally ranked titles.
type Recommender interface {
	TopBookTitles(ctx context.Context) ([]string, error)
}
