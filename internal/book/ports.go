package book

//go:generate mockgen -source=ports.go -destination=mock_ports.go -package=book

import (
	"context"

	"github.com/dmytrozahor/PS-Task-6/internal/author"
)

// ListFilter is the storage form of a Query. Every non-empty condition must hold.
type ListFilter struct {
	AuthorID       *int64
	TitleContains  []string
	AuthorNameLike []string
	Limit          int
	Offset         int
}

// Repository defines the contract for book data storage.
type Repository interface {
	Create(ctx context.Context, b *Book) (int64, error)
	// CreateBatch inserts all books in one transaction and returns their ids in order.
	CreateBatch(ctx context.Context, books []Book) ([]int64, error)
	Update(ctx context.Context, b *Book) error
	GetByID(ctx context.Context, id int64) (Book, error)
	FindByTitleAndAuthor(ctx context.Context, title, canonicalName string) (Book, error)
	List(ctx context.Context, f ListFilter) ([]Book, int64, error)
	ListForReport(ctx context.Context, authorID *int64) ([]Book, error)
	Delete(ctx context.Context, id int64) error
}

// AuthorLookup resolves the author a book is written by.
type AuthorLookup interface {
	GetByID(ctx context.Context, id int64) (author.Author, error)
	GetByCanonicalName(ctx context.Context, name string) (author.Author, error)
}
