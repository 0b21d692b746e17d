package author

//go:generate mockgen -source=ports.go -destination=mock_ports.go -package=author

import (
	"context"
)

// Repository defines the contract for author storage.
type Repository interface {
	Create(ctx context.Context, a *Author) (int64, error)
	Update(ctx context.Context, a *Author) error
	GetByID(ctx context.Context, id int64) (Author, error)
	// GetByCanonicalName matches case-insensitively.
	GetByCanonicalName(ctx context.Context, name string) (Author, error)
	// ExistsByCanonicalName ignores the author with excludeID.
	ExistsByCanonicalName(ctx context.Context, name string, excludeID int64) (bool, error)
	List(ctx context.Context, limit, offset int) ([]Author, int64, error)
	Delete(ctx context.Context, id int64) error
	CountBooks(ctx context.Context, authorID int64) (int, error)
}

// Notifier is told about newly created authors.
type Notifier interface {
	AuthorCreated(ctx context.Context, a Author) error
}
