package author

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmytrozahor/PS-Task-6/internal/apperr"
	"github.com/dmytrozahor/PS-Task-6/internal/paging"
	"github.com/sirupsen/logrus"
)

// Service provides author-related business logic.
type Service struct {
	repo     Repository
	notifier Notifier
	log      logrus.FieldLogger
}

// NewService creates a new author service. notifier may be nil.
func NewService(repo Repository, notifier Notifier, log logrus.FieldLogger) *Service {
	return &Service{repo: repo, notifier: notifier, log: log}
}

func notFound(id int64) error {
	return apperr.New(ErrNotFound, "Requested author %d not found.", id)
}

func validateName(n *Name) error {
	if n == nil {
		return apperr.New(ErrInvalidName, "Author name is required.")
	}
	if !n.valid() {
		return apperr.New(ErrInvalidName, "Author name %s is invalid.", n.Canonical())
	}
	return nil
}

// Create stores a new author and notifies about it. The notification is best
// effort: a publishing failure is logged and the author is kept.
func (s *Service) Create(ctx context.Context, req SaveRequest) (int64, error) {
	if req.Name == nil {
		return 0, validateName(nil)
	}
	canonical := req.Name.Canonical()
	exists, err := s.repo.ExistsByCanonicalName(ctx, canonical, 0)
	if err != nil {
		return 0, fmt.Errorf("check author name: %w", err)
	}
	if exists {
		return 0, apperr.New(ErrAlreadyExists, "Author with name %s already exists.", canonical)
	}
	if err := validateName(req.Name); err != nil {
		return 0, err
	}

	var a Author
	req.apply(&a)
	id, err := s.repo.Create(ctx, &a)
	if err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			return 0, apperr.New(ErrAlreadyExists, "Author with name %s already exists.", canonical)
		}
		return 0, fmt.Errorf("create author: %w", err)
	}
	a.ID = id

	if s.notifier != nil && a.Email != "" {
		if err := s.notifier.AuthorCreated(ctx, a); err != nil {
			s.log.WithFields(logrus.Fields{"author_id": id, "error": err}).Warn("author created notification failed")
		}
	}
	return id, nil
}

func (s *Service) Update(ctx context.Context, id int64, req SaveRequest) error {
	if err := validateName(req.Name); err != nil {
		return err
	}
	a, err := s.get(ctx, id)
	if err != nil {
		return err
	}

	canonical := req.Name.Canonical()
	exists, err := s.repo.ExistsByCanonicalName(ctx, canonical, id)
	if err != nil {
		return fmt.Errorf("check author name: %w", err)
	}
	if exists {
		return apperr.New(ErrAlreadyExists, "Author with name %s already exists.", canonical)
	}

	req.apply(&a)
	if err := s.repo.Update(ctx, &a); err != nil {
		if errors.Is(err, ErrNotFound) {
			return notFound(id)
		}
		return fmt.Errorf("update author: %w", err)
	}
	return nil
}

func (s *Service) get(ctx context.Context, id int64) (Author, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Author{}, notFound(id)
		}
		return Author{}, err
	}
	return a, nil
}

// Get returns the author with the number of books it has published.
func (s *Service) Get(ctx context.Context, id int64) (Details, error) {
	a, err := s.get(ctx, id)
	if err != nil {
		return Details{}, err
	}
	return s.withBookCount(ctx, a)
}

func (s *Service) GetByCanonicalName(ctx context.Context, name string) (Details, error) {
	a, err := s.repo.GetByCanonicalName(ctx, name)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Details{}, apperr.New(ErrNotFound, "Requested author %s not found.", name)
		}
		return Details{}, err
	}
	return s.withBookCount(ctx, a)
}

func (s *Service) withBookCount(ctx context.Context, a Author) (Details, error) {
	n, err := s.repo.CountBooks(ctx, a.ID)
	if err != nil {
		return Details{}, fmt.Errorf("count books: %w", err)
	}
	return a.details(n), nil
}

// List returns one page of authors ordered by id.
func (s *Service) List(ctx context.Context, page paging.Request) (ListResponse, error) {
	if err := page.Validate(); err != nil {
		return ListResponse{}, err
	}
	authors, total, err := s.repo.List(ctx, page.Size, page.Offset())
	if err != nil {
		return ListResponse{}, err
	}
	out := ListResponse{List: make([]Info, 0, len(authors)), TotalPages: paging.TotalPages(total, page.Size)}
	for _, a := range authors {
		out.List = append(out.List, a.info())
	}
	return out, nil
}

// Delete removes the author and, through the foreign key, its books.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return notFound(id)
		}
		return err
	}
	return nil
}
