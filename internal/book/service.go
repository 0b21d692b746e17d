package book

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dmytrozahor/PS-Task-6/internal/apperr"
	"github.com/dmytrozahor/PS-Task-6/internal/author"
	"github.com/dmytrozahor/PS-Task-6/internal/paging"
	"github.com/sirupsen/logrus"
)

// Service provides book-related business logic.
type Service struct {
	repo    Repository
	authors AuthorLookup
	log     logrus.FieldLogger
	now     func() time.Time
}

func NewService(repo Repository, authors AuthorLookup, log logrus.FieldLogger) *Service {
	return &Service{repo: repo, authors: authors, log: log, now: time.Now}
}

func notFound(id int64) error {
	return apperr.New(ErrNotFound, "Requested book %d not found.", id)
}

func (s *Service) today() Date {
	return DateOf(s.now())
}

func (s *Service) validate(req SaveRequest) error {
	if req.PublishDate != nil && req.PublishDate.After(s.today().Time) {
		return apperr.New(ErrInvalidArgument, "Publish Date is after Now")
	}
	if req.AuthorID == nil {
		return apperr.New(ErrInvalidArgument, "Author shouldn't be null!")
	}
	return nil
}

func (s *Service) resolveAuthor(ctx context.Context, id int64) (author.Author, error) {
	a, err := s.authors.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, author.ErrNotFound) {
			return author.Author{}, apperr.New(author.ErrNotFound, "Requested author %d not found.", id)
		}
		return author.Author{}, fmt.Errorf("resolve author: %w", err)
	}
	return a, nil
}

func (s *Service) apply(ctx context.Context, b *Book, req SaveRequest) error {
	a, err := s.resolveAuthor(ctx, *req.AuthorID)
	if err != nil {
		return err
	}
	b.Title = req.Title
	b.Genres = req.Genres
	b.AuthorID = a.ID
	b.AuthorCanonicalName = a.CanonicalName
	if req.PublishDate != nil && !req.PublishDate.IsZero() {
		b.Publication = *req.PublishDate
	} else if b.Publication.IsZero() {
		b.Publication = s.today()
	}
	return nil
}

// Create stores a new book written by an existing author.
func (s *Service) Create(ctx context.Context, req SaveRequest) (int64, error) {
	if err := s.validate(req); err != nil {
		return 0, err
	}
	var b Book
	if err := s.apply(ctx, &b, req); err != nil {
		return 0, err
	}
	id, err := s.repo.Create(ctx, &b)
	if err != nil {
		return 0, fmt.Errorf("create book: %w", err)
	}
	return id, nil
}

func (s *Service) Update(ctx context.Context, id int64, req SaveRequest) error {
	if err := s.validate(req); err != nil {
		return err
	}
	b, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.apply(ctx, &b, req); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, &b); err != nil {
		if errors.Is(err, ErrNotFound) {
			return notFound(id)
		}
		return fmt.Errorf("update book: %w", err)
	}
	return nil
}

func (s *Service) get(ctx context.Context, id int64) (Book, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Book{}, notFound(id)
		}
		return Book{}, err
	}
	return b, nil
}

func (s *Service) Get(ctx context.Context, id int64) (Details, error) {
	b, err := s.get(ctx, id)
	if err != nil {
		return Details{}, err
	}
	return b.details(), nil
}

// filterFor converts q into its storage form. Filters without a value are skipped.
func filterFor(q Query) (ListFilter, error) {
	page := paging.New(q.Page, q.Size)
	if err := page.Validate(); err != nil {
		return ListFilter{}, err
	}
	f := ListFilter{Limit: page.Size, Offset: page.Offset()}

	if q.AuthorID != "" && q.AuthorID != anyAuthor {
		id, err := strconv.ParseInt(string(q.AuthorID), 10, 64)
		if err != nil {
			return ListFilter{}, apperr.New(ErrInvalidArgument, "Invalid author id %s", q.AuthorID)
		}
		f.AuthorID = &id
	}

	for _, filter := range q.Filters {
		if filter.Value == nil {
			continue
		}
		value := filterValue(filter.Value)
		switch filter.Attribute {
		case AttributeTitle:
			f.TitleContains = append(f.TitleContains, value)
		case AttributeAuthorCanonicalName:
			f.AuthorNameLike = append(f.AuthorNameLike, value)
		default:
			return ListFilter{}, apperr.New(ErrUnknownAttribute, "Unknown filter attribute %s", filter.Attribute)
		}
	}
	return f, nil
}

// filterValue renders a decoded JSON value; numbers never use exponent form.
func filterValue(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}

// List returns one page of books matching q, ordered by id.
func (s *Service) List(ctx context.Context, q Query) (ListResponse, error) {
	f, err := filterFor(q)
	if err != nil {
		return ListResponse{}, err
	}
	books, total, err := s.repo.List(ctx, f)
	if err != nil {
		return ListResponse{}, err
	}
	out := ListResponse{List: make([]Info, 0, len(books)), TotalPages: paging.TotalPages(total, f.Limit)}
	for _, b := range books {
		out.List = append(out.List, b.info())
	}
	return out, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return notFound(id)
		}
		return err
	}
	return nil
}
