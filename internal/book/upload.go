package book

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dmytrozahor/PS-Task-6/internal/apperr"
	"github.com/dmytrozahor/PS-Task-6/internal/author"
	"github.com/sirupsen/logrus"
)

// Outcome tells what happened to one uploaded book.
type Outcome string

const (
	OutcomeSuccess           Outcome = "SUCCESS"
	OutcomeAuthorNotFound    Outcome = "AUTHOR_NOT_FOUND"
	OutcomeTitleAuthorExists Outcome = "TITLE_AUTHOR_EXISTS"
)

func (o Outcome) Message() string {
	switch o {
	case OutcomeSuccess:
		return "Book uploaded successfully"
	case OutcomeAuthorNotFound:
		return "Requested author doesn't exist"
	case OutcomeTitleAuthorExists:
		return "Book with the requested title and author already exists"
	default:
		return string(o)
	}
}

const noValue = -1

// UploadItem is one element of an uploaded JSON array.
type UploadItem struct {
	Title         string `json:"title"`
	AuthorID      int64  `json:"author_id"`
	Author        string `json:"author"`
	Genre         string `json:"genre"`
	Publication   *Date  `json:"publication"`
	YearPublished int    `json:"year_published"`
}

type UploadResult struct {
	Info    Info    `json:"info"`
	Outcome Outcome `json:"outcome"`
}

type UploadResponse struct {
	Message           string         `json:"message"`
	Results           []UploadResult `json:"results"`
	SuccessfulUploads int            `json:"successfulUploads"`
	FailedUploads     int            `json:"failedUploads"`
}

func newUploadResponse(results []UploadResult, successful int) UploadResponse {
	failed := len(results) - successful
	msg := "No books could be uploaded."
	if successful > 0 {
		msg = fmt.Sprintf(" %d books were successfully uploaded (%d failures)", successful, failed)
	}
	return UploadResponse{Message: msg, Results: results, SuccessfulUploads: successful, FailedUploads: failed}
}

func invalidUpload(err error) error {
	return &apperr.Error{Kind: ErrInvalidArgument, Message: "Uploaded file is not a JSON array of books: " + err.Error()}
}

// decodeUpload reads r as a JSON array one element at a time.
func decodeUpload(r io.Reader, each func(UploadItem) error) error {
	dec := json.NewDecoder(r)
	tok, err := dec.Token()
	if err != nil {
		return invalidUpload(err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '[' {
		return invalidUpload(fmt.Errorf("unexpected %v", tok))
	}
	for dec.More() {
		item := UploadItem{AuthorID: noValue, YearPublished: noValue}
		if err := dec.Decode(&item); err != nil {
			return invalidUpload(err)
		}
		if err := each(item); err != nil {
			return err
		}
	}
	if _, err := dec.Token(); err != nil {
		return invalidUpload(err)
	}
	return nil
}

func uploadKey(title, canonicalName string) string {
	return title + "\x00" + strings.ToLower(canonicalName)
}

func (s *Service) lookupUploadAuthor(ctx context.Context, item UploadItem) (author.Author, bool, error) {
	var (
		a   author.Author
		err error
	)
	switch {
	case item.AuthorID != noValue:
		a, err = s.authors.GetByID(ctx, item.AuthorID)
	case item.Author != "":
		a, err = s.authors.GetByCanonicalName(ctx, item.Author)
	default:
		return author.Author{}, false, nil
	}
	if errors.Is(err, author.ErrNotFound) {
		return author.Author{}, false, nil
	}
	if err != nil {
		return author.Author{}, false, fmt.Errorf("resolve upload author: %w", err)
	}
	return a, true, nil
}

func (s *Service) publicationOf(item UploadItem) Date {
	switch {
	case item.Publication != nil && !item.Publication.IsZero():
		return *item.Publication
	case item.YearPublished != noValue:
		return NewDate(item.YearPublished, time.January, 1)
	default:
		return s.today()
	}
}

// Upload imports the books of a JSON array. Every book whose author exists
// and that is not already stored is inserted in a single transaction; the
// others are reported with the reason they were skipped.
func (s *Service) Upload(ctx context.Context, r io.Reader) (UploadResponse, error) {
	var (
		results []UploadResult
		pending []Book
		slots   []int
		seen    = map[string]int{}
		dupOf   = map[int]int{}
	)

	err := decodeUpload(r, func(item UploadItem) error {
		a, ok, err := s.lookupUploadAuthor(ctx, item)
		if err != nil {
			return err
		}
		if !ok {
			results = append(results, UploadResult{
				Info:    Info{Title: item.Title, FullAuthorName: item.Author},
				Outcome: OutcomeAuthorNotFound,
			})
			return nil
		}

		key := uploadKey(item.Title, a.CanonicalName)
		if idx, ok := seen[key]; ok {
			dupOf[len(results)] = idx
			results = append(results, UploadResult{Info: results[idx].Info, Outcome: OutcomeTitleAuthorExists})
			return nil
		}
		existing, err := s.repo.FindByTitleAndAuthor(ctx, item.Title, a.CanonicalName)
		switch {
		case err == nil:
			results = append(results, UploadResult{Info: existing.info(), Outcome: OutcomeTitleAuthorExists})
			return nil
		case !errors.Is(err, ErrNotFound):
			return fmt.Errorf("find uploaded book: %w", err)
		}

		b := Book{
			AuthorID:            a.ID,
			Title:               item.Title,
			AuthorCanonicalName: a.CanonicalName,
			Genres:              item.Genre,
			Publication:         s.publicationOf(item),
		}
		seen[key] = len(results)
		slots = append(slots, len(results))
		pending = append(pending, b)
		results = append(results, UploadResult{Info: b.info(), Outcome: OutcomeSuccess})
		return nil
	})
	if err != nil {
		return UploadResponse{}, err
	}

	if len(pending) > 0 {
		ids, err := s.repo.CreateBatch(ctx, pending)
		if err != nil {
			return UploadResponse{}, fmt.Errorf("save uploaded books: %w", err)
		}
		for i, id := range ids {
			results[slots[i]].Info.ID = id
		}
		for idx, original := range dupOf {
			results[idx].Info = results[original].Info
		}
	}
	if results == nil {
		results = []UploadResult{}
	}

	s.log.WithFields(logrus.Fields{
		"received": len(results),
		"uploaded": len(pending),
	}).Info("books uploaded")
	return newUploadResponse(results, len(pending)), nil
}
