package book

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmytrozahor/PS-Task-6/internal/author"
)

var (
	// ErrNotFound is returned when a book is not found.
	ErrNotFound = errors.New("book not found")
	// ErrInvalidArgument is returned for a request the service refuses to apply.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrUnknownAttribute is returned when a filter names an unsupported column.
	ErrUnknownAttribute = errors.New("unknown filter attribute")
)

const dateLayout = "2006-01-02"

// Date is a calendar day encoded as YYYY-MM-DD.
type Date struct {
	time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return fmt.Errorf("date %q: %w", s, err)
	}
	*d = Date{t}
	return nil
}

// Book is a row of books. AuthorName is the author's current canonical name
// and is only filled by lookups that join book_author_data.
type Book struct {
	ID                  int64
	AuthorID            int64
	Title               string
	AuthorCanonicalName string
	AuthorName          string
	Genres              string
	Publication         Date
	LastUpdateTime      time.Time
}

type SaveRequest struct {
	Title       string `json:"title" validate:"notblank" msg:"Title shouldn't be blank!"`
	PublishDate *Date  `json:"publish_date"`
	AuthorName  string `json:"author_name"`
	AuthorID    *int64 `json:"author_id" validate:"required" msg:"Author shouldn't be null!"`
	Genres      string `json:"genres"`
}

type Info struct {
	ID             int64  `json:"id"`
	Title          string `json:"title"`
	FullAuthorName string `json:"full_author_name"`
	AuthorID       int64  `json:"author_id"`
}

type Details struct {
	ID             int64       `json:"id"`
	Title          string      `json:"title"`
	Publication    Date        `json:"publication_date"`
	LastUpdateTime time.Time   `json:"last_update_time"`
	Author         author.Info `json:"author"`
	Genres         string      `json:"genres"`
}

type ListResponse struct {
	List       []Info `json:"list"`
	TotalPages int    `json:"total_pages"`
}

// Attribute names a column a list query can be filtered on.
type Attribute string

const (
	AttributeTitle               Attribute = "TITLE"
	AttributeAuthorCanonicalName Attribute = "AUTHOR_CANONICAL_NAME"
)

func (a *Attribute) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	switch Attribute(s) {
	case AttributeTitle, AttributeAuthorCanonicalName:
		*a = Attribute(s)
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAttribute, s)
	}
}

type Filter struct {
	Attribute Attribute `json:"attribute"`
	Value     any       `json:"value"`
}

// AuthorRef is an author id sent either as a JSON string or as a number.
type AuthorRef string

func (a *AuthorRef) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*a = AuthorRef(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("author_id must be a string or a number: %w", err)
	}
	*a = AuthorRef(n.String())
	return nil
}

// Query selects a page of books. AuthorID "-1" means any author.
type Query struct {
	AuthorID AuthorRef `json:"author_id"`
	Filters  []Filter  `json:"filters"`
	Page     int       `json:"page"`
	Size     int       `json:"size"`
}

const (
	anyAuthor   = "-1"
	defaultPage = 0
	defaultSize = 50
)

// NewQuery returns the query an empty request body stands for.
func NewQuery() Query {
	return Query{AuthorID: anyAuthor, Filters: []Filter{}, Page: defaultPage, Size: defaultSize}
}

// ReportRequest restricts a report to one author.
type ReportRequest struct {
	AuthorID int64 `json:"author_id"`
}

func (b Book) info() Info {
	return Info{ID: b.ID, Title: b.Title, FullAuthorName: b.AuthorCanonicalName, AuthorID: b.AuthorID}
}

func (b Book) details() Details {
	name := b.AuthorName
	if name == "" {
		name = b.AuthorCanonicalName
	}
	return Details{
		ID:             b.ID,
		Title:          b.Title,
		Publication:    b.Publication,
		LastUpdateTime: b.LastUpdateTime,
		Author:         author.Info{ID: b.AuthorID, Name: name},
		Genres:         b.Genres,
	}
}
