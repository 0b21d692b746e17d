package author

import (
	"errors"
	"strings"
)

var (
	// ErrNotFound is returned when an author is not found.
	ErrNotFound = errors.New("author not found")
	// ErrAlreadyExists is returned when the canonical name is taken.
	ErrAlreadyExists = errors.New("author already exists")
	// ErrInvalidName is returned when the first or last name is blank.
	ErrInvalidName = errors.New("invalid author name")
)

type Name struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Canonical is the "First Last" form used for lookups and uniqueness.
func (n Name) Canonical() string {
	return n.FirstName + " " + n.LastName
}

func (n Name) valid() bool {
	return strings.TrimSpace(n.FirstName) != "" && strings.TrimSpace(n.LastName) != ""
}

type Address struct {
	Street      string `json:"street"`
	HouseNumber int    `json:"house_number"`
	City        string `json:"city"`
	Country     string `json:"country"`
	PostCode    string `json:"post_code"`
}

// Author is a row of book_author_data.
type Author struct {
	ID            int64
	Email         string
	PhoneNumber   string
	Name          Name
	CanonicalName string
	Address       Address
}

type SaveRequest struct {
	Name        *Name   `json:"name" validate:"required"`
	Address     Address `json:"address"`
	PhoneNumber string  `json:"phone_number"`
	Email       string  `json:"email" validate:"omitempty,email"`
}

type Details struct {
	ID             int64   `json:"id"`
	Name           Name    `json:"name"`
	CanonicalName  string  `json:"canonical_name"`
	Email          string  `json:"email"`
	PhoneNumber    string  `json:"phone_number"`
	Address        Address `json:"address"`
	BooksPublished int     `json:"books_published"`
}

type Info struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type ListResponse struct {
	List       []Info `json:"list"`
	TotalPages int    `json:"total_pages"`
}

const (
	defaultPage = 0
	defaultSize = 50
)

func (a Author) info() Info {
	return Info{ID: a.ID, Name: a.Name.Canonical()}
}

func (a Author) details(booksPublished int) Details {
	return Details{
		ID:             a.ID,
		Name:           a.Name,
		CanonicalName:  a.CanonicalName,
		Email:          a.Email,
		PhoneNumber:    a.PhoneNumber,
		Address:        a.Address,
		BooksPublished: booksPublished,
	}
}

func (r SaveRequest) apply(a *Author) {
	a.Name = *r.Name
	a.CanonicalName = r.Name.Canonical()
	a.Email = r.Email
	a.PhoneNumber = r.PhoneNumber
	a.Address = r.Address
}
