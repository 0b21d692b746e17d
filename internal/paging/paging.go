// Package paging holds zero-based page requests shared by the list endpoints.
package paging

import (
	"errors"
	"math"

	"github.com/dmytrozahor/PS-Task-6/internal/apperr"
)

// MaxSize bounds the number of elements a single page may ask for.
const MaxSize = 1000

// ErrInvalid is returned for a negative page index, a page size outside
// [1, MaxSize] or a page whose offset exceeds math.MaxInt32.
var ErrInvalid = errors.New("invalid page request")

// Request addresses one page of a result set. Page is zero-based.
type Request struct {
	Page int `json:"page"`
	Size int `json:"size"`
}

func New(page, size int) Request {
	return Request{Page: page, Size: size}
}

func (r Request) Validate() error {
	if r.Page < 0 {
		return apperr.New(ErrInvalid, "Page index must not be less than zero")
	}
	if r.Size < 1 {
		return apperr.New(ErrInvalid, "Page size must not be less than one")
	}
	if r.Size > MaxSize {
		return apperr.New(ErrInvalid, "Page size must not be greater than %d", MaxSize)
	}
	if r.Page > math.MaxInt32/r.Size {
		return apperr.New(ErrInvalid, "Page index is too large")
	}
	return nil
}

// Offset is only meaningful for a request that passed Validate.
func (r Request) Offset() int {
	return r.Page * r.Size
}

// TotalPages returns how many pages of size hold total elements.
func TotalPages(total int64, size int) int {
	if size <= 0 || total <= 0 {
		return 0
	}
	return int((total + int64(size) - 1) / int64(size))
}
