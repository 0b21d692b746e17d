// Package email stores email requests, delivers them over SMTP and retries
// the ones that failed.
package email

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmytrozahor/PS-Task-6/internal/paging"
)

var (
	// ErrNotFound is returned when no message has the requested id.
	ErrNotFound = errors.New("email message not found")
	// ErrInvalidStatus is returned for a status name outside PENDING, SENT and FAILED.
	ErrInvalidStatus = errors.New("invalid email status")
)

type Status string

const (
	// StatusPending is a message received from the broker and not sent yet.
	StatusPending Status = "PENDING"
	StatusSent    Status = "SENT"
	StatusFailed  Status = "FAILED"
)

func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusSent, StatusFailed:
		return Status(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
}

// Message is the document kept for every email request.
type Message struct {
	ID            string     `json:"-"`
	Recipients    []string   `json:"recipients"`
	Subject       string     `json:"subject"`
	Content       string     `json:"content"`
	Status        Status     `json:"status"`
	ErrorMessage  string     `json:"errorMessage,omitempty"`
	RetryAttempt  int        `json:"retryAttempt"`
	CreatedAt     time.Time  `json:"createdAt"`
	LastAttemptAt *time.Time `json:"lastAttemptAt,omitempty"`
}

// Request is the message published by the services that want an email sent.
type Request struct {
	Subject    string   `json:"subject"`
	Content    string   `json:"content"`
	Recipients []string `json:"recipients"`
}

type StatusView struct {
	ID            string     `json:"id"`
	Subject       string     `json:"subject"`
	Recipients    []string   `json:"recipients"`
	Status        Status     `json:"status"`
	ErrorMessage  *string    `json:"errorMessage"`
	RetryAttempt  int        `json:"retryAttempt"`
	CreatedAt     time.Time  `json:"createdAt"`
	LastAttemptAt *time.Time `json:"lastAttemptAt"`
}

func (m Message) view() StatusView {
	v := StatusView{
		ID:            m.ID,
		Subject:       m.Subject,
		Recipients:    m.Recipients,
		Status:        m.Status,
		RetryAttempt:  m.RetryAttempt,
		CreatedAt:     m.CreatedAt,
		LastAttemptAt: m.LastAttemptAt,
	}
	if m.ErrorMessage != "" {
		msg := m.ErrorMessage
		v.ErrorMessage = &msg
	}
	if v.Recipients == nil {
		v.Recipients = []string{}
	}
	return v
}

// Page is one page of status views. Number is zero-based.
type Page struct {
	Content       []StatusView `json:"content"`
	TotalElements int64        `json:"totalElements"`
	TotalPages    int          `json:"totalPages"`
	Number        int          `json:"number"`
	Size          int          `json:"size"`
}

func newPage(messages []Message, total int64, req paging.Request) Page {
	p := Page{
		Content:       make([]StatusView, 0, len(messages)),
		TotalElements: total,
		TotalPages:    paging.TotalPages(total, req.Size),
		Number:        req.Page,
		Size:          req.Size,
	}
	for _, m := range messages {
		p.Content = append(p.Content, m.view())
	}
	return p
}

const (
	defaultPage = 0
	defaultSize = 20
)
