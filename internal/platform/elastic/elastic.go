// Package elastic builds the Elasticsearch client and manages indices.
package elastic

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

type Config struct {
	Addresses []string
	Username  string
	Password  string
	// Transport overrides the HTTP transport, mainly for tests.
	Transport http.RoundTripper
}

func NewClient(cfg Config) (*elasticsearch.Client, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses:     cfg.Addresses,
		Username:      cfg.Username,
		Password:      cfg.Password,
		Transport:     cfg.Transport,
		RetryOnStatus: []int{502, 503, 504, 429},
		MaxRetries:    3,
		RetryBackoff:  func(attempt int) time.Duration { return time.Duration(attempt) * 100 * time.Millisecond },
	})
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}
	return es, nil
}

// EnsureIndex creates index with mapping unless it already exists.
func EnsureIndex(ctx context.Context, es *elasticsearch.Client, index, mapping string) error {
	res, err := es.Indices.Exists([]string{index}, es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("check index %s: %w", index, err)
	}
	res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusNotFound:
	default:
		return fmt.Errorf("check index %s: unexpected status %d", index, res.StatusCode)
	}

	res, err = es.Indices.Create(index,
		es.Indices.Create.WithBody(strings.NewReader(mapping)),
		es.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("create index %s: %w", index, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		e := ResponseError(res)
		if e.Type == "resource_already_exists_exception" {
			return nil
		}
		return e
	}
	return nil
}

// Check pings the cluster.
func Check(es *elasticsearch.Client) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		res, err := es.Ping(es.Ping.WithContext(ctx))
		if err != nil {
			return err
		}
		defer res.Body.Close()
		if res.IsError() {
			return fmt.Errorf("elasticsearch ping: status %d", res.StatusCode)
		}
		return nil
	}
}

// Error is the decoded error body of a failed request.
type Error struct {
	Status int
	Type   string
	Reason string
}

func (e *Error) Error() string {
	if e.Type == "" {
		return fmt.Sprintf("elasticsearch: status %d", e.Status)
	}
	return fmt.Sprintf("elasticsearch: status %d: %s: %s", e.Status, e.Type, e.Reason)
}

// ResponseError reads the error of a response for which IsError is true.
func ResponseError(res *esapi.Response) *Error {
	e := &Error{Status: res.StatusCode}
	body, err := io.ReadAll(res.Body)
	if err != nil || len(body) == 0 {
		return e
	}
	var payload struct {
		Error struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &payload) == nil {
		e.Type = payload.Error.Type
		e.Reason = payload.Error.Reason
	}
	return e
}
