package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/dmytrozahor/PS-Task-6/internal/paging"
	"github.com/dmytrozahor/PS-Task-6/internal/platform/elastic"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/google/uuid"
)

// IndexName is the index holding one document per message.
const IndexName = "email_messages"

// IndexMapping keeps recipients and status exact for term queries.
const IndexMapping = `{
  "mappings": {
    "properties": {
      "recipients":    {"type": "keyword"},
      "subject":       {"type": "text"},
      "content":       {"type": "text"},
      "status":        {"type": "keyword"},
      "errorMessage":  {"type": "text"},
      "retryAttempt":  {"type": "integer"},
      "createdAt":     {"type": "date"},
      "lastAttemptAt": {"type": "date"}
    }
  }
}`

const (
	scanPageSize = 100
	pitKeepAlive = "1m"
)

var createdAtAsc = []any{map[string]any{"createdAt": map[string]any{"order": "asc"}}}

type ElasticRepo struct {
	es    *elasticsearch.Client
	index string
}

func NewElasticRepo(es *elasticsearch.Client, index string) *ElasticRepo {
	if index == "" {
		index = IndexName
	}
	return &ElasticRepo{es: es, index: index}
}

// hit.Sort stays raw so that _shard_doc tiebreakers keep full int64 precision.
type hit struct {
	ID     string            `json:"_id"`
	Source Message           `json:"_source"`
	Sort   []json.RawMessage `json:"sort"`
}

func (h hit) message() Message {
	m := h.Source
	m.ID = h.ID
	return m
}

func (r *ElasticRepo) Save(ctx context.Context, m *Message) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	body, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode email message: %w", err)
	}

	res, err := r.es.Index(r.index, bytes.NewReader(body),
		r.es.Index.WithDocumentID(m.ID),
		r.es.Index.WithRefresh("wait_for"),
		r.es.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("index email message: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return elastic.ResponseError(res)
	}
	return nil
}

func (r *ElasticRepo) FindByID(ctx context.Context, id string) (Message, error) {
	res, err := r.es.Get(r.index, id, r.es.Get.WithContext(ctx))
	if err != nil {
		return Message{}, fmt.Errorf("get email message: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusNotFound {
		return Message{}, ErrNotFound
	}
	if res.IsError() {
		return Message{}, elastic.ResponseError(res)
	}

	var h hit
	if err := json.NewDecoder(res.Body).Decode(&h); err != nil {
		return Message{}, fmt.Errorf("decode email message: %w", err)
	}
	return h.message(), nil
}

func (r *ElasticRepo) FindAll(ctx context.Context, page paging.Request) ([]Message, int64, error) {
	return r.search(ctx, map[string]any{"match_all": map[string]any{}}, page)
}

func (r *ElasticRepo) FindByStatus(ctx context.Context, status Status, page paging.Request) ([]Message, int64, error) {
	return r.search(ctx, statusQuery(status), page)
}

// FindAllByStatus reads every message with status through a point in time,
// paging with search_after so the scan is not bound by max_result_window.
func (r *ElasticRepo) FindAllByStatus(ctx context.Context, status Status) ([]Message, error) {
	pit, err := r.openPIT(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { r.closePIT(context.WithoutCancel(ctx), pit) }()

	var (
		out   []Message
		after []json.RawMessage
	)
	for {
		req := map[string]any{
			"query":            statusQuery(status),
			"size":             scanPageSize,
			"sort":             createdAtAsc,
			"pit":              map[string]any{"id": pit, "keep_alive": pitKeepAlive},
			"track_total_hits": false,
		}
		if after != nil {
			req["search_after"] = after
		}
		page, err := r.do(ctx, req, false)
		if err != nil {
			return nil, err
		}
		if page.PitID != "" {
			pit = page.PitID
		}
		for _, h := range page.Hits.Hits {
			out = append(out, h.message())
		}
		if len(page.Hits.Hits) < scanPageSize {
			return out, nil
		}
		after = page.Hits.Hits[len(page.Hits.Hits)-1].Sort
	}
}

func (r *ElasticRepo) openPIT(ctx context.Context) (string, error) {
	res, err := r.es.OpenPointInTime([]string{r.index}, pitKeepAlive, r.es.OpenPointInTime.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("open point in time: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return "", elastic.ResponseError(res)
	}
	var payload struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode point in time: %w", err)
	}
	return payload.ID, nil
}

// closePIT releases pit early; Elasticsearch drops it after keep_alive anyway.
func (r *ElasticRepo) closePIT(ctx context.Context, pit string) {
	body, err := json.Marshal(map[string]string{"id": pit})
	if err != nil {
		return
	}
	res, err := r.es.ClosePointInTime(
		r.es.ClosePointInTime.WithContext(ctx),
		r.es.ClosePointInTime.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return
	}
	_ = res.Body.Close()
}

func statusQuery(status Status) map[string]any {
	return map[string]any{"term": map[string]any{"status": string(status)}}
}

func (r *ElasticRepo) search(ctx context.Context, query map[string]any, page paging.Request) ([]Message, int64, error) {
	res, err := r.do(ctx, map[string]any{
		"query":            query,
		"from":             page.Offset(),
		"size":             page.Size,
		"sort":             createdAtAsc,
		"track_total_hits": true,
	}, true)
	if err != nil {
		return nil, 0, err
	}
	out := make([]Message, 0, len(res.Hits.Hits))
	for _, h := range res.Hits.Hits {
		out = append(out, h.message())
	}
	return out, res.Hits.Total.Value, nil
}

type searchResponse struct {
	PitID string `json:"pit_id"`
	Hits  struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		Hits []hit `json:"hits"`
	} `json:"hits"`
}

// do runs a search. A point in time search must not name the index.
func (r *ElasticRepo) do(ctx context.Context, req map[string]any, withIndex bool) (searchResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return searchResponse{}, err
	}

	opts := []func(*esapi.SearchRequest){
		r.es.Search.WithContext(ctx),
		r.es.Search.WithBody(bytes.NewReader(body)),
	}
	if withIndex {
		opts = append(opts, r.es.Search.WithIndex(r.index))
	}
	res, err := r.es.Search(opts...)
	if err != nil {
		return searchResponse{}, fmt.Errorf("search email messages: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return searchResponse{}, elastic.ResponseError(res)
	}

	var payload searchResponse
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return searchResponse{}, fmt.Errorf("decode search response: %w", err)
	}
	return payload, nil
}
