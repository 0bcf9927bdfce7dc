// Package search mirrors sent notifications into Elasticsearch and runs
// free-text queries over them.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"event-notifications/internal/common/errors"
	"event-notifications/internal/common/logger"
	"event-notifications/internal/models"
	"event-notifications/internal/repository"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

const defaultSearchSize = 50

// Document is the indexed shape of a notification.
type Document struct {
	ID               string     `json:"id"`
	TenantID         string     `json:"tenant_id"`
	NotificationType string     `json:"notification_type"`
	Channel          string     `json:"channel"`
	Recipient        string     `json:"recipient"`
	Title            string     `json:"title,omitempty"`
	Body             string     `json:"body"`
	Status           string     `json:"status"`
	Attempts         int        `json:"attempts"`
	EventID          string     `json:"event_id,omitempty"`
	ErrorDetail      string     `json:"error_detail,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	SentAt           *time.Time `json:"sent_at,omitempty"`
}

func toDocument(n *models.SentNotification) Document {
	d := Document{
		ID:               n.ID,
		NotificationType: string(n.NotificationType),
		Channel:          string(n.Channel),
		Recipient:        n.Recipient,
		Body:             n.Body,
		Status:           string(n.Status),
		Attempts:         n.Attempts,
		CreatedAt:        n.CreatedAt,
		SentAt:           n.SentAt,
	}
	if n.TenantID != nil {
		d.TenantID = *n.TenantID
	}
	if n.Title != nil {
		d.Title = *n.Title
	}
	if n.EventID != nil {
		d.EventID = *n.EventID
	}
	if n.ErrorDetail != nil {
		d.ErrorDetail = *n.ErrorDetail
	}
	return d
}

// Result is one page of search hits.
type Result struct {
	Total int64      `json:"total"`
	Hits  []Document `json:"hits"`
	Took  int        `json:"took_ms"`
}

type Index struct {
	client *elasticsearch.Client
	index  string
	logger logger.Logger
}

func NewIndex(client *elasticsearch.Client, index string, log logger.Logger) *Index {
	return &Index{client: client, index: index, logger: log}
}

// IndexNotification upserts n under its id.
func (x *Index) IndexNotification(ctx context.Context, n *models.SentNotification) error {
	body, err := json.Marshal(toDocument(n))
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	req := esapi.IndexRequest{
		Index:      x.index,
		DocumentID: n.ID,
		Body:       bytes.NewReader(body),
	}
	res, err := req.Do(ctx, x.client)
	if err != nil {
		return fmt.Errorf("index notification %s: %w", n.ID, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("index notification %s: %s", n.ID, res.Status())
	}
	return nil
}

// Search runs a multi-match over recipient, title and body, newest first.
func (x *Index) Search(ctx context.Context, scope repository.Scope, q string, size int) (*Result, error) {
	if size <= 0 {
		size = defaultSearchSize
	}

	query := buildQuery(scope, q, size)
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(query); err != nil {
		return nil, errors.NewSearchQueryFailedError(err)
	}

	res, err := x.client.Search(
		x.client.Search.WithContext(ctx),
		x.client.Search.WithIndex(x.index),
		x.client.Search.WithBody(&buf),
		x.client.Search.WithIgnoreUnavailable(true),
	)
	if err != nil {
		return nil, errors.NewSearchQueryFailedError(err)
	}
	defer res.Body.Close()

	if res.IsError() {
		raw, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return nil, errors.NewSearchQueryFailedError(fmt.Errorf("%s: %s", res.Status(), raw))
	}

	var payload struct {
		Took int `json:"took"`
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source Document `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return nil, errors.NewSearchQueryFailedError(fmt.Errorf("decode response: %w", err))
	}

	out := &Result{
		Total: payload.Hits.Total.Value,
		Took:  payload.Took,
		Hits:  make([]Document, 0, len(payload.Hits.Hits)),
	}
	for _, h := range payload.Hits.Hits {
		out.Hits = append(out.Hits, h.Source)
	}

	x.logger.Debug("Notification search executed", map[string]interface{}{
		"query": q,
		"total": out.Total,
		"took":  out.Took,
	})
	return out, nil
}

func buildQuery(scope repository.Scope, q string, size int) map[string]interface{} {
	boolQuery := map[string]interface{}{
		"must": []interface{}{
			map[string]interface{}{
				"multi_match": map[string]interface{}{
					"query":  q,
					"fields": []string{"recipient", "title", "body"},
				},
			},
		},
	}
	if !scope.AllTenants {
		boolQuery["filter"] = []interface{}{
			map[string]interface{}{
				"term": map[string]interface{}{"tenant_id": scope.TenantID},
			},
		}
	}
	return map[string]interface{}{
		"size":  size,
		"query": map[string]interface{}{"bool": boolQuery},
		"sort": []interface{}{
			map[string]interface{}{"created_at": map[string]interface{}{"order": "desc"}},
		},
	}
}
