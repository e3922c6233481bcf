package search

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/sirupsen/logrus"

	"github.com/Malcolm-Mukorera/campus-events-api/internal/domain/entity"
)

// NewESClient creates an Elasticsearch client with sane defaults and optional basic auth.
func NewESClient(addrs []string, username, password string) (*elasticsearch.Client, error) {
	cfg := elasticsearch.Config{
		Addresses: addrs,
		Username:  username,
		Password:  password,
		Transport: &http.Transport{
			MaxIdleConnsPerHost:   10,
			ResponseHeaderTimeout: 5 * time.Second,
			TLSClientConfig:       &tls.Config{MinVersion: tls.VersionTLS12},
			DialContext:           (&net.Dialer{Timeout: 5 * time.Second}).DialContext,
		},
	}
	return elasticsearch.NewClient(cfg)
}

const requestTimeout = 3 * time.Second

// EventIndex keeps event titles and descriptions searchable in Elasticsearch.
type EventIndex struct {
	ES        *elasticsearch.Client
	IndexName string
	Logger    *logrus.Logger
}

func NewEventIndex(es *elasticsearch.Client, index string, logger *logrus.Logger) *EventIndex {
	return &EventIndex{ES: es, IndexName: index, Logger: logger}
}

type eventDocument struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Faculty     string `json:"faculty"`
	Date        string `json:"date"`
}

// Index upserts e.
func (x *EventIndex) Index(ctx context.Context, e *entity.Event) error {
	b, err := json.Marshal(eventDocument{
		ID:          e.ID,
		Title:       e.Title,
		Description: e.Description,
		Category:    string(e.Category),
		Faculty:     e.Faculty,
		Date:        e.Date.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return err
	}
	req := esapi.IndexRequest{Index: x.IndexName, DocumentID: e.ID, Body: bytes.NewReader(b), Refresh: "false"}
	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	res, err := req.Do(c, x.ES)
	if err != nil {
		return fmt.Errorf("es index: %w", err)
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return fmt.Errorf("es index: %s", res.Status())
	}
	return nil
}

// Remove deletes document id; a missing document is not an error.
func (x *EventIndex) Remove(ctx context.Context, id string) error {
	req := esapi.DeleteRequest{Index: x.IndexName, DocumentID: id}
	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	res, err := req.Do(c, x.ES)
	if err != nil {
		return fmt.Errorf("es delete: %w", err)
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("es delete: %s", res.Status())
	}
	return nil
}

// Search runs a multi_match over title and description and returns the
// matching event ids. Any term may match.
func (x *EventIndex) Search(ctx context.Context, q string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 10
	}
	query := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":    strings.TrimSpace(q),
				"fields":   []string{"title^2", "description"},
				"operator": "or",
			},
		},
		"size":    limit,
		"_source": false,
	}
	b, err := json.Marshal(query)
	if err != nil {
		return nil, err
	}

	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	res, err := x.ES.Search(
		x.ES.Search.WithContext(c),
		x.ES.Search.WithIndex(x.IndexName),
		x.ES.Search.WithBody(bytes.NewReader(b)),
	)
	if err != nil {
		return nil, fmt.Errorf("es search: %w", err)
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return nil, fmt.Errorf("es search: %s", res.Status())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID string `json:"_id"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode es search: %w", err)
	}

	ids := make([]string, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		ids = append(ids, h.ID)
	}
	if x.Logger != nil {
		x.Logger.WithFields(logrus.Fields{"query": q, "hits": len(ids)}).Debug("event search")
	}
	return ids, nil
}
