package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/oksasatya/hazard-reporting/internal/domain/entity"
)

const reportMapping = `{
  "mappings": {
    "properties": {
      "id":          {"type": "keyword"},
      "description": {"type": "text"},
      "urgency":     {"type": "keyword"},
      "status":      {"type": "keyword"},
      "location":    {"type": "geo_point"},
      "latitude":    {"type": "double"},
      "longitude":   {"type": "double"},
      "imageUrl":    {"type": "keyword", "index": false},
      "reportedBy":  {"type": "keyword"},
      "assignedTo":  {"type": "keyword"},
      "createdAt":   {"type": "date"},
      "updatedAt":   {"type": "date"},
      "resolvedAt":  {"type": "date"}
    }
  }
}`

// ReportIndex mirrors reports into Elasticsearch for full-text search.
// Postgres stays the source of truth.
type ReportIndex struct {
	es    *elasticsearch.Client
	index string
}

func NewReportIndex(es *elasticsearch.Client, index string) *ReportIndex {
	return &ReportIndex{es: es, index: index}
}

type reportDoc struct {
	*entity.Report
	Location map[string]float64 `json:"location"`
}

// EnsureIndex creates the index with its mapping when missing.
func (x *ReportIndex) EnsureIndex(ctx context.Context) error {
	c, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	res, err := x.es.Indices.Exists([]string{x.index}, x.es.Indices.Exists.WithContext(c))
	if err != nil {
		return err
	}
	_ = res.Body.Close()
	if res.StatusCode == 200 {
		return nil
	}
	res, err = x.es.Indices.Create(x.index,
		x.es.Indices.Create.WithContext(c),
		x.es.Indices.Create.WithBody(strings.NewReader(reportMapping)))
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && !strings.Contains(res.String(), "resource_already_exists_exception") {
		return fmt.Errorf("create index %s: %s", x.index, res.Status())
	}
	return nil
}

func (x *ReportIndex) IndexReport(ctx context.Context, r *entity.Report) error {
	doc := reportDoc{Report: r, Location: map[string]float64{"lat": r.Latitude, "lon": r.Longitude}}
	b, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	req := esapi.IndexRequest{Index: x.index, DocumentID: r.ID, Body: bytes.NewReader(b), Refresh: "false"}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, x.es)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return fmt.Errorf("index report %s: %s", r.ID, res.Status())
	}
	return nil
}

// SearchReports matches q against descriptions, newest first among equal scores.
func (x *ReportIndex) SearchReports(ctx context.Context, q string, size int) ([]*entity.Report, error) {
	query := map[string]any{
		"query": map[string]any{
			"match": map[string]any{
				"description": map[string]any{"query": q, "fuzziness": "AUTO"},
			},
		},
		"sort": []any{"_score", map[string]any{"createdAt": "desc"}},
		"size": size,
	}
	b, _ := json.Marshal(query)

	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := x.es.Search(x.es.Search.WithContext(c), x.es.Search.WithIndex(x.index), x.es.Search.WithBody(bytes.NewReader(b)))
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return nil, fmt.Errorf("search reports: %s", res.Status())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				Source entity.Report `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	out := make([]*entity.Report, 0, len(parsed.Hits.Hits))
	for i := range parsed.Hits.Hits {
		out = append(out, &parsed.Hits.Hits[i].Source)
	}
	return out, nil
}
