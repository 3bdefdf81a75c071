// Package search keeps an Elasticsearch index of the catalog.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/elastic/go-elasticsearch/v9/esapi"

	"github.com/Skotchmaster/pcshop/internal/models"
)

type Config struct {
	URL      string
	Username string
	Password string
	Index    string
}

func (c Config) Enabled() bool { return c.URL != "" }

func NewClient(cfg Config) (*elasticsearch.Client, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch: create client: %w", err)
	}
	return client, nil
}

// Ping fails unless the cluster answers its info endpoint.
func Ping(ctx context.Context, client *elasticsearch.Client) error {
	res, err := client.Info(client.Info.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch: info: %w", err)
	}
	defer res.Body.Close()
	return responseError(res, "info")
}

type Index struct {
	es   *elasticsearch.Client
	name string
}

func NewIndex(client *elasticsearch.Client, name string) *Index {
	return &Index{es: client, name: name}
}

type productDoc struct {
	ID       uint    `json:"id"`
	Title    string  `json:"title"`
	Category string  `json:"category,omitempty"`
	Price    float64 `json:"price"`
	ImgName  string  `json:"img_name,omitempty"`
}

const mapping = `{
  "mappings": {
    "properties": {
      "id":       {"type": "long"},
      "title":    {"type": "text", "fields": {"raw": {"type": "keyword"}}},
      "category": {"type": "keyword"},
      "price":    {"type": "scaled_float", "scaling_factor": 100},
      "img_name": {"type": "keyword", "index": false}
    }
  }
}`

// EnsureIndex creates the index with its mapping when it does not exist.
func (i *Index) EnsureIndex(ctx context.Context) error {
	res, err := i.es.Indices.Exists([]string{i.name}, i.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch: exists %s: %w", i.name, err)
	}
	res.Body.Close()
	if res.StatusCode == 200 {
		return nil
	}

	res, err = i.es.Indices.Create(i.name,
		i.es.Indices.Create.WithBody(bytes.NewReader([]byte(mapping))),
		i.es.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch: create %s: %w", i.name, err)
	}
	defer res.Body.Close()
	return responseError(res, "create index")
}

func (i *Index) IndexProduct(ctx context.Context, p *models.Product) error {
	doc := productDoc{ID: p.ID, Title: p.Title, Price: p.Price.InexactFloat64(), ImgName: p.ImgName}
	if p.Category != nil {
		doc.Category = p.Category.Name
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	res, err := i.es.Index(i.name, bytes.NewReader(body),
		i.es.Index.WithDocumentID(strconv.FormatUint(uint64(p.ID), 10)),
		i.es.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch: index product %d: %w", p.ID, err)
	}
	defer res.Body.Close()
	return responseError(res, "index product")
}

func (i *Index) DeleteProduct(ctx context.Context, id uint) error {
	res, err := i.es.Delete(i.name, strconv.FormatUint(uint64(id), 10), i.es.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch: delete product %d: %w", id, err)
	}
	defer res.Body.Close()
	if res.StatusCode == 404 {
		return nil
	}
	return responseError(res, "delete product")
}

func (i *Index) DeleteAll(ctx context.Context) error {
	res, err := i.es.DeleteByQuery([]string{i.name},
		bytes.NewReader([]byte(`{"query":{"match_all":{}}}`)),
		i.es.DeleteByQuery.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch: delete all: %w", err)
	}
	defer res.Body.Close()
	return responseError(res, "delete all")
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			ID string `json:"_id"`
		} `json:"hits"`
	} `json:"hits"`
}

// Search returns the ids of the best matching products, best first.
func (i *Index) Search(ctx context.Context, query string, limit int) ([]uint, error) {
	body, err := json.Marshal(map[string]any{
		"size":    limit,
		"_source": false,
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     query,
				"fields":    []string{"title^2", "category"},
				"fuzziness": "AUTO",
			},
		},
	})
	if err != nil {
		return nil, err
	}

	res, err := i.es.Search(
		i.es.Search.WithIndex(i.name),
		i.es.Search.WithBody(bytes.NewReader(body)),
		i.es.Search.WithContext(ctx),
	)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch: search: %w", err)
	}
	defer res.Body.Close()
	if err := responseError(res, "search"); err != nil {
		return nil, err
	}

	var sr searchResponse
	if err := json.NewDecoder(res.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("elasticsearch: decode search: %w", err)
	}
	ids := make([]uint, 0, len(sr.Hits.Hits))
	for _, h := range sr.Hits.Hits {
		id, err := strconv.ParseUint(h.ID, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, uint(id))
	}
	return ids, nil
}

func responseError(res *esapi.Response, op string) error {
	if !res.IsError() {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
	return fmt.Errorf("elasticsearch: %s: %s: %s", op, res.Status(), bytes.TrimSpace(body))
}
