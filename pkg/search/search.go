// Package search keeps an Elasticsearch index of catalog products for free-text lookup.
package search

import (
	"context"
	"fmt"
	"log"
	"strconv"

	"github.com/olivere/elastic/v7"
)

const maxHits = 1000

// ProductDoc is the indexed shape of a product.
type ProductDoc struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	IsActive    bool   `json:"is_active"`
}

// Index is the product search backend consumed by the catalog.
type Index interface {
	Put(ctx context.Context, doc ProductDoc) error
	Delete(ctx context.Context, id uint) error
	// Search returns the ids of products whose name or description match q.
	Search(ctx context.Context, q string) ([]uint, error)
}

const productMapping = `{
  "mappings": {
    "properties": {
      "id":          {"type": "long"},
      "name":        {"type": "text"},
      "slug":        {"type": "keyword"},
      "description": {"type": "text"},
      "is_active":   {"type": "boolean"}
    }
  }
}`

type Elastic struct {
	client *elastic.Client
	index  string
}

// NewElastic connects to url without sniffing, suitable for single-node and proxied clusters.
func NewElastic(url, index string) (*Elastic, error) {
	client, err := elastic.NewClient(
		elastic.SetURL(url),
		elastic.SetSniff(false),
		elastic.SetHealthcheck(false),
	)
	if err != nil {
		return nil, fmt.Errorf("elastic client: %w", err)
	}
	return &Elastic{client: client, index: index}, nil
}

// EnsureIndex creates the product index with its mapping when missing.
func (e *Elastic) EnsureIndex(ctx context.Context) error {
	exists, err := e.client.IndexExists(e.index).Do(ctx)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	if _, err := e.client.CreateIndex(e.index).BodyString(productMapping).Do(ctx); err != nil {
		return fmt.Errorf("create index %s: %w", e.index, err)
	}
	log.Printf("[Search] created index %s", e.index)
	return nil
}

func (e *Elastic) Put(ctx context.Context, doc ProductDoc) error {
	_, err := e.client.Index().
		Index(e.index).
		Id(strconv.FormatUint(uint64(doc.ID), 10)).
		BodyJson(doc).
		Do(ctx)
	return err
}

func (e *Elastic) Delete(ctx context.Context, id uint) error {
	_, err := e.client.Delete().
		Index(e.index).
		Id(strconv.FormatUint(uint64(id), 10)).
		Do(ctx)
	if elastic.IsNotFound(err) {
		return nil
	}
	return err
}

func (e *Elastic) Search(ctx context.Context, q string) ([]uint, error) {
	res, err := e.client.Search().
		Index(e.index).
		Query(elastic.NewMultiMatchQuery(q, "name^2", "description").Type("best_fields").Fuzziness("AUTO")).
		FetchSource(false).
		Size(maxHits).
		Do(ctx)
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(res.Hits.Hits))
	for _, hit := range res.Hits.Hits {
		id, err := strconv.ParseUint(hit.Id, 10, 64)
		if err != nil {
			log.Printf("[Search] skipping hit with non-numeric id %q", hit.Id)
			continue
		}
		ids = append(ids, uint(id))
	}
	return ids, nil
}
