package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/storekeeper/b2b_orders/internal/models"
)

// IndexOrder writes the order header into the search index, id-keyed so a
// re-index overwrites the previous document. Items are not indexed.
func IndexOrder(ctx context.Context, es *elasticsearch.Client, index string, o *models.Order) error {
	doc := map[string]interface{}{
		"id":             o.ID,
		"order_number":   o.OrderNumber,
		"store_id":       o.StoreID,
		"order_status":   o.OrderStatus,
		"delivery_city":  o.DeliveryCity,
		"delivery_state": o.DeliveryState,
		"total_amount":   o.TotalAmount,
		"created_at":     o.CreatedAt,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(doc); err != nil {
		return fmt.Errorf("index order: %w", err)
	}

	res, err := es.Index(
		index,
		&buf,
		es.Index.WithContext(ctx),
		es.Index.WithDocumentID(strconv.FormatUint(uint64(o.ID), 10)),
	)
	if err != nil {
		return fmt.Errorf("index order: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("index order: %s", res.Status())
	}
	return nil
}

func DeleteOrder(ctx context.Context, es *elasticsearch.Client, index string, id uint) error {
	res, err := es.Delete(
		index,
		strconv.FormatUint(uint64(id), 10),
		es.Delete.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("delete order from index: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("delete order from index: %s", res.Status())
	}
	return nil
}

type OrderHit struct {
	ID            uint    `json:"id"`
	OrderNumber   string  `json:"order_number"`
	StoreID       uint    `json:"store_id"`
	OrderStatus   string  `json:"order_status"`
	DeliveryCity  string  `json:"delivery_city"`
	DeliveryState string  `json:"delivery_state"`
	TotalAmount   float64 `json:"total_amount"`
}

// Search runs a fuzzy multi_match over order number, city, state and status,
// filtered to the caller's tenant.
func Search(ctx context.Context, es *elasticsearch.Client, index string, storeID uint, query string, from, size int) (int64, []OrderHit, error) {
	body := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must": map[string]interface{}{
					"multi_match": map[string]interface{}{
						"query":     query,
						"fields":    []string{"order_number^2", "delivery_city", "delivery_state", "order_status"},
						"fuzziness": "AUTO",
					},
				},
				"filter": map[string]interface{}{
					"term": map[string]interface{}{"store_id": storeID},
				},
			},
		},
		"from": from,
		"size": size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, fmt.Errorf("search orders: %w", err)
	}

	res, err := es.Search(
		es.Search.WithContext(ctx),
		es.Search.WithIndex(index),
		es.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("search orders: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, nil, fmt.Errorf("search orders: %s", res.Status())
	}

	var r struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source OrderHit `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, err
	}

	hits := make([]OrderHit, len(r.Hits.Hits))
	for i, hit := range r.Hits.Hits {
		hits[i] = hit.Source
	}
	return r.Hits.Total.Value, hits, nil
}
