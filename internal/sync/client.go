package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"smarttrade/internal/domain"
)

// Remote is the push target for outbox entries. Implementations must treat a
// returned error as "not applied": the drainer will retry the same entry.
type Remote interface {
	Apply(ctx context.Context, item domain.OutboxItem) error
}

// HTTPRemote pushes mutations to a hosted REST backend (PostgREST dialect:
// POST upserts on the table endpoint, DELETE filtered by id).
type HTTPRemote struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewHTTPRemote(baseURL, apiKey string, timeout time.Duration) *HTTPRemote {
	return &HTTPRemote{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

// Remote row shapes. The backend speaks snake_case; local payloads are the
// domain JSON, so each push re-maps the snapshot before sending.
type productRow struct {
	ID                string  `json:"id"`
	Name              string  `json:"name"`
	SKU               *string `json:"sku"`
	Category          *string `json:"category"`
	CostPrice         float64 `json:"cost_price"`
	SellingPrice      float64 `json:"selling_price"`
	StockQuantity     int     `json:"stock_quantity"`
	LowStockThreshold int     `json:"low_stock_threshold"`
	Barcode           *string `json:"barcode"`
	ImageURL          *string `json:"image_url"`
	CreatedAt         int64   `json:"created_at"`
	UpdatedAt         int64   `json:"updated_at"`
}

type saleRow struct {
	ID           string  `json:"id"`
	ProductID    string  `json:"product_id"`
	Quantity     int     `json:"quantity"`
	UnitPrice    float64 `json:"unit_price"`
	CostPrice    float64 `json:"cost_price"`
	TotalRevenue float64 `json:"total_revenue"`
	TotalCost    float64 `json:"total_cost"`
	Profit       float64 `json:"profit"`
	SaleDate     int64   `json:"sale_date"`
	CreatedAt    int64   `json:"created_at"`
}

func (r *HTTPRemote) Apply(ctx context.Context, item domain.OutboxItem) error {
	table := "products"
	if item.EntityType == domain.EntitySale {
		table = "sales"
	}

	switch item.Operation {
	case domain.OpInsert, domain.OpUpdate:
		body, err := remoteBody(item)
		if err != nil {
			return err
		}
		return r.upsert(ctx, table, body)
	case domain.OpDelete:
		return r.delete(ctx, table, item.EntityID)
	default:
		return fmt.Errorf("unknown outbox operation %q", item.Operation)
	}
}

func remoteBody(item domain.OutboxItem) ([]byte, error) {
	switch item.EntityType {
	case domain.EntityProduct:
		var p domain.Product
		if err := json.Unmarshal([]byte(item.Payload), &p); err != nil {
			return nil, fmt.Errorf("decode product payload: %w", err)
		}
		return json.Marshal(productRow{
			ID: p.ID, Name: p.Name,
			SKU: optional(p.SKU), Category: optional(p.Category),
			CostPrice: p.CostPrice, SellingPrice: p.SellingPrice,
			StockQuantity: p.StockQuantity, LowStockThreshold: p.LowStockThreshold,
			Barcode: optional(p.Barcode), ImageURL: optional(p.ImageURL),
			CreatedAt: p.CreatedAt, UpdatedAt: p.UpdatedAt,
		})
	case domain.EntitySale:
		var s domain.Sale
		if err := json.Unmarshal([]byte(item.Payload), &s); err != nil {
			return nil, fmt.Errorf("decode sale payload: %w", err)
		}
		return json.Marshal(saleRow{
			ID: s.ID, ProductID: s.ProductID, Quantity: s.Quantity,
			UnitPrice: s.UnitPrice, CostPrice: s.CostPrice,
			TotalRevenue: s.TotalRevenue, TotalCost: s.TotalCost, Profit: s.Profit,
			SaleDate: s.SaleDate, CreatedAt: s.CreatedAt,
		})
	default:
		return nil, fmt.Errorf("unknown outbox entity type %q", item.EntityType)
	}
}

func (r *HTTPRemote) upsert(ctx context.Context, table string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		r.baseURL+"/rest/v1/"+table, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	// INSERT and UPDATE share upsert semantics: replaying an INSERT after a
	// crash-before-ack must not duplicate the row.
	req.Header.Set("Prefer", "resolution=merge-duplicates")
	return r.do(req)
}

func (r *HTTPRemote) delete(ctx context.Context, table, id string) error {
	u := fmt.Sprintf("%s/rest/v1/%s?id=eq.%s", r.baseURL, table, url.QueryEscape(id))
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, u, nil)
	if err != nil {
		return err
	}
	return r.do(req)
}

func (r *HTTPRemote) do(req *http.Request) error {
	req.Header.Set("apikey", r.apiKey)
	req.Header.Set("Authorization", "Bearer "+r.apiKey)

	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("remote %s %s: status %d: %s",
			req.Method, req.URL.Path, resp.StatusCode, snippet)
	}
	return nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
