package sync_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"smarttrade/internal/domain"
	"smarttrade/internal/sync"
)

type recordedReq struct {
	method string
	path   string
	query  string
	header http.Header
	body   []byte
}

func newRemoteServer(t *testing.T, status int) (*httptest.Server, *[]recordedReq) {
	t.Helper()
	var got []recordedReq
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		got = append(got, recordedReq{
			method: r.Method, path: r.URL.Path, query: r.URL.RawQuery,
			header: r.Header.Clone(), body: body,
		})
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, &got
}

func TestHTTPRemoteUpsertProduct(t *testing.T) {
	srv, got := newRemoteServer(t, http.StatusCreated)
	remote := sync.NewHTTPRemote(srv.URL, "key123", 5*time.Second)

	payload, _ := json.Marshal(domain.Product{
		ID: "prod-1", Name: "Widget", CostPrice: 10, SellingPrice: 15,
		StockQuantity: 20, LowStockThreshold: 5, CreatedAt: 1, UpdatedAt: 2,
	})
	err := remote.Apply(context.Background(), domain.OutboxItem{
		ID: "ob-1", EntityType: domain.EntityProduct, EntityID: "prod-1",
		Operation: domain.OpInsert, Payload: string(payload),
	})
	if err != nil {
		t.Fatal(err)
	}

	req := (*got)[0]
	if req.method != http.MethodPost || req.path != "/rest/v1/products" {
		t.Fatalf("bad request: %s %s", req.method, req.path)
	}
	if req.header.Get("apikey") != "key123" ||
		req.header.Get("Authorization") != "Bearer key123" {
		t.Fatalf("auth headers missing: %v", req.header)
	}
	if req.header.Get("Prefer") != "resolution=merge-duplicates" {
		t.Fatalf("upsert must merge duplicates, got Prefer=%q", req.header.Get("Prefer"))
	}

	// The wire shape is snake_case with empty optionals as null.
	var row map[string]any
	if err := json.Unmarshal(req.body, &row); err != nil {
		t.Fatal(err)
	}
	if row["selling_price"].(float64) != 15 {
		t.Fatalf("bad wire body: %s", req.body)
	}
	if v, present := row["sku"]; !present || v != nil {
		t.Fatalf("empty sku should be null on the wire: %s", req.body)
	}
}

func TestHTTPRemoteDelete(t *testing.T) {
	srv, got := newRemoteServer(t, http.StatusNoContent)
	remote := sync.NewHTTPRemote(srv.URL, "key123", 5*time.Second)

	err := remote.Apply(context.Background(), domain.OutboxItem{
		ID: "ob-1", EntityType: domain.EntityProduct, EntityID: "prod-9",
		Operation: domain.OpDelete, Payload: `{"id":"prod-9"}`,
	})
	if err != nil {
		t.Fatal(err)
	}

	req := (*got)[0]
	if req.method != http.MethodDelete || req.path != "/rest/v1/products" {
		t.Fatalf("bad request: %s %s", req.method, req.path)
	}
	if req.query != "id=eq.prod-9" {
		t.Fatalf("bad filter: %q", req.query)
	}
}

func TestHTTPRemoteSaleTable(t *testing.T) {
	srv, got := newRemoteServer(t, http.StatusCreated)
	remote := sync.NewHTTPRemote(srv.URL, "key123", 5*time.Second)

	payload, _ := json.Marshal(domain.Sale{
		ID: "sale-1", ProductID: "prod-1", Quantity: 2, UnitPrice: 15,
		TotalRevenue: 30, SaleDate: 1, CreatedAt: 1,
	})
	err := remote.Apply(context.Background(), domain.OutboxItem{
		ID: "ob-2", EntityType: domain.EntitySale, EntityID: "sale-1",
		Operation: domain.OpInsert, Payload: string(payload),
	})
	if err != nil {
		t.Fatal(err)
	}
	if (*got)[0].path != "/rest/v1/sales" {
		t.Fatalf("sale routed to %s", (*got)[0].path)
	}
}

func TestHTTPRemoteErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`duplicate key value violates unique constraint`))
	}))
	defer srv.Close()
	remote := sync.NewHTTPRemote(srv.URL, "key123", 5*time.Second)

	payload, _ := json.Marshal(domain.Product{ID: "prod-1", Name: "Widget"})
	err := remote.Apply(context.Background(), domain.OutboxItem{
		EntityType: domain.EntityProduct, EntityID: "prod-1",
		Operation: domain.OpInsert, Payload: string(payload),
	})
	if err == nil {
		t.Fatal("non-2xx must be an error")
	}
	if !strings.Contains(err.Error(), "409") || !strings.Contains(err.Error(), "duplicate key") {
		t.Fatalf("error lacks status and body snippet: %v", err)
	}
}

func TestHTTPRemoteBadPayload(t *testing.T) {
	srv, got := newRemoteServer(t, http.StatusCreated)
	remote := sync.NewHTTPRemote(srv.URL, "key123", 5*time.Second)

	err := remote.Apply(context.Background(), domain.OutboxItem{
		EntityType: domain.EntityProduct, EntityID: "prod-1",
		Operation: domain.OpInsert, Payload: `not json`,
	})
	if err == nil {
		t.Fatal("corrupt payload must fail before any request")
	}
	if len(*got) != 0 {
		t.Fatalf("request sent despite bad payload")
	}
}
