package services_test

import (
	"errors"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // pure-Go SQLite driver

	"smarttrade/internal/domain"
	"smarttrade/internal/repos"
	"smarttrade/internal/services"
)

type fixture struct {
	db       *sqlx.DB
	products *services.ProductService
	sales    *services.SaleService
	outbox   *repos.OutboxRepo
	settings *services.SettingsService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })

	productRepo := repos.NewProductRepo(db)
	saleRepo := repos.NewSaleRepo(db)
	outboxRepo := repos.NewOutboxRepo(db)
	settingsSvc := services.NewSettingsService(repos.NewSettingsRepo(db))

	return &fixture{
		db:       db,
		products: services.NewProductService(db, productRepo, saleRepo, outboxRepo, settingsSvc),
		sales:    services.NewSaleService(db, productRepo, saleRepo, outboxRepo),
		outbox:   outboxRepo,
		settings: settingsSvc,
	}
}

func widgetDraft() services.ProductDraft {
	return services.ProductDraft{
		Name:              "Widget",
		CostPrice:         10,
		SellingPrice:      15,
		StockQuantity:     20,
		LowStockThreshold: 5,
	}
}

func TestProductCreateRoundTrip(t *testing.T) {
	f := newFixture(t)

	created, err := f.products.Create(widgetDraft())
	if err != nil {
		t.Fatal(err)
	}
	if created.ID == "" || created.Synced {
		t.Fatalf("bad created product: %+v", created)
	}

	got, err := f.products.Get(created.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got != created {
		t.Fatalf("round trip mismatch:\n  created %+v\n  got     %+v", created, got)
	}

	items, err := f.outbox.ListPending()
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 {
		t.Fatalf("want exactly 1 outbox entry, got %d", len(items))
	}
	if items[0].Operation != domain.OpInsert || items[0].EntityID != created.ID {
		t.Fatalf("bad outbox entry: %+v", items[0])
	}
}

func TestProductCreateValidation(t *testing.T) {
	f := newFixture(t)

	cases := []services.ProductDraft{
		{Name: "", CostPrice: 1, SellingPrice: 2},
		{Name: "Neg cost", CostPrice: -1, SellingPrice: 2},
		{Name: "Neg stock", CostPrice: 1, SellingPrice: 2, StockQuantity: -3},
	}
	for _, draft := range cases {
		_, err := f.products.Create(draft)
		var verr *domain.ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("draft %+v: want ValidationError, got %v", draft, err)
		}
	}

	// Nothing may be written for rejected drafts.
	items, _ := f.outbox.ListPending()
	if len(items) != 0 {
		t.Fatalf("validation failures wrote %d outbox entries", len(items))
	}
}

func TestProductDefaultThresholdFromSettings(t *testing.T) {
	f := newFixture(t)
	if err := f.settings.Set("low_stock_threshold", "8"); err != nil {
		t.Fatal(err)
	}

	draft := widgetDraft()
	draft.LowStockThreshold = 0
	p, err := f.products.Create(draft)
	if err != nil {
		t.Fatal(err)
	}
	if p.LowStockThreshold != 8 {
		t.Fatalf("want device default 8, got %d", p.LowStockThreshold)
	}
}

func TestProductUpdateOutboxOrder(t *testing.T) {
	f := newFixture(t)
	p, err := f.products.Create(widgetDraft())
	if err != nil {
		t.Fatal(err)
	}

	price1, price2 := 17.0, 19.0
	if _, err := f.products.Update(p.ID, services.ProductPatch{SellingPrice: &price1}); err != nil {
		t.Fatal(err)
	}
	upd2, err := f.products.Update(p.ID, services.ProductPatch{SellingPrice: &price2})
	if err != nil {
		t.Fatal(err)
	}
	if upd2.SellingPrice != 19 || upd2.Synced {
		t.Fatalf("bad second update: %+v", upd2)
	}

	items, _ := f.outbox.ListPending()
	if len(items) != 3 {
		t.Fatalf("want INSERT + 2 UPDATEs, got %d entries", len(items))
	}
	if items[1].Operation != domain.OpUpdate || items[2].Operation != domain.OpUpdate {
		t.Fatalf("bad ops: %s, %s", items[1].Operation, items[2].Operation)
	}
	// Creation order is replay order: the later update must be last.
	if items[1].CreatedAt > items[2].CreatedAt {
		t.Fatalf("updates out of order: %d > %d", items[1].CreatedAt, items[2].CreatedAt)
	}
}

func TestProductUpdateNotFound(t *testing.T) {
	f := newFixture(t)
	name := "Ghost"
	_, err := f.products.Update("prod-missing", services.ProductPatch{Name: &name})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestProductDeletePolicy(t *testing.T) {
	f := newFixture(t)
	p, err := f.products.Create(widgetDraft())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.sales.Record(services.SaleInput{ProductID: p.ID, Quantity: 1, UnitPrice: 15}); err != nil {
		t.Fatal(err)
	}

	// Referenced by a sale: delete must be rejected.
	if err := f.products.Delete(p.ID); !errors.Is(err, domain.ErrProductHasSales) {
		t.Fatalf("want ErrProductHasSales, got %v", err)
	}

	// A product with no sales deletes cleanly and enqueues a DELETE entry.
	p2, err := f.products.Create(services.ProductDraft{Name: "Gadget", CostPrice: 1, SellingPrice: 2})
	if err != nil {
		t.Fatal(err)
	}
	if err := f.products.Delete(p2.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := f.products.Get(p2.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("deleted product still readable: %v", err)
	}
	items, _ := f.outbox.ListPending()
	last := items[len(items)-1]
	if last.Operation != domain.OpDelete || last.EntityID != p2.ID {
		t.Fatalf("missing DELETE outbox entry, last = %+v", last)
	}
}

func TestProductSearch(t *testing.T) {
	f := newFixture(t)

	drafts := []services.ProductDraft{
		{Name: "Blue Widget", SKU: "BW-1", Category: "Toys", CostPrice: 1, SellingPrice: 2},
		{Name: "Red Widget", Category: "Toys", CostPrice: 1, SellingPrice: 2},
		{Name: "Lamp", Barcode: "4009900", Category: "Home", CostPrice: 1, SellingPrice: 2},
	}
	for _, d := range drafts {
		if _, err := f.products.Create(d); err != nil {
			t.Fatal(err)
		}
	}

	out, err := f.products.Search("widget", "")
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 2 {
		t.Fatalf("want 2 widgets, got %d", len(out))
	}

	out, _ = f.products.Search("widget", "Home")
	if len(out) != 0 {
		t.Fatalf("category filter ignored, got %d", len(out))
	}

	// Barcode substring matches too.
	out, _ = f.products.Search("400990", "")
	if len(out) != 1 || out[0].Name != "Lamp" {
		t.Fatalf("barcode search failed: %+v", out)
	}
}

func TestLowAndOutOfStockLists(t *testing.T) {
	f := newFixture(t)

	mk := func(name string, stock int) {
		t.Helper()
		d := services.ProductDraft{Name: name, CostPrice: 1, SellingPrice: 2,
			StockQuantity: stock, LowStockThreshold: 5}
		if _, err := f.products.Create(d); err != nil {
			t.Fatal(err)
		}
	}
	mk("Plenty", 20)
	mk("Low3", 3)
	mk("Low1", 1)
	mk("Gone", 0)

	low, err := f.products.ListLowStock()
	if err != nil {
		t.Fatal(err)
	}
	// Ascending by stock: most urgent first; zero-stock rows excluded.
	if len(low) != 2 || low[0].Name != "Low1" || low[1].Name != "Low3" {
		t.Fatalf("bad low stock list: %+v", low)
	}

	out, err := f.products.ListOutOfStock()
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 || out[0].Name != "Gone" {
		t.Fatalf("bad out-of-stock list: %+v", out)
	}
}
