package repos_test

import (
	"testing"

	"github.com/jmoiron/sqlx"

	"smarttrade/internal/domain"
	"smarttrade/internal/repos"
)

func memdb(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func enqueue(t *testing.T, db *sqlx.DB, outbox *repos.OutboxRepo, item domain.OutboxItem) {
	t.Helper()
	tx := db.MustBegin()
	if err := outbox.Enqueue(tx, item); err != nil {
		t.Fatal(err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatal(err)
	}
}

func TestOutboxFIFOOrder(t *testing.T) {
	db := memdb(t)
	outbox := repos.NewOutboxRepo(db)

	// Same created_at on purpose: insertion order must still win (a sale
	// enqueues two entries in the same millisecond).
	enqueue(t, db, outbox, domain.OutboxItem{
		ID: "ob-a", EntityType: "sale", EntityID: "sale-1",
		Operation: "INSERT", Payload: "{}", CreatedAt: 100,
	})
	enqueue(t, db, outbox, domain.OutboxItem{
		ID: "ob-b", EntityType: "product", EntityID: "prod-1",
		Operation: "UPDATE", Payload: "{}", CreatedAt: 100,
	})
	enqueue(t, db, outbox, domain.OutboxItem{
		ID: "ob-c", EntityType: "product", EntityID: "prod-1",
		Operation: "UPDATE", Payload: "{}", CreatedAt: 50,
	})

	items, err := outbox.ListPending()
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 3 {
		t.Fatalf("want 3 items, got %d", len(items))
	}
	// ob-c has the earliest created_at; ob-a and ob-b tie and keep insert order.
	if items[0].ID != "ob-c" || items[1].ID != "ob-a" || items[2].ID != "ob-b" {
		t.Fatalf("bad order: %s, %s, %s", items[0].ID, items[1].ID, items[2].ID)
	}
}

func TestOutboxRetryAndRemove(t *testing.T) {
	db := memdb(t)
	outbox := repos.NewOutboxRepo(db)

	enqueue(t, db, outbox, domain.OutboxItem{
		ID: "ob-1", EntityType: "product", EntityID: "prod-1",
		Operation: "INSERT", Payload: "{}", CreatedAt: 1,
	})

	if err := outbox.IncrementRetry("ob-1", 123, "connection refused"); err != nil {
		t.Fatal(err)
	}
	items, _ := outbox.ListPending()
	if items[0].RetryCount != 1 || items[0].LastAttemptAt != 123 {
		t.Fatalf("retry not recorded: %+v", items[0])
	}
	if items[0].LastError != "connection refused" {
		t.Fatalf("want failure cause, got %q", items[0].LastError)
	}

	pending, _ := outbox.CountPending(3)
	if pending != 1 {
		t.Fatalf("want 1 pending, got %d", pending)
	}
	if err := outbox.IncrementRetry("ob-1", 124, "still down"); err != nil {
		t.Fatal(err)
	}
	if err := outbox.IncrementRetry("ob-1", 125, "still down"); err != nil {
		t.Fatal(err)
	}
	dead, _ := outbox.CountDead(3)
	if dead != 1 {
		t.Fatalf("want 1 dead after 3 retries, got %d", dead)
	}

	tx := db.MustBegin()
	if err := outbox.Remove(tx, "ob-1"); err != nil {
		t.Fatal(err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatal(err)
	}
	items, _ = outbox.ListPending()
	if len(items) != 0 {
		t.Fatalf("want empty outbox, got %d items", len(items))
	}
}

func TestOutboxClear(t *testing.T) {
	db := memdb(t)
	outbox := repos.NewOutboxRepo(db)

	for _, id := range []string{"ob-1", "ob-2"} {
		enqueue(t, db, outbox, domain.OutboxItem{
			ID: id, EntityType: "product", EntityID: "prod-1",
			Operation: "UPDATE", Payload: "{}", CreatedAt: 1,
		})
	}
	if err := outbox.Clear(); err != nil {
		t.Fatal(err)
	}
	items, _ := outbox.ListPending()
	if len(items) != 0 {
		t.Fatalf("clear left %d items", len(items))
	}
}
