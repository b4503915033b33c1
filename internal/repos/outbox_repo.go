package repos

import (
	"github.com/jmoiron/sqlx"

	"smarttrade/internal/domain"
)

// OutboxRepo is the durable write queue. Enqueue is only ever called by the
// product and sale services on their own transactions; handlers never touch
// it directly.
type OutboxRepo struct{ db *sqlx.DB }

func NewOutboxRepo(db *sqlx.DB) *OutboxRepo { return &OutboxRepo{db: db} }

// Enqueue appends one entry on the caller's transaction. The entry and the
// entity mutation it describes commit together or not at all.
func (r *OutboxRepo) Enqueue(e sqlx.Ext, item domain.OutboxItem) error {
	_, err := e.Exec(`
	  INSERT INTO outbox
	    (id, entity_type, entity_id, operation, payload, created_at, retry_count, last_attempt_at, last_error)
	  VALUES (?,?,?,?,?,?,0,0,'')
	`, item.ID, item.EntityType, item.EntityID, item.Operation, item.Payload, item.CreatedAt)
	return err
}

// ListPending returns every entry in creation order. The drainer is the only
// reader that matters; it applies its own backoff and dead-entry filtering.
func (r *OutboxRepo) ListPending() ([]domain.OutboxItem, error) {
	var out []domain.OutboxItem
	err := r.db.Select(&out, `
	  SELECT id, entity_type, entity_id, operation, payload, created_at,
	         retry_count, last_attempt_at, last_error
	  FROM outbox
	  ORDER BY created_at ASC, rowid ASC`)
	return out, err
}

// Remove deletes an acknowledged entry. Runs on the drainer's ack transaction
// together with the entity's synced flag.
func (r *OutboxRepo) Remove(e sqlx.Ext, id string) error {
	_, err := e.Exec(`DELETE FROM outbox WHERE id = ?`, id)
	return err
}

// IncrementRetry records a failed push attempt.
func (r *OutboxRepo) IncrementRetry(id string, attemptAt int64, cause string) error {
	_, err := r.db.Exec(`
	  UPDATE outbox
	  SET retry_count = retry_count + 1, last_attempt_at = ?, last_error = ?
	  WHERE id = ?`, attemptAt, cause, id)
	return err
}

// CountPending counts entries still eligible for delivery.
func (r *OutboxRepo) CountPending(maxRetries int) (int, error) {
	var n int
	err := r.db.Get(&n, `SELECT COUNT(*) FROM outbox WHERE retry_count < ?`, maxRetries)
	return n, err
}

// CountDead counts entries that exhausted their retries.
func (r *OutboxRepo) CountDead(maxRetries int) (int, error) {
	var n int
	err := r.db.Get(&n, `SELECT COUNT(*) FROM outbox WHERE retry_count >= ?`, maxRetries)
	return n, err
}

// Clear wipes the queue. Administrative and test use only.
func (r *OutboxRepo) Clear() error {
	_, err := r.db.Exec(`DELETE FROM outbox`)
	return err
}
