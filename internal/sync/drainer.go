package sync

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"

	"smarttrade/internal/domain"
	applog "smarttrade/internal/log"
	"smarttrade/internal/repos"
	"smarttrade/internal/services"
)

// ErrRemoteDisabled is returned by DrainOnce when no remote backend is
// configured. Local-first operation continues regardless.
var ErrRemoteDisabled = errors.New("remote sync not configured")

// maxBackoff caps the exponential retry delay per entry.
const maxBackoff = 10 * time.Minute

// Drainer consumes the outbox: strictly in creation order per entity, one
// entry at a time, deleting entries only after the remote acknowledged them.
// There is no persisted in-flight state; a kill mid-drain leaves entries
// pending and the next pass retries them.
type Drainer struct {
	db       *sqlx.DB
	outbox   *repos.OutboxRepo
	products *repos.ProductRepo
	sales    *repos.SaleRepo
	settings *services.SettingsService
	remote   Remote

	interval   time.Duration
	maxRetries int
	retryDelay time.Duration

	drainMu sync.Mutex // serializes passes; concurrent triggers queue up

	stateMu  sync.Mutex
	syncing  bool
	lastSync int64
	lastErr  string
}

type Options struct {
	Interval   time.Duration
	MaxRetries int
	RetryDelay time.Duration
}

func NewDrainer(db *sqlx.DB, outbox *repos.OutboxRepo, products *repos.ProductRepo,
	sales *repos.SaleRepo, settings *services.SettingsService, remote Remote,
	opts Options) *Drainer {
	if opts.Interval <= 0 {
		opts.Interval = 5 * time.Minute
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 3
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 2 * time.Second
	}
	return &Drainer{
		db:         db,
		outbox:     outbox,
		products:   products,
		sales:      sales,
		settings:   settings,
		remote:     remote,
		interval:   opts.Interval,
		maxRetries: opts.MaxRetries,
		retryDelay: opts.RetryDelay,
	}
}

// Run drains on a timer until ctx is cancelled. Meant for a background
// goroutine; network stalls are bounded by the remote client's timeout so a
// slow push cannot starve the loop forever.
func (d *Drainer) Run(ctx context.Context) {
	interval := d.settings.SyncInterval(d.interval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	applog.Background("sync.start", map[string]any{"interval": interval.String()})
	for {
		select {
		case <-ctx.Done():
			applog.Background("sync.stop", nil)
			return
		case <-ticker.C:
			if n, err := d.DrainOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
				applog.BackgroundError("sync.drain", err, map[string]any{"pushed": n})
			}
		}
	}
}

// DrainOnce runs a single pass over the queue. Safe to call concurrently
// with Run: a mutex serializes passes, so entries can never be delivered out
// of order by competing invocations.
func (d *Drainer) DrainOnce(ctx context.Context) (int, error) {
	if d.remote == nil {
		return 0, ErrRemoteDisabled
	}

	d.drainMu.Lock()
	defer d.drainMu.Unlock()
	d.setSyncing(true)
	defer d.setSyncing(false)

	items, err := d.outbox.ListPending()
	if err != nil {
		return 0, err
	}
	maxRetries := d.settings.SyncMaxRetries(d.maxRetries)

	// Once an entry for an entity fails or is skipped, later entries for the
	// same entity must wait: an UPDATE may not overtake its INSERT.
	blocked := make(map[string]bool)
	pushed := 0
	var firstErr error

	for _, item := range items {
		if ctx.Err() != nil {
			return pushed, ctx.Err()
		}
		key := item.EntityType + "/" + item.EntityID
		if blocked[key] {
			continue
		}
		if item.RetryCount >= maxRetries {
			// Dead entry: kept and surfaced via Status, never silently
			// dropped. Blocks younger entries for the same entity.
			blocked[key] = true
			continue
		}
		if !d.eligible(item) {
			blocked[key] = true
			continue
		}

		if err := d.remote.Apply(ctx, item); err != nil {
			now := time.Now().UnixMilli()
			if ierr := d.outbox.IncrementRetry(item.ID, now, err.Error()); ierr != nil {
				return pushed, ierr
			}
			blocked[key] = true
			if firstErr == nil {
				firstErr = err
			}
			d.setLastErr(err.Error())
			applog.BackgroundError("sync.push", err, map[string]any{
				"entry": item.ID, "entity": key, "op": item.Operation,
				"retry": item.RetryCount + 1,
			})
			continue
		}

		if err := d.ack(item); err != nil {
			// Local storage failure; the entry stays and is retried, which
			// at worst re-pushes an idempotent upsert.
			return pushed, err
		}
		pushed++
	}

	d.markSynced()
	if pushed > 0 {
		applog.Background("sync.drained", map[string]any{"pushed": pushed})
	}
	return pushed, firstErr
}

// ack removes the delivered entry and flips the entity's synced flag in one
// transaction, so a reader never sees the entry gone without the flag set.
func (d *Drainer) ack(item domain.OutboxItem) error {
	tx, err := d.db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := d.outbox.Remove(tx, item.ID); err != nil {
		return err
	}
	if item.Operation != domain.OpDelete {
		switch item.EntityType {
		case domain.EntityProduct:
			err = d.products.MarkSynced(tx, item.EntityID)
		case domain.EntitySale:
			err = d.sales.MarkSynced(tx, item.EntityID)
		}
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// eligible applies exponential backoff per entry: retry n waits
// retryDelay * 2^(n-1) after the last attempt, capped at maxBackoff.
func (d *Drainer) eligible(item domain.OutboxItem) bool {
	if item.RetryCount == 0 {
		return true
	}
	delay := d.retryDelay << (item.RetryCount - 1)
	if delay > maxBackoff || delay <= 0 {
		delay = maxBackoff
	}
	return time.Now().UnixMilli() >= item.LastAttemptAt+delay.Milliseconds()
}

// Status reports queue health for the UI layer.
func (d *Drainer) Status() (domain.SyncStatus, error) {
	maxRetries := d.settings.SyncMaxRetries(d.maxRetries)
	pending, err := d.outbox.CountPending(maxRetries)
	if err != nil {
		return domain.SyncStatus{}, err
	}
	dead, err := d.outbox.CountDead(maxRetries)
	if err != nil {
		return domain.SyncStatus{}, err
	}

	d.stateMu.Lock()
	defer d.stateMu.Unlock()
	return domain.SyncStatus{
		Syncing:      d.syncing,
		LastSyncTime: d.lastSync,
		PendingItems: pending,
		DeadItems:    dead,
		LastError:    d.lastErr,
	}, nil
}

func (d *Drainer) setSyncing(v bool) {
	d.stateMu.Lock()
	d.syncing = v
	d.stateMu.Unlock()
}

func (d *Drainer) setLastErr(msg string) {
	d.stateMu.Lock()
	d.lastErr = msg
	d.stateMu.Unlock()
}

func (d *Drainer) markSynced() {
	d.stateMu.Lock()
	d.lastSync = time.Now().UnixMilli()
	d.stateMu.Unlock()
}
