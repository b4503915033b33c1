package repos

import (
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// OpenDB opens the embedded store and applies the schema. Safe to call on
// every start: all DDL is IF NOT EXISTS. Any error here is fatal to startup;
// there is no usable half-initialized state.
func OpenDB(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// Single connection: one process owns the file, and pragmas apply to
	// every statement. Also keeps :memory: databases coherent in tests.
	db.SetMaxOpenConns(1)
	if err = db.Ping(); err != nil {
		return nil, err
	}

	if err := ensureSchema(db); err != nil {
		return nil, err
	}
	// Default settings (idempotent; safe to run every start)
	if err := seedDefaultSettings(db); err != nil {
		return nil, err
	}

	return db, nil
}

func ensureSchema(db *sqlx.DB) error {
	schema := `
PRAGMA foreign_keys = ON;
PRAGMA busy_timeout = 5000;

-- Products
CREATE TABLE IF NOT EXISTS products(
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  sku TEXT UNIQUE,
  category TEXT,
  cost_price NUMERIC NOT NULL CHECK (cost_price >= 0),
  selling_price NUMERIC NOT NULL CHECK (selling_price >= 0),
  stock_quantity INTEGER NOT NULL DEFAULT 0 CHECK (stock_quantity >= 0),
  low_stock_threshold INTEGER NOT NULL DEFAULT 5 CHECK (low_stock_threshold >= 0),
  barcode TEXT,
  image_url TEXT,
  created_at INTEGER NOT NULL,
  updated_at INTEGER NOT NULL,
  synced INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_products_category ON products(category);
CREATE INDEX IF NOT EXISTS idx_products_stock    ON products(stock_quantity);

-- Sales (immutable after insert; prices are snapshots)
CREATE TABLE IF NOT EXISTS sales(
  id TEXT PRIMARY KEY,
  product_id TEXT NOT NULL REFERENCES products(id),
  quantity INTEGER NOT NULL CHECK (quantity > 0),
  unit_price NUMERIC NOT NULL CHECK (unit_price >= 0),
  cost_price NUMERIC NOT NULL CHECK (cost_price >= 0),
  total_revenue NUMERIC NOT NULL,
  total_cost NUMERIC NOT NULL,
  profit NUMERIC NOT NULL,
  sale_date INTEGER NOT NULL,
  created_at INTEGER NOT NULL,
  synced INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_sales_date    ON sales(sale_date);
CREATE INDEX IF NOT EXISTS idx_sales_product ON sales(product_id);

-- Outbox: ordered log of pending remote mutations
CREATE TABLE IF NOT EXISTS outbox(
  id TEXT PRIMARY KEY,
  entity_type TEXT NOT NULL CHECK (entity_type IN ('product','sale')),
  entity_id TEXT NOT NULL,
  operation TEXT NOT NULL CHECK (operation IN ('INSERT','UPDATE','DELETE')),
  payload TEXT NOT NULL,
  created_at INTEGER NOT NULL,
  retry_count INTEGER NOT NULL DEFAULT 0,
  last_attempt_at INTEGER NOT NULL DEFAULT 0,
  last_error TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_outbox_created ON outbox(created_at);

-- Settings
CREATE TABLE IF NOT EXISTS settings(
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL
);
`
	_, err := db.Exec(schema)
	return err
}

// seedDefaultSettings inserts baseline device settings if absent.
func seedDefaultSettings(db *sqlx.DB) error {
	tx := db.MustBegin()
	defer func() { _ = tx.Rollback() }()

	defaults := map[string]string{
		"currency":            "NGN",
		"low_stock_threshold": "5",
	}
	for k, v := range defaults {
		if _, err := tx.Exec(`
			INSERT INTO settings(key, value) VALUES(?, ?)
			ON CONFLICT(key) DO NOTHING
		`, k, v); err != nil {
			return err
		}
	}

	return tx.Commit()
}
