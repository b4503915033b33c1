package repos

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"

	"smarttrade/internal/domain"
)

type ProductRepo struct{ db *sqlx.DB }

func NewProductRepo(db *sqlx.DB) *ProductRepo { return &ProductRepo{db: db} }

const productCols = `
  id, name, COALESCE(sku,'') AS sku, COALESCE(category,'') AS category,
  cost_price, selling_price, stock_quantity, low_stock_threshold,
  COALESCE(barcode,'') AS barcode, COALESCE(image_url,'') AS image_url,
  created_at, updated_at, synced`

// Insert writes a full product row. Runs on the caller's transaction so the
// matching outbox entry commits with it.
func (r *ProductRepo) Insert(e sqlx.Ext, p domain.Product) error {
	_, err := e.Exec(`
	  INSERT INTO products
	    (id, name, sku, category, cost_price, selling_price, stock_quantity,
	     low_stock_threshold, barcode, image_url, created_at, updated_at, synced)
	  VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)
	`, p.ID, p.Name, nullable(p.SKU), nullable(p.Category), p.CostPrice, p.SellingPrice,
		p.StockQuantity, p.LowStockThreshold, nullable(p.Barcode), nullable(p.ImageURL),
		p.CreatedAt, p.UpdatedAt, p.Synced)
	return err
}

func (r *ProductRepo) Get(id string) (domain.Product, error) {
	return getProduct(r.db, id)
}

// GetTx reads a product inside an open transaction, so the sale recorder sees
// a stock figure no concurrent writer can move under it.
func (r *ProductRepo) GetTx(e sqlx.Ext, id string) (domain.Product, error) {
	return getProduct(e, id)
}

func getProduct(q sqlx.Queryer, id string) (domain.Product, error) {
	var p domain.Product
	err := sqlx.Get(q, &p, `SELECT `+productCols+` FROM products WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Product{}, domain.ErrNotFound
	}
	return p, err
}

// Update rewrites the mutable columns of an existing row.
func (r *ProductRepo) Update(e sqlx.Ext, p domain.Product) error {
	_, err := e.Exec(`
	  UPDATE products SET
	    name = ?, sku = ?, category = ?, cost_price = ?, selling_price = ?,
	    stock_quantity = ?, low_stock_threshold = ?, barcode = ?, image_url = ?,
	    updated_at = ?, synced = ?
	  WHERE id = ?
	`, p.Name, nullable(p.SKU), nullable(p.Category), p.CostPrice, p.SellingPrice,
		p.StockQuantity, p.LowStockThreshold, nullable(p.Barcode), nullable(p.ImageURL),
		p.UpdatedAt, p.Synced, p.ID)
	return err
}

func (r *ProductRepo) Delete(e sqlx.Ext, id string) error {
	res, err := e.Exec(`DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DecrementStock subtracts "by" units only if enough stock exists, and bumps
// updated_at / clears synced in the same statement. Returns false when the
// guard failed (insufficient stock at execution time).
func (r *ProductRepo) DecrementStock(e sqlx.Ext, id string, by int, now int64) (bool, error) {
	res, err := e.Exec(`
	  UPDATE products
	  SET stock_quantity = stock_quantity - ?, updated_at = ?, synced = 0
	  WHERE id = ? AND stock_quantity >= ?
	`, by, now, id, by)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *ProductRepo) ListAll() ([]domain.Product, error) {
	var out []domain.Product
	err := r.db.Select(&out, `
	  SELECT `+productCols+` FROM products ORDER BY created_at DESC`)
	return out, err
}

// Search matches name/sku/barcode case-insensitively, with an optional exact
// category filter, newest first.
func (r *ProductRepo) Search(q, category string) ([]domain.Product, error) {
	where := `(LOWER(name) LIKE ? OR LOWER(sku) LIKE ? OR LOWER(barcode) LIKE ?)`
	pat := "%" + strings.ToLower(q) + "%"
	args := []any{pat, pat, pat}
	if category != "" {
		where += ` AND category = ?`
		args = append(args, category)
	}

	var out []domain.Product
	err := r.db.Select(&out, `
	  SELECT `+productCols+` FROM products
	  WHERE `+where+`
	  ORDER BY created_at DESC`, args...)
	return out, err
}

// ListLowStock returns products running out, most urgent first.
func (r *ProductRepo) ListLowStock() ([]domain.Product, error) {
	var out []domain.Product
	err := r.db.Select(&out, `
	  SELECT `+productCols+` FROM products
	  WHERE stock_quantity > 0 AND stock_quantity <= low_stock_threshold
	  ORDER BY stock_quantity ASC`)
	return out, err
}

func (r *ProductRepo) ListOutOfStock() ([]domain.Product, error) {
	var out []domain.Product
	err := r.db.Select(&out, `
	  SELECT `+productCols+` FROM products
	  WHERE stock_quantity = 0
	  ORDER BY name ASC`)
	return out, err
}

// MarkSynced runs on the drainer's ack transaction.
func (r *ProductRepo) MarkSynced(e sqlx.Ext, id string) error {
	_, err := e.Exec(`UPDATE products SET synced = 1 WHERE id = ?`, id)
	return err
}

// nullable maps "" to NULL so optional columns keep their UNIQUE semantics
// (multiple products without a SKU must not collide).
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
