package repos

import (
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"smarttrade/internal/domain"
)

type SaleRepo struct{ db *sqlx.DB }

func NewSaleRepo(db *sqlx.DB) *SaleRepo { return &SaleRepo{db: db} }

// Insert writes a sale row. Always called inside the recording transaction,
// never on its own: a sale without its stock decrement must not exist.
func (r *SaleRepo) Insert(e sqlx.Ext, s domain.Sale) error {
	_, err := e.Exec(`
	  INSERT INTO sales
	    (id, product_id, quantity, unit_price, cost_price, total_revenue,
	     total_cost, profit, sale_date, created_at, synced)
	  VALUES (?,?,?,?,?,?,?,?,?,?,?)
	`, s.ID, s.ProductID, s.Quantity, s.UnitPrice, s.CostPrice, s.TotalRevenue,
		s.TotalCost, s.Profit, s.SaleDate, s.CreatedAt, s.Synced)
	return err
}

func (r *SaleRepo) Get(id string) (domain.Sale, error) {
	var s domain.Sale
	err := r.db.Get(&s, `SELECT * FROM sales WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Sale{}, domain.ErrNotFound
	}
	return s, err
}

func (r *SaleRepo) ListAll() ([]domain.Sale, error) {
	var out []domain.Sale
	err := r.db.Select(&out, `SELECT * FROM sales ORDER BY sale_date DESC`)
	return out, err
}

// ListByDateRange returns sales with from <= sale_date <= to, newest first.
func (r *SaleRepo) ListByDateRange(from, to int64) ([]domain.Sale, error) {
	var out []domain.Sale
	err := r.db.Select(&out, `
	  SELECT * FROM sales
	  WHERE sale_date >= ? AND sale_date <= ?
	  ORDER BY sale_date DESC`, from, to)
	return out, err
}

// CountForProduct backs the delete-policy check: a product with recorded
// sales cannot be removed.
func (r *SaleRepo) CountForProduct(productID string) (int, error) {
	var n int
	err := r.db.Get(&n, `SELECT COUNT(*) FROM sales WHERE product_id = ?`, productID)
	return n, err
}

func (r *SaleRepo) MarkSynced(e sqlx.Ext, id string) error {
	_, err := e.Exec(`UPDATE sales SET synced = 1 WHERE id = ?`, id)
	return err
}
