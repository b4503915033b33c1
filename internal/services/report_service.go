package services

import (
	"time"

	"github.com/jmoiron/sqlx"

	"smarttrade/internal/domain"
)

// ReportService aggregates over products and sales for the dashboard and the
// reports screen. Read-only; queries the store directly.
type ReportService struct{ db *sqlx.DB }

func NewReportService(db *sqlx.DB) *ReportService { return &ReportService{db: db} }

func (r *ReportService) DashboardStats() (domain.DashboardStats, error) {
	var stats domain.DashboardStats

	if err := r.db.Get(&stats.TotalProducts,
		`SELECT COUNT(*) FROM products`); err != nil {
		return stats, err
	}
	if err := r.db.Get(&stats.LowStockItems, `
	  SELECT COUNT(*) FROM products
	  WHERE stock_quantity > 0 AND stock_quantity <= low_stock_threshold`); err != nil {
		return stats, err
	}
	if err := r.db.Get(&stats.OutOfStockItems,
		`SELECT COUNT(*) FROM products WHERE stock_quantity = 0`); err != nil {
		return stats, err
	}
	if err := r.db.Get(&stats.StockValue,
		`SELECT COALESCE(SUM(stock_quantity * cost_price), 0) FROM products`); err != nil {
		return stats, err
	}

	from, to := todayBounds()
	row := struct {
		Count   int     `db:"sales_count"`
		Revenue float64 `db:"revenue"`
		Profit  float64 `db:"profit"`
	}{}
	if err := r.db.Get(&row, `
	  SELECT COUNT(*) AS sales_count,
	         COALESCE(SUM(total_revenue), 0) AS revenue,
	         COALESCE(SUM(profit), 0) AS profit
	  FROM sales WHERE sale_date >= ? AND sale_date <= ?`, from, to); err != nil {
		return stats, err
	}
	stats.TodaySales = row.Count
	stats.TodayRevenue = row.Revenue
	stats.TodayProfit = row.Profit

	return stats, nil
}

// SalesReport aggregates the period [from, to] inclusive.
func (r *ReportService) SalesReport(from, to int64) (domain.SalesReport, error) {
	var rep domain.SalesReport

	row := struct {
		Sales   int     `db:"sales_count"`
		Items   int     `db:"items_sold"`
		Revenue float64 `db:"revenue"`
		Cost    float64 `db:"cost"`
		Profit  float64 `db:"profit"`
	}{}
	if err := r.db.Get(&row, `
	  SELECT COUNT(*) AS sales_count,
	         COALESCE(SUM(quantity), 0) AS items_sold,
	         COALESCE(SUM(total_revenue), 0) AS revenue,
	         COALESCE(SUM(total_cost), 0) AS cost,
	         COALESCE(SUM(profit), 0) AS profit
	  FROM sales WHERE sale_date >= ? AND sale_date <= ?`, from, to); err != nil {
		return rep, err
	}
	rep.TotalSales = row.Sales
	rep.ItemsSold = row.Items
	rep.Revenue = row.Revenue
	rep.Cost = row.Cost
	rep.Profit = row.Profit
	if rep.Revenue > 0 {
		rep.ProfitMargin = rep.Profit / rep.Revenue * 100
	}

	// Top products by revenue; products deleted since keep their id but lose
	// their name (delete policy makes that rare).
	err := r.db.Select(&rep.TopProducts, `
	  SELECT s.product_id,
	         COALESCE(p.name, '(deleted)') AS product_name,
	         SUM(s.quantity) AS quantity,
	         SUM(s.total_revenue) AS revenue
	  FROM sales s
	  LEFT JOIN products p ON p.id = s.product_id
	  WHERE s.sale_date >= ? AND s.sale_date <= ?
	  GROUP BY s.product_id
	  ORDER BY revenue DESC
	  LIMIT 5`, from, to)
	return rep, err
}

// todayBounds returns the current local day as [start, end] in epoch ms.
func todayBounds() (int64, int64) {
	now := time.Now()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return start.UnixMilli(), start.Add(24*time.Hour).UnixMilli() - 1
}
