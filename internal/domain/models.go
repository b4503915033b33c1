package domain

// Timestamps are Unix milliseconds throughout so ordering keys generated
// offline compare without timezone handling.

type Product struct {
	ID                string  `db:"id" json:"id"`
	Name              string  `db:"name" json:"name"`
	SKU               string  `db:"sku" json:"sku,omitempty"`
	Category          string  `db:"category" json:"category,omitempty"`
	CostPrice         float64 `db:"cost_price" json:"costPrice"`
	SellingPrice      float64 `db:"selling_price" json:"sellingPrice"`
	StockQuantity     int     `db:"stock_quantity" json:"stockQuantity"`
	LowStockThreshold int     `db:"low_stock_threshold" json:"lowStockThreshold"`
	Barcode           string  `db:"barcode" json:"barcode,omitempty"`
	ImageURL          string  `db:"image_url" json:"imageUrl,omitempty"`
	CreatedAt         int64   `db:"created_at" json:"createdAt"`
	UpdatedAt         int64   `db:"updated_at" json:"updatedAt"`
	Synced            bool    `db:"synced" json:"synced"`
}

// Sale is immutable once written. UnitPrice and CostPrice are snapshots taken
// at sale time; later product edits must not touch them.
type Sale struct {
	ID           string  `db:"id" json:"id"`
	ProductID    string  `db:"product_id" json:"productId"`
	Quantity     int     `db:"quantity" json:"quantity"`
	UnitPrice    float64 `db:"unit_price" json:"unitPrice"`
	CostPrice    float64 `db:"cost_price" json:"costPrice"`
	TotalRevenue float64 `db:"total_revenue" json:"totalRevenue"`
	TotalCost    float64 `db:"total_cost" json:"totalCost"`
	Profit       float64 `db:"profit" json:"profit"`
	SaleDate     int64   `db:"sale_date" json:"saleDate"`
	CreatedAt    int64   `db:"created_at" json:"createdAt"`
	Synced       bool    `db:"synced" json:"synced"`
}

// Outbox entity types and operations.
const (
	EntityProduct = "product"
	EntitySale    = "sale"

	OpInsert = "INSERT"
	OpUpdate = "UPDATE"
	OpDelete = "DELETE"
)

// OutboxItem is one pending remote mutation. The outbox is a log ordered by
// CreatedAt, not a set: entries for the same entity must reach the remote in
// creation order.
type OutboxItem struct {
	ID            string `db:"id" json:"id"`
	EntityType    string `db:"entity_type" json:"entityType"`
	EntityID      string `db:"entity_id" json:"entityId"`
	Operation     string `db:"operation" json:"operation"`
	Payload       string `db:"payload" json:"payload"` // JSON snapshot at mutation time
	CreatedAt     int64  `db:"created_at" json:"createdAt"`
	RetryCount    int    `db:"retry_count" json:"retryCount"`
	LastAttemptAt int64  `db:"last_attempt_at" json:"lastAttemptAt,omitempty"`
	LastError     string `db:"last_error" json:"lastError,omitempty"`
}

type Setting struct {
	Key   string `db:"key" json:"key"`
	Value string `db:"value" json:"value"`
}

// DashboardStats backs the home screen.
type DashboardStats struct {
	TotalProducts   int     `json:"totalProducts"`
	LowStockItems   int     `json:"lowStockItems"`
	OutOfStockItems int     `json:"outOfStockItems"`
	StockValue      float64 `json:"stockValue"`
	TodayRevenue    float64 `json:"todayRevenue"`
	TodayProfit     float64 `json:"todayProfit"`
	TodaySales      int     `json:"todaySales"`
}

type TopProduct struct {
	ProductID   string  `db:"product_id" json:"productId"`
	ProductName string  `db:"product_name" json:"productName"`
	Quantity    int     `db:"quantity" json:"quantity"`
	Revenue     float64 `db:"revenue" json:"revenue"`
}

type SalesReport struct {
	TotalSales   int          `json:"totalSales"`
	ItemsSold    int          `json:"itemsSold"`
	Revenue      float64      `json:"revenue"`
	Cost         float64      `json:"cost"`
	Profit       float64      `json:"profit"`
	ProfitMargin float64      `json:"profitMargin"` // percent of revenue
	TopProducts  []TopProduct `json:"topProducts"`
}

// SyncStatus is what the UI polls instead of watching the drainer directly.
type SyncStatus struct {
	Syncing      bool   `json:"syncing"`
	LastSyncTime int64  `json:"lastSyncTime,omitempty"`
	PendingItems int    `json:"pendingItems"`
	DeadItems    int    `json:"deadItems"`
	LastError    string `json:"lastError,omitempty"`
}
