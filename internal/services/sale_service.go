package services

import (
	"encoding/json"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

	"smarttrade/internal/domain"
	"smarttrade/internal/repos"
)

// SaleInput is what the point-of-sale screen submits.
type SaleInput struct {
	ProductID string  `json:"productId" validate:"required"`
	Quantity  int     `json:"quantity" validate:"gt=0"`
	UnitPrice float64 `json:"unitPrice" validate:"gte=0"`
	SaleDate  int64   `json:"saleDate"` // 0 means now
}

type SaleService struct {
	db       *sqlx.DB
	products *repos.ProductRepo
	sales    *repos.SaleRepo
	outbox   *repos.OutboxRepo
	validate *validator.Validate
}

func NewSaleService(db *sqlx.DB, products *repos.ProductRepo, sales *repos.SaleRepo,
	outbox *repos.OutboxRepo) *SaleService {
	return &SaleService{db: db, products: products, sales: sales, outbox: outbox,
		validate: newValidator()}
}

// Record inserts the sale, decrements the product's stock and appends the two
// outbox entries in a single transaction. The only multi-table write in the
// system: a crash between steps must leave no trace of any of them.
func (s *SaleService) Record(in SaleInput) (domain.Sale, error) {
	if err := s.validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return domain.Sale{}, &domain.ValidationError{Field: fe.Field(), Reason: fe.Tag()}
		}
		return domain.Sale{}, err
	}

	now := nowMillis()
	saleDate := in.SaleDate
	if saleDate == 0 {
		saleDate = now
	}

	var sale domain.Sale
	tx, err := s.db.Beginx()
	if err != nil {
		return domain.Sale{}, err
	}
	defer func() { _ = tx.Rollback() }()

	// Load inside the transaction so the stock check and the decrement see
	// the same row version.
	p, err := s.products.GetTx(tx, in.ProductID)
	if err != nil {
		return domain.Sale{}, err
	}
	if in.Quantity > p.StockQuantity {
		return domain.Sale{}, &domain.InsufficientStockError{
			ProductID: p.ID,
			Requested: in.Quantity,
			Available: p.StockQuantity,
		}
	}

	totalRevenue := float64(in.Quantity) * in.UnitPrice
	totalCost := float64(in.Quantity) * p.CostPrice // snapshot of current cost
	sale = domain.Sale{
		ID:           newID("sale"),
		ProductID:    p.ID,
		Quantity:     in.Quantity,
		UnitPrice:    in.UnitPrice,
		CostPrice:    p.CostPrice,
		TotalRevenue: totalRevenue,
		TotalCost:    totalCost,
		Profit:       totalRevenue - totalCost,
		SaleDate:     saleDate,
		CreatedAt:    now,
		Synced:       false,
	}

	if err := s.sales.Insert(tx, sale); err != nil {
		return domain.Sale{}, err
	}
	ok, err := s.products.DecrementStock(tx, p.ID, in.Quantity, now)
	if err != nil {
		return domain.Sale{}, err
	}
	if !ok {
		// Guard lost a race despite the in-tx read; report what was seen.
		return domain.Sale{}, &domain.InsufficientStockError{
			ProductID: p.ID,
			Requested: in.Quantity,
			Available: p.StockQuantity,
		}
	}

	// Outbox entries in replay order: the new sale, then the product's new
	// stock level.
	if err := s.enqueue(tx, domain.EntitySale, sale.ID, domain.OpInsert, sale); err != nil {
		return domain.Sale{}, err
	}
	p.StockQuantity -= in.Quantity
	p.UpdatedAt = now
	p.Synced = false
	if err := s.enqueue(tx, domain.EntityProduct, p.ID, domain.OpUpdate, p); err != nil {
		return domain.Sale{}, err
	}

	if err := tx.Commit(); err != nil {
		return domain.Sale{}, err
	}
	return sale, nil
}

func (s *SaleService) Get(id string) (domain.Sale, error) { return s.sales.Get(id) }

func (s *SaleService) ListAll() ([]domain.Sale, error) { return s.sales.ListAll() }

func (s *SaleService) ListByDateRange(from, to int64) ([]domain.Sale, error) {
	return s.sales.ListByDateRange(from, to)
}

// ListToday returns sales whose sale_date falls on the current local day.
func (s *SaleService) ListToday() ([]domain.Sale, error) {
	from, to := todayBounds()
	return s.sales.ListByDateRange(from, to)
}

func (s *SaleService) enqueue(tx *sqlx.Tx, entityType, entityID, op string, payload any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return s.outbox.Enqueue(tx, domain.OutboxItem{
		ID:         newID("outbox"),
		EntityType: entityType,
		EntityID:   entityID,
		Operation:  op,
		Payload:    string(b),
		CreatedAt:  nowMillis(),
	})
}
