package services

import (
	"encoding/json"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

	"smarttrade/internal/domain"
	"smarttrade/internal/repos"
)

// ProductDraft is the caller-supplied shape for a new product.
type ProductDraft struct {
	Name              string  `json:"name" validate:"required,min=1,max=120"`
	SKU               string  `json:"sku" validate:"omitempty,max=64"`
	Category          string  `json:"category" validate:"omitempty,max=50"`
	CostPrice         float64 `json:"costPrice" validate:"gte=0"`
	SellingPrice      float64 `json:"sellingPrice" validate:"gte=0"`
	StockQuantity     int     `json:"stockQuantity" validate:"gte=0"`
	LowStockThreshold int     `json:"lowStockThreshold" validate:"gte=0"`
	Barcode           string  `json:"barcode" validate:"omitempty,max=64"`
	ImageURL          string  `json:"imageUrl" validate:"omitempty,max=500"`
}

// ProductPatch carries partial edits; nil means "leave unchanged".
type ProductPatch struct {
	Name              *string  `json:"name"`
	SKU               *string  `json:"sku"`
	Category          *string  `json:"category"`
	CostPrice         *float64 `json:"costPrice"`
	SellingPrice      *float64 `json:"sellingPrice"`
	StockQuantity     *int     `json:"stockQuantity"`
	LowStockThreshold *int     `json:"lowStockThreshold"`
	Barcode           *string  `json:"barcode"`
	ImageURL          *string  `json:"imageUrl"`
}

type ProductService struct {
	db       *sqlx.DB
	products *repos.ProductRepo
	sales    *repos.SaleRepo
	outbox   *repos.OutboxRepo
	settings *SettingsService
	validate *validator.Validate
}

func NewProductService(db *sqlx.DB, products *repos.ProductRepo, sales *repos.SaleRepo,
	outbox *repos.OutboxRepo, settings *SettingsService) *ProductService {
	return &ProductService{
		db:       db,
		products: products,
		sales:    sales,
		outbox:   outbox,
		settings: settings,
		validate: newValidator(),
	}
}

// Create persists the product and its INSERT outbox entry in one transaction.
func (s *ProductService) Create(draft ProductDraft) (domain.Product, error) {
	if err := s.checkValid(draft); err != nil {
		return domain.Product{}, err
	}

	now := nowMillis()
	p := domain.Product{
		ID:                newID("prod"),
		Name:              draft.Name,
		SKU:               draft.SKU,
		Category:          draft.Category,
		CostPrice:         draft.CostPrice,
		SellingPrice:      draft.SellingPrice,
		StockQuantity:     draft.StockQuantity,
		LowStockThreshold: draft.LowStockThreshold,
		Barcode:           draft.Barcode,
		ImageURL:          draft.ImageURL,
		CreatedAt:         now,
		UpdatedAt:         now,
		Synced:            false,
	}
	if p.LowStockThreshold == 0 {
		p.LowStockThreshold = s.settings.LowStockThreshold()
	}

	err := s.inTx(func(tx *sqlx.Tx) error {
		if err := s.products.Insert(tx, p); err != nil {
			return err
		}
		return s.enqueue(tx, domain.EntityProduct, p.ID, domain.OpInsert, p)
	})
	if err != nil {
		return domain.Product{}, err
	}
	return p, nil
}

func (s *ProductService) Get(id string) (domain.Product, error) {
	return s.products.Get(id)
}

func (s *ProductService) ListAll() ([]domain.Product, error) {
	return s.products.ListAll()
}

// Update merges the patch onto the stored row, bumps updated_at, resets
// synced and appends an UPDATE outbox entry, all in one transaction.
func (s *ProductService) Update(id string, patch ProductPatch) (domain.Product, error) {
	p, err := s.products.Get(id)
	if err != nil {
		return domain.Product{}, err
	}

	applyPatch(&p, patch)
	if err := s.checkValid(ProductDraft{
		Name: p.Name, SKU: p.SKU, Category: p.Category,
		CostPrice: p.CostPrice, SellingPrice: p.SellingPrice,
		StockQuantity: p.StockQuantity, LowStockThreshold: p.LowStockThreshold,
		Barcode: p.Barcode, ImageURL: p.ImageURL,
	}); err != nil {
		return domain.Product{}, err
	}
	p.UpdatedAt = nowMillis()
	p.Synced = false

	err = s.inTx(func(tx *sqlx.Tx) error {
		if err := s.products.Update(tx, p); err != nil {
			return err
		}
		return s.enqueue(tx, domain.EntityProduct, p.ID, domain.OpUpdate, p)
	})
	if err != nil {
		return domain.Product{}, err
	}
	return p, nil
}

// Delete removes the product unless historical sales still reference it.
// Sales keep price snapshots but reports still join on the product row, so a
// referenced product is rejected rather than orphaned.
func (s *ProductService) Delete(id string) error {
	if _, err := s.products.Get(id); err != nil {
		return err
	}
	n, err := s.sales.CountForProduct(id)
	if err != nil {
		return err
	}
	if n > 0 {
		return domain.ErrProductHasSales
	}

	return s.inTx(func(tx *sqlx.Tx) error {
		if err := s.products.Delete(tx, id); err != nil {
			return err
		}
		return s.enqueue(tx, domain.EntityProduct, id, domain.OpDelete, map[string]string{"id": id})
	})
}

func (s *ProductService) Search(q, category string) ([]domain.Product, error) {
	return s.products.Search(q, category)
}

func (s *ProductService) ListLowStock() ([]domain.Product, error) {
	return s.products.ListLowStock()
}

func (s *ProductService) ListOutOfStock() ([]domain.Product, error) {
	return s.products.ListOutOfStock()
}

func (s *ProductService) checkValid(draft ProductDraft) error {
	if err := s.validate.Struct(draft); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return &domain.ValidationError{Field: fe.Field(), Reason: fe.Tag()}
		}
		return err
	}
	return nil
}

func (s *ProductService) enqueue(tx *sqlx.Tx, entityType, entityID, op string, payload any) error {
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

func (s *ProductService) inTx(fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.Beginx()
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func applyPatch(p *domain.Product, patch ProductPatch) {
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.SKU != nil {
		p.SKU = *patch.SKU
	}
	if patch.Category != nil {
		p.Category = *patch.Category
	}
	if patch.CostPrice != nil {
		p.CostPrice = *patch.CostPrice
	}
	if patch.SellingPrice != nil {
		p.SellingPrice = *patch.SellingPrice
	}
	if patch.StockQuantity != nil {
		p.StockQuantity = *patch.StockQuantity
	}
	if patch.LowStockThreshold != nil {
		p.LowStockThreshold = *patch.LowStockThreshold
	}
	if patch.Barcode != nil {
		p.Barcode = *patch.Barcode
	}
	if patch.ImageURL != nil {
		p.ImageURL = *patch.ImageURL
	}
}
