package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"posledger/backend/internal/domain"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrCategoryInUse     = errors.New("category in use")
	ErrConflict          = errors.New("conflict")
	ErrInvalidInput      = errors.New("invalid input")
)

// InsufficientStockError reports the first cart line that could not be served.
type InsufficientStockError struct {
	ProductName string
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("Not enough stock for %s. Available: %d", e.ProductName, e.Available)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

type CategoryInUseError struct {
	Count int
}

func (e *CategoryInUseError) Error() string {
	return fmt.Sprintf("cannot delete category: %d products are using this category", e.Count)
}

func (e *CategoryInUseError) Unwrap() error { return ErrCategoryInUse }

type ProductFilter struct {
	Barcode  string
	LowStock bool
}

// ProductUpdate is a full product row to write back. StockQuantity is only
// written when SetStock is true; otherwise the stored count is kept as is, so
// sales committed since the row was read are not undone.
type ProductUpdate struct {
	Product  domain.Product
	SetStock bool
}

type CustomerFilter struct {
	Search string
	Skip   int
	Limit  int
}

// Tx is the unit of work used by the sale path. Everything written through a
// Tx becomes visible together when WithinTx returns nil, and not at all
// otherwise.
type Tx interface {
	GetCustomerForUpdate(ctx context.Context, tenantID int64, id int64) (*domain.Customer, error)
	// LockProducts returns the tenant's products among ids, locked until the
	// unit of work ends. Ids that do not resolve are absent from the map.
	LockProducts(ctx context.Context, tenantID int64, ids []int64) (map[int64]domain.Product, error)
	DecrementStock(ctx context.Context, tenantID int64, productID int64, qty int) error
	InsertTransaction(ctx context.Context, txn domain.Transaction) (*domain.Transaction, error)
	InsertTransactionItems(ctx context.Context, transactionID int64, items []domain.TransactionItem) ([]domain.TransactionItem, error)
	ApplyCustomerPurchase(ctx context.Context, purchase domain.CustomerPurchase) error
}

type Repository interface {
	WithinTx(ctx context.Context, fn func(tx Tx) error) error

	CreateTenantWithOwner(ctx context.Context, tenant domain.Tenant, owner domain.User) (*domain.Tenant, *domain.User, error)
	GetTenant(ctx context.Context, id int64) (*domain.Tenant, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetUser(ctx context.Context, tenantID int64, id int64) (*domain.User, error)

	ListCategories(ctx context.Context, tenantID int64) ([]domain.Category, error)
	GetCategory(ctx context.Context, tenantID int64, id int64) (*domain.Category, error)
	CreateCategory(ctx context.Context, category domain.Category) (*domain.Category, error)
	UpdateCategory(ctx context.Context, category domain.Category) (*domain.Category, error)
	DeleteCategory(ctx context.Context, tenantID int64, id int64) error

	ListProducts(ctx context.Context, tenantID int64, filter ProductFilter) ([]domain.Product, error)
	GetProduct(ctx context.Context, tenantID int64, id int64) (*domain.Product, error)
	GetProductByBarcode(ctx context.Context, tenantID int64, barcode string) (*domain.Product, error)
	CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	UpdateProduct(ctx context.Context, update ProductUpdate) (*domain.Product, error)
	DeleteProduct(ctx context.Context, tenantID int64, id int64) error

	ListCustomers(ctx context.Context, tenantID int64, filter CustomerFilter) ([]domain.Customer, error)
	GetCustomer(ctx context.Context, tenantID int64, id int64) (*domain.Customer, error)
	CreateCustomer(ctx context.Context, customer domain.Customer) (*domain.Customer, error)
	UpdateCustomer(ctx context.Context, customer domain.Customer) (*domain.Customer, error)
	DeleteCustomer(ctx context.Context, tenantID int64, id int64) error

	ListTransactions(ctx context.Context, tenantID int64, skip int, limit int) ([]domain.Transaction, error)
	GetTransaction(ctx context.Context, tenantID int64, id int64) (*domain.Transaction, error)

	SalesSummary(ctx context.Context, tenantID int64, from time.Time, to time.Time) (domain.SalesSummary, error)
	DailySales(ctx context.Context, tenantID int64, from time.Time) ([]domain.DailySales, error)
	CountProducts(ctx context.Context, tenantID int64) (total int64, lowStock int64, err error)
}
