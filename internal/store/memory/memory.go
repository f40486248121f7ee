package memory

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"posledger/backend/internal/domain"
	"posledger/backend/internal/store"
)

type Store struct {
	mu           sync.RWMutex
	lastID       map[string]int64
	tenants      map[int64]domain.Tenant
	users        map[int64]domain.User
	categories   map[int64]domain.Category
	products     map[int64]domain.Product
	customers    map[int64]domain.Customer
	transactions map[int64]*domain.Transaction
}

func New() *Store {
	return &Store{
		lastID:       make(map[string]int64),
		tenants:      make(map[int64]domain.Tenant),
		users:        make(map[int64]domain.User),
		categories:   make(map[int64]domain.Category),
		products:     make(map[int64]domain.Product),
		customers:    make(map[int64]domain.Customer),
		transactions: make(map[int64]*domain.Transaction),
	}
}

// NewSeeded returns a store with one demo tenant, an owner and a cashier,
// and a small catalog. Passwords come from SEED_OWNER_PASSWORD and
// SEED_CASHIER_PASSWORD, falling back to dev defaults with a warning.
func NewSeeded() *Store {
	s := New()
	ownerPwd := envOr("SEED_OWNER_PASSWORD", "Owner@1234")
	cashierPwd := envOr("SEED_CASHIER_PASSWORD", "Cashier@1234")
	if os.Getenv("SEED_OWNER_PASSWORD") == "" || os.Getenv("SEED_CASHIER_PASSWORD") == "" {
		zap.L().Warn("memory store is using default dev credentials; set SEED_OWNER_PASSWORD and SEED_CASHIER_PASSWORD to override")
	}

	now := time.Now().UTC()
	tenant := domain.Tenant{
		ID:                 s.nextID("tenant"),
		BusinessName:       "Demo Mart",
		StoreCode:          "DEMO0001",
		ContactPhone:       "+1-555-0100",
		Address:            "1 Market Street",
		City:               "Springfield",
		State:              "IL",
		PlanID:             domain.DefaultPlanID,
		SubscriptionStatus: domain.SubscriptionActive,
		CreatedAt:          now,
	}
	s.tenants[tenant.ID] = tenant

	for _, u := range []struct {
		first, last, email, password, role string
	}{
		{"Olivia", "Owner", "owner@demo.local", ownerPwd, domain.RoleOwner},
		{"Casey", "Cashier", "cashier@demo.local", cashierPwd, domain.RoleCashier},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			zap.L().Fatal("hash seed password", zap.String("email", u.email), zap.Error(err))
		}
		user := domain.User{
			ID:           s.nextID("user"),
			TenantID:     tenant.ID,
			FirstName:    u.first,
			LastName:     u.last,
			Email:        u.email,
			PasswordHash: string(hash),
			Role:         u.role,
			Active:       true,
			CreatedAt:    now,
		}
		s.users[user.ID] = user
	}

	categoryIDs := map[string]int64{}
	for _, name := range []string{"Beverages", "Snacks", "Household"} {
		c := domain.Category{ID: s.nextID("category"), TenantID: tenant.ID, Name: name, CreatedAt: now}
		s.categories[c.ID] = c
		categoryIDs[name] = c.ID
	}

	for _, p := range []struct {
		name, barcode, category, cost, price string
		stock, min                           int
	}{
		{"Mineral Water 600ml", "8991001000011", "Beverages", "0.30", "0.60", 240, 24},
		{"Instant Coffee Sachet", "8991001000028", "Beverages", "0.15", "0.35", 300, 50},
		{"Green Tea 20 bags", "8991001000035", "Beverages", "1.20", "2.10", 60, 10},
		{"Potato Chips 68g", "8991001000042", "Snacks", "0.80", "1.50", 120, 20},
		{"Chocolate Bar", "8991001000059", "Snacks", "0.90", "1.75", 8, 12},
		{"Bath Soap", "8991001000066", "Household", "0.60", "1.10", 90, 15},
		{"Dish Sponge", "8991001000073", "Household", "0.25", "0.70", 45, 10},
	} {
		barcode := p.barcode
		categoryID := categoryIDs[p.category]
		product := domain.Product{
			ID:            s.nextID("product"),
			TenantID:      tenant.ID,
			Name:          p.name,
			Barcode:       &barcode,
			CategoryID:    &categoryID,
			CostPrice:     decimal.RequireFromString(p.cost),
			SellingPrice:  decimal.RequireFromString(p.price),
			StockQuantity: p.stock,
			MinStockLevel: p.min,
		}
		s.products[product.ID] = product
	}

	phone := "+1-555-0199"
	walkIn := domain.Customer{
		ID:             s.nextID("customer"),
		TenantID:       tenant.ID,
		Name:           "Jamie Regular",
		Phone:          &phone,
		TotalPurchases: decimal.Zero,
		CreatedAt:      now,
	}
	s.customers[walkIn.ID] = walkIn

	return s
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// nextID must be called with s.mu held for writing. Ids consumed by a rolled
// back unit of work are not reused.
func (s *Store) nextID(kind string) int64 {
	s.lastID[kind]++
	return s.lastID[kind]
}

func (s *Store) WithinTx(ctx context.Context, fn func(tx store.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memTx{
		s:         s,
		products:  make(map[int64]domain.Product),
		customers: make(map[int64]domain.Customer),
	}
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	tx.commit()
	return nil
}

// memTx stages writes in private maps. The owning Store's write lock is held
// for its entire lifetime, so it never touches s.mu itself.
type memTx struct {
	s         *Store
	products  map[int64]domain.Product
	customers map[int64]domain.Customer
	created   []*domain.Transaction
}

func (t *memTx) product(tenantID int64, id int64) (domain.Product, bool) {
	if p, ok := t.products[id]; ok && p.TenantID == tenantID {
		return p, true
	}
	p, ok := t.s.products[id]
	if !ok || p.TenantID != tenantID {
		return domain.Product{}, false
	}
	return p, true
}

func (t *memTx) customer(tenantID int64, id int64) (domain.Customer, bool) {
	if c, ok := t.customers[id]; ok && c.TenantID == tenantID {
		return c, true
	}
	c, ok := t.s.customers[id]
	if !ok || c.TenantID != tenantID {
		return domain.Customer{}, false
	}
	return c, true
}

func (t *memTx) GetCustomerForUpdate(_ context.Context, tenantID int64, id int64) (*domain.Customer, error) {
	c, ok := t.customer(tenantID, id)
	if !ok {
		return nil, fmt.Errorf("customer %w", store.ErrNotFound)
	}
	return &c, nil
}

func (t *memTx) LockProducts(_ context.Context, tenantID int64, ids []int64) (map[int64]domain.Product, error) {
	out := make(map[int64]domain.Product, len(ids))
	for _, id := range ids {
		if p, ok := t.product(tenantID, id); ok {
			out[id] = t.s.withCategoryName(p)
		}
	}
	return out, nil
}

func (t *memTx) DecrementStock(_ context.Context, tenantID int64, productID int64, qty int) error {
	if qty < 1 {
		return store.ErrInvalidInput
	}
	p, ok := t.product(tenantID, productID)
	if !ok {
		return fmt.Errorf("product %w", store.ErrNotFound)
	}
	if p.StockQuantity < qty {
		return &store.InsufficientStockError{ProductName: p.Name, Available: p.StockQuantity}
	}
	p.StockQuantity -= qty
	t.products[productID] = p
	return nil
}

func (t *memTx) InsertTransaction(_ context.Context, txn domain.Transaction) (*domain.Transaction, error) {
	txn.ID = t.s.nextID("transaction")
	if txn.CreatedAt.IsZero() {
		txn.CreatedAt = time.Now().UTC()
	}
	txn.Items = nil
	txn.CustomerName = nil
	staged := txn
	t.created = append(t.created, &staged)
	return cloneTransaction(&staged), nil
}

func (t *memTx) InsertTransactionItems(_ context.Context, transactionID int64, items []domain.TransactionItem) ([]domain.TransactionItem, error) {
	var target *domain.Transaction
	for _, txn := range t.created {
		if txn.ID == transactionID {
			target = txn
			break
		}
	}
	if target == nil {
		return nil, fmt.Errorf("transaction %w", store.ErrNotFound)
	}
	saved := make([]domain.TransactionItem, 0, len(items))
	for _, item := range items {
		item.ID = t.s.nextID("transaction_item")
		item.TransactionID = transactionID
		saved = append(saved, item)
	}
	target.Items = append(target.Items, saved...)
	return slices.Clone(saved), nil
}

func (t *memTx) ApplyCustomerPurchase(_ context.Context, purchase domain.CustomerPurchase) error {
	c, ok := t.customer(purchase.TenantID, purchase.CustomerID)
	if !ok {
		return fmt.Errorf("customer %w", store.ErrNotFound)
	}
	at := purchase.At
	c.TotalPurchases = c.TotalPurchases.Add(purchase.Amount)
	c.LoyaltyPoints += purchase.Points
	c.LastPurchaseDate = &at
	t.customers[c.ID] = c
	return nil
}

func (t *memTx) commit() {
	for id, p := range t.products {
		t.s.products[id] = p
	}
	for id, c := range t.customers {
		t.s.customers[id] = c
	}
	for _, txn := range t.created {
		t.s.transactions[txn.ID] = txn
	}
}

func (s *Store) CreateTenantWithOwner(_ context.Context, tenant domain.Tenant, owner domain.User) (*domain.Tenant, *domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range s.tenants {
		if strings.EqualFold(t.StoreCode, tenant.StoreCode) {
			return nil, nil, fmt.Errorf("store code: %w", store.ErrConflict)
		}
	}
	for _, u := range s.users {
		if strings.EqualFold(u.Email, owner.Email) {
			return nil, nil, fmt.Errorf("email: %w", store.ErrConflict)
		}
	}

	now := time.Now().UTC()
	tenant.ID = s.nextID("tenant")
	if tenant.CreatedAt.IsZero() {
		tenant.CreatedAt = now
	}
	owner.ID = s.nextID("user")
	owner.TenantID = tenant.ID
	if owner.CreatedAt.IsZero() {
		owner.CreatedAt = now
	}
	s.tenants[tenant.ID] = tenant
	s.users[owner.ID] = owner

	createdTenant, createdOwner := tenant, owner
	return &createdTenant, &createdOwner, nil
}

func (s *Store) GetTenant(_ context.Context, id int64) (*domain.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tenants[id]
	if !ok {
		return nil, fmt.Errorf("tenant %w", store.ErrNotFound)
	}
	return &t, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			found := u
			return &found, nil
		}
	}
	return nil, fmt.Errorf("user %w", store.ErrNotFound)
}

func (s *Store) GetUser(_ context.Context, tenantID int64, id int64) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok || u.TenantID != tenantID {
		return nil, fmt.Errorf("user %w", store.ErrNotFound)
	}
	return &u, nil
}

func (s *Store) ListCategories(_ context.Context, tenantID int64) ([]domain.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Category, 0)
	for _, c := range s.categories {
		if c.TenantID == tenantID {
			out = append(out, c)
		}
	}
	slices.SortFunc(out, func(a, b domain.Category) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return cmpID(a.ID, b.ID)
	})
	return out, nil
}

func (s *Store) GetCategory(_ context.Context, tenantID int64, id int64) (*domain.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.categories[id]
	if !ok || c.TenantID != tenantID {
		return nil, fmt.Errorf("category %w", store.ErrNotFound)
	}
	return &c, nil
}

func (s *Store) CreateCategory(_ context.Context, category domain.Category) (*domain.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	category.ID = s.nextID("category")
	if category.CreatedAt.IsZero() {
		category.CreatedAt = time.Now().UTC()
	}
	s.categories[category.ID] = category
	created := category
	return &created, nil
}

func (s *Store) UpdateCategory(_ context.Context, category domain.Category) (*domain.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.categories[category.ID]
	if !ok || existing.TenantID != category.TenantID {
		return nil, fmt.Errorf("category %w", store.ErrNotFound)
	}
	existing.Name = category.Name
	existing.Description = category.Description
	s.categories[existing.ID] = existing
	return &existing, nil
}

func (s *Store) DeleteCategory(_ context.Context, tenantID int64, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.categories[id]
	if !ok || c.TenantID != tenantID {
		return fmt.Errorf("category %w", store.ErrNotFound)
	}
	inUse := 0
	for _, p := range s.products {
		if p.TenantID == tenantID && p.CategoryID != nil && *p.CategoryID == id {
			inUse++
		}
	}
	if inUse > 0 {
		return &store.CategoryInUseError{Count: inUse}
	}
	delete(s.categories, id)
	return nil
}

func (s *Store) ListProducts(_ context.Context, tenantID int64, filter store.ProductFilter) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Product, 0)
	for _, p := range s.products {
		if p.TenantID != tenantID {
			continue
		}
		if filter.Barcode != "" && (p.Barcode == nil || *p.Barcode != filter.Barcode) {
			continue
		}
		if filter.LowStock && !p.LowStock() {
			continue
		}
		out = append(out, s.withCategoryName(p))
	}
	slices.SortFunc(out, func(a, b domain.Product) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return cmpID(a.ID, b.ID)
	})
	return out, nil
}

func (s *Store) GetProduct(_ context.Context, tenantID int64, id int64) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok || p.TenantID != tenantID {
		return nil, fmt.Errorf("product %w", store.ErrNotFound)
	}
	p = s.withCategoryName(p)
	return &p, nil
}

func (s *Store) GetProductByBarcode(_ context.Context, tenantID int64, barcode string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var match *domain.Product
	for _, p := range s.products {
		if p.TenantID != tenantID || p.Barcode == nil || *p.Barcode != barcode {
			continue
		}
		// Barcodes are not unique; the oldest product wins.
		if match == nil || p.ID < match.ID {
			found := p
			match = &found
		}
	}
	if match == nil {
		return nil, fmt.Errorf("product %w", store.ErrNotFound)
	}
	withName := s.withCategoryName(*match)
	return &withName, nil
}

func (s *Store) CreateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkCategory(product.TenantID, product.CategoryID); err != nil {
		return nil, err
	}
	product.ID = s.nextID("product")
	product.CategoryName = nil
	s.products[product.ID] = product
	created := s.withCategoryName(product)
	return &created, nil
}

func (s *Store) UpdateProduct(_ context.Context, update store.ProductUpdate) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	product := update.Product
	existing, ok := s.products[product.ID]
	if !ok || existing.TenantID != product.TenantID {
		return nil, fmt.Errorf("product %w", store.ErrNotFound)
	}
	if err := s.checkCategory(product.TenantID, product.CategoryID); err != nil {
		return nil, err
	}
	if !update.SetStock {
		product.StockQuantity = existing.StockQuantity
	}
	product.CategoryName = nil
	s.products[product.ID] = product
	updated := s.withCategoryName(product)
	return &updated, nil
}

func (s *Store) DeleteProduct(_ context.Context, tenantID int64, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok || p.TenantID != tenantID {
		return fmt.Errorf("product %w", store.ErrNotFound)
	}
	for _, txn := range s.transactions {
		for _, item := range txn.Items {
			if item.ProductID == id {
				return fmt.Errorf("product is referenced by past sales: %w", store.ErrConflict)
			}
		}
	}
	delete(s.products, id)
	return nil
}

func (s *Store) ListCustomers(_ context.Context, tenantID int64, filter store.CustomerFilter) ([]domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	needle := strings.ToLower(strings.TrimSpace(filter.Search))
	out := make([]domain.Customer, 0)
	for _, c := range s.customers {
		if c.TenantID != tenantID {
			continue
		}
		if needle != "" && !customerMatches(c, needle) {
			continue
		}
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b domain.Customer) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return cmpID(a.ID, b.ID)
	})
	return page(out, filter.Skip, filter.Limit), nil
}

func (s *Store) GetCustomer(_ context.Context, tenantID int64, id int64) (*domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.customers[id]
	if !ok || c.TenantID != tenantID {
		return nil, fmt.Errorf("customer %w", store.ErrNotFound)
	}
	return &c, nil
}

func (s *Store) CreateCustomer(_ context.Context, customer domain.Customer) (*domain.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	customer.ID = s.nextID("customer")
	customer.LoyaltyPoints = 0
	customer.TotalPurchases = decimal.Zero
	customer.LastPurchaseDate = nil
	if customer.CreatedAt.IsZero() {
		customer.CreatedAt = time.Now().UTC()
	}
	s.customers[customer.ID] = customer
	created := customer
	return &created, nil
}

// UpdateCustomer writes contact fields only. Loyalty state changes through
// ApplyCustomerPurchase.
func (s *Store) UpdateCustomer(_ context.Context, customer domain.Customer) (*domain.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.customers[customer.ID]
	if !ok || existing.TenantID != customer.TenantID {
		return nil, fmt.Errorf("customer %w", store.ErrNotFound)
	}
	existing.Name = customer.Name
	existing.Email = customer.Email
	existing.Phone = customer.Phone
	existing.Address = customer.Address
	existing.City = customer.City
	existing.State = customer.State
	s.customers[existing.ID] = existing
	return &existing, nil
}

func (s *Store) DeleteCustomer(_ context.Context, tenantID int64, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.customers[id]
	if !ok || c.TenantID != tenantID {
		return fmt.Errorf("customer %w", store.ErrNotFound)
	}
	for _, txn := range s.transactions {
		if txn.CustomerID != nil && *txn.CustomerID == id {
			return fmt.Errorf("customer has past sales: %w", store.ErrConflict)
		}
	}
	delete(s.customers, id)
	return nil
}

func (s *Store) ListTransactions(_ context.Context, tenantID int64, skip int, limit int) ([]domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Transaction, 0)
	for _, txn := range s.transactions {
		if txn.TenantID == tenantID {
			out = append(out, *s.withCustomerName(cloneTransaction(txn)))
		}
	}
	slices.SortFunc(out, func(a, b domain.Transaction) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmpID(b.ID, a.ID)
	})
	return page(out, skip, limit), nil
}

func (s *Store) GetTransaction(_ context.Context, tenantID int64, id int64) (*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	txn, ok := s.transactions[id]
	if !ok || txn.TenantID != tenantID {
		return nil, fmt.Errorf("transaction %w", store.ErrNotFound)
	}
	return s.withCustomerName(cloneTransaction(txn)), nil
}

func (s *Store) SalesSummary(_ context.Context, tenantID int64, from time.Time, to time.Time) (domain.SalesSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summary := domain.SalesSummary{Total: decimal.Zero}
	for _, txn := range s.transactions {
		if txn.TenantID != tenantID || txn.CreatedAt.Before(from) || !txn.CreatedAt.Before(to) {
			continue
		}
		summary.Total = summary.Total.Add(txn.TotalAmount)
		summary.Count++
	}
	return summary, nil
}

func (s *Store) DailySales(_ context.Context, tenantID int64, from time.Time) ([]domain.DailySales, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byDay := map[string]*domain.DailySales{}
	for _, txn := range s.transactions {
		if txn.TenantID != tenantID || txn.CreatedAt.Before(from) {
			continue
		}
		day := txn.CreatedAt.UTC().Format(time.DateOnly)
		entry, ok := byDay[day]
		if !ok {
			entry = &domain.DailySales{Date: day, TotalSales: decimal.Zero}
			byDay[day] = entry
		}
		entry.TotalSales = entry.TotalSales.Add(txn.TotalAmount)
		entry.TransactionCount++
	}
	out := make([]domain.DailySales, 0, len(byDay))
	for _, entry := range byDay {
		out = append(out, *entry)
	}
	slices.SortFunc(out, func(a, b domain.DailySales) int { return strings.Compare(a.Date, b.Date) })
	return out, nil
}

func (s *Store) CountProducts(_ context.Context, tenantID int64) (int64, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var total, low int64
	for _, p := range s.products {
		if p.TenantID != tenantID {
			continue
		}
		total++
		if p.LowStock() {
			low++
		}
	}
	return total, low, nil
}

func (s *Store) checkCategory(tenantID int64, categoryID *int64) error {
	if categoryID == nil {
		return nil
	}
	c, ok := s.categories[*categoryID]
	if !ok || c.TenantID != tenantID {
		return fmt.Errorf("category %w", store.ErrNotFound)
	}
	return nil
}

func (s *Store) withCategoryName(p domain.Product) domain.Product {
	p.CategoryName = nil
	if p.CategoryID == nil {
		return p
	}
	if c, ok := s.categories[*p.CategoryID]; ok && c.TenantID == p.TenantID {
		name := c.Name
		p.CategoryName = &name
	}
	return p
}

func (s *Store) withCustomerName(txn *domain.Transaction) *domain.Transaction {
	txn.CustomerName = nil
	if txn.CustomerID == nil {
		return txn
	}
	if c, ok := s.customers[*txn.CustomerID]; ok && c.TenantID == txn.TenantID {
		name := c.Name
		txn.CustomerName = &name
	}
	return txn
}

func customerMatches(c domain.Customer, needle string) bool {
	if strings.Contains(strings.ToLower(c.Name), needle) {
		return true
	}
	for _, field := range []*string{c.Phone, c.Email} {
		if field != nil && strings.Contains(strings.ToLower(*field), needle) {
			return true
		}
	}
	return false
}

func page[T any](items []T, skip int, limit int) []T {
	if skip < 0 {
		skip = 0
	}
	if skip >= len(items) {
		return []T{}
	}
	items = items[skip:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func cmpID(a int64, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cloneTransaction(src *domain.Transaction) *domain.Transaction {
	if src == nil {
		return nil
	}
	dup := *src
	dup.Items = slices.Clone(src.Items)
	if dup.Items == nil {
		dup.Items = []domain.TransactionItem{}
	}
	if src.CustomerID != nil {
		id := *src.CustomerID
		dup.CustomerID = &id
	}
	if src.DiscountValue != nil {
		v := *src.DiscountValue
		dup.DiscountValue = &v
	}
	return &dup
}
