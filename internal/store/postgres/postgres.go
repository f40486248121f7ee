package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/shopspring/decimal"

	"posledger/backend/internal/domain"
	"posledger/backend/internal/store"
)

//go:embed schema.sql
var schema string

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate applies the embedded schema. Every statement is idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// WithinTx runs fn in one READ COMMITTED database transaction. Product and
// customer rows read through the Tx are locked with FOR UPDATE, which is what
// serializes concurrent sales of the same product.
func (s *Store) WithinTx(ctx context.Context, fn func(tx store.Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return err
	}
	defer func() { _ = sqlTx.Rollback() }()

	if err := fn(&pgTx{tx: sqlTx}); err != nil {
		return err
	}
	return sqlTx.Commit()
}

type pgTx struct {
	tx *sql.Tx
}

func (t *pgTx) GetCustomerForUpdate(ctx context.Context, tenantID int64, id int64) (*domain.Customer, error) {
	row := t.tx.QueryRowContext(ctx, `
		SELECT `+customerColumns+`
		FROM customers
		WHERE tenant_id = $1 AND id = $2
		FOR UPDATE
	`, tenantID, id)
	c, err := scanCustomer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("customer %w", store.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (t *pgTx) LockProducts(ctx context.Context, tenantID int64, ids []int64) (map[int64]domain.Product, error) {
	sorted := slices.Clone(ids)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	// Ascending id order keeps two carts sharing products from deadlocking.
	rows, err := t.tx.QueryContext(ctx, `
		SELECT `+productColumns+`
		FROM products p
		LEFT JOIN categories c ON c.id = p.category_id AND c.tenant_id = p.tenant_id
		WHERE p.tenant_id = $1 AND p.id = ANY($2)
		ORDER BY p.id
		FOR UPDATE OF p
	`, tenantID, sorted)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int64]domain.Product, len(sorted))
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out[p.ID] = *p
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (t *pgTx) DecrementStock(ctx context.Context, tenantID int64, productID int64, qty int) error {
	if qty < 1 {
		return store.ErrInvalidInput
	}
	res, err := t.tx.ExecContext(ctx, `
		UPDATE products
		SET stock_quantity = stock_quantity - $3, updated_at = now()
		WHERE tenant_id = $1 AND id = $2 AND stock_quantity >= $3
	`, tenantID, productID, qty)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 1 {
		return nil
	}

	var name string
	var available int
	err = t.tx.QueryRowContext(ctx, `
		SELECT name, stock_quantity FROM products WHERE tenant_id = $1 AND id = $2
	`, tenantID, productID).Scan(&name, &available)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("product %w", store.ErrNotFound)
	}
	if err != nil {
		return err
	}
	return &store.InsufficientStockError{ProductName: name, Available: available}
}

func (t *pgTx) InsertTransaction(ctx context.Context, txn domain.Transaction) (*domain.Transaction, error) {
	var createdAt *time.Time
	if !txn.CreatedAt.IsZero() {
		createdAt = &txn.CreatedAt
	}
	err := t.tx.QueryRowContext(ctx, `
		INSERT INTO transactions (
			tenant_id, user_id, customer_id, subtotal, discount_amount,
			discount_type, discount_value, total_amount, payment_method, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, COALESCE($10, now()))
		RETURNING id, created_at
	`,
		txn.TenantID, txn.UserID, nullInt64(txn.CustomerID), txn.Subtotal, txn.DiscountAmount,
		txn.DiscountType, nullDecimal(txn.DiscountValue), txn.TotalAmount, txn.PaymentMethod, nullTime(createdAt),
	).Scan(&txn.ID, &txn.CreatedAt)
	if err != nil {
		return nil, mapWriteError(err)
	}
	txn.CreatedAt = txn.CreatedAt.UTC()
	txn.Items = []domain.TransactionItem{}
	txn.CustomerName = nil
	return &txn, nil
}

func (t *pgTx) InsertTransactionItems(ctx context.Context, transactionID int64, items []domain.TransactionItem) ([]domain.TransactionItem, error) {
	saved := make([]domain.TransactionItem, 0, len(items))
	for _, item := range items {
		item.TransactionID = transactionID
		err := t.tx.QueryRowContext(ctx, `
			INSERT INTO transaction_items (transaction_id, product_id, product_name, quantity, unit_price, total_price)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id
		`, transactionID, item.ProductID, item.ProductName, item.Quantity, item.UnitPrice, item.TotalPrice).Scan(&item.ID)
		if err != nil {
			return nil, mapWriteError(err)
		}
		saved = append(saved, item)
	}
	return saved, nil
}

func (t *pgTx) ApplyCustomerPurchase(ctx context.Context, purchase domain.CustomerPurchase) error {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE customers
		SET total_purchases = total_purchases + $3,
			loyalty_points = loyalty_points + $4,
			last_purchase_date = $5
		WHERE tenant_id = $1 AND id = $2
	`, purchase.TenantID, purchase.CustomerID, purchase.Amount, purchase.Points, purchase.At)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("customer %w", store.ErrNotFound)
	}
	return nil
}

func (s *Store) CreateTenantWithOwner(ctx context.Context, tenant domain.Tenant, owner domain.User) (*domain.Tenant, *domain.User, error) {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = sqlTx.Rollback() }()

	err = sqlTx.QueryRowContext(ctx, `
		INSERT INTO tenants (
			business_name, store_code, contact_phone, address, city, state,
			registration_number, plan_id, subscription_status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`,
		tenant.BusinessName, tenant.StoreCode, tenant.ContactPhone, tenant.Address, tenant.City, tenant.State,
		nullString(tenant.RegistrationNumber), tenant.PlanID, tenant.SubscriptionStatus,
	).Scan(&tenant.ID, &tenant.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, nil, fmt.Errorf("store code: %w", store.ErrConflict)
		}
		return nil, nil, err
	}

	owner.TenantID = tenant.ID
	err = sqlTx.QueryRowContext(ctx, `
		INSERT INTO users (tenant_id, first_name, last_name, email, password_hash, role, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`, owner.TenantID, owner.FirstName, owner.LastName, owner.Email, owner.PasswordHash, owner.Role, owner.Active).Scan(&owner.ID, &owner.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, nil, fmt.Errorf("email: %w", store.ErrConflict)
		}
		return nil, nil, err
	}

	if err := sqlTx.Commit(); err != nil {
		return nil, nil, err
	}
	tenant.CreatedAt = tenant.CreatedAt.UTC()
	owner.CreatedAt = owner.CreatedAt.UTC()
	return &tenant, &owner, nil
}

func (s *Store) GetTenant(ctx context.Context, id int64) (*domain.Tenant, error) {
	var t domain.Tenant
	var registration sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT id, business_name, store_code, contact_phone, address, city, state,
			registration_number, plan_id, subscription_status, created_at
		FROM tenants
		WHERE id = $1
	`, id).Scan(
		&t.ID, &t.BusinessName, &t.StoreCode, &t.ContactPhone, &t.Address, &t.City, &t.State,
		&registration, &t.PlanID, &t.SubscriptionStatus, &t.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("tenant %w", store.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	t.RegistrationNumber = stringPtr(registration)
	t.CreatedAt = t.CreatedAt.UTC()
	return &t, nil
}

const userColumns = `id, tenant_id, first_name, last_name, email, password_hash, role, is_active, created_at`

func scanUser(row rowScanner) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(&u.ID, &u.TenantID, &u.FirstName, &u.LastName, &u.Email, &u.PasswordHash, &u.Role, &u.Active, &u.CreatedAt); err != nil {
		return nil, err
	}
	u.CreatedAt = u.CreatedAt.UTC()
	return &u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `
		SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)
	`, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %w", store.ErrNotFound)
	}
	return u, err
}

func (s *Store) GetUser(ctx context.Context, tenantID int64, id int64) (*domain.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `
		SELECT `+userColumns+` FROM users WHERE tenant_id = $1 AND id = $2
	`, tenantID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %w", store.ErrNotFound)
	}
	return u, err
}

const categoryColumns = `id, tenant_id, name, description, created_at`

func scanCategory(row rowScanner) (*domain.Category, error) {
	var c domain.Category
	var description sql.NullString
	if err := row.Scan(&c.ID, &c.TenantID, &c.Name, &description, &c.CreatedAt); err != nil {
		return nil, err
	}
	c.Description = stringPtr(description)
	c.CreatedAt = c.CreatedAt.UTC()
	return &c, nil
}

func (s *Store) ListCategories(ctx context.Context, tenantID int64) ([]domain.Category, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+categoryColumns+` FROM categories WHERE tenant_id = $1 ORDER BY name, id
	`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Category, 0, 16)
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (s *Store) GetCategory(ctx context.Context, tenantID int64, id int64) (*domain.Category, error) {
	c, err := scanCategory(s.db.QueryRowContext(ctx, `
		SELECT `+categoryColumns+` FROM categories WHERE tenant_id = $1 AND id = $2
	`, tenantID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("category %w", store.ErrNotFound)
	}
	return c, err
}

func (s *Store) CreateCategory(ctx context.Context, category domain.Category) (*domain.Category, error) {
	return scanCategory(s.db.QueryRowContext(ctx, `
		INSERT INTO categories (tenant_id, name, description)
		VALUES ($1, $2, $3)
		RETURNING `+categoryColumns,
		category.TenantID, category.Name, nullString(category.Description)))
}

func (s *Store) UpdateCategory(ctx context.Context, category domain.Category) (*domain.Category, error) {
	c, err := scanCategory(s.db.QueryRowContext(ctx, `
		UPDATE categories SET name = $3, description = $4
		WHERE tenant_id = $1 AND id = $2
		RETURNING `+categoryColumns,
		category.TenantID, category.ID, category.Name, nullString(category.Description)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("category %w", store.ErrNotFound)
	}
	return c, err
}

func (s *Store) DeleteCategory(ctx context.Context, tenantID int64, id int64) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = sqlTx.Rollback() }()

	var locked int64
	err = sqlTx.QueryRowContext(ctx, `
		SELECT id FROM categories WHERE tenant_id = $1 AND id = $2 FOR UPDATE
	`, tenantID, id).Scan(&locked)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("category %w", store.ErrNotFound)
	}
	if err != nil {
		return err
	}

	var inUse int
	if err := sqlTx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM products WHERE tenant_id = $1 AND category_id = $2
	`, tenantID, id).Scan(&inUse); err != nil {
		return err
	}
	if inUse > 0 {
		return &store.CategoryInUseError{Count: inUse}
	}

	if _, err := sqlTx.ExecContext(ctx, `DELETE FROM categories WHERE tenant_id = $1 AND id = $2`, tenantID, id); err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("category: %w", store.ErrCategoryInUse)
		}
		return err
	}
	return sqlTx.Commit()
}

const productColumns = `p.id, p.tenant_id, p.name, p.barcode, p.category_id, c.name,
	p.cost_price, p.selling_price, p.stock_quantity, p.min_stock_level`

const productFrom = `
	FROM products p
	LEFT JOIN categories c ON c.id = p.category_id AND c.tenant_id = p.tenant_id`

func scanProduct(row rowScanner) (*domain.Product, error) {
	var p domain.Product
	var barcode, categoryName sql.NullString
	var categoryID sql.NullInt64
	if err := row.Scan(
		&p.ID, &p.TenantID, &p.Name, &barcode, &categoryID, &categoryName,
		&p.CostPrice, &p.SellingPrice, &p.StockQuantity, &p.MinStockLevel,
	); err != nil {
		return nil, err
	}
	p.Barcode = stringPtr(barcode)
	p.CategoryID = int64Ptr(categoryID)
	p.CategoryName = stringPtr(categoryName)
	return &p, nil
}

func (s *Store) ListProducts(ctx context.Context, tenantID int64, filter store.ProductFilter) ([]domain.Product, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+productColumns+productFrom+`
		WHERE p.tenant_id = $1
			AND ($2 = '' OR p.barcode = $2)
			AND (NOT $3 OR p.stock_quantity <= p.min_stock_level)
		ORDER BY p.name, p.id
	`, tenantID, filter.Barcode, filter.LowStock)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Product, 0, 64)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (s *Store) GetProduct(ctx context.Context, tenantID int64, id int64) (*domain.Product, error) {
	p, err := scanProduct(s.db.QueryRowContext(ctx, `
		SELECT `+productColumns+productFrom+`
		WHERE p.tenant_id = $1 AND p.id = $2
	`, tenantID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("product %w", store.ErrNotFound)
	}
	return p, err
}

func (s *Store) GetProductByBarcode(ctx context.Context, tenantID int64, barcode string) (*domain.Product, error) {
	p, err := scanProduct(s.db.QueryRowContext(ctx, `
		SELECT `+productColumns+productFrom+`
		WHERE p.tenant_id = $1 AND p.barcode = $2
		ORDER BY p.id
		LIMIT 1
	`, tenantID, barcode))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("product %w", store.ErrNotFound)
	}
	return p, err
}

func (s *Store) CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO products (
			tenant_id, name, barcode, category_id, cost_price, selling_price, stock_quantity, min_stock_level
		)
		SELECT $1, $2, $3, $4, $5, $6, $7, $8
		WHERE $4::BIGINT IS NULL OR EXISTS (SELECT 1 FROM categories WHERE tenant_id = $1 AND id = $4)
		RETURNING id
	`,
		product.TenantID, product.Name, nullString(product.Barcode), nullInt64(product.CategoryID),
		product.CostPrice, product.SellingPrice, product.StockQuantity, product.MinStockLevel,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("category %w", store.ErrNotFound)
	}
	if err != nil {
		return nil, mapWriteError(err)
	}
	return s.GetProduct(ctx, product.TenantID, id)
}

func (s *Store) UpdateProduct(ctx context.Context, update store.ProductUpdate) (*domain.Product, error) {
	product := update.Product
	if product.CategoryID != nil {
		if _, err := s.GetCategory(ctx, product.TenantID, *product.CategoryID); err != nil {
			return nil, err
		}
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE products
		SET name = $3, barcode = $4, category_id = $5, cost_price = $6, selling_price = $7,
			stock_quantity = CASE WHEN $10::BOOLEAN THEN $8::INTEGER ELSE stock_quantity END,
			min_stock_level = $9, updated_at = now()
		WHERE tenant_id = $1 AND id = $2
	`,
		product.TenantID, product.ID, product.Name, nullString(product.Barcode), nullInt64(product.CategoryID),
		product.CostPrice, product.SellingPrice, product.StockQuantity, product.MinStockLevel, update.SetStock,
	)
	if err != nil {
		return nil, mapWriteError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, fmt.Errorf("product %w", store.ErrNotFound)
	}
	return s.GetProduct(ctx, product.TenantID, product.ID)
}

func (s *Store) DeleteProduct(ctx context.Context, tenantID int64, id int64) error {
	return s.deleteScoped(ctx, "product", `DELETE FROM products WHERE tenant_id = $1 AND id = $2`, tenantID, id)
}

const customerColumns = `id, tenant_id, name, email, phone, address, city, state,
	loyalty_points, total_purchases, last_purchase_date, created_at`

func scanCustomer(row rowScanner) (*domain.Customer, error) {
	var c domain.Customer
	var email, phone, address, city, state sql.NullString
	var lastPurchase sql.NullTime
	if err := row.Scan(
		&c.ID, &c.TenantID, &c.Name, &email, &phone, &address, &city, &state,
		&c.LoyaltyPoints, &c.TotalPurchases, &lastPurchase, &c.CreatedAt,
	); err != nil {
		return nil, err
	}
	c.Email = stringPtr(email)
	c.Phone = stringPtr(phone)
	c.Address = stringPtr(address)
	c.City = stringPtr(city)
	c.State = stringPtr(state)
	if lastPurchase.Valid {
		at := lastPurchase.Time.UTC()
		c.LastPurchaseDate = &at
	}
	c.CreatedAt = c.CreatedAt.UTC()
	return &c, nil
}

func (s *Store) ListCustomers(ctx context.Context, tenantID int64, filter store.CustomerFilter) ([]domain.Customer, error) {
	pattern := ""
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern = "%" + escapeLike(search) + "%"
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+customerColumns+`
		FROM customers
		WHERE tenant_id = $1
			AND ($2 = '' OR name ILIKE $2 OR phone ILIKE $2 OR email ILIKE $2)
		ORDER BY name, id
		OFFSET $3
		LIMIT $4
	`, tenantID, pattern, max(filter.Skip, 0), nullLimit(filter.Limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Customer, 0, 32)
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (s *Store) GetCustomer(ctx context.Context, tenantID int64, id int64) (*domain.Customer, error) {
	c, err := scanCustomer(s.db.QueryRowContext(ctx, `
		SELECT `+customerColumns+` FROM customers WHERE tenant_id = $1 AND id = $2
	`, tenantID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("customer %w", store.ErrNotFound)
	}
	return c, err
}

func (s *Store) CreateCustomer(ctx context.Context, customer domain.Customer) (*domain.Customer, error) {
	return scanCustomer(s.db.QueryRowContext(ctx, `
		INSERT INTO customers (tenant_id, name, email, phone, address, city, state)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+customerColumns,
		customer.TenantID, customer.Name, nullString(customer.Email), nullString(customer.Phone),
		nullString(customer.Address), nullString(customer.City), nullString(customer.State)))
}

// UpdateCustomer writes contact fields only. Loyalty state changes through
// ApplyCustomerPurchase.
func (s *Store) UpdateCustomer(ctx context.Context, customer domain.Customer) (*domain.Customer, error) {
	c, err := scanCustomer(s.db.QueryRowContext(ctx, `
		UPDATE customers
		SET name = $3, email = $4, phone = $5, address = $6, city = $7, state = $8
		WHERE tenant_id = $1 AND id = $2
		RETURNING `+customerColumns,
		customer.TenantID, customer.ID, customer.Name, nullString(customer.Email), nullString(customer.Phone),
		nullString(customer.Address), nullString(customer.City), nullString(customer.State)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("customer %w", store.ErrNotFound)
	}
	return c, err
}

func (s *Store) DeleteCustomer(ctx context.Context, tenantID int64, id int64) error {
	return s.deleteScoped(ctx, "customer", `DELETE FROM customers WHERE tenant_id = $1 AND id = $2`, tenantID, id)
}

func (s *Store) deleteScoped(ctx context.Context, entity string, query string, tenantID int64, id int64) error {
	res, err := s.db.ExecContext(ctx, query, tenantID, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%s is referenced by past sales: %w", entity, store.ErrConflict)
		}
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%s %w", entity, store.ErrNotFound)
	}
	return nil
}

const transactionColumns = `t.id, t.tenant_id, t.user_id, t.customer_id, t.subtotal, t.discount_amount,
	t.discount_type, t.discount_value, t.total_amount, t.payment_method, t.created_at, cu.name`

const transactionFrom = `
	FROM transactions t
	LEFT JOIN customers cu ON cu.id = t.customer_id AND cu.tenant_id = t.tenant_id`

func scanTransaction(row rowScanner) (*domain.Transaction, error) {
	var txn domain.Transaction
	var customerID sql.NullInt64
	var discountValue decimal.NullDecimal
	var customerName sql.NullString
	if err := row.Scan(
		&txn.ID, &txn.TenantID, &txn.UserID, &customerID, &txn.Subtotal, &txn.DiscountAmount,
		&txn.DiscountType, &discountValue, &txn.TotalAmount, &txn.PaymentMethod, &txn.CreatedAt, &customerName,
	); err != nil {
		return nil, err
	}
	txn.CustomerID = int64Ptr(customerID)
	if discountValue.Valid {
		v := discountValue.Decimal
		txn.DiscountValue = &v
	}
	txn.CustomerName = stringPtr(customerName)
	txn.CreatedAt = txn.CreatedAt.UTC()
	txn.Items = []domain.TransactionItem{}
	return &txn, nil
}

func (s *Store) ListTransactions(ctx context.Context, tenantID int64, skip int, limit int) ([]domain.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+transactionColumns+transactionFrom+`
		WHERE t.tenant_id = $1
		ORDER BY t.created_at DESC, t.id DESC
		OFFSET $2
		LIMIT $3
	`, tenantID, max(skip, 0), nullLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Transaction, 0, 32)
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *txn)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}

	ids := make([]int64, len(out))
	for i, txn := range out {
		ids[i] = txn.ID
	}
	itemsByTxn, err := s.loadItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range out {
		if items, ok := itemsByTxn[out[i].ID]; ok {
			out[i].Items = items
		}
	}
	return out, nil
}

func (s *Store) GetTransaction(ctx context.Context, tenantID int64, id int64) (*domain.Transaction, error) {
	txn, err := scanTransaction(s.db.QueryRowContext(ctx, `
		SELECT `+transactionColumns+transactionFrom+`
		WHERE t.tenant_id = $1 AND t.id = $2
	`, tenantID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("transaction %w", store.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	itemsByTxn, err := s.loadItems(ctx, []int64{txn.ID})
	if err != nil {
		return nil, err
	}
	if items, ok := itemsByTxn[txn.ID]; ok {
		txn.Items = items
	}
	return txn, nil
}

func (s *Store) loadItems(ctx context.Context, transactionIDs []int64) (map[int64][]domain.TransactionItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, transaction_id, product_id, product_name, quantity, unit_price, total_price
		FROM transaction_items
		WHERE transaction_id = ANY($1)
		ORDER BY transaction_id, id
	`, transactionIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int64][]domain.TransactionItem, len(transactionIDs))
	for rows.Next() {
		var item domain.TransactionItem
		if err := rows.Scan(&item.ID, &item.TransactionID, &item.ProductID, &item.ProductName, &item.Quantity, &item.UnitPrice, &item.TotalPrice); err != nil {
			return nil, err
		}
		out[item.TransactionID] = append(out[item.TransactionID], item)
	}
	return out, rows.Err()
}

func (s *Store) SalesSummary(ctx context.Context, tenantID int64, from time.Time, to time.Time) (domain.SalesSummary, error) {
	var summary domain.SalesSummary
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(total_amount), 0), COUNT(*)
		FROM transactions
		WHERE tenant_id = $1 AND created_at >= $2 AND created_at < $3
	`, tenantID, from, to).Scan(&summary.Total, &summary.Count)
	return summary, err
}

func (s *Store) DailySales(ctx context.Context, tenantID int64, from time.Time) ([]domain.DailySales, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT to_char(created_at AT TIME ZONE 'UTC', 'YYYY-MM-DD') AS day, SUM(total_amount), COUNT(*)
		FROM transactions
		WHERE tenant_id = $1 AND created_at >= $2
		GROUP BY day
		ORDER BY day
	`, tenantID, from)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.DailySales, 0, 31)
	for rows.Next() {
		var d domain.DailySales
		if err := rows.Scan(&d.Date, &d.TotalSales, &d.TransactionCount); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *Store) CountProducts(ctx context.Context, tenantID int64) (int64, int64, error) {
	var total, low int64
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE stock_quantity <= min_stock_level)
		FROM products
		WHERE tenant_id = $1
	`, tenantID).Scan(&total, &low)
	return total, low, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case "23505":
		return fmt.Errorf("%s: %w", pgErr.ConstraintName, store.ErrConflict)
	case "23503":
		return fmt.Errorf("%s %w", strings.TrimSuffix(pgErr.TableName, "s"), store.ErrNotFound)
	case "23514":
		return fmt.Errorf("%s: %w", pgErr.ConstraintName, store.ErrInvalidInput)
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23503"
	}
	return false
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func nullLimit(limit int) any {
	if limit <= 0 {
		return nil
	}
	return limit
}

func nullString(val *string) any {
	if val == nil {
		return nil
	}
	return *val
}

func nullInt64(val *int64) any {
	if val == nil {
		return nil
	}
	return *val
}

func nullDecimal(val *decimal.Decimal) any {
	if val == nil {
		return nil
	}
	return *val
}

func nullTime(val *time.Time) any {
	if val == nil {
		return nil
	}
	return *val
}

func stringPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func int64Ptr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}
