package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Money goes over the wire as JSON numbers, matching what POS clients send.
	decimal.MarshalJSONWithoutQuotes = true
}

type Tenant struct {
	ID                 int64     `json:"id"`
	BusinessName       string    `json:"business_name"`
	StoreCode          string    `json:"store_code"`
	ContactPhone       string    `json:"contact_phone"`
	Address            string    `json:"address"`
	City               string    `json:"city"`
	State              string    `json:"state"`
	RegistrationNumber *string   `json:"registration_number,omitempty"`
	PlanID             string    `json:"plan_id"`
	SubscriptionStatus string    `json:"subscription_status"`
	CreatedAt          time.Time `json:"created_at"`
}

// User is a store account holder. PasswordHash is a bcrypt hash and never serialized.
type User struct {
	ID           int64     `json:"id"`
	TenantID     int64     `json:"tenant_id"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	Active       bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

func (u User) DisplayName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// Principal is the authenticated caller extracted from a bearer token.
type Principal struct {
	UserID   int64
	TenantID int64
	Email    string
	Role     string
}

type SignupRequest struct {
	StoreName          string  `json:"store_name"`
	StoreCode          *string `json:"store_code,omitempty"`
	ContactPhone       string  `json:"contact_phone"`
	Address            string  `json:"address"`
	City               string  `json:"city"`
	State              string  `json:"state"`
	RegistrationNumber *string `json:"registration_number,omitempty"`
	FirstName          string  `json:"first_name"`
	LastName           string  `json:"last_name"`
	Email              string  `json:"email"`
	Password           string  `json:"password"`
	PlanID             string  `json:"plan_id"`
	TermsAccepted      bool    `json:"terms_accepted"`
}

type SignupResponse struct {
	UserID      int64  `json:"user_id"`
	StoreID     int64  `json:"store_id"`
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Message     string `json:"message"`
}

type LoginRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	RememberMe bool   `json:"remember_me"`
}

type LoginUser struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
}

type LoginStore struct {
	ID                 int64  `json:"id"`
	BusinessName       string `json:"business_name"`
	SubscriptionStatus string `json:"subscription_status"`
}

type LoginResponse struct {
	AccessToken        string     `json:"access_token"`
	TokenType          string     `json:"token_type"`
	ExpiresIn          int64      `json:"expires_in"`
	User               LoginUser  `json:"user"`
	Store              LoginStore `json:"store"`
	SubscriptionStatus string     `json:"subscription_status"`
	Message            string     `json:"message"`
}

type Category struct {
	ID          int64     `json:"id"`
	TenantID    int64     `json:"tenant_id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type CategoryRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
}

type Product struct {
	ID            int64           `json:"id"`
	TenantID      int64           `json:"tenant_id"`
	Name          string          `json:"name"`
	Barcode       *string         `json:"barcode"`
	CategoryID    *int64          `json:"category_id"`
	CategoryName  *string         `json:"category_name"`
	CostPrice     decimal.Decimal `json:"cost_price"`
	SellingPrice  decimal.Decimal `json:"selling_price"`
	StockQuantity int             `json:"stock_quantity"`
	MinStockLevel int             `json:"min_stock_level"`
}

func (p Product) LowStock() bool {
	return p.StockQuantity <= p.MinStockLevel
}

type ProductCreateRequest struct {
	Name          string          `json:"name"`
	Barcode       *string         `json:"barcode,omitempty"`
	CategoryID    *int64          `json:"category_id,omitempty"`
	CostPrice     decimal.Decimal `json:"cost_price"`
	SellingPrice  decimal.Decimal `json:"selling_price"`
	StockQuantity int             `json:"stock_quantity"`
	MinStockLevel *int            `json:"min_stock_level,omitempty"`
}

// ProductPatch applies only the non-nil fields.
type ProductPatch struct {
	Name          *string          `json:"name,omitempty"`
	Barcode       *string          `json:"barcode,omitempty"`
	CategoryID    *int64           `json:"category_id,omitempty"`
	CostPrice     *decimal.Decimal `json:"cost_price,omitempty"`
	SellingPrice  *decimal.Decimal `json:"selling_price,omitempty"`
	StockQuantity *int             `json:"stock_quantity,omitempty"`
	MinStockLevel *int             `json:"min_stock_level,omitempty"`
}

type Customer struct {
	ID               int64           `json:"id"`
	TenantID         int64           `json:"tenant_id"`
	Name             string          `json:"name"`
	Email            *string         `json:"email"`
	Phone            *string         `json:"phone"`
	Address          *string         `json:"address"`
	City             *string         `json:"city"`
	State            *string         `json:"state"`
	LoyaltyPoints    int64           `json:"loyalty_points"`
	TotalPurchases   decimal.Decimal `json:"total_purchases"`
	LastPurchaseDate *time.Time      `json:"last_purchase_date"`
	CreatedAt        time.Time       `json:"created_at"`
}

type CustomerCreateRequest struct {
	Name    string  `json:"name"`
	Email   *string `json:"email,omitempty"`
	Phone   *string `json:"phone,omitempty"`
	Address *string `json:"address,omitempty"`
	City    *string `json:"city,omitempty"`
	State   *string `json:"state,omitempty"`
}

// CustomerPatch covers contact fields only; loyalty state is owned by the sale path.
type CustomerPatch struct {
	Name    *string `json:"name,omitempty"`
	Email   *string `json:"email,omitempty"`
	Phone   *string `json:"phone,omitempty"`
	Address *string `json:"address,omitempty"`
	City    *string `json:"city,omitempty"`
	State   *string `json:"state,omitempty"`
}

// CustomerPurchase is the loyalty delta applied to a customer after a sale.
type CustomerPurchase struct {
	CustomerID int64
	TenantID   int64
	Amount     decimal.Decimal
	Points     int64
	At         time.Time
}

// CartItem is one requested line. ProductName and UnitPrice are what the
// terminal displayed; they are never used for pricing.
type CartItem struct {
	ProductID   int64            `json:"product_id"`
	ProductName string           `json:"product_name,omitempty"`
	Quantity    int              `json:"quantity"`
	UnitPrice   *decimal.Decimal `json:"unit_price,omitempty"`
}

type TransactionCreateRequest struct {
	Items         []CartItem       `json:"items"`
	PaymentMethod string           `json:"payment_method"`
	CustomerID    *int64           `json:"customer_id,omitempty"`
	DiscountType  *string          `json:"discount_type,omitempty"`
	DiscountValue *decimal.Decimal `json:"discount_value,omitempty"`
}

type TransactionItem struct {
	ID            int64           `json:"id"`
	TransactionID int64           `json:"transaction_id"`
	ProductID     int64           `json:"product_id"`
	ProductName   string          `json:"product_name"`
	Quantity      int             `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	TotalPrice    decimal.Decimal `json:"total_price"`
}

type Transaction struct {
	ID             int64             `json:"id"`
	TenantID       int64             `json:"tenant_id"`
	UserID         int64             `json:"user_id"`
	CustomerID     *int64            `json:"customer_id"`
	Subtotal       decimal.Decimal   `json:"subtotal"`
	DiscountAmount decimal.Decimal   `json:"discount_amount"`
	DiscountType   string            `json:"discount_type"`
	DiscountValue  *decimal.Decimal  `json:"discount_value"`
	TotalAmount    decimal.Decimal   `json:"total_amount"`
	PaymentMethod  string            `json:"payment_method"`
	CreatedAt      time.Time         `json:"created_at"`
	Items          []TransactionItem `json:"items"`
	CustomerName   *string           `json:"customer_name"`
}

type TransactionResponse struct {
	ID          int64           `json:"id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	CreatedAt   time.Time       `json:"created_at"`
	Message     string          `json:"message"`
}

type Receipt struct {
	TransactionID   int64             `json:"transaction_id"`
	StoreName       string            `json:"store_name"`
	StoreAddress    string            `json:"store_address"`
	StorePhone      string            `json:"store_phone"`
	TransactionDate time.Time         `json:"transaction_date"`
	Items           []TransactionItem `json:"items"`
	Subtotal        decimal.Decimal   `json:"subtotal"`
	DiscountAmount  decimal.Decimal   `json:"discount_amount"`
	TotalAmount     decimal.Decimal   `json:"total_amount"`
	PaymentMethod   string            `json:"payment_method"`
	CustomerName    *string           `json:"customer_name"`
	CashierName     string            `json:"cashier_name"`
}

type SalesSummary struct {
	Total decimal.Decimal
	Count int64
}

type DashboardStats struct {
	TodaySales          decimal.Decimal `json:"today_sales"`
	TodayTransactions   int64           `json:"today_transactions"`
	LowStockItems       int64           `json:"low_stock_items"`
	TotalProducts       int64           `json:"total_products"`
	MonthlySales        decimal.Decimal `json:"monthly_sales"`
	MonthlyTransactions int64           `json:"monthly_transactions"`
}

type DailySales struct {
	Date             string          `json:"date"`
	TotalSales       decimal.Decimal `json:"total_sales"`
	TransactionCount int64           `json:"transaction_count"`
}

const (
	PaymentCash = "cash"
	PaymentCard = "card"
	PaymentUPI  = "upi"
)

const (
	DiscountNone       = "none"
	DiscountPercentage = "percentage"
	DiscountFixed      = "fixed"
)

const (
	RoleOwner   = "owner"
	RoleManager = "manager"
	RoleCashier = "cashier"
)

const (
	SubscriptionActive = "active"
	DefaultPlanID      = "basic"
)
