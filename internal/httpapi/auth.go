package httpapi

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"posledger/backend/internal/domain"
	"posledger/backend/internal/store"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInactiveAccount    = errors.New("account is inactive")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

const (
	tokenType   = "bearer"
	rememberTTL = 7 * 24 * time.Hour
)

// IdentityStore is the slice of the repository the auth flow needs.
type IdentityStore interface {
	CreateTenantWithOwner(ctx context.Context, tenant domain.Tenant, owner domain.User) (*domain.Tenant, *domain.User, error)
	GetTenant(ctx context.Context, id int64) (*domain.Tenant, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
}

type AuthManager struct {
	secret   []byte
	tokenTTL time.Duration
	users    IdentityStore
	now      func() time.Time
}

type posClaims struct {
	jwtlib.RegisteredClaims
	Role     string `json:"role"`
	TenantID int64  `json:"tenant_id"`
	UserID   int64  `json:"user_id"`
}

func NewAuthManager(secret string, tokenTTL time.Duration, users IdentityStore) *AuthManager {
	if secret == "" {
		secret = "dev-change-me"
	}
	if tokenTTL <= 0 {
		tokenTTL = 30 * time.Minute
	}
	return &AuthManager{
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
		users:    users,
		now:      time.Now,
	}
}

// Signup registers a store together with its owner account and returns a
// token for the new owner.
func (a *AuthManager) Signup(ctx context.Context, req domain.SignupRequest) (domain.SignupResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	switch {
	case strings.TrimSpace(req.StoreName) == "":
		return domain.SignupResponse{}, fmt.Errorf("%w: store name is required", store.ErrInvalidInput)
	case strings.TrimSpace(req.FirstName) == "":
		return domain.SignupResponse{}, fmt.Errorf("%w: first name is required", store.ErrInvalidInput)
	case !strings.Contains(email, "@"):
		return domain.SignupResponse{}, fmt.Errorf("%w: a valid email is required", store.ErrInvalidInput)
	case !req.TermsAccepted:
		return domain.SignupResponse{}, fmt.Errorf("%w: terms must be accepted", store.ErrInvalidInput)
	}
	if err := checkPasswordStrength(req.Password); err != nil {
		return domain.SignupResponse{}, err
	}

	code := generateStoreCode()
	if req.StoreCode != nil && strings.TrimSpace(*req.StoreCode) != "" {
		code = strings.ToUpper(strings.TrimSpace(*req.StoreCode))
	}
	planID := strings.TrimSpace(req.PlanID)
	if planID == "" {
		planID = domain.DefaultPlanID
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		return domain.SignupResponse{}, fmt.Errorf("hash password: %w", err)
	}

	tenant, owner, err := a.users.CreateTenantWithOwner(ctx,
		domain.Tenant{
			BusinessName:       strings.TrimSpace(req.StoreName),
			StoreCode:          code,
			ContactPhone:       strings.TrimSpace(req.ContactPhone),
			Address:            strings.TrimSpace(req.Address),
			City:               strings.TrimSpace(req.City),
			State:              strings.TrimSpace(req.State),
			RegistrationNumber: req.RegistrationNumber,
			PlanID:             planID,
			SubscriptionStatus: domain.SubscriptionActive,
		},
		domain.User{
			FirstName:    strings.TrimSpace(req.FirstName),
			LastName:     strings.TrimSpace(req.LastName),
			Email:        email,
			PasswordHash: hash,
			Role:         domain.RoleOwner,
			Active:       true,
		},
	)
	if err != nil {
		return domain.SignupResponse{}, err
	}

	token, _, err := a.IssueToken(*owner, a.tokenTTL)
	if err != nil {
		return domain.SignupResponse{}, err
	}
	return domain.SignupResponse{
		UserID:      owner.ID,
		StoreID:     tenant.ID,
		AccessToken: token,
		TokenType:   tokenType,
		Message:     "Store registered successfully",
	}, nil
}

func (a *AuthManager) Login(ctx context.Context, req domain.LoginRequest) (domain.LoginResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return domain.LoginResponse{}, ErrInvalidCredentials
	}

	user, err := a.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.LoginResponse{}, ErrInvalidCredentials
		}
		return domain.LoginResponse{}, err
	}
	if !verifyPassword(user.PasswordHash, req.Password) {
		return domain.LoginResponse{}, ErrInvalidCredentials
	}
	if !user.Active {
		return domain.LoginResponse{}, ErrInactiveAccount
	}

	tenant, err := a.users.GetTenant(ctx, user.TenantID)
	if err != nil {
		return domain.LoginResponse{}, err
	}

	ttl := a.tokenTTL
	if req.RememberMe {
		ttl = rememberTTL
	}
	token, _, err := a.IssueToken(*user, ttl)
	if err != nil {
		return domain.LoginResponse{}, err
	}

	return domain.LoginResponse{
		AccessToken: token,
		TokenType:   tokenType,
		ExpiresIn:   int64(ttl.Seconds()),
		User: domain.LoginUser{
			ID:        user.ID,
			FirstName: user.FirstName,
			LastName:  user.LastName,
			Email:     user.Email,
			Role:      user.Role,
		},
		Store: domain.LoginStore{
			ID:                 tenant.ID,
			BusinessName:       tenant.BusinessName,
			SubscriptionStatus: tenant.SubscriptionStatus,
		},
		SubscriptionStatus: tenant.SubscriptionStatus,
		Message:            "Login successful",
	}, nil
}

// IssueToken signs an HS256 token for user valid for ttl.
func (a *AuthManager) IssueToken(user domain.User, ttl time.Duration) (string, time.Time, error) {
	now := a.now().UTC()
	expiresAt := now.Add(ttl)
	claims := posClaims{
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   user.Email,
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(expiresAt),
			Issuer:    "posledger",
		},
		Role:     user.Role,
		TenantID: user.TenantID,
		UserID:   user.ID,
	}
	token, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

func (a *AuthManager) ParseToken(tokenStr string) (domain.Principal, error) {
	claims := &posClaims{}
	token, err := jwtlib.ParseWithClaims(tokenStr, claims, func(t *jwtlib.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.secret, nil
	}, jwtlib.WithValidMethods([]string{"HS256"}), jwtlib.WithExpirationRequired())
	if err != nil || !token.Valid {
		return domain.Principal{}, ErrInvalidToken
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" || claims.TenantID == 0 || claims.UserID == 0 {
		return domain.Principal{}, ErrInvalidToken
	}
	return domain.Principal{
		UserID:   claims.UserID,
		TenantID: claims.TenantID,
		Email:    sub,
		Role:     claims.Role,
	}, nil
}

func checkPasswordStrength(password string) error {
	var upper, digit, special bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			special = true
		}
	}
	switch {
	case len(password) < 8:
		return fmt.Errorf("%w: password must be at least 8 characters", store.ErrInvalidInput)
	case !upper:
		return fmt.Errorf("%w: password must contain an upper-case letter", store.ErrInvalidInput)
	case !digit:
		return fmt.Errorf("%w: password must contain a digit", store.ErrInvalidInput)
	case !special:
		return fmt.Errorf("%w: password must contain a special character", store.ErrInvalidInput)
	}
	return nil
}

func generateStoreCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:8]
}

func verifyPassword(stored string, input string) bool {
	if stored == "" || strings.TrimSpace(input) == "" || !isPasswordHash(stored) {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(input)) == nil
}

func hashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

func isPasswordHash(value string) bool {
	return strings.HasPrefix(value, "$2a$") || strings.HasPrefix(value, "$2b$") || strings.HasPrefix(value, "$2y$")
}
