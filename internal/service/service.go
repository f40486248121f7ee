package service

import (
	"context"
	"errors"
	"slices"
	"time"

	"golang.org/x/sync/singleflight"

	"posledger/backend/internal/cache"
	"posledger/backend/internal/domain"
	"posledger/backend/internal/metrics"
	"posledger/backend/internal/store"
)

var (
	ErrUnauthorized = errors.New("authentication required")
	ErrForbidden    = errors.New("insufficient role for this operation")
)

const (
	defaultPageLimit = 100
	maxPageLimit     = 500
)

type principalContextKey struct{}

func WithPrincipal(ctx context.Context, p domain.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

func PrincipalFromContext(ctx context.Context) (domain.Principal, bool) {
	p, ok := ctx.Value(principalContextKey{}).(domain.Principal)
	return p, ok
}

type Options struct {
	Cache    cache.TransactionCache
	CacheTTL time.Duration
	Metrics  *metrics.Metrics
	// Now is the sale clock. Defaults to time.Now.
	Now func() time.Time
}

type Service struct {
	repo     store.Repository
	cache    cache.TransactionCache
	cacheTTL time.Duration
	metrics  *metrics.Metrics
	loads    singleflight.Group
	now      func() time.Time
}

func New(repo store.Repository, opts Options) *Service {
	if opts.Cache == nil {
		opts.Cache = cache.NoopTransactionCache{}
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 10 * time.Minute
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Service{
		repo:     repo,
		cache:    opts.Cache,
		cacheTTL: opts.CacheTTL,
		metrics:  opts.Metrics,
		now:      opts.Now,
	}
}

func principal(ctx context.Context) (domain.Principal, error) {
	p, ok := PrincipalFromContext(ctx)
	if !ok || p.TenantID == 0 {
		return domain.Principal{}, ErrUnauthorized
	}
	return p, nil
}

func requireRole(ctx context.Context, roles ...string) (domain.Principal, error) {
	p, err := principal(ctx)
	if err != nil {
		return domain.Principal{}, err
	}
	if !slices.Contains(roles, p.Role) {
		return domain.Principal{}, ErrForbidden
	}
	return p, nil
}

func requireCatalogWriter(ctx context.Context) (domain.Principal, error) {
	return requireRole(ctx, domain.RoleOwner, domain.RoleManager)
}

func normalizePage(skip int, limit int) (int, int) {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return skip, limit
}
