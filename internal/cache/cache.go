package cache

import (
	"context"
	"fmt"
	"time"

	"posledger/backend/internal/domain"
)

// TransactionCache holds committed transaction details. Entries never go stale
// because transactions are immutable; the TTL only bounds memory.
type TransactionCache interface {
	Get(ctx context.Context, key string) (*domain.Transaction, bool, error)
	Set(ctx context.Context, key string, value *domain.Transaction, ttl time.Duration) error
}

func TransactionKey(tenantID int64, id int64) string {
	return fmt.Sprintf("pos:txn:%d:%d", tenantID, id)
}

type NoopTransactionCache struct{}

func (NoopTransactionCache) Get(_ context.Context, _ string) (*domain.Transaction, bool, error) {
	return nil, false, nil
}

func (NoopTransactionCache) Set(_ context.Context, _ string, _ *domain.Transaction, _ time.Duration) error {
	return nil
}
