package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"

	"posledger/backend/internal/domain"
)

// ErrBadEntry is returned for a cached value that does not decode to the
// transaction its key names. The entry is dropped before returning.
var ErrBadEntry = errors.New("bad transaction cache entry")

type RedisTransactionCache struct {
	client *redis.Client
}

func NewRedisTransactionCache(addr string, password string, db int) *RedisTransactionCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	return &RedisTransactionCache{client: client}
}

func (c *RedisTransactionCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisTransactionCache) Close() error {
	return c.client.Close()
}

func (c *RedisTransactionCache) Get(ctx context.Context, key string) (*domain.Transaction, bool, error) {
	val, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	txn, err := decodeTransaction(key, val)
	if err != nil {
		if delErr := c.client.Del(ctx, key).Err(); delErr != nil {
			return nil, false, errors.Join(err, delErr)
		}
		return nil, false, err
	}
	return txn, true, nil
}

// Set stores value only if key is absent. A committed transaction never
// changes, so an existing entry is already correct.
func (c *RedisTransactionCache) Set(ctx context.Context, key string, value *domain.Transaction, ttl time.Duration) error {
	if value == nil {
		return nil
	}
	payload, err := encodeTransaction(key, value)
	if err != nil {
		return err
	}
	return c.client.SetNX(ctx, key, payload, ttl).Err()
}

func encodeTransaction(key string, value *domain.Transaction) ([]byte, error) {
	if want := TransactionKey(value.TenantID, value.ID); want != key {
		return nil, fmt.Errorf("transaction %d of tenant %d does not belong under %s", value.ID, value.TenantID, key)
	}
	return json.Marshal(value)
}

func decodeTransaction(key string, payload []byte) (*domain.Transaction, error) {
	var txn domain.Transaction
	if err := json.Unmarshal(payload, &txn); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrBadEntry, key, err)
	}
	if TransactionKey(txn.TenantID, txn.ID) != key {
		return nil, fmt.Errorf("%w: %s holds transaction %d of tenant %d", ErrBadEntry, key, txn.ID, txn.TenantID)
	}
	return &txn, nil
}
