package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"posledger/backend/internal/domain"
)

func sampleTransaction() *domain.Transaction {
	return &domain.Transaction{
		ID:            41,
		TenantID:      7,
		Subtotal:      decimal.RequireFromString("15.00"),
		TotalAmount:   decimal.RequireFromString("15.00"),
		DiscountType:  domain.DiscountNone,
		PaymentMethod: domain.PaymentCash,
		CreatedAt:     time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
		Items: []domain.TransactionItem{{
			ID: 1, TransactionID: 41, ProductID: 3, ProductName: "Cola", Quantity: 3,
			UnitPrice: decimal.RequireFromString("5.00"), TotalPrice: decimal.RequireFromString("15.00"),
		}},
	}
}

func TestTransactionKeyIsTenantScoped(t *testing.T) {
	assert.Equal(t, "pos:txn:7:41", TransactionKey(7, 41))
	assert.NotEqual(t, TransactionKey(7, 41), TransactionKey(8, 41))
}

func TestEncodeDecodeUnderOwnKey(t *testing.T) {
	txn := sampleTransaction()
	key := TransactionKey(txn.TenantID, txn.ID)

	payload, err := encodeTransaction(key, txn)
	require.NoError(t, err)
	got, err := decodeTransaction(key, payload)
	require.NoError(t, err)
	assert.Equal(t, "Cola", got.Items[0].ProductName)
	assert.True(t, got.TotalAmount.Equal(txn.TotalAmount))
}

func TestEncodeRefusesForeignKey(t *testing.T) {
	_, err := encodeTransaction(TransactionKey(8, 41), sampleTransaction())
	require.Error(t, err)
}

func TestDecodeRejectsMismatchedOrGarbledEntries(t *testing.T) {
	txn := sampleTransaction()
	payload, err := encodeTransaction(TransactionKey(txn.TenantID, txn.ID), txn)
	require.NoError(t, err)

	_, err = decodeTransaction(TransactionKey(8, 41), payload)
	assert.ErrorIs(t, err, ErrBadEntry)

	_, err = decodeTransaction(TransactionKey(7, 41), []byte("{not json"))
	assert.ErrorIs(t, err, ErrBadEntry)
}

func TestNoopCacheAlwaysMisses(t *testing.T) {
	var c TransactionCache = NoopTransactionCache{}
	require.NoError(t, c.Set(context.Background(), "k", sampleTransaction(), time.Minute))
	got, ok, err := c.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, got)
}

// Runs against a real server when POS_TEST_REDIS_ADDR is set.
func TestRedisCacheRoundTrip(t *testing.T) {
	addr := os.Getenv("POS_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("POS_TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	c := NewRedisTransactionCache(addr, "", 0)
	t.Cleanup(func() { _ = c.Close() })
	require.NoError(t, c.Ping(ctx))

	txn := sampleTransaction()
	txn.ID = time.Now().UnixNano()
	key := TransactionKey(txn.TenantID, txn.ID)
	t.Cleanup(func() { _ = c.client.Del(ctx, key).Err() })

	require.NoError(t, c.Set(ctx, key, txn, time.Minute))
	changed := *txn
	changed.PaymentMethod = domain.PaymentCard
	require.NoError(t, c.Set(ctx, key, &changed, time.Minute))

	got, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, domain.PaymentCash, got.PaymentMethod)

	require.NoError(t, c.client.Set(ctx, key, "{broken", time.Minute).Err())
	_, ok, err = c.Get(ctx, key)
	assert.ErrorIs(t, err, ErrBadEntry)
	assert.False(t, ok)
	exists, err := c.client.Exists(ctx, key).Result()
	require.NoError(t, err)
	assert.Zero(t, exists)
}
