package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"posledger/backend/internal/cache"
	"posledger/backend/internal/domain"
	"posledger/backend/internal/logger"
	"posledger/backend/internal/metrics"
	"posledger/backend/internal/pricing"
	"posledger/backend/internal/store"
)

var (
	ErrEmptyCart            = fmt.Errorf("%w: cart must contain at least one item", store.ErrInvalidInput)
	ErrInvalidQuantity      = fmt.Errorf("%w: quantity must be greater than zero", store.ErrInvalidInput)
	ErrInvalidPaymentMethod = fmt.Errorf("%w: payment method must be cash, card or upi", store.ErrInvalidInput)
)

const saleMessage = "Sale successful"

// CreateTransaction turns a cart into a committed sale. Prices and names come
// from the catalog, never from the request. Every write happens inside one
// unit of work, so a failure at any step leaves no trace.
func (s *Service) CreateTransaction(ctx context.Context, req domain.TransactionCreateRequest) (domain.TransactionResponse, error) {
	p, err := principal(ctx)
	if err != nil {
		return domain.TransactionResponse{}, err
	}

	if len(req.Items) == 0 {
		s.metrics.ObserveSale(metrics.OutcomeRejected, decimal.Zero)
		return domain.TransactionResponse{}, ErrEmptyCart
	}
	for _, item := range req.Items {
		if item.Quantity < 1 {
			s.metrics.ObserveSale(metrics.OutcomeRejected, decimal.Zero)
			return domain.TransactionResponse{}, ErrInvalidQuantity
		}
	}
	paymentMethod, err := normalizePaymentMethod(req.PaymentMethod)
	if err != nil {
		s.metrics.ObserveSale(metrics.OutcomeRejected, decimal.Zero)
		return domain.TransactionResponse{}, err
	}
	if _, err := pricing.ParseDiscountType(req.DiscountType); err != nil {
		s.metrics.ObserveSale(metrics.OutcomeRejected, decimal.Zero)
		return domain.TransactionResponse{}, err
	}

	now := s.now().UTC()
	var committed *domain.Transaction
	err = s.repo.WithinTx(ctx, func(tx store.Tx) error {
		var customer *domain.Customer
		if req.CustomerID != nil {
			c, err := tx.GetCustomerForUpdate(ctx, p.TenantID, *req.CustomerID)
			if err != nil {
				return err
			}
			customer = c
		}

		ids := make([]int64, 0, len(req.Items))
		for _, item := range req.Items {
			ids = append(ids, item.ProductID)
		}
		products, err := tx.LockProducts(ctx, p.TenantID, ids)
		if err != nil {
			return err
		}

		// Lines for the same product draw from one stock figure.
		demand := make(map[int64]int, len(products))
		for _, item := range req.Items {
			product, ok := products[item.ProductID]
			if !ok {
				return fmt.Errorf("product %w", store.ErrNotFound)
			}
			demand[item.ProductID] += item.Quantity
			if product.StockQuantity < demand[item.ProductID] {
				return &store.InsufficientStockError{ProductName: product.Name, Available: product.StockQuantity}
			}
		}

		snapshots := make([]domain.TransactionItem, 0, len(req.Items))
		lines := make([]pricing.Line, 0, len(req.Items))
		for _, item := range req.Items {
			product := products[item.ProductID]
			if err := tx.DecrementStock(ctx, p.TenantID, product.ID, item.Quantity); err != nil {
				return err
			}
			line := pricing.Line{UnitPrice: product.SellingPrice, Quantity: item.Quantity}
			lines = append(lines, line)
			snapshots = append(snapshots, domain.TransactionItem{
				ProductID:   product.ID,
				ProductName: product.Name,
				Quantity:    item.Quantity,
				UnitPrice:   product.SellingPrice,
				TotalPrice:  pricing.LineTotal(line),
			})
		}

		totals, err := pricing.Compute(lines, req.DiscountType, req.DiscountValue)
		if err != nil {
			return err
		}

		txn, err := tx.InsertTransaction(ctx, domain.Transaction{
			TenantID:       p.TenantID,
			UserID:         p.UserID,
			CustomerID:     req.CustomerID,
			Subtotal:       totals.Subtotal,
			DiscountAmount: totals.DiscountAmount,
			DiscountType:   totals.DiscountType,
			DiscountValue:  totals.DiscountValue,
			TotalAmount:    totals.Total,
			PaymentMethod:  paymentMethod,
			CreatedAt:      now,
		})
		if err != nil {
			return err
		}
		saved, err := tx.InsertTransactionItems(ctx, txn.ID, snapshots)
		if err != nil {
			return err
		}
		txn.Items = saved

		if customer != nil {
			if err := tx.ApplyCustomerPurchase(ctx, domain.CustomerPurchase{
				CustomerID: customer.ID,
				TenantID:   p.TenantID,
				Amount:     totals.Total,
				Points:     loyaltyPoints(totals.Total),
				At:         now,
			}); err != nil {
				return err
			}
			name := customer.Name
			txn.CustomerName = &name
		}

		committed = txn
		return nil
	})
	log := logger.FromContext(ctx)
	if err != nil {
		s.metrics.ObserveSale(saleOutcome(err), decimal.Zero)
		log.Info("sale rejected", zap.Int64("tenant_id", p.TenantID), zap.Int64("user_id", p.UserID), zap.Error(err))
		return domain.TransactionResponse{}, err
	}

	s.metrics.ObserveSale(metrics.OutcomeCommitted, committed.TotalAmount)
	log.Info("sale committed",
		zap.Int64("tenant_id", p.TenantID),
		zap.Int64("transaction_id", committed.ID),
		zap.String("total", committed.TotalAmount.StringFixed(2)),
		zap.Int("lines", len(committed.Items)),
	)
	if err := s.cache.Set(ctx, cache.TransactionKey(p.TenantID, committed.ID), committed, s.cacheTTL); err != nil {
		log.Warn("prime transaction cache", zap.Int64("transaction_id", committed.ID), zap.Error(err))
	}

	return domain.TransactionResponse{
		ID:          committed.ID,
		TotalAmount: committed.TotalAmount,
		CreatedAt:   committed.CreatedAt,
		Message:     saleMessage,
	}, nil
}

// loyaltyPoints awards one point per whole currency unit spent.
func loyaltyPoints(total decimal.Decimal) int64 {
	if total.IsNegative() {
		return 0
	}
	return total.Floor().IntPart()
}

func normalizePaymentMethod(raw string) (string, error) {
	method := strings.ToLower(strings.TrimSpace(raw))
	switch method {
	case domain.PaymentCash, domain.PaymentCard, domain.PaymentUPI:
		return method, nil
	default:
		return "", ErrInvalidPaymentMethod
	}
}

func saleOutcome(err error) string {
	switch {
	case errors.Is(err, store.ErrInsufficientStock):
		return metrics.OutcomeInsufficientStock
	case errors.Is(err, store.ErrNotFound):
		return metrics.OutcomeNotFound
	case errors.Is(err, pricing.ErrInvalidDiscountType),
		errors.Is(err, pricing.ErrInvalidDiscountValue),
		errors.Is(err, store.ErrInvalidInput):
		return metrics.OutcomeRejected
	default:
		return metrics.OutcomeError
	}
}

func (s *Service) ListTransactions(ctx context.Context, skip int, limit int) ([]domain.Transaction, error) {
	p, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	skip, limit = normalizePage(skip, limit)
	return s.repo.ListTransactions(ctx, p.TenantID, skip, limit)
}

// GetTransaction reads through the transaction cache. Concurrent misses for
// the same id share one repository load.
func (s *Service) GetTransaction(ctx context.Context, id int64) (domain.Transaction, error) {
	p, err := principal(ctx)
	if err != nil {
		return domain.Transaction{}, err
	}
	return s.loadTransaction(ctx, p.TenantID, id)
}

func (s *Service) loadTransaction(ctx context.Context, tenantID int64, id int64) (domain.Transaction, error) {
	key := cache.TransactionKey(tenantID, id)
	log := logger.FromContext(ctx)

	if cached, ok, err := s.cache.Get(ctx, key); err != nil {
		log.Warn("transaction cache read failed", zap.String("key", key), zap.Error(err))
	} else if ok {
		return *cached, nil
	}

	// The shared load outlives any single caller; each caller still stops
	// waiting when its own context ends.
	loadCtx := context.WithoutCancel(ctx)
	ch := s.loads.DoChan(key, func() (any, error) {
		txn, err := s.repo.GetTransaction(loadCtx, tenantID, id)
		if err != nil {
			return nil, err
		}
		if err := s.cache.Set(loadCtx, key, txn, s.cacheTTL); err != nil {
			log.Warn("transaction cache write failed", zap.String("key", key), zap.Error(err))
		}
		return txn, nil
	})
	var res singleflight.Result
	select {
	case <-ctx.Done():
		return domain.Transaction{}, ctx.Err()
	case res = <-ch:
	}
	if res.Err != nil {
		return domain.Transaction{}, res.Err
	}
	return cloneTransaction(res.Val.(*domain.Transaction)), nil
}

func (s *Service) GetReceipt(ctx context.Context, id int64) (domain.Receipt, error) {
	p, err := principal(ctx)
	if err != nil {
		return domain.Receipt{}, err
	}
	txn, err := s.loadTransaction(ctx, p.TenantID, id)
	if err != nil {
		return domain.Receipt{}, err
	}
	tenant, err := s.repo.GetTenant(ctx, p.TenantID)
	if err != nil {
		return domain.Receipt{}, err
	}

	cashier := ""
	if u, err := s.repo.GetUser(ctx, p.TenantID, txn.UserID); err == nil {
		cashier = u.DisplayName()
	} else if !errors.Is(err, store.ErrNotFound) {
		return domain.Receipt{}, err
	}

	return domain.Receipt{
		TransactionID:   txn.ID,
		StoreName:       tenant.BusinessName,
		StoreAddress:    joinAddress(tenant.Address, tenant.City, tenant.State),
		StorePhone:      tenant.ContactPhone,
		TransactionDate: txn.CreatedAt,
		Items:           txn.Items,
		Subtotal:        txn.Subtotal,
		DiscountAmount:  txn.DiscountAmount,
		TotalAmount:     txn.TotalAmount,
		PaymentMethod:   txn.PaymentMethod,
		CustomerName:    txn.CustomerName,
		CashierName:     cashier,
	}, nil
}

func joinAddress(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			kept = append(kept, part)
		}
	}
	return strings.Join(kept, ", ")
}

// cloneTransaction detaches the shared singleflight result from the caller.
func cloneTransaction(src *domain.Transaction) domain.Transaction {
	dup := *src
	dup.Items = append([]domain.TransactionItem(nil), src.Items...)
	if dup.Items == nil {
		dup.Items = []domain.TransactionItem{}
	}
	return dup
}
