package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"posledger/backend/internal/domain"
	"posledger/backend/internal/logger"
	"posledger/backend/internal/store"
)

const defaultMinStockLevel = 10

func (s *Service) ListCategories(ctx context.Context) ([]domain.Category, error) {
	p, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.ListCategories(ctx, p.TenantID)
}

func (s *Service) GetCategory(ctx context.Context, id int64) (domain.Category, error) {
	p, err := principal(ctx)
	if err != nil {
		return domain.Category{}, err
	}
	c, err := s.repo.GetCategory(ctx, p.TenantID, id)
	if err != nil {
		return domain.Category{}, err
	}
	return *c, nil
}

func (s *Service) CreateCategory(ctx context.Context, req domain.CategoryRequest) (domain.Category, error) {
	p, err := requireCatalogWriter(ctx)
	if err != nil {
		return domain.Category{}, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Category{}, fmt.Errorf("%w: category name is required", store.ErrInvalidInput)
	}
	created, err := s.repo.CreateCategory(ctx, domain.Category{
		TenantID:    p.TenantID,
		Name:        name,
		Description: trimmedOrNil(req.Description),
	})
	if err != nil {
		return domain.Category{}, err
	}
	return *created, nil
}

func (s *Service) UpdateCategory(ctx context.Context, id int64, req domain.CategoryRequest) (domain.Category, error) {
	p, err := requireCatalogWriter(ctx)
	if err != nil {
		return domain.Category{}, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Category{}, fmt.Errorf("%w: category name is required", store.ErrInvalidInput)
	}
	updated, err := s.repo.UpdateCategory(ctx, domain.Category{
		ID:          id,
		TenantID:    p.TenantID,
		Name:        name,
		Description: trimmedOrNil(req.Description),
	})
	if err != nil {
		return domain.Category{}, err
	}
	return *updated, nil
}

func (s *Service) DeleteCategory(ctx context.Context, id int64) error {
	p, err := requireCatalogWriter(ctx)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteCategory(ctx, p.TenantID, id); err != nil {
		return err
	}
	logger.FromContext(ctx).Info("category deleted", zap.Int64("tenant_id", p.TenantID), zap.Int64("category_id", id))
	return nil
}

func (s *Service) ListProducts(ctx context.Context, filter store.ProductFilter) ([]domain.Product, error) {
	p, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	filter.Barcode = strings.TrimSpace(filter.Barcode)
	return s.repo.ListProducts(ctx, p.TenantID, filter)
}

func (s *Service) GetProduct(ctx context.Context, id int64) (domain.Product, error) {
	p, err := principal(ctx)
	if err != nil {
		return domain.Product{}, err
	}
	product, err := s.repo.GetProduct(ctx, p.TenantID, id)
	if err != nil {
		return domain.Product{}, err
	}
	return *product, nil
}

func (s *Service) GetProductByBarcode(ctx context.Context, barcode string) (domain.Product, error) {
	p, err := principal(ctx)
	if err != nil {
		return domain.Product{}, err
	}
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return domain.Product{}, fmt.Errorf("%w: barcode is required", store.ErrInvalidInput)
	}
	product, err := s.repo.GetProductByBarcode(ctx, p.TenantID, barcode)
	if err != nil {
		return domain.Product{}, err
	}
	return *product, nil
}

func (s *Service) CreateProduct(ctx context.Context, req domain.ProductCreateRequest) (domain.Product, error) {
	p, err := requireCatalogWriter(ctx)
	if err != nil {
		return domain.Product{}, err
	}

	product := domain.Product{
		TenantID:      p.TenantID,
		Name:          strings.TrimSpace(req.Name),
		Barcode:       trimmedOrNil(req.Barcode),
		CategoryID:    req.CategoryID,
		CostPrice:     req.CostPrice.Round(2),
		SellingPrice:  req.SellingPrice.Round(2),
		StockQuantity: req.StockQuantity,
		MinStockLevel: defaultMinStockLevel,
	}
	if req.MinStockLevel != nil {
		product.MinStockLevel = *req.MinStockLevel
	}
	if err := validateProduct(product); err != nil {
		return domain.Product{}, err
	}

	created, err := s.repo.CreateProduct(ctx, product)
	if err != nil {
		return domain.Product{}, err
	}
	logger.FromContext(ctx).Info("product created",
		zap.Int64("tenant_id", p.TenantID),
		zap.Int64("product_id", created.ID),
		zap.String("price", created.SellingPrice.StringFixed(2)),
		zap.Int("stock", created.StockQuantity),
	)
	return *created, nil
}

// UpdateProduct applies only the fields present in the patch. Stock is left to
// the store unless the patch sets it. Past sales keep their own name and price
// snapshots.
func (s *Service) UpdateProduct(ctx context.Context, id int64, patch domain.ProductPatch) (domain.Product, error) {
	p, err := requireCatalogWriter(ctx)
	if err != nil {
		return domain.Product{}, err
	}
	existing, err := s.repo.GetProduct(ctx, p.TenantID, id)
	if err != nil {
		return domain.Product{}, err
	}

	updated := *existing
	if patch.Name != nil {
		updated.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Barcode != nil {
		updated.Barcode = trimmedOrNil(patch.Barcode)
	}
	if patch.CategoryID != nil {
		categoryID := *patch.CategoryID
		updated.CategoryID = &categoryID
	}
	if patch.CostPrice != nil {
		updated.CostPrice = patch.CostPrice.Round(2)
	}
	if patch.SellingPrice != nil {
		updated.SellingPrice = patch.SellingPrice.Round(2)
	}
	if patch.StockQuantity != nil {
		updated.StockQuantity = *patch.StockQuantity
	}
	if patch.MinStockLevel != nil {
		updated.MinStockLevel = *patch.MinStockLevel
	}
	if err := validateProduct(updated); err != nil {
		return domain.Product{}, err
	}

	saved, err := s.repo.UpdateProduct(ctx, store.ProductUpdate{
		Product:  updated,
		SetStock: patch.StockQuantity != nil,
	})
	if err != nil {
		return domain.Product{}, err
	}
	if !saved.SellingPrice.Equal(existing.SellingPrice) {
		logger.FromContext(ctx).Info("product price changed",
			zap.Int64("tenant_id", p.TenantID),
			zap.Int64("product_id", saved.ID),
			zap.String("old", existing.SellingPrice.StringFixed(2)),
			zap.String("new", saved.SellingPrice.StringFixed(2)),
		)
	}
	return *saved, nil
}

func (s *Service) DeleteProduct(ctx context.Context, id int64) error {
	p, err := requireCatalogWriter(ctx)
	if err != nil {
		return err
	}
	return s.repo.DeleteProduct(ctx, p.TenantID, id)
}

func validateProduct(p domain.Product) error {
	switch {
	case p.Name == "":
		return fmt.Errorf("%w: product name is required", store.ErrInvalidInput)
	case p.SellingPrice.LessThan(decimal.Zero):
		return fmt.Errorf("%w: selling price cannot be negative", store.ErrInvalidInput)
	case p.CostPrice.LessThan(decimal.Zero):
		return fmt.Errorf("%w: cost price cannot be negative", store.ErrInvalidInput)
	case p.StockQuantity < 0:
		return fmt.Errorf("%w: stock quantity cannot be negative", store.ErrInvalidInput)
	case p.MinStockLevel < 0:
		return fmt.Errorf("%w: minimum stock level cannot be negative", store.ErrInvalidInput)
	}
	return nil
}

func trimmedOrNil(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
