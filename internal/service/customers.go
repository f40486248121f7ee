package service

import (
	"context"
	"fmt"
	"strings"

	"posledger/backend/internal/domain"
	"posledger/backend/internal/store"
)

func (s *Service) ListCustomers(ctx context.Context, filter store.CustomerFilter) ([]domain.Customer, error) {
	p, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	filter.Search = strings.TrimSpace(filter.Search)
	filter.Skip, filter.Limit = normalizePage(filter.Skip, filter.Limit)
	return s.repo.ListCustomers(ctx, p.TenantID, filter)
}

func (s *Service) GetCustomer(ctx context.Context, id int64) (domain.Customer, error) {
	p, err := principal(ctx)
	if err != nil {
		return domain.Customer{}, err
	}
	c, err := s.repo.GetCustomer(ctx, p.TenantID, id)
	if err != nil {
		return domain.Customer{}, err
	}
	return *c, nil
}

func (s *Service) CreateCustomer(ctx context.Context, req domain.CustomerCreateRequest) (domain.Customer, error) {
	p, err := principal(ctx)
	if err != nil {
		return domain.Customer{}, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Customer{}, fmt.Errorf("%w: customer name is required", store.ErrInvalidInput)
	}
	created, err := s.repo.CreateCustomer(ctx, domain.Customer{
		TenantID: p.TenantID,
		Name:     name,
		Email:    normalizeEmail(req.Email),
		Phone:    trimmedOrNil(req.Phone),
		Address:  trimmedOrNil(req.Address),
		City:     trimmedOrNil(req.City),
		State:    trimmedOrNil(req.State),
	})
	if err != nil {
		return domain.Customer{}, err
	}
	return *created, nil
}

// UpdateCustomer patches contact fields. Loyalty points and purchase totals
// only move through completed sales.
func (s *Service) UpdateCustomer(ctx context.Context, id int64, patch domain.CustomerPatch) (domain.Customer, error) {
	p, err := principal(ctx)
	if err != nil {
		return domain.Customer{}, err
	}
	existing, err := s.repo.GetCustomer(ctx, p.TenantID, id)
	if err != nil {
		return domain.Customer{}, err
	}

	updated := *existing
	if patch.Name != nil {
		updated.Name = strings.TrimSpace(*patch.Name)
		if updated.Name == "" {
			return domain.Customer{}, fmt.Errorf("%w: customer name is required", store.ErrInvalidInput)
		}
	}
	if patch.Email != nil {
		updated.Email = normalizeEmail(patch.Email)
	}
	if patch.Phone != nil {
		updated.Phone = trimmedOrNil(patch.Phone)
	}
	if patch.Address != nil {
		updated.Address = trimmedOrNil(patch.Address)
	}
	if patch.City != nil {
		updated.City = trimmedOrNil(patch.City)
	}
	if patch.State != nil {
		updated.State = trimmedOrNil(patch.State)
	}

	saved, err := s.repo.UpdateCustomer(ctx, updated)
	if err != nil {
		return domain.Customer{}, err
	}
	return *saved, nil
}

func (s *Service) DeleteCustomer(ctx context.Context, id int64) error {
	p, err := principal(ctx)
	if err != nil {
		return err
	}
	return s.repo.DeleteCustomer(ctx, p.TenantID, id)
}

func normalizeEmail(v *string) *string {
	trimmed := trimmedOrNil(v)
	if trimmed == nil {
		return nil
	}
	lower := strings.ToLower(*trimmed)
	return &lower
}
