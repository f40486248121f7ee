package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"posledger/backend/internal/domain"
)

const (
	defaultSalesDays = 30
	maxSalesDays     = 365
)

// Dashboard summarizes today and month-to-date sales in UTC days.
func (s *Service) Dashboard(ctx context.Context) (domain.DashboardStats, error) {
	p, err := principal(ctx)
	if err != nil {
		return domain.DashboardStats{}, err
	}

	dayStart := startOfDay(s.now())
	tomorrow := dayStart.AddDate(0, 0, 1)
	monthStart := time.Date(dayStart.Year(), dayStart.Month(), 1, 0, 0, 0, 0, time.UTC)

	today, err := s.repo.SalesSummary(ctx, p.TenantID, dayStart, tomorrow)
	if err != nil {
		return domain.DashboardStats{}, err
	}
	month, err := s.repo.SalesSummary(ctx, p.TenantID, monthStart, tomorrow)
	if err != nil {
		return domain.DashboardStats{}, err
	}
	total, low, err := s.repo.CountProducts(ctx, p.TenantID)
	if err != nil {
		return domain.DashboardStats{}, err
	}

	return domain.DashboardStats{
		TodaySales:          today.Total,
		TodayTransactions:   today.Count,
		LowStockItems:       low,
		TotalProducts:       total,
		MonthlySales:        month.Total,
		MonthlyTransactions: month.Count,
	}, nil
}

// SalesByDay returns one entry per UTC day for the last days days, oldest
// first, including days without sales.
func (s *Service) SalesByDay(ctx context.Context, days int) ([]domain.DailySales, error) {
	p, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	if days <= 0 {
		days = defaultSalesDays
	}
	if days > maxSalesDays {
		days = maxSalesDays
	}

	from := startOfDay(s.now()).AddDate(0, 0, -(days - 1))
	rows, err := s.repo.DailySales(ctx, p.TenantID, from)
	if err != nil {
		return nil, err
	}
	byDate := make(map[string]domain.DailySales, len(rows))
	for _, row := range rows {
		byDate[row.Date] = row
	}

	out := make([]domain.DailySales, 0, days)
	for i := range days {
		date := from.AddDate(0, 0, i).Format(time.DateOnly)
		if row, ok := byDate[date]; ok {
			out = append(out, row)
			continue
		}
		out = append(out, domain.DailySales{Date: date, TotalSales: decimal.Zero})
	}
	return out, nil
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
