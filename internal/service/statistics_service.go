package service

import (
	"context"
	"fmt"
	"time"

	"vetclinic/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type RevenueSummary struct {
	From            string `json:"from"`
	To              string `json:"to"`
	InvoicedTotal   string `json:"invoiced_total"`
	CollectedTotal  string `json:"collected_total"`
	OutstandingDue  string `json:"outstanding_due"`
	InvoiceCount    int64  `json:"invoice_count"`
	PaymentCount    int64  `json:"payment_count"`
	OverdueInvoices int64  `json:"overdue_invoices"`
}

type DashboardCounts struct {
	Owners            int64 `json:"owners"`
	Pets              int64 `json:"pets"`
	AppointmentsToday int64 `json:"appointments_today"`
	OpenInvoices      int64 `json:"open_invoices"`
	LowStockItems     int64 `json:"low_stock_items"`
}

// --- Interface ---

type StatisticsService interface {
	RevenueSummary(ctx context.Context, from, to string) (*RevenueSummary, error)
	DashboardCounts(ctx context.Context) (*DashboardCounts, error)
}

type statisticsService struct {
	db *gorm.DB
}

func NewStatisticsService(db *gorm.DB) StatisticsService {
	return &statisticsService{db: db}
}

// RevenueSummary aggregates invoiced and collected amounts over a date
// range. Sums are carried as decimals end to end; the database never
// recomputes any derived value.
func (s *statisticsService) RevenueSummary(ctx context.Context, from, to string) (*RevenueSummary, error) {
	fromDate, toDate, err := parseDateRange(from, to)
	if err != nil {
		return nil, err
	}
	// Include the full last day
	rangeEnd := toDate.Add(24 * time.Hour)

	var invoiced struct {
		Total decimal.Decimal
		Count int64
	}
	if err := s.db.WithContext(ctx).Model(&model.Invoice{}).
		Select("COALESCE(SUM(total_amount), 0) AS total, COUNT(*) AS count").
		Where("created_at >= ? AND created_at < ?", fromDate, rangeEnd).
		Scan(&invoiced).Error; err != nil {
		return nil, fmt.Errorf("failed to aggregate invoices: %w", err)
	}

	var collected struct {
		Total decimal.Decimal
		Count int64
	}
	if err := s.db.WithContext(ctx).Model(&model.Payment{}).
		Select("COALESCE(SUM(amount), 0) AS total, COUNT(*) AS count").
		Where("paid_at >= ? AND paid_at < ?", fromDate, rangeEnd).
		Scan(&collected).Error; err != nil {
		return nil, fmt.Errorf("failed to aggregate payments: %w", err)
	}

	var outstanding decimal.Decimal
	if err := s.db.WithContext(ctx).Model(&model.Invoice{}).
		Select("COALESCE(SUM(balance_due), 0)").
		Where("balance_due > 0 AND created_at >= ? AND created_at < ?", fromDate, rangeEnd).
		Scan(&outstanding).Error; err != nil {
		return nil, fmt.Errorf("failed to aggregate outstanding balances: %w", err)
	}

	var overdue int64
	if err := s.db.WithContext(ctx).Model(&model.Invoice{}).
		Where("balance_due > 0 AND due_date < ?", time.Now()).
		Count(&overdue).Error; err != nil {
		return nil, fmt.Errorf("failed to count overdue invoices: %w", err)
	}

	return &RevenueSummary{
		From:            fromDate.Format("2006-01-02"),
		To:              toDate.Format("2006-01-02"),
		InvoicedTotal:   invoiced.Total.StringFixed(2),
		CollectedTotal:  collected.Total.StringFixed(2),
		OutstandingDue:  outstanding.StringFixed(2),
		InvoiceCount:    invoiced.Count,
		PaymentCount:    collected.Count,
		OverdueInvoices: overdue,
	}, nil
}

func (s *statisticsService) DashboardCounts(ctx context.Context) (*DashboardCounts, error) {
	counts := &DashboardCounts{}
	db := s.db.WithContext(ctx)

	if err := db.Model(&model.Owner{}).Count(&counts.Owners).Error; err != nil {
		return nil, fmt.Errorf("failed to count owners: %w", err)
	}
	if err := db.Model(&model.Pet{}).Count(&counts.Pets).Error; err != nil {
		return nil, fmt.Errorf("failed to count pets: %w", err)
	}

	dayStart := startOfDay(time.Now())
	if err := db.Model(&model.Appointment{}).
		Where("status = ? AND starts_at >= ? AND starts_at < ?",
			model.AppointmentScheduled, dayStart, dayStart.Add(24*time.Hour)).
		Count(&counts.AppointmentsToday).Error; err != nil {
		return nil, fmt.Errorf("failed to count appointments: %w", err)
	}

	if err := db.Model(&model.Invoice{}).
		Where("balance_due > 0").
		Count(&counts.OpenInvoices).Error; err != nil {
		return nil, fmt.Errorf("failed to count open invoices: %w", err)
	}

	if err := db.Model(&model.InventoryItem{}).
		Where("current_stock <= reorder_point").
		Count(&counts.LowStockItems).Error; err != nil {
		return nil, fmt.Errorf("failed to count low stock items: %w", err)
	}

	return counts, nil
}

// startOfDay returns midnight of t's calendar day in t's own location
func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func parseDateRange(from, to string) (time.Time, time.Time, error) {
	now := time.Now()
	fromDate := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	toDate := now

	var err error
	if from != "" {
		fromDate, err = time.Parse("2006-01-02", from)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid from date: %w", err)
		}
	}
	if to != "" {
		toDate, err = time.Parse("2006-01-02", to)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid to date: %w", err)
		}
	}
	if toDate.Before(fromDate) {
		return time.Time{}, time.Time{}, fmt.Errorf("to date is before from date")
	}
	return fromDate, toDate, nil
}
