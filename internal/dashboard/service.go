package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/citycare/clinic-opd/internal/appointments"
	"github.com/citycare/clinic-opd/internal/billing"
	"github.com/citycare/clinic-opd/internal/patients"
	"github.com/citycare/clinic-opd/internal/prescriptions"
)

const (
	diseaseLimit = 10
	revenueDays  = 7
)

// VisitStats supplies appointment counters for the summary.
type VisitStats interface {
	Count(ctx context.Context) (int64, error)
	CountForDate(ctx context.Context, date time.Time) (int64, error)
	StatusCountsForDate(ctx context.Context, date time.Time) ([]appointments.StatusCount, error)
}

// RevenueStats supplies billing aggregates for the summary.
type RevenueStats interface {
	RevenueForDate(ctx context.Context, date time.Time) (float64, error)
	TotalRevenue(ctx context.Context) (float64, error)
	RevenueLastNDays(ctx context.Context, days int) ([]billing.DailyRevenue, error)
}

// ClinicalStats supplies the diagnosis distribution for the summary.
type ClinicalStats interface {
	DiseaseDistribution(ctx context.Context, limit int) ([]prescriptions.DiagnosisCount, error)
}

// RegistryStats supplies the patient age breakdown for the summary.
type RegistryStats interface {
	AgeGroupCounts(ctx context.Context) ([]patients.AgeGroupCount, error)
}

// Summary is the front-desk overview for one day.
type Summary struct {
	Date              string                        `json:"date"`
	VisitsToday       int64                         `json:"visits_today"`
	TotalAppointments int64                         `json:"total_appointments"`
	RevenueToday      float64                       `json:"revenue_today"`
	TotalRevenue      float64                       `json:"total_revenue"`
	StatusBreakdown   []appointments.StatusCount    `json:"status_breakdown"`
	DiseaseChart      []prescriptions.DiagnosisCount `json:"disease_chart"`
	AgeGroups         []patients.AgeGroupCount      `json:"age_groups"`
	RevenueSeries     []billing.DailyRevenue        `json:"revenue_series"`
}

// Service assembles the dashboard summary from the record stores.
type Service struct {
	visits   VisitStats
	revenue  RevenueStats
	clinical ClinicalStats
	registry RegistryStats
}

func NewService(visits VisitStats, revenue RevenueStats, clinical ClinicalStats, registry RegistryStats) *Service {
	return &Service{visits: visits, revenue: revenue, clinical: clinical, registry: registry}
}

// Summary builds the overview for the given day.
func (s *Service) Summary(ctx context.Context, date time.Time) (*Summary, error) {
	out := Summary{Date: date.Format("2006-01-02")}

	var err error
	if out.VisitsToday, err = s.visits.CountForDate(ctx, date); err != nil {
		return nil, fmt.Errorf("dashboard: visits for date: %w", err)
	}
	if out.TotalAppointments, err = s.visits.Count(ctx); err != nil {
		return nil, fmt.Errorf("dashboard: total appointments: %w", err)
	}
	if out.StatusBreakdown, err = s.visits.StatusCountsForDate(ctx, date); err != nil {
		return nil, fmt.Errorf("dashboard: status breakdown: %w", err)
	}
	if out.RevenueToday, err = s.revenue.RevenueForDate(ctx, date); err != nil {
		return nil, fmt.Errorf("dashboard: revenue for date: %w", err)
	}
	if out.TotalRevenue, err = s.revenue.TotalRevenue(ctx); err != nil {
		return nil, fmt.Errorf("dashboard: total revenue: %w", err)
	}
	if out.RevenueSeries, err = s.revenue.RevenueLastNDays(ctx, revenueDays); err != nil {
		return nil, fmt.Errorf("dashboard: revenue series: %w", err)
	}
	if out.DiseaseChart, err = s.clinical.DiseaseDistribution(ctx, diseaseLimit); err != nil {
		return nil, fmt.Errorf("dashboard: disease chart: %w", err)
	}
	if out.AgeGroups, err = s.registry.AgeGroupCounts(ctx); err != nil {
		return nil, fmt.Errorf("dashboard: age groups: %w", err)
	}
	return &out, nil
}
