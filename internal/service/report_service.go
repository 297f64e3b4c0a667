package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jengzang/salesmap-backend-go/internal/logger"
	"github.com/jengzang/salesmap-backend-go/internal/models"
)

// MaxComparativeYears caps the comparative report window
const MaxComparativeYears = 5

// DefaultMinDecline is the smallest decline the non-billing report lists
const DefaultMinDecline = 50.0

// ReportStore runs the report queries
type ReportStore interface {
	DealerActivity(ctx context.Context, previous, current models.DateRange, f models.MetricFilter) ([]models.DealerActivity, error)
	YearlyTotals(ctx context.Context, dim models.Dimension, f models.MetricFilter) ([]models.YearlyTotal, error)
}

// ReportService builds the tabular reports
type ReportService struct {
	store ReportStore
	now   func() time.Time
}

// NewReportService creates a report service
func NewReportService(store ReportStore) *ReportService {
	return &ReportService{store: store, now: time.Now}
}

// NonBillingQuery selects the non-billing report. A zero AsOf means today.
type NonBillingQuery struct {
	Period     models.Period
	AsOf       time.Time
	MinDecline float64
	Filter     models.MetricFilter // Dealer and state filters; the range is ignored
}

// NonBillingReport lists dealers whose sales dropped against the previous period
type NonBillingReport struct {
	Period   models.Period             `json:"period"`
	AsOf     string                    `json:"as_of"`
	Previous models.DateRange          `json:"previous"`
	Current  models.DateRange          `json:"current"`
	Dealers  []models.NonBillingDealer `json:"dealers"`
	Count    int                       `json:"count"`
}

func today(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }

// NonBilling lists dealers that billed in the previous period and declined by
// at least MinDecline percent in the current one, steepest decline first.
func (s *ReportService) NonBilling(ctx context.Context, q NonBillingQuery) (NonBillingReport, error) {
	if q.Period == "" {
		q.Period = models.PeriodMonth
	}
	if q.MinDecline < 0 || q.MinDecline > 100 {
		return NonBillingReport{}, invalid("min decline must be between 0 and 100")
	}
	asOf := q.AsOf
	if asOf.IsZero() {
		asOf = s.now()
	}
	asOf = today(asOf)

	previous, current := q.Period.Windows(asOf)
	activity, err := s.store.DealerActivity(ctx, previous, current, q.Filter)
	if err != nil {
		return NonBillingReport{}, fmt.Errorf("failed to load dealer activity: %w", err)
	}

	dealers := []models.NonBillingDealer{}
	for _, a := range activity {
		if a.Previous <= 0 {
			continue
		}
		decline := round1((a.Previous - a.Current) / a.Previous * 100)
		if decline <= 0 || decline < q.MinDecline {
			continue
		}
		d := models.NonBillingDealer{
			DealerName:          a.Dealer,
			City:                a.City,
			State:               a.State,
			PreviousPeriodSales: a.Previous,
			CurrentPeriodSales:  a.Current,
			DeclinePercentage:   decline,
			Severity:            models.DeclineSeverity(decline),
		}
		if !a.LastBilling.IsZero() {
			d.LastBillingDate = a.LastBilling.Format(models.DateLayout)
			d.DaysSinceLastBilling = int(asOf.Sub(a.LastBilling).Hours() / 24)
		}
		dealers = append(dealers, d)
	}
	sortNonBilling(dealers)
	if q.Filter.Limit > 0 && len(dealers) > q.Filter.Limit {
		dealers = dealers[:q.Filter.Limit]
	}

	logger.Log.WithFields(logrus.Fields{
		"period":  q.Period,
		"as_of":   asOf.Format(models.DateLayout),
		"dealers": len(dealers),
	}).Debug("non-billing report built")

	return NonBillingReport{
		Period:   q.Period,
		AsOf:     asOf.Format(models.DateLayout),
		Previous: previous,
		Current:  current,
		Dealers:  dealers,
		Count:    len(dealers),
	}, nil
}

func sortNonBilling(dealers []models.NonBillingDealer) {
	sort.SliceStable(dealers, func(i, j int) bool {
		a, b := dealers[i], dealers[j]
		if a.DeclinePercentage != b.DeclinePercentage {
			return a.DeclinePercentage > b.DeclinePercentage
		}
		if a.DaysSinceLastBilling != b.DaysSinceLastBilling {
			return a.DaysSinceLastBilling > b.DaysSinceLastBilling
		}
		return a.DealerName < b.DealerName
	})
}

// ComparativeQuery selects the year-over-year report. A zero EndYear means
// the current year.
type ComparativeQuery struct {
	Dimension models.Dimension
	Years     int
	EndYear   int
	Filter    models.MetricFilter // Dealer and state filters and Limit; the range is ignored
}

// ComparativeReport compares dimension values across consecutive years
type ComparativeReport struct {
	Dimension models.Dimension        `json:"dimension"`
	Years     []int                   `json:"years"`
	Rows      []models.ComparativeRow `json:"rows"`
	Count     int                     `json:"count"`
}

// Comparative sums each dimension value per year over the last Years years
// up to EndYear. Every row carries every year, zero-filled.
func (s *ReportService) Comparative(ctx context.Context, q ComparativeQuery) (ComparativeReport, error) {
	if q.Years == 0 {
		q.Years = 2
	}
	if q.Years < 1 || q.Years > MaxComparativeYears {
		return ComparativeReport{}, invalid("years must be between 1 and %d", MaxComparativeYears)
	}
	if q.Dimension == "" {
		q.Dimension = models.DimensionDealer
	}
	if q.EndYear == 0 {
		q.EndYear = s.now().Year()
	}

	first := q.EndYear - q.Years + 1
	years := make([]int, 0, q.Years)
	for y := first; y <= q.EndYear; y++ {
		years = append(years, y)
	}

	f := q.Filter
	f.Range = models.DateRange{
		From: time.Date(first, 1, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(q.EndYear, 12, 31, 0, 0, 0, 0, time.UTC),
	}
	totals, err := s.store.YearlyTotals(ctx, q.Dimension, f)
	if err != nil {
		return ComparativeReport{}, fmt.Errorf("failed to load yearly totals: %w", err)
	}

	index := make(map[string]int)
	rows := []models.ComparativeRow{}
	for _, t := range totals {
		if t.Year < first || t.Year > q.EndYear {
			continue
		}
		i, ok := index[t.Name]
		if !ok {
			i = len(rows)
			index[t.Name] = i
			row := models.ComparativeRow{Name: t.Name, YearData: make(map[int]models.YearValue, len(years))}
			for _, y := range years {
				row.YearData[y] = models.YearValue{}
			}
			rows = append(rows, row)
		}
		rows[i].YearData[t.Year] = models.YearValue{Quantity: t.Quantity, Value: t.Value}
		rows[i].Total += t.Value
	}

	if len(years) >= 2 {
		last, prev := years[len(years)-1], years[len(years)-2]
		for i := range rows {
			if p := rows[i].YearData[prev].Value; p > 0 {
				change := round1((rows[i].YearData[last].Value - p) / p * 100)
				rows[i].Change = &change
			}
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Total != rows[j].Total {
			return rows[i].Total > rows[j].Total
		}
		return rows[i].Name < rows[j].Name
	})
	if q.Filter.Limit > 0 && len(rows) > q.Filter.Limit {
		rows = rows[:q.Filter.Limit]
	}

	return ComparativeReport{Dimension: q.Dimension, Years: years, Rows: rows, Count: len(rows)}, nil
}
