package models

import (
	"fmt"
	"strings"
	"time"
)

// Period is the comparison window of the non-billing report
type Period string

const (
	PeriodWeek    Period = "week"
	PeriodMonth   Period = "month"
	PeriodQuarter Period = "quarter"
	PeriodYear    Period = "year"
)

// ParsePeriod validates a period name; empty means month
func ParsePeriod(s string) (Period, error) {
	switch p := Period(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return PeriodMonth, nil
	case PeriodWeek, PeriodMonth, PeriodQuarter, PeriodYear:
		return p, nil
	}
	return "", fmt.Errorf("unknown period %q (want week, month, quarter or year)", s)
}

func (p Period) back(t time.Time, n int) time.Time {
	switch p {
	case PeriodWeek:
		return t.AddDate(0, 0, -7*n)
	case PeriodQuarter:
		return t.AddDate(0, -3*n, 0)
	case PeriodYear:
		return t.AddDate(-n, 0, 0)
	default:
		return t.AddDate(0, -n, 0)
	}
}

// Windows returns the period ending on asOf and the equal period before it
func (p Period) Windows(asOf time.Time) (previous, current DateRange) {
	day := 24 * time.Hour
	current = DateRange{From: p.back(asOf, 1).Add(day), To: asOf}
	previous = DateRange{From: p.back(asOf, 2).Add(day), To: current.From.Add(-day)}
	return previous, current
}

// DealerActivity is one dealer's sales in two adjacent periods
type DealerActivity struct {
	Dealer      string
	City        string
	State       string
	LastBilling time.Time // Zero when the dealer never billed
	Previous    float64
	Current     float64
}

// Severity bands for a sales decline, in percent
const (
	SeverityCritical = "critical" // >= 90
	SeverityHigh     = "high"     // >= 75
	SeverityMedium   = "medium"   // >= 50
	SeverityLow      = "low"
)

// DeclineSeverity bands a decline percentage
func DeclineSeverity(pct float64) string {
	switch {
	case pct >= 90:
		return SeverityCritical
	case pct >= 75:
		return SeverityHigh
	case pct >= 50:
		return SeverityMedium
	}
	return SeverityLow
}

// NonBillingDealer is a dealer whose sales fell against the previous period
type NonBillingDealer struct {
	DealerName           string  `json:"dealer_name"`
	City                 string  `json:"city"`
	State                string  `json:"state"`
	LastBillingDate      string  `json:"last_billing_date,omitempty"`
	PreviousPeriodSales  float64 `json:"previous_period_sales"`
	CurrentPeriodSales   float64 `json:"current_period_sales"`
	DeclinePercentage    float64 `json:"decline_percentage"`
	DaysSinceLastBilling int     `json:"days_since_last_billing"`
	Severity             string  `json:"severity"`
}

// YearlyTotal is one dimension value's sales in one calendar year
type YearlyTotal struct {
	Name     string
	Year     int
	Value    float64
	Quantity float64
}

// YearValue is the per-year cell of a comparative row
type YearValue struct {
	Quantity float64 `json:"quantity"`
	Value    float64 `json:"value"`
}

// ComparativeRow compares one dimension value across years
type ComparativeRow struct {
	Name     string            `json:"name"`
	YearData map[int]YearValue `json:"year_data"`
	Total    float64           `json:"total"`
	// Change is the last year against the one before, absent when that was zero
	Change *float64 `json:"change_percent,omitempty"`
}
