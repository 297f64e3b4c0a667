package models

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the canonical storage/API date format
const DateLayout = "2006-01-02"

// ERPDateLayout is the date format the ERP expects
const ERPDateLayout = "02-01-2006"

// DateRange is an inclusive calendar-day range. Zero bounds are open.
type DateRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// Validate checks that the range is not inverted
func (r DateRange) Validate() error {
	if !r.From.IsZero() && !r.To.IsZero() && r.From.After(r.To) {
		return fmt.Errorf("from date %s is after to date %s", r.From.Format(DateLayout), r.To.Format(DateLayout))
	}
	return nil
}

// Bounded reports whether either side of the range is set
func (r DateRange) Bounded() bool {
	return !r.From.IsZero() || !r.To.IsZero()
}

// Contains reports whether t falls inside the range. An undated (zero) t is
// only inside a fully open range.
func (r DateRange) Contains(t time.Time) bool {
	if t.IsZero() {
		return !r.Bounded()
	}
	if !r.From.IsZero() && t.Before(r.From) {
		return false
	}
	return r.To.IsZero() || !t.After(r.To)
}

// ParseDate accepts YYYY-MM-DD or DD-MM-YYYY. An empty string yields the zero time.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{DateLayout, ERPDateLayout} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD or DD-MM-YYYY)", s)
}

// MetricQuery represents query parameters for aggregated metric endpoints
type MetricQuery struct {
	From    string `form:"from"`    // YYYY-MM-DD or DD-MM-YYYY
	To      string `form:"to"`      // YYYY-MM-DD or DD-MM-YYYY
	Exclude string `form:"exclude"` // Hide dealers whose name contains this (e.g. "Innovative")
	Only    string `form:"only"`    // Keep only dealers whose name contains this
	State   string `form:"state"`   // Restrict to one state
	Limit   int    `form:"limit"`   // Top N by value, 0 = all
}

// MetricFilter is the validated form of MetricQuery
type MetricFilter struct {
	Range   DateRange
	Exclude string
	Only    string
	State   string
	Limit   int
	// States scopes a restricted user to their allowed states; empty means all
	States []string
}

// Filter converts query parameters into a validated MetricFilter
func (q MetricQuery) Filter() (MetricFilter, error) {
	from, err := ParseDate(q.From)
	if err != nil {
		return MetricFilter{}, err
	}
	to, err := ParseDate(q.To)
	if err != nil {
		return MetricFilter{}, err
	}
	f := MetricFilter{
		Range:   DateRange{From: from, To: to},
		Exclude: strings.TrimSpace(q.Exclude),
		Only:    strings.TrimSpace(q.Only),
		State:   strings.TrimSpace(q.State),
		Limit:   q.Limit,
	}
	if err := f.Range.Validate(); err != nil {
		return MetricFilter{}, err
	}
	if f.Limit < 0 {
		return MetricFilter{}, fmt.Errorf("limit must not be negative")
	}
	return f, nil
}

// KeepDealer applies the dealer include/exclude substrings (case-insensitive)
func (f MetricFilter) KeepDealer(dealer string) bool {
	name := strings.ToLower(dealer)
	if f.Exclude != "" && strings.Contains(name, strings.ToLower(f.Exclude)) {
		return false
	}
	if f.Only != "" && !strings.Contains(name, strings.ToLower(f.Only)) {
		return false
	}
	return true
}

// KeepState applies the single-state filter and the allowed-state scope
func (f MetricFilter) KeepState(state string) bool {
	if f.State != "" && !strings.EqualFold(state, f.State) {
		return false
	}
	if len(f.States) == 0 {
		return true
	}
	for _, s := range f.States {
		if strings.EqualFold(state, s) {
			return true
		}
	}
	return false
}
