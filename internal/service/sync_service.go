package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jengzang/salesmap-backend-go/internal/ingest"
	"github.com/jengzang/salesmap-backend-go/internal/logger"
	"github.com/jengzang/salesmap-backend-go/internal/models"
)

// ReportSource fetches raw sales reports
type ReportSource interface {
	SalesReport(ctx context.Context, r models.DateRange) ([]byte, error)
}

// PeriodSource is a ReportSource whose rows may be totals for the whole
// requested range instead of dated sales
type PeriodSource interface {
	PeriodTotals() bool
}

// SalesStore replaces stored rows for a range
type SalesStore interface {
	ReplaceRange(ctx context.Context, r models.DateRange, recs []models.SalesRecord) (int, error)
}

// SyncResult summarises one sync
type SyncResult struct {
	From     string `json:"from,omitempty"`
	To       string `json:"to,omitempty"`
	Records  int    `json:"records"`
	Skipped  int    `json:"skipped"` // Rows dated outside the range, or undated in a bounded range
	Duration int64  `json:"duration_ms"`
}

// SyncService pulls the ERP report into the local store
type SyncService struct {
	source       ReportSource
	store        SalesStore
	periodTotals bool
}

// NewSyncService creates a sync service; source may be nil for Import-only use
func NewSyncService(source ReportSource, store SalesStore) *SyncService {
	s := &SyncService{source: source, store: store}
	if p, ok := source.(PeriodSource); ok {
		s.periodTotals = p.PeriodTotals()
	}
	return s
}

// Sync fetches and stores the report for r
func (s *SyncService) Sync(ctx context.Context, r models.DateRange) (SyncResult, error) {
	if s.source == nil {
		return SyncResult{}, fmt.Errorf("erp sync is not configured")
	}
	if err := r.Validate(); err != nil {
		return SyncResult{}, err
	}
	payload, err := s.source.SalesReport(ctx, r)
	if err != nil {
		return SyncResult{}, fmt.Errorf("failed to fetch sales report: %w", err)
	}
	return s.Import(ctx, r, payload)
}

// Import normalizes a raw payload and replaces the stored range with the
// rows that fall inside it. Rows outside the range are skipped so a repeated
// import never stores them twice. Undated rows of a period-total source are
// dated on the last day of the range.
func (s *SyncService) Import(ctx context.Context, r models.DateRange, payload []byte) (SyncResult, error) {
	start := time.Now()
	recs, err := ingest.Normalize(payload)
	if err != nil {
		return SyncResult{}, fmt.Errorf("failed to normalize sales report: %w", err)
	}

	if s.periodTotals {
		stampUndated(recs, r)
	}
	kept := ingest.Filter(recs, models.MetricFilter{Range: r})
	skipped := len(recs) - len(kept)
	if skipped > 0 {
		logger.Log.WithField("skipped", skipped).Warn("sales report rows outside the sync range were skipped")
	}

	n, err := s.store.ReplaceRange(ctx, r, kept)
	if err != nil {
		return SyncResult{}, fmt.Errorf("failed to store sales records: %w", err)
	}

	res := SyncResult{Records: n, Skipped: skipped, Duration: time.Since(start).Milliseconds()}
	if !r.From.IsZero() {
		res.From = r.From.Format(models.DateLayout)
	}
	if !r.To.IsZero() {
		res.To = r.To.Format(models.DateLayout)
	}
	logger.Log.WithFields(logrus.Fields{
		"from":    res.From,
		"to":      res.To,
		"records": n,
		"skipped": skipped,
	}).Info("sales sync complete")
	return res, nil
}

func stampUndated(recs []models.SalesRecord, r models.DateRange) {
	day := r.To
	if day.IsZero() {
		day = r.From
	}
	if day.IsZero() {
		return
	}
	for i := range recs {
		if recs[i].Date.IsZero() {
			recs[i].Date = day
		}
	}
}
