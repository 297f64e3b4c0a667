package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jengzang/salesmap-backend-go/internal/database"
	"github.com/jengzang/salesmap-backend-go/internal/models"
)

// ErrOutOfRange rejects a replacement containing records the range does not cover
var ErrOutOfRange = errors.New("sales record outside replacement range")

// dimensionColumns whitelists the GROUP BY column per dimension
var dimensionColumns = map[models.Dimension]string{
	models.DimensionDealer:   "dealer",
	models.DimensionState:    "state",
	models.DimensionCity:     "city",
	models.DimensionProduct:  "product",
	models.DimensionCategory: "category",
}

// SalesRepository handles database operations for sales records
type SalesRepository struct {
	db *sql.DB
}

// NewSalesRepository creates a new sales repository
func NewSalesRepository(db *sql.DB) *SalesRepository {
	return &SalesRepository{db: db}
}

func formatDate(d models.DateRange, from bool) string {
	t := d.To
	if from {
		t = d.From
	}
	if t.IsZero() {
		return ""
	}
	return t.Format(models.DateLayout)
}

// likeEscaper escapes LIKE wildcards; queries use ESCAPE '\'
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func contains(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
}

// whereClause builds the shared filter conditions
func whereClause(f models.MetricFilter) (string, []interface{}) {
	var conditions []string
	var args []interface{}

	if from := formatDate(f.Range, true); from != "" {
		conditions = append(conditions, "sale_date >= ?")
		args = append(args, from)
	}
	if to := formatDate(f.Range, false); to != "" {
		conditions = append(conditions, "sale_date <= ?")
		args = append(args, to)
	}
	if f.Exclude != "" {
		conditions = append(conditions, `LOWER(dealer) NOT LIKE ? ESCAPE '\'`)
		args = append(args, contains(f.Exclude))
	}
	if f.Only != "" {
		conditions = append(conditions, `LOWER(dealer) LIKE ? ESCAPE '\'`)
		args = append(args, contains(f.Only))
	}
	if f.State != "" {
		conditions = append(conditions, "state = ? COLLATE NOCASE")
		args = append(args, f.State)
	}
	if len(f.States) > 0 {
		marks := strings.TrimSuffix(strings.Repeat("?, ", len(f.States)), ", ")
		conditions = append(conditions, "state COLLATE NOCASE IN ("+marks+")")
		for _, s := range f.States {
			args = append(args, s)
		}
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

// Aggregate sums value and quantity per dimension value, highest value first.
// Product metrics are grouped per dealer and carry it as GroupKey.
func (r *SalesRepository) Aggregate(ctx context.Context, dim models.Dimension, f models.MetricFilter) ([]models.AggregatedMetric, error) {
	col, ok := dimensionColumns[dim]
	if !ok {
		return nil, fmt.Errorf("unknown dimension %q", dim)
	}

	group := "''"
	groupBy := col
	if dim == models.DimensionProduct {
		group = "dealer"
		groupBy = "dealer, product"
	}

	where, args := whereClause(f)
	nonEmpty := col + " <> ''"
	if where == "" {
		where = " WHERE " + nonEmpty
	} else {
		where += " AND " + nonEmpty
	}

	query := fmt.Sprintf(`SELECT %s, %s, SUM(value), SUM(quantity)
		FROM sales_records%s
		GROUP BY %s
		ORDER BY SUM(value) DESC, %s ASC`, col, group, where, groupBy, col)

	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate %s: %w", dim, err)
	}
	defer rows.Close()

	var metrics []models.AggregatedMetric
	for rows.Next() {
		var m models.AggregatedMetric
		if err := rows.Scan(&m.Name, &m.GroupKey, &m.Value, &m.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan %s metric: %w", dim, err)
		}
		metrics = append(metrics, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s metrics: %w", dim, err)
	}
	return metrics, nil
}

// ReplaceRange deletes the stored rows inside the range and inserts recs in
// one transaction. An open range replaces everything on that side. Every
// record must lie inside rng, otherwise nothing is written.
func (r *SalesRepository) ReplaceRange(ctx context.Context, rng models.DateRange, recs []models.SalesRecord) (int, error) {
	for _, rec := range recs {
		if !rng.Contains(rec.Date) {
			return 0, fmt.Errorf("%w: %s dated %q", ErrOutOfRange, rec.Dealer, formatRecordDate(rec))
		}
	}

	inserted := 0
	err := database.Transaction(ctx, r.db, func(tx *sql.Tx) error {
		where, args := whereClause(models.MetricFilter{Range: rng})
		if _, err := tx.ExecContext(ctx, "DELETE FROM sales_records"+where, args...); err != nil {
			return fmt.Errorf("failed to clear sales records: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `INSERT INTO sales_records
			(sale_date, dealer, state, city, category, product, value, quantity)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("failed to prepare insert: %w", err)
		}
		defer stmt.Close()

		for _, rec := range recs {
			if _, err := stmt.ExecContext(ctx, formatRecordDate(rec), rec.Dealer, rec.State, rec.City,
				rec.Category, rec.Product, rec.Value, rec.Quantity); err != nil {
				return fmt.Errorf("failed to insert sales record: %w", err)
			}
			inserted++
		}

		_, err = tx.ExecContext(ctx, `INSERT INTO sync_runs (from_date, to_date, records) VALUES (?, ?, ?)`,
			formatDate(rng, true), formatDate(rng, false), inserted)
		if err != nil {
			return fmt.Errorf("failed to record sync run: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

func formatRecordDate(rec models.SalesRecord) string {
	if rec.Date.IsZero() {
		return ""
	}
	return rec.Date.Format(models.DateLayout)
}

// Count returns the number of stored rows matching f
func (r *SalesRepository) Count(ctx context.Context, f models.MetricFilter) (int, error) {
	where, args := whereClause(f)
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sales_records"+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count sales records: %w", err)
	}
	return n, nil
}

// SyncRun is one completed ERP sync
type SyncRun struct {
	From       string `json:"from"`
	To         string `json:"to"`
	Records    int    `json:"records"`
	FinishedAt string `json:"finished_at"`
}

// LastSync returns the most recent sync run, if any
func (r *SalesRepository) LastSync(ctx context.Context) (*SyncRun, error) {
	var run SyncRun
	err := r.db.QueryRowContext(ctx, `SELECT from_date, to_date, records, finished_at
		FROM sync_runs ORDER BY id DESC LIMIT 1`).Scan(&run.From, &run.To, &run.Records, &run.FinishedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query last sync: %w", err)
	}
	return &run, nil
}
