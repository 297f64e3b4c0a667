package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jengzang/salesmap-backend-go/internal/models"
)

// dated adds the undated-row exclusion to a whereClause result
func dated(where string) string {
	if where == "" {
		return " WHERE sale_date <> ''"
	}
	return where + " AND sale_date <> ''"
}

// DealerActivity sums each dealer's sales in the previous and current
// windows. Rows after current.To are ignored; f's own range is not used.
func (r *SalesRepository) DealerActivity(ctx context.Context, previous, current models.DateRange, f models.MetricFilter) ([]models.DealerActivity, error) {
	f.Range = models.DateRange{To: current.To}
	where, whereArgs := whereClause(f)
	where = dated(where) + " AND dealer <> ''"

	query := `SELECT dealer, MAX(city), MAX(state),
			MAX(CASE WHEN value > 0 THEN sale_date END),
			SUM(CASE WHEN sale_date BETWEEN ? AND ? THEN value ELSE 0 END),
			SUM(CASE WHEN sale_date BETWEEN ? AND ? THEN value ELSE 0 END)
		FROM sales_records` + where + `
		GROUP BY dealer
		ORDER BY dealer`

	args := []interface{}{
		formatDate(previous, true), formatDate(previous, false),
		formatDate(current, true), formatDate(current, false),
	}
	args = append(args, whereArgs...)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query dealer activity: %w", err)
	}
	defer rows.Close()

	var out []models.DealerActivity
	for rows.Next() {
		var a models.DealerActivity
		var last sql.NullString
		if err := rows.Scan(&a.Dealer, &a.City, &a.State, &last, &a.Previous, &a.Current); err != nil {
			return nil, fmt.Errorf("failed to scan dealer activity: %w", err)
		}
		if last.Valid {
			if a.LastBilling, err = time.Parse(models.DateLayout, last.String); err != nil {
				return nil, fmt.Errorf("dealer %s has malformed sale date %q: %w", a.Dealer, last.String, err)
			}
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate dealer activity: %w", err)
	}
	return out, nil
}

// YearlyTotals sums value and quantity per dimension value and calendar year
func (r *SalesRepository) YearlyTotals(ctx context.Context, dim models.Dimension, f models.MetricFilter) ([]models.YearlyTotal, error) {
	col, ok := dimensionColumns[dim]
	if !ok {
		return nil, fmt.Errorf("unknown dimension %q", dim)
	}

	where, args := whereClause(f)
	where = dated(where) + " AND " + col + " <> ''"

	query := fmt.Sprintf(`SELECT %s, CAST(substr(sale_date, 1, 4) AS INTEGER) AS year, SUM(value), SUM(quantity)
		FROM sales_records%s
		GROUP BY %s, year
		ORDER BY %s, year`, col, where, col, col)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query yearly %s totals: %w", dim, err)
	}
	defer rows.Close()

	var out []models.YearlyTotal
	for rows.Next() {
		var y models.YearlyTotal
		if err := rows.Scan(&y.Name, &y.Year, &y.Value, &y.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan yearly total: %w", err)
		}
		out = append(out, y)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate yearly totals: %w", err)
	}
	return out, nil
}
