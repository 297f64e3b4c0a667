// Package ingest turns ERP sales payloads into SalesRecords and aggregates
// them per dimension.
package ingest

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/jengzang/salesmap-backend-go/internal/models"
)

// ErrNoRows is returned when a payload holds no recognizable sales array
var ErrNoRows = errors.New("payload contains no sales rows")

// Field aliases seen across ERP report versions, in priority order
var (
	dateFields     = []string{"Date", "date", "Invoice Date", "Inv Date", "sale_date"}
	dealerFields   = []string{"Dealer Name", "dealer_name", "dealer", "Customer Name", "comp_nm"}
	stateFields    = []string{"State", "state"}
	cityFields     = []string{"City", "city"}
	categoryFields = []string{"Category", "category", "parent_category"}
	productFields  = []string{"Product Name", "Item Name", "product_name", "product", "Sub Category", "category_name"}
	valueFields    = []string{"Value", "value", "total_sales", "SV", "sales"}
	qtyFields      = []string{"Qty", "qty", "quantity", "SQ"}

	metricNameFields = []string{"name", "Name", "label"}
	groupKeyFields   = []string{"group_key", "groupKey", "dealer"}
)

// rows locates the array of row objects: top-level, "data", "data.data" or
// "report_data"
func rows(payload []byte) (gjson.Result, error) {
	if !gjson.ValidBytes(payload) {
		return gjson.Result{}, errors.New("payload is not valid JSON")
	}
	root := gjson.ParseBytes(payload)
	for _, candidate := range []gjson.Result{root, root.Get("data"), root.Get("data.data"), root.Get("report_data")} {
		if candidate.IsArray() {
			return candidate, nil
		}
	}
	return gjson.Result{}, ErrNoRows
}

// Normalize maps an ERP sales report into SalesRecords. Rows with no dealer,
// place or product are dropped. Values are never negative.
func Normalize(payload []byte) ([]models.SalesRecord, error) {
	arr, err := rows(payload)
	if err != nil {
		return nil, err
	}

	var out []models.SalesRecord
	var dateErr error
	arr.ForEach(func(_, row gjson.Result) bool {
		if !row.IsObject() {
			return true
		}
		rec := models.SalesRecord{
			Dealer:   text(row, dealerFields),
			State:    text(row, stateFields),
			City:     text(row, cityFields),
			Category: text(row, categoryFields),
			Product:  text(row, productFields),
			Value:    number(row, valueFields),
			Quantity: number(row, qtyFields),
		}
		if rec.Dealer == "" && rec.State == "" && rec.City == "" && rec.Product == "" {
			return true
		}
		if d := text(row, dateFields); d != "" {
			t, err := models.ParseDate(firstWord(d))
			if err != nil {
				dateErr = err
				return false
			}
			rec.Date = t
		}
		out = append(out, rec)
		return true
	})
	if dateErr != nil {
		return nil, dateErr
	}
	return out, nil
}

// NormalizeMetrics reads pre-aggregated rows ({name, value, quantity, group_key})
func NormalizeMetrics(payload []byte) ([]models.AggregatedMetric, error) {
	arr, err := rows(payload)
	if err != nil {
		return nil, err
	}
	var out []models.AggregatedMetric
	arr.ForEach(func(_, row gjson.Result) bool {
		name := text(row, metricNameFields)
		if name == "" {
			return true
		}
		out = append(out, models.AggregatedMetric{
			Name:     name,
			Value:    number(row, valueFields),
			Quantity: number(row, qtyFields),
			GroupKey: text(row, groupKeyFields),
		})
		return true
	})
	return out, nil
}

func first(row gjson.Result, fields []string) gjson.Result {
	for _, f := range fields {
		// keys may contain spaces but never gjson path syntax
		if v := row.Get(escape(f)); v.Exists() && v.Type != gjson.Null {
			return v
		}
	}
	return gjson.Result{}
}

func escape(field string) string {
	r := strings.NewReplacer(".", `\.`, "*", `\*`, "?", `\?`)
	return r.Replace(field)
}

func text(row gjson.Result, fields []string) string {
	return strings.TrimSpace(first(row, fields).String())
}

// number accepts JSON numbers and numeric strings like "1,23,456.50"
func number(row gjson.Result, fields []string) float64 {
	v := first(row, fields)
	var f float64
	switch v.Type {
	case gjson.Number:
		f = v.Float()
	case gjson.String:
		s := strings.ReplaceAll(strings.TrimSpace(v.Str), ",", "")
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0
	}
	return f
}

// firstWord drops a trailing time component ("2024-01-05 00:00:00")
func firstWord(s string) string {
	if i := strings.IndexAny(s, " T"); i > 0 {
		return s[:i]
	}
	return s
}
