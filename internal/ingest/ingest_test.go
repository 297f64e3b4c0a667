package ingest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/salesmap-backend-go/internal/models"
)

const report = `{
  "status": "success",
  "data": [
    {"Date": "05-01-2024", "Dealer Name": "DealerA", "State": "Maharashtra", "City": "Pune", "Category": "Implants", "Product Name": "Screw", "Value": "1,200.50", "Qty": 3},
    {"Date": "2024-01-06", "dealer_name": "DealerA", "state": "Maharashtra", "city": "Mumbai", "category": "Implants", "Item Name": "Plate", "total_sales": 800, "quantity": "2"},
    {"Date": "2024-01-07 10:30:00", "Dealer Name": "Innovative Ortho", "State": "Karnataka", "City": "Bengaluru", "Product Name": "Screw", "SV": -50, "SQ": 1},
    {"Value": 10},
    "garbage"
  ]
}`

func TestNormalize(t *testing.T) {
	recs, err := Normalize([]byte(report))
	require.NoError(t, err)
	require.Len(t, recs, 3)

	assert.Equal(t, models.SalesRecord{
		Date:     time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
		Dealer:   "DealerA",
		State:    "Maharashtra",
		City:     "Pune",
		Category: "Implants",
		Product:  "Screw",
		Value:    1200.5,
		Quantity: 3,
	}, recs[0])

	assert.Equal(t, "Plate", recs[1].Product)
	assert.Equal(t, 800.0, recs[1].Value)
	assert.Equal(t, 2.0, recs[1].Quantity)

	assert.Zero(t, recs[2].Value, "negative values clamp to zero")
	assert.Equal(t, time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC), recs[2].Date)
}

func TestNormalizeShapes(t *testing.T) {
	for name, payload := range map[string]string{
		"top-level":   `[{"dealer": "X", "value": 1}]`,
		"data":        `{"data": [{"dealer": "X", "value": 1}]}`,
		"data.data":   `{"data": {"data": [{"dealer": "X", "value": 1}]}}`,
		"report_data": `{"status": "success", "report_data": [{"comp_nm": "X", "SV": 1}]}`,
	} {
		t.Run(name, func(t *testing.T) {
			recs, err := Normalize([]byte(payload))
			require.NoError(t, err)
			require.Len(t, recs, 1)
			assert.Equal(t, "X", recs[0].Dealer)
		})
	}

	_, err := Normalize([]byte(`{"status": "error"}`))
	assert.ErrorIs(t, err, ErrNoRows)

	_, err = Normalize([]byte(`{not json`))
	assert.Error(t, err)

	_, err = Normalize([]byte(`[{"dealer": "X", "date": "yesterday"}]`))
	assert.Error(t, err)
}

func TestNormalizeIOSPLRow(t *testing.T) {
	recs, err := Normalize([]byte(`{"status": "success", "report_data": [
		{"comp_nm": " Ortho Care ", "city": "Chennai", "state": "Tamil Nadu", "parent_category": "Implants",
		 "category_name": "Locking Plate", "meta_keyword": "LP-01", "SQ": "4", "SV": "2,400"}
	]}`))
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, models.SalesRecord{
		Dealer:   "Ortho Care",
		State:    "Tamil Nadu",
		City:     "Chennai",
		Category: "Implants",
		Product:  "Locking Plate",
		Value:    2400,
		Quantity: 4,
	}, recs[0])
}

func TestNormalizeMetrics(t *testing.T) {
	metrics, err := NormalizeMetrics([]byte(`[
		{"name": "Maharashtra", "value": 100, "quantity": 4},
		{"label": "Karnataka", "total_sales": "50"},
		{"name": "Screw", "value": 10, "groupKey": "DealerA"},
		{"value": 5}
	]`))
	require.NoError(t, err)
	assert.Equal(t, []models.AggregatedMetric{
		{Name: "Maharashtra", Value: 100, Quantity: 4},
		{Name: "Karnataka", Value: 50},
		{Name: "Screw", Value: 10, GroupKey: "DealerA"},
	}, metrics)
}

func sampleRecords() []models.SalesRecord {
	day := func(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }
	return []models.SalesRecord{
		{Date: day(1), Dealer: "DealerA", State: "Maharashtra", City: "Pune", Product: "Screw", Value: 100, Quantity: 1},
		{Date: day(2), Dealer: "DealerA", State: "Maharashtra", City: "Mumbai", Product: "Plate", Value: 100, Quantity: 2},
		{Date: day(3), Dealer: "DealerB", State: "Karnataka", City: "Mysuru", Product: "Screw", Value: 50, Quantity: 1},
		{Date: day(4), Dealer: "Innovative", State: "Karnataka", City: "", Product: "Screw", Value: 500, Quantity: 9},
	}
}

func TestAggregate(t *testing.T) {
	recs := sampleRecords()

	states := Aggregate(recs, models.DimensionState)
	assert.Equal(t, []models.AggregatedMetric{
		{Name: "Karnataka", Value: 550, Quantity: 10},
		{Name: "Maharashtra", Value: 200, Quantity: 3},
	}, states)

	cities := Aggregate(recs, models.DimensionCity)
	assert.Len(t, cities, 3, "empty names are skipped")

	products := Aggregate(recs, models.DimensionProduct)
	require.Len(t, products, 4)
	assert.Equal(t, models.AggregatedMetric{Name: "Screw", Value: 500, Quantity: 9, GroupKey: "Innovative"}, products[0])
	assert.Equal(t, "DealerA", products[1].GroupKey)
	assert.Equal(t, "DealerA", products[2].GroupKey)
}

func TestFilter(t *testing.T) {
	recs := sampleRecords()

	got := Filter(recs, models.MetricFilter{Exclude: "innov"})
	assert.Len(t, got, 3)

	got = Filter(recs, models.MetricFilter{Range: models.DateRange{
		From: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC),
	}})
	assert.Len(t, got, 2)

	undated := append(sampleRecords(), models.SalesRecord{Dealer: "NoDate", Value: 1})
	assert.Len(t, Filter(undated, models.MetricFilter{}), 5, "an open range keeps undated rows")
	assert.Len(t, Filter(undated, models.MetricFilter{Range: models.DateRange{To: time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)}}), 4)

	got = Filter(recs, models.MetricFilter{State: "karnataka", Only: "dealer"})
	require.Len(t, got, 1)
	assert.Equal(t, "DealerB", got[0].Dealer)
	assert.Len(t, recs, 4)
}

func TestTop(t *testing.T) {
	m := Aggregate(sampleRecords(), models.DimensionDealer)
	assert.Len(t, Top(m, 2), 2)
	assert.Len(t, Top(m, 0), 3)
	assert.Len(t, Top(m, 10), 3)
}
