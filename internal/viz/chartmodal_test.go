package viz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func categoryConfig() ChartConfig {
	return ChartConfig{
		Type:  ChartBar,
		Title: "Category Sales",
		Rows: []Row{
			{"id": 1, "name": "Fasteners", "value": 120.0, "region": "West"},
			{"id": 2, "name": "Plates", "value": 80.0, "region": "North"},
			{"id": 3, "name": "Tools", "value": 40.0, "region": "South"},
		},
	}
}

func TestChartModalDefaults(t *testing.T) {
	m := NewChartModal("categories", SelectionOptions{})
	m.SetConfig(categoryConfig())

	r := m.Render()
	assert.Equal(t, "categories", r.ID)
	assert.Equal(t, "name", r.CategoryKey)
	assert.Equal(t, "value", r.ValueKey)
	assert.Len(t, r.Rows, 3)
	assert.Equal(t, 3, r.SelectedCount)
	assert.Equal(t, 3, r.TotalCount)
	assert.Equal(t, []string{"value"}, r.NumericKeys)
	assert.Equal(t, []string{"name", "region"}, r.CategoryKeys)
	assert.False(t, r.Empty)
}

func TestChartModalFiltering(t *testing.T) {
	m := NewChartModal("categories", SelectionOptions{})
	m.SetConfig(categoryConfig())

	require.True(t, m.Filter().Toggle("Plates"))
	r := m.Render()
	require.Len(t, r.Rows, 2)
	assert.Equal(t, "Fasteners", r.Rows[0]["name"])
	assert.Equal(t, "Tools", r.Rows[1]["name"])

	m.Filter().DeselectAll()
	r = m.Render()
	assert.True(t, r.Empty)
	assert.Equal(t, "No data selected", r.Placeholder)
}

func TestChartModalKeepsSelectionForIdenticalRows(t *testing.T) {
	m := NewChartModal("categories", SelectionOptions{})
	m.SetConfig(categoryConfig())
	m.Filter().Toggle("Tools")

	m.SetConfig(categoryConfig())
	assert.False(t, m.Filter().Has("Tools"))
	assert.Equal(t, 2, m.Filter().Count())
}

func TestChartModalResetsWhenValuesChange(t *testing.T) {
	m := NewChartModal("categories", SelectionOptions{})
	m.SetConfig(categoryConfig())
	m.Filter().DeselectAll()
	require.True(t, m.Render().Empty)

	cfg := categoryConfig()
	cfg.Rows[0]["value"] = 999.0
	m.SetConfig(cfg)

	r := m.Render()
	assert.False(t, r.Empty)
	assert.Len(t, r.Rows, 3)
	assert.Equal(t, 3, r.SelectedCount)

	m.Filter().Toggle("Plates")
	cfg.Rows = cfg.Rows[:2]
	m.SetConfig(cfg)
	assert.Equal(t, 2, m.Filter().Count())
	assert.True(t, m.Filter().Has("Plates"))
}

func TestChartModalResetsWhenCategoryKeyChanges(t *testing.T) {
	m := NewChartModal("categories", SelectionOptions{})
	m.SetConfig(categoryConfig())
	m.Filter().Toggle("Tools")

	cfg := categoryConfig()
	cfg.CategoryKey = "region"
	m.SetConfig(cfg)
	assert.Equal(t, []string{"West", "North", "South"}, m.Filter().Selected())
}

func TestChartModalNoData(t *testing.T) {
	m := NewChartModal("empty", SelectionOptions{})
	m.SetConfig(ChartConfig{Type: ChartPie})
	r := m.Render()
	assert.True(t, r.Empty)
	assert.Equal(t, "No data available", r.Placeholder)
}

func TestChartModalNonStringCategory(t *testing.T) {
	m := NewChartModal("years", SelectionOptions{})
	m.SetConfig(ChartConfig{CategoryKey: "year", Rows: []Row{{"year": 2023, "value": 1.0}, {"year": 2024, "value": 2.0}}})
	require.True(t, m.Filter().Toggle("2023"))
	r := m.Render()
	require.Len(t, r.Rows, 1)
	assert.Equal(t, 2024, r.Rows[0]["year"])
}
