package viz

import (
	"fmt"
	"sort"
)

// ChartType enumerates the modal's chart renderings
type ChartType string

const (
	ChartBar           ChartType = "bar"
	ChartHorizontalBar ChartType = "horizontalBar"
	ChartLine          ChartType = "line"
	ChartArea          ChartType = "area"
	ChartPie           ChartType = "pie"
	ChartDonut         ChartType = "donut"
	ChartComposed      ChartType = "composed"
)

// Row is one record of a generic chart dataset
type Row map[string]any

// ChartConfig describes the dataset a modal wraps
type ChartConfig struct {
	ID          string    `json:"id"`
	Type        ChartType `json:"type"`
	Title       string    `json:"title"`
	CategoryKey string    `json:"category_key"` // Categorical axis field
	ValueKey    string    `json:"value_key"`
	Rows        []Row     `json:"rows"`
}

// ChartModal is the expanded view of any chart with a multi-select item filter
type ChartModal struct {
	config ChartConfig
	filter *ItemFilter
}

// ModalRender is the visible subset of a modal's dataset
type ModalRender struct {
	ID            string          `json:"id"`
	Type          ChartType       `json:"type"`
	Title         string          `json:"title"`
	CategoryKey   string          `json:"category_key"`
	ValueKey      string          `json:"value_key"`
	NumericKeys   []string        `json:"numeric_keys"`
	CategoryKeys  []string        `json:"category_keys"`
	Rows          []Row           `json:"rows"`
	Items         []SelectionItem `json:"items"`
	SelectedCount int             `json:"selected_count"`
	TotalCount    int             `json:"total_count"`
	Empty         bool            `json:"empty"`
	Placeholder   string          `json:"placeholder,omitempty"`
}

// NewChartModal creates an empty modal
func NewChartModal(id string, opts SelectionOptions) *ChartModal {
	return &ChartModal{filter: NewItemFilter(id, opts), config: ChartConfig{ID: id}}
}

// Filter exposes the modal's item filter
func (m *ChartModal) Filter() *ItemFilter {
	return m.filter
}

// SetConfig replaces the dataset; the selection resets whenever the rows or
// the category key change
func (m *ChartModal) SetConfig(cfg ChartConfig) {
	if cfg.CategoryKey == "" {
		cfg.CategoryKey = "name"
	}
	if cfg.ValueKey == "" {
		cfg.ValueKey = "value"
	}
	if cfg.ID == "" {
		cfg.ID = m.config.ID
	}
	m.config = cfg
	m.filter.Load(scopeIdentity(RowIdentity(cfg.Rows), cfg.CategoryKey), m.categories())
}

func (m *ChartModal) categories() []string {
	names := make([]string, 0, len(m.config.Rows))
	for _, r := range m.config.Rows {
		names = append(names, categoryOf(r, m.config.CategoryKey))
	}
	return names
}

func categoryOf(r Row, key string) string {
	v, ok := r[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Render derives the visible rows
func (m *ChartModal) Render() ModalRender {
	key := m.config.CategoryKey
	rows := Visible(m.filter, m.config.Rows, func(r Row) string { return categoryOf(r, key) })
	numeric, categorical := RowKeys(m.config.Rows)

	out := ModalRender{
		ID:            m.config.ID,
		Type:          m.config.Type,
		Title:         m.config.Title,
		CategoryKey:   key,
		ValueKey:      m.config.ValueKey,
		NumericKeys:   numeric,
		CategoryKeys:  categorical,
		Rows:          rows,
		Items:         m.filter.Items(),
		SelectedCount: m.filter.Count(),
		TotalCount:    m.filter.Total(),
	}
	if len(rows) == 0 {
		out.Empty = true
		if len(m.config.Rows) == 0 {
			out.Placeholder = "No data available"
		} else {
			out.Placeholder = "No data selected"
		}
	}
	return out
}

// RowKeys splits the first row's fields into numeric and string keys, skipping ids
func RowKeys(rows []Row) (numeric, categorical []string) {
	if len(rows) == 0 {
		return nil, nil
	}
	for k, v := range rows[0] {
		if k == "id" || k == "_id" {
			continue
		}
		switch v.(type) {
		case float64, float32, int, int64, int32:
			numeric = append(numeric, k)
		case string:
			categorical = append(categorical, k)
		}
	}
	sort.Strings(numeric)
	sort.Strings(categorical)
	return numeric, categorical
}
