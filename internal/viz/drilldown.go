package viz

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jengzang/salesmap-backend-go/internal/models"
	"github.com/jengzang/salesmap-backend-go/pkg/format"
)

// DrillMode is the drill-down chart state
type DrillMode string

const (
	ModeAggregate DrillMode = "aggregate"
	ModeDetail    DrillMode = "detail"
)

// DrillDownState is the externally visible state of a DrillDown
type DrillDownState struct {
	Mode             DrillMode `json:"mode"`
	SelectedGroupKey string    `json:"selected_group_key,omitempty"`
}

// Palette is the slice color cycle
var Palette = []string{"#6366f1", "#8b5cf6", "#ec4899", "#f43f5e", "#f97316", "#eab308", "#84cc16", "#22c55e", "#14b8a6", "#06b6d4"}

// ChartOptions are presentation constants for pie/donut series
type ChartOptions struct {
	PullTopN         int     `json:"pull_top_n" mapstructure:"pull_top_n"`                 // Largest N slices pulled out of the pie
	PullOffset       float64 `json:"pull_offset" mapstructure:"pull_offset"`               // Radial offset as a fraction of the radius
	LabelMinPercent  float64 `json:"label_min_percent" mapstructure:"label_min_percent"`   // Slices below this share get no label
	AggregateNameLen int     `json:"aggregate_name_len" mapstructure:"aggregate_name_len"` // Max runes of aggregate slice names
	DetailNameLen    int     `json:"detail_name_len" mapstructure:"detail_name_len"`       // Max runes of detail slice names
	AggregateNoun    string  `json:"aggregate_noun" mapstructure:"aggregate_noun"`
	DetailNoun       string  `json:"detail_noun" mapstructure:"detail_noun"`
	DetailTitle      string  `json:"detail_title" mapstructure:"detail_title"` // Appended to the group key in detail mode
}

// DefaultChartOptions matches the dealer -> product chart
var DefaultChartOptions = ChartOptions{
	PullTopN:         1,
	PullOffset:       0.05,
	LabelMinPercent:  3,
	AggregateNameLen: 20,
	DetailNameLen:    25,
	AggregateNoun:    "dealers",
	DetailNoun:       "products",
	DetailTitle:      "Product Distribution",
}

// Slice is one rendered pie slice
type Slice struct {
	Name       string  `json:"name"`   // Display name (truncated)
	Entity     string  `json:"entity"` // Full name; the drill target in aggregate mode
	Value      float64 `json:"value"`
	Quantity   float64 `json:"quantity,omitempty"`
	Percentage float64 `json:"percentage"` // Share of the visible scope
	Color      string  `json:"color"`
	Pull       float64 `json:"pull,omitempty"`
	Label      string  `json:"label,omitempty"`
	Tooltip    string  `json:"tooltip"`
}

// Series is the chart's render output
type Series struct {
	Title       string         `json:"title"`
	State       DrillDownState `json:"state"`
	Interactive bool           `json:"interactive"`
	CanDrill    bool           `json:"can_drill"`
	CanGoBack   bool           `json:"can_go_back"`
	Total       float64        `json:"total"`
	Slices      []Slice        `json:"slices"`
	Empty       bool           `json:"empty"`
	Placeholder string         `json:"placeholder,omitempty"`
	Hint        string         `json:"hint,omitempty"`
}

// DrillDown is the aggregate/detail pie chart state machine.
//
// Aggregate --click(E)--> Detail(E) only while interactive; Detail --back--> Aggregate.
// Loading data with a new identity, or leaving interactive mode, returns to Aggregate.
type DrillDown struct {
	id          string
	title       string
	opts        ChartOptions
	interactive bool
	state       DrillDownState
	identity    uint64
	loaded      bool
	aggregates  []models.AggregatedMetric
	details     []models.AggregatedMetric
	notifier    Notifier
}

// NewDrillDown creates a chart in aggregate mode with no data
func NewDrillDown(id, title string, opts ChartOptions) *DrillDown {
	return &DrillDown{
		id:    id,
		title: title,
		opts:  opts,
		state: DrillDownState{Mode: ModeAggregate},
	}
}

// Subscribe registers a transition listener
func (d *DrillDown) Subscribe(fn func(Event)) func() {
	return d.notifier.Subscribe(fn)
}

// State returns the current state
func (d *DrillDown) State() DrillDownState {
	return d.state
}

// Interactive reports whether drill-down clicks are honoured
func (d *DrillDown) Interactive() bool {
	return d.interactive
}

// SetData replaces the aggregate and detail arrays. A dataset with a new
// identity resets the chart to Aggregate; re-delivering the same rows is a no-op.
func (d *DrillDown) SetData(aggregates, details []models.AggregatedMetric) bool {
	id := Identity(aggregates, details)
	if d.loaded && id == d.identity {
		return false
	}
	d.identity = id
	d.loaded = true
	d.aggregates = aggregates
	d.details = details
	d.state = DrillDownState{Mode: ModeAggregate}
	d.notifier.emit(Event{Kind: EventDataReset, Source: d.id})
	return true
}

// SetInteractive switches between compact and fullscreen presentation.
// Leaving interactive mode returns to Aggregate.
func (d *DrillDown) SetInteractive(on bool) {
	d.interactive = on
	if !on && d.state.Mode == ModeDetail {
		d.state = DrillDownState{Mode: ModeAggregate}
		d.notifier.emit(Event{Kind: EventDrillUp, Source: d.id})
	}
}

// Click drills into entity. It is a no-op outside interactive mode, in
// detail mode, or when entity is not an aggregate slice.
func (d *DrillDown) Click(entity string) bool {
	if !d.interactive || d.state.Mode != ModeAggregate {
		return false
	}
	key, ok := d.findAggregate(entity)
	if !ok {
		return false
	}
	d.state = DrillDownState{Mode: ModeDetail, SelectedGroupKey: key}
	d.notifier.emit(Event{Kind: EventDrillDown, Source: d.id, Entity: key})
	return true
}

// Back returns from Detail to Aggregate
func (d *DrillDown) Back() bool {
	if !d.interactive || d.state.Mode != ModeDetail {
		return false
	}
	d.state = DrillDownState{Mode: ModeAggregate}
	d.notifier.emit(Event{Kind: EventDrillUp, Source: d.id})
	return true
}

// ScopeIdentity fingerprints the loaded data together with the current
// drill state, so filters over Entities reset when either changes
func (d *DrillDown) ScopeIdentity() uint64 {
	return scopeIdentity(d.identity, string(d.state.Mode), d.state.SelectedGroupKey)
}

func (d *DrillDown) findAggregate(entity string) (string, bool) {
	for _, m := range d.aggregates {
		if m.Name == entity {
			return m.Name, true
		}
	}
	for _, m := range d.aggregates {
		if strings.EqualFold(m.Name, entity) {
			return m.Name, true
		}
	}
	return "", false
}

// Series renders the current state. Percentages are relative to the rows in
// scope: all aggregates, or only the detail rows of the selected group.
func (d *DrillDown) Series() Series {
	return d.render(nil)
}

// FilteredSeries is Series restricted to the items selected in f. The filter
// only applies while the chart is interactive; percentages are recomputed
// over the visible rows.
func (d *DrillDown) FilteredSeries(f *ItemFilter) Series {
	if !d.interactive || f == nil {
		return d.render(nil)
	}
	return d.render(f)
}

// Entities lists the names of the rows in scope, in render order
func (d *DrillDown) Entities() []string {
	rows := d.scope()
	names := make([]string, 0, len(rows))
	for _, m := range rows {
		names = append(names, m.Name)
	}
	return names
}

func (d *DrillDown) scope() []models.AggregatedMetric {
	if d.state.Mode != ModeDetail {
		return d.aggregates
	}
	rows := DetailRows(d.details, d.state.SelectedGroupKey)
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Value > rows[j].Value })
	return rows
}

func (d *DrillDown) render(f *ItemFilter) Series {
	rows := d.scope()
	filtered := false
	if f != nil {
		visible := Visible(f, rows, func(m models.AggregatedMetric) string { return m.Name })
		filtered = len(visible) < len(rows)
		rows = visible
	}

	s := Series{
		Title:       d.title,
		State:       d.state,
		Interactive: d.interactive,
	}

	if d.state.Mode == ModeDetail {
		key := d.state.SelectedGroupKey
		s.Title = fmt.Sprintf("%s - %s", key, d.opts.DetailTitle)
		s.CanGoBack = d.interactive
		s.Slices, s.Total = d.slices(rows, d.opts.DetailNameLen)
		if len(s.Slices) == 0 {
			s.Empty = true
			s.Placeholder = fmt.Sprintf("No %s found for %s", d.opts.DetailNoun, key)
			if filtered {
				s.Placeholder = "No data selected"
			}
		}
		return s
	}

	s.CanDrill = d.interactive
	s.Slices, s.Total = d.slices(rows, d.opts.AggregateNameLen)
	switch {
	case len(s.Slices) == 0 && filtered:
		s.Empty = true
		s.Placeholder = "No data selected"
	case len(s.Slices) == 0:
		s.Empty = true
		s.Placeholder = fmt.Sprintf("No %s found", d.opts.AggregateNoun)
	case d.interactive:
		s.Hint = fmt.Sprintf("Click on any slice to see its %s distribution", strings.TrimSuffix(d.opts.DetailNoun, "s"))
	}
	return s
}

// DetailRows selects the detail rows owned by group key (case-insensitive)
func DetailRows(details []models.AggregatedMetric, key string) []models.AggregatedMetric {
	var rows []models.AggregatedMetric
	for _, m := range details {
		if m.GroupKey == key || strings.EqualFold(m.GroupKey, key) {
			rows = append(rows, m)
		}
	}
	return rows
}

func (d *DrillDown) slices(rows []models.AggregatedMetric, nameLen int) ([]Slice, float64) {
	total := models.TotalValue(rows)
	slices := make([]Slice, 0, len(rows))
	for i, m := range rows {
		pct := 0.0
		if total > 0 {
			pct = m.Value / total * 100
		}
		name := format.Truncate(m.Name, nameLen)
		if name == "" {
			name = "Unknown"
		}
		sl := Slice{
			Name:       name,
			Entity:     m.Name,
			Value:      m.Value,
			Quantity:   m.Quantity,
			Percentage: pct,
			Color:      Palette[i%len(Palette)],
			Tooltip:    fmt.Sprintf("%s: %s", name, format.IndianCurrency(m.Value)),
		}
		if pct >= d.opts.LabelMinPercent {
			sl.Label = format.Percent(pct)
		}
		slices = append(slices, sl)
	}
	applyPull(slices, d.opts.PullTopN, d.opts.PullOffset)
	return slices, total
}

// applyPull offsets the N largest slices. A lone slice is a full disc and is never pulled.
func applyPull(slices []Slice, n int, offset float64) {
	if len(slices) < 2 || n <= 0 || offset <= 0 {
		return
	}
	idx := make([]int, len(slices))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return slices[idx[a]].Value > slices[idx[b]].Value })
	if n > len(idx) {
		n = len(idx)
	}
	for _, i := range idx[:n] {
		slices[i].Pull = offset
	}
}
