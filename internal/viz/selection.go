package viz

// SelectionOptions is the item-filter UX policy
type SelectionOptions struct {
	// KeepOne refuses a toggle that would hide the last visible item
	KeepOne bool `json:"keep_one" mapstructure:"keep_one"`
}

// ItemFilter tracks which categorical items of a chart remain visible
type ItemFilter struct {
	source   string
	opts     SelectionOptions
	identity uint64
	loaded   bool
	items    []string // dataset order, de-duplicated
	selected map[string]bool
	notifier Notifier
}

// NewItemFilter returns an empty filter; source tags emitted events
func NewItemFilter(source string, opts SelectionOptions) *ItemFilter {
	return &ItemFilter{
		source:   source,
		opts:     opts,
		selected: make(map[string]bool),
	}
}

// Subscribe registers a change listener
func (f *ItemFilter) Subscribe(fn func(Event)) func() {
	return f.notifier.Subscribe(fn)
}

// Load sets the dataset's item names. identity fingerprints the whole
// dataset: when it differs from the last load the selection resets to every
// item, even if the names are unchanged; an identical dataset keeps it.
func (f *ItemFilter) Load(identity uint64, names []string) bool {
	if f.loaded && identity == f.identity {
		return false
	}
	f.Reset(names)
	f.identity = identity
	return true
}

// Reset unconditionally re-initialises the selection to all names
func (f *ItemFilter) Reset(names []string) {
	f.identity = NameIdentity(names)
	f.loaded = true
	f.items = f.items[:0]
	f.selected = make(map[string]bool, len(names))
	for _, n := range names {
		if _, dup := f.selected[n]; dup {
			continue
		}
		f.items = append(f.items, n)
		f.selected[n] = true
	}
	f.notifier.emit(Event{Kind: EventDataReset, Source: f.source})
}

// Toggle flips one item. It reports whether the selection changed: unknown
// names and (with KeepOne) removing the last visible item are refused.
func (f *ItemFilter) Toggle(name string) bool {
	on, known := f.selected[name]
	if !known {
		return false
	}
	if on && f.opts.KeepOne && f.Count() == 1 {
		return false
	}
	f.selected[name] = !on
	f.notifier.emit(Event{Kind: EventSelectionChanged, Source: f.source, Entity: name})
	return true
}

// SelectAll makes every item visible
func (f *ItemFilter) SelectAll() {
	for _, n := range f.items {
		f.selected[n] = true
	}
	f.notifier.emit(Event{Kind: EventSelectionChanged, Source: f.source})
}

// DeselectAll hides every item
func (f *ItemFilter) DeselectAll() {
	for _, n := range f.items {
		f.selected[n] = false
	}
	f.notifier.emit(Event{Kind: EventSelectionChanged, Source: f.source})
}

// Has reports whether name is visible
func (f *ItemFilter) Has(name string) bool {
	return f.selected[name]
}

// Count is the number of visible items
func (f *ItemFilter) Count() int {
	n := 0
	for _, on := range f.selected {
		if on {
			n++
		}
	}
	return n
}

// Total is the number of items in the dataset
func (f *ItemFilter) Total() int {
	return len(f.items)
}

// Selected lists visible items in dataset order
func (f *ItemFilter) Selected() []string {
	out := make([]string, 0, len(f.items))
	for _, n := range f.items {
		if f.selected[n] {
			out = append(out, n)
		}
	}
	return out
}

// Items lists every item in dataset order with its visibility
func (f *ItemFilter) Items() []SelectionItem {
	out := make([]SelectionItem, 0, len(f.items))
	for _, n := range f.items {
		out = append(out, SelectionItem{Name: n, Selected: f.selected[n]})
	}
	return out
}

// SelectionItem is one row of the filter dropdown
type SelectionItem struct {
	Name     string `json:"name"`
	Selected bool   `json:"selected"`
}

// Visible keeps the rows whose category is selected
func Visible[T any](f *ItemFilter, rows []T, category func(T) string) []T {
	out := make([]T, 0, len(rows))
	for _, r := range rows {
		if f.Has(category(r)) {
			out = append(out, r)
		}
	}
	return out
}
