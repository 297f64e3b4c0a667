package viz

// EventKind identifies a state change
type EventKind string

const (
	EventDataReset        EventKind = "data_reset"
	EventDrillDown        EventKind = "drill_down"
	EventDrillUp          EventKind = "drill_up"
	EventEntitySelected   EventKind = "entity_selected"
	EventEntityCleared    EventKind = "entity_cleared"
	EventViewModeChanged  EventKind = "view_mode_changed"
	EventSelectionChanged EventKind = "selection_changed"
)

// Event is emitted by the state objects on every transition
type Event struct {
	Kind   EventKind `json:"kind"`
	Source string    `json:"source"`           // Emitting component, e.g. "map" or a chart ID
	Entity string    `json:"entity,omitempty"` // Selected pin ID or drill-down group key
}

// Notifier fans events out to subscribers in registration order
type Notifier struct {
	nextID int
	order  []int
	subs   map[int]func(Event)
}

// Subscribe registers fn and returns a func that removes it
func (n *Notifier) Subscribe(fn func(Event)) (unsubscribe func()) {
	if n.subs == nil {
		n.subs = make(map[int]func(Event))
	}
	id := n.nextID
	n.nextID++
	n.subs[id] = fn
	n.order = append(n.order, id)

	return func() {
		delete(n.subs, id)
		for i, v := range n.order {
			if v == id {
				n.order = append(n.order[:i], n.order[i+1:]...)
				break
			}
		}
	}
}

func (n *Notifier) emit(e Event) {
	// copy so a subscriber may unsubscribe during delivery
	ids := append([]int(nil), n.order...)
	for _, id := range ids {
		if fn, ok := n.subs[id]; ok {
			fn(e)
		}
	}
}
