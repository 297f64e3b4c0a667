// Package session holds per-user dashboard view state. Every mutation runs
// under the session lock so each transition is atomic to API callers.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/jengzang/salesmap-backend-go/internal/auth"
	"github.com/jengzang/salesmap-backend-go/internal/viz"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrChartNotFound   = errors.New("chart not found")
)

// DealerChartID names the dealer -> product drill-down chart
const DealerChartID = "dealers"

// Options are the presentation settings shared by every session
type Options struct {
	Map       viz.MapOptions
	Chart     viz.ChartOptions
	Selection viz.SelectionOptions
	States    viz.Locator
	Cities    viz.Locator
}

// Session is one logged-in dashboard
type Session struct {
	ID        string
	Username  string
	Role      string
	CreatedAt time.Time
	// AllowedStates scopes every query of a restricted user; empty means all
	AllowedStates []string

	mu       sync.Mutex
	clock    func() time.Time
	lastSeen time.Time
	closed   bool
	opts     Options

	Map          *viz.MapView
	Dealers      *viz.DrillDown
	DealerFilter *viz.ItemFilter
	Modals       map[string]*viz.ChartModal
}

func newSession(id string, p auth.Principal, opts Options, clock func() time.Time) *Session {
	now := clock()
	s := &Session{
		ID:            id,
		Username:      p.Username,
		Role:          p.Role,
		AllowedStates: p.States,
		CreatedAt:     now,
		clock:         clock,
		lastSeen:      now,
		opts:          opts,
		Map:           viz.NewMapView(opts.Map, opts.States, opts.Cities),
		Dealers:       viz.NewDrillDown(DealerChartID, "Dealer Performance", opts.Chart),
		DealerFilter:  viz.NewItemFilter(DealerChartID, opts.Selection),
		Modals:        make(map[string]*viz.ChartModal),
	}
	// the filter lists whatever the chart currently shows
	s.Dealers.Subscribe(func(e viz.Event) {
		switch e.Kind {
		case viz.EventDataReset, viz.EventDrillDown, viz.EventDrillUp:
			s.DealerFilter.Load(s.Dealers.ScopeIdentity(), s.Dealers.Entities())
		}
	})
	return s
}

// IsAdmin reports whether the session may manage users and access requests
func (s *Session) IsAdmin() bool { return s.Role == auth.RoleAdmin }

// Do runs fn with the session locked
func (s *Session) Do(fn func(*Session) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionNotFound
	}
	s.lastSeen = s.clock()
	return fn(s)
}

// Modal returns the chart modal for id, creating it on first use
func (s *Session) Modal(id string) *viz.ChartModal {
	m, ok := s.Modals[id]
	if !ok {
		m = viz.NewChartModal(id, s.opts.Selection)
		s.Modals[id] = m
	}
	return m
}

// Filter returns the item filter behind a chart ID
func (s *Session) Filter(chart string) (*viz.ItemFilter, error) {
	if chart == DealerChartID {
		return s.DealerFilter, nil
	}
	if m, ok := s.Modals[chart]; ok {
		return m.Filter(), nil
	}
	return nil, ErrChartNotFound
}

// DealerSeries renders the drill-down chart through its item filter
func (s *Session) DealerSeries() viz.Series {
	return s.Dealers.FilteredSeries(s.DealerFilter)
}

// LastSeen is the time of the last Do call
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// close drops all view state; later Do calls fail
func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.teardown()
}

// closeIfIdle closes the session when it was last seen before cutoff
func (s *Session) closeIfIdle(cutoff time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || !s.lastSeen.Before(cutoff) {
		return false
	}
	s.teardown()
	return true
}

func (s *Session) teardown() {
	s.closed = true
	s.Map = nil
	s.Dealers = nil
	s.DealerFilter = nil
	s.Modals = nil
}
