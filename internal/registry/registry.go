// Package registry holds the static place-name to coordinate lookup tables
// used to position map pins. Tables are loaded once at startup and never mutated.
package registry

import (
	"embed"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/golang/geo/s2"
	"gopkg.in/yaml.v3"
)

//go:embed data/*.yaml
var dataFS embed.FS

// GeoCoordinate is one registry entry
type GeoCoordinate struct {
	Key         string    `json:"key"`
	DisplayName string    `json:"display_name"`
	Parent      string    `json:"parent,omitempty"` // Owning state for cities
	LatLng      s2.LatLng `json:"-"`
}

// Latitude in degrees
func (g GeoCoordinate) Latitude() float64 { return g.LatLng.Lat.Degrees() }

// Longitude in degrees
func (g GeoCoordinate) Longitude() float64 { return g.LatLng.Lng.Degrees() }

// entry is the on-disk YAML shape
type entry struct {
	Key     string  `yaml:"key"`
	Display string  `yaml:"display"`
	Lat     float64 `yaml:"lat"`
	Lng     float64 `yaml:"lng"`
	Parent  string  `yaml:"parent"`
}

// Registry is an immutable name -> coordinate map
type Registry struct {
	kind    string
	entries map[string]GeoCoordinate
}

// Normalize produces the registry key for a free-text place name
func Normalize(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

// New builds a registry from coordinates, keyed by their normalized Key
func New(kind string, coords []GeoCoordinate) (*Registry, error) {
	r := &Registry{kind: kind, entries: make(map[string]GeoCoordinate, len(coords))}
	for _, c := range coords {
		key := Normalize(c.Key)
		if key == "" {
			return nil, fmt.Errorf("%s registry: empty key", kind)
		}
		if _, dup := r.entries[key]; dup {
			return nil, fmt.Errorf("%s registry: duplicate key %q", kind, key)
		}
		if !c.LatLng.IsValid() {
			return nil, fmt.Errorf("%s registry: invalid coordinate for %q", kind, key)
		}
		c.Key = key
		if c.DisplayName == "" {
			c.DisplayName = c.Key
		}
		r.entries[key] = c
	}
	return r, nil
}

// Decode reads a YAML list of entries
func Decode(kind string, rd io.Reader) (*Registry, error) {
	var raw []entry
	if err := yaml.NewDecoder(rd).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode %s registry: %w", kind, err)
	}
	coords := make([]GeoCoordinate, 0, len(raw))
	for _, e := range raw {
		coords = append(coords, GeoCoordinate{
			Key:         e.Key,
			DisplayName: e.Display,
			Parent:      e.Parent,
			LatLng:      s2.LatLngFromDegrees(e.Lat, e.Lng),
		})
	}
	return New(kind, coords)
}

// LoadEmbedded loads the bundled state and city tables
func LoadEmbedded() (states, cities *Registry, err error) {
	states, err = loadFile("state", "data/states.yaml")
	if err != nil {
		return nil, nil, err
	}
	cities, err = loadFile("city", "data/cities.yaml")
	if err != nil {
		return nil, nil, err
	}
	return states, cities, nil
}

func loadFile(kind, path string) (*Registry, error) {
	f, err := dataFS.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	return Decode(kind, f)
}

// Lookup finds the coordinate for a free-text place name
func (r *Registry) Lookup(name string) (GeoCoordinate, bool) {
	c, ok := r.entries[Normalize(name)]
	return c, ok
}

// Kind is "state" or "city"
func (r *Registry) Kind() string { return r.kind }

// Len returns the number of entries
func (r *Registry) Len() int { return len(r.entries) }

// Keys returns all keys sorted
func (r *Registry) Keys() []string {
	keys := make([]string, 0, len(r.entries))
	for k := range r.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
