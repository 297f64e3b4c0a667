package viz

import "fmt"

// ColorBand buckets a pin by its share of the maximum value
type ColorBand int

const (
	BandLow ColorBand = iota
	BandMedium
	BandHigh
	BandCritical
)

var bandNames = [...]string{"low", "medium", "high", "critical"}

// Band fills, low to critical
var bandColors = [...]string{"#6366f1", "#22c55e", "#f97316", "#ef4444"}

func (b ColorBand) String() string {
	if b < BandLow || b > BandCritical {
		return "unknown"
	}
	return bandNames[b]
}

// Color returns the fill color for the band
func (b ColorBand) Color() string {
	if b < BandLow || b > BandCritical {
		return bandColors[BandLow]
	}
	return bandColors[b]
}

// MarshalText implements encoding.TextMarshaler
func (b ColorBand) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (b *ColorBand) UnmarshalText(text []byte) error {
	for i, n := range bandNames {
		if n == string(text) {
			*b = ColorBand(i)
			return nil
		}
	}
	return fmt.Errorf("unknown color band %q", text)
}

// BandThresholds are the lower (exclusive) ratio bounds of each band above Low
type BandThresholds struct {
	Critical float64 `json:"critical" mapstructure:"critical"`
	High     float64 `json:"high" mapstructure:"high"`
	Medium   float64 `json:"medium" mapstructure:"medium"`
}

// DefaultBands are the dashboard's default break points
var DefaultBands = BandThresholds{Critical: 0.8, High: 0.5, Medium: 0.2}

// Validate requires 0 <= Medium <= High <= Critical <= 1 so banding stays monotonic
func (t BandThresholds) Validate() error {
	if t.Medium < 0 || t.Medium > t.High || t.High > t.Critical || t.Critical > 1 {
		return fmt.Errorf("band thresholds must satisfy 0 <= medium <= high <= critical <= 1, got %+v", t)
	}
	return nil
}

// BandFor classifies a ratio in [0, 1]
func (t BandThresholds) BandFor(ratio float64) ColorBand {
	switch {
	case ratio > t.Critical:
		return BandCritical
	case ratio > t.High:
		return BandHigh
	case ratio > t.Medium:
		return BandMedium
	}
	return BandLow
}
