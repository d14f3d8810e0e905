// Package actuator maps the focus score to a discrete indicator band and
// drives the external microcontroller that displays it.
//
// The device protocol is one lowercase color token per update, newline
// terminated, over a serial byte stream. No acknowledgement is read back.
package actuator

// Band is the discrete output level derived from the focus score.
type Band int

const (
	// BandLow is a score below the low cutoff.
	BandLow Band = iota
	// BandMedium is a score between the cutoffs.
	BandMedium
	// BandHigh is a score at or above the high cutoff.
	BandHigh
)

// Default cutoffs.
const (
	DefaultLowCutoff  = 30.0
	DefaultHighCutoff = 70.0
)

// String returns the band name.
func (b Band) String() string {
	switch b {
	case BandLow:
		return "LOW"
	case BandMedium:
		return "MEDIUM"
	case BandHigh:
		return "HIGH"
	default:
		return "UNKNOWN"
	}
}

// Color returns the device color token for the band.
func (b Band) Color() string {
	switch b {
	case BandHigh:
		return "green"
	case BandMedium:
		return "yellow"
	default:
		return "red"
	}
}

// MarshalText encodes the band by name for JSON output.
func (b Band) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

// Mapper converts scores to bands. It is a pure value type.
type Mapper struct {
	LowCutoff  float64 // scores below this are LOW
	HighCutoff float64 // scores at or above this are HIGH
}

// DefaultMapper returns the 30/70 mapper.
func DefaultMapper() Mapper {
	return Mapper{LowCutoff: DefaultLowCutoff, HighCutoff: DefaultHighCutoff}
}

// Map returns the band for score.
func (m Mapper) Map(score float64) Band {
	switch {
	case score >= m.HighCutoff:
		return BandHigh
	case score >= m.LowCutoff:
		return BandMedium
	default:
		return BandLow
	}
}

// Valid reports whether the cutoffs are ordered and inside [0, 100].
func (m Mapper) Valid() bool {
	return m.LowCutoff >= 0 && m.HighCutoff <= 100 && m.LowCutoff < m.HighCutoff
}
