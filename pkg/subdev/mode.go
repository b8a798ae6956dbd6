package subdev

import (
	"errors"
	"fmt"
)

// Fraction is a rational number, used for frame intervals.
type Fraction struct {
	Numerator   uint32 `json:"numerator" toml:"numerator"`
	Denominator uint32 `json:"denominator" toml:"denominator"`
}

// FPS returns the frame rate described by a frame interval.
func (f Fraction) FPS() float64 {
	if f.Numerator == 0 {
		return 0
	}
	return float64(f.Denominator) / float64(f.Numerator)
}

func (f Fraction) String() string {
	return fmt.Sprintf("%d/%d", f.Numerator, f.Denominator)
}

// Mode is one fixed output configuration of the sensor.
type Mode struct {
	Width    uint32
	Height   uint32
	Code     uint32
	Interval Fraction

	// Values pushed into the dependent controls when the mode is selected.
	LinkFreqIndex int
	PixelRate     int64
	HBlank        int64
	VBlank        int64
}

// Default sensor timing.
const (
	DefaultPixelRate int64 = 154 * 1000000
	DefaultLinkFreq  int64 = 414720000
)

var defaultModes = []Mode{
	{
		Width:  1920,
		Height: 1200,
		Code:   MbusFmtBGR888_1X24,
		Interval: Fraction{
			Numerator:   10000,
			Denominator: 600000,
		},
		LinkFreqIndex: 0,
		PixelRate:     DefaultPixelRate,
	},
}

// Catalog is an immutable, ordered list of modes. It is never empty.
type Catalog struct {
	modes []Mode
}

// NewCatalog builds a catalog from the given modes.
func NewCatalog(modes ...Mode) (Catalog, error) {
	if len(modes) == 0 {
		return Catalog{}, errors.New("catalog must contain at least one mode")
	}
	for i, m := range modes {
		if m.Width == 0 || m.Height == 0 {
			return Catalog{}, fmt.Errorf("mode %d: zero dimension %dx%d", i, m.Width, m.Height)
		}
	}
	cp := make([]Mode, len(modes))
	copy(cp, modes)
	return Catalog{modes: cp}, nil
}

// DefaultCatalog returns the built-in single-mode catalog.
func DefaultCatalog() Catalog {
	c, _ := NewCatalog(defaultModes...)
	return c
}

// List returns a copy of all modes in catalog order.
func (c Catalog) List() []Mode {
	out := make([]Mode, len(c.modes))
	copy(out, c.modes)
	return out
}

// Len returns the number of modes.
func (c Catalog) Len() int {
	return len(c.modes)
}

// At returns the mode at index.
func (c Catalog) At(index uint32) (Mode, bool) {
	if int(index) >= len(c.modes) {
		return Mode{}, false
	}
	return c.modes[index], true
}

// Nearest returns the mode whose dimensions are closest to width x height,
// measured as |dw| + |dh|. An exact match ends the search; on equal
// distance the later entry wins.
func (c Catalog) Nearest(width, height uint32) Mode {
	return c.modes[c.nearestIndex(width, height)]
}

func (c Catalog) nearestIndex(width, height uint32) int {
	best := 0
	minErr := int64(-1)
	for i, m := range c.modes {
		e := absDiff(m.Width, width) + absDiff(m.Height, height)
		if minErr >= 0 && e > minErr {
			continue
		}
		minErr = e
		best = i
		if e == 0 {
			break
		}
	}
	return best
}

func absDiff(a, b uint32) int64 {
	d := int64(a) - int64(b)
	if d < 0 {
		return -d
	}
	return d
}
