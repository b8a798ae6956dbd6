package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/smazurov/sensorsim/pkg/subdev"
)

// ModeConfig is one [[modes]] entry of a sensor description.
type ModeConfig struct {
	Width         uint32 `toml:"width" json:"width"`
	Height        uint32 `toml:"height" json:"height"`
	Code          string `toml:"code" json:"code"`
	IntervalNum   uint32 `toml:"interval_numerator" json:"interval_numerator"`
	IntervalDen   uint32 `toml:"interval_denominator" json:"interval_denominator"`
	LinkFreqIndex int    `toml:"link_freq_index,omitempty" json:"link_freq_index,omitempty"`
	PixelRate     int64  `toml:"pixel_rate,omitempty" json:"pixel_rate,omitempty"`
	HBlank        int64  `toml:"hblank,omitempty" json:"hblank,omitempty"`
	VBlank        int64  `toml:"vblank,omitempty" json:"vblank,omitempty"`
}

// IdentityConfig is the [identity] table: what firmware would describe
// about the mounting of the sensor.
type IdentityConfig struct {
	Vendor      string `toml:"vendor,omitempty" json:"vendor,omitempty"`
	Model       string `toml:"model,omitempty" json:"model,omitempty"`
	Orientation string `toml:"orientation,omitempty" json:"orientation,omitempty"`
	Rotation    *int   `toml:"rotation,omitempty" json:"rotation,omitempty"`
}

// SensorConfig describes the modelled sensor: its name, link frequencies,
// identity and mode catalog. Empty sections fall back to built-in defaults.
type SensorConfig struct {
	Version         int            `toml:"version" json:"version"`
	Name            string         `toml:"name,omitempty" json:"name,omitempty"`
	Compatible      string         `toml:"compatible,omitempty" json:"compatible,omitempty"`
	LinkFrequencies []int64        `toml:"link_frequencies,omitempty" json:"link_frequencies,omitempty"`
	Identity        IdentityConfig `toml:"identity" json:"identity"`
	Modes           []ModeConfig   `toml:"modes,omitempty" json:"modes,omitempty"`
}

// DefaultSensorConfig describes the built-in device.
func DefaultSensorConfig() SensorConfig {
	cfg := SensorConfig{
		Version:         1,
		Name:            subdev.DefaultName,
		Compatible:      subdev.DefaultCompatible,
		LinkFrequencies: []int64{subdev.DefaultLinkFreq},
	}
	for _, m := range subdev.DefaultCatalog().List() {
		cfg.Modes = append(cfg.Modes, ModeFromSubdev(m))
	}
	return cfg
}

// ModeFromSubdev converts a catalog mode to its file form.
func ModeFromSubdev(m subdev.Mode) ModeConfig {
	return ModeConfig{
		Width:         m.Width,
		Height:        m.Height,
		Code:          subdev.CodeName(m.Code),
		IntervalNum:   m.Interval.Numerator,
		IntervalDen:   m.Interval.Denominator,
		LinkFreqIndex: m.LinkFreqIndex,
		PixelRate:     m.PixelRate,
		HBlank:        m.HBlank,
		VBlank:        m.VBlank,
	}
}

// LoadSensorConfig reads a sensor description. A missing file yields the
// defaults.
func LoadSensorConfig(path string) (SensorConfig, error) {
	cfg := DefaultSensorConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("failed to read sensor config: %w", err)
	}

	var file SensorConfig
	if err := toml.Unmarshal(data, &file); err != nil {
		return cfg, fmt.Errorf("failed to parse sensor config: %w", err)
	}

	if file.Version == 0 {
		file.Version = 1
	}
	if file.Name == "" {
		file.Name = cfg.Name
	}
	if file.Compatible == "" {
		file.Compatible = cfg.Compatible
	}
	if len(file.LinkFrequencies) == 0 {
		file.LinkFrequencies = cfg.LinkFrequencies
	}
	if len(file.Modes) == 0 {
		file.Modes = cfg.Modes
	}
	return file, nil
}

// SaveSensorConfig writes cfg to path, creating parent directories.
func SaveSensorConfig(path string, cfg SensorConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal sensor config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write sensor config: %w", err)
	}
	return nil
}

// Catalog builds the mode catalog described by the file.
func (c SensorConfig) Catalog() (subdev.Catalog, error) {
	modes := make([]subdev.Mode, 0, len(c.Modes))
	for i, mc := range c.Modes {
		code, err := subdev.ParseCode(mc.Code)
		if err != nil {
			return subdev.Catalog{}, fmt.Errorf("mode %d: %w", i, err)
		}
		if mc.IntervalNum == 0 || mc.IntervalDen == 0 {
			return subdev.Catalog{}, fmt.Errorf("mode %d: frame interval must be non-zero", i)
		}
		if mc.LinkFreqIndex < 0 || mc.LinkFreqIndex >= len(c.LinkFrequencies) {
			return subdev.Catalog{}, fmt.Errorf("mode %d: link frequency index %d out of range", i, mc.LinkFreqIndex)
		}
		if mc.HBlank < 0 || mc.HBlank > subdev.MaxBlanking {
			return subdev.Catalog{}, fmt.Errorf("mode %d: hblank %d outside [0, %d]", i, mc.HBlank, subdev.MaxBlanking)
		}
		if mc.VBlank < 0 || mc.VBlank > subdev.MaxBlanking {
			return subdev.Catalog{}, fmt.Errorf("mode %d: vblank %d outside [0, %d]", i, mc.VBlank, subdev.MaxBlanking)
		}
		pixelRate := mc.PixelRate
		if pixelRate == 0 {
			pixelRate = subdev.DefaultPixelRate
		}
		modes = append(modes, subdev.Mode{
			Width:         mc.Width,
			Height:        mc.Height,
			Code:          code,
			Interval:      subdev.Fraction{Numerator: mc.IntervalNum, Denominator: mc.IntervalDen},
			LinkFreqIndex: mc.LinkFreqIndex,
			PixelRate:     pixelRate,
			HBlank:        mc.HBlank,
			VBlank:        mc.VBlank,
		})
	}
	return subdev.NewCatalog(modes...)
}

// Properties converts the [identity] table.
func (c IdentityConfig) Properties() (subdev.Properties, error) {
	p := subdev.UnknownProperties()
	p.Vendor = c.Vendor
	p.Model = c.Model

	switch strings.ToLower(c.Orientation) {
	case "":
	case "front":
		p.Orientation = subdev.OrientationFront
	case "back":
		p.Orientation = subdev.OrientationBack
	case "external":
		p.Orientation = subdev.OrientationExternal
	default:
		return p, fmt.Errorf("invalid orientation %q", c.Orientation)
	}

	if c.Rotation != nil {
		if *c.Rotation < 0 || *c.Rotation > 360 {
			return p, fmt.Errorf("rotation %d outside [0, 360]", *c.Rotation)
		}
		p.Rotation = *c.Rotation
	}
	return p, nil
}

// IdentityFile supplies device identity from a sensor description file.
// The file is read when the device asks, once per construction.
type IdentityFile struct {
	Path string
}

// DeviceProperties implements subdev.IdentityProvider.
func (f IdentityFile) DeviceProperties(name string) (subdev.Properties, error) {
	cfg, err := LoadSensorConfig(f.Path)
	if err != nil {
		return subdev.UnknownProperties(), err
	}
	if cfg.Name != name {
		return subdev.UnknownProperties(), fmt.Errorf("%s describes %q, not %q", f.Path, cfg.Name, name)
	}
	return cfg.Identity.Properties()
}
